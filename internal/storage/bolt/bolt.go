// Package bolt implements the storage.KV interface on a single-file bbolt
// database. An alternative to the sqlite backend with no SQL layer at all.
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketName = []byte("kv")

// KV is a bbolt-backed key-value store.
type KV struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the database file at path.
func Open(path string) (*KV, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &KV{db: db}, nil
}

func (k *KV) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := k.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			value = make([]byte, len(v))
			copy(value, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return value, nil
}

func (k *KV) Set(_ context.Context, key string, value []byte) error {
	err := k.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

func (k *KV) Delete(_ context.Context, key string) error {
	err := k.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

func (k *KV) DeletePrefix(_ context.Context, prefix string) error {
	p := []byte(prefix)
	err := k.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)

		// Collect first: deleting through a cursor mid-iteration is fragile.
		var doomed [][]byte
		c := b.Cursor()
		for key, _ := c.Seek(p); key != nil && bytes.HasPrefix(key, p); key, _ = c.Next() {
			doomed = append(doomed, append([]byte(nil), key...))
		}
		for _, key := range doomed {
			if err := b.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete kv prefix %q: %w", prefix, err)
	}
	return nil
}

func (k *KV) Keys(_ context.Context, prefix string) ([]string, error) {
	p := []byte(prefix)
	var keys []string
	err := k.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for key, _ := c.Seek(p); key != nil && bytes.HasPrefix(key, p); key, _ = c.Next() {
			keys = append(keys, string(key))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list kv keys: %w", err)
	}
	return keys, nil
}

func (k *KV) Clear(_ context.Context) error {
	err := k.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketName); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketName)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to clear kv: %w", err)
	}
	return nil
}

func (k *KV) Close() error {
	return k.db.Close()
}
