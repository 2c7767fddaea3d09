// Package sqlite implements the storage.KV interface on a local SQLite
// database. Schema is managed with embedded goose migrations; this is the
// default durable backend.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"passvault/internal/dbx"
)

//go:embed migrations/*.sql
var migrations embed.FS

// KV is a SQLite-backed key-value store.
type KV struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn and applies pending
// migrations.
func Open(ctx context.Context, dsn string) (*KV, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &KV{db: db}, nil
}

// NewWithDB wraps an already-open database. Used by tests.
func NewWithDB(ctx context.Context, db *sql.DB) (*KV, error) {
	if err := runMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &KV{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	return get(ctx, k.db, key)
}

func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	_, err := k.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

func (k *KV) Delete(ctx context.Context, key string) error {
	_, err := k.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

func (k *KV) DeletePrefix(ctx context.Context, prefix string) error {
	return dbx.WithTx(ctx, k.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key LIKE ? ESCAPE '\'`, likePattern(prefix))
		if err != nil {
			return fmt.Errorf("failed to delete kv prefix %q: %w", prefix, err)
		}
		return nil
	})
}

func (k *KV) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := k.db.QueryContext(ctx,
		`SELECT key FROM kv WHERE key LIKE ? ESCAPE '\' ORDER BY key`, likePattern(prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list kv keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan kv key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate kv keys: %w", err)
	}
	return keys, nil
}

func (k *KV) Clear(ctx context.Context) error {
	_, err := k.db.ExecContext(ctx, `DELETE FROM kv`)
	if err != nil {
		return fmt.Errorf("failed to clear kv: %w", err)
	}
	return nil
}

func (k *KV) Close() error {
	return k.db.Close()
}

func get(ctx context.Context, db dbx.DBTX, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return value, nil
}

// likePattern escapes LIKE metacharacters in prefix and appends the
// wildcard, so a literal prefix match is performed.
func likePattern(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
