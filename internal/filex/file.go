// Package filex contains small filesystem helpers used by the CLI for
// data directories and export files.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnsureDir creates dir (and parents) if needed and returns its absolute
// path. Vault data and exports contain secrets, so directories are created
// owner-only.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}

// ExportFileName returns the default export file name for the given time,
// e.g. "passvault-vault-2026-08-31.json".
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("passvault-vault-%s.json", now.UTC().Format("2006-01-02"))
}

// WriteExport writes an export document into dir under the default name
// for now, creating dir if needed. The file is owner-only readable. It
// returns the full path written.
func WriteExport(dir string, data []byte, now time.Time) (string, error) {
	abs, err := EnsureDir(dir)
	if err != nil {
		return "", err
	}

	path := filepath.Join(abs, ExportFileName(now))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
