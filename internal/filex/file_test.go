package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesOwnerOnly(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "exports")

	got, err := EnsureDir(dir)
	require.NoError(t, err)

	fi, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o700), fi.Mode().Perm())
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "exports")

	first, err := EnsureDir(dir)
	require.NoError(t, err)
	second, err := EnsureDir(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExportFileName(t *testing.T) {
	ts := time.Date(2026, 8, 31, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "passvault-vault-2026-08-31.json", ExportFileName(ts))
}

func TestWriteExport(t *testing.T) {
	tmp := t.TempDir()
	ts := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	path, err := WriteExport(filepath.Join(tmp, "exports"), []byte(`{"version":2}`), ts)
	require.NoError(t, err)
	assert.Equal(t, "passvault-vault-2026-08-31.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"version":2}`, string(data))

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}
}
