package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "./passvault-data", c.DataDir)
	assert.Equal(t, "sqlite", c.Backend)
	assert.Equal(t, "./passvault-exports", c.ExportDir)
	assert.Equal(t, 0, c.KDFIterations)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"cmd"}

	cfg := LoadConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, "./passvault-data", cfg.DataDir)
}

func TestParseFlags(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"cmd", "-d", "/tmp/vault", "-b", "bolt", "-k", "50000"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "/tmp/vault", cfg.DataDir)
	assert.Equal(t, "bolt", cfg.Backend)
	assert.Equal(t, 50000, cfg.KDFIterations)
	assert.Equal(t, "./passvault-exports", cfg.ExportDir)
}

func TestParseEnv(t *testing.T) {
	t.Setenv("PASSVAULT_BACKEND", "memory")
	t.Setenv("PASSVAULT_KDF_ITERATIONS", "4096")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, 4096, cfg.KDFIterations)
	assert.Equal(t, "./passvault-data", cfg.DataDir)
}

func TestParseJson(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "conf.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"backend":"bolt","kdf_iterations":2048}`), 0o600))

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"cmd", "-c", file}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "bolt", cfg.Backend)
	assert.Equal(t, 2048, cfg.KDFIterations)
	assert.Equal(t, "./passvault-data", cfg.DataDir)
}
