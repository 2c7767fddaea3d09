package config

// Config holds runtime settings for the vault CLI.
//
// Backend selects the persistence engine: "sqlite", "bolt" or "memory".
// KDFIterations is the PBKDF2 cost applied when a vault is created; zero
// selects the built-in default.
type Config struct {
	DataDir       string `env:"PASSVAULT_DATA_DIR"`
	Backend       string `env:"PASSVAULT_BACKEND"`
	ExportDir     string `env:"PASSVAULT_EXPORT_DIR"`
	KDFIterations int    `env:"PASSVAULT_KDF_ITERATIONS"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = "./passvault-data"
	c.Backend = "sqlite"
	c.ExportDir = "./passvault-exports"
	c.KDFIterations = 0
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present), environment variables, and command-line flags.
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
