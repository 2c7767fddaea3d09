package config

import "github.com/caarlos0/env/v6"

// parseEnv overlays cfg with PASSVAULT_* environment variables declared in
// the Config struct tags. Unset variables leave earlier values in place.
func parseEnv(cfg *Config) {
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}
}
