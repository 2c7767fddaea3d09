// Package config loads runtime configuration for the vault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment variables PASSVAULT_* (see parseEnv).
//  4. Command-line flags (see parseFlags), which override everything.
//
// # JSON schema
//
//	{
//	  "data_dir": "./passvault-data",
//	  "backend": "sqlite",
//	  "export_dir": "./passvault-exports",
//	  "kdf_iterations": 100000
//	}
package config
