package config

import (
	"encoding/json"
	"os"

	"passvault/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent
// fields stay zero and leave the running Config untouched.
type JsonConfig struct {
	DataDir       string `json:"data_dir"`
	Backend       string `json:"backend"`
	ExportDir     string `json:"export_dir"`
	KDFIterations int    `json:"kdf_iterations"`
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. When neither flag is set, nothing is loaded. Read or
// unmarshal errors panic; the process has no useful way to continue with a
// half-read config.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.Backend != "" {
		cfg.Backend = jc.Backend
	}
	if jc.ExportDir != "" {
		cfg.ExportDir = jc.ExportDir
	}
	if jc.KDFIterations != 0 {
		cfg.KDFIterations = jc.KDFIterations
	}
}
