package config

import (
	"flag"
	"os"

	"passvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d string   data directory for the persistence backend
//	-b string   persistence backend: sqlite, bolt or memory
//	-e string   directory for export files
//	-k int      PBKDF2 iteration count for new vaults (0 = default)
//
// os.Args is filtered through flagx.FilterArgs so flags owned by other
// components do not break parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-b", "-e", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "persistence backend (sqlite, bolt, memory)")
	fs.StringVar(&cfg.ExportDir, "e", cfg.ExportDir, "export directory")
	fs.IntVar(&cfg.KDFIterations, "k", cfg.KDFIterations, "PBKDF2 iterations for new vaults")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
