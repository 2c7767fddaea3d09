package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"passvault/internal/client/config"
	"passvault/internal/filex"
	"passvault/internal/logging"
	"passvault/internal/remote"
	"passvault/internal/storage"
	"passvault/internal/storage/bolt"
	"passvault/internal/storage/sqlite"
	"passvault/internal/vault"
)

// App wires the vault manager to the interactive terminal.
type App struct {
	config  *config.Config
	manager *vault.Manager
	kv      storage.KV
	log     logging.Logger
	reader  *bufio.Reader
	out     io.Writer
}

// NewApp opens the configured persistence backend and builds the
// application around it.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	kv, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open backend %q: %w", cfg.Backend, err)
	}

	store := vault.NewStore(kv, log)
	blobs := remote.NewKVStore(kv)
	manager := vault.NewManager(store, blobs, log, cfg.KDFIterations)

	return &App{
		config:  cfg,
		manager: manager,
		kv:      kv,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (storage.KV, error) {
	switch cfg.Backend {
	case "memory":
		return storage.NewMemory(), nil
	case "bolt":
		dir, err := filex.EnsureDir(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return bolt.Open(filepath.Join(dir, "vault.bolt"))
	case "sqlite", "":
		dir, err := filex.EnsureDir(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		dsn := "file:" + filepath.Join(dir, "vault.db")
		return sqlite.Open(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Run starts the interactive loop and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to passvault (type 'help' for commands)")

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)

	a.manager.Lock()
}

// Close releases the persistence backend.
func (a *App) Close() error {
	a.manager.Lock()
	return a.kv.Close()
}

func (a *App) isUnlocked() bool {
	return a.manager.State() == vault.StateUnlocked
}

func (a *App) getStatus() string {
	if owner := a.manager.Owner(); owner != "" {
		return fmt.Sprintf("(%s unlocked)", owner)
	}
	return "(locked)"
}
