package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sgov-project/sgov/internal/audit"
	"github.com/sgov-project/sgov/internal/governance"
	"github.com/sgov-project/sgov/internal/lookup"
	"github.com/sgov-project/sgov/internal/notify"
	"github.com/sgov-project/sgov/pkg/config"
	"github.com/sgov-project/sgov/pkg/logging"
	"github.com/sgov-project/sgov/pkg/uuidutil"
)

// workspace is an opened sgov workspace with its service wired up.
type workspace struct {
	root       string
	cfg        *config.Config
	svc        *governance.Service
	store      lookup.Store
	inventory  lookup.Inventory
	dispatcher notify.Dispatcher
	auditPath  string
}

// resolveRoot picks the workspace root: --home, then $SGOV_HOME, then CWD.
func resolveRoot() (string, error) {
	if homeDir != "" {
		return homeDir, nil
	}
	if env := os.Getenv(config.HomeEnv); env != "" {
		return env, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot get current directory: %w", err)
	}
	return cwd, nil
}

// loadConfig resolves the root and loads its configuration.
func loadConfig() (string, *config.Config, error) {
	root, err := resolveRoot()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return "", nil, err
	}
	return root, cfg, nil
}

// openWorkspace loads config, sets up logging and opens the stores.
func openWorkspace(ctx context.Context) (*workspace, error) {
	root, cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), logging.Format(cfg.Logging.Format))
	logging.SetGlobal(logger)

	store, inventory, err := lookup.Open(ctx, cfg, root)
	if err != nil {
		return nil, fmt.Errorf("open lookup store: %w", err)
	}
	dispatcher, err := notify.FromConfig(cfg.Notify)
	if err != nil {
		store.Close()
		return nil, err
	}

	auditPath := cfg.Resolve(root, cfg.Audit.Path)
	svc := governance.New(governance.Options{
		Store:           store,
		Inventory:       inventory,
		Scope:           cfg.Store.Lookup,
		Recorder:        audit.NewRecorder(cfg.SystemActor, uuidutil.NewSessionID()),
		Sink:            audit.NewFileAppender(auditPath),
		Dispatcher:      dispatcher,
		Logger:          logger,
		RemediationDays: cfg.RemediationDays,
	})

	return &workspace{
		root:       root,
		cfg:        cfg,
		svc:        svc,
		store:      store,
		inventory:  inventory,
		dispatcher: dispatcher,
		auditPath:  auditPath,
	}, nil
}

func (w *workspace) Close() error {
	derr := w.dispatcher.Close()
	if err := w.store.Close(); err != nil {
		return err
	}
	return derr
}

// withWorkspace opens the workspace for the duration of fn.
func withWorkspace(ctx context.Context, fn func(w *workspace) error) error {
	w, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer w.Close()
	return fn(w)
}
