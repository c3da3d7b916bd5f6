package lookup

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sgov-project/sgov/pkg/config"
)

// Open creates the configured store. The inventory is always read from CSV,
// since it is exported by the platform rather than written by sgov.
func Open(ctx context.Context, cfg *config.Config, root string) (Store, Inventory, error) {
	dir := cfg.Resolve(root, cfg.Store.Dir)
	inventory := NewCSVStore(dir, cfg.Store.Inventory)

	switch cfg.Store.Backend {
	case config.BackendCSV:
		return inventory, inventory, nil
	case config.BackendSQLite:
		s, err := OpenSQLite(ctx, filepath.Join(dir, "governance.db"))
		if err != nil {
			return nil, nil, err
		}
		return s, inventory, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
