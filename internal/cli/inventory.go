package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sgov-project/sgov/internal/lookup"
	"github.com/sgov-project/sgov/pkg/color"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory <command>",
	Short: "Manage the search inventory",
	Long: `Manage the search inventory exported from the platform.

The inventory is a CSV with the columns
  search_name, search_owner, search_app, is_suspicious, disabled, suspicious_reason

Available commands:
  import <file> - Replace the inventory with a CSV export`,
	DisableFlagsInUseLine: true,
}

var inventoryImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the inventory with a CSV export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, cfg, err := loadConfig()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open inventory export: %w", err)
		}
		defer f.Close()
		facts, err := lookup.DecodeInventory(f)
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		store := lookup.NewCSVStore(cfg.Resolve(root, cfg.Store.Dir), cfg.Store.Inventory)
		if err := store.WriteInventory(cmd.Context(), facts); err != nil {
			return err
		}

		suspicious := 0
		for _, f := range facts {
			if f.IsSuspicious {
				suspicious++
			}
		}
		if jsonOutput {
			return outputJSON(map[string]any{"searches": len(facts), "suspicious": suspicious})
		}
		fmt.Println(color.Successf("Imported %d searches (%d suspicious).", len(facts), suspicious))
		return nil
	},
}

func init() {
	inventoryCmd.AddCommand(inventoryImportCmd)
	rootCmd.AddCommand(inventoryCmd)
}
