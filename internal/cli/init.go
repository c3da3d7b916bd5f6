package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sgov-project/sgov/pkg/color"
	"github.com/sgov-project/sgov/pkg/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize an sgov workspace",
	Long: `Initialize an sgov workspace in the workspace root.

This creates .sgov/config.yaml with default settings and the lookup
directory. An existing configuration is left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot()
		if err != nil {
			return err
		}

		created := false
		if _, err := os.Stat(config.Path(root)); os.IsNotExist(err) {
			if err := config.Save(root, config.Default()); err != nil {
				return err
			}
			created = true
		}
		cfg, err := config.Load(root)
		if err != nil {
			return err
		}
		lookupDir := cfg.Resolve(root, cfg.Store.Dir)
		if err := os.MkdirAll(lookupDir, 0755); err != nil {
			return fmt.Errorf("create lookup dir: %w", err)
		}

		if jsonOutput {
			return outputJSON(map[string]any{
				"root":       root,
				"config":     config.Path(root),
				"lookup_dir": lookupDir,
				"created":    created,
			})
		}
		if created {
			fmt.Printf("Initialized sgov workspace in %s\n", color.Success(root))
		} else {
			fmt.Printf("sgov workspace already initialized in %s\n", root)
		}
		fmt.Printf("  Lookups: %s\n", lookupDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
