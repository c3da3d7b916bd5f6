package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sgov-project/sgov/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config <command>",
	Short: "Manage sgov configuration",
	Long: `Manage sgov configuration stored in .sgov/config.yaml.

Configuration options:
  remediation_days    - Days an owner has to fix a search after notification
  system_actor        - performed_by value when --actor is not given
  store.backend       - Lookup backend (csv, sqlite)
  store.dir           - Directory holding lookups, relative to .sgov
  store.lookup        - Name of the flagged-search lookup
  store.inventory     - Name of the search inventory lookup
  audit.path          - Audit log location, relative to .sgov
  notify.max_retries  - Webhook delivery retries
  notify.timeout      - Webhook request timeout (Go duration)
  logging.level       - debug, info, warn, error
  logging.format      - json, text
  metrics.addr        - Listen address of "sgov metrics"

Available commands:
  show              - Show current configuration
  set <key> <value> - Set a configuration value
  get <key>         - Get a configuration value`,
	DisableFlagsInUseLine: true,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Show the current sgov configuration from .sgov/config.yaml.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if jsonOutput {
			return outputJSON(cfg)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Println("# sgov configuration")
		fmt.Printf("# Location: %s\n\n", config.Path(root))
		fmt.Print(string(data))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in .sgov/config.yaml.

Examples:
  sgov config set remediation_days 14
  sgov config set store.backend sqlite
  sgov config set logging.format text`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		key, value := args[0], args[1]
		if err := cfg.Set(key, value); err != nil {
			return fmt.Errorf("set config: %w", err)
		}
		if err := config.Save(root, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		if jsonOutput {
			return outputJSON(map[string]string{"key": key, "value": value})
		}
		fmt.Printf("Set %s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a configuration value from .sgov/config.yaml.

Available keys:
  ` + strings.Join(config.Keys, "\n  "),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		key := args[0]
		value, err := cfg.Get(key)
		if err != nil {
			return fmt.Errorf("get config: %w", err)
		}

		if jsonOutput {
			return outputJSON(map[string]string{"key": key, "value": value})
		}
		if value == "" {
			fmt.Printf("%s (not set)\n", key)
		} else {
			fmt.Println(value)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	rootCmd.AddCommand(configCmd)
}
