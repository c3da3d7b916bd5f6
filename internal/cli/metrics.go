package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sgov-project/sgov/pkg/metrics"
)

var (
	metricsAddr string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Start Prometheus metrics server",
	Long: `Start a Prometheus metrics server for sgov.

This exposes a /metrics endpoint with Prometheus-format counters:
  - sgov_transitions_total{from,to}
  - sgov_deadline_changes_total{direction}
  - sgov_extensions_blocked_total
  - sgov_audit_entries_total{action}
  - sgov_notifications_total{result}
  - sgov_rejections_total{code}

The server runs in the foreground until interrupted. Without --addr the
metrics.addr config value is used.

Examples:
  sgov metrics                    # Start on metrics.addr (default :2112)
  sgov metrics --addr :9090       # Start on custom port`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := metricsAddr
		if addr == "" {
			_, cfg, err := loadConfig()
			if err != nil {
				return err
			}
			addr = cfg.Metrics.Addr
		}
		// register collectors before the first scrape
		metrics.Default()

		fmt.Printf("Starting Prometheus metrics server on %s\n", addr)
		fmt.Printf("Metrics available at http://%s/metrics\n", addr)
		fmt.Println("Press Ctrl+C to stop")

		if err := metrics.StartServer(addr); err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	},
}

func init() {
	metricsCmd.Flags().StringVarP(&metricsAddr, "addr", "a", "", "address to listen on")
	rootCmd.AddCommand(metricsCmd)
}
