package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sgov-project/sgov/internal/doctor"
)

var doctorRepair []string

var errUnhealthy = errors.New("workspace is unhealthy")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check workspace health",
	Long: `Check workspace health.

Reads the flagged lookup and the inventory, verifies the audit hash chain
and reports records that break the lifecycle rules, such as a notified
search without a remediation deadline. Exits non-zero when any critical or
error finding is present.

Use --repair clean_tmp to remove temp files left by interrupted writes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd.Context(), func(w *workspace) error {
			doc := doctor.NewDoctor(doctor.Options{
				Store:     w.store,
				Inventory: w.inventory,
				Scope:     w.cfg.Store.Lookup,
				AuditPath: w.auditPath,
				LookupDir: w.cfg.Resolve(w.root, w.cfg.Store.Dir),
			})

			if len(doctorRepair) > 0 {
				results, err := doc.Repair(doctorRepair)
				if err != nil {
					return err
				}
				if jsonOutput {
					return outputJSON(results)
				}
				for _, r := range results {
					fmt.Printf("  [%s] %s\n", r.Action, r.Message)
				}
				return nil
			}

			result, err := doc.Check(cmd.Context())
			if err != nil {
				return fmt.Errorf("doctor: %w", err)
			}

			if jsonOutput {
				if err := outputJSON(result); err != nil {
					return err
				}
			} else if len(result.Findings) == 0 {
				fmt.Printf("Workspace is healthy (%d records, %d audit entries).\n", result.Records, result.Audit)
			} else {
				fmt.Printf("Findings (%d):\n", len(result.Findings))
				for _, f := range result.Findings {
					fmt.Printf("  [%s] %s: %s\n", f.Severity, f.Category, f.Description)
				}
			}

			if !result.Healthy {
				return errUnhealthy
			}
			return nil
		})
	},
}

func init() {
	doctorCmd.Flags().StringSliceVar(&doctorRepair, "repair", nil, "run repair actions instead of checks (clean_tmp)")
	rootCmd.AddCommand(doctorCmd)
}
