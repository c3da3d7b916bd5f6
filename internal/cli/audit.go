package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sgov-project/sgov/internal/audit"
	"github.com/sgov-project/sgov/pkg/color"
	"github.com/sgov-project/sgov/pkg/nameutil"
)

var (
	auditSearch string
	auditLimit  int
)

var auditCmd = &cobra.Command{
	Use:   "audit <command>",
	Short: "Inspect the governance audit log",
	Long: `Inspect the append-only audit log.

Available commands:
  log     - Show audit entries, optionally for one search
  verify  - Check the hash chain of the log`,
	DisableFlagsInUseLine: true,
}

var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show audit entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		records, err := audit.ReadAll(cfg.Resolve(root, cfg.Audit.Path))
		if err != nil {
			return err
		}
		if auditSearch != "" {
			records = audit.ForSearch(records, nameutil.Normalize(auditSearch))
		}
		if auditLimit > 0 && len(records) > auditLimit {
			records = records[len(records)-auditLimit:]
		}

		if jsonOutput {
			return outputJSON(records)
		}
		if len(records) == 0 {
			fmt.Println("No audit entries.")
			return nil
		}
		for _, r := range records {
			ts := time.Unix(r.Timestamp, 0).UTC().Format(time.RFC3339)
			line := fmt.Sprintf("%s  %-15s %s", color.Dim(ts), r.Action, r.SearchName)
			if r.OldStatus != r.NewStatus {
				line += fmt.Sprintf("  %s -> %s", orNone(string(r.OldStatus)), color.Status(string(r.NewStatus), string(r.NewStatus)))
			}
			if r.OldDeadline != r.NewDeadline {
				line += fmt.Sprintf("  deadline %d -> %d", r.OldDeadline, r.NewDeadline)
			}
			line += color.Dim("  by " + r.PerformedBy)
			if r.Details != "" {
				line += color.Dim("  (" + r.Details + ")")
			}
			fmt.Println(line)
		}
		return nil
	},
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the audit hash chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path := cfg.Resolve(root, cfg.Audit.Path)
		n, err := audit.Verify(path)
		if jsonOutput {
			result := map[string]any{"path": path, "entries": n, "valid": err == nil}
			if err != nil {
				result["error"] = err.Error()
			}
			if jerr := outputJSON(result); jerr != nil {
				return jerr
			}
			return err
		}
		if err != nil {
			return err
		}
		fmt.Println(color.Successf("Audit log OK: %d entries verified.", n))
		return nil
	},
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func init() {
	auditLogCmd.Flags().StringVarP(&auditSearch, "search", "s", "", "only show entries for this search")
	auditLogCmd.Flags().IntVarP(&auditLimit, "limit", "n", 0, "show only the last N entries")
	auditCmd.AddCommand(auditLogCmd, auditVerifyCmd)
	rootCmd.AddCommand(auditCmd)
}
