package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sgov-project/sgov/internal/governance"
	"github.com/sgov-project/sgov/internal/status"
	"github.com/sgov-project/sgov/pkg/color"
	"github.com/sgov-project/sgov/pkg/model"
)

var (
	listStatus  string
	listFlagged bool
)

var iconText = map[model.Icon]string{
	model.IconDisabled:   "[x]",
	model.IconNotified:   "[!]",
	model.IconFlagged:    "[F]",
	model.IconSuspicious: "[?]",
	model.IconNone:       "",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled searches with their governance status",
	Long: `List every search from the inventory and the flagged lookup.

Columns: badge, search name, owner, app, days left until the remediation
deadline and status. Badges: [x] disabled, [!] notified, [F] flagged,
[?] suspicious.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd.Context(), func(w *workspace) error {
			rows, err := w.svc.List(cmd.Context())
			if err != nil {
				return err
			}
			rows = filterRows(rows, model.StatusCode(listStatus), listFlagged)

			if jsonOutput {
				return outputJSON(rows)
			}
			if len(rows) == 0 {
				fmt.Println("No searches found.")
				return nil
			}
			return renderList(os.Stdout, rows)
		})
	},
}

// renderList aligns the plain columns with tabwriter and colors afterwards:
// the status sits in the last, unaligned column and the header is colored
// once its padding is fixed, so escape codes never count toward a width.
func renderList(out io.Writer, rows []governance.View) error {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tSEARCH\tOWNER\tAPP\tDAYS LEFT\tSTATUS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			iconText[r.Icon], r.SearchName, r.Owner, r.App, r.DaysLeft,
			color.Status(string(r.Status), r.Label))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	header, body, _ := strings.Cut(buf.String(), "\n")
	if _, err := fmt.Fprintln(out, color.Header(strings.TrimRight(header, " "))); err != nil {
		return err
	}
	_, err := io.WriteString(out, body)
	return err
}

func filterRows(rows []governance.View, code model.StatusCode, flaggedOnly bool) []governance.View {
	if code == "" && !flaggedOnly {
		return rows
	}
	out := rows[:0:0]
	for _, r := range rows {
		if code != "" && r.Status != code {
			continue
		}
		if flaggedOnly && !status.IsFlagged(r.Status) {
			continue
		}
		out = append(out, r)
	}
	return out
}

var showCmd = &cobra.Command{
	Use:   "show <search>",
	Short: "Show the governance record of one search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd.Context(), func(w *workspace) error {
			row, err := w.svc.Show(cmd.Context(), args[0])
			if err != nil {
				return w.explain(cmd, err, args)
			}
			if jsonOutput {
				return outputJSON(row)
			}

			label := row.Label
			if label == "" {
				label = "OK"
			}
			fmt.Printf("Search:     %s\n", row.SearchName)
			fmt.Printf("Owner:      %s\n", row.Owner)
			fmt.Printf("App:        %s\n", row.App)
			fmt.Printf("Status:     %s %s\n", color.Status(string(row.Status), label), iconText[row.Icon])
			if row.DaysLeft != "" {
				fmt.Printf("Days left:  %s\n", row.DaysLeft)
			}
			if row.HasDeadline() {
				fmt.Printf("Deadline:   %d\n", row.RemediationDeadline)
			}
			if row.FlagReason != "" {
				fmt.Printf("Reason:     %s\n", row.FlagReason)
			}
			if row.SuspiciousReason != "" {
				fmt.Printf("Suspicious: %s\n", row.SuspiciousReason)
			}
			if row.FlaggedBy != "" {
				fmt.Printf("Flagged by: %s at %d\n", row.FlaggedBy, row.FlaggedTime)
			}
			if row.NotificationSent {
				fmt.Printf("Notified:   %d\n", row.NotificationTime)
			}
			if row.IsDisabledByPlatform {
				fmt.Println(color.Dim("Disabled on the platform."))
			}
			if targets := status.Targets(row.Status); len(targets) > 0 {
				fmt.Println(color.Dim(transitionHint(row.Status)))
			}
			return nil
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count searches per governance bucket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd.Context(), func(w *workspace) error {
			sum, err := w.svc.Summary(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(sum)
			}
			fmt.Printf("Searches:   %d\n", sum.Total)
			fmt.Printf("Suspicious: %s\n", color.Status(string(model.StatusSuspicious), fmt.Sprint(sum.Suspicious)))
			fmt.Printf("Flagged:    %s\n", color.Status(string(model.StatusPending), fmt.Sprint(sum.Flagged)))
			fmt.Printf("Notified:   %d (%d expired)\n", sum.Notified, sum.Expired)
			fmt.Printf("Disabled:   %s\n", color.Status(string(model.StatusDisabled), fmt.Sprint(sum.Disabled)))
			return nil
		})
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "only show searches with this status")
	listCmd.Flags().BoolVar(&listFlagged, "flagged", false, "only show flagged searches (pending, notified, review)")
	rootCmd.AddCommand(listCmd, showCmd, summaryCmd)
}
