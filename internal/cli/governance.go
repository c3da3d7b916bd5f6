package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sgov-project/sgov/internal/deadline"
	"github.com/sgov-project/sgov/internal/governance"
	"github.com/sgov-project/sgov/pkg/color"
	"github.com/sgov-project/sgov/pkg/errclass"
	"github.com/sgov-project/sgov/pkg/model"
)

var (
	flagReason     string
	markOKReason   string
	extendDays     int
	disableExpired bool
)

// printResult reports a committed change.
func printResult(res *governance.Result) error {
	if jsonOutput {
		return outputJSON(res)
	}
	fmt.Println(color.Success(res.Message))
	for _, rec := range res.Records {
		line := fmt.Sprintf("  %s -> %s", rec.SearchName, color.Status(string(rec.Status), string(rec.Status)))
		if rec.Status == model.StatusNotified && rec.HasDeadline() {
			line += color.Dim(fmt.Sprintf(" (deadline %d)", rec.RemediationDeadline))
		}
		fmt.Println(line)
	}
	for _, w := range res.Warnings {
		fmt.Println(color.Warning("warning: " + w))
	}
	return nil
}

// runOp builds a RunE for a batch operation over the named searches.
func runOp(op func(w *workspace, cmd *cobra.Command, names []string) (*governance.Result, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd.Context(), func(w *workspace) error {
			res, err := op(w, cmd, args)
			if err != nil {
				return w.explain(cmd, err, args)
			}
			return printResult(res)
		})
	}
}

// explain adds name suggestions to not-found errors.
func (w *workspace) explain(cmd *cobra.Command, err error, names []string) error {
	if !errors.Is(err, errclass.ErrRecordNotFound) || len(names) == 0 {
		return err
	}
	rows, lerr := w.svc.List(cmd.Context())
	if lerr != nil {
		return err
	}
	for _, n := range names {
		found := false
		for _, r := range rows {
			if r.SearchName == n {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w\n  %s", err, suggestSearches(n, rows))
		}
	}
	return err
}

var flagCmd = &cobra.Command{
	Use:   "flag <search>...",
	Short: "Flag suspicious searches for review",
	Long: `Flag one or more suspicious searches for review (suspicious -> pending).

Searches that are already flagged, notified, in review or disabled are
rejected with an "already flagged" error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOp(func(w *workspace, cmd *cobra.Command, names []string) (*governance.Result, error) {
		return w.svc.Flag(cmd.Context(), names, flagReason, actor)
	}),
}

var notifyCmd = &cobra.Command{
	Use:   "notify <search>...",
	Short: "Notify owners and start the remediation deadline",
	Long: `Notify the owners of flagged searches (-> notified).

The remediation deadline is set to now + remediation_days unless the search
already has one. One notification is sent per search to each enabled
webhook in notify.webhooks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOp(func(w *workspace, cmd *cobra.Command, names []string) (*governance.Result, error) {
		return w.svc.Notify(cmd.Context(), names, actor)
	}),
}

var reviewCmd = &cobra.Command{
	Use:   "review <search>...",
	Short: "Move searches to pending review",
	Args:  cobra.MinimumNArgs(1),
	RunE: runOp(func(w *workspace, cmd *cobra.Command, names []string) (*governance.Result, error) {
		return w.svc.Review(cmd.Context(), names, actor)
	}),
}

var disableCmd = &cobra.Command{
	Use:   "disable <search>...",
	Short: "Disable flagged searches",
	Args:  cobra.MinimumNArgs(1),
	RunE: runOp(func(w *workspace, cmd *cobra.Command, names []string) (*governance.Result, error) {
		return w.svc.Disable(cmd.Context(), names, actor)
	}),
}

var resolveCmd = &cobra.Command{
	Use:     "resolve <search>...",
	Aliases: []string{"unflag"},
	Short:   "Resolve flagged searches and remove them from the lookup",
	Args:    cobra.MinimumNArgs(1),
	RunE: runOp(func(w *workspace, cmd *cobra.Command, names []string) (*governance.Result, error) {
		return w.svc.Resolve(cmd.Context(), names, actor)
	}),
}

var transitionCmd = &cobra.Command{
	Use:   "transition <search> <status>",
	Short: "Move a search to a status",
	Long: `Move a search to a status: pending, notified, review, disabled or resolved.

Suspicious searches may only move to pending.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd.Context(), func(w *workspace) error {
			res, err := w.svc.Transition(cmd.Context(), args[0], model.StatusCode(args[1]), actor, flagReason)
			if err != nil {
				return w.explain(cmd, err, args[:1])
			}
			return printResult(res)
		})
	},
}

var markOKCmd = &cobra.Command{
	Use:   "mark-ok <search>",
	Short: "Acknowledge a suspicious search as acceptable",
	Long: `Acknowledge a suspicious search without flagging it. Only an audit
entry is written; the status does not change.`,
	Args: cobra.ExactArgs(1),
	RunE: runOp(func(w *workspace, cmd *cobra.Command, names []string) (*governance.Result, error) {
		return w.svc.MarkOK(cmd.Context(), names[0], actor, markOKReason)
	}),
}

var extendCmd = &cobra.Command{
	Use:   "extend <search>... --days N",
	Short: "Extend or reduce remediation deadlines",
	Long: `Move the remediation deadline of the named searches by --days.

Negative values reduce the deadline. If a reduction would put any deadline
at or before now, nothing is changed and the expiring searches are listed.
Pass --disable-expired to disable those searches instead.

Examples:
  sgov extend "Errors by Host" --days 7
  sgov extend a b c --days -3
  sgov extend a b --days -3 --disable-expired`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd.Context(), func(w *workspace) error {
			ctx := cmd.Context()
			res, err := w.svc.Extend(ctx, args, extendDays, actor)
			if err != nil && errors.Is(err, errclass.ErrRequiresDisableConfirmation) && res != nil {
				if !disableExpired {
					printBlocked(res)
					return err
				}
				names := make([]string, 0, len(res.Expired))
				for _, r := range res.Expired {
					names = append(names, r.SearchName)
				}
				disabled, derr := w.svc.DisableExpired(ctx, names, actor)
				if derr != nil {
					return derr
				}
				return printResult(disabled)
			}
			if err != nil {
				return w.explain(cmd, err, args)
			}
			if jsonOutput {
				return outputJSON(res)
			}
			fmt.Println(color.Success(res.Message))
			for _, c := range res.Changes {
				fmt.Printf("  %s: %d -> %d\n", c.SearchName, c.OldDeadline, c.NewDeadline)
			}
			return nil
		})
	},
}

func printBlocked(res *deadline.Result) {
	if jsonOutput {
		outputJSON(res)
		return
	}
	fmt.Println(color.Warning(res.Message))
	for _, r := range res.Expired {
		fmt.Printf("  %s (deadline %d)\n", r.SearchName, r.RemediationDeadline)
	}
}

func init() {
	flagCmd.Flags().StringVarP(&flagReason, "reason", "r", "", "reason recorded with the flag")
	transitionCmd.Flags().StringVarP(&flagReason, "reason", "r", "", "reason recorded when flagging")
	markOKCmd.Flags().StringVarP(&markOKReason, "reason", "r", "", "why the search is acceptable")
	extendCmd.Flags().IntVarP(&extendDays, "days", "d", 0, "days to add (negative to reduce)")
	extendCmd.Flags().BoolVar(&disableExpired, "disable-expired", false, "disable searches whose deadline would expire")
	extendCmd.MarkFlagRequired("days")

	rootCmd.AddCommand(flagCmd, notifyCmd, reviewCmd, disableCmd, resolveCmd, transitionCmd, markOKCmd, extendCmd)
}
