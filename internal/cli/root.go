package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sgov-project/sgov/pkg/color"
)

var (
	jsonOutput bool
	noColor    bool
	homeDir    string
	actor      string

	rootCmd = &cobra.Command{
		Use:   "sgov",
		Short: "sgov - scheduled search governance",
		Long: `sgov tracks scheduled searches through the governance lifecycle:
suspicious searches are flagged, owners are notified with a remediation
deadline, and searches end up resolved or disabled. Every change is
written to a hash-chained audit log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			color.Init(noColor)
		},
	}
)

func init() {
	addPersistentFlags(rootCmd)
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().StringVar(&homeDir, "home", "", "workspace root (default $SGOV_HOME or the current directory)")
	cmd.PersistentFlags().StringVar(&actor, "actor", "", "user recorded as performed_by (default system_actor)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmtErr("%s", formatError(err))
		os.Exit(1)
	}
}

// outputJSON prints v as JSON if --json flag is set, otherwise does nothing.
func outputJSON(v any) error {
	if !jsonOutput {
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputJSONOrError prints v as JSON if --json flag is set, or returns err.
func outputJSONOrError(v any, err error) error {
	if err != nil {
		return err
	}
	return outputJSON(v)
}

func fmtErr(format string, args ...any) {
	prefix := "sgov: "
	if color.Enabled() {
		prefix = color.Error("sgov:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}
