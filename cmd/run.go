package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgerlanc/scopegate/internal/hook"
)

// runHook is the default command: it decides one hook invocation read
// from stdin.
func runHook(cmd *cobra.Command, args []string) error {
	result := hook.ProcessContext(commandContext(cmd), cmd.InOrStdin())

	if dryRun {
		// In dry-run mode, describe the decision on stderr instead of
		// writing hook JSON to stdout
		fmt.Fprintln(cmd.ErrOrStderr(), dryRunSummary(result))
		return nil
	}

	// Empty output is a silent allow
	if result.Output != "" {
		fmt.Fprint(cmd.OutOrStdout(), result.Output)
	}
	return nil
}

func dryRunSummary(result hook.Result) string {
	verdict := "ALLOWED"
	if !result.Allowed {
		verdict = "DENIED"
	}
	tool := result.Tool
	if tool == "" {
		tool = "(no tool)"
	}
	line := fmt.Sprintf("%s: %s", verdict, tool)
	if result.Path != "" {
		line += " " + result.Path
	}
	line += fmt.Sprintf(" (checked: %d, reason: %s)", result.Checked, result.Reason)
	return line
}
