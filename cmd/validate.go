package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgerlanc/scopegate/internal/config"
	"github.com/dgerlanc/scopegate/internal/patterns"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and show the effective settings",
	Long: `Validate loads the scopegate configuration file and displays the settings
and compiled patterns that the hook will use.

This is useful for:
- Checking that your config.toml syntax is correct
- Seeing which interpreters and wrappers are recognized in shell commands
- Debugging why a file is or is not linted`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := config.InitError(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("failed to load configuration")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration valid!")
	if path := config.GetConfigPath(); path != "" {
		fmt.Fprintf(out, "File: %s\n", path)
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Timeout: %s\n", cfg.Timeout)
	fmt.Fprintf(out, "Fail policy: %s\n", cfg.FailPolicy)
	fmt.Fprintf(out, "Language: %s\n", cfg.Language)
	fmt.Fprintf(out, "Log format: %s\n", cfg.LogFormat)
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Linters: %s\n", strings.Join(enabledLinters(cfg), ", "))
	if len(cfg.Python.ExtraBuiltins) > 0 {
		fmt.Fprintf(out, "Extra builtins: %s\n", strings.Join(cfg.Python.ExtraBuiltins, ", "))
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Exclude globs: %d\n", len(cfg.Exclude))
	for _, g := range cfg.Exclude {
		fmt.Fprintf(out, "  - %s\n", g)
	}
	fmt.Fprintln(out)

	inline := "disabled"
	if cfg.Inline.Enabled {
		inline = "enabled"
	}
	fmt.Fprintf(out, "Inline code: %s\n", inline)
	printPatterns(out, "Interpreter patterns", cfg.Inline.Interpreters)
	fmt.Fprintln(out)
	printPatterns(out, "Wrapper patterns", cfg.WrapperPatterns)

	audit := "disabled"
	if cfg.Audit.Enabled {
		audit = "enabled"
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Audit log: %s\n", audit)
	return nil
}

func enabledLinters(cfg *config.Config) []string {
	var names []string
	if cfg.Python.Enabled {
		names = append(names, "python")
	}
	if cfg.JSON.Enabled {
		names = append(names, "json")
	}
	if cfg.YAML.Enabled {
		names = append(names, "yaml")
	}
	if len(names) == 0 {
		names = append(names, "none")
	}
	return names
}

func printPatterns(out io.Writer, title string, list []patterns.Pattern) {
	fmt.Fprintf(out, "%s: %d\n", title, len(list))
	for _, p := range list {
		fmt.Fprintf(out, "  - %s: %s\n", p.Name, p.Regex.String())
	}
}
