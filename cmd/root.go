// Package cmd implements the CLI commands for scopegate.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dgerlanc/scopegate/internal/audit"
	"github.com/dgerlanc/scopegate/internal/config"
	"github.com/dgerlanc/scopegate/internal/constants"
	"github.com/dgerlanc/scopegate/internal/logger"
)

var (
	// Global flags
	verbose    bool
	dryRun     bool
	profile    string
	noAuditLog bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scopegate",
	Short: "Lint files before an AI agent writes them",
	Long: `scopegate is a PreToolUse (Claude Code) and BeforeTool (Gemini CLI) hook
that rebuilds the file a write or edit would produce and blocks it when the
result does not parse or uses a Python name that is never defined. Inline
Python passed to an interpreter by a shell command is checked too.

When called without arguments, it reads the hook JSON from stdin. A denial is
written to stdout; an allowed Claude Code call produces no output.

Usage in ~/.claude/settings.json:
  "hooks": {
    "PreToolUse": [{
      "matcher": "Write|Edit|MultiEdit|Bash",
      "hooks": [{"type": "command", "command": "scopegate"}]
    }]
  }`,
	// Run the hook by default when no subcommand is given
	RunE: runHook,
	// Silence usage on errors
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Initialize before running any command
	cobra.OnInitialize(initApp)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Print the decision to stderr instead of hook JSON")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Config profile to use (or set "+constants.EnvProfile+" env var)")
	rootCmd.PersistentFlags().BoolVar(&noAuditLog, "no-audit-log", false, "Disable audit logging")
}

// initApp initializes the application (logger, config, audit)
func initApp() {
	// Check for profile from env var if not set via flag
	if profile == "" {
		profile = os.Getenv(constants.EnvProfile)
	}

	// The log format lives in config, which logs while loading. Start with
	// the text handler and switch once the file is read.
	if profile != "" {
		config.SetProfile(profile)
	}
	logger.Init(logger.Options{Verbose: verbose})
	err := config.Init()
	cfg := config.Get()
	if cfg.LogFormat != logger.FormatText {
		logger.Reset()
		logger.Init(logger.Options{Verbose: verbose, Format: cfg.LogFormat})
	}
	if err != nil {
		logger.Warn("config not loaded, using defaults", "error", err)
	}

	// Initialize audit logging (unless disabled)
	if err := audit.Init(audit.Options{
		Path:     cfg.Audit.Path,
		Disabled: noAuditLog || !cfg.Audit.Enabled,
		MaxSize:  cfg.Audit.MaxSize,
	}); err != nil {
		logger.Debug("audit log unavailable", "error", err)
	}
}

// IsVerbose returns whether verbose mode is enabled
func IsVerbose() bool {
	return verbose
}

// IsDryRun returns whether dry-run mode is enabled
func IsDryRun() bool {
	return dryRun
}

// GetProfile returns the current profile name
func GetProfile() string {
	return profile
}
