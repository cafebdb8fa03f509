package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgerlanc/scopegate/internal/config"
	"github.com/dgerlanc/scopegate/internal/constants"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new scopegate configuration file",
	Long: `Initialize creates a new scopegate configuration file with default settings.

The config file is written to ~/.config/scopegate/config.toml (or the
directory named by the ` + constants.EnvConfigDir + ` environment variable). With
--profile, config.<profile>.toml is written instead.

Use --force to overwrite an existing configuration file.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := config.GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	configPath := filepath.Join(configDir, config.FileName(profile))

	// A file still holding the defaults (written on first run) is not
	// worth protecting
	if current, err := os.ReadFile(configPath); err == nil && !initForce && !bytes.Equal(current, config.GetDefaultConfig()) {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	if err := os.MkdirAll(configDir, constants.DirMode); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, config.GetDefaultConfig(), constants.FileMode); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration written to: %s\n", configPath)
	fmt.Fprintln(out, "Run 'scopegate validate' to verify your configuration.")
	return nil
}
