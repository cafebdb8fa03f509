package cmd

import (
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgerlanc/scopegate/internal/config"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate a shell completion script for scopegate.

  $ source <(scopegate completion bash)
  $ scopegate completion zsh > "${fpath[1]}/_scopegate"
  $ scopegate completion fish > ~/.config/fish/completions/scopegate.fish
  PS> scopegate completion powershell | Out-String | Invoke-Expression

--profile completes from the config.<profile>.toml files in the config
directory.`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletionV2(out, true)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
	_ = rootCmd.RegisterFlagCompletionFunc("profile", completeProfiles)
}

// completeProfiles lists profile names that have a config file.
func completeProfiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return profilesIn(dir, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func profilesIn(dir, prefix string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		name, ok := strings.CutPrefix(e.Name(), "config.")
		if !ok || e.IsDir() {
			continue
		}
		name, ok = strings.CutSuffix(name, ".toml")
		if !ok || name == "" || !strings.HasPrefix(name, prefix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
