package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgerlanc/scopegate/internal/config"
	"github.com/dgerlanc/scopegate/internal/linter"
	"github.com/dgerlanc/scopegate/internal/logger"
	"github.com/dgerlanc/scopegate/internal/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Re-lint files as they change",
	Long: `Watch lints every Python, JSON and YAML file that is written under the
given directories (the current directory by default) and prints failures as
they happen. It runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "Quiet period before changed files are linted")
	watchCmd.Flags().IntVarP(&checkJobs, "jobs", "j", runtime.NumCPU(), "Number of files to lint concurrently")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := startWatch(ctx, args, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "watching %d directories, press Ctrl+C to stop\n", len(args))
	select {
	case <-ctx.Done():
	case <-w.Done():
	}
	return nil
}

// startWatch begins linting files changed under dirs and writing the
// results to out.
func startWatch(ctx context.Context, dirs []string, out io.Writer) (*watcher.Watcher, error) {
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", dir)
		}
	}

	cfg := config.Get()
	registry := linter.FromConfig(cfg)
	include := func(path string) bool {
		return registry.Handles(path) && !excluded(cfg, path)
	}

	w, err := watcher.New(watcher.Options{
		Debounce:    watchDebounce,
		ExcludeDirs: watcher.DefaultExcludeDirs,
		Include:     include,
	}, func(paths []string) {
		results := lintFiles(ctx, registry, existing(paths), nil, checkJobs)
		failed := printResults(out, results)
		logger.Debug("watch batch linted", "files", len(results), "failed", failed)
		if failed == 0 && len(results) > 0 {
			fmt.Fprintf(out, "%s: %d files ok\n", time.Now().Format(time.TimeOnly), len(results))
		}
	})
	if err != nil {
		return nil, err
	}
	if err := w.Watch(dirs); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch: %w", err)
	}
	return w, nil
}

// existing drops paths that were removed again before the batch ran.
func existing(paths []string) []string {
	out := paths[:0:0]
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}
