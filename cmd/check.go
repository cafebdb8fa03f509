package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dgerlanc/scopegate/internal/config"
	"github.com/dgerlanc/scopegate/internal/constants"
	"github.com/dgerlanc/scopegate/internal/linter"
	"github.com/dgerlanc/scopegate/internal/logger"
	"github.com/dgerlanc/scopegate/internal/watcher"
)

// checkTool is the tool name reported in messages for files linted from
// the command line.
const checkTool = "check"

// stdinName is how "-" is shown in results.
const stdinName = "<stdin>"

// ErrCheckFailed is returned when at least one file fails.
var ErrCheckFailed = errors.New("check failed")

var checkJobs int

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Lint files and directories",
	Long: `Check lints Python, JSON and YAML files the same way the hook does and
prints every failure. Directories are walked recursively, honoring the exclude
globs from config. Use "-" to read Python source from stdin.

The exit status is non-zero when any file fails.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().IntVarP(&checkJobs, "jobs", "j", runtime.NumCPU(), "Number of files to lint concurrently")
}

// fileResult is the lint verdict for one file.
type fileResult struct {
	Path   string
	Result linter.Result
	Err    error
}

// Failed reports whether the file should fail the run.
func (r fileResult) Failed() bool {
	return r.Err != nil || !r.Result.Valid
}

// commandContext returns the command's context, which is nil when the
// command is run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runCheck(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}
	cfg := config.Get()
	registry := linter.FromConfig(cfg)

	files, err := collectFiles(args, cfg, registry)
	if err != nil {
		return err
	}

	var stdin []byte
	if slices.Contains(files, "-") {
		if stdin, err = io.ReadAll(cmd.InOrStdin()); err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	results := lintFiles(commandContext(cmd), registry, files, stdin, checkJobs)
	failed := printResults(cmd.OutOrStdout(), results)
	fmt.Fprintf(cmd.ErrOrStderr(), "%d files checked, %d failed\n", len(results), failed)
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d files", ErrCheckFailed, failed, len(results))
	}
	return nil
}

// collectFiles expands args into the files a linter handles. Explicit
// files are always kept; walked files are filtered by the exclude globs.
func collectFiles(args []string, cfg *config.Config, registry *linter.Registry) ([]string, error) {
	var files []string
	for _, arg := range args {
		if arg == "-" {
			files = append(files, arg)
			continue
		}
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			if registry.Handles(arg) {
				files = append(files, arg)
			} else {
				logger.Warn("no linter for file", "path", arg)
			}
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && slices.Contains(watcher.DefaultExcludeDirs, d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if registry.Handles(path) && !excluded(cfg, path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
		}
	}
	return files, nil
}

func excluded(cfg *config.Config, path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return cfg.Excluded(abs, "")
}

// lintFiles lints every file with at most jobs running at once. Results
// keep the order of files.
func lintFiles(ctx context.Context, registry *linter.Registry, files []string, stdin []byte, jobs int) []fileResult {
	if jobs < 1 {
		jobs = 1
	}
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			results[i] = lintFile(ctx, registry, path, stdin)
			return nil
		})
	}
	// workers never fail; per-file errors are kept in the results
	_ = g.Wait()
	return results
}

func lintFile(ctx context.Context, registry *linter.Registry, path string, stdin []byte) fileResult {
	if path == "-" {
		res := registry.Lint(ctx, linter.Request{Path: constants.InlinePath, Tool: checkTool, Content: stdin})
		return fileResult{Path: stdinName, Result: res}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fileResult{Path: path, Err: err}
	}
	return fileResult{Path: path, Result: registry.Lint(ctx, linter.Request{Path: path, Tool: checkTool, Content: content})}
}

// printResults writes every failure and fail-open warning to w and
// returns the number of failures.
func printResults(w io.Writer, results []fileResult) int {
	failed := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Fprintf(w, "%s: %v\n", r.Path, r.Err)
		case !r.Result.Valid:
			failed++
			fmt.Fprintf(w, "%s: %s\n", r.Path, findingText(r.Result))
		case r.Result.Kind != "":
			fmt.Fprintf(w, "%s: not checked (%s)\n", r.Path, r.Result.Kind)
		}
	}
	return failed
}

// findingText is the rendered diagnostic, indented when it spans lines.
func findingText(res linter.Result) string {
	if res.Finding == nil {
		return res.Reason
	}
	detail := res.Finding.Detail
	if detail == "" {
		detail = res.Finding.Message
	}
	if !strings.Contains(detail, "\n") {
		return detail
	}
	return res.Finding.Kind + "\n" + detail
}
