// Package hook implements the PreToolUse/BeforeTool decision: it rebuilds
// the content a tool call would produce, lints it, and answers allow or deny.
package hook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/dgerlanc/scopegate/internal/audit"
	"github.com/dgerlanc/scopegate/internal/config"
	"github.com/dgerlanc/scopegate/internal/constants"
	"github.com/dgerlanc/scopegate/internal/linter"
	"github.com/dgerlanc/scopegate/internal/logger"
)

// Tool names, Claude Code first, then Gemini CLI.
const (
	ToolWrite     = "Write"
	ToolEdit      = "Edit"
	ToolMultiEdit = "MultiEdit"
	ToolBash      = "Bash"

	ToolWriteFile       = "write_file"
	ToolReplace         = "replace"
	ToolRunShellCommand = "run_shell_command"
)

// Hook event names
const (
	EventPreToolUse = "PreToolUse"
	EventBeforeTool = "BeforeTool"
)

// Permission decisions
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// target is one piece of content a tool call would produce.
type target struct {
	path    string
	content string
}

// Process reads a hook invocation and returns whether it is allowed and why.
func Process(r io.Reader) (allowed bool, reason string) {
	result := ProcessWithResult(r)
	return result.Allowed, result.Reason
}

// ProcessWithResult reads a hook invocation from r and returns the full
// Result, including the JSON to write to stdout. Malformed input is allowed:
// the hook never blocks a tool call it cannot understand.
func ProcessWithResult(r io.Reader) Result {
	return ProcessContext(context.Background(), r)
}

// ProcessContext is ProcessWithResult bounded by ctx. The configured lint
// timeout applies on top of ctx.
func ProcessContext(ctx context.Context, r io.Reader) Result {
	startTime := time.Now()

	rawBytes, err := io.ReadAll(r)
	if err != nil {
		logger.Debug("failed to read input", "error", err)
		return Result{Allowed: true, Reason: "failed to read input"}
	}
	if len(strings.TrimSpace(string(rawBytes))) == 0 {
		logger.Debug("empty input")
		return Result{Allowed: true, Reason: "empty input"}
	}

	var input Input
	if err := json.Unmarshal(rawBytes, &input); err != nil {
		logger.Debug("failed to decode input", "error", err)
		return Result{Allowed: true, Reason: "invalid input"}
	}

	cfg := config.Get()
	registry := linter.FromConfig(cfg)
	result := Result{Tool: input.ToolName, Allowed: true}

	targets, err := collectTargets(input, cfg, registry)
	switch {
	case errors.Is(err, errNothingToCheck):
		result.Reason = "nothing to check"
	case errors.Is(err, ErrUnparseable):
		logger.Debug("command not parseable, nothing to lint", "command", input.ToolInput.Command)
		result.Reason = "unparseable command"
	case err != nil:
		// unreadable target file: the tool call will fail on its own
		logger.Debug("failed to rebuild content", "tool", input.ToolName, "error", err)
		result.Reason = err.Error()
	}

	var verdict linter.Result
	for _, t := range targets {
		res := registry.Lint(ctx, linter.Request{Path: t.path, Tool: input.ToolName, Content: []byte(t.content)})
		if res.Skipped {
			continue
		}
		result.Checked++
		result.Path = t.path
		if res.Kind != "" {
			result.Kind = res.Kind
			result.Reason = res.Reason
		}
		if !res.Valid {
			verdict = res
			result.Allowed = false
			break
		}
	}
	if result.Allowed && result.Reason == "" {
		if result.Checked > 0 {
			result.Reason = "lint passed"
		} else {
			result.Reason = "no linter for tool call"
		}
	}

	result.Output = formatFor(input.HookEventName, result.Allowed, verdict.Reason, verdict.SystemMessage)
	durationMs := float64(time.Since(startTime).Microseconds()) / 1000.0
	logger.Debug("decision", "tool", input.ToolName, "path", result.Path, "allowed", result.Allowed, "kind", result.Kind, "duration_ms", durationMs)
	logAudit(input, result, durationMs)
	return result
}

// collectTargets rebuilds the content of every file or inline script the
// tool call would produce. Targets no linter handles are dropped early.
func collectTargets(input Input, cfg *config.Config, registry *linter.Registry) ([]target, error) {
	in := input.ToolInput

	switch input.ToolName {
	case ToolBash, ToolRunShellCommand:
		if !cfg.Inline.Enabled || !registry.Handles(constants.InlinePath) {
			return nil, nil
		}
		scripts, err := ExtractScripts(in.Command, cfg.WrapperPatterns, cfg.Inline.Interpreters)
		if err != nil {
			return nil, err
		}
		targets := make([]target, 0, len(scripts))
		for _, s := range scripts {
			logger.Debug("inline script", "interpreter", s.Interpreter, "via", s.Via, "wrappers", s.Wrappers, "command", s.Command)
			targets = append(targets, target{path: constants.InlinePath, content: s.Source})
		}
		return targets, nil

	case ToolWrite, ToolWriteFile, ToolEdit, ToolReplace, ToolMultiEdit:
	default:
		logger.Debug("tool not checked", "tool", input.ToolName)
		return nil, nil
	}

	if in.FilePath == "" || !registry.Handles(in.FilePath) {
		return nil, nil
	}
	if cfg.Excluded(in.FilePath, input.Cwd) {
		logger.Debug("path excluded", "path", in.FilePath)
		return nil, nil
	}

	path := resolvePath(in.FilePath, input.Cwd)
	var (
		content string
		err     error
	)
	switch input.ToolName {
	case ToolWrite, ToolWriteFile:
		if in.Content == nil {
			return nil, errNothingToCheck
		}
		content = *in.Content
	case ToolEdit, ToolReplace:
		content, err = editedContent(path, in)
	case ToolMultiEdit:
		content, err = multiEditedContent(path, in)
	}
	if err != nil {
		return nil, err
	}
	return []target{{path: in.FilePath, content: content}}, nil
}

// logAudit logs a decision to the audit log.
func logAudit(input Input, result Result, durationMs float64) {
	var configError string
	if err := config.InitError(); err != nil {
		configError = err.Error()
	}
	decision := audit.DecisionAllow
	if !result.Allowed {
		decision = audit.DecisionDeny
	}
	if err := audit.Log(audit.Entry{
		SessionID:   input.SessionID,
		ToolUseID:   input.ToolUseID,
		DurationMs:  durationMs,
		Tool:        input.ToolName,
		Path:        result.Path,
		Decision:    decision,
		Kind:        result.Kind,
		Reason:      result.Reason,
		Cwd:         input.Cwd,
		ConfigPath:  config.GetConfigPath(),
		ConfigError: configError,
	}); err != nil {
		logger.Debug("failed to write audit entry", "error", err)
	}
}
