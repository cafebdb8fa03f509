// Package linter maps file extensions to content linters and turns their
// findings into allow/deny results with localized messages.
package linter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgerlanc/scopegate/internal/config"
	"github.com/dgerlanc/scopegate/internal/logger"
)

// Finding kinds reported by the built-in linters, on top of the
// scope.Kind values produced by the Python linter.
const (
	KindJSONError = "JSONError"
	KindYAMLError = "YAMLError"
	KindTimeout   = "Timeout"
	KindInternal  = "InternalError"
)

// Finding is a problem a Linter found in the content.
type Finding struct {
	Kind    string
	Line    int
	Message string
	// Detail is the multi-line rendering shown to the agent
	Detail string
}

// Linter checks the content a file would have after a tool call.
//
// A nil Finding and nil error mean the content is valid. A non-nil error
// means the lint could not finish; the Registry resolves it through the
// fail policy.
type Linter interface {
	Name() string
	Lint(ctx context.Context, path string, content []byte) (*Finding, error)
}

// Request is one piece of content to lint.
type Request struct {
	Path    string
	Tool    string
	Content []byte
}

// Result is the verdict for a Request.
type Result struct {
	Valid         bool
	Reason        string
	SystemMessage string
	// Kind is empty for valid content and set on denials and on
	// fail-open allows
	Kind    string
	Linter  string
	Finding *Finding
	// Skipped is true when no enabled linter handles the path
	Skipped bool
}

// Registry dispatches requests to linters by file extension.
type Registry struct {
	linters  map[string]Linter
	lang     string
	failOpen bool
	timeout  time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithLanguage selects the systemMessage language ("en" or "ja").
func WithLanguage(lang string) Option {
	return func(r *Registry) { r.lang = lang }
}

// WithFailOpen allows content when a lint cannot finish.
func WithFailOpen(open bool) Option {
	return func(r *Registry) { r.failOpen = open }
}

// WithTimeout bounds each lint. Zero means no bound beyond the caller's ctx.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{linters: make(map[string]Linter), lang: config.LangEnglish}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FromConfig builds a registry holding the linters cfg enables.
func FromConfig(cfg *config.Config) *Registry {
	r := NewRegistry(
		WithLanguage(cfg.Language),
		WithFailOpen(cfg.FailsOpen()),
		WithTimeout(cfg.Timeout),
	)
	if cfg.Python.Enabled {
		r.Register(NewPython(cfg.Python.ExtraBuiltins...), ".py", ".pyi")
	}
	if cfg.JSON.Enabled {
		r.Register(JSON{}, ".json")
	}
	if cfg.YAML.Enabled {
		r.Register(YAML{}, ".yaml", ".yml")
	}
	return r
}

// Register binds l to each extension, replacing any earlier binding.
func (r *Registry) Register(l Linter, exts ...string) {
	for _, ext := range exts {
		r.linters[strings.ToLower(ext)] = l
	}
}

// For returns the linter responsible for path.
func (r *Registry) For(path string) (Linter, bool) {
	l, ok := r.linters[strings.ToLower(filepath.Ext(path))]
	return l, ok
}

// Handles reports whether some linter is registered for path.
func (r *Registry) Handles(path string) bool {
	_, ok := r.For(path)
	return ok
}

// Lint runs the linter for req.Path. Paths without a linter are valid.
// Empty content is up to the linter: an empty module is valid Python, an
// empty file is not a JSON value.
func (r *Registry) Lint(ctx context.Context, req Request) Result {
	l, ok := r.For(req.Path)
	if !ok {
		return Result{Valid: true, Skipped: true}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	finding, err := l.Lint(ctx, req.Path, req.Content)
	logger.Elapsed("lint finished", start, "linter", l.Name(), "path", req.Path)

	msgs := catalogFor(r.lang)
	switch {
	case err != nil:
		return r.indeterminate(req, l, err, msgs)
	case finding == nil:
		return Result{Valid: true, Linter: l.Name()}
	case finding.Kind == KindInternal:
		return r.indeterminate(req, l, errors.New(finding.Message), msgs)
	}

	logger.Debug("lint failed", "linter", l.Name(), "path", req.Path, "kind", finding.Kind, "line", finding.Line)
	label := msgs.label(finding.Kind)
	return Result{
		Valid:         false,
		Reason:        fmt.Sprintf("%s after %s in '%s': %s", label, req.Tool, req.Path, finding.Message),
		SystemMessage: msgs.failed(finding.Kind, label, req.Tool, req.Path, finding.Detail),
		Kind:          finding.Kind,
		Linter:        l.Name(),
		Finding:       finding,
	}
}

// indeterminate applies the fail policy to a lint that could not finish.
func (r *Registry) indeterminate(req Request, l Linter, err error, msgs catalog) Result {
	kind := KindInternal
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		kind = KindTimeout
	}
	logger.Warn("lint indeterminate", "linter", l.Name(), "path", req.Path, "kind", kind, "error", err, "fail_open", r.failOpen)

	var detail string
	if kind == KindTimeout {
		detail = msgs.timedOut(r.timeout)
	} else {
		detail = msgs.unexpected(err.Error())
	}
	res := Result{
		Valid:         r.failOpen,
		Reason:        "Linter Error: " + err.Error(),
		SystemMessage: fmt.Sprintf("🚫 %s: %s", msgs.linterError(l.Name()), detail),
		Kind:          kind,
		Linter:        l.Name(),
		Finding:       &Finding{Kind: kind, Message: err.Error()},
	}
	if r.failOpen {
		res.SystemMessage = ""
	}
	return res
}
