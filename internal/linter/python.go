package linter

import (
	"context"
	"errors"

	"github.com/dgerlanc/scopegate/internal/scope"
)

const pythonName = "python"

// Python checks that a module parses and that every name it reads is bound.
type Python struct {
	opts []scope.Option
}

// NewPython returns a Python linter that also accepts extraBuiltins as
// defined names.
func NewPython(extraBuiltins ...string) *Python {
	p := &Python{}
	if len(extraBuiltins) > 0 {
		p.opts = append(p.opts, scope.WithExtraBuiltins(extraBuiltins...))
	}
	return p
}

func (p *Python) Name() string { return pythonName }

func (p *Python) Lint(ctx context.Context, path string, content []byte) (*Finding, error) {
	diag, err := scope.Check(ctx, content, p.opts...)
	if err != nil {
		return nil, err
	}
	if diag == nil {
		return nil, nil
	}
	if diag.Kind == scope.KindInternalError {
		return nil, errors.New(diag.Message)
	}
	return &Finding{
		Kind:    string(diag.Kind),
		Line:    diag.Line,
		Message: diag.Summary(),
		Detail:  diag.Render(path),
	}, nil
}
