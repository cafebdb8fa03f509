package scope

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgerlanc/scopegate/internal/pyast"
)

// Option configures a Check call.
type Option func(*options)

type options struct {
	extraBuiltins []string
}

// WithExtraBuiltins treats names as builtins, for code that runs with an
// injected namespace (notebook magics, test harness globals).
func WithExtraBuiltins(names ...string) Option {
	return func(o *options) {
		o.extraBuiltins = append(o.extraBuiltins, names...)
	}
}

// Check parses src and reports the first name that is read before it is
// bound in any visible scope.
//
// A nil Diagnostic with a nil error means src is valid. A non-nil error
// means the verdict is indeterminate: ctx was cancelled or its deadline
// passed. Checker faults, including panics, come back as a Diagnostic of
// KindInternalError so callers can apply their own fail policy.
func Check(ctx context.Context, src []byte, opts ...Option) (diag *Diagnostic, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	defer func() {
		if r := recover(); r != nil {
			diag = newInternalError(fmt.Errorf("panic during analysis: %v", r))
			err = nil
		}
	}()

	mod, err := pyast.Parse(ctx, src)
	if err != nil {
		return classify(ctx, err)
	}
	return classify(ctx, analyze(ctx, mod, src, o))
}

// analyze runs both passes over an already parsed module.
func analyze(ctx context.Context, mod *pyast.Module, src []byte, o options) error {
	builtins := newBuiltinScope(o.extraBuiltins)

	defs := collectModule(mod)
	final := NewScope(builtins)
	final.Add(defs.names...)
	if defs.wildcard {
		final.SetWildcard()
	}

	v := &verifier{ctx: ctx, src: src, final: final, globals: NewScope(builtins)}
	return v.module(mod)
}

func classify(ctx context.Context, err error) (*Diagnostic, error) {
	if err == nil {
		return nil, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	var diag *Diagnostic
	if errors.As(err, &diag) {
		return diag, nil
	}
	var syn *pyast.SyntaxError
	if errors.As(err, &syn) {
		return fromSyntaxError(syn), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return newInternalError(err), nil
}
