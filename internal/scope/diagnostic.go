package scope

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgerlanc/scopegate/internal/pyast"
)

// Kind classifies a failed check.
type Kind string

const (
	KindSyntaxError   Kind = "SyntaxError"
	KindUndefinedName Kind = "UndefinedName"
	// KindInternalError means the checker itself failed; the verdict is
	// unknown and callers apply their fail policy.
	KindInternalError Kind = "InternalError"
)

// Diagnostic describes the first problem found in a source text.
type Diagnostic struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	Line       int    `json:"line"`
	Column     int    `json:"column,omitempty"`
	SourceLine string `json:"sourceLine,omitempty"`
	Caret      string `json:"caret,omitempty"`
}

func (d *Diagnostic) Error() string {
	return d.Render("")
}

// Render formats d the way CPython prints it on stderr. Syntax errors get
// the File/line header with the source line and caret; other kinds render
// as "line N: message".
func (d *Diagnostic) Render(path string) string {
	switch d.Kind {
	case KindSyntaxError:
		if path == "" {
			path = "<string>"
		}
		var b strings.Builder
		fmt.Fprintf(&b, "  File %q, line %d\n", path, d.Line)
		if d.SourceLine != "" {
			fmt.Fprintf(&b, "    %s\n", d.SourceLine)
			if d.Caret != "" {
				fmt.Fprintf(&b, "    %s\n", d.Caret)
			}
		}
		fmt.Fprintf(&b, "SyntaxError: %s", d.Message)
		return b.String()
	case KindInternalError:
		return "internal error: " + d.Message
	}
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}

// Summary is a one-line form for logs and hook reasons.
func (d *Diagnostic) Summary() string {
	if d.Kind == KindInternalError {
		return d.Error()
	}
	return fmt.Sprintf("%s at line %d: %s", d.Kind, d.Line, d.Message)
}

func newUndefinedName(id string, line, col int, src []byte) *Diagnostic {
	d := &Diagnostic{
		Kind:    KindUndefinedName,
		Message: fmt.Sprintf("name '%s' is not defined", id),
		Line:    line,
		Column:  col,
	}
	d.SourceLine = pyast.SourceLine(src, line)
	d.Caret = pyast.Caret(d.SourceLine, col)
	return d
}

func fromSyntaxError(e *pyast.SyntaxError) *Diagnostic {
	return &Diagnostic{
		Kind:       KindSyntaxError,
		Message:    e.Msg,
		Line:       e.Line,
		Column:     e.Column,
		SourceLine: e.Text,
		Caret:      e.Caret(),
	}
}

func newInternalError(err error) *Diagnostic {
	d := &Diagnostic{Kind: KindInternalError, Message: err.Error()}
	var ce *pyast.ConversionError
	if errors.As(err, &ce) {
		d.Line = ce.Line
	}
	return d
}
