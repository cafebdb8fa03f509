package pyast

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrEmptyTree is returned when the parser produced no tree at all.
var ErrEmptyTree = errors.New("parser returned no syntax tree")

// SyntaxError reports source the grammar cannot accept.
type SyntaxError struct {
	Msg    string
	Line   int    // 1-based
	Column int    // 1-based rune offset
	Text   string // offending source line, without trailing newline
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *SyntaxError) before(other *SyntaxError) bool {
	if e.Line != other.Line {
		return e.Line < other.Line
	}
	return e.Column < other.Column
}

// Caret returns a line of spaces with a caret under Column, aligned to Text.
func (e *SyntaxError) Caret() string {
	return Caret(e.Text, e.Column)
}

// Caret returns a caret line pointing at the 1-based rune column of text.
// Tabs in the prefix are kept so the caret lines up in terminals.
func Caret(text string, column int) string {
	if text == "" || column < 1 {
		return ""
	}
	var b strings.Builder
	n := 0
	for _, r := range text {
		if n >= column-1 {
			break
		}
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
		n++
	}
	for ; n < column-1; n++ {
		b.WriteByte(' ')
	}
	b.WriteByte('^')
	return b.String()
}

// ConversionError means the syntax tree contained a node the converter has
// no mapping for. It points at a gap in this package, not at the user's code.
type ConversionError struct {
	NodeType string
	Line     int
	Context  string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("unsupported %s node %q at line %d", e.Context, e.NodeType, e.Line)
}

// SourceLine returns line n (1-based) of src without its line terminator.
func SourceLine(src []byte, n int) string {
	line := 1
	start := 0
	for i := 0; i < len(src) && line < n; i++ {
		if src[i] == '\n' {
			line++
			start = i + 1
		}
	}
	if line != n {
		return ""
	}
	end := start
	for end < len(src) && src[end] != '\n' {
		end++
	}
	s := strings.TrimRight(string(src[start:end]), "\r")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return s
}
