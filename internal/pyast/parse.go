package pyast

import (
	"context"
	"fmt"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Parse parses Python source into a Module. A *SyntaxError is returned for
// source the grammar rejects and a *ConversionError for trees the converter
// cannot map. If ctx is cancelled while parsing, ctx.Err() is returned.
func Parse(ctx context.Context, src []byte) (*Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("parsing python source: %w", err)
	}
	if tree == nil {
		return nil, ErrEmptyTree
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, ErrEmptyTree
	}

	c := newConverter(src, root)
	var syn *SyntaxError
	if root.HasError() {
		if bad := firstError(root); bad != nil {
			syn = c.syntaxError(bad)
		}
	}
	if structural := c.structureError(root); structural != nil && (syn == nil || structural.before(syn)) {
		syn = structural
	}
	if syn != nil {
		return nil, syn
	}
	return c.module(root)
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if !child.HasError() && !child.IsMissing() && child.Type() != "ERROR" {
			continue
		}
		if bad := firstError(child); bad != nil {
			return bad
		}
	}
	return nil
}

func (c *converter) syntaxError(n *sitter.Node) *SyntaxError {
	scope := n
	if n.IsMissing() && n.Parent() != nil {
		scope = n.Parent()
	}
	if open := c.unclosedOpener(scope); open != nil {
		return c.syntaxErrorAt(open, fmt.Sprintf("'%s' was never closed", open.Type()))
	}

	p := c.pos(n)
	msg := "invalid syntax"
	if n.IsMissing() {
		msg = fmt.Sprintf("invalid syntax: expected '%s'", n.Type())
	}
	return &SyntaxError{
		Msg:    msg,
		Line:   p.Line,
		Column: p.Column,
		Text:   SourceLine(c.src, p.Line),
	}
}

// syntaxErrorAt builds a SyntaxError with a fixed message at n.
func (c *converter) syntaxErrorAt(n *sitter.Node, msg string) *SyntaxError {
	p := c.pos(n)
	return &SyntaxError{
		Msg:    msg,
		Line:   p.Line,
		Column: p.Column,
		Text:   SourceLine(c.src, p.Line),
	}
}

type converter struct {
	src        []byte
	root       *sitter.Node
	lineStarts []int
}

func newConverter(src []byte, root *sitter.Node) *converter {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &converter{src: src, root: root, lineStarts: starts}
}

func (c *converter) pos(n *sitter.Node) Pos {
	return c.posAt(n.StartPoint())
}

// posAt converts a tree-sitter point (0-based row, byte column) into a Pos.
func (c *converter) posAt(pt sitter.Point) Pos {
	row := int(pt.Row)
	col := int(pt.Column)
	if row >= len(c.lineStarts) {
		return Pos{Line: row + 1, Column: col + 1}
	}
	start := c.lineStarts[row]
	end := start + col
	if end > len(c.src) {
		end = len(c.src)
	}
	return Pos{Line: row + 1, Column: utf8.RuneCount(c.src[start:end]) + 1}
}

func (c *converter) text(n *sitter.Node) string {
	return n.Content(c.src)
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || isTrivia(child) {
			continue
		}
		out = append(out, child)
	}
	return out
}

// allChildren returns every child of n, named or not, skipping comments.
func allChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.ChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child == nil || isTrivia(child) {
			continue
		}
		out = append(out, child)
	}
	return out
}

// fieldChildren returns every child stored under the given field name.
// Fields such as import names or comprehension iterables repeat.
func fieldChildren(n *sitter.Node, field string) []*sitter.Node {
	if n == nil {
		return nil
	}
	cursor := sitter.NewTreeCursor(n)
	defer cursor.Close()

	if !cursor.GoToFirstChild() {
		return nil
	}
	var out []*sitter.Node
	for {
		if cursor.CurrentFieldName() == field {
			if child := cursor.CurrentNode(); child != nil && !isTrivia(child) {
				out = append(out, child)
			}
		}
		if !cursor.GoToNextSibling() {
			break
		}
	}
	return out
}

// hasToken reports whether n has a direct anonymous child spelled tok.
func hasToken(n *sitter.Node, tok string) bool {
	for _, child := range allChildren(n) {
		if !child.IsNamed() && child.Type() == tok {
			return true
		}
	}
	return false
}

func isTrivia(n *sitter.Node) bool {
	switch n.Type() {
	case "comment", "line_continuation":
		return true
	}
	return false
}
