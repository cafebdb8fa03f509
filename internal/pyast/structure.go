package pyast

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// keywords are the hard keywords of Python 3. tree-sitter's error recovery
// can leave one of them behind as an identifier, as in `else:` on its own
// line, which reads as an annotated assignment.
var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

// blockOwners names the statement a block belongs to, as CPython words it.
var blockOwners = map[string]string{
	"function_definition": "function definition",
	"class_definition":    "class definition",
	"if_statement":        "'if' statement",
	"elif_clause":         "'elif' statement",
	"else_clause":         "'else' statement",
	"for_statement":       "'for' statement",
	"while_statement":     "'while' statement",
	"with_statement":      "'with' statement",
	"try_statement":       "'try' statement",
	"except_clause":       "'except' statement",
	"except_group_clause": "'except*' statement",
	"finally_clause":      "'finally' statement",
	"match_statement":     "'match' statement",
	"case_clause":         "'case' statement",
}

// structureError finds the first indentation or keyword error the grammar
// recovered from without leaving an ERROR node.
func (c *converter) structureError(n *sitter.Node) *SyntaxError {
	switch n.Type() {
	case "ERROR":
		return nil
	case "identifier":
		if keywords[c.text(n)] {
			return c.syntaxErrorAt(n, "invalid syntax")
		}
		return nil
	}

	kids := namedChildren(n)
	if n.Type() == "block" && len(kids) == 0 {
		return c.emptyBlock(n)
	}

	container := n.Type() == "module" || n.Type() == "block"
	ref, haveRef := "", n.Type() == "module"
	inline := false
	for i, kid := range kids {
		if container {
			indent, starts := c.indentOf(kid)
			switch {
			case !starts:
				if i == 0 {
					inline = true
				}
			case inline:
				return c.syntaxErrorAt(kid, "unexpected indent")
			case !haveRef:
				ref, haveRef = indent, true
			case indent != ref:
				msg := "unexpected indent"
				if len(indent) < len(ref) {
					msg = "unindent does not match any outer indentation level"
				}
				return c.syntaxErrorAt(kid, msg)
			}
		}
		if err := c.structureError(kid); err != nil {
			return err
		}
	}
	return nil
}

// indentOf returns the whitespace before n on its line. starts is false when
// something other than indentation precedes n, as after `;` or `if x:`.
func (c *converter) indentOf(n *sitter.Node) (indent string, starts bool) {
	end := int(n.StartByte())
	if end > len(c.src) {
		return "", false
	}
	begin := end
	for begin > 0 && c.src[begin-1] != '\n' {
		begin--
	}
	prefix := c.src[begin:end]
	if begin == 0 && len(prefix) >= 3 && string(prefix[:3]) == "\ufeff" {
		prefix = prefix[3:]
	}
	for _, b := range prefix {
		if b != ' ' && b != '\t' && b != '\f' {
			return "", false
		}
	}
	// a backslash continuation joins this line to the previous one
	if begin >= 2 && c.src[begin-2] == '\\' || begin >= 3 && c.src[begin-2] == '\r' && c.src[begin-3] == '\\' {
		return "", false
	}
	return string(prefix), true
}

// emptyBlock reports a block with no statements at the token that should
// have been indented.
func (c *converter) emptyBlock(block *sitter.Node) *SyntaxError {
	msg := "expected an indented block"
	owner := block.Parent()
	if owner != nil {
		if what, ok := blockOwners[owner.Type()]; ok {
			msg = fmt.Sprintf("%s after %s on line %d", msg, what, c.pos(owner).Line)
		}
	}
	for m := owner; m != nil; m = m.Parent() {
		next := m.NextSibling()
		for next != nil && isTrivia(next) {
			next = next.NextSibling()
		}
		if next != nil {
			return c.syntaxErrorAt(next, msg)
		}
	}
	p := c.posAt(c.root.EndPoint())
	return &SyntaxError{Msg: msg, Line: p.Line, Column: p.Column, Text: SourceLine(c.src, p.Line)}
}

var closers = map[string]string{")": "(", "]": "[", "}": "{"}

// unclosedOpener returns the innermost bracket opened inside within that is
// still open at the end of the source.
func (c *converter) unclosedOpener(within *sitter.Node) *sitter.Node {
	from, to := within.StartByte(), within.EndByte()
	var stack []*sitter.Node
	var scan func(n *sitter.Node)
	scan = func(n *sitter.Node) {
		if n.EndByte() < from {
			return
		}
		if n.ChildCount() == 0 {
			if n.IsNamed() || n.IsMissing() || n.StartByte() < from {
				return
			}
			switch tok := n.Type(); tok {
			case "(", "[", "{":
				stack = append(stack, n)
			case ")", "]", "}":
				if len(stack) > 0 && stack[len(stack)-1].Type() == closers[tok] {
					stack = stack[:len(stack)-1]
				}
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if child := n.Child(i); child != nil {
				scan(child)
			}
		}
	}
	scan(c.root)

	for i := len(stack) - 1; i >= 0; i-- {
		if open := stack[i]; open.StartByte() < to {
			return open
		}
	}
	return nil
}
