package pyast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *Module {
	t.Helper()
	mod, err := Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	require.NotNil(t, mod)
	return mod
}

func TestParseEmpty(t *testing.T) {
	mod := parse(t, "")
	assert.Empty(t, mod.Body)

	mod = parse(t, "# only a comment\n")
	assert.Empty(t, mod.Body)
}

func TestParseAssignments(t *testing.T) {
	mod := parse(t, "a = b = 1\nx: int\ny: int = 2\nz += 1\n")
	require.Len(t, mod.Body, 4)

	assign, ok := mod.Body[0].(*Assign)
	require.True(t, ok, "got %T", mod.Body[0])
	require.Len(t, assign.Targets, 2)
	assert.Equal(t, "a", assign.Targets[0].(*Name).ID)
	assert.Equal(t, "b", assign.Targets[1].(*Name).ID)
	assert.Equal(t, Store, assign.Targets[0].(*Name).Ctx)

	bare, ok := mod.Body[1].(*AnnAssign)
	require.True(t, ok, "got %T", mod.Body[1])
	assert.Nil(t, bare.Value)
	assert.Equal(t, "int", bare.Annotation.(*Name).ID)

	ann, ok := mod.Body[2].(*AnnAssign)
	require.True(t, ok)
	assert.NotNil(t, ann.Value)

	aug, ok := mod.Body[3].(*AugAssign)
	require.True(t, ok, "got %T", mod.Body[3])
	assert.Equal(t, "z", aug.Target.(*Name).ID)
	assert.Equal(t, "+=", aug.Op)
}

func TestParseTupleTargets(t *testing.T) {
	mod := parse(t, "a, *rest = items\n")
	assign := mod.Body[0].(*Assign)
	tup, ok := assign.Targets[0].(*Tuple)
	require.True(t, ok, "got %T", assign.Targets[0])
	require.Len(t, tup.Elts, 2)
	star, ok := tup.Elts[1].(*Starred)
	require.True(t, ok, "got %T", tup.Elts[1])
	assert.Equal(t, "rest", star.Value.(*Name).ID)
	assert.Equal(t, Store, star.Value.(*Name).Ctx)
}

func TestParseAttributeTarget(t *testing.T) {
	mod := parse(t, "obj.attr = 1\n")
	attr, ok := mod.Body[0].(*Assign).Targets[0].(*Attribute)
	require.True(t, ok)
	assert.Equal(t, Store, attr.Ctx)
	assert.Equal(t, Load, attr.Value.(*Name).Ctx)
}

func TestParseFunction(t *testing.T) {
	src := `@decorate
async def f(a, /, b: int = 1, *args, c, d=2, **kw) -> str:
    return a
`
	mod := parse(t, src)
	fn, ok := mod.Body[0].(*FunctionDef)
	require.True(t, ok, "got %T", mod.Body[0])
	assert.Equal(t, "f", fn.Name)
	assert.True(t, fn.Async)
	require.Len(t, fn.Decorators, 1)
	assert.Equal(t, []string{"a", "b", "args", "c", "d", "kw"}, fn.Args.Names())

	kinds := make([]ParamKind, 0, len(fn.Args.Params))
	for _, p := range fn.Args.Params {
		kinds = append(kinds, p.Kind)
	}
	assert.Equal(t, []ParamKind{
		ParamPositionalOnly, ParamPositional, ParamVarPositional,
		ParamKeywordOnly, ParamKeywordOnly, ParamVarKeyword,
	}, kinds)
	assert.NotNil(t, fn.Args.Params[1].Annotation)
	assert.NotNil(t, fn.Args.Params[1].Default)
	assert.NotNil(t, fn.Returns)
	require.Len(t, fn.Body, 1)
}

func TestParseClass(t *testing.T) {
	mod := parse(t, "class C(Base, metaclass=Meta):\n    x = 1\n")
	cls, ok := mod.Body[0].(*ClassDef)
	require.True(t, ok)
	assert.Equal(t, "C", cls.Name)
	require.Len(t, cls.Bases, 1)
	require.Len(t, cls.Keywords, 1)
	assert.Equal(t, "metaclass", cls.Keywords[0].Arg)
}

func TestParseImports(t *testing.T) {
	mod := parse(t, "import os.path\nimport numpy as np\nfrom .. import x as y\nfrom m import *\n")
	require.Len(t, mod.Body, 4)

	imp := mod.Body[0].(*Import)
	assert.Equal(t, "os", imp.Names[0].Bound())

	imp = mod.Body[1].(*Import)
	assert.Equal(t, "np", imp.Names[0].Bound())

	from := mod.Body[2].(*ImportFrom)
	assert.Equal(t, 2, from.Level)
	assert.Equal(t, "y", from.Names[0].Bound())

	star := mod.Body[3].(*ImportFrom)
	assert.Equal(t, "m", star.Module)
	require.Len(t, star.Names, 1)
	assert.Equal(t, "*", star.Names[0].Name)
}

func TestParseFutureImport(t *testing.T) {
	mod := parse(t, "from __future__ import annotations\n")
	from, ok := mod.Body[0].(*ImportFrom)
	require.True(t, ok, "got %T", mod.Body[0])
	assert.Equal(t, "__future__", from.Module)
	assert.Equal(t, "annotations", from.Names[0].Name)
}

func TestParseIfElifElse(t *testing.T) {
	mod := parse(t, "if a:\n    pass\nelif b:\n    pass\nelse:\n    x = 1\n")
	top := mod.Body[0].(*If)
	require.Len(t, top.Orelse, 1)
	elif, ok := top.Orelse[0].(*If)
	require.True(t, ok)
	require.Len(t, elif.Orelse, 1)
	_, ok = elif.Orelse[0].(*Assign)
	assert.True(t, ok)
}

func TestParseTry(t *testing.T) {
	src := `try:
    pass
except ValueError as e:
    print(e)
except (KeyError, IndexError):
    pass
else:
    pass
finally:
    pass
`
	mod := parse(t, src)
	try, ok := mod.Body[0].(*Try)
	require.True(t, ok)
	require.Len(t, try.Handlers, 2)
	assert.Equal(t, "e", try.Handlers[0].Name)
	assert.Equal(t, "ValueError", try.Handlers[0].Type.(*Name).ID)
	assert.Empty(t, try.Handlers[1].Name)
	assert.Len(t, try.Orelse, 1)
	assert.Len(t, try.Finalbody, 1)
}

func TestParseWith(t *testing.T) {
	mod := parse(t, "with open(p) as f, lock:\n    pass\n")
	w := mod.Body[0].(*With)
	require.Len(t, w.Items, 2)
	assert.Equal(t, "f", w.Items[0].OptionalVars.(*Name).ID)
	assert.Nil(t, w.Items[1].OptionalVars)
}

func TestParseComprehension(t *testing.T) {
	mod := parse(t, "r = [x * y for x in a if x for y in b]\n")
	comp, ok := mod.Body[0].(*Assign).Value.(*ListComp)
	require.True(t, ok)
	require.Len(t, comp.Generators, 2)
	assert.Len(t, comp.Generators[0].Ifs, 1)
	assert.Equal(t, "b", comp.Generators[1].Iter.(*Name).ID)
}

func TestParseFString(t *testing.T) {
	mod := parse(t, "s = f\"{a} and {b!r:>{width}}\"\n")
	joined, ok := mod.Body[0].(*Assign).Value.(*JoinedStr)
	require.True(t, ok, "got %T", mod.Body[0].(*Assign).Value)

	var ids []string
	for _, v := range joined.Values {
		if n, ok := v.(*Name); ok {
			ids = append(ids, n.ID)
		}
	}
	assert.ElementsMatch(t, []string{"a", "b", "width"}, ids)
}

func TestParseLambdaAndWalrus(t *testing.T) {
	mod := parse(t, "f = lambda x, y=1: x\nif (n := 10) > 5:\n    pass\n")
	lam, ok := mod.Body[0].(*Assign).Value.(*Lambda)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, lam.Args.Names())

	cmp := mod.Body[1].(*If).Test.(*Compare)
	named, ok := cmp.Left.(*NamedExpr)
	require.True(t, ok, "got %T", cmp.Left)
	assert.Equal(t, "n", named.Target.ID)
}

func TestParseMatch(t *testing.T) {
	src := `match cmd:
    case ["go", direction]:
        pass
    case Point(x=0, y=yy) as p:
        pass
    case {"k": v, **rest}:
        pass
    case 1 | 2:
        pass
    case _:
        pass
`
	mod := parse(t, src)
	m, ok := mod.Body[0].(*Match)
	require.True(t, ok, "got %T", mod.Body[0])
	require.Len(t, m.Cases, 5)

	seq, ok := m.Cases[0].Pattern.(*MatchSequence)
	require.True(t, ok, "got %T", m.Cases[0].Pattern)
	require.Len(t, seq.Patterns, 2)
	assert.Equal(t, "direction", seq.Patterns[1].(*MatchAs).Name)

	as, ok := m.Cases[1].Pattern.(*MatchAs)
	require.True(t, ok, "got %T", m.Cases[1].Pattern)
	assert.Equal(t, "p", as.Name)
	cls, ok := as.Pattern.(*MatchClass)
	require.True(t, ok, "got %T", as.Pattern)
	assert.Equal(t, []string{"x", "y"}, cls.KwdAttrs)

	mapping, ok := m.Cases[2].Pattern.(*MatchMapping)
	require.True(t, ok, "got %T", m.Cases[2].Pattern)
	assert.Equal(t, "rest", mapping.Rest)
	require.Len(t, mapping.Patterns, 1)
	assert.Equal(t, "v", mapping.Patterns[0].(*MatchAs).Name)

	_, ok = m.Cases[3].Pattern.(*MatchOr)
	assert.True(t, ok, "got %T", m.Cases[3].Pattern)

	wild, ok := m.Cases[4].Pattern.(*MatchAs)
	require.True(t, ok)
	assert.Empty(t, wild.Name)
	assert.Nil(t, wild.Pattern)
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"unclosed call", "x = 1\nprint(\"hello\"\n", 2},
		{"bad def", "def f(:\n    pass\n", 1},
		{"dangling operator", "x = 1 +\n", 1},
		{"python2 print", "print \"hello\"\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), []byte(tt.src))
			var syn *SyntaxError
			require.True(t, errors.As(err, &syn), "Parse(%q) error = %v, want *SyntaxError", tt.src, err)
			assert.GreaterOrEqual(t, syn.Line, 1)
			assert.LessOrEqual(t, syn.Line, tt.line+1)
		})
	}
}

func TestParseStructureErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		msg    string // empty accepts any message
		line   int
		column int // 0 skips the column check
	}{
		{"missing body", "def f():\nreturn 1\n", "expected an indented block after function definition on line 1", 2, 1},
		{"indented first line", "  x = 1\n", "unexpected indent", 1, 3},
		{"indented second line", "a = 1\n\tb = 2\n", "unexpected indent", 2, 0},
		{"stray else", "else:\n    pass\n", "invalid syntax", 1, 1},
		{"keyword as name", "x = 1\npass = 2\n", "invalid syntax", 2, 1},
		{"bad dedent", "if x:\n    a = 1\n  b = 2\n", "", 3, 0},
		{"unparenthesized generator", "f(a for a in b, c)\n", "Generator expression must be parenthesized", 1, 0},
		{"tuple iterable", "ys = [x for x in 1, 2]\n", "", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), []byte(tt.src))
			var syn *SyntaxError
			require.True(t, errors.As(err, &syn), "Parse(%q) error = %v, want *SyntaxError", tt.src, err)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, syn.Msg)
			}
			assert.Equal(t, tt.line, syn.Line)
			if tt.column != 0 {
				assert.Equal(t, tt.column, syn.Column)
			}
		})
	}
}

func TestParseLayoutAccepted(t *testing.T) {
	sources := []string{
		"x = 1; y = 2\n",
		"if True: x = 1\n",
		"def f(\n    a,\n):\n    return a\n",
		"def f():\n    # comment\n        # deeper comment\n    return 1\n",
		"class A:\n\tdef m(self):\n\t\treturn 1\n",
		"match p:\n    case 1:\n        pass\n    case _:\n        pass\n",
		"@dec\ndef f():\n    pass\n",
		"try:\n    pass\nexcept E:\n    pass\nfinally:\n    pass\n",
		"while x:\n    if y:\n        break\n    else:\n        continue\n",
		"s = \"\"\"\n  indented text\n\"\"\"\ny = 1\n",
		"print(match, case, type)\n",
		"x = (1 +\n     2)\n",
	}
	for _, src := range sources {
		_, err := Parse(context.Background(), []byte(src))
		assert.NoError(t, err, "Parse(%q)", src)
	}
}

func TestParseUnclosedBracket(t *testing.T) {
	tests := []struct {
		src    string
		msg    string
		line   int
		column int
	}{
		{"x = 1\nprint(\"こんにちは\"\n", "'(' was never closed", 2, 6},
		{"items = [1, 2\n", "'[' was never closed", 1, 9},
		{"d = {'a': f(1)\n", "'{' was never closed", 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := Parse(context.Background(), []byte(tt.src))
			var syn *SyntaxError
			require.True(t, errors.As(err, &syn), "Parse(%q) error = %v", tt.src, err)
			assert.Equal(t, tt.msg, syn.Msg)
			assert.Equal(t, tt.line, syn.Line)
			assert.Equal(t, tt.column, syn.Column)
		})
	}
}

func TestParsePrintStatementMessage(t *testing.T) {
	_, err := Parse(context.Background(), []byte("print \"hello\"\n"))
	var syn *SyntaxError
	require.True(t, errors.As(err, &syn))
	assert.Contains(t, syn.Msg, "Missing parentheses")
}

func TestParseCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := Parse(ctx, []byte("x = 1\n"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPositionsAreRuneBased(t *testing.T) {
	mod := parse(t, "s = \"こんにちは\"; y = z\n")
	require.Len(t, mod.Body, 2)
	assign := mod.Body[1].(*Assign)
	// "s = \"こんにちは\"; " is 13 runes
	assert.Equal(t, 14, assign.Targets[0].(*Name).Column)
}

func TestSyntaxErrorCaret(t *testing.T) {
	e := &SyntaxError{Msg: "invalid syntax", Line: 1, Column: 3, Text: "\tab"}
	assert.Equal(t, "\t ^", e.Caret())
	assert.Equal(t, "line 1: invalid syntax", e.Error())

	empty := &SyntaxError{Line: 1, Column: 1}
	assert.Empty(t, empty.Caret())
}

func TestSourceLine(t *testing.T) {
	src := []byte("one\r\ntwo\nthree")
	assert.Equal(t, "one", SourceLine(src, 1))
	assert.Equal(t, "two", SourceLine(src, 2))
	assert.Equal(t, "three", SourceLine(src, 3))
	assert.Empty(t, SourceLine(src, 4))
}
