package scope

import (
	"context"
	"fmt"

	"github.com/dgerlanc/scopegate/internal/pyast"
)

// verifier is pass 2. It walks statements in program order and returns the
// first load that is not visible as a *Diagnostic.
type verifier struct {
	ctx     context.Context
	src     []byte
	final   *Scope
	globals *Scope

	// lazyAnnotations is set by "from __future__ import annotations".
	lazyAnnotations bool
}

func (v *verifier) module(mod *pyast.Module) error {
	g := v.globals
	e := env{read: g, write: g, closure: g, walrus: g, kind: moduleFrame}
	return v.stmts(mod.Body, e)
}

func (v *verifier) stmts(body []pyast.Stmt, e env) error {
	for _, s := range body {
		if err := v.ctx.Err(); err != nil {
			return err
		}
		if err := v.stmt(s, e); err != nil {
			return err
		}
	}
	return nil
}

func (v *verifier) undefined(n *pyast.Name) error {
	return newUndefinedName(n.ID, n.Line, n.Column, v.src)
}

func (v *verifier) stmt(s pyast.Stmt, e env) error {
	switch s := s.(type) {
	case *pyast.FunctionDef:
		return v.functionDef(s, e)
	case *pyast.ClassDef:
		return v.classDef(s, e)

	case *pyast.Return:
		return v.expr(s.Value, e)

	case *pyast.Delete:
		for _, t := range s.Targets {
			if err := v.delTarget(t, e); err != nil {
				return err
			}
		}
		return nil

	case *pyast.Assign:
		if err := v.expr(s.Value, e); err != nil {
			return err
		}
		for _, t := range s.Targets {
			if err := v.bind(t, e); err != nil {
				return err
			}
		}
		return nil

	case *pyast.AugAssign:
		// x += 1 reads x before writing it
		if err := v.expr(asLoad(s.Target), e); err != nil {
			return err
		}
		if err := v.expr(s.Value, e); err != nil {
			return err
		}
		return v.bind(s.Target, e)

	case *pyast.AnnAssign:
		if err := v.expr(s.Value, e); err != nil {
			return err
		}
		// annotations on function locals are never evaluated
		if e.kind != functionFrame {
			if err := v.annotation(s.Annotation, e); err != nil {
				return err
			}
		}
		return v.bind(s.Target, e)

	case *pyast.For:
		if err := v.expr(s.Iter, e); err != nil {
			return err
		}
		if err := v.bind(s.Target, e); err != nil {
			return err
		}
		if err := v.stmts(s.Body, e); err != nil {
			return err
		}
		return v.stmts(s.Orelse, e)

	case *pyast.While:
		if err := v.expr(s.Test, e); err != nil {
			return err
		}
		if err := v.stmts(s.Body, e); err != nil {
			return err
		}
		return v.stmts(s.Orelse, e)

	case *pyast.If:
		if err := v.expr(s.Test, e); err != nil {
			return err
		}
		if err := v.stmts(s.Body, e); err != nil {
			return err
		}
		return v.stmts(s.Orelse, e)

	case *pyast.With:
		for _, item := range s.Items {
			if err := v.expr(item.ContextExpr, e); err != nil {
				return err
			}
			if item.OptionalVars != nil {
				if err := v.bind(item.OptionalVars, e); err != nil {
					return err
				}
			}
		}
		return v.stmts(s.Body, e)

	case *pyast.Match:
		if err := v.expr(s.Subject, e); err != nil {
			return err
		}
		for _, mc := range s.Cases {
			if err := v.pattern(mc.Pattern, e); err != nil {
				return err
			}
			if err := v.expr(mc.Guard, e); err != nil {
				return err
			}
			if err := v.stmts(mc.Body, e); err != nil {
				return err
			}
		}
		return nil

	case *pyast.Raise:
		if err := v.expr(s.Exc, e); err != nil {
			return err
		}
		return v.expr(s.Cause, e)

	case *pyast.Try:
		return v.try(s, e)

	case *pyast.Assert:
		if err := v.expr(s.Test, e); err != nil {
			return err
		}
		return v.expr(s.Msg, e)

	case *pyast.Import:
		for _, a := range s.Names {
			e.write.Add(a.Bound())
		}
		return nil

	case *pyast.ImportFrom:
		for _, a := range s.Names {
			if a.Name == "*" {
				e.write.SetWildcard()
				continue
			}
			if s.Module == "__future__" && a.Name == "annotations" {
				v.lazyAnnotations = true
			}
			e.write.Add(a.Bound())
		}
		return nil

	case *pyast.Global:
		// the function can now create these at module level
		e.write.Add(s.Names...)
		v.globals.Add(s.Names...)
		return nil
	case *pyast.Nonlocal:
		e.write.Add(s.Names...)
		return nil

	case *pyast.ExprStmt:
		return v.expr(s.Value, e)

	case *pyast.Pass, *pyast.Break, *pyast.Continue:
		return nil

	case *pyast.TypeAlias:
		return v.typeAlias(s, e)
	}
	return fmt.Errorf("unhandled statement %T", s)
}

// functionDef evaluates everything that runs at definition time in the
// enclosing scope, binds the name, then checks the body.
func (v *verifier) functionDef(s *pyast.FunctionDef, e env) error {
	for _, d := range s.Decorators {
		if err := v.expr(d, e); err != nil {
			return err
		}
	}

	annEnv := e
	if len(s.TypeParams) > 0 {
		annEnv = v.withTypeParams(s.TypeParams, e)
		if err := v.typeParamBounds(s.TypeParams, annEnv); err != nil {
			return err
		}
	}

	if err := v.signature(s.Args, e, annEnv); err != nil {
		return err
	}
	if err := v.annotation(s.Returns, annEnv); err != nil {
		return err
	}

	e.write.Add(s.Name)

	var implicit []string
	if e.kind == classFrame {
		implicit = append(implicit, "__class__")
	}
	return v.functionBody(s.Args, s.Body, annEnv, implicit...)
}

// signature checks defaults in the defining scope and annotations in the
// annotation scope, which adds any type parameters.
func (v *verifier) signature(args *pyast.Arguments, e, annEnv env) error {
	if args == nil {
		return nil
	}
	for _, p := range args.Params {
		if err := v.expr(p.Default, e); err != nil {
			return err
		}
	}
	for _, p := range args.Params {
		if err := v.annotation(p.Annotation, annEnv); err != nil {
			return err
		}
	}
	return nil
}

// functionBody seeds the body scope from final_globals and the enclosing
// closure, never from a class body.
func (v *verifier) functionBody(args *pyast.Arguments, body []pyast.Stmt, outer env, implicit ...string) error {
	fs := NewScope(v.final, outer.closure)
	fs.Add(args.Names()...)
	fs.Add(implicit...)

	locals := collectLocals(body)
	closure := NewScope(fs)
	closure.Add(locals.names...)
	if locals.wildcard {
		closure.SetWildcard()
	}

	inner := env{read: fs, write: fs, closure: closure, walrus: fs, kind: functionFrame}
	return v.stmts(body, inner)
}

func (v *verifier) classDef(s *pyast.ClassDef, e env) error {
	for _, d := range s.Decorators {
		if err := v.expr(d, e); err != nil {
			return err
		}
	}

	hdr := e
	if len(s.TypeParams) > 0 {
		hdr = v.withTypeParams(s.TypeParams, e)
		if err := v.typeParamBounds(s.TypeParams, hdr); err != nil {
			return err
		}
	}
	for _, b := range s.Bases {
		if err := v.expr(b, hdr); err != nil {
			return err
		}
	}
	for _, kw := range s.Keywords {
		if err := v.expr(kw.Value, hdr); err != nil {
			return err
		}
	}

	cs := NewScope(v.final, hdr.read)
	cs.Add("__module__", "__qualname__")
	body := env{read: cs, write: cs, closure: hdr.closure, walrus: cs, kind: classFrame}
	if err := v.stmts(s.Body, body); err != nil {
		return err
	}

	e.write.Add(s.Name)
	return nil
}

// withTypeParams returns e extended with PEP 695 type parameters, visible
// to annotations, bases and the body but not to the enclosing scope.
func (v *verifier) withTypeParams(tps []*pyast.TypeParam, e env) env {
	names := make([]string, 0, len(tps))
	for _, tp := range tps {
		names = append(names, tp.Name)
	}
	read := NewScope(e.read)
	read.Add(names...)
	closure := NewScope(e.closure)
	closure.Add(names...)
	e.read = read
	e.closure = closure
	return e
}

// typeParamBounds checks bounds lazily, the way the interpreter evaluates
// them on first access.
func (v *verifier) typeParamBounds(tps []*pyast.TypeParam, e env) error {
	lazy := e
	lazy.read = NewScope(v.final, e.read)
	for _, tp := range tps {
		if err := v.expr(tp.Bound, lazy); err != nil {
			return err
		}
	}
	return nil
}

func (v *verifier) typeAlias(s *pyast.TypeAlias, e env) error {
	if s.Name == nil {
		return fmt.Errorf("type alias without a name")
	}
	e.write.Add(s.Name.ID)

	lazy := e
	if len(s.TypeParams) > 0 {
		lazy = v.withTypeParams(s.TypeParams, e)
		if err := v.typeParamBounds(s.TypeParams, lazy); err != nil {
			return err
		}
	}
	lazy.read = NewScope(v.final, lazy.read)
	return v.expr(s.Value, lazy)
}

func (v *verifier) annotation(x pyast.Expr, e env) error {
	if x == nil {
		return nil
	}
	if v.lazyAnnotations {
		e.read = NewScope(v.final, e.read)
	}
	return v.expr(x, e)
}

// try gives each handler's "as" name a child scope that only the handler
// body sees. Other bindings in the handler still land in e.write.
func (v *verifier) try(s *pyast.Try, e env) error {
	if err := v.stmts(s.Body, e); err != nil {
		return err
	}
	for _, h := range s.Handlers {
		if err := v.expr(h.Type, e); err != nil {
			return err
		}
		he := e
		if h.Name != "" {
			read := NewScope(e.read)
			read.Add(h.Name)
			closure := NewScope(e.closure)
			closure.Add(h.Name)
			he.read = read
			he.closure = closure
		}
		if err := v.stmts(h.Body, he); err != nil {
			return err
		}
	}
	if err := v.stmts(s.Orelse, e); err != nil {
		return err
	}
	return v.stmts(s.Finalbody, e)
}

// bind records an assignment target. Attribute and subscript targets only
// read their object and index.
func (v *verifier) bind(t pyast.Expr, e env) error {
	switch t := t.(type) {
	case *pyast.Name:
		e.write.Add(t.ID)
		return nil
	case *pyast.Tuple:
		return v.bindAll(t.Elts, e)
	case *pyast.List:
		return v.bindAll(t.Elts, e)
	case *pyast.Starred:
		return v.bind(t.Value, e)
	case *pyast.Attribute:
		return v.expr(t.Value, e)
	case *pyast.Subscript:
		if err := v.expr(t.Value, e); err != nil {
			return err
		}
		return v.expr(t.Slice, e)
	}
	return fmt.Errorf("unhandled assignment target %T", t)
}

func (v *verifier) bindAll(elts []pyast.Expr, e env) error {
	for _, elt := range elts {
		if err := v.bind(elt, e); err != nil {
			return err
		}
	}
	return nil
}

// delTarget handles del. Deleting a plain name is not a load.
func (v *verifier) delTarget(t pyast.Expr, e env) error {
	switch t := t.(type) {
	case *pyast.Name:
		return nil
	case *pyast.Tuple:
		for _, elt := range t.Elts {
			if err := v.delTarget(elt, e); err != nil {
				return err
			}
		}
		return nil
	case *pyast.List:
		for _, elt := range t.Elts {
			if err := v.delTarget(elt, e); err != nil {
				return err
			}
		}
		return nil
	case *pyast.Attribute:
		return v.expr(t.Value, e)
	case *pyast.Subscript:
		if err := v.expr(t.Value, e); err != nil {
			return err
		}
		return v.expr(t.Slice, e)
	}
	return fmt.Errorf("unhandled del target %T", t)
}

// asLoad returns the load form of an augmented-assignment target.
func asLoad(t pyast.Expr) pyast.Expr {
	switch t := t.(type) {
	case *pyast.Name:
		return &pyast.Name{Pos: t.Pos, ID: t.ID, Ctx: pyast.Load}
	case *pyast.Attribute:
		return &pyast.Attribute{Pos: t.Pos, Value: t.Value, Attr: t.Attr, Ctx: pyast.Load}
	case *pyast.Subscript:
		return &pyast.Subscript{Pos: t.Pos, Value: t.Value, Slice: t.Slice, Ctx: pyast.Load}
	}
	return t
}

func (v *verifier) exprs(list []pyast.Expr, e env) error {
	for _, x := range list {
		if err := v.expr(x, e); err != nil {
			return err
		}
	}
	return nil
}

func (v *verifier) expr(x pyast.Expr, e env) error {
	switch x := x.(type) {
	case nil:
		return nil

	case *pyast.Name:
		if x.Ctx == pyast.Load && !e.read.Has(x.ID) {
			return v.undefined(x)
		}
		return nil

	case *pyast.Constant:
		return nil

	case *pyast.JoinedStr:
		return v.exprs(x.Values, e)

	case *pyast.Attribute:
		return v.expr(x.Value, e)

	case *pyast.Subscript:
		if err := v.expr(x.Value, e); err != nil {
			return err
		}
		return v.expr(x.Slice, e)

	case *pyast.Slice:
		if err := v.expr(x.Lower, e); err != nil {
			return err
		}
		if err := v.expr(x.Upper, e); err != nil {
			return err
		}
		return v.expr(x.Step, e)

	case *pyast.Starred:
		return v.expr(x.Value, e)

	case *pyast.Call:
		if err := v.expr(x.Func, e); err != nil {
			return err
		}
		if err := v.exprs(x.Args, e); err != nil {
			return err
		}
		for _, kw := range x.Keywords {
			if err := v.expr(kw.Value, e); err != nil {
				return err
			}
		}
		return nil

	case *pyast.BinOp:
		if err := v.expr(x.Left, e); err != nil {
			return err
		}
		return v.expr(x.Right, e)

	case *pyast.BoolOp:
		return v.exprs(x.Values, e)

	case *pyast.UnaryOp:
		return v.expr(x.Operand, e)

	case *pyast.Compare:
		if err := v.expr(x.Left, e); err != nil {
			return err
		}
		return v.exprs(x.Comparators, e)

	case *pyast.IfExp:
		if err := v.expr(x.Test, e); err != nil {
			return err
		}
		if err := v.expr(x.Body, e); err != nil {
			return err
		}
		return v.expr(x.Orelse, e)

	case *pyast.Lambda:
		return v.lambda(x, e)

	case *pyast.NamedExpr:
		if err := v.expr(x.Value, e); err != nil {
			return err
		}
		if x.Target != nil {
			e.walrus.Add(x.Target.ID)
		}
		return nil

	case *pyast.Await:
		return v.expr(x.Value, e)
	case *pyast.Yield:
		return v.expr(x.Value, e)
	case *pyast.YieldFrom:
		return v.expr(x.Value, e)

	case *pyast.Tuple:
		return v.exprs(x.Elts, e)
	case *pyast.List:
		return v.exprs(x.Elts, e)
	case *pyast.Set:
		return v.exprs(x.Elts, e)

	case *pyast.Dict:
		for i, val := range x.Values {
			if i < len(x.Keys) {
				if err := v.expr(x.Keys[i], e); err != nil {
					return err
				}
			}
			if err := v.expr(val, e); err != nil {
				return err
			}
		}
		return nil

	case *pyast.ListComp:
		return v.comprehension(x.Generators, e, func(inner env) error {
			return v.expr(x.Elt, inner)
		})
	case *pyast.SetComp:
		return v.comprehension(x.Generators, e, func(inner env) error {
			return v.expr(x.Elt, inner)
		})
	case *pyast.GeneratorExp:
		return v.comprehension(x.Generators, e, func(inner env) error {
			return v.expr(x.Elt, inner)
		})
	case *pyast.DictComp:
		return v.comprehension(x.Generators, e, func(inner env) error {
			if err := v.expr(x.Key, inner); err != nil {
				return err
			}
			return v.expr(x.Value, inner)
		})
	}
	return fmt.Errorf("unhandled expression %T", x)
}

func (v *verifier) lambda(x *pyast.Lambda, e env) error {
	if x.Args != nil {
		for _, p := range x.Args.Params {
			if err := v.expr(p.Default, e); err != nil {
				return err
			}
		}
	}
	fs := NewScope(v.final, e.closure)
	fs.Add(x.Args.Names()...)
	inner := env{read: fs, write: fs, closure: NewScope(fs), walrus: fs, kind: functionFrame}
	return v.expr(x.Body, inner)
}

// comprehension evaluates the first iterable outside and everything else in
// a fresh scope holding the loop targets. A comprehension in a class body
// cannot see the class namespace, so it is seeded like a method.
func (v *verifier) comprehension(gens []*pyast.Comprehension, e env, body func(env) error) error {
	base := e.read
	if e.kind == classFrame {
		base = NewScope(v.final, e.closure)
	}
	cs := NewScope(base)
	inner := env{
		read:    cs,
		write:   cs,
		closure: NewScope(e.closure, cs),
		walrus:  e.walrus,
		kind:    e.kind,
	}
	if inner.kind == classFrame {
		inner.kind = functionFrame
	}

	for i, g := range gens {
		iterEnv := inner
		if i == 0 {
			iterEnv = e
		}
		if err := v.expr(g.Iter, iterEnv); err != nil {
			return err
		}
		if err := v.bind(g.Target, inner); err != nil {
			return err
		}
		if err := v.exprs(g.Ifs, inner); err != nil {
			return err
		}
	}
	return body(inner)
}

// pattern loads value patterns and class names, and binds captures in the
// enclosing write scope.
func (v *verifier) pattern(p pyast.Pattern, e env) error {
	switch p := p.(type) {
	case nil:
		return nil
	case *pyast.MatchValue:
		return v.expr(p.Value, e)
	case *pyast.MatchSingleton:
		return nil
	case *pyast.MatchSequence:
		return v.patterns(p.Patterns, e)
	case *pyast.MatchMapping:
		if err := v.exprs(p.Keys, e); err != nil {
			return err
		}
		if err := v.patterns(p.Patterns, e); err != nil {
			return err
		}
		e.write.Add(p.Rest)
		return nil
	case *pyast.MatchClass:
		if err := v.expr(p.Cls, e); err != nil {
			return err
		}
		if err := v.patterns(p.Patterns, e); err != nil {
			return err
		}
		return v.patterns(p.KwdPatterns, e)
	case *pyast.MatchStar:
		e.write.Add(p.Name)
		return nil
	case *pyast.MatchAs:
		if err := v.pattern(p.Pattern, e); err != nil {
			return err
		}
		e.write.Add(p.Name)
		return nil
	case *pyast.MatchOr:
		return v.patterns(p.Patterns, e)
	}
	return fmt.Errorf("unhandled pattern %T", p)
}

func (v *verifier) patterns(list []pyast.Pattern, e env) error {
	for _, p := range list {
		if err := v.pattern(p, e); err != nil {
			return err
		}
	}
	return nil
}
