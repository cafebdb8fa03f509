package pyast

// Inspect traverses the tree rooted at n in depth-first source order. It
// calls f(n) for every non-nil node; if f returns false the children of
// that node are skipped. Arguments, keywords, handlers, with-items and
// match cases are not nodes themselves, so their contents are visited as
// children of the owning statement or expression.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *FunctionDef:
		inspectExprs(n.Decorators, f)
		inspectTypeParams(n.TypeParams, f)
		inspectArgs(n.Args, f)
		inspectExpr(n.Returns, f)
		inspectStmts(n.Body, f)
	case *ClassDef:
		inspectExprs(n.Decorators, f)
		inspectTypeParams(n.TypeParams, f)
		inspectExprs(n.Bases, f)
		inspectKeywords(n.Keywords, f)
		inspectStmts(n.Body, f)
	case *Return:
		inspectExpr(n.Value, f)
	case *Delete:
		inspectExprs(n.Targets, f)
	case *Assign:
		inspectExpr(n.Value, f)
		inspectExprs(n.Targets, f)
	case *AugAssign:
		inspectExpr(n.Target, f)
		inspectExpr(n.Value, f)
	case *AnnAssign:
		inspectExpr(n.Value, f)
		inspectExpr(n.Annotation, f)
		inspectExpr(n.Target, f)
	case *For:
		inspectExpr(n.Iter, f)
		inspectExpr(n.Target, f)
		inspectStmts(n.Body, f)
		inspectStmts(n.Orelse, f)
	case *While:
		inspectExpr(n.Test, f)
		inspectStmts(n.Body, f)
		inspectStmts(n.Orelse, f)
	case *If:
		inspectExpr(n.Test, f)
		inspectStmts(n.Body, f)
		inspectStmts(n.Orelse, f)
	case *With:
		for _, item := range n.Items {
			inspectExpr(item.ContextExpr, f)
			inspectExpr(item.OptionalVars, f)
		}
		inspectStmts(n.Body, f)
	case *Match:
		inspectExpr(n.Subject, f)
		for _, mc := range n.Cases {
			inspectPattern(mc.Pattern, f)
			inspectExpr(mc.Guard, f)
			inspectStmts(mc.Body, f)
		}
	case *Raise:
		inspectExpr(n.Exc, f)
		inspectExpr(n.Cause, f)
	case *Try:
		inspectStmts(n.Body, f)
		for _, h := range n.Handlers {
			inspectExpr(h.Type, f)
			inspectStmts(h.Body, f)
		}
		inspectStmts(n.Orelse, f)
		inspectStmts(n.Finalbody, f)
	case *Assert:
		inspectExpr(n.Test, f)
		inspectExpr(n.Msg, f)
	case *ExprStmt:
		inspectExpr(n.Value, f)
	case *TypeAlias:
		if n.Name != nil {
			Inspect(n.Name, f)
		}
		inspectTypeParams(n.TypeParams, f)
		inspectExpr(n.Value, f)
	case *TypeParam:
		inspectExpr(n.Bound, f)

	case *JoinedStr:
		inspectExprs(n.Values, f)
	case *Attribute:
		inspectExpr(n.Value, f)
	case *Subscript:
		inspectExpr(n.Value, f)
		inspectExpr(n.Slice, f)
	case *Slice:
		inspectExpr(n.Lower, f)
		inspectExpr(n.Upper, f)
		inspectExpr(n.Step, f)
	case *Starred:
		inspectExpr(n.Value, f)
	case *Call:
		inspectExpr(n.Func, f)
		inspectExprs(n.Args, f)
		inspectKeywords(n.Keywords, f)
	case *BinOp:
		inspectExpr(n.Left, f)
		inspectExpr(n.Right, f)
	case *BoolOp:
		inspectExprs(n.Values, f)
	case *UnaryOp:
		inspectExpr(n.Operand, f)
	case *Compare:
		inspectExpr(n.Left, f)
		inspectExprs(n.Comparators, f)
	case *IfExp:
		inspectExpr(n.Test, f)
		inspectExpr(n.Body, f)
		inspectExpr(n.Orelse, f)
	case *Lambda:
		inspectArgs(n.Args, f)
		inspectExpr(n.Body, f)
	case *NamedExpr:
		inspectExpr(n.Value, f)
		if n.Target != nil {
			Inspect(n.Target, f)
		}
	case *Await:
		inspectExpr(n.Value, f)
	case *Yield:
		inspectExpr(n.Value, f)
	case *YieldFrom:
		inspectExpr(n.Value, f)
	case *Tuple:
		inspectExprs(n.Elts, f)
	case *List:
		inspectExprs(n.Elts, f)
	case *Set:
		inspectExprs(n.Elts, f)
	case *Dict:
		for i := range n.Values {
			if i < len(n.Keys) {
				inspectExpr(n.Keys[i], f)
			}
			inspectExpr(n.Values[i], f)
		}
	case *ListComp:
		inspectGenerators(n.Generators, f)
		inspectExpr(n.Elt, f)
	case *SetComp:
		inspectGenerators(n.Generators, f)
		inspectExpr(n.Elt, f)
	case *GeneratorExp:
		inspectGenerators(n.Generators, f)
		inspectExpr(n.Elt, f)
	case *DictComp:
		inspectGenerators(n.Generators, f)
		inspectExpr(n.Key, f)
		inspectExpr(n.Value, f)

	case *MatchValue:
		inspectExpr(n.Value, f)
	case *MatchSequence:
		for _, p := range n.Patterns {
			inspectPattern(p, f)
		}
	case *MatchMapping:
		inspectExprs(n.Keys, f)
		for _, p := range n.Patterns {
			inspectPattern(p, f)
		}
	case *MatchClass:
		inspectExpr(n.Cls, f)
		for _, p := range n.Patterns {
			inspectPattern(p, f)
		}
		for _, p := range n.KwdPatterns {
			inspectPattern(p, f)
		}
	case *MatchAs:
		inspectPattern(n.Pattern, f)
	case *MatchOr:
		for _, p := range n.Patterns {
			inspectPattern(p, f)
		}
	}
}

func inspectExpr(e Expr, f func(Node) bool) {
	if e != nil {
		Inspect(e, f)
	}
}

func inspectExprs(list []Expr, f func(Node) bool) {
	for _, e := range list {
		inspectExpr(e, f)
	}
}

func inspectStmts(list []Stmt, f func(Node) bool) {
	for _, s := range list {
		if s != nil {
			Inspect(s, f)
		}
	}
}

func inspectPattern(p Pattern, f func(Node) bool) {
	if p != nil {
		Inspect(p, f)
	}
}

func inspectArgs(a *Arguments, f func(Node) bool) {
	if a == nil {
		return
	}
	for _, p := range a.Params {
		inspectExpr(p.Annotation, f)
		inspectExpr(p.Default, f)
	}
}

func inspectKeywords(kws []*Keyword, f func(Node) bool) {
	for _, kw := range kws {
		inspectExpr(kw.Value, f)
	}
}

func inspectTypeParams(tps []*TypeParam, f func(Node) bool) {
	for _, tp := range tps {
		Inspect(tp, f)
	}
}

func inspectGenerators(gens []*Comprehension, f func(Node) bool) {
	for _, g := range gens {
		inspectExpr(g.Iter, f)
		inspectExpr(g.Target, f)
		inspectExprs(g.Ifs, f)
	}
}
