package pyast

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

func (c *converter) unsupported(n *sitter.Node, context string) error {
	return &ConversionError{NodeType: n.Type(), Line: c.pos(n).Line, Context: context}
}

func (c *converter) module(root *sitter.Node) (*Module, error) {
	body, err := c.stmts(root)
	if err != nil {
		return nil, err
	}
	return &Module{Body: body}, nil
}

// stmts converts every statement child of a module or block node.
func (c *converter) stmts(n *sitter.Node) ([]Stmt, error) {
	if n == nil {
		return nil, nil
	}
	var out []Stmt
	for _, child := range namedChildren(n) {
		s, err := c.stmt(child)
		if err != nil {
			return nil, err
		}
		if s != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *converter) field(n *sitter.Node, name string) *sitter.Node {
	if n == nil {
		return nil
	}
	return n.ChildByFieldName(name)
}

func (c *converter) stmt(n *sitter.Node) (Stmt, error) {
	p := c.pos(n)
	switch n.Type() {
	case "expression_statement":
		return c.exprStmt(n)

	case "return_statement":
		kids := namedChildren(n)
		if len(kids) == 0 {
			return &Return{Pos: p}, nil
		}
		v, err := c.exprOrTuple(kids)
		if err != nil {
			return nil, err
		}
		return &Return{Pos: p, Value: v}, nil

	case "delete_statement":
		var targets []Expr
		for _, kid := range namedChildren(n) {
			elts := []*sitter.Node{kid}
			if kid.Type() == "expression_list" {
				elts = namedChildren(kid)
			}
			for _, e := range elts {
				t, err := c.target(e, Del)
				if err != nil {
					return nil, err
				}
				targets = append(targets, t)
			}
		}
		return &Delete{Pos: p, Targets: targets}, nil

	case "raise_statement":
		return c.raise(n)

	case "pass_statement":
		return &Pass{Pos: p}, nil
	case "break_statement":
		return &Break{Pos: p}, nil
	case "continue_statement":
		return &Continue{Pos: p}, nil

	case "global_statement":
		return &Global{Pos: p, Names: c.identifiers(n)}, nil
	case "nonlocal_statement":
		return &Nonlocal{Pos: p, Names: c.identifiers(n)}, nil

	case "assert_statement":
		kids := namedChildren(n)
		if len(kids) == 0 {
			return nil, c.unsupported(n, "assert")
		}
		test, err := c.expr(kids[0])
		if err != nil {
			return nil, err
		}
		a := &Assert{Pos: p, Test: test}
		if len(kids) > 1 {
			if a.Msg, err = c.expr(kids[1]); err != nil {
				return nil, err
			}
		}
		return a, nil

	case "import_statement":
		names, err := c.importNames(fieldChildren(n, "name"))
		if err != nil {
			return nil, err
		}
		return &Import{Pos: p, Names: names}, nil

	case "import_from_statement":
		return c.importFrom(n)

	case "future_import_statement":
		names, err := c.importNames(fieldChildren(n, "name"))
		if err != nil {
			return nil, err
		}
		return &ImportFrom{Pos: p, Module: "__future__", Names: names}, nil

	case "if_statement":
		return c.ifStmt(n)
	case "for_statement":
		return c.forStmt(n)
	case "while_statement":
		return c.whileStmt(n)
	case "try_statement":
		return c.tryStmt(n)
	case "with_statement":
		return c.withStmt(n)
	case "function_definition":
		return c.functionDef(n, nil)
	case "class_definition":
		return c.classDef(n, nil)
	case "decorated_definition":
		return c.decorated(n)
	case "match_statement":
		return c.matchStmt(n)
	case "type_alias_statement":
		return c.typeAlias(n)

	case "print_statement":
		return nil, c.syntaxErrorAt(n, "Missing parentheses in call to 'print'")
	case "exec_statement":
		return nil, c.syntaxErrorAt(n, "Missing parentheses in call to 'exec'")
	case "ERROR":
		return nil, c.syntaxError(n)
	}
	return nil, c.unsupported(n, "statement")
}

func (c *converter) exprStmt(n *sitter.Node) (Stmt, error) {
	p := c.pos(n)
	kids := namedChildren(n)
	if len(kids) == 1 {
		switch kids[0].Type() {
		case "assignment":
			return c.assignment(kids[0])
		case "augmented_assignment":
			return c.augAssignment(kids[0])
		}
	}
	v, err := c.exprOrTuple(kids)
	if err != nil {
		return nil, err
	}
	return &ExprStmt{Pos: p, Value: v}, nil
}

// assignment unrolls a = b = c, which the grammar nests on the right field.
func (c *converter) assignment(n *sitter.Node) (Stmt, error) {
	p := c.pos(n)
	var targets []Expr
	cur := n
	for {
		left := c.field(cur, "left")
		if left == nil {
			return nil, c.unsupported(cur, "assignment")
		}
		t, err := c.target(left, Store)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)

		right := c.field(cur, "right")
		if typ := c.field(cur, "type"); typ != nil {
			if len(targets) > 1 {
				return nil, c.syntaxErrorAt(typ, "invalid syntax")
			}
			ann, err := c.expr(typ)
			if err != nil {
				return nil, err
			}
			a := &AnnAssign{Pos: p, Target: t, Annotation: ann}
			if right != nil {
				if a.Value, err = c.expr(right); err != nil {
					return nil, err
				}
			}
			return a, nil
		}
		if right == nil {
			return nil, c.unsupported(cur, "assignment")
		}
		switch right.Type() {
		case "assignment":
			cur = right
			continue
		case "augmented_assignment":
			return nil, c.syntaxErrorAt(right, "invalid syntax")
		}
		v, err := c.expr(right)
		if err != nil {
			return nil, err
		}
		return &Assign{Pos: p, Targets: targets, Value: v}, nil
	}
}

func (c *converter) augAssignment(n *sitter.Node) (Stmt, error) {
	left, right, op := c.field(n, "left"), c.field(n, "right"), c.field(n, "operator")
	if left == nil || right == nil {
		return nil, c.unsupported(n, "augmented assignment")
	}
	t, err := c.target(left, Store)
	if err != nil {
		return nil, err
	}
	v, err := c.expr(right)
	if err != nil {
		return nil, err
	}
	a := &AugAssign{Pos: c.pos(n), Target: t, Value: v}
	if op != nil {
		a.Op = op.Type()
	}
	return a, nil
}

func (c *converter) raise(n *sitter.Node) (Stmt, error) {
	r := &Raise{Pos: c.pos(n)}
	afterFrom := false
	for _, child := range allChildren(n) {
		if !child.IsNamed() {
			if child.Type() == "from" {
				afterFrom = true
			}
			continue
		}
		v, err := c.expr(child)
		if err != nil {
			return nil, err
		}
		if afterFrom {
			r.Cause = v
		} else {
			r.Exc = v
		}
	}
	return r, nil
}

func (c *converter) identifiers(n *sitter.Node) []string {
	var names []string
	for _, kid := range namedChildren(n) {
		if kid.Type() == "identifier" {
			names = append(names, c.text(kid))
		}
	}
	return names
}

func (c *converter) importNames(nodes []*sitter.Node) ([]*Alias, error) {
	names := make([]*Alias, 0, len(nodes))
	for _, n := range nodes {
		switch n.Type() {
		case "dotted_name", "identifier":
			names = append(names, &Alias{Name: c.text(n)})
		case "aliased_import":
			name, alias := c.field(n, "name"), c.field(n, "alias")
			if name == nil {
				return nil, c.unsupported(n, "import")
			}
			a := &Alias{Name: c.text(name)}
			if alias != nil {
				a.AsName = c.text(alias)
			}
			names = append(names, a)
		default:
			return nil, c.unsupported(n, "import")
		}
	}
	return names, nil
}

func (c *converter) importFrom(n *sitter.Node) (Stmt, error) {
	s := &ImportFrom{Pos: c.pos(n)}
	if mod := c.field(n, "module_name"); mod != nil {
		text := c.text(mod)
		if mod.Type() == "relative_import" {
			trimmed := strings.TrimLeft(text, ".")
			s.Level = len(text) - len(trimmed)
			text = strings.TrimSpace(trimmed)
		}
		s.Module = text
	}
	for _, kid := range namedChildren(n) {
		if kid.Type() == "wildcard_import" {
			s.Names = append(s.Names, &Alias{Name: "*"})
		}
	}
	names, err := c.importNames(fieldChildren(n, "name"))
	if err != nil {
		return nil, err
	}
	s.Names = append(s.Names, names...)
	return s, nil
}

func (c *converter) ifStmt(n *sitter.Node) (Stmt, error) {
	test, err := c.expr(c.field(n, "condition"))
	if err != nil {
		return nil, err
	}
	body, err := c.stmts(c.field(n, "consequence"))
	if err != nil {
		return nil, err
	}
	root := &If{Pos: c.pos(n), Test: test, Body: body}

	tail := root
	for _, alt := range fieldChildren(n, "alternative") {
		switch alt.Type() {
		case "elif_clause":
			test, err := c.expr(c.field(alt, "condition"))
			if err != nil {
				return nil, err
			}
			body, err := c.stmts(c.field(alt, "consequence"))
			if err != nil {
				return nil, err
			}
			next := &If{Pos: c.pos(alt), Test: test, Body: body}
			tail.Orelse = []Stmt{next}
			tail = next
		case "else_clause":
			body, err := c.stmts(c.field(alt, "body"))
			if err != nil {
				return nil, err
			}
			tail.Orelse = body
		default:
			return nil, c.unsupported(alt, "if clause")
		}
	}
	return root, nil
}

func (c *converter) elseBody(n *sitter.Node) ([]Stmt, error) {
	alt := c.field(n, "alternative")
	if alt == nil {
		return nil, nil
	}
	return c.stmts(c.field(alt, "body"))
}

func (c *converter) forStmt(n *sitter.Node) (Stmt, error) {
	left := c.field(n, "left")
	if left == nil {
		return nil, c.unsupported(n, "for")
	}
	target, err := c.target(left, Store)
	if err != nil {
		return nil, err
	}
	iter, err := c.exprOrTuple(fieldChildren(n, "right"))
	if err != nil {
		return nil, err
	}
	body, err := c.stmts(c.field(n, "body"))
	if err != nil {
		return nil, err
	}
	orelse, err := c.elseBody(n)
	if err != nil {
		return nil, err
	}
	return &For{
		Pos:    c.pos(n),
		Async:  hasToken(n, "async"),
		Target: target,
		Iter:   iter,
		Body:   body,
		Orelse: orelse,
	}, nil
}

func (c *converter) whileStmt(n *sitter.Node) (Stmt, error) {
	test, err := c.expr(c.field(n, "condition"))
	if err != nil {
		return nil, err
	}
	body, err := c.stmts(c.field(n, "body"))
	if err != nil {
		return nil, err
	}
	orelse, err := c.elseBody(n)
	if err != nil {
		return nil, err
	}
	return &While{Pos: c.pos(n), Test: test, Body: body, Orelse: orelse}, nil
}

func (c *converter) tryStmt(n *sitter.Node) (Stmt, error) {
	body, err := c.stmts(c.field(n, "body"))
	if err != nil {
		return nil, err
	}
	t := &Try{Pos: c.pos(n), Body: body}
	for _, kid := range namedChildren(n) {
		switch kid.Type() {
		case "except_clause", "except_group_clause":
			h, star, err := c.handler(kid)
			if err != nil {
				return nil, err
			}
			t.Star = t.Star || star
			t.Handlers = append(t.Handlers, h)
		case "else_clause":
			if t.Orelse, err = c.stmts(c.field(kid, "body")); err != nil {
				return nil, err
			}
		case "finally_clause":
			for _, fk := range namedChildren(kid) {
				if fk.Type() == "block" {
					if t.Finalbody, err = c.stmts(fk); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	return t, nil
}

// handler converts one except clause. The grammar has spelled the bound
// name as an as_pattern, as "expr as name", and as "expr, name" over time,
// so all three are accepted.
func (c *converter) handler(n *sitter.Node) (*ExceptHandler, bool, error) {
	h := &ExceptHandler{Pos: c.pos(n)}
	star := n.Type() == "except_group_clause" || hasToken(n, "*") || hasToken(n, "except*")

	var heads []*sitter.Node
	for _, kid := range namedChildren(n) {
		if kid.Type() == "block" {
			body, err := c.stmts(kid)
			if err != nil {
				return nil, false, err
			}
			h.Body = body
			continue
		}
		heads = append(heads, kid)
	}

	switch {
	case len(heads) == 1 && heads[0].Type() == "as_pattern":
		as := heads[0]
		inner := namedChildren(as)
		if len(inner) == 0 {
			return nil, false, c.unsupported(as, "except")
		}
		typ, err := c.expr(inner[0])
		if err != nil {
			return nil, false, err
		}
		h.Type = typ
		if alias := c.field(as, "alias"); alias != nil {
			h.Name = c.aliasName(alias)
		} else if len(inner) > 1 {
			h.Name = c.aliasName(inner[len(inner)-1])
		}
	case len(heads) >= 1:
		typ, err := c.expr(heads[0])
		if err != nil {
			return nil, false, err
		}
		h.Type = typ
		if len(heads) > 1 {
			h.Name = c.aliasName(heads[1])
		}
	}
	return h, star, nil
}

// aliasName returns the identifier wrapped by an as_pattern_target.
func (c *converter) aliasName(n *sitter.Node) string {
	if kids := namedChildren(n); len(kids) == 1 {
		return c.aliasName(kids[0])
	}
	return c.text(n)
}

func (c *converter) withStmt(n *sitter.Node) (Stmt, error) {
	w := &With{Pos: c.pos(n), Async: hasToken(n, "async")}
	for _, kid := range namedChildren(n) {
		if kid.Type() != "with_clause" {
			continue
		}
		for _, item := range namedChildren(kid) {
			if item.Type() != "with_item" {
				continue
			}
			wi, err := c.withItem(item)
			if err != nil {
				return nil, err
			}
			w.Items = append(w.Items, wi)
		}
	}
	body, err := c.stmts(c.field(n, "body"))
	if err != nil {
		return nil, err
	}
	w.Body = body
	return w, nil
}

func (c *converter) withItem(n *sitter.Node) (*WithItem, error) {
	value := c.field(n, "value")
	if value == nil {
		kids := namedChildren(n)
		if len(kids) == 0 {
			return nil, c.unsupported(n, "with item")
		}
		value = kids[0]
	}

	if value.Type() == "as_pattern" {
		inner := namedChildren(value)
		if len(inner) == 0 {
			return nil, c.unsupported(value, "with item")
		}
		ctxExpr, err := c.expr(inner[0])
		if err != nil {
			return nil, err
		}
		wi := &WithItem{ContextExpr: ctxExpr}
		alias := c.field(value, "alias")
		if alias == nil && len(inner) > 1 {
			alias = inner[len(inner)-1]
		}
		if alias != nil {
			if wi.OptionalVars, err = c.aliasTarget(alias); err != nil {
				return nil, err
			}
		}
		return wi, nil
	}

	ctxExpr, err := c.expr(value)
	if err != nil {
		return nil, err
	}
	wi := &WithItem{ContextExpr: ctxExpr}
	if alias := c.field(n, "alias"); alias != nil {
		if wi.OptionalVars, err = c.target(alias, Store); err != nil {
			return nil, err
		}
	}
	return wi, nil
}

// aliasTarget converts the node after "as" into an assignment target.
func (c *converter) aliasTarget(n *sitter.Node) (Expr, error) {
	if n.Type() == "as_pattern_target" {
		kids := namedChildren(n)
		if len(kids) == 1 {
			return c.target(kids[0], Store)
		}
		return &Name{Pos: c.pos(n), ID: c.text(n), Ctx: Store}, nil
	}
	return c.target(n, Store)
}

func (c *converter) decorated(n *sitter.Node) (Stmt, error) {
	var decorators []Expr
	for _, kid := range namedChildren(n) {
		if kid.Type() != "decorator" {
			continue
		}
		inner := namedChildren(kid)
		if len(inner) == 0 {
			return nil, c.unsupported(kid, "decorator")
		}
		d, err := c.expr(inner[0])
		if err != nil {
			return nil, err
		}
		decorators = append(decorators, d)
	}

	def := c.field(n, "definition")
	if def == nil {
		return nil, c.unsupported(n, "decorated definition")
	}
	switch def.Type() {
	case "function_definition":
		return c.functionDef(def, decorators)
	case "class_definition":
		return c.classDef(def, decorators)
	}
	return nil, c.unsupported(def, "decorated definition")
}

func (c *converter) functionDef(n *sitter.Node, decorators []Expr) (Stmt, error) {
	name := c.field(n, "name")
	if name == nil {
		return nil, c.unsupported(n, "function")
	}
	f := &FunctionDef{
		Pos:        c.pos(n),
		Name:       c.text(name),
		Async:      hasToken(n, "async"),
		Decorators: decorators,
	}

	var err error
	if tp := c.field(n, "type_parameters"); tp != nil {
		if f.TypeParams, err = c.typeParams(tp); err != nil {
			return nil, err
		}
	}
	if f.Args, err = c.parameters(c.field(n, "parameters")); err != nil {
		return nil, err
	}
	if rt := c.field(n, "return_type"); rt != nil {
		if f.Returns, err = c.expr(rt); err != nil {
			return nil, err
		}
	}
	if f.Body, err = c.stmts(c.field(n, "body")); err != nil {
		return nil, err
	}
	return f, nil
}

func (c *converter) classDef(n *sitter.Node, decorators []Expr) (Stmt, error) {
	name := c.field(n, "name")
	if name == nil {
		return nil, c.unsupported(n, "class")
	}
	cls := &ClassDef{Pos: c.pos(n), Name: c.text(name), Decorators: decorators}

	var err error
	if tp := c.field(n, "type_parameters"); tp != nil {
		if cls.TypeParams, err = c.typeParams(tp); err != nil {
			return nil, err
		}
	}
	if sup := c.field(n, "superclasses"); sup != nil {
		if cls.Bases, cls.Keywords, err = c.arguments(sup); err != nil {
			return nil, err
		}
	}
	if cls.Body, err = c.stmts(c.field(n, "body")); err != nil {
		return nil, err
	}
	return cls, nil
}

// parameters converts a parameters or lambda_parameters node. A nil node
// yields an empty parameter list.
func (c *converter) parameters(n *sitter.Node) (*Arguments, error) {
	args := &Arguments{}
	if n == nil {
		return args, nil
	}
	kind := ParamPositional
	add := func(node *sitter.Node, name string, k ParamKind, ann, def Expr) {
		args.Params = append(args.Params, &Arg{
			Pos:        c.pos(node),
			Name:       name,
			Kind:       k,
			Annotation: ann,
			Default:    def,
		})
	}

	for _, p := range namedChildren(n) {
		var err error
		var ann, def Expr
		switch p.Type() {
		case "identifier":
			add(p, c.text(p), kind, nil, nil)

		case "positional_separator":
			for _, prev := range args.Params {
				prev.Kind = ParamPositionalOnly
			}

		case "keyword_separator":
			kind = ParamKeywordOnly

		case "list_splat_pattern", "dictionary_splat_pattern":
			k := c.splatKind(p)
			if k == ParamVarPositional {
				kind = ParamKeywordOnly
			}
			add(p, c.splatName(p), k, nil, nil)

		case "typed_parameter":
			if typ := c.field(p, "type"); typ != nil {
				if ann, err = c.expr(typ); err != nil {
					return nil, err
				}
			}
			inner := namedChildren(p)
			if len(inner) == 0 {
				return nil, c.unsupported(p, "parameter")
			}
			head := inner[0]
			switch head.Type() {
			case "list_splat_pattern", "dictionary_splat_pattern":
				k := c.splatKind(head)
				if k == ParamVarPositional {
					kind = ParamKeywordOnly
				}
				add(p, c.splatName(head), k, ann, nil)
			default:
				add(p, c.text(head), kind, ann, nil)
			}

		case "default_parameter", "typed_default_parameter":
			name := c.field(p, "name")
			if name == nil {
				return nil, c.unsupported(p, "parameter")
			}
			if typ := c.field(p, "type"); typ != nil {
				if ann, err = c.expr(typ); err != nil {
					return nil, err
				}
			}
			if v := c.field(p, "value"); v != nil {
				if def, err = c.expr(v); err != nil {
					return nil, err
				}
			}
			if name.Type() == "tuple_pattern" {
				for _, id := range c.patternIdentifiers(name) {
					add(id, c.text(id), kind, ann, def)
					def = nil
				}
				continue
			}
			add(p, c.text(name), kind, ann, def)

		case "tuple_pattern":
			for _, id := range c.patternIdentifiers(p) {
				add(id, c.text(id), kind, nil, nil)
			}

		default:
			return nil, c.unsupported(p, "parameter")
		}
	}
	return args, nil
}

func (c *converter) splatKind(n *sitter.Node) ParamKind {
	if n.Type() == "dictionary_splat_pattern" {
		return ParamVarKeyword
	}
	return ParamVarPositional
}

func (c *converter) splatName(n *sitter.Node) string {
	for _, kid := range namedChildren(n) {
		if kid.Type() == "identifier" {
			return c.text(kid)
		}
	}
	return strings.TrimLeft(c.text(n), "*")
}

// patternIdentifiers collects identifiers nested in a tuple_pattern parameter.
func (c *converter) patternIdentifiers(n *sitter.Node) []*sitter.Node {
	if n.Type() == "identifier" {
		return []*sitter.Node{n}
	}
	var out []*sitter.Node
	for _, kid := range namedChildren(n) {
		out = append(out, c.patternIdentifiers(kid)...)
	}
	return out
}

// typeParams converts a PEP 695 bracket list. Each entry is a type node
// wrapping an identifier, a constrained_type (T: bound), or a splat_type.
func (c *converter) typeParams(n *sitter.Node) ([]*TypeParam, error) {
	var params []*TypeParam
	for _, kid := range namedChildren(n) {
		tp, err := c.typeParam(kid)
		if err != nil {
			return nil, err
		}
		params = append(params, tp)
	}
	return params, nil
}

func (c *converter) typeParam(n *sitter.Node) (*TypeParam, error) {
	switch n.Type() {
	case "type":
		inner := namedChildren(n)
		if len(inner) != 1 {
			return nil, c.unsupported(n, "type parameter")
		}
		return c.typeParam(inner[0])
	case "identifier":
		return &TypeParam{Pos: c.pos(n), Name: c.text(n)}, nil
	case "splat_type", "list_splat_pattern", "dictionary_splat_pattern":
		return &TypeParam{Pos: c.pos(n), Name: c.splatName(n)}, nil
	case "constrained_type":
		inner := namedChildren(n)
		if len(inner) != 2 {
			return nil, c.unsupported(n, "type parameter")
		}
		tp, err := c.typeParam(inner[0])
		if err != nil {
			return nil, err
		}
		if tp.Bound, err = c.expr(inner[1]); err != nil {
			return nil, err
		}
		return tp, nil
	}
	return nil, c.unsupported(n, "type parameter")
}

func (c *converter) typeAlias(n *sitter.Node) (Stmt, error) {
	left, right := c.field(n, "left"), c.field(n, "right")
	if left == nil || right == nil {
		kids := namedChildren(n)
		if len(kids) != 2 {
			return nil, c.unsupported(n, "type alias")
		}
		left, right = kids[0], kids[1]
	}

	head := left
	for head.Type() == "type" && len(namedChildren(head)) == 1 {
		head = namedChildren(head)[0]
	}

	s := &TypeAlias{Pos: c.pos(n)}
	switch head.Type() {
	case "identifier":
		s.Name = &Name{Pos: c.pos(head), ID: c.text(head), Ctx: Store}
	case "generic_type":
		inner := namedChildren(head)
		if len(inner) != 2 || inner[0].Type() != "identifier" {
			return nil, c.unsupported(head, "type alias")
		}
		s.Name = &Name{Pos: c.pos(inner[0]), ID: c.text(inner[0]), Ctx: Store}
		params, err := c.typeParams(inner[1])
		if err != nil {
			return nil, err
		}
		s.TypeParams = params
	default:
		return nil, c.unsupported(head, "type alias")
	}

	v, err := c.expr(right)
	if err != nil {
		return nil, err
	}
	s.Value = v
	return s, nil
}
