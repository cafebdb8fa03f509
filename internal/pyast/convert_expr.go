package pyast

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// exprOrTuple converts a run of sibling expressions. More than one becomes
// an implicit tuple, as in "return a, b".
func (c *converter) exprOrTuple(nodes []*sitter.Node) (Expr, error) {
	switch len(nodes) {
	case 0:
		return nil, nil
	case 1:
		return c.expr(nodes[0])
	}
	elts, err := c.exprList(nodes)
	if err != nil {
		return nil, err
	}
	return &Tuple{Pos: c.pos(nodes[0]), Elts: elts, Ctx: Load}, nil
}

func (c *converter) exprList(nodes []*sitter.Node) ([]Expr, error) {
	out := make([]Expr, 0, len(nodes))
	for _, n := range nodes {
		e, err := c.expr(n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *converter) expr(n *sitter.Node) (Expr, error) {
	if n == nil {
		return nil, nil
	}
	p := c.pos(n)
	switch n.Type() {
	case "identifier", "keyword_identifier":
		return &Name{Pos: p, ID: c.text(n), Ctx: Load}, nil

	case "integer", "float":
		return &Constant{Pos: p, Kind: "number", Value: c.text(n)}, nil
	case "true", "false", "none":
		return &Constant{Pos: p, Kind: n.Type(), Value: c.text(n)}, nil
	case "ellipsis":
		return &Constant{Pos: p, Kind: "ellipsis", Value: "..."}, nil

	case "string", "concatenated_string":
		return c.str(n)

	case "parenthesized_expression", "type":
		kids := namedChildren(n)
		if len(kids) != 1 {
			return nil, c.unsupported(n, "expression")
		}
		return c.expr(kids[0])

	case "tuple", "expression_list", "pattern_list", "tuple_pattern":
		elts, err := c.exprList(namedChildren(n))
		if err != nil {
			return nil, err
		}
		return &Tuple{Pos: p, Elts: elts, Ctx: Load}, nil

	case "list", "list_pattern":
		elts, err := c.exprList(namedChildren(n))
		if err != nil {
			return nil, err
		}
		return &List{Pos: p, Elts: elts, Ctx: Load}, nil

	case "set":
		elts, err := c.exprList(namedChildren(n))
		if err != nil {
			return nil, err
		}
		return &Set{Pos: p, Elts: elts}, nil

	case "dictionary":
		return c.dict(n)

	case "list_comprehension", "set_comprehension", "generator_expression", "dictionary_comprehension":
		return c.comprehension(n)

	case "binary_operator":
		return c.binary(n)

	case "boolean_operator":
		left, err := c.expr(c.field(n, "left"))
		if err != nil {
			return nil, err
		}
		right, err := c.expr(c.field(n, "right"))
		if err != nil {
			return nil, err
		}
		op := ""
		if o := c.field(n, "operator"); o != nil {
			op = o.Type()
		}
		return &BoolOp{Pos: p, Op: op, Values: []Expr{left, right}}, nil

	case "comparison_operator":
		kids := namedChildren(n)
		if len(kids) == 0 {
			return nil, c.unsupported(n, "expression")
		}
		elts, err := c.exprList(kids)
		if err != nil {
			return nil, err
		}
		return &Compare{Pos: p, Left: elts[0], Comparators: elts[1:]}, nil

	case "not_operator":
		operand, err := c.expr(c.field(n, "argument"))
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Pos: p, Op: "not", Operand: operand}, nil

	case "unary_operator":
		operand, err := c.expr(c.field(n, "argument"))
		if err != nil {
			return nil, err
		}
		op := ""
		if o := c.field(n, "operator"); o != nil {
			op = o.Type()
		}
		return &UnaryOp{Pos: p, Op: op, Operand: operand}, nil

	case "conditional_expression":
		// body if test else orelse
		kids := namedChildren(n)
		if len(kids) != 3 {
			return nil, c.unsupported(n, "expression")
		}
		elts, err := c.exprList(kids)
		if err != nil {
			return nil, err
		}
		return &IfExp{Pos: p, Body: elts[0], Test: elts[1], Orelse: elts[2]}, nil

	case "named_expression":
		name := c.field(n, "name")
		if name == nil {
			return nil, c.unsupported(n, "expression")
		}
		v, err := c.expr(c.field(n, "value"))
		if err != nil {
			return nil, err
		}
		return &NamedExpr{
			Pos:    p,
			Target: &Name{Pos: c.pos(name), ID: c.text(name), Ctx: Store},
			Value:  v,
		}, nil

	case "lambda":
		args, err := c.parameters(c.field(n, "parameters"))
		if err != nil {
			return nil, err
		}
		body, err := c.expr(c.field(n, "body"))
		if err != nil {
			return nil, err
		}
		return &Lambda{Pos: p, Args: args, Body: body}, nil

	case "call":
		return c.call(n)

	case "attribute":
		return c.attribute(n, Load)

	case "subscript":
		return c.subscript(n, Load)

	case "slice":
		return c.slice(n)

	case "list_splat", "parenthesized_list_splat", "list_splat_pattern", "splat_type":
		kids := namedChildren(n)
		if len(kids) != 1 {
			return nil, c.unsupported(n, "expression")
		}
		v, err := c.expr(kids[0])
		if err != nil {
			return nil, err
		}
		return &Starred{Pos: p, Value: v, Ctx: Load}, nil

	case "dictionary_splat", "dictionary_splat_pattern":
		kids := namedChildren(n)
		if len(kids) != 1 {
			return nil, c.unsupported(n, "expression")
		}
		v, err := c.expr(kids[0])
		if err != nil {
			return nil, err
		}
		return &Starred{Pos: p, Value: v, Double: true, Ctx: Load}, nil

	case "await":
		kids := namedChildren(n)
		if len(kids) != 1 {
			return nil, c.unsupported(n, "expression")
		}
		v, err := c.expr(kids[0])
		if err != nil {
			return nil, err
		}
		return &Await{Pos: p, Value: v}, nil

	case "yield":
		v, err := c.exprOrTuple(namedChildren(n))
		if err != nil {
			return nil, err
		}
		if hasToken(n, "from") {
			return &YieldFrom{Pos: p, Value: v}, nil
		}
		return &Yield{Pos: p, Value: v}, nil

	case "as_pattern":
		// Only meaningful inside with/except, which unwrap it themselves.
		kids := namedChildren(n)
		if len(kids) == 0 {
			return nil, c.unsupported(n, "expression")
		}
		return c.expr(kids[0])

	case "generic_type":
		kids := namedChildren(n)
		if len(kids) != 2 {
			return nil, c.unsupported(n, "type")
		}
		base, err := c.expr(kids[0])
		if err != nil {
			return nil, err
		}
		args, err := c.exprOrTuple(namedChildren(kids[1]))
		if err != nil {
			return nil, err
		}
		return &Subscript{Pos: p, Value: base, Slice: args, Ctx: Load}, nil

	case "union_type":
		kids := namedChildren(n)
		if len(kids) != 2 {
			return nil, c.unsupported(n, "type")
		}
		elts, err := c.exprList(kids)
		if err != nil {
			return nil, err
		}
		return &BinOp{Pos: p, Left: elts[0], Op: "|", Right: elts[1]}, nil

	case "member_type":
		kids := namedChildren(n)
		if len(kids) != 2 {
			return nil, c.unsupported(n, "type")
		}
		base, err := c.expr(kids[0])
		if err != nil {
			return nil, err
		}
		return &Attribute{Pos: p, Value: base, Attr: c.text(kids[1]), Ctx: Load}, nil

	case "constrained_type":
		elts, err := c.exprList(namedChildren(n))
		if err != nil {
			return nil, err
		}
		return &Tuple{Pos: p, Elts: elts, Ctx: Load}, nil

	case "ERROR":
		return nil, c.syntaxError(n)
	}
	return nil, c.unsupported(n, "expression")
}

func (c *converter) binary(n *sitter.Node) (Expr, error) {
	left, err := c.expr(c.field(n, "left"))
	if err != nil {
		return nil, err
	}
	right, err := c.expr(c.field(n, "right"))
	if err != nil {
		return nil, err
	}
	op := ""
	if o := c.field(n, "operator"); o != nil {
		op = o.Type()
	}
	return &BinOp{Pos: c.pos(n), Left: left, Op: op, Right: right}, nil
}

func (c *converter) dict(n *sitter.Node) (Expr, error) {
	d := &Dict{Pos: c.pos(n)}
	for _, kid := range namedChildren(n) {
		switch kid.Type() {
		case "pair":
			k, err := c.expr(c.field(kid, "key"))
			if err != nil {
				return nil, err
			}
			v, err := c.expr(c.field(kid, "value"))
			if err != nil {
				return nil, err
			}
			d.Keys = append(d.Keys, k)
			d.Values = append(d.Values, v)
		case "dictionary_splat":
			inner := namedChildren(kid)
			if len(inner) != 1 {
				return nil, c.unsupported(kid, "dictionary")
			}
			v, err := c.expr(inner[0])
			if err != nil {
				return nil, err
			}
			d.Keys = append(d.Keys, nil)
			d.Values = append(d.Values, v)
		default:
			return nil, c.unsupported(kid, "dictionary")
		}
	}
	return d, nil
}

func (c *converter) call(n *sitter.Node) (Expr, error) {
	fn, err := c.expr(c.field(n, "function"))
	if err != nil {
		return nil, err
	}
	call := &Call{Pos: c.pos(n), Func: fn}

	argNode := c.field(n, "arguments")
	if argNode == nil {
		return call, nil
	}
	if argNode.Type() == "generator_expression" {
		gen, err := c.comprehension(argNode)
		if err != nil {
			return nil, err
		}
		call.Args = []Expr{gen}
		return call, nil
	}
	if call.Args, call.Keywords, err = c.arguments(argNode); err != nil {
		return nil, err
	}
	return call, nil
}

// arguments converts an argument_list into positional and keyword parts.
func (c *converter) arguments(n *sitter.Node) ([]Expr, []*Keyword, error) {
	var args []Expr
	var keywords []*Keyword
	for _, kid := range namedChildren(n) {
		switch kid.Type() {
		case "keyword_argument":
			v, err := c.expr(c.field(kid, "value"))
			if err != nil {
				return nil, nil, err
			}
			kw := &Keyword{Value: v}
			if name := c.field(kid, "name"); name != nil {
				kw.Arg = c.text(name)
			}
			keywords = append(keywords, kw)
		case "dictionary_splat":
			inner := namedChildren(kid)
			if len(inner) != 1 {
				return nil, nil, c.unsupported(kid, "argument")
			}
			v, err := c.expr(inner[0])
			if err != nil {
				return nil, nil, err
			}
			keywords = append(keywords, &Keyword{Value: v})
		default:
			e, err := c.expr(kid)
			if err != nil {
				return nil, nil, err
			}
			args = append(args, e)
		}
	}
	return args, keywords, nil
}

func (c *converter) attribute(n *sitter.Node, ctx ExprContext) (Expr, error) {
	obj, err := c.expr(c.field(n, "object"))
	if err != nil {
		return nil, err
	}
	attr := ""
	if a := c.field(n, "attribute"); a != nil {
		attr = c.text(a)
	}
	return &Attribute{Pos: c.pos(n), Value: obj, Attr: attr, Ctx: ctx}, nil
}

func (c *converter) subscript(n *sitter.Node, ctx ExprContext) (Expr, error) {
	value, err := c.expr(c.field(n, "value"))
	if err != nil {
		return nil, err
	}
	index, err := c.exprOrTuple(fieldChildren(n, "subscript"))
	if err != nil {
		return nil, err
	}
	return &Subscript{Pos: c.pos(n), Value: value, Slice: index, Ctx: ctx}, nil
}

// slice walks lower:upper:step, where any part may be absent.
func (c *converter) slice(n *sitter.Node) (Expr, error) {
	s := &Slice{Pos: c.pos(n)}
	part := 0
	for _, kid := range allChildren(n) {
		if !kid.IsNamed() {
			if kid.Type() == ":" {
				part++
			}
			continue
		}
		e, err := c.expr(kid)
		if err != nil {
			return nil, err
		}
		switch part {
		case 0:
			s.Lower = e
		case 1:
			s.Upper = e
		default:
			s.Step = e
		}
	}
	return s, nil
}

// str turns plain strings into a Constant and f-strings into a JoinedStr
// holding every interpolated expression, including those nested in format
// specifiers such as f"{x:{width}}".
func (c *converter) str(n *sitter.Node) (Expr, error) {
	var values []Expr
	if err := c.interpolations(n, &values); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return &Constant{Pos: c.pos(n), Kind: "str", Value: c.text(n)}, nil
	}
	return &JoinedStr{Pos: c.pos(n), Values: values}, nil
}

func (c *converter) interpolations(n *sitter.Node, out *[]Expr) error {
	for _, kid := range namedChildren(n) {
		switch kid.Type() {
		case "interpolation", "format_expression":
			inner := c.field(kid, "expression")
			if inner == nil {
				for _, cand := range namedChildren(kid) {
					if t := cand.Type(); t != "type_conversion" && t != "format_specifier" {
						inner = cand
						break
					}
				}
			}
			if inner != nil {
				e, err := c.expr(inner)
				if err != nil {
					return err
				}
				*out = append(*out, e)
			}
			for _, spec := range namedChildren(kid) {
				if spec.Type() != "format_specifier" {
					continue
				}
				if err := c.interpolations(spec, out); err != nil {
					return err
				}
			}
		case "format_specifier", "string":
			if err := c.interpolations(kid, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// unparenthesizedIter reports `x for x in a, b`. As the sole argument of a
// call the comma reads as an argument separator.
func (c *converter) unparenthesizedIter(gen, clause *sitter.Node) error {
	if gen.Type() == "generator_expression" {
		if parent := gen.Parent(); parent != nil && parent.Type() == "call" {
			return c.syntaxErrorAt(gen, "Generator expression must be parenthesized")
		}
	}
	return c.syntaxErrorAt(clause, "invalid syntax")
}

func (c *converter) comprehension(n *sitter.Node) (Expr, error) {
	p := c.pos(n)
	var gens []*Comprehension
	for _, kid := range namedChildren(n) {
		switch kid.Type() {
		case "for_in_clause":
			left := c.field(kid, "left")
			if left == nil {
				return nil, c.unsupported(kid, "comprehension")
			}
			target, err := c.target(left, Store)
			if err != nil {
				return nil, err
			}
			right := fieldChildren(kid, "right")
			if len(right) != 1 {
				return nil, c.unparenthesizedIter(n, kid)
			}
			iter, err := c.expr(right[0])
			if err != nil {
				return nil, err
			}
			gens = append(gens, &Comprehension{
				Target: target,
				Iter:   iter,
				Async:  hasToken(kid, "async"),
			})
		case "if_clause":
			inner := namedChildren(kid)
			if len(inner) != 1 || len(gens) == 0 {
				return nil, c.unsupported(kid, "comprehension")
			}
			cond, err := c.expr(inner[0])
			if err != nil {
				return nil, err
			}
			last := gens[len(gens)-1]
			last.Ifs = append(last.Ifs, cond)
		}
	}

	body := c.field(n, "body")
	if body == nil {
		return nil, c.unsupported(n, "comprehension")
	}
	if n.Type() == "dictionary_comprehension" {
		if body.Type() != "pair" {
			return nil, c.unsupported(body, "comprehension")
		}
		k, err := c.expr(c.field(body, "key"))
		if err != nil {
			return nil, err
		}
		v, err := c.expr(c.field(body, "value"))
		if err != nil {
			return nil, err
		}
		return &DictComp{Pos: p, Key: k, Value: v, Generators: gens}, nil
	}

	elt, err := c.expr(body)
	if err != nil {
		return nil, err
	}
	switch n.Type() {
	case "list_comprehension":
		return &ListComp{Pos: p, Elt: elt, Generators: gens}, nil
	case "set_comprehension":
		return &SetComp{Pos: p, Elt: elt, Generators: gens}, nil
	}
	return &GeneratorExp{Pos: p, Elt: elt, Generators: gens}, nil
}

// target converts an assignment, loop, or del target. Attribute and
// subscript objects stay loads; only the outermost reference takes ctx.
func (c *converter) target(n *sitter.Node, ctx ExprContext) (Expr, error) {
	p := c.pos(n)
	switch n.Type() {
	case "identifier", "keyword_identifier":
		return &Name{Pos: p, ID: c.text(n), Ctx: ctx}, nil

	case "pattern_list", "tuple_pattern", "tuple", "expression_list":
		elts, err := c.targets(namedChildren(n), ctx)
		if err != nil {
			return nil, err
		}
		return &Tuple{Pos: p, Elts: elts, Ctx: ctx}, nil

	case "list_pattern", "list":
		elts, err := c.targets(namedChildren(n), ctx)
		if err != nil {
			return nil, err
		}
		return &List{Pos: p, Elts: elts, Ctx: ctx}, nil

	case "list_splat_pattern", "list_splat":
		kids := namedChildren(n)
		if len(kids) != 1 {
			return nil, c.unsupported(n, "target")
		}
		v, err := c.target(kids[0], ctx)
		if err != nil {
			return nil, err
		}
		return &Starred{Pos: p, Value: v, Ctx: ctx}, nil

	case "parenthesized_expression":
		kids := namedChildren(n)
		if len(kids) != 1 {
			return nil, c.unsupported(n, "target")
		}
		return c.target(kids[0], ctx)

	case "attribute":
		return c.attribute(n, ctx)

	case "subscript":
		return c.subscript(n, ctx)

	case "ERROR":
		return nil, c.syntaxError(n)
	}
	return nil, c.syntaxErrorAt(n, "cannot assign to expression")
}

func (c *converter) targets(nodes []*sitter.Node, ctx ExprContext) ([]Expr, error) {
	out := make([]Expr, 0, len(nodes))
	for _, n := range nodes {
		t, err := c.target(n, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
