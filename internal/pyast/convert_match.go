package pyast

import (
	sitter "github.com/smacker/go-tree-sitter"
)

func (c *converter) matchStmt(n *sitter.Node) (Stmt, error) {
	subject, err := c.exprOrTuple(fieldChildren(n, "subject"))
	if err != nil {
		return nil, err
	}
	m := &Match{Pos: c.pos(n), Subject: subject}

	body := c.field(n, "body")
	for _, kid := range namedChildren(body) {
		if kid.Type() != "case_clause" {
			continue
		}
		mc, err := c.matchCase(kid)
		if err != nil {
			return nil, err
		}
		m.Cases = append(m.Cases, mc)
	}
	return m, nil
}

func (c *converter) matchCase(n *sitter.Node) (*MatchCase, error) {
	var pats []Pattern
	for _, kid := range namedChildren(n) {
		if kid.Type() != "case_pattern" {
			continue
		}
		pat, err := c.pattern(kid)
		if err != nil {
			return nil, err
		}
		pats = append(pats, pat)
	}

	mc := &MatchCase{}
	switch len(pats) {
	case 0:
		mc.Pattern = &MatchAs{Pos: c.pos(n)}
	case 1:
		mc.Pattern = pats[0]
	default:
		mc.Pattern = &MatchSequence{Pos: pats[0].Position(), Patterns: pats}
	}

	if guard := c.field(n, "guard"); guard != nil {
		cond := guard
		if guard.Type() == "if_clause" {
			inner := namedChildren(guard)
			if len(inner) != 1 {
				return nil, c.unsupported(guard, "case guard")
			}
			cond = inner[0]
		}
		g, err := c.expr(cond)
		if err != nil {
			return nil, err
		}
		mc.Guard = g
	}

	body, err := c.stmts(c.field(n, "consequence"))
	if err != nil {
		return nil, err
	}
	mc.Body = body
	return mc, nil
}

func (c *converter) patterns(nodes []*sitter.Node) ([]Pattern, error) {
	out := make([]Pattern, 0, len(nodes))
	for _, n := range nodes {
		p, err := c.pattern(n)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *converter) pattern(n *sitter.Node) (Pattern, error) {
	p := c.pos(n)
	switch n.Type() {
	case "case_pattern":
		kids := namedChildren(n)
		switch len(kids) {
		case 0:
			// the bare "_" token
			return &MatchAs{Pos: p}, nil
		case 1:
			if isNumber(kids[0]) {
				// a leading "-" is an anonymous sibling of the number
				return &MatchValue{Pos: p, Value: &Constant{Pos: p, Kind: "number", Value: c.text(n)}}, nil
			}
			return c.pattern(kids[0])
		}
		return nil, c.unsupported(n, "pattern")

	case "identifier":
		if c.text(n) == "_" {
			return &MatchAs{Pos: p}, nil
		}
		return &MatchAs{Pos: p, Name: c.text(n)}, nil

	case "dotted_name":
		kids := namedChildren(n)
		if len(kids) == 1 {
			return c.pattern(kids[0])
		}
		v, err := c.dottedValue(kids)
		if err != nil {
			return nil, err
		}
		return &MatchValue{Pos: p, Value: v}, nil

	case "true", "false", "none":
		return &MatchSingleton{Pos: p, Value: c.text(n)}, nil

	case "integer", "float", "complex_pattern", "string", "concatenated_string":
		if n.Type() == "complex_pattern" {
			return &MatchValue{Pos: p, Value: &Constant{Pos: p, Kind: "number", Value: c.text(n)}}, nil
		}
		v, err := c.expr(n)
		if err != nil {
			return nil, err
		}
		return &MatchValue{Pos: p, Value: v}, nil

	case "splat_pattern", "list_splat_pattern", "dictionary_splat_pattern":
		name := ""
		for _, kid := range namedChildren(n) {
			if kid.Type() == "identifier" && c.text(kid) != "_" {
				name = c.text(kid)
			}
		}
		return &MatchStar{Pos: p, Name: name}, nil

	case "union_pattern":
		alts, err := c.patterns(namedChildren(n))
		if err != nil {
			return nil, err
		}
		return &MatchOr{Pos: p, Patterns: alts}, nil

	case "list_pattern":
		elts, err := c.patterns(namedChildren(n))
		if err != nil {
			return nil, err
		}
		return &MatchSequence{Pos: p, Patterns: elts}, nil

	case "tuple_pattern":
		kids := namedChildren(n)
		if len(kids) == 1 && !hasToken(n, ",") {
			return c.pattern(kids[0])
		}
		elts, err := c.patterns(kids)
		if err != nil {
			return nil, err
		}
		return &MatchSequence{Pos: p, Patterns: elts}, nil

	case "dict_pattern":
		return c.dictPattern(n)

	case "class_pattern":
		return c.classPattern(n)

	case "as_pattern":
		kids := namedChildren(n)
		if len(kids) == 0 {
			return nil, c.unsupported(n, "pattern")
		}
		inner, err := c.pattern(kids[0])
		if err != nil {
			return nil, err
		}
		alias := c.field(n, "alias")
		if alias == nil && len(kids) > 1 {
			alias = kids[len(kids)-1]
		}
		as := &MatchAs{Pos: p, Pattern: inner}
		if alias != nil {
			as.Name = c.aliasName(alias)
		}
		return as, nil
	}
	return nil, c.unsupported(n, "pattern")
}

func isNumber(n *sitter.Node) bool {
	switch n.Type() {
	case "integer", "float":
		return true
	}
	return false
}

// dottedValue turns a.b.c into nested Attribute loads.
func (c *converter) dottedValue(ids []*sitter.Node) (Expr, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var v Expr = &Name{Pos: c.pos(ids[0]), ID: c.text(ids[0]), Ctx: Load}
	for _, id := range ids[1:] {
		v = &Attribute{Pos: c.pos(ids[0]), Value: v, Attr: c.text(id), Ctx: Load}
	}
	return v, nil
}

// dictPattern reads alternating key and value children, plus an optional
// trailing **rest.
func (c *converter) dictPattern(n *sitter.Node) (Pattern, error) {
	m := &MatchMapping{Pos: c.pos(n)}
	var key Expr
	haveKey := false
	for _, kid := range namedChildren(n) {
		if kid.Type() == "splat_pattern" || kid.Type() == "dictionary_splat_pattern" {
			star, err := c.pattern(kid)
			if err != nil {
				return nil, err
			}
			m.Rest = star.(*MatchStar).Name
			continue
		}
		if !haveKey {
			k, err := c.patternKey(kid)
			if err != nil {
				return nil, err
			}
			key, haveKey = k, true
			continue
		}
		v, err := c.pattern(kid)
		if err != nil {
			return nil, err
		}
		m.Keys = append(m.Keys, key)
		m.Patterns = append(m.Patterns, v)
		key, haveKey = nil, false
	}
	return m, nil
}

func (c *converter) patternKey(n *sitter.Node) (Expr, error) {
	switch n.Type() {
	case "case_pattern":
		kids := namedChildren(n)
		if len(kids) == 1 && !isNumber(kids[0]) {
			return c.patternKey(kids[0])
		}
		return &Constant{Pos: c.pos(n), Kind: "number", Value: c.text(n)}, nil
	case "dotted_name":
		return c.dottedValue(namedChildren(n))
	case "complex_pattern":
		return &Constant{Pos: c.pos(n), Kind: "number", Value: c.text(n)}, nil
	}
	return c.expr(n)
}

func (c *converter) classPattern(n *sitter.Node) (Pattern, error) {
	m := &MatchClass{Pos: c.pos(n)}
	for i, kid := range namedChildren(n) {
		if i == 0 {
			cls, err := c.dottedValue(namedChildren(kid))
			if err != nil {
				return nil, err
			}
			if kid.Type() == "identifier" {
				cls = &Name{Pos: c.pos(kid), ID: c.text(kid), Ctx: Load}
			}
			m.Cls = cls
			continue
		}

		target := kid
		if kid.Type() == "case_pattern" {
			if inner := namedChildren(kid); len(inner) == 1 && inner[0].Type() == "keyword_pattern" {
				target = inner[0]
			}
		}
		if target.Type() == "keyword_pattern" {
			parts := namedChildren(target)
			if len(parts) != 2 {
				return nil, c.unsupported(target, "pattern")
			}
			v, err := c.pattern(parts[1])
			if err != nil {
				return nil, err
			}
			m.KwdAttrs = append(m.KwdAttrs, c.text(parts[0]))
			m.KwdPatterns = append(m.KwdPatterns, v)
			continue
		}

		v, err := c.pattern(kid)
		if err != nil {
			return nil, err
		}
		m.Patterns = append(m.Patterns, v)
	}
	return m, nil
}
