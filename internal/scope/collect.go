package scope

import (
	"github.com/dgerlanc/scopegate/internal/pyast"
)

// definitions is what the collector found in one block of code.
type definitions struct {
	names    []string
	wildcard bool
}

// collector gathers every name a block binds, regardless of order. Run on
// the module it yields final_globals; run on a function body it yields the
// function's eventual locals.
type collector struct {
	defs   definitions
	module bool
}

// collectModule runs pass 1 over a whole module.
func collectModule(mod *pyast.Module) definitions {
	c := &collector{module: true}
	c.block(mod.Body)
	c.walrusTargets(mod.Body)
	return c.defs
}

// collectLocals runs pass 1 over a function body.
func collectLocals(body []pyast.Stmt) definitions {
	c := &collector{}
	c.block(body)
	c.walrusTargets(body)
	return c.defs
}

func (c *collector) add(names ...string) {
	c.defs.names = append(c.defs.names, names...)
}

func (c *collector) block(body []pyast.Stmt) {
	for _, s := range body {
		c.stmt(s)
	}
}

func (c *collector) stmt(s pyast.Stmt) {
	switch s := s.(type) {
	case *pyast.FunctionDef:
		c.add(s.Name)
		if c.module {
			c.add(declaredGlobal(s.Body)...)
		}
	case *pyast.ClassDef:
		c.add(s.Name)
		if c.module {
			c.add(declaredGlobal(s.Body)...)
		}
	case *pyast.Import:
		for _, a := range s.Names {
			c.add(a.Bound())
		}
	case *pyast.ImportFrom:
		for _, a := range s.Names {
			if a.Name == "*" {
				c.defs.wildcard = true
				continue
			}
			c.add(a.Bound())
		}
	case *pyast.Assign:
		for _, t := range s.Targets {
			c.add(targetNames(t)...)
		}
	case *pyast.AnnAssign:
		c.add(targetNames(s.Target)...)
	case *pyast.AugAssign:
		c.add(targetNames(s.Target)...)
	case *pyast.TypeAlias:
		if s.Name != nil {
			c.add(s.Name.ID)
		}
	case *pyast.For:
		c.add(targetNames(s.Target)...)
		c.block(s.Body)
		c.block(s.Orelse)
	case *pyast.With:
		for _, item := range s.Items {
			c.add(targetNames(item.OptionalVars)...)
		}
		c.block(s.Body)
	case *pyast.While:
		c.block(s.Body)
		c.block(s.Orelse)
	case *pyast.If:
		c.block(s.Body)
		c.block(s.Orelse)
	case *pyast.Try:
		c.block(s.Body)
		for _, h := range s.Handlers {
			c.block(h.Body)
		}
		c.block(s.Orelse)
		c.block(s.Finalbody)
	case *pyast.Match:
		for _, mc := range s.Cases {
			c.add(captureNames(mc.Pattern)...)
			c.block(mc.Body)
		}
	}
}

// walrusTargets adds := targets that bind in this block's scope. Function,
// class and lambda bodies own their walrus targets; comprehensions do not.
func (c *collector) walrusTargets(body []pyast.Stmt) {
	visit := func(n pyast.Node) bool {
		switch n := n.(type) {
		case *pyast.FunctionDef, *pyast.ClassDef, *pyast.Lambda:
			return false
		case *pyast.NamedExpr:
			if n.Target != nil {
				c.add(n.Target.ID)
			}
		}
		return true
	}
	for _, s := range body {
		switch s := s.(type) {
		case *pyast.FunctionDef:
			// decorators and defaults still run in this scope
			for _, d := range s.Decorators {
				pyast.Inspect(d, visit)
			}
			if s.Args != nil {
				for _, p := range s.Args.Params {
					if p.Default != nil {
						pyast.Inspect(p.Default, visit)
					}
				}
			}
		case *pyast.ClassDef:
			for _, d := range s.Decorators {
				pyast.Inspect(d, visit)
			}
			for _, b := range s.Bases {
				pyast.Inspect(b, visit)
			}
			for _, kw := range s.Keywords {
				pyast.Inspect(kw.Value, visit)
			}
		default:
			pyast.Inspect(s, visit)
		}
	}
}

// declaredGlobal returns names declared with a global statement anywhere in
// body, including nested functions and classes.
func declaredGlobal(body []pyast.Stmt) []string {
	var names []string
	for _, s := range body {
		pyast.Inspect(s, func(n pyast.Node) bool {
			switch n := n.(type) {
			case *pyast.Global:
				names = append(names, n.Names...)
			case pyast.Expr:
				return false
			}
			return true
		})
	}
	return names
}

// targetNames decomposes an assignment target into the plain names it binds.
// Attribute and subscript targets bind nothing.
func targetNames(t pyast.Expr) []string {
	switch t := t.(type) {
	case *pyast.Name:
		return []string{t.ID}
	case *pyast.Tuple:
		return eltNames(t.Elts)
	case *pyast.List:
		return eltNames(t.Elts)
	case *pyast.Starred:
		return targetNames(t.Value)
	}
	return nil
}

func eltNames(elts []pyast.Expr) []string {
	var out []string
	for _, e := range elts {
		out = append(out, targetNames(e)...)
	}
	return out
}

// captureNames lists the names a match pattern binds.
func captureNames(p pyast.Pattern) []string {
	var names []string
	pyast.Inspect(p, func(n pyast.Node) bool {
		switch n := n.(type) {
		case *pyast.MatchAs:
			if n.Name != "" {
				names = append(names, n.Name)
			}
		case *pyast.MatchStar:
			if n.Name != "" {
				names = append(names, n.Name)
			}
		case *pyast.MatchMapping:
			if n.Rest != "" {
				names = append(names, n.Rest)
			}
		case pyast.Expr:
			return false
		}
		return true
	})
	return names
}
