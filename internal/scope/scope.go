// Package scope decides whether every name a Python module reads is bound
// in some visible scope at the point of use.
//
// The analysis runs in two passes over a pyast.Module. The first collects
// every name the module will eventually bind (see collect.go). The second
// walks statements in program order and reports the first load that is not
// visible (see verify.go).
package scope

// Scope is a set of bound names. Lookups fall through to the parent scopes,
// and they do so live: a name added to a parent after the child was created
// is still visible from the child.
type Scope struct {
	names    map[string]struct{}
	parents  []*Scope
	wildcard bool
}

// NewScope returns an empty scope whose lookups fall through to parents.
// Nil parents are ignored.
func NewScope(parents ...*Scope) *Scope {
	s := &Scope{names: make(map[string]struct{})}
	for _, p := range parents {
		if p != nil {
			s.parents = append(s.parents, p)
		}
	}
	return s
}

// Add binds names in s.
func (s *Scope) Add(names ...string) {
	for _, n := range names {
		if n != "" {
			s.names[n] = struct{}{}
		}
	}
}

// SetWildcard makes every lookup through s succeed. Used after a star
// import, whose names cannot be known without importing the module.
func (s *Scope) SetWildcard() {
	s.wildcard = true
}

// Has reports whether name is visible from s.
func (s *Scope) Has(name string) bool {
	return s.lookup(name, nil)
}

// lookup walks the parent graph. Comprehension and handler scopes give it
// diamonds, so once a fork is seen every visited scope is remembered.
func (s *Scope) lookup(name string, seen map[*Scope]struct{}) bool {
	for cur := s; cur != nil; {
		if seen != nil {
			if _, ok := seen[cur]; ok {
				return false
			}
			seen[cur] = struct{}{}
		}
		if cur.wildcard {
			return true
		}
		if _, ok := cur.names[name]; ok {
			return true
		}
		switch len(cur.parents) {
		case 0:
			return false
		case 1:
			cur = cur.parents[0]
			continue
		}
		if seen == nil {
			seen = map[*Scope]struct{}{cur: {}}
		}
		for _, p := range cur.parents {
			if p.lookup(name, seen) {
				return true
			}
		}
		return false
	}
	return false
}

// env is the scope frame the verifier carries through recursion.
type env struct {
	read    *Scope // lookups
	write   *Scope // bindings made by assignments, imports, defs
	closure *Scope // what a function defined here is seeded from
	walrus  *Scope // where := binds; skips comprehension scopes
	kind    frameKind
}

type frameKind int

const (
	moduleFrame frameKind = iota
	functionFrame
	classFrame
)
