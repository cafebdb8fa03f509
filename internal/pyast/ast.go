// Package pyast builds a typed Python abstract syntax tree on top of the
// tree-sitter Python grammar.
package pyast

/*
Node Relationships in the pyast package:

  Module
    └─ Body []Stmt
         ├─ FunctionDef / ClassDef  → Decorators, Args/Bases, Body
         ├─ If / While / For / With / Try / Match → nested []Stmt
         └─ simple statements       → Expr trees

  Expr trees bottom out in *Name (identifier with ExprContext) and *Constant.

The shape mirrors CPython's ast module closely enough that name resolution
rules written against CPython's node set carry over one-to-one.
*/

// Pos is a source position. Line is 1-based; Column is the 1-based rune
// offset within the line.
type Pos struct {
	Line   int
	Column int
}

// Node is implemented by every AST node.
type Node interface {
	Position() Pos
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Pattern is a match-statement pattern node.
type Pattern interface {
	Node
	patternNode()
}

// ExprContext tells whether a Name, Attribute, Subscript, Starred, Tuple or
// List is read, assigned, or deleted.
type ExprContext int

const (
	Load ExprContext = iota
	Store
	Del
)

func (c ExprContext) String() string {
	switch c {
	case Store:
		return "Store"
	case Del:
		return "Del"
	default:
		return "Load"
	}
}

// Module is the root of a parsed source file.
type Module struct {
	Body []Stmt
}

// =============================================================================
// Statements
// =============================================================================

type FunctionDef struct {
	Pos
	Name       string
	Async      bool
	Decorators []Expr
	TypeParams []*TypeParam
	Args       *Arguments
	Returns    Expr
	Body       []Stmt
}

type ClassDef struct {
	Pos
	Name       string
	Decorators []Expr
	TypeParams []*TypeParam
	Bases      []Expr
	Keywords   []*Keyword
	Body       []Stmt
}

type Return struct {
	Pos
	Value Expr
}

type Delete struct {
	Pos
	Targets []Expr
}

// Assign covers chained assignment: a = b = value has two Targets.
type Assign struct {
	Pos
	Targets []Expr
	Value   Expr
}

type AugAssign struct {
	Pos
	Target Expr
	Op     string
	Value  Expr
}

// AnnAssign is an annotated assignment. Value is nil for a bare annotation.
type AnnAssign struct {
	Pos
	Target     Expr
	Annotation Expr
	Value      Expr
}

type For struct {
	Pos
	Async  bool
	Target Expr
	Iter   Expr
	Body   []Stmt
	Orelse []Stmt
}

type While struct {
	Pos
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

// If chains elif clauses as a nested If in Orelse, like CPython.
type If struct {
	Pos
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

type With struct {
	Pos
	Async bool
	Items []*WithItem
	Body  []Stmt
}

type WithItem struct {
	ContextExpr  Expr
	OptionalVars Expr
}

type Match struct {
	Pos
	Subject Expr
	Cases   []*MatchCase
}

type MatchCase struct {
	Pattern Pattern
	Guard   Expr
	Body    []Stmt
}

type Raise struct {
	Pos
	Exc   Expr
	Cause Expr
}

// Try also represents try/except* when Star is set.
type Try struct {
	Pos
	Star      bool
	Body      []Stmt
	Handlers  []*ExceptHandler
	Orelse    []Stmt
	Finalbody []Stmt
}

type ExceptHandler struct {
	Pos
	Type Expr
	Name string
	Body []Stmt
}

type Assert struct {
	Pos
	Test Expr
	Msg  Expr
}

type Import struct {
	Pos
	Names []*Alias
}

// ImportFrom records relative imports through Level (number of leading dots).
type ImportFrom struct {
	Pos
	Module string
	Level  int
	Names  []*Alias
}

// Alias is one imported name. Name is "*" for a star import.
type Alias struct {
	Name   string
	AsName string
}

// Bound returns the name the alias binds in the importing scope.
func (a *Alias) Bound() string {
	if a.AsName != "" {
		return a.AsName
	}
	for i := 0; i < len(a.Name); i++ {
		if a.Name[i] == '.' {
			return a.Name[:i]
		}
	}
	return a.Name
}

type Global struct {
	Pos
	Names []string
}

type Nonlocal struct {
	Pos
	Names []string
}

type ExprStmt struct {
	Pos
	Value Expr
}

type Pass struct{ Pos }

type Break struct{ Pos }

type Continue struct{ Pos }

// TypeAlias is the PEP 695 "type X = ..." statement.
type TypeAlias struct {
	Pos
	Name       *Name
	TypeParams []*TypeParam
	Value      Expr
}

// TypeParam is a PEP 695 type parameter.
type TypeParam struct {
	Pos
	Name  string
	Bound Expr
}

// ParamKind is the syntactic kind of a function parameter.
type ParamKind int

const (
	ParamPositional ParamKind = iota
	ParamPositionalOnly
	ParamVarPositional
	ParamKeywordOnly
	ParamVarKeyword
)

// Arguments lists parameters in source order.
type Arguments struct {
	Params []*Arg
}

// Arg is a single parameter with its optional annotation and default.
type Arg struct {
	Pos
	Name       string
	Kind       ParamKind
	Annotation Expr
	Default    Expr
}

// Names returns every parameter name.
func (a *Arguments) Names() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.Params))
	for _, p := range a.Params {
		names = append(names, p.Name)
	}
	return names
}

// =============================================================================
// Expressions
// =============================================================================

type Name struct {
	Pos
	ID  string
	Ctx ExprContext
}

// Constant is any literal that carries no sub-expressions.
type Constant struct {
	Pos
	Kind  string
	Value string
}

// JoinedStr is an f-string; Values holds the interpolated expressions.
type JoinedStr struct {
	Pos
	Values []Expr
}

type Attribute struct {
	Pos
	Value Expr
	Attr  string
	Ctx   ExprContext
}

type Subscript struct {
	Pos
	Value Expr
	Slice Expr
	Ctx   ExprContext
}

type Slice struct {
	Pos
	Lower Expr
	Upper Expr
	Step  Expr
}

// Starred is *value in calls, displays and targets, or **value when Double.
type Starred struct {
	Pos
	Value  Expr
	Double bool
	Ctx    ExprContext
}

type Call struct {
	Pos
	Func     Expr
	Args     []Expr
	Keywords []*Keyword
}

// Keyword is name=value in a call or class header. Arg is empty for **value.
type Keyword struct {
	Arg   string
	Value Expr
}

type BinOp struct {
	Pos
	Left  Expr
	Op    string
	Right Expr
}

type BoolOp struct {
	Pos
	Op     string
	Values []Expr
}

type UnaryOp struct {
	Pos
	Op      string
	Operand Expr
}

type Compare struct {
	Pos
	Left        Expr
	Comparators []Expr
}

type IfExp struct {
	Pos
	Test   Expr
	Body   Expr
	Orelse Expr
}

type Lambda struct {
	Pos
	Args *Arguments
	Body Expr
}

// NamedExpr is the walrus operator.
type NamedExpr struct {
	Pos
	Target *Name
	Value  Expr
}

type Await struct {
	Pos
	Value Expr
}

type Yield struct {
	Pos
	Value Expr
}

type YieldFrom struct {
	Pos
	Value Expr
}

type Tuple struct {
	Pos
	Elts []Expr
	Ctx  ExprContext
}

type List struct {
	Pos
	Elts []Expr
	Ctx  ExprContext
}

type Set struct {
	Pos
	Elts []Expr
}

// Dict stores **mapping entries with a nil key.
type Dict struct {
	Pos
	Keys   []Expr
	Values []Expr
}

type Comprehension struct {
	Target Expr
	Iter   Expr
	Ifs    []Expr
	Async  bool
}

type ListComp struct {
	Pos
	Elt        Expr
	Generators []*Comprehension
}

type SetComp struct {
	Pos
	Elt        Expr
	Generators []*Comprehension
}

type GeneratorExp struct {
	Pos
	Elt        Expr
	Generators []*Comprehension
}

type DictComp struct {
	Pos
	Key        Expr
	Value      Expr
	Generators []*Comprehension
}

// =============================================================================
// Patterns
// =============================================================================

type MatchValue struct {
	Pos
	Value Expr
}

type MatchSingleton struct {
	Pos
	Value string
}

type MatchSequence struct {
	Pos
	Patterns []Pattern
}

type MatchMapping struct {
	Pos
	Keys     []Expr
	Patterns []Pattern
	Rest     string
}

type MatchClass struct {
	Pos
	Cls         Expr
	Patterns    []Pattern
	KwdAttrs    []string
	KwdPatterns []Pattern
}

type MatchStar struct {
	Pos
	Name string
}

// MatchAs is a capture (Pattern nil), a wildcard (both empty), or
// "pattern as name".
type MatchAs struct {
	Pos
	Pattern Pattern
	Name    string
}

type MatchOr struct {
	Pos
	Patterns []Pattern
}

// Position implements Node.
func (p Pos) Position() Pos { return p }

func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Return) stmtNode()      {}
func (*Delete) stmtNode()      {}
func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*AnnAssign) stmtNode()   {}
func (*For) stmtNode()         {}
func (*While) stmtNode()       {}
func (*If) stmtNode()          {}
func (*With) stmtNode()        {}
func (*Match) stmtNode()       {}
func (*Raise) stmtNode()       {}
func (*Try) stmtNode()         {}
func (*Assert) stmtNode()      {}
func (*Import) stmtNode()      {}
func (*ImportFrom) stmtNode()  {}
func (*Global) stmtNode()      {}
func (*Nonlocal) stmtNode()    {}
func (*ExprStmt) stmtNode()    {}
func (*Pass) stmtNode()        {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*TypeAlias) stmtNode()   {}

func (*Name) exprNode()         {}
func (*Constant) exprNode()     {}
func (*JoinedStr) exprNode()    {}
func (*Attribute) exprNode()    {}
func (*Subscript) exprNode()    {}
func (*Slice) exprNode()        {}
func (*Starred) exprNode()      {}
func (*Call) exprNode()         {}
func (*BinOp) exprNode()        {}
func (*BoolOp) exprNode()       {}
func (*UnaryOp) exprNode()      {}
func (*Compare) exprNode()      {}
func (*IfExp) exprNode()        {}
func (*Lambda) exprNode()       {}
func (*NamedExpr) exprNode()    {}
func (*Await) exprNode()        {}
func (*Yield) exprNode()        {}
func (*YieldFrom) exprNode()    {}
func (*Tuple) exprNode()        {}
func (*List) exprNode()         {}
func (*Set) exprNode()          {}
func (*Dict) exprNode()         {}
func (*ListComp) exprNode()     {}
func (*SetComp) exprNode()      {}
func (*GeneratorExp) exprNode() {}
func (*DictComp) exprNode()     {}

func (*MatchValue) patternNode()     {}
func (*MatchSingleton) patternNode() {}
func (*MatchSequence) patternNode()  {}
func (*MatchMapping) patternNode()   {}
func (*MatchClass) patternNode()     {}
func (*MatchStar) patternNode()      {}
func (*MatchAs) patternNode()        {}
func (*MatchOr) patternNode()        {}
