package ast

import (
	"math/big"

	"github.com/funvibe/dsema/internal/token"
)

// Expr is an expression node.
type Expr interface {
	Node
	expressionNode()
}

// CommaExpr is `a, b, c`.
type CommaExpr struct {
	Base
	List []Expr
}

func (e *CommaExpr) expressionNode()  {}
func (e *CommaExpr) Children() []Node { return appendAll(nil, e.List) }

// AssignExpr is `Left Op Right` for = and the compound assignments.
type AssignExpr struct {
	Base
	Op    token.TokenType
	Left  Expr
	Right Expr
}

func (e *AssignExpr) expressionNode()  {}
func (e *AssignExpr) Children() []Node { return appendNodes(nil, e.Left, e.Right) }

// ConditionalExpr is `Cond ? Then : Else`.
type ConditionalExpr struct {
	Base
	Cond Expr
	Then Expr
	Else Expr
}

func (e *ConditionalExpr) expressionNode()  {}
func (e *ConditionalExpr) Children() []Node { return appendNodes(nil, e.Cond, e.Then, e.Else) }

// Identity and negated membership operators have no single token.
const (
	OpIdentity    token.TokenType = "is"
	OpNotIdentity token.TokenType = "!is"
	OpIn          token.TokenType = "in"
	OpNotIn       token.TokenType = "!in"
)

// BinaryExpr covers every binary operator from || down to ^^.
type BinaryExpr struct {
	Base
	Op    token.TokenType
	Left  Expr
	Right Expr
}

func (e *BinaryExpr) expressionNode()  {}
func (e *BinaryExpr) Children() []Node { return appendNodes(nil, e.Left, e.Right) }

// UnaryExpr is a prefix operator: & * - + ! ~ ++ -- delete.
type UnaryExpr struct {
	Base
	Op token.TokenType
	X  Expr
}

func (e *UnaryExpr) expressionNode()  {}
func (e *UnaryExpr) Children() []Node { return appendNodes(nil, e.X) }

// PostfixIncDecExpr is `X++` or `X--`.
type PostfixIncDecExpr struct {
	Base
	Op token.TokenType
	X  Expr
}

func (e *PostfixIncDecExpr) expressionNode()  {}
func (e *PostfixIncDecExpr) Children() []Node { return appendNodes(nil, e.X) }

// CastExpr is `cast(Type) X` or a qualifier-only cast such as `cast(const) X`.
type CastExpr struct {
	Base
	Type      TypeNode
	Modifiers []token.TokenType
	X         Expr
}

func (e *CastExpr) expressionNode()  {}
func (e *CastExpr) Children() []Node { return appendNodes(nil, e.Type, e.X) }

// NewExpr is `new Type(Args)`.
type NewExpr struct {
	Base
	Type TypeNode
	Args []Expr
}

func (e *NewExpr) expressionNode()  {}
func (e *NewExpr) Children() []Node { return appendAll(appendNodes(nil, e.Type), e.Args) }

// MemberAccessExpr is `X.Name` or `X.Name!(TemplateArgs)`.
type MemberAccessExpr struct {
	Base
	X               Expr
	Name            string
	TemplateArgs    []Node
	HasTemplateArgs bool
}

func (e *MemberAccessExpr) expressionNode() {}
func (e *MemberAccessExpr) Children() []Node {
	return appendAll(appendNodes(nil, e.X), e.TemplateArgs)
}

// CallExpr is `Fun(Args)`.
type CallExpr struct {
	Base
	Fun  Expr
	Args []Expr
}

func (e *CallExpr) expressionNode()  {}
func (e *CallExpr) Children() []Node { return appendAll(appendNodes(nil, e.Fun), e.Args) }

// IndexExpr is `X[Args]`.
type IndexExpr struct {
	Base
	X    Expr
	Args []Expr
}

func (e *IndexExpr) expressionNode()  {}
func (e *IndexExpr) Children() []Node { return appendAll(appendNodes(nil, e.X), e.Args) }

// SliceExpr is `X[Lower .. Upper]` or `X[]` when both bounds are nil.
type SliceExpr struct {
	Base
	X     Expr
	Lower Expr
	Upper Expr
}

func (e *SliceExpr) expressionNode()  {}
func (e *SliceExpr) Children() []Node { return appendNodes(nil, e.X, e.Lower, e.Upper) }

// Identifier is a plain name; ModuleScoped marks `.name`.
type Identifier struct {
	Base
	Name         string
	ModuleScoped bool
}

func (e *Identifier) expressionNode()  {}
func (e *Identifier) Children() []Node { return nil }

// TemplateInstanceExpr is `Name!(Args)` in expression position.
type TemplateInstanceExpr struct {
	Base
	Name string
	Args []Node
}

func (e *TemplateInstanceExpr) expressionNode()  {}
func (e *TemplateInstanceExpr) Children() []Node { return appendAll(nil, e.Args) }

type LiteralKind int

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralChar
	LiteralString
	LiteralTrue
	LiteralFalse
	LiteralNull
)

// LiteralFormat records suffixes and spellings that decide a literal's type.
type LiteralFormat int

const (
	FormatImaginary LiteralFormat = 1 << iota
	FormatLong
	FormatUnsigned
	FormatFloatSuffix
	FormatNonDecimal
)

// Literal is a numeric, character, string, boolean or null literal.
type Literal struct {
	Base
	Kind       LiteralKind
	Text       string
	Int        *big.Int
	Float      float64
	Char       rune
	Str        string
	Format     LiteralFormat
	StringKind token.TokenType // char, wchar or dchar element kind for strings
}

func (e *Literal) expressionNode()  {}
func (e *Literal) Children() []Node { return nil }

func (e *Literal) Has(f LiteralFormat) bool { return e.Format&f != 0 }

// ArrayLiteral is `[a, b, c]`.
type ArrayLiteral struct {
	Base
	Elements []Expr
}

func (e *ArrayLiteral) expressionNode()  {}
func (e *ArrayLiteral) Children() []Node { return appendAll(nil, e.Elements) }

// AssocArrayLiteral is `[k1: v1, k2: v2]`.
type AssocArrayLiteral struct {
	Base
	Keys   []Expr
	Values []Expr
}

func (e *AssocArrayLiteral) expressionNode() {}
func (e *AssocArrayLiteral) Children() []Node {
	out := make([]Node, 0, 2*len(e.Keys))
	for i := range e.Keys {
		out = appendNodes(out, e.Keys[i], e.Values[i])
	}
	return out
}

// FunctionLiteral is `function int(int a) { ... }`, `delegate ...` or
// `(a) => a + 1`.
type FunctionLiteral struct {
	Base
	Func       *FunctionDecl
	IsFunction bool
}

func (e *FunctionLiteral) expressionNode()  {}
func (e *FunctionLiteral) Children() []Node { return appendNodes(nil, e.Func) }

// DollarExpr is `$` inside an index or slice.
type DollarExpr struct {
	Base
}

func (e *DollarExpr) expressionNode()  {}
func (e *DollarExpr) Children() []Node { return nil }

// ThisExpr is `this`; Super marks `super`.
type ThisExpr struct {
	Base
	Super bool
}

func (e *ThisExpr) expressionNode()  {}
func (e *ThisExpr) Children() []Node { return nil }

// TypeExpr is a type used in expression position: `int.max`, `int(3)`.
type TypeExpr struct {
	Base
	Type TypeNode
}

func (e *TypeExpr) expressionNode()  {}
func (e *TypeExpr) Children() []Node { return appendNodes(nil, e.Type) }

// IsExpr is `is(Type)`, `is(Type == Spec)`, `is(Type Alias : Spec, Params)`.
type IsExpr struct {
	Base
	Type      TypeNode
	AliasName string
	Equality  bool            // == rather than :
	SpecType  TypeNode        // type specialization
	SpecToken token.TokenType // keyword specialization: struct, class, const...
	Params    []*TemplateParameter
}

func (e *IsExpr) expressionNode() {}
func (e *IsExpr) Children() []Node {
	return appendAll(appendNodes(nil, e.Type, e.SpecType), e.Params)
}

// HasSpecialization reports `is(T == ...)` / `is(T : ...)` forms.
func (e *IsExpr) HasSpecialization() bool { return e.SpecType != nil || e.SpecToken != "" }

// AssertExpr is `assert(cond)` or `assert(cond, message)`.
type AssertExpr struct {
	Base
	Args []Expr
}

func (e *AssertExpr) expressionNode()  {}
func (e *AssertExpr) Children() []Node { return appendAll(nil, e.Args) }

// MixinExpr is `mixin(X)`.
type MixinExpr struct {
	Base
	X Expr
}

func (e *MixinExpr) expressionNode()  {}
func (e *MixinExpr) Children() []Node { return appendNodes(nil, e.X) }

// ImportExpr is `import(X)`, the string import.
type ImportExpr struct {
	Base
	X Expr
}

func (e *ImportExpr) expressionNode()  {}
func (e *ImportExpr) Children() []Node { return appendNodes(nil, e.X) }
