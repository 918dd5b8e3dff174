package ast

import "github.com/funvibe/dsema/internal/token"

// TypeNode is a type declaration as written in source.
type TypeNode interface {
	Node
	typeNode()
}

// IdentifierType is a (possibly qualified) type name. For `a.b.C` the node
// names C and Inner holds `a.b`.
type IdentifierType struct {
	Base
	Name         string
	Inner        TypeNode
	ModuleScoped bool // leading dot: `.Name`
}

func (t *IdentifierType) typeNode()        {}
func (t *IdentifierType) Children() []Node { return appendNodes(nil, t.Inner) }

// TemplateInstanceType is `Name!(Args)`; each arg is a TypeNode or an Expr.
type TemplateInstanceType struct {
	Base
	Name  string
	Inner TypeNode
	Args  []Node
}

func (t *TemplateInstanceType) typeNode() {}
func (t *TemplateInstanceType) Children() []Node {
	return appendAll(appendNodes(nil, t.Inner), t.Args)
}

// PrimitiveType is one of the basic type keywords.
type PrimitiveType struct {
	Base
	Kind token.TokenType
}

func (t *PrimitiveType) typeNode()        {}
func (t *PrimitiveType) Children() []Node { return nil }

// PointerType is `Base*`.
type PointerType struct {
	Base
	Elem TypeNode
}

func (t *PointerType) typeNode()        {}
func (t *PointerType) Children() []Node { return appendNodes(nil, t.Elem) }

// ArrayType is `Elem[]`, `Elem[N]` (KeyExpr) or `Elem[Key]` (KeyType, an
// associative array).
type ArrayType struct {
	Base
	Elem    TypeNode
	KeyType TypeNode
	KeyExpr Expr
}

func (t *ArrayType) typeNode()        {}
func (t *ArrayType) Children() []Node { return appendNodes(nil, t.Elem, t.KeyType, t.KeyExpr) }

// IsAssociative reports `V[K]`.
func (t *ArrayType) IsAssociative() bool { return t.KeyType != nil }

// IsStatic reports `V[N]`.
func (t *ArrayType) IsStatic() bool { return t.KeyExpr != nil }

// DelegateType is `Ret delegate(Params)` or `Ret function(Params)`.
type DelegateType struct {
	Base
	Return     TypeNode
	Params     []*VariableDecl
	IsFunction bool
}

func (t *DelegateType) typeNode() {}
func (t *DelegateType) Children() []Node {
	return appendAll(appendNodes(nil, t.Return), t.Params)
}

// TypeofType is `typeof(X)`.
type TypeofType struct {
	Base
	X Expr
}

func (t *TypeofType) typeNode()        {}
func (t *TypeofType) Children() []Node { return appendNodes(nil, t.X) }

// ModifiedType is `const(T)`, `immutable(T)`, `shared(T)` or `inout(T)`.
type ModifiedType struct {
	Base
	Modifier token.TokenType
	Elem     TypeNode
}

func (t *ModifiedType) typeNode()        {}
func (t *ModifiedType) Children() []Node { return appendNodes(nil, t.Elem) }
