package ast

import "github.com/funvibe/dsema/internal/token"

// Decl is a named declaration.
type Decl interface {
	Node
	Name() string
	declNode()
}

// Block is a declaration that owns members visible to name lookup.
type Block interface {
	Decl
	MemberDecls() []Decl
}

// Module is the root node of a parsed source file and owns the node arena.
type Module struct {
	Base
	ModuleName string // dotted module path, e.g. "std.stdio"
	FilePath   string
	Members    []Decl

	nodes []Node
}

func NewModule(name, file string) *Module {
	m := &Module{ModuleName: name, FilePath: file}
	m.mod = m
	m.id = 0
	m.parent = NoNode
	m.nodes = []Node{m}
	return m
}

func (m *Module) Name() string        { return m.ModuleName }
func (m *Module) declNode()           {}
func (m *Module) MemberDecls() []Decl { return m.Members }
func (m *Module) Children() []Node    { return appendAll(nil, m.Members) }
func (m *Module) NodeCount() int      { return len(m.nodes) }
func (m *Module) Node(id NodeID) Node {
	if id < 0 || int(id) >= len(m.nodes) {
		return nil
	}
	return m.nodes[id]
}

// Finish links every node below the module into its arena.
func (m *Module) Finish() *Module {
	Link(m, m, nil)
	return m
}

// Imports returns the module's top-level import declarations.
func (m *Module) Imports() []*ImportDecl {
	var out []*ImportDecl
	for _, d := range m.Members {
		if imp, ok := d.(*ImportDecl); ok {
			out = append(out, imp)
		}
	}
	return out
}

// ImportDecl is `import a.b;`, `public import a.b;`, `import x = a.b;` or
// `import a.b : c, d;` (Symbols limits what the import makes visible).
type ImportDecl struct {
	Base
	ModuleName string
	Alias      string
	Public     bool
	Static     bool
	Symbols    []string
}

func (d *ImportDecl) Name() string     { return d.Alias }
func (d *ImportDecl) declNode()        {}
func (d *ImportDecl) Children() []Node { return nil }

// VariableDecl covers variables, constants, manifest constants and
// function parameters. Type nil means the type is inferred from Init.
type VariableDecl struct {
	Base
	DeclName    string
	Type        TypeNode
	Init        Expr
	Attributes  []token.TokenType
	IsParameter bool
}

func (d *VariableDecl) Name() string { return d.DeclName }
func (d *VariableDecl) declNode()    {}
func (d *VariableDecl) Children() []Node {
	return appendNodes(nil, d.Type, d.Init)
}

// HasAttribute reports whether attr was written on the declaration.
func (d *VariableDecl) HasAttribute(attr token.TokenType) bool {
	return hasAttribute(d.Attributes, attr)
}

// IsConstant reports compile-time readable storage: const, immutable and
// manifest (enum) constants.
func (d *VariableDecl) IsConstant() bool {
	return d.HasAttribute(token.CONST) || d.HasAttribute(token.IMMUTABLE) || d.HasAttribute(token.ENUM)
}

// AliasDecl is `alias Name = Type;` optionally with template parameters.
type AliasDecl struct {
	Base
	DeclName       string
	Type           TypeNode
	TemplateParams []*TemplateParameter
}

func (d *AliasDecl) Name() string { return d.DeclName }
func (d *AliasDecl) declNode()    {}
func (d *AliasDecl) Children() []Node {
	return appendNodes(appendAll(nil, d.TemplateParams), d.Type)
}

type FunctionKind int

const (
	FunctionNormal FunctionKind = iota
	FunctionConstructor
	FunctionLiteralBody
)

// FunctionDecl is a function or method declaration. ReturnType nil means auto.
type FunctionDecl struct {
	Base
	DeclName       string
	Kind           FunctionKind
	TemplateParams []*TemplateParameter
	Params         []*VariableDecl
	ReturnType     TypeNode
	Body           *BlockStmt
	Attributes     []token.TokenType
	Variadic       bool
}

func (d *FunctionDecl) Name() string { return d.DeclName }
func (d *FunctionDecl) declNode()    {}
func (d *FunctionDecl) Children() []Node {
	out := appendAll(nil, d.TemplateParams)
	out = appendAll(out, d.Params)
	return appendNodes(out, d.ReturnType, d.Body)
}

func (d *FunctionDecl) HasAttribute(attr token.TokenType) bool {
	return hasAttribute(d.Attributes, attr)
}

// IsTemplate reports a function with its own template parameter list.
func (d *FunctionDecl) IsTemplate() bool { return d.TemplateParams != nil }

// RequiredParams counts parameters without default values.
func (d *FunctionDecl) RequiredParams() int {
	n := 0
	for _, p := range d.Params {
		if p.Init == nil {
			n++
		}
	}
	return n
}

type AggregateKind int

const (
	AggregateStruct AggregateKind = iota
	AggregateClass
	AggregateUnion
	AggregateInterface
	AggregateTemplate
	AggregateMixinTemplate
)

func (k AggregateKind) String() string {
	switch k {
	case AggregateStruct:
		return "struct"
	case AggregateClass:
		return "class"
	case AggregateUnion:
		return "union"
	case AggregateInterface:
		return "interface"
	case AggregateTemplate:
		return "template"
	case AggregateMixinTemplate:
		return "mixin template"
	}
	return "aggregate"
}

// AggregateDecl is a struct, class, union, interface or template body.
type AggregateDecl struct {
	Base
	Kind           AggregateKind
	DeclName       string
	TemplateParams []*TemplateParameter
	BaseClasses    []TypeNode
	Members        []Decl
	Attributes     []token.TokenType
}

func (d *AggregateDecl) Name() string        { return d.DeclName }
func (d *AggregateDecl) declNode()           {}
func (d *AggregateDecl) MemberDecls() []Decl { return d.Members }
func (d *AggregateDecl) Children() []Node {
	out := appendAll(nil, d.TemplateParams)
	out = appendAll(out, d.BaseClasses)
	return appendAll(out, d.Members)
}

func (d *AggregateDecl) HasAttribute(attr token.TokenType) bool {
	return hasAttribute(d.Attributes, attr)
}

// IsAbstract reports aggregates that cannot be instantiated with new:
// interfaces, classes declared abstract and classes with abstract methods.
func (d *AggregateDecl) IsAbstract() bool {
	if d.Kind == AggregateInterface || d.HasAttribute(token.ABSTRACT) {
		return true
	}
	for _, m := range d.Members {
		if fn, ok := m.(*FunctionDecl); ok && fn.HasAttribute(token.ABSTRACT) {
			return true
		}
	}
	return false
}

// EnumDecl is a named or anonymous enum.
type EnumDecl struct {
	Base
	DeclName string
	BaseType TypeNode
	Members  []*EnumValueDecl
}

func (d *EnumDecl) Name() string { return d.DeclName }
func (d *EnumDecl) declNode()    {}
func (d *EnumDecl) MemberDecls() []Decl {
	out := make([]Decl, len(d.Members))
	for i, m := range d.Members {
		out[i] = m
	}
	return out
}
func (d *EnumDecl) Children() []Node {
	return appendAll(appendNodes(nil, d.BaseType), d.Members)
}

// EnumValueDecl is one enum member. Init nil means previous value + 1.
type EnumValueDecl struct {
	Base
	DeclName string
	Type     TypeNode
	Init     Expr
}

func (d *EnumValueDecl) Name() string     { return d.DeclName }
func (d *EnumValueDecl) declNode()        {}
func (d *EnumValueDecl) Children() []Node { return appendNodes(nil, d.Type, d.Init) }

type TemplateParameterKind int

const (
	TemplateTypeParameter TemplateParameterKind = iota
	TemplateValueParameter
	TemplateAliasParameter
	TemplateTupleParameter
	TemplateThisParameter
)

// TemplateParameter is one entry of a template parameter list.
type TemplateParameter struct {
	Base
	Kind               TemplateParameterKind
	DeclName           string
	Specialization     TypeNode // T : Spec
	SpecializationExpr Expr     // value parameters: int N : 3
	DefaultType        TypeNode // T = Default
	DefaultExpr        Expr     // int N = 3
	ValueType          TypeNode // int in `int N`
}

func (d *TemplateParameter) Name() string { return d.DeclName }
func (d *TemplateParameter) declNode()    {}
func (d *TemplateParameter) Children() []Node {
	return appendNodes(nil, d.ValueType, d.Specialization, d.SpecializationExpr, d.DefaultType, d.DefaultExpr)
}

// HasDefault reports a parameter that may be omitted.
func (d *TemplateParameter) HasDefault() bool {
	return d.DefaultType != nil || d.DefaultExpr != nil
}

func hasAttribute(attrs []token.TokenType, attr token.TokenType) bool {
	for _, a := range attrs {
		if a == attr {
			return true
		}
	}
	return false
}

func appendAll[T Node](dst []Node, list []T) []Node {
	for _, n := range list {
		dst = appendNodes(dst, n)
	}
	return dst
}
