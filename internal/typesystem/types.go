package typesystem

import (
	"sort"
	"strings"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/prettyprinter"
	"github.com/funvibe/dsema/internal/token"
)

// Type is the interface for all symbol types. The set of implementations is
// closed: every case is declared in this package.
type Type interface {
	String() string
	// Node is the AST node the type was resolved from, nil for synthesized types.
	Node() ast.Node
	// Modifiers lists const/immutable/shared/inout layered on the type.
	Modifiers() []token.TokenType
	symbolType()
}

// Constant is a compile-time value that can be bound to a value template
// parameter or carried by a static property. Symbol values implement it.
type Constant interface {
	SymbolType() Type
	Inspect() string
}

// Base carries the data shared by every variant.
type Base struct {
	Origin ast.Node
	Mods   []token.TokenType
}

func (b *Base) Node() ast.Node               { return b.Origin }
func (b *Base) Modifiers() []token.TokenType { return b.Mods }
func (b *Base) symbolType()                  {}

func (b *Base) HasModifier(m token.TokenType) bool {
	for _, x := range b.Mods {
		if x == m {
			return true
		}
	}
	return false
}

// wrapModifiers renders `const(int)` style prefixes.
func (b *Base) wrapModifiers(s string) string {
	for i := len(b.Mods) - 1; i >= 0; i-- {
		s = string(b.Mods[i]) + "(" + s + ")"
	}
	return s
}

// Primitive is one of the basic scalar kinds.
type Primitive struct {
	Base
	Kind token.TokenType
}

func NewPrimitive(kind token.TokenType) *Primitive { return &Primitive{Kind: kind} }

func (t *Primitive) String() string { return t.wrapModifiers(string(t.Kind)) }

func (t *Primitive) IsIntegral() bool  { return token.IsIntegral(t.Kind) }
func (t *Primitive) IsUnsigned() bool  { return token.IsUnsigned(t.Kind) }
func (t *Primitive) IsFloating() bool  { return token.IsFloating(t.Kind) }
func (t *Primitive) IsImaginary() bool { return token.IsImaginary(t.Kind) }
func (t *Primitive) IsComplex() bool   { return token.IsComplex(t.Kind) }
func (t *Primitive) IsChar() bool      { return token.IsChar(t.Kind) }
func (t *Primitive) IsBool() bool      { return t.Kind == token.BOOL }
func (t *Primitive) IsVoid() bool      { return t.Kind == token.VOID }

// Pointer is `Elem*`. Elem nil is the type of the null literal.
type Pointer struct {
	Base
	Elem Type
}

func (t *Pointer) String() string {
	if t.Elem == nil {
		return t.wrapModifiers("typeof(null)")
	}
	return t.wrapModifiers(t.Elem.String() + "*")
}

// IsNull reports the type of the null literal.
func (t *Pointer) IsNull() bool { return t.Elem == nil }

// Array is `Elem[]`, or `Elem[Length]` when Static is set.
type Array struct {
	Base
	Elem   Type
	Static bool
	Length int
}

func (t *Array) String() string {
	if t.Static {
		return t.wrapModifiers(t.Elem.String() + "[" + itoa(t.Length) + "]")
	}
	if p, ok := t.Elem.(*Primitive); ok && p.IsChar() && p.HasModifier(token.IMMUTABLE) && len(t.Mods) == 0 {
		switch p.Kind {
		case token.CHAR_KW:
			return "string"
		case token.WCHAR:
			return "wstring"
		case token.DCHAR:
			return "dstring"
		}
	}
	return t.wrapModifiers(t.Elem.String() + "[]")
}

// IsString reports an array of a character kind.
func (t *Array) IsString() bool {
	p, ok := t.Elem.(*Primitive)
	return ok && p.IsChar()
}

// AssocArray is `Value[Key]`.
type AssocArray struct {
	Base
	Key   Type
	Value Type
}

func (t *AssocArray) String() string {
	return t.wrapModifiers(t.Value.String() + "[" + t.Key.String() + "]")
}

// Parameter is one parameter of a Delegate.
type Parameter struct {
	Name       string
	Type       Type
	HasDefault bool
}

// Delegate is a function or delegate type. Decl is set when the type comes
// from a function literal.
type Delegate struct {
	Base
	Params     []Parameter
	Return     Type
	IsFunction bool
	Variadic   bool
	Decl       *ast.FunctionDecl
}

func (t *Delegate) String() string {
	var sb strings.Builder
	if t.Return != nil {
		sb.WriteString(t.Return.String())
	} else {
		sb.WriteString("auto")
	}
	if t.IsFunction {
		sb.WriteString(" function(")
	} else {
		sb.WriteString(" delegate(")
	}
	writeParams(&sb, t.Params, t.Variadic)
	sb.WriteString(")")
	return t.wrapModifiers(sb.String())
}

// IsLiteral reports a delegate produced by a function literal.
func (t *Delegate) IsLiteral() bool { return t.Decl != nil }

func writeParams(sb *strings.Builder, params []Parameter, variadic bool) {
	for i, p := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if p.Type != nil {
			sb.WriteString(p.Type.String())
		}
		if p.Name != "" {
			if p.Type != nil {
				sb.WriteString(" ")
			}
			sb.WriteString(p.Name)
		}
	}
	if variadic {
		sb.WriteString("...")
	}
}

// DeducedParams maps template parameter names to their bindings.
type DeducedParams map[string]*TemplateParameterSymbol

func (d DeducedParams) Clone() DeducedParams {
	if d == nil {
		return nil
	}
	out := make(DeducedParams, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Complete reports whether every parameter has a binding.
func (d DeducedParams) Complete() bool {
	for _, v := range d {
		if !v.Bound() {
			return false
		}
	}
	return true
}

func (d DeducedParams) String() string {
	names := make([]string, 0, len(d))
	for k := range d {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, d[n].String())
	}
	return strings.Join(parts, ", ")
}

// Member is a variable, parameter or enum value, with Base its declared type.
type Member struct {
	Base
	Decl    ast.Decl
	Type    Type
	Deduced DeducedParams
}

func (t *Member) String() string {
	if t.Type == nil {
		return t.Decl.Name()
	}
	return t.Type.String() + " " + t.Decl.Name()
}

// Method is a function declaration; Return is nil until inferred for auto
// functions.
type Method struct {
	Base
	Decl    *ast.FunctionDecl
	Params  []Parameter
	Return  Type
	Deduced DeducedParams
}

func (t *Method) String() string {
	var sb strings.Builder
	if t.Decl.Kind != ast.FunctionConstructor {
		if t.Return != nil {
			sb.WriteString(t.Return.String())
		} else {
			sb.WriteString("auto")
		}
		sb.WriteString(" ")
	}
	sb.WriteString(t.Decl.Name())
	if len(t.Deduced) > 0 {
		sb.WriteString("!(" + t.Deduced.String() + ")")
	}
	sb.WriteString("(")
	writeParams(&sb, t.Params, t.Decl.Variadic)
	sb.WriteString(")")
	return sb.String()
}

// Aggregate is a struct, class, union, interface or template (instance).
type Aggregate struct {
	Base
	Decl        *ast.AggregateDecl
	BaseClasses []Type
	Deduced     DeducedParams
}

func (t *Aggregate) Kind() ast.AggregateKind { return t.Decl.Kind }

func (t *Aggregate) String() string {
	name := t.Decl.Name()
	if len(t.Deduced) > 0 {
		name += "!(" + t.Deduced.String() + ")"
	}
	return t.wrapModifiers(name)
}

// Enum is a named enum; Base is its base type (int when omitted).
type Enum struct {
	Base
	Decl     *ast.EnumDecl
	BaseType Type
}

func (t *Enum) String() string { return t.wrapModifiers(t.Decl.Name()) }

// Module is a parsed module used as a scope.
type Module struct {
	Base
	Mod *ast.Module
}

func (t *Module) String() string { return "module " + t.Mod.Name() }

// Package is a dotted prefix of module names: `std` for `std.stdio`.
type Package struct {
	Base
	Path string
}

func (t *Package) String() string { return "package " + t.Path }

// Alias wraps the type an alias declaration stands for.
type Alias struct {
	Base
	Decl    *ast.AliasDecl
	Target  Type
	Deduced DeducedParams
}

func (t *Alias) String() string {
	switch {
	case t.Decl != nil:
		return t.wrapModifiers(t.Decl.Name())
	case t.Target != nil:
		return t.wrapModifiers(t.Target.String())
	}
	return "alias"
}

// Tuple is an ordered list of types, produced by tuple template parameters.
type Tuple struct {
	Base
	Elems []Type
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// TemplateParameterSymbol is a template parameter, bound to a type and/or a
// value once deduced.
type TemplateParameterSymbol struct {
	Base
	Param *ast.TemplateParameter
	Bind  Type
	Value Constant
}

func (t *TemplateParameterSymbol) Name() string { return t.Param.Name() }

// Bound reports whether deduction assigned a type or value.
func (t *TemplateParameterSymbol) Bound() bool { return t.Bind != nil || t.Value != nil }

func (t *TemplateParameterSymbol) String() string {
	switch {
	case t.Value != nil:
		return t.Name() + " = " + t.Value.Inspect()
	case t.Bind != nil:
		return t.Name() + " = " + t.Bind.String()
	}
	return t.Name()
}

// StaticProperty is a synthesized pseudo-member such as `.sizeof`. Type is
// the property's own type; Value, when set, is its compile-time value.
type StaticProperty struct {
	Base
	Name  string
	Owner Type
	Type  Type
	Value Constant
}

func (t *StaticProperty) String() string {
	if t.Owner != nil {
		return t.Owner.String() + "." + t.Name
	}
	return t.Name
}

// DeclNode returns the declaration a symbol type refers to, if any.
func DeclNode(t Type) ast.Decl {
	switch t := t.(type) {
	case *Member:
		return t.Decl
	case *Method:
		return t.Decl
	case *Aggregate:
		return t.Decl
	case *Enum:
		return t.Decl
	case *Alias:
		if t.Decl != nil {
			return t.Decl
		}
	case *Module:
		return t.Mod
	case *TemplateParameterSymbol:
		return t.Param
	}
	return nil
}

// Name returns the declared name of t, or its rendering for structural types.
func Name(t Type) string {
	if d := DeclNode(t); d != nil {
		return d.Name()
	}
	if sp, ok := t.(*StaticProperty); ok {
		return sp.Name
	}
	if t == nil {
		return ""
	}
	return t.String()
}

// DescribeNode renders the originating node of t for diagnostics.
func DescribeNode(t Type) string {
	if t == nil || t.Node() == nil {
		return ""
	}
	return prettyprinter.Print(t.Node())
}

// WithModifiers returns a shallow copy of t carrying mods in addition to its
// own modifiers.
func WithModifiers(t Type, mods ...token.TokenType) Type {
	if len(mods) == 0 || t == nil {
		return t
	}
	add := func(b Base) Base {
		out := b
		out.Mods = append(append([]token.TokenType(nil), b.Mods...), missing(b.Mods, mods)...)
		return out
	}
	switch t := t.(type) {
	case *Primitive:
		c := *t
		c.Base = add(t.Base)
		return &c
	case *Pointer:
		c := *t
		c.Base = add(t.Base)
		return &c
	case *Array:
		c := *t
		c.Base = add(t.Base)
		return &c
	case *AssocArray:
		c := *t
		c.Base = add(t.Base)
		return &c
	case *Delegate:
		c := *t
		c.Base = add(t.Base)
		return &c
	case *Aggregate:
		c := *t
		c.Base = add(t.Base)
		return &c
	case *Enum:
		c := *t
		c.Base = add(t.Base)
		return &c
	case *TemplateParameterSymbol:
		c := *t
		c.Base = add(t.Base)
		return &c
	case *Alias:
		c := *t
		c.Base = add(t.Base)
		return &c
	}
	return t
}

// WithoutModifiers returns t with its own modifiers removed.
func WithoutModifiers(t Type) Type {
	if t == nil || len(t.Modifiers()) == 0 {
		return t
	}
	switch t := t.(type) {
	case *Primitive:
		c := *t
		c.Mods = nil
		return &c
	case *Pointer:
		c := *t
		c.Mods = nil
		return &c
	case *Array:
		c := *t
		c.Mods = nil
		return &c
	case *AssocArray:
		c := *t
		c.Mods = nil
		return &c
	case *Delegate:
		c := *t
		c.Mods = nil
		return &c
	case *Aggregate:
		c := *t
		c.Mods = nil
		return &c
	case *Enum:
		c := *t
		c.Mods = nil
		return &c
	case *TemplateParameterSymbol:
		c := *t
		c.Mods = nil
		return &c
	case *Alias:
		c := *t
		c.Mods = nil
		return &c
	}
	return t
}

func missing(have, add []token.TokenType) []token.TokenType {
	var out []token.TokenType
	for _, m := range add {
		found := false
		for _, h := range have {
			if h == m {
				found = true
				break
			}
		}
		if !found {
			out = append(out, m)
		}
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
