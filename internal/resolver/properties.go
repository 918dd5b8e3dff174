package resolver

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/config"
	"github.com/funvibe/dsema/internal/token"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
)

// StaticProperty synthesizes the pseudo-member name of receiver. The common
// properties exist for every type and variable; the rest depend on the kind
// of type. Modules, packages and unresolved symbols have none.
func (c *Context) StaticProperty(receiver typesystem.Type, name string) (*typesystem.StaticProperty, bool) {
	typ := typesystem.Underlying(receiver)
	if typ == nil {
		return nil, false
	}
	switch typ.(type) {
	case *typesystem.Module, *typesystem.Package:
		return nil, false
	}
	sp := &typesystem.StaticProperty{Base: typesystem.Base{Origin: receiver.Node()}, Name: name, Owner: receiver}
	intType := typesystem.NewPrimitive(token.INT_KW)

	switch name {
	case config.InitProperty:
		c.initProperty(sp, receiver, typ)

	case config.SizeofProperty:
		sp.Type = intType
		sp.Value = values.NewInt(int64(c.SizeOf(typ)))

	case config.AlignofProperty:
		sp.Type = intType
		sp.Value = values.NewInt(int64(c.AlignOf(typ)))

	case config.MangleofProperty:
		str := c.StringType(token.CHAR_KW)
		sp.Type = str
		sp.Value = values.NewString(Mangle(typ), str)

	case config.StringofProperty:
		str := c.StringType(token.CHAR_KW)
		sp.Type = str
		text := typ.String()
		if m, ok := typesystem.MustStrip(receiver).(*typesystem.Member); ok {
			text = m.Decl.Name()
		}
		sp.Value = values.NewString(text, str)

	case config.ClassinfoProperty:
		agg, ok := typ.(*typesystem.Aggregate)
		if !ok || !isReference(agg) {
			return nil, false
		}
		info := c.rootAggregate("TypeInfo_Class")
		if info == nil {
			return nil, false
		}
		sp.Type = info

	default:
		if !c.kindProperty(sp, typ) {
			return nil, false
		}
	}
	return sp, true
}

// initProperty types .init: a variable's initializer when it has one, else
// the default value of the type.
func (c *Context) initProperty(sp *typesystem.StaticProperty, receiver, typ typesystem.Type) {
	sp.Type = typ
	if m, ok := typesystem.MustStrip(receiver).(*typesystem.Member); ok {
		if v, ok := m.Decl.(*ast.VariableDecl); ok {
			if v.Init == nil || c.Evaluator == nil {
				return
			}
			if val, err := c.Evaluator.ValueOf(c, v.Init); err == nil {
				sp.Value = val
			}
			return
		}
	}
	if e, ok := typ.(*typesystem.Enum); ok && len(e.Decl.Members) > 0 && c.Evaluator != nil {
		if head := e.Decl.Members[0]; head.Init != nil {
			if val, err := c.Evaluator.ValueOf(c, head.Init); err == nil {
				sp.Value = val
			}
			return
		}
	}
	if v := c.DefaultValue(typ); v != nil {
		sp.Value = v
	}
}

// DefaultValue is the value a variable of type t holds without an
// initializer. Structs and other aggregates by value have no single
// constant and yield nil.
func (c *Context) DefaultValue(t typesystem.Type) values.Value {
	switch x := typesystem.Underlying(t).(type) {
	case *typesystem.Primitive:
		if v := primitiveInit(x); v != nil {
			return v
		}
	case *typesystem.Pointer, *typesystem.AssocArray, *typesystem.Delegate:
		return &values.Null{}
	case *typesystem.Aggregate:
		if isReference(x) {
			return &values.Null{}
		}
	case *typesystem.Enum:
		if p, ok := typesystem.Underlying(x.BaseType).(*typesystem.Primitive); ok {
			if v := primitiveInit(p); v != nil {
				return v.WithType(x)
			}
		}
	case *typesystem.Array:
		if !x.Static {
			if x.IsString() {
				return values.NewString("", x)
			}
			return values.NewArray(x, nil)
		}
		elems := make([]values.Value, x.Length)
		for i := range elems {
			if elems[i] = c.DefaultValue(x.Elem); elems[i] == nil {
				return nil
			}
		}
		return values.NewArray(x, elems)
	}
	return nil
}

func primitiveInit(p *typesystem.Primitive) *values.Primitive {
	switch {
	case p.IsVoid():
		return nil
	case p.Kind == token.CHAR_KW:
		return values.NewChar(p.Kind, 0xFF)
	case p.Kind == token.WCHAR || p.Kind == token.DCHAR:
		return values.NewChar(p.Kind, 0xFFFF)
	case p.IsIntegral():
		return values.NewIntegral(p.Kind, big.NewInt(0))
	}
	return values.NewFloating(p.Kind, math.NaN(), math.NaN())
}

// kindProperty handles the properties that only some kinds of types have.
func (c *Context) kindProperty(sp *typesystem.StaticProperty, typ typesystem.Type) bool {
	switch t := typ.(type) {
	case *typesystem.Primitive:
		if t.IsIntegral() {
			return integralProperty(sp, t)
		}
		if t.IsFloating() {
			return floatingProperty(sp, t)
		}

	case *typesystem.Enum:
		if sp.Name == config.MinProperty || sp.Name == config.MaxProperty {
			sp.Type = t
			return true
		}

	case *typesystem.Array:
		switch sp.Name {
		case config.LengthProperty:
			sp.Type = c.SizeT()
			if t.Static {
				if p, ok := sp.Type.(*typesystem.Primitive); ok {
					sp.Value = values.NewIntegral(p.Kind, big.NewInt(int64(t.Length)))
				}
			}
		case config.PtrProperty:
			sp.Type = &typesystem.Pointer{Elem: t.Elem}
		case config.DupProperty:
			sp.Type = &typesystem.Array{Elem: typesystem.WithoutModifiers(t.Elem)}
		case config.IdupProperty:
			sp.Type = &typesystem.Array{Elem: typesystem.WithModifiers(typesystem.WithoutModifiers(t.Elem), token.IMMUTABLE)}
		default:
			return false
		}
		return true

	case *typesystem.AssocArray:
		switch sp.Name {
		case config.LengthProperty:
			sp.Type = c.SizeT()
		case config.KeysProperty:
			sp.Type = &typesystem.Array{Elem: t.Key}
		case config.ValuesProperty:
			sp.Type = &typesystem.Array{Elem: t.Value}
		default:
			return false
		}
		return true
	}
	return false
}

func integralProperty(sp *typesystem.StaticProperty, t *typesystem.Primitive) bool {
	plain := typesystem.NewPrimitive(t.Kind)
	switch sp.Name {
	case config.MinProperty:
		sp.Type, sp.Value = plain, values.MinOf(t.Kind)
	case config.MaxProperty:
		sp.Type, sp.Value = plain, values.MaxOf(t.Kind)
	default:
		return false
	}
	return true
}

// floatTraits holds the integral properties of the three precisions. The
// 80-bit real reports its own traits; its values are computed in float64.
type floatTraits struct {
	dig, mantDig, maxExp, minExp, max10Exp, min10Exp int
	max, epsilon, minNormal                          float64
}

var floatTraitsByRank = [3]floatTraits{
	{6, 24, 128, -125, 38, -37, math.MaxFloat32, 0x1p-23, 0x1p-126},
	{15, 53, 1024, -1021, 308, -307, math.MaxFloat64, 0x1p-52, 0x1p-1022},
	{18, 64, 16384, -16381, 4932, -4931, math.MaxFloat64, 0x1p-63, 0x1p-1022},
}

func floatRank(kind token.TokenType) int {
	switch kind {
	case token.FLOAT_KW, token.IFLOAT, token.CFLOAT:
		return 0
	case token.DOUBLE, token.IDOUBLE, token.CDOUBLE:
		return 1
	}
	return 2
}

var realOfRank = [3]token.TokenType{token.FLOAT_KW, token.DOUBLE, token.REAL}

func floatingProperty(sp *typesystem.StaticProperty, t *typesystem.Primitive) bool {
	rank := floatRank(t.Kind)
	traits := floatTraitsByRank[rank]
	plain := typesystem.NewPrimitive(t.Kind)
	intType := typesystem.NewPrimitive(token.INT_KW)
	scalar := func(f float64) *values.Primitive {
		if t.IsImaginary() {
			return values.NewFloating(t.Kind, 0, f)
		}
		return values.NewFloating(t.Kind, f, 0)
	}
	integer := func(n int) {
		sp.Type, sp.Value = intType, values.NewInt(int64(n))
	}

	switch sp.Name {
	case config.NanProperty:
		sp.Type, sp.Value = plain, values.NewFloating(t.Kind, math.NaN(), math.NaN())
	case config.InfinityProperty:
		sp.Type, sp.Value = plain, scalar(math.Inf(1))
	case config.EpsilonProperty:
		sp.Type, sp.Value = plain, scalar(traits.epsilon)
	case config.MaxProperty:
		sp.Type, sp.Value = plain, scalar(traits.max)
	case config.MinNormalProperty, config.MinProperty:
		sp.Type, sp.Value = plain, scalar(traits.minNormal)
	case config.DigProperty:
		integer(traits.dig)
	case config.MantDigProperty:
		integer(traits.mantDig)
	case config.MaxExpProperty:
		integer(traits.maxExp)
	case config.MinExpProperty:
		integer(traits.minExp)
	case config.Max10ExpProperty:
		integer(traits.max10Exp)
	case config.Min10ExpProperty:
		integer(traits.min10Exp)
	case config.ReProperty, config.ImProperty:
		sp.Type = typesystem.NewPrimitive(realOfRank[rank])
	default:
		return false
	}
	return true
}

// rootAggregate finds a class or struct declared in the root module.
func (c *Context) rootAggregate(name string) *typesystem.Aggregate {
	root := c.RootModuleAST()
	if root == nil {
		return nil
	}
	for _, d := range matching(root.Members, name) {
		if agg, ok := d.(*ast.AggregateDecl); ok {
			return c.SymbolOf(agg).(*typesystem.Aggregate)
		}
	}
	return nil
}

const pointerSize = 8

// SizeOf is the byte size of a value of type t.
func (c *Context) SizeOf(t typesystem.Type) int {
	return c.sizeOf(typesystem.Underlying(t), 0)
}

func (c *Context) sizeOf(t typesystem.Type, depth int) int {
	if depth > 32 {
		return 0
	}
	switch x := t.(type) {
	case *typesystem.Primitive:
		return token.SizeOf(x.Kind)
	case *typesystem.Pointer, *typesystem.AssocArray, *typesystem.Method:
		return pointerSize
	case *typesystem.Delegate:
		if x.IsFunction {
			return pointerSize
		}
		return 2 * pointerSize
	case *typesystem.Array:
		if x.Static {
			return x.Length * c.sizeOf(typesystem.Underlying(x.Elem), depth+1)
		}
		return 2 * pointerSize
	case *typesystem.Enum:
		return c.sizeOf(typesystem.Underlying(x.BaseType), depth+1)
	case *typesystem.Tuple:
		n := 0
		for _, e := range x.Elems {
			n += c.sizeOf(typesystem.Underlying(e), depth+1)
		}
		return n
	case *typesystem.Aggregate:
		switch x.Kind() {
		case ast.AggregateClass, ast.AggregateInterface:
			return pointerSize
		case ast.AggregateUnion:
			n := 0
			for _, f := range c.Fields(x) {
				n = max(n, c.sizeOf(typesystem.Underlying(f.Type), depth+1))
			}
			return max(n, 1)
		case ast.AggregateStruct:
			off, align := 0, 1
			for _, f := range c.Fields(x) {
				ft := typesystem.Underlying(f.Type)
				a := c.alignOf(ft, depth+1)
				off = roundUp(off, a) + c.sizeOf(ft, depth+1)
				align = max(align, a)
			}
			return max(roundUp(off, align), 1)
		}
	}
	return 0
}

// AlignOf is the alignment of a value of type t.
func (c *Context) AlignOf(t typesystem.Type) int {
	return c.alignOf(typesystem.Underlying(t), 0)
}

func (c *Context) alignOf(t typesystem.Type, depth int) int {
	if depth > 32 {
		return 1
	}
	switch x := t.(type) {
	case *typesystem.Primitive:
		n := token.SizeOf(x.Kind)
		if x.IsComplex() {
			n /= 2
		}
		return max(n, 1)
	case *typesystem.Array:
		if x.Static {
			return c.alignOf(typesystem.Underlying(x.Elem), depth+1)
		}
		return pointerSize
	case *typesystem.Enum:
		return c.alignOf(typesystem.Underlying(x.BaseType), depth+1)
	case *typesystem.Aggregate:
		if isReference(x) {
			return pointerSize
		}
		a := 1
		for _, f := range c.Fields(x) {
			a = max(a, c.alignOf(typesystem.Underlying(f.Type), depth+1))
		}
		return a
	case *typesystem.Tuple:
		a := 1
		for _, e := range x.Elems {
			a = max(a, c.alignOf(typesystem.Underlying(e), depth+1))
		}
		return a
	case nil:
		return 1
	}
	return pointerSize
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

var mangledPrimitives = map[token.TokenType]string{
	token.VOID: "v", token.BOOL: "b", token.BYTE: "g", token.UBYTE: "h",
	token.SHORT: "s", token.USHORT: "t", token.INT_KW: "i", token.UINT: "k",
	token.LONG: "l", token.ULONG: "m", token.CENT: "zi", token.UCENT: "zk",
	token.FLOAT_KW: "f", token.DOUBLE: "d", token.REAL: "e",
	token.IFLOAT: "o", token.IDOUBLE: "p", token.IREAL: "j",
	token.CFLOAT: "q", token.CDOUBLE: "r", token.CREAL: "c",
	token.CHAR_KW: "a", token.WCHAR: "u", token.DCHAR: "w",
}

// Mangle renders t in the language's ABI mangling.
func Mangle(t typesystem.Type) string {
	var sb strings.Builder
	mangle(&sb, t, 0)
	return sb.String()
}

func mangle(sb *strings.Builder, t typesystem.Type, depth int) {
	t = typesystem.MustStrip(t)
	if t == nil || depth > 32 {
		return
	}
	for _, m := range t.Modifiers() {
		switch m {
		case token.CONST:
			sb.WriteString("x")
		case token.IMMUTABLE:
			sb.WriteString("y")
		case token.SHARED:
			sb.WriteString("O")
		case token.INOUT:
			sb.WriteString("Ng")
		}
	}
	switch x := t.(type) {
	case *typesystem.Primitive:
		sb.WriteString(mangledPrimitives[x.Kind])
	case *typesystem.Pointer:
		if x.IsNull() {
			sb.WriteString("n")
			return
		}
		sb.WriteString("P")
		mangle(sb, x.Elem, depth+1)
	case *typesystem.Array:
		if x.Static {
			sb.WriteString("G" + strconv.Itoa(x.Length))
		} else {
			sb.WriteString("A")
		}
		mangle(sb, x.Elem, depth+1)
	case *typesystem.AssocArray:
		sb.WriteString("H")
		mangle(sb, x.Key, depth+1)
		mangle(sb, x.Value, depth+1)
	case *typesystem.Delegate:
		if x.IsFunction {
			sb.WriteString("P")
		} else {
			sb.WriteString("D")
		}
		mangleFunction(sb, x.Params, x.Return, depth)
	case *typesystem.Method:
		mangleFunction(sb, x.Params, x.Return, depth)
	case *typesystem.Aggregate:
		if isReference(x) {
			sb.WriteString("C")
		} else {
			sb.WriteString("S")
		}
		mangleQualified(sb, x.Decl)
	case *typesystem.Enum:
		sb.WriteString("E")
		mangleQualified(sb, x.Decl)
	case *typesystem.Tuple:
		for _, e := range x.Elems {
			mangle(sb, e, depth+1)
		}
	case *typesystem.Member:
		mangle(sb, x.Type, depth+1)
	}
}

func mangleFunction(sb *strings.Builder, params []typesystem.Parameter, ret typesystem.Type, depth int) {
	sb.WriteString("F")
	for _, p := range params {
		mangle(sb, p.Type, depth+1)
	}
	sb.WriteString("Z")
	if ret == nil {
		sb.WriteString("v")
		return
	}
	mangle(sb, ret, depth+1)
}

// mangleQualified writes the module path and enclosing declarations of
// decl as length-prefixed identifiers.
func mangleQualified(sb *strings.Builder, decl ast.Decl) {
	var parts []string
	for n := ast.Node(decl); n != nil; n = n.Parent() {
		switch d := n.(type) {
		case *ast.Module:
			if d.ModuleName != "" {
				parts = append(strings.Split(d.ModuleName, "."), parts...)
			}
		case ast.Decl:
			if d.Name() != "" {
				parts = append([]string{d.Name()}, parts...)
			}
		}
	}
	for _, p := range parts {
		sb.WriteString(strconv.Itoa(len(p)))
		sb.WriteString(p)
	}
}
