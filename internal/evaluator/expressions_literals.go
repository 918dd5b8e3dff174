package evaluator

import (
	"math"
	"math/big"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/resolver"
	"github.com/funvibe/dsema/internal/token"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
)

var (
	maxInt32  = big.NewInt(math.MaxInt32)
	maxUint32 = big.NewInt(math.MaxUint32)
	maxInt64  = big.NewInt(math.MaxInt64)
)

func primitive(origin ast.Node, kind token.TokenType) *typesystem.Primitive {
	return &typesystem.Primitive{Base: typesystem.Base{Origin: origin}, Kind: kind}
}

func (e *Evaluator) evalLiteral(ctx *resolver.Context, x *ast.Literal) (Result, error) {
	var typ typesystem.Type
	var val values.Value

	switch x.Kind {
	case ast.LiteralInt:
		if x.Has(ast.FormatImaginary) {
			kind := imaginaryKind(x)
			f, _ := new(big.Float).SetInt(x.Int).Float64()
			typ, val = primitive(x, kind), values.NewFloating(kind, 0, f)
			break
		}
		kind := integerLiteralKind(x)
		typ, val = primitive(x, kind), values.NewIntegral(kind, x.Int)

	case ast.LiteralFloat:
		var kind token.TokenType = token.DOUBLE
		switch {
		case x.Has(ast.FormatImaginary):
			kind = imaginaryKind(x)
			typ, val = primitive(x, kind), values.NewFloating(kind, 0, x.Float)
		default:
			if x.Has(ast.FormatFloatSuffix) {
				kind = token.FLOAT_KW
			} else if x.Has(ast.FormatLong) {
				kind = token.REAL
			}
			typ, val = primitive(x, kind), values.NewFloating(kind, x.Float, 0)
		}

	case ast.LiteralChar:
		kind := charLiteralKind(x.Char)
		typ, val = primitive(x, kind), values.NewChar(kind, x.Char)

	case ast.LiteralString:
		kind := x.StringKind
		if kind == "" {
			kind = token.CHAR_KW
		}
		str := ctx.StringType(kind)
		typ, val = str, values.NewString(x.Str, str)

	case ast.LiteralTrue, ast.LiteralFalse:
		typ, val = primitive(x, token.BOOL), values.NewBool(x.Kind == ast.LiteralTrue)

	case ast.LiteralNull:
		val = &values.Null{}
		typ = val.SymbolType()
	}

	r := Result{Types: []typesystem.Type{typ}}
	if e.mode == ValueMode {
		r.Value = val
	}
	return r, nil
}

// integerLiteralKind picks the narrowest kind the literal fits: int, then
// long. Hexadecimal, octal and binary literals also try the unsigned kinds,
// and the suffixes narrow the choice.
func integerLiteralKind(x *ast.Literal) token.TokenType {
	v := x.Int
	unsigned := x.Has(ast.FormatUnsigned)
	nonDecimal := x.Has(ast.FormatNonDecimal)
	if !x.Has(ast.FormatLong) {
		switch {
		case !unsigned && v.Cmp(maxInt32) <= 0:
			return token.INT_KW
		case (unsigned || nonDecimal) && v.Cmp(maxUint32) <= 0:
			return token.UINT
		}
	}
	if !unsigned && v.Cmp(maxInt64) <= 0 {
		return token.LONG
	}
	return token.ULONG
}

func imaginaryKind(x *ast.Literal) token.TokenType {
	switch {
	case x.Has(ast.FormatFloatSuffix):
		return token.IFLOAT
	case x.Has(ast.FormatLong):
		return token.IREAL
	}
	return token.IDOUBLE
}

func charLiteralKind(r rune) token.TokenType {
	switch {
	case r <= 0x7F:
		return token.CHAR_KW
	case r <= 0xFFFF:
		return token.WCHAR
	}
	return token.DCHAR
}

// evalArrayLiteral types `[a, b]` as an array of the elements' common
// type. Primitive elements are converted to their common kind.
func (e *Evaluator) evalArrayLiteral(ctx *resolver.Context, x *ast.ArrayLiteral) (Result, error) {
	elems := make([]Result, len(x.Elements))
	for i, el := range x.Elements {
		r, err := e.eval(ctx, el)
		if err != nil {
			return Result{}, err
		}
		elems[i] = r
	}
	elemType := commonType(elems)
	if elemType == nil {
		elemType = primitive(nil, token.VOID)
	}
	typ := &typesystem.Array{Base: typesystem.Base{Origin: x}, Elem: elemType}
	r := Result{Types: []typesystem.Type{typ}}
	if e.mode != ValueMode {
		return r, nil
	}
	vals := make([]values.Value, len(elems))
	for i, el := range elems {
		v, err := e.read(ctx, x.Elements[i], el.Value)
		if err != nil {
			return Result{}, err
		}
		vals[i] = coerce(v, elemType)
	}
	r.Value = values.NewArray(typ, vals)
	return r, nil
}

// evalAssocArrayLiteral types `[k: v]` by its first pair.
func (e *Evaluator) evalAssocArrayLiteral(ctx *resolver.Context, x *ast.AssocArrayLiteral) (Result, error) {
	keys := make([]Result, len(x.Keys))
	vals := make([]Result, len(x.Values))
	for i := range x.Keys {
		k, err := e.eval(ctx, x.Keys[i])
		if err != nil {
			return Result{}, err
		}
		v, err := e.eval(ctx, x.Values[i])
		if err != nil {
			return Result{}, err
		}
		keys[i], vals[i] = k, v
	}
	typ := &typesystem.AssocArray{Base: typesystem.Base{Origin: x}, Key: commonType(keys), Value: commonType(vals)}
	if typ.Key == nil || typ.Value == nil {
		return Result{}, nil
	}
	r := Result{Types: []typesystem.Type{typ}}
	if e.mode != ValueMode {
		return r, nil
	}
	aa := &values.AssocArray{Typ: typ}
	for i := range keys {
		k, err := e.read(ctx, x.Keys[i], keys[i].Value)
		if err != nil {
			return Result{}, err
		}
		v, err := e.read(ctx, x.Values[i], vals[i].Value)
		if err != nil {
			return Result{}, err
		}
		aa.Set(coerce(k, typ.Key), coerce(v, typ.Value))
	}
	r.Value = aa
	return r, nil
}

// commonType is the type a list of expressions converges to: the common
// kind of primitive operands, else the first operand's type.
func commonType(rs []Result) typesystem.Type {
	var out typesystem.Type
	for _, r := range rs {
		t := r.Type()
		if t == nil {
			continue
		}
		if out == nil {
			out = typesystem.WithoutModifiers(t)
			continue
		}
		a, ok1 := out.(*typesystem.Primitive)
		b, ok2 := t.(*typesystem.Primitive)
		if ok1 && ok2 && a.Kind != b.Kind {
			out = typesystem.NewPrimitive(values.CommonKind(a.Kind, b.Kind))
		}
	}
	return out
}

// evalFunctionLiteral types a function literal as a delegate carrying its
// declaration; its value is that delegate.
func (e *Evaluator) evalFunctionLiteral(ctx *resolver.Context, x *ast.FunctionLiteral) (Result, error) {
	d := &typesystem.Delegate{Base: typesystem.Base{Origin: x}, IsFunction: x.IsFunction, Decl: x.Func, Variadic: x.Func.Variadic}
	if m, ok := ctx.SymbolOf(x.Func).(*typesystem.Method); ok {
		d.Params = m.Params
		d.Return = m.Return
	}
	r := Result{Types: []typesystem.Type{d}}
	if e.mode == ValueMode {
		r.Value = &values.Delegate{Typ: d, Func: x.Func}
	}
	return r, nil
}
