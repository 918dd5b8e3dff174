package values

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/token"
)

func TestWrapToWidth(t *testing.T) {
	tests := []struct {
		kind token.TokenType
		in   int64
		want string
	}{
		{token.UBYTE, 256, "0"},
		{token.UBYTE, -1, "255"},
		{token.BYTE, 128, "-128"},
		{token.BYTE, -129, "127"},
		{token.INT_KW, 1 << 31, "-2147483648"},
		{token.UINT, -1, "4294967295"},
		{token.BOOL, 42, "true"},
		{token.LONG, math.MaxInt64, "9223372036854775807"},
	}
	for _, tt := range tests {
		got := NewIntegral(tt.kind, big.NewInt(tt.in)).Inspect()
		if got != tt.want {
			t.Errorf("%s(%d) = %s, want %s", tt.kind, tt.in, got, tt.want)
		}
	}
}

func TestCommonKind(t *testing.T) {
	tests := []struct {
		a, b token.TokenType
		want token.TokenType
	}{
		{token.BYTE, token.SHORT, token.INT_KW},
		{token.INT_KW, token.UINT, token.UINT},
		{token.INT_KW, token.LONG, token.LONG},
		{token.UINT, token.LONG, token.LONG},
		{token.ULONG, token.INT_KW, token.ULONG},
		{token.CHAR_KW, token.CHAR_KW, token.INT_KW},
		{token.DCHAR, token.INT_KW, token.UINT},
		{token.INT_KW, token.FLOAT_KW, token.FLOAT_KW},
		{token.FLOAT_KW, token.DOUBLE, token.DOUBLE},
		{token.REAL, token.CFLOAT, token.CREAL},
	}
	for _, tt := range tests {
		if got := CommonKind(tt.a, tt.b); got != tt.want {
			t.Errorf("CommonKind(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestBinaryOp(t *testing.T) {
	i := func(v int64) *Primitive { return NewInt(v) }
	d := func(v float64) *Primitive { return NewFloating(token.DOUBLE, v, 0) }

	tests := []struct {
		name string
		op   token.TokenType
		a, b *Primitive
		want string
		kind token.TokenType
	}{
		{"add", token.PLUS, i(2), i(3), "5", token.INT_KW},
		{"overflow wraps", token.PLUS, i(math.MaxInt32), i(1), "-2147483648", token.INT_KW},
		{"truncating division", token.SLASH, i(-7), i(2), "-3", token.INT_KW},
		{"remainder sign", token.PERCENT, i(-7), i(2), "-1", token.INT_KW},
		{"power", token.POW, i(2), i(10), "1024", token.INT_KW},
		{"power wraps", token.POW, i(2), i(32), "0", token.INT_KW},
		{"power of -1", token.POW, i(-1), i(-3), "-1", token.INT_KW},
		{"and", token.AMPERSAND, i(12), i(10), "8", token.INT_KW},
		{"xor", token.CARET, i(12), i(10), "6", token.INT_KW},
		{"shl", token.SHL, i(1), i(31), "-2147483648", token.INT_KW},
		{"shr keeps sign", token.SHR, i(-8), i(1), "-4", token.INT_KW},
		{"ushr", token.USHR, i(-8), i(28), "15", token.INT_KW},
		{"mixed float", token.PLUS, i(1), d(0.5), "1.5", token.DOUBLE},
		{"float division", token.SLASH, d(1), d(4), "0.25", token.DOUBLE},
		{"imaginary product", token.ASTERISK,
			NewFloating(token.IDOUBLE, 0, 2), NewFloating(token.IDOUBLE, 0, 3), "-6", token.DOUBLE},
		{"real plus imaginary", token.PLUS, d(1), NewFloating(token.IDOUBLE, 0, 2), "1+2i", token.CDOUBLE},
		{"char promotes", token.PLUS, NewChar(token.CHAR_KW, 'a'), i(1), "98", token.INT_KW},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BinaryOp(tt.op, tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Inspect() != tt.want || got.PKind != tt.kind {
				t.Errorf("got %s (%s), want %s (%s)", got.Inspect(), got.PKind, tt.want, tt.kind)
			}
		})
	}
}

func TestBinaryOpErrors(t *testing.T) {
	tests := []struct {
		name string
		op   token.TokenType
		a, b *Primitive
		want error
	}{
		{"divide by zero", token.SLASH, NewInt(1), NewInt(0), ErrDivisionByZero},
		{"modulo by zero", token.PERCENT, NewInt(1), NewInt(0), ErrDivisionByZero},
		{"float divide by zero", token.SLASH, NewFloating(token.DOUBLE, 1, 0), NewInt(0), ErrDivisionByZero},
		{"shift too far", token.SHL, NewInt(1), NewInt(32), ErrShiftRange},
		{"negative shift", token.SHR, NewInt(1), NewInt(-1), ErrShiftRange},
		{"bitwise on float", token.PIPE, NewFloating(token.DOUBLE, 1, 0), NewInt(1), ErrNotIntegral},
		{"negative exponent", token.POW, NewInt(2), NewInt(-1), ErrNegativeExponent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BinaryOp(tt.op, tt.a, tt.b)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCompareNaN(t *testing.T) {
	nan := NewFloating(token.DOUBLE, math.NaN(), 0)
	one := NewFloating(token.DOUBLE, 1, 0)

	tests := []struct {
		op   token.TokenType
		want bool
	}{
		{token.EQ, false},
		{token.NOT_EQ, true},
		{token.LT, false},
		{token.LE, false},
		{token.GT, false},
		{token.GE, false},
		{token.LESS_GREATER, false},
		{token.LESS_EQ_GREAT, false},
		{token.UNORDERED, true},
		{token.UNORD_EQ, true},
		{token.NOT_LT, true},
		{token.NOT_LE, true},
		{token.NOT_GT, true},
		{token.NOT_GE, true},
	}
	for _, tt := range tests {
		got, err := Compare(tt.op, nan, one)
		if err != nil {
			t.Fatalf("%s: %v", tt.op, err)
		}
		if got != tt.want {
			t.Errorf("NaN %s 1 = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestCompareOrdered(t *testing.T) {
	a, b := NewInt(1), NewInt(2)
	tests := []struct {
		op   token.TokenType
		want bool
	}{
		{token.LT, true},
		{token.LESS_GREATER, true},
		{token.LESS_EQ_GREAT, true},
		{token.UNORDERED, false},
		{token.NOT_LT, false},
		{token.NOT_GT, true},
		{token.UNORD_EQ, false},
	}
	for _, tt := range tests {
		got, _ := Compare(tt.op, a, b)
		if got != tt.want {
			t.Errorf("1 %s 2 = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestUnaryOp(t *testing.T) {
	neg, _ := UnaryOp(token.MINUS, NewIntegral(token.UBYTE, big.NewInt(1)))
	if neg.Inspect() != "-1" || neg.PKind != token.INT_KW {
		t.Errorf("-ubyte(1) = %s %s", neg.Inspect(), neg.PKind)
	}
	not, _ := UnaryOp(token.TILDE, NewInt(0))
	if not.Inspect() != "-1" {
		t.Errorf("~0 = %s", not.Inspect())
	}
	b, _ := UnaryOp(token.BANG, NewInt(0))
	if b.Inspect() != "true" {
		t.Errorf("!0 = %s", b.Inspect())
	}
}

func TestConvert(t *testing.T) {
	if got := Convert(NewFloating(token.DOUBLE, -2.9, 0), token.INT_KW).Inspect(); got != "-2" {
		t.Errorf("cast(int)-2.9 = %s", got)
	}
	if got := Convert(NewInt(300), token.UBYTE).Inspect(); got != "44" {
		t.Errorf("cast(ubyte)300 = %s", got)
	}
	if got := Convert(NewFloating(token.DOUBLE, 0.1, 0), token.FLOAT_KW).Re; got != float64(float32(0.1)) {
		t.Errorf("float rounding lost: %v", got)
	}
	if MinOf(token.BYTE).Inspect() != "-128" || MaxOf(token.USHORT).Inspect() != "65535" {
		t.Error("integral bounds are wrong")
	}
}

func TestStrings(t *testing.T) {
	a := NewString("héllo", nil)
	if a.Len() != 6 {
		t.Errorf("utf-8 length = %d, want 6", a.Len())
	}
	w := NewString("héllo", StringType(token.WCHAR))
	if w.Len() != 5 {
		t.Errorf("utf-16 length = %d, want 5", w.Len())
	}
	if got := w.Index(1).Inspect(); got != "'é'" {
		t.Errorf("w[1] = %s", got)
	}
	if got := w.Slice(1, 3).Str; got != "él" {
		t.Errorf("w[1..3] = %q", got)
	}

	ab := Concat(NewString("a", nil), NewString("b", nil))
	if !ab.IsString || ab.Str != "ab" {
		t.Errorf("concat = %s", ab.Inspect())
	}
	withChar := Append(NewString("a", nil), NewChar(token.CHAR_KW, 'z'))
	if withChar.Str != "az" {
		t.Errorf("append char = %s", withChar.Inspect())
	}
	s, ok := StringOf(NewArray(StringType(token.CHAR_KW), []Value{NewChar(token.CHAR_KW, 'o'), NewChar(token.CHAR_KW, 'k')}))
	if !ok || s != "ok" {
		t.Errorf("StringOf = %q, %v", s, ok)
	}
}

func TestAssocArrayLastWriteWins(t *testing.T) {
	aa := &AssocArray{}
	aa.Set(NewString("a", nil), NewInt(1))
	aa.Set(NewString("b", nil), NewInt(2))
	aa.Set(NewString("a", nil), NewInt(3))

	if aa.Len() != 2 {
		t.Fatalf("len = %d, want 2", aa.Len())
	}
	v, ok := aa.Get(NewString("a", nil))
	if !ok || v.Inspect() != "3" {
		t.Errorf("aa[a] = %v", v)
	}
	if aa.Inspect() != `["a":3, "b":2]` {
		t.Errorf("order lost: %s", aa.Inspect())
	}
}

func TestTruthyAndProvider(t *testing.T) {
	decl := &ast.VariableDecl{DeclName: "x"}
	constant := &ast.VariableDecl{DeclName: "k", Attributes: []token.TokenType{token.ENUM}}
	p := NewMapProvider(true)
	p.Values[decl] = NewInt(0)
	p.Values[constant] = NewInt(7)

	if _, err := p.Get(decl); !errors.Is(err, ErrNotConstant) {
		t.Errorf("constant-only provider read a mutable variable: %v", err)
	}
	ref := &VariableRef{Decl: constant, Provider: p}
	v, err := Deref(ref)
	if err != nil || v.Inspect() != "7" {
		t.Errorf("Deref = %v, %v", v, err)
	}
	if ok, _ := Truthy(ref); !ok {
		t.Error("7 should be truthy")
	}
	if ok, _ := Truthy(&Null{}); ok {
		t.Error("null should be falsy")
	}

	p.PushArrayLength(3)
	p.PushArrayLength(5)
	if n, _ := p.ArrayLength(); n != 5 {
		t.Errorf("length register = %d", n)
	}
	p.PopArrayLength()
	if n, _ := p.ArrayLength(); n != 3 {
		t.Errorf("length register after pop = %d", n)
	}
}
