package values

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"fortio.org/safecast"
	"github.com/funvibe/dsema/internal/token"
	"github.com/funvibe/dsema/internal/typesystem"
)

// Primitive is a scalar value. Integral kinds (bool and the character kinds
// included) keep their payload in Int wrapped to the kind's width; floating
// kinds keep a real part in Re and an imaginary part in Im.
type Primitive struct {
	Typ   typesystem.Type
	PKind token.TokenType
	Int   *big.Int
	Re    float64
	Im    float64
}

func (p *Primitive) Kind() Kind { return PRIMITIVE_VAL }
func (p *Primitive) value()     {}

func (p *Primitive) SymbolType() typesystem.Type {
	if p.Typ == nil {
		return typesystem.NewPrimitive(p.PKind)
	}
	return p.Typ
}

func (p *Primitive) IsIntegral() bool { return token.IsIntegral(p.PKind) }
func (p *Primitive) IsFloating() bool { return token.IsFloating(p.PKind) }
func (p *Primitive) IsBool() bool     { return p.PKind == token.BOOL }

func (p *Primitive) IsNaN() bool {
	return !p.IsIntegral() && (math.IsNaN(p.Re) || math.IsNaN(p.Im))
}

func (p *Primitive) IsZero() bool {
	if p.IsIntegral() {
		return p.Int.Sign() == 0
	}
	return p.Re == 0 && p.Im == 0
}

// Float returns the real part as a float64.
func (p *Primitive) Float() float64 {
	if p.IsIntegral() {
		f, _ := new(big.Float).SetInt(p.Int).Float64()
		return f
	}
	return p.Re
}

func (p *Primitive) complex() complex128 {
	if p.IsIntegral() {
		return complex(p.Float(), 0)
	}
	return complex(p.Re, p.Im)
}

// ToInt returns an integral payload as int, failing when it does not fit.
func (p *Primitive) ToInt() (int, error) {
	if !p.IsIntegral() {
		return 0, fmt.Errorf("%s is not an integral value", p.Inspect())
	}
	if !p.Int.IsInt64() {
		return 0, fmt.Errorf("%s does not fit in int", p.Int)
	}
	return safecast.Conv[int](p.Int.Int64())
}

// WithType retags the value, keeping its payload. Enum members use it.
func (p *Primitive) WithType(t typesystem.Type) *Primitive {
	c := *p
	c.Typ = t
	return &c
}

func (p *Primitive) Inspect() string {
	switch {
	case p.PKind == token.BOOL:
		if p.Int.Sign() != 0 {
			return "true"
		}
		return "false"
	case token.IsChar(p.PKind):
		if p.Int.IsInt64() && p.Int.Int64() <= math.MaxInt32 {
			return strconv.QuoteRune(rune(p.Int.Int64()))
		}
		return p.Int.String()
	case p.IsIntegral():
		return p.Int.String()
	case token.IsImaginary(p.PKind):
		return formatFloat(p.Im, p.PKind) + "i"
	case token.IsComplex(p.PKind):
		im := formatFloat(p.Im, p.PKind)
		if p.Im >= 0 || math.IsNaN(p.Im) {
			im = "+" + im
		}
		return formatFloat(p.Re, p.PKind) + im + "i"
	}
	return formatFloat(p.Re, p.PKind)
}

func formatFloat(f float64, kind token.TokenType) string {
	bits := 64
	if floatRank(kind) == 0 {
		bits = 32
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}

// NewIntegral builds an integral value of kind, wrapping v to its width.
func NewIntegral(kind token.TokenType, v *big.Int) *Primitive {
	return &Primitive{PKind: kind, Int: wrap(kind, new(big.Int).Set(v))}
}

func NewInt(v int64) *Primitive {
	return NewIntegral(token.INT_KW, big.NewInt(v))
}

func NewBool(b bool) *Primitive {
	v := int64(0)
	if b {
		v = 1
	}
	return &Primitive{PKind: token.BOOL, Int: big.NewInt(v)}
}

func NewChar(kind token.TokenType, r rune) *Primitive {
	return NewIntegral(kind, big.NewInt(int64(r)))
}

// NewFloating builds a real, imaginary or complex value of kind. Parts that
// the kind does not carry are dropped; float kinds round to single precision.
func NewFloating(kind token.TokenType, re, im float64) *Primitive {
	switch {
	case token.IsReal(kind):
		im = 0
	case token.IsImaginary(kind):
		re = 0
	}
	if floatRank(kind) == 0 {
		re, im = float64(float32(re)), float64(float32(im))
	}
	return &Primitive{PKind: kind, Re: re, Im: im}
}

// wrap reduces v to the two's complement range of kind.
func wrap(kind token.TokenType, v *big.Int) *big.Int {
	if kind == token.BOOL {
		if v.Sign() != 0 {
			return v.SetInt64(1)
		}
		return v
	}
	bits := token.BitWidth(kind)
	if bits == 0 {
		return v
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	v.Mod(v, mod)
	if !token.IsUnsigned(kind) {
		half := new(big.Int).Rsh(mod, 1)
		if v.Cmp(half) >= 0 {
			v.Sub(v, mod)
		}
	}
	return v
}

// MinOf and MaxOf return the bounds of an integral kind.
func MinOf(kind token.TokenType) *Primitive {
	if token.IsUnsigned(kind) {
		return NewIntegral(kind, big.NewInt(0))
	}
	bits := token.BitWidth(kind)
	v := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	return NewIntegral(kind, v.Neg(v))
}

func MaxOf(kind token.TokenType) *Primitive {
	bits := token.BitWidth(kind)
	if kind == token.BOOL {
		return NewBool(true)
	}
	if !token.IsUnsigned(kind) {
		bits--
	}
	v := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return NewIntegral(kind, v.Sub(v, big.NewInt(1)))
}

// Convert casts p to kind following the language's conversion rules:
// integral targets wrap, floating-to-integral truncates toward zero.
func Convert(p *Primitive, kind token.TokenType) *Primitive {
	if p.PKind == kind {
		return &Primitive{PKind: kind, Int: p.Int, Re: p.Re, Im: p.Im}
	}
	switch {
	case token.IsIntegral(kind) && p.IsIntegral():
		if kind == token.BOOL {
			return NewBool(p.Int.Sign() != 0)
		}
		return NewIntegral(kind, p.Int)
	case token.IsIntegral(kind):
		if kind == token.BOOL {
			return NewBool(!p.IsZero())
		}
		re := p.Re
		if math.IsNaN(re) || math.IsInf(re, 0) {
			return NewIntegral(kind, big.NewInt(0))
		}
		i, _ := big.NewFloat(math.Trunc(re)).Int(nil)
		return NewIntegral(kind, i)
	case p.IsIntegral():
		f := p.Float()
		if token.IsImaginary(kind) {
			return NewFloating(kind, 0, f)
		}
		return NewFloating(kind, f, 0)
	}
	return NewFloating(kind, p.Re, p.Im)
}

// floatRank orders floating kinds by precision: float, double, real.
func floatRank(kind token.TokenType) int {
	switch kind {
	case token.FLOAT_KW, token.IFLOAT, token.CFLOAT:
		return 0
	case token.DOUBLE, token.IDOUBLE, token.CDOUBLE:
		return 1
	case token.REAL, token.IREAL, token.CREAL:
		return 2
	}
	return -1
}

var floatKinds = [3][3]token.TokenType{
	{token.FLOAT_KW, token.IFLOAT, token.CFLOAT},
	{token.DOUBLE, token.IDOUBLE, token.CDOUBLE},
	{token.REAL, token.IREAL, token.CREAL},
}

type floatCategory int

const (
	catReal floatCategory = iota
	catImaginary
	catComplex
)

func categoryOf(kind token.TokenType) floatCategory {
	switch {
	case token.IsImaginary(kind):
		return catImaginary
	case token.IsComplex(kind):
		return catComplex
	}
	return catReal
}

func floatKind(rank int, cat floatCategory) token.TokenType {
	if rank < 0 {
		rank = 1
	}
	return floatKinds[rank][cat]
}
