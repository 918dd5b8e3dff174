package values

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"math/cmplx"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/token"
)

var (
	ErrDivisionByZero   = errors.New("division by zero")
	ErrShiftRange       = errors.New("shift amount outside [0, 31]")
	ErrNotIntegral      = errors.New("operator requires integral operands")
	ErrNegativeExponent = errors.New("negative exponent for integral power")
	ErrUnsupported      = errors.New("operator not supported for these operands")
)

// IntegerPromote applies integral promotion: everything narrower than int
// becomes int, dchar becomes uint.
func IntegerPromote(kind token.TokenType) token.TokenType {
	switch kind {
	case token.BOOL, token.BYTE, token.UBYTE, token.SHORT, token.USHORT, token.CHAR_KW, token.WCHAR:
		return token.INT_KW
	case token.DCHAR:
		return token.UINT
	}
	return kind
}

// CommonKind is the kind both operands of an arithmetic operator are
// converted to before the operation.
func CommonKind(a, b token.TokenType) token.TokenType {
	if token.IsFloating(a) || token.IsFloating(b) {
		rank := max(floatRank(a), floatRank(b))
		cat := catReal
		if categoryOf(a) == catComplex || categoryOf(b) == catComplex {
			cat = catComplex
		}
		return floatKind(rank, cat)
	}
	pa, pb := IntegerPromote(a), IntegerPromote(b)
	if pa == pb {
		return pa
	}
	ua, ub := token.IsUnsigned(pa), token.IsUnsigned(pb)
	sa, sb := token.SizeOf(pa), token.SizeOf(pb)
	switch {
	case ua == ub:
		if sa >= sb {
			return pa
		}
		return pb
	case ua:
		if sa >= sb {
			return pa
		}
		return pb
	default:
		if sb >= sa {
			return pb
		}
		return pa
	}
}

// BinaryOp applies an arithmetic or bitwise operator to two primitives.
func BinaryOp(op token.TokenType, a, b *Primitive) (*Primitive, error) {
	switch op {
	case token.SHL, token.SHR, token.USHR:
		return shift(op, a, b)
	case token.AMPERSAND, token.PIPE, token.CARET:
		if !a.IsIntegral() || !b.IsIntegral() {
			return nil, fmt.Errorf("%w: %s %s %s", ErrNotIntegral, a.Inspect(), op, b.Inspect())
		}
	}
	if a.IsFloating() || b.IsFloating() {
		return floatingOp(op, a, b)
	}
	return integralOp(op, a, b)
}

// ResultKind is the kind BinaryOp yields for operands of kinds a and b.
func ResultKind(op, a, b token.TokenType) token.TokenType {
	switch op {
	case token.SHL, token.SHR, token.USHR:
		return IntegerPromote(a)
	}
	if token.IsFloating(a) || token.IsFloating(b) {
		return floatingResult(op, a, b)
	}
	return CommonKind(a, b)
}

func integralOp(op token.TokenType, a, b *Primitive) (*Primitive, error) {
	kind := CommonKind(a.PKind, b.PKind)
	x := Convert(a, kind).Int
	y := Convert(b, kind).Int
	z := new(big.Int)
	switch op {
	case token.PLUS:
		z.Add(x, y)
	case token.MINUS:
		z.Sub(x, y)
	case token.ASTERISK:
		z.Mul(x, y)
	case token.SLASH:
		if y.Sign() == 0 {
			return nil, ErrDivisionByZero
		}
		z.Quo(x, y)
	case token.PERCENT:
		if y.Sign() == 0 {
			return nil, ErrDivisionByZero
		}
		z.Rem(x, y)
	case token.POW:
		if y.Sign() < 0 {
			switch {
			case x.CmpAbs(big.NewInt(1)) != 0:
				return nil, ErrNegativeExponent
			case x.Sign() > 0 || y.Bit(0) == 0:
				z.SetInt64(1)
			default:
				z.SetInt64(-1)
			}
			break
		}
		mod := new(big.Int).Lsh(big.NewInt(1), uint(token.BitWidth(kind)))
		z.Exp(x, y, mod)
	case token.AMPERSAND:
		z.And(x, y)
	case token.PIPE:
		z.Or(x, y)
	case token.CARET:
		z.Xor(x, y)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, op)
	}
	return NewIntegral(kind, z), nil
}

func shift(op token.TokenType, a, b *Primitive) (*Primitive, error) {
	if !a.IsIntegral() || !b.IsIntegral() {
		return nil, fmt.Errorf("%w: %s %s %s", ErrNotIntegral, a.Inspect(), op, b.Inspect())
	}
	if b.Int.Sign() < 0 || b.Int.Cmp(big.NewInt(31)) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrShiftRange, b.Int)
	}
	n, err := b.ToInt()
	if err != nil {
		return nil, err
	}
	kind := IntegerPromote(a.PKind)
	x := new(big.Int).Set(Convert(a, kind).Int)
	switch op {
	case token.SHL:
		x.Lsh(x, uint(n))
	case token.SHR:
		x.Rsh(x, uint(n))
	case token.USHR:
		if x.Sign() < 0 {
			mod := new(big.Int).Lsh(big.NewInt(1), uint(token.BitWidth(kind)))
			x.Add(x, mod)
		}
		x.Rsh(x, uint(n))
	}
	return NewIntegral(kind, x), nil
}

// floatingResult picks the result kind of a floating operation. Imaginary
// times imaginary is real, imaginary plus real is complex.
func floatingResult(op token.TokenType, a, b token.TokenType) token.TokenType {
	rank := max(floatRank(a), floatRank(b))
	ca, cb := categoryOf(a), categoryOf(b)
	if !token.IsFloating(a) {
		ca = catReal
	}
	if !token.IsFloating(b) {
		cb = catReal
	}
	if ca == catComplex || cb == catComplex {
		return floatKind(rank, catComplex)
	}
	switch op {
	case token.ASTERISK, token.SLASH:
		if ca == cb {
			return floatKind(rank, catReal)
		}
		return floatKind(rank, catImaginary)
	default:
		if ca == cb {
			return floatKind(rank, ca)
		}
		return floatKind(rank, catComplex)
	}
}

func floatingOp(op token.TokenType, a, b *Primitive) (*Primitive, error) {
	kind := floatingResult(op, a.PKind, b.PKind)
	x, y := a.complex(), b.complex()
	if (op == token.SLASH || op == token.PERCENT) && y == 0 {
		return nil, ErrDivisionByZero
	}
	var z complex128
	switch op {
	case token.PLUS:
		z = x + y
	case token.MINUS:
		z = x - y
	case token.ASTERISK:
		z = x * y
	case token.SLASH:
		z = x / y
		if imag(x) == 0 && imag(y) == 0 {
			z = complex(real(x)/real(y), 0)
		}
	case token.PERCENT:
		if imag(x) != 0 || imag(y) != 0 {
			return nil, fmt.Errorf("%w: %% on complex operands", ErrUnsupported)
		}
		z = complex(math.Mod(real(x), real(y)), 0)
	case token.POW:
		if imag(x) == 0 && imag(y) == 0 {
			z = complex(math.Pow(real(x), real(y)), 0)
		} else {
			z = cmplx.Pow(x, y)
		}
	default:
		return nil, fmt.Errorf("%w: %s on floating operands", ErrUnsupported, op)
	}
	if token.IsImaginary(kind) {
		return NewFloating(kind, 0, imag(z)), nil
	}
	return NewFloating(kind, real(z), imag(z)), nil
}

// UnaryOp applies - + ~ or ! to a primitive.
func UnaryOp(op token.TokenType, a *Primitive) (*Primitive, error) {
	switch op {
	case token.BANG:
		return NewBool(a.IsZero()), nil
	case token.PLUS:
		if a.IsIntegral() {
			return Convert(a, IntegerPromote(a.PKind)), nil
		}
		return a, nil
	case token.MINUS:
		if a.IsIntegral() {
			kind := IntegerPromote(a.PKind)
			return NewIntegral(kind, new(big.Int).Neg(Convert(a, kind).Int)), nil
		}
		return NewFloating(a.PKind, -a.Re, -a.Im), nil
	case token.TILDE:
		if !a.IsIntegral() {
			return nil, fmt.Errorf("%w: ~%s", ErrNotIntegral, a.Inspect())
		}
		kind := IntegerPromote(a.PKind)
		return NewIntegral(kind, new(big.Int).Not(Convert(a, kind).Int)), nil
	}
	return nil, fmt.Errorf("%w: unary %s", ErrUnsupported, op)
}

// Compare evaluates an equality, relational or unordered comparison. Any NaN
// operand makes ordered relations false and unordered relations true.
func Compare(op token.TokenType, a, b *Primitive) (bool, error) {
	if a.IsIntegral() && b.IsIntegral() {
		return compareResult(op, a.Int.Cmp(b.Int), false)
	}
	if a.IsNaN() || b.IsNaN() {
		return compareResult(op, 0, true)
	}
	x, y := a.complex(), b.complex()
	switch op {
	case token.EQ, ast.OpIdentity:
		return x == y, nil
	case token.NOT_EQ, ast.OpNotIdentity:
		return x != y, nil
	}
	c := 0
	switch {
	case real(x) < real(y):
		c = -1
	case real(x) > real(y):
		c = 1
	}
	return compareResult(op, c, false)
}

func compareResult(op token.TokenType, c int, unordered bool) (bool, error) {
	switch op {
	case token.EQ, ast.OpIdentity:
		return !unordered && c == 0, nil
	case token.NOT_EQ, ast.OpNotIdentity:
		return unordered || c != 0, nil
	case token.LT:
		return !unordered && c < 0, nil
	case token.LE:
		return !unordered && c <= 0, nil
	case token.GT:
		return !unordered && c > 0, nil
	case token.GE:
		return !unordered && c >= 0, nil
	case token.LESS_GREATER:
		return !unordered && c != 0, nil
	case token.LESS_EQ_GREAT:
		return !unordered, nil
	case token.UNORDERED:
		return unordered, nil
	case token.UNORD_EQ:
		return unordered || c == 0, nil
	case token.NOT_LT:
		return unordered || c >= 0, nil
	case token.NOT_LE:
		return unordered || c > 0, nil
	case token.NOT_GT:
		return unordered || c <= 0, nil
	case token.NOT_GE:
		return unordered || c < 0, nil
	}
	return false, fmt.Errorf("%w: comparison %s", ErrUnsupported, op)
}
