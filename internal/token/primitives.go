package token

// Primitive type keyword classification. The sets mirror the language's
// basic types; every primitive Symbol Type is tagged with one of these.

var integralTypes = map[TokenType]bool{
	BOOL: true, BYTE: true, UBYTE: true, SHORT: true, USHORT: true,
	INT_KW: true, UINT: true, LONG: true, ULONG: true, CENT: true, UCENT: true,
	CHAR_KW: true, WCHAR: true, DCHAR: true,
}

var unsignedTypes = map[TokenType]bool{
	BOOL: true, UBYTE: true, USHORT: true, UINT: true, ULONG: true, UCENT: true,
	CHAR_KW: true, WCHAR: true, DCHAR: true,
}

var realTypes = map[TokenType]bool{FLOAT_KW: true, DOUBLE: true, REAL: true}

var imaginaryTypes = map[TokenType]bool{IFLOAT: true, IDOUBLE: true, IREAL: true}

var complexTypes = map[TokenType]bool{CFLOAT: true, CDOUBLE: true, CREAL: true}

var charTypes = map[TokenType]bool{CHAR_KW: true, WCHAR: true, DCHAR: true}

// typeSizes holds .sizeof for every primitive kind.
var typeSizes = map[TokenType]int{
	VOID: 1, BOOL: 1, BYTE: 1, UBYTE: 1, CHAR_KW: 1,
	SHORT: 2, USHORT: 2, WCHAR: 2,
	INT_KW: 4, UINT: 4, DCHAR: 4, FLOAT_KW: 4, IFLOAT: 4,
	LONG: 8, ULONG: 8, DOUBLE: 8, IDOUBLE: 8, CFLOAT: 8,
	CENT: 16, UCENT: 16, REAL: 16, IREAL: 16, CDOUBLE: 16,
	CREAL: 32,
}

func IsBasicType(t TokenType) bool {
	_, ok := typeSizes[t]
	return ok
}

func IsIntegral(t TokenType) bool  { return integralTypes[t] }
func IsUnsigned(t TokenType) bool  { return unsignedTypes[t] }
func IsReal(t TokenType) bool      { return realTypes[t] }
func IsImaginary(t TokenType) bool { return imaginaryTypes[t] }
func IsComplex(t TokenType) bool   { return complexTypes[t] }
func IsChar(t TokenType) bool      { return charTypes[t] }

// IsFloating reports real, imaginary and complex kinds.
func IsFloating(t TokenType) bool {
	return realTypes[t] || imaginaryTypes[t] || complexTypes[t]
}

// SizeOf returns the byte size of a primitive kind, 0 if t is not primitive.
func SizeOf(t TokenType) int {
	return typeSizes[t]
}

// BitWidth returns the number of value bits of an integral kind.
func BitWidth(t TokenType) int {
	if t == BOOL {
		return 1
	}
	return typeSizes[t] * 8
}

// IsStorageClass reports attribute keywords that may prefix declarations or
// act as type constructors.
func IsStorageClass(t TokenType) bool {
	switch t {
	case CONST, IMMUTABLE, SHARED, INOUT, STATIC, SCOPE, REF, OUT, LAZY,
		AUTO, ABSTRACT, FINAL, OVERRIDE, ENUM, PUBLIC, PRIVATE, PROTECTED, PACKAGE:
		return true
	}
	return false
}

// IsTypeModifier reports the keywords usable as type constructors: const(int).
func IsTypeModifier(t TokenType) bool {
	switch t {
	case CONST, IMMUTABLE, SHARED, INOUT:
		return true
	}
	return false
}
