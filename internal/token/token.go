package token

import "fmt"

type TokenType string

// Token is a single lexical token. Literal carries the decoded payload for
// literals (*big.Int, float64, rune or string) and the raw text otherwise.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Suffix  string // literal suffix as written: "L", "u", "f", "i", "c", "w", "d"...
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Type, t.Lexeme, t.Line, t.Column)
}

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	IDENT  = "IDENT"
	INT    = "INT"
	FLOAT  = "FLOAT"
	CHAR   = "CHAR"
	STRING = "STRING"

	// Assignment
	ASSIGN        = "="
	PLUS_ASSIGN   = "+="
	MINUS_ASSIGN  = "-="
	MUL_ASSIGN    = "*="
	DIV_ASSIGN    = "/="
	MOD_ASSIGN    = "%="
	AND_ASSIGN    = "&="
	OR_ASSIGN     = "|="
	XOR_ASSIGN    = "^="
	CAT_ASSIGN    = "~="
	SHL_ASSIGN    = "<<="
	SHR_ASSIGN    = ">>="
	USHR_ASSIGN   = ">>>="
	POW_ASSIGN    = "^^="
	LAMBDA_ARROW  = "=>"
	QUESTION      = "?"
	COLON         = ":"
	COMMA         = ","
	SEMICOLON     = ";"
	DOT           = "."
	DOTDOT        = ".."
	ELLIPSIS      = "..."
	DOLLAR        = "$"
	AT            = "@"
	LPAREN        = "("
	RPAREN        = ")"
	LBRACKET      = "["
	RBRACKET      = "]"
	LBRACE        = "{"
	RBRACE        = "}"
	INCREMENT     = "++"
	DECREMENT     = "--"
	OROR          = "||"
	ANDAND        = "&&"
	PIPE          = "|"
	CARET         = "^"
	AMPERSAND     = "&"
	EQ            = "=="
	NOT_EQ        = "!="
	LT            = "<"
	LE            = "<="
	GT            = ">"
	GE            = ">="
	LESS_GREATER  = "<>"
	LESS_EQ_GREAT = "<>="
	UNORDERED     = "!<>="
	UNORD_EQ      = "!<>"
	NOT_LT        = "!<"
	NOT_LE        = "!<="
	NOT_GT        = "!>"
	NOT_GE        = "!>="
	SHL           = "<<"
	SHR           = ">>"
	USHR          = ">>>"
	PLUS          = "+"
	MINUS         = "-"
	ASTERISK      = "*"
	SLASH         = "/"
	PERCENT       = "%"
	POW           = "^^"
	TILDE         = "~"
	BANG          = "!"

	// Keywords
	MODULE    = "module"
	IMPORT    = "import"
	PUBLIC    = "public"
	PRIVATE   = "private"
	PROTECTED = "protected"
	PACKAGE   = "package"
	STATIC    = "static"
	CONST     = "const"
	IMMUTABLE = "immutable"
	SHARED    = "shared"
	INOUT     = "inout"
	SCOPE     = "scope"
	REF       = "ref"
	OUT       = "out"
	LAZY      = "lazy"
	AUTO      = "auto"
	ABSTRACT  = "abstract"
	FINAL     = "final"
	OVERRIDE  = "override"
	ENUM      = "enum"
	ALIAS     = "alias"
	STRUCT    = "struct"
	CLASS     = "class"
	UNION     = "union"
	INTERFACE = "interface"
	TEMPLATE  = "template"
	MIXIN     = "mixin"
	FUNCTION  = "function"
	DELEGATE  = "delegate"
	RETURN    = "return"
	NEW       = "new"
	CAST      = "cast"
	IS        = "is"
	IN        = "in"
	ASSERT    = "assert"
	TYPEOF    = "typeof"
	THIS      = "this"
	SUPER     = "super"
	NULL      = "null"
	TRUE      = "true"
	FALSE     = "false"
	DELETE    = "delete"
	IF        = "if"
	ELSE      = "else"
	TYPEID    = "typeid"
	VOID      = "void"
	BOOL      = "bool"
	BYTE      = "byte"
	UBYTE     = "ubyte"
	SHORT     = "short"
	USHORT    = "ushort"
	INT_KW    = "int"
	UINT      = "uint"
	LONG      = "long"
	ULONG     = "ulong"
	CENT      = "cent"
	UCENT     = "ucent"
	FLOAT_KW  = "float"
	DOUBLE    = "double"
	REAL      = "real"
	IFLOAT    = "ifloat"
	IDOUBLE   = "idouble"
	IREAL     = "ireal"
	CFLOAT    = "cfloat"
	CDOUBLE   = "cdouble"
	CREAL     = "creal"
	CHAR_KW   = "char"
	WCHAR     = "wchar"
	DCHAR     = "dchar"
)

var keywords = map[string]TokenType{
	"module":    MODULE,
	"import":    IMPORT,
	"public":    PUBLIC,
	"private":   PRIVATE,
	"protected": PROTECTED,
	"package":   PACKAGE,
	"static":    STATIC,
	"const":     CONST,
	"immutable": IMMUTABLE,
	"shared":    SHARED,
	"inout":     INOUT,
	"scope":     SCOPE,
	"ref":       REF,
	"out":       OUT,
	"lazy":      LAZY,
	"auto":      AUTO,
	"abstract":  ABSTRACT,
	"final":     FINAL,
	"override":  OVERRIDE,
	"enum":      ENUM,
	"alias":     ALIAS,
	"struct":    STRUCT,
	"class":     CLASS,
	"union":     UNION,
	"interface": INTERFACE,
	"template":  TEMPLATE,
	"mixin":     MIXIN,
	"function":  FUNCTION,
	"delegate":  DELEGATE,
	"return":    RETURN,
	"new":       NEW,
	"cast":      CAST,
	"is":        IS,
	"in":        IN,
	"assert":    ASSERT,
	"typeof":    TYPEOF,
	"typeid":    TYPEID,
	"this":      THIS,
	"super":     SUPER,
	"null":      NULL,
	"true":      TRUE,
	"false":     FALSE,
	"delete":    DELETE,
	"if":        IF,
	"else":      ELSE,
	"void":      VOID,
	"bool":      BOOL,
	"byte":      BYTE,
	"ubyte":     UBYTE,
	"short":     SHORT,
	"ushort":    USHORT,
	"int":       INT_KW,
	"uint":      UINT,
	"long":      LONG,
	"ulong":     ULONG,
	"cent":      CENT,
	"ucent":     UCENT,
	"float":     FLOAT_KW,
	"double":    DOUBLE,
	"real":      REAL,
	"ifloat":    IFLOAT,
	"idouble":   IDOUBLE,
	"ireal":     IREAL,
	"cfloat":    CFLOAT,
	"cdouble":   CDOUBLE,
	"creal":     CREAL,
	"char":      CHAR_KW,
	"wchar":     WCHAR,
	"dchar":     DCHAR,
}

// LookupIdent returns the keyword token type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
