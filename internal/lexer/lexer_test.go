package lexer

import (
	"math/big"
	"testing"

	"github.com/funvibe/dsema/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `a !<>= b ^^ 2 .. $ x !is null; /+ nested /+ comment +/ +/ y >>>= 1`

	tests := []struct {
		expectedType   token.TokenType
		expectedLexeme string
	}{
		{token.IDENT, "a"},
		{token.UNORDERED, "!<>="},
		{token.IDENT, "b"},
		{token.POW, "^^"},
		{token.INT, "2"},
		{token.DOTDOT, ".."},
		{token.DOLLAR, "$"},
		{token.IDENT, "x"},
		{token.BANG, "!"},
		{token.IS, "is"},
		{token.NULL, "null"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "y"},
		{token.USHR_ASSIGN, ">>>="},
		{token.INT, "1"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (%q)", i, tt.expectedType, tok.Type, tok.Lexeme)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q", i, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		input  string
		typ    token.TokenType
		suffix string
		value  interface{}
	}{
		{"42", token.INT, "", big.NewInt(42)},
		{"0x1F", token.INT, "x", big.NewInt(31)},
		{"0b101UL", token.INT, "xUL", big.NewInt(5)},
		{"1_000L", token.INT, "L", big.NewInt(1000)},
		{"1.5f", token.FLOAT, "f", 1.5},
		{"2.5", token.FLOAT, "", 2.5},
		{"3i", token.FLOAT, "i", 3.0},
		{"1e3L", token.FLOAT, "L", 1000.0},
	}

	for _, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Type != tt.typ {
			t.Errorf("%s: type = %s, want %s", tt.input, tok.Type, tt.typ)
			continue
		}
		if tok.Suffix != tt.suffix {
			t.Errorf("%s: suffix = %q, want %q", tt.input, tok.Suffix, tt.suffix)
		}
		switch want := tt.value.(type) {
		case *big.Int:
			if got, ok := tok.Literal.(*big.Int); !ok || got.Cmp(want) != 0 {
				t.Errorf("%s: value = %v, want %v", tt.input, tok.Literal, want)
			}
		case float64:
			if got, ok := tok.Literal.(float64); !ok || got != want {
				t.Errorf("%s: value = %v, want %v", tt.input, tok.Literal, want)
			}
		}
	}
}

func TestRangeAfterInteger(t *testing.T) {
	toks := Tokenize("1..2")
	want := []token.TokenType{token.INT, token.DOTDOT, token.INT, token.EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d = %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestStringAndCharLiterals(t *testing.T) {
	toks := Tokenize(`"a\tb"w r"c:\x" 'z' '\n' ` + "`raw`d")
	if toks[0].Type != token.STRING || toks[0].Literal != "a\tb" || toks[0].Suffix != "w" {
		t.Errorf("escaped string: %v", toks[0])
	}
	if toks[1].Literal != `c:\x` {
		t.Errorf("raw string: %v", toks[1])
	}
	if toks[2].Type != token.CHAR || toks[2].Literal != 'z' {
		t.Errorf("char: %v", toks[2])
	}
	if toks[3].Literal != '\n' {
		t.Errorf("escaped char: %v", toks[3])
	}
	if toks[4].Literal != "raw" || toks[4].Suffix != "d" {
		t.Errorf("wysiwyg string: %v", toks[4])
	}
}

func TestLineTracking(t *testing.T) {
	toks := Tokenize("a\n  b")
	if toks[1].Line != 2 || toks[1].Column != 3 {
		t.Errorf("b at %d:%d, want 2:3", toks[1].Line, toks[1].Column)
	}
}
