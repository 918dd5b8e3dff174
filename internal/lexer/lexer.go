package lexer

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/dsema/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		l.column++
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	return l.peekAt(0)
}

// peekAt returns the rune n positions after the next one.
func (l *Lexer) peekAt(n int) rune {
	pos := l.readPosition
	for i := 0; ; i++ {
		if pos >= len(l.input) {
			return 0
		}
		r, w := utf8.DecodeRuneInString(l.input[pos:])
		if i == n {
			return r
		}
		pos += w
	}
}

func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

// Tokenize returns every token including the trailing EOF.
func Tokenize(input string) []token.Token {
	l := New(input)
	var out []token.Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out
		}
	}
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	line, col := l.line, l.column
	if l.atEOF() {
		return token.Token{Type: token.EOF, Line: line, Column: col}
	}

	// Longest operator first.
	for _, op := range operators {
		if strings.HasPrefix(l.input[l.position:], op) {
			if op == "." && unicode.IsDigit(l.peekChar()) {
				break
			}
			for range op {
				l.readChar()
			}
			return token.Token{Type: token.TokenType(op), Lexeme: op, Literal: op, Line: line, Column: col}
		}
	}

	switch {
	case l.ch == '"':
		return l.readString(line, col, '"')
	case l.ch == '`':
		return l.readString(line, col, '`')
	case l.ch == 'r' && l.peekChar() == '"':
		l.readChar()
		return l.readString(line, col, 'r')
	case l.ch == '\'':
		return l.readCharLiteral(line, col)
	case isLetter(l.ch):
		ident := l.readIdentifier()
		return token.Token{Type: token.LookupIdent(ident), Lexeme: ident, Literal: ident, Line: line, Column: col}
	case unicode.IsDigit(l.ch) || (l.ch == '.' && unicode.IsDigit(l.peekChar())):
		return l.readNumber(line, col)
	}

	ch := l.ch
	l.readChar()
	return token.Token{Type: token.ILLEGAL, Lexeme: string(ch), Literal: string(ch), Line: line, Column: col}
}

// operators is ordered so that longer spellings win.
var operators = []string{
	"!<>=", ">>>=",
	"!<>", "!<=", "!>=", "<>=", ">>>", "<<=", ">>=", "^^=", "...",
	"!<", "!>", "<>", "==", "!=", "<=", ">=", "&&", "||", "++", "--", "+=", "-=", "*=", "/=",
	"%=", "&=", "|=", "^=", "~=", "<<", ">>", "^^", "..", "=>",
	"=", "+", "-", "*", "/", "%", "&", "|", "^", "~", "!", "<", ">", "?", ":", ",", ";",
	".", "$", "@", "(", ")", "[", "]", "{", "}",
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEOF() {
		switch {
		case unicode.IsSpace(l.ch):
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for !l.atEOF() && l.ch != '\n' {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			for !l.atEOF() && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			l.readChar()
			l.readChar()
		case l.ch == '/' && l.peekChar() == '+':
			l.skipNestedComment()
		default:
			return
		}
	}
}

// skipNestedComment consumes a /+ ... +/ comment, which may nest.
func (l *Lexer) skipNestedComment() {
	depth := 0
	for !l.atEOF() {
		if l.ch == '/' && l.peekChar() == '+' {
			depth++
			l.readChar()
		} else if l.ch == '+' && l.peekChar() == '/' {
			depth--
			l.readChar()
			if depth == 0 {
				l.readChar()
				return
			}
		}
		l.readChar()
	}
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || unicode.IsDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber(line, col int) token.Token {
	start := l.position
	base := 10
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		base = 16
		l.readChar()
		l.readChar()
	} else if l.ch == '0' && (l.peekChar() == 'b' || l.peekChar() == 'B') {
		base = 2
		l.readChar()
		l.readChar()
	}

	digitsStart := l.position
	isFloat := false
	for isDigitOfBase(l.ch, base) || l.ch == '_' {
		l.readChar()
	}
	// A dot belongs to the number unless it starts `..` or a member access.
	if base == 10 && l.ch == '.' && l.peekChar() != '.' && !isLetter(l.peekChar()) {
		isFloat = true
		l.readChar()
		for unicode.IsDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}
	if base == 10 && (l.ch == 'e' || l.ch == 'E') {
		isFloat = true
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for unicode.IsDigit(l.ch) {
			l.readChar()
		}
	}
	digits := strings.ReplaceAll(l.input[digitsStart:l.position], "_", "")

	suffixStart := l.position
	for strings.ContainsRune("uULfFi", l.ch) && l.ch != 0 {
		l.readChar()
	}
	suffix := l.input[suffixStart:l.position]
	lexeme := l.input[start:l.position]

	if strings.ContainsAny(suffix, "fF") || (strings.Contains(suffix, "i") && base == 10) {
		isFloat = true
	}

	if isFloat {
		f, err := strconv.ParseFloat(digits, 64)
		if err != nil && !strings.Contains(err.Error(), "range") {
			return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: lexeme, Line: line, Column: col}
		}
		return token.Token{Type: token.FLOAT, Lexeme: lexeme, Literal: f, Suffix: suffix, Line: line, Column: col}
	}

	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: lexeme, Line: line, Column: col}
	}
	if base != 10 {
		suffix = "x" + suffix
	}
	return token.Token{Type: token.INT, Lexeme: lexeme, Literal: n, Suffix: suffix, Line: line, Column: col}
}

func isDigitOfBase(ch rune, base int) bool {
	switch base {
	case 2:
		return ch == '0' || ch == '1'
	case 16:
		return unicode.IsDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
	}
	return unicode.IsDigit(ch)
}

// readString reads "..." (with escapes), `...` and r"..." (raw) strings and
// an optional c/w/d postfix.
func (l *Lexer) readString(line, col int, quote rune) token.Token {
	raw := quote != '"'
	closing := quote
	if quote == 'r' {
		closing = '"'
	}
	l.readChar() // opening quote

	var sb strings.Builder
	for !l.atEOF() && l.ch != closing {
		if l.ch == '\\' && !raw {
			r, err := l.readEscape()
			if err != nil {
				return token.Token{Type: token.ILLEGAL, Lexeme: err.Error(), Line: line, Column: col}
			}
			sb.WriteRune(r)
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	if l.atEOF() {
		return token.Token{Type: token.ILLEGAL, Lexeme: "unterminated string", Line: line, Column: col}
	}
	l.readChar() // closing quote

	suffix := ""
	if l.ch == 'c' || l.ch == 'w' || l.ch == 'd' {
		suffix = string(l.ch)
		l.readChar()
	}
	s := sb.String()
	return token.Token{Type: token.STRING, Lexeme: strconv.Quote(s), Literal: s, Suffix: suffix, Line: line, Column: col}
}

func (l *Lexer) readCharLiteral(line, col int) token.Token {
	l.readChar() // '
	var r rune
	if l.ch == '\\' {
		var err error
		r, err = l.readEscape()
		if err != nil {
			return token.Token{Type: token.ILLEGAL, Lexeme: err.Error(), Line: line, Column: col}
		}
	} else {
		r = l.ch
		l.readChar()
	}
	if l.ch != '\'' {
		return token.Token{Type: token.ILLEGAL, Lexeme: "unterminated character literal", Line: line, Column: col}
	}
	l.readChar()
	return token.Token{Type: token.CHAR, Lexeme: strconv.QuoteRune(r), Literal: r, Line: line, Column: col}
}

// readEscape decodes one backslash escape; l.ch is the backslash.
func (l *Lexer) readEscape() (rune, error) {
	l.readChar()
	ch := l.ch
	l.readChar()
	switch ch {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case '0':
		return 0, nil
	case 'a':
		return '\a', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case 'v':
		return '\v', nil
	case '\\', '\'', '"', '?':
		return ch, nil
	case 'x':
		return l.readHexEscape(2)
	case 'u':
		return l.readHexEscape(4)
	case 'U':
		return l.readHexEscape(8)
	}
	return 0, fmt.Errorf("unknown escape sequence \\%c", ch)
}

func (l *Lexer) readHexEscape(n int) (rune, error) {
	start := l.position
	for i := 0; i < n; i++ {
		if !isDigitOfBase(l.ch, 16) {
			return 0, fmt.Errorf("invalid hex escape")
		}
		l.readChar()
	}
	v, err := strconv.ParseUint(l.input[start:l.position], 16, 32)
	if err != nil {
		return 0, err
	}
	return rune(v), nil
}
