package parser

import (
	"path/filepath"
	"strings"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/lexer"
	"github.com/funvibe/dsema/internal/pipeline"
	"github.com/funvibe/dsema/internal/token"
)

const MaxRecursionDepth = 500

const (
	_ int = iota
	LOWEST
	COMMA       // ,
	ASSIGN      // = += ...
	CONDITIONAL // ?:
	LOGIC_OR    // ||
	LOGIC_AND   // &&
	BIT_OR      // |
	BIT_XOR     // ^
	BIT_AND     // &
	COMPARE     // == != < is in !<>= ...
	SHIFT       // << >> >>>
	SUM         // + - ~
	PRODUCT     // * / %
	POWER       // ^^
	PREFIX      // -X !X
	POSTFIX     // X() X[] X.y X++
)

var precedences = map[token.TokenType]int{
	token.COMMA:         COMMA,
	token.ASSIGN:        ASSIGN,
	token.PLUS_ASSIGN:   ASSIGN,
	token.MINUS_ASSIGN:  ASSIGN,
	token.MUL_ASSIGN:    ASSIGN,
	token.DIV_ASSIGN:    ASSIGN,
	token.MOD_ASSIGN:    ASSIGN,
	token.AND_ASSIGN:    ASSIGN,
	token.OR_ASSIGN:     ASSIGN,
	token.XOR_ASSIGN:    ASSIGN,
	token.CAT_ASSIGN:    ASSIGN,
	token.SHL_ASSIGN:    ASSIGN,
	token.SHR_ASSIGN:    ASSIGN,
	token.USHR_ASSIGN:   ASSIGN,
	token.POW_ASSIGN:    ASSIGN,
	token.QUESTION:      CONDITIONAL,
	token.OROR:          LOGIC_OR,
	token.ANDAND:        LOGIC_AND,
	token.PIPE:          BIT_OR,
	token.CARET:         BIT_XOR,
	token.AMPERSAND:     BIT_AND,
	token.EQ:            COMPARE,
	token.NOT_EQ:        COMPARE,
	token.LT:            COMPARE,
	token.LE:            COMPARE,
	token.GT:            COMPARE,
	token.GE:            COMPARE,
	token.LESS_GREATER:  COMPARE,
	token.LESS_EQ_GREAT: COMPARE,
	token.UNORDERED:     COMPARE,
	token.UNORD_EQ:      COMPARE,
	token.NOT_LT:        COMPARE,
	token.NOT_LE:        COMPARE,
	token.NOT_GT:        COMPARE,
	token.NOT_GE:        COMPARE,
	token.IS:            COMPARE,
	token.IN:            COMPARE,
	token.SHL:           SHIFT,
	token.SHR:           SHIFT,
	token.USHR:          SHIFT,
	token.PLUS:          SUM,
	token.MINUS:         SUM,
	token.TILDE:         SUM,
	token.ASTERISK:      PRODUCT,
	token.SLASH:         PRODUCT,
	token.PERCENT:       PRODUCT,
	token.POW:           POWER,
	token.LPAREN:        POSTFIX,
	token.LBRACKET:      POSTFIX,
	token.DOT:           POSTFIX,
	token.INCREMENT:     POSTFIX,
	token.DECREMENT:     POSTFIX,
}

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

type Parser struct {
	tokens    []token.Token
	pos       int
	curToken  token.Token
	peekToken token.Token
	prevToken token.Token

	ctx    *pipeline.PipelineContext
	errors []*diagnostics.DiagnosticError
	depth  int

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(tokens []token.Token, ctx *pipeline.PipelineContext) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		tokens = append(tokens, token.Token{Type: token.EOF})
	}
	if ctx == nil {
		ctx = &pipeline.PipelineContext{}
	}
	p := &Parser{tokens: tokens, ctx: ctx}
	p.registerExpressionFns()
	p.setPos(0)
	return p
}

func (p *Parser) setPos(pos int) {
	if pos >= len(p.tokens) {
		pos = len(p.tokens) - 1
	}
	p.pos = pos
	p.curToken = p.tokens[pos]
	p.peekToken = p.peekAt(1)
	if pos > 0 {
		p.prevToken = p.tokens[pos-1]
	} else {
		p.prevToken = token.Token{}
	}
}

func (p *Parser) nextToken() {
	p.setPos(p.pos + 1)
}

// peekAt returns the token n positions after the current one.
func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

// expectPeek advances if the next token has type t and reports an error otherwise.
func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf(diagnostics.ErrP002, p.peekToken, "expected %q, got %q", string(t), p.peekToken.Lexeme)
	return false
}

// expectCur checks the current token and advances past it.
func (p *Parser) expectCur(t token.TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf(diagnostics.ErrP002, p.curToken, "expected %q, got %q", string(t), p.curToken.Lexeme)
	return false
}

func (p *Parser) errorf(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) {
	err := diagnostics.NewError(code, tok, format, args...)
	err.File = p.ctx.FilePath
	p.errors = append(p.errors, err)
}

func (p *Parser) Errors() []*diagnostics.DiagnosticError { return p.errors }

// mark and reset implement speculative parsing.
type mark struct {
	pos    int
	errors int
}

func (p *Parser) mark() mark { return mark{pos: p.pos, errors: len(p.errors)} }

func (p *Parser) reset(m mark) {
	p.setPos(m.pos)
	p.errors = p.errors[:m.errors]
}

func loc(tok token.Token) ast.Location {
	return ast.Location{Line: tok.Line, Column: tok.Column}
}

// endLoc is the position just after the last consumed token.
func (p *Parser) endLoc() ast.Location {
	t := p.prevToken
	return ast.Location{Line: t.Line, Column: t.Column + len(t.Lexeme)}
}

type spanner interface {
	Span(start, end ast.Location) *ast.Base
}

// at stamps n with the span from start to the last consumed token.
func at[T spanner](p *Parser, start token.Token, n T) T {
	n.Span(loc(start), p.endLoc())
	return n
}

// ParseModule parses a whole source file and links the result.
func (p *Parser) ParseModule() *ast.Module {
	name := p.ctx.ModuleName
	start := p.curToken
	var declared string
	if p.curTokenIs(token.MODULE) {
		p.nextToken()
		declared = p.parseDottedName()
		p.expectCur(token.SEMICOLON)
	}
	if name == "" {
		name = declared
	}
	if name == "" {
		name = p.ctx.DefaultModuleName
	}
	if name == "" && p.ctx.FilePath != "" {
		base := filepath.Base(p.ctx.FilePath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	mod := ast.NewModule(name, p.ctx.FilePath)
	for !p.curTokenIs(token.EOF) {
		before := p.pos
		mod.Members = append(mod.Members, p.parseDeclarations()...)
		if p.pos == before {
			p.errorf(diagnostics.ErrP001, p.curToken, "unexpected token %q", p.curToken.Lexeme)
			p.nextToken()
		}
	}
	mod.Span(loc(start), p.endLoc())
	return mod.Finish()
}

// ParseExpression parses a complete expression, including comma sequences.
func (p *Parser) ParseExpression() ast.Expr {
	e := p.parseExpression(LOWEST)
	if e != nil {
		p.nextToken()
	}
	if !p.curTokenIs(token.EOF) && !p.curTokenIs(token.SEMICOLON) {
		p.errorf(diagnostics.ErrP001, p.curToken, "unexpected token %q after expression", p.curToken.Lexeme)
	}
	return e
}

// parseDottedName reads `a.b.c` starting at the current IDENT and leaves the
// cursor after it.
func (p *Parser) parseDottedName() string {
	var parts []string
	for p.curTokenIs(token.IDENT) {
		parts = append(parts, p.curToken.Lexeme)
		p.nextToken()
		if !p.curTokenIs(token.DOT) || p.peekToken.Type != token.IDENT {
			break
		}
		p.nextToken()
	}
	if len(parts) == 0 {
		p.errorf(diagnostics.ErrP002, p.curToken, "expected identifier, got %q", p.curToken.Lexeme)
	}
	return strings.Join(parts, ".")
}

// SyntaxErrors is returned by the string helpers when parsing fails.
type SyntaxErrors []*diagnostics.DiagnosticError

func (e SyntaxErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

func tokenize(src, file string) ([]token.Token, *pipeline.PipelineContext) {
	ctx := &pipeline.PipelineContext{SourceCode: src, FilePath: file}
	ctx = (&lexer.LexerProcessor{}).Process(ctx)
	return ctx.TokenStream, ctx
}

// ParseModuleString parses src as a module named name.
func ParseModuleString(name, file, src string) (*ast.Module, error) {
	toks, ctx := tokenize(src, file)
	ctx.ModuleName = name
	p := New(toks, ctx)
	mod := p.ParseModule()
	errs := append(ctx.Errors, p.errors...)
	if len(errs) > 0 {
		return mod, SyntaxErrors(errs)
	}
	return mod, nil
}

// ParseExpressionString parses src as a standalone expression. The result is
// linked into a scratch module so every node has an id and a parent.
func ParseExpressionString(src string) (ast.Expr, error) {
	toks, ctx := tokenize(src, "")
	p := New(toks, ctx)
	e := p.ParseExpression()
	errs := append(ctx.Errors, p.errors...)
	if len(errs) > 0 || e == nil {
		if len(errs) == 0 {
			errs = append(errs, diagnostics.NewError(diagnostics.ErrP005, p.curToken, "empty expression"))
		}
		return nil, SyntaxErrors(errs)
	}
	ast.Link(ast.NewModule("", ""), e, nil)
	return e, nil
}

// ParseTypeString parses src as a type.
func ParseTypeString(src string) (ast.TypeNode, error) {
	toks, ctx := tokenize(src, "")
	p := New(toks, ctx)
	t := p.parseType()
	if t != nil && !p.curTokenIs(token.EOF) {
		p.errorf(diagnostics.ErrP001, p.curToken, "unexpected token %q after type", p.curToken.Lexeme)
	}
	errs := append(ctx.Errors, p.errors...)
	if len(errs) > 0 || t == nil {
		if len(errs) == 0 {
			errs = append(errs, diagnostics.NewError(diagnostics.ErrP005, p.curToken, "empty type"))
		}
		return nil, SyntaxErrors(errs)
	}
	ast.Link(ast.NewModule("", ""), t, nil)
	return t, nil
}
