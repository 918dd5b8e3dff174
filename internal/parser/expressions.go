package parser

import (
	"math/big"
	"strings"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/token"
)

// Expression parsing functions leave curToken on the last token of the
// expression they parsed.

func (p *Parser) registerExpressionFns() {
	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.IDENT:     p.parseIdentifier,
		token.DOT:       p.parseModuleScopedIdentifier,
		token.INT:       p.parseIntegerLiteral,
		token.FLOAT:     p.parseFloatLiteral,
		token.CHAR:      p.parseCharLiteral,
		token.STRING:    p.parseStringLiteral,
		token.TRUE:      p.parseKeywordLiteral,
		token.FALSE:     p.parseKeywordLiteral,
		token.NULL:      p.parseKeywordLiteral,
		token.LPAREN:    p.parseGroupedOrLambda,
		token.LBRACKET:  p.parseArrayLiteral,
		token.MINUS:     p.parsePrefixExpression,
		token.PLUS:      p.parsePrefixExpression,
		token.BANG:      p.parsePrefixExpression,
		token.TILDE:     p.parsePrefixExpression,
		token.AMPERSAND: p.parsePrefixExpression,
		token.ASTERISK:  p.parsePrefixExpression,
		token.INCREMENT: p.parsePrefixExpression,
		token.DECREMENT: p.parsePrefixExpression,
		token.DELETE:    p.parsePrefixExpression,
		token.CAST:      p.parseCastExpression,
		token.NEW:       p.parseNewExpression,
		token.IS:        p.parseIsExpression,
		token.ASSERT:    p.parseAssertExpression,
		token.MIXIN:     p.parseMixinExpression,
		token.IMPORT:    p.parseImportExpression,
		token.TYPEOF:    p.parseTypeExpression,
		token.THIS:      p.parseThisExpression,
		token.SUPER:     p.parseThisExpression,
		token.DOLLAR:    p.parseDollarExpression,
		token.FUNCTION:  p.parseFunctionLiteral,
		token.DELEGATE:  p.parseFunctionLiteral,
	}
	for kind := range primitiveKinds {
		p.prefixParseFns[kind] = p.parsePrimitiveTypeExpression
	}
	for _, mod := range []token.TokenType{token.CONST, token.IMMUTABLE, token.SHARED, token.INOUT} {
		p.prefixParseFns[mod] = p.parseTypeExpression
	}

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for op, prec := range precedences {
		switch prec {
		case ASSIGN:
			p.infixParseFns[op] = p.parseAssignExpression
		case POSTFIX:
		default:
			p.infixParseFns[op] = p.parseInfixExpression
		}
	}
	p.infixParseFns[token.COMMA] = p.parseCommaExpression
	p.infixParseFns[token.QUESTION] = p.parseConditionalExpression
	p.infixParseFns[token.BANG] = p.parseInfixExpression
	p.infixParseFns[token.LPAREN] = p.parseCallExpression
	p.infixParseFns[token.LBRACKET] = p.parseIndexExpression
	p.infixParseFns[token.DOT] = p.parseMemberAccess
	p.infixParseFns[token.INCREMENT] = p.parsePostfixExpression
	p.infixParseFns[token.DECREMENT] = p.parsePostfixExpression
}

var primitiveKinds = map[token.TokenType]bool{
	token.VOID: true, token.BOOL: true, token.BYTE: true, token.UBYTE: true,
	token.SHORT: true, token.USHORT: true, token.INT_KW: true, token.UINT: true,
	token.LONG: true, token.ULONG: true, token.CENT: true, token.UCENT: true,
	token.FLOAT_KW: true, token.DOUBLE: true, token.REAL: true,
	token.IFLOAT: true, token.IDOUBLE: true, token.IREAL: true,
	token.CFLOAT: true, token.CDOUBLE: true, token.CREAL: true,
	token.CHAR_KW: true, token.WCHAR: true, token.DCHAR: true,
}

func (p *Parser) parseExpression(precedence int) ast.Expr {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > MaxRecursionDepth {
		p.errorf(diagnostics.ErrP006, p.curToken, "expression too complex: recursion depth limit exceeded")
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}
	return leftExp
}

// parseExpressionPast parses an expression and moves past its last token.
func (p *Parser) parseExpressionPast(precedence int) ast.Expr {
	e := p.parseExpression(precedence)
	if e != nil {
		p.nextToken()
	}
	return e
}

func (p *Parser) peekPrecedence() int {
	if p.peekTokenIs(token.BANG) {
		// `!is` and `!in` are the only binary uses of `!`.
		if next := p.peekAt(2).Type; next == token.IS || next == token.IN {
			return COMPARE
		}
		return LOWEST
	}
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	if tok.Type == token.EOF {
		p.errorf(diagnostics.ErrP005, tok, "unexpected end of input, expected expression")
		return
	}
	p.errorf(diagnostics.ErrP005, tok, "no expression can start with %q", tok.Lexeme)
}

// backOne rewinds to the previous token. Used after parsing a type, which
// leaves the cursor after the type, from inside an expression function.
func (p *Parser) backOne() {
	p.setPos(p.pos - 1)
}

func spanFrom[T spanner](p *Parser, start ast.Location, n T) T {
	end := p.curToken
	n.Span(start, ast.Location{Line: end.Line, Column: end.Column + len(end.Lexeme)})
	return n
}

// done stamps an expression that ends on curToken.
func done[T spanner](p *Parser, start token.Token, n T) T {
	return spanFrom(p, loc(start), n)
}

func (p *Parser) parseIdentifier() ast.Expr {
	start := p.curToken
	if p.peekTokenIs(token.LAMBDA_ARROW) {
		param := done(p, start, &ast.VariableDecl{DeclName: start.Lexeme, IsParameter: true})
		return p.parseLambdaBody(start, []*ast.VariableDecl{param})
	}
	if p.peekTokenIs(token.BANG) && p.startsTemplateArgs() {
		p.nextToken()
		args := p.parseTemplateArgs()
		return done(p, start, &ast.TemplateInstanceExpr{Name: start.Lexeme, Args: args})
	}
	return done(p, start, &ast.Identifier{Name: start.Lexeme})
}

// startsTemplateArgs reports whether the `!` after the current token opens a
// template argument list rather than `!is`/`!in`.
func (p *Parser) startsTemplateArgs() bool {
	switch p.peekAt(2).Type {
	case token.IS, token.IN, token.EOF:
		return false
	}
	return true
}

func (p *Parser) parseModuleScopedIdentifier() ast.Expr {
	start := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	id := p.parseIdentifier()
	if ident, ok := id.(*ast.Identifier); ok {
		ident.ModuleScoped = true
		ident.StartLoc = loc(start)
	}
	return id
}

func (p *Parser) parseIntegerLiteral() ast.Expr {
	tok := p.curToken
	lit := &ast.Literal{Kind: ast.LiteralInt, Text: tok.Lexeme, Int: tok.Literal.(*big.Int)}
	suffix := tok.Suffix
	if strings.HasPrefix(suffix, "x") {
		lit.Format |= ast.FormatNonDecimal
		suffix = suffix[1:]
	}
	if strings.Contains(suffix, "L") {
		lit.Format |= ast.FormatLong
	}
	if strings.ContainsAny(suffix, "uU") {
		lit.Format |= ast.FormatUnsigned
	}
	return done(p, tok, lit)
}

func (p *Parser) parseFloatLiteral() ast.Expr {
	tok := p.curToken
	lit := &ast.Literal{Kind: ast.LiteralFloat, Text: tok.Lexeme, Float: tok.Literal.(float64)}
	if strings.ContainsAny(tok.Suffix, "fF") {
		lit.Format |= ast.FormatFloatSuffix
	}
	if strings.Contains(tok.Suffix, "L") {
		lit.Format |= ast.FormatLong
	}
	if strings.Contains(tok.Suffix, "i") {
		lit.Format |= ast.FormatImaginary
	}
	return done(p, tok, lit)
}

func (p *Parser) parseCharLiteral() ast.Expr {
	tok := p.curToken
	return done(p, tok, &ast.Literal{Kind: ast.LiteralChar, Text: tok.Lexeme, Char: tok.Literal.(rune)})
}

func (p *Parser) parseStringLiteral() ast.Expr {
	tok := p.curToken
	lit := &ast.Literal{Kind: ast.LiteralString, Text: tok.Lexeme, Str: tok.Literal.(string)}
	switch tok.Suffix {
	case "c":
		lit.StringKind = token.CHAR_KW
	case "w":
		lit.StringKind = token.WCHAR
	case "d":
		lit.StringKind = token.DCHAR
	}
	return done(p, tok, lit)
}

func (p *Parser) parseKeywordLiteral() ast.Expr {
	tok := p.curToken
	kind := ast.LiteralNull
	switch tok.Type {
	case token.TRUE:
		kind = ast.LiteralTrue
	case token.FALSE:
		kind = ast.LiteralFalse
	}
	return done(p, tok, &ast.Literal{Kind: kind, Text: tok.Lexeme})
}

// parseGroupedOrLambda handles `(expr)` and `(params) => expr` / `(params) {...}`.
func (p *Parser) parseGroupedOrLambda() ast.Expr {
	start := p.curToken
	if p.isLambdaAhead() {
		params, variadic := p.parseParameters(true)
		p.backOne()
		lit := p.parseLambdaBody(start, params)
		if fl, ok := lit.(*ast.FunctionLiteral); ok {
			fl.Func.Variadic = variadic
		}
		return lit
	}
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if exp == nil || !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

// isLambdaAhead scans to the parenthesis matching the current one and checks
// whether `=>` or `{` follows.
func (p *Parser) isLambdaAhead() bool {
	depth := 0
	for i := 0; ; i++ {
		tok := p.peekAt(i)
		switch tok.Type {
		case token.EOF:
			return false
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				next := p.peekAt(i + 1).Type
				return next == token.LAMBDA_ARROW || next == token.LBRACE
			}
		}
	}
}

// parseLambdaBody expects curToken on the last token of the parameter list.
func (p *Parser) parseLambdaBody(start token.Token, params []*ast.VariableDecl) ast.Expr {
	fn := &ast.FunctionDecl{Kind: ast.FunctionLiteralBody, Params: params}
	p.nextToken()
	fn.Body = p.parseFunctionLiteralBody()
	if fn.Body == nil {
		return nil
	}
	at(p, start, fn)
	p.backOne()
	return done(p, start, &ast.FunctionLiteral{Func: fn})
}

// parseFunctionLiteralBody parses `=> expr` or `{ ... }` and leaves the cursor
// after it.
func (p *Parser) parseFunctionLiteralBody() *ast.BlockStmt {
	start := p.curToken
	if p.curTokenIs(token.LAMBDA_ARROW) {
		p.nextToken()
		e := p.parseExpression(ASSIGN - 1)
		if e == nil {
			return nil
		}
		p.nextToken()
		ret := at(p, start, &ast.ReturnStmt{X: e})
		return at(p, start, &ast.BlockStmt{Statements: []ast.Stmt{ret}})
	}
	if p.curTokenIs(token.LBRACE) {
		return p.parseBlockStatement()
	}
	p.errorf(diagnostics.ErrP002, p.curToken, "expected function body, got %q", p.curToken.Lexeme)
	return nil
}

// parseFunctionLiteral handles `function Ret(params) body` and `delegate ...`.
func (p *Parser) parseFunctionLiteral() ast.Expr {
	start := p.curToken
	isFunction := p.curTokenIs(token.FUNCTION)
	p.nextToken()

	fn := &ast.FunctionDecl{Kind: ast.FunctionLiteralBody}
	if !p.curTokenIs(token.LPAREN) && !p.curTokenIs(token.LBRACE) && !p.curTokenIs(token.LAMBDA_ARROW) {
		fn.ReturnType = p.parseType()
	}
	if p.curTokenIs(token.LPAREN) {
		fn.Params, fn.Variadic = p.parseParameters(true)
	}
	fn.Body = p.parseFunctionLiteralBody()
	if fn.Body == nil {
		return nil
	}
	at(p, start, fn)
	p.backOne()
	return done(p, start, &ast.FunctionLiteral{Func: fn, IsFunction: isFunction})
}

func (p *Parser) parseArrayLiteral() ast.Expr {
	start := p.curToken
	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return done(p, start, &ast.ArrayLiteral{})
	}
	p.nextToken()
	first := p.parseExpression(COMMA)
	if first == nil {
		return nil
	}

	if p.peekTokenIs(token.COLON) {
		aa := &ast.AssocArrayLiteral{}
		key := first
		for {
			p.nextToken() // :
			p.nextToken()
			val := p.parseExpression(COMMA)
			if val == nil {
				return nil
			}
			aa.Keys = append(aa.Keys, key)
			aa.Values = append(aa.Values, val)
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
			if p.peekTokenIs(token.RBRACKET) {
				break
			}
			p.nextToken()
			if key = p.parseExpression(COMMA); key == nil {
				return nil
			}
			if !p.expectPeek(token.COLON) {
				return nil
			}
			p.backOne()
		}
		if !p.expectPeek(token.RBRACKET) {
			return nil
		}
		return done(p, start, aa)
	}

	arr := &ast.ArrayLiteral{Elements: []ast.Expr{first}}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(token.RBRACKET) {
			break
		}
		p.nextToken()
		el := p.parseExpression(COMMA)
		if el == nil {
			return nil
		}
		arr.Elements = append(arr.Elements, el)
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return done(p, start, arr)
}

func (p *Parser) parsePrefixExpression() ast.Expr {
	start := p.curToken
	expression := &ast.UnaryExpr{Op: start.Type}
	p.nextToken()
	// ^^ binds tighter than unary operators: -2 ^^ 2 == -(2 ^^ 2).
	expression.X = p.parseExpression(PRODUCT)
	if expression.X == nil {
		return nil
	}
	return done(p, start, expression)
}

func (p *Parser) parseInfixExpression(left ast.Expr) ast.Expr {
	expression := &ast.BinaryExpr{Op: p.curToken.Type, Left: left}
	precedence := COMPARE
	switch p.curToken.Type {
	case token.BANG:
		p.nextToken()
		if p.curTokenIs(token.IS) {
			expression.Op = ast.OpNotIdentity
		} else {
			expression.Op = ast.OpNotIn
		}
	case token.IS:
		expression.Op = ast.OpIdentity
	case token.IN:
		expression.Op = ast.OpIn
	default:
		precedence = precedences[p.curToken.Type]
	}
	if expression.Op == token.POW {
		precedence-- // right-associative
	}
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	return spanFrom(p, left.Start(), expression)
}

func (p *Parser) parseAssignExpression(left ast.Expr) ast.Expr {
	expression := &ast.AssignExpr{Op: p.curToken.Type, Left: left}
	p.nextToken()
	expression.Right = p.parseExpression(ASSIGN - 1)
	if expression.Right == nil {
		return nil
	}
	return spanFrom(p, left.Start(), expression)
}

func (p *Parser) parseConditionalExpression(cond ast.Expr) ast.Expr {
	expression := &ast.ConditionalExpr{Cond: cond}
	p.nextToken()
	expression.Then = p.parseExpression(COMMA)
	if expression.Then == nil || !p.expectPeek(token.COLON) {
		return nil
	}
	p.nextToken()
	expression.Else = p.parseExpression(CONDITIONAL - 1)
	if expression.Else == nil {
		return nil
	}
	return spanFrom(p, cond.Start(), expression)
}

func (p *Parser) parseCommaExpression(left ast.Expr) ast.Expr {
	expression := &ast.CommaExpr{List: []ast.Expr{left}}
	for {
		p.nextToken()
		right := p.parseExpression(COMMA)
		if right == nil {
			return nil
		}
		expression.List = append(expression.List, right)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	return spanFrom(p, left.Start(), expression)
}

func (p *Parser) parsePostfixExpression(left ast.Expr) ast.Expr {
	return spanFrom(p, left.Start(), &ast.PostfixIncDecExpr{Op: p.curToken.Type, X: left})
}

// parseExpressionList parses comma separated expressions up to end; curToken
// is the opening token on entry and end on exit.
func (p *Parser) parseExpressionList(end token.TokenType) []ast.Expr {
	list := []ast.Expr{}
	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}
	p.nextToken()
	for {
		e := p.parseExpression(COMMA)
		if e == nil {
			return nil
		}
		list = append(list, e)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		if p.peekTokenIs(end) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(end) {
		return nil
	}
	return list
}

func (p *Parser) parseCallExpression(fun ast.Expr) ast.Expr {
	args := p.parseExpressionList(token.RPAREN)
	if args == nil {
		return nil
	}
	return spanFrom(p, fun.Start(), &ast.CallExpr{Fun: fun, Args: args})
}

func (p *Parser) parseIndexExpression(x ast.Expr) ast.Expr {
	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return spanFrom(p, x.Start(), &ast.SliceExpr{X: x})
	}
	p.nextToken()
	first := p.parseExpression(COMMA)
	if first == nil {
		return nil
	}
	if p.peekTokenIs(token.DOTDOT) {
		p.nextToken()
		p.nextToken()
		upper := p.parseExpression(COMMA)
		if upper == nil || !p.expectPeek(token.RBRACKET) {
			return nil
		}
		return spanFrom(p, x.Start(), &ast.SliceExpr{X: x, Lower: first, Upper: upper})
	}
	args := []ast.Expr{first}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		e := p.parseExpression(COMMA)
		if e == nil {
			return nil
		}
		args = append(args, e)
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return spanFrom(p, x.Start(), &ast.IndexExpr{X: x, Args: args})
}

func (p *Parser) parseMemberAccess(x ast.Expr) ast.Expr {
	p.nextToken()
	if !p.curTokenIs(token.IDENT) {
		p.errorf(diagnostics.ErrP002, p.curToken, "expected member name after '.', got %q", p.curToken.Lexeme)
		return nil
	}
	expression := &ast.MemberAccessExpr{X: x, Name: p.curToken.Lexeme}
	if p.peekTokenIs(token.BANG) && p.startsTemplateArgs() {
		p.nextToken()
		expression.TemplateArgs = p.parseTemplateArgs()
		expression.HasTemplateArgs = true
	}
	return spanFrom(p, x.Start(), expression)
}

// parseTemplateArgs parses `!(a, b)` or `!a`; curToken is `!` on entry and
// the last token of the arguments on exit.
func (p *Parser) parseTemplateArgs() []ast.Node {
	p.nextToken()
	if !p.curTokenIs(token.LPAREN) {
		arg := p.parseTemplateArg(true)
		if arg == nil {
			return nil
		}
		return []ast.Node{arg}
	}
	args := []ast.Node{}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args
	}
	p.nextToken()
	for {
		arg := p.parseTemplateArg(false)
		if arg == nil {
			return nil
		}
		args = append(args, arg)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		p.nextToken()
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return args
}

// parseTemplateArg parses one template argument as a type when it reads as
// one, else as an expression. Bare names are kept as types; the resolver
// decides whether they denote a type or a symbol with a value.
func (p *Parser) parseTemplateArg(single bool) ast.Node {
	if single {
		start := p.curToken
		switch {
		case p.curTokenIs(token.IDENT):
			return done(p, start, &ast.IdentifierType{Name: start.Lexeme})
		case primitiveKinds[p.curToken.Type]:
			return done(p, start, &ast.PrimitiveType{Kind: start.Type})
		}
		return p.parseExpression(POSTFIX)
	}

	m := p.mark()
	if t := p.parseType(); t != nil && len(p.errors) == m.errors &&
		(p.curTokenIs(token.COMMA) || p.curTokenIs(token.RPAREN)) {
		p.backOne()
		return t
	}
	p.reset(m)
	return p.parseExpression(COMMA)
}

func (p *Parser) parseCastExpression() ast.Expr {
	start := p.curToken
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	expression := &ast.CastExpr{}
	if isModifierOnly(p) {
		for !p.curTokenIs(token.RPAREN) {
			expression.Modifiers = append(expression.Modifiers, p.curToken.Type)
			p.nextToken()
		}
	} else {
		expression.Type = p.parseType()
		if expression.Type == nil || !p.curTokenIs(token.RPAREN) {
			p.errorf(diagnostics.ErrP002, p.curToken, "expected ')' after cast type")
			return nil
		}
	}
	p.nextToken()
	expression.X = p.parseExpression(PRODUCT)
	if expression.X == nil {
		return nil
	}
	return done(p, start, expression)
}

// isModifierOnly reports `cast()`, `cast(const)`, `cast(shared const)`...
func isModifierOnly(p *Parser) bool {
	for i := 0; ; i++ {
		switch p.peekAt(i).Type {
		case token.RPAREN:
			return true
		case token.CONST, token.IMMUTABLE, token.SHARED, token.INOUT:
			continue
		default:
			return false
		}
	}
}

func (p *Parser) parseNewExpression() ast.Expr {
	start := p.curToken
	p.nextToken()
	expression := &ast.NewExpr{Type: p.parseType()}
	if expression.Type == nil {
		return nil
	}
	if p.curTokenIs(token.LPAREN) {
		expression.Args = p.parseExpressionList(token.RPAREN)
		if expression.Args == nil {
			return nil
		}
	} else {
		p.backOne()
	}
	return done(p, start, expression)
}

var isSpecTokens = map[token.TokenType]bool{
	token.STRUCT: true, token.UNION: true, token.CLASS: true, token.INTERFACE: true,
	token.ENUM: true, token.FUNCTION: true, token.DELEGATE: true, token.SUPER: true,
	token.CONST: true, token.IMMUTABLE: true, token.SHARED: true, token.RETURN: true,
}

func (p *Parser) parseIsExpression() ast.Expr {
	start := p.curToken
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	expression := &ast.IsExpr{Type: p.parseType()}
	if expression.Type == nil {
		return nil
	}
	if p.curTokenIs(token.IDENT) {
		expression.AliasName = p.curToken.Lexeme
		p.nextToken()
	}
	if p.curTokenIs(token.EQ) || p.curTokenIs(token.COLON) {
		expression.Equality = p.curTokenIs(token.EQ)
		p.nextToken()
		next := p.peekToken.Type
		if isSpecTokens[p.curToken.Type] && (next == token.RPAREN || next == token.COMMA) {
			expression.SpecToken = p.curToken.Type
			p.nextToken()
		} else if expression.SpecType = p.parseType(); expression.SpecType == nil {
			return nil
		}
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			expression.Params = p.parseTemplateParameterList(token.RPAREN)
		}
	}
	if !p.curTokenIs(token.RPAREN) {
		p.errorf(diagnostics.ErrP002, p.curToken, "expected ')' to close is-expression, got %q", p.curToken.Lexeme)
		return nil
	}
	return done(p, start, expression)
}

func (p *Parser) parseAssertExpression() ast.Expr {
	start := p.curToken
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	args := p.parseExpressionList(token.RPAREN)
	if len(args) == 0 {
		p.errorf(diagnostics.ErrP002, p.curToken, "assert needs a condition")
		return nil
	}
	return done(p, start, &ast.AssertExpr{Args: args})
}

func (p *Parser) parseMixinExpression() ast.Expr {
	start := p.curToken
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	x := p.parseExpression(LOWEST)
	if x == nil || !p.expectPeek(token.RPAREN) {
		return nil
	}
	return done(p, start, &ast.MixinExpr{X: x})
}

func (p *Parser) parseImportExpression() ast.Expr {
	start := p.curToken
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	x := p.parseExpression(LOWEST)
	if x == nil || !p.expectPeek(token.RPAREN) {
		return nil
	}
	return done(p, start, &ast.ImportExpr{X: x})
}

// parseTypeExpression handles `typeof(x)` and `const(T)` in expression position.
func (p *Parser) parseTypeExpression() ast.Expr {
	start := p.curToken
	if p.curToken.Type != token.TYPEOF && !p.peekTokenIs(token.LPAREN) {
		p.errorf(diagnostics.ErrP005, p.curToken, "no expression can start with %q", p.curToken.Lexeme)
		return nil
	}
	t := p.parseBasicType()
	if t == nil {
		return nil
	}
	p.backOne()
	return done(p, start, &ast.TypeExpr{Type: t})
}

func (p *Parser) parsePrimitiveTypeExpression() ast.Expr {
	start := p.curToken
	t := done(p, start, &ast.PrimitiveType{Kind: start.Type})
	return done(p, start, &ast.TypeExpr{Type: t})
}

func (p *Parser) parseThisExpression() ast.Expr {
	return done(p, p.curToken, &ast.ThisExpr{Super: p.curTokenIs(token.SUPER)})
}

func (p *Parser) parseDollarExpression() ast.Expr {
	return done(p, p.curToken, &ast.DollarExpr{})
}
