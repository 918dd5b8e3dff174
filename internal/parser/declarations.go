package parser

import (
	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/token"
)

// Declaration and statement parsing functions leave curToken on the first
// token after what they parsed.

func isAttribute(t token.TokenType) bool {
	switch t {
	case token.PUBLIC, token.PRIVATE, token.PROTECTED, token.PACKAGE, token.STATIC,
		token.CONST, token.IMMUTABLE, token.SHARED, token.INOUT, token.SCOPE,
		token.AUTO, token.ABSTRACT, token.FINAL, token.OVERRIDE, token.REF:
		return true
	}
	return false
}

// isManifestConstant reports `enum X = ...;` and `enum T X = ...;`.
func (p *Parser) isManifestConstant() bool {
	if !p.curTokenIs(token.ENUM) {
		return false
	}
	for i := 1; ; i++ {
		switch p.peekAt(i).Type {
		case token.ASSIGN:
			return true
		case token.LBRACE, token.COLON, token.SEMICOLON, token.EOF:
			return false
		}
	}
}

func (p *Parser) parseDeclarations() []ast.Decl {
	start := p.curToken
	var attrs []token.TokenType

loop:
	for {
		switch {
		case p.curTokenIs(token.SEMICOLON):
			p.nextToken()
			return nil
		case p.curTokenIs(token.AT):
			p.nextToken()
			p.nextToken()
			if p.curTokenIs(token.LPAREN) {
				p.skipBalanced()
			}
		case isAttribute(p.curToken.Type) && !(isTypeModifier(p.curToken.Type) && p.peekTokenIs(token.LPAREN)):
			attrs = append(attrs, p.curToken.Type)
			p.nextToken()
			if p.curTokenIs(token.COLON) {
				p.nextToken()
				return nil
			}
			if p.curTokenIs(token.LBRACE) {
				return p.parseAttributeBlock(attrs)
			}
		case p.isManifestConstant():
			attrs = append(attrs, token.ENUM)
			p.nextToken()
		default:
			break loop
		}
	}

	switch p.curToken.Type {
	case token.IMPORT:
		return p.parseImport(attrs)
	case token.ALIAS:
		if d := p.parseAlias(start); d != nil {
			return []ast.Decl{d}
		}
		return nil
	case token.STRUCT, token.CLASS, token.UNION, token.INTERFACE, token.TEMPLATE:
		if d := p.parseAggregate(start, attrs); d != nil {
			return []ast.Decl{d}
		}
		return nil
	case token.MIXIN:
		if p.peekTokenIs(token.TEMPLATE) {
			p.nextToken()
			if d := p.parseAggregate(start, attrs); d != nil {
				d.Kind = ast.AggregateMixinTemplate
				return []ast.Decl{d}
			}
		}
		p.errorf(diagnostics.ErrP004, p.curToken, "mixin declarations are not supported")
		p.skipToSemicolon()
		return nil
	case token.ENUM:
		if d := p.parseEnum(start); d != nil {
			return []ast.Decl{d}
		}
		return nil
	case token.THIS:
		if p.peekTokenIs(token.LPAREN) {
			p.nextToken()
			fn := &ast.FunctionDecl{DeclName: "this", Kind: ast.FunctionConstructor, Attributes: attrs}
			if d := p.parseFunctionRest(start, fn); d != nil {
				return []ast.Decl{d}
			}
			return nil
		}
	}
	return p.parseVariablesOrFunction(start, attrs)
}

func (p *Parser) parseAttributeBlock(attrs []token.TokenType) []ast.Decl {
	p.nextToken()
	var out []ast.Decl
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		before := p.pos
		for _, d := range p.parseDeclarations() {
			applyAttributes(d, attrs)
			out = append(out, d)
		}
		if p.pos == before {
			p.errorf(diagnostics.ErrP001, p.curToken, "unexpected token %q", p.curToken.Lexeme)
			p.nextToken()
		}
	}
	p.expectCur(token.RBRACE)
	return out
}

func applyAttributes(d ast.Decl, attrs []token.TokenType) {
	switch d := d.(type) {
	case *ast.VariableDecl:
		d.Attributes = append(d.Attributes, attrs...)
	case *ast.FunctionDecl:
		d.Attributes = append(d.Attributes, attrs...)
	case *ast.AggregateDecl:
		d.Attributes = append(d.Attributes, attrs...)
	}
}

func (p *Parser) skipToSemicolon() {
	for !p.curTokenIs(token.SEMICOLON) && !p.curTokenIs(token.EOF) {
		p.nextToken()
	}
	p.nextToken()
}

// skipBalanced skips a parenthesised group starting at the current '('.
func (p *Parser) skipBalanced() {
	depth := 0
	for !p.curTokenIs(token.EOF) {
		switch p.curToken.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		}
		p.nextToken()
		if depth == 0 {
			return
		}
	}
}

// parenFollowedBy reports whether the group opened by the current '(' is
// immediately followed by a token of type t.
func (p *Parser) parenFollowedBy(t token.TokenType) bool {
	depth := 0
	for i := 0; ; i++ {
		switch p.peekAt(i).Type {
		case token.EOF:
			return false
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				return p.peekAt(i+1).Type == t
			}
		}
	}
}

func (p *Parser) parseImport(attrs []token.TokenType) []ast.Decl {
	public := hasToken(attrs, token.PUBLIC)
	static := hasToken(attrs, token.STATIC)
	p.nextToken()
	var out []ast.Decl
	for {
		declStart := p.curToken
		imp := &ast.ImportDecl{Public: public, Static: static}
		if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN) {
			imp.Alias = p.curToken.Lexeme
			p.nextToken()
			p.nextToken()
		}
		imp.ModuleName = p.parseDottedName()
		if imp.ModuleName == "" {
			p.skipToSemicolon()
			return out
		}
		if p.curTokenIs(token.COLON) {
			for {
				p.nextToken()
				if !p.curTokenIs(token.IDENT) {
					p.errorf(diagnostics.ErrP002, p.curToken, "expected imported symbol name")
					break
				}
				imp.Symbols = append(imp.Symbols, p.curToken.Lexeme)
				p.nextToken()
				if !p.curTokenIs(token.COMMA) {
					break
				}
			}
		}
		out = append(out, at(p, declStart, imp))
		if !p.curTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	p.expectCur(token.SEMICOLON)
	return out
}

func hasToken(list []token.TokenType, t token.TokenType) bool {
	for _, x := range list {
		if x == t {
			return true
		}
	}
	return false
}

// parseAlias handles `alias A = T;`, `alias A(T) = U;` and `alias T A;`.
func (p *Parser) parseAlias(start token.Token) ast.Decl {
	p.nextToken()
	d := &ast.AliasDecl{}
	if p.curTokenIs(token.IDENT) && (p.peekTokenIs(token.ASSIGN) || p.peekTokenIs(token.LPAREN)) {
		d.DeclName = p.curToken.Lexeme
		p.nextToken()
		if p.curTokenIs(token.LPAREN) {
			d.TemplateParams = p.parseTemplateParameters()
		}
		if !p.expectCur(token.ASSIGN) {
			p.skipToSemicolon()
			return nil
		}
		d.Type = p.parseType()
	} else {
		d.Type = p.parseType()
		if !p.curTokenIs(token.IDENT) {
			p.errorf(diagnostics.ErrP002, p.curToken, "expected alias name, got %q", p.curToken.Lexeme)
			p.skipToSemicolon()
			return nil
		}
		d.DeclName = p.curToken.Lexeme
		p.nextToken()
	}
	if d.Type == nil {
		p.skipToSemicolon()
		return nil
	}
	p.expectCur(token.SEMICOLON)
	return at(p, start, d)
}

var aggregateKinds = map[token.TokenType]ast.AggregateKind{
	token.STRUCT:    ast.AggregateStruct,
	token.CLASS:     ast.AggregateClass,
	token.UNION:     ast.AggregateUnion,
	token.INTERFACE: ast.AggregateInterface,
	token.TEMPLATE:  ast.AggregateTemplate,
}

func (p *Parser) parseAggregate(start token.Token, attrs []token.TokenType) *ast.AggregateDecl {
	d := &ast.AggregateDecl{Kind: aggregateKinds[p.curToken.Type], Attributes: attrs}
	p.nextToken()
	if p.curTokenIs(token.IDENT) {
		d.DeclName = p.curToken.Lexeme
		p.nextToken()
	}
	if p.curTokenIs(token.LPAREN) {
		d.TemplateParams = p.parseTemplateParameters()
	}
	if p.curTokenIs(token.IF) {
		p.nextToken()
		p.skipBalanced()
	}
	if p.curTokenIs(token.COLON) {
		for {
			p.nextToken()
			if isAttribute(p.curToken.Type) && !isTypeModifier(p.curToken.Type) {
				p.nextToken()
			}
			base := p.parseType()
			if base == nil {
				break
			}
			d.BaseClasses = append(d.BaseClasses, base)
			if !p.curTokenIs(token.COMMA) {
				break
			}
		}
	}
	if p.curTokenIs(token.SEMICOLON) {
		p.nextToken()
		return at(p, start, d)
	}
	if !p.expectCur(token.LBRACE) {
		return nil
	}
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		before := p.pos
		d.Members = append(d.Members, p.parseDeclarations()...)
		if p.pos == before {
			p.errorf(diagnostics.ErrP001, p.curToken, "unexpected token %q in %s body", p.curToken.Lexeme, d.Kind)
			p.nextToken()
		}
	}
	p.expectCur(token.RBRACE)
	return at(p, start, d)
}

func (p *Parser) parseEnum(start token.Token) ast.Decl {
	d := &ast.EnumDecl{}
	p.nextToken()
	if p.curTokenIs(token.IDENT) {
		d.DeclName = p.curToken.Lexeme
		p.nextToken()
	}
	if p.curTokenIs(token.COLON) {
		p.nextToken()
		d.BaseType = p.parseType()
	}
	if p.curTokenIs(token.SEMICOLON) {
		p.nextToken()
		return at(p, start, d)
	}
	if !p.expectCur(token.LBRACE) {
		return nil
	}
	for p.curTokenIs(token.IDENT) {
		memberStart := p.curToken
		m := &ast.EnumValueDecl{DeclName: p.curToken.Lexeme}
		p.nextToken()
		if p.curTokenIs(token.ASSIGN) {
			p.nextToken()
			if m.Init = p.parseExpressionPast(COMMA); m.Init == nil {
				return nil
			}
		}
		d.Members = append(d.Members, at(p, memberStart, m))
		if !p.curTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectCur(token.RBRACE) {
		return nil
	}
	return at(p, start, d)
}

func (p *Parser) parseVariablesOrFunction(start token.Token, attrs []token.TokenType) []ast.Decl {
	var typ ast.TypeNode
	inferred := len(attrs) > 0 && p.curTokenIs(token.IDENT) &&
		(p.peekTokenIs(token.ASSIGN) || (p.peekTokenIs(token.LPAREN) && hasToken(attrs, token.AUTO)))
	if !inferred {
		if typ = p.parseType(); typ == nil {
			p.skipToSemicolon()
			return nil
		}
	}
	if !p.curTokenIs(token.IDENT) {
		p.errorf(diagnostics.ErrP004, p.curToken, "expected declaration name, got %q", p.curToken.Lexeme)
		p.skipToSemicolon()
		return nil
	}
	name := p.curToken.Lexeme
	p.nextToken()

	if p.curTokenIs(token.LPAREN) {
		fn := &ast.FunctionDecl{DeclName: name, ReturnType: typ, Attributes: attrs}
		if d := p.parseFunctionRest(start, fn); d != nil {
			return []ast.Decl{d}
		}
		return nil
	}

	var out []ast.Decl
	varStart := start
	for {
		v := &ast.VariableDecl{DeclName: name, Type: typ, Attributes: attrs}
		if p.curTokenIs(token.ASSIGN) {
			p.nextToken()
			if v.Init = p.parseExpressionPast(COMMA); v.Init == nil {
				p.skipToSemicolon()
				return out
			}
		}
		out = append(out, at(p, varStart, v))
		if !p.curTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		if !p.curTokenIs(token.IDENT) {
			p.errorf(diagnostics.ErrP004, p.curToken, "expected variable name, got %q", p.curToken.Lexeme)
			break
		}
		varStart = p.curToken
		name = p.curToken.Lexeme
		p.nextToken()
	}
	p.expectCur(token.SEMICOLON)
	return out
}

// parseFunctionRest parses from the first '(' after the name to the end of
// the body.
func (p *Parser) parseFunctionRest(start token.Token, fn *ast.FunctionDecl) ast.Decl {
	if p.parenFollowedBy(token.LPAREN) {
		fn.TemplateParams = p.parseTemplateParameters()
	}
	fn.Params, fn.Variadic = p.parseParameters(false)

	// Trailing attributes and template constraints.
	for {
		switch {
		case isTypeModifier(p.curToken.Type):
			fn.Attributes = append(fn.Attributes, p.curToken.Type)
			p.nextToken()
		case p.curTokenIs(token.AT):
			p.nextToken()
			p.nextToken()
		case p.curTokenIs(token.IDENT) && isFunctionAttributeName(p.curToken.Lexeme):
			p.nextToken()
		case p.curTokenIs(token.IF):
			p.nextToken()
			p.skipBalanced()
		default:
			goto body
		}
	}

body:
	switch p.curToken.Type {
	case token.SEMICOLON:
		p.nextToken()
	case token.LBRACE, token.LAMBDA_ARROW:
		short := p.curTokenIs(token.LAMBDA_ARROW)
		if fn.Body = p.parseFunctionLiteralBody(); fn.Body == nil {
			return nil
		}
		if short {
			p.expectCur(token.SEMICOLON)
		}
	default:
		p.errorf(diagnostics.ErrP002, p.curToken, "expected function body, got %q", p.curToken.Lexeme)
		p.skipToSemicolon()
		return nil
	}
	return at(p, start, fn)
}

func isFunctionAttributeName(name string) bool {
	switch name {
	case "pure", "nothrow", "nogc", "return":
		return true
	}
	return false
}

// parseParameters parses a parenthesised parameter list starting at '('.
// In lambda lists a lone identifier is a parameter name, not a type.
func (p *Parser) parseParameters(lambda bool) ([]*ast.VariableDecl, bool) {
	p.nextToken()
	params := []*ast.VariableDecl{}
	variadic := false
	for !p.curTokenIs(token.RPAREN) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.ELLIPSIS) {
			variadic = true
			p.nextToken()
			break
		}
		start := p.curToken
		prm := &ast.VariableDecl{IsParameter: true}
		for isParameterStorage(p.curToken.Type) && !(isTypeModifier(p.curToken.Type) && p.peekTokenIs(token.LPAREN)) {
			prm.Attributes = append(prm.Attributes, p.curToken.Type)
			p.nextToken()
		}
		next := p.peekToken.Type
		if lambda && p.curTokenIs(token.IDENT) && (next == token.COMMA || next == token.RPAREN || next == token.ASSIGN) {
			prm.DeclName = p.curToken.Lexeme
			p.nextToken()
		} else {
			if prm.Type = p.parseType(); prm.Type == nil {
				p.skipBalancedUntil(token.RPAREN)
				break
			}
			if p.curTokenIs(token.IDENT) {
				prm.DeclName = p.curToken.Lexeme
				p.nextToken()
			}
		}
		if p.curTokenIs(token.ELLIPSIS) {
			variadic = true
			p.nextToken()
		}
		if p.curTokenIs(token.ASSIGN) {
			p.nextToken()
			prm.Init = p.parseExpressionPast(COMMA)
		}
		params = append(params, at(p, start, prm))
		if !p.curTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	p.expectCur(token.RPAREN)
	return params, variadic
}

func (p *Parser) skipBalancedUntil(end token.TokenType) {
	for !p.curTokenIs(end) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.LPAREN) {
			p.skipBalanced()
			continue
		}
		p.nextToken()
	}
}

func isParameterStorage(t token.TokenType) bool {
	switch t {
	case token.REF, token.OUT, token.LAZY, token.SCOPE, token.IN, token.AUTO,
		token.CONST, token.IMMUTABLE, token.SHARED, token.INOUT, token.RETURN:
		return true
	}
	return false
}

// parseTemplateParameters parses `(T, int N = 3, alias F, Args...)` starting
// at '('.
func (p *Parser) parseTemplateParameters() []*ast.TemplateParameter {
	p.nextToken()
	params := p.parseTemplateParameterList(token.RPAREN)
	p.expectCur(token.RPAREN)
	if params == nil {
		params = []*ast.TemplateParameter{}
	}
	return params
}

// parseTemplateParameterList stops on end without consuming it.
func (p *Parser) parseTemplateParameterList(end token.TokenType) []*ast.TemplateParameter {
	var params []*ast.TemplateParameter
	for !p.curTokenIs(end) && !p.curTokenIs(token.EOF) {
		start := p.curToken
		tp := &ast.TemplateParameter{}
		next := p.peekToken.Type
		switch {
		case p.curTokenIs(token.ALIAS):
			tp.Kind = ast.TemplateAliasParameter
			p.nextToken()
		case p.curTokenIs(token.THIS):
			tp.Kind = ast.TemplateThisParameter
			p.nextToken()
		case p.curTokenIs(token.IDENT) && next == token.ELLIPSIS:
			tp.Kind = ast.TemplateTupleParameter
		case p.curTokenIs(token.IDENT) && (next == token.COMMA || next == end || next == token.COLON || next == token.ASSIGN):
			tp.Kind = ast.TemplateTypeParameter
		default:
			tp.Kind = ast.TemplateValueParameter
			if tp.ValueType = p.parseType(); tp.ValueType == nil {
				return params
			}
		}
		if !p.curTokenIs(token.IDENT) {
			p.errorf(diagnostics.ErrP002, p.curToken, "expected template parameter name, got %q", p.curToken.Lexeme)
			return params
		}
		tp.DeclName = p.curToken.Lexeme
		p.nextToken()
		if tp.Kind == ast.TemplateTupleParameter {
			p.nextToken()
		}

		if p.curTokenIs(token.COLON) {
			p.nextToken()
			if tp.Kind == ast.TemplateValueParameter {
				tp.SpecializationExpr = p.parseExpressionPast(COMMA)
			} else {
				tp.Specialization = p.parseType()
			}
		}
		if p.curTokenIs(token.ASSIGN) {
			p.nextToken()
			if tp.Kind == ast.TemplateValueParameter {
				tp.DefaultExpr = p.parseExpressionPast(COMMA)
			} else {
				m := p.mark()
				if t := p.parseType(); t != nil && len(p.errors) == m.errors && (p.curTokenIs(token.COMMA) || p.curTokenIs(end)) {
					tp.DefaultType = t
				} else {
					p.reset(m)
					tp.DefaultExpr = p.parseExpressionPast(COMMA)
				}
			}
		}
		params = append(params, at(p, start, tp))
		if !p.curTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	return params
}
