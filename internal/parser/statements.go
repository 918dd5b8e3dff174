package parser

import (
	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/token"
)

// parseBlockStatement parses `{ ... }` starting at '{'.
func (p *Parser) parseBlockStatement() *ast.BlockStmt {
	start := p.curToken
	block := &ast.BlockStmt{}
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		before := p.pos
		if stmt := p.parseStatement(); stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		if p.pos == before {
			p.errorf(diagnostics.ErrP001, p.curToken, "unexpected token %q", p.curToken.Lexeme)
			p.nextToken()
		}
	}
	if !p.expectCur(token.RBRACE) {
		return nil
	}
	return at(p, start, block)
}

func (p *Parser) parseStatement() ast.Stmt {
	start := p.curToken
	switch p.curToken.Type {
	case token.SEMICOLON:
		p.nextToken()
		return nil
	case token.LBRACE:
		if b := p.parseBlockStatement(); b != nil {
			return b
		}
		return nil
	case token.RETURN:
		p.nextToken()
		ret := &ast.ReturnStmt{}
		if !p.curTokenIs(token.SEMICOLON) {
			if ret.X = p.parseExpressionPast(LOWEST); ret.X == nil {
				p.skipToSemicolon()
				return nil
			}
		}
		p.expectCur(token.SEMICOLON)
		return at(p, start, ret)
	case token.IF:
		return p.parseIfStatement()
	}

	if p.isDeclarationStart() {
		decls := p.parseDeclarations()
		if len(decls) == 0 {
			return nil
		}
		return at(p, start, &ast.DeclStmt{Decls: decls})
	}

	x := p.parseExpressionPast(LOWEST)
	if x == nil {
		p.skipToSemicolon()
		return nil
	}
	p.expectCur(token.SEMICOLON)
	return at(p, start, &ast.ExprStmt{X: x})
}

func (p *Parser) parseIfStatement() ast.Stmt {
	start := p.curToken
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt := &ast.IfStmt{Cond: p.parseExpression(LOWEST)}
	if stmt.Cond == nil || !p.expectPeek(token.RPAREN) {
		return nil
	}
	p.nextToken()
	if stmt.Then = p.parseStatement(); stmt.Then == nil {
		return nil
	}
	if p.curTokenIs(token.ELSE) {
		p.nextToken()
		if stmt.Else = p.parseStatement(); stmt.Else == nil {
			return nil
		}
	}
	return at(p, start, stmt)
}

// isDeclarationStart decides between a local declaration and an expression
// statement. `T x ...` is a declaration whenever T parses as a type.
func (p *Parser) isDeclarationStart() bool {
	switch p.curToken.Type {
	case token.ALIAS, token.STRUCT, token.CLASS, token.UNION, token.INTERFACE,
		token.ENUM, token.STATIC, token.AUTO, token.TEMPLATE, token.SCOPE:
		return true
	case token.IMPORT:
		return !p.peekTokenIs(token.LPAREN)
	case token.CONST, token.IMMUTABLE, token.SHARED, token.INOUT:
		if !p.peekTokenIs(token.LPAREN) {
			return true
		}
	}

	m := p.mark()
	defer p.reset(m)
	t := p.parseType()
	if t == nil || len(p.errors) != m.errors || !p.curTokenIs(token.IDENT) {
		return false
	}
	switch p.peekToken.Type {
	case token.ASSIGN, token.SEMICOLON, token.COMMA, token.LPAREN:
		return true
	}
	return false
}
