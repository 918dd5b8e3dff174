package parser

import (
	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/token"
)

// Type parsing functions leave curToken on the first token after the type.

func (p *Parser) parseType() ast.TypeNode {
	start := p.curToken
	t := p.parseBasicType()
	if t == nil {
		return nil
	}
	return p.parseTypeSuffixes(start, t)
}

func isTypeModifier(t token.TokenType) bool {
	switch t {
	case token.CONST, token.IMMUTABLE, token.SHARED, token.INOUT:
		return true
	}
	return false
}

func (p *Parser) parseBasicType() ast.TypeNode {
	start := p.curToken
	switch {
	case isTypeModifier(p.curToken.Type):
		mod := p.curToken.Type
		p.nextToken()
		var inner ast.TypeNode
		if p.curTokenIs(token.LPAREN) {
			p.nextToken()
			inner = p.parseType()
			if inner == nil || !p.expectCur(token.RPAREN) {
				return nil
			}
		} else if inner = p.parseType(); inner == nil {
			return nil
		}
		return at(p, start, &ast.ModifiedType{Modifier: mod, Elem: inner})

	case primitiveKinds[p.curToken.Type]:
		p.nextToken()
		return at(p, start, &ast.PrimitiveType{Kind: start.Type})

	case p.curTokenIs(token.TYPEOF):
		if !p.expectPeek(token.LPAREN) {
			return nil
		}
		p.nextToken()
		x := p.parseExpression(LOWEST)
		if x == nil || !p.expectPeek(token.RPAREN) {
			return nil
		}
		p.nextToken()
		return at(p, start, &ast.TypeofType{X: x})

	case p.curTokenIs(token.DOT):
		p.nextToken()
		return p.parseQualifiedType(start, true)

	case p.curTokenIs(token.IDENT):
		return p.parseQualifiedType(start, false)
	}

	p.errorf(diagnostics.ErrP002, p.curToken, "expected type, got %q", p.curToken.Lexeme)
	return nil
}

// parseQualifiedType parses `a.b!(T).C`.
func (p *Parser) parseQualifiedType(start token.Token, moduleScoped bool) ast.TypeNode {
	var t ast.TypeNode
	for {
		if !p.curTokenIs(token.IDENT) {
			p.errorf(diagnostics.ErrP002, p.curToken, "expected type name, got %q", p.curToken.Lexeme)
			return nil
		}
		name := p.curToken.Lexeme
		if p.peekTokenIs(token.BANG) && p.startsTemplateArgs() {
			p.nextToken()
			args := p.parseTemplateArgs()
			if args == nil {
				return nil
			}
			p.nextToken()
			t = at(p, start, &ast.TemplateInstanceType{Name: name, Inner: t, Args: args})
		} else {
			p.nextToken()
			t = at(p, start, &ast.IdentifierType{Name: name, Inner: t, ModuleScoped: moduleScoped && t == nil})
		}
		if p.curTokenIs(token.DOT) && p.peekTokenIs(token.IDENT) {
			p.nextToken()
			continue
		}
		return t
	}
}

func (p *Parser) parseTypeSuffixes(start token.Token, t ast.TypeNode) ast.TypeNode {
	for {
		switch p.curToken.Type {
		case token.ASTERISK:
			p.nextToken()
			t = at(p, start, &ast.PointerType{Elem: t})

		case token.LBRACKET:
			p.nextToken()
			if p.curTokenIs(token.RBRACKET) {
				p.nextToken()
				t = at(p, start, &ast.ArrayType{Elem: t})
				continue
			}
			arr := &ast.ArrayType{Elem: t}
			m := p.mark()
			if key := p.parseType(); key != nil && len(p.errors) == m.errors && p.curTokenIs(token.RBRACKET) {
				arr.KeyType = key
			} else {
				p.reset(m)
				if arr.KeyExpr = p.parseExpression(LOWEST); arr.KeyExpr == nil || !p.expectPeek(token.RBRACKET) {
					return nil
				}
			}
			p.nextToken()
			t = at(p, start, arr)

		case token.DELEGATE, token.FUNCTION:
			isFunction := p.curTokenIs(token.FUNCTION)
			p.nextToken()
			if !p.curTokenIs(token.LPAREN) {
				p.errorf(diagnostics.ErrP002, p.curToken, "expected '(' after delegate")
				return nil
			}
			params, _ := p.parseParameters(false)
			t = at(p, start, &ast.DelegateType{Return: t, Params: params, IsFunction: isFunction})

		default:
			return t
		}
	}
}
