package resolver

import (
	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/token"
)

// isScope reports nodes that introduce names.
func isScope(n ast.Node) bool {
	switch n := n.(type) {
	case *ast.Module, *ast.AggregateDecl, *ast.FunctionDecl, *ast.BlockStmt, *ast.EnumDecl:
		return true
	case *ast.AliasDecl:
		return len(n.TemplateParams) > 0
	}
	return false
}

// isScratch reports the unnamed module standalone expressions are linked into.
func isScratch(m *ast.Module) bool {
	return m != nil && m.ModuleName == "" && m.FilePath == ""
}

// ScopeAt returns the innermost scope of mod whose span contains caret, or
// mod itself.
func ScopeAt(mod *ast.Module, caret ast.Location) ast.Node {
	if mod == nil {
		return nil
	}
	var scope ast.Node = mod
	if caret.IsZero() {
		return scope
	}
	ast.Walk(mod, func(n ast.Node) bool {
		if n == ast.Node(mod) {
			return true
		}
		if !ast.Contains(n, caret) {
			return false
		}
		if isScope(n) {
			scope = n
		}
		return true
	})
	return scope
}

// statementAt returns the innermost statement of scope containing caret.
func statementAt(scope ast.Node, caret ast.Location) ast.Node {
	if scope == nil || caret.IsZero() {
		return nil
	}
	var stmt ast.Node
	ast.Walk(scope, func(n ast.Node) bool {
		if n != scope && !ast.Contains(n, caret) {
			return false
		}
		if _, ok := n.(ast.Stmt); ok {
			if _, block := n.(*ast.BlockStmt); !block {
				stmt = n
			}
		}
		return true
	})
	return stmt
}

// scopeChain lists the scopes visible from node, innermost first. Nodes of a
// standalone expression continue into the current frame's scope.
func (c *Context) scopeChain(from ast.Node) []ast.Node {
	chain := enclosingScopes(from)
	if len(chain) == 0 {
		return enclosingScopesInclusive(c.Current().Scope)
	}
	if m, ok := chain[len(chain)-1].(*ast.Module); ok && isScratch(m) {
		chain = append(chain[:len(chain)-1], enclosingScopesInclusive(c.Current().Scope)...)
	}
	return chain
}

func enclosingScopes(n ast.Node) []ast.Node {
	if n == nil {
		return nil
	}
	var out []ast.Node
	for p := n.Parent(); p != nil; p = p.Parent() {
		if isScope(p) {
			out = append(out, p)
		}
	}
	if m := n.Module(); m != nil && len(out) == 0 && ast.Node(m) != n {
		out = append(out, m)
	}
	return out
}

func enclosingScopesInclusive(n ast.Node) []ast.Node {
	if n == nil {
		return nil
	}
	out := enclosingScopes(n)
	if isScope(n) {
		out = append([]ast.Node{n}, out...)
	}
	if len(out) > 0 {
		if m, ok := out[len(out)-1].(*ast.Module); ok && isScratch(m) {
			out = out[:len(out)-1]
		}
	}
	return out
}

// caretOf is the position declarations must precede to be visible from
// node inside function bodies.
func (c *Context) caretOf(from ast.Node) ast.Location {
	if from == nil || isScratch(from.Module()) {
		return c.Current().Caret
	}
	return from.Start()
}

// scopeDecls returns the declarations scope makes visible at caret.
func scopeDecls(scope ast.Node, caret ast.Location) []ast.Decl {
	switch s := scope.(type) {
	case *ast.Module:
		return s.Members
	case *ast.AggregateDecl:
		out := make([]ast.Decl, 0, len(s.Members)+len(s.TemplateParams))
		for _, p := range s.TemplateParams {
			out = append(out, p)
		}
		return append(out, s.Members...)
	case *ast.FunctionDecl:
		out := make([]ast.Decl, 0, len(s.Params)+len(s.TemplateParams))
		for _, p := range s.TemplateParams {
			out = append(out, p)
		}
		for _, p := range s.Params {
			out = append(out, p)
		}
		return out
	case *ast.BlockStmt:
		var out []ast.Decl
		for _, st := range s.Statements {
			ds, ok := st.(*ast.DeclStmt)
			if !ok {
				continue
			}
			if !caret.IsZero() && !ds.Start().Before(caret) {
				break
			}
			out = append(out, ds.Decls...)
		}
		return out
	case *ast.EnumDecl:
		return s.MemberDecls()
	case *ast.AliasDecl:
		out := make([]ast.Decl, len(s.TemplateParams))
		for i, p := range s.TemplateParams {
			out[i] = p
		}
		return out
	}
	return nil
}

// scopeImports returns the import declarations of scope visible at caret.
func scopeImports(scope ast.Node, caret ast.Location) []*ast.ImportDecl {
	var out []*ast.ImportDecl
	for _, d := range scopeDecls(scope, caret) {
		if imp, ok := d.(*ast.ImportDecl); ok {
			out = append(out, imp)
		}
	}
	return out
}

// isPrivate reports declarations hidden from importing modules.
func isPrivate(d ast.Decl) bool {
	var attrs []token.TokenType
	switch d := d.(type) {
	case *ast.VariableDecl:
		attrs = d.Attributes
	case *ast.FunctionDecl:
		attrs = d.Attributes
	case *ast.AggregateDecl:
		attrs = d.Attributes
	case *ast.ImportDecl:
		return !d.Public
	}
	for _, a := range attrs {
		if a == token.PRIVATE {
			return true
		}
	}
	return false
}

// EnclosingAggregate returns the aggregate whose body contains node.
func (c *Context) EnclosingAggregate(from ast.Node) *ast.AggregateDecl {
	for _, s := range c.scopeChain(from) {
		if a, ok := s.(*ast.AggregateDecl); ok {
			return a
		}
	}
	return nil
}

// EnclosingFunction returns the function whose body contains node.
func (c *Context) EnclosingFunction(from ast.Node) *ast.FunctionDecl {
	for _, s := range c.scopeChain(from) {
		if f, ok := s.(*ast.FunctionDecl); ok {
			return f
		}
	}
	return nil
}
