package resolver

import (
	"strings"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/typesystem"
)

// LookupDecls collects the declarations named name visible from node. The
// innermost scope holding a match wins; a scope's own members shadow what
// its imports bring in. The root module is searched last.
func (c *Context) LookupDecls(name string, from ast.Node) []ast.Decl {
	return c.lookupWhere(name, from, nil)
}

// lookupWhere is LookupDecls restricted to declarations accepted by keep.
// Scopes whose matches are all rejected do not stop the search.
func (c *Context) lookupWhere(name string, from ast.Node, keep func(ast.Decl) bool) []ast.Decl {
	if name == "" {
		return nil
	}
	sel := func(decls []ast.Decl) []ast.Decl {
		decls = c.filter(decls)
		if keep == nil {
			return decls
		}
		out := decls[:0:0]
		for _, d := range decls {
			if keep(d) {
				out = append(out, d)
			}
		}
		return out
	}
	caret := c.caretOf(from)
	seen := make(map[*ast.Module]bool)
	for _, scope := range c.scopeChain(from) {
		if m, ok := scope.(*ast.Module); ok {
			seen[m] = true
		}
		if found := sel(matching(scopeDecls(scope, caret), name)); len(found) > 0 {
			return found
		}
		if agg, ok := scope.(*ast.AggregateDecl); ok {
			if found := sel(c.inheritedDecls(agg, name, nil)); len(found) > 0 {
				return found
			}
		}
		if found := sel(c.searchImports(scopeImports(scope, caret), name, seen)); len(found) > 0 {
			return found
		}
	}
	if root := c.RootModuleAST(); root != nil && !seen[root] {
		return sel(c.searchModule(root, name, true, seen))
	}
	return nil
}

// LookupModuleScope resolves `.name`: only the module containing node and its
// imports are searched.
func (c *Context) LookupModuleScope(name string, from ast.Node) []ast.Decl {
	chain := c.scopeChain(from)
	if len(chain) == 0 {
		return nil
	}
	mod, ok := chain[len(chain)-1].(*ast.Module)
	if !ok {
		return nil
	}
	seen := map[*ast.Module]bool{mod: true}
	if found := c.filter(matching(mod.Members, name)); len(found) > 0 {
		return found
	}
	return c.filter(c.searchImports(mod.Imports(), name, seen))
}

// LookupSymbols resolves name to symbol types: declarations first, then a
// binding retained in the deduction dictionary, then module and package
// names.
func (c *Context) LookupSymbols(name string, from ast.Node) []typesystem.Type {
	if sym, ok := c.Current().Deduced[name]; ok && !sym.Bound() && scopeless(sym.Param) {
		// An is-expression parameter being deduced shadows outer declarations.
		return c.finish([]typesystem.Type{sym}, from, name)
	}
	decls := c.LookupDecls(name, from)
	out := make([]typesystem.Type, 0, len(decls))
	for _, d := range decls {
		if t := c.SymbolOf(d); t != nil {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		if sym, ok := c.Current().Deduced[name]; ok && sym.Bound() {
			out = append(out, sym)
		}
	}
	if len(out) == 0 {
		if t := c.moduleOrPackage(name); t != nil {
			out = append(out, t)
		}
	}
	return c.finish(out, from, name)
}

// scopeless reports template parameters that belong to no declaration:
// those of is-expressions and the alias names they bind.
func scopeless(p *ast.TemplateParameter) bool {
	if p == nil {
		return false
	}
	switch p.Parent().(type) {
	case nil, *ast.IsExpr:
		return true
	}
	return false
}

func matching(decls []ast.Decl, name string) []ast.Decl {
	var out []ast.Decl
	for _, d := range decls {
		if d.Name() == name {
			out = append(out, d)
		}
	}
	return out
}

func (c *Context) filter(decls []ast.Decl) []ast.Decl {
	if !c.Has(ReturnMethodsOnly) {
		return decls
	}
	out := decls[:0:0]
	for _, d := range decls {
		if _, ok := d.(*ast.FunctionDecl); ok {
			out = append(out, d)
		}
	}
	return out
}

// searchModule finds name among mod's members. From outside the module,
// private members are skipped and public imports are followed.
func (c *Context) searchModule(mod *ast.Module, name string, outside bool, seen map[*ast.Module]bool) []ast.Decl {
	var out []ast.Decl
	for _, d := range matching(mod.Members, name) {
		if outside && isPrivate(d) {
			continue
		}
		if imp, ok := d.(*ast.ImportDecl); ok && outside && !imp.Public {
			continue
		}
		out = append(out, d)
	}
	if len(out) > 0 || !outside {
		return out
	}
	var reexported []*ast.ImportDecl
	for _, imp := range mod.Imports() {
		if imp.Public {
			reexported = append(reexported, imp)
		}
	}
	return c.searchImports(reexported, name, seen)
}

// searchImports merges the matches of every import. Static and renamed
// imports only allow qualified access; selective imports limit the names.
func (c *Context) searchImports(imports []*ast.ImportDecl, name string, seen map[*ast.Module]bool) []ast.Decl {
	var out []ast.Decl
	for _, imp := range imports {
		if imp.Static || imp.Alias != "" {
			continue
		}
		if len(imp.Symbols) > 0 && !contains(imp.Symbols, name) {
			continue
		}
		mod := c.module(imp.ModuleName)
		if mod == nil || seen[mod] {
			continue
		}
		seen[mod] = true
		out = append(out, c.searchModule(mod, name, true, seen)...)
		delete(seen, mod)
	}
	return out
}

func (c *Context) module(name string) *ast.Module {
	if c.Modules == nil {
		return nil
	}
	return c.Modules.ByName(name)
}

// isPackage reports a dotted prefix shared by loaded module names.
func (c *Context) isPackage(name string) bool {
	if c.Modules == nil {
		return false
	}
	if p, ok := c.Modules.(interface{ IsPackage(string) bool }); ok {
		return p.IsPackage(name)
	}
	prefix := name + "."
	for _, m := range c.Modules.All() {
		if strings.HasPrefix(m.Name(), prefix) {
			return true
		}
	}
	return false
}

func (c *Context) moduleOrPackage(name string) typesystem.Type {
	if m := c.module(name); m != nil {
		return &typesystem.Module{Mod: m}
	}
	if c.isPackage(name) {
		return &typesystem.Package{Path: name}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
