package resolver

import (
	"sort"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/token"
	"github.com/funvibe/dsema/internal/typesystem"
)

// LookupMember finds the members named name of a scope-like symbol:
// aggregates (and their base classes), enums, modules and packages.
// Variables and pointers are looked through to the type they hold.
func (c *Context) LookupMember(scope typesystem.Type, name string) []typesystem.Type {
	deduced, target := c.memberScope(scope)
	var out []typesystem.Type
	switch t := target.(type) {
	case *typesystem.Aggregate:
		pop := c.WithDeduced(deduced)
		defer pop()
		for _, d := range c.filter(c.aggregateDecls(t.Decl, name)) {
			if s := c.SymbolOf(d); s != nil {
				out = append(out, s)
			}
		}

	case *typesystem.Enum:
		for _, m := range t.Decl.Members {
			if m.Name() == name {
				out = append(out, c.SymbolOf(m))
			}
		}

	case *typesystem.Module:
		for _, d := range c.filter(c.searchModule(t.Mod, name, true, map[*ast.Module]bool{t.Mod: true})) {
			if s := c.SymbolOf(d); s != nil {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			if sub := c.moduleOrPackage(t.Mod.Name() + "." + name); sub != nil {
				out = append(out, sub)
			}
		}

	case *typesystem.Package:
		if sub := c.moduleOrPackage(t.Path + "." + name); sub != nil {
			out = append(out, sub)
		}
	}
	return c.finish(out, typesystem.DeclNode(scope), name)
}

// memberScope reduces scope to the symbol whose members are searched and the
// template bindings they see.
func (c *Context) memberScope(scope typesystem.Type) (typesystem.DeducedParams, typesystem.Type) {
	t := typesystem.MustStrip(scope)
	for i := 0; i < 8 && t != nil; i++ {
		switch s := t.(type) {
		case *typesystem.Member, *typesystem.StaticProperty:
			t = typesystem.Underlying(s)
		case *typesystem.Pointer:
			if agg, ok := typesystem.MustStrip(s.Elem).(*typesystem.Aggregate); ok {
				return agg.Deduced, agg
			}
			return nil, nil
		case *typesystem.Aggregate:
			return s.Deduced, s
		case *typesystem.TemplateParameterSymbol:
			if s.Value != nil {
				t = s.Value.SymbolType()
			} else {
				return nil, nil
			}
		default:
			return nil, t
		}
	}
	return nil, t
}

// aggregateDecls returns the members of decl named name. Members of a class
// hide those of its base classes.
func (c *Context) aggregateDecls(decl *ast.AggregateDecl, name string) []ast.Decl {
	if found := matching(decl.Members, name); len(found) > 0 {
		return found
	}
	return c.inheritedDecls(decl, name, nil)
}

// inheritedDecls searches the base classes of decl.
func (c *Context) inheritedDecls(decl *ast.AggregateDecl, name string, seen map[*ast.AggregateDecl]bool) []ast.Decl {
	if seen == nil {
		seen = make(map[*ast.AggregateDecl]bool)
	}
	if seen[decl] {
		return nil
	}
	seen[decl] = true
	var out []ast.Decl
	for _, base := range c.baseAggregates(decl) {
		if found := matching(base.Members, name); len(found) > 0 {
			out = append(out, found...)
			continue
		}
		out = append(out, c.inheritedDecls(base, name, seen)...)
	}
	return out
}

// baseAggregates resolves decl's base class list to declarations.
func (c *Context) baseAggregates(decl *ast.AggregateDecl) []*ast.AggregateDecl {
	if len(decl.BaseClasses) == 0 {
		return nil
	}
	leave, ok := c.enter(decl)
	if !ok {
		return nil
	}
	defer leave()
	restore := c.WithOptions(StripAliases, ReportUnresolved)
	defer restore()
	var out []*ast.AggregateDecl
	for _, b := range decl.BaseClasses {
		if agg, ok := first(c.ResolveType(b)).(*typesystem.Aggregate); ok {
			out = append(out, agg.Decl)
		}
	}
	return out
}

// Constructors returns the constructors declared by an aggregate.
func (c *Context) Constructors(agg *typesystem.Aggregate) []*typesystem.Method {
	pop := c.WithDeduced(agg.Deduced)
	defer pop()
	var out []*typesystem.Method
	for _, d := range agg.Decl.Members {
		if fn, ok := d.(*ast.FunctionDecl); ok && fn.Kind == ast.FunctionConstructor {
			out = append(out, c.methodOf(fn))
		}
	}
	return out
}

// Fields returns the non-static data members of an aggregate in declaration
// order.
func (c *Context) Fields(agg *typesystem.Aggregate) []*typesystem.Member {
	pop := c.WithDeduced(agg.Deduced)
	defer pop()
	var out []*typesystem.Member
	for _, d := range agg.Decl.Members {
		v, ok := d.(*ast.VariableDecl)
		if !ok || v.HasAttribute(token.STATIC) || v.IsConstant() && v.Init != nil {
			continue
		}
		if m, ok := c.SymbolOf(v).(*typesystem.Member); ok {
			out = append(out, m)
		}
	}
	return out
}

// PublicFields narrows Fields to the members visible from outside the
// aggregate; they form the parameters of a struct's implicit constructor.
func (c *Context) PublicFields(agg *typesystem.Aggregate) []*typesystem.Member {
	var out []*typesystem.Member
	for _, f := range c.Fields(agg) {
		v := f.Decl.(*ast.VariableDecl)
		if v.HasAttribute(token.PRIVATE) || v.HasAttribute(token.PROTECTED) || v.HasAttribute(token.PACKAGE) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// MemberNames lists the names reachable through scope, sorted, for
// completion consumers.
func (c *Context) MemberNames(scope typesystem.Type) []string {
	_, target := c.memberScope(scope)
	names := make(map[string]bool)
	add := func(decls []ast.Decl) {
		for _, d := range decls {
			if d.Name() != "" {
				names[d.Name()] = true
			}
		}
	}
	switch t := target.(type) {
	case *typesystem.Aggregate:
		add(t.Decl.Members)
		seen := map[*ast.AggregateDecl]bool{t.Decl: true}
		queue := c.baseAggregates(t.Decl)
		for len(queue) > 0 {
			b := queue[0]
			queue = queue[1:]
			if seen[b] {
				continue
			}
			seen[b] = true
			add(b.Members)
			queue = append(queue, c.baseAggregates(b)...)
		}
	case *typesystem.Enum:
		add(t.Decl.MemberDecls())
	case *typesystem.Module:
		for _, d := range t.Mod.Members {
			if !isPrivate(d) {
				add([]ast.Decl{d})
			}
		}
	}
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
