package resolver

import (
	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/token"
	"github.com/funvibe/dsema/internal/typesystem"
)

// SymbolOf builds the symbol type a declaration denotes in the current
// frame. Template parameters bound in the frame's deduction dictionary are
// used for the declaration's own parameters.
func (c *Context) SymbolOf(decl ast.Decl) typesystem.Type {
	switch d := decl.(type) {
	case *ast.VariableDecl:
		m := &typesystem.Member{Base: typesystem.Base{Origin: d}, Decl: d, Deduced: c.Current().Deduced}
		if !c.Has(DontResolveBaseTypes) {
			m.Type = c.variableType(d)
		}
		return m

	case *ast.FunctionDecl:
		return c.methodOf(d)

	case *ast.AggregateDecl:
		agg := &typesystem.Aggregate{Base: typesystem.Base{Origin: d}, Decl: d}
		if len(d.TemplateParams) > 0 {
			agg.Deduced = c.templateParams(d.TemplateParams)
		}
		if !c.Has(DontResolveBaseClasses) && len(d.BaseClasses) > 0 {
			leave, ok := c.enter(d)
			if ok {
				for _, b := range d.BaseClasses {
					if t := first(c.ResolveType(b)); t != nil {
						agg.BaseClasses = append(agg.BaseClasses, t)
					}
				}
				leave()
			}
		}
		return agg

	case *ast.EnumDecl:
		return c.enumOf(d)

	case *ast.EnumValueDecl:
		return c.enumMemberOf(d)

	case *ast.AliasDecl:
		return c.aliasOf(d)

	case *ast.TemplateParameter:
		if sym, ok := c.Current().Deduced[d.Name()]; ok && sym.Param == d {
			return sym
		}
		return &typesystem.TemplateParameterSymbol{Base: typesystem.Base{Origin: d}, Param: d}

	case *ast.ImportDecl:
		if m := c.module(d.ModuleName); m != nil {
			return &typesystem.Module{Base: typesystem.Base{Origin: d}, Mod: m}
		}
		return nil

	case *ast.Module:
		return &typesystem.Module{Base: typesystem.Base{Origin: d}, Mod: d}
	}
	return nil
}

// variableType resolves a variable's declared type, or infers it from the
// initializer for auto declarations. Storage classes const and immutable
// are layered onto the type.
func (c *Context) variableType(d *ast.VariableDecl) typesystem.Type {
	leave, ok := c.enter(d)
	if !ok {
		return nil
	}
	defer leave()

	var t typesystem.Type
	switch {
	case d.Type != nil:
		restore := c.WithOptions(0, StripAliases|ReportUnresolved)
		t = first(c.ResolveType(d.Type))
		restore()
	case d.Init != nil && c.Evaluator != nil:
		t = typesystem.Underlying(first(c.Evaluator.TypeOf(c, d.Init)))
	}
	if t == nil {
		return nil
	}
	for _, attr := range d.Attributes {
		if attr == token.CONST || attr == token.IMMUTABLE || attr == token.SHARED {
			t = typesystem.WithModifiers(t, attr)
		}
	}
	return t
}

// templateParams returns the bindings of params visible in the frame,
// unbound symbols for the rest.
func (c *Context) templateParams(params []*ast.TemplateParameter) typesystem.DeducedParams {
	d := make(typesystem.DeducedParams, len(params))
	for _, p := range params {
		if sym, ok := c.Current().Deduced[p.Name()]; ok && sym.Param == p {
			d[p.Name()] = sym
			continue
		}
		d[p.Name()] = &typesystem.TemplateParameterSymbol{Base: typesystem.Base{Origin: p}, Param: p}
	}
	return d
}

// methodOf resolves a function's signature. Auto return types are inferred
// from the first return statement with a value.
func (c *Context) methodOf(d *ast.FunctionDecl) *typesystem.Method {
	m := &typesystem.Method{Base: typesystem.Base{Origin: d}, Decl: d}
	if d.IsTemplate() {
		m.Deduced = c.templateParams(d.TemplateParams)
	}
	if c.Has(DontResolveBaseTypes) {
		return m
	}
	pop := c.WithDeduced(m.Deduced)
	defer pop()
	restore := c.WithOptions(0, StripAliases|ReportUnresolved)
	defer restore()

	if !c.resolveSignature(d, m) {
		return m
	}
	if d.Kind != ast.FunctionConstructor && d.ReturnType == nil {
		m.Return = c.inferReturn(d)
	}
	return m
}

func (c *Context) resolveSignature(d *ast.FunctionDecl, m *typesystem.Method) bool {
	leave, ok := c.enter(d)
	if !ok {
		return false
	}
	defer leave()
	for _, p := range d.Params {
		param := typesystem.Parameter{Name: p.Name(), HasDefault: p.Init != nil}
		if p.Type != nil {
			param.Type = first(c.ResolveType(p.Type))
		} else if p.Init != nil && c.Evaluator != nil {
			param.Type = typesystem.Underlying(first(c.Evaluator.TypeOf(c, p.Init)))
		}
		m.Params = append(m.Params, param)
	}
	switch {
	case d.Kind == ast.FunctionConstructor:
		if agg, ok := d.Parent().(*ast.AggregateDecl); ok {
			m.Return = c.SymbolOf(agg)
		}
	case d.ReturnType != nil:
		m.Return = first(c.ResolveType(d.ReturnType))
	}
	return true
}

// inferReturn types an auto function by its first `return X;`; a body
// without one returns void.
func (c *Context) inferReturn(d *ast.FunctionDecl) typesystem.Type {
	if d.Body == nil || c.Evaluator == nil {
		return nil
	}
	leave, ok := c.enter(d.Body)
	if !ok {
		return nil
	}
	defer leave()
	var ret *ast.ReturnStmt
	ast.Walk(d.Body, func(n ast.Node) bool {
		if ret != nil {
			return false
		}
		if _, nested := n.(*ast.FunctionLiteral); nested {
			return false
		}
		if r, ok := n.(*ast.ReturnStmt); ok && r.X != nil {
			ret = r
			return false
		}
		return true
	})
	if ret == nil {
		return typesystem.NewPrimitive(token.VOID)
	}
	return typesystem.Underlying(first(c.Evaluator.TypeOf(c, ret.X)))
}

func (c *Context) enumOf(d *ast.EnumDecl) *typesystem.Enum {
	e := &typesystem.Enum{Base: typesystem.Base{Origin: d}, Decl: d}
	if d.BaseType != nil {
		e.BaseType = first(c.ResolveType(d.BaseType))
	}
	if e.BaseType == nil {
		e.BaseType = typesystem.NewPrimitive(token.INT_KW)
	}
	return e
}

// enumMemberOf types an enum member: members of named enums have the enum's
// type, members of anonymous enums their own or their initializer's.
func (c *Context) enumMemberOf(d *ast.EnumValueDecl) typesystem.Type {
	m := &typesystem.Member{Base: typesystem.Base{Origin: d}, Decl: d}
	parent, _ := d.Parent().(*ast.EnumDecl)
	switch {
	case parent != nil && parent.Name() != "":
		m.Type = c.enumOf(parent)
	case d.Type != nil:
		m.Type = first(c.ResolveType(d.Type))
	case d.Init != nil && c.Evaluator != nil:
		if leave, ok := c.enter(d); ok {
			m.Type = typesystem.Underlying(first(c.Evaluator.TypeOf(c, d.Init)))
			leave()
		}
	case parent != nil:
		m.Type = c.enumOf(parent).BaseType
	}
	if m.Type == nil {
		m.Type = typesystem.NewPrimitive(token.INT_KW)
	}
	return m
}

// aliasOf resolves an alias declaration. An alias reached again while its
// own target is being resolved is left without a target and reported, so
// stripping it fails instead of looping.
func (c *Context) aliasOf(d *ast.AliasDecl) *typesystem.Alias {
	a := &typesystem.Alias{Base: typesystem.Base{Origin: d}, Decl: d}
	if len(d.TemplateParams) > 0 {
		a.Deduced = c.templateParams(d.TemplateParams)
	}
	leave, ok := c.enter(d)
	if !ok {
		c.Report(diagnostics.ErrR003, d, 0, "alias %s refers to itself", d.Name())
		return a
	}
	defer leave()
	pop := c.WithDeduced(a.Deduced)
	defer pop()
	restore := c.WithOptions(0, StripAliases|ReportUnresolved)
	defer restore()
	a.Target = first(c.ResolveType(d.Type))
	return a
}

// Instantiate builds decl's symbol with the template bindings d.
func (c *Context) Instantiate(decl ast.Decl, d typesystem.DeducedParams) typesystem.Type {
	pop := c.WithDeduced(d)
	defer pop()
	return c.SymbolOf(decl)
}

// TemplateParamsOf returns a declaration's template parameter list.
func TemplateParamsOf(decl ast.Decl) []*ast.TemplateParameter {
	switch d := decl.(type) {
	case *ast.FunctionDecl:
		return d.TemplateParams
	case *ast.AggregateDecl:
		return d.TemplateParams
	case *ast.AliasDecl:
		return d.TemplateParams
	}
	return nil
}

func first(ts []typesystem.Type) typesystem.Type {
	if len(ts) == 0 {
		return nil
	}
	return ts[0]
}
