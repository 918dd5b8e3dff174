package resolver

import (
	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/token"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
)

// unboundParams starts a deduction: every parameter maps to a fresh,
// unbound symbol.
func unboundParams(params []*ast.TemplateParameter) typesystem.DeducedParams {
	d := make(typesystem.DeducedParams, len(params))
	for _, p := range params {
		d[p.Name()] = &typesystem.TemplateParameterSymbol{Base: typesystem.Base{Origin: p}, Param: p}
	}
	return d
}

func bind(d typesystem.DeducedParams, p *ast.TemplateParameter, t typesystem.Type, v typesystem.Constant) *typesystem.TemplateParameterSymbol {
	sym := &typesystem.TemplateParameterSymbol{Base: typesystem.Base{Origin: p}, Param: p, Bind: t, Value: v}
	d[p.Name()] = sym
	return sym
}

// DeduceExplicit binds explicitly supplied template arguments to params in
// order. A trailing tuple parameter takes the remaining arguments.
func (c *Context) DeduceExplicit(params []*ast.TemplateParameter, args []ast.Node, site ast.Node) (typesystem.DeducedParams, bool) {
	d := unboundParams(params)
	for i := 0; i < len(args); i++ {
		if i >= len(params) {
			return nil, false
		}
		p := params[i]
		if p.Kind == ast.TemplateTupleParameter {
			tuple := &typesystem.Tuple{Base: typesystem.Base{Origin: site}}
			for _, a := range args[i:] {
				if t := c.argType(a); t != nil {
					tuple.Elems = append(tuple.Elems, t)
				} else if v, err := c.argValue(a); err == nil {
					tuple.Elems = append(tuple.Elems, &typesystem.TemplateParameterSymbol{Param: p, Value: v})
				} else {
					return nil, false
				}
			}
			bind(d, p, tuple, nil)
			return d, true
		}
		if !c.bindArg(p, args[i], d) {
			return nil, false
		}
	}
	return d, true
}

// bindArg binds one explicit argument according to the parameter's kind.
func (c *Context) bindArg(p *ast.TemplateParameter, arg ast.Node, d typesystem.DeducedParams) bool {
	switch p.Kind {
	case ast.TemplateTypeParameter, ast.TemplateThisParameter:
		t := c.argType(arg)
		if t == nil {
			return false
		}
		if p.Specialization != nil {
			spec := c.inDeduction(d, func() typesystem.Type { return first(c.resolveInner(p.Specialization)) })
			if spec == nil {
				return false
			}
			trial := d.Clone()
			if !c.matchType(spec, t, trial) {
				return false
			}
		}
		bind(d, p, t, nil)
		return true

	case ast.TemplateValueParameter:
		v, err := c.argValue(arg)
		if err != nil {
			return false
		}
		v, ok := c.checkValueParam(p, v, d)
		if !ok {
			return false
		}
		bind(d, p, nil, v)
		return true

	case ast.TemplateAliasParameter:
		if t := c.argType(arg); t != nil {
			bind(d, p, t, nil)
			return true
		}
		if id, ok := arg.(*ast.Identifier); ok {
			restore := c.WithOptions(0, StripAliases|ReportUnresolved)
			syms := c.LookupSymbols(id.Name, id)
			restore()
			if len(syms) > 0 {
				bind(d, p, syms[0], nil)
				return true
			}
		}
		if v, err := c.argValue(arg); err == nil {
			bind(d, p, nil, v)
			return true
		}
	}
	return false
}

// checkValueParam converts v to the parameter's declared type and checks
// its specialization, if any.
func (c *Context) checkValueParam(p *ast.TemplateParameter, v values.Value, d typesystem.DeducedParams) (values.Value, bool) {
	if p.ValueType != nil {
		vt := c.inDeduction(d, func() typesystem.Type { return first(c.resolveInner(p.ValueType)) })
		if vt != nil {
			if !IsImplicitlyConvertible(v.SymbolType(), vt) {
				return nil, false
			}
			if prim, ok := v.(*values.Primitive); ok {
				if target, ok := typesystem.Underlying(vt).(*typesystem.Primitive); ok {
					v = values.Convert(prim, target.Kind)
				}
			}
		}
	}
	if p.SpecializationExpr != nil {
		spec, err := c.argValue(p.SpecializationExpr)
		if err != nil || !values.Equal(v, spec) {
			return nil, false
		}
	}
	return v, true
}

// argType resolves a template argument that names a type. Arguments that
// denote values yield nil.
func (c *Context) argType(arg ast.Node) typesystem.Type {
	var t typesystem.Type
	switch a := arg.(type) {
	case ast.TypeNode:
		t = first(c.resolveInner(a))
	case *ast.TypeExpr:
		t = first(c.resolveInner(a.Type))
	case *ast.Identifier:
		restore := c.WithOptions(0, StripAliases|ReportUnresolved)
		t = first(c.LookupSymbols(a.Name, a))
		restore()
	case ast.Expr:
		if c.Evaluator != nil {
			t = first(c.Evaluator.TypeOf(c, a))
		}
	}
	if t == nil || !IsTypeDenotation(t) {
		return nil
	}
	return t
}

func (c *Context) argValue(arg ast.Node) (values.Value, error) {
	if c.Evaluator == nil {
		return nil, typesystem.NewUnresolvedSymbolError("", arg, "no evaluator for template value arguments")
	}
	return c.Evaluator.ValueOf(c, arg)
}

// inDeduction runs fn with d's parameters visible.
func (c *Context) inDeduction(d typesystem.DeducedParams, fn func() typesystem.Type) typesystem.Type {
	pop := c.WithDeduced(d)
	defer pop()
	return fn()
}

// FillDefaults binds parameters left open by deduction to their defaults.
// Defaults may refer to earlier parameters. It reports whether every
// parameter ends up bound.
func (c *Context) FillDefaults(params []*ast.TemplateParameter, d typesystem.DeducedParams) bool {
	pop := c.WithDeduced(d)
	defer pop()
	for _, p := range params {
		if sym, ok := d[p.Name()]; ok && sym.Bound() {
			continue
		}
		var sym *typesystem.TemplateParameterSymbol
		switch {
		case p.Kind == ast.TemplateTupleParameter:
			sym = bind(d, p, &typesystem.Tuple{}, nil)
		case p.DefaultType != nil:
			t := first(c.resolveInner(p.DefaultType))
			if t == nil {
				return false
			}
			sym = bind(d, p, t, nil)
		case p.DefaultExpr != nil:
			v, err := c.argValue(p.DefaultExpr)
			if err != nil {
				return false
			}
			if v, ok := c.checkValueParam(p, v, d); ok {
				sym = bind(d, p, nil, v)
			} else {
				return false
			}
		default:
			return false
		}
		c.Bind(sym)
	}
	return d.Complete()
}

// DeduceFromArguments matches the parameter types of a function template
// against argument types, starting from the bindings in d. Parameters not
// covered by arguments stay as they are; the result may be incomplete.
func (c *Context) DeduceFromArguments(fn *ast.FunctionDecl, d typesystem.DeducedParams, args []typesystem.Type) (typesystem.DeducedParams, bool) {
	if d == nil {
		d = unboundParams(fn.TemplateParams)
	} else {
		d = d.Clone()
	}
	pop := c.WithDeduced(d)
	defer pop()
	restore := c.WithOptions(0, StripAliases|ReportUnresolved)
	defer restore()

	for i, p := range fn.Params {
		if p.Type == nil {
			continue
		}
		pt := first(c.ResolveType(p.Type))
		if pt == nil {
			return nil, false
		}
		if sym, ok := pt.(*typesystem.TemplateParameterSymbol); ok && !sym.Bound() && sym.Param.Kind == ast.TemplateTupleParameter {
			rest := &typesystem.Tuple{}
			if i < len(args) {
				rest.Elems = append(rest.Elems, args[i:]...)
			}
			bind(d, sym.Param, rest, nil)
			break
		}
		if i >= len(args) {
			break
		}
		if !c.matchType(pt, args[i], d) {
			return nil, false
		}
	}
	return d, true
}

// matchType matches pattern, a type that may mention parameters of d,
// against actual, binding parameters as they are met. A parameter met a
// second time must accept the new type.
func (c *Context) matchType(pattern, actual typesystem.Type, d typesystem.DeducedParams) bool {
	return c.match(pattern, actual, d, 0)
}

func (c *Context) match(pattern, actual typesystem.Type, d typesystem.DeducedParams, depth int) bool {
	if depth > 32 {
		return false
	}
	pattern = typesystem.MustStrip(pattern)
	actual = typesystem.Underlying(actual)
	if pattern == nil || actual == nil {
		return false
	}
	if !mentions(pattern, d, 0) {
		return IsImplicitlyConvertible(actual, pattern)
	}

	switch p := pattern.(type) {
	case *typesystem.TemplateParameterSymbol:
		cur := d[p.Name()]
		if cur.Bound() {
			if cur.Value != nil || cur.Bind == nil {
				return false
			}
			return IsImplicitlyConvertible(actual, typesystem.WithModifiers(cur.Bind, p.Mods...))
		}
		bind(d, p.Param, stripModifiers(actual, p.Mods), nil)
		return true

	case *typesystem.Pointer:
		a, ok := actual.(*typesystem.Pointer)
		return ok && !a.IsNull() && c.match(p.Elem, a.Elem, d, depth+1)

	case *typesystem.Array:
		a, ok := actual.(*typesystem.Array)
		if !ok || (p.Static && (!a.Static || a.Length != p.Length)) {
			return false
		}
		return c.match(p.Elem, a.Elem, d, depth+1)

	case *typesystem.AssocArray:
		a, ok := actual.(*typesystem.AssocArray)
		return ok && c.match(p.Key, a.Key, d, depth+1) && c.match(p.Value, a.Value, d, depth+1)

	case *typesystem.Delegate:
		var params []typesystem.Parameter
		var ret typesystem.Type
		switch a := actual.(type) {
		case *typesystem.Delegate:
			params, ret = a.Params, a.Return
		case *typesystem.Method:
			params, ret = a.Params, a.Return
		default:
			return false
		}
		if len(params) != len(p.Params) {
			return false
		}
		for i := range params {
			if !c.match(p.Params[i].Type, params[i].Type, d, depth+1) {
				return false
			}
		}
		return p.Return == nil || c.match(p.Return, ret, d, depth+1)

	case *typesystem.Aggregate:
		a, ok := actual.(*typesystem.Aggregate)
		if !ok || a.Decl != p.Decl {
			return false
		}
		for name, ps := range p.Deduced {
			as, ok := a.Deduced[name]
			if !ok || !as.Bound() {
				return false
			}
			switch {
			case ps.Bind != nil:
				if as.Bind == nil || !c.match(ps.Bind, as.Bind, d, depth+1) {
					return false
				}
			case ps.Value != nil:
				if as.Value == nil || ps.Value.Inspect() != as.Value.Inspect() {
					return false
				}
			}
		}
		return true

	case *typesystem.Tuple:
		a, ok := actual.(*typesystem.Tuple)
		if !ok || len(a.Elems) != len(p.Elems) {
			return false
		}
		for i := range a.Elems {
			if !c.match(p.Elems[i], a.Elems[i], d, depth+1) {
				return false
			}
		}
		return true
	}
	return false
}

// mentions reports whether t refers to a parameter still unbound in d.
func mentions(t typesystem.Type, d typesystem.DeducedParams, depth int) bool {
	if t == nil || depth > 32 {
		return false
	}
	switch x := typesystem.MustStrip(t).(type) {
	case *typesystem.TemplateParameterSymbol:
		sym, ok := d[x.Name()]
		return ok && sym.Param == x.Param && !x.Bound()
	case *typesystem.Pointer:
		return mentions(x.Elem, d, depth+1)
	case *typesystem.Array:
		return mentions(x.Elem, d, depth+1)
	case *typesystem.AssocArray:
		return mentions(x.Key, d, depth+1) || mentions(x.Value, d, depth+1)
	case *typesystem.Delegate:
		for _, p := range x.Params {
			if mentions(p.Type, d, depth+1) {
				return true
			}
		}
		return mentions(x.Return, d, depth+1)
	case *typesystem.Aggregate:
		for _, s := range x.Deduced {
			if s.Bind != nil && mentions(s.Bind, d, depth+1) {
				return true
			}
		}
	case *typesystem.Tuple:
		for _, e := range x.Elems {
			if mentions(e, d, depth+1) {
				return true
			}
		}
	}
	return false
}

// stripModifiers removes from t the qualifiers a pattern like const(T)
// already accounts for. const and inout patterns absorb every constness.
func stripModifiers(t typesystem.Type, mods []token.TokenType) typesystem.Type {
	if len(mods) == 0 {
		return t
	}
	absorbs := func(m token.TokenType) bool {
		for _, x := range mods {
			if x == m {
				return true
			}
			if (x == token.CONST || x == token.INOUT) && (m == token.CONST || m == token.IMMUTABLE || m == token.INOUT) {
				return true
			}
		}
		return false
	}
	var keep []token.TokenType
	for _, m := range t.Modifiers() {
		if !absorbs(m) {
			keep = append(keep, m)
		}
	}
	return typesystem.WithModifiers(typesystem.WithoutModifiers(t), keep...)
}

// MatchIs decides an is-expression for the already resolved type t. The
// alias name and the expression's parameters are bound into the current
// frame on success.
func (c *Context) MatchIs(e *ast.IsExpr, t typesystem.Type) bool {
	if t == nil {
		return false
	}
	t = typesystem.MustStrip(t)
	if t == nil {
		return false
	}
	alias := t
	switch {
	case e.SpecToken != "":
		var ok bool
		alias, ok = c.matchSpecToken(e.SpecToken, t)
		if !ok {
			return false
		}

	case e.SpecType != nil:
		// The alias name takes part in deduction like a leading type
		// parameter, so `is(T U : U[])` binds U to the element type.
		params := e.Params
		var aliasParam *ast.TemplateParameter
		if e.AliasName != "" && !declaresParam(e.Params, e.AliasName) {
			aliasParam = &ast.TemplateParameter{Kind: ast.TemplateTypeParameter, DeclName: e.AliasName}
			params = append([]*ast.TemplateParameter{aliasParam}, e.Params...)
		}
		d := unboundParams(params)
		spec := c.inDeduction(d, func() typesystem.Type { return first(c.resolveInner(e.SpecType)) })
		if spec == nil || !c.matchType(spec, t, d) {
			return false
		}
		var deducedAlias typesystem.Type
		if aliasParam != nil {
			if sym := d[e.AliasName]; sym.Bound() {
				deducedAlias = sym.Bind
			}
		}
		if len(e.Params) > 0 && !c.FillDefaults(e.Params, d) {
			return false
		}
		target := typesystem.Substitute(spec, d)
		if e.Equality {
			if !typesystem.Equal(t, target) {
				return false
			}
		} else if !IsImplicitlyConvertible(t, target) {
			return false
		}
		for _, p := range e.Params {
			c.Bind(d[p.Name()])
		}
		if e.Equality {
			alias = target
		}
		if deducedAlias != nil {
			alias = deducedAlias
		}
	}
	if e.AliasName != "" {
		param := &ast.TemplateParameter{Kind: ast.TemplateAliasParameter, DeclName: e.AliasName}
		c.Bind(&typesystem.TemplateParameterSymbol{Base: typesystem.Base{Origin: e}, Param: param, Bind: alias})
	}
	return true
}

func declaresParam(params []*ast.TemplateParameter, name string) bool {
	for _, p := range params {
		if p.Name() == name {
			return true
		}
	}
	return false
}

// matchSpecToken checks the keyword forms of is(T == kw). The second result
// is what an alias in the expression binds to.
func (c *Context) matchSpecToken(tok token.TokenType, t typesystem.Type) (typesystem.Type, bool) {
	agg, _ := t.(*typesystem.Aggregate)
	switch tok {
	case token.STRUCT:
		return t, agg != nil && agg.Kind() == ast.AggregateStruct
	case token.UNION:
		return t, agg != nil && agg.Kind() == ast.AggregateUnion
	case token.CLASS:
		return t, agg != nil && agg.Kind() == ast.AggregateClass
	case token.INTERFACE:
		return t, agg != nil && agg.Kind() == ast.AggregateInterface
	case token.SUPER:
		if agg == nil || !isReference(agg) {
			return nil, false
		}
		return &typesystem.Tuple{Elems: agg.BaseClasses}, true
	case token.ENUM:
		e, ok := t.(*typesystem.Enum)
		if !ok {
			return nil, false
		}
		return e.BaseType, true
	case token.FUNCTION:
		switch f := t.(type) {
		case *typesystem.Delegate:
			return t, f.IsFunction
		case *typesystem.Method:
			return t, true
		}
		if p, ok := t.(*typesystem.Pointer); ok {
			if f, ok := typesystem.MustStrip(p.Elem).(*typesystem.Delegate); ok && f.IsFunction {
				return f, true
			}
		}
		return nil, false
	case token.DELEGATE:
		f, ok := t.(*typesystem.Delegate)
		return t, ok && !f.IsFunction
	case token.RETURN:
		switch f := t.(type) {
		case *typesystem.Delegate:
			return f.Return, true
		case *typesystem.Method:
			return f.Return, true
		}
		return nil, false
	case token.CONST, token.IMMUTABLE, token.SHARED, token.INOUT:
		for _, m := range t.Modifiers() {
			if m == tok {
				return t, true
			}
		}
		return nil, false
	}
	return nil, false
}
