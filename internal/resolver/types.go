package resolver

import (
	"fortio.org/safecast"
	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/config"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/prettyprinter"
	"github.com/funvibe/dsema/internal/token"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
)

// ResolveType resolves a type as written in source to every symbol type it
// may denote. An empty result is not an error.
func (c *Context) ResolveType(node ast.TypeNode) []typesystem.Type {
	if node == nil {
		return nil
	}
	var out []typesystem.Type
	origin := typesystem.Base{Origin: node}

	switch n := node.(type) {
	case *ast.PrimitiveType:
		out = append(out, &typesystem.Primitive{Base: origin, Kind: n.Kind})

	case *ast.IdentifierType:
		out = c.resolveIdentifierType(n)

	case *ast.TemplateInstanceType:
		out = c.resolveTemplateInstanceType(n)

	case *ast.PointerType:
		for _, elem := range c.resolveInner(n.Elem) {
			out = append(out, &typesystem.Pointer{Base: origin, Elem: elem})
		}

	case *ast.ArrayType:
		out = c.resolveArrayType(n)

	case *ast.DelegateType:
		d := &typesystem.Delegate{Base: origin, IsFunction: n.IsFunction}
		d.Return = first(c.resolveInner(n.Return))
		for _, p := range n.Params {
			d.Params = append(d.Params, typesystem.Parameter{
				Name:       p.Name(),
				Type:       first(c.resolveInner(p.Type)),
				HasDefault: p.Init != nil,
			})
		}
		out = append(out, d)

	case *ast.TypeofType:
		if c.Evaluator != nil {
			for _, t := range c.Evaluator.TypeOf(c, n.X) {
				if u := typesystem.Underlying(t); u != nil {
					out = append(out, u)
				}
			}
		}

	case *ast.ModifiedType:
		for _, elem := range c.resolveInner(n.Elem) {
			out = append(out, typesystem.WithModifiers(elem, n.Modifier))
		}
	}
	return c.finish(out, node, prettyprinter.Print(node))
}

// resolveInner resolves a nested type node keeping aliases, so the outer
// type renders the way it was written.
func (c *Context) resolveInner(node ast.TypeNode) []typesystem.Type {
	if node == nil {
		return nil
	}
	restore := c.WithOptions(0, StripAliases|ReportUnresolved)
	defer restore()
	return c.ResolveType(node)
}

func (c *Context) resolveIdentifierType(n *ast.IdentifierType) []typesystem.Type {
	if n.Inner == nil {
		if n.ModuleScoped {
			var out []typesystem.Type
			for _, d := range c.LookupModuleScope(n.Name, n) {
				out = append(out, c.SymbolOf(d))
			}
			return out
		}
		restore := c.WithOptions(0, StripAliases|ReportUnresolved)
		defer restore()
		return c.LookupSymbols(n.Name, n)
	}
	var out []typesystem.Type
	for _, scope := range c.resolveQualifier(n.Inner) {
		out = append(out, c.LookupMember(scope, n.Name)...)
	}
	return out
}

// resolveQualifier resolves the `a.b` part of `a.b.C` with aliases stripped
// and without reporting.
func (c *Context) resolveQualifier(inner ast.TypeNode) []typesystem.Type {
	restore := c.WithOptions(StripAliases, ReportUnresolved)
	defer restore()
	return c.ResolveType(inner)
}

func (c *Context) resolveTemplateInstanceType(n *ast.TemplateInstanceType) []typesystem.Type {
	var candidates []typesystem.Type
	if n.Inner == nil {
		restore := c.WithOptions(0, StripAliases|ReportUnresolved)
		candidates = c.LookupSymbols(n.Name, n)
		restore()
	} else {
		for _, scope := range c.resolveQualifier(n.Inner) {
			candidates = append(candidates, c.LookupMember(scope, n.Name)...)
		}
	}
	if c.Has(NoTemplateDeduction) {
		return candidates
	}
	return c.InstantiateAll(candidates, n.Args, n)
}

// InstantiateAll applies explicit template arguments to every candidate that
// accepts them. Function templates may stay partially deduced; the rest of
// their parameters come from call arguments.
func (c *Context) InstantiateAll(candidates []typesystem.Type, args []ast.Node, site ast.Node) []typesystem.Type {
	var out []typesystem.Type
	for _, cand := range candidates {
		decl := typesystem.DeclNode(cand)
		params := TemplateParamsOf(decl)
		if params == nil {
			continue
		}
		d, ok := c.DeduceExplicit(params, args, site)
		if !ok {
			continue
		}
		if _, isFunc := decl.(*ast.FunctionDecl); !isFunc {
			if !c.FillDefaults(params, d) {
				continue
			}
		}
		if t := c.Instantiate(decl, d); t != nil {
			out = append(out, t)
		}
	}
	if len(out) == 0 && len(candidates) > 0 {
		c.Report(diagnostics.ErrR004, site, len(candidates), "cannot instantiate %s with the given arguments",
			typesystem.Name(candidates[0]))
	}
	return out
}

func (c *Context) resolveArrayType(n *ast.ArrayType) []typesystem.Type {
	origin := typesystem.Base{Origin: n}
	elems := c.resolveInner(n.Elem)
	var out []typesystem.Type
	switch {
	case n.IsAssociative():
		key := first(c.resolveInner(n.KeyType))
		// `T[N]` where N names a constant parses as an associative array.
		if m, ok := key.(*typesystem.Member); ok {
			if length, ok := c.staticLength(n.KeyType); ok {
				for _, e := range elems {
					out = append(out, &typesystem.Array{Base: origin, Elem: e, Static: true, Length: length})
				}
				return out
			}
			key = m.Type
		}
		for _, e := range elems {
			out = append(out, &typesystem.AssocArray{Base: origin, Key: key, Value: e})
		}
	case n.IsStatic():
		length, ok := c.staticLength(n.KeyExpr)
		if !ok {
			return nil
		}
		for _, e := range elems {
			out = append(out, &typesystem.Array{Base: origin, Elem: e, Static: true, Length: length})
		}
	default:
		for _, e := range elems {
			out = append(out, &typesystem.Array{Base: origin, Elem: e})
		}
	}
	return out
}

// staticLength evaluates a static array dimension. Integer literals are
// read directly.
func (c *Context) staticLength(n ast.Node) (int, bool) {
	if lit, ok := n.(*ast.Literal); ok && lit.Kind == ast.LiteralInt && lit.Int != nil && lit.Int.IsInt64() {
		length, err := safecast.Conv[int](lit.Int.Int64())
		return length, err == nil && length >= 0
	}
	if c.Evaluator == nil {
		return 0, false
	}
	v, err := c.Evaluator.ValueOf(c, n)
	if err != nil {
		return 0, false
	}
	p, ok := v.(*values.Primitive)
	if !ok || !p.IsIntegral() {
		return 0, false
	}
	length, err := p.ToInt()
	if err != nil || length < 0 {
		return 0, false
	}
	return length, true
}

// IsTypeDenotation reports symbol types that name a type rather than a
// value.
func IsTypeDenotation(t typesystem.Type) bool {
	switch s := typesystem.MustStrip(t).(type) {
	case *typesystem.Primitive, *typesystem.Pointer, *typesystem.Array, *typesystem.AssocArray,
		*typesystem.Delegate, *typesystem.Aggregate, *typesystem.Enum, *typesystem.Tuple:
		return true
	case *typesystem.TemplateParameterSymbol:
		return s.Value == nil
	}
	return false
}

// StringType returns the type of string literals of the given character
// kind, taken from the root module's alias when present.
func (c *Context) StringType(kind token.TokenType) *typesystem.Array {
	name := map[token.TokenType]string{
		token.CHAR_KW: config.StringAliasName,
		token.WCHAR:   config.WStringAliasName,
		token.DCHAR:   config.DStringAliasName,
	}[kind]
	if root := c.RootModuleAST(); root != nil && name != "" {
		for _, d := range matching(root.Members, name) {
			if a, ok := d.(*ast.AliasDecl); ok {
				if arr, ok := typesystem.MustStrip(c.aliasOf(a)).(*typesystem.Array); ok {
					return arr
				}
			}
		}
	}
	return values.StringType(kind)
}

// SizeT returns the root module's size_t, or ulong.
func (c *Context) SizeT() typesystem.Type {
	if root := c.RootModuleAST(); root != nil {
		for _, d := range matching(root.Members, config.SizeTAliasName) {
			if a, ok := d.(*ast.AliasDecl); ok {
				if t := typesystem.MustStrip(c.aliasOf(a)); t != nil {
					return t
				}
			}
		}
	}
	return typesystem.NewPrimitive(token.ULONG)
}
