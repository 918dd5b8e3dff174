package typesystem

import (
	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/token"
)

// StripAliases follows Alias targets and type-bound template parameters until
// a non-alias variant is reached. A chain that revisits an alias fails with
// an UnresolvedSymbolError.
func StripAliases(t Type) (Type, error) {
	visited := make(map[Type]bool)
	params := make(map[*ast.TemplateParameter]bool)
	for {
		switch typ := t.(type) {
		case *Alias:
			if visited[typ] {
				return nil, NewUnresolvedSymbolError(Name(typ), typ.Origin, "alias refers to itself")
			}
			visited[typ] = true
			if typ.Target == nil {
				return nil, NewUnresolvedSymbolError(Name(typ), typ.Origin, "alias target is unresolved")
			}
			t = WithModifiers(typ.Target, typ.Mods...)
		case *TemplateParameterSymbol:
			if typ.Bind == nil || typ.Value != nil {
				return t, nil
			}
			if params[typ.Param] {
				return nil, NewUnresolvedSymbolError(typ.Name(), typ.Origin, "template parameter bound to itself")
			}
			params[typ.Param] = true
			t = WithModifiers(typ.Bind, typ.Mods...)
		default:
			return t, nil
		}
	}
}

// MustStrip is StripAliases for callers that treat a cycle as "no type".
func MustStrip(t Type) Type {
	s, err := StripAliases(t)
	if err != nil {
		return nil
	}
	return s
}

// Underlying strips aliases and then unwraps symbols that stand for a value
// of some type (variables, enum members, methods) to that type.
func Underlying(t Type) Type {
	visited := make(map[Type]bool)
	for t != nil && !visited[t] {
		visited[t] = true
		t = MustStrip(t)
		switch typ := t.(type) {
		case *Member:
			t = typ.Type
		case *Method:
			t = typ.Return
		case *StaticProperty:
			t = typ.Type
		case *TemplateParameterSymbol:
			if typ.Value != nil {
				t = typ.Value.SymbolType()
			} else {
				return t
			}
		default:
			return t
		}
	}
	return t
}

// Equal compares two symbol types structurally after alias stripping.
// Modifiers take part in the comparison.
func Equal(a, b Type) bool {
	return equal(a, b, true)
}

// EqualIgnoringModifiers is Equal without comparing const/immutable layers.
func EqualIgnoringModifiers(a, b Type) bool {
	return equal(a, b, false)
}

func equal(a, b Type, mods bool) bool {
	a, b = MustStrip(a), MustStrip(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if mods && !sameModifiers(a.Modifiers(), b.Modifiers()) {
		return false
	}
	switch x := a.(type) {
	case *Primitive:
		y, ok := b.(*Primitive)
		return ok && x.Kind == y.Kind
	case *Pointer:
		y, ok := b.(*Pointer)
		if !ok || (x.Elem == nil) != (y.Elem == nil) {
			return false
		}
		return x.Elem == nil || equal(x.Elem, y.Elem, mods)
	case *Array:
		y, ok := b.(*Array)
		return ok && x.Static == y.Static && (!x.Static || x.Length == y.Length) && equal(x.Elem, y.Elem, mods)
	case *AssocArray:
		y, ok := b.(*AssocArray)
		return ok && equal(x.Key, y.Key, mods) && equal(x.Value, y.Value, mods)
	case *Delegate:
		y, ok := b.(*Delegate)
		if !ok || x.IsFunction != y.IsFunction || len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if !equal(x.Params[i].Type, y.Params[i].Type, mods) {
				return false
			}
		}
		return equal(x.Return, y.Return, mods)
	case *Aggregate:
		y, ok := b.(*Aggregate)
		return ok && x.Decl == y.Decl && equalDeduced(x.Deduced, y.Deduced)
	case *Enum:
		y, ok := b.(*Enum)
		return ok && x.Decl == y.Decl
	case *Member:
		y, ok := b.(*Member)
		return ok && x.Decl == y.Decl
	case *Method:
		y, ok := b.(*Method)
		return ok && x.Decl == y.Decl && equalDeduced(x.Deduced, y.Deduced)
	case *Module:
		y, ok := b.(*Module)
		return ok && x.Mod == y.Mod
	case *Package:
		y, ok := b.(*Package)
		return ok && x.Path == y.Path
	case *Tuple:
		y, ok := b.(*Tuple)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !equal(x.Elems[i], y.Elems[i], mods) {
				return false
			}
		}
		return true
	case *TemplateParameterSymbol:
		y, ok := b.(*TemplateParameterSymbol)
		return ok && x.Param == y.Param
	case *StaticProperty:
		y, ok := b.(*StaticProperty)
		return ok && x.Name == y.Name && equal(x.Owner, y.Owner, mods)
	}
	return false
}

func equalDeduced(a, b DeducedParams) bool {
	if len(a) != len(b) {
		return false
	}
	for k, x := range a {
		y, ok := b[k]
		if !ok {
			return false
		}
		switch {
		case x.Bind != nil && y.Bind != nil:
			if !Equal(x.Bind, y.Bind) {
				return false
			}
		case x.Value != nil && y.Value != nil:
			if x.Value.Inspect() != y.Value.Inspect() {
				return false
			}
		case x.Bound() || y.Bound():
			return false
		}
	}
	return true
}

func sameModifiers(a, b []token.TokenType) bool {
	if len(a) != len(b) {
		return false
	}
	return len(missing(a, b)) == 0
}

// Substitute replaces unbound template parameter symbols in t with their
// bindings from d. Bindings that lead back to a parameter already being
// substituted are left as they are.
func Substitute(t Type, d DeducedParams) Type {
	if len(d) == 0 {
		return t
	}
	return substitute(t, d, make(map[string]bool))
}

func substitute(t Type, d DeducedParams, visited map[string]bool) Type {
	if t == nil {
		return nil
	}
	switch typ := t.(type) {
	case *TemplateParameterSymbol:
		if typ.Bound() {
			return typ
		}
		name := typ.Name()
		if visited[name] {
			return typ
		}
		bound, ok := d[name]
		if !ok || !bound.Bound() {
			return typ
		}
		if bound.Value != nil {
			return bound
		}
		newVisited := copyVisited(visited)
		newVisited[name] = true
		return WithModifiers(substitute(bound.Bind, d, newVisited), typ.Mods...)

	case *Pointer:
		if typ.Elem == nil {
			return typ
		}
		c := *typ
		c.Elem = substitute(typ.Elem, d, visited)
		return &c

	case *Array:
		c := *typ
		c.Elem = substitute(typ.Elem, d, visited)
		return &c

	case *AssocArray:
		c := *typ
		c.Key = substitute(typ.Key, d, visited)
		c.Value = substitute(typ.Value, d, visited)
		return &c

	case *Delegate:
		c := *typ
		c.Params = substituteParams(typ.Params, d, visited)
		c.Return = substitute(typ.Return, d, visited)
		return &c

	case *Method:
		c := *typ
		c.Params = substituteParams(typ.Params, d, visited)
		c.Return = substitute(typ.Return, d, visited)
		return &c

	case *Member:
		c := *typ
		c.Type = substitute(typ.Type, d, visited)
		return &c

	case *Alias:
		c := *typ
		c.Target = substitute(typ.Target, d, visited)
		return &c

	case *Tuple:
		c := *typ
		c.Elems = make([]Type, len(typ.Elems))
		for i, e := range typ.Elems {
			c.Elems[i] = substitute(e, d, visited)
		}
		return &c
	}
	return t
}

func substituteParams(params []Parameter, d DeducedParams, visited map[string]bool) []Parameter {
	out := make([]Parameter, len(params))
	for i, p := range params {
		out[i] = p
		out[i].Type = substitute(p.Type, d, visited)
	}
	return out
}

func copyVisited(visited map[string]bool) map[string]bool {
	out := make(map[string]bool, len(visited)+1)
	for k, v := range visited {
		out[k] = v
	}
	return out
}
