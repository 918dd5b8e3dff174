package resolver

import (
	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/token"
	"github.com/funvibe/dsema/internal/typesystem"
)

// IsImplicitlyConvertible reports whether a value of type from may be used
// where to is expected without a cast. Variables and enum members convert
// like their types; an unbound template parameter accepts anything.
func IsImplicitlyConvertible(from, to typesystem.Type) bool {
	return convertible(typesystem.Underlying(from), typesystem.Underlying(to), 0)
}

func convertible(from, to typesystem.Type, depth int) bool {
	if from == nil || to == nil || depth > 32 {
		return false
	}
	if sym, ok := to.(*typesystem.TemplateParameterSymbol); ok && !sym.Bound() {
		return true
	}
	if typesystem.Equal(from, to) {
		return true
	}
	if !modifiersConvert(from, to) {
		return false
	}

	switch t := to.(type) {
	case *typesystem.Primitive:
		return primitiveConvertible(from, t)

	case *typesystem.Pointer:
		f, ok := from.(*typesystem.Pointer)
		if !ok {
			return false
		}
		if f.IsNull() {
			return true
		}
		if p, ok := typesystem.MustStrip(t.Elem).(*typesystem.Primitive); ok && p.IsVoid() {
			return true
		}
		return refConvertible(f.Elem, t.Elem, depth)

	case *typesystem.Array:
		switch f := from.(type) {
		case *typesystem.Pointer:
			return f.IsNull() && !t.Static
		case *typesystem.Array:
			if t.Static {
				return f.Static && f.Length == t.Length && refConvertible(f.Elem, t.Elem, depth)
			}
			return refConvertible(f.Elem, t.Elem, depth)
		}
		return false

	case *typesystem.AssocArray:
		switch f := from.(type) {
		case *typesystem.Pointer:
			return f.IsNull()
		case *typesystem.AssocArray:
			return typesystem.EqualIgnoringModifiers(f.Key, t.Key) && refConvertible(f.Value, t.Value, depth)
		}
		return false

	case *typesystem.Delegate:
		switch f := from.(type) {
		case *typesystem.Pointer:
			return f.IsNull()
		case *typesystem.Delegate:
			// Function literals also convert to delegates.
			if f.IsFunction != t.IsFunction && !(f.IsFunction && f.IsLiteral()) {
				return false
			}
			return sameSignature(f.Params, f.Return, t.Params, t.Return)
		case *typesystem.Method:
			return sameSignature(f.Params, f.Return, t.Params, t.Return)
		}
		return false

	case *typesystem.Aggregate:
		switch f := from.(type) {
		case *typesystem.Pointer:
			return f.IsNull() && isReference(t)
		case *typesystem.Aggregate:
			if !isReference(t) {
				return typesystem.EqualIgnoringModifiers(f, t)
			}
			return derivesFrom(f, t, depth)
		}
		return false

	case *typesystem.Enum:
		f, ok := from.(*typesystem.Enum)
		return ok && f.Decl == t.Decl

	case *typesystem.Tuple:
		f, ok := from.(*typesystem.Tuple)
		if !ok || len(f.Elems) != len(t.Elems) {
			return false
		}
		for i := range f.Elems {
			if !convertible(typesystem.Underlying(f.Elems[i]), typesystem.Underlying(t.Elems[i]), depth+1) {
				return false
			}
		}
		return true
	}
	return false
}

// primitiveConvertible covers the arithmetic conversions. Integral values
// widen, any real or integral value converts to a real or complex kind, and
// imaginary values stay imaginary.
func primitiveConvertible(from typesystem.Type, to *typesystem.Primitive) bool {
	var kind token.TokenType
	switch f := from.(type) {
	case *typesystem.Primitive:
		kind = f.Kind
	case *typesystem.Enum:
		p, ok := typesystem.Underlying(f.BaseType).(*typesystem.Primitive)
		if !ok {
			return false
		}
		kind = p.Kind
	default:
		return false
	}
	switch {
	case to.IsVoid():
		return kind == token.VOID
	case to.IsBool():
		return kind == token.BOOL
	case to.IsIntegral():
		return token.IsIntegral(kind) && token.SizeOf(kind) <= token.SizeOf(to.Kind)
	case token.IsReal(to.Kind):
		return token.IsIntegral(kind) || token.IsReal(kind)
	case to.IsImaginary():
		return token.IsImaginary(kind)
	case to.IsComplex():
		return token.IsIntegral(kind) || token.IsFloating(kind)
	}
	return false
}

// modifiersConvert checks the head qualifiers of value conversions: anything
// converts to const, mutable and immutable only to themselves. Primitives
// are copied, so their qualifiers never block a conversion.
func modifiersConvert(from, to typesystem.Type) bool {
	if _, ok := to.(*typesystem.Primitive); ok {
		return true
	}
	if _, ok := to.(*typesystem.Enum); ok {
		return true
	}
	if a, ok := to.(*typesystem.Aggregate); ok && !isReference(a) {
		return true
	}
	return constness(from.Modifiers()) == constness(to.Modifiers()) || constness(to.Modifiers()) == token.CONST
}

// refConvertible is conversion through an indirection: the referred-to
// types must match up to qualifiers, and qualifiers may only be added as
// const. Classes may also be viewed through a base class.
func refConvertible(from, to typesystem.Type, depth int) bool {
	from, to = typesystem.MustStrip(from), typesystem.MustStrip(to)
	if from == nil || to == nil {
		return false
	}
	if sym, ok := to.(*typesystem.TemplateParameterSymbol); ok && !sym.Bound() {
		return true
	}
	fc, tc := constness(from.Modifiers()), constness(to.Modifiers())
	if fc != tc && tc != token.CONST {
		return false
	}
	if typesystem.EqualIgnoringModifiers(from, to) {
		return true
	}
	fa, ok1 := from.(*typesystem.Aggregate)
	ta, ok2 := to.(*typesystem.Aggregate)
	if ok1 && ok2 && isReference(ta) {
		return derivesFrom(fa, ta, depth)
	}
	return false
}

func constness(mods []token.TokenType) token.TokenType {
	for _, m := range mods {
		if m == token.IMMUTABLE {
			return token.IMMUTABLE
		}
	}
	for _, m := range mods {
		if m == token.CONST || m == token.INOUT {
			return token.CONST
		}
	}
	return ""
}

func isReference(a *typesystem.Aggregate) bool {
	return a.Kind() == ast.AggregateClass || a.Kind() == ast.AggregateInterface
}

// derivesFrom reports whether class from is to, extends it, or implements
// it. Every class converts to Object.
func derivesFrom(from, to *typesystem.Aggregate, depth int) bool {
	if depth > 32 {
		return false
	}
	if from.Decl == to.Decl {
		return true
	}
	if to.Decl.Name() == "Object" && to.Kind() == ast.AggregateClass && from.Kind() == ast.AggregateClass {
		return true
	}
	for _, b := range from.BaseClasses {
		if base, ok := typesystem.MustStrip(b).(*typesystem.Aggregate); ok && derivesFrom(base, to, depth+1) {
			return true
		}
	}
	return false
}

func sameSignature(fp []typesystem.Parameter, fr typesystem.Type, tp []typesystem.Parameter, tr typesystem.Type) bool {
	if len(fp) != len(tp) {
		return false
	}
	for i := range fp {
		if fp[i].Type != nil && tp[i].Type != nil && !typesystem.Equal(fp[i].Type, tp[i].Type) {
			return false
		}
	}
	if fr == nil || tr == nil {
		return true
	}
	return typesystem.Equal(fr, tr) || refConvertible(fr, tr, 0)
}
