package values

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/funvibe/dsema/internal/token"
	"github.com/funvibe/dsema/internal/typesystem"
)

// StringType builds `immutable(kind)[]` for one of the character kinds.
func StringType(kind token.TokenType) *typesystem.Array {
	return &typesystem.Array{Elem: typesystem.WithModifiers(typesystem.NewPrimitive(kind), token.IMMUTABLE)}
}

// NewString builds a string value. typ may be nil, in which case the
// structural immutable(kind)[] type is used.
func NewString(s string, typ *typesystem.Array) *Array {
	if typ == nil {
		typ = StringType(token.CHAR_KW)
	}
	return &Array{Typ: typ, IsString: true, Str: s}
}

func NewArray(typ *typesystem.Array, elems []Value) *Array {
	return &Array{Typ: typ, Elems: elems}
}

// Encoding returns the character kind of a string value.
func (a *Array) Encoding() token.TokenType {
	if a.Typ != nil {
		if p, ok := typesystem.MustStrip(a.Typ.Elem).(*typesystem.Primitive); ok && p.IsChar() {
			return p.Kind
		}
	}
	return token.CHAR_KW
}

func (a *Array) units() []rune {
	switch a.Encoding() {
	case token.WCHAR:
		u := utf16.Encode([]rune(a.Str))
		out := make([]rune, len(u))
		for i, c := range u {
			out[i] = rune(c)
		}
		return out
	case token.DCHAR:
		return []rune(a.Str)
	}
	b := []byte(a.Str)
	out := make([]rune, len(b))
	for i, c := range b {
		out[i] = rune(c)
	}
	return out
}

func (a *Array) fromUnits(u []rune) string {
	switch a.Encoding() {
	case token.WCHAR:
		w := make([]uint16, len(u))
		for i, c := range u {
			w[i] = uint16(c)
		}
		return string(utf16.Decode(w))
	case token.DCHAR:
		return string(u)
	}
	b := make([]byte, len(u))
	for i, c := range u {
		b[i] = byte(c)
	}
	return string(b)
}

// Len is the element count; strings count code units of their encoding.
func (a *Array) Len() int {
	if !a.IsString {
		return len(a.Elems)
	}
	switch a.Encoding() {
	case token.WCHAR:
		return len(utf16.Encode([]rune(a.Str)))
	case token.DCHAR:
		return utf8.RuneCountInString(a.Str)
	}
	return len(a.Str)
}

// Elements returns the element values, expanding strings to code units.
func (a *Array) Elements() []Value {
	if !a.IsString {
		return a.Elems
	}
	kind := a.Encoding()
	u := a.units()
	out := make([]Value, len(u))
	for i, c := range u {
		out[i] = NewChar(kind, c)
	}
	return out
}

// Index returns the element at i; callers validate bounds.
func (a *Array) Index(i int) Value {
	if a.IsString {
		return NewChar(a.Encoding(), a.units()[i])
	}
	return a.Elems[i]
}

// SetIndex replaces the element at i.
func (a *Array) SetIndex(i int, v Value) error {
	if a.IsString {
		c, ok := v.(*Primitive)
		if !ok || !c.IsIntegral() {
			return fmt.Errorf("cannot store %s in a string", v.Inspect())
		}
		r, err := c.ToInt()
		if err != nil {
			return err
		}
		u := a.units()
		u[i] = rune(r)
		a.Str = a.fromUnits(u)
		return nil
	}
	a.Elems[i] = v
	return nil
}

// Slice returns the elements in [lo, hi); callers validate bounds.
func (a *Array) Slice(lo, hi int) *Array {
	typ := &typesystem.Array{Base: a.Typ.Base, Elem: a.Typ.Elem}
	if a.IsString {
		return &Array{Typ: typ, IsString: true, Str: a.fromUnits(a.units()[lo:hi])}
	}
	return &Array{Typ: typ, Elems: append([]Value(nil), a.Elems[lo:hi]...)}
}

// Concat joins two arrays. Two strings of the same encoding stay a string.
func Concat(a, b *Array) *Array {
	typ := &typesystem.Array{Base: a.Typ.Base, Elem: a.Typ.Elem}
	if a.IsString && b.IsString && a.Encoding() == b.Encoding() {
		return &Array{Typ: typ, IsString: true, Str: a.Str + b.Str}
	}
	elems := append(append([]Value(nil), a.Elements()...), b.Elements()...)
	return &Array{Typ: typ, Elems: elems}
}

// Append adds one element at the end; Prepend at the front.
func Append(a *Array, v Value) *Array {
	if a.IsString {
		if c, ok := v.(*Primitive); ok && c.IsIntegral() {
			return Concat(a, &Array{Typ: a.Typ, IsString: true, Str: charString(a.Encoding(), c)})
		}
	}
	typ := &typesystem.Array{Base: a.Typ.Base, Elem: a.Typ.Elem}
	return &Array{Typ: typ, Elems: append(append([]Value(nil), a.Elements()...), v)}
}

func Prepend(v Value, a *Array) *Array {
	if a.IsString {
		if c, ok := v.(*Primitive); ok && c.IsIntegral() {
			return Concat(&Array{Typ: a.Typ, IsString: true, Str: charString(a.Encoding(), c)}, a)
		}
	}
	typ := &typesystem.Array{Base: a.Typ.Base, Elem: a.Typ.Elem}
	return &Array{Typ: typ, Elems: append([]Value{v}, a.Elements()...)}
}

func charString(kind token.TokenType, c *Primitive) string {
	r, err := c.ToInt()
	if err != nil {
		return ""
	}
	if kind == token.CHAR_KW {
		return string([]byte{byte(r)})
	}
	return string(rune(r))
}

// StringOf returns the Go string of a string value, or "" and false.
func StringOf(v Value) (string, bool) {
	a, ok := v.(*Array)
	if !ok {
		return "", false
	}
	if a.IsString {
		return a.Str, true
	}
	if !a.Typ.IsString() {
		return "", false
	}
	tmp := &Array{Typ: a.Typ, IsString: true}
	u := make([]rune, 0, len(a.Elems))
	for _, e := range a.Elems {
		p, ok := e.(*Primitive)
		if !ok {
			return "", false
		}
		r, err := p.ToInt()
		if err != nil {
			return "", false
		}
		u = append(u, rune(r))
	}
	return tmp.fromUnits(u), true
}
