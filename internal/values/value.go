package values

import (
	"fmt"
	"strings"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/token"
	"github.com/funvibe/dsema/internal/typesystem"
)

type Kind string

const (
	PRIMITIVE_VAL   = "PRIMITIVE"
	ARRAY_VAL       = "ARRAY"
	ASSOC_ARRAY_VAL = "ASSOC_ARRAY"
	DELEGATE_VAL    = "DELEGATE"
	TYPE_VAL        = "TYPE"
	NULL_VAL        = "NULL"
	OVERLOAD_VAL    = "OVERLOAD"
	VARIABLE_VAL    = "VARIABLE"
)

// Value is a compile-time evaluated result. The set of implementations is
// closed.
type Value interface {
	Kind() Kind
	Inspect() string
	// SymbolType is the declared type of the value.
	SymbolType() typesystem.Type
	value()
}

// Array is either a string payload in one of the three character encodings
// or an ordered list of element values.
type Array struct {
	Typ      *typesystem.Array
	Elems    []Value
	IsString bool
	Str      string
}

func (a *Array) Kind() Kind                  { return ARRAY_VAL }
func (a *Array) SymbolType() typesystem.Type { return a.Typ }
func (a *Array) value()                      {}

func (a *Array) Inspect() string {
	if a.IsString {
		return fmt.Sprintf("%q", a.Str)
	}
	parts := make([]string, len(a.Elems))
	for i, e := range a.Elems {
		parts[i] = e.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// AssocArray keeps insertion order; setting an existing key replaces its
// value in place.
type AssocArray struct {
	Typ    *typesystem.AssocArray
	Keys   []Value
	Values []Value
}

func (a *AssocArray) Kind() Kind                  { return ASSOC_ARRAY_VAL }
func (a *AssocArray) SymbolType() typesystem.Type { return a.Typ }
func (a *AssocArray) value()                      {}
func (a *AssocArray) Len() int                    { return len(a.Keys) }

func (a *AssocArray) Inspect() string {
	parts := make([]string, len(a.Keys))
	for i := range a.Keys {
		parts[i] = a.Keys[i].Inspect() + ":" + a.Values[i].Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (a *AssocArray) index(k Value) int {
	for i, key := range a.Keys {
		if Equal(key, k) {
			return i
		}
	}
	return -1
}

func (a *AssocArray) Get(k Value) (Value, bool) {
	if i := a.index(k); i >= 0 {
		return a.Values[i], true
	}
	return nil, false
}

func (a *AssocArray) Set(k, v Value) {
	if i := a.index(k); i >= 0 {
		a.Values[i] = v
		return
	}
	a.Keys = append(a.Keys, k)
	a.Values = append(a.Values, v)
}

// Delegate wraps a resolved function or function literal.
type Delegate struct {
	Typ  typesystem.Type
	Func *ast.FunctionDecl
}

func (d *Delegate) Kind() Kind                  { return DELEGATE_VAL }
func (d *Delegate) SymbolType() typesystem.Type { return d.Typ }
func (d *Delegate) value()                      {}

func (d *Delegate) Inspect() string {
	if d.Func != nil && d.Func.Kind != ast.FunctionLiteralBody {
		return "&" + d.Func.Name()
	}
	if d.Typ != nil {
		return d.Typ.String()
	}
	return "delegate"
}

// TypeValue is produced when an expression denotes a type rather than an
// instance of it.
type TypeValue struct {
	Typ typesystem.Type
}

func (t *TypeValue) Kind() Kind                  { return TYPE_VAL }
func (t *TypeValue) SymbolType() typesystem.Type { return t.Typ }
func (t *TypeValue) value()                      {}
func (t *TypeValue) Inspect() string {
	if t.Typ == nil {
		return "void"
	}
	return t.Typ.String()
}

// Null is the null literal.
type Null struct{}

var nullType = &typesystem.Pointer{}

func (n *Null) Kind() Kind                  { return NULL_VAL }
func (n *Null) SymbolType() typesystem.Type { return nullType }
func (n *Null) Inspect() string             { return "null" }
func (n *Null) value()                      {}

// InternalOverload carries an unresolved overload set until a call site
// picks one of the candidates.
type InternalOverload struct {
	Overloads []typesystem.Type
}

func (o *InternalOverload) Kind() Kind { return OVERLOAD_VAL }
func (o *InternalOverload) SymbolType() typesystem.Type {
	if len(o.Overloads) == 1 {
		return o.Overloads[0]
	}
	return nil
}
func (o *InternalOverload) value() {}
func (o *InternalOverload) Inspect() string {
	return fmt.Sprintf("overload set (%d candidates)", len(o.Overloads))
}

// VariableRef is a read/write handle to a variable's storage through a
// Provider.
type VariableRef struct {
	Decl     *ast.VariableDecl
	Typ      typesystem.Type
	Provider Provider
}

func (r *VariableRef) Kind() Kind                  { return VARIABLE_VAL }
func (r *VariableRef) SymbolType() typesystem.Type { return r.Typ }
func (r *VariableRef) value()                      {}
func (r *VariableRef) Inspect() string             { return r.Decl.Name() }

func (r *VariableRef) Get() (Value, error) {
	if r.Provider == nil {
		return nil, fmt.Errorf("no value provider for %s", r.Decl.Name())
	}
	return r.Provider.Get(r.Decl)
}

func (r *VariableRef) Set(v Value) error {
	if r.Provider == nil {
		return fmt.Errorf("no value provider for %s", r.Decl.Name())
	}
	return r.Provider.Set(r.Decl, v)
}

// Deref reads through variable references; other values are returned as is.
func Deref(v Value) (Value, error) {
	for {
		ref, ok := v.(*VariableRef)
		if !ok {
			return v, nil
		}
		var err error
		if v, err = ref.Get(); err != nil {
			return nil, err
		}
	}
}

// Truthy converts v to a boolean the way conditions do.
func Truthy(v Value) (bool, error) {
	v, err := Deref(v)
	if err != nil {
		return false, err
	}
	switch v := v.(type) {
	case *Primitive:
		return !v.IsZero(), nil
	case *Null:
		return false, nil
	case *Array:
		return v.Len() > 0, nil
	case *AssocArray:
		return v.Len() > 0, nil
	case *Delegate:
		return true, nil
	}
	return false, fmt.Errorf("%s cannot be used as a condition", v.Inspect())
}

// Equal compares two values structurally. Primitives compare numerically.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case *Primitive:
		y, ok := b.(*Primitive)
		if !ok {
			return false
		}
		eq, err := Compare(token.EQ, x, y)
		return err == nil && eq
	case *Array:
		y, ok := b.(*Array)
		if !ok {
			return false
		}
		if x.IsString && y.IsString {
			return x.Str == y.Str
		}
		xe, ye := x.Elements(), y.Elements()
		if len(xe) != len(ye) {
			return false
		}
		for i := range xe {
			if !Equal(xe[i], ye[i]) {
				return false
			}
		}
		return true
	case *AssocArray:
		y, ok := b.(*AssocArray)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i, k := range x.Keys {
			v, ok := y.Get(k)
			if !ok || !Equal(x.Values[i], v) {
				return false
			}
		}
		return true
	case *Null:
		switch y := b.(type) {
		case *Null:
			return true
		case *Array:
			return y.Len() == 0
		}
		return false
	case *Delegate:
		y, ok := b.(*Delegate)
		return ok && x.Func == y.Func
	case *TypeValue:
		y, ok := b.(*TypeValue)
		return ok && typesystem.Equal(x.Typ, y.Typ)
	case *VariableRef:
		y, ok := b.(*VariableRef)
		return ok && x.Decl == y.Decl
	}
	return false
}
