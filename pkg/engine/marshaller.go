package engine

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"

	"github.com/funvibe/dsema/internal/token"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
)

// Marshaller converts between Go values and compile-time values.
type Marshaller struct{}

func NewMarshaller() *Marshaller {
	return &Marshaller{}
}

// ToValue converts a Go value to a compile-time value, for seeding a
// values.Provider. Go ints map to long, uints to ulong, float64 to double,
// strings to string, slices to dynamic arrays and maps to associative
// arrays.
func (m *Marshaller) ToValue(val interface{}) (values.Value, error) {
	if val == nil {
		return &values.Null{}, nil
	}
	if v, ok := val.(values.Value); ok {
		return v, nil
	}

	v := reflect.ValueOf(val)
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if !v.IsValid() {
		return &values.Null{}, nil
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return values.NewIntegral(token.LONG, big.NewInt(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return values.NewIntegral(token.ULONG, new(big.Int).SetUint64(v.Uint())), nil
	case reflect.Float32:
		return values.NewFloating(token.FLOAT_KW, v.Float(), 0), nil
	case reflect.Float64:
		return values.NewFloating(token.DOUBLE, v.Float(), 0), nil
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		return values.NewFloating(token.CDOUBLE, real(c), imag(c)), nil
	case reflect.Bool:
		return values.NewBool(v.Bool()), nil
	case reflect.String:
		return values.NewString(v.String(), nil), nil
	case reflect.Slice, reflect.Array:
		return m.sliceToArray(v)
	case reflect.Map:
		return m.mapToAssocArray(v)
	}
	return nil, fmt.Errorf("cannot convert %s to a compile-time value", v.Type())
}

func (m *Marshaller) sliceToArray(v reflect.Value) (values.Value, error) {
	elems := make([]values.Value, v.Len())
	var elem typesystem.Type
	for i := range elems {
		e, err := m.ToValue(v.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		elems[i] = e
		if elem == nil {
			elem = e.SymbolType()
		}
	}
	if elem == nil {
		elem = typesystem.NewPrimitive(token.VOID)
	}
	return values.NewArray(&typesystem.Array{Elem: elem}, elems), nil
}

func (m *Marshaller) mapToAssocArray(v reflect.Value) (values.Value, error) {
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	aa := &values.AssocArray{}
	for _, k := range keys {
		kv, err := m.ToValue(k.Interface())
		if err != nil {
			return nil, fmt.Errorf("key %v: %w", k.Interface(), err)
		}
		vv, err := m.ToValue(v.MapIndex(k).Interface())
		if err != nil {
			return nil, fmt.Errorf("value for %v: %w", k.Interface(), err)
		}
		if aa.Typ == nil {
			aa.Typ = &typesystem.AssocArray{Key: kv.SymbolType(), Value: vv.SymbolType()}
		}
		aa.Set(kv, vv)
	}
	if aa.Typ == nil {
		void := typesystem.NewPrimitive(token.VOID)
		aa.Typ = &typesystem.AssocArray{Key: void, Value: void}
	}
	return aa, nil
}

// FromValue converts a compile-time value to a Go value. Integral values
// become int64, or uint64 for unsigned kinds, and *big.Int when they do not
// fit; characters become rune; strings become string; arrays become
// []interface{}; associative arrays become map[interface{}]interface{};
// types are returned as typesystem.Type.
func (m *Marshaller) FromValue(v values.Value) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	v, err := values.Deref(v)
	if err != nil {
		return nil, err
	}

	switch o := v.(type) {
	case *values.Null:
		return nil, nil
	case *values.Primitive:
		return primitiveToGo(o), nil
	case *values.Array:
		if s, ok := values.StringOf(o); ok {
			return s, nil
		}
		elems := o.Elements()
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			g, err := m.FromValue(e)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = g
		}
		return out, nil
	case *values.AssocArray:
		out := make(map[interface{}]interface{}, o.Len())
		for i, k := range o.Keys {
			gk, err := m.FromValue(k)
			if err != nil {
				return nil, err
			}
			if gk != nil && !reflect.TypeOf(gk).Comparable() {
				return nil, fmt.Errorf("key %s cannot be a Go map key", k.Inspect())
			}
			gv, err := m.FromValue(o.Values[i])
			if err != nil {
				return nil, err
			}
			out[gk] = gv
		}
		return out, nil
	case *values.TypeValue:
		return o.Typ, nil
	}
	return nil, fmt.Errorf("cannot convert %s value %s to Go", v.Kind(), v.Inspect())
}

func primitiveToGo(p *values.Primitive) interface{} {
	switch {
	case p.IsBool():
		return !p.IsZero()
	case token.IsChar(p.PKind):
		return rune(p.Int.Int64())
	case p.IsIntegral():
		if token.IsUnsigned(p.PKind) && p.Int.IsUint64() {
			return p.Int.Uint64()
		}
		if p.Int.IsInt64() {
			return p.Int.Int64()
		}
		return new(big.Int).Set(p.Int)
	case token.IsComplex(p.PKind):
		return complex(p.Re, p.Im)
	case token.IsImaginary(p.PKind):
		return complex(0, p.Im)
	}
	return p.Re
}
