package typesystem

import (
	"errors"
	"testing"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/token"
)

func TestStripAliasesIsIdempotent(t *testing.T) {
	intType := NewPrimitive(token.INT_KW)
	inner := &Alias{Decl: &ast.AliasDecl{DeclName: "Inner"}, Target: intType}
	outer := &Alias{Decl: &ast.AliasDecl{DeclName: "Outer"}, Target: inner}

	tests := []struct {
		name string
		in   Type
		want string
	}{
		{"primitive", intType, "int"},
		{"one level", inner, "int"},
		{"two levels", outer, "int"},
		{"pointer to alias", &Pointer{Elem: outer}, "Outer*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once, err := StripAliases(tt.in)
			if err != nil {
				t.Fatalf("StripAliases(%s) failed: %v", tt.in, err)
			}
			twice, err := StripAliases(once)
			if err != nil {
				t.Fatalf("second StripAliases failed: %v", err)
			}
			if once != twice {
				t.Errorf("stripping twice changed the result: %s vs %s", once, twice)
			}
			if got := once.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripAliasesDetectsCycles(t *testing.T) {
	a := &Alias{Decl: &ast.AliasDecl{DeclName: "A"}}
	b := &Alias{Decl: &ast.AliasDecl{DeclName: "B"}, Target: a}
	a.Target = b

	_, err := StripAliases(a)
	var unresolved *UnresolvedSymbolError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedSymbolError, got %v", err)
	}
	if unresolved.Name != "A" && unresolved.Name != "B" {
		t.Errorf("unexpected name in error: %q", unresolved.Name)
	}

	self := &Alias{Decl: &ast.AliasDecl{DeclName: "Self"}}
	self.Target = self
	if _, err := StripAliases(self); err == nil {
		t.Error("self alias should fail")
	}
	if MustStrip(self) != nil {
		t.Error("MustStrip should return nil for a cyclic alias")
	}
}

func TestStripAliasesKeepsModifiers(t *testing.T) {
	al := &Alias{
		Base:   Base{Mods: []token.TokenType{token.CONST}},
		Decl:   &ast.AliasDecl{DeclName: "CInt"},
		Target: NewPrimitive(token.INT_KW),
	}
	got := MustStrip(al)
	if got.String() != "const(int)" {
		t.Errorf("got %s, want const(int)", got)
	}
}

func TestEqual(t *testing.T) {
	s := &ast.AggregateDecl{DeclName: "S"}
	u := &ast.AggregateDecl{DeclName: "U"}
	intType := NewPrimitive(token.INT_KW)
	alias := &Alias{Decl: &ast.AliasDecl{DeclName: "I"}, Target: intType}
	constInt := WithModifiers(intType, token.CONST)

	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"same primitive", intType, NewPrimitive(token.INT_KW), true},
		{"different primitive", intType, NewPrimitive(token.UINT), false},
		{"through alias", alias, intType, true},
		{"modifiers differ", constInt, intType, false},
		{"arrays", &Array{Elem: intType}, &Array{Elem: alias}, true},
		{"static vs dynamic", &Array{Elem: intType, Static: true, Length: 2}, &Array{Elem: intType}, false},
		{"static lengths", &Array{Elem: intType, Static: true, Length: 2}, &Array{Elem: intType, Static: true, Length: 3}, false},
		{"assoc", &AssocArray{Key: intType, Value: intType}, &AssocArray{Key: intType, Value: intType}, true},
		{"same aggregate", &Aggregate{Decl: s}, &Aggregate{Decl: s}, true},
		{"other aggregate", &Aggregate{Decl: s}, &Aggregate{Decl: u}, false},
		{"null pointer", &Pointer{}, &Pointer{}, true},
		{"pointer vs null", &Pointer{Elem: intType}, &Pointer{}, false},
		{"delegates", &Delegate{Params: []Parameter{{Type: intType}}, Return: intType},
			&Delegate{Params: []Parameter{{Type: alias}}, Return: intType}, true},
		{"tuple", &Tuple{Elems: []Type{intType}}, &Tuple{Elems: []Type{intType, intType}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}

	if !EqualIgnoringModifiers(constInt, intType) {
		t.Error("EqualIgnoringModifiers should ignore const")
	}
}

func TestSubstitute(t *testing.T) {
	param := &ast.TemplateParameter{DeclName: "T"}
	tp := &TemplateParameterSymbol{Param: param}
	method := &Method{
		Decl:   &ast.FunctionDecl{DeclName: "max"},
		Params: []Parameter{{Name: "a", Type: tp}, {Name: "b", Type: tp}},
		Return: &Array{Elem: tp},
	}

	d := DeducedParams{"T": {Param: param, Bind: NewPrimitive(token.DOUBLE)}}
	got := Substitute(method, d).(*Method)

	if got.Return.String() != "double[]" {
		t.Errorf("return type = %s, want double[]", got.Return)
	}
	for i, p := range got.Params {
		if p.Type.String() != "double" {
			t.Errorf("param %d = %s, want double", i, p.Type)
		}
	}
	if method.Return.String() != "T[]" {
		t.Errorf("Substitute modified its input: %s", method.Return)
	}

	// A binding that refers back to the parameter terminates.
	loop := DeducedParams{"T": {Param: param, Bind: &Pointer{Elem: tp}}}
	if s := Substitute(tp, loop).String(); s != "T*" {
		t.Errorf("cyclic binding = %s, want T*", s)
	}
}

func TestStringRendering(t *testing.T) {
	immChar := WithModifiers(NewPrimitive(token.CHAR_KW), token.IMMUTABLE)
	tests := []struct {
		in   Type
		want string
	}{
		{&Array{Elem: immChar}, "string"},
		{&Array{Elem: NewPrimitive(token.CHAR_KW)}, "char[]"},
		{&Array{Elem: NewPrimitive(token.INT_KW), Static: true, Length: 4}, "int[4]"},
		{&AssocArray{Key: &Array{Elem: immChar}, Value: NewPrimitive(token.INT_KW)}, "int[string]"},
		{&Pointer{}, "typeof(null)"},
		{WithModifiers(&Pointer{Elem: NewPrimitive(token.INT_KW)}, token.CONST, token.SHARED), "const(shared(int*))"},
		{&Delegate{Params: []Parameter{{Name: "x", Type: NewPrimitive(token.INT_KW)}}, Return: NewPrimitive(token.BOOL), IsFunction: true}, "bool function(int x)"},
		{&Tuple{Elems: []Type{NewPrimitive(token.INT_KW), NewPrimitive(token.REAL)}}, "(int, real)"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestWithModifiersDoesNotDuplicate(t *testing.T) {
	c := WithModifiers(NewPrimitive(token.INT_KW), token.CONST)
	cc := WithModifiers(c, token.CONST)
	if len(cc.Modifiers()) != 1 {
		t.Errorf("modifiers = %v", cc.Modifiers())
	}
	if len(WithoutModifiers(cc).Modifiers()) != 0 {
		t.Error("WithoutModifiers left modifiers behind")
	}
}
