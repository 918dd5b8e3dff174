package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/config"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/modules"
	"github.com/funvibe/dsema/internal/parser"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/kr/pretty"
)

const fixture = `
-- lib/util.d --
module lib.util;
int helper;
private int hidden;
-- lib/all.d --
module lib.all;
public import lib.util;
-- app/main.d --
module app.main;
import lib.all;

alias A = B;
alias B = A;
alias I = int;
alias J = I;

struct S
{
    int field;
    void foo(int x);
}

class Base { int baseField; }
class Derived : Base { int own; }

struct Box(T)
{
    T value;
}

void foo(S s, int x);
void bar(S s);
void takesInt(int x);
void slice(T)(const(T)[] a);
void pair(T)(T[] a, T b);
`

type harness struct {
	snap *modules.Snapshot
	ctx  *Context
	sink *diagnostics.Collector
	main *ast.Module
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	l := modules.NewLoader(config.Default())
	mods, fsys, err := l.LoadArchive(context.Background(), []byte(fixture))
	if err != nil {
		t.Fatalf("LoadArchive: %v", err)
	}
	snap := l.Install(modules.NewCache(), mods, fsys)
	for _, m := range snap.Entries() {
		if m.HasErrors() {
			t.Fatalf("%s: %v", m.Name, m.Errors)
		}
	}
	sink := diagnostics.NewCollector()
	ctx := NewContext(snap, sink, StripAliases)
	main := snap.ByName("app.main")
	ctx.Push(Frame{Scope: main})
	return &harness{snap: snap, ctx: ctx, sink: sink, main: main}
}

func (h *harness) resolve(t *testing.T, src string) []typesystem.Type {
	t.Helper()
	node, err := parser.ParseTypeString(src)
	if err != nil {
		t.Fatalf("ParseTypeString(%q): %v", src, err)
	}
	return h.ctx.ResolveType(node)
}

func (h *harness) function(t *testing.T, name string) *ast.FunctionDecl {
	t.Helper()
	for _, d := range h.main.Members {
		if fn, ok := d.(*ast.FunctionDecl); ok && fn.Name() == name {
			return fn
		}
	}
	t.Fatalf("no function %s", name)
	return nil
}

func TestAliasStripping(t *testing.T) {
	h := newHarness(t)

	got := h.resolve(t, "J")
	if len(got) != 1 || got[0].String() != "int" {
		t.Fatalf("J = %v, want int", got)
	}
	again, err := typesystem.StripAliases(got[0])
	if err != nil || !typesystem.Equal(again, got[0]) {
		t.Errorf("stripping twice changed the result: %v, %v", again, err)
	}

	restore := h.ctx.WithOptions(0, StripAliases)
	raw := h.resolve(t, "A")
	restore()
	if len(raw) != 1 {
		t.Fatalf("A resolved to %d symbols", len(raw))
	}
	if _, ok := raw[0].(*typesystem.Alias); !ok {
		t.Fatalf("A = %T, want *typesystem.Alias", raw[0])
	}
	_, err = typesystem.StripAliases(raw[0])
	var unresolved *typesystem.UnresolvedSymbolError
	if !errors.As(err, &unresolved) {
		t.Errorf("StripAliases(A) error = %v, want UnresolvedSymbolError", err)
	}
	if !h.sink.Has(diagnostics.ErrR003) {
		t.Error("alias cycle was not reported")
	}

	if got := h.resolve(t, "A"); len(got) != 0 {
		t.Errorf("stripped A = %v, want nothing", got)
	}
}

func TestLookup(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		src  string
		want string
	}{
		{"helper", "int helper"},
		{"lib.util.helper", "int helper"},
		{".S", "S"},
		{"Box!(int)", "Box!(T = int)"},
		{"I*", "I*"},
		{"const(J)[]", "const(J)[]"},
		{"int[string]", "int[string]"},
	}
	for _, tt := range tests {
		got := h.resolve(t, tt.src)
		if len(got) != 1 {
			t.Errorf("%s: %d results %v", tt.src, len(got), got)
			continue
		}
		if got[0].String() != tt.want {
			t.Errorf("%s = %q, want %q", tt.src, got[0].String(), tt.want)
		}
	}

	if got := h.resolve(t, "hidden"); len(got) != 0 {
		t.Errorf("private symbol leaked through import: %v", got)
	}
	if got := h.resolve(t, "nothing"); len(got) != 0 {
		t.Errorf("nothing = %v", got)
	}
	if h.sink.Has(diagnostics.ErrR001) {
		t.Error("R001 reported without ReportUnresolved")
	}
	restore := h.ctx.WithOptions(ReportUnresolved, 0)
	h.resolve(t, "nothing")
	restore()
	if !h.sink.Has(diagnostics.ErrR001) {
		t.Error("R001 not reported")
	}
}

func TestMembers(t *testing.T) {
	h := newHarness(t)

	derived := h.resolve(t, "Derived")[0]
	if got := h.ctx.LookupMember(derived, "baseField"); len(got) != 1 {
		t.Errorf("inherited member: %v", got)
	}
	box := h.resolve(t, "Box!(long)")[0]
	value := h.ctx.LookupMember(box, "value")
	if len(value) != 1 || typesystem.Underlying(value[0]).String() != "long" {
		t.Errorf("Box!(long).value = %v", value)
	}

	names := h.ctx.MemberNames(h.resolve(t, "S")[0])
	if diff := pretty.Diff(names, []string{"field", "foo"}); len(diff) > 0 {
		t.Errorf("member names: %v", diff)
	}

	h.resolve(t, "Box!(int, float)")
	if !h.sink.Has(diagnostics.ErrR004) {
		t.Error("too many template arguments were not reported")
	}
}

func TestImplicitConversion(t *testing.T) {
	h := newHarness(t)
	r := func(src string) typesystem.Type { return h.resolve(t, src)[0] }

	tests := []struct {
		from, to string
		want     bool
	}{
		{"int", "long", true},
		{"long", "int", false},
		{"byte", "int", true},
		{"int", "double", true},
		{"double", "int", false},
		{"bool", "int", true},
		{"int", "bool", false},
		{"char", "int", true},
		{"float", "cdouble", true},
		{"ifloat", "float", false},
		{"int*", "void*", true},
		{"int*", "const(int)*", true},
		{"const(int)*", "int*", false},
		{"immutable(char)[]", "const(char)[]", true},
		{"char[]", "immutable(char)[]", false},
		{"int[3]", "int[]", true},
		{"int[3]", "int[4]", false},
		{"Derived", "Base", true},
		{"Base", "Derived", false},
		{"Derived", "Object", true},
		{"S", "S", true},
		{"S", "Base", false},
		{"int[string]", "int[string]", true},
	}
	for _, tt := range tests {
		if got := IsImplicitlyConvertible(r(tt.from), r(tt.to)); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestDeductionImpliesConvertibility(t *testing.T) {
	h := newHarness(t)
	r := func(src string) typesystem.Type { return h.resolve(t, src)[0] }

	tests := []struct {
		fn   string
		args []string
		ok   bool
		want string
	}{
		{"slice", []string{"int[]"}, true, "int"},
		{"slice", []string{"immutable(char)[]"}, true, "char"},
		{"pair", []string{"long[]", "int"}, true, "long"},
		{"pair", []string{"int[]", "double"}, false, ""},
	}
	for _, tt := range tests {
		fn := h.function(t, tt.fn)
		var args []typesystem.Type
		for _, a := range tt.args {
			args = append(args, r(a))
		}
		d, ok := h.ctx.DeduceFromArguments(fn, nil, args)
		if ok && !d.Complete() {
			ok = false
		}
		if ok != tt.ok {
			t.Errorf("%s%v: deduced = %v, want %v", tt.fn, tt.args, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if got := d["T"].Bind.String(); got != tt.want {
			t.Errorf("%s%v: T = %s, want %s", tt.fn, tt.args, got, tt.want)
		}
		m := h.ctx.Instantiate(fn, d).(*typesystem.Method)
		for i, a := range args {
			if !IsImplicitlyConvertible(a, m.Params[i].Type) {
				t.Errorf("%s: %s does not convert to deduced %s", tt.fn, a, m.Params[i].Type)
			}
		}
	}
}

func TestUFCS(t *testing.T) {
	h := newHarness(t)
	s := h.resolve(t, "S")[0]

	if got := h.ctx.LookupMember(s, "foo"); len(got) != 1 || typesystem.DeclNode(got[0]).Parent() == ast.Node(h.main) {
		t.Fatalf("direct member foo = %v", got)
	}
	got := h.ctx.TryResolveUFCS(s, "bar", h.main)
	if len(got) != 1 || typesystem.Name(got[0]) != "bar" {
		t.Errorf("UFCS bar = %v", got)
	}
	if got := h.ctx.TryResolveUFCS(s, "takesInt", h.main); len(got) != 0 {
		t.Errorf("takesInt accepted S: %v", got)
	}
	arr := h.resolve(t, "int[]")[0]
	if got := h.ctx.TryResolveUFCS(arr, "slice", h.main); len(got) != 1 {
		t.Errorf("template UFCS slice = %v", got)
	}
}

func TestStaticProperties(t *testing.T) {
	h := newHarness(t)

	for _, src := range []string{"int", "byte", "real", "S", "Derived", "int[4]", "string", "Box!(int)"} {
		sp, ok := h.ctx.StaticProperty(h.resolve(t, src)[0], config.SizeofProperty)
		if !ok {
			t.Errorf("%s.sizeof missing", src)
			continue
		}
		if sp.Type.String() != "int" || sp.Value.SymbolType().String() != "int" {
			t.Errorf("%s.sizeof has type %s", src, sp.Type)
		}
	}

	tests := []struct {
		typ, prop, want string
	}{
		{"int", "sizeof", "4"},
		{"int[4]", "sizeof", "16"},
		{"S", "sizeof", "4"},
		{"Derived", "sizeof", "8"},
		{"int", "max", "2147483647"},
		{"ubyte", "min", "0"},
		{"char", "init", "'ÿ'"},
		{"int", "init", "0"},
		{"double", "nan", "NaN"},
		{"int[4]", "length", "4"},
		{"int*", "mangleof", `"Pi"`},
		{"string", "mangleof", `"Aya"`},
		{"S", "mangleof", `"S3app4main1S"`},
		{"int", "stringof", `"int"`},
		{"float", "dig", "6"},
	}
	for _, tt := range tests {
		sp, ok := h.ctx.StaticProperty(h.resolve(t, tt.typ)[0], tt.prop)
		if !ok || sp.Value == nil {
			t.Errorf("%s.%s: missing", tt.typ, tt.prop)
			continue
		}
		if got := sp.Value.Inspect(); got != tt.want {
			t.Errorf("%s.%s = %s, want %s", tt.typ, tt.prop, got, tt.want)
		}
	}

	if _, ok := h.ctx.StaticProperty(h.resolve(t, "Derived")[0], config.ClassinfoProperty); !ok {
		t.Error("Derived.classinfo missing")
	}
	if _, ok := h.ctx.StaticProperty(h.resolve(t, "S")[0], config.ClassinfoProperty); ok {
		t.Error("struct has classinfo")
	}
	if _, ok := h.ctx.StaticProperty(h.resolve(t, "S")[0], "nosuch"); ok {
		t.Error("unknown property resolved")
	}
}

func TestContextRestore(t *testing.T) {
	h := newHarness(t)
	depth := h.ctx.Depth()
	before := h.ctx.Current().Options

	pop := h.ctx.WithDeduced(typesystem.DeducedParams{})
	restore := h.ctx.WithOptions(ReturnMethodsOnly, StripAliases)
	if h.ctx.Has(StripAliases) || !h.ctx.Has(ReturnMethodsOnly) {
		t.Error("options not applied")
	}
	restore()
	pop()

	if h.ctx.Depth() != depth || h.ctx.Current().Options != before {
		t.Errorf("context not restored: depth %d/%d options %v/%v", h.ctx.Depth(), depth, h.ctx.Current().Options, before)
	}
}
