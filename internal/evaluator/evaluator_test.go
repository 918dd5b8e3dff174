package evaluator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/config"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/modules"
	"github.com/funvibe/dsema/internal/parser"
	"github.com/funvibe/dsema/internal/resolver"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
	"github.com/kr/pretty"
)

const fixture = `
-- app/main.d --
module app.main;

enum int N = 4;
immutable int[] arr = [1, 2, 3, 4];
immutable int initialized = 7;
int mutableVar = 3;
bool yes;
bool no;

enum Color { red, green = 5, blue }

struct S
{
    int field;
    int y(int a, int b);
    long y(int a, int b, int c);
    short z(int a, int b);
    byte z(int a, int b, int c = 0);
}
S s;

struct Q
{
    int twice();
}
Q q;
long twice(Q q);
double half(int x);
short length(int[] a);
int[] nums;
int k;

T ident(T)(T a) { return a; }

int square(int x) { return x * x; }

int fact(int n)
{
    if (n <= 1)
        return 1;
    return n * fact(n - 1);
}

int counter()
{
    int total = 0;
    total += 5;
    total++;
    return total;
}

int forever(int n) { return forever(n + 1); }

int grid()
{
    int[2][2] m;
    m[0][1] = 5;
    return m[1][1] + m[0][1];
}

struct P
{
    int x;
    private int hidden;
    static int count;
    int y;
}

struct C
{
    this(int a);
    this(string s, int b);
}

class K {}

class KC
{
    this(int a);
}

abstract class A {}

interface I {}
-- views/greeting.txt --
hello
`

type harness struct {
	snap *modules.Snapshot
	ctx  *resolver.Context
	sink *diagnostics.Collector
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
	ctx := resolver.NewContext(snap, sink, resolver.StripAliases)
	ctx.Push(resolver.Frame{Scope: snap.ByName("app.main")})
	return &harness{snap: snap, ctx: ctx, sink: sink}
}

func parse(t *testing.T, src string) ast.Expr {
	t.Helper()
	x, err := parser.ParseExpressionString(src)
	if err != nil {
		t.Fatalf("ParseExpressionString(%q): %v", src, err)
	}
	return x
}

func (h *harness) types(t *testing.T, src string) []typesystem.Type {
	t.Helper()
	return New(TypeMode, nil).Types(h.ctx, parse(t, src))
}

func (h *harness) value(t *testing.T, src string) (values.Value, error) {
	t.Helper()
	return New(ValueMode, nil).Value(h.ctx, parse(t, src))
}

func typeName(ts []typesystem.Type) string {
	if len(ts) == 0 {
		return "<none>"
	}
	return typesystem.WithoutModifiers(typesystem.Underlying(ts[0])).String()
}

func intOf(t *testing.T, v values.Value) int64 {
	t.Helper()
	p, ok := v.(*values.Primitive)
	if !ok || p.Int == nil {
		t.Fatalf("%v is not an integral value", v)
	}
	return p.Int.Int64()
}

func TestArithmetic(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		src  string
		want int64
		typ  string
	}{
		{"2 + 3 * 4", 14, "int"},
		{"(2 + 3) * 4", 20, "int"},
		{"N * 2", 8, "int"},
		{"7 / 2", 3, "int"},
		{"1 << 4", 16, "int"},
		{"10L - 3", 7, "long"},
		{"true ? 1 : 2", 1, "int"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := typeName(h.types(t, tt.src)); got != tt.typ {
				t.Errorf("type = %s, want %s", got, tt.typ)
			}
			v, err := h.value(t, tt.src)
			if err != nil {
				t.Fatalf("value: %v", err)
			}
			if got := intOf(t, v); got != tt.want {
				t.Errorf("value = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConcatenation(t *testing.T) {
	h := newHarness(t)

	v, err := h.value(t, `"a" ~ "b"`)
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := values.StringOf(v); !ok || s != "ab" {
		t.Errorf(`"a" ~ "b" = %v`, v.Inspect())
	}

	v, err = h.value(t, `[1, 2] ~ 3`)
	if err != nil {
		t.Fatal(err)
	}
	if a, ok := v.(*values.Array); !ok || a.Len() != 3 {
		t.Errorf("[1, 2] ~ 3 = %v", v.Inspect())
	}
}

func TestIndexBounds(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		src  string
		want int64
		fail bool
	}{
		{"arr[0]", 1, false},
		{"arr[3]", 4, false},
		{"arr[$ - 1]", 4, false},
		{"arr[4]", 0, true},
		{"arr[-1]", 0, true},
	}
	for _, tt := range tests {
		v, err := h.value(t, tt.src)
		if tt.fail {
			var ee *EvaluationError
			if !errors.As(err, &ee) {
				t.Errorf("%s: want an evaluation error, got %v, %v", tt.src, v, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.src, err)
			continue
		}
		if got := intOf(t, v); got != tt.want {
			t.Errorf("%s = %d, want %d", tt.src, got, tt.want)
		}
	}
}

func TestSliceBounds(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		src  string
		n    int
		fail bool
	}{
		{"arr[]", 4, false},
		{"arr[0 .. 4]", 4, false},
		{"arr[1 .. 3]", 2, false},
		{"arr[2 .. 2]", 0, false},
		{"arr[0 .. $]", 4, false},
		{"arr[3 .. 1]", 0, true},
		{"arr[0 .. 5]", 0, true},
	}
	for _, tt := range tests {
		v, err := h.value(t, tt.src)
		if tt.fail {
			if err == nil {
				t.Errorf("%s: want an error, got %v", tt.src, v.Inspect())
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.src, err)
			continue
		}
		if a, ok := v.(*values.Array); !ok || a.Len() != tt.n {
			t.Errorf("%s = %v, want %d elements", tt.src, v.Inspect(), tt.n)
		}
	}
}

// recordingProvider serves named values and records every read.
type recordingProvider struct {
	values.LengthRegister
	vals  map[string]values.Value
	reads []string
}

func (p *recordingProvider) ConstantOnly() bool { return false }

func (p *recordingProvider) Get(decl *ast.VariableDecl) (values.Value, error) {
	p.reads = append(p.reads, decl.Name())
	if v, ok := p.vals[decl.Name()]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("no value for %s", decl.Name())
}

func (p *recordingProvider) Set(decl *ast.VariableDecl, v values.Value) error {
	p.vals[decl.Name()] = v
	return nil
}

func TestShortCircuit(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		src   string
		want  bool
		reads []string
	}{
		{"yes || no", true, []string{"yes"}},
		{"no && yes", false, []string{"no"}},
		{"no || yes", true, []string{"no", "yes"}},
		{"yes && no", false, []string{"yes", "no"}},
	}
	for _, tt := range tests {
		p := &recordingProvider{vals: map[string]values.Value{
			"yes": values.NewBool(true),
			"no":  values.NewBool(false),
		}}
		v, err := New(ValueMode, p).Value(h.ctx, parse(t, tt.src))
		if err != nil {
			t.Errorf("%s: %v", tt.src, err)
			continue
		}
		if b, _ := values.Truthy(v); b != tt.want {
			t.Errorf("%s = %v, want %v", tt.src, b, tt.want)
		}
		if diff := pretty.Diff(p.reads, tt.reads); len(diff) > 0 {
			t.Errorf("%s reads: %s", tt.src, strings.Join(diff, "\n"))
		}
	}
}

func TestStaticPropertyValues(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		src  string
		want int64
		typ  string
	}{
		{"initialized.init", 7, "int"},
		{"mutableVar.init", 3, "int"},
		{"int.init", 0, "int"},
		{"int.sizeof", 4, "int"},
		{"long.sizeof", 8, "int"},
		{"k.sizeof", 4, "int"},
		{"arr.length", 4, "ulong"},
		{"Color.blue", 6, "Color"},
		{"Color.min", 0, "Color"},
		{"Color.max", 6, "Color"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := typeName(h.types(t, tt.src)); got != tt.typ {
				t.Errorf("type = %s, want %s", got, tt.typ)
			}
			v, err := h.value(t, tt.src)
			if err != nil {
				t.Fatalf("value: %v", err)
			}
			if got := intOf(t, v); got != tt.want {
				t.Errorf("value = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMemberPrecedence(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		src  string
		typ  string
		ufcs bool
	}{
		{"q.twice()", "int", false},
		{"k.half()", "double", true},
		{"k.half", "double", true},
		{"nums.length", "short", true},
		{"k.max", "int", false},
	}
	for _, tt := range tests {
		ev := New(TypeMode, nil)
		r, err := ev.Evaluate(h.ctx, parse(t, tt.src))
		if err != nil {
			t.Errorf("%s: %v", tt.src, err)
			continue
		}
		if got := typeName(r.Types); got != tt.typ {
			t.Errorf("%s: type = %s, want %s", tt.src, got, tt.typ)
		}
		if ev.UFCS != tt.ufcs {
			t.Errorf("%s: UFCS = %v, want %v", tt.src, ev.UFCS, tt.ufcs)
		}
	}
}

func TestOverloadSelection(t *testing.T) {
	h := newHarness(t)
	if got := typeName(h.types(t, "s.y(1, 2)")); got != "int" {
		t.Errorf("s.y(1, 2) = %s, want the two-parameter overload", got)
	}
	if got := typeName(h.types(t, "s.y(1, 2, 3)")); got != "long" {
		t.Errorf("s.y(1, 2, 3) = %s, want the three-parameter overload", got)
	}
	if h.sink.Has(diagnostics.ErrR002) {
		t.Errorf("unexpected ambiguity: %v", h.sink.Diagnostics())
	}

	if got := h.types(t, "s.z(1, 2)"); len(got) != 0 {
		t.Errorf("s.z(1, 2) = %v, want no result", got)
	}
	if !h.sink.Has(diagnostics.ErrR002) {
		t.Errorf("ambiguous call not reported: %v", h.sink.Diagnostics())
	}
}

func TestTemplateDeduction(t *testing.T) {
	h := newHarness(t)
	if got := typeName(h.types(t, "ident(3)")); got != "int" {
		t.Errorf("ident(3) = %s, want int", got)
	}
	if got := typeName(h.types(t, "ident!(long)(3)")); got != "long" {
		t.Errorf("ident!(long)(3) = %s, want long", got)
	}
	v, err := h.value(t, "ident(3)")
	if err != nil {
		t.Fatal(err)
	}
	if got := intOf(t, v); got != 3 {
		t.Errorf("ident(3) = %d", got)
	}
}

func TestCompileTimeCalls(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		src  string
		want int64
	}{
		{"square(5)", 25},
		{"fact(5)", 120},
		{"counter()", 6},
		{"square(N) + 1", 17},
	}
	for _, tt := range tests {
		v, err := h.value(t, tt.src)
		if err != nil {
			t.Errorf("%s: %v", tt.src, err)
			continue
		}
		if got := intOf(t, v); got != tt.want {
			t.Errorf("%s = %d, want %d", tt.src, got, tt.want)
		}
	}
}

func TestMaxDepth(t *testing.T) {
	h := newHarness(t)
	ev := New(ValueMode, nil)
	ev.MaxDepth = 20
	_, err := ev.Value(h.ctx, parse(t, "forever(0)"))
	if err == nil || !strings.Contains(err.Error(), "maximum") {
		t.Errorf("forever(0): %v", err)
	}
}

func TestHardErrors(t *testing.T) {
	h := newHarness(t)

	if _, err := h.value(t, "mutableVar + 1"); !errors.Is(err, values.ErrNotConstant) {
		t.Errorf("reading a mutable variable: %v", err)
	}

	_, err := h.value(t, `1 + "a"`)
	var ee *EvaluationError
	if !errors.As(err, &ee) {
		t.Fatalf("1 + \"a\": %v", err)
	}
	if len(ee.Partial) != 2 {
		t.Errorf("partial values = %v", ee.Partial)
	}

	if _, err := h.value(t, "nothingHere"); err == nil {
		t.Error("undefined identifier in value mode should fail")
	}
	r, err := New(TypeMode, nil).Evaluate(h.ctx, parse(t, "nothingHere"))
	if err != nil || len(r.Types) != 0 {
		t.Errorf("undefined identifier in type mode: %v, %v", r.Types, err)
	}

	if _, err := h.value(t, `assert(1 == 2, "boom")`); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("assert: %v", err)
	}
}

func TestSpecialForms(t *testing.T) {
	h := newHarness(t)

	v, err := h.value(t, `mixin("1 + 2")`)
	if err != nil {
		t.Fatal(err)
	}
	if got := intOf(t, v); got != 3 {
		t.Errorf("mixin = %d", got)
	}
	if got := typeName(h.types(t, `mixin("1 + 2")`)); got != "int" {
		t.Errorf("mixin type = %s", got)
	}

	ev := New(ValueMode, nil)
	ev.Files = h.snap
	ev.ImportPaths = []string{"views"}
	v, err = ev.Value(h.ctx, parse(t, `import("greeting.txt")`))
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := values.StringOf(v); s != "hello\n" {
		t.Errorf("import = %q", s)
	}
	if _, err := ev.Value(h.ctx, parse(t, `import("../greeting.txt")`)); err == nil {
		t.Error("parent traversal should fail")
	}
	if _, err := ev.Value(h.ctx, parse(t, `import("missing.txt")`)); err == nil {
		t.Error("importing a missing file should fail")
	}
}

func TestIsExpression(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"is(int)", true},
		{"is(Nope)", false},

		{"is(S == struct)", true},
		{"is(S == class)", false},
		{"is(K == class)", true},
		{"is(I == interface)", true},
		{"is(Color == enum)", true},

		{"is(int == int)", true},
		{"is(int == long)", false},
		{"is(int : long)", true},
		{"is(long : S)", false},

		{"is(int[] == U[], U)", true},
		{"is(int[] : U[], U)", true},
		{"is(int == U[], U)", false},
		{"is(int[long] == V[K], V, K)", true},
		{"is(int[] U : U[])", true},
		{"is(int U == long)", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			h := newHarness(t)
			v, err := h.value(t, tt.src)
			if err != nil {
				t.Fatalf("%s: %v", tt.src, err)
			}
			if b, _ := values.Truthy(v); b != tt.want {
				t.Errorf("%s = %v, want %v", tt.src, b, tt.want)
			}
		})
	}
}

func TestIsExpressionBindsAlias(t *testing.T) {
	tests := []struct {
		src   string
		alias string
		want  string
	}{
		{"is(long[] E : E[])", "E", "long"},
		{"is(int[long] == V[Key], V, Key)", "Key", "long"},
		{"is(short[] == T[], T)", "T", "short"},
		{"is(int X)", "X", "int"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			h := newHarness(t)
			v, err := h.value(t, tt.src)
			if err != nil {
				t.Fatal(err)
			}
			if b, _ := values.Truthy(v); !b {
				t.Fatalf("%s = false", tt.src)
			}
			if got := typeName(h.types(t, tt.alias)); got != tt.want {
				t.Errorf("%s after %s = %s, want %s", tt.alias, tt.src, got, tt.want)
			}
		})
	}
}

func TestNewConstructorSelection(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"new P(1, 2)", "P*"},
		{"new P()", "P*"},
		{"new P(1, 2, 3)", "<none>"},
		{"new C(1)", "C*"},
		{`new C("a", 2)`, "C*"},
		{"new C(1, 2)", "<none>"},
		{"new K()", "K"},
		{"new K(1)", "<none>"},
		{"new KC(1)", "KC"},
		{"new KC()", "<none>"},
		{"new A()", "<none>"},
		{"new I()", "<none>"},
		{"new Q(1, 2, 3)", "<none>"},
		{`new S("x", "y")`, "<none>"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			h := newHarness(t)
			if got := typeName(h.types(t, tt.src)); got != tt.want {
				t.Errorf("%s = %s, want %s", tt.src, got, tt.want)
			}
			if tt.want == "<none>" && !h.sink.Has(diagnostics.ErrR001) {
				t.Errorf("%s: no R001 in %# v", tt.src, pretty.Formatter(h.sink.Diagnostics()))
			}
		})
	}
}

func TestImplicitConstructorTakesPublicFields(t *testing.T) {
	h := newHarness(t)
	if got := typeName(h.types(t, "P(1, 2)")); got != "P" {
		t.Errorf("P(1, 2) = %s, want P", got)
	}
	if got := h.types(t, "P(1, 2, 3)"); len(got) != 0 {
		t.Errorf("P(1, 2, 3) = %v, want no result: hidden and static fields are not parameters", got)
	}
}

func TestStaticArrayDefaultsAreDistinct(t *testing.T) {
	h := newHarness(t)
	v, err := h.value(t, "grid()")
	if err != nil {
		t.Fatal(err)
	}
	if got := intOf(t, v); got != 5 {
		t.Errorf("grid() = %d, want 5: a write to one row leaked into another", got)
	}
}
