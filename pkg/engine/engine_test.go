package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/config"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
	"github.com/kr/pretty"
)

const fixture = `
-- app/main.d --
module app.main;

enum int N = 4;

struct S
{
    int field;
    int y(int a, int b);
    short z(int a, int b);
    byte z(int a, int b, int c = 0);
}
S s;
int counter = 3;

int square(int x)
{
    long local = x;
    return x * x;
}
-- views/greeting.txt --
hello
`

var mainAt = Position{Module: "app.main"}

func newEngine(t *testing.T, opts *config.Options) *Engine {
	t.Helper()
	e := New(opts)
	snap, err := e.LoadArchive(context.Background(), []byte(fixture))
	if err != nil {
		t.Fatalf("LoadArchive: %v", err)
	}
	for _, m := range snap.Entries() {
		if m.HasErrors() {
			t.Fatalf("%s: %v", m.Name, m.Errors)
		}
	}
	return e
}

func typeString(t typesystem.Type) string {
	if t == nil {
		return "<none>"
	}
	return typesystem.WithoutModifiers(typesystem.Underlying(t)).String()
}

func hasCode(ds []diagnostics.Diagnostic, code diagnostics.ErrorCode) bool {
	for _, d := range ds {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    Position
		wantErr bool
	}{
		{"app.main", Position{Module: "app.main"}, false},
		{"app/main.d:17", Position{Module: "app/main.d", Line: 17, Column: 1}, false},
		{"app.main:17:5", Position{Module: "app.main", Line: 17, Column: 5}, false},
		{"", Position{}, true},
		{"app.main:x", Position{}, true},
		{"app.main:1:2:3", Position{}, true},
		{"app.main:-1", Position{}, true},
	}
	for _, tt := range tests {
		got, err := ParsePosition(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePosition(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePosition(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestSessionTypes(t *testing.T) {
	s := newEngine(t, nil).Session()
	tests := []struct {
		expr string
		at   Position
		want string
	}{
		{"s.y(1, 2)", mainAt, "int"},
		{"N * 2", mainAt, "int"},
		{"square(3)", Position{Module: "app/main.d"}, "int"},
		{"local", Position{Module: "app.main", Line: 18, Column: 5}, "long"},
		{"x", Position{Module: "app.main", Line: 18, Column: 5}, "int"},
	}
	for _, tt := range tests {
		got, err := s.Type(tt.expr, tt.at)
		if err != nil {
			t.Errorf("Type(%q): %v", tt.expr, err)
			continue
		}
		if typeString(got) != tt.want {
			t.Errorf("Type(%q) at %s = %s, want %s", tt.expr, tt.at, typeString(got), tt.want)
		}
	}
}

func TestSessionAmbiguity(t *testing.T) {
	s := newEngine(t, nil).Session()
	got, err := s.Type("s.z(1, 2)", mainAt)
	if err != nil {
		t.Fatalf("Type: %v", err)
	}
	if got != nil {
		t.Errorf("ambiguous call resolved to %s", got)
	}
	if !hasCode(s.Diagnostics(), diagnostics.ErrR002) {
		t.Errorf("no R002 among %v", s.Diagnostics())
	}
	s.ResetDiagnostics()
	if len(s.Diagnostics()) != 0 {
		t.Errorf("diagnostics after reset: %v", s.Diagnostics())
	}
}

func TestSessionReportsUnresolved(t *testing.T) {
	tests := []struct {
		expr     string
		wantR001 bool
	}{
		{"nowhere", true},
		{".nowhere", true},
		{"s.nowhere", true},
		{"s.field", false},
		{"is(Nope)", false}, // existence checks stay silent
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			s := newEngine(t, nil).Session()
			if _, err := s.Types(tt.expr, mainAt); err != nil {
				t.Fatalf("Types: %v", err)
			}
			if got := hasCode(s.Diagnostics(), diagnostics.ErrR001); got != tt.wantR001 {
				t.Errorf("R001 reported = %v, want %v; diagnostics %v", got, tt.wantR001, s.Diagnostics())
			}
		})
	}
}

func TestSessionValues(t *testing.T) {
	opts := config.Default()
	opts.StringImportPaths = []string{"views"}
	s := newEngine(t, opts).Session()
	tests := []struct {
		expr string
		want interface{}
	}{
		{"N * 2", int64(8)},
		{"square(N) + 1", int64(17)},
		{`"a" ~ "b"`, "ab"},
		{"[1, 2, 3][1 .. $]", []interface{}{int64(2), int64(3)}},
		{`import("greeting.txt")`, "hello\n"},
		{"N > 3 && N < 5", true},
	}
	for _, tt := range tests {
		got, err := s.Eval(tt.expr, mainAt)
		if err != nil {
			t.Errorf("Eval(%q): %v", tt.expr, err)
			continue
		}
		if diff := pretty.Diff(got, tt.want); len(diff) > 0 {
			t.Errorf("Eval(%q) differs: %v", tt.expr, diff)
		}
	}
}

func TestSessionHardErrors(t *testing.T) {
	s := newEngine(t, nil).Session()
	if _, err := s.Value("counter + 1", mainAt); !errors.Is(err, values.ErrNotConstant) {
		t.Errorf("reading a mutable variable: err = %v, want ErrNotConstant", err)
	}
	if _, err := s.Value("[1, 2][2]", mainAt); err == nil {
		t.Errorf("out of range index evaluated")
	}
	if _, err := s.Value("N", Position{Module: "nope"}); !errors.Is(err, ErrUnknownModule) {
		t.Errorf("unknown module: err = %v", err)
	}
	if _, err := s.Types("1 +", mainAt); err == nil {
		t.Errorf("syntax error accepted")
	}
}

func TestSessionProvider(t *testing.T) {
	e := newEngine(t, nil)
	var counter *ast.VariableDecl
	for _, d := range e.Snapshot().ByName("app.main").Members {
		if v, ok := d.(*ast.VariableDecl); ok && v.Name() == "counter" {
			counter = v
		}
	}
	if counter == nil {
		t.Fatal("counter not found")
	}
	v, err := NewMarshaller().ToValue(10)
	if err != nil {
		t.Fatal(err)
	}
	p := values.NewMapProvider(false)
	p.Values[counter] = v

	s := e.Session()
	s.Provider = p
	got, err := s.Eval("counter * 2", mainAt)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != int64(20) {
		t.Errorf("counter * 2 = %#v, want 20", got)
	}
}

func TestSessionResolveTypeAndMembers(t *testing.T) {
	s := newEngine(t, nil).Session()
	ts, err := s.ResolveType("S[]", mainAt)
	if err != nil {
		t.Fatalf("ResolveType: %v", err)
	}
	if len(ts) != 1 || typeString(ts[0]) != "S[]" {
		t.Errorf("ResolveType(S[]) = %v", ts)
	}

	names, err := s.Members("s", mainAt)
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	for _, want := range []string{"field", "y", "z", config.InitProperty, config.SizeofProperty} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Members(s) = %v, missing %s", names, want)
		}
	}
}

func TestSnapshotPinning(t *testing.T) {
	e := newEngine(t, nil)
	old := e.Session()
	_, snap := e.Update("app/main.d", "module app.main;\nenum int N = 40;\n")
	if snap.Generation <= old.Snapshot.Generation {
		t.Fatalf("generation did not advance: %d -> %d", old.Snapshot.Generation, snap.Generation)
	}
	for _, tc := range []struct {
		s    *Session
		want int64
	}{{old, 4}, {e.Session(), 40}} {
		got, err := tc.s.Eval("N", mainAt)
		if err != nil {
			t.Fatalf("Eval: %v", err)
		}
		if got != tc.want {
			t.Errorf("generation %d: N = %v, want %d", tc.s.Snapshot.Generation, got, tc.want)
		}
	}
}

func TestUpdateWithoutLoad(t *testing.T) {
	e := New(nil)
	mod, snap := e.Update("scratch.d", "enum string greeting = \"hi\";\n")
	if snap.ByName(config.DefaultRootModule) == nil {
		t.Fatalf("root module missing from %v", snap.Entries())
	}
	got, err := e.Session().Eval("greeting", Position{Module: mod.Path})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != "hi" {
		t.Errorf("greeting = %# v, want \"hi\"", pretty.Formatter(got))
	}
}

func TestEvaluateAll(t *testing.T) {
	e := newEngine(t, nil)
	qs := []Query{
		{Kind: TypeQuery, Text: "s.y(1, 2)", At: mainAt},
		{Kind: ValueQuery, Text: "N + 1", At: mainAt},
		{Kind: ResolveTypeQuery, Text: "int[long]", At: mainAt},
		{Kind: MembersQuery, Text: "N", At: mainAt},
		{Kind: ValueQuery, Text: "1 / 0", At: mainAt},
		{Kind: TypeQuery, Text: "missing", At: mainAt},
	}
	answers, err := e.EvaluateAll(context.Background(), qs)
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	want := []string{"int", "5", "int[long]", "", "error:", "<none>"}
	ids := make(map[string]bool)
	for i, a := range answers {
		if a.Query != qs[i] {
			t.Errorf("answer %d is for %+v", i, a.Query)
		}
		ids[a.Session.String()] = true
		if got := a.Summary(); !strings.HasPrefix(got, want[i]) {
			t.Errorf("answer %d = %q, want prefix %q", i, got, want[i])
		}
	}
	if len(ids) != len(qs) {
		t.Errorf("%d distinct sessions for %d queries", len(ids), len(qs))
	}
	if !hasCode(answers[5].Diagnostics, diagnostics.ErrR001) {
		t.Errorf("unresolved name: diagnostics = %v", answers[5].Diagnostics)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.EvaluateAll(ctx, qs); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled batch: err = %v", err)
	}
}

func TestMarshaller(t *testing.T) {
	m := NewMarshaller()
	v, err := m.ToValue(map[string][]int{"b": {2}, "a": {1, 1}})
	if err != nil {
		t.Fatalf("ToValue: %v", err)
	}
	got, err := m.FromValue(v)
	if err != nil {
		t.Fatalf("FromValue: %v", err)
	}
	want := map[interface{}]interface{}{
		"a": []interface{}{int64(1), int64(1)},
		"b": []interface{}{int64(2)},
	}
	if diff := pretty.Diff(got, want); len(diff) > 0 {
		t.Errorf("round trip differs: %v", diff)
	}

	if _, err := m.ToValue(make(chan int)); err == nil {
		t.Errorf("channel converted")
	}
	if g, _ := m.FromValue(values.NewBool(true)); g != true {
		t.Errorf("bool = %#v", g)
	}
}
