package parser_test

import (
	"strings"
	"testing"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/lexer"
	"github.com/funvibe/dsema/internal/parser"
	"github.com/funvibe/dsema/internal/pipeline"
	"github.com/funvibe/dsema/internal/prettyprinter"
	"github.com/funvibe/dsema/internal/token"
)

// parseWithErrors runs the lexer+parser and returns all diagnostic errors.
func parseWithErrors(input string) (*ast.Module, []*diagnostics.DiagnosticError) {
	ctx := &pipeline.PipelineContext{SourceCode: input, FilePath: "test.d"}
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
	return ctx.AstRoot, ctx.Errors
}

func parseModule(t *testing.T, input string) *ast.Module {
	t.Helper()
	mod, errs := parseWithErrors(input)
	if len(errs) > 0 {
		var msgs []string
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		t.Fatalf("expected no errors, got:\n%s\ninput: %s", strings.Join(msgs, "\n"), input)
	}
	return mod
}

func parseExpr(t *testing.T, input string) ast.Expr {
	t.Helper()
	e, err := parser.ParseExpressionString(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return e
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2 + 3 * 4", "2 + 3 * 4"},
		{"(2 + 3) * 4", "(2 + 3) * 4"},
		{"a || b && c", "a || b && c"},
		{"a << 1 + 2", "a << 1 + 2"},
		{"x ~ y ~ z", "x ~ y ~ z"},
		{"a !is null", "a !is null"},
		{"k !in aa", "k !in aa"},
		{"a !<>= b", "a !<>= b"},
		{"c ? a : b", "c ? a : b"},
		{"x = y += 2", "x = y += 2"},
		{"a.b.c(1, 2)", "a.b.c(1, 2)"},
		{"arr[1 .. $]", "arr[1 .. $]"},
		{"arr[]", "arr[]"},
		{"foo!(int, 3)(x)", "foo!(int, 3)(x)"},
		{"cast(long) x", "cast(long) x"},
		{"new Foo(1)", "new Foo(1)"},
		{"int.max", "int.max"},
		{"typeof(a).sizeof", "typeof(a).sizeof"},
	}

	for _, tt := range tests {
		e := parseExpr(t, tt.input)
		if got := prettyprinter.Print(e); got != tt.expected {
			t.Errorf("%q printed as %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestPowerBindsTighterThanUnary(t *testing.T) {
	e := parseExpr(t, "-2 ^^ 2")
	u, ok := e.(*ast.UnaryExpr)
	if !ok || u.Op != token.MINUS {
		t.Fatalf("expected unary minus at the root, got %T", e)
	}
	if b, ok := u.X.(*ast.BinaryExpr); !ok || b.Op != token.POW {
		t.Fatalf("expected ^^ under unary minus, got %T", u.X)
	}
}

func TestPowerIsRightAssociative(t *testing.T) {
	e := parseExpr(t, "2 ^^ 3 ^^ 2").(*ast.BinaryExpr)
	if _, ok := e.Right.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected right operand to be ^^, got %T", e.Right)
	}
}

func TestCommaExpression(t *testing.T) {
	e := parseExpr(t, "a, b, c")
	c, ok := e.(*ast.CommaExpr)
	if !ok || len(c.List) != 3 {
		t.Fatalf("expected 3-element comma expression, got %#v", e)
	}
}

func TestIsExpressionForms(t *testing.T) {
	tests := []struct {
		input     string
		alias     string
		equality  bool
		specToken token.TokenType
		hasType   bool
		params    int
	}{
		{"is(int)", "", false, "", false, 0},
		{"is(T == struct)", "", true, token.STRUCT, false, 0},
		{"is(T : long)", "", false, "", true, 0},
		{"is(T U == U[])", "U", true, "", true, 0},
		{"is(T == V[K], V, K)", "", true, "", true, 2},
	}
	for _, tt := range tests {
		e, ok := parseExpr(t, tt.input).(*ast.IsExpr)
		if !ok {
			t.Fatalf("%s: not an is-expression", tt.input)
		}
		if e.AliasName != tt.alias || e.Equality != tt.equality || e.SpecToken != tt.specToken ||
			(e.SpecType != nil) != tt.hasType || len(e.Params) != tt.params {
			t.Errorf("%s: got alias=%q eq=%v tok=%q type=%v params=%d", tt.input,
				e.AliasName, e.Equality, e.SpecToken, e.SpecType != nil, len(e.Params))
		}
	}
}

func TestLiterals(t *testing.T) {
	aa, ok := parseExpr(t, `["a": 1, "b": 2]`).(*ast.AssocArrayLiteral)
	if !ok || len(aa.Keys) != 2 {
		t.Fatalf("expected associative array literal")
	}
	arr, ok := parseExpr(t, "[1, 2, 3,]").(*ast.ArrayLiteral)
	if !ok || len(arr.Elements) != 3 {
		t.Fatalf("expected 3-element array literal")
	}
	lit := parseExpr(t, "10UL").(*ast.Literal)
	if !lit.Has(ast.FormatUnsigned) || !lit.Has(ast.FormatLong) {
		t.Errorf("10UL format = %v", lit.Format)
	}
	s := parseExpr(t, `"abc"d`).(*ast.Literal)
	if s.StringKind != token.DCHAR || s.Str != "abc" {
		t.Errorf("dstring literal = %#v", s)
	}
}

func TestLambdas(t *testing.T) {
	tests := []struct {
		input  string
		params int
	}{
		{"(a, b) => a + b", 2},
		{"x => x * 2", 1},
		{"function int(int a) { return a; }", 1},
		{"delegate () { return 1; }", 0},
	}
	for _, tt := range tests {
		fl, ok := parseExpr(t, tt.input).(*ast.FunctionLiteral)
		if !ok {
			t.Fatalf("%s: expected function literal", tt.input)
		}
		if len(fl.Func.Params) != tt.params {
			t.Errorf("%s: %d params, want %d", tt.input, len(fl.Func.Params), tt.params)
		}
		if fl.Func.Body == nil || len(fl.Func.Body.Statements) != 1 {
			t.Errorf("%s: expected a one-statement body", tt.input)
		}
	}
}

func TestModuleDeclarations(t *testing.T) {
	input := `
module app.main;

import std.stdio;
public import core.types : Point;

alias Str = immutable(char)[];
enum Color { red, green = 5, blue }
enum answer = 42;

struct S {
	int a;
	int y(int p, int q) { return p + q; }
	int y(int p, int q, int r) { return p; }
}

class C : Base {
	this(int v) {}
	abstract void run();
}

T max(T)(T a, T b) { return a > b ? a : b; }

int counter = 1, other;
`
	mod := parseModule(t, input)
	if mod.Name() != "app.main" {
		t.Errorf("module name = %q", mod.Name())
	}

	names := []string{}
	for _, d := range mod.Members {
		names = append(names, d.Name())
	}
	want := "||Str|Color|answer|S|C|max|counter|other"
	if got := strings.Join(names, "|"); got != want {
		t.Errorf("member names = %q, want %q", got, want)
	}

	imports := mod.Imports()
	if len(imports) != 2 || !imports[1].Public || imports[1].Symbols[0] != "Point" {
		t.Errorf("imports = %#v", imports)
	}

	s := mod.Members[5].(*ast.AggregateDecl)
	if s.Kind != ast.AggregateStruct || len(s.Members) != 3 {
		t.Fatalf("struct S = %#v", s)
	}
	y := s.Members[1].(*ast.FunctionDecl)
	if y.Parent() != s {
		t.Errorf("parent of S.y is %v", y.Parent())
	}
	if p := y.Params[0]; p.Parent() != y || p.Module() != mod {
		t.Errorf("parameter not linked into its function")
	}

	c := mod.Members[6].(*ast.AggregateDecl)
	if !c.IsAbstract() || len(c.BaseClasses) != 1 {
		t.Errorf("class C abstract=%v bases=%d", c.IsAbstract(), len(c.BaseClasses))
	}
	if ctor := c.Members[0].(*ast.FunctionDecl); ctor.Kind != ast.FunctionConstructor {
		t.Errorf("expected constructor, got %v", ctor.Kind)
	}

	fn := mod.Members[7].(*ast.FunctionDecl)
	if !fn.IsTemplate() || len(fn.TemplateParams) != 1 || len(fn.Params) != 2 {
		t.Errorf("template function max = %#v", fn)
	}

	manifest := mod.Members[4].(*ast.VariableDecl)
	if !manifest.IsConstant() || manifest.Init == nil {
		t.Errorf("manifest constant answer = %#v", manifest)
	}
}

func TestFunctionBodyStatements(t *testing.T) {
	mod := parseModule(t, `
int f(int n) {
	int x = n * 2;
	Foo* p;
	x += 1;
	if (x > 3) return x; else { return 0; }
}`)
	body := mod.Members[0].(*ast.FunctionDecl).Body
	if len(body.Statements) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(body.Statements))
	}
	if _, ok := body.Statements[0].(*ast.DeclStmt); !ok {
		t.Errorf("statement 0 is %T, want declaration", body.Statements[0])
	}
	if ds, ok := body.Statements[1].(*ast.DeclStmt); !ok {
		t.Errorf("statement 1 is %T, want declaration", body.Statements[1])
	} else if _, ok := ds.Decls[0].(*ast.VariableDecl).Type.(*ast.PointerType); !ok {
		t.Errorf("Foo* p should declare a pointer")
	}
	if _, ok := body.Statements[2].(*ast.ExprStmt); !ok {
		t.Errorf("statement 2 is %T, want expression", body.Statements[2])
	}
	if _, ok := body.Statements[3].(*ast.IfStmt); !ok {
		t.Errorf("statement 3 is %T, want if", body.Statements[3])
	}
}

func TestTypes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"int[]", "int[]"},
		{"int[string]", "int[string]"},
		{"int[3]", "int[3]"},
		{"const(char)*", "const(char)*"},
		{"a.b.C!(int)", "a.b.C!(int)"},
		{"int delegate(int, string)", "int delegate(int, string)"},
	}
	for _, tt := range tests {
		ty, err := parser.ParseTypeString(tt.input)
		if err != nil {
			t.Fatalf("%s: %v", tt.input, err)
		}
		if got := prettyprinter.Print(ty); got != tt.expected {
			t.Errorf("%s printed as %q", tt.input, got)
		}
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		input string
		code  diagnostics.ErrorCode
	}{
		{"int x = ;", diagnostics.ErrP005},
		{"struct S { int a; ", diagnostics.ErrP002},
		{"int f( { }", diagnostics.ErrP002},
	}
	for _, tt := range tests {
		_, errs := parseWithErrors(tt.input)
		found := false
		for _, e := range errs {
			if e.Code == tt.code {
				found = true
				if e.File != "test.d" {
					t.Errorf("%q: error without file: %v", tt.input, e)
				}
			}
		}
		if !found {
			t.Errorf("%q: expected %s, got %v", tt.input, tt.code, errs)
		}
	}

	if _, err := parser.ParseExpressionString("1 +"); err == nil {
		t.Errorf("expected error for incomplete expression")
	}
}
