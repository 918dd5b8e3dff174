package evaluator

import (
	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/config"
	"github.com/funvibe/dsema/internal/resolver"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
)

// Mode selects what an evaluation computes.
type Mode int

const (
	// TypeMode infers symbol types without reading any variable.
	TypeMode Mode = iota
	// ValueMode also computes values through a Provider.
	ValueMode
)

func (m Mode) String() string {
	if m == ValueMode {
		return "value"
	}
	return "type"
}

// FileReader supplies the files read by import("file").
// modules.Snapshot implements it.
type FileReader interface {
	ReadFile(name string) ([]byte, error)
}

// CallFrame represents a function being evaluated at compile time
type CallFrame struct {
	Name   string // Function name
	File   string // Source file
	Line   int    // Line number
	Column int    // Column number
}

// Result is the outcome of one evaluation: the symbol types the expression
// may denote and, in value mode, its value. Value may be a VariableRef;
// Value() on the evaluator reads through it.
type Result struct {
	Types []typesystem.Type
	Value values.Value

	typeOnly bool
}

// DenotesType reports a result naming a type, module or package rather
// than a value.
func (r Result) DenotesType() bool { return r.typeOnly }

// Type returns the first candidate reduced to the type of the value it
// stands for.
func (r Result) Type() typesystem.Type {
	if len(r.Types) == 0 {
		if r.Value != nil {
			return r.Value.SymbolType()
		}
		return nil
	}
	return typesystem.Underlying(r.Types[0])
}

type Evaluator struct {
	mode     Mode
	provider values.Provider

	// Files backs import("file"). Nil disables string imports.
	Files FileReader
	// ImportPaths are searched after the directory of the importing module.
	ImportPaths []string
	// MaxDepth bounds nested evaluation and function invocation.
	MaxDepth int

	// UFCS is set when the last member access resolved to a free function.
	UFCS bool

	// CallStack for stack traces on errors
	CallStack []CallFrame

	shared *shared
}

// shared is the state sub-evaluators created for nested queries have in
// common with their parent.
type shared struct {
	depth     int
	constants *StandardProvider
	busy      map[ast.Node]bool
	inits     map[*ast.VariableDecl]values.Value
	enums     map[*ast.EnumValueDecl]values.Value
}

// New creates an evaluator fixed to mode. A value-mode evaluator without a
// provider reads constants only.
func New(mode Mode, provider values.Provider) *Evaluator {
	if mode == ValueMode && provider == nil {
		provider = NewStandardProvider(true)
	}
	return &Evaluator{
		mode:     mode,
		provider: provider,
		MaxDepth: config.DefaultMaxEvalDepth,
		shared: &shared{
			busy:  make(map[ast.Node]bool),
			inits: make(map[*ast.VariableDecl]values.Value),
			enums: make(map[*ast.EnumValueDecl]values.Value),
		},
	}
}

// Configure applies the evaluation settings of opts.
func (e *Evaluator) Configure(opts *config.Options) *Evaluator {
	if opts == nil {
		return e
	}
	if opts.MaxEvalDepth > 0 {
		e.MaxDepth = opts.MaxEvalDepth
	}
	e.ImportPaths = opts.StringImportPaths
	return e
}

func (e *Evaluator) Mode() Mode                { return e.mode }
func (e *Evaluator) Provider() values.Provider { return e.provider }

// sub creates an evaluator for a nested query. It shares the depth limit
// and caches of e.
func (e *Evaluator) sub(mode Mode, provider values.Provider) *Evaluator {
	return &Evaluator{
		mode:        mode,
		provider:    provider,
		Files:       e.Files,
		ImportPaths: e.ImportPaths,
		MaxDepth:    e.MaxDepth,
		CallStack:   e.CallStack,
		shared:      e.shared,
	}
}

// constantProvider is the constant-only provider used when the resolver
// asks for a value.
func (e *Evaluator) constantProvider() values.Provider {
	if sp, ok := e.provider.(*StandardProvider); ok && sp.ConstantOnly() {
		return sp
	}
	if e.shared.constants == nil {
		e.shared.constants = NewStandardProvider(true)
	}
	return e.shared.constants
}

func (e *Evaluator) maxDepth() int {
	if e.MaxDepth <= 0 {
		return config.DefaultMaxEvalDepth
	}
	return e.MaxDepth
}

// Evaluate evaluates x in the context's current frame. Soft errors go to
// the context's sink; hard failures in value mode come back as
// *EvaluationError.
func (e *Evaluator) Evaluate(ctx *resolver.Context, x ast.Expr) (Result, error) {
	if ctx.Evaluator == nil {
		ctx.Evaluator = e
		defer func() { ctx.Evaluator = nil }()
	}
	e.UFCS = false
	return e.eval(ctx, x)
}

// Types returns the symbol types x may denote. Evaluation failures yield an
// empty result.
func (e *Evaluator) Types(ctx *resolver.Context, x ast.Expr) []typesystem.Type {
	r, err := e.Evaluate(ctx, x)
	if err != nil {
		return nil
	}
	return r.Types
}

// Value evaluates x and reads through variable references.
func (e *Evaluator) Value(ctx *resolver.Context, x ast.Expr) (values.Value, error) {
	if e.mode != ValueMode {
		return nil, newError(x, "value requested from a type-mode evaluator")
	}
	if ctx.Evaluator == nil {
		ctx.Evaluator = e
		defer func() { ctx.Evaluator = nil }()
	}
	r, err := e.Evaluate(ctx, x)
	if err != nil {
		return nil, err
	}
	return e.read(ctx, x, r.Value)
}

// TypeOf implements resolver.Evaluator.
func (e *Evaluator) TypeOf(ctx *resolver.Context, x ast.Expr) []typesystem.Type {
	ev := e
	if e.mode != TypeMode {
		ev = e.sub(TypeMode, nil)
	}
	r, err := ev.eval(ctx, x)
	if err != nil {
		return nil
	}
	return r.Types
}

// ValueOf implements resolver.Evaluator. n is evaluated in constant-only
// value mode; a name parsed as a type is looked up as a symbol.
func (e *Evaluator) ValueOf(ctx *resolver.Context, n ast.Node) (values.Value, error) {
	ev := e
	if e.mode != ValueMode || !e.provider.ConstantOnly() {
		ev = e.sub(ValueMode, e.constantProvider())
	}
	switch n := n.(type) {
	case ast.Expr:
		r, err := ev.eval(ctx, n)
		if err != nil {
			return nil, err
		}
		return ev.read(ctx, n, r.Value)
	case ast.TypeNode:
		restore := ctx.WithOptions(resolver.StripAliases, resolver.ReportUnresolved)
		syms := ctx.ResolveType(n)
		restore()
		v, err := ev.symbolValue(ctx, n, syms)
		if err != nil {
			return nil, err
		}
		return ev.read(ctx, n, v)
	}
	return nil, newError(n, "%T has no value", n)
}

func (e *Evaluator) eval(ctx *resolver.Context, x ast.Expr) (Result, error) {
	if x == nil {
		return Result{}, nil
	}
	e.shared.depth++
	defer func() { e.shared.depth-- }()
	if e.shared.depth > e.maxDepth() {
		return Result{}, newError(x, "maximum evaluation depth exceeded")
	}
	return e.evalCore(ctx, x)
}

func (e *Evaluator) evalCore(ctx *resolver.Context, x ast.Expr) (Result, error) {
	switch x := x.(type) {
	case *ast.CommaExpr:
		return e.evalComma(ctx, x)
	case *ast.AssignExpr:
		return e.evalAssign(ctx, x)
	case *ast.ConditionalExpr:
		return e.evalConditional(ctx, x)
	case *ast.BinaryExpr:
		return e.evalBinary(ctx, x)
	case *ast.UnaryExpr:
		return e.evalUnary(ctx, x)
	case *ast.PostfixIncDecExpr:
		return e.evalPostfixIncDec(ctx, x)
	case *ast.CastExpr:
		return e.evalCast(ctx, x)
	case *ast.NewExpr:
		return e.evalNew(ctx, x)
	case *ast.MemberAccessExpr:
		return e.evalMemberAccess(ctx, x)
	case *ast.CallExpr:
		return e.evalCall(ctx, x)
	case *ast.IndexExpr:
		return e.evalIndex(ctx, x)
	case *ast.SliceExpr:
		return e.evalSlice(ctx, x)
	case *ast.Identifier:
		return e.evalIdentifier(ctx, x)
	case *ast.TemplateInstanceExpr:
		return e.evalTemplateInstance(ctx, x)
	case *ast.Literal:
		return e.evalLiteral(ctx, x)
	case *ast.ArrayLiteral:
		return e.evalArrayLiteral(ctx, x)
	case *ast.AssocArrayLiteral:
		return e.evalAssocArrayLiteral(ctx, x)
	case *ast.FunctionLiteral:
		return e.evalFunctionLiteral(ctx, x)
	case *ast.DollarExpr:
		return e.evalDollar(ctx, x)
	case *ast.ThisExpr:
		return e.evalThis(ctx, x)
	case *ast.TypeExpr:
		return e.evalTypeExpr(ctx, x)
	case *ast.IsExpr:
		return e.evalIs(ctx, x)
	case *ast.AssertExpr:
		return e.evalAssert(ctx, x)
	case *ast.MixinExpr:
		return e.evalMixin(ctx, x)
	case *ast.ImportExpr:
		return e.evalImport(ctx, x)
	}
	return Result{}, newError(x, "unsupported expression %T", x)
}

// PushCall adds a call frame to the stack
func (e *Evaluator) PushCall(fn *ast.FunctionDecl) {
	frame := CallFrame{Name: fn.Name()}
	if m := fn.Module(); m != nil {
		frame.File = m.FilePath
	}
	frame.Line, frame.Column = fn.Start().Line, fn.Start().Column
	e.CallStack = append(e.CallStack, frame)
}

// PopCall removes the top call frame from the stack
func (e *Evaluator) PopCall() {
	if len(e.CallStack) > 0 {
		e.CallStack = e.CallStack[:len(e.CallStack)-1]
	}
}
