package resolver

import (
	"fmt"
	"strings"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/config"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
)

// Options tune one resolution frame.
type Options uint

const (
	// StripAliases removes alias layers from resolved symbols.
	StripAliases Options = 1 << iota
	// ReturnMethodsOnly keeps only function declarations in name lookup.
	ReturnMethodsOnly
	// DontResolveBaseTypes leaves variables and functions without their
	// declared types.
	DontResolveBaseTypes
	// DontResolveBaseClasses skips base class lists of aggregates.
	DontResolveBaseClasses
	// NoTemplateDeduction returns template declarations uninstantiated.
	NoTemplateDeduction
	// ReportUnresolved logs R001 when a lookup finds nothing.
	ReportUnresolved
)

// ModuleSource is the read-only view of the module cache the resolver
// searches. modules.Snapshot implements it.
type ModuleSource interface {
	All() []*ast.Module
	ByName(name string) *ast.Module
	ByFile(path string) *ast.Module
}

// Evaluator is the expression evaluator as the resolver sees it: typeof(),
// static array lengths, value template arguments and initializers go
// through it.
type Evaluator interface {
	TypeOf(ctx *Context, e ast.Expr) []typesystem.Type
	// ValueOf evaluates an expression, or a bare name parsed as a type, in
	// constant-only value mode.
	ValueOf(ctx *Context, n ast.Node) (values.Value, error)
}

// Frame is one entry of the resolution context stack.
type Frame struct {
	Scope     ast.Node
	Statement ast.Node
	Caret     ast.Location
	Options   Options
	Deduced   typesystem.DeducedParams
}

// Context is the resolution context stack plus the collaborators every
// resolution step needs. It is not safe for concurrent use; run one Context
// per request.
type Context struct {
	Modules    ModuleSource
	Sink       diagnostics.Sink
	Evaluator  Evaluator
	RootModule string

	frames []*Frame
	active map[ast.Node]bool
}

// NewContext creates a context with a single frame carrying opts.
func NewContext(mods ModuleSource, sink diagnostics.Sink, opts Options) *Context {
	if sink == nil {
		sink = diagnostics.Discard
	}
	return &Context{
		Modules:    mods,
		Sink:       sink,
		RootModule: config.DefaultRootModule,
		frames:     []*Frame{{Options: opts}},
		active:     make(map[ast.Node]bool),
	}
}

// Current returns the innermost frame.
func (c *Context) Current() *Frame { return c.frames[len(c.frames)-1] }

// Depth is the number of frames on the stack.
func (c *Context) Depth() int { return len(c.frames) }

// Has reports whether the current frame carries every flag in o.
func (c *Context) Has(o Options) bool { return c.Current().Options&o == o }

// Push adds a frame. Unset fields are inherited from the current frame; the
// returned function pops it and must be deferred.
func (c *Context) Push(f Frame) (pop func()) {
	cur := c.Current()
	if f.Scope == nil {
		f.Scope = cur.Scope
		if f.Statement == nil {
			f.Statement = cur.Statement
		}
		if f.Caret.IsZero() {
			f.Caret = cur.Caret
		}
	}
	if f.Options == 0 {
		f.Options = cur.Options
	}
	f.Deduced = merge(cur.Deduced, f.Deduced)
	c.frames = append(c.frames, &f)
	n := len(c.frames)
	return func() { c.frames = c.frames[:n-1] }
}

// PushScope enters a nested scope with the current options.
func (c *Context) PushScope(scope ast.Node, caret ast.Location) (pop func()) {
	return c.Push(Frame{Scope: scope, Caret: caret, Statement: statementAt(scope, caret)})
}

// WithOptions sets and clears flags on the current frame until the returned
// function restores them.
func (c *Context) WithOptions(set, clear Options) (restore func()) {
	f := c.Current()
	saved := f.Options
	f.Options = (f.Options | set) &^ clear
	return func() { f.Options = saved }
}

// WithDeduced pushes a frame in which d's template parameters are visible.
func (c *Context) WithDeduced(d typesystem.DeducedParams) (pop func()) {
	return c.Push(Frame{Deduced: d})
}

// Bind stores a binding in the current frame's deduction dictionary, where
// it stays visible to later lookups from the same frame.
func (c *Context) Bind(sym *typesystem.TemplateParameterSymbol) {
	f := c.Current()
	f.Deduced = merge(f.Deduced, typesystem.DeducedParams{sym.Name(): sym})
}

// EnterCaret pushes a frame scoped to the innermost scope of mod containing
// caret.
func (c *Context) EnterCaret(mod *ast.Module, caret ast.Location) (pop func()) {
	scope := ScopeAt(mod, caret)
	return c.Push(Frame{Scope: scope, Caret: caret, Statement: statementAt(scope, caret)})
}

func merge(a, b typesystem.DeducedParams) typesystem.DeducedParams {
	if len(b) == 0 {
		return a
	}
	out := make(typesystem.DeducedParams, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// enter guards against resolving node while it is already being resolved.
func (c *Context) enter(node ast.Node) (leave func(), ok bool) {
	if c.active[node] {
		return nil, false
	}
	c.active[node] = true
	return func() { delete(c.active, node) }, true
}

// Report delivers a soft error to the sink.
func (c *Context) Report(code diagnostics.ErrorCode, node ast.Node, candidates int, format string, args ...any) {
	sev := diagnostics.SeverityWarning
	if code == diagnostics.ErrR003 {
		sev = diagnostics.SeverityError
	}
	c.Sink.Report(diagnostics.Diagnostic{
		Code:       code,
		Severity:   sev,
		Message:    fmt.Sprintf(format, args...),
		Node:       node,
		Candidates: candidates,
	})
}

// CheckForSingleResult returns the only element of results. No result or
// several results are reported as soft errors and yield nil.
func (c *Context) CheckForSingleResult(results []typesystem.Type, node ast.Node, what string) typesystem.Type {
	switch len(results) {
	case 1:
		return results[0]
	case 0:
		c.Report(diagnostics.ErrR001, node, 0, "no candidates for %s", what)
		return nil
	}
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.String()
	}
	c.Report(diagnostics.ErrR002, node, len(results), "%s is ambiguous: %d candidates (%s)",
		what, len(results), strings.Join(names, "; "))
	return nil
}

// finish applies the frame's result options to a resolution result.
func (c *Context) finish(out []typesystem.Type, node ast.Node, what string) []typesystem.Type {
	if c.Has(StripAliases) {
		stripped := out[:0:0]
		for _, t := range out {
			s, err := typesystem.StripAliases(t)
			if err != nil {
				c.Report(diagnostics.ErrR003, node, 0, "%v", err)
				continue
			}
			stripped = append(stripped, s)
		}
		out = stripped
	}
	if len(out) == 0 && c.Has(ReportUnresolved) {
		c.Report(diagnostics.ErrR001, node, 0, "cannot resolve %s", what)
	}
	return out
}

// RootModuleAST returns the well-known root module, if loaded.
func (c *Context) RootModuleAST() *ast.Module {
	if c.Modules == nil {
		return nil
	}
	return c.Modules.ByName(c.RootModule)
}
