package engine

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/config"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/evaluator"
	"github.com/funvibe/dsema/internal/modules"
	"github.com/funvibe/dsema/internal/parser"
	"github.com/funvibe/dsema/internal/resolver"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
	"github.com/google/uuid"
)

var (
	// ErrUnknownModule is returned for a position naming no loaded module.
	ErrUnknownModule = errors.New("unknown module")
	// ErrInternal wraps a panic recovered while answering a query.
	ErrInternal = errors.New("internal error")
)

// Position is a caret inside a module. Module is a dotted module name or a
// file path relative to the loaded tree. A zero line and column place the
// caret at module scope.
type Position struct {
	Module string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.Line == 0 && p.Column == 0 {
		return p.Module
	}
	return fmt.Sprintf("%s:%d:%d", p.Module, p.Line, p.Column)
}

// ParsePosition reads "module", "module:line" or "module:line:col".
func ParsePosition(s string) (Position, error) {
	parts := strings.Split(s, ":")
	if parts[0] == "" || len(parts) > 3 {
		return Position{}, fmt.Errorf("invalid position %q: want module[:line[:col]]", s)
	}
	p := Position{Module: parts[0]}
	nums := []*int{&p.Line, &p.Column}
	for i, part := range parts[1:] {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Position{}, fmt.Errorf("invalid position %q: bad number %q", s, part)
		}
		*nums[i] = n
	}
	if p.Line > 0 && p.Column == 0 {
		p.Column = 1
	}
	return p, nil
}

// Session answers queries against one cache snapshot. A session is not
// safe for concurrent use; EvaluateAll runs one session per query.
type Session struct {
	ID       uuid.UUID
	Snapshot *modules.Snapshot
	Options  *config.Options
	// Provider backs Value. Nil uses a standard provider honouring
	// Options.ConstantOnly.
	Provider values.Provider

	diags *diagnostics.Collector
}

func NewSession(snap *modules.Snapshot, opts *config.Options) *Session {
	if opts == nil {
		opts = config.Default()
	}
	return &Session{
		ID:       newID(),
		Snapshot: snap,
		Options:  opts,
		diags:    diagnostics.NewCollector(),
	}
}

// Diagnostics returns the soft errors reported so far.
func (s *Session) Diagnostics() []diagnostics.Diagnostic { return s.diags.Diagnostics() }

// ResetDiagnostics drops the collected soft errors.
func (s *Session) ResetDiagnostics() { s.diags.Reset() }

// Types returns every symbol type expr may denote at the given position.
func (s *Session) Types(expr string, at Position) (out []typesystem.Type, err error) {
	x, err := parser.ParseExpressionString(expr)
	if err != nil {
		return nil, err
	}
	err = s.run("types "+strconv.Quote(expr), at, func(ctx *resolver.Context) error {
		out = s.evaluator(evaluator.TypeMode).Types(ctx, x)
		return nil
	})
	return out, err
}

// Type is Types narrowed to a single result. No result or an ambiguous
// result is reported to the diagnostics and yields nil.
func (s *Session) Type(expr string, at Position) (out typesystem.Type, err error) {
	x, err := parser.ParseExpressionString(expr)
	if err != nil {
		return nil, err
	}
	err = s.run("type "+strconv.Quote(expr), at, func(ctx *resolver.Context) error {
		ts := s.evaluator(evaluator.TypeMode).Types(ctx, x)
		out = ctx.CheckForSingleResult(ts, x, expr)
		return nil
	})
	return out, err
}

// Value computes the compile-time value of expr. Hard failures come back as
// *evaluator.EvaluationError.
func (s *Session) Value(expr string, at Position) (out values.Value, err error) {
	x, err := parser.ParseExpressionString(expr)
	if err != nil {
		return nil, err
	}
	err = s.run("value "+strconv.Quote(expr), at, func(ctx *resolver.Context) error {
		out, err = s.evaluator(evaluator.ValueMode).Value(ctx, x)
		return err
	})
	return out, err
}

// Eval is Value converted to a plain Go value by a Marshaller.
func (s *Session) Eval(expr string, at Position) (interface{}, error) {
	v, err := s.Value(expr, at)
	if err != nil {
		return nil, err
	}
	return NewMarshaller().FromValue(v)
}

// ResolveType resolves a type written in source syntax.
func (s *Session) ResolveType(text string, at Position) (out []typesystem.Type, err error) {
	node, err := parser.ParseTypeString(text)
	if err != nil {
		return nil, err
	}
	err = s.run("resolve "+strconv.Quote(text), at, func(ctx *resolver.Context) error {
		out = ctx.ResolveType(node)
		return nil
	})
	return out, err
}

// Members lists the member names reachable through the first symbol type of
// expr, followed into the properties every type carries.
func (s *Session) Members(expr string, at Position) (out []string, err error) {
	x, err := parser.ParseExpressionString(expr)
	if err != nil {
		return nil, err
	}
	err = s.run("members "+strconv.Quote(expr), at, func(ctx *resolver.Context) error {
		ts := s.evaluator(evaluator.TypeMode).Types(ctx, x)
		if len(ts) == 0 {
			return nil
		}
		seen := make(map[string]bool)
		for _, n := range ctx.MemberNames(ts[0]) {
			seen[n] = true
		}
		for _, n := range config.CommonProperties {
			seen[n] = true
		}
		for n := range seen {
			out = append(out, n)
		}
		sort.Strings(out)
		return nil
	})
	return out, err
}

// run sets up a resolution context at the given position and calls fn.
// Panics become ErrInternal so a host process survives a bad query.
func (s *Session) run(op string, at Position, fn func(ctx *resolver.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("session %s: %s at %s panicked: %v", s.ID, op, at, r)
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()
	mod := s.module(at.Module)
	if mod == nil {
		return fmt.Errorf("%w: %s", ErrUnknownModule, at.Module)
	}
	ctx := resolver.NewContext(s.Snapshot, s.diags, resolver.StripAliases|resolver.ReportUnresolved)
	ctx.RootModule = s.Options.RootModule
	pop := ctx.EnterCaret(mod, ast.Location{Line: at.Line, Column: at.Column})
	defer pop()
	s.tracef("%s at %s", op, at)
	return fn(ctx)
}

func (s *Session) module(name string) *ast.Module {
	if s.Snapshot == nil {
		return nil
	}
	if m := s.Snapshot.ByName(name); m != nil {
		return m
	}
	return s.Snapshot.ByFile(name)
}

func (s *Session) evaluator(mode evaluator.Mode) *evaluator.Evaluator {
	var p values.Provider
	if mode == evaluator.ValueMode {
		p = s.Provider
		if p == nil {
			p = evaluator.NewStandardProvider(s.Options.IsConstantOnly())
		}
	}
	ev := evaluator.New(mode, p).Configure(s.Options)
	ev.Files = s.Snapshot
	return ev
}

func (s *Session) tracef(format string, args ...interface{}) {
	if s.Options.LogLevel == "verbose" {
		log.Printf("session %s: "+format, append([]interface{}{s.ID}, args...)...)
	}
}
