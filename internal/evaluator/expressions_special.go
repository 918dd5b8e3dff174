package evaluator

import (
	"errors"
	"io/fs"
	"path"
	"strings"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/parser"
	"github.com/funvibe/dsema/internal/resolver"
	"github.com/funvibe/dsema/internal/token"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
)

// evalTypeExpr resolves a type in expression position. Its value is the
// type itself.
func (e *Evaluator) evalTypeExpr(ctx *resolver.Context, x *ast.TypeExpr) (Result, error) {
	syms := ctx.ResolveType(x.Type)
	if len(syms) == 0 {
		return Result{}, e.softFail(x, "cannot resolve type %s", describe(x.Type))
	}
	r := Result{Types: syms, typeOnly: denotesType(syms)}
	if e.mode == ValueMode {
		v, err := e.symbolValue(ctx, x, syms)
		if err != nil {
			return Result{}, err
		}
		r.Value = v
	}
	return r, nil
}

// evalIs decides `is(...)`. Bindings it introduces stay in the current
// frame.
func (e *Evaluator) evalIs(ctx *resolver.Context, x *ast.IsExpr) (Result, error) {
	r := Result{Types: []typesystem.Type{primitive(x, token.BOOL)}}
	if e.mode != ValueMode {
		return r, nil
	}
	restore := ctx.WithOptions(0, resolver.ReportUnresolved)
	t := first(ctx.ResolveType(x.Type))
	ok := t != nil && resolver.IsTypeDenotation(t) && ctx.MatchIs(x, t)
	restore()
	r.Value = values.NewBool(ok)
	return r, nil
}

func (e *Evaluator) evalAssert(ctx *resolver.Context, x *ast.AssertExpr) (Result, error) {
	r := Result{Types: []typesystem.Type{primitive(x, token.VOID)}}
	if e.mode != ValueMode || len(x.Args) == 0 {
		return r, nil
	}
	_, cv, err := e.operand(ctx, x.Args[0])
	if err != nil {
		return Result{}, err
	}
	ok, err := values.Truthy(cv)
	if err != nil {
		return Result{}, wrapError(x, err, cv)
	}
	if ok {
		return r, nil
	}
	if len(x.Args) > 1 {
		_, mv, err := e.operand(ctx, x.Args[1])
		if err != nil {
			return Result{}, err
		}
		if msg, ok := values.StringOf(mv); ok {
			return Result{}, newError(x, "assertion failed: %s", msg)
		}
	}
	return Result{}, newError(x, "assertion failed: %s", describe(x.Args[0]))
}

// evalMixin parses the string value of its operand as an expression and
// evaluates that in place.
func (e *Evaluator) evalMixin(ctx *resolver.Context, x *ast.MixinExpr) (Result, error) {
	src, err := e.constantString(ctx, x.X)
	if err != nil {
		return Result{}, e.hardOrSoft(err)
	}
	expr, err := parser.ParseExpressionString(src)
	if err != nil {
		return Result{}, e.softFail(x, "mixin: %v", err)
	}
	if m := x.Module(); m != nil && (m.ModuleName != "" || m.FilePath != "") {
		pop := ctx.EnterCaret(m, x.Start())
		defer pop()
	}
	return e.eval(ctx, expr)
}

// evalImport reads a file named by a string relative to the importing
// module's directory, then relative to each import path.
func (e *Evaluator) evalImport(ctx *resolver.Context, x *ast.ImportExpr) (Result, error) {
	str := ctx.StringType(token.CHAR_KW)
	r := Result{Types: []typesystem.Type{str}}
	if e.mode != ValueMode {
		return r, nil
	}
	name, err := e.constantString(ctx, x.X)
	if err != nil {
		return Result{}, err
	}
	if name == "" || path.IsAbs(name) || strings.Contains(name, "..") || strings.ContainsRune(name, '\\') {
		return Result{}, newError(x, "invalid import file name %q", name)
	}
	if e.Files == nil {
		return Result{}, newError(x, "string imports are disabled")
	}
	var dirs []string
	if m := x.Module(); m != nil && m.FilePath != "" {
		dirs = append(dirs, path.Dir(m.FilePath))
	}
	dirs = append(dirs, e.ImportPaths...)
	for _, dir := range dirs {
		data, err := e.Files.ReadFile(path.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Result{}, wrapError(x, err)
		}
		r.Value = values.NewString(string(data), str)
		return r, nil
	}
	return Result{}, newError(x, "file %q not found", name)
}

// constantString computes the string value of x. Type-mode evaluators use
// a constant-only sub-evaluator.
func (e *Evaluator) constantString(ctx *resolver.Context, x ast.Expr) (string, error) {
	var v values.Value
	var err error
	if e.mode == ValueMode {
		_, v, err = e.operand(ctx, x)
	} else {
		v, err = e.ValueOf(ctx, x)
	}
	if err != nil {
		return "", err
	}
	s, ok := values.StringOf(v)
	if !ok {
		return "", newError(x, "%s is not a string", describe(x))
	}
	return s, nil
}

// hardOrSoft drops err in type mode.
func (e *Evaluator) hardOrSoft(err error) error {
	if e.mode != ValueMode {
		return nil
	}
	return err
}
