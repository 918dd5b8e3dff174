package evaluator

import (
	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/resolver"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
)

// invoke runs the body of m at compile time with args bound to its
// parameters. Locals live in a fresh frame provider; everything else is
// read through the caller's provider.
func (e *Evaluator) invoke(ctx *resolver.Context, site ast.Node, m *typesystem.Method, args []argument) (values.Value, error) {
	fn := m.Decl
	if fn.Body == nil {
		return nil, newError(site, "%s has no body to evaluate", fn.Name())
	}
	if len(e.CallStack) >= e.maxDepth() {
		return nil, newError(site, "maximum call depth exceeded in %s", fn.Name())
	}

	frame := newFrameProvider(e.provider)
	ev := e.sub(ValueMode, frame)
	ev.PushCall(fn)
	pop := ctx.WithDeduced(m.Deduced)
	defer pop()

	for _, d := range locals(fn.Body) {
		frame.declare(d, nil)
	}
	for i, p := range fn.Params {
		var v values.Value
		switch {
		case i < len(args):
			v = args[i].value
		case p.Init != nil:
			r, err := ev.eval(ctx, p.Init)
			if err != nil {
				return nil, err
			}
			if v, err = ev.read(ctx, p.Init, r.Value); err != nil {
				return nil, err
			}
		default:
			return nil, newError(site, "missing argument for %s", p.Name())
		}
		var pt typesystem.Type
		if i < len(m.Params) {
			pt = m.Params[i].Type
		}
		frame.declare(p, coerce(v, pt))
	}

	v, _, err := ev.exec(ctx, fn.Body)
	if err != nil {
		return nil, err
	}
	return coerce(v, m.Return), nil
}

// locals lists the variables declared in body, outside nested function
// literals.
func locals(body *ast.BlockStmt) []*ast.VariableDecl {
	var out []*ast.VariableDecl
	ast.Walk(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FunctionLiteral:
			return false
		case *ast.DeclStmt:
			for _, d := range n.Decls {
				if v, ok := d.(*ast.VariableDecl); ok {
					out = append(out, v)
				}
			}
		}
		return true
	})
	return out
}

// exec runs one statement. done is set once a return statement ran.
func (e *Evaluator) exec(ctx *resolver.Context, s ast.Stmt) (v values.Value, done bool, err error) {
	switch s := s.(type) {
	case *ast.BlockStmt:
		for _, st := range s.Statements {
			if v, done, err = e.exec(ctx, st); err != nil || done {
				return v, done, err
			}
		}
		return nil, false, nil

	case *ast.DeclStmt:
		frame, ok := e.provider.(*frameProvider)
		if !ok {
			return nil, false, newError(s, "declaration outside of a function")
		}
		for _, d := range s.Decls {
			decl, ok := d.(*ast.VariableDecl)
			if !ok {
				continue
			}
			typ := typesystem.Underlying(ctx.SymbolOf(decl))
			var val values.Value
			if decl.Init != nil {
				r, err := e.eval(ctx, decl.Init)
				if err != nil {
					return nil, false, err
				}
				if val, err = e.read(ctx, decl.Init, r.Value); err != nil {
					return nil, false, err
				}
			} else if val = ctx.DefaultValue(typ); val == nil {
				return nil, false, newError(decl, "%s has no default value", decl.Name())
			}
			frame.declare(decl, coerce(val, typ))
		}
		return nil, false, nil

	case *ast.ExprStmt:
		_, err := e.eval(ctx, s.X)
		return nil, false, err

	case *ast.ReturnStmt:
		if s.X == nil {
			return nil, true, nil
		}
		r, err := e.eval(ctx, s.X)
		if err != nil {
			return nil, false, err
		}
		v, err := e.read(ctx, s.X, r.Value)
		return v, err == nil, err

	case *ast.IfStmt:
		r, err := e.eval(ctx, s.Cond)
		if err != nil {
			return nil, false, err
		}
		cv, err := e.read(ctx, s.Cond, r.Value)
		if err != nil {
			return nil, false, err
		}
		ok, err := values.Truthy(cv)
		if err != nil {
			return nil, false, wrapError(s.Cond, err, cv)
		}
		switch {
		case ok:
			return e.exec(ctx, s.Then)
		case s.Else != nil:
			return e.exec(ctx, s.Else)
		}
		return nil, false, nil
	}
	return nil, false, newError(s, "%T cannot be evaluated at compile time", s)
}
