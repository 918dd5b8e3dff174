package evaluator

import (
	"math/big"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/config"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/resolver"
	"github.com/funvibe/dsema/internal/token"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
)

// access is a resolved `X.Name`. When ufcs is set the symbols are free
// functions taking recv as their first argument.
type access struct {
	Result
	recv Result
	ufcs bool
}

// member resolves `X.Name`. Members of the receiver win over free
// functions called through UFCS, which win over static properties.
func (e *Evaluator) member(ctx *resolver.Context, x *ast.MemberAccessExpr) (access, error) {
	recv, err := e.eval(ctx, x.X)
	if err != nil {
		return access{}, err
	}
	a := access{recv: recv}
	if len(recv.Types) == 0 {
		return a, e.softFail(x, "cannot resolve %s", describe(x.X))
	}

	restore := ctx.WithOptions(0, resolver.ReportUnresolved)
	var syms []typesystem.Type
	for _, t := range recv.Types {
		syms = append(syms, ctx.LookupMember(t, x.Name)...)
	}
	if len(syms) == 0 && !recv.typeOnly {
		if syms = ctx.TryResolveUFCS(recv.Type(), x.Name, x); len(syms) > 0 {
			a.ufcs = true
		}
	}
	restore()

	if len(syms) > 0 && x.HasTemplateArgs {
		syms = ctx.InstantiateAll(syms, x.TemplateArgs, x)
	}
	if len(syms) == 0 && !x.HasTemplateArgs {
		for _, t := range recv.Types {
			if sp, ok := ctx.StaticProperty(t, x.Name); ok {
				syms = []typesystem.Type{sp}
				break
			}
		}
	}
	if len(syms) == 0 {
		ctx.Report(diagnostics.ErrR001, x, 0, "%s has no member %s", describe(x.X), x.Name)
		return a, e.softFail(x, "%s has no member %s", describe(x.X), x.Name)
	}
	a.Types = syms
	a.typeOnly = !a.ufcs && denotesType(syms)
	return a, nil
}

func (e *Evaluator) evalMemberAccess(ctx *resolver.Context, x *ast.MemberAccessExpr) (Result, error) {
	a, err := e.member(ctx, x)
	if err != nil || len(a.Types) == 0 {
		return a.Result, err
	}
	if a.ufcs {
		// `arr.front` calls front(arr).
		e.UFCS = true
		args, err := e.arguments(ctx, []ast.Expr{x.X}, []Result{a.recv})
		if err != nil {
			return Result{}, err
		}
		return e.call(ctx, x, a.Types, args)
	}
	if e.mode != ValueMode {
		return a.Result, nil
	}
	if sp, ok := a.Types[0].(*typesystem.StaticProperty); ok && len(a.Types) == 1 {
		a.Value, err = e.propertyValue(ctx, x, sp, &a.recv)
	} else {
		a.Value, err = e.symbolValue(ctx, x, a.Types)
	}
	if err != nil {
		return Result{}, err
	}
	return a.Result, nil
}

// propertyValue computes a static property. Properties with a constant
// value carry it; the rest are computed from the receiver's value.
func (e *Evaluator) propertyValue(ctx *resolver.Context, node ast.Node, sp *typesystem.StaticProperty, recv *Result) (values.Value, error) {
	if v, ok := sp.Value.(values.Value); ok && v != nil {
		return v, nil
	}
	switch sp.Name {
	case config.InitProperty:
		if m, ok := typesystem.MustStrip(sp.Owner).(*typesystem.Member); ok {
			if d, ok := m.Decl.(*ast.VariableDecl); ok && d.Init != nil {
				r, err := e.eval(ctx, d.Init)
				if err != nil {
					return nil, err
				}
				v, err := e.read(ctx, d.Init, r.Value)
				if err != nil {
					return nil, err
				}
				return coerce(v, sp.Type), nil
			}
		}
		if v := ctx.DefaultValue(sp.Type); v != nil {
			return v, nil
		}
		return nil, newError(node, "%s has no compile-time value", sp)
	case config.MinProperty, config.MaxProperty:
		if en, ok := typesystem.Underlying(sp.Owner).(*typesystem.Enum); ok {
			return e.enumBound(ctx, node, en, sp.Name == config.MaxProperty)
		}
	}
	if recv == nil || recv.typeOnly {
		return nil, newError(node, "%s has no compile-time value", sp)
	}
	v, err := e.read(ctx, node, recv.Value)
	if err != nil {
		return nil, err
	}

	switch sp.Name {
	case config.LengthProperty:
		n := -1
		switch c := v.(type) {
		case *values.Array:
			n = c.Len()
		case *values.AssocArray:
			n = c.Len()
		case *values.Null:
			n = 0
		}
		if n >= 0 {
			var kind token.TokenType = token.ULONG
			if p, ok := sp.Type.(*typesystem.Primitive); ok {
				kind = p.Kind
			}
			return values.NewIntegral(kind, big.NewInt(int64(n))), nil
		}
	case config.DupProperty, config.IdupProperty:
		typ, _ := sp.Type.(*typesystem.Array)
		switch c := v.(type) {
		case *values.Array:
			if c.IsString {
				return values.NewString(c.Str, typ), nil
			}
			return values.NewArray(typ, append([]values.Value(nil), c.Elements()...)), nil
		case *values.Null:
			return values.NewArray(typ, nil), nil
		}
	case config.KeysProperty, config.ValuesProperty:
		typ, _ := sp.Type.(*typesystem.Array)
		switch c := v.(type) {
		case *values.AssocArray:
			src := c.Values
			if sp.Name == config.KeysProperty {
				src = c.Keys
			}
			return values.NewArray(typ, append([]values.Value(nil), src...)), nil
		case *values.Null:
			return values.NewArray(typ, nil), nil
		}
	case config.ReProperty, config.ImProperty:
		if p, ok := v.(*values.Primitive); ok {
			var kind token.TokenType = token.REAL
			if t, ok := sp.Type.(*typesystem.Primitive); ok {
				kind = t.Kind
			}
			f := p.Re
			if sp.Name == config.ImProperty {
				f = p.Im
			}
			return values.NewFloating(kind, f, 0), nil
		}
	}
	return nil, newError(node, "%s has no compile-time value", sp)
}

// enumBound is the smallest or largest member value of an enum.
func (e *Evaluator) enumBound(ctx *resolver.Context, node ast.Node, en *typesystem.Enum, max bool) (values.Value, error) {
	var best *values.Primitive
	for _, m := range en.Decl.Members {
		v, err := e.enumValue(ctx, node, m, en)
		if err != nil {
			return nil, err
		}
		p, ok := v.(*values.Primitive)
		if !ok {
			return nil, newError(node, "%s has no ordered members", en)
		}
		if best == nil {
			best = p
			continue
		}
		var op token.TokenType = token.LT
		if max {
			op = token.GT
		}
		if better, err := values.Compare(op, p, best); err == nil && better {
			best = p
		}
	}
	if best == nil {
		return nil, newError(node, "%s has no members", en)
	}
	return best, nil
}

// elementType is the type produced by indexing t.
func elementType(t typesystem.Type) typesystem.Type {
	switch u := t.(type) {
	case *typesystem.Array:
		return u.Elem
	case *typesystem.AssocArray:
		return u.Value
	case *typesystem.Pointer:
		return u.Elem
	}
	return nil
}

func (e *Evaluator) evalIndex(ctx *resolver.Context, x *ast.IndexExpr) (Result, error) {
	holder, container, err := e.operand(ctx, x.X)
	if err != nil {
		return Result{}, err
	}
	elem := elementType(holder.Type())
	if elem == nil || holder.typeOnly || len(x.Args) != 1 {
		return Result{}, e.softFail(x, "cannot index %s", describe(x.X))
	}
	r := Result{Types: []typesystem.Type{elem}}
	if e.mode != ValueMode {
		return r, nil
	}
	switch c := container.(type) {
	case *values.Array:
		i, err := e.index(ctx, x.Args[0], c.Len())
		if err != nil {
			return Result{}, err
		}
		r.Value = c.Index(i)
		return r, nil
	case *values.AssocArray:
		k, err := e.readAt(ctx, x.Args[0], 0)
		if err != nil {
			return Result{}, err
		}
		v, ok := c.Get(coerce(k, c.Typ.Key))
		if !ok {
			return Result{}, newError(x, "key %s not found in %s", k.Inspect(), describe(x.X))
		}
		r.Value = v
		return r, nil
	case *values.Null:
		if _, ok := holder.Type().(*typesystem.AssocArray); ok {
			k, err := e.readAt(ctx, x.Args[0], 0)
			if err != nil {
				return Result{}, err
			}
			return Result{}, newError(x, "key %s not found in %s", k.Inspect(), describe(x.X))
		}
		return Result{}, newError(x, "null dereference of %s", describe(x.X))
	}
	return Result{}, newError(x, "cannot index %s at compile time", describe(x.X))
}

// readAt reads arg with n as the meaning of `$`.
func (e *Evaluator) readAt(ctx *resolver.Context, arg ast.Expr, n int) (values.Value, error) {
	e.provider.PushArrayLength(n)
	defer e.provider.PopArrayLength()
	_, v, err := e.operand(ctx, arg)
	return v, err
}

// intAt reads arg as an integer with n as the meaning of `$`.
func (e *Evaluator) intAt(ctx *resolver.Context, arg ast.Expr, n int) (int, error) {
	v, err := e.readAt(ctx, arg, n)
	if err != nil {
		return 0, err
	}
	p, ok := v.(*values.Primitive)
	if !ok || !p.IsIntegral() {
		return 0, newError(arg, "%s is not an integer", describe(arg))
	}
	i, err := p.ToInt()
	if err != nil {
		return 0, wrapError(arg, err, v)
	}
	return i, nil
}

// index reads an array index and checks it lies in [0, n).
func (e *Evaluator) index(ctx *resolver.Context, arg ast.Expr, n int) (int, error) {
	i, err := e.intAt(ctx, arg, n)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= n {
		return 0, newError(arg, "index %d is out of bounds [0 .. %d)", i, n)
	}
	return i, nil
}

func (e *Evaluator) evalSlice(ctx *resolver.Context, x *ast.SliceExpr) (Result, error) {
	holder, container, err := e.operand(ctx, x.X)
	if err != nil {
		return Result{}, err
	}
	var typ *typesystem.Array
	switch u := holder.Type().(type) {
	case *typesystem.Array:
		typ = &typesystem.Array{Base: typesystem.Base{Origin: x, Mods: u.Mods}, Elem: u.Elem}
	case *typesystem.Pointer:
		if u.Elem != nil {
			typ = &typesystem.Array{Base: typesystem.Base{Origin: x}, Elem: u.Elem}
		}
	}
	if typ == nil || holder.typeOnly {
		return Result{}, e.softFail(x, "cannot slice %s", describe(x.X))
	}
	r := Result{Types: []typesystem.Type{typ}}
	if e.mode != ValueMode {
		return r, nil
	}
	var arr *values.Array
	switch c := container.(type) {
	case *values.Array:
		arr = c
	case *values.Null:
		arr = values.NewArray(typ, nil)
	default:
		return Result{}, newError(x, "cannot slice %s at compile time", describe(x.X))
	}
	n := arr.Len()
	lo, hi := 0, n
	if x.Lower != nil {
		if lo, err = e.intAt(ctx, x.Lower, n); err != nil {
			return Result{}, err
		}
	}
	if x.Upper != nil {
		if hi, err = e.intAt(ctx, x.Upper, n); err != nil {
			return Result{}, err
		}
	}
	if lo < 0 || lo > hi || hi > n {
		return Result{}, newError(x, "slice [%d .. %d] is out of bounds [0 .. %d]", lo, hi, n)
	}
	r.Value = arr.Slice(lo, hi)
	return r, nil
}

// evalDollar is the length of the innermost array being indexed or sliced.
func (e *Evaluator) evalDollar(ctx *resolver.Context, x *ast.DollarExpr) (Result, error) {
	r := Result{Types: []typesystem.Type{ctx.SizeT()}}
	if e.mode != ValueMode {
		return r, nil
	}
	n, ok := e.provider.ArrayLength()
	if !ok {
		return Result{}, newError(x, "$ used outside of an index or slice")
	}
	var kind token.TokenType = token.ULONG
	if p, ok := r.Types[0].(*typesystem.Primitive); ok {
		kind = p.Kind
	}
	r.Value = values.NewIntegral(kind, big.NewInt(int64(n)))
	return r, nil
}
