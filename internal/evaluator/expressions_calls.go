package evaluator

import (
	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/config"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/resolver"
	"github.com/funvibe/dsema/internal/token"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
)

// argument is one evaluated call argument. value is set in value mode.
type argument struct {
	Result
	expr  ast.Expr
	value values.Value
}

// callable is one way a callee symbol can be called.
type callable struct {
	sym      typesystem.Type
	params   []typesystem.Parameter
	variadic bool
	ret      typesystem.Type

	method    *typesystem.Method
	delegate  bool // sym holds a delegate value
	convert   bool // primitive conversion such as int(x)
	construct bool
}

func (c callable) required() int {
	n := 0
	for _, p := range c.params {
		if !p.HasDefault {
			n++
		}
	}
	return n
}

// arguments evaluates call arguments. The first len(pre) of exprs were
// already evaluated.
func (e *Evaluator) arguments(ctx *resolver.Context, exprs []ast.Expr, pre []Result) ([]argument, error) {
	out := make([]argument, len(exprs))
	for i, x := range exprs {
		var r Result
		if i < len(pre) {
			r = pre[i]
		} else {
			var err error
			if r, err = e.eval(ctx, x); err != nil {
				return nil, err
			}
		}
		out[i] = argument{Result: r, expr: x}
		if e.mode == ValueMode {
			v, err := e.read(ctx, x, r.Value)
			if err != nil {
				return nil, err
			}
			out[i].value = v
		}
	}
	return out, nil
}

func argTypes(args []argument) []typesystem.Type {
	out := make([]typesystem.Type, len(args))
	for i, a := range args {
		out[i] = a.Type()
	}
	return out
}

func (e *Evaluator) evalCall(ctx *resolver.Context, x *ast.CallExpr) (Result, error) {
	var cands []typesystem.Type
	var args []argument
	if fun, ok := x.Fun.(*ast.MemberAccessExpr); ok {
		a, err := e.member(ctx, fun)
		if err != nil || len(a.Types) == 0 {
			return Result{}, err
		}
		cands = a.Types
		if a.ufcs {
			e.UFCS = true
			if args, err = e.arguments(ctx, []ast.Expr{fun.X}, []Result{a.recv}); err != nil {
				return Result{}, err
			}
		}
	} else {
		f, err := e.eval(ctx, x.Fun)
		if err != nil {
			return Result{}, err
		}
		cands = f.Types
	}
	if len(cands) == 0 {
		return Result{}, e.softFail(x, "cannot resolve %s", describe(x.Fun))
	}
	rest, err := e.arguments(ctx, x.Args, nil)
	if err != nil {
		return Result{}, err
	}
	return e.call(ctx, x, cands, append(args, rest...))
}

// call selects the overload of cands that best accepts args: exact matches
// beat implicit conversions. In value mode the selected function runs.
func (e *Evaluator) call(ctx *resolver.Context, site ast.Node, cands []typesystem.Type, args []argument) (Result, error) {
	var cs []callable
	for _, cand := range cands {
		cs = append(cs, e.callables(ctx, cand, args)...)
	}
	c, err := e.pick(ctx, site, typesystem.Name(cands[0]), len(cands), cs, args)
	if err != nil || c == nil {
		return Result{}, err
	}
	var r Result
	if c.ret != nil {
		r.Types = []typesystem.Type{c.ret}
	}
	if e.mode != ValueMode {
		return r, nil
	}
	v, err := e.invokeCallable(ctx, site, *c, args)
	if err != nil {
		return Result{}, err
	}
	r.Value = v
	return r, nil
}

// pick returns the callable of cs that best accepts args. A nil callable
// means none or several did; R001 or R002 has been reported then.
func (e *Evaluator) pick(ctx *resolver.Context, site ast.Node, name string, ncands int, cs []callable, args []argument) (*callable, error) {
	var best []callable
	bestScore := -1
	for _, c := range cs {
		switch s := score(c, args); {
		case s > bestScore:
			best, bestScore = []callable{c}, s
		case s == bestScore && s >= 0:
			best = append(best, c)
		}
	}
	if bestScore < 0 {
		ctx.Report(diagnostics.ErrR001, site, ncands, "no overload of %s accepts %d argument(s)", name, len(args))
		return nil, e.softFail(site, "no overload of %s accepts the arguments", name)
	}
	syms := make([]typesystem.Type, len(best))
	for i, c := range best {
		syms[i] = c.sym
	}
	if ctx.CheckForSingleResult(syms, site, describe(site)) == nil {
		return nil, e.softFail(site, "call to %s is ambiguous", name)
	}
	return &best[0], nil
}

// score ranks how well c accepts args: -1 rejects, 1 needs implicit
// conversions, 2 matches every argument exactly.
func score(c callable, args []argument) int {
	if len(args) < c.required() || len(args) > len(c.params) && !c.variadic {
		return -1
	}
	exact := true
	for i, a := range args {
		if i >= len(c.params) {
			exact = false
			continue
		}
		pt, at := typesystem.Underlying(c.params[i].Type), a.Type()
		if pt == nil || at == nil {
			exact = false
			continue
		}
		if typesystem.EqualIgnoringModifiers(pt, at) {
			continue
		}
		if !resolver.IsImplicitlyConvertible(at, pt) {
			return -1
		}
		exact = false
	}
	if exact {
		return 2
	}
	return 1
}

// callables lists the ways sym can be called with args. Function
// templates are deduced from the argument types first.
func (e *Evaluator) callables(ctx *resolver.Context, sym typesystem.Type, args []argument) []callable {
	switch s := typesystem.MustStrip(sym).(type) {
	case *typesystem.Method:
		m := s
		if s.Decl.IsTemplate() && !s.Deduced.Complete() {
			d, ok := ctx.DeduceFromArguments(s.Decl, s.Deduced, argTypes(args))
			if !ok {
				return nil
			}
			if !d.Complete() && !ctx.FillDefaults(s.Decl.TemplateParams, d) {
				return nil
			}
			if m, ok = ctx.Instantiate(s.Decl, d).(*typesystem.Method); !ok {
				return nil
			}
		}
		return []callable{{sym: m, params: m.Params, variadic: m.Decl.Variadic, ret: m.Return, method: m}}

	case *typesystem.Delegate:
		return []callable{{sym: s, params: s.Params, variadic: s.Variadic, ret: s.Return, delegate: true}}

	case *typesystem.Member:
		switch t := typesystem.Underlying(s).(type) {
		case *typesystem.Delegate:
			return []callable{{sym: s, params: t.Params, variadic: t.Variadic, ret: t.Return, delegate: true}}
		case *typesystem.Aggregate:
			return e.opCall(ctx, t)
		}

	case *typesystem.Aggregate:
		return e.constructors(ctx, s)

	case *typesystem.Primitive:
		if s.IsVoid() {
			return nil
		}
		return []callable{{sym: s, params: []typesystem.Parameter{{HasDefault: true}}, ret: s, convert: true}}

	case *typesystem.Enum:
		return []callable{{sym: s, params: []typesystem.Parameter{{Type: s.BaseType}}, ret: s, convert: true}}

	case *typesystem.TemplateParameterSymbol:
		if s.Bind != nil {
			return e.callables(ctx, s.Bind, args)
		}
	}
	return nil
}

// opCall lists the opCall overloads of an aggregate.
func (e *Evaluator) opCall(ctx *resolver.Context, agg *typesystem.Aggregate) []callable {
	restore := ctx.WithOptions(0, resolver.ReportUnresolved)
	defer restore()
	var out []callable
	for _, s := range ctx.LookupMember(agg, config.OpCallName) {
		if m, ok := s.(*typesystem.Method); ok {
			out = append(out, callable{sym: m, params: m.Params, variadic: m.Decl.Variadic, ret: m.Return, method: m})
		}
	}
	return out
}

// constructors lists the ways to call agg: a static opCall, or what new
// would accept.
func (e *Evaluator) constructors(ctx *resolver.Context, agg *typesystem.Aggregate) []callable {
	if !constructible(agg) {
		return nil
	}
	if calls := e.opCall(ctx, agg); len(calls) > 0 {
		return calls
	}
	return e.allocators(ctx, agg)
}

// allocators lists the constructors of agg: the declared ones, or else the
// implicit one. Structs and unions implicitly accept their public fields in
// order; classes take no arguments.
func (e *Evaluator) allocators(ctx *resolver.Context, agg *typesystem.Aggregate) []callable {
	if !constructible(agg) {
		return nil
	}
	var out []callable
	for _, m := range ctx.Constructors(agg) {
		out = append(out, callable{sym: m, params: m.Params, variadic: m.Decl.Variadic, ret: agg, method: m, construct: true})
	}
	if len(out) > 0 {
		return out
	}
	c := callable{sym: agg, ret: agg, construct: true}
	if agg.Kind() == ast.AggregateStruct || agg.Kind() == ast.AggregateUnion {
		for _, f := range ctx.PublicFields(agg) {
			c.params = append(c.params, typesystem.Parameter{Name: f.Decl.Name(), Type: f.Type, HasDefault: true})
		}
	}
	return []callable{c}
}

func constructible(agg *typesystem.Aggregate) bool {
	switch agg.Kind() {
	case ast.AggregateInterface, ast.AggregateTemplate, ast.AggregateMixinTemplate:
		return false
	}
	return !agg.Decl.IsAbstract()
}

// invokeCallable computes the value of a selected call.
func (e *Evaluator) invokeCallable(ctx *resolver.Context, site ast.Node, c callable, args []argument) (values.Value, error) {
	switch {
	case c.convert:
		if len(args) == 0 {
			if v := ctx.DefaultValue(c.ret); v != nil {
				return v, nil
			}
			return nil, newError(site, "%s has no default value", c.ret)
		}
		return convertValue(args[0].value, c.ret), nil
	case c.construct:
		return nil, newError(site, "cannot construct %s at compile time", c.ret)
	case c.delegate:
		fn, err := e.delegateTarget(ctx, site, c.sym)
		if err != nil {
			return nil, err
		}
		m, ok := ctx.SymbolOf(fn).(*typesystem.Method)
		if !ok {
			return nil, newError(site, "cannot call %s at compile time", describe(site))
		}
		return e.invoke(ctx, site, m, args)
	case c.method != nil:
		if agg, ok := c.method.Decl.Parent().(*ast.AggregateDecl); ok && !c.method.Decl.HasAttribute(token.STATIC) {
			return nil, newError(site, "cannot call %s.%s without an instance", agg.Name(), c.method.Decl.Name())
		}
		return e.invoke(ctx, site, c.method, args)
	}
	return nil, newError(site, "cannot call %s at compile time", describe(site))
}

// delegateTarget finds the function literal a delegate symbol refers to.
func (e *Evaluator) delegateTarget(ctx *resolver.Context, site ast.Node, sym typesystem.Type) (*ast.FunctionDecl, error) {
	switch s := sym.(type) {
	case *typesystem.Delegate:
		if s.Decl != nil {
			return s.Decl, nil
		}
	case *typesystem.Member:
		d, ok := s.Decl.(*ast.VariableDecl)
		if !ok {
			break
		}
		v, err := e.read(ctx, site, &values.VariableRef{Decl: d, Typ: s.Type, Provider: e.provider})
		if err != nil {
			return nil, err
		}
		if dv, ok := v.(*values.Delegate); ok && dv.Func != nil {
			return dv.Func, nil
		}
		return nil, newError(site, "%s does not hold a function", d.Name())
	}
	return nil, newError(site, "cannot call %s at compile time", describe(site))
}

// evalNew types `new T(args)`: classes are references, other types yield a
// pointer. Only arrays have a compile-time value.
func (e *Evaluator) evalNew(ctx *resolver.Context, x *ast.NewExpr) (Result, error) {
	args, err := e.arguments(ctx, x.Args, nil)
	if err != nil {
		return Result{}, err
	}
	restore := ctx.WithOptions(resolver.StripAliases, 0)
	t := typesystem.Underlying(first(ctx.ResolveType(x.Type)))
	restore()
	if t == nil {
		return Result{}, e.softFail(x, "cannot resolve %s", describe(x.Type))
	}
	origin := typesystem.Base{Origin: x}
	switch u := t.(type) {
	case *typesystem.Array:
		typ := &typesystem.Array{Base: origin, Elem: u.Elem}
		r := Result{Types: []typesystem.Type{typ}}
		if e.mode != ValueMode {
			return r, nil
		}
		n := u.Length
		if !u.Static {
			if len(args) != 1 {
				return Result{}, newError(x, "new %s needs a length", describe(x.Type))
			}
			p, ok := args[0].value.(*values.Primitive)
			if !ok || !p.IsIntegral() {
				return Result{}, newError(x, "array length must be an integer")
			}
			if n, err = p.ToInt(); err != nil || n < 0 {
				return Result{}, newError(x, "invalid array length %s", p.Inspect())
			}
		}
		elems := make([]values.Value, n)
		for i := range elems {
			// Each slot gets its own value so element writes stay local.
			if elems[i] = ctx.DefaultValue(u.Elem); elems[i] == nil {
				return Result{}, newError(x, "%s has no default value", u.Elem)
			}
		}
		r.Value = values.NewArray(typ, elems)
		return r, nil

	case *typesystem.Aggregate:
		if !constructible(u) {
			kind := u.Kind().String()
			if u.Decl.IsAbstract() {
				kind = "abstract"
			}
			ctx.Report(diagnostics.ErrR001, x, 1, "cannot create an instance of %s %s", kind, u)
			return Result{}, e.softFail(x, "cannot create an instance of %s %s", kind, u)
		}
		if c, err := e.pick(ctx, x, u.String(), 1, e.allocators(ctx, u), args); c == nil {
			return Result{}, err
		}
		var r Result
		if u.Kind() == ast.AggregateClass {
			r.Types = []typesystem.Type{u}
		} else {
			r.Types = []typesystem.Type{&typesystem.Pointer{Base: origin, Elem: u}}
		}
		return r, e.softFail(x, "cannot allocate %s at compile time", u)
	}
	r := Result{Types: []typesystem.Type{&typesystem.Pointer{Base: origin, Elem: t}}}
	return r, e.softFail(x, "cannot allocate %s at compile time", t)
}

func first(ts []typesystem.Type) typesystem.Type {
	if len(ts) == 0 {
		return nil
	}
	return ts[0]
}
