package evaluator

import (
	"errors"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/prettyprinter"
	"github.com/funvibe/dsema/internal/resolver"
	"github.com/funvibe/dsema/internal/token"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
)

func (e *Evaluator) evalIdentifier(ctx *resolver.Context, x *ast.Identifier) (Result, error) {
	var syms []typesystem.Type
	if x.ModuleScoped {
		for _, d := range ctx.LookupModuleScope(x.Name, x) {
			if s := ctx.SymbolOf(d); s != nil {
				syms = append(syms, s)
			}
		}
		if len(syms) == 0 && ctx.Has(resolver.ReportUnresolved) {
			ctx.Report(diagnostics.ErrR001, x, 0, "cannot resolve .%s", x.Name)
		}
	} else {
		syms = ctx.LookupSymbols(x.Name, x)
	}
	return e.symbols(ctx, x, syms)
}

// evalTemplateInstance resolves `name!(args)` by instantiating every
// candidate that accepts the arguments.
func (e *Evaluator) evalTemplateInstance(ctx *resolver.Context, x *ast.TemplateInstanceExpr) (Result, error) {
	restore := ctx.WithOptions(resolver.NoTemplateDeduction, 0)
	cands := ctx.LookupSymbols(x.Name, x)
	restore()
	return e.symbols(ctx, x, ctx.InstantiateAll(cands, x.Args, x))
}

// symbols wraps resolved symbols into a result, with their value in value
// mode.
func (e *Evaluator) symbols(ctx *resolver.Context, node ast.Node, syms []typesystem.Type) (Result, error) {
	r := Result{Types: syms, typeOnly: denotesType(syms)}
	if len(syms) == 0 {
		if e.mode == ValueMode {
			return r, newError(node, "undefined identifier %s", prettyprinter.Print(node))
		}
		return r, nil
	}
	if e.mode == ValueMode {
		v, err := e.symbolValue(ctx, node, syms)
		if err != nil {
			return Result{}, err
		}
		r.Value = v
	}
	return r, nil
}

// denotesType reports symbols that all name types, modules or packages.
func denotesType(syms []typesystem.Type) bool {
	if len(syms) == 0 {
		return false
	}
	for _, s := range syms {
		switch typesystem.MustStrip(s).(type) {
		case *typesystem.Module, *typesystem.Package:
			continue
		}
		if !resolver.IsTypeDenotation(s) {
			return false
		}
	}
	return true
}

// symbolValue turns resolved symbols into a value: variables become
// references, functions an overload set, types and scopes a TypeValue.
func (e *Evaluator) symbolValue(ctx *resolver.Context, node ast.Node, syms []typesystem.Type) (values.Value, error) {
	if len(syms) == 0 {
		return nil, newError(node, "undefined identifier %s", prettyprinter.Print(node))
	}
	if allMethods(syms) {
		return &values.InternalOverload{Overloads: syms}, nil
	}
	sym := ctx.CheckForSingleResult(syms, node, prettyprinter.Print(node))
	if sym == nil {
		return nil, newError(node, "%s is ambiguous", prettyprinter.Print(node))
	}
	switch s := sym.(type) {
	case *typesystem.Member:
		switch d := s.Decl.(type) {
		case *ast.VariableDecl:
			if isField(d) {
				return nil, newError(node, "field %s has no compile-time value", d.Name())
			}
			return &values.VariableRef{Decl: d, Typ: s.Type, Provider: e.provider}, nil
		case *ast.EnumValueDecl:
			return e.enumValue(ctx, node, d, s.Type)
		}
	case *typesystem.TemplateParameterSymbol:
		if v, ok := s.Value.(values.Value); ok {
			return v, nil
		}
		if s.Bind != nil {
			return &values.TypeValue{Typ: s.Bind}, nil
		}
		return nil, newError(node, "template parameter %s is not bound", s.Name())
	case *typesystem.StaticProperty:
		return e.propertyValue(ctx, node, s, nil)
	}
	return &values.TypeValue{Typ: sym}, nil
}

func allMethods(syms []typesystem.Type) bool {
	for _, s := range syms {
		if _, ok := s.(*typesystem.Method); !ok {
			return false
		}
	}
	return true
}

// isField reports instance data members, which have no value outside an
// aggregate instance.
func isField(d *ast.VariableDecl) bool {
	if _, ok := d.Parent().(*ast.AggregateDecl); !ok {
		return false
	}
	return !d.IsConstant() && !d.HasAttribute(token.STATIC)
}

// read reduces v to a plain value. Variable references are read through
// their provider; a variable the provider has no value for falls back to
// its initializer.
func (e *Evaluator) read(ctx *resolver.Context, node ast.Node, v values.Value) (values.Value, error) {
	ref, ok := v.(*values.VariableRef)
	if !ok {
		if v == nil {
			return nil, newError(node, "%s has no value", prettyprinter.Print(node))
		}
		return v, nil
	}
	val, err := ref.Get()
	switch {
	case err == nil:
		return val, nil
	case errors.Is(err, values.ErrNotConstant), errors.Is(err, errUnset):
		return nil, wrapError(node, err)
	}
	return e.initialValue(ctx, node, ref.Decl, ref.Typ)
}

// initialValue computes a variable's value from its initializer, or the
// default value of its type. Values of constants are cached.
func (e *Evaluator) initialValue(ctx *resolver.Context, node ast.Node, decl *ast.VariableDecl, typ typesystem.Type) (values.Value, error) {
	if v, ok := e.shared.inits[decl]; ok {
		return v, nil
	}
	if typ == nil && decl.Type != nil {
		typ = typesystem.Underlying(ctx.SymbolOf(decl))
	}
	if decl.Init == nil {
		if v := ctx.DefaultValue(typ); v != nil {
			return v, nil
		}
		return nil, newError(node, "%s has no compile-time value", decl.Name())
	}
	if e.shared.busy[decl] {
		return nil, newError(node, "initializer of %s refers to itself", decl.Name())
	}
	e.shared.busy[decl] = true
	defer delete(e.shared.busy, decl)

	r, err := e.eval(ctx, decl.Init)
	if err != nil {
		return nil, err
	}
	v, err := e.read(ctx, decl.Init, r.Value)
	if err != nil {
		return nil, err
	}
	v = coerce(v, typ)
	if decl.IsConstant() && len(ctx.Current().Deduced) == 0 {
		e.shared.inits[decl] = v
		if sp, ok := e.provider.(*StandardProvider); ok {
			sp.remember(decl, v)
		}
	}
	return v, nil
}

// enumValue computes an enum member: its initializer, or the previous
// member plus one. The first member defaults to zero.
func (e *Evaluator) enumValue(ctx *resolver.Context, node ast.Node, d *ast.EnumValueDecl, typ typesystem.Type) (values.Value, error) {
	if v, ok := e.shared.enums[d]; ok {
		return v, nil
	}
	if e.shared.busy[d] {
		return nil, newError(node, "enum member %s refers to itself", d.Name())
	}
	e.shared.busy[d] = true
	defer delete(e.shared.busy, d)

	var v values.Value
	switch prev := previousMember(d); {
	case d.Init != nil:
		r, err := e.eval(ctx, d.Init)
		if err != nil {
			return nil, err
		}
		if v, err = e.read(ctx, d.Init, r.Value); err != nil {
			return nil, err
		}
	case prev == nil:
		v = values.NewInt(0)
	default:
		pv, err := e.enumValue(ctx, node, prev, typesystem.Underlying(ctx.SymbolOf(prev)))
		if err != nil {
			return nil, err
		}
		p, ok := pv.(*values.Primitive)
		if !ok {
			return nil, newError(node, "enum member %s needs an initializer", d.Name())
		}
		next, err := values.BinaryOp(token.PLUS, p, values.NewInt(1))
		if err != nil {
			return nil, wrapError(node, err, pv)
		}
		v = values.Convert(next, p.PKind)
	}
	v = coerce(v, typ)
	e.shared.enums[d] = v
	return v, nil
}

func previousMember(d *ast.EnumValueDecl) *ast.EnumValueDecl {
	parent, ok := d.Parent().(*ast.EnumDecl)
	if !ok {
		return nil
	}
	for i, m := range parent.Members {
		if m == d && i > 0 {
			return parent.Members[i-1]
		}
	}
	return nil
}

// coerce converts a value to the declared type t: primitives change kind,
// enum members are tagged with their enum, array elements follow the
// element type.
func coerce(v values.Value, t typesystem.Type) values.Value {
	if v == nil || t == nil {
		return v
	}
	switch u := typesystem.Underlying(t).(type) {
	case *typesystem.Primitive:
		p, ok := v.(*values.Primitive)
		if !ok || u.IsVoid() {
			return v
		}
		if p.PKind != u.Kind {
			return values.Convert(p, u.Kind)
		}
		return p
	case *typesystem.Enum:
		p, ok := v.(*values.Primitive)
		if !ok {
			return v
		}
		if b, ok := typesystem.Underlying(u.BaseType).(*typesystem.Primitive); ok && b.Kind != p.PKind {
			p = values.Convert(p, b.Kind)
		}
		return p.WithType(u)
	case *typesystem.Array:
		a, ok := v.(*values.Array)
		if !ok || a.IsString {
			return v
		}
		if _, ok := typesystem.Underlying(u.Elem).(*typesystem.Primitive); !ok {
			return v
		}
		elems := make([]values.Value, len(a.Elems))
		for i, el := range a.Elems {
			elems[i] = coerce(el, u.Elem)
		}
		return values.NewArray(u, elems)
	}
	return v
}

func (e *Evaluator) evalThis(ctx *resolver.Context, x *ast.ThisExpr) (Result, error) {
	agg := ctx.EnclosingAggregate(x)
	if agg == nil {
		return Result{}, e.softFail(x, "%s outside of an aggregate", thisName(x))
	}
	sym := ctx.SymbolOf(agg)
	if x.Super {
		a, ok := sym.(*typesystem.Aggregate)
		if !ok || len(a.BaseClasses) == 0 {
			return Result{}, e.softFail(x, "%s has no base class", agg.Name())
		}
		sym = a.BaseClasses[0]
	}
	r := Result{Types: []typesystem.Type{sym}}
	if e.mode == ValueMode {
		return Result{}, newError(x, "%s has no compile-time value", thisName(x))
	}
	return r, nil
}

func thisName(x *ast.ThisExpr) string {
	if x.Super {
		return "super"
	}
	return "this"
}

// softFail is an empty result in type mode and a hard failure in value
// mode.
func (e *Evaluator) softFail(node ast.Node, format string, a ...interface{}) error {
	if e.mode != ValueMode {
		return nil
	}
	return newError(node, format, a...)
}
