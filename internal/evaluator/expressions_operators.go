package evaluator

import (
	"math/big"
	"strings"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/resolver"
	"github.com/funvibe/dsema/internal/token"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/internal/values"
)

// compoundOps maps compound assignments to their binary operator.
var compoundOps = map[token.TokenType]token.TokenType{
	token.PLUS_ASSIGN:  token.PLUS,
	token.MINUS_ASSIGN: token.MINUS,
	token.MUL_ASSIGN:   token.ASTERISK,
	token.DIV_ASSIGN:   token.SLASH,
	token.MOD_ASSIGN:   token.PERCENT,
	token.AND_ASSIGN:   token.AMPERSAND,
	token.OR_ASSIGN:    token.PIPE,
	token.XOR_ASSIGN:   token.CARET,
	token.CAT_ASSIGN:   token.TILDE,
	token.SHL_ASSIGN:   token.SHL,
	token.SHR_ASSIGN:   token.SHR,
	token.USHR_ASSIGN:  token.USHR,
	token.POW_ASSIGN:   token.POW,
}

var comparisonOps = map[token.TokenType]bool{
	token.EQ: true, token.NOT_EQ: true, ast.OpIdentity: true, ast.OpNotIdentity: true,
	token.LT: true, token.LE: true, token.GT: true, token.GE: true,
	token.LESS_GREATER: true, token.LESS_EQ_GREAT: true, token.UNORDERED: true, token.UNORD_EQ: true,
	token.NOT_LT: true, token.NOT_LE: true, token.NOT_GT: true, token.NOT_GE: true,
}

// operand evaluates x and, in value mode, reads its value.
func (e *Evaluator) operand(ctx *resolver.Context, x ast.Expr) (Result, values.Value, error) {
	r, err := e.eval(ctx, x)
	if err != nil || e.mode != ValueMode {
		return r, nil, err
	}
	v, err := e.read(ctx, x, r.Value)
	return r, v, err
}

func (e *Evaluator) evalComma(ctx *resolver.Context, x *ast.CommaExpr) (Result, error) {
	if len(x.List) == 0 {
		return Result{}, e.softFail(x, "empty expression list")
	}
	var r Result
	for _, item := range x.List {
		var err error
		if r, err = e.eval(ctx, item); err != nil {
			return Result{}, err
		}
	}
	return r, nil
}

func (e *Evaluator) evalAssign(ctx *resolver.Context, x *ast.AssignExpr) (Result, error) {
	left, err := e.eval(ctx, x.Left)
	if err != nil {
		return Result{}, err
	}
	r := Result{Types: left.Types}
	if e.mode != ValueMode {
		return r, nil
	}
	right, rv, err := e.operand(ctx, x.Right)
	if err != nil {
		return Result{}, err
	}
	if op, ok := compoundOps[x.Op]; ok {
		lv, err := e.read(ctx, x.Left, left.Value)
		if err != nil {
			return Result{}, err
		}
		if rv, err = e.apply(ctx, x, op, lv, rv, left.Type(), right.Type()); err != nil {
			return Result{}, err
		}
	}
	rv = coerce(rv, left.Type())
	if err := e.store(ctx, x.Left, left, rv); err != nil {
		return Result{}, err
	}
	r.Value = rv
	return r, nil
}

// store writes v to the location target denotes: a variable, an array
// element or an associative array slot.
func (e *Evaluator) store(ctx *resolver.Context, target ast.Expr, r Result, v values.Value) error {
	if ref, ok := r.Value.(*values.VariableRef); ok {
		if err := ref.Set(v); err != nil {
			return wrapError(target, err, v)
		}
		return nil
	}
	ix, ok := target.(*ast.IndexExpr)
	if !ok || len(ix.Args) != 1 {
		return newError(target, "cannot assign to %s", describe(target))
	}
	holder, container, err := e.operand(ctx, ix.X)
	if err != nil {
		return err
	}
	switch c := container.(type) {
	case *values.Array:
		i, err := e.index(ctx, ix.Args[0], c.Len())
		if err != nil {
			return err
		}
		if err := c.SetIndex(i, v); err != nil {
			return wrapError(target, err, c, v)
		}
		return nil
	case *values.AssocArray:
		k, err := e.readAt(ctx, ix.Args[0], 0)
		if err != nil {
			return err
		}
		c.Set(k, v)
		return nil
	case *values.Null:
		aa, ok := holder.Type().(*typesystem.AssocArray)
		if !ok {
			return newError(target, "null dereference")
		}
		k, err := e.readAt(ctx, ix.Args[0], 0)
		if err != nil {
			return err
		}
		fresh := &values.AssocArray{Typ: aa}
		fresh.Set(k, v)
		return e.store(ctx, ix.X, holder, fresh)
	}
	return newError(target, "cannot assign to %s", describe(target))
}

func (e *Evaluator) evalConditional(ctx *resolver.Context, x *ast.ConditionalExpr) (Result, error) {
	if e.mode != ValueMode {
		then, err := e.eval(ctx, x.Then)
		if err != nil {
			return Result{}, err
		}
		other, err := e.eval(ctx, x.Else)
		if err != nil {
			return Result{}, err
		}
		if t := commonType([]Result{then, other}); t != nil {
			return Result{Types: []typesystem.Type{t}}, nil
		}
		return then, nil
	}
	_, cv, err := e.operand(ctx, x.Cond)
	if err != nil {
		return Result{}, err
	}
	ok, err := values.Truthy(cv)
	if err != nil {
		return Result{}, wrapError(x.Cond, err, cv)
	}
	branch := x.Else
	if ok {
		branch = x.Then
	}
	return e.eval(ctx, branch)
}

func (e *Evaluator) evalBinary(ctx *resolver.Context, x *ast.BinaryExpr) (Result, error) {
	switch {
	case x.Op == token.OROR || x.Op == token.ANDAND:
		return e.evalLogical(ctx, x)
	case comparisonOps[x.Op]:
		return e.evalComparison(ctx, x)
	case x.Op == ast.OpIn || x.Op == ast.OpNotIn:
		return e.evalIn(ctx, x)
	case x.Op == token.TILDE:
		return e.evalConcat(ctx, x)
	}
	return e.evalArithmetic(ctx, x)
}

// evalLogical evaluates || and &&; the right operand is only evaluated when
// the left one does not decide the result.
func (e *Evaluator) evalLogical(ctx *resolver.Context, x *ast.BinaryExpr) (Result, error) {
	r := Result{Types: []typesystem.Type{primitive(x, token.BOOL)}}
	if e.mode != ValueMode {
		return r, nil
	}
	_, lv, err := e.operand(ctx, x.Left)
	if err != nil {
		return Result{}, err
	}
	lb, err := values.Truthy(lv)
	if err != nil {
		return Result{}, wrapError(x.Left, err, lv)
	}
	if x.Op == token.OROR && lb || x.Op == token.ANDAND && !lb {
		r.Value = values.NewBool(lb)
		return r, nil
	}
	_, rv, err := e.operand(ctx, x.Right)
	if err != nil {
		return Result{}, err
	}
	rb, err := values.Truthy(rv)
	if err != nil {
		return Result{}, wrapError(x.Right, err, lv, rv)
	}
	r.Value = values.NewBool(rb)
	return r, nil
}

func (e *Evaluator) evalComparison(ctx *resolver.Context, x *ast.BinaryExpr) (Result, error) {
	r := Result{Types: []typesystem.Type{primitive(x, token.BOOL)}}
	if e.mode != ValueMode {
		return r, nil
	}
	_, lv, err := e.operand(ctx, x.Left)
	if err != nil {
		return Result{}, err
	}
	_, rv, err := e.operand(ctx, x.Right)
	if err != nil {
		return Result{}, err
	}
	ok, err := compare(x.Op, lv, rv)
	if err != nil {
		return Result{}, wrapError(x, err, lv, rv)
	}
	r.Value = values.NewBool(ok)
	return r, nil
}

// compare applies a comparison operator. Primitives compare numerically,
// strings lexicographically, other values only for (in)equality.
func compare(op token.TokenType, a, b values.Value) (bool, error) {
	pa, ok1 := a.(*values.Primitive)
	pb, ok2 := b.(*values.Primitive)
	if ok1 && ok2 {
		return values.Compare(op, pa, pb)
	}
	sa, ok1 := values.StringOf(a)
	sb, ok2 := values.StringOf(b)
	if ok1 && ok2 {
		return values.Compare(op, values.NewInt(int64(strings.Compare(sa, sb))), values.NewInt(0))
	}
	switch op {
	case token.EQ, ast.OpIdentity:
		return values.Equal(a, b), nil
	case token.NOT_EQ, ast.OpNotIdentity:
		return !values.Equal(a, b), nil
	}
	return false, errOperatorOverloading
}

// evalIn looks a key up in an associative array. The result is a bool.
func (e *Evaluator) evalIn(ctx *resolver.Context, x *ast.BinaryExpr) (Result, error) {
	r := Result{Types: []typesystem.Type{primitive(x, token.BOOL)}}
	if e.mode != ValueMode {
		return r, nil
	}
	_, key, err := e.operand(ctx, x.Left)
	if err != nil {
		return Result{}, err
	}
	_, container, err := e.operand(ctx, x.Right)
	if err != nil {
		return Result{}, err
	}
	found := false
	switch c := container.(type) {
	case *values.AssocArray:
		_, found = c.Get(key)
	case *values.Null:
	default:
		return Result{}, newError(x, "%s is not an associative array", describe(x.Right))
	}
	r.Value = values.NewBool(found == (x.Op == ast.OpIn))
	return r, nil
}

// evalConcat joins arrays, or appends or prepends a single element whose
// type converts to the array's element type.
func (e *Evaluator) evalConcat(ctx *resolver.Context, x *ast.BinaryExpr) (Result, error) {
	left, lv, err := e.operand(ctx, x.Left)
	if err != nil {
		return Result{}, err
	}
	right, rv, err := e.operand(ctx, x.Right)
	if err != nil {
		return Result{}, err
	}
	typ := concatType(left.Type(), right.Type())
	if typ == nil {
		if e.mode == ValueMode {
			return Result{}, newError(x, "cannot concatenate %s and %s", describe(x.Left), describe(x.Right))
		}
		return Result{}, nil
	}
	r := Result{Types: []typesystem.Type{typ}}
	if e.mode != ValueMode {
		return r, nil
	}
	v, err := concat(lv, rv, typ)
	if err != nil {
		return Result{}, wrapError(x, err, lv, rv)
	}
	r.Value = v
	return r, nil
}

func concatType(l, r typesystem.Type) *typesystem.Array {
	la, lok := l.(*typesystem.Array)
	ra, rok := r.(*typesystem.Array)
	switch {
	case lok && rok:
		if typesystem.EqualIgnoringModifiers(la.Elem, ra.Elem) || resolver.IsImplicitlyConvertible(ra.Elem, la.Elem) {
			return &typesystem.Array{Base: typesystem.Base{Mods: la.Mods}, Elem: la.Elem}
		}
	case lok && r != nil:
		if resolver.IsImplicitlyConvertible(r, la.Elem) {
			return &typesystem.Array{Base: typesystem.Base{Mods: la.Mods}, Elem: la.Elem}
		}
	case rok && l != nil:
		if resolver.IsImplicitlyConvertible(l, ra.Elem) {
			return &typesystem.Array{Base: typesystem.Base{Mods: ra.Mods}, Elem: ra.Elem}
		}
	}
	if lok && isNullType(r) {
		return &typesystem.Array{Elem: la.Elem}
	}
	if rok && isNullType(l) {
		return &typesystem.Array{Elem: ra.Elem}
	}
	return nil
}

func isNullType(t typesystem.Type) bool {
	p, ok := t.(*typesystem.Pointer)
	return ok && p.IsNull()
}

func concat(a, b values.Value, typ *typesystem.Array) (values.Value, error) {
	if _, ok := a.(*values.Null); ok {
		a = values.NewArray(typ, nil)
	}
	if _, ok := b.(*values.Null); ok {
		b = values.NewArray(typ, nil)
	}
	la, lok := a.(*values.Array)
	ra, rok := b.(*values.Array)
	switch {
	case lok && rok:
		return values.Concat(la, ra), nil
	case lok:
		return values.Append(la, coerce(b, typ.Elem)), nil
	case rok:
		return values.Prepend(coerce(a, typ.Elem), ra), nil
	}
	return nil, errOperatorOverloading
}

func (e *Evaluator) evalArithmetic(ctx *resolver.Context, x *ast.BinaryExpr) (Result, error) {
	left, lv, err := e.operand(ctx, x.Left)
	if err != nil {
		return Result{}, err
	}
	right, rv, err := e.operand(ctx, x.Right)
	if err != nil {
		return Result{}, err
	}
	var r Result
	if t := arithmeticType(x, x.Op, left.Type(), right.Type()); t != nil {
		r.Types = []typesystem.Type{t}
	}
	if e.mode != ValueMode {
		return r, nil
	}
	v, err := e.apply(ctx, x, x.Op, lv, rv, left.Type(), right.Type())
	if err != nil {
		return Result{}, err
	}
	r.Value = v
	return r, nil
}

// arithmeticType is the result type of a binary operator on operands of
// types l and r. Pointer arithmetic keeps the pointer type.
func arithmeticType(origin ast.Node, op token.TokenType, l, r typesystem.Type) typesystem.Type {
	lp, lok := primitiveKind(l)
	rp, rok := primitiveKind(r)
	if lok && rok {
		return primitive(origin, values.ResultKind(op, lp, rp))
	}
	if _, ok := l.(*typesystem.Pointer); ok && rok && (op == token.PLUS || op == token.MINUS) {
		return l
	}
	return nil
}

// primitiveKind returns the kind of a primitive or enum type.
func primitiveKind(t typesystem.Type) (token.TokenType, bool) {
	switch u := t.(type) {
	case *typesystem.Primitive:
		return u.Kind, true
	case *typesystem.Enum:
		if p, ok := typesystem.Underlying(u.BaseType).(*typesystem.Primitive); ok {
			return p.Kind, true
		}
	}
	return "", false
}

// apply evaluates op on two values; ~ is concatenation, everything else
// needs primitive operands.
func (e *Evaluator) apply(ctx *resolver.Context, node ast.Node, op token.TokenType, a, b values.Value, at, bt typesystem.Type) (values.Value, error) {
	if op == token.TILDE {
		typ := concatType(at, bt)
		if typ == nil {
			return nil, newError(node, "cannot concatenate %s and %s", a.Inspect(), b.Inspect())
		}
		v, err := concat(a, b, typ)
		if err != nil {
			return nil, wrapError(node, err, a, b)
		}
		return v, nil
	}
	pa, ok1 := a.(*values.Primitive)
	pb, ok2 := b.(*values.Primitive)
	if !ok1 || !ok2 {
		return nil, wrapError(node, errOperatorOverloading, a, b)
	}
	v, err := values.BinaryOp(op, pa, pb)
	if err != nil {
		return nil, wrapError(node, err, a, b)
	}
	return v, nil
}

func (e *Evaluator) evalUnary(ctx *resolver.Context, x *ast.UnaryExpr) (Result, error) {
	operand, ov, err := e.operand(ctx, x.X)
	if err != nil {
		return Result{}, err
	}
	t := operand.Type()
	var r Result
	switch x.Op {
	case token.AMPERSAND:
		if t != nil {
			r.Types = []typesystem.Type{&typesystem.Pointer{Base: typesystem.Base{Origin: x}, Elem: t}}
		}
		return r, e.softFail(x, "address of %s has no compile-time value", describe(x.X))
	case token.ASTERISK:
		if p, ok := t.(*typesystem.Pointer); ok && p.Elem != nil {
			r.Types = []typesystem.Type{p.Elem}
		}
		return r, e.softFail(x, "cannot dereference %s at compile time", describe(x.X))
	case token.DELETE:
		r.Types = []typesystem.Type{primitive(x, token.VOID)}
		return r, e.softFail(x, "delete has no compile-time value")
	case token.BANG:
		r.Types = []typesystem.Type{primitive(x, token.BOOL)}
	case token.INCREMENT, token.DECREMENT:
		if t != nil {
			r.Types = []typesystem.Type{t}
		}
	default:
		if kind, ok := primitiveKind(t); ok {
			if token.IsIntegral(kind) {
				kind = values.IntegerPromote(kind)
			}
			r.Types = []typesystem.Type{primitive(x, kind)}
		}
	}
	if e.mode != ValueMode {
		return r, nil
	}
	if x.Op == token.INCREMENT || x.Op == token.DECREMENT {
		next, err := e.step(ctx, x, x.Op, x.X, operand, ov)
		if err != nil {
			return Result{}, err
		}
		r.Value = next
		return r, nil
	}
	p, ok := ov.(*values.Primitive)
	if !ok {
		if x.Op == token.BANG {
			b, err := values.Truthy(ov)
			if err != nil {
				return Result{}, wrapError(x, err, ov)
			}
			r.Value = values.NewBool(!b)
			return r, nil
		}
		return Result{}, wrapError(x, errOperatorOverloading, ov)
	}
	v, err := values.UnaryOp(x.Op, p)
	if err != nil {
		return Result{}, wrapError(x, err, ov)
	}
	r.Value = v
	return r, nil
}

func (e *Evaluator) evalPostfixIncDec(ctx *resolver.Context, x *ast.PostfixIncDecExpr) (Result, error) {
	operand, ov, err := e.operand(ctx, x.X)
	if err != nil {
		return Result{}, err
	}
	r := Result{Types: operand.Types}
	if e.mode != ValueMode {
		return r, nil
	}
	if _, err := e.step(ctx, x, x.Op, x.X, operand, ov); err != nil {
		return Result{}, err
	}
	r.Value = ov
	return r, nil
}

// step adds or subtracts one and stores the result back, keeping the
// operand's kind.
func (e *Evaluator) step(ctx *resolver.Context, node ast.Node, op token.TokenType, target ast.Expr, r Result, v values.Value) (values.Value, error) {
	p, ok := v.(*values.Primitive)
	if !ok {
		return nil, wrapError(node, errOperatorOverloading, v)
	}
	var binop token.TokenType = token.PLUS
	if op == token.DECREMENT {
		binop = token.MINUS
	}
	next, err := values.BinaryOp(binop, p, values.NewIntegral(token.INT_KW, big.NewInt(1)))
	if err != nil {
		return nil, wrapError(node, err, v)
	}
	nv := coerce(values.Convert(next, p.PKind), r.Type())
	if err := e.store(ctx, target, r, nv); err != nil {
		return nil, err
	}
	return nv, nil
}

// evalCast converts to a declared type. A qualifier-only cast layers its
// qualifiers onto the operand's type; `cast()` removes them.
func (e *Evaluator) evalCast(ctx *resolver.Context, x *ast.CastExpr) (Result, error) {
	operand, ov, err := e.operand(ctx, x.X)
	if err != nil {
		return Result{}, err
	}
	var target typesystem.Type
	switch {
	case x.Type != nil:
		restore := ctx.WithOptions(0, resolver.StripAliases)
		ts := ctx.ResolveType(x.Type)
		restore()
		if len(ts) > 0 {
			target = ts[0]
		}
	case len(x.Modifiers) > 0:
		target = typesystem.WithModifiers(operand.Type(), x.Modifiers...)
	default:
		target = typesystem.WithoutModifiers(operand.Type())
	}
	if target == nil {
		return Result{}, e.softFail(x, "cannot resolve cast target of %s", describe(x))
	}
	r := Result{Types: []typesystem.Type{target}}
	if e.mode == ValueMode {
		r.Value = convertValue(ov, target)
	}
	return r, nil
}

// convertValue is an explicit conversion: primitives change kind, arrays
// are retyped, everything else is kept.
func convertValue(v values.Value, t typesystem.Type) values.Value {
	switch u := typesystem.Underlying(t).(type) {
	case *typesystem.Array:
		if a, ok := v.(*values.Array); ok && !u.Static {
			c := *a
			c.Typ = u
			return &c
		}
	case *typesystem.Pointer, *typesystem.AssocArray, *typesystem.Delegate, *typesystem.Aggregate:
		return v
	}
	return coerce(v, t)
}
