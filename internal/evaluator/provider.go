package evaluator

import (
	"fmt"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/values"
)

// StandardProvider is the provider used when the caller supplies none.
// Values of constants computed from their initializers are remembered
// for later reads.
type StandardProvider struct {
	*values.MapProvider
}

func NewStandardProvider(constantOnly bool) *StandardProvider {
	return &StandardProvider{MapProvider: values.NewMapProvider(constantOnly)}
}

// remember stores the computed value of a constant, which Set refuses.
func (p *StandardProvider) remember(decl *ast.VariableDecl, v values.Value) {
	p.Values[decl] = v
}

// errUnset is returned by frame providers for locals not yet declared.
var errUnset = fmt.Errorf("variable has no value yet")

// frameProvider holds the locals and parameters of one compile-time
// function invocation. Everything else is read from the parent provider.
type frameProvider struct {
	values.LengthRegister
	parent values.Provider
	locals map[*ast.VariableDecl]values.Value
}

func newFrameProvider(parent values.Provider) *frameProvider {
	return &frameProvider{parent: parent, locals: make(map[*ast.VariableDecl]values.Value)}
}

// ConstantOnly is false: a function's own locals are always readable.
func (p *frameProvider) ConstantOnly() bool { return false }

func (p *frameProvider) owns(decl *ast.VariableDecl) bool {
	_, ok := p.locals[decl]
	return ok
}

func (p *frameProvider) declare(decl *ast.VariableDecl, v values.Value) {
	p.locals[decl] = v
}

func (p *frameProvider) Get(decl *ast.VariableDecl) (values.Value, error) {
	if v, ok := p.locals[decl]; ok {
		if v == nil {
			return nil, fmt.Errorf("%w: %s", errUnset, decl.Name())
		}
		return v, nil
	}
	if p.parent == nil {
		return nil, fmt.Errorf("no value for %s", decl.Name())
	}
	return p.parent.Get(decl)
}

func (p *frameProvider) Set(decl *ast.VariableDecl, v values.Value) error {
	if _, ok := p.locals[decl]; ok {
		p.locals[decl] = v
		return nil
	}
	if p.parent == nil {
		return fmt.Errorf("cannot modify %s", decl.Name())
	}
	return p.parent.Set(decl, v)
}
