package values

import (
	"errors"
	"fmt"

	"github.com/funvibe/dsema/internal/ast"
)

// ErrNotConstant is returned when a provider in constant-only mode is asked
// for a variable that is not a compile-time constant.
var ErrNotConstant = errors.New("variable is not a compile-time constant")

// Provider supplies variable values to value-mode evaluation. It also holds
// the length register that `$` reads inside index and slice brackets.
type Provider interface {
	Get(decl *ast.VariableDecl) (Value, error)
	Set(decl *ast.VariableDecl, v Value) error
	// ConstantOnly reports that only const, immutable and manifest
	// constants may be read.
	ConstantOnly() bool

	PushArrayLength(n int)
	PopArrayLength()
	ArrayLength() (int, bool)
}

// LengthRegister implements the array-length part of Provider.
type LengthRegister struct {
	lengths []int
}

func (r *LengthRegister) PushArrayLength(n int) { r.lengths = append(r.lengths, n) }

func (r *LengthRegister) PopArrayLength() {
	if len(r.lengths) > 0 {
		r.lengths = r.lengths[:len(r.lengths)-1]
	}
}

func (r *LengthRegister) ArrayLength() (int, bool) {
	if len(r.lengths) == 0 {
		return 0, false
	}
	return r.lengths[len(r.lengths)-1], true
}

// MapProvider serves values from a fixed table. Writes go to the table.
type MapProvider struct {
	LengthRegister
	Values   map[*ast.VariableDecl]Value
	Constant bool
}

func NewMapProvider(constantOnly bool) *MapProvider {
	return &MapProvider{Values: make(map[*ast.VariableDecl]Value), Constant: constantOnly}
}

func (p *MapProvider) ConstantOnly() bool { return p.Constant }

func (p *MapProvider) Get(decl *ast.VariableDecl) (Value, error) {
	if p.Constant && !decl.IsConstant() {
		return nil, fmt.Errorf("%w: %s", ErrNotConstant, decl.Name())
	}
	v, ok := p.Values[decl]
	if !ok {
		return nil, fmt.Errorf("no value for %s", decl.Name())
	}
	return v, nil
}

func (p *MapProvider) Set(decl *ast.VariableDecl, v Value) error {
	if decl.IsConstant() {
		return fmt.Errorf("cannot modify constant %s", decl.Name())
	}
	p.Values[decl] = v
	return nil
}
