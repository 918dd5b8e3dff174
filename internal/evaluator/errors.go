package evaluator

import (
	"errors"
	"fmt"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/prettyprinter"
	"github.com/funvibe/dsema/internal/values"
)

var errOperatorOverloading = errors.New("operator overloading is not supported")

// EvaluationError is a hard failure of one value-mode evaluation. Partial
// holds the operand values computed before the failure.
type EvaluationError struct {
	Expr    ast.Node
	Reason  string
	Partial []values.Value
	Err     error
}

func (e *EvaluationError) Error() string {
	if e.Expr == nil {
		return e.Reason
	}
	loc := e.Expr.Start()
	file := ""
	if m := e.Expr.Module(); m != nil {
		file = m.FilePath
	}
	if file == "" {
		return fmt.Sprintf("%d:%d: %s", loc.Line, loc.Column, e.Reason)
	}
	return fmt.Sprintf("%s:%d:%d: %s", file, loc.Line, loc.Column, e.Reason)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

func newError(node ast.Node, format string, a ...interface{}) *EvaluationError {
	return &EvaluationError{Expr: node, Reason: fmt.Sprintf(format, a...)}
}

// wrapError attaches node to err. An error that already is an
// EvaluationError keeps its innermost node.
func wrapError(node ast.Node, err error, partial ...values.Value) error {
	var ee *EvaluationError
	if errors.As(err, &ee) {
		return err
	}
	return &EvaluationError{Expr: node, Reason: err.Error(), Partial: partial, Err: err}
}

// describe renders a node for messages.
func describe(n ast.Node) string {
	if n == nil {
		return "<nil>"
	}
	return prettyprinter.Print(n)
}
