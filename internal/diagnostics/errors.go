package diagnostics

import (
	"fmt"

	"github.com/funvibe/dsema/internal/token"
)

type ErrorCode string

const (
	// Lexer / parser
	ErrL001 ErrorCode = "L001" // illegal token
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // expected token missing
	ErrP004 ErrorCode = "P004" // invalid declaration
	ErrP005 ErrorCode = "P005" // no expression can start here
	ErrP006 ErrorCode = "P006" // nesting too deep

	// Resolution (soft)
	ErrR001 ErrorCode = "R001" // no candidates
	ErrR002 ErrorCode = "R002" // ambiguous
	ErrR003 ErrorCode = "R003" // unresolvable alias chain
	ErrR004 ErrorCode = "R004" // template deduction failed

	// Evaluation (hard, reported by callers)
	ErrE001 ErrorCode = "E001"
)

// DiagnosticError is a positioned syntax or loading error.
type DiagnosticError struct {
	Code    ErrorCode
	Token   token.Token
	File    string
	Message string
}

func NewError(code ErrorCode, tok token.Token, format string, args ...interface{}) *DiagnosticError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &DiagnosticError{Code: code, Token: tok, Message: msg}
}

func (e *DiagnosticError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: [%s] %s", e.File, e.Token.Line, e.Token.Column, e.Code, e.Message)
	}
	return fmt.Sprintf("%d:%d: [%s] %s", e.Token.Line, e.Token.Column, e.Code, e.Message)
}
