package typesystem

import (
	"fmt"

	"github.com/funvibe/dsema/internal/ast"
)

// UnresolvedSymbolError indicates a name or alias chain that could not be
// resolved to a non-alias symbol.
type UnresolvedSymbolError struct {
	Name   string
	Node   ast.Node
	Reason string
}

func (e *UnresolvedSymbolError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unresolved symbol: %s", e.Name)
	}
	return fmt.Sprintf("unresolved symbol %s: %s", e.Name, e.Reason)
}

func NewUnresolvedSymbolError(name string, node ast.Node, reason string) *UnresolvedSymbolError {
	return &UnresolvedSymbolError{Name: name, Node: node, Reason: reason}
}
