package resolver

import (
	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/typesystem"
)

// TryResolveUFCS finds the free functions called name, visible from site,
// whose first parameter accepts a receiver of type receiver. Function
// templates come back with the parameters deduced from the receiver; the
// rest are deduced at the call.
func (c *Context) TryResolveUFCS(receiver typesystem.Type, name string, site ast.Node) []typesystem.Type {
	receiver = typesystem.Underlying(receiver)
	if receiver == nil {
		return nil
	}
	restore := c.WithOptions(ReturnMethodsOnly, StripAliases|ReportUnresolved)
	decls := c.lookupWhere(name, site, isFreeFunction)
	restore()

	var out []typesystem.Type
	for _, d := range decls {
		fn := d.(*ast.FunctionDecl)
		if len(fn.Params) == 0 {
			continue
		}
		if fn.IsTemplate() {
			deduced, ok := c.DeduceFromArguments(fn, nil, []typesystem.Type{receiver})
			if !ok {
				continue
			}
			if m, ok := c.Instantiate(fn, deduced).(*typesystem.Method); ok {
				out = append(out, m)
			}
			continue
		}
		m := c.methodOf(fn)
		if len(m.Params) > 0 && IsImplicitlyConvertible(receiver, m.Params[0].Type) {
			out = append(out, m)
		}
	}
	return out
}

// isFreeFunction reports functions declared at module level or inside a
// function body.
func isFreeFunction(d ast.Decl) bool {
	fn, ok := d.(*ast.FunctionDecl)
	if !ok || fn.Kind != ast.FunctionNormal {
		return false
	}
	switch fn.Parent().(type) {
	case *ast.Module, *ast.DeclStmt, *ast.BlockStmt:
		return true
	}
	return false
}
