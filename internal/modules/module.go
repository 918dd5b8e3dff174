package modules

import (
	"path"
	"strings"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/diagnostics"
)

// Module is one parsed source file held by the cache.
type Module struct {
	Name   string
	Path   string // slash-separated path inside the loaded file system
	AST    *ast.Module
	Errors []*diagnostics.DiagnosticError
	Size   int
	// IsVirtual marks built-in modules that have no file behind them.
	IsVirtual bool
}

func (m *Module) GetName() string { return m.Name }

// HasErrors reports syntax errors; the AST is still usable but partial.
func (m *Module) HasErrors() bool { return len(m.Errors) > 0 }

// Imports returns the dotted names this module imports.
func (m *Module) Imports() []string {
	var out []string
	for _, imp := range m.AST.Imports() {
		out = append(out, imp.ModuleName)
	}
	return out
}

// ModuleNameFromPath derives a dotted module name from a relative path:
// "std/stdio.d" becomes "std.stdio", "pkg/package.d" becomes "pkg".
func ModuleNameFromPath(p string) string {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimSuffix(p, path.Ext(p))
	p = strings.TrimPrefix(p, "./")
	if path.Base(p) == "package" && path.Dir(p) != "." {
		p = path.Dir(p)
	}
	return strings.ReplaceAll(p, "/", ".")
}

// packagePrefixes lists every proper dotted prefix of name: a.b.c yields a
// and a.b.
func packagePrefixes(name string) []string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		out = append(out, strings.Join(parts[:i], "."))
	}
	return out
}
