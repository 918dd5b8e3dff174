package main

import (
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/modules"
)

func (s *LanguageServer) publishDiagnostics(uri string, mod *modules.Module) error {
	var errs []*diagnostics.DiagnosticError
	if mod != nil {
		errs = mod.Errors
	}
	return s.sendNotification(NotificationMessage{
		Jsonrpc: "2.0",
		Method:  "textDocument/publishDiagnostics",
		Params: PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: s.convertDiagnostics(errs),
		},
	})
}

func (s *LanguageServer) convertDiagnostics(errors []*diagnostics.DiagnosticError) []Diagnostic {
	result := make([]Diagnostic, 0, len(errors))
	for _, err := range errors {
		line := max(err.Token.Line-1, 0) // LSP uses 0-based indexing
		col := max(err.Token.Column-1, 0)
		result = append(result, Diagnostic{
			Range: Range{
				Start: Position{Line: line, Character: col},
				End:   Position{Line: line, Character: col + len(err.Token.Lexeme)},
			},
			Severity: SeverityError,
			Code:     string(err.Code),
			Message:  err.Message,
			Source:   "dsema",
		})
	}
	return result
}
