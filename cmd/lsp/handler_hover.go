package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/funvibe/dsema/internal/modules"
	"github.com/funvibe/dsema/internal/typesystem"
	"github.com/funvibe/dsema/pkg/engine"
)

// symbolsAt resolves the identifier chain under the cursor.
func (s *LanguageServer) symbolsAt(uri string, pos Position) (*engine.Session, string, engine.Position, Range, []typesystem.Type) {
	mod, content, ok := s.document(uri)
	if !ok {
		return nil, "", engine.Position{}, Range{}, nil
	}
	expr, col := chainAt(content, pos.Line, pos.Character)
	if expr == "" {
		return nil, "", engine.Position{}, Range{}, nil
	}
	sess := s.engine.Session()
	at := caret(mod, pos.Line, col)
	ts, err := sess.Types(expr, at)
	if err != nil {
		log.Printf("Resolving %q at %s: %v", expr, at, err)
		return nil, "", engine.Position{}, Range{}, nil
	}
	rng := Range{
		Start: Position{Line: pos.Line, Character: col},
		End:   Position{Line: pos.Line, Character: col + len(expr)},
	}
	return sess, expr, at, rng, ts
}

func caret(mod *modules.Module, line, col int) engine.Position {
	return engine.Position{Module: mod.Path, Line: line + 1, Column: col + 1}
}

func (s *LanguageServer) handleHover(id interface{}, params HoverParams) error {
	log.Printf("Handling hover request for %s at line %d, char %d", params.TextDocument.URI, params.Position.Line, params.Position.Character)

	sess, expr, at, rng, ts := s.symbolsAt(params.TextDocument.URI, params.Position)
	if len(ts) == 0 {
		return s.sendResponse(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: nil})
	}

	var sb strings.Builder
	sb.WriteString("```d\n")
	for _, t := range ts {
		sb.WriteString(t.String())
		sb.WriteByte('\n')
	}
	sb.WriteString("```")
	// Constants also show their compile-time value
	if v, err := sess.Value(expr, at); err == nil {
		fmt.Fprintf(&sb, "\n\n`= %s`", v.Inspect())
	}

	return s.sendResponse(ResponseMessage{
		Jsonrpc: "2.0",
		ID:      id,
		Result: Hover{
			Contents: MarkupContent{Kind: "markdown", Value: sb.String()},
			Range:    &rng,
		},
	})
}
