package main

import (
	"log"
)

func (s *LanguageServer) handleDefinition(id interface{}, params DefinitionParams) error {
	log.Printf("Handling definition request for %s at line %d, char %d", params.TextDocument.URI, params.Position.Line, params.Position.Character)

	uri := params.TextDocument.URI
	_, _, _, _, ts := s.symbolsAt(uri, params.Position)
	current, _, _ := s.document(uri)
	locations := make([]Location, 0, len(ts))
	for _, t := range ts {
		n := t.Node()
		if n == nil || n.Module() == nil || n.Module().FilePath == "" {
			continue // built-in or synthesized
		}
		target := s.pathToURI(n.Module().FilePath)
		if current != nil && n.Module().FilePath == current.Path {
			target = uri
		}
		start, end := n.Start(), n.End()
		locations = append(locations, Location{
			URI: target,
			Range: Range{
				Start: Position{Line: start.Line - 1, Character: start.Column - 1},
				End:   Position{Line: end.Line - 1, Character: end.Column - 1},
			},
		})
	}

	var result interface{}
	if len(locations) > 0 {
		result = locations
	}
	return s.sendResponse(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: result})
}
