package main

import (
	"context"
	"log"

	"github.com/funvibe/dsema/internal/config"
	"github.com/funvibe/dsema/pkg/engine"
)

func (s *LanguageServer) handleInitialize(id interface{}, params InitializeParams) error {
	log.Printf("Handling initialize request with ID: %v", id)

	if params.RootURI != nil && *params.RootURI != "" {
		s.rootPath = s.uriToPath(*params.RootURI)
	} else if params.RootPath != nil && *params.RootPath != "" {
		s.rootPath = *params.RootPath
	}

	if s.rootPath != "" {
		opts, _, err := config.Resolve(s.rootPath)
		if err != nil {
			log.Printf("Ignoring options: %v", err)
			opts = config.Default()
		}
		s.engine = engine.New(opts)
		if snap, err := s.engine.LoadDir(context.Background(), s.rootPath); err != nil {
			log.Printf("Loading %s: %v", s.rootPath, err)
		} else {
			log.Printf("Loaded %d modules from %s", len(snap.Entries()), s.rootPath)
		}
	}

	result := InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync:   1, // Full sync
			HoverProvider:      true,
			DefinitionProvider: true,
			CompletionProvider: &CompletionOptions{TriggerCharacters: []string{"."}},
		},
	}

	log.Printf("Sending initialize response")
	return s.sendResponse(ResponseMessage{
		Jsonrpc: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (s *LanguageServer) handleShutdown(id interface{}) error {
	return s.sendResponse(ResponseMessage{
		Jsonrpc: "2.0",
		ID:      id,
		Result:  nil,
	})
}
