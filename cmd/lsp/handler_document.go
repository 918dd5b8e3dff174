package main

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/funvibe/dsema/internal/modules"
)

// DocumentState stores the state of a single open document
type DocumentState struct {
	Content string          // Current file content
	Module  *modules.Module // Result of the last parse
	Mu      sync.RWMutex    // Mutex to protect access to state
}

func (s *LanguageServer) handleDidOpen(params DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	docState := &DocumentState{Content: params.TextDocument.Text}
	docState.Module = s.analyzeDocument(docState.Content, uri)

	s.mu.Lock()
	s.documents[uri] = docState
	s.mu.Unlock()

	log.Printf("Opened file: %s", uri)
	return s.publishDiagnostics(uri, docState.Module)
}

func (s *LanguageServer) handleDidChange(params DidChangeTextDocumentParams) error {
	// Full content sync: the last change carries the whole text
	if len(params.ContentChanges) == 0 {
		return nil
	}
	uri := params.TextDocument.URI
	newContent := params.ContentChanges[len(params.ContentChanges)-1].Text

	s.mu.RLock()
	docState, exists := s.documents[uri]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("document %s not found", uri)
	}

	mod := s.analyzeDocument(newContent, uri)
	docState.Mu.Lock()
	docState.Content = newContent
	docState.Module = mod
	docState.Mu.Unlock()

	log.Printf("Changed file: %s", uri)
	return s.publishDiagnostics(uri, mod)
}

func (s *LanguageServer) handleDidClose(params DidCloseTextDocumentParams) error {
	s.mu.Lock()
	delete(s.documents, params.TextDocument.URI)
	s.mu.Unlock()
	log.Printf("Closed file: %s", params.TextDocument.URI)
	return nil
}

// analyzeDocument parses content and installs it as a new cache generation.
func (s *LanguageServer) analyzeDocument(content string, uri string) *modules.Module {
	mod, _ := s.engine.Update(s.modulePath(uri), content)
	return mod
}

// document returns the state and content of an open document.
func (s *LanguageServer) document(uri string) (*modules.Module, string, bool) {
	s.mu.RLock()
	docState, exists := s.documents[uri]
	s.mu.RUnlock()
	if !exists {
		return nil, "", false
	}
	docState.Mu.RLock()
	defer docState.Mu.RUnlock()
	return docState.Module, docState.Content, docState.Module != nil
}

func (s *LanguageServer) uriToPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

func (s *LanguageServer) pathToURI(path string) string {
	if s.rootPath != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.rootPath, filepath.FromSlash(path))
	}
	return "file://" + filepath.ToSlash(path)
}

// modulePath maps a document URI to its slash-separated path inside the
// workspace, which is how the cache names files.
func (s *LanguageServer) modulePath(uri string) string {
	path := s.uriToPath(uri)
	if s.rootPath != "" {
		if rel, err := filepath.Rel(s.rootPath, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.Base(path)
}
