package main

import (
	"log"

	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/config"
	"github.com/funvibe/dsema/internal/typesystem"
)

func (s *LanguageServer) handleCompletion(id interface{}, params CompletionParams) error {
	log.Printf("Handling completion request for %s at line %d, char %d", params.TextDocument.URI, params.Position.Line, params.Position.Character)

	items := s.getCompletionItems(params.TextDocument.URI, params.Position)
	return s.sendResponse(ResponseMessage{
		Jsonrpc: "2.0",
		ID:      id,
		Result:  CompletionList{IsIncomplete: false, Items: items},
	})
}

// getCompletionItems lists the members of the receiver in front of the dot
// being completed.
func (s *LanguageServer) getCompletionItems(uri string, pos Position) []CompletionItem {
	items := []CompletionItem{}
	mod, content, ok := s.document(uri)
	if !ok {
		return items
	}
	recv, col := receiverBefore(content, pos.Line, pos.Character)
	if recv == "" {
		return items
	}
	sess := s.engine.Session()
	at := caret(mod, pos.Line, col)
	names, err := sess.Members(recv, at)
	if err != nil {
		log.Printf("Completing %q: %v", recv, err)
		return items
	}

	properties := make(map[string]bool)
	for _, p := range config.CommonProperties {
		properties[p] = true
	}
	for _, name := range names {
		item := CompletionItem{Label: name, Kind: CompletionItemField}
		if properties[name] {
			item.Kind = CompletionItemProperty
		} else if ts, err := sess.Types(recv+"."+name, at); err == nil && len(ts) > 0 {
			item.Kind = completionKind(ts[0])
			item.Detail = ts[0].String()
		}
		items = append(items, item)
	}
	return items
}

func completionKind(t typesystem.Type) CompletionItemKind {
	switch t := t.(type) {
	case *typesystem.Method:
		return CompletionItemMethod
	case *typesystem.Aggregate:
		if t.Decl.Kind == ast.AggregateClass {
			return CompletionItemClass
		}
		return CompletionItemStruct
	case *typesystem.Module:
		return CompletionItemModule
	case *typesystem.Member:
		if _, ok := t.Decl.(*ast.EnumValueDecl); ok {
			return CompletionItemEnumMember
		}
		return CompletionItemField
	}
	return CompletionItemVariable
}
