package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/kr/pretty"
)

const testURI = "file:///app/main.d"

// Lines are 0-based below; the chain "s.field" starts at column 11 of line 14.
const testSource = `module app.main;

enum int N = 4;

struct S
{
    int field;
    int y(int a, int b);
}
S s;

int square(int x)
{
    long local = x;
    return s.field + local * N;
}
`

func parseLSPOutput(t *testing.T, output string) string {
	t.Helper()
	parts := strings.SplitN(output, "\r\n\r\n", 2)
	if len(parts) != 2 {
		t.Fatalf("Invalid LSP output format (header/body split failed): %q", output)
	}
	return parts[1]
}

func decodeResult(t *testing.T, buf *bytes.Buffer, out interface{}) {
	t.Helper()
	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *Error          `json:"error"`
	}
	if err := json.Unmarshal([]byte(parseLSPOutput(t, buf.String())), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error response: %+v", resp.Error)
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		t.Fatalf("decoding result %s: %v", resp.Result, err)
	}
}

func setupServer(t *testing.T, uri, code string) (*LanguageServer, *bytes.Buffer) {
	t.Helper()
	buf := new(bytes.Buffer)
	server := NewLanguageServer(buf)

	didOpenParams := DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{
			URI:        uri,
			LanguageID: "d",
			Version:    1,
			Text:       code,
		},
	}
	if err := server.handleDidOpen(didOpenParams); err != nil {
		t.Fatalf("handleDidOpen failed: %v", err)
	}
	buf.Reset() // Clear diagnostics output
	return server, buf
}

func at(line, char int) TextDocumentPositionParams {
	return TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: testURI},
		Position:     Position{Line: line, Character: char},
	}
}

func TestLSP_Hover(t *testing.T) {
	tests := []struct {
		name      string
		pos       TextDocumentPositionParams
		want      []string
		wantRange Range
	}{
		{
			name:      "member chain",
			pos:       at(14, 15),
			want:      []string{"int field"},
			wantRange: Range{Start: Position{14, 11}, End: Position{14, 18}},
		},
		{
			name:      "manifest constant",
			pos:       at(14, 29),
			want:      []string{"N", "`= 4`"},
			wantRange: Range{Start: Position{14, 29}, End: Position{14, 30}},
		},
		{
			name:      "local variable",
			pos:       at(14, 23),
			want:      []string{"long local"},
			wantRange: Range{Start: Position{14, 21}, End: Position{14, 26}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, buf := setupServer(t, testURI, testSource)
			if err := server.handleHover(1, tt.pos); err != nil {
				t.Fatalf("handleHover failed: %v", err)
			}
			var hover Hover
			decodeResult(t, buf, &hover)
			for _, w := range tt.want {
				if !strings.Contains(hover.Contents.Value, w) {
					t.Errorf("hover %q does not contain %q", hover.Contents.Value, w)
				}
			}
			if hover.Range == nil {
				t.Fatalf("hover has no range")
			}
			if diff := pretty.Diff(*hover.Range, tt.wantRange); len(diff) > 0 {
				t.Errorf("range mismatch: %v", diff)
			}
		})
	}
}

func TestLSP_Hover_Whitespace(t *testing.T) {
	server, buf := setupServer(t, testURI, testSource)
	if err := server.handleHover(1, at(1, 0)); err != nil {
		t.Fatalf("handleHover failed: %v", err)
	}
	body := parseLSPOutput(t, buf.String())
	if !strings.Contains(body, `"result":null`) {
		t.Errorf("expected null result, got %s", body)
	}
}

func TestLSP_Definition(t *testing.T) {
	server, buf := setupServer(t, testURI, testSource)
	if err := server.handleDefinition(2, at(14, 11)); err != nil {
		t.Fatalf("handleDefinition failed: %v", err)
	}
	var locs []Location
	decodeResult(t, buf, &locs)
	if len(locs) != 1 {
		t.Fatalf("expected one location, got %# v", pretty.Formatter(locs))
	}
	if locs[0].URI != testURI {
		t.Errorf("URI = %q, want %q", locs[0].URI, testURI)
	}
	if locs[0].Range.Start.Line != 9 {
		t.Errorf("Expected definition line 9, got %d", locs[0].Range.Start.Line)
	}
}

func TestLSP_Completion(t *testing.T) {
	server, buf := setupServer(t, testURI, testSource)
	params := CompletionParams{TextDocumentPositionParams: at(14, 13)}
	if err := server.handleCompletion(3, params); err != nil {
		t.Fatalf("handleCompletion failed: %v", err)
	}
	var list CompletionList
	decodeResult(t, buf, &list)

	kinds := make(map[string]CompletionItemKind)
	for _, item := range list.Items {
		kinds[item.Label] = item.Kind
	}
	want := map[string]CompletionItemKind{
		"field":  CompletionItemField,
		"y":      CompletionItemMethod,
		"sizeof": CompletionItemProperty,
		"init":   CompletionItemProperty,
	}
	for label, kind := range want {
		if got, ok := kinds[label]; !ok {
			t.Errorf("missing completion %q in %v", label, kinds)
		} else if got != kind {
			t.Errorf("%s: kind = %d, want %d", label, got, kind)
		}
	}
}

func TestLSP_Completion_NoReceiver(t *testing.T) {
	server, buf := setupServer(t, testURI, testSource)
	params := CompletionParams{TextDocumentPositionParams: at(14, 6)}
	if err := server.handleCompletion(3, params); err != nil {
		t.Fatalf("handleCompletion failed: %v", err)
	}
	var list CompletionList
	decodeResult(t, buf, &list)
	if len(list.Items) != 0 {
		t.Errorf("expected no items, got %# v", pretty.Formatter(list.Items))
	}
}

func TestLSP_DidChangePublishesDiagnostics(t *testing.T) {
	server, buf := setupServer(t, testURI, testSource)
	err := server.handleDidChange(DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{URI: testURI, Version: 2},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: "module app.main;\nint = ;\n"}},
	})
	if err != nil {
		t.Fatalf("handleDidChange failed: %v", err)
	}
	var msg struct {
		Method string                   `json:"method"`
		Params PublishDiagnosticsParams `json:"params"`
	}
	if err := json.Unmarshal([]byte(parseLSPOutput(t, buf.String())), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Method != "textDocument/publishDiagnostics" {
		t.Errorf("method = %q", msg.Method)
	}
	if len(msg.Params.Diagnostics) == 0 {
		t.Fatalf("expected diagnostics for broken source")
	}
	d := msg.Params.Diagnostics[0]
	if d.Source != "dsema" || d.Range.Start.Line != 1 {
		t.Errorf("unexpected diagnostic %# v", pretty.Formatter(d))
	}
}

func TestLSP_UnknownMethod(t *testing.T) {
	server, buf := setupServer(t, testURI, testSource)
	if err := server.handleMessage([]byte(`{"jsonrpc":"2.0","id":7,"method":"textDocument/rename"}`)); err != nil {
		t.Fatal(err)
	}
	body := parseLSPOutput(t, buf.String())
	if !strings.Contains(body, "-32601") {
		t.Errorf("expected method-not-found error, got %s", body)
	}
}

func frame(body string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

func TestLSP_StartStopsOnExit(t *testing.T) {
	in := frame(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`) +
		frame(`{"jsonrpc":"2.0","method":"exit"}`) +
		frame(`{"jsonrpc":"2.0","id":2,"method":"shutdown"}`)
	buf := new(bytes.Buffer)
	server := NewLanguageServer(buf)
	server.Start(strings.NewReader(in))

	out := buf.String()
	if !strings.Contains(out, `"hoverProvider":true`) {
		t.Errorf("initialize response missing capabilities: %s", out)
	}
	if strings.Count(out, "Content-Length:") != 1 {
		t.Errorf("expected exactly one response before exit, got %s", out)
	}
}

func TestChainAt(t *testing.T) {
	line := "    return s.field + local * N;"
	tests := []struct {
		char      int
		want      string
		wantStart int
	}{
		{11, "s", 11},
		{15, "s.field", 11},
		{18, "s.field", 11}, // just past the word
		{19, "", 0},
		{29, "N", 29},
	}
	for _, tt := range tests {
		got, start := chainAt(line, 0, tt.char)
		if got != tt.want || start != tt.wantStart {
			t.Errorf("chainAt(%d) = %q, %d; want %q, %d", tt.char, got, start, tt.want, tt.wantStart)
		}
	}
}
