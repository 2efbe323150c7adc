package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/funvibe/phasec/internal/config"
)

func init() {
	config.IsLSPMode = true
}

const uri = "file:///work/main.ast.json"

// bring cloud;
// let bucket = new cloud.Bucket();
// bucket.addObject("key", );
const document = `{
  "file": "main.ph",
  "scope": [
    {"kind": "Bring", "module": "cloud", "span": [0, 0, 0, 11]},
    {"kind": "Let", "name": "bucket", "span": [1, 0, 1, 32],
     "value": {"kind": "New", "class": "cloud.Bucket", "span": [1, 13, 1, 30]}},
    {"kind": "Expr", "span": [2, 0, 2, 25],
     "expr": {"kind": "Call", "span": [2, 0, 2, 25],
              "callee": {"kind": "Member", "span": [2, 0, 2, 16], "property": "addObject",
                         "object": {"kind": "Identifier", "name": "bucket", "span": [2, 0, 2, 6]}},
              "args": {"pos": [{"kind": "String", "value": "key", "span": [2, 17, 2, 22]}]}}}
  ]
}`

// bring cloud;
// let bucket = new cloud.Bucket();
const cleanDocument = `{
  "file": "main.ph",
  "scope": [
    {"kind": "Bring", "module": "cloud", "span": [0, 0, 0, 11]},
    {"kind": "Let", "name": "bucket", "span": [1, 0, 1, 32],
     "value": {"kind": "New", "class": "cloud.Bucket", "span": [1, 13, 1, 30]}}
  ]
}`

const brokenDocument = `{
  "file": "main.ph",
  "scope": [
    {"kind": "Let", "name": "x", "span": [0, 0, 0, 15],
     "value": {"kind": "Binary", "op": "+", "span": [0, 8, 0, 15],
               "left": {"kind": "Number", "value": 1},
               "right": {"kind": "String", "value": "a"}}}
  ]
}`

func frame(t *testing.T, msg interface{}) string {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(data), data)
}

// readMessages splits the framed output stream into message bodies.
func readMessages(t *testing.T, output string) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for output != "" {
		parts := strings.SplitN(output, "\r\n\r\n", 2)
		if len(parts) != 2 {
			t.Fatalf("Invalid LSP output format (header/body split failed): %q", output)
		}
		var n int
		if _, err := fmt.Sscanf(parts[0], "Content-Length: %d", &n); err != nil {
			t.Fatalf("bad header %q: %v", parts[0], err)
		}
		var msg map[string]interface{}
		if err := json.Unmarshal([]byte(parts[1][:n]), &msg); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		out = append(out, msg)
		output = parts[1][n:]
	}
	return out
}

func setupServer(t *testing.T, text string) (*LanguageServer, *bytes.Buffer) {
	t.Helper()
	buf := new(bytes.Buffer)
	server := NewLanguageServer(buf)
	if err := server.handleDidOpen(DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{URI: uri, LanguageID: "phasec", Version: 1, Text: text},
	}); err != nil {
		t.Fatalf("handleDidOpen failed: %v", err)
	}
	return server, buf
}

func result(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	msgs := readMessages(t, buf.String())
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	res, _ := msgs[0]["result"].(map[string]interface{})
	return res
}

func TestLSP_PublishesDiagnostics(t *testing.T) {
	_, buf := setupServer(t, brokenDocument)

	msgs := readMessages(t, buf.String())
	if len(msgs) != 1 || msgs[0]["method"] != "textDocument/publishDiagnostics" {
		t.Fatalf("expected a diagnostics notification, got %v", msgs)
	}
	params := msgs[0]["params"].(map[string]interface{})
	diags := params["diagnostics"].([]interface{})
	if len(diags) == 0 {
		t.Fatalf("expected diagnostics")
	}
	first := diags[0].(map[string]interface{})
	if first["source"] != "phasec" || !strings.Contains(first["message"].(string), "Binary operator") {
		t.Errorf("unexpected diagnostic %v", first)
	}
}

func TestLSP_DidChangeClearsDiagnostics(t *testing.T) {
	server, buf := setupServer(t, brokenDocument)
	buf.Reset()

	err := server.handleDidChange(DidChangeTextDocumentParams{
		TextDocument:   VersionedTextDocumentIdentifier{URI: uri, Version: 2},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: cleanDocument}},
	})
	if err != nil {
		t.Fatalf("handleDidChange failed: %v", err)
	}
	msgs := readMessages(t, buf.String())
	params := msgs[0]["params"].(map[string]interface{})
	if diags := params["diagnostics"].([]interface{}); len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %v", diags)
	}
}

func TestLSP_Hover(t *testing.T) {
	server, buf := setupServer(t, document)
	buf.Reset()

	if err := server.handleHover(1, TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
		Position:     Position{Line: 2, Character: 2},
	}); err != nil {
		t.Fatalf("handleHover failed: %v", err)
	}

	res := result(t, buf)
	contents := res["contents"].(map[string]interface{})
	if contents["kind"] != "markdown" || !strings.Contains(contents["value"].(string), "bucket: Bucket") {
		t.Errorf("unexpected hover %v", contents)
	}
}

func TestLSP_SignatureHelp(t *testing.T) {
	server, buf := setupServer(t, document)
	buf.Reset()

	if err := server.handleSignatureHelp(2, TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: uri},
		Position:     Position{Line: 2, Character: 24},
	}); err != nil {
		t.Fatalf("handleSignatureHelp failed: %v", err)
	}

	res := result(t, buf)
	sigs := res["signatures"].([]interface{})
	sig := sigs[0].(map[string]interface{})
	if sig["label"] != "(key: str, body: str): void" {
		t.Errorf("label = %v", sig["label"])
	}
	if res["activeParameter"].(float64) != 1 {
		t.Errorf("activeParameter = %v", res["activeParameter"])
	}
}

func TestLSP_Stream(t *testing.T) {
	var in strings.Builder
	in.WriteString(frame(t, map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": map[string]interface{}{}}))
	in.WriteString(frame(t, map[string]interface{}{"jsonrpc": "2.0", "method": "initialized"}))
	in.WriteString(frame(t, map[string]interface{}{"jsonrpc": "2.0", "id": 2, "method": "textDocument/definition", "params": map[string]interface{}{}}))
	in.WriteString(frame(t, map[string]interface{}{"jsonrpc": "2.0", "id": 3, "method": "shutdown"}))
	in.WriteString(frame(t, map[string]interface{}{"jsonrpc": "2.0", "method": "exit"}))

	buf := new(bytes.Buffer)
	code := NewLanguageServer(buf).Start(strings.NewReader(in.String()))
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}

	msgs := readMessages(t, buf.String())
	if len(msgs) != 3 {
		t.Fatalf("expected 3 responses, got %d: %v", len(msgs), msgs)
	}
	caps := msgs[0]["result"].(map[string]interface{})["capabilities"].(map[string]interface{})
	if caps["hoverProvider"] != true || caps["signatureHelpProvider"] == nil {
		t.Errorf("unexpected capabilities %v", caps)
	}
	if errObj, ok := msgs[1]["error"].(map[string]interface{}); !ok || errObj["code"].(float64) != codeMethodNotFound {
		t.Errorf("expected method not found, got %v", msgs[1])
	}
}

func TestLSP_ExitWithoutShutdown(t *testing.T) {
	in := frame(t, map[string]interface{}{"jsonrpc": "2.0", "method": "exit"})
	if code := NewLanguageServer(new(bytes.Buffer)).Start(strings.NewReader(in)); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}
