package lsp_test

import (
	"strings"
	"testing"

	"github.com/funvibe/phasec/internal/lsp"
	"github.com/funvibe/phasec/internal/token"
)

const uri = "file:///work/main.ast.json"

// bring cloud;
// let bucket = new cloud.Bucket( );
// bucket.addObject("key", );
// bucket.delete("k", mustExist: true);
const bucketTree = `{
  "file": "main.ph",
  "scope": [
    {"kind": "Bring", "module": "cloud", "span": [0, 0, 0, 11]},
    {"kind": "Let", "name": "bucket", "span": [1, 0, 1, 33],
     "value": {"kind": "New", "class": "cloud.Bucket", "span": [1, 13, 1, 31],
               "args": {"pos": [], "span": [1, 29, 1, 31]}}},
    {"kind": "Expr", "span": [2, 0, 2, 25],
     "expr": {"kind": "Call", "span": [2, 0, 2, 25],
              "callee": {"kind": "Member", "span": [2, 0, 2, 16], "property": "addObject",
                         "object": {"kind": "Identifier", "name": "bucket", "span": [2, 0, 2, 6]}},
              "args": {"span": [2, 16, 2, 25],
                       "pos": [{"kind": "String", "value": "key", "span": [2, 17, 2, 22]}]}}},
    {"kind": "Expr", "span": [3, 0, 3, 35],
     "expr": {"kind": "Call", "span": [3, 0, 3, 35],
              "callee": {"kind": "Member", "span": [3, 0, 3, 13], "property": "delete",
                         "object": {"kind": "Identifier", "name": "bucket", "span": [3, 0, 3, 6]}},
              "args": {"span": [3, 13, 3, 35],
                       "pos": [{"kind": "String", "value": "k", "span": [3, 14, 3, 17]}],
                       "named": [{"name": "mustExist",
                                  "value": {"kind": "Boolean", "value": true, "span": [3, 30, 3, 34]}}]}}}
  ]
}`

const cleanTree = `{
  "file": "main.ph",
  "scope": [
    {"kind": "Bring", "module": "cloud", "span": [0, 0, 0, 11]},
    {"kind": "Let", "name": "bucket", "span": [1, 0, 1, 33],
     "value": {"kind": "New", "class": "cloud.Bucket", "span": [1, 13, 1, 31]}}
  ]
}`

const brokenTree = `{
  "file": "main.ph",
  "scope": [
    {"kind": "Let", "name": "x", "span": [0, 0, 0, 15],
     "value": {"kind": "Binary", "op": "+", "span": [0, 8, 0, 15],
               "left": {"kind": "Number", "value": 1, "span": [0, 8, 0, 9]},
               "right": {"kind": "String", "value": "a", "span": [0, 12, 0, 15]}}}
  ]
}`

func openSession(t *testing.T, tree string) *lsp.Session {
	t.Helper()
	s := lsp.NewSession(nil)
	s.Open(uri, []byte(tree))
	return s
}

// ============================================================================
// Session
// ============================================================================

func TestSessionOpenUpdateClose(t *testing.T) {
	s := lsp.NewSession(nil)

	fs := s.Open(uri, []byte(brokenTree))
	if len(fs.Context.Errors) == 0 {
		t.Fatalf("expected diagnostics for the broken tree")
	}
	if fs.Context.FilePath != "/work/main.ast.json" {
		t.Errorf("file path = %q", fs.Context.FilePath)
	}

	updated := s.Update(uri, []byte(cleanTree))
	if len(updated.Context.Errors) != 0 {
		t.Fatalf("unexpected diagnostics: %v", updated.Context.Errors)
	}
	if updated.Version == fs.Version {
		t.Errorf("update did not produce a new version")
	}
	got, ok := s.Get(uri)
	if !ok || got != updated {
		t.Errorf("Get did not return the latest state")
	}

	s.Close(uri)
	if _, ok := s.Get(uri); ok {
		t.Errorf("file still open after Close")
	}
}

func TestSessionKeepsImports(t *testing.T) {
	s := openSession(t, cleanTree)
	fs := s.Update(uri, []byte(cleanTree))
	if len(fs.Context.Imports) == 0 {
		t.Errorf("imports were dropped on update")
	}
}

func TestSessionDecodeError(t *testing.T) {
	s := lsp.NewSession(nil)
	fs := s.Open(uri, []byte(`{"scope": [`))
	if len(fs.Context.Errors) != 1 {
		t.Fatalf("expected one diagnostic, got %v", fs.Context.Errors)
	}
	if s.SignatureHelp(uri, token.Position{}) != nil || s.Hover(uri, token.Position{}) != nil {
		t.Errorf("queries on an undecodable file should return nothing")
	}
}

// ============================================================================
// Signature help
// ============================================================================

func TestSignatureHelp(t *testing.T) {
	tests := []struct {
		name       string
		pos        token.Position
		wantLabel  string
		wantActive int
		wantDocs   string
	}{
		{
			name:      "constructor",
			pos:       token.Position{Line: 1, Col: 30},
			wantLabel: "(...props): Bucket",
			wantDocs:  "A container of binary objects.",
		},
		{
			name:       "second positional argument",
			pos:        token.Position{Line: 2, Col: 24},
			wantLabel:  "(key: str, body: str): void",
			wantActive: 1,
			wantDocs:   "Add a file to the bucket",
		},
		{
			name:      "inside the first argument",
			pos:       token.Position{Line: 2, Col: 19},
			wantLabel: "(key: str, body: str): void",
		},
		{
			name:       "named argument",
			pos:        token.Position{Line: 3, Col: 32},
			wantLabel:  "(key: str, ...opts): void",
			wantActive: 1,
		},
	}

	s := openSession(t, bucketTree)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := s.SignatureHelp(uri, tt.pos)
			if sig == nil {
				t.Fatalf("no signature at %v", tt.pos)
			}
			if sig.Label != tt.wantLabel {
				t.Errorf("label = %q, want %q", sig.Label, tt.wantLabel)
			}
			if sig.ActiveParameter != tt.wantActive {
				t.Errorf("active parameter = %d, want %d", sig.ActiveParameter, tt.wantActive)
			}
			if !strings.Contains(sig.Documentation, tt.wantDocs) {
				t.Errorf("docs = %q, want %q", sig.Documentation, tt.wantDocs)
			}
		})
	}
}

func TestSignatureHelpParameters(t *testing.T) {
	s := openSession(t, bucketTree)
	sig := s.SignatureHelp(uri, token.Position{Line: 1, Col: 30})
	if sig == nil || len(sig.Parameters) != 1 {
		t.Fatalf("unexpected signature %+v", sig)
	}
	if sig.Parameters[0].Label != "...props" || sig.Parameters[0].Documentation != "Options for Bucket." {
		t.Errorf("unexpected parameter %+v", sig.Parameters[0])
	}
}

func TestSignatureHelpOutsideCalls(t *testing.T) {
	s := openSession(t, bucketTree)
	if sig := s.SignatureHelp(uri, token.Position{Line: 0, Col: 3}); sig != nil {
		t.Errorf("expected no signature, got %+v", sig)
	}
	if sig := s.SignatureHelp("file:///other.ast.json", token.Position{Line: 2, Col: 24}); sig != nil {
		t.Errorf("expected no signature for an unknown file")
	}
}

// ============================================================================
// Hover
// ============================================================================

func TestHover(t *testing.T) {
	s := openSession(t, bucketTree)

	h := s.Hover(uri, token.Position{Line: 2, Col: 3})
	if h == nil {
		t.Fatalf("no hover on bucket")
	}
	if !strings.Contains(h.Contents, "bucket: Bucket") || !strings.Contains(h.Contents, "preflight") {
		t.Errorf("unexpected hover %q", h.Contents)
	}
	if h.Span.Start != (token.Position{Line: 2, Col: 0}) {
		t.Errorf("hover span = %v", h.Span)
	}

	h = s.Hover(uri, token.Position{Line: 2, Col: 19})
	if h == nil || !strings.Contains(h.Contents, "str") {
		t.Errorf("unexpected hover on a literal: %+v", h)
	}

	if h := s.Hover(uri, token.Position{Line: 9, Col: 0}); h != nil {
		t.Errorf("expected no hover past the end, got %+v", h)
	}
}
