package main

import (
	"log"
)

func (s *LanguageServer) handleDidOpen(params DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	fs := s.session.Open(uri, []byte(params.TextDocument.Text))
	log.Printf("Opened file: %s", uri)
	return s.publishDiagnostics(uri, fs.Context.Errors)
}

func (s *LanguageServer) handleDidChange(params DidChangeTextDocumentParams) error {
	// Full content sync: the last change holds the whole document.
	if len(params.ContentChanges) == 0 {
		return nil
	}
	uri := params.TextDocument.URI
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	fs := s.session.Update(uri, []byte(text))
	log.Printf("Changed file: %s", uri)
	return s.publishDiagnostics(uri, fs.Context.Errors)
}

func (s *LanguageServer) handleDidClose(params DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.session.Close(uri)
	log.Printf("Closed file: %s", uri)
	// Clear the diagnostics of the closed file.
	return s.publishDiagnostics(uri, nil)
}
