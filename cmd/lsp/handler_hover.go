package main

import (
	"log"
)

func (s *LanguageServer) handleHover(id interface{}, params TextDocumentPositionParams) error {
	log.Printf("Handling hover request for %s at line %d, char %d", params.TextDocument.URI, params.Position.Line, params.Position.Character)

	h := s.session.Hover(params.TextDocument.URI, toPosition(params.Position))
	if h == nil {
		return s.sendResponse(id, nil)
	}
	r := toRange(h.Span)
	return s.sendResponse(id, Hover{
		Contents: MarkupContent{Kind: "markdown", Value: h.Contents},
		Range:    &r,
	})
}

func (s *LanguageServer) handleSignatureHelp(id interface{}, params TextDocumentPositionParams) error {
	sig := s.session.SignatureHelp(params.TextDocument.URI, toPosition(params.Position))
	if sig == nil {
		return s.sendResponse(id, nil)
	}

	info := SignatureInformation{
		Label:           sig.Label,
		Documentation:   markdown(sig.Documentation),
		Parameters:      make([]ParameterInformation, len(sig.Parameters)),
		ActiveParameter: sig.ActiveParameter,
	}
	for i, p := range sig.Parameters {
		info.Parameters[i] = ParameterInformation{Label: p.Label, Documentation: markdown(p.Documentation)}
	}
	return s.sendResponse(id, SignatureHelp{
		Signatures:      []SignatureInformation{info},
		ActiveParameter: sig.ActiveParameter,
	})
}

func markdown(text string) *MarkupContent {
	if text == "" {
		return nil
	}
	return &MarkupContent{Kind: "markdown", Value: text}
}
