package main

import (
	"github.com/funvibe/phasec/internal/diagnostics"
	"github.com/funvibe/phasec/internal/token"
)

func (s *LanguageServer) publishDiagnostics(uri string, errs []*diagnostics.DiagnosticError) error {
	return s.sendNotification("textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: convertDiagnostics(errs),
	})
}

func convertDiagnostics(errs []*diagnostics.DiagnosticError) []Diagnostic {
	result := make([]Diagnostic, 0, len(errs))
	for _, err := range errs {
		result = append(result, Diagnostic{
			Range:    toRange(err.Span),
			Severity: SeverityError,
			Code:     string(err.Code),
			Message:  err.Message,
			Source:   "phasec",
		})
	}
	return result
}

// toRange converts a span; both use zero-based positions. Spans without an
// end cover their start only.
func toRange(span token.Span) Range {
	end := span.End
	if end.Before(span.Start) {
		end = span.Start
	}
	return Range{
		Start: Position{Line: span.Start.Line, Character: span.Start.Col},
		End:   Position{Line: end.Line, Character: end.Col},
	}
}

func toPosition(p Position) token.Position {
	return token.Position{Line: p.Line, Col: p.Character}
}
