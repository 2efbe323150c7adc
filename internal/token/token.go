package token

import "fmt"

// Position is a zero-based line/column location, the same convention the
// editor protocol uses. Rendering adds one to both.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Before reports whether p comes strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Col < o.Col
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Col+1)
}

// Span is a source range. End is inclusive of the last character position
// reported by the parser.
type Span struct {
	File  string   `json:"file,omitempty"`
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Contains reports whether pos lies within the span (both ends inclusive).
func (s Span) Contains(pos Position) bool {
	return !pos.Before(s.Start) && !s.End.Before(pos)
}

// IsZero reports whether the span was never set.
func (s Span) IsZero() bool {
	return s == Span{}
}

func (s Span) String() string {
	if s.File == "" {
		return s.Start.String()
	}
	return s.File + ":" + s.Start.String()
}
