package diagnostics

import (
	"fmt"
	"sort"

	"github.com/funvibe/phasec/internal/token"
)

// ErrorCode classifies a diagnostic.
type ErrorCode string

const (
	ErrLookup     ErrorCode = "T001" // unknown symbol, used before definition, bad namespace path
	ErrKind       ErrorCode = "T002" // symbol exists but is the wrong kind (type vs variable)
	ErrType       ErrorCode = "T003" // type mismatch
	ErrPhase      ErrorCode = "T004" // phase violation
	ErrStructure  ErrorCode = "T005" // missing or extraneous fields, conformance
	ErrArity      ErrorCode = "T006" // wrong number of arguments
	ErrInit       ErrorCode = "T007" // field initialization
	ErrModule     ErrorCode = "T008" // bring and library loading
	ErrDecl       ErrorCode = "T009" // declaration shape (inheritance, duplicates)
	ErrDecode     ErrorCode = "P001" // malformed syntax tree input
	ErrUnexpected ErrorCode = "T999"
)

// DiagnosticError is a user-facing error attached to a source span.
type DiagnosticError struct {
	Code    ErrorCode
	Message string
	Span    token.Span
}

func (e *DiagnosticError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

// NewError creates a diagnostic with a formatted message.
func NewError(code ErrorCode, span token.Span, format string, args ...interface{}) *DiagnosticError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &DiagnosticError{Code: code, Message: msg, Span: span}
}

// Collector accumulates diagnostics, dropping duplicates reported at the
// same position with the same message.
type Collector struct {
	seen   map[string]struct{}
	errors []*DiagnosticError
}

func NewCollector() *Collector {
	return &Collector{seen: make(map[string]struct{})}
}

// Add records err unless an identical one was already recorded.
func (c *Collector) Add(err *DiagnosticError) {
	key := fmt.Sprintf("%s:%d:%d:%s", err.Span.File, err.Span.Start.Line, err.Span.Start.Col, err.Message)
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	c.errors = append(c.errors, err)
}

// Errorf records a new diagnostic.
func (c *Collector) Errorf(code ErrorCode, span token.Span, format string, args ...interface{}) {
	c.Add(NewError(code, span, format, args...))
}

func (c *Collector) Len() int {
	return len(c.errors)
}

func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns the recorded diagnostics ordered by file, line and column.
// Diagnostics at the same position keep their report order.
func (c *Collector) Errors() []*DiagnosticError {
	result := make([]*DiagnosticError, len(c.errors))
	copy(result, c.errors)
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i].Span, result[j].Span
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Start.Before(b.Start)
	})
	return result
}
