package typesystem

import "fmt"

// SymbolNotFoundError indicates a symbol was not found
type SymbolNotFoundError struct {
	Name string
}

func (e *SymbolNotFoundError) Error() string {
	return fmt.Sprintf("symbol not found: %s", e.Name)
}

func NewSymbolNotFoundError(name string) *SymbolNotFoundError {
	return &SymbolNotFoundError{Name: name}
}

// NotATypeError indicates a symbol was found but does not name a type.
type NotATypeError struct {
	Name string
	Kind string
}

func (e *NotATypeError) Error() string {
	return fmt.Sprintf("%s is a %s, not a type", e.Name, e.Kind)
}
