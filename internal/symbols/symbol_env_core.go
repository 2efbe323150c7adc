package symbols

import (
	"fmt"

	"github.com/funvibe/phasec/internal/typesystem"
)

type entry struct {
	name string
	kind typesystem.SymbolKind
	pos  typesystem.StatementIdx
}

// SymbolEnv is one lexical scope. Lookups walk the parent chain; every step
// up restricts visibility to symbols defined before the statement that
// opened the child scope.
type SymbolEnv struct {
	parent     *SymbolEnv
	entries    []entry
	index      map[string]int
	returnType typesystem.Type
	isInit     bool // initializer body: this.field is assignable
	isFunction bool
	phase      typesystem.Phase
	// statementIdx is the index of the statement in the parent scope that
	// created this env.
	statementIdx int
}

// NewSymbolEnv creates a scope.
func NewSymbolEnv(parent *SymbolEnv, returnType typesystem.Type, isInit, isFunction bool, phase typesystem.Phase, statementIdx int) *SymbolEnv {
	return &SymbolEnv{
		parent:       parent,
		index:        make(map[string]int),
		returnType:   returnType,
		isInit:       isInit,
		isFunction:   isFunction,
		phase:        phase,
		statementIdx: statementIdx,
	}
}

// DuplicateSymbolError is returned when a name is defined twice in one scope.
type DuplicateSymbolError struct {
	Name string
}

func (e *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("Symbol \"%s\" already defined in this scope", e.Name)
}

// Parent returns the enclosing scope, or nil for a root.
func (e *SymbolEnv) Parent() *SymbolEnv {
	return e.parent
}

func (e *SymbolEnv) Phase() typesystem.Phase {
	return e.phase
}

// ReturnType is the declared return type of the enclosing function body
// (void outside functions).
func (e *SymbolEnv) ReturnType() typesystem.Type {
	return e.returnType
}

func (e *SymbolEnv) IsInit() bool {
	return e.isInit
}

// IsFunction reports whether this env is itself a function body.
func (e *SymbolEnv) IsFunction() bool {
	return e.isFunction
}

// InFunction reports whether this env or any ancestor is a function body.
func (e *SymbolEnv) InFunction() bool {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.isFunction {
			return true
		}
	}
	return false
}

func (e *SymbolEnv) StatementIdx() int {
	return e.statementIdx
}

// Len is the number of symbols defined directly in this env.
func (e *SymbolEnv) Len() int {
	return len(e.entries)
}
