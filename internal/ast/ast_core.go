package ast

import (
	"strings"

	"github.com/funvibe/phasec/internal/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	GetSpan() token.Span
}

// Expression is a Node that produces a value. Every expression carries an ID
// that is unique within its Program; checking results are keyed by it.
type Expression interface {
	Node
	ExprID() int
	expressionNode()
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	// StmtIdx is the position of the statement inside its scope.
	StmtIdx() int
	statementNode()
}

// ExprBase is embedded by every expression.
type ExprBase struct {
	ID   int
	Span token.Span
}

func (e *ExprBase) ExprID() int { return e.ID }
func (e *ExprBase) GetSpan() token.Span {
	if e == nil {
		return token.Span{}
	}
	return e.Span
}
func (e *ExprBase) expressionNode() {}

// StmtBase is embedded by every statement.
type StmtBase struct {
	Idx  int
	Span token.Span
}

func (s *StmtBase) StmtIdx() int { return s.Idx }
func (s *StmtBase) GetSpan() token.Span {
	if s == nil {
		return token.Span{}
	}
	return s.Span
}
func (s *StmtBase) statementNode() {}

// Symbol is a name with its location.
type Symbol struct {
	Name string
	Span token.Span
}

func (s Symbol) GetSpan() token.Span { return s.Span }
func (s Symbol) String() string      { return s.Name }

// Scope is a block of statements.
type Scope struct {
	Statements []Statement
	Span       token.Span
}

func (s *Scope) GetSpan() token.Span { return s.Span }

// Program is the root node of a compilation unit.
type Program struct {
	File  string // Source file path
	Scope *Scope
	// MaxExprID is the largest expression ID used in the tree. Nodes
	// synthesized after decoding take IDs above it.
	MaxExprID int
}

func (p *Program) GetSpan() token.Span { return p.Scope.Span }

// UserDefinedType is a possibly qualified type name: Foo, cloud.Bucket.
type UserDefinedType struct {
	Root   Symbol
	Fields []Symbol
	Span   token.Span
}

func (u *UserDefinedType) GetSpan() token.Span { return u.Span }

// FullPath returns every path element, root first.
func (u *UserDefinedType) FullPath() []Symbol {
	return append([]Symbol{u.Root}, u.Fields...)
}

// FullPathStr returns the dotted path.
func (u *UserDefinedType) FullPathStr() string {
	parts := make([]string, 0, len(u.Fields)+1)
	for _, s := range u.FullPath() {
		parts = append(parts, s.Name)
	}
	return strings.Join(parts, ".")
}

func (u *UserDefinedType) String() string { return u.FullPathStr() }

// IDGen hands out fresh expression IDs.
type IDGen struct {
	next int
}

// NewIDGen continues numbering after last.
func NewIDGen(last int) *IDGen {
	return &IDGen{next: last + 1}
}

func (g *IDGen) Next() int {
	id := g.next
	g.next++
	return id
}

// Last is the most recently issued ID.
func (g *IDGen) Last() int {
	return g.next - 1
}
