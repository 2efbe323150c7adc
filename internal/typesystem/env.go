package typesystem

import "github.com/funvibe/phasec/internal/token"

// StatementIdx positions a definition inside its scope. Symbols defined at
// Top are visible to the whole scope; symbols defined at an index become
// visible from that statement on.
type StatementIdx int

const (
	Top StatementIdx = -1
	// Anywhere disables the definition-order check on lookups.
	Anywhere StatementIdx = -1
)

// VariableKind says how a variable was introduced.
type VariableKind int

const (
	FreeVariable VariableKind = iota
	InstanceMember
	StaticMember
	TypeVariable
	NamespaceVariable
	ErrorVariable
)

// SymbolKind is what an environment entry holds: a type, a variable or a namespace.
type SymbolKind interface {
	KindName() string
	symbolKind()
}

// TypeSymbol is a named type.
type TypeSymbol struct {
	Type Type
}

func (TypeSymbol) KindName() string { return "type" }
func (TypeSymbol) symbolKind()      {}

// VariableInfo describes a variable, member or the result of a reference.
type VariableInfo struct {
	Name         string
	Span         token.Span
	Type         Type
	Reassignable bool
	Phase        Phase
	Kind         VariableKind
	Docs         *Docs
}

func (VariableInfo) KindName() string { return "variable" }
func (VariableInfo) symbolKind()      {}

// IsStatic reports whether the variable is a static class member.
func (v VariableInfo) IsStatic() bool {
	return v.Kind == StaticMember
}

// Namespace is a brought module. Env is filled lazily by the importer.
type Namespace struct {
	Name   string
	Env    MemberEnv
	Loaded bool
}

func (*Namespace) KindName() string { return "namespace" }
func (*Namespace) symbolKind()      {}

// LookupStatus is the outcome of an environment lookup.
type LookupStatus int

const (
	LookupFound LookupStatus = iota
	LookupNotFound
	LookupDefinedLater
	LookupExpectedNamespace
)

// LookupInfo describes the environment in which a symbol was found.
type LookupInfo struct {
	Phase Phase
	Init  bool // found in an initializer env
}

// LookupResult is returned by LookupExt and LookupNested. Name is the path
// element that failed for NotFound/DefinedLater/ExpectedNamespace.
type LookupResult struct {
	Status LookupStatus
	Kind   SymbolKind
	Info   LookupInfo
	Name   string
}

// EnvEntry is one symbol produced by MemberEnv.Iter.
type EnvEntry struct {
	Name string
	Kind SymbolKind
	Info LookupInfo
}

// MemberEnv is the read side of a symbol environment. Class, interface and
// struct types hold one for their members.
type MemberEnv interface {
	Lookup(name string, notAfter StatementIdx) (SymbolKind, bool)
	LookupExt(name string, notAfter StatementIdx) LookupResult
	LookupNestedStr(path string, notAfter StatementIdx) LookupResult
	// Iter lists own symbols in definition order followed, when withAncestry
	// is set, by those of the parents that are not shadowed.
	Iter(withAncestry bool) []EnvEntry
	Phase() Phase
}

// AsVariable returns the variable info of kind, if it is a variable.
func AsVariable(kind SymbolKind) (VariableInfo, bool) {
	v, ok := kind.(VariableInfo)
	return v, ok
}

// AsType returns the type of kind, if it is a type symbol.
func AsType(kind SymbolKind) (Type, bool) {
	ts, ok := kind.(TypeSymbol)
	if !ok {
		return nil, false
	}
	return ts.Type, true
}

// AsNamespace returns kind as a namespace.
func AsNamespace(kind SymbolKind) (*Namespace, bool) {
	ns, ok := kind.(*Namespace)
	return ns, ok
}
