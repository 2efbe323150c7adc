package typesystem

import (
	"fmt"
	"sync/atomic"

	"github.com/davecgh/go-spew/spew"
	"github.com/funvibe/phasec/internal/config"
)

var arenaGeneration atomic.Uint64

// ExprNode is anything with a stable expression identifier.
type ExprNode interface {
	ExprID() int
}

type resolvedExpr struct {
	typ   Type
	phase Phase
	set   bool
}

// Types owns every type created during a compilation. References handed out
// by one arena stay valid as long as the arena is reachable.
type Types struct {
	gen        uint64
	types      []Type
	namespaces []*Namespace
	libraries  MemberEnv

	number     *Primitive
	str        *Primitive
	boolean    *Primitive
	duration   *Primitive
	anything   *Primitive
	void       *Primitive
	json       *Primitive
	mutJson    *Primitive
	nilType    *Primitive
	unresolved *Primitive

	exprTypes    []resolvedExpr
	resourceBase Type
}

// NewTypes creates an arena holding the builtin singletons.
func NewTypes() *Types {
	t := &Types{gen: arenaGeneration.Add(1)}
	mk := func(k PrimitiveKind) *Primitive {
		p := &Primitive{Kind: k}
		t.AddType(p)
		return p
	}
	t.number = mk(Number)
	t.str = mk(String)
	t.boolean = mk(Boolean)
	t.duration = mk(Duration)
	t.anything = mk(Anything)
	t.void = mk(Void)
	t.json = mk(Json)
	t.mutJson = mk(MutJson)
	t.nilType = mk(Nil)
	t.unresolved = mk(Unresolved)
	return t
}

func (t *Types) NumberType() Type   { return t.number }
func (t *Types) StringType() Type   { return t.str }
func (t *Types) BoolType() Type     { return t.boolean }
func (t *Types) DurationType() Type { return t.duration }
func (t *Types) AnythingType() Type { return t.anything }
func (t *Types) VoidType() Type     { return t.void }
func (t *Types) JsonType() Type     { return t.json }
func (t *Types) MutJsonType() Type  { return t.mutJson }
func (t *Types) NilType() Type      { return t.nilType }

// ErrorType is the unresolved type produced after a reported error.
func (t *Types) ErrorType() Type { return t.unresolved }

// Primitive returns the singleton of the given kind.
func (t *Types) Primitive(k PrimitiveKind) Type {
	switch k {
	case Number:
		return t.number
	case String:
		return t.str
	case Boolean:
		return t.boolean
	case Duration:
		return t.duration
	case Anything:
		return t.anything
	case Void:
		return t.void
	case Json:
		return t.json
	case MutJson:
		return t.mutJson
	case Nil:
		return t.nilType
	}
	return t.unresolved
}

// AddType registers a new type and returns its reference.
func (t *Types) AddType(typ Type) Type {
	typ.stamp(t.gen)
	t.types = append(t.types, typ)
	return typ
}

// MakeOption returns typ? (typ itself when already optional).
func (t *Types) MakeOption(typ Type) Type {
	if IsOption(typ) {
		return typ
	}
	return t.AddType(&Optional{Inner: typ})
}

// Collection allocates a new container type.
func (t *Types) Collection(kind CollectionKind, elem Type) Type {
	return t.AddType(&Collection{Kind: kind, Elem: elem})
}

// Len is the number of types in the arena.
func (t *Types) Len() int {
	return len(t.types)
}

// Stringables are the types accepted inside string interpolation.
func (t *Types) Stringables() []Type {
	return []Type{t.str, t.number, t.json, t.mutJson, t.anything}
}

// AddNamespace registers a namespace.
func (t *Types) AddNamespace(ns *Namespace) *Namespace {
	t.namespaces = append(t.namespaces, ns)
	return ns
}

// SetLibraries installs the env mapping assembly names to namespaces.
func (t *Types) SetLibraries(env MemberEnv) {
	t.libraries = env
	t.resourceBase = nil
}

func (t *Types) Libraries() MemberEnv {
	return t.libraries
}

// ResourceBaseType is the implicit parent of preflight classes.
func (t *Types) ResourceBaseType() (Type, error) {
	if t.resourceBase != nil {
		return t.resourceBase, nil
	}
	typ, err := t.lookupLibraryType(config.SDKAssembly + "." + config.ResourceFQN)
	if err != nil {
		return nil, err
	}
	t.resourceBase = typ
	return typ, nil
}

// GetStdClass returns the std library class carrying the API of a builtin
// type, e.g. "str" resolves to std.String. Generic templates keep their
// type parameters.
func (t *Types) GetStdClass(name string) (Type, LookupInfo, error) {
	fqn := config.SDKAssembly + "." + FullyQualifyStdType(name)
	if t.libraries == nil {
		return nil, LookupInfo{}, NewSymbolNotFoundError(fqn)
	}
	res := t.libraries.LookupNestedStr(fqn, Anywhere)
	if res.Status != LookupFound {
		return nil, LookupInfo{}, NewSymbolNotFoundError(fqn)
	}
	typ, ok := AsType(res.Kind)
	if !ok {
		return nil, LookupInfo{}, &NotATypeError{Name: fqn, Kind: res.Kind.KindName()}
	}
	return typ, res.Info, nil
}

func (t *Types) lookupLibraryType(fqn string) (Type, error) {
	if t.libraries == nil {
		return nil, NewSymbolNotFoundError(fqn)
	}
	res := t.libraries.LookupNestedStr(fqn, Anywhere)
	if res.Status != LookupFound {
		return nil, NewSymbolNotFoundError(fqn)
	}
	typ, ok := AsType(res.Kind)
	if !ok {
		return nil, &NotATypeError{Name: fqn, Kind: res.Kind.KindName()}
	}
	return typ, nil
}

// AssignTypeToExpr records the result of checking an expression.
func (t *Types) AssignTypeToExpr(e ExprNode, typ Type, phase Phase) {
	id := e.ExprID()
	if id < 0 {
		panic(fmt.Sprintf("expression id %d is negative:\n%s", id, spew.Sdump(e)))
	}
	if id >= len(t.exprTypes) {
		grown := make([]resolvedExpr, id+1, 2*(id+1))
		copy(grown, t.exprTypes)
		t.exprTypes = grown
	}
	t.exprTypes[id] = resolvedExpr{typ: typ, phase: phase, set: true}
}

// ExprType returns the recorded type of an expression, if any.
func (t *Types) ExprType(e ExprNode) (Type, bool) {
	id := e.ExprID()
	if id < 0 || id >= len(t.exprTypes) || !t.exprTypes[id].set {
		return nil, false
	}
	return t.exprTypes[id].typ, true
}

// ExprPhase returns the recorded phase of an expression, if any.
func (t *Types) ExprPhase(e ExprNode) (Phase, bool) {
	id := e.ExprID()
	if id < 0 || id >= len(t.exprTypes) || !t.exprTypes[id].set {
		return Independent, false
	}
	return t.exprTypes[id].phase, true
}

// MustExprType is ExprType for callers that run after checking, where every
// expression has a type.
func (t *Types) MustExprType(e ExprNode) Type {
	typ, ok := t.ExprType(e)
	if !ok {
		panic(fmt.Sprintf("expression %d has no type:\n%s", e.ExprID(), spew.Sdump(e)))
	}
	return typ
}

// EachExpr calls fn for every expression that has a recorded result, in ID order.
func (t *Types) EachExpr(fn func(id int, typ Type, phase Phase)) {
	for id, r := range t.exprTypes {
		if r.set {
			fn(id, r.typ, r.phase)
		}
	}
}
