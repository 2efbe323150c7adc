package typesystem

import (
	"fmt"
	"strings"

	"github.com/funvibe/phasec/internal/config"
)

// Type is the interface for all types in our system. Types are compared by
// identity; structural questions go through IsSubtypeOf and IsSameType.
type Type interface {
	String() string
	generation() uint64
	stamp(gen uint64)
}

// header carries the generation of the arena that allocated the type.
type header struct {
	gen uint64
}

func (h *header) generation() uint64 { return h.gen }

func (h *header) stamp(gen uint64) {
	if h.gen == 0 {
		h.gen = gen
	}
}

// PrimitiveKind enumerates the builtin scalar types.
type PrimitiveKind int

const (
	Anything PrimitiveKind = iota
	Number
	String
	Duration
	Boolean
	Void
	Json
	MutJson
	Nil
	Unresolved
)

var primitiveNames = [...]string{
	Anything:   "any",
	Number:     "num",
	String:     "str",
	Duration:   "duration",
	Boolean:    "bool",
	Void:       "void",
	Json:       "Json",
	MutJson:    "MutJson",
	Nil:        "nil",
	Unresolved: "unresolved",
}

// Primitive is one of the builtin singleton types.
type Primitive struct {
	header
	Kind PrimitiveKind
}

func (t *Primitive) String() string {
	return primitiveNames[t.Kind]
}

// Optional is T?.
type Optional struct {
	header
	Inner Type
}

func (t *Optional) String() string {
	return t.Inner.String() + "?"
}

// CollectionKind enumerates the builtin generic containers.
type CollectionKind int

const (
	Array CollectionKind = iota
	MutArray
	Map
	MutMap
	Set
	MutSet
)

var collectionNames = [...]string{
	Array:    "Array",
	MutArray: "MutArray",
	Map:      "Map",
	MutMap:   "MutMap",
	Set:      "Set",
	MutSet:   "MutSet",
}

func (k CollectionKind) String() string {
	return collectionNames[k]
}

// IsMutable reports whether the container kind allows in-place mutation.
func (k CollectionKind) IsMutable() bool {
	return k == MutArray || k == MutMap || k == MutSet
}

// CollectionKindByName maps a container name such as "MutMap" to its kind.
func CollectionKindByName(name string) (CollectionKind, bool) {
	for k, n := range collectionNames {
		if n == name {
			return CollectionKind(k), true
		}
	}
	return 0, false
}

// Collection is Array<T>, MutArray<T>, Map<T>, MutMap<T>, Set<T> or MutSet<T>.
// Maps are keyed by str; Elem is the value type.
type Collection struct {
	header
	Kind CollectionKind
	Elem Type
}

func (t *Collection) String() string {
	return fmt.Sprintf("%s<%s>", t.Kind, t.Elem)
}

// FunctionParameter is one declared parameter of a function signature.
type FunctionParameter struct {
	Name string
	Type Type
	Docs *Docs
}

// Function is a function or method signature.
type Function struct {
	header
	ThisType   Type // nil for free functions and static methods
	Parameters []FunctionParameter
	ReturnType Type
	Phase      Phase
	// MacroOverride replaces the generated call expression in code generation.
	MacroOverride string
	Docs          *Docs
}

func (t *Function) String() string {
	var sb strings.Builder
	switch t.Phase {
	case Inflight:
		sb.WriteString("inflight ")
	case Preflight:
		sb.WriteString("preflight ")
	}
	sb.WriteString("(")
	for i, p := range t.Parameters {
		if i > 0 {
			sb.WriteString(", ")
		}
		if p.Name != "" {
			sb.WriteString(p.Name)
			sb.WriteString(": ")
		}
		sb.WriteString(p.Type.String())
	}
	sb.WriteString("): ")
	sb.WriteString(t.ReturnType.String())
	return sb.String()
}

// Lifts records, per inflight method, the preflight objects and operations it
// uses. It is produced by a later stage and attached to the class once.
type Lifts map[string][]string

// Class is a user or library class. Env holds its members and is parented to
// the parent class env, so member lookups see inherited members.
type Class struct {
	header
	Name           string
	FQN            string // empty for classes declared in source
	Parent         Type   // *Class or nil
	Implements     []Type
	Env            MemberEnv
	IsAbstract     bool
	TypeParameters []Type // concrete arguments of a hydrated generic, or the template parameters
	Phase          Phase
	Docs           *Docs
	// StdConstructArgs marks preflight classes whose constructors take the
	// implicit scope and id arguments.
	StdConstructArgs bool

	lifts    Lifts
	envSwaps int
}

func (t *Class) String() string {
	if m := t.ClosureMethod(); m != nil {
		return m.String()
	}
	return t.Name
}

// ReplaceEnv installs the real member env on a class that was registered as a
// placeholder. It may be called once.
func (t *Class) ReplaceEnv(env MemberEnv) {
	if t.envSwaps > 0 {
		panic(fmt.Sprintf("class %s: member env replaced twice", t.Name))
	}
	t.envSwaps++
	t.Env = env
}

// SetLifts attaches the capture summary. It may be called once.
func (t *Class) SetLifts(l Lifts) {
	if t.lifts != nil {
		panic(fmt.Sprintf("class %s: lifts already set", t.Name))
	}
	t.lifts = l
}

func (t *Class) Lifts() Lifts { return t.lifts }

// Interface is a nominal interface. Its Env contains its own members plus
// the flattened members of every extended interface.
type Interface struct {
	header
	Name    string
	FQN     string
	Docs    *Docs
	Extends []Type
	Env     MemberEnv

	envSwaps int
}

func (t *Interface) String() string {
	if h := lookupExt(t.Env, config.HandleMethod); h != nil && h.Phase == Inflight {
		return h.Type.String()
	}
	return t.Name
}

// ReplaceEnv installs the real member env on a placeholder interface.
func (t *Interface) ReplaceEnv(env MemberEnv) {
	if t.envSwaps > 0 {
		panic(fmt.Sprintf("interface %s: member env replaced twice", t.Name))
	}
	t.envSwaps++
	t.Env = env
}

// Struct is a plain data record. Env holds own and inherited fields.
type Struct struct {
	header
	Name    string
	FQN     string
	Docs    *Docs
	Extends []Type
	Env     MemberEnv
}

func (t *Struct) String() string {
	return t.Name
}

// Enum is a named set of values in declaration order.
type Enum struct {
	header
	Name   string
	FQN    string
	Docs   *Docs
	Values []string
}

func (t *Enum) String() string {
	return t.Name
}

// HasValue reports whether v is one of the enum's values.
func (t *Enum) HasValue(v string) bool {
	for _, val := range t.Values {
		if val == v {
			return true
		}
	}
	return false
}
