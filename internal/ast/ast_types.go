package ast

import (
	"github.com/funvibe/phasec/internal/token"
	"github.com/funvibe/phasec/internal/typesystem"
)

// TypeAnnotationKind names the shape of a written type.
type TypeAnnotationKind string

const (
	TypeNumber      TypeAnnotationKind = "num"
	TypeString      TypeAnnotationKind = "str"
	TypeBool        TypeAnnotationKind = "bool"
	TypeDuration    TypeAnnotationKind = "duration"
	TypeVoid        TypeAnnotationKind = "void"
	TypeJson        TypeAnnotationKind = "Json"
	TypeMutJson     TypeAnnotationKind = "MutJson"
	TypeAnything    TypeAnnotationKind = "any"
	TypeOptional    TypeAnnotationKind = "optional"
	TypeArray       TypeAnnotationKind = "Array"
	TypeMutArray    TypeAnnotationKind = "MutArray"
	TypeMap         TypeAnnotationKind = "Map"
	TypeMutMap      TypeAnnotationKind = "MutMap"
	TypeSet         TypeAnnotationKind = "Set"
	TypeMutSet      TypeAnnotationKind = "MutSet"
	TypeFunction    TypeAnnotationKind = "function"
	TypeUserDefined TypeAnnotationKind = "udt"
)

// IsCollection reports whether the kind is one of the builtin containers.
func (k TypeAnnotationKind) IsCollection() bool {
	switch k {
	case TypeArray, TypeMutArray, TypeMap, TypeMutMap, TypeSet, TypeMutSet:
		return true
	}
	return false
}

// TypeAnnotation is a type written in source, e.g. Array<str>? or cloud.Bucket.
type TypeAnnotation struct {
	Kind  TypeAnnotationKind
	Inner *TypeAnnotation              // element type for containers, wrapped type for optionals
	Func  *FunctionSignatureAnnotation // for TypeFunction
	UDT   *UserDefinedType             // for TypeUserDefined
	Span  token.Span
}

func (t *TypeAnnotation) GetSpan() token.Span { return t.Span }

func (t *TypeAnnotation) String() string {
	switch {
	case t == nil:
		return "<none>"
	case t.Kind == TypeOptional:
		return t.Inner.String() + "?"
	case t.Kind.IsCollection():
		return string(t.Kind) + "<" + t.Inner.String() + ">"
	case t.Kind == TypeFunction:
		return "fn" + t.Func.String()
	case t.Kind == TypeUserDefined:
		return t.UDT.String()
	}
	return string(t.Kind)
}

// ParameterDecl is one parameter of a written signature.
type ParameterDecl struct {
	Name         Symbol
	Type         *TypeAnnotation
	Reassignable bool
}

// FunctionSignatureAnnotation is a written function signature.
type FunctionSignatureAnnotation struct {
	Parameters []ParameterDecl
	ReturnType *TypeAnnotation // nil means void
	Phase      typesystem.Phase
	Span       token.Span
}

func (f *FunctionSignatureAnnotation) String() string {
	s := "("
	for i, p := range f.Parameters {
		if i > 0 {
			s += ", "
		}
		s += p.Name.Name + ": " + p.Type.String()
	}
	s += ")"
	if f.ReturnType != nil {
		s += ": " + f.ReturnType.String()
	}
	return s
}

// FunctionDefinition is a closure, method or initializer.
type FunctionDefinition struct {
	Signature *FunctionSignatureAnnotation
	// Body is nil for extern functions.
	Body     *Scope
	Extern   string
	IsStatic bool
	Doc      string
	Span     token.Span
}

func (f *FunctionDefinition) GetSpan() token.Span { return f.Span }
