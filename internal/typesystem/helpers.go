package typesystem

func IsAnything(t Type) bool   { return isPrimitive(t, Anything) }
func IsUnresolved(t Type) bool { return isPrimitive(t, Unresolved) }
func IsVoid(t Type) bool       { return isPrimitive(t, Void) }
func IsString(t Type) bool     { return isPrimitive(t, String) }

func IsJson(t Type) bool {
	return isPrimitive(t, Json) || isPrimitive(t, MutJson)
}

func IsOption(t Type) bool {
	_, ok := t.(*Optional)
	return ok
}

func IsStruct(t Type) bool {
	_, ok := t.(*Struct)
	return ok
}

// MaybeUnwrapOption returns the inner type of an optional, or t itself.
func MaybeUnwrapOption(t Type) Type {
	if o, ok := t.(*Optional); ok {
		return o.Inner
	}
	return t
}

// IsInflightFunction reports whether t is a function signature of the inflight phase.
func IsInflightFunction(t Type) bool {
	return isInflightFunction(t)
}

// AsPreflightClass returns t as a class when it is a preflight class.
func AsPreflightClass(t Type) (*Class, bool) {
	c, ok := t.(*Class)
	if !ok || c.Phase != Preflight {
		return nil, false
	}
	return c, true
}

// IsClosure reports whether t is callable: a function, or a preflight class
// with an inflight handle method.
func IsClosure(t Type) bool {
	if _, ok := t.(*Function); ok {
		return true
	}
	if c, ok := AsPreflightClass(t); ok {
		return c.ClosureMethod() != nil
	}
	return false
}

// IsIterable reports whether t can be the subject of a for loop.
func IsIterable(t Type) bool {
	c, ok := t.(*Collection)
	if !ok {
		return false
	}
	switch c.Kind {
	case Array, MutArray, Set, MutSet:
		return true
	}
	return false
}

// CollectionItemType returns the element type of a collection.
func CollectionItemType(t Type) (Type, bool) {
	c, ok := t.(*Collection)
	if !ok {
		return nil, false
	}
	return c.Elem, true
}

// IsMutable reports whether t is mutable or is an immutable container
// holding a mutable type.
func IsMutable(t Type) bool {
	switch v := t.(type) {
	case *Primitive:
		return v.Kind == MutJson
	case *Collection:
		return v.Kind.IsMutable() || IsMutable(v.Elem)
	case *Optional:
		return IsMutable(v.Inner)
	}
	return false
}

// IsNil reports nil, and containers whose element type is nil (the type of
// literals such as [nil]).
func IsNil(t Type) bool {
	switch v := t.(type) {
	case *Primitive:
		return v.Kind == Nil
	case *Collection:
		return IsNil(v.Elem)
	}
	return false
}

// IsJSONLegalValue reports whether a value of type t may appear inside a Json literal.
func IsJSONLegalValue(t Type) bool {
	switch v := t.(type) {
	case *Primitive:
		switch v.Kind {
		case Number, String, Boolean, Json, MutJson:
			return true
		}
		return false
	case *Collection:
		return v.Kind == Array && IsJSONLegalValue(v.Elem)
	case *Optional:
		return IsJSONLegalValue(v.Inner)
	}
	return false
}

// FunctionStructArg returns the struct type of a function's last parameter,
// unwrapping optionals on both the function and the parameter.
func FunctionStructArg(t Type) (*Struct, bool) {
	f, ok := MaybeUnwrapOption(t).(*Function)
	if !ok || len(f.Parameters) == 0 {
		return nil, false
	}
	s, ok := MaybeUnwrapOption(f.Parameters[len(f.Parameters)-1].Type).(*Struct)
	return s, ok
}
