package typesystem

import "github.com/funvibe/phasec/internal/config"

// IsSubtypeOf reports whether a value of type a can be used where b is
// expected. The relation is reflexive; Anything on either side accepts.
func IsSubtypeOf(a, b Type) bool {
	if a == b {
		return true
	}
	if isPrimitive(a, Anything) || isPrimitive(b, Anything) {
		return true
	}

	switch l := a.(type) {
	case *Function:
		switch r := b.(type) {
		case *Interface:
			// A function can stand in for an interface whose only purpose is
			// an inflight handle method.
			if l.Phase != Inflight {
				return false
			}
			handler := lookupExt(r.Env, config.HandleMethod)
			if handler == nil || handler.Phase != Inflight {
				return false
			}
			return IsSubtypeOf(l, handler.Type)
		case *Function:
			return isFunctionSubtype(l, r)
		}

	case *Class:
		switch r := b.(type) {
		case *Class:
			return l.Parent != nil && IsSubtypeOf(l.Parent, r)
		case *Interface:
			for _, impl := range l.Implements {
				if IsSubtypeOf(impl, r) {
					return true
				}
			}
			if l.Parent != nil && IsSubtypeOf(l.Parent, r) {
				return true
			}
			return classMatchesClosureInterface(l, r)
		case *Function:
			if m := l.ClosureMethod(); m != nil {
				return IsSubtypeOf(m, r)
			}
			return false
		}

	case *Interface:
		if r, ok := b.(*Interface); ok {
			for _, parent := range l.Extends {
				if IsSubtypeOf(parent, r) {
					return true
				}
			}
			return false
		}
	}

	if _, ok := b.(*Interface); ok {
		return false
	}

	switch l := a.(type) {
	case *Struct:
		if _, ok := b.(*Struct); ok {
			for _, parent := range l.Extends {
				if IsSubtypeOf(parent, b) {
					return true
				}
			}
			return false
		}
	case *Collection:
		if r, ok := b.(*Collection); ok && l.Kind == r.Kind {
			return IsSubtypeOf(l.Elem, r.Elem)
		}
	case *Enum:
		if r, ok := b.(*Enum); ok {
			return l.Name == r.Name
		}
	case *Optional:
		if r, ok := b.(*Optional); ok {
			return IsSubtypeOf(l.Inner, r.Inner)
		}
	}

	if r, ok := b.(*Optional); ok {
		if isPrimitive(a, Nil) {
			return true
		}
		return IsSubtypeOf(a, r.Inner)
	}

	if l, ok := a.(*Primitive); ok {
		if r, ok := b.(*Primitive); ok && l.Kind == r.Kind {
			switch l.Kind {
			case Number, String, Boolean, Duration, Void:
				return true
			}
		}
	}
	return false
}

// IsSameType reports mutual subtyping.
func IsSameType(a, b Type) bool {
	return IsSubtypeOf(a, b) && IsSubtypeOf(b, a)
}

// IsStrictSubtype reports a ⊑ b without b ⊑ a.
func IsStrictSubtype(a, b Type) bool {
	return IsSubtypeOf(a, b) && !IsSubtypeOf(b, a)
}

func isFunctionSubtype(l, r *Function) bool {
	if !l.Phase.IsSubtypeOf(r.Phase) {
		return false
	}
	// Any return value may be discarded by a void expectation.
	if !isPrimitive(r.ReturnType, Void) && !IsSubtypeOf(l.ReturnType, r.ReturnType) {
		return false
	}
	if MinParameters(l) > MinParameters(r) {
		return false
	}
	n := len(l.Parameters)
	if len(r.Parameters) < n {
		n = len(r.Parameters)
	}
	for i := 0; i < n; i++ {
		if !IsSubtypeOf(r.Parameters[i].Type, l.Parameters[i].Type) {
			return false
		}
	}
	return true
}

func classMatchesClosureInterface(c *Class, iface *Interface) bool {
	var inflight []Member
	for _, m := range Methods(iface, true) {
		if isInflightFunction(m.Info.Type) {
			inflight = append(inflight, m)
		}
	}
	if len(inflight) != 1 || inflight[0].Name != config.HandleMethod {
		return false
	}
	method := GetMethod(c, config.HandleMethod)
	if method == nil || !isInflightFunction(method.Type) {
		return false
	}
	return IsSubtypeOf(method.Type, inflight[0].Info.Type)
}

// MinParameters is the number of leading parameters a caller must supply:
// the trailing run of optional, struct and any-typed parameters may be omitted.
func MinParameters(f *Function) int {
	n := len(f.Parameters)
	for n > 0 && isOmittable(f.Parameters[n-1].Type) {
		n--
	}
	return n
}

func isOmittable(t Type) bool {
	switch t.(type) {
	case *Optional, *Struct:
		return true
	}
	return isPrimitive(t, Anything)
}

func lookupExt(env MemberEnv, name string) *VariableInfo {
	if env == nil {
		return nil
	}
	res := env.LookupExt(name, Anywhere)
	if res.Status != LookupFound {
		return nil
	}
	v, ok := AsVariable(res.Kind)
	if !ok {
		return nil
	}
	return &v
}

func isPrimitive(t Type, kind PrimitiveKind) bool {
	p, ok := t.(*Primitive)
	return ok && p.Kind == kind
}
