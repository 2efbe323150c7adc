package typesystem

import "github.com/funvibe/phasec/internal/config"

// ClassLike is implemented by the types that carry a member env.
type ClassLike interface {
	Type
	TypeName() string
	MemberEnv() MemberEnv
}

func (t *Class) TypeName() string     { return t.Name }
func (t *Class) MemberEnv() MemberEnv { return t.Env }

func (t *Interface) TypeName() string     { return t.Name }
func (t *Interface) MemberEnv() MemberEnv { return t.Env }

func (t *Struct) TypeName() string     { return t.Name }
func (t *Struct) MemberEnv() MemberEnv { return t.Env }

// Member is a named variable member of a class-like type.
type Member struct {
	Name string
	Info VariableInfo
}

// Methods lists the function-typed members.
func Methods(c ClassLike, withAncestry bool) []Member {
	return members(c.MemberEnv(), withAncestry, true)
}

// Fields lists the members that are not functions.
func Fields(c ClassLike, withAncestry bool) []Member {
	return members(c.MemberEnv(), withAncestry, false)
}

func members(env MemberEnv, withAncestry bool, functions bool) []Member {
	if env == nil {
		return nil
	}
	var result []Member
	for _, e := range env.Iter(withAncestry) {
		v, ok := AsVariable(e.Kind)
		if !ok {
			continue
		}
		_, isFunc := v.Type.(*Function)
		if isFunc == functions {
			result = append(result, Member{Name: e.Name, Info: v})
		}
	}
	return result
}

// GetMethod looks up a function-typed member, including inherited ones.
func GetMethod(c ClassLike, name string) *VariableInfo {
	return lookupMethod(c.MemberEnv(), name)
}

// GetField looks up a non-function member, including inherited ones.
func GetField(c ClassLike, name string) *VariableInfo {
	env := c.MemberEnv()
	if env == nil {
		return nil
	}
	kind, ok := env.Lookup(name, Anywhere)
	if !ok {
		return nil
	}
	v, ok := AsVariable(kind)
	if !ok {
		return nil
	}
	if _, isFunc := v.Type.(*Function); isFunc {
		return nil
	}
	return &v
}

func lookupMethod(env MemberEnv, name string) *VariableInfo {
	if env == nil {
		return nil
	}
	kind, ok := env.Lookup(name, Anywhere)
	if !ok {
		return nil
	}
	v, ok := AsVariable(kind)
	if !ok {
		return nil
	}
	if _, isFunc := v.Type.(*Function); !isFunc {
		return nil
	}
	return &v
}

// ClosureMethod returns the signature of the class's inflight handle method,
// which makes instances callable.
func (t *Class) ClosureMethod() *Function {
	for _, m := range Methods(t, true) {
		if m.Name != config.HandleMethod {
			continue
		}
		if f, ok := m.Info.Type.(*Function); ok && f.Phase == Inflight {
			return f
		}
	}
	return nil
}

// IsResource reports whether the interface is IResource or extends it.
func (t *Interface) IsResource() bool {
	if t.Name == iResourceName {
		return true
	}
	for _, e := range t.Extends {
		if iface, ok := e.(*Interface); ok && iface.Name == iResourceName {
			return true
		}
	}
	return false
}

const iResourceName = "IResource"

func isInflightFunction(t Type) bool {
	f, ok := t.(*Function)
	return ok && f.Phase == Inflight
}
