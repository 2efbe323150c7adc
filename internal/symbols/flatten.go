package symbols

import (
	"fmt"

	"github.com/funvibe/phasec/internal/typesystem"
)

// MemberConflictError is returned when an inherited member clashes with an
// existing member of a different type.
type MemberConflictError struct {
	Message string
}

func (e *MemberConflictError) Error() string {
	return e.Message
}

// FlattenStructMembers copies the fields of every extended struct into env.
// A field already present with the same type is skipped; a different type
// is a conflict.
func FlattenStructMembers(extends []typesystem.Type, name string, env *SymbolEnv) error {
	for _, parent := range extends {
		s, ok := parent.(*typesystem.Struct)
		if !ok {
			return &MemberConflictError{Message: fmt.Sprintf("Type \"%s\" extends \"%s\" which should be a struct", name, parent)}
		}
		if err := flattenMembers(s.Env, env, func(member string, existing, inherited typesystem.Type) string {
			return fmt.Sprintf("Struct \"%s\" extends \"%s\" which introduces a conflicting member \"%s\" (%s != %s)",
				name, s.Name, member, existing, inherited)
		}); err != nil {
			return err
		}
	}
	return nil
}

// FlattenInterfaceMembers copies the members of every extended interface
// into env, with the same conflict rule as structs.
func FlattenInterfaceMembers(extends []typesystem.Type, name string, env *SymbolEnv) error {
	for _, parent := range extends {
		iface, ok := parent.(*typesystem.Interface)
		if !ok {
			return &MemberConflictError{Message: fmt.Sprintf("Type \"%s\" extends \"%s\" which should be an interface", name, parent)}
		}
		if err := flattenMembers(iface.Env, env, func(member string, existing, inherited typesystem.Type) string {
			return fmt.Sprintf("Interface \"%s\" extends \"%s\" but has a conflicting member \"%s\" (%s != %s)",
				name, iface.Name, member, existing, inherited)
		}); err != nil {
			return err
		}
	}
	return nil
}

func flattenMembers(from typesystem.MemberEnv, into *SymbolEnv, conflict func(string, typesystem.Type, typesystem.Type) string) error {
	if from == nil {
		return nil
	}
	for _, e := range from.Iter(true) {
		member, ok := typesystem.AsVariable(e.Kind)
		if !ok {
			panic(fmt.Sprintf("expected %s to be a member variable", e.Name))
		}
		if existing, ok := into.Lookup(e.Name, typesystem.Anywhere); ok {
			ev, _ := typesystem.AsVariable(existing)
			if typesystem.IsSameType(ev.Type, member.Type) {
				continue
			}
			return &MemberConflictError{Message: conflict(e.Name, ev.Type, member.Type)}
		}
		member.Kind = typesystem.InstanceMember
		if err := into.Define(e.Name, member, typesystem.Top); err != nil {
			return err
		}
	}
	return nil
}
