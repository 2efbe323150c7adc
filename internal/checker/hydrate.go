package checker

import (
	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/diagnostics"
	"github.com/funvibe/phasec/internal/symbols"
	"github.com/funvibe/phasec/internal/token"
	"github.com/funvibe/phasec/internal/typesystem"
)

// collectionFQNs maps the std template of each builtin container to its kind.
var collectionFQNs = map[string]typesystem.CollectionKind{
	config.ArrayFQN:    typesystem.Array,
	config.MutArrayFQN: typesystem.MutArray,
	config.MapFQN:      typesystem.Map,
	config.MutMapFQN:   typesystem.MutMap,
	config.SetFQN:      typesystem.Set,
	config.MutSetFQN:   typesystem.MutSet,
}

// hydrateCollection returns the std class carrying the API of a container,
// with the element type substituted for the template's type parameter.
func (c *Checker) hydrateCollection(coll *typesystem.Collection) (*typesystem.Class, bool) {
	template, _, err := c.types.GetStdClass(coll.Kind.String())
	if err != nil {
		c.errorf(diagnostics.ErrModule, token.Span{}, "%s", err.Error())
		return nil, false
	}
	class, ok := template.(*typesystem.Class)
	if !ok {
		panic("std collection template is not a class: " + template.String())
	}
	hydrated := c.hydrateClassTypeArguments(class, config.StdModule+"."+coll.Kind.String(), []typesystem.Type{coll.Elem})
	h, ok := hydrated.(*typesystem.Class)
	return h, ok
}

// hydrateClassTypeArguments instantiates a generic template. Every call
// creates a new class; two hydrations of the same template with the same
// arguments are distinct types that compare equal with IsSameType.
func (c *Checker) hydrateClassTypeArguments(template *typesystem.Class, fqn string, args []typesystem.Type) typesystem.Type {
	if len(template.TypeParameters) == 0 {
		panic("\"" + fqn + "\" does not have type parameters and does not need hydration")
	}
	if len(template.TypeParameters) != len(args) {
		c.errorf(diagnostics.ErrArity, token.Span{}, "Type \"%s\" has %d type parameters, but %d were provided",
			fqn, len(template.TypeParameters), len(args))
		return c.types.ErrorType()
	}

	h := &hydration{c: c, params: make(map[string]typeArg, len(args))}
	for i, p := range template.TypeParameters {
		h.params[p.String()] = typeArg{param: p, arg: args[i]}
	}

	env := symbols.NewSymbolEnv(nil, c.types.VoidType(), false, false, typesystem.Independent, 0)
	class := &typesystem.Class{
		Name:             template.Name,
		FQN:              template.FQN,
		Parent:           template.Parent,
		Implements:       template.Implements,
		Env:              env,
		IsAbstract:       template.IsAbstract,
		TypeParameters:   args,
		Phase:            template.Phase,
		Docs:             template.Docs,
		StdConstructArgs: template.StdConstructArgs,
	}
	c.types.AddType(class)

	for _, e := range template.Env.Iter(true) {
		v, ok := typesystem.AsVariable(e.Kind)
		if !ok {
			panic("unexpected " + e.Kind.KindName() + " " + e.Name + " in class env")
		}
		member := v
		if sig, ok := v.Type.(*typesystem.Function); ok {
			fn := &typesystem.Function{
				ReturnType:    h.concrete(sig.ReturnType),
				Phase:         sig.Phase,
				MacroOverride: sig.MacroOverride,
				Docs:          sig.Docs,
			}
			if sig.ThisType != nil {
				fn.ThisType = class
			}
			for _, p := range sig.Parameters {
				fn.Parameters = append(fn.Parameters, typesystem.FunctionParameter{
					Name: p.Name,
					Type: h.concrete(p.Type),
					Docs: p.Docs,
				})
			}
			member.Type = c.types.AddType(fn)
		} else {
			member.Type = h.concrete(v.Type)
		}
		if err := env.Define(e.Name, member, typesystem.Top); err != nil {
			c.errorf(diagnostics.ErrDecl, token.Span{}, "%s", err.Error())
		}
	}
	return class
}

type typeArg struct {
	param typesystem.Type
	arg   typesystem.Type
}

type hydration struct {
	c      *Checker
	params map[string]typeArg
}

// concrete substitutes type arguments inside t. Parameters are matched by
// display name and confirmed with IsSameType.
func (h *hydration) concrete(t typesystem.Type) typesystem.Type {
	if ta, ok := h.params[t.String()]; ok && typesystem.IsSameType(t, ta.param) {
		return ta.arg
	}
	switch v := t.(type) {
	case *typesystem.Optional:
		inner := h.concrete(v.Inner)
		if inner == v.Inner {
			return t
		}
		return h.c.types.MakeOption(inner)
	case *typesystem.Collection:
		elem := h.concrete(v.Elem)
		if elem == v.Elem {
			return t
		}
		return h.c.types.Collection(v.Kind, elem)
	case *typesystem.Class:
		if len(v.TypeParameters) == 0 {
			return t
		}
		// A generic class returned by a template method must be one of the
		// builtin containers.
		fqn := config.StdModule + "." + v.Name
		kind, ok := collectionFQNs[fqn]
		if !ok {
			h.c.errorf(diagnostics.ErrType, token.Span{}, "\"%s\" is not a supported generic return type", fqn)
			return h.c.types.ErrorType()
		}
		return h.c.types.Collection(kind, h.concrete(v.TypeParameters[0]))
	}
	return t
}
