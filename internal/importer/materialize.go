package importer

import (
	"fmt"
	"strings"

	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/symbols"
	"github.com/funvibe/phasec/internal/typesystem"
)

var primitiveByName = map[string]typesystem.PrimitiveKind{
	"any":      typesystem.Anything,
	"num":      typesystem.Number,
	"str":      typesystem.String,
	"duration": typesystem.Duration,
	"bool":     typesystem.Boolean,
	"void":     typesystem.Void,
	"Json":     typesystem.Json,
	"MutJson":  typesystem.MutJson,
}

// importDecl returns the arena type of decl, materializing it on first use.
// The type is registered before its members are built, so declarations may
// refer to themselves and to each other.
func (im *Importer) importDecl(asm *Assembly, decl *TypeDecl) (typesystem.Type, error) {
	env := im.namespace(asm, splitPath(decl.Submodule())).Env.(*symbols.SymbolEnv)
	if kind, ok := env.Lookup(decl.Name(), typesystem.Anywhere); ok {
		if t, ok := typesystem.AsType(kind); ok {
			return t, nil
		}
		return nil, fmt.Errorf("%s is a %s, not a type", decl.FQN, kind.KindName())
	}
	fqn := asm.Name + "." + decl.FQN
	switch decl.Kind {
	case KindClass:
		return im.importClass(asm, decl, fqn, env)
	case KindInterface:
		return im.importInterface(asm, decl, fqn, env)
	case KindStruct:
		return im.importStruct(asm, decl, fqn, env)
	case KindEnum:
		enum := im.types.AddType(&typesystem.Enum{
			Name:   decl.Name(),
			FQN:    fqn,
			Docs:   decl.Docs,
			Values: append([]string(nil), decl.Values...),
		})
		return enum, env.Define(decl.Name(), typesystem.TypeSymbol{Type: enum}, typesystem.Top)
	}
	return nil, fmt.Errorf("%s: unknown kind %q", decl.FQN, decl.Kind)
}

func (im *Importer) importClass(asm *Assembly, decl *TypeDecl, fqn string, env *symbols.SymbolEnv) (typesystem.Type, error) {
	phase, err := parsePhase(decl.Phase, typesystem.Preflight)
	if err != nil {
		return nil, err
	}

	if im.pending[decl] {
		return nil, fmt.Errorf("%s: inheritance cycle", decl.FQN)
	}
	im.pending[decl] = true
	defer delete(im.pending, decl)

	// The parent must exist before the member env can be chained to it.
	var parent *typesystem.Class
	var parentEnv *symbols.SymbolEnv
	if decl.Base != "" {
		t, err := im.resolveType(asm, decl.Base)
		if err != nil {
			return nil, fmt.Errorf("%s: base: %w", decl.FQN, err)
		}
		c, ok := t.(*typesystem.Class)
		if !ok {
			return nil, fmt.Errorf("%s: base %s is not a class", decl.FQN, t)
		}
		parent = c
		parentEnv, _ = c.Env.(*symbols.SymbolEnv)
	}
	classEnv := symbols.NewSymbolEnv(parentEnv, im.types.VoidType(), false, false, phase, 0)
	class := &typesystem.Class{
		Name:             decl.Name(),
		FQN:              fqn,
		Env:              classEnv,
		IsAbstract:       decl.Abstract,
		Phase:            phase,
		Docs:             decl.Docs,
		StdConstructArgs: decl.StdConstructArgs,
	}
	if parent != nil {
		class.Parent = parent
	}
	im.types.AddType(class)
	if err := env.Define(decl.Name(), typesystem.TypeSymbol{Type: class}, typesystem.Top); err != nil {
		return nil, err
	}

	for _, name := range decl.Interfaces {
		t, err := im.resolveType(asm, name)
		if err != nil {
			return nil, fmt.Errorf("%s: implements: %w", decl.FQN, err)
		}
		class.Implements = append(class.Implements, t)
	}
	for _, name := range decl.TypeParams {
		t, err := im.resolveType(asm, name)
		if err != nil {
			return nil, fmt.Errorf("%s: type parameter: %w", decl.FQN, err)
		}
		class.TypeParameters = append(class.TypeParameters, t)
	}

	if decl.Initializer != nil {
		name, ctorPhase := config.InitName, typesystem.Preflight
		switch phase {
		case typesystem.Inflight:
			name, ctorPhase = config.InflightInitName, typesystem.Inflight
		case typesystem.Independent:
			ctorPhase = typesystem.Independent
		}
		if err := im.defineConstructor(asm, classEnv, class, name, decl.Initializer, ctorPhase); err != nil {
			return nil, fmt.Errorf("%s: %w", decl.FQN, err)
		}
		if phase == typesystem.Independent {
			if err := im.defineConstructor(asm, classEnv, class, config.InflightInitName, decl.Initializer, ctorPhase); err != nil {
				return nil, fmt.Errorf("%s: %w", decl.FQN, err)
			}
		}
	}
	if decl.InflightInitializer != nil {
		if err := im.defineConstructor(asm, classEnv, class, config.InflightInitName, decl.InflightInitializer, typesystem.Inflight); err != nil {
			return nil, fmt.Errorf("%s: %w", decl.FQN, err)
		}
	}
	if err := im.defineMembers(asm, classEnv, class, decl, phase); err != nil {
		return nil, fmt.Errorf("%s: %w", decl.FQN, err)
	}
	return class, nil
}

func (im *Importer) defineConstructor(asm *Assembly, env *symbols.SymbolEnv, class *typesystem.Class, name string, m *MethodDecl, phase typesystem.Phase) error {
	fn, err := im.function(asm, m, nil, phase)
	if err != nil {
		return err
	}
	fn.(*typesystem.Function).ReturnType = class
	return env.Define(name, typesystem.VariableInfo{
		Name:  name,
		Type:  fn,
		Phase: phase,
		Kind:  typesystem.StaticMember,
		Docs:  m.Docs,
	}, typesystem.Top)
}

// defineMembers adds properties and methods. this is the receiver type of
// instance methods.
func (im *Importer) defineMembers(asm *Assembly, env *symbols.SymbolEnv, this typesystem.Type, decl *TypeDecl, defPhase typesystem.Phase) error {
	for _, p := range decl.Properties {
		t, err := im.resolveType(asm, p.Type)
		if err != nil {
			return fmt.Errorf("property %s: %w", p.Name, err)
		}
		phase, err := parsePhase(p.Phase, defPhase)
		if err != nil {
			return fmt.Errorf("property %s: %w", p.Name, err)
		}
		kind := typesystem.InstanceMember
		if p.Static {
			kind = typesystem.StaticMember
		}
		if err := env.Define(p.Name, typesystem.VariableInfo{
			Name:         p.Name,
			Type:         t,
			Reassignable: p.Var,
			Phase:        phase,
			Kind:         kind,
			Docs:         p.Docs,
		}, typesystem.Top); err != nil {
			return err
		}
	}
	for _, m := range decl.Methods {
		var receiver typesystem.Type
		kind := typesystem.StaticMember
		if !m.Static {
			receiver = this
			kind = typesystem.InstanceMember
		}
		fn, err := im.function(asm, m, receiver, defPhase)
		if err != nil {
			return fmt.Errorf("method %s: %w", m.Name, err)
		}
		if err := env.Define(m.Name, typesystem.VariableInfo{
			Name:  m.Name,
			Type:  fn,
			Phase: fn.(*typesystem.Function).Phase,
			Kind:  kind,
			Docs:  m.Docs,
		}, typesystem.Top); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) importInterface(asm *Assembly, decl *TypeDecl, fqn string, env *symbols.SymbolEnv) (typesystem.Type, error) {
	ifaceEnv := symbols.NewSymbolEnv(nil, im.types.VoidType(), false, false, typesystem.Independent, 0)
	iface := &typesystem.Interface{Name: decl.Name(), FQN: fqn, Docs: decl.Docs, Env: ifaceEnv}
	im.types.AddType(iface)
	if err := env.Define(decl.Name(), typesystem.TypeSymbol{Type: iface}, typesystem.Top); err != nil {
		return nil, err
	}
	for _, name := range decl.Interfaces {
		t, err := im.resolveType(asm, name)
		if err != nil {
			return nil, fmt.Errorf("%s: extends: %w", decl.FQN, err)
		}
		iface.Extends = append(iface.Extends, t)
	}
	if err := im.defineMembers(asm, ifaceEnv, iface, decl, typesystem.Preflight); err != nil {
		return nil, fmt.Errorf("%s: %w", decl.FQN, err)
	}
	if err := symbols.FlattenInterfaceMembers(iface.Extends, iface.Name, ifaceEnv); err != nil {
		return nil, err
	}
	return iface, nil
}

func (im *Importer) importStruct(asm *Assembly, decl *TypeDecl, fqn string, env *symbols.SymbolEnv) (typesystem.Type, error) {
	structEnv := symbols.NewSymbolEnv(nil, im.types.VoidType(), false, false, typesystem.Independent, 0)
	st := &typesystem.Struct{Name: decl.Name(), FQN: fqn, Docs: decl.Docs, Env: structEnv}
	im.types.AddType(st)
	if err := env.Define(decl.Name(), typesystem.TypeSymbol{Type: st}, typesystem.Top); err != nil {
		return nil, err
	}
	for _, p := range decl.Properties {
		t, err := im.resolveType(asm, p.Type)
		if err != nil {
			return nil, fmt.Errorf("%s: field %s: %w", decl.FQN, p.Name, err)
		}
		if err := structEnv.Define(p.Name, typesystem.VariableInfo{
			Name:  p.Name,
			Type:  t,
			Phase: typesystem.Independent,
			Kind:  typesystem.InstanceMember,
			Docs:  p.Docs,
		}, typesystem.Top); err != nil {
			return nil, err
		}
	}
	for _, name := range decl.Interfaces {
		t, err := im.resolveType(asm, name)
		if err != nil {
			return nil, fmt.Errorf("%s: extends: %w", decl.FQN, err)
		}
		st.Extends = append(st.Extends, t)
	}
	if err := symbols.FlattenStructMembers(st.Extends, st.Name, structEnv); err != nil {
		return nil, err
	}
	return st, nil
}

func (im *Importer) function(asm *Assembly, m *MethodDecl, this typesystem.Type, defPhase typesystem.Phase) (typesystem.Type, error) {
	phase, err := parsePhase(m.Phase, defPhase)
	if err != nil {
		return nil, err
	}
	fn := &typesystem.Function{
		ThisType:      this,
		Phase:         phase,
		MacroOverride: m.Macro,
		Docs:          m.Docs,
		ReturnType:    im.types.VoidType(),
	}
	for _, p := range m.Params {
		t, err := im.resolveType(asm, p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		fn.Parameters = append(fn.Parameters, typesystem.FunctionParameter{Name: p.Name, Type: t, Docs: p.Docs})
	}
	if m.Returns != "" {
		if fn.ReturnType, err = im.resolveType(asm, m.Returns); err != nil {
			return nil, fmt.Errorf("return type: %w", err)
		}
	}
	return im.types.AddType(fn), nil
}

// resolveType parses a manifest type expression: primitives, T?, the six
// collections with one argument, and type names. Names are looked up in
// asm, then in the SDK (with and without the std. prefix).
func (im *Importer) resolveType(asm *Assembly, expr string) (typesystem.Type, error) {
	expr = strings.TrimSpace(expr)
	if inner, ok := strings.CutSuffix(expr, "?"); ok {
		t, err := im.resolveType(asm, inner)
		if err != nil {
			return nil, err
		}
		return im.types.MakeOption(t), nil
	}
	if i := strings.Index(expr, "<"); i >= 0 {
		if !strings.HasSuffix(expr, ">") {
			return nil, fmt.Errorf("malformed type %q", expr)
		}
		kind, ok := typesystem.CollectionKindByName(expr[:i])
		if !ok {
			return nil, fmt.Errorf("%s is not a generic collection", expr[:i])
		}
		elem, err := im.resolveType(asm, expr[i+1:len(expr)-1])
		if err != nil {
			return nil, err
		}
		return im.types.Collection(kind, elem), nil
	}
	if k, ok := primitiveByName[expr]; ok {
		return im.types.Primitive(k), nil
	}
	if expr == "" {
		return nil, fmt.Errorf("empty type")
	}

	if decl, ok := asm.Lookup(expr); ok {
		return im.importDecl(asm, decl)
	}
	if sdk, ok := im.ts.Assembly(config.SDKAssembly); ok {
		name := strings.TrimPrefix(expr, config.SDKAssembly+".")
		if decl, ok := sdk.Lookup(name); ok {
			return im.importDecl(sdk, decl)
		}
		if decl, ok := sdk.Lookup(config.StdModule + "." + name); ok {
			return im.importDecl(sdk, decl)
		}
	}
	return nil, fmt.Errorf("unknown type %q", expr)
}
