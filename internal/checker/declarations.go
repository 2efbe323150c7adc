package checker

import (
	"github.com/funvibe/phasec/internal/ast"
	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/diagnostics"
	"github.com/funvibe/phasec/internal/symbols"
	"github.com/funvibe/phasec/internal/typesystem"
)

func docsOf(doc string) *typesystem.Docs {
	if doc == "" {
		return nil
	}
	return &typesystem.Docs{Summary: doc}
}

// initializers returns the two initializers of a class, synthesizing an
// empty one for each that was not written.
func initializers(s *ast.ClassDeclaration) (init, inflightInit *ast.FunctionDefinition) {
	init, inflightInit = s.Initializer, s.InflightInitializer
	if init == nil {
		init = &ast.FunctionDefinition{
			Signature: &ast.FunctionSignatureAnnotation{Phase: typesystem.Preflight, Span: s.Name.Span},
			Body:      &ast.Scope{Span: s.Name.Span},
			Span:      s.Name.Span,
		}
	}
	if inflightInit == nil {
		inflightInit = &ast.FunctionDefinition{
			Signature: &ast.FunctionSignatureAnnotation{Phase: typesystem.Inflight, Span: s.Name.Span},
			Body:      &ast.Scope{Span: s.Name.Span},
			Span:      s.Name.Span,
		}
	}
	return init, inflightInit
}

func (c *Checker) checkClass(s *ast.ClassDeclaration, env *symbols.SymbolEnv) {
	if env.Phase() == typesystem.Inflight && s.Phase == typesystem.Preflight {
		c.errorf(diagnostics.ErrPhase, s.Span, "Cannot declare a %s class in %s scope", s.Phase, env.Phase())
	}

	parent, parentEnv := c.extractParentClass(s, env)

	var implements []typesystem.Type
	for _, udt := range s.Implements {
		t, err := c.resolveUserDefinedType(udt, env, s.Idx)
		if err != nil {
			c.errors.Add(err)
			continue
		}
		if _, ok := t.(*typesystem.Interface); !ok {
			c.errorf(diagnostics.ErrKind, udt.Span, "Expected an interface, instead found type \"%s\"", t)
			continue
		}
		implements = append(implements, t)
	}

	// The class is registered with an empty env first so that its own
	// signatures can refer to it.
	class := &typesystem.Class{
		Name:             s.Name.Name,
		Env:              symbols.NewSymbolEnv(nil, c.types.VoidType(), false, false, env.Phase(), s.Idx),
		Implements:       implements,
		Phase:            s.Phase,
		Docs:             docsOf(s.Doc),
		StdConstructArgs: s.Phase == typesystem.Preflight,
	}
	if parent != nil {
		class.Parent = parent
	}
	c.types.AddType(class)
	c.define(env, s.Name, typesystem.TypeSymbol{Type: class}, typesystem.Top)

	classEnv := symbols.NewSymbolEnv(parentEnv, c.types.VoidType(), false, false, env.Phase(), s.Idx)
	for _, f := range s.Fields {
		kind := typesystem.InstanceMember
		if f.IsStatic {
			kind = typesystem.StaticMember
		}
		c.define(classEnv, f.Name, typesystem.VariableInfo{
			Name:         f.Name.Name,
			Span:         f.Name.Span,
			Type:         c.resolveTypeAnnotation(f.Type, env),
			Reassignable: f.Reassignable,
			Phase:        f.Phase,
			Kind:         kind,
			Docs:         docsOf(f.Doc),
		}, typesystem.Top)
	}
	for _, m := range s.Methods {
		var this typesystem.Type
		if !m.Def.IsStatic {
			this = class
		}
		c.addMethodToClassEnv(m.Name, m.Def, this, classEnv, env)
	}

	init, inflightInit := initializers(s)
	initSym := ast.Symbol{Name: config.InitName, Span: init.Span}
	inflightInitSym := ast.Symbol{Name: config.InflightInitName, Span: inflightInit.Span}
	// Constructors produce the class.
	c.addMethodToClassEnv(initSym, init, nil, classEnv, env).ReturnType = class
	c.addMethodToClassEnv(inflightInitSym, inflightInit, class, classEnv, env).ReturnType = class

	class.ReplaceEnv(classEnv)

	c.checkFieldInitialization(inflightInit.Body, s.Fields, typesystem.Inflight)
	c.checkFieldInitialization(init.Body, s.Fields, typesystem.Preflight)
	c.superTargets[init.Body] = superTarget{class: class, ctor: config.InitName}
	c.superTargets[inflightInit.Body] = superTarget{class: class, ctor: config.InflightInitName}

	c.checkMethod(classEnv, initSym, init, class, env, s.Idx)
	c.checkMethod(classEnv, inflightInitSym, inflightInit, class, env, s.Idx)
	for _, m := range s.Methods {
		c.checkMethod(classEnv, m.Name, m.Def, class, env, s.Idx)
	}

	c.checkImplements(s.Name, implements, classEnv)
}

// extractParentClass resolves the parent of a class declaration. A
// preflight class without a declared parent extends the SDK resource base.
func (c *Checker) extractParentClass(s *ast.ClassDeclaration, env *symbols.SymbolEnv) (*typesystem.Class, *symbols.SymbolEnv) {
	if s.Parent == nil {
		if s.Phase != typesystem.Preflight {
			return nil, nil
		}
		t, err := c.types.ResourceBaseType()
		if err != nil {
			c.errorf(diagnostics.ErrModule, s.Name.Span, "%s", err.Error())
			return nil, nil
		}
		base, ok := typesystem.AsPreflightClass(t)
		if !ok {
			panic("resource base type is not a preflight class: " + t.String())
		}
		baseEnv, _ := base.Env.(*symbols.SymbolEnv)
		return base, baseEnv
	}

	if udt := referenceToUDT(s.Parent); udt != nil && len(udt.Fields) == 0 && udt.Root.Name == s.Name.Name {
		c.errorf(diagnostics.ErrDecl, udt.Span, "Class cannot extend itself")
		c.types.AssignTypeToExpr(s.Parent, c.types.ErrorType(), s.Phase)
		return nil, nil
	}

	t, _ := c.CheckExpr(s.Parent, env)
	if typesystem.IsUnresolved(t) {
		return nil, nil
	}
	parent, ok := t.(*typesystem.Class)
	if !ok {
		name := t.String()
		if udt := referenceToUDT(s.Parent); udt != nil {
			name = udt.FullPathStr()
		}
		c.errorf(diagnostics.ErrKind, s.Parent.GetSpan(), "Expected \"%s\" to be a class", name)
		c.types.AssignTypeToExpr(s.Parent, c.types.ErrorType(), s.Phase)
		return nil, nil
	}
	if parent.Phase != s.Phase {
		c.errorf(diagnostics.ErrPhase, s.Parent.GetSpan(), "Class \"%s\" is an %s class and cannot extend %s class \"%s\"",
			s.Name.Name, s.Phase, parent.Phase, parent.Name)
		c.types.AssignTypeToExpr(s.Parent, c.types.ErrorType(), s.Phase)
		return nil, nil
	}
	parentEnv, _ := parent.Env.(*symbols.SymbolEnv)
	return parent, parentEnv
}

// addMethodToClassEnv defines a method signature in the class env. Methods
// without a receiver are static.
func (c *Checker) addMethodToClassEnv(name ast.Symbol, def *ast.FunctionDefinition, this typesystem.Type, classEnv, env *symbols.SymbolEnv) *typesystem.Function {
	sig := c.resolveSignature(def.Signature, env)
	sig.ThisType = this
	sig.Docs = docsOf(def.Doc)
	kind := typesystem.InstanceMember
	if this == nil {
		kind = typesystem.StaticMember
	}
	c.define(classEnv, name, typesystem.VariableInfo{
		Name:  name.Name,
		Span:  name.Span,
		Type:  sig,
		Phase: sig.Phase,
		Kind:  kind,
		Docs:  sig.Docs,
	}, typesystem.Top)
	return sig
}

// checkMethod prepares the body env of a method and queues the body.
func (c *Checker) checkMethod(classEnv *symbols.SymbolEnv, name ast.Symbol, def *ast.FunctionDefinition, class *typesystem.Class, env *symbols.SymbolEnv, stmtIdx int) {
	kind, ok := classEnv.Lookup(name.Name, typesystem.Anywhere)
	if !ok {
		panic("method " + name.Name + " missing from class env of " + class.Name)
	}
	v, ok := typesystem.AsVariable(kind)
	if !ok {
		panic("method " + name.Name + " is not a variable")
	}
	sig, ok := v.Type.(*typesystem.Function)
	if !ok {
		panic("method " + name.Name + " is not a function")
	}

	isInit := name.Name == config.InitName || name.Name == config.InflightInitName
	ret := sig.ReturnType
	if isInit {
		ret = c.types.VoidType()
	}
	methodEnv := symbols.NewSymbolEnv(env, ret, isInit, true, sig.Phase, stmtIdx)
	if !def.IsStatic || isInit {
		this := ast.Symbol{Name: config.ThisName, Span: name.Span}
		if err := methodEnv.Define(this.Name, c.freeVariable(this, class, false, classEnv.Phase()), typesystem.Top); err != nil {
			panic("defining this: " + err.Error())
		}
	}
	c.addArguments(def.Signature.Parameters, sig, methodEnv)
	c.enqueue(def.Body, methodEnv)
}

// superTarget is the constructor an initializer body's super call forwards to.
type superTarget struct {
	class *typesystem.Class
	ctor  string
}

// checkSuperConstructor matches the arguments of a super call that opens an
// initializer against the parent's initializer of the same phase.
func (c *Checker) checkSuperConstructor(s *ast.SuperConstructorStatement, types argListTypes) {
	target, ok := c.superTargets[c.scope]
	if !ok || len(c.scope.Statements) == 0 || c.scope.Statements[0] != ast.Statement(s) {
		return
	}
	parent, ok := target.class.Parent.(*typesystem.Class)
	if !ok {
		return
	}
	ctor := typesystem.GetMethod(parent, target.ctor)
	if ctor == nil {
		return
	}
	c.checkArgsAgainstSignature(s.Args, types, ctor.Type.(*typesystem.Function), s.Span)
}

// checkImplements reports members of implemented interfaces that the class
// lacks or declares with an incompatible type.
func (c *Checker) checkImplements(name ast.Symbol, implements []typesystem.Type, classEnv *symbols.SymbolEnv) {
	for _, t := range implements {
		iface := t.(*typesystem.Interface)
		for _, m := range typesystem.Methods(iface, true) {
			c.checkImplemented(name, iface, m, "method", classEnv)
		}
		for _, f := range typesystem.Fields(iface, true) {
			c.checkImplemented(name, iface, f, "field", classEnv)
		}
	}
}

func (c *Checker) checkImplemented(name ast.Symbol, iface *typesystem.Interface, m typesystem.Member, what string, classEnv *symbols.SymbolEnv) {
	kind, ok := classEnv.Lookup(m.Name, typesystem.Anywhere)
	if !ok {
		c.errorf(diagnostics.ErrStructure, name.Span, "Class \"%s\" does not implement %s \"%s\" of interface \"%s\"",
			name.Name, what, m.Name, iface.Name)
		return
	}
	v, ok := typesystem.AsVariable(kind)
	if !ok {
		panic("class member " + m.Name + " is not a variable")
	}
	c.validateType(v.Type, m.Info.Type, name.Span)
}

func (c *Checker) checkInterface(s *ast.InterfaceDeclaration, env *symbols.SymbolEnv) {
	var extends []typesystem.Type
	for _, udt := range s.Extends {
		t, err := c.resolveUserDefinedType(udt, env, s.Idx)
		if err != nil {
			c.errors.Add(err)
			continue
		}
		if _, ok := t.(*typesystem.Interface); !ok {
			c.errorf(diagnostics.ErrKind, udt.Span, "Expected an interface, instead found type \"%s\"", t)
			continue
		}
		extends = append(extends, t)
	}

	iface := &typesystem.Interface{
		Name:    s.Name.Name,
		Docs:    docsOf(s.Doc),
		Extends: extends,
		Env:     symbols.NewSymbolEnv(nil, c.types.VoidType(), false, false, env.Phase(), s.Idx),
	}
	c.types.AddType(iface)
	c.define(env, s.Name, typesystem.TypeSymbol{Type: iface}, typesystem.Top)

	ifaceEnv := symbols.NewSymbolEnv(nil, c.types.VoidType(), false, false, env.Phase(), s.Idx)
	for _, m := range s.Methods {
		sig := c.resolveSignature(m.Signature, env)
		sig.ThisType = iface
		sig.Docs = docsOf(m.Doc)
		c.define(ifaceEnv, m.Name, typesystem.VariableInfo{
			Name:  m.Name.Name,
			Span:  m.Name.Span,
			Type:  sig,
			Phase: sig.Phase,
			Kind:  typesystem.InstanceMember,
			Docs:  sig.Docs,
		}, typesystem.Top)
	}
	if err := symbols.FlattenInterfaceMembers(extends, s.Name.Name, ifaceEnv); err != nil {
		c.errorf(diagnostics.ErrStructure, s.Name.Span, "%s", err.Error())
	}
	iface.ReplaceEnv(ifaceEnv)
}

func (c *Checker) checkStruct(s *ast.StructDeclaration, env *symbols.SymbolEnv) {
	structEnv := symbols.NewSymbolEnv(nil, c.types.VoidType(), false, false, env.Phase(), s.Idx)
	for _, f := range s.Fields {
		t := c.resolveTypeAnnotation(f.Type, env)
		if typesystem.IsMutable(t) {
			c.errorf(diagnostics.ErrType, f.Name.Span, "Struct fields must have immutable types")
		}
		c.define(structEnv, f.Name, typesystem.VariableInfo{
			Name:  f.Name.Name,
			Span:  f.Name.Span,
			Type:  t,
			Phase: typesystem.Independent,
			Kind:  typesystem.InstanceMember,
			Docs:  docsOf(f.Doc),
		}, typesystem.Top)
	}

	var extends []typesystem.Type
	for _, udt := range s.Extends {
		t, err := c.resolveUserDefinedType(udt, env, s.Idx)
		if err != nil {
			c.errors.Add(err)
			continue
		}
		if !typesystem.IsStruct(t) {
			c.errorf(diagnostics.ErrKind, udt.Span, "Expected a struct, found type \"%s\"", t)
			continue
		}
		extends = append(extends, t)
	}
	if err := symbols.FlattenStructMembers(extends, s.Name.Name, structEnv); err != nil {
		c.errorf(diagnostics.ErrStructure, s.Name.Span, "%s", err.Error())
	}

	st := &typesystem.Struct{
		Name:    s.Name.Name,
		Docs:    docsOf(s.Doc),
		Extends: extends,
		Env:     structEnv,
	}
	c.types.AddType(st)
	c.define(env, s.Name, typesystem.TypeSymbol{Type: st}, typesystem.Top)
}

func (c *Checker) checkEnum(s *ast.EnumDeclaration, env *symbols.SymbolEnv) {
	enum := &typesystem.Enum{Name: s.Name.Name, Docs: docsOf(s.Doc)}
	seen := make(map[string]bool, len(s.Values))
	for _, v := range s.Values {
		if seen[v.Name] {
			c.errorf(diagnostics.ErrDecl, v.Span, "Duplicate enum value \"%s\"", v.Name)
			continue
		}
		seen[v.Name] = true
		enum.Values = append(enum.Values, v.Name)
	}
	c.types.AddType(enum)
	c.define(env, s.Name, typesystem.TypeSymbol{Type: enum}, typesystem.Top)
}
