package checker

import (
	"github.com/funvibe/phasec/internal/ast"
	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/diagnostics"
	"github.com/funvibe/phasec/internal/symbols"
	"github.com/funvibe/phasec/internal/token"
	"github.com/funvibe/phasec/internal/typesystem"
)

// stdTypeNames are builtin type keywords that may be used as the object of a
// static access, e.g. str.fromJson(j).
var stdTypeNames = map[string]string{
	"Json":     "Json",
	"MutJson":  "MutJson",
	"str":      "String",
	"num":      "Number",
	"bool":     "Boolean",
	"duration": "Duration",
}

func (c *Checker) checkReference(expr *ast.ReferenceExpression, env *symbols.SymbolEnv) (typesystem.Type, typesystem.Phase) {
	v, phase := c.resolveReference(expr, env)
	c.references[expr.ID] = v
	return v.Type, phase
}

func (c *Checker) resolveReference(expr *ast.ReferenceExpression, env *symbols.SymbolEnv) (typesystem.VariableInfo, typesystem.Phase) {
	switch ref := expr.Ref.(type) {
	case *ast.Identifier:
		return c.resolveIdentifier(ref.Symbol, env)
	case *ast.InstanceMember:
		if udt := c.exprMaybeType(ref.Object, env); udt != nil {
			tm := &ast.TypeMember{Type: udt, Property: ref.Property, Span: ref.Span}
			c.typePaths[expr.ID] = tm
			return c.resolveTypeMember(tm, env)
		}
		return c.resolveInstanceMember(ref, env)
	case *ast.TypeReference:
		return c.resolveTypeReference(ref.Type, env)
	case *ast.TypeMember:
		return c.resolveTypeMember(ref, env)
	}
	panic("unknown reference kind")
}

func (c *Checker) resolveIdentifier(sym ast.Symbol, env *symbols.SymbolEnv) (typesystem.VariableInfo, typesystem.Phase) {
	res := env.LookupExt(sym.Name, typesystem.StatementIdx(c.stmtIdx))
	if res.Status == typesystem.LookupFound {
		if v, ok := typesystem.AsVariable(res.Kind); ok {
			return v, v.Phase
		}
		return c.errorVariableAt(diagnostics.ErrKind, sym.Span,
			"Expected identifier \"%s\" to be a variable, but it's a %s", sym.Name, res.Kind.KindName())
	}
	if res.Status == typesystem.LookupNotFound && sym.Name == config.PrintFuncName {
		return c.errorVariableAt(diagnostics.ErrLookup, sym.Span,
			"Unknown symbol \"%s\", did you mean to use \"%s\"?", sym.Name, config.LogFuncName)
	}
	c.errors.Add(lookupError(res, sym.Name, sym.Span))
	return c.errorVariable(), typesystem.Independent
}

func (c *Checker) resolveInstanceMember(ref *ast.InstanceMember, env *symbols.SymbolEnv) (typesystem.VariableInfo, typesystem.Phase) {
	// Fields of this are assignable inside an initializer.
	forceReassignable := false
	if obj, ok := ref.Object.(*ast.ReferenceExpression); ok {
		if id, ok := obj.Ref.(*ast.Identifier); ok && id.Symbol.Name == config.ThisName {
			res := env.LookupExt(config.ThisName, typesystem.StatementIdx(c.stmtIdx))
			forceReassignable = res.Status == typesystem.LookupFound && res.Info.Init
		}
	}

	instanceType, instancePhase := c.CheckExpr(ref.Object, env)
	if typesystem.IsUnresolved(instanceType) {
		return c.errorVariable(), typesystem.Independent
	}

	v := c.resolveVariableFromInstanceType(instanceType, ref.Property, env)
	phase := v.Phase
	if phase == typesystem.Independent {
		phase = instancePhase
	}

	if typesystem.IsOption(instanceType) && !ref.OptionalAccessor {
		c.errorf(diagnostics.ErrType, ref.Object.GetSpan(),
			"Property access on optional type \"%s\" requires optional accessor: \"?.\"", instanceType)
		return c.errorVariable(), phase
	}
	if forceReassignable {
		v.Reassignable = true
	}
	if ref.OptionalAccessor {
		v.Type = c.types.MakeOption(v.Type)
	}
	return v, phase
}

func (c *Checker) resolveTypeReference(udt *ast.UserDefinedType, env *symbols.SymbolEnv) (typesystem.VariableInfo, typesystem.Phase) {
	t, err := c.resolveUserDefinedType(udt, env, c.stmtIdx)
	if err != nil {
		c.errors.Add(err)
		return c.errorVariable(), typesystem.Independent
	}
	phase := typesystem.Independent
	if class, ok := t.(*typesystem.Class); ok {
		phase = class.Phase
	}
	return typesystem.VariableInfo{
		Name:  udt.FullPathStr(),
		Span:  udt.Span,
		Type:  t,
		Phase: phase,
		Kind:  typesystem.TypeVariable,
		Docs:  typeDocs(t),
	}, phase
}

func (c *Checker) resolveTypeMember(ref *ast.TypeMember, env *symbols.SymbolEnv) (typesystem.VariableInfo, typesystem.Phase) {
	typeVar, _ := c.resolveTypeReference(ref.Type, env)
	prop := ref.Property
	switch t := typeVar.Type.(type) {
	case *typesystem.Enum:
		if !t.HasValue(prop.Name) {
			return c.errorVariableAt(diagnostics.ErrLookup, prop.Span, "Enum \"%s\" does not contain value \"%s\"", t, prop.Name)
		}
		return typesystem.VariableInfo{
			Name:  prop.Name,
			Span:  prop.Span,
			Type:  t,
			Phase: typesystem.Independent,
			Kind:  typesystem.StaticMember,
		}, typesystem.Independent
	case *typesystem.Class:
		kind, ok := t.Env.Lookup(prop.Name, typesystem.Anywhere)
		if v, isVar := typesystem.AsVariable(kind); ok && isVar {
			if !v.IsStatic() {
				return c.errorVariableAt(diagnostics.ErrKind, prop.Span,
					"Class \"%s\" contains a member \"%s\" but it is not static", t, prop.Name)
			}
			return v, v.Phase
		}
		return c.errorVariableAt(diagnostics.ErrLookup, prop.Span, "No member \"%s\" in class \"%s\"", prop.Name, t)
	}
	if typesystem.IsUnresolved(typeVar.Type) {
		return c.errorVariable(), typesystem.Independent
	}
	return c.errorVariableAt(diagnostics.ErrKind, prop.Span, "\"%s.%s\" not a valid reference", ref.Type.FullPathStr(), prop.Name)
}

// resolveVariableFromInstanceType finds property on a value of type t.
// Builtin types expose the API of their std class; containers hydrate it
// with their element type.
func (c *Checker) resolveVariableFromInstanceType(t typesystem.Type, prop ast.Symbol, env *symbols.SymbolEnv) typesystem.VariableInfo {
	switch v := t.(type) {
	case *typesystem.Optional:
		return c.resolveVariableFromInstanceType(v.Inner, prop, env)
	case typesystem.ClassLike:
		return c.propertyFromClassLike(v, prop)
	case *typesystem.Collection:
		if class, ok := c.hydrateCollection(v); ok {
			return c.propertyFromClassLike(class, prop)
		}
		return c.errorVariable()
	case *typesystem.Primitive:
		switch v.Kind {
		case typesystem.Anything:
			return typesystem.VariableInfo{
				Name:  prop.Name,
				Span:  prop.Span,
				Type:  t,
				Phase: env.Phase(),
				Kind:  typesystem.InstanceMember,
			}
		case typesystem.Json, typesystem.MutJson, typesystem.String, typesystem.Duration,
			typesystem.Number, typesystem.Boolean:
			std, _, err := c.types.GetStdClass(v.String())
			if err != nil {
				c.errorf(diagnostics.ErrModule, prop.Span, "%s", err.Error())
				return c.errorVariable()
			}
			if class, ok := std.(typesystem.ClassLike); ok {
				return c.propertyFromClassLike(class, prop)
			}
		}
	}
	v, _ := c.errorVariableAt(diagnostics.ErrLookup, prop.Span, "Property not found")
	return v
}

func (c *Checker) propertyFromClassLike(class typesystem.ClassLike, prop ast.Symbol) typesystem.VariableInfo {
	env := class.MemberEnv()
	if env == nil {
		v, _ := c.errorVariableAt(diagnostics.ErrLookup, prop.Span, "Unknown symbol \"%s\"", prop.Name)
		return v
	}
	res := env.LookupExt(prop.Name, typesystem.Anywhere)
	if res.Status != typesystem.LookupFound {
		c.errors.Add(lookupError(res, prop.Name, prop.Span))
		return c.errorVariable()
	}
	v, ok := typesystem.AsVariable(res.Kind)
	if !ok {
		panic("member " + prop.Name + " of " + class.TypeName() + " is not a variable")
	}
	if v.IsStatic() {
		ev, _ := c.errorVariableAt(diagnostics.ErrKind, prop.Span, "Cannot access static property \"%s\" from instance", prop.Name)
		return ev
	}
	return v
}

// referenceToUDT reads a reference chain as a type path. Builtin type
// keywords at the root are rewritten to their std class.
func referenceToUDT(expr ast.Expression) *ast.UserDefinedType {
	ref, ok := expr.(*ast.ReferenceExpression)
	if !ok {
		return nil
	}
	switch r := ref.Ref.(type) {
	case *ast.Identifier:
		if std, ok := stdTypeNames[r.Symbol.Name]; ok {
			return &ast.UserDefinedType{
				Root:   ast.Symbol{Name: config.StdModule, Span: r.Symbol.Span},
				Fields: []ast.Symbol{{Name: std, Span: r.Symbol.Span}},
				Span:   r.Symbol.Span,
			}
		}
		return &ast.UserDefinedType{Root: r.Symbol, Span: r.Symbol.Span}
	case *ast.InstanceMember:
		udt := referenceToUDT(r.Object)
		if udt == nil {
			return nil
		}
		return extendUDT(udt, r.Property, r.Span)
	case *ast.TypeMember:
		return extendUDT(r.Type, r.Property, r.Span)
	case *ast.TypeReference:
		return r.Type
	}
	return nil
}

func extendUDT(udt *ast.UserDefinedType, field ast.Symbol, span token.Span) *ast.UserDefinedType {
	fields := make([]ast.Symbol, 0, len(udt.Fields)+1)
	fields = append(fields, udt.Fields...)
	fields = append(fields, field)
	return &ast.UserDefinedType{Root: udt.Root, Fields: fields, Span: span}
}

// exprMaybeType reports the type path expr names, if it names one. A path
// ending at a namespace stands for the namespace's Util class, so that
// util.env(...) reads util.Util.env. Nothing is reported.
func (c *Checker) exprMaybeType(expr ast.Expression, env *symbols.SymbolEnv) *ast.UserDefinedType {
	udt := referenceToUDT(expr)
	if udt == nil {
		return nil
	}
	res := c.lookupPath(udt, env)
	if res.Status == typesystem.LookupFound {
		if _, ok := typesystem.AsNamespace(res.Kind); ok {
			util := extendUDT(udt, ast.Symbol{Name: config.UtilClassName, Span: udt.Span}, udt.Span)
			if t, err := c.resolveUserDefinedType(util, env, c.stmtIdx); err == nil {
				c.assignTypePath(expr, t)
				return util
			}
			return nil
		}
	}
	t, err := c.resolveUserDefinedType(udt, env, c.stmtIdx)
	if err != nil {
		return nil
	}
	c.assignTypePath(expr, t)
	return udt
}

func (c *Checker) lookupPath(udt *ast.UserDefinedType, env *symbols.SymbolEnv) typesystem.LookupResult {
	path := udt.FullPath()
	names := make([]string, len(path))
	for i, s := range path {
		names[i] = s.Name
	}
	return env.LookupNested(names, typesystem.StatementIdx(c.stmtIdx))
}

// assignTypePath records the type named by the object of a static access.
func (c *Checker) assignTypePath(expr ast.Expression, t typesystem.Type) {
	phase := typesystem.Independent
	if class, ok := t.(*typesystem.Class); ok {
		phase = class.Phase
	}
	c.types.AssignTypeToExpr(expr, t, phase)
}

func typeDocs(t typesystem.Type) *typesystem.Docs {
	switch v := t.(type) {
	case *typesystem.Class:
		return v.Docs
	case *typesystem.Interface:
		return v.Docs
	case *typesystem.Struct:
		return v.Docs
	case *typesystem.Enum:
		return v.Docs
	}
	return nil
}
