package checker

import (
	"fmt"

	"github.com/funvibe/phasec/internal/ast"
	"github.com/funvibe/phasec/internal/diagnostics"
	"github.com/funvibe/phasec/internal/symbols"
	"github.com/funvibe/phasec/internal/typesystem"
)

// CheckExpr returns the type and phase of expr and records them in the
// arena. It never fails: errors are reported and yield the unresolved type.
func (c *Checker) CheckExpr(expr ast.Expression, env *symbols.SymbolEnv) (typesystem.Type, typesystem.Phase) {
	t, phase := c.checkExpr(expr, env)
	c.types.AssignTypeToExpr(expr, t, phase)
	return t, phase
}

func (c *Checker) checkExpr(expr ast.Expression, env *symbols.SymbolEnv) (typesystem.Type, typesystem.Phase) {
	switch e := expr.(type) {
	case *ast.StringLiteral:
		return c.types.StringType(), typesystem.Independent
	case *ast.NumberLiteral:
		return c.types.NumberType(), typesystem.Independent
	case *ast.BooleanLiteral:
		return c.types.BoolType(), typesystem.Independent
	case *ast.NilLiteral:
		return c.types.NilType(), typesystem.Independent
	case *ast.InterpolatedString:
		for _, part := range e.Parts {
			t, _ := c.CheckExpr(part, env)
			c.validateTypeIn(t, c.types.Stringables(), part.GetSpan())
		}
		return c.types.StringType(), typesystem.Independent
	case *ast.BinaryExpression:
		return c.checkBinary(e, env)
	case *ast.UnaryExpression:
		return c.checkUnary(e, env)
	case *ast.RangeExpression:
		start, startPhase := c.CheckExpr(e.Start, env)
		end, _ := c.CheckExpr(e.End, env)
		c.validateType(start, c.types.NumberType(), e.Start.GetSpan())
		c.validateType(end, c.types.NumberType(), e.End.GetSpan())
		return c.types.Collection(typesystem.Array, start), startPhase
	case *ast.ReferenceExpression:
		return c.checkReference(e, env)
	case *ast.NewExpression:
		return c.checkNew(e, env)
	case *ast.CallExpression:
		return c.checkCall(e, env)
	case *ast.ArrayLiteral:
		return c.checkArrayLiteral(e, env)
	case *ast.MapLiteral:
		return c.checkMapLiteral(e, env)
	case *ast.SetLiteral:
		return c.checkSetLiteral(e, env)
	case *ast.StructLiteral:
		return c.checkStructLiteral(e, env)
	case *ast.JsonLiteral:
		return c.checkJSONLiteral(e, env)
	case *ast.JsonMapLiteral:
		return c.checkJSONMapLiteral(e, env)
	case *ast.ClosureExpression:
		return c.checkClosure(e.Def, env)
	}
	panic(fmt.Sprintf("checker: unhandled expression %T", expr))
}

func (c *Checker) checkBinary(e *ast.BinaryExpression, env *symbols.SymbolEnv) (typesystem.Type, typesystem.Phase) {
	ltype, lphase := c.CheckExpr(e.Left, env)
	rtype, _ := c.CheckExpr(e.Right, env)
	num, str, boolean := c.types.NumberType(), c.types.StringType(), c.types.BoolType()

	switch e.Op {
	case ast.OpLogicalAnd, ast.OpLogicalOr:
		c.validateType(ltype, boolean, e.Left.GetSpan())
		c.validateType(rtype, boolean, e.Right.GetSpan())
		return boolean, typesystem.Independent
	case ast.OpAdd:
		switch {
		case typesystem.IsSubtypeOf(ltype, num) && typesystem.IsSubtypeOf(rtype, num):
			return num, typesystem.Independent
		case typesystem.IsSubtypeOf(ltype, str) && typesystem.IsSubtypeOf(rtype, str):
			return str, typesystem.Independent
		}
		if !typesystem.IsUnresolved(ltype) && !typesystem.IsUnresolved(rtype) {
			c.errorf(diagnostics.ErrType, e.Span,
				"Binary operator '+' cannot be applied to operands of type '%s' and '%s'; only (%s, %s) and (%s, %s) are supported",
				ltype, rtype, num, num, str, str)
		}
		return c.resolvedError()
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpFloorDiv, ast.OpMod, ast.OpPower:
		c.validateType(ltype, num, e.Left.GetSpan())
		c.validateType(rtype, num, e.Right.GetSpan())
		return num, typesystem.Independent
	case ast.OpEqual, ast.OpNotEqual:
		c.validateType(rtype, ltype, e.Span)
		return boolean, typesystem.Independent
	case ast.OpLess, ast.OpLessOrEqual, ast.OpGreater, ast.OpGreaterOrEqual:
		c.validateType(ltype, num, e.Left.GetSpan())
		c.validateType(rtype, num, e.Right.GetSpan())
		return boolean, typesystem.Independent
	case ast.OpUnwrapOr:
		if !typesystem.IsOption(ltype) {
			if !typesystem.IsUnresolved(ltype) {
				c.errorf(diagnostics.ErrType, e.Left.GetSpan(), "Expected optional type, found \"%s\"", ltype)
			}
			return ltype, lphase
		}
		inner := typesystem.MaybeUnwrapOption(ltype)
		c.validateType(rtype, inner, e.Right.GetSpan())
		return inner, lphase
	}
	panic(fmt.Sprintf("checker: unknown binary operator %q", e.Op))
}

func (c *Checker) checkUnary(e *ast.UnaryExpression, env *symbols.SymbolEnv) (typesystem.Type, typesystem.Phase) {
	t, phase := c.CheckExpr(e.Operand, env)
	switch e.Op {
	case ast.OpNot:
		return c.validateType(t, c.types.BoolType(), e.Operand.GetSpan()), phase
	case ast.OpMinus:
		return c.validateType(t, c.types.NumberType(), e.Operand.GetSpan()), phase
	case ast.OpOptionalTest:
		if !typesystem.IsOption(t) && !typesystem.IsUnresolved(t) {
			c.errorf(diagnostics.ErrType, e.Operand.GetSpan(), "Expected optional type, found \"%s\"", t)
		}
		return c.types.BoolType(), phase
	}
	panic(fmt.Sprintf("checker: unknown unary operator %q", e.Op))
}

// checkItems checks every expression of a literal once, in order.
func (c *Checker) checkItems(items []ast.Expression, env *symbols.SymbolEnv) []typesystem.Type {
	types := make([]typesystem.Type, len(items))
	for i, item := range items {
		types[i], _ = c.CheckExpr(item, env)
	}
	return types
}

// containerType is the declared type of a literal, or the container of its
// first item's type.
func (c *Checker) containerType(ann *ast.TypeAnnotation, kind typesystem.CollectionKind, items []typesystem.Type, env *symbols.SymbolEnv) (typesystem.Type, bool) {
	if ann != nil {
		return c.resolveTypeAnnotation(ann, env), true
	}
	if len(items) > 0 {
		return c.types.Collection(kind, items[0]), true
	}
	return nil, false
}

// elementType extracts the element of a container accepted by a literal of
// the given kind (the kind or its mutable counterpart).
func (c *Checker) elementType(container typesystem.Type, kind typesystem.CollectionKind, expr ast.Expression) typesystem.Type {
	if coll, ok := container.(*typesystem.Collection); ok && (coll.Kind == kind || coll.Kind == kind+1) {
		return coll.Elem
	}
	if !typesystem.IsUnresolved(container) {
		c.errorf(diagnostics.ErrType, expr.GetSpan(), "Expected \"%s\" type, found \"%s\"", kind, container)
	}
	return c.types.ErrorType()
}

func (c *Checker) checkArrayLiteral(e *ast.ArrayLiteral, env *symbols.SymbolEnv) (typesystem.Type, typesystem.Phase) {
	items := c.checkItems(e.Items, env)
	container, ok := c.containerType(e.Type, typesystem.Array, items, env)
	if !ok {
		if c.inJSON > 0 {
			container = c.types.Collection(typesystem.Array, c.types.JsonType())
		} else {
			c.errorf(diagnostics.ErrType, e.Span, "Cannot infer type of empty array")
			container = c.types.Collection(typesystem.Array, c.types.ErrorType())
		}
	}
	elem := c.elementType(container, typesystem.Array, e)
	for i, item := range e.Items {
		c.checkJSONOrValidate(items[i], elem, item.GetSpan())
	}
	return container, env.Phase()
}

func (c *Checker) checkSetLiteral(e *ast.SetLiteral, env *symbols.SymbolEnv) (typesystem.Type, typesystem.Phase) {
	items := c.checkItems(e.Items, env)
	container, ok := c.containerType(e.Type, typesystem.Set, items, env)
	if !ok {
		c.errorf(diagnostics.ErrType, e.Span, "Cannot infer type of empty set")
		container = c.types.Collection(typesystem.Set, c.types.ErrorType())
	}
	elem := c.elementType(container, typesystem.Set, e)
	for i, item := range e.Items {
		c.validateType(items[i], elem, item.GetSpan())
	}
	return container, env.Phase()
}

func (c *Checker) checkMapLiteral(e *ast.MapLiteral, env *symbols.SymbolEnv) (typesystem.Type, typesystem.Phase) {
	values := make([]typesystem.Type, len(e.Entries))
	for i, entry := range e.Entries {
		key, _ := c.CheckExpr(entry.Key, env)
		c.validateType(key, c.types.StringType(), entry.Key.GetSpan())
		values[i], _ = c.CheckExpr(entry.Value, env)
	}
	container, ok := c.containerType(e.Type, typesystem.Map, values, env)
	if !ok {
		c.errorf(diagnostics.ErrType, e.Span, "Cannot infer type of empty map")
		container = c.types.Collection(typesystem.Map, c.types.ErrorType())
	}
	elem := c.elementType(container, typesystem.Map, e)
	for i, entry := range e.Entries {
		c.validateType(values[i], elem, entry.Value.GetSpan())
	}
	return container, env.Phase()
}

func (c *Checker) checkStructLiteral(e *ast.StructLiteral, env *symbols.SymbolEnv) (typesystem.Type, typesystem.Phase) {
	t := c.resolveTypeAnnotation(e.Type, env)
	fields := make(map[string]typesystem.Type, len(e.Fields))
	for _, f := range e.Fields {
		fields[f.Name.Name], _ = c.CheckExpr(f.Value, env)
	}
	if typesystem.IsAnything(t) || typesystem.IsUnresolved(t) {
		return t, env.Phase()
	}
	st, ok := t.(*typesystem.Struct)
	if !ok {
		c.errorf(diagnostics.ErrType, e.Type.Span, "Expected a struct, found type \"%s\"", t)
		return c.types.ErrorType(), env.Phase()
	}

	for _, entry := range st.Env.Iter(true) {
		field, ok := typesystem.AsVariable(entry.Kind)
		if !ok {
			panic("struct member " + entry.Name + " is not a variable")
		}
		if value, ok := e.Field(entry.Name); ok {
			c.validateType(fields[entry.Name], field.Type, value.GetSpan())
		} else if !typesystem.IsOption(field.Type) {
			c.errorf(diagnostics.ErrStructure, e.Span, "\"%s\" is not initialized", entry.Name)
		}
	}
	for _, f := range e.Fields {
		if _, ok := st.Env.Lookup(f.Name.Name, typesystem.Anywhere); !ok {
			c.errorf(diagnostics.ErrStructure, e.Span, "\"%s\" is not a field of \"%s\"", f.Name.Name, st.Name)
		}
	}
	return st, env.Phase()
}

func (c *Checker) checkJSONLiteral(e *ast.JsonLiteral, env *symbols.SymbolEnv) (typesystem.Type, typesystem.Phase) {
	prev := c.inMutJSON
	c.inMutJSON = e.IsMut
	c.inJSON++
	c.CheckExpr(e.Element, env)
	c.inJSON--
	c.inMutJSON = prev
	if e.IsMut {
		return c.types.MutJsonType(), env.Phase()
	}
	return c.types.JsonType(), env.Phase()
}

// checkJSONMapLiteral checks the object form inside a Json literal. Nested
// objects take the mutability of the enclosing literal.
func (c *Checker) checkJSONMapLiteral(e *ast.JsonMapLiteral, env *symbols.SymbolEnv) (typesystem.Type, typesystem.Phase) {
	for _, f := range e.Fields {
		t, _ := c.CheckExpr(f.Value, env)
		if p, ok := t.(*typesystem.Primitive); ok {
			switch {
			case p.Kind == typesystem.Json && c.inMutJSON:
				c.errorf(diagnostics.ErrType, f.Value.GetSpan(),
					"Cannot assign type: \"Json\" to a \"MutJson\" field (hint: try using Json.deepMutCopy())")
			case p.Kind == typesystem.MutJson && !c.inMutJSON:
				c.errorf(diagnostics.ErrType, f.Value.GetSpan(),
					"Cannot assign type: \"MutJson\" to a \"Json\" field (hint: try using Json.deepCopy())")
			}
		}
		if !typesystem.IsJSONLegalValue(t) {
			c.reportNotJSON(t, f.Value.GetSpan())
		}
	}
	if c.inMutJSON {
		return c.types.MutJsonType(), env.Phase()
	}
	return c.types.JsonType(), env.Phase()
}

// checkClosure types an inline function and schedules its body.
func (c *Checker) checkClosure(def *ast.FunctionDefinition, env *symbols.SymbolEnv) (typesystem.Type, typesystem.Phase) {
	sig := c.resolveSignature(def.Signature, env)
	fnEnv := symbols.NewSymbolEnv(env, sig.ReturnType, false, true, sig.Phase, c.stmtIdx)
	c.addArguments(def.Signature.Parameters, sig, fnEnv)
	c.enqueue(def.Body, fnEnv)
	return sig, sig.Phase
}

// addArguments defines a function's parameters in its body env.
func (c *Checker) addArguments(params []ast.ParameterDecl, sig *typesystem.Function, env *symbols.SymbolEnv) {
	if len(params) != len(sig.Parameters) {
		panic("addArguments: parameter count mismatch")
	}
	for i, p := range params {
		c.define(env, p.Name, typesystem.VariableInfo{
			Name:         p.Name.Name,
			Span:         p.Name.Span,
			Type:         sig.Parameters[i].Type,
			Reassignable: p.Reassignable,
			Phase:        env.Phase(),
			Kind:         typesystem.FreeVariable,
		}, typesystem.Top)
	}
}
