package checker

import (
	"github.com/funvibe/phasec/internal/ast"
	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/diagnostics"
	"github.com/funvibe/phasec/internal/symbols"
	"github.com/funvibe/phasec/internal/token"
	"github.com/funvibe/phasec/internal/typesystem"
)

// argListTypes holds the checked types of a call's arguments.
type argListTypes struct {
	pos   []typesystem.Type
	named map[string]typesystem.Type
}

func (c *Checker) checkArgList(args *ast.ArgList, env *symbols.SymbolEnv) argListTypes {
	types := argListTypes{named: make(map[string]typesystem.Type)}
	if args == nil {
		return types
	}
	for _, arg := range args.Pos {
		t, _ := c.CheckExpr(arg, env)
		types.pos = append(types.pos, t)
	}
	for _, arg := range args.Named {
		types.named[arg.Name.Name], _ = c.CheckExpr(arg.Value, env)
	}
	return types
}

// checkArgsAgainstSignature matches an argument list to sig. A non-nil
// result means the call could not be matched and is the type to give it.
func (c *Checker) checkArgsAgainstSignature(args *ast.ArgList, types argListTypes, sig *typesystem.Function, span token.Span) typesystem.Type {
	if args == nil {
		args = &ast.ArgList{}
	}

	minArgs := typesystem.MinParameters(sig)
	if len(args.Pos) < minArgs {
		c.errorf(diagnostics.ErrArity, span, "Expected %d positional argument(s) but got %d", minArgs, len(args.Pos))
		return c.types.ErrorType()
	}

	if len(args.Named) > 0 {
		if len(sig.Parameters) == 0 {
			c.errorf(diagnostics.ErrArity, span, "Expected 0 named arguments for func at %s", span)
			return c.types.ErrorType()
		}
		last := typesystem.MaybeUnwrapOption(sig.Parameters[len(sig.Parameters)-1].Type)
		if !typesystem.IsStruct(last) {
			c.errorf(diagnostics.ErrArity, span, "No named arguments expected")
			return c.types.ErrorType()
		}
		c.validateStructuralType(args, types, last, span)
	}

	// Trailing optional parameters may be left out.
	optionals := 0
	for i := len(sig.Parameters) - 1; i >= 0 && typesystem.IsOption(sig.Parameters[i].Type); i-- {
		optionals++
	}
	count := len(args.Pos)
	if len(args.Named) > 0 {
		count++
	}
	lo, hi := len(sig.Parameters)-optionals, len(sig.Parameters)
	if count < lo || count > hi {
		if lo == hi {
			c.errorf(diagnostics.ErrArity, span, "Expected %d arguments but got %d", lo, count)
		} else {
			c.errorf(diagnostics.ErrArity, span, "Expected between %d and %d arguments but got %d", lo, hi, count)
		}
	}

	for i, arg := range args.Pos {
		if i >= lo {
			break
		}
		c.validateType(types.pos[i], sig.Parameters[i].Type, arg.GetSpan())
	}
	return nil
}

// validateStructuralType checks named arguments against the fields of the
// struct they are collected into.
func (c *Checker) validateStructuralType(args *ast.ArgList, types argListTypes, expected typesystem.Type, span token.Span) {
	st, ok := expected.(*typesystem.Struct)
	if !ok {
		c.errorf(diagnostics.ErrStructure, span, "Named arguments provided for non-struct argument")
		return
	}

	fieldTypes := make(map[string]typesystem.Type, len(args.Named))
	for _, arg := range args.Named {
		kind, ok := st.Env.Lookup(arg.Name.Name, typesystem.Anywhere)
		if !ok {
			c.errorf(diagnostics.ErrStructure, span, "\"%s\" is not a field of \"%s\"", arg.Name.Name, expected)
			continue
		}
		field, ok := typesystem.AsVariable(kind)
		if !ok {
			panic("struct member " + arg.Name.Name + " is not a variable")
		}
		fieldTypes[arg.Name.Name] = field.Type
	}

	for _, entry := range st.Env.Iter(true) {
		field, ok := typesystem.AsVariable(entry.Kind)
		if !ok {
			panic("struct member " + entry.Name + " is not a variable")
		}
		if want, ok := fieldTypes[entry.Name]; ok {
			value, _ := args.NamedValue(entry.Name)
			c.validateType(types.named[entry.Name], want, value.GetSpan())
		} else if !typesystem.IsOption(field.Type) {
			c.errorf(diagnostics.ErrStructure, span, "Missing required field \"%s\" from \"%s\"", entry.Name, st.Name)
		}
	}
}

func (c *Checker) checkNew(e *ast.NewExpression, env *symbols.SymbolEnv) (typesystem.Type, typesystem.Phase) {
	classType, _ := c.CheckExpr(e.Class, env)
	var scopeType, idType typesystem.Type
	if e.ObjScope != nil {
		scopeType, _ = c.CheckExpr(e.ObjScope, env)
	}
	if e.ObjID != nil {
		idType, _ = c.CheckExpr(e.ObjID, env)
	}
	argTypes := c.checkArgList(e.Args, env)

	ref, ok := e.Class.(*ast.ReferenceExpression)
	if !ok {
		c.errorf(diagnostics.ErrKind, e.Span, "Must be a reference to a class")
		return c.resolvedError()
	}
	if _, ok := ref.Ref.(*ast.TypeReference); !ok {
		c.errorf(diagnostics.ErrKind, e.Span, "Must be a type reference to a class")
		return c.resolvedError()
	}

	var class *typesystem.Class
	switch t := classType.(type) {
	case *typesystem.Class:
		if t.Phase != typesystem.Independent && t.Phase != env.Phase() {
			c.errorf(diagnostics.ErrPhase, e.Span, "Cannot create %s class \"%s\" in %s phase", t.Phase, t.Name, env.Phase())
			return c.resolvedError()
		}
		class = t
	case *typesystem.Struct:
		c.errorf(diagnostics.ErrKind, e.Class.GetSpan(),
			"Cannot instantiate type \"%s\" because it is a struct and not a class. Use struct instantiation instead.", classType)
		return c.resolvedError()
	default:
		if typesystem.IsAnything(classType) {
			return c.types.AnythingType(), typesystem.Independent
		}
		if typesystem.IsUnresolved(classType) {
			return c.resolvedError()
		}
		c.errorf(diagnostics.ErrKind, e.Class.GetSpan(), "Cannot instantiate type \"%s\" because it is not a class", classType)
		return c.resolvedError()
	}

	ctorName := config.InflightInitName
	if env.Phase() == typesystem.Preflight {
		ctorName = config.InitName
	}
	res := class.Env.LookupExt(ctorName, typesystem.Anywhere)
	if res.Status != typesystem.LookupFound {
		c.errors.Add(lookupError(res, config.InitName, e.Class.GetSpan()))
		return c.resolvedError()
	}
	ctor, ok := typesystem.AsVariable(res.Kind)
	if !ok {
		panic("constructor of " + class.Name + " is not a variable")
	}
	sig, ok := ctor.Type.(*typesystem.Function)
	if !ok {
		panic("constructor of " + class.Name + " is not a function")
	}

	c.validateType(sig.ReturnType, classType, e.Span)
	c.checkArgsAgainstSignature(e.Args, argTypes, sig, e.Span)

	if class.Phase == typesystem.Preflight {
		if e.ObjScope == nil {
			// No scope outside a class body is fine: the object lands at the root.
			if kind, ok := env.Lookup(config.ThisName, typesystem.StatementIdx(c.stmtIdx)); ok {
				if this, ok := typesystem.AsVariable(kind); ok {
					scopeType = this.Type
				}
			}
		} else if !class.StdConstructArgs {
			c.errorf(diagnostics.ErrStructure, e.ObjScope.GetSpan(),
				"Cannot set scope of non-standard preflight class \"%s\" using `in`", classType)
		}
		if scopeType != nil {
			if _, ok := typesystem.AsPreflightClass(scopeType); !ok {
				c.errorf(diagnostics.ErrType, e.Span, "Expected scope to be a preflight object, instead found \"%s\"", scopeType)
			}
		}
		if idType != nil {
			c.validateType(idType, c.types.StringType(), e.ObjID.GetSpan())
			if !class.StdConstructArgs {
				c.errorf(diagnostics.ErrStructure, e.ObjID.GetSpan(),
					"Cannot set id of non-standard preflight class \"%s\" using `as`", classType)
			}
		}
	} else {
		if e.ObjScope != nil {
			c.errorf(diagnostics.ErrStructure, e.ObjScope.GetSpan(), "Inflight classes cannot have a scope")
		}
		if e.ObjID != nil {
			c.errorf(diagnostics.ErrStructure, e.ObjID.GetSpan(), "Inflight classes cannot have an id")
		}
	}
	return classType, env.Phase()
}

func (c *Checker) checkCall(e *ast.CallExpression, env *symbols.SymbolEnv) (typesystem.Type, typesystem.Phase) {
	calleeType, calleePhase := c.CheckExpr(e.Callee, env)
	isOption := typesystem.IsOption(calleeType)
	fnType := typesystem.MaybeUnwrapOption(calleeType)
	argTypes := c.checkArgList(e.Args, env)

	if typesystem.IsUnresolved(fnType) {
		return c.resolvedError()
	}
	if typesystem.IsAnything(fnType) {
		return c.types.AnythingType(), typesystem.Independent
	}

	var sig *typesystem.Function
	switch t := fnType.(type) {
	case *typesystem.Function:
		sig = t
	case *typesystem.Class:
		if t.Phase != typesystem.Preflight {
			c.errorf(diagnostics.ErrKind, e.Callee.GetSpan(), "Expected a function or method, found \"%s\"", fnType)
			return c.resolvedError()
		}
		handle := typesystem.GetMethod(t, config.HandleMethod)
		if handle == nil {
			c.errorf(diagnostics.ErrKind, e.Callee.GetSpan(), "Expected a function or method")
			return c.resolvedError()
		}
		sig = handle.Type.(*typesystem.Function)
	default:
		c.errorf(diagnostics.ErrKind, e.Callee.GetSpan(), "Expected a function or method, found \"%s\"", fnType)
		return c.resolvedError()
	}

	if !env.Phase().CanCallTo(sig.Phase) {
		c.errorf(diagnostics.ErrPhase, e.Span, "Cannot call into %s phase while %s", sig.Phase, env.Phase())
	}

	phase := sig.Phase
	if phase == typesystem.Independent {
		phase = calleePhase
	}

	if t := c.checkArgsAgainstSignature(e.Args, argTypes, sig, e.Span); t != nil {
		return t, phase
	}

	if !isOption {
		return sig.ReturnType, phase
	}
	// An optional function may only be reached through ?. and then yields
	// an optional result.
	if ref, ok := e.Callee.(*ast.ReferenceExpression); ok {
		if m, ok := ref.Ref.(*ast.InstanceMember); ok {
			if m.OptionalAccessor {
				return c.types.MakeOption(sig.ReturnType), phase
			}
			c.errorf(diagnostics.ErrType, e.Callee.GetSpan(),
				"Cannot call optional function \"%s\" without optional accessor \"?.\"", calleeType)
			return c.types.ErrorType(), phase
		}
	}
	c.errorf(diagnostics.ErrType, e.Callee.GetSpan(), "Cannot call an optional function")
	return c.types.ErrorType(), phase
}
