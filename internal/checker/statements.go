package checker

import (
	"fmt"
	"log"

	"github.com/funvibe/phasec/internal/ast"
	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/diagnostics"
	"github.com/funvibe/phasec/internal/symbols"
	"github.com/funvibe/phasec/internal/typesystem"
)

// checkStatement checks one statement of the scope being processed. Nested
// scopes are not entered: they are queued with the env they run in.
func (c *Checker) checkStatement(stmt ast.Statement, env *symbols.SymbolEnv) {
	// Statements are never checked recursively, so this is always the index
	// of the statement being looked at.
	c.stmtIdx = stmt.StmtIdx()

	switch s := stmt.(type) {
	case *ast.LetStatement:
		c.checkLet(s, env)
	case *ast.ForStatement:
		c.checkFor(s, env)
	case *ast.WhileStatement:
		t, _ := c.CheckExpr(s.Condition, env)
		c.validateType(t, c.types.BoolType(), s.Condition.GetSpan())
		c.enqueue(s.Body, c.nestedEnv(env, s))
	case *ast.BreakStatement, *ast.ContinueStatement:
	case *ast.IfLetStatement:
		c.checkIfLet(s, env)
	case *ast.IfStatement:
		t, _ := c.CheckExpr(s.Condition, env)
		c.validateType(t, c.types.BoolType(), s.Condition.GetSpan())
		c.enqueue(s.Statements, c.nestedEnv(env, s))
		for _, elif := range s.ElseIfs {
			t, _ := c.CheckExpr(elif.Condition, env)
			c.validateType(t, c.types.BoolType(), elif.Condition.GetSpan())
			c.enqueue(elif.Statements, c.nestedEnv(env, s))
		}
		c.enqueue(s.Else, c.nestedEnv(env, s))
	case *ast.ExpressionStatement:
		c.CheckExpr(s.Expression, env)
	case *ast.AssignmentStatement:
		c.checkAssignment(s, env)
	case *ast.BringStatement:
		c.checkBring(s, env)
	case *ast.BlockStatement:
		c.enqueue(s.Body, c.nestedEnv(env, s))
	case *ast.ReturnStatement:
		c.checkReturn(s, env)
	case *ast.TryStatement:
		c.enqueue(s.Try, c.nestedEnv(env, s))
		if s.Catch != nil {
			catchEnv := c.nestedEnv(env, s)
			if s.Catch.Var != nil {
				c.define(catchEnv, *s.Catch.Var, c.freeVariable(*s.Catch.Var, c.types.StringType(), false, env.Phase()), typesystem.Top)
			}
			c.enqueue(s.Catch.Body, catchEnv)
		}
		c.enqueue(s.Finally, c.nestedEnv(env, s))
	case *ast.SuperConstructorStatement:
		c.checkSuperConstructor(s, c.checkArgList(s.Args, env))
	case *ast.DebugEnvStatement:
		log.Printf("[symbol environment at %s]\n%s", s.Span, env)
	case *ast.ClassDeclaration:
		c.checkClass(s, env)
	case *ast.InterfaceDeclaration:
		c.checkInterface(s, env)
	case *ast.StructDeclaration:
		c.checkStruct(s, env)
	case *ast.EnumDeclaration:
		c.checkEnum(s, env)
	default:
		panic(fmt.Sprintf("checker: unhandled statement %T", stmt))
	}
}

// nestedEnv creates the env of a block nested in stmt.
func (c *Checker) nestedEnv(env *symbols.SymbolEnv, stmt ast.Statement) *symbols.SymbolEnv {
	return symbols.NewSymbolEnv(env, env.ReturnType(), false, false, env.Phase(), stmt.StmtIdx())
}

func (c *Checker) freeVariable(sym ast.Symbol, t typesystem.Type, reassignable bool, phase typesystem.Phase) typesystem.VariableInfo {
	return typesystem.VariableInfo{
		Name:         sym.Name,
		Span:         sym.Span,
		Type:         t,
		Reassignable: reassignable,
		Phase:        phase,
		Kind:         typesystem.FreeVariable,
	}
}

func (c *Checker) checkLet(s *ast.LetStatement, env *symbols.SymbolEnv) {
	var explicit typesystem.Type
	if s.Type != nil {
		explicit = c.resolveTypeAnnotation(s.Type, env)
	}
	inferred, _ := c.CheckExpr(s.InitialValue, env)
	if typesystem.IsVoid(inferred) {
		c.errorf(diagnostics.ErrType, s.Var.Span, "Cannot assign expression of type \"%s\" to a variable", inferred)
	}
	varType := inferred
	if explicit == nil {
		if typesystem.IsNil(inferred) {
			c.errorf(diagnostics.ErrType, s.InitialValue.GetSpan(), "Cannot assign nil value to variables without explicit optional type")
		}
	} else {
		c.validateType(inferred, explicit, s.InitialValue.GetSpan())
		varType = explicit
	}
	c.define(env, s.Var, c.freeVariable(s.Var, varType, s.Reassignable, env.Phase()), typesystem.StatementIdx(s.Idx))
}

func (c *Checker) checkFor(s *ast.ForStatement, env *symbols.SymbolEnv) {
	t, _ := c.CheckExpr(s.Iterable, env)
	itemType := c.types.ErrorType()
	switch {
	case typesystem.IsIterable(t):
		itemType, _ = typesystem.CollectionItemType(t)
	case typesystem.IsAnything(t):
		itemType = t
		c.errorf(diagnostics.ErrType, s.Iterable.GetSpan(), "Unable to iterate over \"%s\"", t)
	case !typesystem.IsUnresolved(t):
		c.errorf(diagnostics.ErrType, s.Iterable.GetSpan(), "Unable to iterate over \"%s\"", t)
	}

	loopEnv := c.nestedEnv(env, s)
	c.define(loopEnv, s.Iterator, c.freeVariable(s.Iterator, itemType, false, env.Phase()), typesystem.Top)
	c.enqueue(s.Body, loopEnv)
}

func (c *Checker) checkIfLet(s *ast.IfLetStatement, env *symbols.SymbolEnv) {
	t, _ := c.CheckExpr(s.Value, env)
	if !typesystem.IsOption(t) && !typesystem.IsUnresolved(t) {
		c.errorf(diagnostics.ErrType, s.Value.GetSpan(), "Expected type to be optional, but got \"%s\" instead", t)
	}
	// A non-optional value is reported above and checking continues with it
	// as the bound type.
	bodyEnv := c.nestedEnv(env, s)
	c.define(bodyEnv, s.Var, c.freeVariable(s.Var, typesystem.MaybeUnwrapOption(t), s.Reassignable, env.Phase()), typesystem.Top)
	c.enqueue(s.Statements, bodyEnv)
	c.enqueue(s.Else, c.nestedEnv(env, s))
}

func (c *Checker) checkAssignment(s *ast.AssignmentStatement, env *symbols.SymbolEnv) {
	valueType, _ := c.CheckExpr(s.Value, env)
	varType, varPhase := c.CheckExpr(s.Variable, env)

	v := c.references[s.Variable.ID]
	switch {
	case !typesystem.IsUnresolved(varType) && !v.Reassignable:
		c.errorf(diagnostics.ErrType, s.Variable.Span, "Variable is not reassignable")
	case varPhase == typesystem.Preflight && env.Phase() == typesystem.Inflight:
		c.errorf(diagnostics.ErrPhase, s.Span, "Variable cannot be reassigned from inflight")
	}
	c.validateType(valueType, varType, s.Value.GetSpan())
}

func (c *Checker) checkBring(s *ast.BringStatement, env *symbols.SymbolEnv) {
	var library string
	var filter []string
	var alias ast.Symbol

	switch {
	case s.Path:
		if s.Alias == nil {
			c.errorf(diagnostics.ErrModule, s.Span, "bring \"%s\" must be assigned to an identifier (e.g. bring \"foo\" as foo)", s.Module.Name)
			return
		}
		library = s.Module.Name
		alias = *s.Alias
	case config.IsBringable(s.Module.Name):
		library = config.SDKAssembly
		filter = []string{s.Module.Name}
		alias = s.Module
		if s.Alias != nil {
			alias = *s.Alias
		}
	case s.Module.Name == config.StdModule:
		c.errorf(diagnostics.ErrModule, s.Span, "Redundant bring of \"%s\"", config.StdModule)
		return
	default:
		c.errorf(diagnostics.ErrModule, s.Span, "\"%s\" is not a built-in module", s.Module.Name)
		return
	}

	c.addModuleToEnv(env, library, filter, alias, s)
}

func (c *Checker) checkReturn(s *ast.ReturnStatement, env *symbols.SymbolEnv) {
	ret := env.ReturnType()
	if s.Value == nil {
		if !typesystem.IsVoid(ret) {
			c.errorf(diagnostics.ErrType, s.Span, "Expected return statement to return type %s", ret)
		}
		return
	}
	t, _ := c.CheckExpr(s.Value, env)
	switch {
	case !typesystem.IsVoid(ret):
		c.validateType(t, ret, s.Value.GetSpan())
	case env.InFunction():
		c.errorf(diagnostics.ErrType, s.Span, "Unexpected return value from void function")
	default:
		c.errorf(diagnostics.ErrType, s.Span, "Return statement outside of function cannot return a value")
	}
}
