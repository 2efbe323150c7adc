package ast

import "github.com/funvibe/phasec/internal/typesystem"

// LetStatement is let [var] name[: T] = value.
type LetStatement struct {
	StmtBase
	Reassignable bool
	Var          Symbol
	InitialValue Expression
	Type         *TypeAnnotation
}

// ForStatement is for x in iterable { ... }.
type ForStatement struct {
	StmtBase
	Iterator Symbol
	Iterable Expression
	Body     *Scope
}

// WhileStatement is while cond { ... }.
type WhileStatement struct {
	StmtBase
	Condition Expression
	Body      *Scope
}

type BreakStatement struct {
	StmtBase
}

type ContinueStatement struct {
	StmtBase
}

// IfLetStatement is if let x = optional { ... } else { ... }.
type IfLetStatement struct {
	StmtBase
	Reassignable bool
	Var          Symbol
	Value        Expression
	Statements   *Scope
	Else         *Scope
}

// ElseIf is one elif branch.
type ElseIf struct {
	Condition  Expression
	Statements *Scope
}

// IfStatement is if / elif / else.
type IfStatement struct {
	StmtBase
	Condition  Expression
	Statements *Scope
	ElseIfs    []ElseIf
	Else       *Scope
}

// ExpressionStatement is an expression evaluated for its effect.
type ExpressionStatement struct {
	StmtBase
	Expression Expression
}

// AssignmentStatement is ref = value.
type AssignmentStatement struct {
	StmtBase
	Variable *ReferenceExpression
	Value    Expression
}

// BringStatement is bring cloud, bring "lib.yaml" as lib or bring "go:strings" as strings.
type BringStatement struct {
	StmtBase
	Module Symbol
	// Path is set when the module was written as a quoted path.
	Path  bool
	Alias *Symbol
}

// BlockStatement is a nested scope { ... }.
type BlockStatement struct {
	StmtBase
	Body *Scope
}

// ReturnStatement is return [value].
type ReturnStatement struct {
	StmtBase
	Value Expression
}

// CatchBlock is the catch part of a try statement.
type CatchBlock struct {
	Var  *Symbol
	Body *Scope
}

// TryStatement is try / catch / finally.
type TryStatement struct {
	StmtBase
	Try     *Scope
	Catch   *CatchBlock
	Finally *Scope
}

// SuperConstructorStatement is super(args) as the first statement of an initializer.
type SuperConstructorStatement struct {
	StmtBase
	Args *ArgList
}

// DebugEnvStatement dumps the current environment while checking.
type DebugEnvStatement struct {
	StmtBase
}

// ClassField is a field declaration.
type ClassField struct {
	Name         Symbol
	Type         *TypeAnnotation
	Reassignable bool
	Phase        typesystem.Phase
	IsStatic     bool
	Doc          string
}

// ClassMethod is a named method.
type ClassMethod struct {
	Name Symbol
	Def  *FunctionDefinition
}

// ClassDeclaration declares a class.
type ClassDeclaration struct {
	StmtBase
	Name                Symbol
	Fields              []ClassField
	Methods             []ClassMethod
	Initializer         *FunctionDefinition
	InflightInitializer *FunctionDefinition
	Parent              Expression // a ReferenceExpression to a TypeReference
	Implements          []*UserDefinedType
	Phase               typesystem.Phase
	Doc                 string
}

// InterfaceMethod is a method signature of an interface.
type InterfaceMethod struct {
	Name      Symbol
	Signature *FunctionSignatureAnnotation
	Doc       string
}

// InterfaceDeclaration declares an interface.
type InterfaceDeclaration struct {
	StmtBase
	Name    Symbol
	Methods []InterfaceMethod
	Extends []*UserDefinedType
	Doc     string
}

// StructField is a field of a struct declaration.
type StructField struct {
	Name Symbol
	Type *TypeAnnotation
	Doc  string
}

// StructDeclaration declares a struct.
type StructDeclaration struct {
	StmtBase
	Name    Symbol
	Extends []*UserDefinedType
	Fields  []StructField
	Doc     string
}

// EnumDeclaration declares an enum.
type EnumDeclaration struct {
	StmtBase
	Name   Symbol
	Values []Symbol
	Doc    string
}
