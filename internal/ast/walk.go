package ast

// Inspect traverses the tree rooted at node in depth-first order. It calls
// f(node) for every node; when f returns false the children of that node
// are skipped.
func Inspect(node Node, f func(Node) bool) {
	if isNilNode(node) || !f(node) {
		return
	}
	walkExpr := func(e Expression) {
		if e != nil {
			Inspect(e, f)
		}
	}
	walkScope := func(s *Scope) {
		if s != nil {
			Inspect(s, f)
		}
	}
	walkArgs := func(a *ArgList) {
		if a != nil {
			Inspect(a, f)
		}
	}
	walkFunc := func(d *FunctionDefinition) {
		if d != nil {
			Inspect(d, f)
		}
	}

	switch n := node.(type) {
	case *Program:
		walkScope(n.Scope)
	case *Scope:
		for _, s := range n.Statements {
			Inspect(s, f)
		}
	case *FunctionDefinition:
		walkScope(n.Body)
	case *ArgList:
		for _, e := range n.Pos {
			walkExpr(e)
		}
		for _, na := range n.Named {
			walkExpr(na.Value)
		}

	// Expressions
	case *StringLiteral, *NumberLiteral, *BooleanLiteral, *NilLiteral:
	case *InterpolatedString:
		for _, p := range n.Parts {
			walkExpr(p)
		}
	case *BinaryExpression:
		walkExpr(n.Left)
		walkExpr(n.Right)
	case *UnaryExpression:
		walkExpr(n.Operand)
	case *RangeExpression:
		walkExpr(n.Start)
		walkExpr(n.End)
	case *ReferenceExpression:
		if n.Ref != nil {
			Inspect(n.Ref, f)
		}
	case *InstanceMember:
		walkExpr(n.Object)
	case *Identifier, *TypeReference, *TypeMember:
	case *NewExpression:
		walkExpr(n.Class)
		walkArgs(n.Args)
		walkExpr(n.ObjScope)
		walkExpr(n.ObjID)
	case *CallExpression:
		walkExpr(n.Callee)
		walkArgs(n.Args)
	case *ArrayLiteral:
		for _, e := range n.Items {
			walkExpr(e)
		}
	case *SetLiteral:
		for _, e := range n.Items {
			walkExpr(e)
		}
	case *MapLiteral:
		for _, e := range n.Entries {
			walkExpr(e.Key)
			walkExpr(e.Value)
		}
	case *StructLiteral:
		for _, fi := range n.Fields {
			walkExpr(fi.Value)
		}
	case *JsonLiteral:
		walkExpr(n.Element)
	case *JsonMapLiteral:
		for _, fi := range n.Fields {
			walkExpr(fi.Value)
		}
	case *ClosureExpression:
		walkFunc(n.Def)

	// Statements
	case *LetStatement:
		walkExpr(n.InitialValue)
	case *ForStatement:
		walkExpr(n.Iterable)
		walkScope(n.Body)
	case *WhileStatement:
		walkExpr(n.Condition)
		walkScope(n.Body)
	case *BreakStatement, *ContinueStatement, *DebugEnvStatement, *BringStatement:
	case *IfLetStatement:
		walkExpr(n.Value)
		walkScope(n.Statements)
		walkScope(n.Else)
	case *IfStatement:
		walkExpr(n.Condition)
		walkScope(n.Statements)
		for _, ei := range n.ElseIfs {
			walkExpr(ei.Condition)
			walkScope(ei.Statements)
		}
		walkScope(n.Else)
	case *ExpressionStatement:
		walkExpr(n.Expression)
	case *AssignmentStatement:
		if n.Variable != nil {
			Inspect(n.Variable, f)
		}
		walkExpr(n.Value)
	case *BlockStatement:
		walkScope(n.Body)
	case *ReturnStatement:
		walkExpr(n.Value)
	case *TryStatement:
		walkScope(n.Try)
		if n.Catch != nil {
			walkScope(n.Catch.Body)
		}
		walkScope(n.Finally)
	case *SuperConstructorStatement:
		walkArgs(n.Args)
	case *ClassDeclaration:
		walkExpr(n.Parent)
		walkFunc(n.Initializer)
		walkFunc(n.InflightInitializer)
		for _, m := range n.Methods {
			walkFunc(m.Def)
		}
	case *InterfaceDeclaration, *StructDeclaration, *EnumDeclaration:
	}
}

func isNilNode(node Node) bool {
	if node == nil {
		return true
	}
	switch n := node.(type) {
	case *Scope:
		return n == nil
	case *Program:
		return n == nil || n.Scope == nil
	case *ArgList:
		return n == nil
	case *FunctionDefinition:
		return n == nil
	}
	return false
}
