package ast

import (
	"strings"

	"github.com/funvibe/phasec/internal/token"
	"github.com/funvibe/phasec/internal/typesystem"
)

// Builder constructs syntax trees without a parser. Every node it creates
// gets a fresh expression ID and a span on its own line, so diagnostics
// reported for different nodes never collapse into one.
type Builder struct {
	File string
	ids  *IDGen
	line int
}

func NewBuilder(file string) *Builder {
	return &Builder{File: file, ids: NewIDGen(-1)}
}

func (b *Builder) span() token.Span {
	l := b.line
	b.line++
	return token.Span{File: b.File, Start: token.Position{Line: l}, End: token.Position{Line: l, Col: 80}}
}

func (b *Builder) base() ExprBase {
	return ExprBase{ID: b.ids.Next(), Span: b.span()}
}

func (b *Builder) stmt() StmtBase {
	return StmtBase{Span: b.span()}
}

// Sym creates a symbol.
func (b *Builder) Sym(name string) Symbol {
	return Symbol{Name: name, Span: b.span()}
}

// Program wraps top level statements.
func (b *Builder) Program(stmts ...Statement) *Program {
	return &Program{File: b.File, Scope: b.Scope(stmts...), MaxExprID: b.ids.Last()}
}

// Scope numbers the statements in order.
func (b *Builder) Scope(stmts ...Statement) *Scope {
	for i, s := range stmts {
		setStmtIdx(s, i)
	}
	return &Scope{Statements: stmts, Span: b.span()}
}

func setStmtIdx(s Statement, idx int) {
	type indexed interface{ base() *StmtBase }
	if ix, ok := s.(indexed); ok {
		ix.base().Idx = idx
	}
}

func (s *StmtBase) base() *StmtBase { return s }

// ---- Expressions ----

func (b *Builder) Str(v string) *StringLiteral  { return &StringLiteral{ExprBase: b.base(), Value: v} }
func (b *Builder) Num(v float64) *NumberLiteral { return &NumberLiteral{ExprBase: b.base(), Value: v} }
func (b *Builder) Bool(v bool) *BooleanLiteral  { return &BooleanLiteral{ExprBase: b.base(), Value: v} }
func (b *Builder) Nil() *NilLiteral             { return &NilLiteral{ExprBase: b.base()} }

func (b *Builder) Interp(parts ...Expression) *InterpolatedString {
	return &InterpolatedString{ExprBase: b.base(), Parts: parts}
}

func (b *Builder) Bin(op BinaryOperator, l, r Expression) *BinaryExpression {
	return &BinaryExpression{ExprBase: b.base(), Op: op, Left: l, Right: r}
}

func (b *Builder) Unary(op UnaryOperator, e Expression) *UnaryExpression {
	return &UnaryExpression{ExprBase: b.base(), Op: op, Operand: e}
}

func (b *Builder) Range(start, end Expression) *RangeExpression {
	return &RangeExpression{ExprBase: b.base(), Start: start, End: end}
}

// Id references a name.
func (b *Builder) Id(name string) *ReferenceExpression {
	return &ReferenceExpression{ExprBase: b.base(), Ref: &Identifier{Symbol: b.Sym(name)}}
}

// Member is obj.prop.
func (b *Builder) Member(obj Expression, prop string) *ReferenceExpression {
	return &ReferenceExpression{ExprBase: b.base(), Ref: &InstanceMember{Object: obj, Property: b.Sym(prop), Span: b.span()}}
}

// OptMember is obj?.prop.
func (b *Builder) OptMember(obj Expression, prop string) *ReferenceExpression {
	r := b.Member(obj, prop)
	r.Ref.(*InstanceMember).OptionalAccessor = true
	return r
}

// Path is a dotted member chain starting at an identifier, e.g. "cloud.Bucket".
func (b *Builder) Path(path string) *ReferenceExpression {
	parts := strings.Split(path, ".")
	expr := b.Id(parts[0])
	for _, p := range parts[1:] {
		expr = b.Member(expr, p)
	}
	return expr
}

// UDT parses a dotted type name.
func (b *Builder) UDT(path string) *UserDefinedType {
	parts := strings.Split(path, ".")
	u := &UserDefinedType{Root: b.Sym(parts[0]), Span: b.span()}
	for _, p := range parts[1:] {
		u.Fields = append(u.Fields, b.Sym(p))
	}
	return u
}

// TypeRef references a type in expression position.
func (b *Builder) TypeRef(path string) *ReferenceExpression {
	return &ReferenceExpression{ExprBase: b.base(), Ref: &TypeReference{Type: b.UDT(path)}}
}

// StaticMember is Type.prop, e.g. Color.Red.
func (b *Builder) StaticMember(typePath, prop string) *ReferenceExpression {
	return &ReferenceExpression{ExprBase: b.base(), Ref: &TypeMember{Type: b.UDT(typePath), Property: b.Sym(prop), Span: b.span()}}
}

// Args builds a positional argument list.
func (b *Builder) Args(pos ...Expression) *ArgList {
	return &ArgList{Pos: pos, Span: b.span()}
}

// Named adds a named argument to list and returns it.
func (b *Builder) Named(list *ArgList, name string, v Expression) *ArgList {
	list.Named = append(list.Named, NamedArg{Name: b.Sym(name), Value: v})
	return list
}

func (b *Builder) New(classPath string, args *ArgList) *NewExpression {
	if args == nil {
		args = b.Args()
	}
	return &NewExpression{ExprBase: b.base(), Class: b.TypeRef(classPath), Args: args}
}

func (b *Builder) Call(callee Expression, pos ...Expression) *CallExpression {
	return b.CallArgs(callee, b.Args(pos...))
}

func (b *Builder) CallArgs(callee Expression, args *ArgList) *CallExpression {
	return &CallExpression{ExprBase: b.base(), Callee: callee, Args: args}
}

func (b *Builder) Array(t *TypeAnnotation, items ...Expression) *ArrayLiteral {
	return &ArrayLiteral{ExprBase: b.base(), Type: t, Items: items}
}

func (b *Builder) Set(t *TypeAnnotation, items ...Expression) *SetLiteral {
	return &SetLiteral{ExprBase: b.base(), Type: t, Items: items}
}

func (b *Builder) Map(t *TypeAnnotation, entries ...MapEntry) *MapLiteral {
	return &MapLiteral{ExprBase: b.base(), Type: t, Entries: entries}
}

func (b *Builder) Entry(key string, v Expression) MapEntry {
	return MapEntry{Key: b.Str(key), Value: v}
}

func (b *Builder) Field(name string, v Expression) FieldInit {
	return FieldInit{Name: b.Sym(name), Value: v}
}

func (b *Builder) StructLit(structPath string, fields ...FieldInit) *StructLiteral {
	return &StructLiteral{ExprBase: b.base(), Type: b.UserType(structPath), Fields: fields}
}

func (b *Builder) Json(isMut bool, el Expression) *JsonLiteral {
	return &JsonLiteral{ExprBase: b.base(), IsMut: isMut, Element: el}
}

func (b *Builder) JsonMap(fields ...FieldInit) *JsonMapLiteral {
	return &JsonMapLiteral{ExprBase: b.base(), Fields: fields}
}

func (b *Builder) Closure(def *FunctionDefinition) *ClosureExpression {
	return &ClosureExpression{ExprBase: b.base(), Def: def}
}

// ---- Types ----

// T is a builtin type such as TypeNumber.
func (b *Builder) T(kind TypeAnnotationKind) *TypeAnnotation {
	return &TypeAnnotation{Kind: kind, Span: b.span()}
}

func (b *Builder) Opt(inner *TypeAnnotation) *TypeAnnotation {
	return &TypeAnnotation{Kind: TypeOptional, Inner: inner, Span: b.span()}
}

// Coll is a container annotation such as Array<inner>.
func (b *Builder) Coll(kind TypeAnnotationKind, inner *TypeAnnotation) *TypeAnnotation {
	return &TypeAnnotation{Kind: kind, Inner: inner, Span: b.span()}
}

// UserType is a user defined type annotation.
func (b *Builder) UserType(path string) *TypeAnnotation {
	return &TypeAnnotation{Kind: TypeUserDefined, UDT: b.UDT(path), Span: b.span()}
}

func (b *Builder) FnType(sig *FunctionSignatureAnnotation) *TypeAnnotation {
	return &TypeAnnotation{Kind: TypeFunction, Func: sig, Span: b.span()}
}

func (b *Builder) Param(name string, t *TypeAnnotation) ParameterDecl {
	return ParameterDecl{Name: b.Sym(name), Type: t}
}

// Sig builds a signature; ret nil means void.
func (b *Builder) Sig(phase typesystem.Phase, ret *TypeAnnotation, params ...ParameterDecl) *FunctionSignatureAnnotation {
	return &FunctionSignatureAnnotation{Parameters: params, ReturnType: ret, Phase: phase, Span: b.span()}
}

// Func builds a function with a body.
func (b *Builder) Func(sig *FunctionSignatureAnnotation, body ...Statement) *FunctionDefinition {
	return &FunctionDefinition{Signature: sig, Body: b.Scope(body...), Span: b.span()}
}

// ExternFunc builds a function implemented outside the language.
func (b *Builder) ExternFunc(sig *FunctionSignatureAnnotation, file string) *FunctionDefinition {
	return &FunctionDefinition{Signature: sig, Extern: file, Span: b.span()}
}

// ---- Statements ----

func (b *Builder) Let(name string, v Expression) *LetStatement {
	return &LetStatement{StmtBase: b.stmt(), Var: b.Sym(name), InitialValue: v}
}

func (b *Builder) LetT(name string, t *TypeAnnotation, v Expression) *LetStatement {
	s := b.Let(name, v)
	s.Type = t
	return s
}

// Var is a reassignable let.
func (b *Builder) Var(name string, v Expression) *LetStatement {
	s := b.Let(name, v)
	s.Reassignable = true
	return s
}

func (b *Builder) Expr(e Expression) *ExpressionStatement {
	return &ExpressionStatement{StmtBase: b.stmt(), Expression: e}
}

func (b *Builder) Assign(ref *ReferenceExpression, v Expression) *AssignmentStatement {
	return &AssignmentStatement{StmtBase: b.stmt(), Variable: ref, Value: v}
}

func (b *Builder) Return(v Expression) *ReturnStatement {
	return &ReturnStatement{StmtBase: b.stmt(), Value: v}
}

func (b *Builder) If(cond Expression, then []Statement, els []Statement) *IfStatement {
	s := &IfStatement{StmtBase: b.stmt(), Condition: cond, Statements: b.Scope(then...)}
	if els != nil {
		s.Else = b.Scope(els...)
	}
	return s
}

func (b *Builder) IfLet(name string, v Expression, then []Statement, els []Statement) *IfLetStatement {
	s := &IfLetStatement{StmtBase: b.stmt(), Var: b.Sym(name), Value: v, Statements: b.Scope(then...)}
	if els != nil {
		s.Else = b.Scope(els...)
	}
	return s
}

func (b *Builder) For(iter string, iterable Expression, body ...Statement) *ForStatement {
	return &ForStatement{StmtBase: b.stmt(), Iterator: b.Sym(iter), Iterable: iterable, Body: b.Scope(body...)}
}

func (b *Builder) While(cond Expression, body ...Statement) *WhileStatement {
	return &WhileStatement{StmtBase: b.stmt(), Condition: cond, Body: b.Scope(body...)}
}

func (b *Builder) Block(body ...Statement) *BlockStatement {
	return &BlockStatement{StmtBase: b.stmt(), Body: b.Scope(body...)}
}

func (b *Builder) Try(try []Statement, catchVar string, catch []Statement) *TryStatement {
	s := &TryStatement{StmtBase: b.stmt(), Try: b.Scope(try...)}
	if catch != nil {
		s.Catch = &CatchBlock{Body: b.Scope(catch...)}
		if catchVar != "" {
			v := b.Sym(catchVar)
			s.Catch.Var = &v
		}
	}
	return s
}

func (b *Builder) Break() *BreakStatement       { return &BreakStatement{StmtBase: b.stmt()} }
func (b *Builder) Continue() *ContinueStatement { return &ContinueStatement{StmtBase: b.stmt()} }
func (b *Builder) DebugEnv() *DebugEnvStatement { return &DebugEnvStatement{StmtBase: b.stmt()} }

// Bring brings a builtin module, optionally under an alias.
func (b *Builder) Bring(module, alias string) *BringStatement {
	s := &BringStatement{StmtBase: b.stmt(), Module: b.Sym(module)}
	if alias != "" {
		a := b.Sym(alias)
		s.Alias = &a
	}
	return s
}

// BringPath brings a library by path.
func (b *Builder) BringPath(path, alias string) *BringStatement {
	s := b.Bring(path, alias)
	s.Path = true
	return s
}

func (b *Builder) Super(args *ArgList) *SuperConstructorStatement {
	return &SuperConstructorStatement{StmtBase: b.stmt(), Args: args}
}

// Class starts a class declaration; callers fill in members.
func (b *Builder) Class(name string, phase typesystem.Phase) *ClassDeclaration {
	return &ClassDeclaration{StmtBase: b.stmt(), Name: b.Sym(name), Phase: phase}
}

func (b *Builder) ClassField(name string, t *TypeAnnotation, phase typesystem.Phase) ClassField {
	return ClassField{Name: b.Sym(name), Type: t, Phase: phase}
}

func (b *Builder) Method(name string, def *FunctionDefinition) ClassMethod {
	return ClassMethod{Name: b.Sym(name), Def: def}
}

func (b *Builder) Interface(name string, extends ...string) *InterfaceDeclaration {
	s := &InterfaceDeclaration{StmtBase: b.stmt(), Name: b.Sym(name)}
	for _, e := range extends {
		s.Extends = append(s.Extends, b.UDT(e))
	}
	return s
}

func (b *Builder) IfaceMethod(name string, sig *FunctionSignatureAnnotation) InterfaceMethod {
	return InterfaceMethod{Name: b.Sym(name), Signature: sig}
}

func (b *Builder) Struct(name string, extends ...string) *StructDeclaration {
	s := &StructDeclaration{StmtBase: b.stmt(), Name: b.Sym(name)}
	for _, e := range extends {
		s.Extends = append(s.Extends, b.UDT(e))
	}
	return s
}

func (b *Builder) StructField(name string, t *TypeAnnotation) StructField {
	return StructField{Name: b.Sym(name), Type: t}
}

func (b *Builder) Enum(name string, values ...string) *EnumDeclaration {
	s := &EnumDeclaration{StmtBase: b.stmt(), Name: b.Sym(name)}
	for _, v := range values {
		s.Values = append(s.Values, b.Sym(v))
	}
	return s
}
