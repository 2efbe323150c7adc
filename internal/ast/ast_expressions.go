package ast

import "github.com/funvibe/phasec/internal/token"

// StringLiteral represents a string literal, e.g. "hello"
type StringLiteral struct {
	ExprBase
	Value string
}

// NumberLiteral represents a numeric literal, e.g. 42 or 1.5
type NumberLiteral struct {
	ExprBase
	Value float64
}

// BooleanLiteral represents true or false
type BooleanLiteral struct {
	ExprBase
	Value bool
}

// NilLiteral represents nil
type NilLiteral struct {
	ExprBase
}

// InterpolatedString is a string with embedded expressions, e.g. "id: {x}".
// Only the embedded expressions are kept.
type InterpolatedString struct {
	ExprBase
	Parts []Expression
}

// BinaryOperator is the operator of a BinaryExpression.
type BinaryOperator string

const (
	OpAdd            BinaryOperator = "+"
	OpSub            BinaryOperator = "-"
	OpMul            BinaryOperator = "*"
	OpDiv            BinaryOperator = "/"
	OpFloorDiv       BinaryOperator = "\\"
	OpMod            BinaryOperator = "%"
	OpPower          BinaryOperator = "**"
	OpGreater        BinaryOperator = ">"
	OpGreaterOrEqual BinaryOperator = ">="
	OpLess           BinaryOperator = "<"
	OpLessOrEqual    BinaryOperator = "<="
	OpEqual          BinaryOperator = "=="
	OpNotEqual       BinaryOperator = "!="
	OpLogicalAnd     BinaryOperator = "&&"
	OpLogicalOr      BinaryOperator = "||"
	OpUnwrapOr       BinaryOperator = "??"
)

// BinaryExpression represents an infix operation, e.g. a + b
type BinaryExpression struct {
	ExprBase
	Op    BinaryOperator
	Left  Expression
	Right Expression
}

// UnaryOperator is the operator of a UnaryExpression.
type UnaryOperator string

const (
	OpMinus        UnaryOperator = "-"
	OpNot          UnaryOperator = "!"
	OpOptionalTest UnaryOperator = "?"
)

// UnaryExpression represents a prefix operation, e.g. !x, or the optional test x?
type UnaryExpression struct {
	ExprBase
	Op      UnaryOperator
	Operand Expression
}

// RangeExpression represents start..end or start..=end
type RangeExpression struct {
	ExprBase
	Start     Expression
	End       Expression
	Inclusive bool
}

// Reference is what a ReferenceExpression points at.
type Reference interface {
	Node
	referenceNode()
}

// Identifier is a bare name, e.g. x
type Identifier struct {
	Symbol Symbol
}

func (r *Identifier) GetSpan() token.Span { return r.Symbol.Span }
func (r *Identifier) referenceNode()      {}

// InstanceMember is obj.prop or obj?.prop. Object may also turn out to be a
// namespace or type path; the checker classifies it.
type InstanceMember struct {
	Object           Expression
	Property         Symbol
	OptionalAccessor bool
	Span             token.Span
}

func (r *InstanceMember) GetSpan() token.Span { return r.Span }
func (r *InstanceMember) referenceNode()      {}

// TypeReference names a type in expression position, e.g. the class of new.
type TypeReference struct {
	Type *UserDefinedType
}

func (r *TypeReference) GetSpan() token.Span { return r.Type.Span }
func (r *TypeReference) referenceNode()      {}

// TypeMember is a static member or enum value, e.g. Color.Red
type TypeMember struct {
	Type     *UserDefinedType
	Property Symbol
	Span     token.Span
}

func (r *TypeMember) GetSpan() token.Span { return r.Span }
func (r *TypeMember) referenceNode()      {}

// ReferenceExpression is an expression reading a reference.
type ReferenceExpression struct {
	ExprBase
	Ref Reference
}

// NamedArg is name: value inside an argument list.
type NamedArg struct {
	Name  Symbol
	Value Expression
}

// ArgList holds positional and named call arguments.
type ArgList struct {
	Pos   []Expression
	Named []NamedArg
	Span  token.Span
}

func (a *ArgList) GetSpan() token.Span { return a.Span }

// NamedValue returns the value bound to a named argument.
func (a *ArgList) NamedValue(name string) (Expression, bool) {
	for _, n := range a.Named {
		if n.Name.Name == name {
			return n.Value, true
		}
	}
	return nil, false
}

// NewExpression is new C(args) [in scope] [as id].
type NewExpression struct {
	ExprBase
	Class    Expression // a ReferenceExpression to a TypeReference
	Args     *ArgList
	ObjScope Expression
	ObjID    Expression
}

// CallExpression represents f(args).
type CallExpression struct {
	ExprBase
	Callee Expression
	Args   *ArgList
}

// ArrayLiteral is [a, b] or MutArray<T>[...].
type ArrayLiteral struct {
	ExprBase
	Type  *TypeAnnotation
	Items []Expression
}

// MapEntry is one key: value pair of a map literal.
type MapEntry struct {
	Key   Expression
	Value Expression
}

// MapLiteral is {"k" => v}.
type MapLiteral struct {
	ExprBase
	Type    *TypeAnnotation
	Entries []MapEntry
}

// SetLiteral is {a, b}.
type SetLiteral struct {
	ExprBase
	Type  *TypeAnnotation
	Items []Expression
}

// FieldInit is name: value inside a struct or Json literal.
type FieldInit struct {
	Name  Symbol
	Value Expression
}

// StructLiteral is S { a: 1 }.
type StructLiteral struct {
	ExprBase
	Type   *TypeAnnotation
	Fields []FieldInit
}

// Field returns the value given for name.
func (s *StructLiteral) Field(name string) (Expression, bool) {
	for _, f := range s.Fields {
		if f.Name.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// JsonLiteral is Json <element> or MutJson <element>.
type JsonLiteral struct {
	ExprBase
	IsMut   bool
	Element Expression
}

// JsonMapLiteral is the object form inside a Json literal.
type JsonMapLiteral struct {
	ExprBase
	Fields []FieldInit
}

// ClosureExpression is an inline function.
type ClosureExpression struct {
	ExprBase
	Def *FunctionDefinition
}
