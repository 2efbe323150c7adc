package checker_test

import (
	"strings"
	"testing"

	"github.com/funvibe/phasec/internal/ast"
	"github.com/funvibe/phasec/internal/checker"
	"github.com/funvibe/phasec/internal/importer"
	"github.com/funvibe/phasec/internal/typesystem"
)

const (
	pre = typesystem.Preflight
	inf = typesystem.Inflight
)

func newChecker() *checker.Checker {
	return checker.New(typesystem.NewTypes(), importer.NewTypeSystem(nil))
}

// check runs a fresh checker over a program built from stmts.
func check(t *testing.T, b *ast.Builder, stmts ...ast.Statement) *checker.Result {
	t.Helper()
	return newChecker().Check(b.Program(stmts...))
}

func errorMessages(res *checker.Result) string {
	var msgs []string
	for _, e := range res.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "\n")
}

// expectNoErrors asserts the program checks cleanly.
func expectNoErrors(t *testing.T, res *checker.Result) {
	t.Helper()
	if len(res.Errors) > 0 {
		t.Fatalf("expected no errors, got:\n%s", errorMessages(res))
	}
}

// expectErrorContains asserts some error message contains substr.
func expectErrorContains(t *testing.T, res *checker.Result, substr string) {
	t.Helper()
	for _, e := range res.Errors {
		if strings.Contains(e.Message, substr) {
			return
		}
	}
	if len(res.Errors) == 0 {
		t.Fatalf("expected error containing %q, but got none", substr)
	}
	t.Fatalf("expected error containing %q, got:\n%s", substr, errorMessages(res))
}

// expectType asserts the checked type of e.
func expectType(t *testing.T, res *checker.Result, e ast.Expression, want string) {
	t.Helper()
	got, ok := res.Types.ExprType(e)
	if !ok {
		t.Fatalf("expression at %s has no type", e.GetSpan())
	}
	if got.String() != want {
		t.Errorf("expected type %s, got %s", want, got)
	}
}

// ============================================================================
// Literals and operators
// ============================================================================

func TestBinaryOperators(t *testing.T) {
	tests := []struct {
		name    string
		build   func(b *ast.Builder) ast.Expression
		want    string
		wantErr string
	}{
		{
			name:  "num plus num",
			build: func(b *ast.Builder) ast.Expression { return b.Bin(ast.OpAdd, b.Num(1), b.Num(2)) },
			want:  "num",
		},
		{
			name:  "str plus str",
			build: func(b *ast.Builder) ast.Expression { return b.Bin(ast.OpAdd, b.Str("a"), b.Str("b")) },
			want:  "str",
		},
		{
			name:    "num plus str",
			build:   func(b *ast.Builder) ast.Expression { return b.Bin(ast.OpAdd, b.Num(1), b.Str("b")) },
			wantErr: "Binary operator '+' cannot be applied to operands of type 'num' and 'str'",
		},
		{
			name:    "minus on bool",
			build:   func(b *ast.Builder) ast.Expression { return b.Bin(ast.OpSub, b.Num(1), b.Bool(true)) },
			wantErr: `Expected type to be "num", but got "bool" instead`,
		},
		{
			name:  "comparison",
			build: func(b *ast.Builder) ast.Expression { return b.Bin(ast.OpLess, b.Num(1), b.Num(2)) },
			want:  "bool",
		},
		{
			name:    "equality across types",
			build:   func(b *ast.Builder) ast.Expression { return b.Bin(ast.OpEqual, b.Num(1), b.Str("1")) },
			wantErr: `Expected type to be "num", but got "str" instead`,
		},
		{
			name:    "logical and on num",
			build:   func(b *ast.Builder) ast.Expression { return b.Bin(ast.OpLogicalAnd, b.Bool(true), b.Num(1)) },
			wantErr: `Expected type to be "bool", but got "num" instead`,
		},
		{
			name:    "unwrap-or on non optional",
			build:   func(b *ast.Builder) ast.Expression { return b.Bin(ast.OpUnwrapOr, b.Num(1), b.Num(2)) },
			wantErr: `Expected optional type, found "num"`,
		},
		{
			name:  "not",
			build: func(b *ast.Builder) ast.Expression { return b.Unary(ast.OpNot, b.Bool(false)) },
			want:  "bool",
		},
		{
			name:    "negate a string",
			build:   func(b *ast.Builder) ast.Expression { return b.Unary(ast.OpMinus, b.Str("x")) },
			wantErr: `Expected type to be "num", but got "str" instead`,
		},
		{
			name:  "range",
			build: func(b *ast.Builder) ast.Expression { return b.Range(b.Num(0), b.Num(10)) },
			want:  "Array<num>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ast.NewBuilder("main.ph")
			e := tt.build(b)
			res := check(t, b, b.Expr(e))
			if tt.wantErr != "" {
				expectErrorContains(t, res, tt.wantErr)
				return
			}
			expectNoErrors(t, res)
			expectType(t, res, e, tt.want)
		})
	}
}

func TestUnwrapOr(t *testing.T) {
	b := ast.NewBuilder("main.ph")
	e := b.Bin(ast.OpUnwrapOr, b.Id("x"), b.Str("default"))
	res := check(t, b,
		b.LetT("x", b.Opt(b.T(ast.TypeString)), b.Nil()),
		b.Let("y", e),
	)
	expectNoErrors(t, res)
	expectType(t, res, e, "str")
}

func TestCollectionLiterals(t *testing.T) {
	t.Run("inferred array", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		e := b.Array(nil, b.Num(1), b.Num(2))
		res := check(t, b, b.Let("a", e))
		expectNoErrors(t, res)
		expectType(t, res, e, "Array<num>")
	})

	t.Run("mixed array", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b, b.Let("a", b.Array(nil, b.Num(1), b.Str("two"))))
		expectErrorContains(t, res, `Expected type to be "num", but got "str" instead`)
	})

	t.Run("empty array", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b, b.Let("a", b.Array(nil)))
		expectErrorContains(t, res, "Cannot infer type of empty array")
	})

	t.Run("empty array inside Json", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b, b.Let("j", b.Json(false, b.Array(nil))))
		expectNoErrors(t, res)
	})

	t.Run("empty set and map", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b,
			b.Let("s", b.Set(nil)),
			b.Let("m", b.Map(nil)),
		)
		expectErrorContains(t, res, "Cannot infer type of empty set")
		expectErrorContains(t, res, "Cannot infer type of empty map")
	})

	t.Run("annotated mutable array", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		e := b.Array(b.Coll(ast.TypeMutArray, b.T(ast.TypeString)))
		res := check(t, b, b.Let("a", e))
		expectNoErrors(t, res)
		expectType(t, res, e, "MutArray<str>")
	})

	t.Run("map literal", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		e := b.Map(nil, b.Entry("a", b.Num(1)), b.Entry("b", b.Num(2)))
		res := check(t, b, b.Let("m", e))
		expectNoErrors(t, res)
		expectType(t, res, e, "Map<num>")
	})
}

// ============================================================================
// Generic collection members
// ============================================================================

func TestCollectionHydration(t *testing.T) {
	t.Run("array at", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		call := b.Call(b.Member(b.Array(nil, b.Num(1), b.Num(2)), "at"), b.Num(0))
		res := check(t, b, b.Let("x", call))
		expectNoErrors(t, res)
		expectType(t, res, call, "num")
	})

	t.Run("map tryGet", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		call := b.Call(b.Member(b.Id("m"), "tryGet"), b.Str("a"))
		res := check(t, b,
			b.Let("m", b.Map(nil, b.Entry("a", b.Str("x")))),
			b.Let("v", call),
		)
		expectNoErrors(t, res)
		expectType(t, res, call, "str?")
	})

	t.Run("copyMut keeps the element", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		call := b.Call(b.Member(b.Array(nil, b.Bool(true)), "copyMut"))
		res := check(t, b, b.Let("x", call))
		expectNoErrors(t, res)
		expectType(t, res, call, "MutArray<bool>")
	})

	t.Run("push checks the element", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b,
			b.Let("a", b.Array(b.Coll(ast.TypeMutArray, b.T(ast.TypeString)))),
			b.Expr(b.Call(b.Member(b.Id("a"), "push"), b.Str("ok"))),
			b.Expr(b.Call(b.Member(b.Id("a"), "push"), b.Num(1))),
		)
		expectErrorContains(t, res, `Expected type to be "str", but got "num" instead`)
	})

	t.Run("string members", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		e := b.Member(b.Str("hello"), "length")
		res := check(t, b, b.Let("n", e))
		expectNoErrors(t, res)
		expectType(t, res, e, "num")
	})
}

// ============================================================================
// Optionals
// ============================================================================

func TestOptionalAccess(t *testing.T) {
	t.Run("plain access is rejected", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b,
			b.LetT("s", b.Opt(b.T(ast.TypeString)), b.Nil()),
			b.Let("n", b.Member(b.Id("s"), "length")),
		)
		expectErrorContains(t, res, `Property access on optional type "str?" requires optional accessor: "?."`)
	})

	t.Run("optional accessor yields optional", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		e := b.OptMember(b.Id("s"), "length")
		res := check(t, b,
			b.LetT("s", b.Opt(b.T(ast.TypeString)), b.Str("abc")),
			b.Let("n", e),
		)
		expectNoErrors(t, res)
		expectType(t, res, e, "num?")
	})

	t.Run("optional test", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		e := b.Unary(ast.OpOptionalTest, b.Id("s"))
		res := check(t, b,
			b.LetT("s", b.Opt(b.T(ast.TypeNumber)), b.Nil()),
			b.Let("has", e),
		)
		expectNoErrors(t, res)
		expectType(t, res, e, "bool")
	})

	t.Run("optional function field without optional accessor", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		hooks := b.Struct("Hooks")
		hooks.Fields = []ast.StructField{
			b.StructField("cb", b.Opt(b.FnType(b.Sig(typesystem.Independent, b.T(ast.TypeVoid))))),
		}
		call := b.Call(b.Member(b.Id("h"), "cb"))
		res := check(t, b, hooks, b.Let("h", b.StructLit("Hooks")), b.Expr(call))
		expectErrorContains(t, res, `Cannot call optional function "(): void?" without optional accessor "?."`)
	})

	t.Run("optional function field through optional accessor", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		hooks := b.Struct("Hooks")
		hooks.Fields = []ast.StructField{
			b.StructField("cb", b.Opt(b.FnType(b.Sig(typesystem.Independent, b.T(ast.TypeNumber))))),
		}
		call := b.Call(b.OptMember(b.Id("h"), "cb"))
		res := check(t, b, hooks, b.Let("h", b.StructLit("Hooks")), b.Expr(call))
		expectNoErrors(t, res)
		expectType(t, res, call, "num?")
	})
}

func TestNestedJsonMutability(t *testing.T) {
	tests := []struct {
		name    string
		build   func(b *ast.Builder) ast.Expression
		wantErr string
	}{
		{
			name: "MutJson inside Json",
			build: func(b *ast.Builder) ast.Expression {
				return b.Json(false, b.JsonMap(b.Field("a", b.Json(true, b.JsonMap(b.Field("x", b.Num(1)))))))
			},
			wantErr: `Cannot assign type: "MutJson" to a "Json" field`,
		},
		{
			name: "Json inside MutJson",
			build: func(b *ast.Builder) ast.Expression {
				return b.Json(true, b.JsonMap(b.Field("a", b.Json(false, b.JsonMap(b.Field("x", b.Num(1)))))))
			},
			wantErr: `Cannot assign type: "Json" to a "MutJson" field`,
		},
		{
			name: "nested objects share the literal's mutability",
			build: func(b *ast.Builder) ast.Expression {
				return b.Json(true, b.JsonMap(b.Field("a", b.JsonMap(b.Field("x", b.Num(1))))))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ast.NewBuilder("main.ph")
			res := check(t, b, b.Let("j", tt.build(b)))
			if tt.wantErr == "" {
				expectNoErrors(t, res)
				return
			}
			expectErrorContains(t, res, tt.wantErr)
		})
	}
}

// ============================================================================
// Structs
// ============================================================================

func TestStructLiteral(t *testing.T) {
	decl := func(b *ast.Builder) *ast.StructDeclaration {
		s := b.Struct("Options")
		s.Fields = []ast.StructField{
			b.StructField("a", b.T(ast.TypeString)),
			b.StructField("b", b.Opt(b.T(ast.TypeNumber))),
		}
		return s
	}

	tests := []struct {
		name    string
		fields  func(b *ast.Builder) []ast.FieldInit
		wantErr string
	}{
		{
			name:   "required only",
			fields: func(b *ast.Builder) []ast.FieldInit { return []ast.FieldInit{b.Field("a", b.Str("x"))} },
		},
		{
			name: "all fields",
			fields: func(b *ast.Builder) []ast.FieldInit {
				return []ast.FieldInit{b.Field("a", b.Str("x")), b.Field("b", b.Num(1))}
			},
		},
		{
			name:    "missing required",
			fields:  func(b *ast.Builder) []ast.FieldInit { return []ast.FieldInit{b.Field("b", b.Num(1))} },
			wantErr: `"a" is not initialized`,
		},
		{
			name: "unknown field",
			fields: func(b *ast.Builder) []ast.FieldInit {
				return []ast.FieldInit{b.Field("a", b.Str("x")), b.Field("c", b.Num(1))}
			},
			wantErr: `"c" is not a field of "Options"`,
		},
		{
			name:    "wrong field type",
			fields:  func(b *ast.Builder) []ast.FieldInit { return []ast.FieldInit{b.Field("a", b.Num(1))} },
			wantErr: `Expected type to be "str", but got "num" instead`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ast.NewBuilder("main.ph")
			res := check(t, b, decl(b), b.Let("o", b.StructLit("Options", tt.fields(b)...)))
			if tt.wantErr == "" {
				expectNoErrors(t, res)
				return
			}
			expectErrorContains(t, res, tt.wantErr)
		})
	}
}

func TestStructLiteralOfNonStruct(t *testing.T) {
	b := ast.NewBuilder("main.ph")
	res := check(t, b,
		b.Enum("Color", "Red"),
		b.Let("o", b.StructLit("Color")),
	)
	expectErrorContains(t, res, `Expected a struct, found type "Color"`)
}

// ============================================================================
// Calls
// ============================================================================

func TestCallArity(t *testing.T) {
	adder := func(b *ast.Builder) ast.Statement {
		sig := b.Sig(pre, b.T(ast.TypeNumber),
			b.Param("a", b.T(ast.TypeNumber)),
			b.Param("b", b.T(ast.TypeNumber)))
		return b.Let("add", b.Closure(b.Func(sig,
			b.Return(b.Bin(ast.OpAdd, b.Id("a"), b.Id("b"))))))
	}

	tests := []struct {
		name    string
		args    []float64
		wantErr string
	}{
		{name: "too few", args: []float64{1}, wantErr: "Expected 2 positional argument(s) but got 1"},
		{name: "exact", args: []float64{1, 2}},
		{name: "too many", args: []float64{1, 2, 3}, wantErr: "Expected 2 arguments but got 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ast.NewBuilder("main.ph")
			var args []ast.Expression
			for _, v := range tt.args {
				args = append(args, b.Num(v))
			}
			call := b.Call(b.Id("add"), args...)
			res := check(t, b, adder(b), b.Let("sum", call))
			if tt.wantErr == "" {
				expectNoErrors(t, res)
				expectType(t, res, call, "num")
				return
			}
			expectErrorContains(t, res, tt.wantErr)
		})
	}
}

func TestCallOptionalTrailingParameters(t *testing.T) {
	b := ast.NewBuilder("main.ph")
	sig := b.Sig(pre, nil,
		b.Param("a", b.T(ast.TypeString)),
		b.Param("b", b.Opt(b.T(ast.TypeNumber))))
	res := check(t, b,
		b.Let("f", b.Closure(b.Func(sig))),
		b.Expr(b.Call(b.Id("f"), b.Str("x"))),
		b.Expr(b.Call(b.Id("f"), b.Str("x"), b.Num(1))),
	)
	expectNoErrors(t, res)

	b = ast.NewBuilder("main.ph")
	sig = b.Sig(pre, nil,
		b.Param("a", b.T(ast.TypeString)),
		b.Param("b", b.Opt(b.T(ast.TypeNumber))))
	res = check(t, b,
		b.Let("f", b.Closure(b.Func(sig))),
		b.Expr(b.Call(b.Id("f"), b.Str("x"), b.Num(1), b.Num(2))),
	)
	expectErrorContains(t, res, "Expected between 1 and 2 arguments but got 3")
}

func TestCallNamedArguments(t *testing.T) {
	setup := func(b *ast.Builder) []ast.Statement {
		props := b.Struct("Props")
		props.Fields = []ast.StructField{
			b.StructField("name", b.T(ast.TypeString)),
			b.StructField("size", b.Opt(b.T(ast.TypeNumber))),
		}
		sig := b.Sig(pre, nil, b.Param("props", b.UserType("Props")))
		return []ast.Statement{props, b.Let("f", b.Closure(b.Func(sig)))}
	}

	t.Run("fields collected into the struct", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		stmts := setup(b)
		call := b.CallArgs(b.Id("f"), b.Named(b.Args(), "name", b.Str("x")))
		res := check(t, b, append(stmts, b.Expr(call))...)
		expectNoErrors(t, res)
	})

	t.Run("missing required field", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		stmts := setup(b)
		call := b.CallArgs(b.Id("f"), b.Named(b.Args(), "size", b.Num(1)))
		res := check(t, b, append(stmts, b.Expr(call))...)
		expectErrorContains(t, res, `Missing required field "name" from "Props"`)
	})

	t.Run("unknown field", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		stmts := setup(b)
		args := b.Named(b.Named(b.Args(), "name", b.Str("x")), "color", b.Str("red"))
		res := check(t, b, append(stmts, b.Expr(b.CallArgs(b.Id("f"), args)))...)
		expectErrorContains(t, res, `"color" is not a field of "Props"`)
	})

	t.Run("named arguments to a non struct", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		sig := b.Sig(pre, nil, b.Param("n", b.T(ast.TypeNumber)))
		call := b.CallArgs(b.Id("g"), b.Named(b.Args(b.Num(1)), "x", b.Num(2)))
		res := check(t, b, b.Let("g", b.Closure(b.Func(sig))), b.Expr(call))
		expectErrorContains(t, res, "No named arguments expected")
	})
}

func TestCallNonFunction(t *testing.T) {
	b := ast.NewBuilder("main.ph")
	res := check(t, b,
		b.Let("n", b.Num(1)),
		b.Expr(b.Call(b.Id("n"))),
	)
	expectErrorContains(t, res, `Expected a function or method, found "num"`)
}

func TestPrintHint(t *testing.T) {
	b := ast.NewBuilder("main.ph")
	res := check(t, b, b.Expr(b.Call(b.Id("print"), b.Str("hello"))))
	expectErrorContains(t, res, `Unknown symbol "print", did you mean to use "log"?`)
}

func TestGlobalFunctions(t *testing.T) {
	b := ast.NewBuilder("main.ph")
	res := check(t, b,
		b.Expr(b.Call(b.Id("log"), b.Str("hello"))),
		b.Expr(b.Call(b.Id("assert"), b.Bin(ast.OpEqual, b.Num(1), b.Num(1)))),
	)
	expectNoErrors(t, res)
}

// ============================================================================
// Phases
// ============================================================================

func TestPhaseOfCalls(t *testing.T) {
	t.Run("inflight method from preflight", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b,
			b.Bring("cloud", ""),
			b.Let("counter", b.New("cloud.Counter", nil)),
			b.Expr(b.Call(b.Member(b.Id("counter"), "inc"))),
		)
		expectErrorContains(t, res, "Cannot call into inflight phase while preflight")
	})

	t.Run("inflight method from an inflight closure", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		handler := b.Func(b.Sig(inf, nil), b.Expr(b.Call(b.Member(b.Id("counter"), "inc"))))
		res := check(t, b,
			b.Bring("cloud", ""),
			b.Let("counter", b.New("cloud.Counter", nil)),
			b.Let("handler", b.Closure(handler)),
		)
		expectNoErrors(t, res)
	})

	t.Run("preflight method from inflight", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		handler := b.Func(b.Sig(inf, nil),
			b.Expr(b.Call(b.Member(b.Id("bucket"), "addObject"), b.Str("k"), b.Str("v"))))
		res := check(t, b,
			b.Bring("cloud", ""),
			b.Let("bucket", b.New("cloud.Bucket", nil)),
			b.Let("handler", b.Closure(handler)),
		)
		expectErrorContains(t, res, "Cannot call into preflight phase while inflight")
	})

	t.Run("phase independent function everywhere", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		handler := b.Func(b.Sig(inf, nil), b.Expr(b.Call(b.Id("log"), b.Str("in flight"))))
		res := check(t, b,
			b.Expr(b.Call(b.Id("log"), b.Str("pre flight"))),
			b.Let("handler", b.Closure(handler)),
		)
		expectNoErrors(t, res)
	})
}

func TestNewExpression(t *testing.T) {
	t.Run("inflight class in preflight", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b,
			b.Class("Worker", inf),
			b.Let("w", b.New("Worker", nil)),
		)
		expectErrorContains(t, res, `Cannot create inflight class "Worker" in preflight phase`)
	})

	t.Run("struct", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b,
			b.Struct("Point"),
			b.Let("p", b.New("Point", nil)),
		)
		expectErrorContains(t, res, "because it is a struct and not a class")
	})

	t.Run("constructor arguments", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b,
			b.Bring("cloud", ""),
			b.Let("f", b.New("cloud.Function", nil)),
		)
		expectErrorContains(t, res, "Expected 1 positional argument(s) but got 0")
	})

	t.Run("result is the class", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		e := b.New("cloud.Bucket", nil)
		res := check(t, b, b.Bring("cloud", ""), b.Let("bucket", e))
		expectNoErrors(t, res)
		expectType(t, res, e, "Bucket")
	})
}
