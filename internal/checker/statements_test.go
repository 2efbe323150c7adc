package checker_test

import (
	"testing"

	"github.com/funvibe/phasec/internal/ast"
	"github.com/funvibe/phasec/internal/typesystem"
)

// ============================================================================
// Variables
// ============================================================================

func TestLet(t *testing.T) {
	tests := []struct {
		name    string
		stmts   func(b *ast.Builder) []ast.Statement
		wantErr string
	}{
		{
			name: "inferred",
			stmts: func(b *ast.Builder) []ast.Statement {
				return []ast.Statement{b.Let("x", b.Num(1))}
			},
		},
		{
			name: "void value",
			stmts: func(b *ast.Builder) []ast.Statement {
				return []ast.Statement{b.Let("x", b.Call(b.Id("log"), b.Str("hi")))}
			},
			wantErr: `Cannot assign expression of type "void" to a variable`,
		},
		{
			name: "nil without a type",
			stmts: func(b *ast.Builder) []ast.Statement {
				return []ast.Statement{b.Let("x", b.Nil())}
			},
			wantErr: "Cannot assign nil value to variables without explicit optional type",
		},
		{
			name: "nil to a non optional type",
			stmts: func(b *ast.Builder) []ast.Statement {
				return []ast.Statement{b.LetT("x", b.T(ast.TypeNumber), b.Nil())}
			},
			wantErr: `(hint: to allow "nil" assignment use optional type: "num?")`,
		},
		{
			name: "explicit type mismatch",
			stmts: func(b *ast.Builder) []ast.Statement {
				return []ast.Statement{b.LetT("x", b.T(ast.TypeString), b.Num(1))}
			},
			wantErr: `Expected type to be "str", but got "num" instead`,
		},
		{
			name: "used before defined",
			stmts: func(b *ast.Builder) []ast.Statement {
				return []ast.Statement{
					b.If(b.Bool(true), []ast.Statement{b.Expr(b.Id("later"))}, nil),
					b.Let("later", b.Num(1)),
				}
			},
			wantErr: `Symbol "later" used before being defined`,
		},
		{
			name: "referenced before defined at the top level",
			stmts: func(b *ast.Builder) []ast.Statement {
				return []ast.Statement{b.Expr(b.Id("later")), b.Let("later", b.Num(1))}
			},
			wantErr: `Unknown symbol "later"`,
		},
		{
			name: "unknown symbol",
			stmts: func(b *ast.Builder) []ast.Statement {
				return []ast.Statement{b.Expr(b.Id("nowhere"))}
			},
			wantErr: `Unknown symbol "nowhere"`,
		},
		{
			name: "redefinition",
			stmts: func(b *ast.Builder) []ast.Statement {
				return []ast.Statement{b.Let("x", b.Num(1)), b.Let("x", b.Num(2))}
			},
			wantErr: "already defined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ast.NewBuilder("main.ph")
			res := check(t, b, tt.stmts(b)...)
			if tt.wantErr == "" {
				expectNoErrors(t, res)
				return
			}
			expectErrorContains(t, res, tt.wantErr)
		})
	}
}

func TestAssignment(t *testing.T) {
	t.Run("immutable", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b, b.Let("x", b.Num(1)), b.Assign(b.Id("x"), b.Num(2)))
		expectErrorContains(t, res, "Variable is not reassignable")
	})

	t.Run("reassignable", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b, b.Var("x", b.Num(1)), b.Assign(b.Id("x"), b.Num(2)))
		expectNoErrors(t, res)
	})

	t.Run("wrong type", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b, b.Var("x", b.Num(1)), b.Assign(b.Id("x"), b.Str("two")))
		expectErrorContains(t, res, `Expected type to be "num", but got "str" instead`)
	})

	t.Run("preflight variable from inflight", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		fn := b.Func(b.Sig(inf, nil), b.Assign(b.Id("x"), b.Num(2)))
		res := check(t, b, b.Var("x", b.Num(1)), b.Let("f", b.Closure(fn)))
		expectErrorContains(t, res, "Variable cannot be reassigned from inflight")
	})
}

// ============================================================================
// Control flow
// ============================================================================

func TestControlFlow(t *testing.T) {
	t.Run("if condition", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b, b.If(b.Num(1), []ast.Statement{}, nil))
		expectErrorContains(t, res, `Expected type to be "bool", but got "num" instead`)
	})

	t.Run("while condition", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b, b.While(b.Str("yes"), b.Break()))
		expectErrorContains(t, res, `Expected type to be "bool", but got "str" instead`)
	})

	t.Run("for over an array", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		use := b.Bin(ast.OpAdd, b.Id("i"), b.Num(1))
		res := check(t, b, b.For("i", b.Array(nil, b.Num(1), b.Num(2)), b.Expr(use)))
		expectNoErrors(t, res)
		expectType(t, res, use, "num")
	})

	t.Run("for over a range", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b, b.For("i", b.Range(b.Num(0), b.Num(3)), b.Continue()))
		expectNoErrors(t, res)
	})

	t.Run("for over a number", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b, b.For("i", b.Num(5)))
		expectErrorContains(t, res, `Unable to iterate over "num"`)
	})

	t.Run("loop variable is scoped to the body", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b,
			b.For("i", b.Array(nil, b.Num(1))),
			b.Expr(b.Id("i")),
		)
		expectErrorContains(t, res, `Unknown symbol "i"`)
	})

	t.Run("if let binds the unwrapped value", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		use := b.Member(b.Id("v"), "length")
		res := check(t, b,
			b.LetT("maybe", b.Opt(b.T(ast.TypeString)), b.Nil()),
			b.IfLet("v", b.Id("maybe"), []ast.Statement{b.Expr(use)}, nil),
		)
		expectNoErrors(t, res)
		expectType(t, res, use, "num")
	})

	t.Run("if let on a non optional", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b, b.IfLet("v", b.Num(1), []ast.Statement{}, nil))
		expectErrorContains(t, res, `Expected type to be optional, but got "num" instead`)
	})

	t.Run("catch variable is a string", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		use := b.Member(b.Id("err"), "length")
		res := check(t, b, b.Try(
			[]ast.Statement{b.Expr(b.Call(b.Id("throw"), b.Str("boom")))},
			"err",
			[]ast.Statement{b.Expr(use)},
		))
		expectNoErrors(t, res)
		expectType(t, res, use, "num")
	})
}

func TestUnresolvedOperandReportedOnce(t *testing.T) {
	tests := []struct {
		name string
		stmt func(b *ast.Builder) ast.Statement
	}{
		{name: "for", stmt: func(b *ast.Builder) ast.Statement { return b.For("x", b.Id("missing")) }},
		{name: "if let", stmt: func(b *ast.Builder) ast.Statement {
			return b.IfLet("y", b.Id("missing"), []ast.Statement{}, nil)
		}},
		{name: "unwrap or", stmt: func(b *ast.Builder) ast.Statement {
			return b.Expr(b.Bin(ast.OpUnwrapOr, b.Id("missing"), b.Num(1)))
		}},
		{name: "optional test", stmt: func(b *ast.Builder) ast.Statement {
			return b.Expr(b.Unary(ast.OpOptionalTest, b.Id("missing")))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ast.NewBuilder("main.ph")
			res := check(t, b, tt.stmt(b))
			expectErrorContains(t, res, `Unknown symbol "missing"`)
			if len(res.Errors) != 1 {
				t.Errorf("expected a single error, got:\n%s", errorMessages(res))
			}
		})
	}
}

func TestReturn(t *testing.T) {
	t.Run("outside a function", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		res := check(t, b, b.Return(b.Num(1)))
		expectErrorContains(t, res, "Return statement outside of function cannot return a value")
	})

	t.Run("value from a void function", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		fn := b.Func(b.Sig(pre, nil), b.Return(b.Num(1)))
		res := check(t, b, b.Let("f", b.Closure(fn)))
		expectErrorContains(t, res, "Unexpected return value from void function")
	})

	t.Run("missing value", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		fn := b.Func(b.Sig(pre, b.T(ast.TypeNumber)), b.Return(nil))
		res := check(t, b, b.Let("f", b.Closure(fn)))
		expectErrorContains(t, res, "Expected return statement to return type num")
	})

	t.Run("wrong value", func(t *testing.T) {
		b := ast.NewBuilder("main.ph")
		fn := b.Func(b.Sig(pre, b.T(ast.TypeNumber)), b.Return(b.Str("one")))
		res := check(t, b, b.Let("f", b.Closure(fn)))
		expectErrorContains(t, res, `Expected type to be "num", but got "str" instead`)
	})
}

// ============================================================================
// Bring
// ============================================================================

func TestBring(t *testing.T) {
	tests := []struct {
		name    string
		stmts   func(b *ast.Builder) []ast.Statement
		wantErr string
	}{
		{
			name:  "sdk module",
			stmts: func(b *ast.Builder) []ast.Statement { return []ast.Statement{b.Bring("cloud", "")} },
		},
		{
			name:  "sdk module with alias",
			stmts: func(b *ast.Builder) []ast.Statement { return []ast.Statement{b.Bring("util", "u")} },
		},
		{
			name:    "std",
			stmts:   func(b *ast.Builder) []ast.Statement { return []ast.Statement{b.Bring("std", "")} },
			wantErr: `Redundant bring of "std"`,
		},
		{
			name:    "unknown module",
			stmts:   func(b *ast.Builder) []ast.Statement { return []ast.Statement{b.Bring("networking", "")} },
			wantErr: `"networking" is not a built-in module`,
		},
		{
			name:    "path without alias",
			stmts:   func(b *ast.Builder) []ast.Statement { return []ast.Statement{b.BringPath("./lib", "")} },
			wantErr: "must be assigned to an identifier",
		},
		{
			name: "twice",
			stmts: func(b *ast.Builder) []ast.Statement {
				return []ast.Statement{b.Bring("cloud", ""), b.Bring("cloud", "")}
			},
			wantErr: `"cloud" is already defined`,
		},
		{
			name: "type without bring",
			stmts: func(b *ast.Builder) []ast.Statement {
				return []ast.Statement{b.Let("bucket", b.New("cloud.Bucket", nil))}
			},
			wantErr: "Unknown symbol",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ast.NewBuilder("main.ph")
			res := check(t, b, tt.stmts(b)...)
			if tt.wantErr == "" {
				expectNoErrors(t, res)
				return
			}
			expectErrorContains(t, res, tt.wantErr)
		})
	}
}

func TestBroughtStatics(t *testing.T) {
	b := ast.NewBuilder("main.ph")
	call := b.Call(b.Path("util.Util.env"), b.Str("HOME"))
	res := check(t, b, b.Bring("util", ""), b.Let("home", call))
	expectNoErrors(t, res)
	expectType(t, res, call, "str")
}

// ============================================================================
// Results
// ============================================================================

func TestResultRecordsReferencesAndScopes(t *testing.T) {
	b := ast.NewBuilder("main.ph")
	ref := b.Id("x")
	body := b.Expr(b.Call(b.Id("log"), b.Str("inside")))
	fn := b.Func(b.Sig(inf, nil), body)
	prog := b.Program(
		b.Let("x", b.Num(1)),
		b.Let("y", ref),
		b.Let("f", b.Closure(fn)),
	)
	res := newChecker().Check(prog)
	expectNoErrors(t, res)

	v, ok := res.References[ref.ID]
	if !ok {
		t.Fatalf("reference to x was not recorded")
	}
	if v.Name != "x" || v.Type.String() != "num" {
		t.Errorf("unexpected reference %s: %s", v.Name, v.Type)
	}

	env, ok := res.Scopes[fn.Body]
	if !ok {
		t.Fatalf("closure body has no env")
	}
	if env.Phase() != typesystem.Inflight {
		t.Errorf("expected closure env to be inflight, got %s", env.Phase())
	}
	if _, ok := res.Scopes[prog.Scope]; !ok {
		t.Errorf("root scope has no env")
	}
}
