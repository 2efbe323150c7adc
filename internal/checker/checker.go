package checker

import (
	"strings"

	"github.com/funvibe/phasec/internal/ast"
	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/diagnostics"
	"github.com/funvibe/phasec/internal/importer"
	"github.com/funvibe/phasec/internal/symbols"
	"github.com/funvibe/phasec/internal/token"
	"github.com/funvibe/phasec/internal/typesystem"
)

// Result is everything a check produces. Later stages read types through
// Types and scopes through Scopes; the AST itself is never modified.
type Result struct {
	Types  *typesystem.Types
	Env    *symbols.SymbolEnv
	Scopes map[*ast.Scope]*symbols.SymbolEnv
	Errors []*diagnostics.DiagnosticError
	// References maps a reference expression ID to the variable it resolved to.
	References map[int]typesystem.VariableInfo
	// TypePaths maps the ID of a member access whose object named a type or
	// namespace to the static member it was read as.
	TypePaths map[int]*ast.TypeMember
	// Imports lists every library brought during the check.
	Imports []*importer.ImportSpec
}

type pendingScope struct {
	scope *ast.Scope
	env   *symbols.SymbolEnv
}

// Checker assigns a type and a phase to every expression of a program and
// reports the errors it finds. A Checker checks one program.
type Checker struct {
	types   *typesystem.Types
	ts      *importer.TypeSystem
	imports []*importer.ImportSpec
	errors  *diagnostics.Collector

	queue      []pendingScope
	scopeEnvs  map[*ast.Scope]*symbols.SymbolEnv
	references map[int]typesystem.VariableInfo
	typePaths  map[int]*ast.TypeMember

	// scope is the scope whose statements are being checked.
	scope        *ast.Scope
	superTargets map[*ast.Scope]superTarget

	// inJSON counts the Json literals enclosing the current expression.
	inJSON    int
	inMutJSON bool
	stmtIdx   int

	sourceDir string
	sdkRoot   string
}

// Option configures a Checker.
type Option func(*Checker)

// WithSourceDir sets the directory libraries are searched from.
func WithSourceDir(dir string) Option {
	return func(c *Checker) { c.sourceDir = dir }
}

// WithSDKRoot selects the SDK manifest; empty means the embedded one.
func WithSDKRoot(root string) Option {
	return func(c *Checker) { c.sdkRoot = root }
}

// WithImports pre-supplies brought libraries, e.g. from an earlier check of
// the same unit.
func WithImports(specs ...*importer.ImportSpec) Option {
	return func(c *Checker) { c.imports = append(c.imports, specs...) }
}

// New creates a checker writing into types and importing through ts.
func New(types *typesystem.Types, ts *importer.TypeSystem, opts ...Option) *Checker {
	c := &Checker{
		types:      types,
		ts:         ts,
		errors:     diagnostics.NewCollector(),
		scopeEnvs:  make(map[*ast.Scope]*symbols.SymbolEnv),
		references: make(map[int]typesystem.VariableInfo),
		typePaths:  make(map[int]*ast.TypeMember),
		sourceDir:  ".",

		superTargets: make(map[*ast.Scope]superTarget),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check type checks prog. Scopes are processed breadth first: a scope's
// statements are checked before any nested scope (function bodies, blocks,
// branches) is entered.
func (c *Checker) Check(prog *ast.Program) *Result {
	env := symbols.NewSymbolEnv(nil, c.types.VoidType(), false, false, typesystem.Preflight, 0)
	c.addGlobals(env)

	c.queue = append(c.queue, pendingScope{scope: prog.Scope, env: env})
	for len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = c.queue[1:]
		c.checkScope(next.scope, next.env)
	}

	return &Result{
		Types:      c.types,
		Env:        env,
		Scopes:     c.scopeEnvs,
		Errors:     c.errors.Errors(),
		References: c.references,
		TypePaths:  c.typePaths,
		Imports:    c.imports,
	}
}

// Errors returns the diagnostics reported so far.
func (c *Checker) Errors() []*diagnostics.DiagnosticError {
	return c.errors.Errors()
}

func (c *Checker) checkScope(scope *ast.Scope, env *symbols.SymbolEnv) {
	c.scope = scope
	c.scopeEnvs[scope] = env
	for _, stmt := range scope.Statements {
		c.checkStatement(stmt, env)
	}
}

// enqueue schedules scope to be checked in env after the current scope.
func (c *Checker) enqueue(scope *ast.Scope, env *symbols.SymbolEnv) {
	if scope == nil {
		return
	}
	c.queue = append(c.queue, pendingScope{scope: scope, env: env})
}

func (c *Checker) errorf(code diagnostics.ErrorCode, span token.Span, format string, args ...interface{}) {
	c.errors.Errorf(code, span, format, args...)
}

// resolvedError is the result of an expression whose error was reported.
func (c *Checker) resolvedError() (typesystem.Type, typesystem.Phase) {
	return c.types.ErrorType(), typesystem.Independent
}

func (c *Checker) errorVariable() typesystem.VariableInfo {
	return typesystem.VariableInfo{
		Name:  config.ErrorSymbolName,
		Type:  c.types.ErrorType(),
		Phase: typesystem.Independent,
		Kind:  typesystem.ErrorVariable,
	}
}

func (c *Checker) errorVariableAt(code diagnostics.ErrorCode, span token.Span, format string, args ...interface{}) (typesystem.VariableInfo, typesystem.Phase) {
	c.errorf(code, span, format, args...)
	return c.errorVariable(), typesystem.Independent
}

func (c *Checker) define(env *symbols.SymbolEnv, sym ast.Symbol, kind typesystem.SymbolKind, pos typesystem.StatementIdx) {
	if err := env.Define(sym.Name, kind, pos); err != nil {
		c.errorf(diagnostics.ErrDecl, sym.Span, "%s", err.Error())
	}
}

// addGlobals brings std into the root scope together with the global
// functions (log, assert, throw, panic).
func (c *Checker) addGlobals(env *symbols.SymbolEnv) {
	alias := ast.Symbol{Name: config.StdModule}
	im := c.addModuleToEnv(env, config.SDKAssembly, []string{config.StdModule}, alias, nil)
	if im == nil {
		return
	}
	if err := im.ImportGlobals(env); err != nil {
		c.errorf(diagnostics.ErrModule, token.Span{}, "%s", err.Error())
	}
}

// addModuleToEnv loads a library (once per alias) and binds alias in env.
// It returns the importer used, or nil when nothing was bound.
func (c *Checker) addModuleToEnv(env *symbols.SymbolEnv, library string, filter []string, alias ast.Symbol, stmt ast.Statement) *importer.Importer {
	var span token.Span
	idx := typesystem.Top
	if stmt != nil {
		span = stmt.GetSpan()
		idx = typesystem.StatementIdx(stmt.StmtIdx())
	}

	spec := c.findImport(library, alias.Name)
	if spec == nil {
		var asmName string
		var err error
		if library == config.SDKAssembly {
			asmName, err = c.ts.LoadModule(c.sdkRoot)
			if err != nil {
				root := c.sdkRoot
				if root == "" {
					root = config.EmbeddedSDK
				}
				c.errorf(diagnostics.ErrModule, span, "Cannot locate standard library from \"%s\": %s", root, err)
				return nil
			}
		} else {
			asmName, err = c.ts.LoadDependency(library, c.sourceDir)
			if err != nil {
				c.errorf(diagnostics.ErrModule, span, "Cannot find module \"%s\" in source directory: %s", library, err)
				return nil
			}
		}
		spec = &importer.ImportSpec{Assembly: asmName, Filter: filter, Alias: alias.Name, StatementIdx: idx}
		c.imports = append(c.imports, spec)
	}

	if _, ok := env.Lookup(alias.Name, spec.StatementIdx); ok {
		c.errorf(diagnostics.ErrModule, alias.Span, "\"%s\" is already defined", alias.Name)
		return nil
	}

	im, err := importer.New(spec, c.types, c.ts)
	if err != nil {
		c.errorf(diagnostics.ErrModule, span, "%s", err.Error())
		return nil
	}
	if spec.IsSDK() {
		if err := im.DeepImportSubmodule(strings.Join(spec.Filter, ".")); err != nil {
			c.errorf(diagnostics.ErrModule, span, "%s", err.Error())
			return nil
		}
	}
	if err := im.ImportRootTypes(); err != nil {
		c.errorf(diagnostics.ErrModule, span, "%s", err.Error())
		return nil
	}
	if err := im.ImportSubmodulesToEnv(env); err != nil {
		c.errorf(diagnostics.ErrModule, alias.Span, "%s", err.Error())
		return nil
	}
	return im
}

func (c *Checker) findImport(library, alias string) *importer.ImportSpec {
	for _, spec := range c.imports {
		if spec.Alias != alias {
			continue
		}
		if spec.Assembly == library {
			return spec
		}
		if asm, ok := c.ts.Assembly(spec.Assembly); ok && asm.Source == library {
			return spec
		}
	}
	return nil
}
