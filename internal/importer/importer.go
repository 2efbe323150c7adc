package importer

import (
	"fmt"
	"strings"

	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/symbols"
	"github.com/funvibe/phasec/internal/typesystem"
)

// ImportSpec records one bring: which assembly, which submodule of it, and
// the name it is bound to in the importing scope.
type ImportSpec struct {
	Assembly string
	// Filter selects a submodule path, e.g. ["cloud"]. Empty binds the
	// assembly root.
	Filter       []string
	Alias        string
	StatementIdx typesystem.StatementIdx
}

// IsSDK reports whether the spec brings from the standard SDK.
func (s *ImportSpec) IsSDK() bool {
	return s.Assembly == config.SDKAssembly
}

// Importer materializes declarations of one assembly into a type arena.
// Imported types live in the arena's libraries env under
// <assembly>.<submodule>.<Type>; brought aliases are namespaces pointing
// into it.
type Importer struct {
	spec  *ImportSpec
	types *typesystem.Types
	asm   *Assembly
	ts    *TypeSystem
	libs  *symbols.SymbolEnv
	// classes whose base is being resolved
	pending map[*TypeDecl]bool
}

// New creates an importer for spec. The assembly must already be loaded.
func New(spec *ImportSpec, types *typesystem.Types, ts *TypeSystem) (*Importer, error) {
	asm, ok := ts.Assembly(spec.Assembly)
	if !ok {
		return nil, fmt.Errorf("assembly %s is not loaded", spec.Assembly)
	}
	return &Importer{spec: spec, types: types, asm: asm, ts: ts, libs: Libraries(types), pending: make(map[*TypeDecl]bool)}, nil
}

// Libraries returns the arena's libraries env, creating it on first use.
func Libraries(types *typesystem.Types) *symbols.SymbolEnv {
	if env, ok := types.Libraries().(*symbols.SymbolEnv); ok && env != nil {
		return env
	}
	env := symbols.NewSymbolEnv(nil, types.VoidType(), false, false, typesystem.Independent, 0)
	types.SetLibraries(env)
	return env
}

// ImportType materializes the type with the given fully qualified name
// ("<assembly>.<submodule>.<Type>") and reports whether it exists.
func (im *Importer) ImportType(fqn string) bool {
	rel, ok := strings.CutPrefix(fqn, im.asm.Name+".")
	if !ok {
		return false
	}
	decl, ok := im.asm.Lookup(rel)
	if !ok {
		return false
	}
	_, err := im.importDecl(im.asm, decl)
	return err == nil
}

// DeepImportSubmodule imports every type in the submodule (and its nested
// submodules). An empty name imports the whole assembly.
func (im *Importer) DeepImportSubmodule(submodule string) error {
	for _, decl := range im.asm.Types {
		sub := decl.Submodule()
		if submodule != "" && sub != submodule && !strings.HasPrefix(sub, submodule+".") {
			continue
		}
		if _, err := im.importDecl(im.asm, decl); err != nil {
			return err
		}
	}
	ns := im.namespace(im.asm, splitPath(submodule))
	ns.Loaded = true
	return nil
}

// ImportRootTypes imports the types declared outside any submodule.
func (im *Importer) ImportRootTypes() error {
	for _, decl := range im.asm.Types {
		if decl.Submodule() != "" {
			continue
		}
		if _, err := im.importDecl(im.asm, decl); err != nil {
			return err
		}
	}
	return nil
}

// ImportSubmodulesToEnv binds the spec's alias in env to the selected
// namespace. Submodules that were not deep-imported get empty namespaces
// whose types are imported on demand.
func (im *Importer) ImportSubmodulesToEnv(env *symbols.SymbolEnv) error {
	for _, sub := range im.asm.Submodules() {
		im.namespace(im.asm, splitPath(sub))
	}
	ns := im.namespace(im.asm, im.spec.Filter)
	alias := &typesystem.Namespace{Name: im.spec.Alias, Env: ns.Env, Loaded: ns.Loaded}
	return env.Define(im.spec.Alias, alias, im.spec.StatementIdx)
}

// ImportGlobals defines the assembly's global functions in env.
func (im *Importer) ImportGlobals(env *symbols.SymbolEnv) error {
	for _, g := range im.asm.Globals {
		fn, err := im.function(im.asm, g, nil, typesystem.Independent)
		if err != nil {
			return fmt.Errorf("global %s: %w", g.Name, err)
		}
		v := typesystem.VariableInfo{
			Name:  g.Name,
			Type:  fn,
			Phase: fn.(*typesystem.Function).Phase,
			Kind:  typesystem.FreeVariable,
			Docs:  g.Docs,
		}
		if err := env.Define(g.Name, v, typesystem.Top); err != nil {
			return err
		}
	}
	return nil
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// libraryKey is the name of an assembly inside the libraries env. Lookups
// split paths on ".", so dots in assembly names are replaced.
func libraryKey(assembly string) string {
	return strings.ReplaceAll(assembly, ".", "_")
}

// namespace returns (creating as needed) the namespace of a submodule path
// inside the assembly's library namespace.
func (im *Importer) namespace(asm *Assembly, path []string) *typesystem.Namespace {
	ns := im.child(im.libs, libraryKey(asm.Name))
	for _, p := range path {
		ns = im.child(ns.Env.(*symbols.SymbolEnv), p)
	}
	return ns
}

func (im *Importer) child(env *symbols.SymbolEnv, name string) *typesystem.Namespace {
	if kind, ok := env.Lookup(name, typesystem.Anywhere); ok {
		if ns, ok := typesystem.AsNamespace(kind); ok {
			return ns
		}
		panic(fmt.Sprintf("importer: %s is a %s, not a namespace", name, kind.KindName()))
	}
	ns := im.types.AddNamespace(&typesystem.Namespace{
		Name: name,
		Env:  symbols.NewSymbolEnv(nil, im.types.VoidType(), false, false, typesystem.Independent, 0),
	})
	if err := env.Define(name, ns, typesystem.Top); err != nil {
		panic(err)
	}
	return ns
}
