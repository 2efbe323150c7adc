package importer

import (
	"fmt"
	"go/types"
	"os"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

// loadGoPackage lowers the exported API of a Go package: struct types
// become structs, package functions become static methods of a root Util
// class. Values that have no counterpart map to any.
func loadGoPackage(pkgPath, dir string) (*Assembly, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes,
		Dir:  dir,
		Env:  append(os.Environ(), "GOWORK=off"),
	}
	pkgs, err := packages.Load(cfg, pkgPath)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, &NotFoundError{Name: GoPackagePrefix + pkgPath, Searched: []string{dir}}
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		var errs []string
		for _, e := range pkg.Errors {
			errs = append(errs, e.Msg)
		}
		return nil, fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}

	l := &goLowering{pkg: pkg.Types}
	asm := &Assembly{Name: GoPackagePrefix + pkgPath, Source: pkg.PkgPath}
	util := &TypeDecl{FQN: "Util", Kind: KindClass, Phase: "independent"}

	scope := pkg.Types.Scope()
	names := scope.Names()
	sort.Strings(names)
	for _, name := range names {
		obj := scope.Lookup(name)
		if !obj.Exported() {
			continue
		}
		switch obj := obj.(type) {
		case *types.TypeName:
			if st, ok := obj.Type().Underlying().(*types.Struct); ok {
				asm.Types = append(asm.Types, l.structDecl(name, st))
			}
		case *types.Func:
			sig, ok := obj.Type().(*types.Signature)
			if !ok || sig.TypeParams().Len() > 0 {
				continue
			}
			m := l.methodDecl(lcFirst(name), sig)
			m.Static = true
			util.Methods = append(util.Methods, m)
		}
	}
	if len(util.Methods) > 0 {
		asm.Types = append(asm.Types, util)
	}
	if err := asm.validate(); err != nil {
		return nil, err
	}
	return asm, nil
}

type goLowering struct {
	pkg *types.Package
}

func (l *goLowering) structDecl(name string, st *types.Struct) *TypeDecl {
	decl := &TypeDecl{FQN: name, Kind: KindStruct}
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Exported() || f.Embedded() {
			continue
		}
		decl.Properties = append(decl.Properties, &PropertyDecl{Name: lcFirst(f.Name()), Type: l.typeRef(f.Type())})
	}
	return decl
}

func (l *goLowering) methodDecl(name string, sig *types.Signature) *MethodDecl {
	m := &MethodDecl{Name: name}
	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		if i == 0 && isContextType(p.Type()) {
			continue
		}
		pname := p.Name()
		if pname == "" || pname == "_" {
			pname = fmt.Sprintf("arg%d", i)
		}
		t := p.Type()
		var ref string
		if sig.Variadic() && i == params.Len()-1 {
			ref = "Array<" + l.typeRef(t.(*types.Slice).Elem()) + ">"
		} else {
			ref = l.typeRef(t)
		}
		m.Params = append(m.Params, ParamDecl{Name: pname, Type: ref})
	}

	results := sig.Results()
	n := results.Len()
	if n > 0 && isErrorType(results.At(n-1).Type()) {
		n--
	}
	switch n {
	case 0:
	case 1:
		m.Returns = l.typeRef(results.At(0).Type())
	default:
		m.Returns = "any"
	}
	return m
}

// typeRef renders a Go type as a manifest type expression.
func (l *goLowering) typeRef(t types.Type) string {
	switch t := t.(type) {
	case *types.Basic:
		switch {
		case t.Info()&types.IsBoolean != 0:
			return "bool"
		case t.Info()&types.IsNumeric != 0:
			return "num"
		case t.Info()&types.IsString != 0:
			return "str"
		}
		return "any"
	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() != nil && obj.Pkg().Path() == "time" && obj.Name() == "Duration" {
			return "duration"
		}
		if obj.Pkg() == l.pkg && obj.Exported() {
			if _, ok := t.Underlying().(*types.Struct); ok {
				return obj.Name()
			}
		}
		if _, ok := t.Underlying().(*types.Basic); ok {
			return l.typeRef(t.Underlying())
		}
		return "any"
	case *types.Pointer:
		inner := l.typeRef(t.Elem())
		if inner == "any" {
			return inner
		}
		return inner + "?"
	case *types.Slice:
		if b, ok := t.Elem().(*types.Basic); ok && b.Kind() == types.Byte {
			return "str"
		}
		return "Array<" + l.typeRef(t.Elem()) + ">"
	case *types.Array:
		return "Array<" + l.typeRef(t.Elem()) + ">"
	case *types.Map:
		if k, ok := t.Key().Underlying().(*types.Basic); ok && k.Info()&types.IsString != 0 {
			return "Map<" + l.typeRef(t.Elem()) + ">"
		}
		return "any"
	}
	return "any"
}

func isContextType(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == "context" && obj.Name() == "Context"
}

func isErrorType(t types.Type) bool {
	if named, ok := t.(*types.Named); ok {
		t = named.Underlying()
	}
	iface, ok := t.(*types.Interface)
	if !ok {
		return false
	}
	return iface.NumMethods() == 1 && iface.Method(0).Name() == "Error"
}

func lcFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
