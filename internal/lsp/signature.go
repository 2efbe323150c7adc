package lsp

import (
	"fmt"
	"strings"

	"github.com/funvibe/phasec/internal/ast"
	"github.com/funvibe/phasec/internal/checker"
	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/token"
	"github.com/funvibe/phasec/internal/typesystem"
)

// SignatureHelp describes the function being called at a cursor position.
type SignatureHelp struct {
	Label           string
	Documentation   string
	Parameters      []ParameterInformation
	ActiveParameter int
}

type ParameterInformation struct {
	Label         string
	Documentation string
}

// SignatureHelp returns the signature of the innermost call or object
// construction around pos, or nil when there is none.
func (s *Session) SignatureHelp(uri string, pos token.Position) *SignatureHelp {
	fs, ok := s.Get(uri)
	if !ok || fs.Context.AstRoot == nil || fs.Context.Result == nil {
		return nil
	}
	res := fs.Context.Result

	call := innermostCall(fs.Context.AstRoot, pos)
	if call == nil {
		return nil
	}

	var (
		sig  *typesystem.Function
		docs string
		args *ast.ArgList
	)
	switch e := call.(type) {
	case *ast.NewExpression:
		class := newClass(e, res)
		if class == nil {
			return nil
		}
		sig = constructor(class)
		if sig == nil {
			return nil
		}
		docs = sig.Docs.Render()
		if docs == "" {
			docs = class.Docs.Render()
		}
		args = e.Args
	case *ast.CallExpression:
		t, ok := res.Types.ExprType(e.Callee)
		if !ok {
			return nil
		}
		sig = callable(typesystem.MaybeUnwrapOption(t))
		if sig == nil {
			return nil
		}
		docs = sig.Docs.Render()
		if docs == "" {
			if v, ok := res.References[e.Callee.ExprID()]; ok {
				docs = v.Docs.Render()
			}
		}
		args = e.Args
	}

	params := make([]ParameterInformation, len(sig.Parameters))
	labels := make([]string, len(sig.Parameters))
	for i, p := range sig.Parameters {
		structArg, isStruct := typesystem.MaybeUnwrapOption(p.Type).(*typesystem.Struct)
		last := i == len(sig.Parameters)-1
		if last && isStruct {
			labels[i] = "..." + p.Name
		} else {
			labels[i] = fmt.Sprintf("%s: %s", p.Name, p.Type)
		}
		paramDocs := p.Docs.Render()
		if paramDocs == "" && isStruct {
			paramDocs = structArg.Docs.Render()
		}
		params[i] = ParameterInformation{Label: labels[i], Documentation: paramDocs}
	}

	return &SignatureHelp{
		Label:           fmt.Sprintf("(%s): %s", strings.Join(labels, ", "), sig.ReturnType),
		Documentation:   docs,
		Parameters:      params,
		ActiveParameter: activeParameter(args, pos, len(params)),
	}
}

// activeParameter is the last parameter while the cursor is on a named
// argument. Otherwise it counts the positional arguments that end before
// the cursor.
func activeParameter(args *ast.ArgList, pos token.Position, nparams int) int {
	active := 0
	if args != nil {
		inNamed := false
		for _, na := range args.Named {
			if na.Value.GetSpan().Contains(pos) {
				inNamed = true
				break
			}
		}
		if inNamed {
			active = nparams - 1
		} else {
			after := 0
			for _, a := range args.Pos {
				if !a.GetSpan().End.Before(pos) {
					after++
				}
			}
			active = len(args.Pos) - after
		}
	}
	return max(0, min(active, nparams-1))
}

// innermostCall finds the deepest call or new expression whose span holds pos.
func innermostCall(prog *ast.Program, pos token.Position) ast.Expression {
	var found ast.Expression
	ast.Inspect(prog, func(n ast.Node) bool {
		switch e := n.(type) {
		case *ast.CallExpression:
			if e.Span.Contains(pos) {
				found = e
			}
		case *ast.NewExpression:
			if e.Span.Contains(pos) {
				found = e
			}
		}
		return true
	})
	return found
}

// newClass resolves the class of a new expression through the root env,
// falling back to the type the checker recorded.
func newClass(e *ast.NewExpression, res *checker.Result) *typesystem.Class {
	if ref, ok := e.Class.(*ast.ReferenceExpression); ok {
		if tr, ok := ref.Ref.(*ast.TypeReference); ok && tr.Type != nil {
			path := tr.Type.FullPath()
			names := make([]string, len(path))
			for i, sym := range path {
				names[i] = sym.Name
			}
			lr := res.Env.LookupNested(names, typesystem.Anywhere)
			if lr.Status == typesystem.LookupFound {
				if t, ok := typesystem.AsType(lr.Kind); ok {
					if c, ok := t.(*typesystem.Class); ok {
						return c
					}
				}
			}
		}
	}
	if t, ok := res.Types.ExprType(e); ok {
		if c, ok := t.(*typesystem.Class); ok {
			return c
		}
	}
	return nil
}

func constructor(class *typesystem.Class) *typesystem.Function {
	name := config.InitName
	if class.Phase == typesystem.Inflight {
		name = config.InflightInitName
	}
	lr := class.Env.LookupExt(name, typesystem.Anywhere)
	if lr.Status != typesystem.LookupFound {
		return nil
	}
	v, ok := typesystem.AsVariable(lr.Kind)
	if !ok {
		return nil
	}
	fn, _ := v.Type.(*typesystem.Function)
	return fn
}

// callable returns the signature invoked when a value of type t is called.
func callable(t typesystem.Type) *typesystem.Function {
	switch t := t.(type) {
	case *typesystem.Function:
		return t
	case *typesystem.Class:
		return t.ClosureMethod()
	}
	return nil
}
