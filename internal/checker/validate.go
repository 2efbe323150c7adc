package checker

import (
	"fmt"
	"strings"

	"github.com/funvibe/phasec/internal/ast"
	"github.com/funvibe/phasec/internal/diagnostics"
	"github.com/funvibe/phasec/internal/importer"
	"github.com/funvibe/phasec/internal/symbols"
	"github.com/funvibe/phasec/internal/token"
	"github.com/funvibe/phasec/internal/typesystem"
)

// validateType reports an error unless actual may be used where expected is
// required. It returns actual on success and expected otherwise.
func (c *Checker) validateType(actual, expected typesystem.Type, span token.Span) typesystem.Type {
	return c.validateTypeIn(actual, []typesystem.Type{expected}, span)
}

// validateTypeIn is validateType against a set of acceptable types.
// Unresolved types on either side are accepted silently: their error was
// already reported.
func (c *Checker) validateTypeIn(actual typesystem.Type, expected []typesystem.Type, span token.Span) typesystem.Type {
	if len(expected) == 0 {
		panic("validateTypeIn: no expected types")
	}
	if typesystem.IsAnything(actual) {
		return actual
	}
	for _, t := range expected {
		if typesystem.IsSubtypeOf(actual, t) {
			return actual
		}
	}
	if typesystem.IsUnresolved(actual) {
		return actual
	}
	for _, t := range expected {
		if typesystem.IsUnresolved(t) {
			return actual
		}
		if typesystem.IsJson(t) && typesystem.IsJSONLegalValue(actual) {
			return actual
		}
	}

	var msg string
	if len(expected) == 1 {
		msg = fmt.Sprintf("Expected type to be \"%s\", but got \"%s\" instead", expected[0], actual)
		if typesystem.IsNil(actual) {
			msg += fmt.Sprintf(" (hint: to allow \"nil\" assignment use optional type: \"%s?\")", expected[0])
		}
	} else {
		names := make([]string, len(expected))
		for i, t := range expected {
			names[i] = t.String()
		}
		msg = fmt.Sprintf("Expected type to be one of \"%s\", but got \"%s\" instead", strings.Join(names, ","), actual)
	}
	c.errorf(diagnostics.ErrType, span, "%s", msg)
	return expected[0]
}

// checkJSONOrValidate validates actual against expected outside Json
// literals; inside one, any Json-legal value is accepted.
func (c *Checker) checkJSONOrValidate(actual, expected typesystem.Type, span token.Span) typesystem.Type {
	if c.inJSON == 0 {
		return c.validateType(actual, expected, span)
	}
	if !typesystem.IsJSONLegalValue(actual) {
		c.reportNotJSON(actual, span)
		return c.types.ErrorType()
	}
	return actual
}

func (c *Checker) reportNotJSON(actual typesystem.Type, span token.Span) {
	c.errorf(diagnostics.ErrType, span,
		"Expected \"Json\" elements to be Json values (https://www.json.org/json-en.html), but got \"%s\" which is not a Json value", actual)
}

var annotationPrimitives = map[ast.TypeAnnotationKind]typesystem.PrimitiveKind{
	ast.TypeNumber:   typesystem.Number,
	ast.TypeString:   typesystem.String,
	ast.TypeBool:     typesystem.Boolean,
	ast.TypeDuration: typesystem.Duration,
	ast.TypeVoid:     typesystem.Void,
	ast.TypeJson:     typesystem.Json,
	ast.TypeMutJson:  typesystem.MutJson,
	ast.TypeAnything: typesystem.Anything,
}

// resolveTypeAnnotation turns a written type into an arena type. Unknown
// user types are reported and become the unresolved type.
func (c *Checker) resolveTypeAnnotation(ann *ast.TypeAnnotation, env *symbols.SymbolEnv) typesystem.Type {
	if ann == nil {
		return c.types.VoidType()
	}
	if k, ok := annotationPrimitives[ann.Kind]; ok {
		return c.types.Primitive(k)
	}
	switch {
	case ann.Kind == ast.TypeOptional:
		return c.types.MakeOption(c.resolveTypeAnnotation(ann.Inner, env))
	case ann.Kind.IsCollection():
		kind, ok := typesystem.CollectionKindByName(string(ann.Kind))
		if !ok {
			panic(fmt.Sprintf("unknown collection annotation %s", ann.Kind))
		}
		return c.types.Collection(kind, c.resolveTypeAnnotation(ann.Inner, env))
	case ann.Kind == ast.TypeFunction:
		return c.resolveSignature(ann.Func, env)
	case ann.Kind == ast.TypeUserDefined:
		t, err := c.resolveUserDefinedType(ann.UDT, env, c.stmtIdx)
		if err != nil {
			c.errors.Add(err)
			return c.types.ErrorType()
		}
		return t
	}
	c.errorf(diagnostics.ErrUnexpected, ann.Span, "Unknown type annotation \"%s\"", ann.Kind)
	return c.types.ErrorType()
}

// resolveSignature builds the function type of a written signature. The
// result is always a *typesystem.Function.
func (c *Checker) resolveSignature(sig *ast.FunctionSignatureAnnotation, env *symbols.SymbolEnv) *typesystem.Function {
	fn := &typesystem.Function{Phase: sig.Phase, ReturnType: c.types.VoidType()}
	for _, p := range sig.Parameters {
		fn.Parameters = append(fn.Parameters, typesystem.FunctionParameter{
			Name: p.Name.Name,
			Type: c.resolveTypeAnnotation(p.Type, env),
		})
	}
	if sig.ReturnType != nil {
		fn.ReturnType = c.resolveTypeAnnotation(sig.ReturnType, env)
	}
	c.types.AddType(fn)
	return fn
}

// resolveUserDefinedType looks a type path up in env. When the root names a
// brought library whose type was not imported yet, the type is imported on
// demand and looked up again.
func (c *Checker) resolveUserDefinedType(udt *ast.UserDefinedType, env *symbols.SymbolEnv, stmtIdx int) (typesystem.Type, *diagnostics.DiagnosticError) {
	t, err := lookupUserDefinedType(udt, env, stmtIdx)
	if err == nil {
		return t, nil
	}
	if c.importOnDemand(udt) {
		if t, retryErr := lookupUserDefinedType(udt, env, stmtIdx); retryErr == nil {
			return t, nil
		}
	}
	return nil, err
}

func lookupUserDefinedType(udt *ast.UserDefinedType, env *symbols.SymbolEnv, stmtIdx int) (typesystem.Type, *diagnostics.DiagnosticError) {
	path := udt.FullPath()
	names := make([]string, len(path))
	for i, s := range path {
		names[i] = s.Name
	}
	res := env.LookupNested(names, typesystem.StatementIdx(stmtIdx))
	if res.Status != typesystem.LookupFound {
		return nil, lookupError(res, udt.FullPathStr(), udt.Span)
	}
	t, ok := typesystem.AsType(res.Kind)
	if !ok {
		last := path[len(path)-1]
		return nil, diagnostics.NewError(diagnostics.ErrKind, last.Span,
			"Expected \"%s\" to be a type but it's a %s", last.Name, res.Kind.KindName())
	}
	return t, nil
}

func (c *Checker) importOnDemand(udt *ast.UserDefinedType) bool {
	if len(udt.Fields) == 0 {
		return false
	}
	fields := make([]string, len(udt.Fields))
	for i, f := range udt.Fields {
		fields[i] = f.Name
	}
	for _, spec := range c.imports {
		if spec.Alias != udt.Root.Name {
			continue
		}
		prefix := spec.Assembly + "."
		if spec.IsSDK() && len(spec.Filter) > 0 {
			prefix += strings.Join(spec.Filter, ".") + "."
		}
		im, err := importer.New(spec, c.types, c.ts)
		if err != nil {
			return false
		}
		return im.ImportType(prefix + strings.Join(fields, "."))
	}
	return false
}

// lookupError converts a failed lookup into a diagnostic. what is the
// looked up path as written.
func lookupError(res typesystem.LookupResult, what string, span token.Span) *diagnostics.DiagnosticError {
	switch res.Status {
	case typesystem.LookupNotFound:
		return diagnostics.NewError(diagnostics.ErrLookup, span, "Unknown symbol \"%s\"", res.Name)
	case typesystem.LookupDefinedLater:
		return diagnostics.NewError(diagnostics.ErrLookup, span, "Symbol \"%s\" used before being defined", what)
	case typesystem.LookupExpectedNamespace:
		return diagnostics.NewError(diagnostics.ErrLookup, span, "Expected \"%s\" in \"%s\" to be a namespace", res.Name, what)
	}
	panic("lookupError: lookup succeeded")
}
