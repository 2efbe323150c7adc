package ast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/funvibe/phasec/internal/token"
	"github.com/funvibe/phasec/internal/typesystem"
)

// ErrUnknownNode is returned for a node whose "kind" is not recognized.
var ErrUnknownNode = errors.New("unknown node kind")

// Decode reads a JSON syntax tree document:
//
//	{"file": "main.ph", "scope": [<statement>...]}
//
// Every node is an object with a "kind" and an optional "span"
// [line, col, endLine, endCol] (zero based). Expression IDs are assigned in
// document order. Type annotations may be written as strings such as
// "Array<str>?" or "cloud.Bucket"; function types use the object form
// {"kind": "function", "params": [...], "return": ..., "phase": ...}.
func Decode(r io.Reader) (*Program, error) {
	var doc map[string]any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("read syntax tree: %w", err)
	}
	file, _ := doc["file"].(string)
	d := &decoder{file: file, ids: NewIDGen(-1), phase: typesystem.Preflight}
	stmts, err := d.statements(doc["scope"])
	if err != nil {
		return nil, err
	}
	return &Program{
		File:      file,
		Scope:     &Scope{Statements: stmts, Span: d.span(doc)},
		MaxExprID: d.ids.Last(),
	}, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte) (*Program, error) {
	return Decode(bytes.NewReader(data))
}

type decoder struct {
	file string
	ids  *IDGen
	// phase is the phase of the code being decoded; functions and fields
	// that do not name a phase take it.
	phase typesystem.Phase
}

func (d *decoder) span(node map[string]any) token.Span {
	raw, ok := node["span"].([]any)
	if !ok || len(raw) != 4 {
		return token.Span{File: d.file}
	}
	n := make([]int, 4)
	for i, v := range raw {
		f, _ := v.(float64)
		n[i] = int(f)
	}
	return token.Span{
		File:  d.file,
		Start: token.Position{Line: n[0], Col: n[1]},
		End:   token.Position{Line: n[2], Col: n[3]},
	}
}

func (d *decoder) exprBase(node map[string]any) ExprBase {
	return ExprBase{ID: d.ids.Next(), Span: d.span(node)}
}

func (d *decoder) stmtBase(node map[string]any, idx int) StmtBase {
	return StmtBase{Idx: idx, Span: d.span(node)}
}

func asObject(v any, what string) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected an object, got %T", what, v)
	}
	return m, nil
}

func optObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func str(node map[string]any, key string) string {
	s, _ := node[key].(string)
	return s
}

func boolean(node map[string]any, key string) bool {
	b, _ := node[key].(bool)
	return b
}

// symbol accepts "name" or {"name": ..., "span": [...]}. Bare strings take
// the span of the enclosing node.
func (d *decoder) symbol(v any, owner map[string]any) (Symbol, error) {
	switch s := v.(type) {
	case string:
		return Symbol{Name: s, Span: d.span(owner)}, nil
	case map[string]any:
		name, ok := s["name"].(string)
		if !ok {
			return Symbol{}, fmt.Errorf("symbol without a name")
		}
		return Symbol{Name: name, Span: d.span(s)}, nil
	}
	return Symbol{}, fmt.Errorf("expected a symbol, got %T", v)
}

func (d *decoder) optSymbol(v any, owner map[string]any) (*Symbol, error) {
	if v == nil {
		return nil, nil
	}
	s, err := d.symbol(v, owner)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (d *decoder) phaseOf(node map[string]any, def typesystem.Phase) (typesystem.Phase, error) {
	switch str(node, "phase") {
	case "":
		return def, nil
	case "preflight":
		return typesystem.Preflight, nil
	case "inflight":
		return typesystem.Inflight, nil
	case "independent", "phase-independent":
		return typesystem.Independent, nil
	}
	return def, fmt.Errorf("unknown phase %q", str(node, "phase"))
}

// udt accepts "a.b.C" or {"name": "a.b.C", "span": [...]}.
func (d *decoder) udt(v any, owner map[string]any) (*UserDefinedType, error) {
	var path string
	span := d.span(owner)
	switch u := v.(type) {
	case string:
		path = u
	case map[string]any:
		path = str(u, "name")
		span = d.span(u)
	default:
		return nil, fmt.Errorf("expected a type name, got %T", v)
	}
	if path == "" {
		return nil, fmt.Errorf("empty type name")
	}
	parts := strings.Split(path, ".")
	out := &UserDefinedType{Root: Symbol{Name: parts[0], Span: span}, Span: span}
	for _, p := range parts[1:] {
		out.Fields = append(out.Fields, Symbol{Name: p, Span: span})
	}
	return out, nil
}

func (d *decoder) udts(v any, owner map[string]any) ([]*UserDefinedType, error) {
	list, _ := v.([]any)
	out := make([]*UserDefinedType, 0, len(list))
	for _, raw := range list {
		u, err := d.udt(raw, owner)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// typeAnnotation decodes a type written as a string or a function object.
// A nil value yields a nil annotation.
func (d *decoder) typeAnnotation(v any, owner map[string]any) (*TypeAnnotation, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		p := &typeParser{src: t, span: d.span(owner), d: d}
		ann, err := p.parse()
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", t, err)
		}
		return ann, nil
	case map[string]any:
		if str(t, "kind") != "function" {
			return nil, fmt.Errorf("type object must be a function, got %q", str(t, "kind"))
		}
		sig, err := d.signature(t)
		if err != nil {
			return nil, err
		}
		return &TypeAnnotation{Kind: TypeFunction, Func: sig, Span: d.span(t)}, nil
	}
	return nil, fmt.Errorf("expected a type, got %T", v)
}

func (d *decoder) signature(node map[string]any) (*FunctionSignatureAnnotation, error) {
	phase, err := d.phaseOf(node, d.phase)
	if err != nil {
		return nil, err
	}
	sig := &FunctionSignatureAnnotation{Phase: phase, Span: d.span(node)}
	params, _ := node["params"].([]any)
	for _, raw := range params {
		pn, err := asObject(raw, "parameter")
		if err != nil {
			return nil, err
		}
		name, err := d.symbol(pn["name"], pn)
		if err != nil {
			return nil, err
		}
		typ, err := d.typeAnnotation(pn["type"], pn)
		if err != nil {
			return nil, err
		}
		if typ == nil {
			return nil, fmt.Errorf("parameter %s has no type", name.Name)
		}
		sig.Parameters = append(sig.Parameters, ParameterDecl{Name: name, Type: typ, Reassignable: boolean(pn, "var")})
	}
	sig.ReturnType, err = d.typeAnnotation(node["return"], node)
	if err != nil {
		return nil, err
	}
	return sig, nil
}

func (d *decoder) functionDef(v any) (*FunctionDefinition, error) {
	if v == nil {
		return nil, nil
	}
	node, err := asObject(v, "function")
	if err != nil {
		return nil, err
	}
	sig, err := d.signature(node)
	if err != nil {
		return nil, err
	}
	def := &FunctionDefinition{
		Signature: sig,
		Extern:    str(node, "extern"),
		IsStatic:  boolean(node, "static"),
		Doc:       str(node, "doc"),
		Span:      d.span(node),
	}
	if def.Extern == "" {
		outer := d.phase
		if sig.Phase != typesystem.Independent {
			d.phase = sig.Phase
		}
		body, err := d.statements(node["body"])
		d.phase = outer
		if err != nil {
			return nil, err
		}
		def.Body = &Scope{Statements: body, Span: def.Span}
	}
	return def, nil
}

// typeParser reads the string form of type annotations:
//
//	T?  Array<T>  MutArray<T>  Map<T>  MutMap<T>  Set<T>  MutSet<T>  a.b.C
type typeParser struct {
	src  string
	pos  int
	span token.Span
	d    *decoder
}

func (p *typeParser) parse() (*TypeAnnotation, error) {
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

func (p *typeParser) parseType() (*TypeAnnotation, error) {
	name := p.ident()
	if name == "" {
		return nil, fmt.Errorf("expected a type name at offset %d", p.pos)
	}
	var t *TypeAnnotation
	kind := TypeAnnotationKind(name)
	switch {
	case kind.IsCollection():
		if !p.accept('<') {
			return nil, fmt.Errorf("%s needs an element type", name)
		}
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if !p.accept('>') {
			return nil, fmt.Errorf("missing '>' after %s element type", name)
		}
		t = &TypeAnnotation{Kind: kind, Inner: inner, Span: p.span}
	case kind == TypeNumber, kind == TypeString, kind == TypeBool, kind == TypeDuration,
		kind == TypeVoid, kind == TypeJson, kind == TypeMutJson, kind == TypeAnything:
		t = &TypeAnnotation{Kind: kind, Span: p.span}
	default:
		udt, err := p.d.udt(map[string]any{"name": name}, nil)
		if err != nil {
			return nil, err
		}
		udt.Span = p.span
		udt.Root.Span = p.span
		for i := range udt.Fields {
			udt.Fields[i].Span = p.span
		}
		t = &TypeAnnotation{Kind: TypeUserDefined, UDT: udt, Span: p.span}
	}
	for p.accept('?') {
		t = &TypeAnnotation{Kind: TypeOptional, Inner: t, Span: p.span}
	}
	return t, nil
}

func (p *typeParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '.' || c == '_' || c == '@' || c == '/' || c == '-' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *typeParser) accept(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}
