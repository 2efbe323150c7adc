package ast

import (
	"fmt"

	"github.com/funvibe/phasec/internal/typesystem"
)

func (d *decoder) statements(v any) ([]Statement, error) {
	list, _ := v.([]any)
	out := make([]Statement, 0, len(list))
	for i, raw := range list {
		node, err := asObject(raw, "statement")
		if err != nil {
			return nil, err
		}
		kind := str(node, "kind")
		stmt, err := d.decodeStatement(node, kind, i)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		out = append(out, stmt)
	}
	return out, nil
}

func (d *decoder) scope(v any, owner map[string]any) (*Scope, error) {
	stmts, err := d.statements(v)
	if err != nil {
		return nil, err
	}
	return &Scope{Statements: stmts, Span: d.span(owner)}, nil
}

func (d *decoder) optScope(v any, owner map[string]any) (*Scope, error) {
	if v == nil {
		return nil, nil
	}
	return d.scope(v, owner)
}

func (d *decoder) decodeStatement(node map[string]any, kind string, idx int) (Statement, error) {
	base := d.stmtBase(node, idx)
	switch kind {
	case "Let":
		name, err := d.symbol(node["name"], node)
		if err != nil {
			return nil, err
		}
		typ, err := d.typeAnnotation(node["type"], node)
		if err != nil {
			return nil, err
		}
		val, err := d.expression(node["value"])
		if err != nil {
			return nil, err
		}
		return &LetStatement{StmtBase: base, Reassignable: boolean(node, "var"), Var: name, InitialValue: val, Type: typ}, nil
	case "For":
		iter, err := d.symbol(node["iterator"], node)
		if err != nil {
			return nil, err
		}
		iterable, err := d.expression(node["iterable"])
		if err != nil {
			return nil, err
		}
		body, err := d.scope(node["body"], node)
		if err != nil {
			return nil, err
		}
		return &ForStatement{StmtBase: base, Iterator: iter, Iterable: iterable, Body: body}, nil
	case "While":
		cond, err := d.expression(node["condition"])
		if err != nil {
			return nil, err
		}
		body, err := d.scope(node["body"], node)
		if err != nil {
			return nil, err
		}
		return &WhileStatement{StmtBase: base, Condition: cond, Body: body}, nil
	case "Break":
		return &BreakStatement{StmtBase: base}, nil
	case "Continue":
		return &ContinueStatement{StmtBase: base}, nil
	case "DebugEnv":
		return &DebugEnvStatement{StmtBase: base}, nil
	case "IfLet":
		name, err := d.symbol(node["name"], node)
		if err != nil {
			return nil, err
		}
		val, err := d.expression(node["value"])
		if err != nil {
			return nil, err
		}
		then, err := d.scope(node["then"], node)
		if err != nil {
			return nil, err
		}
		els, err := d.optScope(node["else"], node)
		if err != nil {
			return nil, err
		}
		return &IfLetStatement{StmtBase: base, Reassignable: boolean(node, "var"), Var: name, Value: val, Statements: then, Else: els}, nil
	case "If":
		cond, err := d.expression(node["condition"])
		if err != nil {
			return nil, err
		}
		then, err := d.scope(node["then"], node)
		if err != nil {
			return nil, err
		}
		s := &IfStatement{StmtBase: base, Condition: cond, Statements: then}
		elifs, _ := node["elifs"].([]any)
		for _, raw := range elifs {
			en, err := asObject(raw, "elif")
			if err != nil {
				return nil, err
			}
			c, err := d.expression(en["condition"])
			if err != nil {
				return nil, err
			}
			b, err := d.scope(en["then"], en)
			if err != nil {
				return nil, err
			}
			s.ElseIfs = append(s.ElseIfs, ElseIf{Condition: c, Statements: b})
		}
		if s.Else, err = d.optScope(node["else"], node); err != nil {
			return nil, err
		}
		return s, nil
	case "Expr":
		e, err := d.expression(node["expr"])
		if err != nil {
			return nil, err
		}
		return &ExpressionStatement{StmtBase: base, Expression: e}, nil
	case "Assign":
		target, err := d.expression(node["target"])
		if err != nil {
			return nil, err
		}
		ref, ok := target.(*ReferenceExpression)
		if !ok {
			return nil, fmt.Errorf("assignment target must be a reference, got %T", target)
		}
		val, err := d.expression(node["value"])
		if err != nil {
			return nil, err
		}
		return &AssignmentStatement{StmtBase: base, Variable: ref, Value: val}, nil
	case "Bring":
		mod, err := d.symbol(node["module"], node)
		if err != nil {
			return nil, err
		}
		alias, err := d.optSymbol(node["alias"], node)
		if err != nil {
			return nil, err
		}
		return &BringStatement{StmtBase: base, Module: mod, Path: boolean(node, "path"), Alias: alias}, nil
	case "Block":
		body, err := d.scope(node["body"], node)
		if err != nil {
			return nil, err
		}
		return &BlockStatement{StmtBase: base, Body: body}, nil
	case "Return":
		val, err := d.optExpression(node["value"])
		if err != nil {
			return nil, err
		}
		return &ReturnStatement{StmtBase: base, Value: val}, nil
	case "Try":
		try, err := d.scope(node["try"], node)
		if err != nil {
			return nil, err
		}
		s := &TryStatement{StmtBase: base, Try: try}
		if node["catch"] != nil {
			body, err := d.scope(node["catch"], node)
			if err != nil {
				return nil, err
			}
			v, err := d.optSymbol(node["catchVar"], node)
			if err != nil {
				return nil, err
			}
			s.Catch = &CatchBlock{Var: v, Body: body}
		}
		if s.Finally, err = d.optScope(node["finally"], node); err != nil {
			return nil, err
		}
		return s, nil
	case "Super":
		args, err := d.argList(node["args"], node)
		if err != nil {
			return nil, err
		}
		return &SuperConstructorStatement{StmtBase: base, Args: args}, nil
	case "Class":
		return d.classDeclaration(node, base)
	case "Interface":
		return d.interfaceDeclaration(node, base)
	case "Struct":
		name, err := d.symbol(node["name"], node)
		if err != nil {
			return nil, err
		}
		extends, err := d.udts(node["extends"], node)
		if err != nil {
			return nil, err
		}
		s := &StructDeclaration{StmtBase: base, Name: name, Extends: extends, Doc: str(node, "doc")}
		fields, _ := node["fields"].([]any)
		for _, raw := range fields {
			fn, err := asObject(raw, "struct field")
			if err != nil {
				return nil, err
			}
			fname, err := d.symbol(fn["name"], fn)
			if err != nil {
				return nil, err
			}
			typ, err := d.typeAnnotation(fn["type"], fn)
			if err != nil {
				return nil, err
			}
			s.Fields = append(s.Fields, StructField{Name: fname, Type: typ, Doc: str(fn, "doc")})
		}
		return s, nil
	case "Enum":
		name, err := d.symbol(node["name"], node)
		if err != nil {
			return nil, err
		}
		s := &EnumDeclaration{StmtBase: base, Name: name, Doc: str(node, "doc")}
		values, _ := node["values"].([]any)
		for _, raw := range values {
			v, err := d.symbol(raw, node)
			if err != nil {
				return nil, err
			}
			s.Values = append(s.Values, v)
		}
		return s, nil
	}
	return nil, ErrUnknownNode
}

func (d *decoder) classDeclaration(node map[string]any, base StmtBase) (*ClassDeclaration, error) {
	name, err := d.symbol(node["name"], node)
	if err != nil {
		return nil, err
	}
	phase, err := d.phaseOf(node, d.phase)
	if err != nil {
		return nil, err
	}
	c := &ClassDeclaration{StmtBase: base, Name: name, Phase: phase, Doc: str(node, "doc")}
	if node["parent"] != nil {
		udt, err := d.udt(node["parent"], node)
		if err != nil {
			return nil, err
		}
		c.Parent = &ReferenceExpression{
			ExprBase: ExprBase{ID: d.ids.Next(), Span: udt.Span},
			Ref:      &TypeReference{Type: udt},
		}
	}
	if c.Implements, err = d.udts(node["implements"], node); err != nil {
		return nil, err
	}

	outer := d.phase
	d.phase = phase
	defer func() { d.phase = outer }()

	fields, _ := node["fields"].([]any)
	for _, raw := range fields {
		fn, err := asObject(raw, "class field")
		if err != nil {
			return nil, err
		}
		fname, err := d.symbol(fn["name"], fn)
		if err != nil {
			return nil, err
		}
		typ, err := d.typeAnnotation(fn["type"], fn)
		if err != nil {
			return nil, err
		}
		fphase, err := d.phaseOf(fn, phase)
		if err != nil {
			return nil, err
		}
		c.Fields = append(c.Fields, ClassField{
			Name:         fname,
			Type:         typ,
			Reassignable: boolean(fn, "var"),
			Phase:        fphase,
			IsStatic:     boolean(fn, "static"),
			Doc:          str(fn, "doc"),
		})
	}
	methods, _ := node["methods"].([]any)
	for _, raw := range methods {
		mn, err := asObject(raw, "method")
		if err != nil {
			return nil, err
		}
		mname, err := d.symbol(mn["name"], mn)
		if err != nil {
			return nil, err
		}
		def, err := d.functionDef(mn)
		if err != nil {
			return nil, err
		}
		c.Methods = append(c.Methods, ClassMethod{Name: mname, Def: def})
	}
	if c.Initializer, err = d.functionDef(node["init"]); err != nil {
		return nil, err
	}
	d.phase = typesystem.Inflight
	if c.InflightInitializer, err = d.functionDef(node["inflightInit"]); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *decoder) interfaceDeclaration(node map[string]any, base StmtBase) (*InterfaceDeclaration, error) {
	name, err := d.symbol(node["name"], node)
	if err != nil {
		return nil, err
	}
	extends, err := d.udts(node["extends"], node)
	if err != nil {
		return nil, err
	}
	s := &InterfaceDeclaration{StmtBase: base, Name: name, Extends: extends, Doc: str(node, "doc")}
	methods, _ := node["methods"].([]any)
	for _, raw := range methods {
		mn, err := asObject(raw, "interface method")
		if err != nil {
			return nil, err
		}
		mname, err := d.symbol(mn["name"], mn)
		if err != nil {
			return nil, err
		}
		sig, err := d.signature(mn)
		if err != nil {
			return nil, err
		}
		s.Methods = append(s.Methods, InterfaceMethod{Name: mname, Signature: sig, Doc: str(mn, "doc")})
	}
	return s, nil
}
