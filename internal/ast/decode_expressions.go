package ast

import "fmt"

func (d *decoder) expression(v any) (Expression, error) {
	node, err := asObject(v, "expression")
	if err != nil {
		return nil, err
	}
	kind := str(node, "kind")
	expr, err := d.decodeExpression(node, kind)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return expr, nil
}

func (d *decoder) optExpression(v any) (Expression, error) {
	if v == nil {
		return nil, nil
	}
	return d.expression(v)
}

func (d *decoder) expressions(v any) ([]Expression, error) {
	list, _ := v.([]any)
	out := make([]Expression, 0, len(list))
	for _, raw := range list {
		e, err := d.expression(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *decoder) decodeExpression(node map[string]any, kind string) (Expression, error) {
	switch kind {
	case "String":
		return &StringLiteral{ExprBase: d.exprBase(node), Value: str(node, "value")}, nil
	case "Number":
		v, _ := node["value"].(float64)
		return &NumberLiteral{ExprBase: d.exprBase(node), Value: v}, nil
	case "Boolean":
		return &BooleanLiteral{ExprBase: d.exprBase(node), Value: boolean(node, "value")}, nil
	case "Nil":
		return &NilLiteral{ExprBase: d.exprBase(node)}, nil
	case "Interpolated":
		base := d.exprBase(node)
		parts, err := d.expressions(node["parts"])
		if err != nil {
			return nil, err
		}
		return &InterpolatedString{ExprBase: base, Parts: parts}, nil
	case "Binary":
		base := d.exprBase(node)
		left, err := d.expression(node["left"])
		if err != nil {
			return nil, err
		}
		right, err := d.expression(node["right"])
		if err != nil {
			return nil, err
		}
		return &BinaryExpression{ExprBase: base, Op: BinaryOperator(str(node, "op")), Left: left, Right: right}, nil
	case "Unary":
		base := d.exprBase(node)
		operand, err := d.expression(node["operand"])
		if err != nil {
			return nil, err
		}
		return &UnaryExpression{ExprBase: base, Op: UnaryOperator(str(node, "op")), Operand: operand}, nil
	case "Range":
		base := d.exprBase(node)
		start, err := d.expression(node["start"])
		if err != nil {
			return nil, err
		}
		end, err := d.expression(node["end"])
		if err != nil {
			return nil, err
		}
		return &RangeExpression{ExprBase: base, Start: start, End: end, Inclusive: boolean(node, "inclusive")}, nil
	case "Identifier", "Member", "TypeReference", "TypeMember":
		return d.reference(node, kind)
	case "New":
		return d.newExpression(node)
	case "Call":
		base := d.exprBase(node)
		callee, err := d.expression(node["callee"])
		if err != nil {
			return nil, err
		}
		args, err := d.argList(node["args"], node)
		if err != nil {
			return nil, err
		}
		return &CallExpression{ExprBase: base, Callee: callee, Args: args}, nil
	case "Array", "Set":
		base := d.exprBase(node)
		typ, err := d.typeAnnotation(node["type"], node)
		if err != nil {
			return nil, err
		}
		items, err := d.expressions(node["items"])
		if err != nil {
			return nil, err
		}
		if kind == "Set" {
			return &SetLiteral{ExprBase: base, Type: typ, Items: items}, nil
		}
		return &ArrayLiteral{ExprBase: base, Type: typ, Items: items}, nil
	case "Map":
		base := d.exprBase(node)
		typ, err := d.typeAnnotation(node["type"], node)
		if err != nil {
			return nil, err
		}
		lit := &MapLiteral{ExprBase: base, Type: typ}
		entries, _ := node["entries"].([]any)
		for _, raw := range entries {
			en, err := asObject(raw, "map entry")
			if err != nil {
				return nil, err
			}
			key, err := d.expression(en["key"])
			if err != nil {
				return nil, err
			}
			val, err := d.expression(en["value"])
			if err != nil {
				return nil, err
			}
			lit.Entries = append(lit.Entries, MapEntry{Key: key, Value: val})
		}
		return lit, nil
	case "Struct":
		base := d.exprBase(node)
		typ, err := d.typeAnnotation(node["type"], node)
		if err != nil {
			return nil, err
		}
		if typ == nil {
			return nil, fmt.Errorf("struct literal without a type")
		}
		fields, err := d.fieldInits(node["fields"])
		if err != nil {
			return nil, err
		}
		return &StructLiteral{ExprBase: base, Type: typ, Fields: fields}, nil
	case "Json":
		base := d.exprBase(node)
		el, err := d.expression(node["element"])
		if err != nil {
			return nil, err
		}
		return &JsonLiteral{ExprBase: base, IsMut: boolean(node, "mut"), Element: el}, nil
	case "JsonMap":
		base := d.exprBase(node)
		fields, err := d.fieldInits(node["fields"])
		if err != nil {
			return nil, err
		}
		return &JsonMapLiteral{ExprBase: base, Fields: fields}, nil
	case "Closure":
		base := d.exprBase(node)
		def, err := d.functionDef(node["def"])
		if err != nil {
			return nil, err
		}
		if def == nil {
			return nil, fmt.Errorf("closure without a definition")
		}
		return &ClosureExpression{ExprBase: base, Def: def}, nil
	}
	return nil, ErrUnknownNode
}

func (d *decoder) reference(node map[string]any, kind string) (*ReferenceExpression, error) {
	base := d.exprBase(node)
	out := &ReferenceExpression{ExprBase: base}
	switch kind {
	case "Identifier":
		sym, err := d.symbol(node["name"], node)
		if err != nil {
			return nil, err
		}
		out.Ref = &Identifier{Symbol: sym}
	case "Member":
		obj, err := d.expression(node["object"])
		if err != nil {
			return nil, err
		}
		prop, err := d.symbol(node["property"], node)
		if err != nil {
			return nil, err
		}
		out.Ref = &InstanceMember{Object: obj, Property: prop, OptionalAccessor: boolean(node, "optional"), Span: base.Span}
	case "TypeReference":
		udt, err := d.udt(node["type"], node)
		if err != nil {
			return nil, err
		}
		out.Ref = &TypeReference{Type: udt}
	case "TypeMember":
		udt, err := d.udt(node["type"], node)
		if err != nil {
			return nil, err
		}
		prop, err := d.symbol(node["property"], node)
		if err != nil {
			return nil, err
		}
		out.Ref = &TypeMember{Type: udt, Property: prop, Span: base.Span}
	}
	return out, nil
}

func (d *decoder) newExpression(node map[string]any) (*NewExpression, error) {
	base := d.exprBase(node)
	udt, err := d.udt(node["class"], node)
	if err != nil {
		return nil, err
	}
	class := &ReferenceExpression{
		ExprBase: ExprBase{ID: d.ids.Next(), Span: udt.Span},
		Ref:      &TypeReference{Type: udt},
	}
	args, err := d.argList(node["args"], node)
	if err != nil {
		return nil, err
	}
	scope, err := d.optExpression(node["scope"])
	if err != nil {
		return nil, err
	}
	id, err := d.optExpression(node["id"])
	if err != nil {
		return nil, err
	}
	return &NewExpression{ExprBase: base, Class: class, Args: args, ObjScope: scope, ObjID: id}, nil
}

// argList reads {"pos": [...], "named": [{"name": ..., "value": ...}]}.
// A missing list is empty.
func (d *decoder) argList(v any, owner map[string]any) (*ArgList, error) {
	node, ok := optObject(v)
	if !ok {
		return &ArgList{Span: d.span(owner)}, nil
	}
	pos, err := d.expressions(node["pos"])
	if err != nil {
		return nil, err
	}
	args := &ArgList{Pos: pos, Span: d.span(node)}
	named, _ := node["named"].([]any)
	for _, raw := range named {
		nn, err := asObject(raw, "named argument")
		if err != nil {
			return nil, err
		}
		name, err := d.symbol(nn["name"], nn)
		if err != nil {
			return nil, err
		}
		val, err := d.expression(nn["value"])
		if err != nil {
			return nil, err
		}
		args.Named = append(args.Named, NamedArg{Name: name, Value: val})
	}
	return args, nil
}

func (d *decoder) fieldInits(v any) ([]FieldInit, error) {
	list, _ := v.([]any)
	out := make([]FieldInit, 0, len(list))
	for _, raw := range list {
		fn, err := asObject(raw, "field")
		if err != nil {
			return nil, err
		}
		name, err := d.symbol(fn["name"], fn)
		if err != nil {
			return nil, err
		}
		val, err := d.expression(fn["value"])
		if err != nil {
			return nil, err
		}
		out = append(out, FieldInit{Name: name, Value: val})
	}
	return out, nil
}
