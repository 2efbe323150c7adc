package checker

import (
	"strings"

	"github.com/hashicorp/go-set/v3"

	"github.com/funvibe/phasec/internal/ast"
	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/diagnostics"
	"github.com/funvibe/phasec/internal/token"
	"github.com/funvibe/phasec/internal/typesystem"
)

// fieldInit is a definite-assignment walk over an initializer body. A field
// is initialized when every path that leaves the body assigned it.
type fieldInit struct {
	// sites holds the first assignment of each field, on any path.
	sites map[string]token.Span
	// repeats holds the first assignment of a field already assigned on
	// the same path.
	repeats map[string]token.Span
	// exits holds the assigned set at each return.
	exits []*set.Set[string]
}

func copySet(s *set.Set[string]) *set.Set[string] {
	return set.From(s.Slice())
}

func intersect(sets []*set.Set[string]) *set.Set[string] {
	if len(sets) == 0 {
		return set.New[string](0)
	}
	out := set.New[string](sets[0].Size())
	for _, name := range sets[0].Slice() {
		all := true
		for _, s := range sets[1:] {
			if !s.Contains(name) {
				all = false
				break
			}
		}
		if all {
			out.Insert(name)
		}
	}
	return out
}

// thisField returns the field name of an assignment to this.<field>.
func thisField(s *ast.AssignmentStatement) (ast.Symbol, bool) {
	m, ok := s.Variable.Ref.(*ast.InstanceMember)
	if !ok {
		return ast.Symbol{}, false
	}
	obj, ok := m.Object.(*ast.ReferenceExpression)
	if !ok {
		return ast.Symbol{}, false
	}
	id, ok := obj.Ref.(*ast.Identifier)
	if !ok || id.Symbol.Name != config.ThisName {
		return ast.Symbol{}, false
	}
	return m.Property, true
}

// scope walks statements from state. It returns the state at the end of the
// scope, or nil when no path reaches it.
func (f *fieldInit) scope(scope *ast.Scope, state *set.Set[string]) *set.Set[string] {
	if scope == nil {
		return state
	}
	for _, stmt := range scope.Statements {
		state = f.statement(stmt, state)
	}
	return state
}

// statement applies one statement. A nil state means the statement is
// unreachable: it is still walked for assignment sites.
func (f *fieldInit) statement(stmt ast.Statement, state *set.Set[string]) *set.Set[string] {
	orEmpty := func() *set.Set[string] {
		if state == nil {
			return nil
		}
		return copySet(state)
	}

	switch s := stmt.(type) {
	case *ast.AssignmentStatement:
		if name, ok := thisField(s); ok {
			if _, seen := f.sites[name.Name]; !seen {
				f.sites[name.Name] = name.Span
			}
			if state != nil && !state.Insert(name.Name) {
				if _, seen := f.repeats[name.Name]; !seen {
					f.repeats[name.Name] = name.Span
				}
			}
		}
		return state
	case *ast.ReturnStatement:
		if state != nil {
			f.exits = append(f.exits, copySet(state))
		}
		return nil
	case *ast.BlockStatement:
		return f.scope(s.Body, state)
	case *ast.IfStatement:
		branches := []*set.Set[string]{f.scope(s.Statements, orEmpty())}
		for _, elif := range s.ElseIfs {
			branches = append(branches, f.scope(elif.Statements, orEmpty()))
		}
		if s.Else != nil {
			branches = append(branches, f.scope(s.Else, orEmpty()))
		} else {
			branches = append(branches, orEmpty())
		}
		return f.join(branches)
	case *ast.IfLetStatement:
		branches := []*set.Set[string]{f.scope(s.Statements, orEmpty())}
		if s.Else != nil {
			branches = append(branches, f.scope(s.Else, orEmpty()))
		} else {
			branches = append(branches, orEmpty())
		}
		return f.join(branches)
	case *ast.ForStatement:
		// Loop bodies may not run.
		f.scope(s.Body, orEmpty())
		return state
	case *ast.WhileStatement:
		f.scope(s.Body, orEmpty())
		return state
	case *ast.TryStatement:
		// The try block may stop at any statement and the catch block may
		// not run; only finally counts.
		f.scope(s.Try, orEmpty())
		if s.Catch != nil {
			f.scope(s.Catch.Body, orEmpty())
		}
		return f.scope(s.Finally, state)
	}
	return state
}

// join merges the states of alternative branches.
func (f *fieldInit) join(branches []*set.Set[string]) *set.Set[string] {
	var live []*set.Set[string]
	for _, b := range branches {
		if b != nil {
			live = append(live, b)
		}
	}
	if len(live) == 0 {
		return nil
	}
	return intersect(live)
}

// checkFieldInitialization reports fields of the initializer's phase that
// are not assigned on every path, and fields that may not be assigned in it.
func (c *Checker) checkFieldInitialization(body *ast.Scope, fields []ast.ClassField, phase typesystem.Phase) {
	f := &fieldInit{sites: make(map[string]token.Span), repeats: make(map[string]token.Span)}
	end := f.scope(body, set.New[string](len(fields)))
	exits := f.exits
	if end != nil {
		exits = append(exits, end)
	}
	initialized := intersect(exits)

	forbidden := typesystem.Inflight
	if phase == typesystem.Inflight {
		forbidden = typesystem.Preflight
	}
	current := strings.ToUpper(phase.String()[:1]) + phase.String()[1:]

	for _, field := range fields {
		site, assigned := f.sites[field.Name.Name]
		if field.Phase == forbidden || field.IsStatic {
			if assigned {
				c.errorf(diagnostics.ErrInit, site, "\"%s\" cannot be initialized in the %s initializer", field.Name.Name, phase)
			}
			continue
		}
		if !initialized.Contains(field.Name.Name) {
			c.errorf(diagnostics.ErrInit, field.Name.Span, "%s field \"%s\" is not initialized", current, field.Name.Name)
		}
		if repeat, ok := f.repeats[field.Name.Name]; ok && !field.Reassignable {
			c.errorf(diagnostics.ErrInit, repeat, "\"%s\" is already initialized", field.Name.Name)
		}
	}
}
