package symbols

import (
	"strings"

	"github.com/funvibe/phasec/internal/typesystem"
)

// Define adds a symbol to this scope. pos is typesystem.Top for symbols
// visible to the whole scope (types, functions) or the index of the
// defining statement.
func (e *SymbolEnv) Define(name string, kind typesystem.SymbolKind, pos typesystem.StatementIdx) error {
	if _, ok := e.index[name]; ok {
		return &DuplicateSymbolError{Name: name}
	}
	e.index[name] = len(e.entries)
	e.entries = append(e.entries, entry{name: name, kind: kind, pos: pos})
	return nil
}

// Lookup returns the symbol bound to name, or false when it is not visible
// from statement notAfter.
func (e *SymbolEnv) Lookup(name string, notAfter typesystem.StatementIdx) (typesystem.SymbolKind, bool) {
	res := e.LookupExt(name, notAfter)
	if res.Status != typesystem.LookupFound {
		return nil, false
	}
	return res.Kind, true
}

// LookupExt resolves name through the scope chain. With notAfter set, a
// symbol defined by a later statement of this scope reports DefinedLater.
func (e *SymbolEnv) LookupExt(name string, notAfter typesystem.StatementIdx) typesystem.LookupResult {
	for cur := e; cur != nil; cur = cur.parent {
		if i, ok := cur.index[name]; ok {
			ent := cur.entries[i]
			if notAfter != typesystem.Anywhere && ent.pos != typesystem.Top && ent.pos > notAfter {
				return typesystem.LookupResult{Status: typesystem.LookupDefinedLater, Name: name}
			}
			return typesystem.LookupResult{
				Status: typesystem.LookupFound,
				Kind:   ent.kind,
				Info:   typesystem.LookupInfo{Phase: cur.phase, Init: cur.isInit},
				Name:   name,
			}
		}
		notAfter = typesystem.StatementIdx(cur.statementIdx)
	}
	return typesystem.LookupResult{Status: typesystem.LookupNotFound, Name: name}
}

// LookupNested resolves a dotted path: the first element through the scope
// chain, every following element inside the namespace found so far.
func (e *SymbolEnv) LookupNested(path []string, notAfter typesystem.StatementIdx) typesystem.LookupResult {
	if len(path) == 0 {
		return typesystem.LookupResult{Status: typesystem.LookupNotFound}
	}
	res := e.LookupExt(path[0], notAfter)
	if res.Status != typesystem.LookupFound {
		return res
	}
	prev := path[0]
	for _, name := range path[1:] {
		ns, ok := typesystem.AsNamespace(res.Kind)
		if !ok || ns.Env == nil {
			return typesystem.LookupResult{Status: typesystem.LookupExpectedNamespace, Name: prev}
		}
		res = ns.Env.LookupExt(name, typesystem.Anywhere)
		if res.Status != typesystem.LookupFound {
			return res
		}
		prev = name
	}
	return res
}

// LookupNestedStr is LookupNested over a "."-separated path.
func (e *SymbolEnv) LookupNestedStr(path string, notAfter typesystem.StatementIdx) typesystem.LookupResult {
	return e.LookupNested(strings.Split(path, "."), notAfter)
}
