package symbols

import (
	"fmt"
	"strings"

	"github.com/funvibe/phasec/internal/typesystem"
	"github.com/hashicorp/go-set/v3"
)

// Iter lists the symbols of this scope in definition order. With ancestry,
// the symbols of enclosing scopes follow, skipping names shadowed by a
// nearer scope.
func (e *SymbolEnv) Iter(withAncestry bool) []typesystem.EnvEntry {
	seen := set.New[string](len(e.entries))
	var result []typesystem.EnvEntry
	for cur := e; cur != nil; cur = cur.parent {
		info := typesystem.LookupInfo{Phase: cur.phase, Init: cur.isInit}
		for _, ent := range cur.entries {
			if !seen.Insert(ent.name) {
				continue
			}
			result = append(result, typesystem.EnvEntry{Name: ent.name, Kind: ent.kind, Info: info})
		}
		if !withAncestry {
			break
		}
	}
	return result
}

// String dumps every level of the scope chain, innermost first.
func (e *SymbolEnv) String() string {
	var sb strings.Builder
	level := 0
	for cur := e; cur != nil; cur = cur.parent {
		fmt.Fprintf(&sb, "level %d (%s, stmt %d):", level, cur.phase, cur.statementIdx)
		if len(cur.entries) == 0 {
			sb.WriteString(" <empty>")
		}
		sb.WriteString("\n")
		for _, ent := range cur.entries {
			fmt.Fprintf(&sb, "  %s: %s\n", ent.name, describeKind(ent.kind))
		}
		level++
	}
	return sb.String()
}

func describeKind(kind typesystem.SymbolKind) string {
	switch k := kind.(type) {
	case typesystem.TypeSymbol:
		return "type " + k.Type.String()
	case typesystem.VariableInfo:
		mod := ""
		if k.Reassignable {
			mod = "var "
		}
		return fmt.Sprintf("%s%s (%s)", mod, k.Type, k.Phase)
	case *typesystem.Namespace:
		return "namespace " + k.Name
	}
	return "?"
}
