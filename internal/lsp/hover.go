package lsp

import (
	"strings"

	"github.com/funvibe/phasec/internal/ast"
	"github.com/funvibe/phasec/internal/token"
)

// Hover is the markdown shown for the expression under the cursor.
type Hover struct {
	Contents string
	Span     token.Span
}

// Hover describes the innermost checked expression at pos: its type, its
// phase and, for references, the docs of the symbol.
func (s *Session) Hover(uri string, pos token.Position) *Hover {
	fs, ok := s.Get(uri)
	if !ok || fs.Context.AstRoot == nil || fs.Context.Result == nil {
		return nil
	}
	res := fs.Context.Result

	var found ast.Expression
	ast.Inspect(fs.Context.AstRoot, func(n ast.Node) bool {
		e, ok := n.(ast.Expression)
		if !ok || !e.GetSpan().Contains(pos) {
			return true
		}
		if _, ok := res.Types.ExprType(e); ok {
			found = e
		}
		return true
	})
	if found == nil {
		return nil
	}

	typ, _ := res.Types.ExprType(found)
	phase, _ := res.Types.ExprPhase(found)

	var sb strings.Builder
	sb.WriteString("```phasec\n")
	v, isRef := res.References[found.ExprID()]
	if isRef {
		sb.WriteString(v.Name)
		sb.WriteString(": ")
	}
	sb.WriteString(typ.String())
	sb.WriteString("\n```\n")
	sb.WriteString("*" + phase.String() + "*")
	if isRef {
		if docs := v.Docs.Render(); docs != "" {
			sb.WriteString("\n\n")
			sb.WriteString(docs)
		}
	}
	return &Hover{Contents: sb.String(), Span: found.GetSpan()}
}
