package pipeline

import (
	"github.com/funvibe/phasec/internal/ast"
	"github.com/funvibe/phasec/internal/checker"
	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/diagnostics"
	"github.com/funvibe/phasec/internal/importer"
	"github.com/funvibe/phasec/internal/symdb"
)

// PipelineContext carries one compilation unit through the stages.
type PipelineContext struct {
	// FilePath is the syntax tree document. SourceCode, when set, is used
	// instead of reading it.
	FilePath   string
	SourceCode []byte

	Project *config.Project
	// TypeSystem is shared between runs to reuse loaded libraries; nil
	// creates one per run.
	TypeSystem *importer.TypeSystem

	AstRoot *ast.Program
	Result  *checker.Result
	// Imports are the libraries brought by the unit, kept for re-checks.
	Imports []*importer.ImportSpec
	// Unit is set once the unit was written to the symbol database.
	Unit *symdb.Unit

	Errors []*diagnostics.DiagnosticError
}

// HasErrors reports whether any stage reported a diagnostic.
func (ctx *PipelineContext) HasErrors() bool {
	return len(ctx.Errors) > 0
}

func (ctx *PipelineContext) project() *config.Project {
	if ctx.Project == nil {
		ctx.Project = config.DefaultProject(".")
	}
	return ctx.Project
}
