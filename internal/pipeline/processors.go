package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/funvibe/phasec/internal/ast"
	"github.com/funvibe/phasec/internal/checker"
	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/diagnostics"
	"github.com/funvibe/phasec/internal/importer"
	"github.com/funvibe/phasec/internal/symdb"
	"github.com/funvibe/phasec/internal/token"
	"github.com/funvibe/phasec/internal/typesystem"
)

// DecodeProcessor reads the syntax tree document.
type DecodeProcessor struct{}

func (dp *DecodeProcessor) Process(ctx *PipelineContext) *PipelineContext {
	data := ctx.SourceCode
	if data == nil {
		var err error
		data, err = os.ReadFile(ctx.FilePath)
		if err != nil {
			ctx.Errors = append(ctx.Errors, diagnostics.NewError(diagnostics.ErrDecode, token.Span{File: ctx.FilePath}, "%s", err.Error()))
			return ctx
		}
		ctx.SourceCode = data
	}

	prog, err := ast.DecodeBytes(data)
	if err != nil {
		ctx.Errors = append(ctx.Errors, diagnostics.NewError(diagnostics.ErrDecode, token.Span{File: ctx.FilePath}, "%s", err.Error()))
		return ctx
	}
	if prog.File == "" {
		prog.File = ctx.FilePath
	}
	ctx.AstRoot = prog
	return ctx
}

// CheckProcessor type checks the decoded program.
type CheckProcessor struct{}

func (cp *CheckProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.AstRoot == nil {
		return ctx
	}
	project := ctx.project()
	if ctx.TypeSystem == nil {
		ctx.TypeSystem = importer.NewTypeSystem(project)
	}

	sdkRoot := project.SDKRoot
	if sdkRoot != config.EmbeddedSDK {
		sdkRoot = project.Resolve(sdkRoot)
	}
	c := checker.New(typesystem.NewTypes(), ctx.TypeSystem,
		checker.WithSourceDir(sourceDir(ctx)),
		checker.WithSDKRoot(sdkRoot),
		checker.WithImports(ctx.Imports...),
	)
	ctx.Result = c.Check(ctx.AstRoot)
	ctx.Imports = ctx.Result.Imports
	ctx.Errors = append(ctx.Errors, ctx.Result.Errors...)
	return ctx
}

// sourceDir is where libraries brought by path are searched from: the
// directory of the source file named in the tree, else of the tree itself.
func sourceDir(ctx *PipelineContext) string {
	file := ctx.FilePath
	if ctx.AstRoot != nil && ctx.AstRoot.File != "" {
		file = ctx.AstRoot.File
		if !filepath.IsAbs(file) && ctx.FilePath != "" {
			file = filepath.Join(filepath.Dir(ctx.FilePath), file)
		}
	}
	if file == "" {
		return "."
	}
	return filepath.Dir(file)
}

// IndexProcessor writes the checked unit to the symbol database. With no DB
// it opens the project's symbolDB, and does nothing when none is configured.
type IndexProcessor struct {
	DB *symdb.DB
}

func (ip *IndexProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Result == nil {
		return ctx
	}
	db := ip.DB
	if db == nil {
		path := ctx.project().SymbolDB
		if path == "" {
			return ctx
		}
		var err error
		db, err = symdb.Open(ctx.project().Resolve(path))
		if err != nil {
			ctx.Errors = append(ctx.Errors, diagnostics.NewError(diagnostics.ErrUnexpected, token.Span{File: ctx.FilePath}, "%s", err.Error()))
			return ctx
		}
		defer db.Close()
	}

	file := ctx.FilePath
	if ctx.AstRoot != nil && ctx.AstRoot.File != "" {
		file = ctx.AstRoot.File
	}
	unit, err := db.Store(context.Background(), file, ctx.Result)
	if err != nil {
		ctx.Errors = append(ctx.Errors, diagnostics.NewError(diagnostics.ErrUnexpected, token.Span{File: ctx.FilePath}, "%s", err.Error()))
		return ctx
	}
	ctx.Unit = &unit
	return ctx
}
