package pipeline_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/diagnostics"
	"github.com/funvibe/phasec/internal/pipeline"
	"github.com/funvibe/phasec/internal/symdb"
)

const validTree = `{
  "file": "main.ph",
  "scope": [
    {"kind": "Bring", "module": "cloud", "span": [0, 0, 0, 11]},
    {"kind": "Let", "name": "bucket", "span": [1, 0, 1, 29],
     "value": {"kind": "New", "class": "cloud.Bucket", "span": [1, 13, 1, 29]}}
  ]
}`

const invalidTree = `{
  "file": "main.ph",
  "scope": [
    {"kind": "Let", "name": "x", "span": [0, 0, 0, 12],
     "value": {"kind": "Binary", "op": "+", "span": [0, 8, 0, 15],
               "left": {"kind": "Number", "value": 1},
               "right": {"kind": "String", "value": "a"}}}
  ]
}`

func run(t *testing.T, tree string, processors ...pipeline.Processor) *pipeline.PipelineContext {
	t.Helper()
	ctx := &pipeline.PipelineContext{FilePath: "main.ast.json", SourceCode: []byte(tree)}
	return pipeline.New(processors...).Run(ctx)
}

func TestCheckPipeline(t *testing.T) {
	ctx := run(t, validTree, &pipeline.DecodeProcessor{}, &pipeline.CheckProcessor{})
	if ctx.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	if ctx.AstRoot == nil || ctx.Result == nil {
		t.Fatalf("pipeline did not check the tree")
	}
	if len(ctx.Imports) == 0 {
		t.Errorf("imports of the unit were not kept")
	}
}

func TestCheckPipelineReportsDiagnostics(t *testing.T) {
	ctx := pipeline.Check().Run(&pipeline.PipelineContext{FilePath: "main.ast.json", SourceCode: []byte(invalidTree)})
	if !ctx.HasErrors() {
		t.Fatalf("expected a diagnostic")
	}
	if ctx.Errors[0].Code != diagnostics.ErrType {
		t.Errorf("code = %s, want %s", ctx.Errors[0].Code, diagnostics.ErrType)
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Run("malformed document", func(t *testing.T) {
		ctx := run(t, `{"scope": [`, &pipeline.DecodeProcessor{}, &pipeline.CheckProcessor{})
		if len(ctx.Errors) != 1 || ctx.Errors[0].Code != diagnostics.ErrDecode {
			t.Fatalf("expected one decode error, got %v", ctx.Errors)
		}
		if ctx.Result != nil {
			t.Errorf("check should not run without a tree")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		ctx := pipeline.Check().Run(&pipeline.PipelineContext{FilePath: filepath.Join(t.TempDir(), "absent.ast.json")})
		if len(ctx.Errors) != 1 || ctx.Errors[0].Code != diagnostics.ErrDecode {
			t.Fatalf("expected one decode error, got %v", ctx.Errors)
		}
	})
}

func TestDecodeReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.ast.json")
	if err := os.WriteFile(path, []byte(validTree), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := pipeline.Check().Run(&pipeline.PipelineContext{FilePath: path})
	if ctx.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
}

func TestIndexProcessor(t *testing.T) {
	dir := t.TempDir()
	project := config.DefaultProject(dir)
	project.SymbolDB = "symbols.db"

	ctx := &pipeline.PipelineContext{FilePath: "main.ast.json", SourceCode: []byte(validTree), Project: project}
	ctx = pipeline.New(&pipeline.DecodeProcessor{}, &pipeline.CheckProcessor{}, &pipeline.IndexProcessor{}).Run(ctx)
	if ctx.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	if ctx.Unit == nil {
		t.Fatalf("unit was not indexed")
	}

	db, err := symdb.Open(filepath.Join(dir, "symbols.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	syms, err := db.Lookup(t.Context(), ctx.Unit.ID, "bucket")
	if err != nil {
		t.Fatal(err)
	}
	if len(syms) != 1 || !strings.Contains(syms[0].Type, "Bucket") {
		t.Errorf("bucket symbol = %v", syms)
	}
}

func TestIndexProcessorWithoutDatabase(t *testing.T) {
	ctx := run(t, validTree, &pipeline.DecodeProcessor{}, &pipeline.CheckProcessor{}, &pipeline.IndexProcessor{})
	if ctx.HasErrors() || ctx.Unit != nil {
		t.Errorf("indexing without a configured database should be a no-op")
	}
}

func TestProcessorFunc(t *testing.T) {
	var order []string
	step := func(name string) pipeline.Processor {
		return pipeline.ProcessorFunc(func(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
			order = append(order, name)
			return ctx
		})
	}
	pipeline.New(step("a"), step("b")).Run(&pipeline.PipelineContext{})
	if strings.Join(order, ",") != "a,b" {
		t.Errorf("order = %v", order)
	}
}
