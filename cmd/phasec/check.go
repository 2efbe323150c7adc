package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"

	"github.com/funvibe/phasec/internal/config"
	"github.com/funvibe/phasec/internal/diagnostics"
	"github.com/funvibe/phasec/internal/importer"
	"github.com/funvibe/phasec/internal/pipeline"
	"github.com/funvibe/phasec/internal/symdb"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
	MaxDepth:                8,
}

func handleCheck(args []string, stdout, stderr io.Writer) int {
	opts, err := parseCheckArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n\n%s", err, usage)
		return 2
	}
	project, err := loadProject(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 2
	}
	if opts.debug || project.Debug {
		config.IsDebugMode = true
		log.SetOutput(stderr)
	}

	processors := []pipeline.Processor{&pipeline.DecodeProcessor{}, &pipeline.CheckProcessor{}}
	if project.SymbolDB != "" {
		db, err := symdb.Open(project.Resolve(project.SymbolDB))
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s\n", err)
			return 2
		}
		defer db.Close()
		processors = append(processors, &pipeline.IndexProcessor{DB: db})
	}
	p := pipeline.New(processors...)

	renderer := &diagnostics.Renderer{Color: useColor(project, stderr)}

	// Files of one invocation share imported libraries.
	ts := importer.NewTypeSystem(project)
	failed := 0
	for _, file := range opts.files {
		ctx := p.Run(&pipeline.PipelineContext{
			FilePath:   file,
			Project:    project,
			TypeSystem: ts,
		})

		if opts.dump && ctx.AstRoot != nil {
			dumpConfig.Fdump(stdout, ctx.AstRoot)
		}
		if ctx.Unit != nil && config.IsDebugMode {
			log.Printf("indexed %s as unit %s", file, ctx.Unit.ID)
		}
		if ctx.HasErrors() {
			failed++
			renderer.Source = sourceNextTo(file)
			renderer.Render(stderr, ctx.Errors)
		}
	}

	if failed > 0 {
		fmt.Fprintf(stderr, "%d of %d file(s) failed to check\n", failed, len(opts.files))
		return 1
	}
	return 0
}

// sourceNextTo resolves source files named by a tree relative to the tree.
func sourceNextTo(treePath string) func(string) (string, bool) {
	dir := filepath.Dir(treePath)
	return func(file string) (string, bool) {
		if !filepath.IsAbs(file) {
			if text, ok := diagnostics.FileSource(filepath.Join(dir, file)); ok {
				return text, true
			}
		}
		return diagnostics.FileSource(file)
	}
}

func useColor(project *config.Project, w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return diagnostics.UseColor(project.Color, f)
	}
	return project.Color == config.ColorAlways
}
