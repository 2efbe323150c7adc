package pipeline

// Processor is one stage of a pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// ProcessorFunc adapts a function to a Processor.
type ProcessorFunc func(ctx *PipelineContext) *PipelineContext

func (f ProcessorFunc) Process(ctx *PipelineContext) *PipelineContext { return f(ctx) }

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		// Continue on errors to collect diagnostics from all stages
		// (e.g. the language server shows decode and check errors together).
	}
	return ctx
}

// Check is the standard pipeline: decode the syntax tree, then check it.
func Check() *Pipeline {
	return New(&DecodeProcessor{}, &CheckProcessor{})
}
