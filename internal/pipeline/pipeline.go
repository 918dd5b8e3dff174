package pipeline

import (
	"github.com/funvibe/dsema/internal/ast"
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/token"
)

// PipelineContext carries one source file through the stages.
type PipelineContext struct {
	SourceCode string
	FilePath   string
	ModuleName string // overrides the name derived from the module declaration
	// DefaultModuleName is used when the source has no module declaration.
	DefaultModuleName string
	TokenStream       []token.Token
	AstRoot           *ast.Module
	Errors            []*diagnostics.DiagnosticError
}

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// ProcessorFunc adapts a function to Processor.
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
		// Continue on errors so callers get a partial tree plus every diagnostic.
	}
	return ctx
}
