package parser

import (
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/pipeline"
	"github.com/funvibe/dsema/internal/token"
)

type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.TokenStream == nil {
		// The lexer did not run; report instead of parsing nothing.
		err := diagnostics.NewError(diagnostics.ErrP001, token.Token{}, "parser: token stream is nil")
		err.File = ctx.FilePath
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}

	parser := New(ctx.TokenStream, ctx)
	ctx.AstRoot = parser.ParseModule()
	ctx.Errors = append(ctx.Errors, parser.Errors()...)
	return ctx
}
