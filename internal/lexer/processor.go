package lexer

import (
	"github.com/funvibe/dsema/internal/diagnostics"
	"github.com/funvibe/dsema/internal/pipeline"
	"github.com/funvibe/dsema/internal/token"
)

type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	ctx.TokenStream = ctx.TokenStream[:0]
	for _, tok := range Tokenize(ctx.SourceCode) {
		if tok.Type == token.ILLEGAL {
			err := diagnostics.NewError(diagnostics.ErrL001, tok, "illegal token %q", tok.Lexeme)
			err.File = ctx.FilePath
			ctx.Errors = append(ctx.Errors, err)
			continue
		}
		ctx.TokenStream = append(ctx.TokenStream, tok)
	}
	return ctx
}
