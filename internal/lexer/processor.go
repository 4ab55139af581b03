package lexer

import "github.com/funvibe/jackc/internal/pipeline"

// LexerProcessor materializes the token stream of the unit before parsing.
type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() {
		return ctx
	}
	tokens, err := Tokenize(ctx.SourceCode)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Tokens = tokens
	return ctx
}
