package compiler

import "github.com/funvibe/jackc/internal/pipeline"

// Processor compiles the unit's tokens against a shared Program. The
// resulting unit is left in the context; committing it is up to the caller.
type Processor struct {
	Program *Program
}

func (cp *Processor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() {
		return ctx
	}
	unit, err := cp.Program.Compile(ctx.Tokens)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Unit = unit
	return ctx
}
