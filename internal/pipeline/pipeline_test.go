package pipeline

import (
	"errors"
	"testing"
)

func TestPipeline_RunsStagesInOrder(t *testing.T) {
	var order []string
	stage := func(name string) Processor {
		return ProcessorFunc(func(ctx *PipelineContext) *PipelineContext {
			order = append(order, name)
			return ctx
		})
	}

	New(stage("lex"), stage("compile")).Run(NewPipelineContext("class A {}"))

	if len(order) != 2 || order[0] != "lex" || order[1] != "compile" {
		t.Errorf("stage order = %v", order)
	}
}

func TestPipeline_LaterStagesSeeErrors(t *testing.T) {
	failing := ProcessorFunc(func(ctx *PipelineContext) *PipelineContext {
		ctx.Errors = append(ctx.Errors, errors.New("boom"))
		return ctx
	})
	skipped := false
	guarded := ProcessorFunc(func(ctx *PipelineContext) *PipelineContext {
		if ctx.Failed() {
			skipped = true
		}
		return ctx
	})

	ctx := New(failing, guarded).Run(NewPipelineContext(""))
	if !ctx.Failed() || !skipped {
		t.Errorf("Failed() = %v, skipped = %v", ctx.Failed(), skipped)
	}
}
