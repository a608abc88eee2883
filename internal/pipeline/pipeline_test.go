package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/diagnostics"
)

func TestRunChainsProcessorsAndContinuesOnErrors(t *testing.T) {
	ctx := NewContext("a.vais", "", 0)
	ctx.Module = &ast.Module{Path: "a.vais"}

	var order []string
	p := New(
		ProcessorFunc(func(c *PipelineContext) *PipelineContext {
			order = append(order, "first")
			c.Diagnostics.Add(diagnostics.New(diagnostics.ErrRuntime, diagnostics.Span{}, "a.vais", "boom"))
			return c
		}),
		ProcessorFunc(func(c *PipelineContext) *PipelineContext {
			order = append(order, "second")
			return c
		}),
	)

	out := p.Run(ctx)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.True(t, out.HasErrors())
}

func TestMacroProcessorNoopsOnNilModule(t *testing.T) {
	ctx := NewContext("a.vais", "", 0)
	out := MacroProcessor{}.Process(ctx)
	assert.Nil(t, out.Module)
}
