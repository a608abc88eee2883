// Package pipeline sequences a module through the compiler's front
// stages — macro registration, type checking, plugin lint/transform
// hooks — as a chain of Processors threaded through a shared
// PipelineContext. Code generation and optimization are not Processors
// here; the build driver runs them. Grounded on the teacher's
// internal/pipeline/pipeline.go Pipeline{processors}/Run idiom; the
// teacher's own pipeline.go never defines PipelineContext or Processor
// themselves (every caller across cmd/lsp, internal/parser,
// internal/evaluator, internal/modules just imports them), so both
// types are defined here from scratch for this compiler's stage data.
package pipeline

import (
	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/diagnostics"
	"github.com/vaislang/vais-sub013/internal/symbols"
)

// PipelineContext threads one module's state through every stage. Each
// Processor reads what earlier stages produced and may add to it; per
// spec §4's "continue on errors" design, a stage recording errors
// never prevents Run from invoking the next one (the driver decides
// whether to abort the overall build once HasErrors() is true).
type PipelineContext struct {
	FilePath string
	Source   string

	Module *ast.Module
	Table  *symbols.Table

	IR          string
	OptimizedIR string

	Diagnostics *diagnostics.Bag

	// Data carries stage-specific extras that don't warrant a dedicated
	// field; none of the processors in this package store into it.
	Data map[string]any
}

// NewContext builds a context ready for Run, with an empty diagnostic
// bag sized to the driver's configured max.
func NewContext(filePath, source string, maxDiagnostics int) *PipelineContext {
	return &PipelineContext{
		FilePath:    filePath,
		Source:      source,
		Diagnostics: diagnostics.NewBag(maxDiagnostics),
		Data:        make(map[string]any),
	}
}

func (c *PipelineContext) HasErrors() bool {
	return c.Diagnostics != nil && c.Diagnostics.HasErrors()
}

// Processor is one pipeline stage (the macro, checker and plugin
// lint/transform stages in processors.go implement this).
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// ProcessorFunc adapts a plain function to Processor, matching the
// teacher's preference for small single-method stages over always
// requiring a dedicated struct.
type ProcessorFunc func(ctx *PipelineContext) *PipelineContext

func (f ProcessorFunc) Process(ctx *PipelineContext) *PipelineContext { return f(ctx) }

// Pipeline is a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline, continuing past a stage that recorded
// diagnostics so later stages can still contribute their own (spec §4
// "Continue on errors to collect diagnostics from all stages").
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}
