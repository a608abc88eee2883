package pipeline

import (
	"github.com/vaislang/vais-sub013/internal/checker"
	"github.com/vaislang/vais-sub013/internal/diagnostics"
	"github.com/vaislang/vais-sub013/internal/macro"
	"github.com/vaislang/vais-sub013/internal/plugin"
	"github.com/vaislang/vais-sub013/internal/symbols"
)

// LintProcessor runs a plugin.Host's registered Linters over ctx.Module
// and merges their diagnostics in as warnings (spec §2 "lint ... plugin
// phases"): a lint finding never aborts the pipeline on its own.
type LintProcessor struct {
	Host *plugin.Host
}

func (p LintProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Module == nil || p.Host == nil {
		return ctx
	}
	for _, d := range p.Host.RunLint(ctx.Module) {
		d.IsWarning = true
		ctx.Diagnostics.Add(d)
	}
	return ctx
}

// TransformProcessor runs a plugin.Host's registered Transformers over
// ctx.Module before type checking.
type TransformProcessor struct {
	Host *plugin.Host
}

func (p TransformProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Module == nil || p.Host == nil {
		return ctx
	}
	if err := p.Host.RunTransform(ctx.Module); err != nil {
		ctx.Diagnostics.Add(diagnostics.New(diagnostics.ErrRuntime, diagnostics.Span{}, ctx.FilePath, err.Error()))
	}
	return ctx
}

// MacroProcessor registers ctx.Module's macro declarations with a fresh
// macro.Expander; macro invocations are not expanded and the AST is
// left unchanged.
type MacroProcessor struct{}

func (MacroProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Module == nil {
		return ctx
	}
	macro.New().ExpandModule(ctx.Module)
	return ctx
}

// CheckProcessor builds the symbol table and runs the type checker,
// merging its diagnostics into ctx.Diagnostics rather than replacing
// it, matching spec §4's "continue on errors" accumulation.
type CheckProcessor struct {
	Table *symbols.Table
}

func (p CheckProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Module == nil {
		return ctx
	}
	table := p.Table
	if table == nil {
		table = symbols.New()
	}
	ctx.Table = table
	bag := checker.New(table).CheckModule(ctx.Module)
	if ctx.Diagnostics == nil {
		ctx.Diagnostics = bag
	} else {
		ctx.Diagnostics.Errors = append(ctx.Diagnostics.Errors, bag.Errors...)
		ctx.Diagnostics.Warnings = append(ctx.Diagnostics.Warnings, bag.Warnings...)
	}
	return ctx
}
