// Package plugin defines the core-side plugin phase interfaces (spec
// §1/§2 component I): lint, transform, optimize, and codegen hooks a
// plugin can register into the compiler pipeline. The dynamic-library
// loader and any IPC wire format that would load a plugin's code into
// the process are explicitly out of scope (spec §1 "plugin
// dynamic-library loader" is named as an external collaborator) — this
// package only specifies the phase interface itself, in-process
// implementations register directly.
//
// Modeled on the teacher's internal/pipeline.Processor single-method
// stage shape and internal/ext's functional-options Builder
// configuration idiom (NewBuilder(cfg, opts...)), generalized from one
// build-composition tool into four narrow hook points a plugin may
// implement any subset of.
package plugin

import (
	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/diagnostics"
)

// Phase names one of the four points in the pipeline a plugin may hook
// (spec §2 overview table: "Lint / transform / optimize / codegen
// plugin phases").
type Phase string

const (
	PhaseLint      Phase = "lint"
	PhaseTransform Phase = "transform"
	PhaseOptimize  Phase = "optimize"
	PhaseCodegen   Phase = "codegen"
)

// Linter inspects a module and reports diagnostics without mutating
// it. Errors returned here are warnings by convention (a lint plugin
// that wants to fail the build should return an error from its
// registration instead); Lint only accumulates into the bag.
type Linter interface {
	Lint(mod *ast.Module) []*diagnostics.Diagnostic
}

// Transformer rewrites a module's AST in place before type checking,
// the same timing the macro expander runs at.
type Transformer interface {
	Transform(mod *ast.Module) error
}

// Optimizer post-processes already-generated IR text for one module
// via Host.RunOptimize; the build driver does not call RunOptimize.
type Optimizer interface {
	OptimizeIR(ir string) (string, error)
}

// CodegenHook observes (but does not alter) the final IR text for a
// module via Host.RunCodegenHooks, an attachment point for a plugin
// that emits side-channel artifacts (e.g. a debug-info sidecar); the
// build driver does not call RunCodegenHooks.
type CodegenHook interface {
	OnModuleIR(modulePath, ir string)
}

// Plugin is the full set of hooks a registered plugin may implement;
// a plugin need not implement all four — Host only invokes the
// interfaces a given value satisfies (spec: "plugin phases" plural,
// not a single monolithic callback).
type Plugin struct {
	Name string

	Linter      Linter
	Transformer Transformer
	Optimizer   Optimizer
	CodegenHook CodegenHook
}

// Host holds the registered plugins for a build and dispatches each
// phase to whichever plugins implement it, in registration order.
type Host struct {
	plugins []Plugin
}

func NewHost() *Host { return &Host{} }

func (h *Host) Register(p Plugin) { h.plugins = append(h.plugins, p) }

// RunLint runs every registered Linter against mod and returns all
// diagnostics raised, tagged with the plugin's name in Note when the
// diagnostic doesn't already carry one.
func (h *Host) RunLint(mod *ast.Module) []*diagnostics.Diagnostic {
	var out []*diagnostics.Diagnostic
	for _, p := range h.plugins {
		if p.Linter == nil {
			continue
		}
		for _, d := range p.Linter.Lint(mod) {
			if d.Note == "" {
				d.Note = "plugin: " + p.Name
			}
			out = append(out, d)
		}
	}
	return out
}

// RunTransform runs every registered Transformer in order, stopping at
// the first error (a failed rewrite leaves the AST in an
// indeterminate state, so later transforms are not attempted).
func (h *Host) RunTransform(mod *ast.Module) error {
	for _, p := range h.plugins {
		if p.Transformer == nil {
			continue
		}
		if err := p.Transformer.Transform(mod); err != nil {
			return err
		}
	}
	return nil
}

// RunOptimize threads ir through every registered Optimizer in
// registration order, each seeing the previous one's output.
func (h *Host) RunOptimize(ir string) (string, error) {
	for _, p := range h.plugins {
		if p.Optimizer == nil {
			continue
		}
		next, err := p.Optimizer.OptimizeIR(ir)
		if err != nil {
			return ir, err
		}
		ir = next
	}
	return ir, nil
}

// RunCodegenHooks notifies every registered CodegenHook of a module's
// final IR; hooks cannot fail the build, matching their observer-only
// contract.
func (h *Host) RunCodegenHooks(modulePath, ir string) {
	for _, p := range h.plugins {
		if p.CodegenHook != nil {
			p.CodegenHook.OnModuleIR(modulePath, ir)
		}
	}
}
