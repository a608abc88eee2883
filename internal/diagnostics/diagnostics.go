// Package diagnostics implements the error taxonomy and rendering of
// spec §6/§7: a stable per-kind error code, a source span, and the
// `error[Enn]: <title>` + arrow + help/note rendering. The shape
// (Code + Token + File + Message, Error() string) mirrors the teacher's
// internal/diagnostics.DiagnosticError as consumed from
// cmd/funxy/main.go and cmd/lsp/diagnostics.go.
package diagnostics

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/vaislang/vais-sub013/internal/config"
)

// Span is a lightweight, package-local position (line/column, 1-based)
// so diagnostics has no dependency on the AST package — every upstream
// package (ast, typesystem, symbols, checker, codegen, driver, vm) can
// import diagnostics without risking an import cycle.
type Span struct {
	Line, Column int
}

// Code is a stable error code, one per TypeError/driver/VM error kind
// (spec §6 "Error codes are stable per TypeError kind").
type Code string

const (
	// Type errors (spec §7.2)
	ErrMismatch                 Code = "E001"
	ErrUndefinedVar              Code = "E002"
	ErrUndefinedFunction          Code = "E003"
	ErrArityMismatch              Code = "E004"
	ErrImmutableAssign            Code = "E005"
	ErrNonBoolCondition           Code = "E006"
	ErrInvalidOperand             Code = "E007"
	ErrDuplicateDefinition        Code = "E008"
	ErrMissingTraitImpl           Code = "E009"
	ErrNonExhaustiveMatch         Code = "E010"
	ErrUnreachablePattern         Code = "E011"
	ErrContractReferencesUnknown  Code = "E012"
	ErrEffectViolation            Code = "E013"
	ErrConstEvalFailure           Code = "E014"
	ErrGenericBoundUnsatisfied    Code = "E015"

	// Codegen errors (spec §7.3)
	ErrUnsupported Code = "E050"
	ErrCodegenType Code = "E051"
	ErrLayout      Code = "E052"

	// Driver errors (spec §7.4)
	ErrIO                Code = "E100"
	ErrExternalToolFailed Code = "E101"
	ErrCacheCorrupt       Code = "E102"
	ErrLinkFailed         Code = "E103"

	// VM errors (spec §7.5), surfaced to the guest rather than aborting a
	// build, but sharing the same rendering path.
	ErrVMTypeMismatch       Code = "E200"
	ErrVMUndefinedFunction  Code = "E201"
	ErrVMDivisionByZero     Code = "E202"
	ErrVMStackOverflow      Code = "E203"
	ErrVMIndexOutOfBounds   Code = "E204"
	ErrVMChannelClosed      Code = "E205"
	ErrVMJitFailed          Code = "E206"

	// Generic runtime diagnostic bucket, mirrors the teacher's ErrR001
	// fallback for errors that don't map to a more specific code.
	ErrRuntime Code = "R001"
)

// Diagnostic is one reportable error or warning.
type Diagnostic struct {
	Code     Code
	Span     Span
	File     string
	Message  string
	Help     string
	Note     string
	IsWarning bool
}

// New builds a fatal diagnostic.
func New(code Code, span Span, file, message string) *Diagnostic {
	return &Diagnostic{Code: code, Span: span, File: file, Message: message}
}

// NewWarning builds a non-fatal diagnostic (spec §7 "Warnings").
func NewWarning(code Code, span Span, file, message string) *Diagnostic {
	return &Diagnostic{Code: code, Span: span, File: file, Message: message, IsWarning: true}
}

// WithHelp attaches a `help:` line and returns the receiver for chaining.
func (d *Diagnostic) WithHelp(help string) *Diagnostic {
	d.Help = help
	return d
}

// WithNote attaches a `note:` line and returns the receiver for chaining.
func (d *Diagnostic) WithNote(note string) *Diagnostic {
	d.Note = note
	return d
}

func (d *Diagnostic) Error() string { return d.Render(false) }

// Render produces the spec §6 diagnostic header:
//
//	error[Enn]: <title>
//	  --> file:line:col
//	  = help: ...
//	  = note: ...
//
// The offending source line and its underline are not rendered; a
// Diagnostic carries only the span, not the source text.
func (d *Diagnostic) Render(colorOverride ...bool) string {
	useColor := shouldColor()
	if len(colorOverride) > 0 {
		useColor = colorOverride[0]
	}

	kind := "error"
	if d.IsWarning {
		kind = "warning"
	}

	var b strings.Builder
	if useColor {
		fmt.Fprintf(&b, "\x1b[1;31m%s[%s]\x1b[0m\x1b[1m: %s\x1b[0m\n", kind, d.Code, d.Message)
	} else {
		fmt.Fprintf(&b, "%s[%s]: %s\n", kind, d.Code, d.Message)
	}
	if d.File != "" {
		fmt.Fprintf(&b, "  --> %s:%d:%d\n", d.File, d.Span.Line, d.Span.Column)
	}
	if d.Help != "" {
		fmt.Fprintf(&b, "  = help: %s\n", d.Help)
	}
	if d.Note != "" {
		fmt.Fprintf(&b, "  = note: %s\n", d.Note)
	}
	return b.String()
}

// shouldColor gates ANSI output on terminal detection + CLICOLOR_FORCE,
// following the teacher's evaluator/builtins_term.go isatty gate.
func shouldColor() bool {
	if config.IsTestMode {
		return false
	}
	if config.ColorForced() {
		return true
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// Bag accumulates diagnostics across items the way spec §4.2/§7 requires:
// type/parse errors accumulate per item, warnings accumulate
// independently, and a fatal error in one item does not stop the rest
// of the module.
type Bag struct {
	Errors   []*Diagnostic
	Warnings []*Diagnostic
	max      int
}

// NewBag creates a Bag capped at the given max diagnostic count (spec §7
// "prints the first 100 diagnostics (configurable)"); max <= 0 means the
// config default.
func NewBag(max int) *Bag {
	if max <= 0 {
		max = config.DefaultMaxDiagnostics
	}
	return &Bag{max: max}
}

func (b *Bag) Add(d *Diagnostic) {
	if d.IsWarning {
		b.Warnings = append(b.Warnings, d)
		return
	}
	b.Errors = append(b.Errors, d)
}

func (b *Bag) HasErrors() bool { return len(b.Errors) > 0 }

// Report renders up to max errors (then warnings) in source order.
func (b *Bag) Report() string {
	var out strings.Builder
	all := append(append([]*Diagnostic{}, b.Errors...), b.Warnings...)
	n := 0
	for _, d := range all {
		if n >= b.max {
			fmt.Fprintf(&out, "... %d more diagnostics suppressed\n", len(all)-n)
			break
		}
		out.WriteString(d.Render())
		n++
	}
	return out.String()
}

// NewConstEvalError is a small constructor used by packages (like
// typesystem) that cannot import the rest of the diagnostic machinery
// without an import cycle; it returns a plain error carrying the
// ConstEvalFailure code in its text so callers can still recognize it.
func NewConstEvalError(msg string) error {
	return fmt.Errorf("%s: %s", ErrConstEvalFailure, msg)
}
