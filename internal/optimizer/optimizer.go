// Package optimizer implements the text-based LLVM IR optimizer of
// spec §4.4 (component F): a small pipeline of line-oriented passes
// keyed by optimization level, grounded on the teacher's
// internal/backend.Backend dispatch shape (one object run once per
// stage, returning the transformed artifact rather than mutating in
// place) applied to IR text instead of an evaluator.Object.
package optimizer

import (
	"regexp"
	"strconv"
	"strings"
)

// Level is the optimization level requested for a build (spec §4.4).
type Level int

const (
	O0 Level = iota
	O1
	O2
	O3
)

func ParseLevel(s string) (Level, bool) {
	switch s {
	case "0", "O0":
		return O0, true
	case "1", "O1":
		return O1, true
	case "2", "O2":
		return O2, true
	case "3", "O3":
		return O3, true
	default:
		return O0, false
	}
}

func (l Level) String() string {
	return "O" + strconv.Itoa(int(l))
}

// Pass transforms one module's IR text, returning the same text
// unchanged if its precondition cannot be verified (spec §4.4 "every
// pass must no-op if its precondition can't be verified").
type Pass interface {
	Name() string
	Run(ir string) string
}

// Optimizer runs the passes appropriate to a Level in order. Every
// pass must preserve SSA-name uniqueness, terminator validity, and
// type correctness (spec §4.4); passes here only ever delete or fold
// lines, never rename, so those invariants hold by construction.
type Optimizer struct {
	passes map[Level][]Pass
}

func New() *Optimizer {
	o := &Optimizer{passes: make(map[Level][]Pass)}
	o.passes[O0] = nil
	o.passes[O1] = []Pass{constFoldPass{}, deadAllocaPass{}}
	o.passes[O2] = append(append([]Pass{}, o.passes[O1]...), csePass{})
	o.passes[O3] = append(append([]Pass{}, o.passes[O2]...), loopInvariantHoistPass{}, unusedPhiPass{})
	return o
}

// Optimize runs every pass registered for level in sequence against
// ir, the module's freshly generated IR text (spec §4.4).
func (o *Optimizer) Optimize(ir string, level Level) string {
	for _, p := range o.passes[level] {
		ir = p.Run(ir)
	}
	return ir
}

var lineRe = regexp.MustCompile(`\r?\n`)

func splitLines(ir string) []string {
	if ir == "" {
		return nil
	}
	return lineRe.Split(strings.TrimRight(ir, "\n"), -1)
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n") + "\n"
}
