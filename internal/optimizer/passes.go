package optimizer

import (
	"regexp"
	"strconv"
	"strings"
)

// constFoldPass (O1): folds trivial integer arithmetic between two
// literal operands (`add i64 3, 4` -> a substituted constant) and
// rewrites every later use of the folded SSA name to the literal. Any
// operand that isn't a bare integer literal leaves the line untouched
// (spec §4.4 "must no-op if its precondition can't be verified").
type constFoldPass struct{}

func (constFoldPass) Name() string { return "const-fold" }

var foldableOp = regexp.MustCompile(`^\s*(%\S+)\s*=\s*(add|sub|mul)\s+i(\d+)\s+(-?\d+),\s*(-?\d+)\s*$`)

func (constFoldPass) Run(ir string) string {
	lines := splitLines(ir)
	subst := map[string]string{}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		substituted := applySubst(line, subst)
		m := foldableOp.FindStringSubmatch(substituted)
		if m == nil {
			out = append(out, substituted)
			continue
		}
		name, op, a, b := m[1], m[2], m[4], m[5]
		av, aerr := strconv.ParseInt(a, 10, 64)
		bv, berr := strconv.ParseInt(b, 10, 64)
		if aerr != nil || berr != nil {
			out = append(out, substituted)
			continue
		}
		var result int64
		switch op {
		case "add":
			result = av + bv
		case "sub":
			result = av - bv
		case "mul":
			result = av * bv
		}
		subst[name] = strconv.FormatInt(result, 10)
		// drop the instruction; every later reference is substituted.
	}
	return joinLines(out)
}

func applySubst(line string, subst map[string]string) string {
	if len(subst) == 0 {
		return line
	}
	for name, val := range subst {
		line = replaceOperand(line, name, val)
	}
	return line
}

// replaceOperand replaces whole-token occurrences of name (an SSA
// register like `%t3`) with val, never touching a longer register name
// that merely shares a prefix (`%t3` must not match `%t30`).
func replaceOperand(line, name, val string) string {
	if !strings.Contains(line, name) {
		return line
	}
	re := regexp.MustCompile(regexp.QuoteMeta(name) + `\b`)
	return re.ReplaceAllString(line, val)
}

// deadAllocaPass (O1): removes an `alloca` whose SSA name is never
// referenced again in the function body (no store, no load, no GEP).
// Conservative: only considers allocas inside one `define` block at a
// time, and only removes when the name literally does not reappear
// anywhere else in that block's text.
type deadAllocaPass struct{}

func (deadAllocaPass) Name() string { return "dead-alloca" }

var allocaLine = regexp.MustCompile(`^\s*(%\S+)\s*=\s*alloca\b`)

func (deadAllocaPass) Run(ir string) string {
	lines := splitLines(ir)
	out := make([]string, 0, len(lines))
	blockStart := 0
	for i := 0; i <= len(lines); i++ {
		if i == len(lines) || strings.HasPrefix(strings.TrimSpace(lines[i]), "}") {
			out = append(out, deadAllocaInBlock(lines[blockStart:i])...)
			if i < len(lines) {
				out = append(out, lines[i])
			}
			blockStart = i + 1
		}
	}
	return joinLines(out)
}

func deadAllocaInBlock(block []string) []string {
	uses := map[string]int{}
	for _, line := range block {
		for _, m := range regexp.MustCompile(`%[\w.]+`).FindAllString(line, -1) {
			uses[m]++
		}
	}
	out := make([]string, 0, len(block))
	for _, line := range block {
		m := allocaLine.FindStringSubmatch(line)
		if m != nil && uses[m[1]] == 1 {
			continue // only self-reference, on the defining line
		}
		out = append(out, line)
	}
	return out
}

// csePass (O2): common subexpression elimination within one basic
// block — an instruction textually identical (opcode+operands, name
// aside) to an earlier one in the same block is replaced by a
// reference to the earlier result. Blocks are delimited by label lines
// (`name:`) only, matching spec §4.4 "same-BB CSE".
type csePass struct{}

func (csePass) Name() string { return "cse" }

var ssaDef = regexp.MustCompile(`^\s*(%\S+)\s*=\s*(.+)$`)
var labelLine = regexp.MustCompile(`^\S+:\s*$`)

func (csePass) Run(ir string) string {
	lines := splitLines(ir)
	out := make([]string, 0, len(lines))
	seen := map[string]string{}
	subst := map[string]string{}
	for _, line := range lines {
		line = applySubst(line, subst)
		if labelLine.MatchString(strings.TrimSpace(line)) {
			seen = map[string]string{}
			out = append(out, line)
			continue
		}
		m := ssaDef.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		name, rhs := m[1], m[2]
		if prior, ok := seen[rhs]; ok {
			subst[name] = prior
			continue
		}
		seen[rhs] = name
		out = append(out, line)
	}
	return joinLines(out)
}

// loopInvariantHoistPass (O3): hoists an integer-constant computation
// (an instruction whose operands are all bare literals) out of a block
// labelled while/for/loop + `.cond`/`.body` + N (spec §4.3.3's label
// naming) to just before that block's label. The rest of the loop's
// shape is not checked.
type loopInvariantHoistPass struct{}

func (loopInvariantHoistPass) Name() string { return "licm-int" }

var condLabel = regexp.MustCompile(`^(while|for|loop)\.(cond|body)\d+:$`)

func (loopInvariantHoistPass) Run(ir string) string {
	lines := splitLines(ir)
	out := make([]string, 0, len(lines))
	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if !condLabel.MatchString(trimmed) {
			out = append(out, lines[i])
			i++
			continue
		}
		headerIdx := len(out)
		out = append(out, lines[i])
		i++
		var hoisted []string
		for i < len(lines) {
			inner := strings.TrimSpace(lines[i])
			if labelLine.MatchString(inner) || strings.HasPrefix(inner, "}") {
				break
			}
			if m := foldableOp.FindStringSubmatch(lines[i]); m != nil {
				hoisted = append(hoisted, lines[i])
				i++
				continue
			}
			out = append(out, lines[i])
			i++
		}
		if len(hoisted) > 0 {
			rest := append([]string{}, out[headerIdx:]...)
			out = append(out[:headerIdx], hoisted...)
			out = append(out, rest...)
		}
	}
	return joinLines(out)
}

// unusedPhiPass (O3): removes a `phi` instruction whose SSA name never
// appears anywhere else in the module — a common residue once
// constFoldPass/csePass have eliminated every would-be consumer.
type unusedPhiPass struct{}

func (unusedPhiPass) Name() string { return "unused-phi" }

var phiLine = regexp.MustCompile(`^\s*(%\S+)\s*=\s*phi\b`)

func (unusedPhiPass) Run(ir string) string {
	lines := splitLines(ir)
	uses := map[string]int{}
	for _, line := range lines {
		for _, m := range regexp.MustCompile(`%\w+`).FindAllString(line, -1) {
			uses[m]++
		}
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		m := phiLine.FindStringSubmatch(line)
		if m != nil && uses[m[1]] == 1 {
			continue
		}
		out = append(out, line)
	}
	return joinLines(out)
}
