package main

import (
	"fmt"
	"os"

	"github.com/vaislang/vais-sub013/internal/ast"
)

// parseSource hands source text to the external parser/lexer that
// spec §1 names as an out-of-scope collaborator ("the parser/lexer
// itself (assumed to produce the AST described in §3)"). This driver
// depends only on the *interface* that collaborator fulfills — a
// path to an *ast.Module — so the CLI's pipeline wiring (macro
// expansion, checking, codegen, optimization, caching, linking) is
// exercised end-to-end the moment that dependency is supplied.
//
// Without it, build/run/check report a plain error naming the missing
// parser/lexer collaborator rather than silently fabricating an AST.
func parseSource(path string) (*ast.Module, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return nil, fmt.Errorf("%s: no parser/lexer frontend is linked into this build (spec §1 scopes it out as an external collaborator); supply a *ast.Module via the driver API directly", path)
}
