package main

import (
	"fmt"
	"os"

	"github.com/vaislang/vais-sub013/internal/checker"
	"github.com/vaislang/vais-sub013/internal/symbols"
)

// handleCheck implements `vaisc check <file>`: parse + type-check
// only, no IR, no cache writes (spec §6).
func handleCheck() bool {
	if firstArg() != "check" {
		return false
	}
	_, rest := parseFlags(os.Args[2:])
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "usage: vaisc check <file>")
		os.Exit(1)
	}
	mod, err := parseSource(rest[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	table := symbols.New()
	bag := checker.New(table).CheckModule(mod)
	if bag.HasErrors() {
		fmt.Fprint(os.Stderr, bag.Report())
		os.Exit(1)
	}
	fmt.Println("ok")
	return true
}
