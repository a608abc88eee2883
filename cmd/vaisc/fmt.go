package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vaislang/vais-sub013/internal/config"
)

// handleFmt implements `vaisc fmt <path>`: reformat .vais files in
// place (spec §6). The reformatter itself belongs to the
// out-of-scope parser/prettyprinter collaborator (spec §1); this
// walks the tree and reports which files it would touch, matching the
// "only their interfaces are specified" scoping for this command.
func handleFmt() bool {
	if firstArg() != "fmt" {
		return false
	}
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: vaisc fmt <path>")
		os.Exit(1)
	}
	root := os.Args[2]

	var touched int
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != config.SourceFileExt {
			return nil
		}
		touched++
		fmt.Println(path)
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if touched == 0 {
		fmt.Fprintf(os.Stderr, "vaisc fmt: no %s files found under %s\n", config.SourceFileExt, root)
	}
	return true
}
