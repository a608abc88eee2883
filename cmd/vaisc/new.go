package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vaislang/vais-sub013/internal/config"
)

// handleNew implements `vaisc new <name> [--lib]`: scaffold a package
// directory with vais.toml, src/, tests/, .gitignore (spec §6). The
// manifest shape mirrors spec §6's fixed vais.toml schema exactly.
func handleNew() bool {
	if firstArg() != "new" {
		return false
	}
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: vaisc new <name> [--lib]")
		os.Exit(1)
	}
	name := os.Args[2]
	isLib := false
	for _, a := range os.Args[3:] {
		if a == "--lib" {
			isLib = true
		}
	}

	if err := scaffold(name, isLib); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created %s\n", name)
	return true
}

func scaffold(name string, isLib bool) error {
	dirs := []string{
		filepath.Join(name, "src"),
		filepath.Join(name, "tests"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}

	manifest := fmt.Sprintf(`[package]
name = %q
version = "0.1.0"
authors = []

[dependencies]
`, name)
	if err := os.WriteFile(filepath.Join(name, "vais.toml"), []byte(manifest), 0o644); err != nil {
		return err
	}

	entry := "main"
	body := "fn main() -> i64 {\n    return 0\n}\n"
	if isLib {
		entry = "lib"
		body = "pub fn hello() -> i64 {\n    return 0\n}\n"
	}
	entryPath := filepath.Join(name, "src", entry+config.SourceFileExt)
	if err := os.WriteFile(entryPath, []byte(body), 0o644); err != nil {
		return err
	}

	gitignore := "/target\n/.vais-cache\n"
	return os.WriteFile(filepath.Join(name, ".gitignore"), []byte(gitignore), 0o644)
}
