package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vaislang/vais-sub013/internal/config"
	"github.com/vaislang/vais-sub013/internal/driver"
	"github.com/vaislang/vais-sub013/internal/symbols"
)

// handleBuild implements `vaisc build <file>`: full pipeline to a
// linked binary (spec §6).
func handleBuild() bool {
	if firstArg() != "build" {
		return false
	}
	runBuild(os.Args[2:], true)
	return true
}

// runBuild drives one build invocation and returns the output binary
// path on success; exitOnFail controls whether a failure calls
// os.Exit (both build and run pass true); with false, a failure returns
// "".
func runBuild(args []string, exitOnFail bool) string {
	flags, rest := parseFlags(args)
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "usage: vaisc build <file> [-O0..-O3] [-g] [--emit-ir] [--target <triple>] [--verbose]")
		os.Exit(1)
	}
	sourcePath := rest[0]

	mod, err := parseSource(sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if exitOnFail {
			os.Exit(1)
		}
		return ""
	}

	outputPath := outputPathFor(sourcePath)
	d, err := driver.New(driver.Options{
		Level:      flags.Level,
		CacheDir:   config.DefaultCacheDir(),
		Target:     flags.Target,
		OutputPath: outputPath,
		EmitIR:     flags.EmitIR,
		Verbose:    flags.Verbose,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: opening build cache: %v\n", err)
		if exitOnFail {
			os.Exit(1)
		}
		return ""
	}
	defer d.Cache.Close()

	d.Graph.AddModule(sourcePath)
	sources := map[string]*driver.ModuleSource{
		sourcePath: {Path: sourcePath, Mod: mod, Table: symbols.New()},
	}

	results, err := d.Build(context.Background(), sources)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if exitOnFail {
			os.Exit(1)
		}
		return ""
	}
	failed := false
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", r.Path, r.Err)
			failed = true
		}
	}
	if failed {
		if exitOnFail {
			os.Exit(1)
		}
		return ""
	}
	return outputPath
}

func outputPathFor(sourcePath string) string {
	base := filepath.Base(sourcePath)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}
