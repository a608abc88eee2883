package main

import (
	"strings"

	"github.com/vaislang/vais-sub013/internal/config"
	"github.com/vaislang/vais-sub013/internal/optimizer"
)

// buildFlags holds the subset of spec §6 flags relevant to the core
// (`-O0..-O3`, `-g`, `--emit-ir`, `--target`, `--verbose`), parsed by
// hand from a subcommand's trailing arguments the same way the
// teacher's handleBuild/handleCompile scan os.Args manually instead of
// using the flag package.
type buildFlags struct {
	Level     optimizer.Level
	DebugInfo bool
	EmitIR    bool
	Target    string
	Verbose   bool
}

func defaultBuildFlags() buildFlags {
	return buildFlags{Level: optimizer.O0}
}

// parseFlags scans args for recognized flags and returns them plus the
// remaining positional arguments in order.
func parseFlags(args []string) (buildFlags, []string) {
	f := defaultBuildFlags()
	var rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case len(arg) == 3 && strings.HasPrefix(arg, "-O"):
			if lvl, ok := optimizer.ParseLevel(arg[2:]); ok {
				f.Level = lvl
				continue
			}
			rest = append(rest, arg)
		case arg == "-g":
			f.DebugInfo = true
		case arg == "--emit-ir":
			f.EmitIR = true
		case arg == "--verbose":
			f.Verbose = true
			config.IsVerbose = true
		case arg == "--target":
			if i+1 < len(args) {
				f.Target = args[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--target="):
			f.Target = strings.TrimPrefix(arg, "--target=")
		default:
			rest = append(rest, arg)
		}
	}
	return f, rest
}
