package driver

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/codegen"
	"github.com/vaislang/vais-sub013/internal/config"
	"github.com/vaislang/vais-sub013/internal/optimizer"
	"github.com/vaislang/vais-sub013/internal/symbols"
)

// ModuleSource is one module's already-parsed AST plus the symbol
// table the checker populated for it, the unit of work the per-module
// pipeline runs over (spec §4.5).
type ModuleSource struct {
	Path  string
	Mod   *ast.Module
	Table *symbols.Table
}

// ModuleResult is what one module's pipeline stage produces: its
// compiled object file path, or the error that stopped it.
type ModuleResult struct {
	Path       string
	ObjectPath string
	CacheHit   bool
	Err        error
}

// Options configures one Build invocation (spec §4.5, §6).
type Options struct {
	Level       optimizer.Level
	CacheDir    string
	CacheLimit  int64
	Target      string // e.g. "x86_64-unknown-linux-gnu"; "" uses the host default
	OutputPath  string
	EmitIR      bool
	Verbose     bool
	ClangPath   string
}

func (o Options) clang() string {
	if o.ClangPath != "" {
		return o.ClangPath
	}
	return "clang"
}

// Driver runs the build graph's levels in dependency order, each
// level's modules in parallel, through codegen -> optimize -> hash ->
// cache -> external-compile, then links the result (spec §4.5).
// Grounded on the teacher's internal/pipeline.Pipeline.Run shape for
// "run stages in order, keep going to collect every diagnostic" and on
// internal/modules.Loader for per-module caching, generalized to a
// concurrent worker pool sized to CPU count (spec §4.5 "worker pool
// sized to CPU count") via golang.org/x/sync/errgroup.
type Driver struct {
	Graph *Graph
	Cache *Cache
	opts  Options
	opt   *optimizer.Optimizer

	SessionID uuid.UUID
}

func New(opts Options) (*Driver, error) {
	if opts.CacheDir == "" {
		opts.CacheDir = config.DefaultCacheDir()
	}
	if opts.CacheLimit == 0 {
		opts.CacheLimit = config.DefaultCacheLimitBytes
	}
	cache, err := OpenCache(opts.CacheDir, opts.CacheLimit)
	if err != nil {
		return nil, err
	}
	return &Driver{
		Graph:     NewGraph(),
		Cache:     cache,
		opts:      opts,
		opt:       optimizer.New(),
		SessionID: uuid.New(),
	}, nil
}

// Build runs every module in sources through the pipeline, respecting
// the dependency graph's levels, then links every produced object into
// opts.OutputPath. Cache eviction runs once, after all modules and the
// link step complete (spec §4.5).
func (d *Driver) Build(ctx context.Context, sources map[string]*ModuleSource) ([]ModuleResult, error) {
	levels := d.Graph.ParallelLevels()
	results := make(map[string]ModuleResult, len(sources))

	for _, level := range levels {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.NumCPU())
		levelResults := make([]ModuleResult, len(level))
		for i, path := range level {
			i, path := i, path
			src, ok := sources[path]
			if !ok {
				continue
			}
			g.Go(func() error {
				levelResults[i] = d.compileModule(gctx, src)
				return nil // errors are per-module, not fatal to the group
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for _, r := range levelResults {
			if r.Path != "" {
				results[r.Path] = r
			}
		}
	}

	ordered := make([]ModuleResult, 0, len(results))
	var objects []string
	for _, level := range levels {
		for _, path := range level {
			r, ok := results[path]
			if !ok {
				continue
			}
			ordered = append(ordered, r)
			if r.Err == nil {
				objects = append(objects, r.ObjectPath)
			}
		}
	}

	// Deferred so eviction runs after the link step, on every return
	// path; the freed byte count and any eviction error are discarded.
	defer func() { _, _ = d.Cache.Evict() }()

	if anyErr(ordered) {
		return ordered, fmt.Errorf("driver: %d module(s) failed, not linking", countErrs(ordered))
	}
	if d.opts.OutputPath != "" {
		if err := d.link(ctx, objects); err != nil {
			return ordered, err
		}
	}
	return ordered, nil
}

func anyErr(results []ModuleResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

func countErrs(results []ModuleResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// compileModule runs one module through codegen -> optimize -> hash ->
// cache lookup/compile (spec §4.5). A cache hit skips codegen/optimize
// entirely once the hash is known to match a prior build's IR... but
// since the hash is itself a function of the freshly generated IR,
// codegen always runs; only the external `clang -c` invocation is
// skippable on a cache hit.
func (d *Driver) compileModule(ctx context.Context, src *ModuleSource) ModuleResult {
	gen := codegen.New(src.Table)
	ir, errs := gen.GenerateModule(src.Mod)
	if len(errs) > 0 {
		return ModuleResult{Path: src.Path, Err: fmt.Errorf("driver: %s: %w", src.Path, errs[0])}
	}

	ir = d.opt.Optimize(ir, d.opts.Level)

	if d.opts.EmitIR {
		irPath := filepath.Join(d.opts.CacheDir, sanitizeModuleName(src.Path)+".ll")
		_ = os.WriteFile(irPath, []byte(ir), 0o644)
	}

	hash := IRHash(ir, int(d.opts.Level))
	if objPath, hit := d.Cache.Lookup(hash); hit {
		return ModuleResult{Path: src.Path, ObjectPath: objPath, CacheHit: true}
	}

	objPath := d.Cache.ObjectPath(hash)
	irPath := objPath + ".ll"
	if err := os.WriteFile(irPath, []byte(ir), 0o644); err != nil {
		return ModuleResult{Path: src.Path, Err: fmt.Errorf("driver: write ir for %s: %w", src.Path, err)}
	}
	defer os.Remove(irPath)

	if err := d.runClang(ctx, irPath, objPath); err != nil {
		return ModuleResult{Path: src.Path, Err: err}
	}
	if err := d.Cache.Store(hash, objPath, time.Now().Unix()); err != nil {
		return ModuleResult{Path: src.Path, Err: err}
	}
	return ModuleResult{Path: src.Path, ObjectPath: objPath}
}

func sanitizeModuleName(path string) string {
	out := make([]byte, 0, len(path))
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == '/' || c == '\\' {
			out = append(out, '_')
		} else {
			out = append(out, c)
		}
	}
	return string(out)
}

// runClang invokes the external clang binary to compile one module's
// IR to an object file (spec §4.5 "external clang -c -O<level>").
func (d *Driver) runClang(ctx context.Context, irPath, objPath string) error {
	args := []string{"-c", "-O" + levelFlag(d.opts.Level), "-x", "ir", irPath, "-o", objPath}
	if d.opts.Target != "" {
		args = append([]string{"-target", d.opts.Target}, args...)
	}
	cmd := exec.CommandContext(ctx, d.opts.clang(), args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("driver: clang -c failed: %w\n%s", err, out)
	}
	return nil
}

// link invokes clang on every produced object to build the final
// binary, with the platform library matching the host (spec §4.5
// "-lSystem on Darwin / -lm on Linux").
func (d *Driver) link(ctx context.Context, objects []string) error {
	args := append([]string{}, objects...)
	args = append(args, "-O"+levelFlag(d.opts.Level), "-o", d.opts.OutputPath)
	if d.opts.Target != "" {
		args = append([]string{"-target", d.opts.Target}, args...)
	}
	args = append(args, platformLib()...)
	cmd := exec.CommandContext(ctx, d.opts.clang(), args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("driver: link failed: %w\n%s", err, out)
	}
	return nil
}

func levelFlag(l optimizer.Level) string {
	switch l {
	case optimizer.O1:
		return "1"
	case optimizer.O2:
		return "2"
	case optimizer.O3:
		return "3"
	default:
		return "0"
	}
}

func platformLib() []string {
	if runtime.GOOS == "darwin" {
		return []string{"-lSystem"}
	}
	return []string{"-lm"}
}
