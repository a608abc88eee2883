package plugin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vaislang/vais-sub013/internal/ast"
	"github.com/vaislang/vais-sub013/internal/diagnostics"
)

type stubLinter struct{ msg string }

func (s stubLinter) Lint(mod *ast.Module) []*diagnostics.Diagnostic {
	return []*diagnostics.Diagnostic{diagnostics.New(diagnostics.ErrRuntime, diagnostics.Span{}, "", s.msg)}
}

type stubTransformer struct{ fail bool }

func (s stubTransformer) Transform(mod *ast.Module) error {
	if s.fail {
		return errors.New("transform failed")
	}
	return nil
}

type stubOptimizer struct{ suffix string }

func (s stubOptimizer) OptimizeIR(ir string) (string, error) { return ir + s.suffix, nil }

type stubCodegenHook struct{ seen []string }

func (s *stubCodegenHook) OnModuleIR(modulePath, ir string) { s.seen = append(s.seen, modulePath) }

func TestHostRunLintTagsPluginName(t *testing.T) {
	h := NewHost()
	h.Register(Plugin{Name: "my-linter", Linter: stubLinter{msg: "unused import"}})

	mod := &ast.Module{Path: "a.vais"}
	findings := h.RunLint(mod)
	assert.Len(t, findings, 1)
	assert.Equal(t, "plugin: my-linter", findings[0].Note)
}

func TestHostRunTransformStopsOnFirstError(t *testing.T) {
	h := NewHost()
	ran := false
	h.Register(Plugin{Name: "a", Transformer: stubTransformer{fail: true}})
	h.Register(Plugin{Name: "b", Transformer: transformerFunc(func(*ast.Module) error {
		ran = true
		return nil
	})})

	err := h.RunTransform(&ast.Module{})
	assert.Error(t, err)
	assert.False(t, ran, "second transformer should not run after first fails")
}

type transformerFunc func(mod *ast.Module) error

func (f transformerFunc) Transform(mod *ast.Module) error { return f(mod) }

func TestHostRunOptimizeChains(t *testing.T) {
	h := NewHost()
	h.Register(Plugin{Name: "a", Optimizer: stubOptimizer{suffix: "-a"}})
	h.Register(Plugin{Name: "b", Optimizer: stubOptimizer{suffix: "-b"}})

	out, err := h.RunOptimize("ir")
	assert.NoError(t, err)
	assert.Equal(t, "ir-a-b", out)
}

func TestHostRunCodegenHooks(t *testing.T) {
	h := NewHost()
	hook := &stubCodegenHook{}
	h.Register(Plugin{Name: "a", CodegenHook: hook})

	h.RunCodegenHooks("mod.vais", "define i64 @f() { ret i64 0 }")
	assert.Equal(t, []string{"mod.vais"}, hook.seen)
}
