package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vaislang/vais-sub013/internal/optimizer"
)

func TestParseFlags(t *testing.T) {
	f, rest := parseFlags([]string{"-O2", "--emit-ir", "--target", "x86_64-unknown-linux-gnu", "-g", "main.vais"})
	assert.Equal(t, optimizer.O2, f.Level)
	assert.True(t, f.EmitIR)
	assert.True(t, f.DebugInfo)
	assert.Equal(t, "x86_64-unknown-linux-gnu", f.Target)
	assert.Equal(t, []string{"main.vais"}, rest)
}

func TestParseFlagsDefaultsToO0(t *testing.T) {
	f, rest := parseFlags([]string{"main.vais"})
	assert.Equal(t, optimizer.O0, f.Level)
	assert.Equal(t, []string{"main.vais"}, rest)
}

func TestOutputPathForStripsExtension(t *testing.T) {
	assert.Equal(t, "main", outputPathFor("main.vais"))
	assert.Equal(t, "app", outputPathFor("src/app.vais"))
}

func TestScaffoldCreatesExpectedLayout(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "demo")

	err := scaffold(name, false)
	assert.NoError(t, err)

	assertExists := func(p string) {
		_, statErr := os.Stat(p)
		assert.NoError(t, statErr, p)
	}
	assertExists(filepath.Join(name, "vais.toml"))
	assertExists(filepath.Join(name, "src", "main.vais"))
	assertExists(filepath.Join(name, "tests"))
	assertExists(filepath.Join(name, ".gitignore"))
}

func TestScaffoldLibEntryPoint(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "libdemo")

	err := scaffold(name, true)
	assert.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(name, "src", "lib.vais"))
	assert.NoError(t, statErr)
}
