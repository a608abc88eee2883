package optimizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestO0IsIdentity(t *testing.T) {
	ir := "define i64 @f() {\nentry:\n  %t1 = add i64 3, 4\n  ret i64 %t1\n}\n"
	o := New()
	assert.Equal(t, ir, o.Optimize(ir, O0))
}

func TestConstFoldDropsLiteralArithmetic(t *testing.T) {
	ir := "define i64 @f() {\nentry:\n  %t1 = add i64 3, 4\n  ret i64 %t1\n}\n"
	out := constFoldPass{}.Run(ir)
	assert.NotContains(t, out, "%t1 = add")
	assert.Contains(t, out, "ret i64 7")
}

func TestDeadAllocaRemovesUnreferenced(t *testing.T) {
	ir := "define void @f() {\nentry:\n  %x.addr = alloca i64\n  ret void\n}\n"
	out := deadAllocaPass{}.Run(ir)
	assert.NotContains(t, out, "alloca")
}

func TestDeadAllocaKeepsReferenced(t *testing.T) {
	ir := "define void @f() {\nentry:\n  %x.addr = alloca i64\n  store i64 1, i64* %x.addr\n  ret void\n}\n"
	out := deadAllocaPass{}.Run(ir)
	assert.Contains(t, out, "alloca")
}

func TestCSEReplacesDuplicateComputation(t *testing.T) {
	ir := "define i64 @f(i64 %a, i64 %b) {\nentry:\n  %t1 = add i64 %a, %b\n  %t2 = add i64 %a, %b\n  ret i64 %t2\n}\n"
	out := csePass{}.Run(ir)
	assert.NotContains(t, out, "%t2 = add")
	assert.True(t, strings.Contains(out, "ret i64 %t1"))
}

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in string
		lv Level
	}{{"O0", O0}, {"1", O1}, {"O2", O2}, {"3", O3}} {
		lv, ok := ParseLevel(tc.in)
		assert.True(t, ok)
		assert.Equal(t, tc.lv, lv)
	}
	_, ok := ParseLevel("O9")
	assert.False(t, ok)
}

func TestO3SupersetOfO1(t *testing.T) {
	o := New()
	assert.True(t, len(o.passes[O3]) >= len(o.passes[O1]))
}
