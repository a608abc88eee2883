package driver

import "testing"

func TestParallelLevelsOrdersByDependency(t *testing.T) {
	g := NewGraph()
	g.AddModule("a")
	g.AddDependency("b", "a")
	g.AddDependency("c", "a")
	g.AddDependency("d", "b")
	g.AddDependency("d", "c")

	levels := g.ParallelLevels()
	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %d: %v", len(levels), levels)
	}
	if len(levels[0]) != 1 || levels[0][0] != "a" {
		t.Fatalf("expected level 0 = [a], got %v", levels[0])
	}
	if len(levels[1]) != 2 {
		t.Fatalf("expected level 1 to have b and c, got %v", levels[1])
	}
	if len(levels[2]) != 1 || levels[2][0] != "d" {
		t.Fatalf("expected level 2 = [d], got %v", levels[2])
	}
}

func TestParallelLevelsBreaksCycles(t *testing.T) {
	g := NewGraph()
	g.AddDependency("x", "y")
	g.AddDependency("y", "x")

	levels := g.ParallelLevels()
	total := 0
	for _, l := range levels {
		total += len(l)
	}
	if total != 2 {
		t.Fatalf("expected both cyclic nodes scheduled exactly once, got %d across %v", total, levels)
	}
}

func TestIRHashDeterministic(t *testing.T) {
	h1 := IRHash("define i64 @f() { ret i64 0 }", 0)
	h2 := IRHash("define i64 @f() { ret i64 0 }", 0)
	if h1 != h2 {
		t.Fatalf("expected stable hash, got %s vs %s", h1, h2)
	}
	h3 := IRHash("define i64 @f() { ret i64 0 }", 1)
	if h1 == h3 {
		t.Fatalf("expected opt-level to change the hash")
	}
}
