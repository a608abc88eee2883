// Package driver implements the build driver of spec §4.5 (component
// G): a dependency DAG over module paths, level-parallel scheduling,
// a content-hash incremental object cache, and the final external
// link step. Grounded on the teacher's internal/modules.Loader (which
// owns the same "resolve module path -> load -> cache" responsibility,
// just without parallelism) for the module-identity and caching shape,
// generalized here to a real multi-module dependency graph with a
// worker pool.
package driver

import "sort"

// Graph is a dependency DAG over module paths: an edge from->to means
// from depends on to (to must build first), matching spec §4.5
// add_dependency(from, to).
type Graph struct {
	nodes map[string]bool
	edges map[string][]string // from -> [to, ...]
}

func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]bool), edges: make(map[string][]string)}
}

func (g *Graph) AddModule(path string) {
	g.nodes[path] = true
}

// AddDependency records that from depends on to (spec §4.5).
func (g *Graph) AddDependency(from, to string) {
	g.nodes[from] = true
	g.nodes[to] = true
	g.edges[from] = append(g.edges[from], to)
}

// ParallelLevels returns modules grouped into dependency levels: level
// 0 has no dependencies, level N's modules depend only on modules in
// levels < N (spec §4.5 "Kahn-style parallel_levels()"). Within a
// level, modules are ordered deterministically (lexicographic by
// path) so repeated builds schedule identically. A cycle is broken by
// repeatedly dropping the lexicographically smallest still-unresolved
// edge until the graph is acyclic, rather than failing the build —
// spec §4.5 "deterministic arbitrary cycle-breaking".
func (g *Graph) ParallelLevels() [][]string {
	remaining := make(map[string][]string, len(g.edges))
	for k, v := range g.edges {
		remaining[k] = append([]string{}, v...)
	}

	var levels [][]string
	done := make(map[string]bool, len(g.nodes))

	for len(done) < len(g.nodes) {
		var ready []string
		for n := range g.nodes {
			if done[n] {
				continue
			}
			if allDone(remaining[n], done) {
				ready = append(ready, n)
			}
		}
		if len(ready) == 0 {
			// Cycle: break the lexicographically smallest unresolved
			// edge among all remaining nodes and retry this level.
			if !breakSmallestCycleEdge(remaining, done) {
				// No edges left to break but nothing is ready: emit
				// everything remaining as one final level to guarantee
				// termination.
				for n := range g.nodes {
					if !done[n] {
						ready = append(ready, n)
					}
				}
			} else {
				continue
			}
		}
		sort.Strings(ready)
		levels = append(levels, ready)
		for _, n := range ready {
			done[n] = true
		}
	}
	return levels
}

func allDone(deps []string, done map[string]bool) bool {
	for _, d := range deps {
		if !done[d] {
			return false
		}
	}
	return true
}

// breakSmallestCycleEdge removes one edge (the lexicographically
// smallest (from, to) pair among unresolved edges whose `to` is not
// yet done) to make progress possible, returning false if no such
// edge exists.
func breakSmallestCycleEdge(remaining map[string][]string, done map[string]bool) bool {
	bestFrom, bestTo, bestIdx := "", "", -1
	for from, deps := range remaining {
		if done[from] {
			continue
		}
		for i, to := range deps {
			if done[to] {
				continue
			}
			if bestTo == "" || from < bestFrom || (from == bestFrom && to < bestTo) {
				bestFrom, bestTo, bestIdx = from, to, i
			}
		}
	}
	if bestIdx == -1 {
		return false
	}
	deps := remaining[bestFrom]
	remaining[bestFrom] = append(deps[:bestIdx], deps[bestIdx+1:]...)
	return true
}
