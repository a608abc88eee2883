package checker

import (
	"sort"
	"strings"

	"github.com/vaislang/vais-sub013/internal/typesystem"
)

// Substitute applies σ to T, memoizing by (T-shape-hash, σ-hash) for the
// lifetime of the current check_module call (spec §4.2 "Substitution
// memoization"). The cache is cleared in CheckModule, not here.
func (c *Checker) Substitute(t typesystem.Type, s typesystem.Subst) typesystem.Type {
	if len(s) == 0 {
		return t
	}
	key := t.String() + "|" + substHash(s)
	if cached, ok := c.substCache[key]; ok {
		return cached
	}
	result := t.Apply(s)
	c.substCache[key] = result
	return result
}

// substHash produces a deterministic string over a substitution map's
// entries, sorted by key so iteration order never affects the cache key.
func substHash(s typesystem.Subst) string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(s[k].String())
		b.WriteByte(';')
	}
	return b.String()
}
