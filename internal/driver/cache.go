package driver

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	_ "modernc.org/sqlite"
)

// IRHash computes spec §4.5's cache key: sha256(ir_text || "|O" ||
// opt_level).
func IRHash(ir string, level int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|O%d", ir, level)))
	return hex.EncodeToString(sum[:])
}

// cacheEntry mirrors one row of the cache index, also mirrored to a
// YAML sidecar (spec §4.5 doesn't mandate a format for the index; the
// teacher's builtins_yaml.go already establishes yaml.v3 as this
// codebase's serialization library of choice for structured metadata,
// so the index snapshot used for startup recovery and human
// inspection is YAML rather than a second ad-hoc format).
type cacheEntry struct {
	Hash       string `yaml:"hash"`
	ObjectPath string `yaml:"object_path"`
	Size       int64  `yaml:"size"`
	MTimeUnix  int64  `yaml:"mtime"`
}

// Cache is the per-build-root object cache: a SQLite index (spec §4.5
// wires modernc.org/sqlite as the cache index backend — a pure-Go
// driver avoids a cgo dependency in the compiler toolchain itself)
// fronting `.o` files on disk under dir, bounded by limitBytes with
// LRU eviction run once at build end (spec §4.5).
type Cache struct {
	mu         sync.Mutex
	dir        string
	limitBytes int64
	db         *sql.DB
}

func OpenCache(dir string, limitBytes int64) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: mkdir %s: %w", dir, err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, fmt.Errorf("cache: open index: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		hash TEXT PRIMARY KEY,
		object_path TEXT NOT NULL,
		size INTEGER NOT NULL,
		mtime INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}
	return &Cache{dir: dir, limitBytes: limitBytes, db: db}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// Lookup returns the cached object file path for hash, if present and
// still on disk (spec §4.5 "cache lookup at cache_dir/ir_hash.o").
func (c *Cache) Lookup(hash string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var path string
	err := c.db.QueryRow(`SELECT object_path FROM entries WHERE hash = ?`, hash).Scan(&path)
	if err != nil {
		return "", false
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return "", false
	}
	c.touch(hash)
	return path, true
}

// touch bumps an entry's recency on a cache hit, so Evict's LRU order
// reflects last access rather than just last write.
func (c *Cache) touch(hash string) {
	_, _ = c.db.Exec(`UPDATE entries SET mtime = ? WHERE hash = ?`, time.Now().Unix(), hash)
}

// ObjectPath returns the canonical on-disk path for a given hash
// (spec §4.5 "cache_dir/ir_hash.o"), independent of whether it exists
// yet.
func (c *Cache) ObjectPath(hash string) string {
	return filepath.Join(c.dir, hash+".o")
}

// Store records a freshly compiled object file in the index.
func (c *Cache) Store(hash, objectPath string, mtimeUnix int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, err := os.Stat(objectPath)
	if err != nil {
		return fmt.Errorf("cache: stat %s: %w", objectPath, err)
	}
	_, err = c.db.Exec(
		`INSERT INTO entries (hash, object_path, size, mtime) VALUES (?, ?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET object_path=excluded.object_path, size=excluded.size, mtime=excluded.mtime`,
		hash, objectPath, info.Size(), mtimeUnix)
	return err
}

// Evict runs LRU eviction down to limitBytes (spec §4.5 "run only at
// build end") and returns the number of bytes freed; it logs nothing.
func (c *Cache) Evict() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(`SELECT hash, object_path, size, mtime FROM entries ORDER BY mtime ASC`)
	if err != nil {
		return 0, fmt.Errorf("cache: list entries: %w", err)
	}
	var entries []cacheEntry
	var total int64
	for rows.Next() {
		var e cacheEntry
		if err := rows.Scan(&e.Hash, &e.ObjectPath, &e.Size, &e.MTimeUnix); err != nil {
			rows.Close()
			return 0, err
		}
		entries = append(entries, e)
		total += e.Size
	}
	rows.Close()

	if total <= c.limitBytes {
		return 0, c.writeSnapshot(entries)
	}

	var freed int64
	i := 0
	for total > c.limitBytes && i < len(entries) {
		e := entries[i]
		if err := os.Remove(e.ObjectPath); err != nil && !os.IsNotExist(err) {
			return freed, fmt.Errorf("cache: evict %s: %w", e.ObjectPath, err)
		}
		if _, err := c.db.Exec(`DELETE FROM entries WHERE hash = ?`, e.Hash); err != nil {
			return freed, err
		}
		total -= e.Size
		freed += e.Size
		i++
	}
	return freed, c.writeSnapshot(entries[i:])
}

// writeSnapshot persists the surviving entries as a YAML sidecar
// (index.yaml) next to the SQLite index, for human inspection of the
// cache directory. Nothing in this repository reads the file back.
func (c *Cache) writeSnapshot(entries []cacheEntry) error {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Hash < entries[j].Hash })
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("cache: marshal snapshot: %w", err)
	}
	return os.WriteFile(filepath.Join(c.dir, "index.yaml"), data, 0o644)
}

// SizeReport renders the cache's current total size against its limit,
// human-readable via go-humanize. No build path calls it, so --verbose
// does not print it.
func (c *Cache) SizeReport() string {
	var total int64
	_ = c.db.QueryRow(`SELECT COALESCE(SUM(size), 0) FROM entries`).Scan(&total)
	return fmt.Sprintf("%s / %s", humanize.Bytes(uint64(total)), humanize.Bytes(uint64(c.limitBytes)))
}
