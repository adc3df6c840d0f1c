package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Sravan1011/Clamify/internal/model"
)

// VerdictCache layers an in-process store over a disk directory and
// speaks canonical verdicts instead of raw bytes. Only completed
// sessions are cached; failures never are.
type VerdictCache struct {
	memory *gocache.Cache
	disk   diskStore
}

// NewVerdictCache builds the layered cache from configuration.
func NewVerdictCache(cfg model.CacheConfig) *VerdictCache {
	dir := cfg.Dir
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".clamify", "cache")
		} else {
			dir = filepath.Join(os.TempDir(), "clamify-cache")
		}
	}

	return &VerdictCache{
		memory: gocache.New(cfg.MemoryTTL, 10*time.Minute),
		disk:   diskStore{dir: dir, ttl: cfg.DiskTTL},
	}
}

// Lookup returns a previously cached verdict for the claim, checking
// memory before disk and promoting disk hits.
func (c *VerdictCache) Lookup(claim string) (*model.Verdict, bool) {
	key := Key(claim)

	var data []byte
	if val, found := c.memory.Get(key); found {
		data = val.([]byte)
	} else {
		var ok bool
		data, ok = c.disk.read(key)
		if !ok {
			return nil, false
		}
		c.memory.SetDefault(key, data)
	}

	var v model.Verdict
	if err := json.Unmarshal(data, &v); err != nil {
		// A corrupt entry is dropped, not surfaced.
		_ = c.Evict(claim)
		return nil, false
	}
	return &v, true
}

// Store caches a completed verdict in both layers.
func (c *VerdictCache) Store(claim string, v *model.Verdict) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	key := Key(claim)
	c.memory.SetDefault(key, data)
	return c.disk.write(key, data)
}

// Evict removes the entry for a claim from both layers.
func (c *VerdictCache) Evict(claim string) error {
	key := Key(claim)
	c.memory.Delete(key)
	return os.Remove(c.disk.path(key))
}

// Clear removes everything from both layers.
func (c *VerdictCache) Clear() error {
	c.memory.Flush()
	return os.RemoveAll(c.disk.dir)
}

// diskStore persists entries under ~/.clamify/cache so verdicts
// survive across CLI invocations. Each entry carries its own expiry.
type diskStore struct {
	dir string
	ttl time.Duration
}

type diskEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (d diskStore) read(key string) ([]byte, bool) {
	data, err := os.ReadFile(d.path(key))
	if err != nil {
		return nil, false
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(d.path(key))
		return nil, false
	}
	return entry.Data, true
}

func (d diskStore) write(key string, value []byte) error {
	entry := diskEntry{
		Data:      value,
		ExpiresAt: time.Now().Add(d.ttl),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(d.path(key), data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

// path generates the file path for a cache key. Key separators are not
// legal in filenames everywhere, so they are flattened.
func (d diskStore) path(key string) string {
	return filepath.Join(d.dir, strings.ReplaceAll(key, ":", "-")+".cache")
}
