// Package cache provides an LRU cache and, on top of it, a cache of
// document validation reports keyed by content digest.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/FocuswithJustin/odfnote/core/fingerprint"
)

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

// Config contains cache configuration options.
type Config struct {
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int

	// TTL is the time-to-live for entries (0 = no expiration).
	TTL time.Duration
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig() Config {
	return Config{MaxSize: 100}
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// LRU is a thread-safe least-recently-used cache.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	config  Config
	entries map[K]*list.Element
	order   *list.List
	stats   Stats
	now     func() time.Time
}

// NewLRU creates a cache with the given configuration.
func NewLRU[K comparable, V any](config Config) *LRU[K, V] {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}
	return &LRU[K, V]{
		config:  config,
		entries: make(map[K]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// Get retrieves a value and marks it most recently used. Expired entries
// are dropped and count as misses.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if c.config.TTL > 0 && c.now().After(e.expiresAt) {
		c.remove(el)
		c.stats.Misses++
		return zero, false
	}
	c.order.MoveToFront(el)
	c.stats.Hits++
	return e.value, true
}

// Put stores a value, evicting the least recently used entry when full.
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expires time.Time
	if c.config.TTL > 0 {
		expires = c.now().Add(c.config.TTL)
	}
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value, e.expiresAt = value, expires
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expires})
	if c.config.MaxSize > 0 && c.order.Len() > c.config.MaxSize {
		c.remove(c.order.Back())
		c.stats.Evictions++
	}
}

// Remove deletes key if present.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns cache statistics.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.order.Len()
	s.MaxSize = c.config.MaxSize
	return s
}

func (c *LRU[K, V]) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*entry[K, V]).key)
}

// Report is the outcome of validating one document content.
type Report struct {
	// Violations are the messages of missing note and comment parts.
	Violations []string
	// Orphans are the names of end markers without a comment.
	Orphans []string
}

// OK reports whether the document had no violations. Orphan end markers
// are not violations.
func (r Report) OK() bool {
	return len(r.Violations) == 0
}

// ReportCache remembers validation reports by the BLAKE3 digest of the
// validated content, so that unchanged documents are not parsed again.
type ReportCache struct {
	lru *LRU[string, Report]
}

// NewReportCache returns a cache holding up to size reports.
func NewReportCache(size int) *ReportCache {
	return &ReportCache{lru: NewLRU[string, Report](Config{MaxSize: size})}
}

// Get returns the report recorded for content.
func (c *ReportCache) Get(content []byte) (Report, bool) {
	return c.lru.Get(fingerprint.Sum(content).BLAKE3)
}

// Put records the report for content.
func (c *ReportCache) Put(content []byte, r Report) {
	c.lru.Put(fingerprint.Sum(content).BLAKE3, r)
}

// Stats returns the underlying cache statistics.
func (c *ReportCache) Stats() Stats {
	return c.lru.Stats()
}
