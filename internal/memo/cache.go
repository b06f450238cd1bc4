// Package memo caches highlight results across calls.
//
// The highlight engine is stateless; callers that re-render unchanged items
// own the cache. Entries are keyed on (text, query, options, field).
package memo

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/searchmark/internal/highlight"
)

// DefaultSize is used when New is given a non-positive size.
const DefaultSize = 1024

// Cache is a bounded LRU of highlight results. Safe for concurrent use.
type Cache struct {
	lru    *lru.Cache[string, highlight.Result]
	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports cache effectiveness.
type Stats struct {
	Size   int   `json:"size"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// HitRate returns hits / lookups, or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// New creates a cache holding at most size results.
func New(size int) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	c, _ := lru.New[string, highlight.Result](size)
	return &Cache{lru: c}
}

// Key builds the cache key for one highlight call.
func Key(text, query string, opts highlight.Options, field highlight.FieldType) string {
	h := sha256.New()
	for _, part := range []string{text, query, opts.Fingerprint(), string(field)} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(part)))
		h.Write(n[:])
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a copy of the cached result for key.
func (c *Cache) Get(key string) (highlight.Result, bool) {
	res, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return highlight.Result{}, false
	}
	c.hits.Add(1)
	return clone(res), true
}

// Add stores a copy of res under key.
func (c *Cache) Add(key string, res highlight.Result) {
	c.lru.Add(key, clone(res))
}

// GetOrCompute returns the cached result for key, computing and storing it
// on a miss. Concurrent misses on the same key may compute twice.
func (c *Cache) GetOrCompute(key string, compute func() highlight.Result) (highlight.Result, bool) {
	if res, ok := c.Get(key); ok {
		return res, true
	}
	res := compute()
	c.Add(key, res)
	return res, false
}

// Purge drops every entry and resets the counters.
func (c *Cache) Purge() {
	c.lru.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Size:   c.lru.Len(),
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

func clone(r highlight.Result) highlight.Result {
	r.Matches = append([]highlight.Match{}, r.Matches...)
	if r.MatchedFields != nil {
		r.MatchedFields = append([]string(nil), r.MatchedFields...)
	}
	return r
}
