package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"ragstore/internal/domain"
)

// RetrievalCache is a bounded LRU cache of retrieval results with a TTL.
// Every entry records the store generation it was filled at; a lookup whose
// generation no longer matches is discarded, so any write to the store
// (through the retriever or directly) invalidates stale results.
type RetrievalCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
}

type cacheEntry struct {
	docs      []domain.RetrievedDocument
	gen       uint64
	timestamp time.Time
}

// NewRetrievalCache creates a cache holding at most maxSize entries for at
// most ttl each. Non-positive arguments fall back to defaults.
func NewRetrievalCache(maxSize int, ttl time.Duration) *RetrievalCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RetrievalCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Key derives a cache key from a query and everything that shapes its
// result: the search options and the hybrid fusion weight, so a weight
// change can never surface rankings computed under the old weight.
func Key(query string, method domain.SearchMethod, topK int, threshold float64, includeMetadata bool, semanticWeight float64) string {
	raw := fmt.Sprintf("%s|%s|%d|%g|%t|%g", query, method, topK, threshold, includeMetadata, semanticWeight)
	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:16])
}

// Get returns the cached documents when the entry is fresh and was filled at
// the given store generation.
func (c *RetrievalCache) Get(key string, gen uint64) ([]domain.RetrievedDocument, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl || entry.gen != gen {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return nil, false
	}

	c.moveToEnd(key)
	return cloneDocs(entry.docs), true
}

// Put stores documents for the key at the given store generation.
func (c *RetrievalCache) Put(key string, gen uint64, docs []domain.RetrievedDocument) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.moveToEnd(key)
	} else {
		if len(c.entries) >= c.maxSize {
			c.evictOldest()
		}
		c.order = append(c.order, key)
	}

	c.entries[key] = &cacheEntry{
		docs:      cloneDocs(docs),
		gen:       gen,
		timestamp: time.Now(),
	}
}

// Size returns the number of cached entries.
func (c *RetrievalCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *RetrievalCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *RetrievalCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *RetrievalCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func cloneDocs(docs []domain.RetrievedDocument) []domain.RetrievedDocument {
	out := make([]domain.RetrievedDocument, len(docs))
	for i, d := range docs {
		d.Metadata = domain.CloneMetadata(d.Metadata)
		out[i] = d
	}
	return out
}
