package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"docfind/internal/domain"
)

func results(paths ...string) []domain.SearchResult {
	out := make([]domain.SearchResult, len(paths))
	for i, p := range paths {
		out[i] = domain.SearchResult{Path: p, Score: 0.5}
	}
	return out
}

func TestQueryCache_HitAndMiss(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	_, ok := c.Get("budget", 5, false)
	assert.False(t, ok)

	c.Put("budget", 5, false, results("/docs/budget.txt"))

	got, ok := c.Get("budget", 5, false)
	assert.True(t, ok)
	assert.Equal(t, "/docs/budget.txt", got[0].Path)

	// same query with a different topK is a different entry
	_, ok = c.Get("budget", 3, false)
	assert.False(t, ok)
}

func TestQueryCache_RerankFlagSeparatesEntries(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	c.Put("budget", 5, false, results("/plain-order"))
	c.Put("budget", 5, true, results("/reranked-order"))

	plain, ok := c.Get("budget", 5, false)
	assert.True(t, ok)
	assert.Equal(t, "/plain-order", plain[0].Path)

	reranked, ok := c.Get("budget", 5, true)
	assert.True(t, ok)
	assert.Equal(t, "/reranked-order", reranked[0].Path)
}

func TestQueryCache_TTLExpiry(t *testing.T) {
	c := NewQueryCache(10, 10*time.Millisecond)
	c.Put("q", 5, false, results("/a"))

	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("q", 5, false)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestQueryCache_InvalidateDropsEverything(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	c.Put("q1", 5, false, results("/a"))
	c.Put("q2", 5, true, results("/b"))

	c.Invalidate()

	_, ok := c.Get("q1", 5, false)
	assert.False(t, ok)
	_, ok = c.Get("q2", 5, true)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestQueryCache_LRUEviction(t *testing.T) {
	c := NewQueryCache(3, time.Minute)
	for i := 0; i < 3; i++ {
		c.Put(fmt.Sprintf("q%d", i), 5, false, results("/a"))
	}

	// touch q0 so q1 becomes the oldest
	_, ok := c.Get("q0", 5, false)
	assert.True(t, ok)

	c.Put("q3", 5, false, results("/b"))

	_, ok = c.Get("q1", 5, false)
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("q0", 5, false)
	assert.True(t, ok)
	assert.Equal(t, 3, c.Size())
}
