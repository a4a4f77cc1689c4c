package cache

import (
	"testing"
	"time"

	"query-server/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCache_SetGet(t *testing.T) {
	hc := NewHistoryCache(time.Minute)

	_, ok := hc.Get("guest|a")
	assert.False(t, ok)

	hc.Set("guest|a", []entities.QrHistoryItem{{ID: "1", Content: "x"}})
	items, ok := hc.Get("guest|a")
	require.True(t, ok)
	require.Len(t, items, 1)

	// callers get copies
	items[0].Content = "mutated"
	again, _ := hc.Get("guest|a")
	assert.Equal(t, "x", again[0].Content)

	stats := hc.GetCacheStats()
	assert.Equal(t, 1, stats["total_owners"])
	assert.Equal(t, int64(2), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
}

func TestHistoryCache_Expiry(t *testing.T) {
	hc := NewHistoryCache(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	hc.now = func() time.Time { return now }

	hc.Set("o", []entities.QrHistoryItem{{ID: "1"}})
	now = now.Add(2 * time.Minute)

	_, ok := hc.Get("o")
	assert.False(t, ok)
	assert.Equal(t, 0, hc.GetCacheStats()["total_owners"])
}

func TestHistoryCache_Invalidate(t *testing.T) {
	hc := NewHistoryCache(time.Minute)
	hc.Set("a", []entities.QrHistoryItem{{ID: "1"}})
	hc.Set("b", []entities.QrHistoryItem{{ID: "2"}})

	hc.Invalidate("a")
	_, ok := hc.Get("a")
	assert.False(t, ok)
	_, ok = hc.Get("b")
	assert.True(t, ok)

	hc.ClearCache()
	_, ok = hc.Get("b")
	assert.False(t, ok)
}

func TestHistoryCache_DisabledWithZeroTTL(t *testing.T) {
	hc := NewHistoryCache(0)
	hc.Set("a", []entities.QrHistoryItem{{ID: "1"}})
	_, ok := hc.Get("a")
	assert.False(t, ok)
}
