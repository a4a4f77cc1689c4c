package cache

import (
	"sync"
	"time"

	"query-server/entities"
)

type historyEntry struct {
	Items    []entities.QrHistoryItem
	CachedAt time.Time
}

// HistoryCache keeps recently read history lists per owner so repeated list
// calls do not hit the remote store. Writers must Invalidate the owner.
type HistoryCache struct {
	mu      sync.RWMutex
	entries map[string]historyEntry // map[ownerKey]entry
	ttl     time.Duration
	hits    int64
	misses  int64
	now     func() time.Time
}

func NewHistoryCache(ttl time.Duration) *HistoryCache {
	return &HistoryCache{
		entries: make(map[string]historyEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the cached list for owner, if fresh.
func (hc *HistoryCache) Get(owner string) ([]entities.QrHistoryItem, bool) {
	if hc.ttl <= 0 {
		return nil, false
	}

	hc.mu.Lock()
	defer hc.mu.Unlock()

	entry, ok := hc.entries[owner]
	if !ok || hc.now().Sub(entry.CachedAt) > hc.ttl {
		if ok {
			delete(hc.entries, owner)
		}
		hc.misses++
		return nil, false
	}
	hc.hits++
	return copyItems(entry.Items), true
}

// Set stores a copy of items for owner.
func (hc *HistoryCache) Set(owner string, items []entities.QrHistoryItem) {
	if hc.ttl <= 0 {
		return
	}

	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.entries[owner] = historyEntry{Items: copyItems(items), CachedAt: hc.now()}
}

// Invalidate drops the cached list for owner.
func (hc *HistoryCache) Invalidate(owner string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.entries, owner)
}

// ClearCache drops everything.
func (hc *HistoryCache) ClearCache() {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.entries = make(map[string]historyEntry)
}

// GetCacheStats returns statistics about the current cache
func (hc *HistoryCache) GetCacheStats() map[string]interface{} {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	totalItems := 0
	for _, entry := range hc.entries {
		totalItems += len(entry.Items)
	}

	return map[string]interface{}{
		"total_owners": len(hc.entries),
		"total_items":  totalItems,
		"hits":         hc.hits,
		"misses":       hc.misses,
		"ttl_seconds":  hc.ttl.Seconds(),
	}
}

func copyItems(items []entities.QrHistoryItem) []entities.QrHistoryItem {
	out := make([]entities.QrHistoryItem, len(items))
	copy(out, items)
	return out
}
