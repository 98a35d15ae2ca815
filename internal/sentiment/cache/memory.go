package cache

import (
	"context"
	"sync"
	"time"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/types"
)

// MemoryStore keeps entries in a map. It serves as the front layer of
// Layered and as the store for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]types.CacheEntry
	// ticker -> hashes; may hold hashes that were evicted since.
	index   map[string]map[string]struct{}
	maxSize int
}

var _ interfaces.SentimentStore = (*MemoryStore)(nil)

// NewMemoryStore holds at most maxSize entries (0 means unbounded); the
// oldest entry is evicted first.
func NewMemoryStore(maxSize int) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]types.CacheEntry),
		index:   make(map[string]map[string]struct{}),
		maxSize: maxSize,
	}
}

func (m *MemoryStore) Get(_ context.Context, hash string) (types.CacheEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[hash]
	return e, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, entry types.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[entry.Hash]; !exists && m.maxSize > 0 && len(m.entries) >= m.maxSize {
		m.evictOldest()
	}
	m.entries[entry.Hash] = entry
	m.link(entry.Ticker, entry.Hash)
	return nil
}

func (m *MemoryStore) Link(_ context.Context, ticker string, entry types.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.link(ticker, entry.Hash)
	return nil
}

func (m *MemoryStore) link(ticker, hash string) {
	if ticker == "" {
		return
	}
	hashes := m.index[ticker]
	if hashes == nil {
		hashes = make(map[string]struct{})
		m.index[ticker] = hashes
	}
	hashes[hash] = struct{}{}
}

func (m *MemoryStore) evictOldest() {
	var (
		oldest string
		ts     time.Time
	)
	for h, e := range m.entries {
		if oldest == "" || e.Timestamp.Before(ts) {
			oldest, ts = h, e.Timestamp
		}
	}
	delete(m.entries, oldest)
}

func (m *MemoryStore) Recent(_ context.Context, ticker string, since time.Time) ([]types.CacheEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.CacheEntry
	for h := range m.index[ticker] {
		if e, ok := m.entries[h]; ok && !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	newestFirst(out)
	return out, nil
}

func (m *MemoryStore) Stats(_ context.Context, since time.Time) (types.CacheStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]types.CacheEntry, 0, len(m.entries))
	for _, e := range m.entries {
		all = append(all, e)
	}
	return collectStats(all, since), nil
}

func (m *MemoryStore) Close() error { return nil }
