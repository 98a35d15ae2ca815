// Package cache persists sentiment classifications keyed by the hash of the
// normalized text. Entries are never expired by the stores themselves; the
// scorer decides freshness from the entry timestamp.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"composite-signal-bot/internal/types"
)

// Pruner is implemented by stores that drop entries older than a cutoff on
// request. Redis relies on key TTLs instead.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// Normalize lower-cases text and collapses runs of whitespace.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Hash is the cache key of a text.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// newestFirst sorts entries by timestamp, most recent first.
func newestFirst(entries []types.CacheEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}

func collectStats(entries []types.CacheEntry, since time.Time) types.CacheStats {
	st := types.CacheStats{BySource: make(map[string]int)}
	for _, e := range entries {
		st.Total++
		if !e.Timestamp.Before(since) {
			st.Recent++
		}
		st.BySource[e.Source]++
	}
	return st
}
