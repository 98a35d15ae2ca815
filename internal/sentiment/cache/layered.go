package cache

import (
	"context"
	"time"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/types"
)

// Layered puts a memory store in front of a durable one. Reads go L1 then
// L2 with backfill; writes go through L2 first, then L1.
type Layered struct {
	front *MemoryStore
	back  interfaces.SentimentStore
}

var (
	_ interfaces.SentimentStore = (*Layered)(nil)
	_ Pruner                    = (*Layered)(nil)
	_ Pruner                    = (*FileStore)(nil)
)

func NewLayered(back interfaces.SentimentStore, frontSize int) *Layered {
	return &Layered{front: NewMemoryStore(frontSize), back: back}
}

func (l *Layered) Get(ctx context.Context, hash string) (types.CacheEntry, bool, error) {
	if e, ok, _ := l.front.Get(ctx, hash); ok {
		return e, true, nil
	}
	e, ok, err := l.back.Get(ctx, hash)
	if err != nil || !ok {
		return e, ok, err
	}
	_ = l.front.Put(ctx, e)
	return e, true, nil
}

func (l *Layered) Put(ctx context.Context, entry types.CacheEntry) error {
	if err := l.back.Put(ctx, entry); err != nil {
		return err
	}
	return l.front.Put(ctx, entry)
}

func (l *Layered) Link(ctx context.Context, ticker string, entry types.CacheEntry) error {
	return l.back.Link(ctx, ticker, entry)
}

func (l *Layered) Recent(ctx context.Context, ticker string, since time.Time) ([]types.CacheEntry, error) {
	return l.back.Recent(ctx, ticker, since)
}

func (l *Layered) Stats(ctx context.Context, since time.Time) (types.CacheStats, error) {
	return l.back.Stats(ctx, since)
}

// Prune drops old entries from the back store when it supports pruning.
// The front is left alone; its entries age out through eviction.
func (l *Layered) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	p, ok := l.back.(Pruner)
	if !ok {
		return 0, nil
	}
	return p.Prune(ctx, cutoff)
}

func (l *Layered) Close() error {
	return l.back.Close()
}
