package interfaces

import (
	"context"
	"time"

	"composite-signal-bot/internal/types"
)

// Classifier maps a piece of text onto a sentiment label.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string) (types.ClassifierResult, error)
}

// TextSource fetches raw news items mentioning a ticker.
type TextSource interface {
	Name() string
	Fetch(ctx context.Context, ticker string, since time.Time) ([]types.NewsItem, error)
}

// SentimentStore persists classifications keyed by text hash.
type SentimentStore interface {
	Get(ctx context.Context, hash string) (types.CacheEntry, bool, error)
	Put(ctx context.Context, entry types.CacheEntry) error
	// Link adds an existing entry to another ticker's index without
	// rewriting the entry. Headlines often mention several tickers.
	Link(ctx context.Context, ticker string, entry types.CacheEntry) error
	// Recent returns entries for ticker written at or after since, newest first.
	Recent(ctx context.Context, ticker string, since time.Time) ([]types.CacheEntry, error)
	Stats(ctx context.Context, since time.Time) (types.CacheStats, error)
	Close() error
}

// SentimentScorer turns the news flow for a ticker into a bounded integer.
type SentimentScorer interface {
	Score(ctx context.Context, ticker string, hours int) int
}

// NewsFetcher collects news for a ticker from every configured source. It
// never fails; unreachable sources contribute nothing.
type NewsFetcher interface {
	Fetch(ctx context.Context, ticker string, hours int) []types.NewsItem
}
