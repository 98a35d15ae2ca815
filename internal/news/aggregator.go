// Package news gathers ticker-related headlines from RSS feeds, newsapi.org
// and site listings, fanning out over all sources concurrently.
package news

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"composite-signal-bot/internal/health"
	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/logger"
	"composite-signal-bot/internal/metrics"
	"composite-signal-bot/internal/ratelimit"
	"composite-signal-bot/internal/sentiment/cache"
	"composite-signal-bot/internal/types"
)

type AggregatorConfig struct {
	Workers       int
	SourceTimeout time.Duration
	// MinInterval is the per-source spacing between fetches after a burst
	// of five; zero disables limiting.
	MinInterval time.Duration
}

type Aggregator struct {
	cfg     AggregatorConfig
	sources []interfaces.TextSource
	limits  *ratelimit.Set
	health  *health.Recorder
	metrics *metrics.Recorder
	now     func() time.Time
}

var _ interfaces.NewsFetcher = (*Aggregator)(nil)

// NewAggregator fans out over sources. h and m may be nil.
func NewAggregator(cfg AggregatorConfig, sources []interfaces.TextSource, h *health.Recorder, m *metrics.Recorder) *Aggregator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = 8 * time.Second
	}
	limits := ratelimit.NewSet()
	if cfg.MinInterval > 0 {
		for _, s := range sources {
			limits.Add(s.Name(), 5, cfg.MinInterval)
		}
	}
	return &Aggregator{cfg: cfg, sources: sources, limits: limits, health: h, metrics: m, now: time.Now}
}

// Fetch returns items published in the last hours, newest first, with
// duplicate texts collapsed. Failed or slow sources contribute nothing.
func (a *Aggregator) Fetch(ctx context.Context, ticker string, hours int) []types.NewsItem {
	start := time.Now()
	defer a.metrics.Since("news_fetch", start)

	since := a.now().Add(-time.Duration(hours) * time.Hour)
	results := make([][]types.NewsItem, len(a.sources))
	var fails atomic.Int32

	// Sources never return errors to the group so one failure cannot cancel
	// the others.
	var g errgroup.Group
	g.SetLimit(a.cfg.Workers)
	for i, src := range a.sources {
		g.Go(func() error {
			items, err := a.fetchOne(ctx, src, ticker, since)
			if err != nil {
				fails.Add(1)
				a.metrics.SourceFetch(src.Name(), "error")
				a.health.SourceError(ctx, src.Name())
				logger.Warn(ctx, "News source failed", "source", src.Name(), "ticker", ticker, "error", err)
				return nil
			}
			a.metrics.SourceFetch(src.Name(), "ok")
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	a.health.RSSBatch(ticker, len(a.sources), int(fails.Load()))

	seen := make(map[string]bool)
	var out []types.NewsItem
	for _, items := range results {
		for _, it := range items {
			h := cache.Hash(it.Text)
			if seen[h] {
				continue
			}
			seen[h] = true
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Published.After(out[j].Published) })

	logger.Debug(ctx, "News fetched", "ticker", ticker, "items", len(out), "sources", len(a.sources), "fails", fails.Load())
	return out
}

func (a *Aggregator) fetchOne(ctx context.Context, src interfaces.TextSource, ticker string, since time.Time) ([]types.NewsItem, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.SourceTimeout)
	defer cancel()

	if err := a.limits.Wait(ctx, src.Name()); err != nil {
		return nil, err
	}

	type result struct {
		items []types.NewsItem
		err   error
	}
	done := make(chan result, 1)
	go func() {
		items, err := src.Fetch(ctx, ticker, since)
		done <- result{items, err}
	}()

	// A source that ignores ctx is abandoned at the deadline.
	select {
	case r := <-done:
		return r.items, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
