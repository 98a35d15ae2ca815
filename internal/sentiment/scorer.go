// Package sentiment turns the news flow for a ticker into a bounded integer
// score: each item is routed by language to a classifier chain, merged with
// the lexicon, cached by text hash and counted as a +1/0/-1 vote.
package sentiment

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/logger"
	"composite-signal-bot/internal/metrics"
	"composite-signal-bot/internal/sentiment/cache"
	"composite-signal-bot/internal/ta"
	"composite-signal-bot/internal/types"
)

type Config struct {
	Freshness      time.Duration
	ClipMin        int
	ClipMax        int
	HighConfidence float64
	LowConfidence  float64
	// Workers bounds concurrent classifications within one Score call.
	Workers int
}

func DefaultConfig() Config {
	return Config{
		Freshness:      24 * time.Hour,
		ClipMin:        -3,
		ClipMax:        3,
		HighConfidence: 0.75,
		LowConfidence:  0.45,
		Workers:        4,
	}
}

type Scorer struct {
	cfg     Config
	news    interfaces.NewsFetcher
	store   interfaces.SentimentStore
	chains  map[string][]interfaces.Classifier
	lexicon Lexicon
	metrics *metrics.Recorder

	group singleflight.Group
	// linked remembers ticker/hash pairs already added to a foreign entry's
	// index during this process.
	linked sync.Map
	now    func() time.Time
}

var _ interfaces.SentimentScorer = (*Scorer)(nil)

// NewScorer wires a scorer. chains maps a language code to classifiers tried
// in order; languages without a chain use the en chain. m may be nil.
func NewScorer(cfg Config, news interfaces.NewsFetcher, store interfaces.SentimentStore, chains map[string][]interfaces.Classifier, m *metrics.Recorder) *Scorer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Scorer{
		cfg:     cfg,
		news:    news,
		store:   store,
		chains:  chains,
		metrics: m,
		now:     time.Now,
	}
}

// Score fetches news from the last hours, classifies every item and returns
// #positive - #negative clipped to the configured range. It returns 0 when
// nothing could be fetched and never fails.
func (s *Scorer) Score(ctx context.Context, ticker string, hours int) int {
	start := time.Now()
	defer s.metrics.Since("sentiment_score", start)

	items := s.news.Fetch(ctx, ticker, hours)
	results := make([]types.SentimentItem, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, item := range items {
		if strings.TrimSpace(item.Text) == "" {
			continue
		}
		g.Go(func() error {
			results[i] = s.Classify(gctx, ticker, item)
			return nil
		})
	}
	_ = g.Wait()

	raw := 0
	for _, r := range results {
		raw += r.Label.Vote()
	}
	score := ta.Clip(raw, s.cfg.ClipMin, s.cfg.ClipMax)

	s.metrics.SentimentScore(ticker, score)
	logger.Info(ctx, "Sentiment scored",
		"ticker", ticker,
		"hours", hours,
		"items", len(items),
		"raw", raw,
		"score", score,
	)
	return score
}

// Classify labels one item, serving fresh cache entries without calling a
// classifier. Concurrent calls for the same text share one classification.
func (s *Scorer) Classify(ctx context.Context, ticker string, item types.NewsItem) types.SentimentItem {
	hash := cache.Hash(item.Text)
	v, _, _ := s.group.Do(hash, func() (any, error) {
		return s.lookupOrClassify(ctx, hash, ticker, item), nil
	})

	res := v.(lookup)
	if res.stored && ticker != "" && res.entry.Ticker != ticker {
		s.link(ctx, ticker, res.entry)
	}

	out := res.item
	// Shared results may carry another caller's metadata.
	out.Text = item.Text
	out.Source = item.Source
	out.Ticker = ticker
	out.Published = item.Published
	return out
}

// lookup is the result shared by singleflight callers. entry is what the
// store holds for the text when stored is true.
type lookup struct {
	item   types.SentimentItem
	entry  types.CacheEntry
	stored bool
}

func (s *Scorer) lookupOrClassify(ctx context.Context, hash, ticker string, item types.NewsItem) lookup {
	lang := DetectLanguage(item.Text)

	entry, ok, err := s.store.Get(ctx, hash)
	if err != nil {
		logger.Warn(ctx, "Sentiment cache read failed", "error", err)
	}
	if ok && entry.Fresh(s.now(), s.cfg.Freshness) {
		s.metrics.CacheLookup(true)
		return lookup{
			item:   types.SentimentItem{Lang: lang, Label: entry.Label, Confidence: entry.Confidence, Cached: true},
			entry:  entry,
			stored: true,
		}
	}
	s.metrics.CacheLookup(false)

	res := s.classifyText(ctx, lang, item.Text)
	out := lookup{item: types.SentimentItem{Lang: lang, Label: res.Label, Confidence: res.Confidence}}

	// A cancelled caller leaves only the lexicon result; keep it out of the
	// cache so the next call asks the models again.
	if ctx.Err() != nil {
		return out
	}
	entry = types.CacheEntry{
		Hash:       hash,
		Label:      res.Label,
		Confidence: res.Confidence,
		Ticker:     ticker,
		Source:     item.Source,
		Timestamp:  s.now(),
	}
	if err := s.store.Put(ctx, entry); err != nil {
		logger.Warn(ctx, "Sentiment cache write failed", "error", err)
		return out
	}
	out.entry, out.stored = entry, true
	return out
}

// link adds entry to ticker's index once per process.
func (s *Scorer) link(ctx context.Context, ticker string, entry types.CacheEntry) {
	key := ticker + "\x00" + entry.Hash
	if _, done := s.linked.LoadOrStore(key, struct{}{}); done {
		return
	}
	if err := s.store.Link(ctx, ticker, entry); err != nil {
		s.linked.Delete(key)
		logger.Warn(ctx, "Sentiment cache link failed", "ticker", ticker, "error", err)
	}
}

func (s *Scorer) classifyText(ctx context.Context, lang, text string) types.ClassifierResult {
	lexical := s.lexicon.Evaluate(text)

	chain, ok := s.chains[lang]
	if !ok {
		chain = s.chains[LangEN]
	}
	for _, c := range chain {
		res, err := c.Classify(ctx, text)
		if err != nil {
			logger.Warn(ctx, "Classifier unavailable, trying next", "classifier", c.Name(), "error", err)
			continue
		}
		return Resolve(res, lexical, s.cfg.HighConfidence, s.cfg.LowConfidence)
	}
	return lexical
}

// CachedScore scores a ticker from cache entries written in the last hours,
// without fetching news.
func (s *Scorer) CachedScore(ctx context.Context, ticker string, hours int) int {
	entries, err := s.store.Recent(ctx, ticker, s.now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		logger.Warn(ctx, "Sentiment cache scan failed", "ticker", ticker, "error", err)
		return 0
	}
	raw := 0
	for _, e := range entries {
		raw += e.Label.Vote()
	}
	return ta.Clip(raw, s.cfg.ClipMin, s.cfg.ClipMax)
}

// Stats summarizes the cache; Recent counts the last 24 hours.
func (s *Scorer) Stats(ctx context.Context) (types.CacheStats, error) {
	return s.store.Stats(ctx, s.now().Add(-24*time.Hour))
}
