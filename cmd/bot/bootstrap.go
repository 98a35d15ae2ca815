package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"composite-signal-bot/internal/api"
	"composite-signal-bot/internal/broker"
	"composite-signal-bot/internal/broker/brokerobs"
	"composite-signal-bot/internal/engine"
	"composite-signal-bot/internal/engine/engineobs"
	"composite-signal-bot/internal/eod"
	"composite-signal-bot/internal/eod/eodobs"
	"composite-signal-bot/internal/health"
	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/llm/claude"
	"composite-signal-bot/internal/llm/huggingface"
	"composite-signal-bot/internal/llm/llmobs"
	"composite-signal-bot/internal/llm/noop"
	"composite-signal-bot/internal/llm/openai"
	"composite-signal-bot/internal/logger"
	"composite-signal-bot/internal/metrics"
	"composite-signal-bot/internal/news"
	"composite-signal-bot/internal/ratelimit"
	"composite-signal-bot/internal/retry"
	"composite-signal-bot/internal/sentiment"
	"composite-signal-bot/internal/sentiment/cache"
	"composite-signal-bot/internal/signal"
	"composite-signal-bot/internal/signal/signalobs"
	"composite-signal-bot/internal/store"
	"composite-signal-bot/internal/trace"
	"composite-signal-bot/internal/tradelog"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

const userAgent = "composite-signal-bot/1.0"

// app holds every wired component of the bot.
type app struct {
	cfg     *store.Config
	health  *health.Recorder
	metrics *metrics.Recorder
	store   interfaces.SentimentStore
	scorer  *sentiment.Scorer
	engine  interfaces.Engine
	ledger  *tradelog.FileLedger
	trader  *engine.PaperTrader
	eod     interfaces.EodSummarizer
}

// initializeSystem loads .env and starts logging and tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

func build(ctx context.Context, cfg *store.Config) (*app, error) {
	a := &app{cfg: cfg}

	h, err := health.New(health.Path())
	if err != nil {
		logger.Warn(ctx, "Health log disabled", "error", err)
	}
	a.health = h
	a.metrics = metrics.New(prometheus.DefaultRegisterer)

	st, err := cache.Open(cfg)
	if err != nil {
		return nil, err
	}
	a.store = st

	detector, err := initializeDetector(ctx, cfg, a.metrics)
	if err != nil {
		return nil, err
	}

	fetcher := initializeNews(ctx, cfg, a.health, a.metrics)
	chains := initializeClassifiers(ctx, cfg, a.health, a.metrics)

	scfg := sentiment.DefaultConfig()
	scfg.Freshness = cfg.Sentiment.Freshness
	scfg.ClipMin = cfg.Sentiment.ClipMin
	scfg.ClipMax = cfg.Sentiment.ClipMax
	scfg.HighConfidence = cfg.Sentiment.HighConfidence
	scfg.LowConfidence = cfg.Sentiment.LowConfidence
	scfg.Workers = cfg.News.Workers
	a.scorer = sentiment.NewScorer(scfg, fetcher, st, chains, a.metrics)

	a.engine = engineobs.Wrap(engine.New(cfg, detector, a.scorer, a.metrics), a.health)

	a.ledger = tradelog.NewFileLedger(cfg.Ledger.Dir, tradelog.IST)
	var ledger interfaces.Ledger = a.ledger
	if cfg.Ledger.Sheets {
		ledger = tradelog.NewSheetsLedger(a.ledger, cfg.Secrets.SheetsWebhook, cfg.Secrets.SheetsToken, newClient(5*time.Second))
		logger.Info(ctx, "Mirroring trades to Google Sheets")
	}
	a.trader = engine.NewPaperTrader(ledger, cfg.Ledger.Qty, cfg.Ledger.AutoTrade)
	a.eod = eodobs.Wrap(eod.NewSummarizer(a.ledger))

	return a, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warn(context.Background(), "Failed to close sentiment cache", "error", err)
	}
	_ = a.health.Close()
}

func newClient(timeout time.Duration) *api.Client {
	return api.NewClient(
		api.WithTimeout(timeout),
		api.WithHeader("User-Agent", userAgent),
		api.WithLogging(true),
	)
}

// initializeDetector builds the candle source selected in config and the
// crossover detector on top of it.
func initializeDetector(ctx context.Context, cfg *store.Config, m *metrics.Recorder) (interfaces.SignalDetector, error) {
	src, err := broker.NewCandleSource(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Candles.Provider == "STATIC" {
		logger.Info(ctx, "Using STATIC mock candle data for testing")
	} else {
		logger.Info(ctx, "Using LIVE candle data", "provider", cfg.Candles.Provider)
	}

	dcfg := signal.Config{
		Lookback: cfg.Candles.Lookback,
		Shrink:   retry.ShrinkPolicy{Factor: cfg.Candles.Retry.Factor, MaxAttempts: cfg.Candles.Retry.MaxAttempts},
	}
	return signalobs.Wrap(signal.New(brokerobs.Wrap(cfg.Candles.Provider, src, m), dcfg, m)), nil
}

// initializeNews builds the enabled text sources behind one aggregator.
func initializeNews(ctx context.Context, cfg *store.Config, h *health.Recorder, m *metrics.Recorder) interfaces.NewsFetcher {
	aliases := func(ticker string) []string {
		if in, ok := cfg.Lookup(ticker); ok {
			return in.Aliases
		}
		return nil
	}

	var sources []interfaces.TextSource
	if len(cfg.News.RSS) > 0 {
		feeds := make([]news.Feed, 0, len(cfg.News.RSS))
		for _, f := range cfg.News.RSS {
			feeds = append(feeds, news.Feed{Name: f.Name, URL: f.URL})
		}
		sources = append(sources, news.NewRSSSource(feeds, cfg.News.FeedTTL, aliases))
	}
	if cfg.News.NewsAPI.Enabled {
		if cfg.Secrets.NewsAPIKey == "" {
			logger.Warn(ctx, "newsapi enabled without NEWSAPI_API_KEY - skipping")
		} else {
			client := newClient(cfg.News.SourceTimeout)
			sources = append(sources, news.NewNewsAPISource(cfg.Secrets.NewsAPIKey, cfg.News.NewsAPI.Language, aliases, client))
		}
	}
	if cfg.News.Scraper.Enabled {
		sources = append(sources, news.NewScraperSource(news.DefaultSites(), 10, 2*time.Second))
	}
	if len(sources) == 0 {
		logger.Warn(ctx, "No news sources configured - sentiment will stay neutral")
	}

	return news.NewAggregator(news.AggregatorConfig{
		Workers:       cfg.News.Workers,
		SourceTimeout: cfg.News.SourceTimeout,
		MinInterval:   time.Second,
	}, sources, h, m)
}

// initializeClassifiers resolves the configured chain names per language.
// LLM_OFF leaves only the lexicon in play.
func initializeClassifiers(ctx context.Context, cfg *store.Config, h *health.Recorder, m *metrics.Recorder) map[string][]interfaces.Classifier {
	chains := make(map[string][]interfaces.Classifier, len(cfg.Sentiment.Chains))
	if cfg.Secrets.LLMOff {
		logger.Warn(ctx, "LLM_OFF set - classifying with the lexicon only")
		return chains
	}

	client := newClient(20 * time.Second)
	hfLimiter := ratelimit.New(5, time.Second)

	for lang, names := range cfg.Sentiment.Chains {
		for _, name := range names {
			c := newClassifier(ctx, cfg, lang, name, client, hfLimiter, h)
			if c == nil {
				continue
			}
			chains[lang] = append(chains[lang], llmobs.Wrap(c, m))
		}
		if len(chains[lang]) == 0 {
			chains[lang] = []interfaces.Classifier{noop.New()}
		}
	}
	return chains
}

func newClassifier(ctx context.Context, cfg *store.Config, lang, name string, client *api.Client, limiter *ratelimit.Limiter, h *health.Recorder) interfaces.Classifier {
	switch name {
	case "HUGGINGFACE":
		model := cfg.Sentiment.HuggingFace.Models[lang]
		if model == "" {
			logger.Warn(ctx, "No Hugging Face model for language", "lang", lang)
			return nil
		}
		return huggingface.New(huggingface.Params{
			Endpoint: cfg.Sentiment.HuggingFace.Endpoint,
			Model:    model,
			Token:    cfg.Secrets.HFToken,
		}, client, limiter)
	case "OPENAI":
		if cfg.Secrets.OpenAIKey == "" {
			logger.Warn(ctx, "OPENAI in chain without OPENAI_API_KEY - skipping", "lang", lang)
			return nil
		}
		return openai.New(openai.Params{
			APIKey:      cfg.Secrets.OpenAIKey,
			Model:       cfg.Sentiment.LLM.Model,
			MaxTokens:   cfg.Sentiment.LLM.MaxTokens,
			Temperature: cfg.Sentiment.LLM.Temp,
		}, client, h)
	case "CLAUDE":
		if cfg.Secrets.ClaudeKey == "" {
			logger.Warn(ctx, "CLAUDE in chain without CLAUDE_API_KEY - skipping", "lang", lang)
			return nil
		}
		return claude.New(claude.Params{
			APIKey:      cfg.Secrets.ClaudeKey,
			Endpoint:    cfg.Secrets.ClaudeEndpoint,
			Model:       cfg.Sentiment.LLM.Model,
			MaxTokens:   cfg.Sentiment.LLM.MaxTokens,
			Temperature: cfg.Sentiment.LLM.Temp,
		}, client, h)
	case "NOOP":
		return noop.New()
	default:
		logger.Warn(ctx, "Unknown classifier in chain", "name", name, "lang", lang)
		return nil
	}
}
