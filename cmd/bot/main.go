package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"composite-signal-bot/internal/engine"
	"composite-signal-bot/internal/logger"
	"composite-signal-bot/internal/metrics"
	"composite-signal-bot/internal/sentiment/cache"
	"composite-signal-bot/internal/trace"
	"composite-signal-bot/internal/types"

	"github.com/prometheus/client_golang/prometheus"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

const usage = `usage: bot [-config config.yaml] [-ticker TICKER] <command>

commands:
  run              poll the universe and print one decision per ticker and tick
  decide TICKER    print a single composite decision
  classify TEXT    classify one headline against the sentiment cache
                   (-ticker files it under that ticker's index)
  stats [TICKER]   print sentiment cache statistics, plus the cached
                   score of TICKER over sentiment.hours
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	ticker := flag.String("ticker", "", "ticker to file a classify result under")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "run"
	}

	must(initializeSystem())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = trace.Shutdown(sctx)
	}()

	cfg, err := loadConfig(ctx, *configPath)
	must(err)
	a, err := build(ctx, cfg)
	must(err)
	defer a.Close()

	switch cmd {
	case "run":
		a.run(ctx)
	case "decide":
		if flag.NArg() < 2 {
			flag.Usage()
			os.Exit(2)
		}
		inst, ok := cfg.Lookup(flag.Arg(1))
		if !ok {
			log.Fatalf("%s is not in the configured universe", flag.Arg(1))
		}
		printJSON(a.engine.Decide(ctx, engine.Request(cfg, inst)))
	case "classify":
		if flag.NArg() < 2 {
			flag.Usage()
			os.Exit(2)
		}
		text := strings.Join(flag.Args()[1:], " ")
		item := types.NewsItem{Source: "cli", Text: text, Published: time.Now()}
		printJSON(a.scorer.Classify(ctx, *ticker, item))
	case "stats":
		st, err := a.scorer.Stats(ctx)
		must(err)
		if flag.NArg() < 2 {
			printJSON(st)
			break
		}
		t := flag.Arg(1)
		printJSON(struct {
			types.CacheStats
			Ticker      string `json:"ticker"`
			Hours       int    `json:"hours"`
			CachedScore int    `json:"cached_score"`
		}{st, t, cfg.Sentiment.Hours, a.scorer.CachedScore(ctx, t, cfg.Sentiment.Hours)})
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func (a *app) run(ctx context.Context) {
	cfg := a.cfg

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, prometheus.DefaultGatherer); err != nil {
				logger.ErrorWithErr(ctx, "Metrics server stopped", err)
			}
		}()
	}

	if cfg.Ledger.RetentionDays > 0 {
		if err := a.ledger.CompressOlder(cfg.Ledger.RetentionDays); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}

	if p, ok := a.store.(cache.Pruner); ok && cfg.Cache.Retention > 0 {
		if n, err := p.Prune(ctx, time.Now().Add(-cfg.Cache.Retention)); err != nil {
			logger.Warn(ctx, "Failed to prune sentiment cache", "error", err)
		} else if n > 0 {
			logger.Info(ctx, "Pruned sentiment cache", "removed", n)
		}
	}

	tick := time.NewTicker(time.Duration(cfg.PollSeconds) * time.Second)
	defer tick.Stop()
	eodTick := time.NewTicker(60 * time.Second)
	defer eodTick.Stop()

	logger.Info(ctx, "Bot started", "mode", cfg.Mode, "tickers", cfg.Tickers(), "poll_seconds", cfg.PollSeconds)
	a.step(ctx)
	for {
		select {
		case <-tick.C:
			a.step(ctx)
		case <-eodTick.C:
			if ok, _ := a.eod.ShouldRunNow(); ok {
				_, _ = a.eod.SummarizeToday(ctx)
			}
		case <-ctx.Done():
			logger.Info(context.Background(), "Shutting down")
			_, _ = a.eod.SummarizeToday(context.Background())
			return
		}
	}
}

// step decides every ticker of the universe once.
func (a *app) step(ctx context.Context) {
	for _, inst := range a.cfg.Universe {
		if ctx.Err() != nil {
			return
		}
		score := a.engine.Decide(ctx, engine.Request(a.cfg, inst))
		printJSON(score)

		if err := a.ledger.RecordDecision(ctx, score); err != nil {
			logger.Warn(ctx, "Failed to record decision", "ticker", inst.Ticker, "error", err)
		}
		if _, err := a.trader.Execute(ctx, score); err != nil {
			logger.ErrorWithErr(ctx, "Paper trade failed", err, "ticker", inst.Ticker)
		}
	}
}

func printJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("marshal output: %v", err)
		return
	}
	fmt.Println(string(b))
}
