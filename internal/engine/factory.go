package engine

import (
	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/metrics"
	"composite-signal-bot/internal/store"
)

// New builds an engine from the configured policy.
func New(cfg *store.Config, detector interfaces.SignalDetector, scorer interfaces.SentimentScorer, m *metrics.Recorder) interfaces.Engine {
	policy := Policy{
		Threshold: cfg.Engine.Threshold,
		ClipMin:   cfg.Sentiment.ClipMin,
		ClipMax:   cfg.Sentiment.ClipMax,
	}
	return NewEngine(detector, scorer, policy, cfg.Engine.DecideTimeout, m)
}

// Request fills a decision request for inst from the signal and sentiment
// settings.
func Request(cfg *store.Config, inst store.Instrument) interfaces.DecideRequest {
	return interfaces.DecideRequest{
		Instrument: inst.Instrument,
		Ticker:     inst.Ticker,
		Interval:   cfg.Signal.Interval,
		Fast:       cfg.Signal.Fast,
		Slow:       cfg.Signal.Slow,
		ATRRatio:   cfg.Signal.ATRRatio,
		Hours:      cfg.Sentiment.Hours,
	}
}
