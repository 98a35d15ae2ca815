// Package engine merges the crossover signal and the sentiment score of an
// instrument into one LONG/SHORT/NONE trade idea.
package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/metrics"
	"composite-signal-bot/internal/ta"
	"composite-signal-bot/internal/types"
)

// Policy bounds the sentiment leg and sets the entry threshold on the total.
type Policy struct {
	Threshold int
	ClipMin   int
	ClipMax   int
}

func DefaultPolicy() Policy {
	return Policy{Threshold: 2, ClipMin: -3, ClipMax: 3}
}

// Combine adds the technical vote (+1/-1/0) to the clipped sentiment and
// compares the total with the threshold in both directions.
func Combine(signal types.Signal, sentiment int, p Policy) types.CompositeScore {
	technical := signal.Score()
	sentiment = ta.Clip(sentiment, p.ClipMin, p.ClipMax)
	total := technical + sentiment

	side := types.None
	switch {
	case total >= p.Threshold:
		side = types.Long
	case total <= -p.Threshold:
		side = types.Short
	}
	return types.CompositeScore{
		Signal:    signal,
		Technical: technical,
		Sentiment: sentiment,
		Total:     total,
		Side:      side,
	}
}

type Engine struct {
	detector interfaces.SignalDetector
	scorer   interfaces.SentimentScorer
	policy   Policy
	timeout  time.Duration
	metrics  *metrics.Recorder
	now      func() time.Time
}

var _ interfaces.Engine = (*Engine)(nil)

// NewEngine bounds each decision by timeout when positive. m may be nil.
func NewEngine(detector interfaces.SignalDetector, scorer interfaces.SentimentScorer, policy Policy, timeout time.Duration, m *metrics.Recorder) *Engine {
	return &Engine{
		detector: detector,
		scorer:   scorer,
		policy:   policy,
		timeout:  timeout,
		metrics:  m,
		now:      time.Now,
	}
}

// Decide runs both legs concurrently and combines them. It never fails.
func (e *Engine) Decide(ctx context.Context, req interfaces.DecideRequest) types.CompositeScore {
	start := time.Now()
	defer e.metrics.Since("decide", start)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var (
		ev        types.Evaluation
		sentiment int
		g         errgroup.Group
	)
	g.Go(func() error {
		ev = e.detector.Evaluate(ctx, req.Instrument, req.Interval, req.Fast, req.Slow, req.ATRRatio)
		return nil
	})
	g.Go(func() error {
		sentiment = e.scorer.Score(ctx, req.Ticker, req.Hours)
		return nil
	})
	_ = g.Wait()

	score := Combine(ev.Signal, sentiment, e.policy)
	score.Instrument = req.Instrument
	score.Ticker = req.Ticker
	score.Price = ev.Close
	score.Indicators = ev.Context
	score.Time = e.now()

	e.metrics.Decision(string(score.Side))
	return score
}
