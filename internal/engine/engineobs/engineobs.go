package engineobs

import (
	"context"
	"time"

	"composite-signal-bot/internal/health"
	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/logger"
	"composite-signal-bot/internal/trace"
	"composite-signal-bot/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
	health *health.Recorder
}

var _ interfaces.Engine = (*observableEngine)(nil)

// Wrap logs every decision and writes it to the health log. h may be nil.
func Wrap(eng interfaces.Engine, h *health.Recorder) interfaces.Engine {
	return &observableEngine{engine: eng, health: h}
}

func (oe *observableEngine) Decide(ctx context.Context, req interfaces.DecideRequest) types.CompositeScore {
	ctx, span := trace.StartSpan(ctx, "engine.Decide")
	defer span.End()

	start := time.Now()
	logger.DebugSkip(ctx, 1, "Starting decision",
		"ticker", req.Ticker,
		"instrument", req.Instrument,
		"interval", req.Interval,
		"fast", req.Fast,
		"slow", req.Slow,
	)

	score := oe.engine.Decide(ctx, req)

	logger.Decision(ctx, score.Ticker, string(score.Side), score.Total, string(score.Signal),
		"technical", score.Technical,
		"sentiment", score.Sentiment,
		"price", score.Price,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	oe.health.Decision(score.Ticker, string(score.Side), score.Technical, score.Sentiment, score.Total)
	return score
}
