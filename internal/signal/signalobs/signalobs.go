package signalobs

import (
	"context"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/logger"
	"composite-signal-bot/internal/trace"
	"composite-signal-bot/internal/types"
)

// observableDetector wraps a SignalDetector with logging and tracing
type observableDetector struct {
	detector interfaces.SignalDetector
}

var _ interfaces.SignalDetector = (*observableDetector)(nil)

func Wrap(detector interfaces.SignalDetector) interfaces.SignalDetector {
	return &observableDetector{detector: detector}
}

func (o *observableDetector) Signal(ctx context.Context, instrument, interval string, fast, slow int, atrRatio float64) types.Signal {
	return o.Evaluate(ctx, instrument, interval, fast, slow, atrRatio).Signal
}

func (o *observableDetector) Evaluate(ctx context.Context, instrument, interval string, fast, slow int, atrRatio float64) types.Evaluation {
	ctx, span := trace.StartSpan(ctx, "signal.Evaluate")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Evaluating crossover",
		"instrument", instrument,
		"interval", interval,
		"fast", fast,
		"slow", slow,
		"atr_ratio", atrRatio,
	)

	ev := o.detector.Evaluate(ctx, instrument, interval, fast, slow, atrRatio)
	if ev.Reason != "" {
		logger.WarnSkip(ctx, 1, "Crossover fell back to HOLD", "instrument", instrument, "reason", ev.Reason)
		return ev
	}

	logger.InfoSkip(ctx, 1, "Crossover evaluated",
		"instrument", instrument,
		"signal", ev.Signal,
		"sma_fast", ev.Fast,
		"sma_slow", ev.Slow,
		"atr", ev.ATR,
		"avg_atr", ev.AvgATR,
	)
	return ev
}
