package interfaces

import (
	"context"

	"composite-signal-bot/internal/types"
)

// SignalDetector produces the technical leg of the composite decision.
type SignalDetector interface {
	Signal(ctx context.Context, instrument, interval string, fast, slow int, atrRatio float64) types.Signal
	// Evaluate is Signal plus the state that produced it.
	Evaluate(ctx context.Context, instrument, interval string, fast, slow int, atrRatio float64) types.Evaluation
}

// DecideRequest carries the per-call parameters of a composite decision.
type DecideRequest struct {
	Instrument string
	Ticker     string
	Interval   string
	Fast       int
	Slow       int
	ATRRatio   float64
	Hours      int
}

// Engine produces a composite trade idea. It never fails; degraded inputs
// resolve to HOLD, a neutral sentiment and ultimately NONE.
type Engine interface {
	Decide(ctx context.Context, req DecideRequest) types.CompositeScore
}
