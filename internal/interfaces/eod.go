package interfaces

import (
	"context"
	"time"
)

// EodSummarizer writes an end-of-day summary of the ledger.
type EodSummarizer interface {
	// SummarizeDay returns the CSV path, or "" when the day had no trades.
	SummarizeDay(ctx context.Context, t time.Time) (string, error)
	SummarizeToday(ctx context.Context) (string, error)
	// ShouldRunNow reports whether today's summary is due and where it goes.
	ShouldRunNow() (bool, string)
}
