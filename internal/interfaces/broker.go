package interfaces

import (
	"context"

	"composite-signal-bot/internal/types"
)

// CandleSource supplies closing-price history for an instrument.
type CandleSource interface {
	// Candles returns up to count candles ordered oldest first.
	// Provider failures are wrapped with ErrDataUnavailable; a rejected window
	// size is wrapped with ErrPeriodTooLarge so callers can retry smaller.
	Candles(ctx context.Context, instrument, interval string, count int) ([]types.Candle, error)
}
