package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/logger"
	"composite-signal-bot/internal/types"
)

// PaperTrader turns LONG and SHORT ideas into simulated fills at the last
// close and records them in a ledger. No order is routed anywhere.
type PaperTrader struct {
	ledger  interfaces.Ledger
	qty     int
	enabled bool
	now     func() time.Time
}

func NewPaperTrader(ledger interfaces.Ledger, qty int, enabled bool) *PaperTrader {
	if qty <= 0 {
		qty = 1
	}
	return &PaperTrader{ledger: ledger, qty: qty, enabled: enabled, now: time.Now}
}

// Execute records a fill for score and returns it, or nil when the idea is
// NONE, trading is disabled or no price is known.
func (pt *PaperTrader) Execute(ctx context.Context, score types.CompositeScore) (*types.Trade, error) {
	if !pt.enabled || score.Side == types.None {
		return nil, nil
	}
	if score.Price <= 0 {
		logger.Warn(ctx, "Skipping paper fill without a price", "ticker", score.Ticker, "side", score.Side)
		return nil, nil
	}

	side := "BUY"
	if score.Side == types.Short {
		side = "SELL"
	}
	trade := types.Trade{
		ID:         uuid.NewString(),
		Time:       pt.now().UTC().Format(time.RFC3339),
		Ticker:     score.Ticker,
		Instrument: score.Instrument,
		Side:       side,
		Qty:        pt.qty,
		Price:      score.Price,
		Score:      score.Total,
		Reason:     fmt.Sprintf("technical=%d sentiment=%d", score.Technical, score.Sentiment),
	}

	if err := pt.ledger.Record(ctx, trade); err != nil {
		logger.ErrorWithErr(ctx, "Failed to record paper fill", err, "ticker", score.Ticker, "side", side)
		return nil, err
	}
	logger.Trade(ctx, trade.Ticker, trade.Side, trade.Qty, trade.Price, trade.ID, "score", trade.Score)
	return &trade, nil
}
