package interfaces

import (
	"context"

	"composite-signal-bot/internal/types"
)

// Ledger persists trades and reports cumulative profit and loss.
type Ledger interface {
	Record(ctx context.Context, trade types.Trade) error
	Summary(ctx context.Context) (types.PnL, error)
}
