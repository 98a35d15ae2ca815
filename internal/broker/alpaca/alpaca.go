package alpaca

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/types"
)

type barsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// Source serves historical bars from the Alpaca market data API.
type Source struct {
	client barsClient
	now    func() time.Time
}

var _ interfaces.CandleSource = (*Source)(nil)

func New(apiKey, apiSecret string) *Source {
	return &Source{
		client: marketdata.NewClient(marketdata.ClientOpts{APIKey: apiKey, APISecret: apiSecret}),
		now:    time.Now,
	}
}

func timeFrame(interval string) (marketdata.TimeFrame, time.Duration, error) {
	switch interval {
	case "minute":
		return marketdata.OneMin, time.Minute, nil
	case "5minute":
		return marketdata.NewTimeFrame(5, marketdata.Min), 5 * time.Minute, nil
	case "15minute":
		return marketdata.NewTimeFrame(15, marketdata.Min), 15 * time.Minute, nil
	case "hour", "60minute":
		return marketdata.OneHour, time.Hour, nil
	case "day":
		return marketdata.OneDay, 24 * time.Hour, nil
	default:
		return marketdata.TimeFrame{}, 0, fmt.Errorf("unsupported interval %q", interval)
	}
}

func (s *Source) Candles(ctx context.Context, instrument, interval string, count int) ([]types.Candle, error) {
	tf, step, err := timeFrame(interval)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrDataUnavailable, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// US sessions are 6.5h on weekdays; pad the window generously for
	// intraday frames and let TotalLimit cap the result.
	span := time.Duration(count) * step * 4
	if step >= 24*time.Hour {
		span = time.Duration(count) * step * 3 / 2
	}
	end := s.now()

	bars, err := s.client.GetBars(instrument, marketdata.GetBarsRequest{
		TimeFrame: tf,
		Start:     end.Add(-span),
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: alpaca bars: %v", interfaces.ErrDataUnavailable, err)
	}

	cs := make([]types.Candle, 0, len(bars))
	for _, b := range bars {
		cs = append(cs, types.Candle{
			Ts:    b.Timestamp.Unix(),
			Open:  b.Open,
			High:  b.High,
			Low:   b.Low,
			Close: b.Close,
			Vol:   float64(b.Volume),
		})
	}
	if len(cs) > count {
		cs = cs[len(cs)-count:]
	}
	return cs, nil
}
