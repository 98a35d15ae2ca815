package brokerobs

import (
	"context"
	"time"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/logger"
	"composite-signal-bot/internal/metrics"
	"composite-signal-bot/internal/types"
)

// observableSource wraps a CandleSource with logging, tracing and metrics
type observableSource struct {
	name    string
	src     interfaces.CandleSource
	metrics *metrics.Recorder
}

var _ interfaces.CandleSource = (*observableSource)(nil)

func Wrap(name string, src interfaces.CandleSource, m *metrics.Recorder) interfaces.CandleSource {
	return &observableSource{name: name, src: src, metrics: m}
}

func (o *observableSource) Candles(ctx context.Context, instrument, interval string, count int) ([]types.Candle, error) {
	defer o.metrics.Since("candles."+o.name, time.Now())

	op := logger.StartOperation(ctx, "broker.Candles",
		"provider", o.name,
		"instrument", instrument,
		"interval", interval,
		"count", count,
	)
	candles, err := o.src.Candles(op.Context(), instrument, interval, count)
	if err != nil {
		o.metrics.SourceFetch("candles."+o.name, "error")
		op.EndWithError(err)
		return nil, err
	}

	o.metrics.SourceFetch("candles."+o.name, "ok")
	op.End("received", len(candles))
	return candles, nil
}
