// Package signal detects moving-average crossovers on closing prices,
// gated by a close-to-close volatility proxy.
package signal

import (
	"context"
	"errors"
	"fmt"
	"math"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/logger"
	"composite-signal-bot/internal/metrics"
	"composite-signal-bot/internal/retry"
	"composite-signal-bot/internal/ta"
	"composite-signal-bot/internal/types"
)

type Config struct {
	// Lookback is the number of candles requested; raised to slow when smaller.
	Lookback int
	Shrink   retry.ShrinkPolicy
}

func DefaultConfig() Config {
	return Config{
		Lookback: 200,
		Shrink:   retry.ShrinkPolicy{Factor: 0.5, MaxAttempts: 4},
	}
}

type Detector struct {
	src     interfaces.CandleSource
	cfg     Config
	metrics *metrics.Recorder
}

var _ interfaces.SignalDetector = (*Detector)(nil)

func New(src interfaces.CandleSource, cfg Config, m *metrics.Recorder) *Detector {
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultConfig().Lookback
	}
	return &Detector{src: src, cfg: cfg, metrics: m}
}

// Signal returns BUY, SELL or HOLD for the latest bar. It never fails:
// provider errors and short histories resolve to HOLD.
func (d *Detector) Signal(ctx context.Context, instrument, interval string, fast, slow int, atrRatio float64) types.Signal {
	return d.Evaluate(ctx, instrument, interval, fast, slow, atrRatio).Signal
}

func (d *Detector) Evaluate(ctx context.Context, instrument, interval string, fast, slow int, atrRatio float64) types.Evaluation {
	ev := d.evaluate(ctx, instrument, interval, fast, slow, atrRatio)
	d.metrics.Signal(string(ev.Signal))
	return ev
}

func (d *Detector) evaluate(ctx context.Context, instrument, interval string, fast, slow int, atrRatio float64) types.Evaluation {
	if fast <= 0 || slow <= 0 || fast >= slow {
		return hold(fmt.Sprintf("invalid periods fast=%d slow=%d", fast, slow))
	}

	candles, err := d.fetch(ctx, instrument, interval, slow)
	if err != nil {
		logger.Warn(ctx, "Candle fetch failed, holding", "instrument", instrument, "interval", interval, "error", err)
		return hold(err.Error())
	}
	if len(candles) < slow {
		return hold(fmt.Errorf("%w: %d candles for slow=%d", interfaces.ErrInsufficientHistory, len(candles), slow).Error())
	}

	ev := Classify(ta.CrossoverRows(candles, fast, slow), atrRatio)
	ev.Context = indicatorContext(candles)
	return ev
}

// indicatorContext computes the indicators logged next to a decision;
// undefined values are left out.
func indicatorContext(candles []types.Candle) map[string]float64 {
	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i], highs[i], lows[i] = c.Close, c.High, c.Low
	}

	out := make(map[string]float64, 3)
	for k, v := range map[string]float64{
		"rsi14":  ta.RSI(closes, 14),
		"atr14":  ta.ATR(highs, lows, closes, 14),
		"sma200": ta.SMA(closes, 200),
	} {
		if !math.IsNaN(v) {
			out[k] = v
		}
	}
	return out
}

// Classify applies the crossover rule to the last two complete rows.
func Classify(rows []ta.Crossover, atrRatio float64) types.Evaluation {
	if len(rows) < 2 {
		ev := hold(fmt.Errorf("%w: %d complete rows", interfaces.ErrInsufficientHistory, len(rows)).Error())
		ev.Rows = len(rows)
		return ev
	}

	prev, curr := rows[len(rows)-2], rows[len(rows)-1]
	ev := types.Evaluation{
		Signal: types.Hold,
		Close:  curr.Close,
		Fast:   curr.Fast,
		Slow:   curr.Slow,
		ATR:    curr.ATR,
		AvgATR: curr.AvgATR,
		Rows:   len(rows),
	}

	gate := curr.GatePasses(atrRatio)
	switch {
	case ta.CrossedUp(prev, curr) && gate:
		ev.Signal = types.Buy
	case ta.CrossedDown(prev, curr) && gate:
		ev.Signal = types.Sell
	}
	return ev
}

func (d *Detector) fetch(ctx context.Context, instrument, interval string, slow int) ([]types.Candle, error) {
	policy := d.cfg.Shrink
	policy.Floor = slow
	initial := d.cfg.Lookback
	if initial < slow {
		initial = slow
	}

	var candles []types.Candle
	err := policy.Do(ctx, initial, interfaces.ErrPeriodTooLarge, func(count int) error {
		cs, err := d.src.Candles(ctx, instrument, interval, count)
		if err != nil {
			if errors.Is(err, interfaces.ErrPeriodTooLarge) {
				logger.Debug(ctx, "Provider rejected window, shrinking", "instrument", instrument, "count", count)
			}
			return err
		}
		candles = cs
		return nil
	})
	return candles, err
}

func hold(reason string) types.Evaluation {
	return types.Evaluation{Signal: types.Hold, Reason: reason}
}
