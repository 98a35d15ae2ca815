package broker

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/types"
)

var intervalSeconds = map[string]int64{
	"minute":   60,
	"5minute":  300,
	"15minute": 900,
	"hour":     3600,
	"60minute": 3600,
	"day":      86400,
}

// Static produces a deterministic random walk per instrument, for dry runs
// without broker credentials. Fixed series take precedence when set.
type Static struct {
	Base  float64
	Start int64

	mu    sync.RWMutex
	fixed map[string][]types.Candle
}

var _ interfaces.CandleSource = (*Static)(nil)

func NewStatic(start int64) *Static {
	return &Static{Base: 1000, Start: start, fixed: make(map[string][]types.Candle)}
}

// SetSeries pins instrument to the given candles.
func (s *Static) SetSeries(instrument string, candles []types.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixed[instrument] = candles
}

func (s *Static) Candles(ctx context.Context, instrument, interval string, count int) ([]types.Candle, error) {
	step, ok := intervalSeconds[interval]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported interval %q", interfaces.ErrDataUnavailable, interval)
	}

	s.mu.RLock()
	fixed, ok := s.fixed[instrument]
	s.mu.RUnlock()
	if ok {
		if len(fixed) > count {
			fixed = fixed[len(fixed)-count:]
		}
		out := make([]types.Candle, len(fixed))
		copy(out, fixed)
		return out, nil
	}

	rng := rand.New(rand.NewSource(seed(instrument)))
	cs := make([]types.Candle, 0, count)
	c := s.Base
	for i := 0; i < count; i++ {
		c += (rng.Float64() - 0.5) * 5
		h := c + rng.Float64()*3
		l := c - rng.Float64()*3
		cs = append(cs, types.Candle{
			Ts:    s.Start + int64(i)*step,
			Open:  c - 0.5,
			High:  h,
			Low:   l,
			Close: c,
			Vol:   rng.Float64() * 1000,
		})
	}
	return cs, nil
}

func seed(instrument string) int64 {
	var h int64 = 1469598103
	for _, r := range instrument {
		h = h*31 + int64(r)
	}
	return h
}

// Closes builds candles from close prices with one-second timestamps.
func Closes(closes ...float64) []types.Candle {
	out := make([]types.Candle, len(closes))
	for i, c := range closes {
		out[i] = types.Candle{Ts: int64(i), Open: c, High: c, Low: c, Close: c}
	}
	return out
}
