package ta

import (
	"math"

	"composite-signal-bot/internal/types"
)

// Crossover is one complete row of moving-average and volatility state.
type Crossover struct {
	Ts     int64
	Close  float64
	Fast   float64
	Slow   float64
	ATR    float64
	AvgATR float64
}

// CrossoverRows computes fast/slow means of close plus the close-to-close
// volatility proxy (atr over slow bars, and its own slow-bar mean). Rows
// where any column lacks history are dropped, so the result may be empty.
func CrossoverRows(candles []types.Candle, fast, slow int) []Crossover {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	smaFast := RollingMean(closes, fast)
	smaSlow := RollingMean(closes, slow)
	atr := RollingMean(TrueRangeProxy(closes), slow)
	avgATR := RollingMean(atr, slow)

	rows := make([]Crossover, 0, len(candles))
	for i, c := range candles {
		if math.IsNaN(smaFast[i]) || math.IsNaN(smaSlow[i]) || math.IsNaN(atr[i]) || math.IsNaN(avgATR[i]) {
			continue
		}
		rows = append(rows, Crossover{
			Ts:     c.Ts,
			Close:  c.Close,
			Fast:   smaFast[i],
			Slow:   smaSlow[i],
			ATR:    atr[i],
			AvgATR: avgATR[i],
		})
	}
	return rows
}

// GatePasses reports whether current volatility is at least ratio times its
// average. A zero average disables the gate.
func (r Crossover) GatePasses(ratio float64) bool {
	if r.AvgATR == 0 {
		return true
	}
	return r.ATR >= ratio*r.AvgATR
}

// CrossedUp is true when fast moved from at-or-below slow to strictly above.
func CrossedUp(prev, curr Crossover) bool {
	return prev.Fast <= prev.Slow && curr.Fast > curr.Slow
}

// CrossedDown is the mirror of CrossedUp.
func CrossedDown(prev, curr Crossover) bool {
	return prev.Fast >= prev.Slow && curr.Fast < curr.Slow
}
