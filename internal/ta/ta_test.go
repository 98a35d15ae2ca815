package ta

import (
	"math"
	"testing"

	"composite-signal-bot/internal/types"
)

func candlesFrom(closes ...float64) []types.Candle {
	out := make([]types.Candle, len(closes))
	for i, c := range closes {
		out[i] = types.Candle{Ts: int64(i), Open: c, High: c, Low: c, Close: c}
	}
	return out
}

func TestRollingMean(t *testing.T) {
	got := RollingMean([]float64{1, 2, 3, 4, 5}, 3)
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Fatalf("expected NaN warm-up, got %v", got[:2])
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if got[i+2] != w {
			t.Errorf("index %d: expected %v, got %v", i+2, w, got[i+2])
		}
	}
}

func TestRollingMeanPropagatesNaN(t *testing.T) {
	got := RollingMean([]float64{math.NaN(), 2, 4, 6}, 2)
	if !math.IsNaN(got[1]) {
		t.Errorf("window containing NaN should be NaN, got %v", got[1])
	}
	if got[2] != 3 || got[3] != 5 {
		t.Errorf("expected 3 and 5, got %v and %v", got[2], got[3])
	}
}

func TestTrueRangeProxy(t *testing.T) {
	got := TrueRangeProxy([]float64{10, 12, 9})
	if !math.IsNaN(got[0]) || got[1] != 2 || got[2] != 3 {
		t.Fatalf("unexpected true range: %v", got)
	}
}

func TestClip(t *testing.T) {
	cases := []struct{ v, want int }{{-5, -3}, {-3, -3}, {0, 0}, {2, 2}, {7, 3}}
	for _, c := range cases {
		if got := Clip(c.v, -3, 3); got != c.want {
			t.Errorf("Clip(%d): expected %d, got %d", c.v, c.want, got)
		}
	}
}

func TestCrossoverRowsDropIncomplete(t *testing.T) {
	rows := CrossoverRows(candlesFrom(10, 10, 10, 10, 10, 9, 8, 7, 12, 13, 14), 2, 4)
	// atr needs 4 diffs (index 4), avg_atr 4 more atr values (index 7).
	if len(rows) != 4 {
		t.Fatalf("expected 4 complete rows, got %d", len(rows))
	}
	if rows[0].Ts != 7 {
		t.Errorf("expected first complete row at index 7, got %d", rows[0].Ts)
	}
	if rows[0].Fast != 7.5 || rows[0].Slow != 8.5 {
		t.Errorf("row 7: expected fast 7.5 slow 8.5, got %v %v", rows[0].Fast, rows[0].Slow)
	}
	if rows[1].Fast != 9.5 || rows[1].Slow != 9 {
		t.Errorf("row 8: expected fast 9.5 slow 9, got %v %v", rows[1].Fast, rows[1].Slow)
	}
	if !CrossedUp(rows[0], rows[1]) {
		t.Error("expected upward cross between rows 7 and 8")
	}
	if CrossedUp(rows[2], rows[3]) {
		t.Error("no cross expected between the last two rows")
	}
}

func TestGateZeroAverageDisables(t *testing.T) {
	r := Crossover{ATR: 0, AvgATR: 0}
	if !r.GatePasses(5) {
		t.Error("zero average ATR should disable the gate")
	}
	r = Crossover{ATR: 1, AvgATR: 2}
	if r.GatePasses(1) {
		t.Error("atr below average should fail a ratio of 1")
	}
	if !r.GatePasses(0.5) {
		t.Error("atr at half the average should pass a ratio of 0.5")
	}
}

func TestRSIAllGains(t *testing.T) {
	if got := RSI([]float64{1, 2, 3, 4}, 3); got != 100 {
		t.Errorf("expected 100, got %v", got)
	}
	if got := RSI([]float64{1, 2}, 3); !math.IsNaN(got) {
		t.Errorf("expected NaN on short input, got %v", got)
	}
}
