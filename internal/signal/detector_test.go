package signal

import (
	"context"
	"fmt"
	"testing"

	"composite-signal-bot/internal/broker"
	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/types"
)

// scriptedSource returns a fixed series, optionally rejecting large windows.
type scriptedSource struct {
	candles  []types.Candle
	maxCount int
	err      error
	counts   []int
}

func (s *scriptedSource) Candles(ctx context.Context, instrument, interval string, count int) ([]types.Candle, error) {
	s.counts = append(s.counts, count)
	if s.err != nil {
		return nil, s.err
	}
	if s.maxCount > 0 && count > s.maxCount {
		return nil, fmt.Errorf("%w: %d", interfaces.ErrPeriodTooLarge, count)
	}
	cs := s.candles
	if len(cs) > count {
		cs = cs[len(cs)-count:]
	}
	return cs, nil
}

func detectorFor(closes ...float64) (*Detector, *scriptedSource) {
	src := &scriptedSource{candles: broker.Closes(closes...)}
	return New(src, DefaultConfig(), nil), src
}

var e2eCloses = []float64{10, 10, 10, 10, 10, 9, 8, 7, 12, 13, 14}

func TestShortSeriesHolds(t *testing.T) {
	d, _ := detectorFor(1, 2, 3)
	if got := d.Signal(context.Background(), "X", "hour", 2, 4, 0); got != types.Hold {
		t.Fatalf("expected HOLD for a series shorter than slow, got %s", got)
	}
}

func TestProviderErrorHolds(t *testing.T) {
	src := &scriptedSource{err: fmt.Errorf("%w: down", interfaces.ErrDataUnavailable)}
	d := New(src, DefaultConfig(), nil)
	ev := d.Evaluate(context.Background(), "X", "hour", 2, 4, 0)
	if ev.Signal != types.Hold || ev.Reason == "" {
		t.Fatalf("expected HOLD with a reason, got %+v", ev)
	}
	if len(src.counts) != 1 {
		t.Errorf("non-window errors should not be retried, got %d calls", len(src.counts))
	}
}

func TestUpwardCrossBuysOnTheCrossBar(t *testing.T) {
	// Prefix ending on the bar that closes at 12: fast 9.5 > slow 9 after 7.5 <= 8.5.
	d, _ := detectorFor(e2eCloses[:9]...)
	ev := d.Evaluate(context.Background(), "X", "hour", 2, 4, 0)
	if ev.Signal != types.Buy {
		t.Fatalf("expected BUY, got %+v", ev)
	}
	if ev.Close != 12 {
		t.Errorf("expected last close 12, got %v", ev.Close)
	}
}

func TestFullSeriesHoldsAfterCross(t *testing.T) {
	// Two bars after the cross fast stays above slow, so no new cross.
	d, _ := detectorFor(e2eCloses...)
	if got := d.Signal(context.Background(), "X", "hour", 2, 4, 0); got != types.Hold {
		t.Fatalf("expected HOLD on the full series, got %s", got)
	}
}

func TestGateBlocksBuy(t *testing.T) {
	// On the cross bar atr is 2 against an average of 0.875.
	d, _ := detectorFor(e2eCloses[:9]...)
	if got := d.Signal(context.Background(), "X", "hour", 2, 4, 2.5); got != types.Hold {
		t.Fatalf("expected HOLD with a strict gate, got %s", got)
	}
	if got := d.Signal(context.Background(), "X", "hour", 2, 4, 2.0); got != types.Buy {
		t.Fatalf("expected BUY with a ratio the gate passes, got %s", got)
	}
}

func TestDownwardCrossSells(t *testing.T) {
	d, _ := detectorFor(10, 10, 10, 10, 10, 11, 12, 13, 8)
	if got := d.Signal(context.Background(), "X", "hour", 2, 4, 0); got != types.Sell {
		t.Fatalf("expected SELL, got %s", got)
	}
}

func TestNoCrossHoldsRegardlessOfATR(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(100 + i*i)
	}
	d, _ := detectorFor(closes...)
	for _, ratio := range []float64{0, 1, 100} {
		if got := d.Signal(context.Background(), "X", "hour", 2, 4, ratio); got != types.Hold {
			t.Fatalf("ratio %v: expected HOLD on a steady uptrend, got %s", ratio, got)
		}
	}
}

func TestFlatSeriesZeroATRHolds(t *testing.T) {
	d, _ := detectorFor(5, 5, 5, 5, 5, 5, 5, 5, 5, 5)
	if got := d.Signal(context.Background(), "X", "hour", 2, 4, 1); got != types.Hold {
		t.Fatalf("expected HOLD on a flat series, got %s", got)
	}
}

func TestWindowShrinksOnRejection(t *testing.T) {
	src := &scriptedSource{candles: broker.Closes(e2eCloses[:9]...), maxCount: 60}
	d := New(src, Config{Lookback: 200, Shrink: DefaultConfig().Shrink}, nil)

	if got := d.Signal(context.Background(), "X", "hour", 2, 4, 0); got != types.Buy {
		t.Fatalf("expected BUY after shrinking, got %s", got)
	}
	want := []int{200, 100, 50}
	if len(src.counts) != len(want) {
		t.Fatalf("expected counts %v, got %v", want, src.counts)
	}
	for i := range want {
		if src.counts[i] != want[i] {
			t.Fatalf("expected counts %v, got %v", want, src.counts)
		}
	}
}

func TestInvalidPeriodsHold(t *testing.T) {
	d, src := detectorFor(e2eCloses...)
	if got := d.Signal(context.Background(), "X", "hour", 4, 2, 0); got != types.Hold {
		t.Fatalf("expected HOLD for fast >= slow, got %s", got)
	}
	if len(src.counts) != 0 {
		t.Error("invalid periods should not reach the provider")
	}
}

func TestClassifyNeedsTwoRows(t *testing.T) {
	ev := Classify(nil, 0)
	if ev.Signal != types.Hold || ev.Reason == "" {
		t.Fatalf("expected HOLD with reason, got %+v", ev)
	}
}

func TestEvaluationCarriesIndicatorContext(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	d, _ := detectorFor(closes...)
	ev := d.Evaluate(context.Background(), "X", "hour", 2, 4, 0)
	if ev.Context["rsi14"] != 100 {
		t.Errorf("expected rsi14 100 on a steady rise, got %v", ev.Context["rsi14"])
	}
	if _, ok := ev.Context["atr14"]; !ok {
		t.Error("expected atr14 in context")
	}
	if _, ok := ev.Context["sma200"]; ok {
		t.Error("sma200 should be absent with 20 candles")
	}
}
