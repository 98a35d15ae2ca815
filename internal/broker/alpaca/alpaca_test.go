package alpaca

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"composite-signal-bot/internal/interfaces"
)

type fakeBars struct {
	req  marketdata.GetBarsRequest
	bars []marketdata.Bar
	err  error
}

func (f *fakeBars) GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	f.req = req
	return f.bars, f.err
}

func TestCandlesConvertsAndTrims(t *testing.T) {
	now := time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC)
	fb := &fakeBars{}
	for i := 0; i < 5; i++ {
		fb.bars = append(fb.bars, marketdata.Bar{Timestamp: now.Add(time.Duration(i-5) * time.Hour), Close: float64(i), Volume: 10})
	}
	s := &Source{client: fb, now: func() time.Time { return now }}

	cs, err := s.Candles(context.Background(), "AAPL", "hour", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cs) != 3 || cs[0].Close != 2 || cs[2].Vol != 10 {
		t.Fatalf("unexpected candles: %+v", cs)
	}
	if !fb.req.End.Equal(now) || fb.req.TimeFrame != marketdata.OneHour {
		t.Errorf("unexpected request: %+v", fb.req)
	}
}

func TestCandlesWrapsErrors(t *testing.T) {
	s := &Source{client: &fakeBars{err: errors.New("forbidden")}, now: time.Now}
	if _, err := s.Candles(context.Background(), "AAPL", "day", 3); !errors.Is(err, interfaces.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if _, err := s.Candles(context.Background(), "AAPL", "week", 3); !errors.Is(err, interfaces.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable for an unknown interval, got %v", err)
	}
}
