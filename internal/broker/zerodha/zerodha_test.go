package zerodha

import (
	"context"
	"errors"
	"testing"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"github.com/zerodha/gokiteconnect/v4/models"

	"composite-signal-bot/internal/interfaces"
)

type fakeKite struct {
	calls    int
	interval string
	token    int
	err      error
	bars     int
}

func (f *fakeKite) GetHistoricalData(token int, interval string, from, to time.Time, continuous, oi bool) ([]kiteconnect.HistoricalData, error) {
	f.calls++
	f.token = token
	f.interval = interval
	if f.err != nil {
		return nil, f.err
	}
	out := make([]kiteconnect.HistoricalData, f.bars)
	for i := range out {
		out[i] = kiteconnect.HistoricalData{
			Date:  models.Time{Time: from.Add(time.Duration(i) * time.Hour)},
			Close: float64(100 + i),
		}
	}
	return out, nil
}

func TestCandlesMapsIntervalAndTrims(t *testing.T) {
	fk := &fakeKite{bars: 30}
	s := newSource(fk, Params{Instruments: map[string]uint32{"INFY": 408065}})

	cs, err := s.Candles(context.Background(), "INFY", "hour", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fk.interval != "60minute" || fk.token != 408065 {
		t.Errorf("expected 60minute/408065, got %s/%d", fk.interval, fk.token)
	}
	if len(cs) != 10 || cs[9].Close != 129 {
		t.Fatalf("expected the last 10 bars ending at 129, got %d bars", len(cs))
	}

	if _, err := s.Candles(context.Background(), "INFY", "hour", 10); err != nil {
		t.Fatal(err)
	}
	if fk.calls != 1 {
		t.Errorf("expected the second call to hit the cache, got %d calls", fk.calls)
	}
}

func TestCandlesErrorMapping(t *testing.T) {
	fk := &fakeKite{err: errors.New("interval exceeds max limit: 400 days")}
	s := newSource(fk, Params{})

	_, err := s.Candles(context.Background(), "408065", "day", 200)
	if !errors.Is(err, interfaces.ErrPeriodTooLarge) {
		t.Fatalf("expected ErrPeriodTooLarge, got %v", err)
	}

	fk.err = errors.New("invalid token")
	_, err = s.Candles(context.Background(), "408065", "day", 200)
	if !errors.Is(err, interfaces.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestUnknownInstrument(t *testing.T) {
	s := newSource(&fakeKite{}, Params{})
	if _, err := s.Candles(context.Background(), "RELIANCE", "day", 5); !errors.Is(err, interfaces.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable for unmapped symbol, got %v", err)
	}
}
