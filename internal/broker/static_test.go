package broker

import (
	"context"
	"errors"
	"testing"

	"composite-signal-bot/internal/interfaces"
)

func TestStaticDeterministic(t *testing.T) {
	s := NewStatic(1_700_000_000)
	a, err := s.Candles(context.Background(), "INFY", "hour", 50)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.Candles(context.Background(), "INFY", "hour", 50)
	if len(a) != 50 {
		t.Fatalf("expected 50 candles, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("candle %d differs between calls", i)
		}
	}
	if a[1].Ts-a[0].Ts != 3600 {
		t.Errorf("expected hourly spacing, got %d", a[1].Ts-a[0].Ts)
	}
}

func TestStaticFixedSeries(t *testing.T) {
	s := NewStatic(0)
	s.SetSeries("X", Closes(1, 2, 3, 4))
	cs, err := s.Candles(context.Background(), "X", "day", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 2 || cs[0].Close != 3 || cs[1].Close != 4 {
		t.Fatalf("expected the last two closes, got %+v", cs)
	}
}

func TestStaticUnknownInterval(t *testing.T) {
	_, err := NewStatic(0).Candles(context.Background(), "X", "week", 5)
	if !errors.Is(err, interfaces.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}
