package eod

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"composite-signal-bot/internal/types"
)

type dayTrades []types.Trade

func (d dayTrades) TradesOn(time.Time) ([]types.Trade, error) { return d, nil }

func newTestSummarizer(t *testing.T, trades dayTrades, now time.Time) *eodSummarizer {
	t.Helper()
	return &eodSummarizer{
		trades:      trades,
		outDir:      t.TempDir(),
		loc:         time.UTC,
		closeHour:   15,
		closeMinute: 40,
		now:         func() time.Time { return now },
	}
}

func TestSummarizeDayWritesCSV(t *testing.T) {
	day := time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC)
	s := newTestSummarizer(t, dayTrades{
		{Ticker: "TCS", Side: "BUY", Qty: 2, Price: 100},
		{Ticker: "TCS", Side: "SELL", Qty: 2, Price: 110},
		{Ticker: "INFY", Side: "BUY", Qty: 1, Price: 50},
	}, day)

	p, err := s.SummarizeDay(context.Background(), day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(p) != "2024-03-01.csv" {
		t.Errorf("unexpected path %s", p)
	}

	f, err := os.Open(p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header, 2 tickers and total, got %d rows", len(rows))
	}
	if rows[1][0] != "INFY" || rows[2][0] != "TCS" {
		t.Errorf("tickers not sorted: %v", rows)
	}
	if rows[2][6] != "20.00" || rows[3][6] != "20.00" {
		t.Errorf("unexpected realized pnl: %v / %v", rows[2], rows[3])
	}
}

func TestSummarizeDayWithoutTrades(t *testing.T) {
	s := newTestSummarizer(t, nil, time.Now())
	p, err := s.SummarizeDay(context.Background(), time.Now())
	if err != nil || p != "" {
		t.Fatalf("expected empty path and no error, got %q, %v", p, err)
	}
}

func TestShouldRunNow(t *testing.T) {
	before := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	if ok, _ := newTestSummarizer(t, nil, before).ShouldRunNow(); ok {
		t.Error("should not run before the close")
	}

	after := time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC)
	s := newTestSummarizer(t, nil, after)
	ok, p := s.ShouldRunNow()
	if !ok {
		t.Fatal("should run after the close")
	}
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if ok, _ := s.ShouldRunNow(); ok {
		t.Error("should not run twice")
	}
}
