// Package eod writes a per-ticker CSV summary of each trading day's fills.
package eod

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/tradelog"
	"composite-signal-bot/internal/types"
)

// DayReader is the part of the file ledger the summarizer reads from.
type DayReader interface {
	TradesOn(t time.Time) ([]types.Trade, error)
}

type eodSummarizer struct {
	trades DayReader
	outDir string
	loc    *time.Location
	// Summaries are due after this local time of day.
	closeHour, closeMinute int
	now                    func() time.Time
}

var _ interfaces.EodSummarizer = (*eodSummarizer)(nil)

func (s *eodSummarizer) csvPath(t time.Time) string {
	return filepath.Join(s.outDir, t.In(s.loc).Format("2006-01-02")+".csv")
}

// SummarizeDay returns "" without error when no trades exist for the day.
func (s *eodSummarizer) SummarizeDay(_ context.Context, t time.Time) (string, error) {
	trades, err := s.trades.TradesOn(t)
	if err != nil {
		return "", err
	}
	if len(trades) == 0 {
		return "", nil
	}
	pnl := tradelog.Accumulate(trades)

	tickers := make([]string, 0, len(pnl.ByTicker))
	for k := range pnl.ByTicker {
		tickers = append(tickers, k)
	}
	sort.Strings(tickers)

	outPath := s.csvPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	headers := []string{"ticker", "buy_qty", "buy_avg", "sell_qty", "sell_avg", "fees", "realized_pnl", "gross_buy_value", "gross_sell_value"}
	if err := w.Write(headers); err != nil {
		return "", err
	}
	var totalBuy, totalSell float64
	for _, k := range tickers {
		r := pnl.ByTicker[k]
		buyValue := r.BuyAvg * float64(r.BuyQty)
		sellValue := r.SellAvg * float64(r.SellQty)
		rec := []string{
			k,
			strconv.Itoa(r.BuyQty), fmt.Sprintf("%.4f", r.BuyAvg),
			strconv.Itoa(r.SellQty), fmt.Sprintf("%.4f", r.SellAvg),
			fmt.Sprintf("%.2f", r.Fees), fmt.Sprintf("%.2f", r.RealizedPnL),
			fmt.Sprintf("%.2f", buyValue), fmt.Sprintf("%.2f", sellValue),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalBuy += buyValue
		totalSell += sellValue
	}
	_ = w.Write([]string{"TOTAL", "", "", "", "", "", fmt.Sprintf("%.2f", pnl.Total), fmt.Sprintf("%.2f", totalBuy), fmt.Sprintf("%.2f", totalSell)})
	w.Flush()
	return outPath, w.Error()
}

func (s *eodSummarizer) SummarizeToday(ctx context.Context) (string, error) {
	return s.SummarizeDay(ctx, s.now())
}

// ShouldRunNow is true after the close once per day, until the CSV exists.
func (s *eodSummarizer) ShouldRunNow() (bool, string) {
	now := s.now().In(s.loc)
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), s.closeHour, s.closeMinute, 0, 0, s.loc)
	outPath := s.csvPath(now)
	if now.After(cutoff) {
		if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
			return true, outPath
		}
	}
	return false, outPath
}
