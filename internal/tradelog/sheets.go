package tradelog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"composite-signal-bot/internal/api"
	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/logger"
	"composite-signal-bot/internal/types"
)

// SheetsLedger mirrors trades to a spreadsheet webhook (an Apps Script web
// app taking a form POST) on top of a local ledger, which stays the source
// of the P/L summary.
type SheetsLedger struct {
	local   interfaces.Ledger
	webhook string
	token   string
	client  *api.Client
}

var _ interfaces.Ledger = (*SheetsLedger)(nil)

func NewSheetsLedger(local interfaces.Ledger, webhook, token string, client *api.Client) *SheetsLedger {
	if client == nil {
		client = api.NewClient(api.WithTimeout(5 * time.Second))
	}
	return &SheetsLedger{local: local, webhook: webhook, token: token, client: client}
}

// Record writes locally first; a webhook failure is logged and returned
// after the local write succeeded.
func (s *SheetsLedger) Record(ctx context.Context, trade types.Trade) error {
	if err := s.local.Record(ctx, trade); err != nil {
		return err
	}
	if s.webhook == "" || s.token == "" {
		return fmt.Errorf("sheets webhook not configured: set SHEETS_WEBHOOK_URL and SHEETS_TOKEN")
	}

	date := trade.Time
	if t, err := time.Parse(time.RFC3339, trade.Time); err == nil {
		date = t.Format("2006-01-02")
	}
	form := url.Values{
		"date":   {date},
		"ticker": {trade.Ticker},
		"figi":   {trade.Instrument},
		"side":   {strings.ToUpper(trade.Side)},
		"price":  {strconv.FormatFloat(trade.Price, 'f', -1, 64)},
		"qty":    {strconv.Itoa(trade.Qty)},
		"fees":   {strconv.FormatFloat(trade.Fees, 'f', -1, 64)},
		"token":  {s.token},
	}
	resp, err := s.client.PostForm(ctx, s.webhook, form)
	if err != nil {
		logger.ErrorWithErr(ctx, "Sheets webhook failed", err, "ticker", trade.Ticker, "trade_id", trade.ID)
		return fmt.Errorf("sheets webhook: %w", err)
	}
	logger.Debug(ctx, "Trade mirrored to sheets", "ticker", trade.Ticker, "response", strings.TrimSpace(resp.String()))
	return nil
}

func (s *SheetsLedger) Summary(ctx context.Context) (types.PnL, error) {
	return s.local.Summary(ctx)
}
