package zerodha

import (
	"context"
	"fmt"
	"strings"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/logger"
	"composite-signal-bot/internal/types"
)

// Approximate bars per calendar day for a 6h15m NSE session, five days a week.
var barsPerDay = map[string]float64{
	"minute":   375 * 5.0 / 7,
	"5minute":  75 * 5.0 / 7,
	"15minute": 25 * 5.0 / 7,
	"60minute": 6.25 * 5.0 / 7,
	"day":      5.0 / 7,
}

// historyClient is the part of the kite client the source needs.
type historyClient interface {
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
}

type Params struct {
	APIKey      string
	AccessToken string
	// Instruments maps the configured instrument id (trading symbol) to a kite instrument token.
	Instruments map[string]uint32
	CacheTTL    time.Duration
}

// Source serves historical candles from the Kite Connect API.
type Source struct {
	kc     historyClient
	mapper *instrumentMapper
	cache  *candleCache
	now    func() time.Time
}

var _ interfaces.CandleSource = (*Source)(nil)

func New(p Params) *Source {
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return newSource(kc, p)
}

func newSource(kc historyClient, p Params) *Source {
	m := newInstrumentMapper()
	for symbol, token := range p.Instruments {
		m.addMapping(symbol, token)
	}
	ttl := p.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Source{kc: kc, mapper: m, cache: newCandleCache(ttl), now: time.Now}
}

// KiteInterval translates the bot's granularity tags to kite's names.
func KiteInterval(interval string) (string, error) {
	switch interval {
	case "minute", "5minute", "15minute", "day":
		return interval, nil
	case "hour", "60minute":
		return "60minute", nil
	default:
		return "", fmt.Errorf("unsupported interval %q", interval)
	}
}

func (s *Source) Candles(ctx context.Context, instrument, interval string, count int) ([]types.Candle, error) {
	kiteIv, err := KiteInterval(interval)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrDataUnavailable, err)
	}
	token, ok := s.mapper.resolve(instrument)
	if !ok {
		return nil, fmt.Errorf("%w: no instrument token for %s", interfaces.ErrDataUnavailable, instrument)
	}

	now := s.now()
	if cs, ok := s.cache.get(instrument, kiteIv, count, now); ok {
		logger.Debug(ctx, "Candles served from cache", "instrument", instrument, "count", len(cs))
		return cs, nil
	}

	days := float64(count)/barsPerDay[kiteIv]*1.5 + 1
	from := now.Add(-time.Duration(days * float64(24*time.Hour)))

	data, err := s.kc.GetHistoricalData(int(token), kiteIv, from, now, false, false)
	if err != nil {
		return nil, classify(err)
	}

	cs := make([]types.Candle, 0, len(data))
	for _, d := range data {
		cs = append(cs, types.Candle{
			Ts:    d.Date.Unix(),
			Open:  d.Open,
			High:  d.High,
			Low:   d.Low,
			Close: d.Close,
			Vol:   float64(d.Volume),
		})
	}
	if len(cs) > count {
		cs = cs[len(cs)-count:]
	}
	s.cache.put(instrument, kiteIv, cs, now)
	return cs, nil
}

// classify maps kite's window-size complaints onto ErrPeriodTooLarge.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "exceeds max") || strings.Contains(msg, "too large") || strings.Contains(msg, "too many") {
		return fmt.Errorf("%w: %v", interfaces.ErrPeriodTooLarge, err)
	}
	return fmt.Errorf("%w: kite historical data: %v", interfaces.ErrDataUnavailable, err)
}
