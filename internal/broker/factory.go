package broker

import (
	"fmt"
	"strconv"
	"time"

	"composite-signal-bot/internal/broker/alpaca"
	"composite-signal-bot/internal/broker/zerodha"
	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/store"
)

// NewCandleSource builds the candle provider selected by cfg.Candles.Provider.
func NewCandleSource(cfg *store.Config) (interfaces.CandleSource, error) {
	switch cfg.Candles.Provider {
	case "KITE":
		if cfg.Secrets.KiteAPIKey == "" || cfg.Secrets.KiteAccessToken == "" {
			return nil, fmt.Errorf("KITE provider needs KITE_API_KEY and KITE_ACCESS_TOKEN")
		}
		tokens := make(map[string]uint32)
		for _, in := range cfg.Universe {
			if n, err := strconv.ParseUint(in.Instrument, 10, 32); err == nil {
				tokens[in.Ticker] = uint32(n)
			}
		}
		return zerodha.New(zerodha.Params{
			APIKey:      cfg.Secrets.KiteAPIKey,
			AccessToken: cfg.Secrets.KiteAccessToken,
			Instruments: tokens,
		}), nil
	case "ALPACA":
		if cfg.Secrets.AlpacaKey == "" || cfg.Secrets.AlpacaSecret == "" {
			return nil, fmt.Errorf("ALPACA provider needs APCA_API_KEY_ID and APCA_API_SECRET_KEY")
		}
		return alpaca.New(cfg.Secrets.AlpacaKey, cfg.Secrets.AlpacaSecret), nil
	default:
		return NewStatic(time.Now().Add(-30 * 24 * time.Hour).Unix()), nil
	}
}
