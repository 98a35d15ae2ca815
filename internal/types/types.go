package types

import "time"

type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// Signal is the output of the crossover detector.
type Signal string

const (
	Buy  Signal = "BUY"
	Sell Signal = "SELL"
	Hold Signal = "HOLD"
)

// Score maps a signal onto the technical leg of the composite score.
func (s Signal) Score() int {
	switch s {
	case Buy:
		return 1
	case Sell:
		return -1
	default:
		return 0
	}
}

// Evaluation is a signal together with the last crossover row behind it.
// Reason is set when the detector fell back to HOLD without comparing rows.
type Evaluation struct {
	Signal Signal  `json:"signal"`
	Close  float64 `json:"close"`
	Fast   float64 `json:"sma_fast"`
	Slow   float64 `json:"sma_slow"`
	ATR    float64 `json:"atr"`
	AvgATR float64 `json:"avg_atr"`
	Rows   int     `json:"rows"`
	Reason string  `json:"reason,omitempty"`
	// Context holds point indicators recorded with the decision.
	Context map[string]float64 `json:"context,omitempty"`
}

// Label is a normalized sentiment class.
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// Vote is the contribution of a label to the aggregated sentiment score.
func (l Label) Vote() int {
	switch l {
	case Positive:
		return 1
	case Negative:
		return -1
	default:
		return 0
	}
}

// Side is the trade idea produced by the composite decision.
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
	None  Side = "NONE"
)

// NewsItem is a raw headline or text fetched from a news source.
type NewsItem struct {
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	URL       string    `json:"url,omitempty"`
	Published time.Time `json:"published"`
}

// SentimentItem is a news item after language routing and classification.
type SentimentItem struct {
	Text       string    `json:"text"`
	Lang       string    `json:"lang"`
	Label      Label     `json:"label"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	Ticker     string    `json:"ticker"`
	Published  time.Time `json:"published"`
	Cached     bool      `json:"cached"`
}

// ClassifierResult is what a single classifier says about a text.
type ClassifierResult struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Model      string  `json:"model"`
}

// CacheEntry is a persisted classification keyed by the hash of the normalized text.
type CacheEntry struct {
	Hash       string    `json:"hash"`
	Label      Label     `json:"label"`
	Confidence float64   `json:"confidence"`
	Ticker     string    `json:"ticker"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
}

// Fresh reports whether the entry is still inside the freshness window at now.
func (e CacheEntry) Fresh(now time.Time, window time.Duration) bool {
	return !e.Timestamp.IsZero() && now.Sub(e.Timestamp) <= window
}

// CacheStats summarizes the contents of a sentiment store.
type CacheStats struct {
	Total    int            `json:"total_entries"`
	Recent   int            `json:"recent"`
	BySource map[string]int `json:"by_source"`
}

// CompositeScore is the merged technical and sentiment view for one instrument.
type CompositeScore struct {
	Instrument string    `json:"instrument"`
	Ticker     string    `json:"ticker"`
	Signal     Signal    `json:"signal"`
	Technical  int       `json:"technical"`
	Sentiment  int       `json:"sentiment"`
	Total      int       `json:"total"`
	Side       Side      `json:"side"`
	Price      float64   `json:"price,omitempty"`
	Time       time.Time `json:"time"`
	// Indicators is the detector's point-indicator context for the log.
	Indicators map[string]float64 `json:"indicators,omitempty"`
}

// Trade is a ledger row for an executed or simulated fill.
type Trade struct {
	ID         string  `json:"id"`
	Time       string  `json:"time"`
	Ticker     string  `json:"ticker"`
	Instrument string  `json:"instrument"`
	Side       string  `json:"side"`
	Qty        int     `json:"qty"`
	Price      float64 `json:"price"`
	Fees       float64 `json:"fees"`
	Score      int     `json:"score"`
	Reason     string  `json:"reason,omitempty"`
}

// PnL is the realized profit and loss per ticker plus the total.
type PnL struct {
	ByTicker map[string]TickerPnL `json:"by_ticker"`
	Total    float64              `json:"total"`
}

type TickerPnL struct {
	BuyQty      int     `json:"buy_qty"`
	BuyAvg      float64 `json:"buy_avg"`
	SellQty     int     `json:"sell_qty"`
	SellAvg     float64 `json:"sell_avg"`
	Fees        float64 `json:"fees"`
	RealizedPnL float64 `json:"realized_pnl"`
}
