package tradelog

import (
	"github.com/shopspring/decimal"

	"composite-signal-bot/internal/types"
)

type book struct {
	pos       int // signed: long > 0, short < 0
	avg       decimal.Decimal
	buyQty    int
	buyValue  decimal.Decimal
	sellQty   int
	sellValue decimal.Decimal
	fees      decimal.Decimal
	realized  decimal.Decimal
}

// Accumulate computes realized P/L per ticker with average-cost matching.
// Trades must be in execution order. A SELL against no position opens a
// short; fills crossing zero close the old side and open the new one at the
// fill price.
func Accumulate(trades []types.Trade) types.PnL {
	books := map[string]*book{}
	for _, t := range trades {
		if t.Qty <= 0 || (t.Side != "BUY" && t.Side != "SELL") {
			continue
		}
		b := books[t.Ticker]
		if b == nil {
			b = &book{}
			books[t.Ticker] = b
		}
		b.apply(t)
	}

	out := types.PnL{ByTicker: make(map[string]types.TickerPnL, len(books))}
	total := decimal.Zero
	for ticker, b := range books {
		net := b.realized.Sub(b.fees)
		total = total.Add(net)
		out.ByTicker[ticker] = types.TickerPnL{
			BuyQty:      b.buyQty,
			BuyAvg:      avgOf(b.buyValue, b.buyQty),
			SellQty:     b.sellQty,
			SellAvg:     avgOf(b.sellValue, b.sellQty),
			Fees:        b.fees.InexactFloat64(),
			RealizedPnL: net.Round(2).InexactFloat64(),
		}
	}
	out.Total = total.Round(2).InexactFloat64()
	return out
}

func (b *book) apply(t types.Trade) {
	price := decimal.NewFromFloat(t.Price)
	value := price.Mul(decimal.NewFromInt(int64(t.Qty)))
	b.fees = b.fees.Add(decimal.NewFromFloat(t.Fees))

	signed := t.Qty
	if t.Side == "BUY" {
		b.buyQty += t.Qty
		b.buyValue = b.buyValue.Add(value)
	} else {
		signed = -t.Qty
		b.sellQty += t.Qty
		b.sellValue = b.sellValue.Add(value)
	}

	if b.pos == 0 || (b.pos > 0) == (signed > 0) {
		held := decimal.NewFromInt(int64(abs(b.pos)))
		added := decimal.NewFromInt(int64(abs(signed)))
		b.avg = b.avg.Mul(held).Add(price.Mul(added)).Div(held.Add(added))
		b.pos += signed
		return
	}

	closing := min(abs(signed), abs(b.pos))
	perUnit := price.Sub(b.avg)
	if b.pos < 0 {
		perUnit = perUnit.Neg()
	}
	b.realized = b.realized.Add(perUnit.Mul(decimal.NewFromInt(int64(closing))))

	wasLong := b.pos > 0
	b.pos += signed
	switch {
	case b.pos == 0:
		b.avg = decimal.Zero
	case (b.pos > 0) != wasLong:
		b.avg = price
	}
}

func avgOf(value decimal.Decimal, qty int) float64 {
	if qty == 0 {
		return 0
	}
	return value.Div(decimal.NewFromInt(int64(qty))).Round(4).InexactFloat64()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
