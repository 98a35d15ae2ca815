package zerodha

import (
	"sync"
	"time"

	"composite-signal-bot/internal/types"
)

// candleCache remembers the last history fetched per instrument and
// interval so repeated decisions within a poll cycle do not refetch.
type candleCache struct {
	ttl     time.Duration
	buffers map[string]candleBuffer
	mu      sync.RWMutex
}

type candleBuffer struct {
	candles   []types.Candle
	fetchedAt time.Time
}

func newCandleCache(ttl time.Duration) *candleCache {
	return &candleCache{
		ttl:     ttl,
		buffers: make(map[string]candleBuffer),
	}
}

func cacheKey(instrument, interval string) string {
	return instrument + "|" + interval
}

func (cc *candleCache) put(instrument, interval string, candles []types.Candle, now time.Time) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.buffers[cacheKey(instrument, interval)] = candleBuffer{candles: candles, fetchedAt: now}
}

// get returns the last n candles when the buffer is fresh and long enough.
func (cc *candleCache) get(instrument, interval string, n int, now time.Time) ([]types.Candle, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	buf, ok := cc.buffers[cacheKey(instrument, interval)]
	if !ok || now.Sub(buf.fetchedAt) > cc.ttl || len(buf.candles) < n {
		return nil, false
	}
	out := make([]types.Candle, n)
	copy(out, buf.candles[len(buf.candles)-n:])
	return out, true
}
