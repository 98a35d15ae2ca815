package zerodha

import (
	"strconv"
	"sync"
)

// instrumentMapper keeps the symbol to instrument-token mapping in both directions.
type instrumentMapper struct {
	symbolToToken map[string]uint32
	tokenToSymbol map[uint32]string
	mu            sync.RWMutex
}

func newInstrumentMapper() *instrumentMapper {
	return &instrumentMapper{
		symbolToToken: make(map[string]uint32),
		tokenToSymbol: make(map[uint32]string),
	}
}

func (im *instrumentMapper) addMapping(symbol string, token uint32) {
	im.mu.Lock()
	defer im.mu.Unlock()

	im.symbolToToken[symbol] = token
	im.tokenToSymbol[token] = symbol
}

// resolve accepts either a mapped symbol or a numeric token.
func (im *instrumentMapper) resolve(instrument string) (uint32, bool) {
	im.mu.RLock()
	token, ok := im.symbolToToken[instrument]
	im.mu.RUnlock()
	if ok {
		return token, true
	}

	n, err := strconv.ParseUint(instrument, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
