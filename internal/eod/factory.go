package eod

import (
	"path/filepath"
	"time"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/tradelog"
)

// NewSummarizer writes CSVs to <ledger dir>/eod, due after 15:40 in the
// ledger's time zone (the NSE close plus ten minutes).
func NewSummarizer(l *tradelog.FileLedger) interfaces.EodSummarizer {
	return &eodSummarizer{
		trades:      l,
		outDir:      filepath.Join(l.Dir(), "eod"),
		loc:         l.Location(),
		closeHour:   15,
		closeMinute: 40,
		now:         time.Now,
	}
}
