// Package tradelog records paper fills and decisions as JSON lines in one
// file per day and derives realized profit and loss from them.
package tradelog

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/types"
)

// IST is the default day boundary of the log files.
var IST = time.FixedZone("IST", 19800)

type FileLedger struct {
	dir string
	loc *time.Location
	mu  sync.Mutex
	now func() time.Time
}

var _ interfaces.Ledger = (*FileLedger)(nil)

// NewFileLedger writes under dir; loc decides the day boundary, IST when nil.
func NewFileLedger(dir string, loc *time.Location) *FileLedger {
	if dir == "" {
		dir = "logs"
	}
	if loc == nil {
		loc = IST
	}
	return &FileLedger{dir: dir, loc: loc, now: time.Now}
}

func (l *FileLedger) Dir() string { return l.dir }

func (l *FileLedger) Location() *time.Location { return l.loc }

func (l *FileLedger) dailyFilepath(t time.Time) string {
	return filepath.Join(l.dir, t.In(l.loc).Format("2006-01-02")+".txt")
}

func (l *FileLedger) decisionsFilepath(t time.Time) string {
	return filepath.Join(l.dir, "decisions", t.In(l.loc).Format("2006-01-02")+".txt")
}

// DecisionEntry is one line of the decision log.
type DecisionEntry struct {
	Time       string             `json:"time"`
	Ticker     string             `json:"ticker"`
	Instrument string             `json:"instrument"`
	Signal     types.Signal       `json:"signal"`
	Technical  int                `json:"technical"`
	Sentiment  int                `json:"sentiment"`
	Total      int                `json:"total"`
	Side       types.Side         `json:"side"`
	Price      float64            `json:"price"`
	Indicators map[string]float64 `json:"indicators,omitempty"`
}

func (l *FileLedger) Record(_ context.Context, trade types.Trade) error {
	now := l.now()
	if trade.Time == "" {
		trade.Time = now.In(l.loc).Format(time.RFC3339)
	}
	return l.appendLine(l.dailyFilepath(now), trade)
}

// RecordDecision appends a composite decision to the decision log.
func (l *FileLedger) RecordDecision(_ context.Context, s types.CompositeScore) error {
	now := l.now()
	return l.appendLine(l.decisionsFilepath(now), DecisionEntry{
		Time:       now.In(l.loc).Format("2006-01-02 15:04:05"),
		Ticker:     s.Ticker,
		Instrument: s.Instrument,
		Signal:     s.Signal,
		Technical:  s.Technical,
		Sentiment:  s.Sentiment,
		Total:      s.Total,
		Side:       s.Side,
		Price:      s.Price,
		Indicators: s.Indicators,
	})
}

func (l *FileLedger) appendLine(p string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// Summary replays every trade file, compressed ones included, oldest first.
func (l *FileLedger) Summary(_ context.Context) (types.PnL, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	files, err := l.tradeFiles()
	if err != nil {
		return types.PnL{}, err
	}
	var trades []types.Trade
	for _, p := range files {
		ts, err := readTrades(p)
		if err != nil {
			return types.PnL{}, err
		}
		trades = append(trades, ts...)
	}
	return Accumulate(trades), nil
}

// TradesOn returns the trades recorded on the day containing t.
func (l *FileLedger) TradesOn(t time.Time) ([]types.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.dailyFilepath(t)
	if _, err := os.Stat(p); err != nil {
		if _, gzErr := os.Stat(p + ".gz"); gzErr != nil {
			return nil, nil
		}
		p += ".gz"
	}
	return readTrades(p)
}

func (l *FileLedger) tradeFiles() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	byDay := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		day, ok := strings.CutSuffix(name, ".txt.gz")
		if !ok {
			if day, ok = strings.CutSuffix(name, ".txt"); !ok {
				continue
			}
		}
		// A plain file wins over its archive if both exist mid-compression.
		if _, seen := byDay[day]; !seen || strings.HasSuffix(name, ".txt") {
			byDay[day] = filepath.Join(l.dir, name)
		}
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = byDay[d]
	}
	return out, nil
}

func readTrades(p string) ([]types.Trade, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(p, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}

	var out []types.Trade
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		var t types.Trade
		if json.Unmarshal(sc.Bytes(), &t) != nil {
			continue
		}
		out = append(out, t)
	}
	return out, sc.Err()
}

// CompressOlder gzips log files not modified for retentionDays and removes
// the originals. Zero or negative retention disables compression.
func (l *FileLedger) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(l.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		if _, err := os.Stat(p + ".gz"); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p); err != nil {
			return fmt.Errorf("compress %s: %w", p, err)
		}
		return os.Remove(p)
	})
}

func gzipFile(p string) error {
	in, err := os.Open(p)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(p+".gz", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		out.Close()
		os.Remove(p + ".gz")
		return err
	}
	if err := gw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
