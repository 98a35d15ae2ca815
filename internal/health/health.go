// Package health appends operational events (feed batches, model token
// usage, decisions) as JSON lines to a log file separate from the
// application log, and tracks bursts of source errors.
package health

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"composite-signal-bot/internal/logger"
)

// Recorder writes health events. A nil *Recorder discards everything.
type Recorder struct {
	log *zap.Logger

	mu          sync.Mutex
	seriesStart time.Time
	errorCount  int
	window      time.Duration
	burst       int
	now         func() time.Time
}

// Path returns METRICS_LOGFILE or health.log.
func Path() string {
	if p := os.Getenv("METRICS_LOGFILE"); p != "" {
		return p
	}
	return "health.log"
}

// New opens path for appending.
func New(path string) (*Recorder, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.MessageKey = "event"
	cfg.EncoderConfig.LevelKey = ""
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return newRecorder(l), nil
}

// NewWithLogger is for tests that want an observed core.
func NewWithLogger(l *zap.Logger) *Recorder {
	return newRecorder(l)
}

func newRecorder(l *zap.Logger) *Recorder {
	return &Recorder{log: l, window: 5 * time.Minute, burst: 3, now: time.Now}
}

// Record writes one event line.
func (r *Recorder) Record(event string, fields ...zap.Field) {
	if r == nil {
		return
	}
	r.log.Info(event, fields...)
}

// RSSBatch records one aggregator pass.
func (r *Recorder) RSSBatch(ticker string, total, fails int) {
	r.Record("rss_batch", zap.String("ticker", ticker), zap.Int("total", total), zap.Int("fails", fails))
}

// LLMTokens records token usage reported by a model provider.
func (r *Recorder) LLMTokens(model string, prompt, completion int) {
	r.Record("llm_tokens", zap.String("model", model), zap.Int("prompt", prompt), zap.Int("completion", completion))
}

func (r *Recorder) Decision(ticker, side string, technical, sentiment, total int) {
	r.Record("decision",
		zap.String("ticker", ticker),
		zap.String("side", side),
		zap.Int("technical", technical),
		zap.Int("sentiment", sentiment),
		zap.Int("total", total))
}

// SourceError counts an error in the current series. The series restarts
// when older than the window; hitting the burst size logs a warning once
// per series and returns true.
func (r *Recorder) SourceError(ctx context.Context, tag string) bool {
	if r == nil {
		return false
	}
	r.mu.Lock()
	now := r.now()
	if now.Sub(r.seriesStart) > r.window {
		r.seriesStart = now
		r.errorCount = 1
	} else {
		r.errorCount++
	}
	alert := r.errorCount == r.burst
	r.mu.Unlock()

	if alert {
		r.Record("source_error_burst", zap.String("tag", tag), zap.Int("count", r.burst))
		logger.Warn(ctx, "Repeated news source errors", "tag", tag, "count", r.burst)
	}
	return alert
}

func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	_ = r.log.Sync()
	return nil
}
