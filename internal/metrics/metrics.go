package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "composite"

// Recorder holds the prometheus collectors of the bot. A nil *Recorder is
// valid and records nothing, so components can take one optionally.
type Recorder struct {
	cacheLookups    *prometheus.CounterVec
	classifications *prometheus.CounterVec
	sourceFetches   *prometheus.CounterVec
	signals         *prometheus.CounterVec
	decisions       *prometheus.CounterVec
	sentimentScore  *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in
// tests so runs do not collide on the default registry.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sentiment_cache_lookups_total",
				Help:      "Sentiment cache lookups by result",
			},
			[]string{"result"},
		),
		classifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "classifications_total",
				Help:      "Classifier calls by classifier and outcome",
			},
			[]string{"classifier", "outcome"},
		),
		sourceFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_fetches_total",
				Help:      "Text and candle source fetches by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signals_total",
				Help:      "Crossover signals by value",
			},
			[]string{"signal"},
		),
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Composite decisions by side",
			},
			[]string{"side"},
		),
		sentimentScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sentiment_score",
				Help:      "Last clipped sentiment score per ticker",
			},
			[]string{"ticker"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of fetch and decide operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Recorder) Classification(classifier, outcome string) {
	if r == nil {
		return
	}
	r.classifications.WithLabelValues(classifier, outcome).Inc()
}

func (r *Recorder) SourceFetch(source, outcome string) {
	if r == nil {
		return
	}
	r.sourceFetches.WithLabelValues(source, outcome).Inc()
}

func (r *Recorder) Signal(signal string) {
	if r == nil {
		return
	}
	r.signals.WithLabelValues(signal).Inc()
}

func (r *Recorder) Decision(side string) {
	if r == nil {
		return
	}
	r.decisions.WithLabelValues(side).Inc()
}

func (r *Recorder) SentimentScore(ticker string, score int) {
	if r == nil {
		return
	}
	r.sentimentScore.WithLabelValues(ticker).Set(float64(score))
}

// Since observes the time elapsed from start under op.
func (r *Recorder) Since(op string, start time.Time) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Serve exposes g on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
