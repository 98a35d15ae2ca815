package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.CacheLookup(true)
	r.CacheLookup(false)
	r.CacheLookup(false)
	r.Decision("LONG")
	r.SentimentScore("SBER", -2)

	if got := testutil.ToFloat64(r.cacheLookups.WithLabelValues("miss")); got != 2 {
		t.Errorf("expected 2 misses, got %v", got)
	}
	if got := testutil.ToFloat64(r.cacheLookups.WithLabelValues("hit")); got != 1 {
		t.Errorf("expected 1 hit, got %v", got)
	}
	if got := testutil.ToFloat64(r.decisions.WithLabelValues("LONG")); got != 1 {
		t.Errorf("expected 1 LONG decision, got %v", got)
	}
	if got := testutil.ToFloat64(r.sentimentScore.WithLabelValues("SBER")); got != -2 {
		t.Errorf("expected gauge -2, got %v", got)
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.CacheLookup(true)
	r.Signal("BUY")
	r.SourceFetch("rss", "ok")
}
