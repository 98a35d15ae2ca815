package llmobs

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"composite-signal-bot/internal/metrics"
	"composite-signal-bot/internal/types"
)

type stubClassifier struct {
	res types.ClassifierResult
	err error
}

func (s stubClassifier) Name() string { return "stub" }

func (s stubClassifier) Classify(context.Context, string) (types.ClassifierResult, error) {
	return s.res, s.err
}

func TestWrapCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	ok := Wrap(stubClassifier{res: types.ClassifierResult{Label: types.Positive, Confidence: 0.9}}, m)
	res, err := ok.Classify(context.Background(), "text")
	if err != nil || res.Label != types.Positive {
		t.Fatalf("unexpected result %+v, %v", res, err)
	}
	if ok.Name() != "stub" {
		t.Errorf("name not forwarded: %s", ok.Name())
	}

	failing := Wrap(stubClassifier{err: errors.New("boom")}, m)
	if _, err := failing.Classify(context.Background(), "text"); err == nil {
		t.Fatal("expected error to propagate")
	}

	if n, err := testutil.GatherAndCount(reg, "composite_classifications_total"); err != nil || n != 2 {
		t.Errorf("expected 2 outcome series, got %d (%v)", n, err)
	}
}
