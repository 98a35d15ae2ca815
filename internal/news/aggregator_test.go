package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/types"
)

type stubSource struct {
	name  string
	items []types.NewsItem
	err   error
	block bool
}

func (s stubSource) Name() string { return s.name }

func (s stubSource) Fetch(ctx context.Context, _ string, _ time.Time) ([]types.NewsItem, error) {
	if s.block {
		<-make(chan struct{})
	}
	return s.items, s.err
}

func TestAggregatorMergesAndDedupes(t *testing.T) {
	now := time.Now()
	a := NewAggregator(AggregatorConfig{Workers: 2, SourceTimeout: time.Second}, []interfaces.TextSource{
		stubSource{name: "a", items: []types.NewsItem{
			{Text: "Sber profit up", Published: now.Add(-3 * time.Hour)},
			{Text: "Sber opens branch", Published: now.Add(-time.Hour)},
		}},
		stubSource{name: "b", items: []types.NewsItem{{Text: "SBER  profit UP", Published: now.Add(-2 * time.Hour)}}},
		stubSource{name: "c", err: errors.New("boom")},
	}, nil, nil)

	items := a.Fetch(context.Background(), "SBER", 24)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}
	if items[0].Text != "Sber opens branch" {
		t.Errorf("expected newest first, got %q", items[0].Text)
	}
}

func TestAggregatorAbandonsSlowSource(t *testing.T) {
	a := NewAggregator(AggregatorConfig{Workers: 2, SourceTimeout: 50 * time.Millisecond}, []interfaces.TextSource{
		stubSource{name: "slow", block: true},
		stubSource{name: "fast", items: []types.NewsItem{{Text: "headline", Published: time.Now()}}},
	}, nil, nil)

	start := time.Now()
	items := a.Fetch(context.Background(), "X", 1)
	if time.Since(start) > 2*time.Second {
		t.Fatal("slow source was not abandoned")
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
}

func TestAggregatorNoSources(t *testing.T) {
	a := NewAggregator(AggregatorConfig{}, nil, nil, nil)
	if items := a.Fetch(context.Background(), "X", 24); len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}
