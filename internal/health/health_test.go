package health

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRecordWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "health.log")
	r, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.RSSBatch("SBER", 12, 1)
	r.LLMTokens("gpt-4o-mini", 30, 1)
	r.Close()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var events []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line is not JSON: %q", sc.Text())
		}
		events = append(events, m)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0]["event"] != "rss_batch" || events[0]["fails"] != float64(1) {
		t.Errorf("unexpected first event: %v", events[0])
	}
	if _, ok := events[0]["ts"]; !ok {
		t.Error("expected a ts field")
	}
}

func TestSourceErrorBurst(t *testing.T) {
	r := NewWithLogger(zap.NewNop())
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	if r.SourceError(ctx, "rss") || r.SourceError(ctx, "rss") {
		t.Fatal("no alert expected before the third error")
	}
	if !r.SourceError(ctx, "rss") {
		t.Fatal("expected alert on the third error inside the window")
	}
	if r.SourceError(ctx, "rss") {
		t.Fatal("alert should fire once per series")
	}

	now = now.Add(6 * time.Minute)
	if r.SourceError(ctx, "rss") {
		t.Fatal("a new series should start after the window")
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.RSSBatch("X", 1, 0)
	if r.SourceError(context.Background(), "x") {
		t.Error("nil recorder should never alert")
	}
}
