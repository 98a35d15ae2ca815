package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/types"
)

var t0 = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func entry(text, ticker, source string, label types.Label, ts time.Time) types.CacheEntry {
	return types.CacheEntry{Hash: Hash(text), Label: label, Confidence: 0.8, Ticker: ticker, Source: source, Timestamp: ts}
}

func TestHashNormalizes(t *testing.T) {
	if Hash("Sber  beats\tForecast ") != Hash("sber beats forecast") {
		t.Error("hash should ignore case and whitespace runs")
	}
	if Hash("sber beats") == Hash("sber misses") {
		t.Error("different texts should hash differently")
	}
}

// exerciseStore runs the contract every backend must satisfy.
func exerciseStore(t *testing.T, s interfaces.SentimentStore) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, Hash("missing")); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	e := entry("Sber beats forecast", "SBER", "rss", types.Positive, t0)
	if err := s.Put(ctx, e); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := s.Get(ctx, e.Hash)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Label != types.Positive || got.Confidence != 0.8 || !got.Timestamp.Equal(t0) {
		t.Fatalf("round trip changed the entry: %+v", got)
	}
	if !got.Fresh(t0.Add(time.Hour), 24*time.Hour) {
		t.Error("entry read one hour later should be fresh inside a 24h window")
	}

	_ = s.Put(ctx, entry("Sber misses", "SBER", "newsapi", types.Negative, t0.Add(-48*time.Hour)))
	_ = s.Put(ctx, entry("Gazprom flat", "GAZP", "rss", types.Neutral, t0.Add(time.Minute)))

	recent, err := s.Recent(ctx, "SBER", t0.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Hash != e.Hash {
		t.Fatalf("expected only the fresh SBER entry, got %+v", recent)
	}

	st, err := s.Stats(ctx, t0.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 3 || st.Recent != 2 || st.BySource["rss"] != 2 || st.BySource["newsapi"] != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if err := s.Link(ctx, "GAZP", e); err != nil {
		t.Fatalf("link: %v", err)
	}
	gazp, err := s.Recent(ctx, "GAZP", t0.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("recent after link: %v", err)
	}
	if len(gazp) != 2 {
		t.Fatalf("linked entry should be listed for GAZP, got %+v", gazp)
	}
	if again, _ := s.Recent(ctx, "SBER", t0.Add(-24*time.Hour)); len(again) != 1 {
		t.Fatalf("link must not touch the SBER index, got %+v", again)
	}
	if st, _ := s.Stats(ctx, t0.Add(-24*time.Hour)); st.Total != 3 {
		t.Fatalf("link must not add entries, got %+v", st)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(0))
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(2)
	_ = m.Put(ctx, entry("a", "X", "rss", types.Neutral, t0))
	_ = m.Put(ctx, entry("b", "X", "rss", types.Neutral, t0.Add(time.Minute)))
	_ = m.Put(ctx, entry("c", "X", "rss", types.Neutral, t0.Add(2*time.Minute)))
	if _, ok, _ := m.Get(ctx, Hash("a")); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok, _ := m.Get(ctx, Hash("c")); !ok {
		t.Error("newest entry should be present")
	}
}

func TestFileStore(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, fs)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	e := entry("Yandex raises guidance", "YNDX", "rss", types.Positive, t0)
	if err := fs.Put(ctx, e); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := reopened.Get(ctx, e.Hash)
	if err != nil || !ok || got.Label != types.Positive {
		t.Fatalf("expected entry after reopen, got %+v ok=%v err=%v", got, ok, err)
	}
}

func TestFileStorePrune(t *testing.T) {
	ctx := context.Background()
	fs, _ := NewFileStore(t.TempDir())
	_ = fs.Put(ctx, entry("old", "X", "rss", types.Neutral, t0.Add(-10*24*time.Hour)))
	_ = fs.Put(ctx, entry("new", "X", "rss", types.Neutral, t0))

	n, err := fs.Prune(ctx, t0.Add(-7*24*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("expected one pruned entry, got %d err=%v", n, err)
	}
	recent, _ := fs.Recent(ctx, "X", time.Time{})
	if len(recent) != 1 || recent[0].Hash != Hash("new") {
		t.Fatalf("index should only keep the new entry, got %+v", recent)
	}
}

func TestLayeredPrunesFileBack(t *testing.T) {
	ctx := context.Background()
	fs, _ := NewFileStore(t.TempDir())
	l := NewLayered(fs, 10)
	_ = l.Put(ctx, entry("stale headline", "X", "rss", types.Neutral, t0.Add(-10*24*time.Hour)))

	n, err := l.Prune(ctx, t0.Add(-7*24*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("expected one pruned entry, got %d err=%v", n, err)
	}
	if n, _ := NewLayered(NewMemoryStore(0), 10).Prune(ctx, t0); n != 0 {
		t.Fatalf("memory back should not prune, got %d", n)
	}
}

func TestFileStoreSkipsIndexWithoutTicker(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewFileStore(dir)
	ctx := context.Background()

	e := entry("ad hoc headline", "", "cli", types.Neutral, t0)
	if err := fs.Put(ctx, e); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := fs.Link(ctx, "", e); err != nil {
		t.Fatalf("link: %v", err)
	}
	if _, ok, _ := fs.Get(ctx, e.Hash); !ok {
		t.Fatal("entry should still be cached")
	}
	idx, err := os.ReadDir(filepath.Join(dir, "index"))
	if err != nil {
		t.Fatal(err)
	}
	if len(idx) != 0 {
		t.Fatalf("expected no index files, got %d", len(idx))
	}
}

func TestFileStoreIgnoresCorruptEntry(t *testing.T) {
	fs, _ := NewFileStore(t.TempDir())
	h := Hash("broken")
	if err := os.WriteFile(fs.entryPath(h), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := fs.Get(context.Background(), h); ok || err != nil {
		t.Fatalf("corrupt entry should read as a miss, got ok=%v err=%v", ok, err)
	}
}

func TestLayeredBackfillsFront(t *testing.T) {
	ctx := context.Background()
	back := NewMemoryStore(0)
	l := NewLayered(back, 10)
	exerciseStore(t, NewLayered(NewMemoryStore(0), 10))

	e := entry("direct to back", "X", "rss", types.Negative, t0)
	_ = back.Put(ctx, e)
	if _, ok, _ := l.front.Get(ctx, e.Hash); ok {
		t.Fatal("front should start empty")
	}
	if _, ok, _ := l.Get(ctx, e.Hash); !ok {
		t.Fatal("layered read should find the back entry")
	}
	if _, ok, _ := l.front.Get(ctx, e.Hash); !ok {
		t.Fatal("read should backfill the front")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rs, err := NewRedisStore(RedisConfig{Addr: addr, Prefix: "test-" + t.Name() + "-" + time.Now().Format("150405.000"), Retention: 365 * 24 * time.Hour * 10})
	if err != nil {
		t.Fatal(err)
	}
	defer rs.Close()
	exerciseStore(t, rs)
}
