package cache

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"composite-signal-bot/internal/interfaces"
	"composite-signal-bot/internal/types"
)

// FileStore writes one JSON file per hash under dir/entries and appends
// every write to a per-ticker JSON-lines index under dir/index. It is the
// default durable backend and survives restarts.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

var _ interfaces.SentimentStore = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "cache/sentiment"
	}
	for _, sub := range []string{"entries", "index"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) entryPath(hash string) string {
	return filepath.Join(f.dir, "entries", hash+".json")
}

func (f *FileStore) indexPath(ticker string) string {
	return filepath.Join(f.dir, "index", safeName(ticker)+".jsonl")
}

func safeName(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}

func (f *FileStore) Get(_ context.Context, hash string) (types.CacheEntry, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.entryPath(hash))
	if errors.Is(err, os.ErrNotExist) {
		return types.CacheEntry{}, false, nil
	}
	if err != nil {
		return types.CacheEntry{}, false, err
	}

	var e types.CacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		// A torn or foreign file is treated as a miss and rewritten later.
		return types.CacheEntry{}, false, nil
	}
	return e, true, nil
}

func (f *FileStore) Put(_ context.Context, entry types.CacheEntry) error {
	if entry.Hash == "" {
		return errors.New("cache entry without hash")
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp := f.entryPath(entry.Hash) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, f.entryPath(entry.Hash)); err != nil {
		return err
	}
	return f.appendIndex(entry.Ticker, data)
}

// Link appends entry to ticker's index only; the entry file is untouched.
func (f *FileStore) Link(_ context.Context, ticker string, entry types.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appendIndex(ticker, data)
}

// appendIndex skips entries without a ticker, such as ad hoc classifications.
func (f *FileStore) appendIndex(ticker string, data []byte) error {
	if ticker == "" {
		return nil
	}
	idx, err := os.OpenFile(f.indexPath(ticker), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer idx.Close()
	_, err = idx.Write(append(data, '\n'))
	return err
}

// Recent reads the ticker index; later lines for a hash replace earlier ones.
func (f *FileStore) Recent(_ context.Context, ticker string, since time.Time) ([]types.CacheEntry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	fh, err := os.Open(f.indexPath(ticker))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	latest := make(map[string]types.CacheEntry)
	sc := bufio.NewScanner(fh)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var e types.CacheEntry
		if json.Unmarshal(sc.Bytes(), &e) != nil {
			continue
		}
		latest[e.Hash] = e
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	var out []types.CacheEntry
	for _, e := range latest {
		if !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	newestFirst(out)
	return out, nil
}

func (f *FileStore) Stats(_ context.Context, since time.Time) (types.CacheStats, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	files, err := os.ReadDir(filepath.Join(f.dir, "entries"))
	if err != nil {
		return types.CacheStats{}, err
	}

	all := make([]types.CacheEntry, 0, len(files))
	for _, fi := range files {
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.dir, "entries", fi.Name()))
		if err != nil {
			continue
		}
		var e types.CacheEntry
		if json.Unmarshal(data, &e) == nil {
			all = append(all, e)
		}
	}
	return collectStats(all, since), nil
}

// Prune removes entry files older than cutoff and rewrites the indexes
// without them.
func (f *FileStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entriesDir := filepath.Join(f.dir, "entries")
	files, err := os.ReadDir(entriesDir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, fi := range files {
		path := filepath.Join(entriesDir, fi.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var e types.CacheEntry
		if json.Unmarshal(data, &e) != nil || e.Timestamp.Before(cutoff) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}

	indexDir := filepath.Join(f.dir, "index")
	indexes, err := os.ReadDir(indexDir)
	if err != nil {
		return removed, err
	}
	for _, fi := range indexes {
		if err := rewriteIndex(filepath.Join(indexDir, fi.Name()), cutoff); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

func rewriteIndex(path string, cutoff time.Time) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var kept []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var e types.CacheEntry
		if json.Unmarshal([]byte(line), &e) == nil && !e.Timestamp.Before(cutoff) {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		return os.Remove(path)
	}
	return os.WriteFile(path, []byte(strings.Join(kept, "\n")+"\n"), 0o644)
}

func (f *FileStore) Close() error { return nil }
