package news

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"
)

// feedCache keeps raw feed bodies for a short TTL so that scoring several
// tickers in a row downloads each feed once.
type feedCache struct {
	mu   sync.RWMutex
	data map[string]*feedEntry
	ttl  time.Duration
	now  func() time.Time
}

type feedEntry struct {
	body        []byte
	contentType string
	timestamp   time.Time
}

func newFeedCache(ttl time.Duration) *feedCache {
	return &feedCache{data: make(map[string]*feedEntry), ttl: ttl, now: time.Now}
}

func (c *feedCache) get(url string) (*feedEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[url]
	if !exists || c.now().Sub(entry.timestamp) > c.ttl {
		return nil, false
	}
	return entry, true
}

func (c *feedCache) set(url string, body []byte, contentType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	c.data[url] = &feedEntry{body: body, contentType: contentType, timestamp: c.now()}
}

func (c *feedCache) cleanupLocked() {
	now := c.now()
	for url, entry := range c.data {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.data, url)
		}
	}
}

// cachingTransport serves fresh cached bodies and stores successful
// non-empty responses. Requests are bound to ctx so that colly visits stop
// with the caller.
type cachingTransport struct {
	ctx   context.Context
	cache *feedCache
	next  http.RoundTripper
}

func (t *cachingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := req.URL.String()
	if req.Method == http.MethodGet {
		if e, ok := t.cache.get(key); ok {
			return cachedResponse(req, e), nil
		}
	}

	resp, err := t.next.RoundTrip(req.WithContext(t.ctx))
	if err != nil || req.Method != http.MethodGet || resp.StatusCode != http.StatusOK {
		return resp, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if len(body) > 0 {
		t.cache.set(key, body, resp.Header.Get("Content-Type"))
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

func cachedResponse(req *http.Request, e *feedEntry) *http.Response {
	h := make(http.Header)
	if e.contentType != "" {
		h.Set("Content-Type", e.contentType)
	}
	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(e.body)),
		ContentLength: int64(len(e.body)),
		Request:       req,
	}
}
