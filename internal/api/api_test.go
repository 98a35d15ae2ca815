package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"composite-signal-bot/internal/logger"
	"composite-signal-bot/internal/retry"
)

func fastBackoff() retry.Backoff {
	return retry.Backoff{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond}
}

func TestClientHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(WithHeader("User-Agent", "bot/1"), WithHeader("X-Team", "quant"))
	if _, err := c.GET(context.Background(), srv.URL, map[string]string{"X-Team": "ops"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Get("User-Agent") != "bot/1" {
		t.Errorf("client header missing: %q", got.Get("User-Agent"))
	}
	if got.Get("X-Team") != "ops" {
		t.Errorf("request header should override client header, got %q", got.Get("X-Team"))
	}
}

func TestPostFormAndJSON(t *testing.T) {
	var contentTypes []string
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		contentTypes = append(contentTypes, r.Header.Get("Content-Type"))
		bodies = append(bodies, string(b))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient()
	resp, err := c.PostForm(context.Background(), srv.URL, url.Values{"ticker": {"SBER"}})
	if err != nil || resp.String() != "ok" {
		t.Fatalf("unexpected result %v, %v", resp, err)
	}
	if _, err := c.POST(context.Background(), srv.URL, map[string]int{"qty": 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contentTypes[0] != "application/x-www-form-urlencoded" || bodies[0] != "ticker=SBER" {
		t.Errorf("unexpected form request: %s %s", contentTypes[0], bodies[0])
	}
	if contentTypes[1] != "application/json" || bodies[1] != `{"qty":1}` {
		t.Errorf("unexpected json request: %s %s", contentTypes[1], bodies[1])
	}
}

func TestHTTPErrorTruncatesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.Repeat("x", 500), http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient().GET(context.Background(), srv.URL)
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected HTTPError 400, got %v", err)
	}
	if len(he.Error()) > 220 {
		t.Errorf("error message not truncated: %d chars", len(he.Error()))
	}
}

func TestDoWithRetry(t *testing.T) {
	cases := []struct {
		name     string
		statuses []int
		wantHits int32
		wantErr  bool
	}{
		{"recovers after 503", []int{503, 200}, 2, false},
		{"retries 429", []int{429, 429, 200}, 3, false},
		{"gives up after max attempts", []int{502, 502, 502}, 3, true},
		{"client error is final", []int{403, 200}, 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(hits.Add(1)) - 1
				if n >= len(tc.statuses) {
					n = len(tc.statuses) - 1
				}
				w.WriteHeader(tc.statuses[n])
			}))
			defer srv.Close()

			req := NewRequest(http.MethodGet, srv.URL).WithContext(context.Background())
			_, err := NewClient().DoWithRetry(req, fastBackoff())
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if got := hits.Load(); got != tc.wantHits {
				t.Errorf("expected %d requests, got %d", tc.wantHits, got)
			}
		})
	}
}

func TestLoggingRedactsQuery(t *testing.T) {
	var buf bytes.Buffer
	if err := logger.InitWithConfig(logger.LogConfig{Level: "DEBUG", Format: "json", Detailed: true, Output: &buf}); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	t.Cleanup(func() { _ = logger.InitWithConfig(logger.LogConfig{Output: io.Discard}) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if _, err := NewClient().GET(context.Background(), srv.URL+"/quiet?apiKey=secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("client without logging wrote: %s", buf.String())
	}

	if _, err := NewClient(WithLogging(true)).GET(context.Background(), srv.URL+"/loud?apiKey=secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "HTTP Response") || !strings.Contains(out, "/loud") {
		t.Errorf("expected request logs, got: %s", out)
	}
	if strings.Contains(out, "secret") {
		t.Errorf("query string leaked into logs: %s", out)
	}
}
