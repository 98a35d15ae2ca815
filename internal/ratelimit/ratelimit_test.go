package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestBucketRefills(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(2, time.Second)
	l.now = func() time.Time { return now }
	l.lastRefillTime = now

	if !l.TryAcquire() || !l.TryAcquire() {
		t.Fatal("expected a burst of two")
	}
	if l.TryAcquire() {
		t.Fatal("bucket should be empty")
	}
	now = now.Add(1500 * time.Millisecond)
	if !l.TryAcquire() {
		t.Fatal("expected one token after a refill interval")
	}
	if l.TryAcquire() {
		t.Fatal("only one token should have been added")
	}
}

func TestWaitHonoursContext(t *testing.T) {
	l := New(1, time.Hour)
	l.TryAcquire()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Fatal("expected a context error from an empty bucket")
	}
}

func TestSetUnknownSourceIsFree(t *testing.T) {
	s := NewSet()
	if err := s.Wait(context.Background(), "nobody"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
