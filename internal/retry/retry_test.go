package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTooLarge = errors.New("too large")

func TestShrinkCounts(t *testing.T) {
	p := ShrinkPolicy{Factor: 0.5, MaxAttempts: 4, Floor: 50}
	got := p.Counts(200)
	want := []int{200, 100, 50}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestShrinkStopsOnOtherError(t *testing.T) {
	p := ShrinkPolicy{Factor: 0.5, MaxAttempts: 4, Floor: 10}
	other := errors.New("boom")
	calls := 0
	err := p.Do(context.Background(), 100, errTooLarge, func(int) error {
		calls++
		return other
	})
	if !errors.Is(err, other) || calls != 1 {
		t.Fatalf("expected one call returning boom, got %d calls err=%v", calls, err)
	}
}

func TestShrinkRetriesUntilAccepted(t *testing.T) {
	p := ShrinkPolicy{Factor: 0.5, MaxAttempts: 4, Floor: 10}
	var seen []int
	err := p.Do(context.Background(), 80, errTooLarge, func(n int) error {
		seen = append(seen, n)
		if n > 20 {
			return errTooLarge
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 3 || seen[2] != 20 {
		t.Fatalf("expected counts 80,40,20 got %v", seen)
	}
}

func TestBackoffGivesUp(t *testing.T) {
	b := Backoff{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond}
	calls, retries := 0, 0
	err := b.Do(context.Background(), func(int) error {
		calls++
		return errTooLarge
	}, func(int, error, time.Duration) { retries++ })
	if !errors.Is(err, errTooLarge) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 || retries != 2 {
		t.Fatalf("expected 3 calls and 2 retries, got %d and %d", calls, retries)
	}
}

func TestBackoffHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := Backoff{MaxAttempts: 5, InitialWait: time.Hour}
	err := b.Do(ctx, func(int) error { return errTooLarge }, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
