// Package retry holds the two retry shapes used by data collaborators:
// exponential backoff for transient failures and a shrinking request
// window for providers that reject large history requests.
package retry

import (
	"context"
	"errors"
	"time"
)

// Backoff retries an operation with exponentially growing waits.
type Backoff struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

func DefaultBackoff() Backoff {
	return Backoff{MaxAttempts: 3, InitialWait: time.Second, MaxWait: 5 * time.Second}
}

// Do runs fn until it succeeds, attempts run out or ctx is done. onRetry,
// when set, is told about every failed attempt that will be retried.
func (b Backoff) Do(ctx context.Context, fn func(attempt int) error, onRetry func(attempt int, err error, wait time.Duration)) error {
	attempts := b.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	wait := b.InitialWait

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if onRetry != nil {
			onRetry(attempt, err, wait)
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
		if b.MaxWait > 0 && wait > b.MaxWait {
			wait = b.MaxWait
		}
	}
	return err
}

// ShrinkPolicy reduces a requested count each time the provider rejects
// the window, never going below Floor.
type ShrinkPolicy struct {
	Factor      float64
	MaxAttempts int
	Floor       int
}

// Counts lists the counts to try, starting with initial.
func (p ShrinkPolicy) Counts(initial int) []int {
	if initial < p.Floor {
		initial = p.Floor
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	out := []int{initial}
	n := initial
	for len(out) < attempts {
		next := int(float64(n) * p.Factor)
		if next < p.Floor {
			next = p.Floor
		}
		if next >= n {
			break
		}
		out = append(out, next)
		n = next
	}
	return out
}

// Do calls fn with each count from Counts while fn fails with an error
// matching retryable. Any other error, or success, ends the loop.
func (p ShrinkPolicy) Do(ctx context.Context, initial int, retryable error, fn func(count int) error) error {
	var err error
	for _, n := range p.Counts(initial) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn(n)
		if err == nil || !errors.Is(err, retryable) {
			return err
		}
	}
	return err
}
