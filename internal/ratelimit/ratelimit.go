// Package ratelimit is a token bucket shared by the HTTP-backed news
// sources and classifiers.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Limiter struct {
	tokens         int
	maxTokens      int
	refillRate     time.Duration
	lastRefillTime time.Time
	mu             sync.Mutex
	now            func() time.Time
}

// New allows bursts of maxTokens and adds one token every refillRate.
func New(maxTokens int, refillRate time.Duration) *Limiter {
	if maxTokens < 1 {
		maxTokens = 1
	}
	return &Limiter{
		tokens:         maxTokens,
		maxTokens:      maxTokens,
		refillRate:     refillRate,
		lastRefillTime: time.Now(),
		now:            time.Now,
	}
}

// Wait blocks until a token is available or ctx is done. A nil limiter
// never blocks.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	for {
		if l.TryAcquire() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.refillRate > 0 {
		if add := int(now.Sub(l.lastRefillTime) / l.refillRate); add > 0 {
			l.tokens += add
			if l.tokens > l.maxTokens {
				l.tokens = l.maxTokens
			}
			l.lastRefillTime = l.lastRefillTime.Add(time.Duration(add) * l.refillRate)
		}
	}

	if l.tokens > 0 {
		l.tokens--
		return true
	}
	return false
}

// Set keeps one limiter per source name.
type Set struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
}

func NewSet() *Set {
	return &Set{limiters: make(map[string]*Limiter)}
}

func (s *Set) Add(source string, maxTokens int, refillRate time.Duration) *Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := New(maxTokens, refillRate)
	s.limiters[source] = l
	return l
}

// Wait waits on the source's limiter; unknown sources are not limited.
func (s *Set) Wait(ctx context.Context, source string) error {
	s.mu.RLock()
	l := s.limiters[source]
	s.mu.RUnlock()
	return l.Wait(ctx)
}
