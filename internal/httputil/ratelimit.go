// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"sync"
	"time"
)

// Limiter is a simple token-window rate limiter keyed by source name:
// at most budget calls per window per key. It is constructed and passed
// in by the caller rather than held as package state so the pipeline
// stays testable.
type Limiter struct {
	mu     sync.Mutex
	window time.Duration
	budget int
	now    func() time.Time
	calls  map[string][]time.Time
}

// NewLimiter creates a limiter allowing budget calls per window per key.
// A zero budget or window disables limiting.
func NewLimiter(window time.Duration, budget int) *Limiter {
	return &Limiter{
		window: window,
		budget: budget,
		now:    time.Now,
		calls:  make(map[string][]time.Time),
	}
}

// Allow reports whether a call for key fits in the current window and,
// if so, records it.
func (l *Limiter) Allow(key string) bool {
	if l.budget <= 0 || l.window <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.calls[key][:0]
	for _, t := range l.calls[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.budget {
		l.calls[key] = kept
		return false
	}
	l.calls[key] = append(kept, now)
	return true
}
