// Package ratelimit enforces per-source hourly request quotas.
package ratelimit

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	windowLength = time.Hour
	// maxWait is the ceiling beyond which Wait fails fast instead of sleeping.
	maxWait         = 5 * time.Minute
	cleanupInterval = time.Hour
)

// ErrWaitTooLong is returned by Wait when the remaining window exceeds maxWait.
type ErrWaitTooLong struct {
	Source string
	Wait   time.Duration
}

func (e ErrWaitTooLong) Error() string {
	return fmt.Sprintf("rate limit for %s: wait of %s exceeds %s ceiling", e.Source, e.Wait.Round(time.Second), maxWait)
}

// Window tracks request counting state for one source.
type Window struct {
	RequestCount int
	ResetAt      time.Time
	LastRequest  time.Time
}

// Outcome is the computed admission decision for one check.
type Outcome struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Wait      time.Duration // zero when allowed
}

// Limiter tracks rolling one-hour windows per source. It never blocks or
// counts by itself: callers check, then record after a request executes.
// Construct with New so tests get isolated instances.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*Window
	now     func() time.Time
	jitter  func() time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// New builds a limiter and starts its background window cleanup.
func New() *Limiter {
	l := &Limiter{
		windows: make(map[string]*Window),
		now:     time.Now,
		jitter: func() time.Duration {
			return time.Duration(rand.Int63n(int64(time.Second)))
		},
		stop: make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Check reports whether a request to source is currently admissible under
// quota. A missing or expired window is replaced with a fresh one first.
// The count is never incremented here.
func (l *Limiter) Check(source string, quota int) Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[source]
	if !ok || now.After(w.ResetAt) {
		w = &Window{ResetAt: now.Add(windowLength)}
		l.windows[source] = w
	}

	remaining := quota - w.RequestCount
	if remaining < 0 {
		remaining = 0
	}
	out := Outcome{
		Allowed:   w.RequestCount < quota,
		Remaining: remaining,
		ResetAt:   w.ResetAt,
	}
	if !out.Allowed {
		out.Wait = w.ResetAt.Sub(now)
	}
	return out
}

// Record counts one executed request against source. Calling it without a
// prior Check is a caller bug but must not crash; it is a no-op then.
func (l *Limiter) Record(source string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[source]
	if !ok {
		return
	}
	w.RequestCount++
	w.LastRequest = l.now()
}

// OptimalDelay spreads quota requests evenly across the hour, with up to
// one second of jitter so concurrent workers do not align.
func (l *Limiter) OptimalDelay(source string, quota int) time.Duration {
	if quota <= 0 {
		return 0
	}

	l.mu.Lock()
	_, tracked := l.windows[source]
	l.mu.Unlock()
	if !tracked {
		return l.jitter()
	}
	return windowLength/time.Duration(quota) + l.jitter()
}

// Wait blocks until a request to source is admissible, or fails fast with
// ErrWaitTooLong when the remaining window exceeds the ceiling.
func (l *Limiter) Wait(ctx context.Context, source string, quota int) error {
	out := l.Check(source, quota)
	if out.Allowed {
		return nil
	}
	if out.Wait > maxWait {
		return ErrWaitTooLong{Source: source, Wait: out.Wait}
	}

	timer := time.NewTimer(out.Wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Reset drops the tracked window for source.
func (l *Limiter) Reset(source string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, source)
}

// Windows returns a snapshot of all tracked windows.
func (l *Limiter) Windows() map[string]Window {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]Window, len(l.windows))
	for source, w := range l.windows {
		out[source] = *w
	}
	return out
}

// Stop halts the background cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.purgeExpired()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) purgeExpired() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for source, w := range l.windows {
		if now.After(w.ResetAt) {
			delete(l.windows, source)
		}
	}
}
