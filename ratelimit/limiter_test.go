package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestLimiter(now func() time.Time) *Limiter {
	return &Limiter{
		windows: make(map[string]*Window),
		now:     now,
		jitter:  func() time.Duration { return 0 },
		stop:    make(chan struct{}),
	}
}

func TestCheckExhaustsQuota(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(func() time.Time { return current })

	const quota = 5
	for i := 0; i < quota; i++ {
		out := l.Check("gumroad", quota)
		if !out.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if out.Remaining != quota-i {
			t.Fatalf("remaining = %d, want %d", out.Remaining, quota-i)
		}
		l.Record("gumroad")
	}

	out := l.Check("gumroad", quota)
	if out.Allowed {
		t.Fatalf("request beyond quota should be denied")
	}
	if out.Remaining != 0 {
		t.Fatalf("remaining = %d, want 0", out.Remaining)
	}
	if out.Wait <= 0 {
		t.Fatalf("denied outcome must carry a positive wait, got %v", out.Wait)
	}
}

func TestCheckResetsAfterWindowElapses(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(func() time.Time { return current })

	const quota = 3
	for i := 0; i < quota; i++ {
		l.Check("etsy-digital", quota)
		l.Record("etsy-digital")
	}
	if out := l.Check("etsy-digital", quota); out.Allowed {
		t.Fatalf("quota should be exhausted before rollover")
	}

	current = current.Add(time.Hour + time.Second)
	out := l.Check("etsy-digital", quota)
	if !out.Allowed {
		t.Fatalf("fresh window should allow requests")
	}
	if out.Remaining != quota {
		t.Fatalf("fresh window remaining = %d, want %d", out.Remaining, quota)
	}
}

func TestRecordWithoutWindowIsNoop(t *testing.T) {
	l := newTestLimiter(time.Now)
	l.Record("never-checked")

	if _, ok := l.Windows()["never-checked"]; ok {
		t.Fatalf("record without check must not create a window")
	}
}

func TestOptimalDelayBand(t *testing.T) {
	current := time.Now()
	l := &Limiter{
		windows: make(map[string]*Window),
		now:     func() time.Time { return current },
		jitter:  func() time.Duration { return 999 * time.Millisecond },
		stop:    make(chan struct{}),
	}

	l.Check("gumroad", 60)
	delay := l.OptimalDelay("gumroad", 60)
	if delay < 60*time.Second || delay >= 61*time.Second {
		t.Fatalf("delay = %v, want within [60s, 61s)", delay)
	}
}

func TestOptimalDelayUntrackedSourceNearZero(t *testing.T) {
	l := newTestLimiter(time.Now)
	if delay := l.OptimalDelay("unknown", 60); delay != 0 {
		t.Fatalf("untracked source delay = %v, want 0 with zero jitter", delay)
	}
}

func TestWaitFailsFastBeyondCeiling(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(func() time.Time { return current })

	l.Check("udemy", 1)
	l.Record("udemy")

	err := l.Wait(context.Background(), "udemy", 1)
	if err == nil {
		t.Fatalf("wait should fail fast when reset is an hour away")
	}
	var tooLong ErrWaitTooLong
	if !errors.As(err, &tooLong) {
		t.Fatalf("error = %T, want ErrWaitTooLong", err)
	}
	if tooLong.Wait <= maxWait {
		t.Fatalf("reported wait %v should exceed ceiling %v", tooLong.Wait, maxWait)
	}
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := start
	l := newTestLimiter(func() time.Time { return current })

	l.Check("envato", 1)
	l.Record("envato")
	// Move close to the reset so the wait is under the ceiling.
	current = start.Add(windowLength - time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx, "envato", 1); err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestPurgeExpiredWindows(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(func() time.Time { return current })

	l.Check("gumroad", 10)
	l.Check("envato", 10)
	current = current.Add(2 * time.Hour)
	l.purgeExpired()

	if got := len(l.Windows()); got != 0 {
		t.Fatalf("windows after purge = %d, want 0", got)
	}
}

func TestResetDropsWindow(t *testing.T) {
	l := newTestLimiter(time.Now)
	l.Check("gumroad", 10)
	l.Reset("gumroad")
	if _, ok := l.Windows()["gumroad"]; ok {
		t.Fatalf("reset should drop the tracked window")
	}
}
