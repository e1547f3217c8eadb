package http

import (
	"testing"
	"time"
)

func TestRateLimiterEnforcesLimit(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()

	if !rl.allow("10.0.0.1") || !rl.allow("10.0.0.1") {
		t.Fatal("requests within the limit must be allowed")
	}
	if rl.allow("10.0.0.1") {
		t.Error("third request in the window must be rejected")
	}
	if got := rl.rejectedTotal(); got != 1 {
		t.Errorf("rejectedTotal = %d, want 1", got)
	}

	// Other clients keep their own window.
	if !rl.allow("10.0.0.2") {
		t.Error("a different client must not share the exhausted window")
	}
}

func TestRateLimiterWindowRestart(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	defer rl.stop()

	if !rl.allow("10.0.0.1") {
		t.Fatal("first request must be allowed")
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("second request in the window must be rejected")
	}

	rl.mu.Lock()
	rl.visitors["10.0.0.1"].windowStart = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	if !rl.allow("10.0.0.1") {
		t.Error("an expired window must restart instead of staying exhausted")
	}
}

func TestRateLimiterDropsIdleVisitors(t *testing.T) {
	rl := newRateLimiter(10, time.Minute)
	defer rl.stop()

	rl.allow("10.0.0.1")
	rl.mu.Lock()
	rl.visitors["10.0.0.1"].windowStart = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.dropIdle(10 * time.Minute)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.visitors) != 0 {
		t.Errorf("idle visitors remaining = %d, want 0", len(rl.visitors))
	}
}

func TestRateLimiterStopIdempotent(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	rl.stop()
	rl.stop()
}
