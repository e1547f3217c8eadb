package http

import (
	"sync"
	"sync/atomic"
	"time"
)

// rateLimiter throttles mutating requests per client IP with a fixed
// one-minute counting window.
type rateLimiter struct {
	mu        sync.Mutex
	perMinute int
	visitors  map[string]*visitor

	rejected atomic.Int64

	done chan struct{}
	once sync.Once
}

type visitor struct {
	windowStart time.Time
	count       int
}

// newRateLimiter starts a limiter allowing perMinute mutating requests per
// client IP. A background sweep every cleanupEvery drops visitors that have
// been idle for two sweep intervals.
func newRateLimiter(perMinute int, cleanupEvery time.Duration) *rateLimiter {
	rl := &rateLimiter{
		perMinute: perMinute,
		visitors:  make(map[string]*visitor),
		done:      make(chan struct{}),
	}
	go rl.sweep(cleanupEvery)
	return rl
}

func (rl *rateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.dropIdle(2 * every)
		case <-rl.done:
			return
		}
	}
}

// dropIdle removes visitors whose window started longer than idleFor ago.
func (rl *rateLimiter) dropIdle(idleFor time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-idleFor)
	for ip, v := range rl.visitors {
		if v.windowStart.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

// allow reports whether another request from clientIP fits in the current
// window. The window restarts a minute after its first request.
func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.visitors[clientIP]
	if !ok || now.Sub(v.windowStart) >= time.Minute {
		rl.visitors[clientIP] = &visitor{windowStart: now, count: 1}
		return true
	}

	v.count++
	if v.count > rl.perMinute {
		rl.rejected.Add(1)
		return false
	}
	return true
}

// rejectedTotal is the number of requests turned away since startup.
func (rl *rateLimiter) rejectedTotal() int64 {
	return rl.rejected.Load()
}
