package handlers

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	mw "varanasihub.com/site/internal/middleware"
	"varanasihub.com/site/internal/platform/httpx"
)

type rateLimiter interface {
	// Allow counts one request for key. When the key is over its limit it
	// returns false and how long until the window resets.
	Allow(key string) (bool, time.Duration)
}

// windowLimiter is a fixed-window counter per client key.
type windowLimiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu      sync.Mutex
	windows map[string]*clientWindow
}

type clientWindow struct {
	count int
	reset time.Time
}

func newWindowLimiter(limit int, window time.Duration, clock func() time.Time) rateLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &windowLimiter{
		limit:   limit,
		window:  window,
		clock:   clock,
		windows: make(map[string]*clientWindow),
	}
}

func (l *windowLimiter) Allow(key string) (bool, time.Duration) {
	if key == "" {
		key = "unknown"
	}
	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.reset) {
		l.evictLocked(now)
		l.windows[key] = &clientWindow{count: 1, reset: now.Add(l.window)}
		return true, 0
	}
	if w.count >= l.limit {
		return false, w.reset.Sub(now)
	}
	w.count++
	return true, 0
}

func (l *windowLimiter) evictLocked(now time.Time) {
	for key, w := range l.windows {
		if !now.Before(w.reset) {
			delete(l.windows, key)
		}
	}
}

// limitByClientIP rejects callers that exceed limiter with 429.
func limitByClientIP(limiter rateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry := limiter.Allow(mw.ClientIP(r))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				httpx.WriteError(r.Context(), w, httpx.NewError("rate_limited", "too many preview requests", http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
