package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	defaultMaxVisitors = 4096
	visitorIdle        = 10 * time.Minute
)

// RateLimiter keeps one token bucket per client IP. Buckets idle for
// visitorIdle are dropped, and past the visitor cap the least recently seen
// IP is evicted.
type RateLimiter struct {
	mu       sync.Mutex
	visitors *expirable.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// NewRateLimiter allows perMinute requests per IP with bursts of up to
// perMinute requests.
func NewRateLimiter(perMinute int) *RateLimiter {
	return newRateLimiter(perMinute, defaultMaxVisitors)
}

func newRateLimiter(perMinute, maxVisitors int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	return &RateLimiter{
		visitors: expirable.NewLRU[string, *rate.Limiter](maxVisitors, nil, visitorIdle),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

// Allow checks if request from IP should be allowed
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.visitors.Get(ip)
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
	}
	// Add again so the idle window restarts from this request
	rl.visitors.Add(ip, l)

	return l.Allow()
}

// Visitors is the number of IPs currently tracked.
func (rl *RateLimiter) Visitors() int {
	return rl.visitors.Len()
}

// RateLimit wraps a handler with the limiter.
func RateLimit(limiter *RateLimiter) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			if !limiter.Allow(ip) {
				slog.Warn("rate limit exceeded",
					"ip", ip,
					"path", logPath(r),
				)
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again later.")
				return
			}

			next(w, r)
		}
	}
}
