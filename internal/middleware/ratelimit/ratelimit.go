// Package ratelimit throttles requests per client IP with a fixed
// one-minute window.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

const window = time.Minute

// Limiter counts requests per client within the current window.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	limit   int
	now     func() time.Time

	cleanupInterval time.Duration
	lastCleanup     time.Time
}

type clientWindow struct {
	start    time.Time
	requests int
}

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 10,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter creates a limiter. Finished windows are dropped during Allow
// once every CleanupInterval. A non-positive RequestsPerMinute disables
// limiting.
func NewLimiter(config Config) *Limiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}
	return &Limiter{
		clients:         make(map[string]*clientWindow),
		limit:           config.RequestsPerMinute,
		now:             time.Now,
		cleanupInterval: config.CleanupInterval,
	}
}

// Allow records a request from clientIP and reports whether it is within
// the limit.
func (rl *Limiter) Allow(clientIP string) bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastCleanup) >= rl.cleanupInterval {
		rl.cleanupLocked(now)
	}
	c, ok := rl.clients[clientIP]
	if !ok || now.Sub(c.start) >= window {
		rl.clients[clientIP] = &clientWindow{start: now, requests: 1}
		return true
	}
	c.requests++
	return c.requests <= rl.limit
}

// RetryAfter is how long clientIP must wait for its window to reset.
func (rl *Limiter) RetryAfter(clientIP string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	c, ok := rl.clients[clientIP]
	if !ok {
		return 0
	}
	if d := window - rl.now().Sub(c.start); d > 0 {
		return d
	}
	return 0
}

// cleanupLocked forgets clients whose window has ended. rl.mu must be held.
func (rl *Limiter) cleanupLocked(now time.Time) {
	rl.lastCleanup = now
	for ip, c := range rl.clients {
		if now.Sub(c.start) >= window {
			delete(rl.clients, ip)
		}
	}
}

func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Middleware rejects requests over the limit with onLimit, or with a plain
// 429 when onLimit is nil.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := extractIP(r)
			if rl.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}
			secs := int(rl.RetryAfter(ip).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		})
	}
}
