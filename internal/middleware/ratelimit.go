package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/ptcalc/api/internal/logger"
	"golang.org/x/time/rate"
)

const (
	// RateLimitLimitHeader carries the sustained requests per second allowed.
	RateLimitLimitHeader = "X-RateLimit-Limit"
	// RateLimitRemainingHeader carries the tokens left in the client's bucket.
	RateLimitRemainingHeader = "X-RateLimit-Remaining"

	limiterIdleTTL         = 10 * time.Minute
	limiterCleanupInterval = 5 * time.Minute
)

// RateLimiter is a per-client token bucket limiter.
type RateLimiter struct {
	limiters sync.Map
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

type limiterEntry struct {
	limiter *rate.Limiter
	mu      sync.Mutex
	seen    time.Time
}

func (e *limiterEntry) touch(now time.Time) {
	e.mu.Lock()
	e.seen = now
	e.mu.Unlock()
}

func (e *limiterEntry) idleSince(now time.Time) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return now.Sub(e.seen)
}

// NewRateLimiter creates a limiter allowing rps requests per second per client with the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		rps:   rate.Limit(rps),
		burst: burst,
		now:   time.Now,
	}
}

// Run evicts idle client buckets until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() int {
	now := rl.now()
	evicted := 0
	rl.limiters.Range(func(key, value interface{}) bool {
		if entry, ok := value.(*limiterEntry); ok && entry.idleSince(now) > limiterIdleTTL {
			rl.limiters.Delete(key)
			evicted++
		}
		return true
	})
	return evicted
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := rl.now()
	if val, ok := rl.limiters.Load(key); ok {
		entry := val.(*limiterEntry)
		entry.touch(now)
		return entry.limiter
	}

	entry := &limiterEntry{limiter: rate.NewLimiter(rl.rps, rl.burst), seen: now}
	actual, _ := rl.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry).limiter
}

// Middleware rejects requests over the client's budget with 429.
// Clients are keyed by gin's ClientIP, so forwarded headers only count when trusted proxies are configured.
func (rl *RateLimiter) Middleware(log *logger.Logger) gin.HandlerFunc {
	limit := strconv.FormatFloat(float64(rl.rps), 'f', -1, 64)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if clientIP == "" {
			clientIP = "unknown"
		}
		limiter := rl.limiterFor(clientIP)

		c.Header(RateLimitLimitHeader, limit)
		if !limiter.Allow() {
			requestLogger := GetLogger(c)
			if requestLogger == nil {
				requestLogger = log
			}
			if requestLogger != nil {
				requestLogger.Warn("Rate limit exceeded", map[string]interface{}{
					"client_ip":  clientIP,
					"method":     c.Request.Method,
					"path":       c.Request.URL.Path,
					"request_id": GetRequestID(c),
				})
			}

			c.Header(RateLimitRemainingHeader, "0")
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":       "RATE_LIMITED",
					"message":    "Too many requests, retry later",
					"request_id": GetRequestID(c),
				},
			})
			return
		}

		remaining := int(limiter.Tokens())
		if remaining < 0 {
			remaining = 0
		}
		c.Header(RateLimitRemainingHeader, strconv.Itoa(remaining))
		c.Next()
	}
}
