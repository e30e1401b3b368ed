package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window counter keyed by caller identity. State is
// per-process; with several replicas the effective limit is limit*replicas,
// which is acceptable for a login throttle.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	buckets map[string]*window
}

type window struct {
	count int
	until time.Time
}

func NewRateLimiter(limit int, windowLen time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  windowLen,
		buckets: make(map[string]*window),
	}
}

// RateLimiterMiddleware enforces the limit for the key derived by keyFn,
// falling back to the client IP when no key can be derived.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			key = clientIP(c)
		}

		retryAfter, allowed := rl.take(key)
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) take(key string) (retryAfter int, allowed bool) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok || now.After(b.until) {
		rl.buckets[key] = &window{count: 1, until: now.Add(rl.window)}
		return 0, true
	}

	if b.count >= rl.limit {
		retryAfter = int(time.Until(b.until).Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		return retryAfter, false
	}

	b.count++
	return 0, true
}

// KeyByIP keys unauthenticated endpoints by client IP.
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// KeyByUserOrIP prefers the authenticated user id, falling back to IP.
func KeyByUserOrIP(c *gin.Context) string {
	if id, ok := UserIDFromContext(c); ok && id != 0 {
		return "user:" + strconv.FormatInt(id, 10)
	}
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()
	if host, _, err := net.SplitHostPort(ip); err == nil && host != "" {
		return host
	}
	return ip
}
