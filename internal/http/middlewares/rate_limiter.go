package middlewares

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per key. Buckets idle for longer than
// idleTTL are swept lazily.
type RateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	clients   map[string]*clientBucket
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perWindow requests per window, all of them usable as a burst.
func NewRateLimiter(perWindow int, window time.Duration) *RateLimiter {
	if perWindow < 1 {
		perWindow = 1
	}

	return &RateLimiter{
		limit:   rate.Every(window / time.Duration(perWindow)),
		burst:   perWindow,
		idleTTL: 2 * window,
		clients: make(map[string]*clientBucket),
	}
}

func (rl *RateLimiter) bucket(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > rl.idleTTL {
		for k, b := range rl.clients {
			if now.Sub(b.lastSeen) > rl.idleTTL {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = b
	}
	b.lastSeen = now

	return b.limiter
}

// RateLimiterMiddleware enforces the limit for a key derived from the request.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		now := time.Now()
		res := rl.bucket(key, now).ReserveN(now, 1)

		if delay := res.DelayFrom(now); delay > 0 {
			res.CancelAt(now)

			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":      "rate_limited",
					"message":   "Too many requests. Please try again shortly.",
					"requestId": c.GetString(CtxRequestID),
				},
			})
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// For authenticated endpoints: rate limit by userID if available
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok && id != "" {
		return "user:" + id
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
