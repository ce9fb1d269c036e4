// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the request rate limiter. Every completed generation
// spends provider quota and user points, so the API throttles callers before
// they reach the submission path. Buckets are token-bucket limiters from
// golang.org/x/time/rate, keyed per user (falling back to client IP), and
// live in process memory; a deployment scaled past one replica would need a
// shared store to enforce a global limit.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc maps a request to the identity its bucket is keyed by.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys buckets by the resolved user from the Identity
// middleware, or by client IP when no user is present. The prefixes keep the
// two namespaces from colliding.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get("userID"); ok {
			if uid, ok := v.(string); ok && uid != "" {
				return "user:" + uid
			}
		}
		return "ip:" + c.ClientIP()
	}
}

// bucket pairs a limiter with its last activity, so idle entries can be
// swept out.
type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out per-key token buckets and sweeps idle ones. Safe for
// concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups uint64

	// idleTTL bounds memory: a key unseen for this long loses its bucket.
	idleTTL time.Duration
}

// sweepEvery is the lookup count between idle-bucket sweeps.
const sweepEvery = 5000

// NewRateLimiter builds a limiter replenishing rps tokens per second with
// the given burst (coerced to at least 1), keyed by keyFn.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		idleTTL: 10 * time.Minute,
	}
}

// bucketFor returns key's limiter, creating it on first sight. Sweeping runs
// before the lookup so a stale bucket for this very key is evicted rather
// than refreshed.
func (rl *RateLimiter) bucketFor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.lim
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{lim: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator flagged this request as
// a replay. Replays are served from the idempotency record and cost nothing,
// so they never spend tokens.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler enforces the limit. Rejected requests get a 429 with the standard
// error envelope and a Retry-After hint.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		if rl.bucketFor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
