package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"training-app/internal/identity"
)

const (
	limiterIdleTTL       = 10 * time.Minute
	limiterSweepInterval = time.Minute
)

// RateLimitRule is a token bucket: Rate tokens per second, up to Burst.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// RateLimitKey picks the bucket a request is charged to.
type RateLimitKey func(c *gin.Context) string

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one limiter per principal. Limiters idle for longer than
// limiterIdleTTL are dropped.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter builds a limiter. now may be nil.
func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		now:      now,
	}
}

// ContextKey charges the user set by an earlier auth middleware, falling back
// to client IP.
func ContextKey(c *gin.Context) string {
	if userID := strings.TrimSpace(UserIDFromContext(c)); userID != "" {
		return "user:" + userID
	}
	return "ip:" + strings.TrimSpace(c.ClientIP())
}

// IdentityKey is ContextKey for hops with no auth middleware of their own. It
// tries X-User-ID, then the bearer sub, before falling back to client IP.
func IdentityKey(c *gin.Context) string {
	if userID := strings.TrimSpace(UserIDFromContext(c)); userID != "" {
		return "user:" + userID
	}
	if id, err := identity.FromHeader(c.Request.Header); err == nil {
		return "user:" + id.UserID
	}
	if id, _, err := identity.FromBearer(c.Request.Header); err == nil && id.UserID != "" {
		return "user:" + id.UserID
	}
	return "ip:" + strings.TrimSpace(c.ClientIP())
}

// RateLimit throttles requests per user id, falling back to client IP.
func RateLimit(limiter *RateLimiter, rule RateLimitRule) gin.HandlerFunc {
	return RateLimitBy(limiter, rule, ContextKey)
}

// RateLimitBy throttles requests per bucket chosen by key.
func RateLimitBy(limiter *RateLimiter, rule RateLimitRule, key RateLimitKey) gin.HandlerFunc {
	if limiter == nil {
		limiter = NewRateLimiter(nil)
	}
	if key == nil {
		key = ContextKey
	}
	return func(c *gin.Context) {
		allowed, retryAfter := limiter.Allow(key(c), rule)
		if allowed {
			c.Next()
			return
		}
		retryAfterMs := int(retryAfter / time.Millisecond)
		if retryAfterMs <= 0 {
			retryAfterMs = 1000
		}
		retryAfterSeconds := int(math.Ceil(float64(retryAfterMs) / 1000.0))
		if retryAfterSeconds <= 0 {
			retryAfterSeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":        "rate_limited",
			"retryAfterMs": retryAfterMs,
		})
		c.Abort()
	}
}

// Allow consumes one token for key and reports how long to wait otherwise.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()

	l.mu.Lock()
	l.sweepLocked(now)
	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rate.Limit(rule.Rate), rule.Burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	lim := e.lim
	l.mu.Unlock()

	if lim.AllowN(now, 1) {
		return true, 0
	}
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

// Len reports how many limiters are currently tracked.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < limiterSweepInterval {
		return
	}
	l.lastSweep = now
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(l.limiters, k)
		}
	}
}
