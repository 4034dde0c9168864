package middleware

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/switzea/portal/internal/metrics"
)

// clientLimiter is the bucket of one caller and when it was last used.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanoseconds
}

// RateLimiter hands out one token bucket per caller.
type RateLimiter struct {
	rps      float64
	burst    int
	now      func() time.Time
	limiters sync.Map // map[string]*clientLimiter
}

// NewRateLimiter allows rps requests per second per caller, with bursts up to burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{rps: rps, burst: burst, now: time.Now}
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	v, ok := l.limiters.Load(key)
	if !ok {
		v, _ = l.limiters.LoadOrStore(key, &clientLimiter{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)})
	}
	cl := v.(*clientLimiter)
	cl.lastSeen.Store(l.now().UnixNano())
	return cl.limiter
}

// Sweep drops the buckets of callers idle for longer than idle and reports how many went.
func (l *RateLimiter) Sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle).UnixNano()
	removed := 0
	l.limiters.Range(func(key, value any) bool {
		if value.(*clientLimiter).lastSeen.Load() < cutoff {
			l.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Start sweeps idle buckets every interval until ctx ends.
func (l *RateLimiter) Start(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(idle)
		}
	}
}

// Middleware keys callers by user ID once RequireSession ran, by client IP before.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if uid := c.GetString(UserIDKey); uid != "" {
			key = "uid:" + uid
		}
		if !l.limiter(key).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.Inc()
		c.Next()
	}
}
