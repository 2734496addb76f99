package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/pkg/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	name    string
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	metrics *metrics.Collector

	mu       sync.Mutex
	visitors map[string]*visitor
	lastGC   time.Time
	now      func() time.Time
}

func NewRateLimiter(name string, limit rate.Limit, burst int, m *metrics.Collector) *RateLimiter {
	return &RateLimiter{
		name:     name,
		limit:    limit,
		burst:    burst,
		idleTTL:  10 * time.Minute,
		metrics:  m,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// PerMinute is a limit of n events per minute.
func PerMinute(n int) rate.Limit {
	return rate.Every(time.Minute / time.Duration(max(n, 1)))
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastGC) > rl.idleTTL {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > rl.idleTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lastGC = now
	}

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lim := rl.get(c.ClientIP())
		if lim.AllowN(rl.now(), 1) {
			c.Next()
			return
		}

		if rl.metrics != nil {
			rl.metrics.RateLimitedTotal.WithLabelValues(rl.name).Inc()
		}
		retry := 1
		if rl.limit > 0 {
			retry = int(math.Ceil(1 / float64(rl.limit)))
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "too many requests",
			"code":  "RATE_LIMITED",
		})
	}
}
