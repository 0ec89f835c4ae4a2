package mw

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// DefaultLimiterIdle is how long a client's bucket survives without requests.
const DefaultLimiterIdle = 10 * time.Minute

// IPRateLimiter keeps a token bucket per client IP. Buckets idle for longer
// than idle are evicted, so the set tracks recent clients only.
type IPRateLimiter struct {
	buckets *gocache.Cache
	r       rate.Limit
	b       int
	idle    time.Duration
}

// NewIPRateLimiter creates buckets refilling at r tokens per second with burst b.
func NewIPRateLimiter(r rate.Limit, b int, idle time.Duration) *IPRateLimiter {
	if idle <= 0 {
		idle = DefaultLimiterIdle
	}
	return &IPRateLimiter{
		buckets: gocache.New(idle, idle),
		r:       r,
		b:       b,
		idle:    idle,
	}
}

// GetLimiter returns the bucket for ip, creating it on first use and
// extending its lifetime on every call.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	if v, found := i.buckets.Get(ip); found {
		limiter := v.(*rate.Limiter)
		i.buckets.SetDefault(ip, limiter)
		return limiter
	}

	limiter := rate.NewLimiter(i.r, i.b)
	if err := i.buckets.Add(ip, limiter, gocache.DefaultExpiration); err != nil {
		// Lost the race to a concurrent first request from the same IP.
		if v, found := i.buckets.Get(ip); found {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// Tracked is the number of client buckets currently held, expired ones included
// until the next sweep.
func (i *IPRateLimiter) Tracked() int {
	return i.buckets.ItemCount()
}

// RateLimiter rejects clients exceeding r requests per second (burst b) with
// 429 and a Retry-After hint.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewIPRateLimiter(r, b, DefaultLimiterIdle)
	return func(c *gin.Context) {
		bucket := limiter.GetLimiter(c.ClientIP())
		if !bucket.Allow() {
			c.Header("Retry-After", retryAfter(r))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// retryAfter is the whole seconds until one token is refilled, at least 1.
func retryAfter(r rate.Limit) string {
	if r <= 0 || r == rate.Inf {
		return "1"
	}
	secs := int(time.Duration(float64(time.Second) / float64(r)).Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
