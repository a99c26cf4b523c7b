package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ClientLimiter decides whether a client may proceed with a request.
// The in-process implementation below keys on client IP; a shared backend
// (e.g. a central store for multi-replica deployments) can satisfy the same
// interface.
type ClientLimiter interface {
	Allow(clientID string) bool
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter is a per-client token-bucket ClientLimiter. Stale client
// entries are evicted by a background sweep every 5 minutes.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	rps      rate.Limit
	burst    int
}

// NewIPRateLimiter creates an IPRateLimiter. rps is the steady-state
// requests per second per client; burst is the maximum burst size.
func NewIPRateLimiter(rps, burst int) *IPRateLimiter {
	l := &IPRateLimiter{
		limiters: make(map[string]*ipLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
	go l.sweep()
	return l
}

// Allow reports whether the client may proceed.
func (l *IPRateLimiter) Allow(clientID string) bool {
	l.mu.Lock()
	entry, ok := l.limiters[clientID]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[clientID] = entry
	}
	entry.lastSeen = time.Now()
	l.mu.Unlock()

	return entry.limiter.Allow()
}

func (l *IPRateLimiter) sweep() {
	for {
		time.Sleep(5 * time.Minute)
		l.mu.Lock()
		for id, entry := range l.limiters {
			if time.Since(entry.lastSeen) > 10*time.Minute {
				delete(l.limiters, id)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimit returns a gin middleware enforcing the given limiter per
// client IP.
func RateLimit(limiter ClientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
