package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter keeps a token bucket per client key.
type ClientRateLimiter struct {
	clients   map[string]*client
	mu        sync.Mutex
	r         rate.Limit
	b         int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewClientRateLimiter creates a limiter allowing r requests per second with
// burst b to each client. Buckets unused for idle are forgotten on a later call.
func NewClientRateLimiter(r rate.Limit, b int, idle time.Duration) *ClientRateLimiter {
	return &ClientRateLimiter{
		clients: make(map[string]*client),
		r:       r,
		b:       b,
		idle:    idle,
		now:     time.Now,
	}
}

// Allow reports whether the client identified by key may make a request now.
func (l *ClientRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.idle {
		l.sweepLocked(now)
	}
	cl, exists := l.clients[key]
	if !exists {
		cl = &client{limiter: rate.NewLimiter(l.r, l.b)}
		l.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Sweep forgets clients that have been idle for longer than the idle period.
func (l *ClientRateLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(l.now())
}

func (l *ClientRateLimiter) sweepLocked(now time.Time) {
	cutoff := now.Add(-l.idle)
	for key, cl := range l.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// Len returns the number of tracked clients.
func (l *ClientRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// RateLimiter is a middleware for per-client rate limiting. Clients are
// identified by gin's client IP, which only honours forwarding headers sent
// by the engine's trusted proxies.
func RateLimiter(limiter *ClientRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
