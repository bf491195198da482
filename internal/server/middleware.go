package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// maxTrackedClients caps the limiter map; idle entries are evicted past it.
const maxTrackedClients = 10000

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter hands out one token bucket per client address.
type ipRateLimiter struct {
	mu  sync.Mutex
	ips map[string]*clientLimiter
	r   rate.Limit
	b   int
}

func newIPRateLimiter(perSecond float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		ips: make(map[string]*clientLimiter),
		r:   rate.Limit(perSecond),
		b:   burst,
	}
}

func (l *ipRateLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.ips[ip]
	if !ok {
		if len(l.ips) >= maxTrackedClients {
			l.evict(now.Add(-time.Minute))
		}
		c = &clientLimiter{limiter: rate.NewLimiter(l.r, l.b)}
		l.ips[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

func (l *ipRateLimiter) evict(before time.Time) {
	for ip, c := range l.ips {
		if c.lastSeen.Before(before) {
			delete(l.ips, ip)
		}
	}
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		now := s.now()
		if !s.limiter.get(c.ClientIP(), now).AllowN(now, 1) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// observe logs and counts every request by route template.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		code := c.Writer.Status()
		if s.metrics != nil {
			s.metrics.RecordRequest(route, code, elapsed)
		}
		s.logger.Debug("request",
			"method", c.Request.Method,
			"route", route,
			"code", code,
			"duration", elapsed,
			"client", c.ClientIP())
	}
}
