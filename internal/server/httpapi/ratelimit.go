package httpapi

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/stallpass/internal/common"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimiter applies a token bucket per client IP. The IP is the
// connection's remote address unless trustProxy is set, in which case the
// first X-Forwarded-For hop is used.
type RateLimiter struct {
	mu         sync.Mutex
	limit      rate.Limit
	burst      int
	trustProxy bool
	limiters map[string]*clientLimiter
	lastGC   time.Time
	now      func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter returns nil when perSecond is not positive, which
// Handler treats as no limiting.
func NewRateLimiter(perSecond float64, burst int, trustProxy bool) *RateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = int(perSecond) + 1
	}
	return &RateLimiter{
		limit:      rate.Limit(perSecond),
		burst:      burst,
		trustProxy: trustProxy,
		limiters:   make(map[string]*clientLimiter),
		now:        time.Now,
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r, l.trustProxy)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, common.ErrorRateLimited.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	c, ok := l.limiters[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = c
	}
	c.lastSeen = now
	if now.Sub(l.lastGC) > limiterIdleTTL {
		l.gc(now)
	}
	l.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

// gc drops limiters idle for longer than limiterIdleTTL. l.mu must be held.
func (l *RateLimiter) gc(now time.Time) {
	for k, c := range l.limiters {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(l.limiters, k)
		}
	}
	l.lastGC = now
}

// clientIP reads X-Forwarded-For only when trustForwarded is set; clients
// can put anything in that header.
func clientIP(r *http.Request, trustForwarded bool) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); trustForwarded && forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
