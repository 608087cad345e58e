/*
Package limiter provides per-IP rate limiting for room creation and WebSocket connects.

Each client IP owns a token bucket (rate.Limiter). A background sweep drops buckets that have
refilled completely so idle clients do not accumulate.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"roomrelay/internal/pkg/errs"
	"roomrelay/internal/pkg/logx"
	"roomrelay/internal/pkg/resp"
)

// sweepInterval is how often idle buckets are removed.
const sweepInterval = 3 * time.Minute

// IPRateLimiter implements a token-bucket limiter keyed by client IP address.
type IPRateLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter

	// r is the refill rate in events per second, b the bucket size.
	r rate.Limit
	b int

	stop     chan struct{}
	stopOnce sync.Once

	// swept is closed when the sweep goroutine has returned.
	swept chan struct{}
}

// NewIPRateLimiter creates a limiter with rate r and burst b and starts its sweep goroutine.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
		stop:   make(chan struct{}),
		swept:  make(chan struct{}),
	}

	go i.cleanUpVisitors()

	return i
}

// GetLimiter returns the bucket for ip, creating it on first use (double-checked locking).
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[ip]
	i.mu.RUnlock()

	if !exists {
		i.mu.Lock()
		limiter, exists = i.limits[ip]
		if !exists {
			limiter = rate.NewLimiter(i.r, i.b)
			i.limits[ip] = limiter
		}
		i.mu.Unlock()
	}

	return limiter
}

// Allow consumes one token from the bucket of the request's client IP.
func (i *IPRateLimiter) Allow(r *http.Request) bool {
	return i.GetLimiter(ClientIP(r)).Allow()
}

// Stop ends the sweep goroutine. It is safe to call more than once.
func (i *IPRateLimiter) Stop() {
	i.stopOnce.Do(func() { close(i.stop) })
}

// cleanUpVisitors periodically removes buckets that are full again, i.e. idle clients.
func (i *IPRateLimiter) cleanUpVisitors() {
	defer close(i.swept)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-i.stop:
			return
		case now := <-ticker.C:
			i.mu.Lock()
			removed := 0
			for ip, limiter := range i.limits {
				if limiter.TokensAt(now) >= float64(limiter.Burst()) {
					delete(i.limits, ip)
					removed++
				}
			}
			remaining := len(i.limits)
			i.mu.Unlock()

			logx.Logger().Debug().
				Int("removed", removed).
				Int("remaining", remaining).
				Msg("Rate limiter sweep finished.")
		}
	}
}

// Middleware rejects requests over the limit with ErrRateLimitExceeded (HTTP 429).
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !i.Allow(r) {
			logx.Warn("Request rejected: rate limit exceeded.", "path", r.URL.Path)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the host part of r.RemoteAddr (already rewritten by chi's RealIP).
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	if ip == "" {
		ip = "unknown_ip"
	}

	return ip
}
