package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	httperrors "github.com/manorfm/identity-server/internal/interfaces/http/errors"
	"golang.org/x/time/rate"
)

const cleanupInterval = time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per client IP. Buckets idle for longer
// than ttl are dropped by a background sweep until Stop is called.
type RateLimiter struct {
	visitors map[string]*clientLimiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(r rate.Limit, b int, ttl time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*clientLimiter),
		rate:     r,
		burst:    b,
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go rl.cleanupVisitors(cleanupInterval)
	return rl
}

// Stop ends the background sweep
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, exists := rl.visitors[ip]; exists {
		v.lastSeen = time.Now()
		return v.limiter
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.visitors[ip] = &clientLimiter{limiter, time.Now()}
	return limiter
}

func (rl *RateLimiter) cleanupVisitors(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep(time.Now())
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// RealIP may already have replaced RemoteAddr with a bare address
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !rl.getVisitor(ip).Allow() {
			w.Header().Set("Retry-After", "1")
			httperrors.RespondWithError(w, httperrors.ErrCodeRateLimited, "Rate limit exceeded", nil, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
