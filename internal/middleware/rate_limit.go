package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"jirai-backend/pkg/api"
	"jirai-backend/pkg/auth"

	"golang.org/x/time/rate"
)

// UserRateLimiter keeps one token bucket per authenticated user.
type UserRateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*userLimiter
	now      func() time.Time
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewUserRateLimiter allows perSecond requests per user with the given
// burst. A non-positive rate disables limiting.
func NewUserRateLimiter(perSecond float64, burst int) *UserRateLimiter {
	l := &UserRateLimiter{limiters: make(map[string]*userLimiter), now: time.Now}
	l.SetLimit(perSecond, burst)
	return l
}

// SetLimit changes the rate for existing and future buckets.
func (l *UserRateLimiter) SetLimit(perSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if perSecond <= 0 {
		l.limit = rate.Inf
	} else {
		l.limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = int(math.Max(1, math.Ceil(perSecond)))
	}
	l.burst = burst
	for _, u := range l.limiters {
		u.limiter.SetLimit(l.limit)
		u.limiter.SetBurst(l.burst)
	}
}

// Allow reports whether userID may make a request now, and otherwise how
// long to wait.
func (l *UserRateLimiter) Allow(userID string) (bool, time.Duration) {
	l.mu.Lock()
	now := l.now()
	u, ok := l.limiters[userID]
	if !ok {
		u = &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = u
	}
	u.lastSeen = now
	l.mu.Unlock()

	r := u.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

// Prune forgets buckets unused for longer than idle.
func (l *UserRateLimiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-idle)
	n := 0
	for id, u := range l.limiters {
		if u.lastSeen.Before(cutoff) {
			delete(l.limiters, id)
			n++
		}
	}
	return n
}

// Middleware rejects over-limit callers with 429. It must run after
// Authenticate.
func (l *UserRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.PrincipalFrom(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if allowed, wait := l.Allow(p.UserID); !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			api.Error(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
