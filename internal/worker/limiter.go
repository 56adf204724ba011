package worker

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter implements per-owner rate limiting for analysis requests. It is
// an injected collaborator of the pipeline, not part of the detection core:
// a nil *Limiter allows everything.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter allowing requestsPerHour per owner scope.
// requestsPerHour <= 0 disables limiting (returns nil).
func NewLimiter(requestsPerHour int, burst int) *Limiter {
	if requestsPerHour <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(float64(requestsPerHour) / time.Hour.Seconds()),
		defaultBurst: burst,
	}
}

// Allow reports whether the owner scope may run another analysis now
func (l *Limiter) Allow(owner string) bool {
	if l == nil {
		return true
	}
	return l.getLimiter(owner).Allow()
}

// getLimiter returns the rate limiter for an owner scope
func (l *Limiter) getLimiter(owner string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[owner]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[owner]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[owner] = limiter

	return limiter
}

// SetOwnerRate sets a custom rate for a specific owner scope
func (l *Limiter) SetOwnerRate(owner string, requestsPerHour int, burst int) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.limiters[owner] = rate.NewLimiter(rate.Limit(float64(requestsPerHour)/time.Hour.Seconds()), burst)
}
