package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter manages run rate limits for multiple playgrounds
type Limiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
	perMin   int
}

// NewLimiter creates a new rate limiter
// runsPerMinute: runs allowed per minute per playground (e.g., 60)
// burst: max runs in a burst (e.g., 10)
func NewLimiter(runsPerMinute int, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}

	// Convert runs per minute to runs per second
	r := rate.Limit(float64(runsPerMinute) / 60.0)
	if runsPerMinute <= 0 {
		r = rate.Inf
	}

	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
		perMin:   runsPerMinute,
	}
}

// PerMinute returns the configured number of runs per minute
func (l *Limiter) PerMinute() int {
	return l.perMin
}

// GetLimiter returns the rate limiter for a specific playground
func (l *Limiter) GetLimiter(playground string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[playground]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists = l.limiters[playground]
	if !exists {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[playground] = limiter
	}

	return limiter
}

// Allow checks if a run is allowed for the given playground
func (l *Limiter) Allow(playground string) bool {
	return l.GetLimiter(playground).Allow()
}

// Tokens returns the current number of available tokens for a playground
func (l *Limiter) Tokens(playground string) float64 {
	return l.GetLimiter(playground).Tokens()
}

// Forget drops the limiter of a deleted playground
func (l *Limiter) Forget(playground string) {
	l.mu.Lock()
	delete(l.limiters, playground)
	l.mu.Unlock()
}
