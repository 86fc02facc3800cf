package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for steady-rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed now, consuming a token if so
	Allow() bool
	// Wait blocks until a token is available or ctx is done
	Wait(ctx context.Context) error
	// Reset refills the limiter to its initial burst
	Reset()
}

// PerMinute is a token bucket that admits n requests per minute with a burst of one
type PerMinute struct {
	mu      sync.Mutex
	perMin  int
	limiter *rate.Limiter
}

// NewPerMinute creates a limiter for n requests per minute. n <= 0 means unlimited.
func NewPerMinute(n int) *PerMinute {
	return &PerMinute{
		perMin:  n,
		limiter: newRateLimiter(n),
	}
}

func newRateLimiter(n int) *rate.Limiter {
	if n <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
}

// Allow checks if a request can proceed
func (p *PerMinute) Allow() bool {
	p.mu.Lock()
	l := p.limiter
	p.mu.Unlock()
	return l.Allow()
}

// Wait blocks until a token is available
func (p *PerMinute) Wait(ctx context.Context) error {
	p.mu.Lock()
	l := p.limiter
	p.mu.Unlock()
	return l.Wait(ctx)
}

// Reset discards accumulated reservations
func (p *PerMinute) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.limiter = newRateLimiter(p.perMin)
}

// Unlimited reports whether the limiter never blocks
func (p *PerMinute) Unlimited() bool {
	return p.perMin <= 0
}
