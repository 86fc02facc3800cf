package ratelimit

import (
	"context"
	"sync"
	"time"

	"wbscraper/pkg/logger"
	"wbscraper/pkg/metrics"
)

// Sleeper pauses for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the real Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GovernorConfig holds the pacing policy
type GovernorConfig struct {
	// PageSleepCount is the number of calls between pauses (>= 1)
	PageSleepCount int
	// PageSleepDuration is the length of each pause
	PageSleepDuration time.Duration
	// RequestsPerMinute adds a steady ceiling on top of the pauses; 0 disables it
	RequestsPerMinute int
}

// Governor paces every network call of one traversal with a single shared counter.
// Before a call, if the counter is a multiple of PageSleepCount the caller pauses;
// the counter is then incremented. Counter zero is a multiple, so the first call pauses.
type Governor struct {
	mu      sync.Mutex
	calls   int
	pauses  int
	every   int
	pause   time.Duration
	ceiling Limiter
	sleep   Sleeper
	logger  logger.Logger
}

// NewGovernor creates a governor with the real clock
func NewGovernor(cfg GovernorConfig, log logger.Logger) *Governor {
	if log == nil {
		log = logger.GetLogger()
	}
	every := cfg.PageSleepCount
	if every < 1 {
		every = 1
	}
	g := &Governor{
		every:  every,
		pause:  cfg.PageSleepDuration,
		sleep:  SleepContext,
		logger: log.WithField("component", "governor"),
	}
	if cfg.RequestsPerMinute > 0 {
		g.ceiling = NewPerMinute(cfg.RequestsPerMinute)
	}
	return g
}

// WithSleeper replaces the clock, for tests
func (g *Governor) WithSleeper(s Sleeper) *Governor {
	g.sleep = s
	return g
}

// BeforeCall must be invoked once before every network call.
// The mutex is held across the pause so concurrent callers stay strictly counted.
func (g *Governor) BeforeCall(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.calls%g.every == 0 && g.pause > 0 {
		g.logger.InfoWithFields("Pausing to respect rate limit", map[string]interface{}{
			"calls":    g.calls,
			"duration": g.pause.String(),
		})
		metrics.GovernorPauses.Inc()
		g.pauses++
		if err := g.sleep(ctx, g.pause); err != nil {
			return err
		}
	}
	g.calls++

	if g.ceiling != nil {
		if err := g.ceiling.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Calls returns the number of calls admitted so far
func (g *Governor) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// Pauses returns the number of pauses taken so far
func (g *Governor) Pauses() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pauses
}
