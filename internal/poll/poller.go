// Package poll provides a bounded fixed-interval poller for long-running
// remote jobs. The sleep function is injectable so tests can simulate many
// ticks without wall-clock delay, and the loop honors context cancellation.
package poll

import (
	"context"
	"fmt"
	"time"
)

// Outcome is the terminal result of a poll run.
type Outcome string

const (
	// OutcomeSucceeded means a tick reported success with a result handle.
	OutcomeSucceeded Outcome = "SUCCEEDED"
	// OutcomeFailed means a tick reported a terminal failure.
	OutcomeFailed Outcome = "FAILED"
	// OutcomeTimedOut means the attempt ceiling was exhausted.
	OutcomeTimedOut Outcome = "TIMED_OUT"
)

// TickState classifies a single status check.
type TickState int

const (
	// TickPending means the job is still running; keep polling.
	TickPending TickState = iota
	// TickSucceeded means the job finished and Handle carries the result.
	TickSucceeded
	// TickFailed means the job failed terminally.
	TickFailed
	// TickInconclusive means the response could not be interpreted. The tick
	// counts toward the attempt ceiling but does not terminate the loop.
	TickInconclusive
)

// Tick is the classified result of one status check.
type Tick struct {
	State TickState
	// Handle is the result reference, set when State is TickSucceeded.
	Handle string
	// Reason is the failure reason, set when State is TickFailed.
	Reason string
}

// Result is the terminal result of a poll run.
type Result struct {
	Outcome Outcome
	// Handle is the result reference when Outcome is OutcomeSucceeded.
	Handle string
	// Reason is the failure reason when Outcome is OutcomeFailed.
	Reason string
	// Attempts is the number of ticks consumed.
	Attempts int
}

// TickFunc performs one status check and classifies the response.
type TickFunc func(ctx context.Context) Tick

// Poller repeatedly invokes a TickFunc on a fixed interval until a terminal
// tick or the attempt ceiling.
type Poller struct {
	interval    time.Duration
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option is a function that configures a Poller.
type Option func(*Poller)

// WithSleep replaces the sleep function. Intended for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Poller) {
		p.sleep = sleep
	}
}

// New creates a Poller with the given inter-poll interval and attempt ceiling.
func New(interval time.Duration, maxAttempts int, opts ...Option) *Poller {
	p := &Poller{
		interval:    interval,
		maxAttempts: maxAttempts,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until a terminal tick, the attempt ceiling, or context
// cancellation. Every tick, inconclusive ones included, counts toward the
// ceiling. The only error Run returns is the context's.
func (p *Poller) Run(ctx context.Context, tick TickFunc) (Result, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := p.sleep(ctx, p.interval); err != nil {
			return Result{}, fmt.Errorf("poll: cancelled: %w", err)
		}

		t := tick(ctx)
		switch t.State {
		case TickSucceeded:
			return Result{Outcome: OutcomeSucceeded, Handle: t.Handle, Attempts: attempt}, nil
		case TickFailed:
			return Result{Outcome: OutcomeFailed, Reason: t.Reason, Attempts: attempt}, nil
		case TickPending, TickInconclusive:
			// keep polling
		}
	}

	return Result{Outcome: OutcomeTimedOut, Attempts: p.maxAttempts}, nil
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
