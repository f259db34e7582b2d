// Package retry implements a bounded-attempt executor driven by a delay
// policy and the fault classifier. Every attempt is observable through a
// caller-supplied hook so dispatch audits can record attempt counts.
package retry

import (
	"context"
	"time"

	"github.com/stocksentry/stocksentry/pkg/faults"
)

// Policy supplies the inter-attempt delay after the n-th failure and the
// total attempt bound.
type Policy interface {
	// Delay returns the wait before the next attempt, given the number of
	// failures so far (1-based).
	Delay(failures int) time.Duration
	// MaxAttempts returns the total number of attempts allowed.
	MaxAttempts() int
}

// Schedule is a policy backed by an ordered list of delays. The schedule
// gives inter-attempt delays after the 1st, 2nd, ... failures, so the total
// attempt bound is len(delays)+1. Past the end the last delay repeats.
type Schedule struct {
	delays []time.Duration
}

// NewSchedule builds a schedule policy from explicit delays.
func NewSchedule(delays ...time.Duration) Schedule {
	return Schedule{delays: delays}
}

// DefaultSyncSchedule is the delay schedule for the synchronous path.
func DefaultSyncSchedule() Schedule {
	return NewSchedule(5*time.Second, 15*time.Second, 30*time.Second)
}

// Delay implements Policy.
func (s Schedule) Delay(failures int) time.Duration {
	if len(s.delays) == 0 {
		return 0
	}
	idx := failures - 1
	if idx >= len(s.delays) {
		idx = len(s.delays) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return s.delays[idx]
}

// MaxAttempts implements Policy.
func (s Schedule) MaxAttempts() int {
	return len(s.delays) + 1
}

// ExponentialBackoff is a policy of capped exponential delays.
type ExponentialBackoff struct {
	Base     time.Duration
	Cap      time.Duration
	Attempts int
}

// DefaultAsyncBackoff is the backoff policy for the asynchronous path.
func DefaultAsyncBackoff() ExponentialBackoff {
	return ExponentialBackoff{
		Base:     1 * time.Second,
		Cap:      60 * time.Second,
		Attempts: 5,
	}
}

// Delay implements Policy: min(2^failures * base, cap).
func (b ExponentialBackoff) Delay(failures int) time.Duration {
	if failures < 1 {
		failures = 1
	}
	// Shift guard: past 2^20 the cap has long been hit.
	if failures > 20 {
		return b.Cap
	}
	d := b.Base << uint(failures)
	if d > b.Cap || d <= 0 {
		return b.Cap
	}
	return d
}

// MaxAttempts implements Policy.
func (b ExponentialBackoff) MaxAttempts() int {
	return b.Attempts
}

// AttemptObserver is invoked after every attempt, success or failure, with
// the attempt number, the delay that will precede the next attempt (zero
// when none follows), and the attempt's error (nil on success).
type AttemptObserver func(attempt int, delay time.Duration, err error)

// Classifier decides retry eligibility for a failure.
type Classifier func(err error) faults.Classification

// Executor drives bounded retries around an operation.
type Executor struct {
	policy   Policy
	classify Classifier
	observer AttemptObserver

	// sleep is injectable for tests; the default waits on a timer or
	// context cancellation.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures an Executor.
type Option func(*Executor)

// WithObserver registers a per-attempt hook.
func WithObserver(observer AttemptObserver) Option {
	return func(e *Executor) { e.observer = observer }
}

// WithClassifier overrides the default fault classifier.
func WithClassifier(classify Classifier) Option {
	return func(e *Executor) { e.classify = classify }
}

// WithSleeper overrides the wait function. Tests use this to record delays
// without waiting.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) { e.sleep = sleep }
}

// NewExecutor creates an Executor for the given policy.
func NewExecutor(policy Policy, opts ...Option) *Executor {
	e := &Executor{
		policy:   policy,
		classify: faults.Classify,
		sleep:    defaultSleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs the operation with bounded retries. A non-retryable failure or an
// exhausted attempt budget propagates the operation's last error unchanged.
// Context cancellation aborts pending waits promptly; the in-flight attempt
// is never interrupted, and the last error is surfaced.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := DoWithResult(ctx, e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoWithResult runs an operation returning a value with bounded retries.
// Semantics match Executor.Do.
func DoWithResult[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := e.policy.MaxAttempts()
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			e.observe(attempt, 0, nil)
			return result, nil
		}
		lastErr = err

		classification := e.classify(err)
		if !classification.Retryable || attempt == maxAttempts {
			e.observe(attempt, 0, err)
			return zero, err
		}

		delay := e.policy.Delay(attempt)
		e.observe(attempt, delay, err)

		if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
			// Shutdown requested: skip the remaining attempts and
			// surface the operation's last error.
			return zero, lastErr
		}
	}
	return zero, lastErr
}

func (e *Executor) observe(attempt int, delay time.Duration, err error) {
	if e.observer != nil {
		e.observer(attempt, delay, err)
	}
}
