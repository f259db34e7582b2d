package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocksentry/stocksentry/pkg/faults"
)

// noSleep records requested delays instead of waiting.
func noSleep(recorded *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*recorded = append(*recorded, d)
		return nil
	}
}

func retryableErr(msg string) error {
	return &faults.TransportError{StatusCode: 503, Message: msg}
}

func nonRetryableErr(msg string) error {
	return &faults.TransportError{StatusCode: 400, Message: msg}
}

func TestSchedule(t *testing.T) {
	s := DefaultSyncSchedule()

	assert.Equal(t, 4, s.MaxAttempts())
	assert.Equal(t, 5*time.Second, s.Delay(1))
	assert.Equal(t, 15*time.Second, s.Delay(2))
	assert.Equal(t, 30*time.Second, s.Delay(3))
	// Past the end the last delay repeats.
	assert.Equal(t, 30*time.Second, s.Delay(7))
}

func TestExponentialBackoff(t *testing.T) {
	b := DefaultAsyncBackoff()

	assert.Equal(t, 5, b.MaxAttempts())
	assert.Equal(t, 2*time.Second, b.Delay(1))
	assert.Equal(t, 4*time.Second, b.Delay(2))
	assert.Equal(t, 8*time.Second, b.Delay(3))
	assert.Equal(t, 60*time.Second, b.Delay(10), "capped at 60s")
	assert.Equal(t, 60*time.Second, b.Delay(40), "deep failure counts stay capped")
}

func TestExecutor_SucceedsAfterRetries(t *testing.T) {
	var delays []time.Duration
	var attempts int

	e := NewExecutor(DefaultSyncSchedule(), WithSleeper(noSleep(&delays)))

	err := e.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return retryableErr("flaky")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{5 * time.Second, 15 * time.Second}, delays)
}

func TestExecutor_NonRetryableFailsOnce(t *testing.T) {
	var delays []time.Duration
	var attempts int
	original := nonRetryableErr("bad request")

	e := NewExecutor(DefaultSyncSchedule(), WithSleeper(noSleep(&delays)))

	err := e.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return original
	})

	assert.Equal(t, 1, attempts, "non-retryable failure must not be retried")
	assert.Empty(t, delays)
	assert.Same(t, original, err, "the operation's error must surface unchanged")
}

func TestExecutor_ExhaustionSurfacesLastError(t *testing.T) {
	var delays []time.Duration
	var attempts int
	last := retryableErr("still down")

	e := NewExecutor(DefaultSyncSchedule(), WithSleeper(noSleep(&delays)))

	err := e.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return last
	})

	assert.Equal(t, 4, attempts, "schedule of 3 delays allows 4 attempts")
	assert.Equal(t, []time.Duration{5 * time.Second, 15 * time.Second, 30 * time.Second}, delays)
	assert.Same(t, last, err)
}

func TestExecutor_ObserverSeesEveryAttempt(t *testing.T) {
	type observed struct {
		attempt int
		delay   time.Duration
		failed  bool
	}
	var seen []observed
	var delays []time.Duration
	var attempts int

	e := NewExecutor(DefaultSyncSchedule(),
		WithSleeper(noSleep(&delays)),
		WithObserver(func(attempt int, delay time.Duration, err error) {
			seen = append(seen, observed{attempt, delay, err != nil})
		}),
	)

	err := e.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return retryableErr("flaky")
		}
		return nil
	})

	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.Equal(t, observed{1, 5 * time.Second, true}, seen[0])
	assert.Equal(t, observed{2, 0, false}, seen[1], "final success observed with zero delay")
}

func TestExecutor_CancellationSkipsRemainingWaits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var attempts int
	opErr := retryableErr("down")

	e := NewExecutor(DefaultSyncSchedule(),
		WithSleeper(func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}),
	)

	err := e.Do(ctx, func(ctx context.Context) error {
		attempts++
		return opErr
	})

	assert.Equal(t, 1, attempts, "no further attempts after cancellation")
	assert.Same(t, opErr, err, "cancellation surfaces the last operation error, not context.Canceled")
	assert.False(t, errors.Is(err, context.Canceled))
}

func TestExecutor_CustomClassifier(t *testing.T) {
	var attempts int
	e := NewExecutor(NewSchedule(time.Second),
		WithSleeper(noSleep(new([]time.Duration))),
		WithClassifier(func(err error) faults.Classification {
			return faults.Classification{Kind: faults.KindUnknown, Retryable: false}
		}),
	)

	err := e.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("anything")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoWithResult(t *testing.T) {
	var attempts int
	e := NewExecutor(DefaultSyncSchedule(), WithSleeper(noSleep(new([]time.Duration))))

	got, err := DoWithResult(context.Background(), e, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", retryableErr("flaky")
		}
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", got)
}
