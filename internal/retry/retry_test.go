package retry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSucceedsFirstAttempt(t *testing.T) {
	r := New(Config{MaxAttempts: 3, Delay: time.Millisecond})

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, r.AttemptCount())
	assert.False(t, r.IsRetrying())
}

func TestRetriesUntilSuccess(t *testing.T) {
	r := New(Config{MaxAttempts: 5, Delay: time.Millisecond})

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, r.AttemptCount())
}

func TestExhaustionReturnsLastError(t *testing.T) {
	lastErr := errors.New("still failing")

	var exhausted error
	r := New(Config{
		MaxAttempts: 3,
		Delay:       time.Millisecond,
		OnExhausted: func(err error) { exhausted = err },
	})

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return lastErr
	})

	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, lastErr)
	assert.ErrorIs(t, exhausted, lastErr)
}

func TestOnRetryReportsUpcomingAttempt(t *testing.T) {
	var attempts []int
	r := New(Config{
		MaxAttempts: 4,
		Delay:       time.Millisecond,
		OnRetry:     func(attempt int, err error) { attempts = append(attempts, attempt) },
	})

	_ = r.Do(context.Background(), func() error { return errors.New("nope") })

	// Called before attempts 2, 3 and 4, never before the first.
	assert.Equal(t, []int{2, 3, 4}, attempts)
}

func TestOnRetryStableUnderConcurrentAttemptReads(t *testing.T) {
	var attempts []int
	r := New(Config{
		MaxAttempts: 4,
		Delay:       time.Millisecond,
		OnRetry:     func(attempt int, err error) { attempts = append(attempts, attempt) },
	})

	// Poll progress from another goroutine the whole time, as a UI would.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_ = r.AttemptCount()
				_ = r.IsRetrying()
			}
		}
	}()

	_ = r.Do(context.Background(), func() error { return errors.New("nope") })
	close(stop)
	wg.Wait()

	assert.Equal(t, []int{2, 3, 4}, attempts)
	assert.Equal(t, 4, r.AttemptCount())
}

func TestExponentialDelaysGrow(t *testing.T) {
	base := 20 * time.Millisecond
	r := New(Config{MaxAttempts: 3, Delay: base, Strategy: Exponential})

	var stamps []time.Time
	_ = r.Do(context.Background(), func() error {
		stamps = append(stamps, time.Now())
		return errors.New("nope")
	})

	require.Len(t, stamps, 3)
	first := stamps[1].Sub(stamps[0])
	second := stamps[2].Sub(stamps[1])

	// base, then base*2; allow generous slack for scheduling jitter.
	assert.GreaterOrEqual(t, first, base)
	assert.GreaterOrEqual(t, second, 2*base)
	assert.Greater(t, second, first)
}

func TestLinearDelaysConstant(t *testing.T) {
	base := 20 * time.Millisecond
	r := New(Config{MaxAttempts: 3, Delay: base, Strategy: Linear})

	var stamps []time.Time
	_ = r.Do(context.Background(), func() error {
		stamps = append(stamps, time.Now())
		return errors.New("nope")
	})

	require.Len(t, stamps, 3)
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		assert.GreaterOrEqual(t, gap, base)
		assert.Less(t, gap, 10*base)
	}
}

func TestContextCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Do(ctx, Config{MaxAttempts: 10, Delay: 50 * time.Millisecond}, func() error {
		calls++
		cancel()
		return errors.New("nope")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDefaultsFillUnsetFields(t *testing.T) {
	r := New(Config{})
	assert.Equal(t, 3, r.cfg.MaxAttempts)
	assert.Equal(t, time.Second, r.cfg.Delay)
	assert.Equal(t, Exponential, r.cfg.Strategy)
}
