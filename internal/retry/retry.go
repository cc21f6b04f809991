// Package retry re-invokes an arbitrary action with linear or exponential
// backoff. The delay schedule is provided by cenkalti/backoff; this wrapper
// pins the schedule to the application's contract (exponential delay is
// base * 2^(attempt-1), linear is a constant base delay).
package retry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Strategy selects how the inter-attempt delay grows.
type Strategy string

const (
	Linear      Strategy = "linear"
	Exponential Strategy = "exponential"
)

// Config controls a Retrier.
type Config struct {
	// MaxAttempts is the total number of invocations, first attempt included.
	MaxAttempts int
	// Delay is the base delay between attempts.
	Delay time.Duration
	// Strategy is Linear or Exponential.
	Strategy Strategy
	// OnRetry is invoked before each retry (not before the first attempt)
	// with the upcoming attempt number and the error that triggered it.
	OnRetry func(attempt int, err error)
	// OnExhausted is invoked once when all attempts have failed.
	OnExhausted func(err error)
}

// DefaultConfig mirrors the documented defaults: 3 attempts, 1s base delay,
// exponential growth.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		Delay:       time.Second,
		Strategy:    Exponential,
	}
}

// Retrier runs actions under a retry policy. It exposes progress for UI
// feedback but does not guard against overlapping Do calls; callers must
// prevent re-entrancy themselves.
type Retrier struct {
	cfg      Config
	retrying atomic.Bool
	attempts atomic.Int32
}

// New creates a Retrier, filling unset config fields with defaults.
func New(cfg Config) *Retrier {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Delay <= 0 {
		cfg.Delay = def.Delay
	}
	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}
	return &Retrier{cfg: cfg}
}

// IsRetrying reports whether a Do call is in flight past its first attempt.
func (r *Retrier) IsRetrying() bool { return r.retrying.Load() }

// AttemptCount returns the number of attempts made by the current or most
// recent Do call.
func (r *Retrier) AttemptCount() int { return int(r.attempts.Load()) }

func (r *Retrier) newBackOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff
	switch r.cfg.Strategy {
	case Linear:
		b = backoff.NewConstantBackOff(r.cfg.Delay)
	default:
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = r.cfg.Delay
		eb.Multiplier = 2
		eb.RandomizationFactor = 0
		eb.MaxInterval = time.Hour
		eb.MaxElapsedTime = 0
		eb.Reset()
		b = eb
	}
	b = backoff.WithMaxRetries(b, uint64(r.cfg.MaxAttempts-1))
	return backoff.WithContext(b, ctx)
}

// Do runs action until it succeeds, the attempt budget is exhausted, or ctx
// is cancelled. The last failure is returned after exhaustion.
func (r *Retrier) Do(ctx context.Context, action func() error) error {
	r.attempts.Store(0)
	r.retrying.Store(false)
	defer r.retrying.Store(false)

	// Attempt numbering for callbacks is kept on a local counter; the atomic
	// only feeds AttemptCount, which concurrent readers may poll mid-attempt.
	attempts := 0
	op := func() error {
		attempts++
		r.attempts.Store(int32(attempts))
		return action()
	}

	notify := func(err error, _ time.Duration) {
		r.retrying.Store(true)
		if r.cfg.OnRetry != nil {
			r.cfg.OnRetry(attempts+1, err)
		}
	}

	err := backoff.RetryNotify(op, r.newBackOff(ctx), notify)
	if err != nil && r.cfg.OnExhausted != nil {
		r.cfg.OnExhausted(err)
	}
	return err
}

// Do is a one-shot helper around a throwaway Retrier.
func Do(ctx context.Context, cfg Config, action func() error) error {
	return New(cfg).Do(ctx, action)
}
