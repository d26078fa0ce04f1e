package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zhexport/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func() (T, error)

// Policy describes how failed operations are retried. Delays grow
// geometrically: BaseDelay, BaseDelay*BackoffFactor, and so on.
type Policy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	BackoffFactor float64
}

// DefaultPolicy returns a retry policy with sensible defaults
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		BaseDelay:     2 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Delay returns the wait before the given retry. attempt is 1-based: the
// delay after the first failure is Delay(1) == BaseDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= p.BackoffFactor
	}
	return time.Duration(d)
}

// SleepFunc pauses for the given duration, honoring cancellation.
// Injectable so tests can run without wall-clock waits.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc
func Sleep(ctx context.Context, d time.Duration) error {
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

// Retrier executes operations under a Policy
type Retrier struct {
	policy  Policy
	retryIf func(error) bool
	sleep   SleepFunc
	log     logger.Logger
}

// Option configures a Retrier
type Option func(*Retrier)

// WithRetryIf sets the predicate deciding whether an error is retried
func WithRetryIf(fn func(error) bool) Option {
	return func(r *Retrier) { r.retryIf = fn }
}

// WithSleep replaces the delay function, letting tests inject a fake clock
func WithSleep(fn SleepFunc) Option {
	return func(r *Retrier) { r.sleep = fn }
}

// WithLogger sets the logger used for retry attempts
func WithLogger(log logger.Logger) Option {
	return func(r *Retrier) { r.log = log }
}

// New creates a Retrier for the given policy
func New(policy Policy, opts ...Option) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.BackoffFactor < 1 {
		policy.BackoffFactor = 1
	}
	r := &Retrier{
		policy:  policy,
		retryIf: defaultRetryIf,
		sleep:   Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// defaultRetryIf retries everything except context cancellation
func defaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// Do executes op, retrying per the policy until it succeeds, the error is
// not retryable, the attempts run out, or ctx is cancelled.
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op()
		if err == nil {
			if attempt > 1 && r.log != nil {
				r.log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		lastErr = err

		if !r.retryIf(err) {
			return err
		}
		if attempt == r.policy.MaxAttempts {
			break
		}

		delay := r.policy.Delay(attempt)
		if r.log != nil {
			r.log.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"max_attempts": r.policy.MaxAttempts,
				"delay_ms":     delay.Milliseconds(),
				"error":        err.Error(),
			})
		}
		if err := r.sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", r.policy.MaxAttempts, lastErr)
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](ctx context.Context, r *Retrier, op OperationWithResult[T]) (T, error) {
	var result T
	err := r.Do(ctx, func() error {
		var opErr error
		result, opErr = op()
		return opErr
	})
	return result, err
}
