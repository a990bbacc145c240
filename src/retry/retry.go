// Package retry implements exponential backoff for fallible operations.
// Schedule with defaults: 5s -> 10s -> 20s -> 40s -> 60s (cap).
package retry

import (
	"context"
	"log"
	"time"

	"ktx/src/types"
)

type Operation func(ctx context.Context) error

// Options control the backoff schedule. A zero value for BaseDelay, MaxDelay
// or MaxRetries falls back to the corresponding default; RetryableKinds nil
// means every failure is retryable.
type Options struct {
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	MaxRetries     int
	RetryableKinds []types.ErrorKind
}

const (
	DefaultBaseDelay  = 5 * time.Second
	DefaultMaxDelay   = 60 * time.Second
	DefaultMaxRetries = 5
)

func (o Options) withDefaults() Options {
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	return o
}

func (o Options) retryable(err error) bool {
	if len(o.RetryableKinds) == 0 {
		return true
	}
	kind := types.KindOf(err)
	for _, k := range o.RetryableKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Delay returns the wait before retrying attempt k (0-indexed):
// min(base * 2^k, max).
func (o Options) Delay(attempt int) time.Duration {
	o = o.withDefaults()
	d := o.BaseDelay << uint(attempt)
	if d > o.MaxDelay || d <= 0 {
		d = o.MaxDelay
	}
	return d
}

// Do runs op, retrying on failure with exponential backoff. It performs at
// most MaxRetries+1 attempts and returns the last failure. A failure whose
// kind is not in RetryableKinds (when given) propagates immediately. The
// backoff wait is a select on the timer and ctx, so cancellation is honored
// between attempts.
func Do(ctx context.Context, op Operation, opts Options) error {
	opts = opts.withDefaults()

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if !opts.retryable(lastErr) {
			log.Printf("[Retry] 재시도 불가능한 오류 (attempt %d/%d): %v",
				attempt+1, opts.MaxRetries+1, lastErr)
			return lastErr
		}

		if attempt >= opts.MaxRetries {
			log.Printf("[Retry] 최대 재시도 횟수 초과 (%d회): %v",
				opts.MaxRetries+1, lastErr)
			return lastErr
		}

		delay := opts.Delay(attempt)
		log.Printf("[Retry] 재시도 %d/%d - %s 후 재시도 예정: %v",
			attempt+1, opts.MaxRetries, delay, lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

// Wrap is the declarative form of Do: it returns an operation that applies
// the identical backoff semantics every time it is invoked.
func Wrap(op Operation, opts Options) Operation {
	return func(ctx context.Context) error {
		return Do(ctx, op, opts)
	}
}
