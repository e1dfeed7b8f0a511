// Package retry wraps persistence operations with an exponential backoff
// policy. Every store call issued by the scheduling core goes through Do.
package retry

import (
	"context"
	"time"

	"github.com/4Lajf/grafikonator-6000/core/errs"
)

const (
	// DefaultMaxAttempts is the attempt budget applied when Options leaves
	// MaxAttempts at zero.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the first backoff delay applied when Options
	// leaves BaseDelay at zero.
	DefaultBaseDelay = time.Second
)

// SleepFunc blocks for the given duration or until the context is done.
// Tests inject a recording fake.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options tunes the retry policy.
type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       SleepFunc
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	if o.Sleep == nil {
		o.Sleep = sleep
	}
	return o
}

// Do runs op up to MaxAttempts times, sleeping base*2^(attempt-1) between
// attempts. The backoff is pure exponential, without jitter.
//
// Every failure is treated as retryable, including logically permanent ones
// such as a duplicate resource. Callers that need fail-fast semantics must
// pre-check instead of relying on Do to distinguish transient from fatal
// causes.
//
// Once the budget is exhausted the last failure is classified via
// errs.Classify and returned.
func Do(ctx context.Context, opts Options, op func(ctx context.Context) error) error {
	opts = opts.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := op(ctx); err != nil {
			lastErr = err
			if attempt == opts.MaxAttempts {
				break
			}
			delay := opts.BaseDelay * (1 << (attempt - 1))
			if serr := opts.Sleep(ctx, delay); serr != nil {
				// Context cancelled mid-backoff; surface the attempt's
				// failure rather than the cancellation.
				break
			}
			continue
		}
		return nil
	}
	return errs.Classify(lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
