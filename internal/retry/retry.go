// Package retry runs an operation a bounded number of times with exponential
// backoff between attempts.
package retry

import (
	"context"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

const (
	DefaultMaxAttempts = 3
	DefaultMultiplier  = time.Second
)

// Operation is one attempt. attempt starts at 1.
type Operation[T any] func(ctx context.Context, attempt int) (T, error)

// Policy bounds a retry sequence. The wait after attempt n (0-indexed) is
// Multiplier * 2^n, so the defaults wait 1s then 2s across three attempts.
type Policy struct {
	MaxAttempts int
	Multiplier  time.Duration
}

// DefaultPolicy is three attempts with a one second multiplier.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Multiplier: DefaultMultiplier}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Multiplier <= 0 {
		// go-retry rejects non-positive bases.
		p.Multiplier = time.Nanosecond
	}
	return p
}

// Backoff returns a fresh backoff for one retry sequence. Backoffs are stateful
// and must not be shared between sequences.
func (p Policy) Backoff() goretry.Backoff {
	p = p.normalized()
	return goretry.WithMaxRetries(uint64(p.MaxAttempts-1), goretry.NewExponential(p.Multiplier))
}

// Do runs op until it succeeds or the policy is exhausted, and returns the last
// error in the latter case. Every error returned by op is retried. If ctx is
// cancelled while waiting, Do returns ctx.Err() without a further attempt.
func Do[T any](ctx context.Context, p Policy, op Operation[T]) (T, error) {
	var (
		result  T
		attempt int
	)
	err := goretry.Do(ctx, p.Backoff(), func(ctx context.Context) error {
		attempt++
		v, err := op(ctx, attempt)
		if err != nil {
			return goretry.RetryableError(err)
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Wrap returns op wrapped in the policy.
func Wrap[T any](p Policy, op Operation[T]) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return Do(ctx, p, op)
	}
}
