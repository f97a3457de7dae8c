package portal

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rotisserie/eris"
)

// ErrWaitTimeout is returned when a condition does not hold within the
// policy's timeout.
var ErrWaitTimeout = eris.New("wait timed out")

// WaitPolicy bounds one page transition. The condition is polled with
// exponential backoff starting at Interval, multiplied by Multiplier after
// every miss and capped at MaxInterval, until Timeout elapses.
type WaitPolicy struct {
	Timeout     time.Duration
	Interval    time.Duration
	MaxInterval time.Duration
	Multiplier  float64
}

func (p WaitPolicy) withDefaults() WaitPolicy {
	if p.Interval <= 0 {
		p.Interval = 250 * time.Millisecond
	}
	if p.MaxInterval < p.Interval {
		p.MaxInterval = p.Interval
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1.5
	}
	return p
}

func (p WaitPolicy) timeoutOr(d time.Duration) time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return d
}

// backoff returns the delay before poll number attempt+1.
func (p WaitPolicy) backoff(attempt int) time.Duration {
	p = p.withDefaults()
	d := float64(p.Interval) * math.Pow(p.Multiplier, float64(attempt))
	if d > float64(p.MaxInterval) {
		return p.MaxInterval
	}
	return time.Duration(d)
}

// Poll evaluates cond until it reports true, the policy timeout elapses
// (ErrWaitTimeout) or ctx is cancelled. Errors from cond count as misses;
// the last one is attached to the timeout error.
func Poll(ctx context.Context, p WaitPolicy, cond func(ctx context.Context) (bool, error)) error {
	p = p.withDefaults()
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		ok, err := cond(ctx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}

		timer := time.NewTimer(p.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ctx.Err()
			}
			if lastErr != nil {
				return eris.Wrapf(ErrWaitTimeout, "after %s (last error: %v)", p.Timeout, lastErr)
			}
			return eris.Wrapf(ErrWaitTimeout, "after %s", p.Timeout)
		case <-timer.C:
		}
	}
}

// PollStable probes a value until two consecutive probes agree and accept
// reports true for it. It returns the settled value.
func PollStable[T comparable](ctx context.Context, p WaitPolicy, probe func(ctx context.Context) (T, error), accept func(T) bool) (T, error) {
	var (
		last    T
		settled T
		have    bool
	)
	err := Poll(ctx, p, func(ctx context.Context) (bool, error) {
		v, err := probe(ctx)
		if err != nil {
			return false, err
		}
		if have && v == last && (accept == nil || accept(v)) {
			settled = v
			return true, nil
		}
		last, have = v, true
		return false, nil
	})
	return settled, err
}
