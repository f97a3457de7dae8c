package portal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(timeout time.Duration) WaitPolicy {
	return WaitPolicy{Timeout: timeout, Interval: time.Millisecond, MaxInterval: 5 * time.Millisecond, Multiplier: 2}
}

func TestWaitPolicy_Backoff(t *testing.T) {
	p := WaitPolicy{Interval: 100 * time.Millisecond, MaxInterval: time.Second, Multiplier: 2}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{60, time.Second},
		{5000, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, p.backoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestWaitPolicy_Defaults(t *testing.T) {
	p := WaitPolicy{}.withDefaults()
	assert.Equal(t, 250*time.Millisecond, p.Interval)
	assert.Equal(t, p.Interval, p.MaxInterval)
	assert.Equal(t, 1.5, p.Multiplier)

	assert.Equal(t, 7*time.Second, WaitPolicy{}.timeoutOr(7*time.Second))
	assert.Equal(t, time.Second, WaitPolicy{Timeout: time.Second}.timeoutOr(7*time.Second))
}

func TestPoll_SucceedsWhenConditionHolds(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), fastPolicy(time.Second), func(context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPoll_ErrorsCountAsMisses(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), fastPolicy(time.Second), func(context.Context) (bool, error) {
		calls++
		if calls < 3 {
			return false, errors.New("execution context was destroyed")
		}
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPoll_Timeout(t *testing.T) {
	err := Poll(context.Background(), fastPolicy(30*time.Millisecond), func(context.Context) (bool, error) {
		return false, errors.New("node not found")
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWaitTimeout))
	assert.Contains(t, err.Error(), "node not found")
}

func TestPoll_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Poll(ctx, fastPolicy(time.Second), func(context.Context) (bool, error) {
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrWaitTimeout))
}

func TestPollStable(t *testing.T) {
	values := []int{0, 3, 5, 5}
	i := 0
	got, err := PollStable(context.Background(), fastPolicy(time.Second), func(context.Context) (int, error) {
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v, nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, got)
}

func TestPollStable_Accept(t *testing.T) {
	// Stable at 10 first, but only a different value is acceptable.
	values := []int{10, 10, 10, 42, 42}
	i := 0
	got, err := PollStable(context.Background(), fastPolicy(time.Second), func(context.Context) (int, error) {
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v, nil
	}, func(v int) bool { return v != 10 })
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestPollStable_NeverSettles(t *testing.T) {
	n := 0
	_, err := PollStable(context.Background(), fastPolicy(20*time.Millisecond), func(context.Context) (int, error) {
		n++
		return n, nil
	}, nil)
	assert.True(t, errors.Is(err, ErrWaitTimeout))
}
