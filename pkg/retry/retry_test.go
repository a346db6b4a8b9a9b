package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetrier(attempts int) *Retrier {
	return New(
		WithMaxAttempts(attempts),
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(2*time.Millisecond),
		WithJitter(0),
	)
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := fastRetrier(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesRetryableErrors(t *testing.T) {
	calls := 0
	err := fastRetrier(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("flaky"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	sentinel := errors.New("bad request")
	calls := 0
	err := fastRetrier(5).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(sentinel)
	})

	assert.Equal(t, sentinel, err)
	assert.Equal(t, 1, calls)
}

func TestDoDoesNotRetryPlainErrors(t *testing.T) {
	calls := 0
	plain := errors.New("unclassified")
	err := fastRetrier(5).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return plain
	})

	assert.Equal(t, plain, err)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	inner := errors.New("still down")
	calls := 0
	err := fastRetrier(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Retryable(inner)
	})

	assert.Equal(t, inner, err)
	assert.Equal(t, 3, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	retrier := New(
		WithMaxAttempts(10),
		WithInitialDelay(50*time.Millisecond),
		WithJitter(0),
	)
	err := retrier.Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return Retryable(errors.New("flaky"))
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoWithData(t *testing.T) {
	calls := 0
	got, err := DoWithData(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", Retryable(errors.New("flaky"))
		}
		return "payload", nil
	}, WithMaxAttempts(2), WithInitialDelay(time.Millisecond), WithJitter(0))

	require.NoError(t, err)
	assert.Equal(t, "payload", got)
}

func TestErrorClassification(t *testing.T) {
	inner := errors.New("boom")

	assert.True(t, IsRetryable(Retryable(inner)))
	assert.False(t, IsRetryable(Permanent(inner)))
	assert.True(t, IsPermanent(Permanent(inner)))
	assert.ErrorIs(t, Retryable(inner), inner)

	assert.NoError(t, Retryable(nil))
	assert.NoError(t, Permanent(nil))
}

func TestCalculateDelayIsCappedAndGrows(t *testing.T) {
	r := New(
		WithInitialDelay(10*time.Millisecond),
		WithMaxDelay(40*time.Millisecond),
		WithMultiplier(2.0),
		WithJitter(0),
	)

	assert.Equal(t, 10*time.Millisecond, r.calculateDelay(1))
	assert.Equal(t, 20*time.Millisecond, r.calculateDelay(2))
	assert.Equal(t, 40*time.Millisecond, r.calculateDelay(3))
	assert.Equal(t, 40*time.Millisecond, r.calculateDelay(6))
}

func TestRetryIfOverridesClassification(t *testing.T) {
	calls := 0
	err := New(
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithJitter(0),
		WithRetryIf(func(err error) bool { return true }),
	).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("plain but retried")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}
