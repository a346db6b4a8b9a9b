package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("service down")

func fail(ctx context.Context) error { return errDown }
func ok(ctx context.Context) error   { return nil }

func TestOpensAfterFailureThreshold(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		assert.Equal(t, errDown, cb.Execute(ctx, fail))
	}
	assert.True(t, cb.IsClosed())

	assert.Equal(t, errDown, cb.Execute(ctx, fail))
	assert.True(t, cb.IsOpen())

	// Open circuit short-circuits without calling the function.
	called := false
	err := cb.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestSuccessResetsConsecutiveFailures(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))
	ctx := context.Background()

	cb.Execute(ctx, fail)
	cb.Execute(ctx, fail)
	cb.Execute(ctx, ok)
	cb.Execute(ctx, fail)
	cb.Execute(ctx, fail)

	assert.True(t, cb.IsClosed())
}

func TestHalfOpenRecovery(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithTimeout(10*time.Millisecond),
		WithMaxHalfOpenRequests(5),
	)
	ctx := context.Background()

	cb.Execute(ctx, fail)
	require.True(t, cb.IsOpen())

	time.Sleep(15 * time.Millisecond)

	// First probe transitions to half-open; two successes close it.
	require.NoError(t, cb.Execute(ctx, ok))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Execute(ctx, ok))
	assert.True(t, cb.IsClosed())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithTimeout(10*time.Millisecond),
	)
	ctx := context.Background()

	cb.Execute(ctx, fail)
	time.Sleep(15 * time.Millisecond)

	assert.Equal(t, errDown, cb.Execute(ctx, fail))
	assert.True(t, cb.IsOpen())
}

func TestHalfOpenLimitsProbes(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithSuccessThreshold(10),
		WithTimeout(5*time.Millisecond),
		WithMaxHalfOpenRequests(1),
	)
	ctx := context.Background()

	cb.Execute(ctx, fail)
	time.Sleep(10 * time.Millisecond)

	// The single allowed probe is in flight budget-wise; a second request
	// must be rejected.
	require.NoError(t, cb.Execute(ctx, ok))
	if cb.State() == StateHalfOpen {
		err := cb.Execute(ctx, ok)
		assert.ErrorIs(t, err, ErrTooManyRequests)
	}
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []string
	cb := New("test",
		WithFailureThreshold(1),
		WithOnStateChange(func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)

	cb.Execute(context.Background(), fail)
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestExecuteWithFallback(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))
	ctx := context.Background()

	cb.Execute(ctx, fail)
	require.True(t, cb.IsOpen())

	err := cb.ExecuteWithFallback(ctx, fail, func(err error) error {
		return nil // degrade gracefully
	})
	assert.NoError(t, err)

	// Non-circuit errors pass through untouched.
	cb.Reset()
	err = cb.ExecuteWithFallback(ctx, fail, func(err error) error { return nil })
	assert.Equal(t, errDown, err)
}

func TestIsFailureFilter(t *testing.T) {
	// Errors the filter does not count must not open the circuit.
	cb := New("test",
		WithFailureThreshold(1),
		WithIsFailure(func(err error) bool { return false }),
	)

	cb.Execute(context.Background(), fail)
	assert.True(t, cb.IsClosed())
}

func TestReset(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))
	cb.Execute(context.Background(), fail)
	require.True(t, cb.IsOpen())

	cb.Reset()
	assert.True(t, cb.IsClosed())
	assert.Equal(t, Counts{}, cb.Counts())
}
