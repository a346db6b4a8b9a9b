package flag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFlagValidation(t *testing.T) {
	now := time.Now().UTC()

	_, err := New("", "u1", TypeRed, "reason", nil, now)
	assert.Error(t, err)

	_, err = New("f1", "", TypeRed, "reason", nil, now)
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, err = New("f1", "u1", "purple", "reason", nil, now)
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = New("f1", "u1", TypeYellow, "", nil, now)
	assert.ErrorIs(t, err, ErrEmptyReason)

	f, err := New("f1", "u1", TypeGreen, "burst", nil, now)
	require.NoError(t, err)
	assert.NotNil(t, f.Context)
	assert.False(t, f.Resolved)
}

func TestFlagResolve(t *testing.T) {
	f, err := New("f1", "u1", TypeRed, "inactive", nil, time.Now().UTC())
	require.NoError(t, err)

	at := time.Now().UTC()
	require.NoError(t, f.Resolve("admin-1", "reached out by phone", at))

	assert.True(t, f.Resolved)
	assert.Equal(t, "admin-1", f.ResolvedBy)
	assert.Equal(t, "reached out by phone", f.ResolvedNotes)
	require.NotNil(t, f.ResolvedAt)
	assert.Equal(t, at, *f.ResolvedAt)
}

func TestFlagResolveTwice(t *testing.T) {
	f, err := New("f1", "u1", TypeRed, "inactive", nil, time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, f.Resolve("admin-1", "", time.Now()))
	assert.ErrorIs(t, f.Resolve("admin-2", "", time.Now()), ErrAlreadyResolved)
}

func TestFlagResolveRequiresResolver(t *testing.T) {
	f, err := New("f1", "u1", TypeRed, "inactive", nil, time.Now().UTC())
	require.NoError(t, err)

	assert.ErrorIs(t, f.Resolve("", "", time.Now()), ErrEmptyResolver)
	assert.False(t, f.Resolved)
}
