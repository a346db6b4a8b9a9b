package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotificationValidation(t *testing.T) {
	now := time.Now().UTC()

	_, err := New("", "u1", KindFlagRaised, "title", "", nil, now)
	assert.Error(t, err)

	_, err = New("n1", "", KindFlagRaised, "title", "", nil, now)
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, err = New("n1", "u1", "spam", "title", "", nil, now)
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = New("n1", "u1", KindAchievement, "", "", nil, now)
	assert.ErrorIs(t, err, ErrEmptyTitle)

	n, err := New("n1", "u1", KindAchievement, "Unlocked", "body", nil, now)
	require.NoError(t, err)
	assert.False(t, n.IsRead)
	assert.NotNil(t, n.Metadata)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	n, err := New("n1", "u1", KindFlagRaised, "title", "", nil, time.Now().UTC())
	require.NoError(t, err)

	first := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	n.MarkRead(first)
	require.NotNil(t, n.ReadAt)
	assert.Equal(t, first, *n.ReadAt)

	// A second mark must not move the read timestamp.
	n.MarkRead(first.Add(time.Hour))
	assert.Equal(t, first, *n.ReadAt)
}

func TestDedupByID(t *testing.T) {
	a := &Notification{ID: "a"}
	b := &Notification{ID: "b"}
	dup := &Notification{ID: "a"}

	got := DedupByID([]*Notification{a, b, dup})

	require.Len(t, got, 2)
	assert.Same(t, a, got[0])
	assert.Same(t, b, got[1])
}

func TestDedupByIDEmpty(t *testing.T) {
	assert.Empty(t, DedupByID(nil))
}

func TestDedupByIDLeavesInputIntact(t *testing.T) {
	a := &Notification{ID: "a"}
	dup := &Notification{ID: "a"}
	b := &Notification{ID: "b"}
	input := []*Notification{a, dup, b}

	got := DedupByID(input)

	require.Len(t, got, 2)
	assert.Same(t, a, got[0])
	assert.Same(t, b, got[1])

	// The caller's slice must not be reshuffled under it.
	assert.Same(t, a, input[0])
	assert.Same(t, dup, input[1])
	assert.Same(t, b, input[2])
}
