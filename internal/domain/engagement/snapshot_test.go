package engagement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshotValidation(t *testing.T) {
	_, err := NewSnapshot("", day("2026-03-01"))
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, err = NewSnapshot("u1", day("2026-03-01"))
	assert.NoError(t, err)
}

func TestSnapshotApplyCounters(t *testing.T) {
	s, err := NewSnapshot("u1", day("2026-03-01"))
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, s.Apply(KindLogin, now, 0))
	require.NoError(t, s.Apply(KindLogin, now, 0))
	require.NoError(t, s.Apply(KindDiscussionPost, now, 0))
	require.NoError(t, s.Apply(KindResponse, now, 0))

	assert.Equal(t, 2, s.Logins)
	assert.Equal(t, 1, s.Posts)
	assert.Equal(t, 1, s.Responses)
	assert.Equal(t, 2, s.ContributionCount())
	assert.True(t, s.IsActive())
}

func TestSnapshotApplyWatermarkNeverLowers(t *testing.T) {
	s, err := NewSnapshot("u1", day("2026-03-01"))
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, s.Apply(KindLessonCompleted, now, 5))
	assert.Equal(t, 5, s.ModulesCompleted)

	// Out-of-order completion with a lower watermark.
	require.NoError(t, s.Apply(KindLessonCompleted, now, 3))
	assert.Equal(t, 5, s.ModulesCompleted)

	require.NoError(t, s.Apply(KindLessonCompleted, now, 8))
	assert.Equal(t, 8, s.ModulesCompleted)

	assert.ErrorIs(t, s.Apply(KindLessonCompleted, now, -1), ErrNegativeCounter)
}

func TestSnapshotApplyPartnerInteractionKeepsLatest(t *testing.T) {
	s, err := NewSnapshot("u1", day("2026-03-01"))
	require.NoError(t, err)

	earlier := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	later := time.Date(2026, time.March, 1, 17, 0, 0, 0, time.UTC)

	require.NoError(t, s.Apply(KindPartnerInteraction, later, 0))
	require.NoError(t, s.Apply(KindPartnerInteraction, earlier, 0))

	require.NotNil(t, s.LastPartnerInteraction)
	assert.Equal(t, later, *s.LastPartnerInteraction)
}

func TestSnapshotApplyUnknownKind(t *testing.T) {
	s, err := NewSnapshot("u1", day("2026-03-01"))
	require.NoError(t, err)

	assert.ErrorIs(t, s.Apply("teleport", time.Now(), 0), ErrUnknownKind)
}

func TestEventKindIsValid(t *testing.T) {
	assert.True(t, KindLogin.IsValid())
	assert.True(t, KindLessonCompleted.IsValid())
	assert.True(t, KindPartnerInteraction.IsValid())
	assert.False(t, EventKind("").IsValid())
	assert.False(t, EventKind("signup").IsValid())
}
