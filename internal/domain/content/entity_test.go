package content

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pending(t *testing.T) *Generated {
	t.Helper()
	g, err := NewGenerated("c1", TypeHeroMessage, json.RawMessage(`{"text":"hi"}`), CommunityContext{}, time.Now().UTC())
	require.NoError(t, err)
	return g
}

func TestNewGeneratedValidation(t *testing.T) {
	payload := json.RawMessage(`{}`)

	_, err := NewGenerated("", TypeHeroMessage, payload, CommunityContext{}, time.Now())
	assert.Error(t, err)

	_, err = NewGenerated("c1", "billboard", payload, CommunityContext{}, time.Now())
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = NewGenerated("c1", TypeHeroMessage, nil, CommunityContext{}, time.Now())
	assert.ErrorIs(t, err, ErrEmptyPayload)

	g, err := NewGenerated("c1", TypeHeroMessage, payload, CommunityContext{}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, g.Status)
	assert.False(t, g.Active)
}

func TestApprove(t *testing.T) {
	g := pending(t)

	at := time.Now().UTC()
	require.NoError(t, g.Approve("admin-1", at))

	assert.Equal(t, StatusApproved, g.Status)
	assert.True(t, g.Approved)
	assert.True(t, g.Active)
	assert.Equal(t, "admin-1", g.ApprovedBy)
	require.NotNil(t, g.ApprovedAt)
	assert.Equal(t, at, *g.ApprovedAt)
}

func TestApproveTwice(t *testing.T) {
	g := pending(t)
	require.NoError(t, g.Approve("admin-1", time.Now()))

	assert.ErrorIs(t, g.Approve("admin-2", time.Now()), ErrAlreadyApproved)
	assert.Equal(t, "admin-1", g.ApprovedBy)
}

func TestApproveRequiresApprover(t *testing.T) {
	g := pending(t)
	assert.ErrorIs(t, g.Approve("", time.Now()), ErrEmptyApprover)
	assert.Equal(t, StatusPending, g.Status)
}

func TestApproveRejected(t *testing.T) {
	g := pending(t)
	require.NoError(t, g.Reject())

	assert.ErrorIs(t, g.Approve("admin-1", time.Now()), ErrNotPending)
	assert.False(t, g.Active)
}

func TestReject(t *testing.T) {
	g := pending(t)
	require.NoError(t, g.Reject())
	assert.Equal(t, StatusRejected, g.Status)

	assert.ErrorIs(t, g.Reject(), ErrNotPending)
}

func TestContentTypeIsValid(t *testing.T) {
	assert.True(t, TypeHeroMessage.IsValid())
	assert.True(t, TypeFullDashboard.IsValid())
	assert.False(t, Type("").IsValid())
}
