package achievement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-cohort/compass-engagement/internal/domain/engagement"
)

func TestCriteriaSatisfiedBy(t *testing.T) {
	criteria := Criteria{MinTotalPosts: 10, MinLongestStreak: 7}

	totals := engagement.Totals{TotalPosts: 10}
	assert.False(t, criteria.SatisfiedBy(totals, 6))
	assert.True(t, criteria.SatisfiedBy(totals, 7))

	totals.TotalPosts = 9
	assert.False(t, criteria.SatisfiedBy(totals, 30))
}

func TestCriteriaZeroFieldsIgnored(t *testing.T) {
	// Only the login threshold is set; everything else at zero must not gate.
	criteria := Criteria{MinTotalLogins: 1}

	assert.True(t, criteria.SatisfiedBy(engagement.Totals{TotalLogins: 1}, 0))
	assert.False(t, criteria.SatisfiedBy(engagement.Totals{}, 0))
}

func TestCatalogEntriesAreWellFormed(t *testing.T) {
	seen := make(map[string]bool)
	for _, a := range Catalog() {
		assert.NotEmpty(t, a.ID)
		assert.NotEmpty(t, a.Name)
		assert.Greater(t, a.Points, 0, a.ID)
		assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
		seen[a.ID] = true

		// Every entry must be earnable: at least one criterion set.
		assert.NotEqual(t, Criteria{}, a.Criteria, a.ID)
	}
}

func TestFromCatalog(t *testing.T) {
	a, err := FromCatalog("first-steps")
	require.NoError(t, err)
	assert.Equal(t, "First Steps", a.Name)

	_, err = FromCatalog("does-not-exist")
	assert.ErrorIs(t, err, ErrNotInCatalog)
}

func TestNewUserAchievementValidation(t *testing.T) {
	_, err := NewUserAchievement("", "first-steps", time.Now())
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, err = NewUserAchievement("u1", "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidID)

	ua, err := NewUserAchievement("u1", "first-steps", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "u1", ua.UserID)
}

func TestTotalPoints(t *testing.T) {
	catalog := []Achievement{
		{ID: "a", Points: 5},
		{ID: "b", Points: 25},
	}

	assert.Equal(t, 30, TotalPoints(catalog, []string{"a", "b"}))
	assert.Equal(t, 5, TotalPoints(catalog, []string{"a", "unknown"}))
	assert.Equal(t, 0, TotalPoints(catalog, nil))
}
