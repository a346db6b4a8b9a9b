package evaluator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-cohort/compass-engagement/internal/domain/achievement"
	"github.com/compass-cohort/compass-engagement/internal/domain/engagement"
	"github.com/compass-cohort/compass-engagement/internal/domain/flag"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
	"github.com/compass-cohort/compass-engagement/pkg/dayclock"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustDay(s string) dayclock.Day {
	d, err := dayclock.ParseDay(s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

// ── fakes ─────────────────────────────────────────────────────────────────────

type fakeSnapshots struct {
	snapshots []*engagement.Snapshot
	totals    engagement.Totals
}

func (f *fakeSnapshots) ApplyIncrement(ctx context.Context, userID engagement.UserID, day dayclock.Day, kind engagement.EventKind, occurredAt time.Time) error {
	return nil
}

func (f *fakeSnapshots) RaiseModulesWatermark(ctx context.Context, userID engagement.UserID, day dayclock.Day, completed int) error {
	return nil
}

func (f *fakeSnapshots) GetByUserAndDay(ctx context.Context, userID engagement.UserID, day dayclock.Day) (*engagement.Snapshot, error) {
	return nil, shared.ErrSnapshotNotFound
}

func (f *fakeSnapshots) ListRecentByUser(ctx context.Context, userID engagement.UserID, limit int) ([]*engagement.Snapshot, error) {
	return f.snapshots, nil
}

func (f *fakeSnapshots) ListRange(ctx context.Context, userID engagement.UserID, from, to dayclock.Day) ([]*engagement.Snapshot, error) {
	return f.snapshots, nil
}

func (f *fakeSnapshots) Totals(ctx context.Context, userID engagement.UserID) (engagement.Totals, error) {
	return f.totals, nil
}

func (f *fakeSnapshots) CountActiveUsersSince(ctx context.Context, since dayclock.Day) (int, error) {
	return 0, nil
}

func (f *fakeSnapshots) CountUsers(ctx context.Context) (int, error) { return 0, nil }

func (f *fakeSnapshots) ListUserIDsSince(ctx context.Context, since dayclock.Day) ([]engagement.UserID, error) {
	return nil, nil
}

type fakeFlags struct {
	created    []*flag.Flag
	unresolved map[flag.Type]bool
}

func (f *fakeFlags) Create(ctx context.Context, fl *flag.Flag) error {
	f.created = append(f.created, fl)
	return nil
}

func (f *fakeFlags) GetByID(ctx context.Context, id string) (*flag.Flag, error) {
	return nil, shared.ErrFlagNotFound
}

func (f *fakeFlags) SaveResolution(ctx context.Context, fl *flag.Flag) error { return nil }

func (f *fakeFlags) HasUnresolved(ctx context.Context, userID string, flagType flag.Type, since time.Time) (bool, error) {
	return f.unresolved[flagType], nil
}

func (f *fakeFlags) ListByUser(ctx context.Context, userID string, limit int) ([]*flag.Flag, error) {
	return f.created, nil
}

func (f *fakeFlags) CountUnresolvedByType(ctx context.Context) (map[flag.Type]int, error) {
	return nil, nil
}

type fakeCommitments struct {
	stats flag.CommitmentStats
	err   error
}

func (f *fakeCommitments) CommitmentStats(ctx context.Context, userID string) (flag.CommitmentStats, error) {
	return f.stats, f.err
}

type fakeAwards struct {
	awarded []*achievement.UserAchievement
	have    map[string]bool
}

func (f *fakeAwards) Award(ctx context.Context, ua *achievement.UserAchievement) (bool, error) {
	if f.have[ua.AchievementID] {
		return false, nil
	}
	if f.have == nil {
		f.have = make(map[string]bool)
	}
	f.have[ua.AchievementID] = true
	f.awarded = append(f.awarded, ua)
	return true, nil
}

func (f *fakeAwards) ListEarned(ctx context.Context, userID string) ([]*achievement.UserAchievement, error) {
	return f.awarded, nil
}

func (f *fakeAwards) EarnedIDs(ctx context.Context, userID string) ([]string, error) {
	ids := make([]string, 0, len(f.awarded))
	for _, ua := range f.awarded {
		ids = append(ids, ua.AchievementID)
	}
	return ids, nil
}

type publisherSpy struct {
	events []shared.Event
}

func (p *publisherSpy) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

// ── flag engine ───────────────────────────────────────────────────────────────

func TestFlagEngineRaisesAndPublishes(t *testing.T) {
	today := mustDay("2026-03-10")
	clock := dayclock.NewFixed(today.Time().Add(12*time.Hour), time.UTC)

	snapshots := &fakeSnapshots{snapshots: []*engagement.Snapshot{
		{UserID: "u1", Day: mustDay("2026-03-01"), Logins: 1},
	}}
	flags := &fakeFlags{unresolved: map[flag.Type]bool{}}
	commitments := &fakeCommitments{stats: flag.CommitmentStats{Outstanding: 1}}
	pub := &publisherSpy{}

	engine := NewFlagEngine(snapshots, flags, commitments, pub, flag.DefaultPolicy(), clock, discard())

	raised, err := engine.Evaluate(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, raised, 1)

	assert.Equal(t, flag.TypeRed, raised[0].Type)
	assert.Equal(t, "u1", raised[0].UserID)
	require.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventFlagRaised, pub.events[0].EventType())
}

func TestFlagEngineDedupsUnresolvedFlags(t *testing.T) {
	today := mustDay("2026-03-10")
	clock := dayclock.NewFixed(today.Time().Add(12*time.Hour), time.UTC)

	snapshots := &fakeSnapshots{snapshots: []*engagement.Snapshot{
		{UserID: "u1", Day: mustDay("2026-03-01"), Logins: 1},
	}}
	// An unresolved red flag already exists inside the window.
	flags := &fakeFlags{unresolved: map[flag.Type]bool{flag.TypeRed: true}}
	commitments := &fakeCommitments{stats: flag.CommitmentStats{Outstanding: 1}}
	pub := &publisherSpy{}

	engine := NewFlagEngine(snapshots, flags, commitments, pub, flag.DefaultPolicy(), clock, discard())

	raised, err := engine.Evaluate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, raised)
	assert.Empty(t, flags.created)
	assert.Empty(t, pub.events)
}

func TestFlagEngineToleratesMissingCommitmentSignal(t *testing.T) {
	today := mustDay("2026-03-10")
	clock := dayclock.NewFixed(today.Time().Add(12*time.Hour), time.UTC)

	// Lurking pattern: logins but no posts or responses.
	var snaps []*engagement.Snapshot
	for i := 0; i < 6; i++ {
		snaps = append(snaps, &engagement.Snapshot{
			UserID: "u1",
			Day:    today.AddDays(-i),
			Logins: 1,
		})
	}
	snapshots := &fakeSnapshots{snapshots: snaps}
	flags := &fakeFlags{unresolved: map[flag.Type]bool{}}
	commitments := &fakeCommitments{err: errors.New("pairing service down")}
	pub := &publisherSpy{}

	engine := NewFlagEngine(snapshots, flags, commitments, pub, flag.DefaultPolicy(), clock, discard())

	raised, err := engine.Evaluate(context.Background(), "u1")
	require.NoError(t, err)

	// Yellow still fires without the red rule's external signal.
	require.Len(t, raised, 1)
	assert.Equal(t, flag.TypeYellow, raised[0].Type)
}

// ── achievement engine ────────────────────────────────────────────────────────

func TestAchievementEngineAwardsSatisfiedEntries(t *testing.T) {
	today := mustDay("2026-03-10")
	clock := dayclock.NewFixed(today.Time().Add(12*time.Hour), time.UTC)

	snapshots := &fakeSnapshots{totals: engagement.Totals{TotalPosts: 1, TotalLogins: 1}}
	awards := &fakeAwards{}
	pub := &publisherSpy{}

	engine := NewAchievementEngine(snapshots, awards, pub, clock, discard())

	earned, err := engine.Evaluate(context.Background(), "u1")
	require.NoError(t, err)
	require.NotEmpty(t, earned)
	assert.Len(t, pub.events, len(earned))

	// Re-running awards nothing new and stays quiet.
	pub.events = nil
	again, err := engine.Evaluate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Empty(t, pub.events)
}

// ── service ───────────────────────────────────────────────────────────────────

func TestServiceRunsBothEngines(t *testing.T) {
	today := mustDay("2026-03-10")
	clock := dayclock.NewFixed(today.Time().Add(12*time.Hour), time.UTC)

	snapshots := &fakeSnapshots{
		snapshots: []*engagement.Snapshot{{UserID: "u1", Day: mustDay("2026-03-01"), Logins: 1}},
		totals:    engagement.Totals{TotalLogins: 1},
	}
	flags := &fakeFlags{unresolved: map[flag.Type]bool{}}
	awards := &fakeAwards{}
	pub := &publisherSpy{}

	flagEngine := NewFlagEngine(snapshots, flags, &fakeCommitments{stats: flag.CommitmentStats{Outstanding: 1}}, pub, flag.DefaultPolicy(), clock, discard())
	achEngine := NewAchievementEngine(snapshots, awards, pub, clock, discard())
	svc := NewService(flagEngine, achEngine, time.Second, discard())

	require.NoError(t, svc.Evaluate(context.Background(), "u1"))
	assert.NotEmpty(t, flags.created)
	assert.NotEmpty(t, awards.awarded)
}
