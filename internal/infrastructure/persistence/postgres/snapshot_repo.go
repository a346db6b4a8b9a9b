package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/compass-cohort/compass-engagement/internal/domain/engagement"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
	"github.com/compass-cohort/compass-engagement/pkg/dayclock"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT REPOSITORY IMPLEMENTATION
// Counter updates are single-statement upserts so concurrent recorders can
// never lose an increment; there is no read-modify-write anywhere here.
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotRepository implements engagement.Repository for PostgreSQL.
type SnapshotRepository struct {
	conn *Connection
	loc  *time.Location
}

// NewSnapshotRepository creates a new SnapshotRepository. loc is the platform
// time zone used when scanning DATE columns back into days.
func NewSnapshotRepository(conn *Connection, loc *time.Location) *SnapshotRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &SnapshotRepository{conn: conn, loc: loc}
}

// ApplyIncrement records one counting event via increment-or-initialize
// upsert on the (user_id, day) primary key.
func (r *SnapshotRepository) ApplyIncrement(ctx context.Context, userID engagement.UserID, day dayclock.Day, kind engagement.EventKind, occurredAt time.Time) error {
	var query string

	switch kind {
	case engagement.KindLogin:
		query = `
			INSERT INTO daily_snapshots (user_id, day, logins, updated_at)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (user_id, day) DO UPDATE
			SET logins = daily_snapshots.logins + 1, updated_at = $3
		`
	case engagement.KindDiscussionPost:
		query = `
			INSERT INTO daily_snapshots (user_id, day, posts, updated_at)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (user_id, day) DO UPDATE
			SET posts = daily_snapshots.posts + 1, updated_at = $3
		`
	case engagement.KindResponse:
		query = `
			INSERT INTO daily_snapshots (user_id, day, responses, updated_at)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (user_id, day) DO UPDATE
			SET responses = daily_snapshots.responses + 1, updated_at = $3
		`
	case engagement.KindPartnerInteraction:
		// Keeps the later of the stored and incoming timestamps so
		// out-of-order delivery cannot move the marker backwards.
		query = `
			INSERT INTO daily_snapshots (user_id, day, last_partner_interaction, updated_at)
			VALUES ($1, $2, $3, $3)
			ON CONFLICT (user_id, day) DO UPDATE
			SET last_partner_interaction = GREATEST(
			        COALESCE(daily_snapshots.last_partner_interaction, $3), $3),
			    updated_at = $3
		`
	case engagement.KindLessonCompleted:
		// The counter side of lesson completion is a plain touch; the
		// watermark is raised separately by RaiseModulesWatermark.
		query = `
			INSERT INTO daily_snapshots (user_id, day, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, day) DO UPDATE
			SET updated_at = $3
		`
	default:
		return fmt.Errorf("snapshot repo: %w: %s", engagement.ErrUnknownKind, kind)
	}

	if _, err := r.conn.Exec(ctx, query, userID.String(), day.String(), occurredAt.UTC()); err != nil {
		return fmt.Errorf("snapshot repo: apply increment: %w", err)
	}
	return nil
}

// RaiseModulesWatermark raises modules_completed to max(current, completed).
func (r *SnapshotRepository) RaiseModulesWatermark(ctx context.Context, userID engagement.UserID, day dayclock.Day, completed int) error {
	query := `
		INSERT INTO daily_snapshots (user_id, day, modules_completed, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, day) DO UPDATE
		SET modules_completed = GREATEST(daily_snapshots.modules_completed, $3),
		    updated_at = NOW()
	`

	if _, err := r.conn.Exec(ctx, query, userID.String(), day.String(), completed); err != nil {
		return fmt.Errorf("snapshot repo: raise watermark: %w", err)
	}
	return nil
}

const snapshotColumns = `
	user_id, day, logins, posts, responses, modules_completed,
	last_partner_interaction, created_at, updated_at
`

// GetByUserAndDay returns the snapshot for a specific day.
func (r *SnapshotRepository) GetByUserAndDay(ctx context.Context, userID engagement.UserID, day dayclock.Day) (*engagement.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM daily_snapshots
		WHERE user_id = $1 AND day = $2
	`

	row := r.conn.QueryRow(ctx, query, userID.String(), day.String())
	snap, err := r.scanSnapshot(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("snapshot repo: get by user and day: %w", err)
	}
	return snap, nil
}

// ListRecentByUser returns up to limit snapshots, most recent first.
func (r *SnapshotRepository) ListRecentByUser(ctx context.Context, userID engagement.UserID, limit int) ([]*engagement.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM daily_snapshots
		WHERE user_id = $1
		ORDER BY day DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("snapshot repo: list recent: %w", err)
	}
	defer rows.Close()

	return r.scanSnapshots(rows)
}

// ListRange returns snapshots with from <= day <= to, most recent first.
func (r *SnapshotRepository) ListRange(ctx context.Context, userID engagement.UserID, from, to dayclock.Day) ([]*engagement.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM daily_snapshots
		WHERE user_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day DESC
	`

	rows, err := r.conn.Query(ctx, query, userID.String(), from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("snapshot repo: list range: %w", err)
	}
	defer rows.Close()

	return r.scanSnapshots(rows)
}

// Totals returns the user's cumulative numbers. The watermark takes MAX, the
// counters take SUM, and a user with no rows gets zeros via COALESCE.
func (r *SnapshotRepository) Totals(ctx context.Context, userID engagement.UserID) (engagement.Totals, error) {
	query := `
		SELECT
			COALESCE(SUM(logins), 0),
			COALESCE(SUM(posts), 0),
			COALESCE(SUM(responses), 0),
			COALESCE(MAX(modules_completed), 0),
			COUNT(*) FILTER (WHERE logins > 0),
			COUNT(*) FILTER (WHERE last_partner_interaction IS NOT NULL)
		FROM daily_snapshots
		WHERE user_id = $1
	`

	totals := engagement.Totals{UserID: userID}
	err := r.conn.QueryRow(ctx, query, userID.String()).Scan(
		&totals.TotalLogins,
		&totals.TotalPosts,
		&totals.TotalResponses,
		&totals.ModulesCompleted,
		&totals.ActiveDays,
		&totals.PartnerInteractions,
	)
	if err != nil {
		return engagement.Totals{}, fmt.Errorf("snapshot repo: totals: %w", err)
	}
	return totals, nil
}

// CountActiveUsersSince counts distinct users with a login-active snapshot on
// or after the given day.
func (r *SnapshotRepository) CountActiveUsersSince(ctx context.Context, since dayclock.Day) (int, error) {
	query := `
		SELECT COUNT(DISTINCT user_id)
		FROM daily_snapshots
		WHERE day >= $1 AND logins > 0
	`

	var count int
	if err := r.conn.QueryRow(ctx, query, since.String()).Scan(&count); err != nil {
		return 0, fmt.Errorf("snapshot repo: count active users: %w", err)
	}
	return count, nil
}

// CountUsers counts distinct users ever seen.
func (r *SnapshotRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(DISTINCT user_id) FROM daily_snapshots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("snapshot repo: count users: %w", err)
	}
	return count, nil
}

// ListUserIDsSince returns distinct users with any snapshot since the day.
func (r *SnapshotRepository) ListUserIDsSince(ctx context.Context, since dayclock.Day) ([]engagement.UserID, error) {
	query := `
		SELECT DISTINCT user_id
		FROM daily_snapshots
		WHERE day >= $1
		ORDER BY user_id
	`

	rows, err := r.conn.Query(ctx, query, since.String())
	if err != nil {
		return nil, fmt.Errorf("snapshot repo: list user ids: %w", err)
	}
	defer rows.Close()

	var ids []engagement.UserID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("snapshot repo: scan user id: %w", err)
		}
		ids = append(ids, engagement.UserID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot repo: iterate user ids: %w", err)
	}
	return ids, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *SnapshotRepository) scanSnapshot(row pgx.Row) (*engagement.Snapshot, error) {
	var (
		snap    engagement.Snapshot
		userID  string
		day     time.Time
		partner *time.Time
	)

	err := row.Scan(
		&userID,
		&day,
		&snap.Logins,
		&snap.Posts,
		&snap.Responses,
		&snap.ModulesCompleted,
		&partner,
		&snap.CreatedAt,
		&snap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	snap.UserID = engagement.UserID(userID)
	// DATE scans as midnight UTC; take the calendar components, not the
	// instant, so the day is not shifted by the platform zone.
	y, m, d := day.Date()
	snap.Day = dayclock.FromDate(y, m, d, r.loc)
	snap.LastPartnerInteraction = partner
	return &snap, nil
}

func (r *SnapshotRepository) scanSnapshots(rows pgx.Rows) ([]*engagement.Snapshot, error) {
	var snapshots []*engagement.Snapshot
	for rows.Next() {
		snap, err := r.scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("snapshot repo: scan: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}
