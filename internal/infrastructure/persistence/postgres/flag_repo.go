package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/compass-cohort/compass-engagement/internal/domain/flag"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FLAG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// FlagRepository implements flag.Repository for PostgreSQL.
type FlagRepository struct {
	conn *Connection
}

// NewFlagRepository creates a new FlagRepository.
func NewFlagRepository(conn *Connection) *FlagRepository {
	return &FlagRepository{conn: conn}
}

// Create appends a new flag.
func (r *FlagRepository) Create(ctx context.Context, f *flag.Flag) error {
	query := `
		INSERT INTO engagement_flags (id, user_id, flag_type, reason, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	contextJSON, err := json.Marshal(f.Context)
	if err != nil {
		return fmt.Errorf("flag repo: marshal context: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		f.ID,
		f.UserID,
		string(f.Type),
		f.Reason,
		contextJSON,
		f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("flag repo: create: %w", err)
	}
	return nil
}

const flagColumns = `
	id, user_id, flag_type, reason, context,
	resolved, resolved_by, resolved_at, resolved_notes, created_at
`

// GetByID returns a flag by ID.
func (r *FlagRepository) GetByID(ctx context.Context, id string) (*flag.Flag, error) {
	query := `SELECT ` + flagColumns + `
		FROM engagement_flags
		WHERE id = $1
	`

	f, err := r.scanFlag(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrFlagNotFound
		}
		return nil, fmt.Errorf("flag repo: get by id: %w", err)
	}
	return f, nil
}

// SaveResolution persists the resolution fields of a resolved flag. The WHERE
// clause guards against racing resolvers: only the transition from unresolved
// wins, the loser sees a conflict.
func (r *FlagRepository) SaveResolution(ctx context.Context, f *flag.Flag) error {
	query := `
		UPDATE engagement_flags
		SET resolved = TRUE, resolved_by = $2, resolved_at = $3, resolved_notes = $4
		WHERE id = $1 AND NOT resolved
	`

	tag, err := r.conn.Exec(ctx, query, f.ID, f.ResolvedBy, f.ResolvedAt, f.ResolvedNotes)
	if err != nil {
		return fmt.Errorf("flag repo: save resolution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrFlagAlreadyResolved
	}
	return nil
}

// HasUnresolved reports whether the user has an unresolved flag of the type
// created at or after since.
func (r *FlagRepository) HasUnresolved(ctx context.Context, userID string, flagType flag.Type, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM engagement_flags
			WHERE user_id = $1 AND flag_type = $2 AND NOT resolved AND created_at >= $3
		)
	`

	var exists bool
	if err := r.conn.QueryRow(ctx, query, userID, string(flagType), since).Scan(&exists); err != nil {
		return false, fmt.Errorf("flag repo: has unresolved: %w", err)
	}
	return exists, nil
}

// ListByUser returns the user's flags, newest first.
func (r *FlagRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*flag.Flag, error) {
	query := `SELECT ` + flagColumns + `
		FROM engagement_flags
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("flag repo: list by user: %w", err)
	}
	defer rows.Close()

	var flags []*flag.Flag
	for rows.Next() {
		f, err := r.scanFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("flag repo: scan: %w", err)
		}
		flags = append(flags, f)
	}
	return flags, rows.Err()
}

// CountUnresolvedByType counts open flags grouped by type.
func (r *FlagRepository) CountUnresolvedByType(ctx context.Context) (map[flag.Type]int, error) {
	query := `
		SELECT flag_type, COUNT(*)
		FROM engagement_flags
		WHERE NOT resolved
		GROUP BY flag_type
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("flag repo: count unresolved: %w", err)
	}
	defer rows.Close()

	counts := make(map[flag.Type]int)
	for rows.Next() {
		var (
			flagType string
			count    int
		)
		if err := rows.Scan(&flagType, &count); err != nil {
			return nil, fmt.Errorf("flag repo: scan count: %w", err)
		}
		counts[flag.Type(flagType)] = count
	}
	return counts, rows.Err()
}

func (r *FlagRepository) scanFlag(row pgx.Row) (*flag.Flag, error) {
	var (
		f           flag.Flag
		flagType    string
		contextJSON []byte
		resolvedBy  *string
		notes       *string
	)

	err := row.Scan(
		&f.ID,
		&f.UserID,
		&flagType,
		&f.Reason,
		&contextJSON,
		&f.Resolved,
		&resolvedBy,
		&f.ResolvedAt,
		&notes,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	f.Type = flag.Type(flagType)
	if resolvedBy != nil {
		f.ResolvedBy = *resolvedBy
	}
	if notes != nil {
		f.ResolvedNotes = *notes
	}
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &f.Context); err != nil {
			return nil, fmt.Errorf("unmarshal context: %w", err)
		}
	}
	return &f, nil
}
