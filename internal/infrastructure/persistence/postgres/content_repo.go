package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/compass-cohort/compass-engagement/internal/domain/content"
	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTENT REPOSITORY IMPLEMENTATION
// ApproveAndActivate is the one multi-statement write in the repo and runs in
// a transaction; the partial unique index on (content_type) WHERE active backs
// up the exactly-one-active invariant at the storage level.
// ══════════════════════════════════════════════════════════════════════════════

// ContentRepository implements content.Repository for PostgreSQL.
type ContentRepository struct {
	conn *Connection
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(conn *Connection) *ContentRepository {
	return &ContentRepository{conn: conn}
}

// Create stores a new pending candidate.
func (r *ContentRepository) Create(ctx context.Context, g *content.Generated) error {
	query := `
		INSERT INTO generated_content (id, content_type, payload, context, status, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	ctxJSON, err := json.Marshal(g.Context)
	if err != nil {
		return fmt.Errorf("content repo: marshal context: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		g.ID,
		string(g.Type),
		[]byte(g.Payload),
		ctxJSON,
		string(g.Status),
		g.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("content repo: create: %w", err)
	}
	return nil
}

const contentColumns = `
	id, content_type, payload, context, status,
	approved, approved_by, approved_at, active, generated_at
`

// GetByID returns a candidate by ID.
func (r *ContentRepository) GetByID(ctx context.Context, id string) (*content.Generated, error) {
	query := `SELECT ` + contentColumns + `
		FROM generated_content
		WHERE id = $1
	`

	g, err := r.scanContent(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrContentNotFound
		}
		return nil, fmt.Errorf("content repo: get by id: %w", err)
	}
	return g, nil
}

// GetActive returns the active row of the given type.
func (r *ContentRepository) GetActive(ctx context.Context, contentType content.Type) (*content.Generated, error) {
	query := `SELECT ` + contentColumns + `
		FROM generated_content
		WHERE content_type = $1 AND active
	`

	g, err := r.scanContent(r.conn.QueryRow(ctx, query, string(contentType)))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrContentNotFound
		}
		return nil, fmt.Errorf("content repo: get active: %w", err)
	}
	return g, nil
}

// ApproveAndActivate deactivates the current active row of the target's type
// and activates the target, all in one transaction. The deactivate runs first
// so the partial unique index never sees two active rows mid-flight.
func (r *ContentRepository) ApproveAndActivate(ctx context.Context, id, approvedBy string) error {
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var contentType string
		err := tx.QueryRow(ctx,
			`SELECT content_type FROM generated_content WHERE id = $1 FOR UPDATE`,
			id,
		).Scan(&contentType)
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrContentNotFound
			}
			return fmt.Errorf("lock target row: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE generated_content SET active = FALSE WHERE content_type = $1 AND active AND id <> $2`,
			contentType, id,
		); err != nil {
			return fmt.Errorf("deactivate previous: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE generated_content
			SET status = 'approved', approved = TRUE, approved_by = $2, approved_at = $3, active = TRUE
			WHERE id = $1 AND status = 'pending'
		`, id, approvedBy, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("approve target: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrContentNotPending
		}
		return nil
	})
	return translateApprovalError(err)
}

// translateApprovalError maps the unique violation a lost approval race raises
// against the one-active-per-type index to the domain conflict error. Two
// concurrent approvals lock different rows, so the loser surfaces here rather
// than blocking on the FOR UPDATE.
func translateApprovalError(err error) error {
	if IsUniqueViolation(err) {
		return shared.ErrContentApprovalConflict
	}
	return err
}

// Reject marks a pending candidate rejected.
func (r *ContentRepository) Reject(ctx context.Context, id string) error {
	query := `
		UPDATE generated_content
		SET status = 'rejected'
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.conn.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("content repo: reject: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrContentNotPending
	}
	return nil
}

// ListPending returns pending candidates, oldest first.
func (r *ContentRepository) ListPending(ctx context.Context, limit int) ([]*content.Generated, error) {
	query := `SELECT ` + contentColumns + `
		FROM generated_content
		WHERE status = 'pending'
		ORDER BY generated_at ASC
		LIMIT $1
	`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("content repo: list pending: %w", err)
	}
	defer rows.Close()

	var pending []*content.Generated
	for rows.Next() {
		g, err := r.scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("content repo: scan: %w", err)
		}
		pending = append(pending, g)
	}
	return pending, rows.Err()
}

func (r *ContentRepository) scanContent(row pgx.Row) (*content.Generated, error) {
	var (
		g           content.Generated
		contentType string
		status      string
		payload     []byte
		ctxJSON     []byte
		approvedBy  *string
	)

	err := row.Scan(
		&g.ID,
		&contentType,
		&payload,
		&ctxJSON,
		&status,
		&g.Approved,
		&approvedBy,
		&g.ApprovedAt,
		&g.Active,
		&g.GeneratedAt,
	)
	if err != nil {
		return nil, err
	}

	g.Type = content.Type(contentType)
	g.Status = content.Status(status)
	g.Payload = json.RawMessage(payload)
	if approvedBy != nil {
		g.ApprovedBy = *approvedBy
	}
	if len(ctxJSON) > 0 {
		if err := json.Unmarshal(ctxJSON, &g.Context); err != nil {
			return nil, fmt.Errorf("unmarshal context: %w", err)
		}
	}
	return &g, nil
}
