package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

func TestTranslateApprovalErrorMapsUniqueViolation(t *testing.T) {
	// The loser of a concurrent approval hits the one-active-per-type index;
	// the raw driver error must come out as a domain conflict, not leak to the
	// transport layer as an internal error.
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_content_one_active_per_type"}
	err := translateApprovalError(fmt.Errorf("approve target: %w", pgErr))

	assert.ErrorIs(t, err, shared.ErrContentApprovalConflict)
	assert.True(t, shared.IsConflict(err))
}

func TestTranslateApprovalErrorPassesOthersThrough(t *testing.T) {
	assert.NoError(t, translateApprovalError(nil))

	notPending := translateApprovalError(shared.ErrContentNotPending)
	assert.ErrorIs(t, notPending, shared.ErrContentNotPending)
	assert.False(t, shared.IsConflict(notPending))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, translateApprovalError(plain))
}
