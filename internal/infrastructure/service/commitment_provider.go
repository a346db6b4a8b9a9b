// Package service contains adapters between domain ports and subsystems
// outside the engagement pipeline.
package service

import (
	"context"
	"fmt"

	"github.com/compass-cohort/compass-engagement/internal/domain/flag"
	"github.com/compass-cohort/compass-engagement/internal/infrastructure/persistence/postgres"
)

// commitmentHistoryLimit bounds the consecutive-missed scan. The red rule
// fires well below this, so reading further back is pointless.
const commitmentHistoryLimit = 20

// CommitmentProvider implements flag.CommitmentProvider over the
// partner_commitments table. The table is owned by the partner-pairing
// subsystem; this adapter only reads it.
type CommitmentProvider struct {
	conn *postgres.Connection
}

// NewCommitmentProvider creates a new CommitmentProvider.
func NewCommitmentProvider(conn *postgres.Connection) *CommitmentProvider {
	return &CommitmentProvider{conn: conn}
}

// CommitmentStats returns the user's outstanding-commitment count and the
// run of consecutive missed or partial commitments ending at the most
// recently settled one.
func (p *CommitmentProvider) CommitmentStats(ctx context.Context, userID string) (flag.CommitmentStats, error) {
	var stats flag.CommitmentStats

	query := `
		SELECT COUNT(*)
		FROM partner_commitments
		WHERE user_id = $1 AND status = 'outstanding'
	`
	if err := p.conn.QueryRow(ctx, query, userID).Scan(&stats.Outstanding); err != nil {
		return flag.CommitmentStats{}, fmt.Errorf("commitment provider: count outstanding: %w", err)
	}

	query = `
		SELECT status
		FROM partner_commitments
		WHERE user_id = $1 AND status <> 'outstanding'
		ORDER BY due_at DESC
		LIMIT $2
	`
	rows, err := p.conn.Query(ctx, query, userID, commitmentHistoryLimit)
	if err != nil {
		return flag.CommitmentStats{}, fmt.Errorf("commitment provider: list settled: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return flag.CommitmentStats{}, fmt.Errorf("commitment provider: scan status: %w", err)
		}
		if status != "missed" && status != "partial" {
			break
		}
		stats.ConsecutiveMissed++
	}
	if err := rows.Err(); err != nil {
		return flag.CommitmentStats{}, fmt.Errorf("commitment provider: iterate: %w", err)
	}

	return stats, nil
}
