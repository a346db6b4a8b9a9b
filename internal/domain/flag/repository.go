package flag

import (
	"context"
	"time"
)

// Repository persists engagement flags. Raising is append-only; the only
// mutation after creation is the one-shot resolution update.
type Repository interface {
	// Create appends a new flag to the user's history.
	Create(ctx context.Context, f *Flag) error

	// GetByID returns a flag, or shared.ErrFlagNotFound.
	GetByID(ctx context.Context, id string) (*Flag, error)

	// SaveResolution persists the resolution fields of a resolved flag.
	SaveResolution(ctx context.Context, f *Flag) error

	// HasUnresolved reports whether the user already has an unresolved flag
	// of the given type created at or after since. The engine uses this to
	// suppress duplicate raises inside the lookback window.
	HasUnresolved(ctx context.Context, userID string, flagType Type, since time.Time) (bool, error)

	// ListByUser returns the user's flags, newest first, resolved or not.
	ListByUser(ctx context.Context, userID string, limit int) ([]*Flag, error)

	// CountUnresolvedByType counts unresolved flags grouped by type, for the
	// admin overview.
	CountUnresolvedByType(ctx context.Context) (map[Type]int, error)
}

// CommitmentProvider exposes the partner-commitment signal owned by the
// partner-pairing subsystem.
type CommitmentProvider interface {
	CommitmentStats(ctx context.Context, userID string) (CommitmentStats, error)
}
