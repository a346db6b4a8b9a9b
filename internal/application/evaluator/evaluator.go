package evaluator

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Service runs both engines for a user. It is what the evaluation queue
// workers invoke after an activity event lands.
type Service struct {
	flags        *FlagEngine
	achievements *AchievementEngine
	timeout      time.Duration
	logger       *slog.Logger
}

// NewService creates a new evaluation Service. timeout caps one full run; 0
// means no cap.
func NewService(flags *FlagEngine, achievements *AchievementEngine, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		flags:        flags,
		achievements: achievements,
		timeout:      timeout,
		logger:       logger.With("component", "evaluator"),
	}
}

// Evaluate runs flag and achievement evaluation for one user. The engines
// are independent: a failure in one does not stop the other, and the joined
// error is returned for the worker to log.
func (s *Service) Evaluate(ctx context.Context, userID string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var flagErr, achErr error

	if _, err := s.flags.Evaluate(ctx, userID); err != nil {
		flagErr = err
		s.logger.Error("flag evaluation failed", "user_id", userID, "error", err)
	}

	if _, err := s.achievements.Evaluate(ctx, userID); err != nil {
		achErr = err
		s.logger.Error("achievement evaluation failed", "user_id", userID, "error", err)
	}

	return errors.Join(flagErr, achErr)
}
