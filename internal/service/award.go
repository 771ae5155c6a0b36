package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rangkeep/rangs/internal/audit"
	"github.com/rangkeep/rangs/internal/award"
	"github.com/rangkeep/rangs/internal/metrics"
	"github.com/rangkeep/rangs/internal/model"
	"github.com/rangkeep/rangs/internal/model/task"
	"github.com/rangkeep/rangs/internal/serviceerrs"
	"github.com/rangkeep/rangs/internal/storage"
)

// AwardResult is the outcome of a consumed completion event. Awarded is
// false when the task missed its due date; nothing is written then.
type AwardResult struct {
	Awarded bool
	Amount  model.Amount
	Balance model.Amount
}

type AwardService struct {
	ledger storage.Ledger
	audit  audit.Sink
	log    *slog.Logger
}

func NewAwardService(ledger storage.Ledger, sink audit.Sink, log *slog.Logger) *AwardService {
	return &AwardService{
		ledger: ledger,
		audit:  sink,
		log:    log,
	}
}

// HandleCompletion consumes one completion event from the tracker.
// The task id doubles as the earn entry's sourceRef, so redelivered
// events fail with Conflict instead of awarding twice.
func (s *AwardService) HandleCompletion(ctx context.Context,
	userID string, t *task.Completed,
) (*AwardResult, error) {
	if err := validateCompletion(userID, t); err != nil {
		return nil, err
	}

	amount, eligible := award.Calculate(t)
	if !eligible {
		metrics.AwardsIneligible.Inc()
		s.log.LogAttrs(ctx,
			slog.LevelInfo,
			"completion past due, no award",
			slog.String("user_id", userID),
			slog.String("task_id", t.ID),
		)
		return &AwardResult{Awarded: false}, nil
	}

	description := fmt.Sprintf("earned %d rangs for completing %q", amount.Int64(), t.Title)
	_, balance, err := s.ledger.AppendEarn(ctx, userID, amount, t.ID, description)
	if err != nil {
		if errors.Is(err, serviceerrs.ErrConflict) {
			metrics.AwardsDuplicate.Inc()
			return nil, serviceerrs.ErrConflict
		}
		return nil, fmt.Errorf("failed to append earn entry: %w", err)
	}

	metrics.AwardsGranted.Inc()
	s.audit.Record(ctx, userID, description)

	return &AwardResult{
		Awarded: true,
		Amount:  amount,
		Balance: balance,
	}, nil
}

func validateCompletion(userID string, t *task.Completed) error {
	if userID == "" {
		return &serviceerrs.ValidationError{Field: "user_id", Reason: "must be not empty"}
	}
	if t.ID == "" {
		return &serviceerrs.ValidationError{Field: "task_id", Reason: "must be not empty"}
	}
	if t.Importance < 1 {
		return &serviceerrs.ValidationError{Field: "importance", Reason: "must be at least 1"}
	}
	return nil
}
