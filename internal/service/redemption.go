package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rangkeep/rangs/internal/audit"
	"github.com/rangkeep/rangs/internal/metrics"
	"github.com/rangkeep/rangs/internal/model"
	"github.com/rangkeep/rangs/internal/model/item"
	"github.com/rangkeep/rangs/internal/serviceerrs"
	"github.com/rangkeep/rangs/internal/storage"
)

// Catalog is the external item catalog collaborator, read-only to this
// core. A missing item surfaces as serviceerrs.ErrNotFound.
type Catalog interface {
	Item(ctx context.Context, itemID string) (*item.Item, error)
}

type RedemptionStatus string

const (
	StatusRequested RedemptionStatus = "REQUESTED"
	StatusValidated RedemptionStatus = "VALIDATED"
	StatusCommitted RedemptionStatus = "COMMITTED"
	StatusRejected  RedemptionStatus = "REJECTED"
)

// Redemption is one pass through the redemption state machine:
// Requested -> Validated -> Committed | Rejected.
type Redemption struct {
	UserID         string
	ItemID         string
	IdempotencyKey string
	Status         RedemptionStatus
	NewBalance     model.Amount
}

type RedemptionService struct {
	ledger  storage.Ledger
	catalog Catalog
	audit   audit.Sink
	log     *slog.Logger
}

func NewRedemptionService(ledger storage.Ledger, catalog Catalog,
	sink audit.Sink, log *slog.Logger,
) *RedemptionService {
	return &RedemptionService{
		ledger:  ledger,
		catalog: catalog,
		audit:   sink,
		log:     log,
	}
}

// Redeem validates the requested item against the catalog, then hands the
// balance check and the debit to storage as one atomic unit. It never
// retries internally: the caller resubmits with the same idempotency key,
// and a replayed commit fails with Conflict instead of double-spending.
func (s *RedemptionService) Redeem(ctx context.Context,
	userID, itemID, idempotencyKey string,
) (*Redemption, error) {
	r := &Redemption{
		UserID:         userID,
		ItemID:         itemID,
		IdempotencyKey: idempotencyKey,
		Status:         StatusRequested,
	}

	if err := s.validate(ctx, r); err != nil {
		return r, err
	}

	it, err := s.catalog.Item(ctx, itemID)
	if err != nil {
		r.Status = StatusRejected
		if errors.Is(err, serviceerrs.ErrNotFound) {
			metrics.RedemptionsRejected.WithLabelValues("not_found").Inc()
			return r, serviceerrs.ErrNotFound
		}
		return r, fmt.Errorf("failed to fetch item %s: %w", itemID, err)
	}
	if !it.Available {
		r.Status = StatusRejected
		metrics.RedemptionsRejected.WithLabelValues("not_found").Inc()
		return r, serviceerrs.ErrNotFound
	}
	if it.Cost <= 0 {
		r.Status = StatusRejected
		return r, &serviceerrs.ValidationError{Field: "cost", Reason: "must be positive"}
	}
	r.Status = StatusValidated

	description := fmt.Sprintf("redeemed %q for %d rangs", it.Name, it.Cost.Int64())
	res, err := s.ledger.Redeem(ctx, storage.RedeemParams{
		UserID:      userID,
		ItemID:      itemID,
		SourceRef:   idempotencyKey,
		Description: description,
		Cost:        it.Cost,
	})
	if err != nil {
		r.Status = StatusRejected
		switch {
		case errors.Is(err, serviceerrs.ErrInsufficientFunds):
			metrics.RedemptionsRejected.WithLabelValues("insufficient_funds").Inc()
			return r, serviceerrs.ErrInsufficientFunds
		case errors.Is(err, serviceerrs.ErrConflict):
			metrics.RedemptionsRejected.WithLabelValues("conflict").Inc()
			return r, serviceerrs.ErrConflict
		}
		return r, fmt.Errorf("failed to commit redemption: %w", err)
	}

	r.Status = StatusCommitted
	r.NewBalance = res.NewBalance
	metrics.RedemptionsCommitted.Inc()
	s.audit.Record(ctx, userID, description)
	s.log.LogAttrs(ctx,
		slog.LevelInfo,
		"redemption committed",
		slog.String("user_id", userID),
		slog.String("item_id", itemID),
		slog.Int64("new_balance", res.NewBalance.Int64()),
	)
	return r, nil
}

func (s *RedemptionService) validate(_ context.Context, r *Redemption) error {
	var err error
	switch {
	case r.UserID == "":
		err = &serviceerrs.ValidationError{Field: "user_id", Reason: "must be not empty"}
	case r.ItemID == "":
		err = &serviceerrs.ValidationError{Field: "item_id", Reason: "must be not empty"}
	case r.IdempotencyKey == "":
		err = &serviceerrs.ValidationError{Field: "idempotency_key", Reason: "must be not empty"}
	}
	if err != nil {
		r.Status = StatusRejected
		return err
	}
	return nil
}
