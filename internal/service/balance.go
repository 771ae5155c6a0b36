package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rangkeep/rangs/internal/model"
	"github.com/rangkeep/rangs/internal/model/ledger"
	"github.com/rangkeep/rangs/internal/model/purchase"
	"github.com/rangkeep/rangs/internal/serviceerrs"
	"github.com/rangkeep/rangs/internal/storage"
)

// BalanceService exposes the wallet projection: the O(1) cached read and
// the full-replay rebuild for repair and audit.
type BalanceService struct {
	ledger storage.Ledger
	log    *slog.Logger
}

func NewBalanceService(ledger storage.Ledger, log *slog.Logger) *BalanceService {
	return &BalanceService{
		ledger: ledger,
		log:    log,
	}
}

func (s *BalanceService) Balance(ctx context.Context, userID string) (model.Amount, error) {
	if userID == "" {
		return 0, &serviceerrs.ValidationError{Field: "user_id", Reason: "must be not empty"}
	}

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}

func (s *BalanceService) Rebuild(ctx context.Context, userID string) (model.Amount, error) {
	if userID == "" {
		return 0, &serviceerrs.ValidationError{Field: "user_id", Reason: "must be not empty"}
	}

	balance, err := s.ledger.RebuildBalance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to rebuild balance: %w", err)
	}
	s.log.LogAttrs(ctx,
		slog.LevelInfo,
		"wallet rebuilt from ledger",
		slog.String("user_id", userID),
		slog.Int64("balance", balance.Int64()),
	)
	return balance, nil
}

func (s *BalanceService) ListEntries(ctx context.Context, userID string,
) ([]ledger.Entry, error) {
	if userID == "" {
		return nil, &serviceerrs.ValidationError{Field: "user_id", Reason: "must be not empty"}
	}

	entries, err := s.ledger.ListEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

func (s *BalanceService) ListPurchases(ctx context.Context, userID string,
) ([]purchase.Purchase, error) {
	if userID == "" {
		return nil, &serviceerrs.ValidationError{Field: "user_id", Reason: "must be not empty"}
	}

	purchases, err := s.ledger.ListPurchases(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}
