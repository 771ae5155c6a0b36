// Package memory implements the ledger storage contract in process memory.
// Semantics mirror the postgres implementation: per-user check-and-debit is
// serialized by an account mutex playing the role of the wallet row lock.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rangkeep/rangs/internal/model"
	"github.com/rangkeep/rangs/internal/model/ledger"
	"github.com/rangkeep/rangs/internal/model/purchase"
	"github.com/rangkeep/rangs/internal/serviceerrs"
	"github.com/rangkeep/rangs/internal/storage"
)

type account struct {
	mu        sync.Mutex
	balance   model.Amount
	entries   []ledger.Entry
	purchases []purchase.Purchase
	sourceRef map[string]struct{}
}

type Storage struct {
	mu       sync.Mutex
	accounts map[string]*account
}

func New() *Storage {
	return &Storage{
		accounts: make(map[string]*account),
	}
}

func (s *Storage) account(userID string) *account {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[userID]
	if !ok {
		acc = &account{sourceRef: make(map[string]struct{})}
		s.accounts[userID] = acc
	}
	return acc
}

func (s *Storage) AppendEarn(ctx context.Context,
	userID string, amount model.Amount, sourceRef, description string,
) (*ledger.Entry, model.Amount, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("append cancelled: %w", err)
	}

	acc := s.account(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	if _, dup := acc.sourceRef[sourceRef]; dup {
		return nil, 0, serviceerrs.ErrConflict
	}

	entry := ledger.Entry{
		CreatedAt:   time.Now().UTC(),
		ID:          uuid.NewString(),
		UserID:      userID,
		Kind:        ledger.KindEarn,
		SourceRef:   sourceRef,
		Description: description,
		Amount:      amount,
	}
	acc.sourceRef[sourceRef] = struct{}{}
	acc.entries = append(acc.entries, entry)
	acc.balance += amount

	return &entry, acc.balance, nil
}

func (s *Storage) Redeem(ctx context.Context, params storage.RedeemParams,
) (*storage.RedeemResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("redeem cancelled: %w", err)
	}

	acc := s.account(params.UserID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	if _, dup := acc.sourceRef[params.SourceRef]; dup {
		return nil, serviceerrs.ErrConflict
	}
	if acc.balance < params.Cost {
		return nil, serviceerrs.ErrInsufficientFunds
	}

	now := time.Now().UTC()
	entry := ledger.Entry{
		CreatedAt:   now,
		ID:          uuid.NewString(),
		UserID:      params.UserID,
		Kind:        ledger.KindSpend,
		SourceRef:   params.SourceRef,
		Description: params.Description,
		Amount:      params.Cost.Neg(),
	}
	p := purchase.Purchase{
		CreatedAt: now,
		ID:        uuid.NewString(),
		UserID:    params.UserID,
		ItemID:    params.ItemID,
		EntryID:   entry.ID,
		Cost:      params.Cost,
	}

	acc.sourceRef[params.SourceRef] = struct{}{}
	acc.entries = append(acc.entries, entry)
	acc.purchases = append(acc.purchases, p)
	acc.balance -= params.Cost

	return &storage.RedeemResult{
		Entry:      entry,
		Purchase:   p,
		NewBalance: acc.balance,
	}, nil
}

func (s *Storage) Balance(_ context.Context, userID string) (model.Amount, error) {
	acc := s.account(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.balance, nil
}

func (s *Storage) RebuildBalance(_ context.Context, userID string) (model.Amount, error) {
	acc := s.account(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	var sum model.Amount
	for _, e := range acc.entries {
		sum += e.Amount
	}
	acc.balance = sum
	return sum, nil
}

func (s *Storage) ListEntries(_ context.Context, userID string) ([]ledger.Entry, error) {
	acc := s.account(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	entries := make([]ledger.Entry, len(acc.entries))
	copy(entries, acc.entries)
	return entries, nil
}

func (s *Storage) ListPurchases(_ context.Context, userID string) ([]purchase.Purchase, error) {
	acc := s.account(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	purchases := make([]purchase.Purchase, len(acc.purchases))
	copy(purchases, acc.purchases)
	return purchases, nil
}
