// Package storage defines the ledger storage contract shared by the
// postgres and in-memory implementations.
//
// The ledger is append-only and the wallet row is a projection over it:
// every committing operation maintains the projection inside the same
// atomic unit that writes the entry, so the cached balance can never
// drift from the entry history.
package storage

import (
	"context"

	"github.com/rangkeep/rangs/internal/model"
	"github.com/rangkeep/rangs/internal/model/ledger"
	"github.com/rangkeep/rangs/internal/model/purchase"
)

type RedeemParams struct {
	UserID      string
	ItemID      string
	SourceRef   string
	Description string
	Cost        model.Amount
}

type RedeemResult struct {
	Entry      ledger.Entry
	Purchase   purchase.Purchase
	NewBalance model.Amount
}

type Ledger interface {
	// AppendEarn writes an earn entry and advances the wallet balance as
	// one atomic unit, returning the entry and the advanced balance.
	// A sourceRef already present for the user fails with
	// serviceerrs.ErrConflict and writes nothing.
	AppendEarn(ctx context.Context,
		userID string, amount model.Amount, sourceRef, description string,
	) (*ledger.Entry, model.Amount, error)

	// Redeem re-reads the balance under the wallet row lock, compares it
	// against the cost, and commits the spend entry, the purchase row and
	// the balance update as one atomic unit. Fails with
	// serviceerrs.ErrInsufficientFunds or serviceerrs.ErrConflict (replayed
	// sourceRef) without writing anything.
	Redeem(ctx context.Context, params RedeemParams) (*RedeemResult, error)

	// Balance is the plain O(1) wallet read. It gives no write guarantees
	// and may be momentarily stale relative to an in-flight commit.
	Balance(ctx context.Context, userID string) (model.Amount, error)

	// RebuildBalance recomputes the wallet from the full entry history
	// under the same lock as concurrent writers and returns the result.
	RebuildBalance(ctx context.Context, userID string) (model.Amount, error)

	ListEntries(ctx context.Context, userID string) ([]ledger.Entry, error)
	ListPurchases(ctx context.Context, userID string) ([]purchase.Purchase, error)
}
