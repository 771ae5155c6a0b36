package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rangkeep/rangs/internal/model"
	"github.com/rangkeep/rangs/internal/model/ledger"
	"github.com/rangkeep/rangs/internal/model/purchase"
	"github.com/rangkeep/rangs/internal/serviceerrs"
	"github.com/rangkeep/rangs/internal/storage"
)

// LedgerRepository is the postgres implementation of storage.Ledger.
//
// The (user_id, source_ref) uniqueness lives in the schema, not in
// check-then-insert application code: two concurrent earns for the same
// event race down to one committed row and one unique violation.
type LedgerRepository struct {
	DB
}

func NewLedgerRepository(pool connectionPool, log *slog.Logger) *LedgerRepository {
	return &LedgerRepository{
		DB{
			pool: pool,
			log:  log,
		},
	}
}

const insertEntryQuery = `
INSERT INTO ledger_entries (id, user_id, amount, kind, source_ref, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const upsertWalletQuery = `
INSERT INTO wallets (user_id, balance)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET balance = wallets.balance + EXCLUDED.balance
RETURNING balance`

func (r *LedgerRepository) AppendEarn(ctx context.Context,
	userID string, amount model.Amount, sourceRef, description string,
) (*ledger.Entry, model.Amount, error) {
	type earned struct {
		entry   ledger.Entry
		balance model.Amount
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

	appendLogic := func(ctx context.Context, tx connectionPool) (any, error) {
		if _, err := tx.Exec(ctx, insertEntryQuery,
			entry.ID, entry.UserID, entry.Amount.Int64(), string(entry.Kind),
			entry.SourceRef, entry.Description, entry.CreatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return nil, serviceerrs.ErrConflict
			}
			return nil, fmt.Errorf("failed to insert earn entry: %w", err)
		}

		var balance int64
		if err := tx.QueryRow(ctx, upsertWalletQuery,
			userID, entry.Amount.Int64(),
		).Scan(&balance); err != nil {
			return nil, fmt.Errorf("failed to advance wallet: %w", err)
		}
		return earned{entry: entry, balance: model.Amount(balance)}, nil
	}

	appendWithTX := func() (earned, error) {
		return WithTX[earned](ctx, r.pool, r.log, appendLogic)
	}

	e, err := WithRetry[earned](appendWithTX, 0)
	if err != nil {
		if errors.Is(err, serviceerrs.ErrConflict) {
			return nil, 0, serviceerrs.ErrConflict
		}
		return nil, 0, err //nolint: wrapcheck // error from wrapped function
	}
	return &e.entry, e.balance, nil
}

const ensureWalletQuery = `
INSERT INTO wallets (user_id, balance)
VALUES ($1, 0)
ON CONFLICT (user_id) DO NOTHING`

const lockBalanceQuery = `
SELECT balance FROM wallets WHERE user_id = $1 FOR UPDATE`

const insertPurchaseQuery = `
INSERT INTO purchases (id, user_id, item_id, cost, entry_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

const debitWalletQuery = `
UPDATE wallets SET balance = balance - $2 WHERE user_id = $1
RETURNING balance`

// Redeem holds the wallet row lock across the balance re-read, the spend
// entry, the purchase row and the balance write. Of two concurrent
// redemptions each needing the full balance, at most one commits.
// Not retried internally: the caller resubmits with the same idempotency
// key and a replayed commit surfaces as ErrConflict.
func (r *LedgerRepository) Redeem(ctx context.Context, params storage.RedeemParams,
) (*storage.RedeemResult, error) {
	redeemLogic := func(ctx context.Context, tx connectionPool) (any, error) {
		if _, err := tx.Exec(ctx, ensureWalletQuery, params.UserID); err != nil {
			return nil, fmt.Errorf("failed to ensure wallet row: %w", err)
		}

		var balance int64
		if err := tx.QueryRow(ctx, lockBalanceQuery, params.UserID).Scan(&balance); err != nil {
			return nil, fmt.Errorf("failed to lock wallet: %w", err)
		}
		if model.Amount(balance) < params.Cost {
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
		if _, err := tx.Exec(ctx, insertEntryQuery,
			entry.ID, entry.UserID, entry.Amount.Int64(), string(entry.Kind),
			entry.SourceRef, entry.Description, entry.CreatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return nil, serviceerrs.ErrConflict
			}
			return nil, fmt.Errorf("failed to insert spend entry: %w", err)
		}

		p := purchase.Purchase{
			CreatedAt: now,
			ID:        uuid.NewString(),
			UserID:    params.UserID,
			ItemID:    params.ItemID,
			EntryID:   entry.ID,
			Cost:      params.Cost,
		}
		if _, err := tx.Exec(ctx, insertPurchaseQuery,
			p.ID, p.UserID, p.ItemID, p.Cost.Int64(), p.EntryID, p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to insert purchase: %w", err)
		}

		var newBalance int64
		if err := tx.QueryRow(ctx, debitWalletQuery,
			params.UserID, params.Cost.Int64(),
		).Scan(&newBalance); err != nil {
			return nil, fmt.Errorf("failed to debit wallet: %w", err)
		}

		return &storage.RedeemResult{
			Entry:      entry,
			Purchase:   p,
			NewBalance: model.Amount(newBalance),
		}, nil
	}

	res, err := WithTX[*storage.RedeemResult](ctx, r.pool, r.log, redeemLogic)
	if err != nil {
		return nil, err //nolint: wrapcheck // error from wrapped function
	}
	return res, nil
}

const readBalanceQuery = `
SELECT balance FROM wallets WHERE user_id = $1`

func (r *LedgerRepository) Balance(ctx context.Context, userID string) (model.Amount, error) {
	balanceLogic := func() (int64, error) {
		var balance int64
		err := r.pool.QueryRow(ctx, readBalanceQuery, userID).Scan(&balance)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read balance for user %s: %w", userID, err)
		}
		return balance, nil
	}

	balance, err := WithRetry[int64](balanceLogic, 0)
	if err != nil {
		return 0, err //nolint: wrapcheck // error from wrapped function
	}
	return model.Amount(balance), nil
}

const rebuildWalletQuery = `
UPDATE wallets
SET balance = (SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE user_id = $1)
WHERE user_id = $1
RETURNING balance`

// RebuildBalance takes the same row lock as committing writers, so a
// repair run against live traffic cannot regress an advanced balance.
func (r *LedgerRepository) RebuildBalance(ctx context.Context, userID string) (model.Amount, error) {
	rebuildLogic := func(ctx context.Context, tx connectionPool) (any, error) {
		if _, err := tx.Exec(ctx, ensureWalletQuery, userID); err != nil {
			return nil, fmt.Errorf("failed to ensure wallet row: %w", err)
		}
		var balance int64
		if err := tx.QueryRow(ctx, lockBalanceQuery, userID).Scan(&balance); err != nil {
			return nil, fmt.Errorf("failed to lock wallet: %w", err)
		}
		if err := tx.QueryRow(ctx, rebuildWalletQuery, userID).Scan(&balance); err != nil {
			return nil, fmt.Errorf("failed to rebuild wallet for user %s: %w", userID, err)
		}
		return balance, nil
	}

	rebuildWithTX := func() (int64, error) {
		return WithTX[int64](ctx, r.pool, r.log, rebuildLogic)
	}

	balance, err := WithRetry[int64](rebuildWithTX, 0)
	if err != nil {
		return 0, err //nolint: wrapcheck // error from wrapped function
	}
	return model.Amount(balance), nil
}

const listEntriesQuery = `
SELECT id, user_id, amount, kind, source_ref, description, created_at
FROM ledger_entries
WHERE user_id = $1
ORDER BY created_at`

func (r *LedgerRepository) ListEntries(ctx context.Context, userID string,
) ([]ledger.Entry, error) {
	if len(userID) == 0 {
		return nil, errors.New("failed to list entries for empty user: userID must be not empty")
	}

	listLogic := func() ([]ledger.Entry, error) {
		rows, err := r.pool.Query(ctx, listEntriesQuery, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list entries by userID %s: %w", userID, err)
		}
		defer rows.Close()

		var entries []ledger.Entry
		for rows.Next() {
			var e ledger.Entry
			var amount int64
			var kind string
			if err := rows.Scan(&e.ID, &e.UserID, &amount, &kind,
				&e.SourceRef, &e.Description, &e.CreatedAt,
			); err != nil {
				return nil, fmt.Errorf("failed to scan entry: %w", err)
			}
			e.Amount = model.Amount(amount)
			e.Kind = ledger.Kind(kind)
			entries = append(entries, e)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate entries: %w", err)
		}
		return entries, nil
	}

	return WithRetry[[]ledger.Entry](listLogic, 0) //nolint: wrapcheck // error from wrapped function
}

const listPurchasesQuery = `
SELECT id, user_id, item_id, cost, entry_id, created_at
FROM purchases
WHERE user_id = $1
ORDER BY created_at`

func (r *LedgerRepository) ListPurchases(ctx context.Context, userID string,
) ([]purchase.Purchase, error) {
	if len(userID) == 0 {
		return nil, errors.New("failed to list purchases for empty user: userID must be not empty")
	}

	listLogic := func() ([]purchase.Purchase, error) {
		rows, err := r.pool.Query(ctx, listPurchasesQuery, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list purchases by userID %s: %w", userID, err)
		}
		defer rows.Close()

		var purchases []purchase.Purchase
		for rows.Next() {
			var p purchase.Purchase
			var cost int64
			if err := rows.Scan(&p.ID, &p.UserID, &p.ItemID, &cost,
				&p.EntryID, &p.CreatedAt,
			); err != nil {
				return nil, fmt.Errorf("failed to scan purchase: %w", err)
			}
			p.Cost = model.Amount(cost)
			purchases = append(purchases, p)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate purchases: %w", err)
		}
		return purchases, nil
	}

	return WithRetry[[]purchase.Purchase](listLogic, 0) //nolint: wrapcheck // error from wrapped function
}
