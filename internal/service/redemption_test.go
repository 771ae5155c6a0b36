package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rangkeep/rangs/internal/model"
	"github.com/rangkeep/rangs/internal/model/item"
	"github.com/rangkeep/rangs/internal/model/task"
	"github.com/rangkeep/rangs/internal/serviceerrs"
	"github.com/rangkeep/rangs/internal/storage/memory"
)

type stubCatalog struct {
	items map[string]item.Item
}

func (c *stubCatalog) Item(_ context.Context, itemID string) (*item.Item, error) {
	it, ok := c.items[itemID]
	if !ok {
		return nil, serviceerrs.ErrNotFound
	}
	return &it, nil
}

type recordingSink struct {
	records []string
}

func (s *recordingSink) Record(_ context.Context, _, description string) {
	s.records = append(s.records, description)
}

func newFixture() (*AwardService, *RedemptionService, *BalanceService, *recordingSink) {
	store := memory.New()
	sink := &recordingSink{}
	log := slog.Default()
	catalog := &stubCatalog{items: map[string]item.Item{
		"mug":     {ID: "mug", Name: "camp mug", Cost: 30, Available: true},
		"poster":  {ID: "poster", Name: "poster", Cost: 30, Available: true},
		"retired": {ID: "retired", Name: "retired item", Cost: 10, Available: false},
		"broken":  {ID: "broken", Name: "misconfigured item", Cost: 0, Available: true},
	}}
	return NewAwardService(store, sink, log),
		NewRedemptionService(store, catalog, sink, log),
		NewBalanceService(store, log),
		sink
}

func earn(t *testing.T, awards *AwardService, userID string, taskID string, importance int) model.Amount {
	t.Helper()
	res, err := awards.HandleCompletion(context.Background(), userID, &task.Completed{
		ID:          taskID,
		Title:       "some task",
		Category:    task.CategoryWork,
		Importance:  importance,
		CompletedAt: time.Now(),
	})
	require.NoError(t, err)
	require.True(t, res.Awarded)
	return res.Balance
}

func TestRedeem_CommitsAndDebits(t *testing.T) {
	awards, redemptions, balances, sink := newFixture()
	ctx := context.Background()

	// work, importance 10 -> 5 + 20 + 8 = 33; twice -> 66
	earn(t, awards, "user-1", "task-1", 10)
	balance := earn(t, awards, "user-1", "task-2", 10)
	require.Equal(t, model.Amount(66), balance)

	r, err := redemptions.Redeem(ctx, "user-1", "mug", "key-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCommitted, r.Status)
	assert.Equal(t, model.Amount(36), r.NewBalance)

	got, err := balances.Balance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.Amount(36), got)

	purchases, err := balances.ListPurchases(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, "mug", purchases[0].ItemID)
	assert.Equal(t, model.Amount(30), purchases[0].Cost)

	// one audit line per committed entry: two earns + one spend
	assert.Len(t, sink.records, 3)
}

func TestRedeem_InsufficientFunds(t *testing.T) {
	awards, redemptions, balances, _ := newFixture()
	ctx := context.Background()

	// errand-free balance of exactly 33
	earn(t, awards, "user-1", "task-1", 10)

	r, err := redemptions.Redeem(ctx, "user-1", "mug", "key-1")
	require.NoError(t, err)
	assert.Equal(t, model.Amount(3), r.NewBalance)

	r, err = redemptions.Redeem(ctx, "user-1", "poster", "key-2")
	require.ErrorIs(t, err, serviceerrs.ErrInsufficientFunds)
	assert.Equal(t, StatusRejected, r.Status)

	// rejection is total: no rows, balance untouched
	got, err := balances.Balance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.Amount(3), got)

	purchases, err := balances.ListPurchases(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, purchases, 1)
}

func TestRedeem_UnknownOrUnavailableItem(t *testing.T) {
	awards, redemptions, _, _ := newFixture()
	ctx := context.Background()

	earn(t, awards, "user-1", "task-1", 10)

	r, err := redemptions.Redeem(ctx, "user-1", "no-such-item", "key-1")
	require.ErrorIs(t, err, serviceerrs.ErrNotFound)
	assert.Equal(t, StatusRejected, r.Status)

	r, err = redemptions.Redeem(ctx, "user-1", "retired", "key-2")
	require.ErrorIs(t, err, serviceerrs.ErrNotFound)
	assert.Equal(t, StatusRejected, r.Status)
}

func TestRedeem_NonPositiveCostRejected(t *testing.T) {
	awards, redemptions, _, _ := newFixture()
	ctx := context.Background()

	earn(t, awards, "user-1", "task-1", 10)

	var validationErr *serviceerrs.ValidationError
	_, err := redemptions.Redeem(ctx, "user-1", "broken", "key-1")
	require.ErrorAs(t, err, &validationErr)
}

func TestRedeem_ValidatesRequest(t *testing.T) {
	_, redemptions, _, _ := newFixture()
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  string
		itemID  string
		idemKey string
	}{
		{name: "empty user", userID: "", itemID: "mug", idemKey: "key-1"},
		{name: "empty item", userID: "user-1", itemID: "", idemKey: "key-1"},
		{name: "empty idempotency key", userID: "user-1", itemID: "mug", idemKey: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var validationErr *serviceerrs.ValidationError
			r, err := redemptions.Redeem(ctx, tt.userID, tt.itemID, tt.idemKey)
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, StatusRejected, r.Status)
		})
	}
}

func TestRedeem_IdempotencyKeyReplay(t *testing.T) {
	awards, redemptions, balances, _ := newFixture()
	ctx := context.Background()

	earn(t, awards, "user-1", "task-1", 10)
	earn(t, awards, "user-1", "task-2", 10)

	_, err := redemptions.Redeem(ctx, "user-1", "mug", "key-1")
	require.NoError(t, err)

	r, err := redemptions.Redeem(ctx, "user-1", "mug", "key-1")
	require.ErrorIs(t, err, serviceerrs.ErrConflict)
	assert.Equal(t, StatusRejected, r.Status)

	got, err := balances.Balance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.Amount(36), got)
}
