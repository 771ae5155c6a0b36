package wallet

import "github.com/rangkeep/rangs/internal/model"

// Wallet is the cached projection of a user's ledger, one row per user.
// It is not a source of truth: the balance must always equal the sum of
// the user's entry amounts and can be rebuilt from them at any time.
type Wallet struct {
	UserID  string       `json:"user_id"`
	Balance model.Amount `json:"balance"`
}
