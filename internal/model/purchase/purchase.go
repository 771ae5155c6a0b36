package purchase

import (
	"time"

	"github.com/rangkeep/rangs/internal/model"
)

// Purchase pairs 1:1 with the spend ledger entry that paid for it.
type Purchase struct {
	CreatedAt time.Time    `json:"created_at"`
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	ItemID    string       `json:"item_id"`
	EntryID   string       `json:"entry_id"`
	Cost      model.Amount `json:"cost"`
}
