package ledger

import (
	"time"

	"github.com/rangkeep/rangs/internal/model"
)

type Kind string

const (
	KindEarn  Kind = "earn"
	KindSpend Kind = "spend"
)

// Entry is one immutable row of the ledger. Amount is signed: positive for
// KindEarn, negative for KindSpend. SourceRef identifies the originating
// event (a completed-task id for earns, a client idempotency key for
// spends) and is unique per user.
type Entry struct {
	CreatedAt   time.Time    `json:"created_at"`
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Kind        Kind         `json:"kind"`
	SourceRef   string       `json:"source_ref"`
	Description string       `json:"description"`
	Amount      model.Amount `json:"amount"`
}
