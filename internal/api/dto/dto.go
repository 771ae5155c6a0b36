package dto

import (
	"errors"
	"time"

	"github.com/rangkeep/rangs/internal/model/ledger"
	"github.com/rangkeep/rangs/internal/model/purchase"
	"github.com/rangkeep/rangs/internal/model/task"
)

type CompletionRequest struct {
	CompletedAt time.Time  `json:"completed_at"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	TaskID      string     `json:"task_id"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Importance  int        `json:"importance"`
}

func (r *CompletionRequest) IsValid() error {
	var taskErr, importanceErr, completedErr error
	if r.TaskID == "" {
		taskErr = errors.New("task_id is empty")
	}
	if r.Importance < 1 || r.Importance > 10 {
		importanceErr = errors.New("importance must be in [1,10]")
	}
	if r.CompletedAt.IsZero() {
		completedErr = errors.New("completed_at is empty")
	}
	return errors.Join(taskErr, importanceErr, completedErr)
}

func (r *CompletionRequest) ToTask() *task.Completed {
	return &task.Completed{
		CompletedAt: r.CompletedAt,
		DueDate:     r.DueDate,
		ID:          r.TaskID,
		Title:       r.Title,
		Category:    task.Category(r.Category),
		Importance:  r.Importance,
	}
}

type AwardResponse struct {
	Awarded bool  `json:"awarded"`
	Amount  int64 `json:"amount,omitempty"`
	Balance int64 `json:"balance,omitempty"`
}

type RedeemRequest struct {
	ItemID         string `json:"item_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (r *RedeemRequest) IsValid() error {
	var itemErr, keyErr error
	if r.ItemID == "" {
		itemErr = errors.New("item_id is empty")
	}
	if r.IdempotencyKey == "" {
		keyErr = errors.New("idempotency_key is empty")
	}
	return errors.Join(itemErr, keyErr)
}

type RedeemResponse struct {
	NewBalance int64 `json:"new_balance"`
}

type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

type EntryResponse struct {
	CreatedAt   time.Time `json:"created_at"`
	Kind        string    `json:"kind"`
	SourceRef   string    `json:"source_ref"`
	Description string    `json:"description"`
	Amount      int64     `json:"amount"`
}

func NewEntryResponse(e *ledger.Entry) EntryResponse {
	return EntryResponse{
		CreatedAt:   e.CreatedAt,
		Kind:        string(e.Kind),
		SourceRef:   e.SourceRef,
		Description: e.Description,
		Amount:      e.Amount.Int64(),
	}
}

type PurchaseResponse struct {
	CreatedAt time.Time `json:"created_at"`
	ItemID    string    `json:"item_id"`
	Cost      int64     `json:"cost"`
}

func NewPurchaseResponse(p *purchase.Purchase) PurchaseResponse {
	return PurchaseResponse{
		CreatedAt: p.CreatedAt,
		ItemID:    p.ItemID,
		Cost:      p.Cost.Int64(),
	}
}
