// Package award computes the reward for a completed work item.
// The calculation is pure: appending the ledger entry, with the task id as
// sourceRef for idempotency, is the caller's job.
package award

import (
	"github.com/rangkeep/rangs/internal/model"
	"github.com/rangkeep/rangs/internal/model/task"
)

const (
	baseReward           = 5
	importanceMultiplier = 2
	maxImportance        = 10
	defaultBonus         = 5
)

var categoryBonus = map[task.Category]int64{
	task.CategoryExam:       15,
	task.CategoryAssignment: 10,
	task.CategoryWork:       8,
	task.CategoryPersonal:   5,
	task.CategoryErrand:     3,
}

// Calculate returns the reward amount for t, or ok=false when the task
// was completed past its due date. A task without a due date is always
// eligible: untracked deadlines never penalize.
func Calculate(t *task.Completed) (model.Amount, bool) {
	if t.DueDate != nil && t.CompletedAt.After(*t.DueDate) {
		return 0, false
	}

	importance := int64(t.Importance)
	if importance > maxImportance {
		importance = maxImportance
	}

	bonus, found := categoryBonus[t.Category]
	if !found {
		bonus = defaultBonus
	}

	return model.Amount(baseReward + importanceMultiplier*importance + bonus), true
}
