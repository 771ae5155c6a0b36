package award

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rangkeep/rangs/internal/model"
	"github.com/rangkeep/rangs/internal/model/task"
)

func TestCalculate_Amount(t *testing.T) {
	completedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		category   task.Category
		importance int
		want       model.Amount
	}{
		{name: "max importance exam", category: task.CategoryExam, importance: 10, want: 40},
		{name: "min importance errand", category: task.CategoryErrand, importance: 1, want: 10},
		{name: "assignment", category: task.CategoryAssignment, importance: 5, want: 25},
		{name: "work", category: task.CategoryWork, importance: 3, want: 19},
		{name: "personal", category: task.CategoryPersonal, importance: 7, want: 24},
		{name: "unrecognized category falls back to 5", category: "chores", importance: 2, want: 14},
		{name: "importance clamped at 10", category: task.CategoryExam, importance: 100500, want: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, ok := Calculate(&task.Completed{
				ID:          "task-1",
				Category:    tt.category,
				Importance:  tt.importance,
				CompletedAt: completedAt,
			})
			assert.True(t, ok)
			assert.Equal(t, tt.want, amount)
		})
	}
}

func TestCalculate_Eligibility(t *testing.T) {
	due := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		dueDate     *time.Time
		completedAt time.Time
		wantOK      bool
	}{
		{
			name:        "on time",
			dueDate:     &due,
			completedAt: due.Add(-time.Hour),
			wantOK:      true,
		},
		{
			name:        "exactly at the deadline",
			dueDate:     &due,
			completedAt: due,
			wantOK:      true,
		},
		{
			name:        "late",
			dueDate:     &due,
			completedAt: due.Add(time.Minute),
			wantOK:      false,
		},
		{
			name:        "no due date is always eligible",
			dueDate:     nil,
			completedAt: due.Add(24 * 365 * time.Hour),
			wantOK:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, ok := Calculate(&task.Completed{
				ID:          "task-1",
				Category:    task.CategoryWork,
				Importance:  5,
				DueDate:     tt.dueDate,
				CompletedAt: tt.completedAt,
			})
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, model.Amount(0), amount)
			}
		})
	}
}
