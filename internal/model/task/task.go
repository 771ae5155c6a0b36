package task

import "time"

type Category string

const (
	CategoryExam       Category = "exam"
	CategoryAssignment Category = "assignment"
	CategoryWork       Category = "work"
	CategoryPersonal   Category = "personal"
	CategoryErrand     Category = "errand"
)

// Completed describes a finished work item as reported by the external
// tracker. DueDate is nil for tasks with no tracked deadline.
type Completed struct {
	CompletedAt time.Time  `json:"completed_at"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Category    Category   `json:"category"`
	Importance  int        `json:"importance"`
}
