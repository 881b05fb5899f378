package domain

import "time"

// Task statuses
const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
)

// Priorities shared by tasks and feature requests
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Task Model
type Task struct {
	ID          uint       `gorm:"primaryKey" json:"id"`                   // Primary key
	UserID      uint       `gorm:"index;not null" json:"-"`                // Owner
	ProjectID   *uint      `gorm:"index" json:"project_id"`                // Optional project
	Title       string     `gorm:"size:200;not null" json:"title"`         // Title
	Description string     `gorm:"type:text" json:"description"`           // Details
	Status      string     `gorm:"size:16;default:todo" json:"status"`     // todo, in_progress, done
	Priority    string     `gorm:"size:16;default:medium" json:"priority"` // low .. urgent
	DueDate     *time.Time `gorm:"index" json:"due_date"`                  // Deadline
	CompletedAt *time.Time `json:"completed_at"`                           // Set when done
	CreatedAt   time.Time  `json:"created_at"`                             // Creation time
	UpdatedAt   time.Time  `json:"updated_at"`                             // Last update
}

// SetStatus changes the status and keeps CompletedAt in step with it
func (t *Task) SetStatus(status string, now time.Time) {
	if status == TaskDone && t.Status != TaskDone {
		t.CompletedAt = &now
	}
	if status != TaskDone {
		t.CompletedAt = nil
	}
	t.Status = status
}
