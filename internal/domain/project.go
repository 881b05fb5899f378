package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project statuses
const (
	ProjectPlanning  = "planning"
	ProjectActive    = "active"
	ProjectOnHold    = "on_hold"
	ProjectCompleted = "completed"
	ProjectCancelled = "cancelled"
)

// Project Model
type Project struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                                // Primary key
	UserID      uint            `gorm:"index;not null" json:"-"`                             // Owner
	ClientID    *uint           `gorm:"index" json:"client_id"`                              // Optional client
	Name        string          `gorm:"size:160;not null" json:"name"`                       // Project name
	Description string          `gorm:"type:text" json:"description"`                        // Description
	Status      string          `gorm:"size:16;default:active" json:"status"`                // Lifecycle status
	Budget      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"budget"` // Planned budget
	StartDate   *time.Time      `json:"start_date"`                                          // Planned start
	DueDate     *time.Time      `gorm:"index" json:"due_date"`                               // Deadline
	Tasks       []Task          `gorm:"constraint:OnDelete:CASCADE;" json:"tasks,omitempty"` // Tasks of the project
	CreatedAt   time.Time       `json:"created_at"`                                          // Creation time
	UpdatedAt   time.Time       `json:"updated_at"`                                          // Last update
}
