package domain

import "time"

// Feature request statuses
const (
	FeatureOpen       = "open"
	FeaturePlanned    = "planned"
	FeatureInProgress = "in_progress"
	FeatureDone       = "done"
	FeatureRejected   = "rejected"
)

// FeatureRequest Model
type FeatureRequest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`                   // Primary key
	UserID      uint      `gorm:"index;not null" json:"-"`                // Owner
	ProjectID   *uint     `gorm:"index" json:"project_id"`                // Related project
	Title       string    `gorm:"size:200;not null" json:"title"`         // Title
	Description string    `gorm:"type:text" json:"description"`           // Details
	Status      string    `gorm:"size:16;default:open" json:"status"`     // Lifecycle status
	Priority    string    `gorm:"size:16;default:medium" json:"priority"` // low .. urgent
	Votes       int       `gorm:"not null;default:0" json:"votes"`        // Upvotes
	CreatedAt   time.Time `json:"created_at"`                             // Creation time
	UpdatedAt   time.Time `json:"updated_at"`                             // Last update
}
