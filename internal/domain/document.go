package domain

import "time"

// Document Model, a markdown documentation page
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                                             // Primary key
	UserID    uint      `gorm:"uniqueIndex:idx_document_user_slug;not null" json:"-"`             // Owner
	ProjectID *uint     `gorm:"index" json:"project_id"`                                          // Related project
	Title     string    `gorm:"size:200;not null" json:"title"`                                   // Title
	Slug      string    `gorm:"size:200;uniqueIndex:idx_document_user_slug;not null" json:"slug"` // URL slug, unique per user
	Content   string    `gorm:"type:longtext" json:"content"`                                     // Markdown body
	Published bool      `gorm:"default:false" json:"published"`                                   // Visible to others
	CreatedAt time.Time `json:"created_at"`                                                       // Creation time
	UpdatedAt time.Time `json:"updated_at"`                                                       // Last update
}
