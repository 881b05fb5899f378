package domain

import "time"

// Client Model, a customer billed through invoices or recurring contracts
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`          // Primary key
	UserID    uint      `gorm:"index;not null" json:"-"`       // Owner
	Name      string    `gorm:"size:160;not null" json:"name"` // Contact name
	Email     string    `gorm:"size:191" json:"email"`         // Billing email
	Company   string    `gorm:"size:160" json:"company"`       // Company name
	Phone     string    `gorm:"size:40" json:"phone"`          // Phone number
	Notes     string    `gorm:"type:text" json:"notes"`        // Free-form notes
	CreatedAt time.Time `json:"created_at"`                    // Creation time
	UpdatedAt time.Time `json:"updated_at"`                    // Last update
}
