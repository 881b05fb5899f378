package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense Model
type Expense struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                      // Primary key
	UserID      uint            `gorm:"index;not null" json:"-"`                   // Owner
	ProjectID   *uint           `gorm:"index" json:"project_id"`                   // Related project
	Category    string          `gorm:"size:80;index;not null" json:"category"`    // Bookkeeping category
	Vendor      string          `gorm:"size:160" json:"vendor"`                    // Who was paid
	Description string          `gorm:"size:255" json:"description"`               // What for
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"` // Amount paid
	Date        time.Time       `gorm:"index" json:"date"`                         // Date of expense
	Deductible  bool            `gorm:"not null" json:"deductible"`                // Counts against taxable income
	CreatedAt   time.Time       `json:"created_at"`                                // Creation time
	UpdatedAt   time.Time       `json:"updated_at"`                                // Last update
}
