package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice statuses
const (
	InvoiceDraft     = "draft"
	InvoiceSent      = "sent"
	InvoicePaid      = "paid"
	InvoiceOverdue   = "overdue"
	InvoiceCancelled = "cancelled"
)

var hundred = decimal.NewFromInt(100)

// Invoice Model
type Invoice struct {
	ID        uint            `gorm:"primaryKey" json:"id"`                                               // Primary key
	UserID    uint            `gorm:"uniqueIndex:idx_invoice_user_number;not null" json:"-"`              // Owner
	ClientID  *uint           `gorm:"index" json:"client_id"`                                             // Billed client
	ProjectID *uint           `gorm:"index" json:"project_id"`                                            // Related project
	Number    string          `gorm:"size:40;uniqueIndex:idx_invoice_user_number;not null" json:"number"` // Invoice number, unique per user
	Status    string          `gorm:"size:16;default:draft" json:"status"`                                // Lifecycle status
	IssueDate time.Time       `json:"issue_date"`                                                         // Date of issue
	DueDate   time.Time       `gorm:"index" json:"due_date"`                                              // Payment deadline
	PaidAt    *time.Time      `gorm:"index" json:"paid_at"`                                               // Payment date
	TaxRate   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"`               // Percent, 20 = 20%
	Notes     string          `gorm:"type:text" json:"notes"`                                             // Printed notes
	Items     []InvoiceItem   `gorm:"constraint:OnDelete:CASCADE;" json:"items"`                          // Line items
	Client    *Client         `gorm:"constraint:OnDelete:SET NULL;" json:"client,omitempty"`              // Preloaded client
	CreatedAt time.Time       `json:"created_at"`                                                         // Creation time
	UpdatedAt time.Time       `json:"updated_at"`                                                         // Last update
}

// InvoiceItem Model
type InvoiceItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                          // Primary key
	InvoiceID   uint            `gorm:"index;not null" json:"-"`                       // Parent invoice
	Description string          `gorm:"size:255;not null" json:"description"`          // Line description
	Quantity    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"quantity"`   // Units
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"` // Price per unit
}

// Amount is quantity times unit price
func (i InvoiceItem) Amount() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// Subtotal sums the line items before tax
func (inv *Invoice) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range inv.Items {
		sum = sum.Add(it.Amount())
	}
	return sum.Round(2)
}

// Tax is the subtotal times the invoice tax rate
func (inv *Invoice) Tax() decimal.Decimal {
	return inv.Subtotal().Mul(inv.TaxRate).Div(hundred).Round(2)
}

// Total is subtotal plus tax
func (inv *Invoice) Total() decimal.Decimal {
	return inv.Subtotal().Add(inv.Tax())
}

// Outstanding reports whether the invoice still awaits payment
func (inv *Invoice) Outstanding() bool {
	return inv.Status == InvoiceSent || inv.Status == InvoiceOverdue
}
