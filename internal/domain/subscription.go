package domain

import (
	"time"

	"project_hub/internal/recurrence"

	"github.com/shopspring/decimal"
)

// Subscription kinds
const (
	KindExpense = "expense" // a service we pay for
	KindRevenue = "revenue" // a recurring contract billed to a client
)

// Subscription statuses
const (
	SubscriptionActive    = "active"
	SubscriptionPaused    = "paused"
	SubscriptionCancelled = "cancelled"
)

// Subscription Model
type Subscription struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                         // Primary key
	UserID      uint            `gorm:"index;not null" json:"-"`                      // Owner
	ClientID    *uint           `gorm:"index" json:"client_id"`                       // Client for revenue contracts
	Name        string          `gorm:"size:160;not null" json:"name"`                // Service or contract name
	Kind        string          `gorm:"size:16;not null;default:expense" json:"kind"` // expense or revenue
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`    // Amount per period
	Frequency   string          `gorm:"size:16;not null" json:"frequency"`            // Billing frequency
	StartDate   time.Time       `json:"start_date"`                                   // First billing date
	TermMonths  int             `gorm:"not null;default:0" json:"term_months"`        // Contract term, 0 = open-ended
	Status      string          `gorm:"size:16;default:active" json:"status"`         // active, paused, cancelled
	CancelledAt *time.Time      `json:"cancelled_at"`                                 // Cancellation date
	CreatedAt   time.Time       `json:"created_at"`                                   // Creation time
	UpdatedAt   time.Time       `json:"updated_at"`                                   // Last update
}

// Schedule projects the subscription's billing dates. Cancellation ends it.
func (s *Subscription) Schedule() recurrence.Schedule {
	sched := recurrence.Schedule{
		Start:      s.StartDate,
		Frequency:  recurrence.Frequency(s.Frequency),
		TermMonths: s.TermMonths,
	}
	if s.Status == SubscriptionCancelled {
		until := s.StartDate
		if s.CancelledAt != nil {
			until = *s.CancelledAt
		}
		sched.Until = &until
	}
	return sched
}

// MonthlyAmount is the per-period amount amortized over a month
func (s *Subscription) MonthlyAmount() decimal.Decimal {
	return recurrence.MonthlyAmount(s.Amount, recurrence.Frequency(s.Frequency))
}
