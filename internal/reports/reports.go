// Package reports loads a user's rows and feeds them to the finance and
// operations rollups.
package reports

import (
	"context"
	"time"

	"project_hub/internal/domain"
	"project_hub/internal/finance"
	"project_hub/internal/operations"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Finance builds the year-to-date summary of one user
func Finance(ctx context.Context, db *gorm.DB, userID uint, year int, asOf time.Time, taxRate decimal.Decimal) (*finance.Summary, error) {
	from, to, err := finance.Window(year, asOf)
	if err != nil {
		return nil, err
	}
	tx := db.WithContext(ctx)

	var invoices []domain.Invoice
	if err := tx.Preload("Items").
		Where("user_id = ? AND status = ? AND paid_at BETWEEN ? AND ?", userID, domain.InvoicePaid, from, to).
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	var expenses []domain.Expense
	if err := tx.Where("user_id = ? AND date BETWEEN ? AND ?", userID, from, to).
		Find(&expenses).Error; err != nil {
		return nil, err
	}
	var subs []domain.Subscription
	if err := tx.Where("user_id = ? AND start_date <= ?", userID, to).
		Find(&subs).Error; err != nil {
		return nil, err
	}

	return finance.Summarize(finance.Input{
		Year:          year,
		AsOf:          asOf,
		TaxRate:       taxRate,
		Invoices:      invoices,
		Expenses:      expenses,
		Subscriptions: subs,
	})
}

// Operations builds the dashboard of one user for the calendar day of today
func Operations(ctx context.Context, db *gorm.DB, userID uint, today time.Time, horizon int) (*operations.Dashboard, error) {
	day := operations.Civil(today)
	limit := day.AddDate(0, 0, operations.ClampHorizon(horizon)+1)
	tx := db.WithContext(ctx)

	var tasks []domain.Task
	if err := tx.Where("user_id = ? AND status <> ? AND due_date IS NOT NULL AND due_date < ?", userID, domain.TaskDone, limit).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	var invoices []domain.Invoice
	if err := tx.Preload("Items").
		Where("user_id = ? AND status IN ? AND due_date < ?", userID, []string{domain.InvoiceSent, domain.InvoiceOverdue}, limit).
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	var projects []domain.Project
	if err := tx.Where("user_id = ? AND status = ? AND due_date IS NOT NULL AND due_date < ?", userID, domain.ProjectActive, limit).
		Find(&projects).Error; err != nil {
		return nil, err
	}
	var subs []domain.Subscription
	if err := tx.Where("user_id = ? AND status = ?", userID, domain.SubscriptionActive).
		Find(&subs).Error; err != nil {
		return nil, err
	}

	return operations.Collate(operations.Input{
		Today:         today,
		Horizon:       horizon,
		Tasks:         tasks,
		Invoices:      invoices,
		Projects:      projects,
		Subscriptions: subs,
	}), nil
}
