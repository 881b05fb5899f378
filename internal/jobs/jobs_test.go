package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"project_hub/internal/domain"
	"project_hub/internal/mail"
	"project_hub/internal/testutil"
	"project_hub/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingMailer struct {
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedUser(t *testing.T, db *gorm.DB, email string) domain.User {
	t.Helper()
	u := domain.User{Email: email, Name: email, Password: "x", Role: domain.RoleUser}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedInvoice(t *testing.T, db *gorm.DB, userID uint, number, status string, due time.Time) domain.Invoice {
	t.Helper()
	inv := domain.Invoice{
		UserID: userID, Number: number, Status: status,
		IssueDate: due.AddDate(0, 0, -30), DueDate: due,
		Items: []domain.InvoiceItem{{Description: "Work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)}},
	}
	require.NoError(t, db.Create(&inv).Error)
	return inv
}

func TestMarkOverdueInvoices(t *testing.T) {
	db := testutil.NewDB(t)
	u := seedUser(t, db, "a@example.com")
	late := seedInvoice(t, db, u.ID, "INV-0001", domain.InvoiceSent, day(2024, time.May, 9))
	dueToday := seedInvoice(t, db, u.ID, "INV-0002", domain.InvoiceSent, day(2024, time.May, 10))
	draft := seedInvoice(t, db, u.ID, "INV-0003", domain.InvoiceDraft, day(2024, time.May, 1))

	n, err := MarkOverdueInvoices(context.Background(), db, nil, time.Date(2024, time.May, 10, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	status := func(id uint) string {
		var inv domain.Invoice
		require.NoError(t, db.First(&inv, id).Error)
		return inv.Status
	}
	assert.Equal(t, domain.InvoiceOverdue, status(late.ID))
	assert.Equal(t, domain.InvoiceSent, status(dueToday.ID))
	assert.Equal(t, domain.InvoiceDraft, status(draft.ID))

	// a second sweep finds nothing new
	n, err = MarkOverdueInvoices(context.Background(), db, nil, day(2024, time.May, 10))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMarkOverdueInvoicesDropsOwnersCachedDashboards(t *testing.T) {
	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cache := utils.NewCache(rdb, time.Minute)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	seedInvoice(t, db, owner.ID, "INV-0001", domain.InvoiceSent, day(2024, time.May, 1))
	seedInvoice(t, db, other.ID, "INV-0001", domain.InvoiceDraft, day(2024, time.May, 1))

	ownerKey := cache.UserKey(ctx, owner.ID, "operations")
	otherKey := cache.UserKey(ctx, other.ID, "operations")
	require.NotEmpty(t, ownerKey)

	n, err := MarkOverdueInvoices(ctx, db, cache, day(2024, time.May, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotEqual(t, ownerKey, cache.UserKey(ctx, owner.ID, "operations"))
	assert.Equal(t, otherKey, cache.UserKey(ctx, other.ID, "operations"))

	// nothing left to flag, nothing to drop
	ownerKey = cache.UserKey(ctx, owner.ID, "operations")
	n, err = MarkOverdueInvoices(ctx, db, cache, day(2024, time.May, 10))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, ownerKey, cache.UserKey(ctx, owner.ID, "operations"))
}

func TestSendDailyDigestsOnlyMailsUsersWithUrgentItems(t *testing.T) {
	db := testutil.NewDB(t)
	busy := seedUser(t, db, "busy@example.com")
	idle := seedUser(t, db, "idle@example.com")
	seedInvoice(t, db, busy.ID, "INV-0001", domain.InvoiceSent, day(2024, time.May, 1))
	due := day(2024, time.May, 20) // beyond tomorrow, not urgent
	require.NoError(t, db.Create(&domain.Task{UserID: idle.ID, Title: "Later", Status: domain.TaskTodo, Priority: domain.PriorityLow, DueDate: &due}).Error)

	m := &recordingMailer{}
	sent, err := SendDailyDigests(context.Background(), db, m, day(2024, time.May, 10), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, m.sent, 1)
	assert.Equal(t, []string{"busy@example.com"}, m.sent[0].To)
	assert.Contains(t, m.sent[0].Subject, "1 overdue")
}

func TestSendDailyDigestsContinuesPastDeliveryFailures(t *testing.T) {
	db := testutil.NewDB(t)
	u := seedUser(t, db, "a@example.com")
	seedInvoice(t, db, u.ID, "INV-0001", domain.InvoiceOverdue, day(2024, time.May, 1))

	sent, err := SendDailyDigests(context.Background(), db, &recordingMailer{err: errors.New("down")}, day(2024, time.May, 10), nil)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := NewScheduler(db, nil, &recordingMailer{}, time.UTC, "not a cron spec")
	assert.Error(t, err)

	s, err := NewScheduler(db, nil, &recordingMailer{}, nil, "0 7 * * *")
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 2)
}
