// Package jobs holds the scheduled maintenance work: flagging overdue
// invoices and mailing the daily operations digest.
package jobs

import (
	"context"
	"fmt"
	"time"

	"project_hub/internal/domain"
	"project_hub/internal/mail"
	"project_hub/internal/metrics"
	"project_hub/internal/operations"
	"project_hub/internal/reports"
	"project_hub/internal/utils"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MarkOverdueInvoices moves sent invoices whose due date is before today to overdue
// and drops the cached dashboards of their owners.
func MarkOverdueInvoices(ctx context.Context, db *gorm.DB, cache *utils.Cache, today time.Time) (int64, error) {
	day := operations.Civil(today)
	var updated int64
	var owners []uint
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		due := tx.Model(&domain.Invoice{}).Where("status = ? AND due_date < ?", domain.InvoiceSent, day)
		if err := due.Session(&gorm.Session{}).Distinct().Pluck("user_id", &owners).Error; err != nil {
			return err
		}
		if len(owners) == 0 {
			return nil
		}
		res := due.Session(&gorm.Session{}).Update("status", domain.InvoiceOverdue)
		updated = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("mark overdue invoices: %w", err)
	}
	for _, userID := range owners {
		if err := cache.Invalidate(ctx, userID); err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Cache invalidation failed")
		}
	}
	return updated, nil
}

// SendDailyDigests mails the operations dashboard to every user with something overdue or due today.
// It returns the number of digests sent; a failure for one user does not stop the others.
func SendDailyDigests(ctx context.Context, db *gorm.DB, mailer mail.Mailer, now time.Time, loc *time.Location) (int, error) {
	if loc == nil {
		loc = time.UTC
	}
	today := now.In(loc)
	var users []domain.User
	if err := db.WithContext(ctx).Order("id asc").Find(&users).Error; err != nil {
		return 0, fmt.Errorf("load users: %w", err)
	}
	sent := 0
	for i := range users {
		user := &users[i]
		log := logrus.WithField("user_id", user.ID)
		dashboard, err := reports.Operations(ctx, db, user.ID, today, operations.DefaultHorizon)
		if err != nil {
			log.WithError(err).Error("Digest dashboard failed")
			continue
		}
		if !dashboard.NeedsAttention() {
			continue
		}
		msg, err := mail.DigestEmail(user, dashboard)
		if err != nil {
			log.WithError(err).Error("Digest render failed")
			continue
		}
		if err := mailer.Send(ctx, msg); err != nil {
			log.WithError(err).Error("Digest delivery failed")
			continue
		}
		sent++
	}
	return sent, nil
}

// Scheduler runs the jobs on cron schedules inside the server process
type Scheduler struct {
	cron   *cron.Cron
	db     *gorm.DB
	cache  *utils.Cache
	mailer mail.Mailer
	loc    *time.Location
}

// NewScheduler registers the jobs. digestSpec is a standard five-field cron expression
// evaluated in loc; overdue invoices are swept at every hour.
func NewScheduler(db *gorm.DB, cache *utils.Cache, mailer mail.Mailer, loc *time.Location, digestSpec string) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		db:     db,
		cache:  cache,
		mailer: mailer,
		loc:    loc,
	}
	if _, err := s.cron.AddFunc("@hourly", s.markOverdue); err != nil {
		return nil, fmt.Errorf("schedule overdue sweep: %w", err)
	}
	if _, err := s.cron.AddFunc(digestSpec, s.sendDigests); err != nil {
		return nil, fmt.Errorf("schedule digest %q: %w", digestSpec, err)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	logrus.WithField("jobs", len(s.cron.Entries())).Info("Scheduler started")
}

// Stop waits for running jobs to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) markOverdue() {
	n, err := MarkOverdueInvoices(context.Background(), s.db, s.cache, time.Now().In(s.loc))
	metrics.RecordJobRun("mark_overdue", err == nil)
	if err != nil {
		logrus.WithError(err).Error("Overdue sweep failed")
		return
	}
	if n > 0 {
		logrus.WithField("invoices", n).Info("Invoices marked overdue")
	}
}

func (s *Scheduler) sendDigests() {
	n, err := SendDailyDigests(context.Background(), s.db, s.mailer, time.Now(), s.loc)
	metrics.RecordJobRun("daily_digest", err == nil)
	if err != nil {
		logrus.WithError(err).Error("Daily digest failed")
		return
	}
	logrus.WithField("sent", n).Info("Daily digests sent")
}
