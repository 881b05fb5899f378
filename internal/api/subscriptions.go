package api

import (
	"net/http"                        // HTTP status codes
	"project_hub/internal/domain"     // Importing domain models
	"project_hub/internal/recurrence" // Billing schedules
	"project_hub/internal/utils"      // Cache helpers
	"time"                            // Schedule windows

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

// maxScheduleYears bounds the window of a schedule projection
const maxScheduleYears = 5

// SubscriptionRequest is the body of create and update calls
type SubscriptionRequest struct {
	Name       string          `json:"name" binding:"required,max=160"`                                               // Service or contract name
	Kind       string          `json:"kind" binding:"omitempty,oneof=expense revenue"`                                // Defaults to expense
	Amount     decimal.Decimal `json:"amount"`                                                                        // Amount per period
	Frequency  string          `json:"frequency" binding:"required,oneof=weekly monthly quarterly semiannual yearly"` // Billing frequency
	StartDate  string          `json:"start_date" binding:"required,datetime=2006-01-02"`                             // First billing date
	TermMonths int             `json:"term_months" binding:"min=0,max=600"`                                           // 0 = open-ended
	ClientID   *uint           `json:"client_id"`                                                                     // Client for revenue contracts
	Status     string          `json:"status" binding:"omitempty,oneof=active paused"`                                // Cancel has its own endpoint
}

// CancelRequest is the optional body of a cancellation
type CancelRequest struct {
	Date string `json:"date" binding:"omitempty,datetime=2006-01-02"` // Defaults to today
}

// SubscriptionView adds the derived amounts to a subscription
type SubscriptionView struct {
	domain.Subscription
	MonthlyAmount decimal.Decimal `json:"monthly_amount"` // Amortized per month
	NextBilling   *time.Time      `json:"next_billing"`   // Next due date, nil once ended
}

func viewSubscription(s domain.Subscription, today time.Time) SubscriptionView {
	v := SubscriptionView{Subscription: s, MonthlyAmount: s.MonthlyAmount()}
	if s.Status != domain.SubscriptionPaused {
		if next, ok := s.Schedule().Next(today); ok {
			v.NextBilling = &next
		}
	}
	return v
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (r SubscriptionRequest) toSubscription(c *gin.Context, s *domain.Subscription) bool {
	if !r.Amount.IsPositive() {
		fail(c, http.StatusBadRequest, "Amount must be positive")
		return false
	}
	if _, err := recurrence.ParseFrequency(r.Frequency); err != nil {
		fail(c, http.StatusBadRequest, "Unknown frequency")
		return false
	}
	s.Name = r.Name
	if r.Kind != "" {
		s.Kind = r.Kind
	}
	if s.Kind == "" {
		s.Kind = domain.KindExpense
	}
	s.Amount = r.Amount
	s.Frequency = r.Frequency
	s.StartDate, _ = parseDate(r.StartDate) // Format already validated
	s.TermMonths = r.TermMonths
	s.ClientID = r.ClientID
	if r.Status != "" {
		s.Status = r.Status
	}
	if s.Status == "" {
		s.Status = domain.SubscriptionActive
	}
	return true
}

// ListSubscriptionsHandler lists subscriptions filtered by kind or status
func ListSubscriptionsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		page, pageSize, offset := pagination(c)
		query := db.WithContext(c.Request.Context()).Model(&domain.Subscription{}).Scopes(owned(userID))
		if kind := c.Query("kind"); kind != "" {
			query = query.Where("kind = ?", kind) // Filter by kind
		}
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status) // Filter by status
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			internalError(c, err, "Failed to count subscriptions", logrus.Fields{"user_id": userID})
			return
		}
		var subs []domain.Subscription
		if err := query.Order("name asc").Order("id asc").Offset(offset).Limit(pageSize).Find(&subs).Error; err != nil {
			internalError(c, err, "Failed to fetch subscriptions", logrus.Fields{"user_id": userID})
			return
		}
		day := today()
		views := make([]SubscriptionView, len(subs))
		for i, s := range subs {
			views[i] = viewSubscription(s, day)
		}
		c.JSON(http.StatusOK, pageResponse("subscriptions", views, page, pageSize, total))
	}
}

// CreateSubscriptionHandler creates a subscription or recurring contract
func CreateSubscriptionHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req SubscriptionRequest
		if !bindJSON(c, &req) {
			return
		}
		sub := domain.Subscription{UserID: userID}
		if !req.toSubscription(c, &sub) || !checkRef(c, db, &domain.Client{}, userID, req.ClientID, "client") {
			return
		}
		if err := db.WithContext(c.Request.Context()).Create(&sub).Error; err != nil {
			internalError(c, err, "Failed to create subscription", logrus.Fields{"user_id": userID})
			return
		}
		invalidate(cache, userID)
		logMutation("create_subscription", userID, sub.ID)
		c.JSON(http.StatusCreated, gin.H{"subscription": viewSubscription(sub, today())})
	}
}

// GetSubscriptionHandler returns one subscription
func GetSubscriptionHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var sub domain.Subscription
		if !findOwned(c, db, userID, id, &sub, "Subscription not found") {
			return
		}
		c.JSON(http.StatusOK, gin.H{"subscription": viewSubscription(sub, today())})
	}
}

// UpdateSubscriptionHandler replaces a subscription's fields
func UpdateSubscriptionHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req SubscriptionRequest
		if !bindJSON(c, &req) {
			return
		}
		var sub domain.Subscription
		if !findOwned(c, db, userID, id, &sub, "Subscription not found") {
			return
		}
		if sub.Status == domain.SubscriptionCancelled {
			fail(c, http.StatusConflict, "Subscription is cancelled")
			return
		}
		if !req.toSubscription(c, &sub) || !checkRef(c, db, &domain.Client{}, userID, req.ClientID, "client") {
			return
		}
		if err := db.WithContext(c.Request.Context()).Save(&sub).Error; err != nil {
			internalError(c, err, "Failed to update subscription", logrus.Fields{"user_id": userID, "subscription_id": id})
			return
		}
		invalidate(cache, userID)
		logMutation("update_subscription", userID, sub.ID)
		c.JSON(http.StatusOK, gin.H{"subscription": viewSubscription(sub, today())})
	}
}

// CancelSubscriptionHandler ends a subscription on the given date
func CancelSubscriptionHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req CancelRequest
		if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
			return
		}
		var sub domain.Subscription
		if !findOwned(c, db, userID, id, &sub, "Subscription not found") {
			return
		}
		if sub.Status == domain.SubscriptionCancelled {
			fail(c, http.StatusConflict, "Subscription is already cancelled")
			return
		}
		at := today()
		if req.Date != "" {
			at, _ = parseDate(req.Date) // Format already validated
		}
		if at.Before(sub.StartDate) {
			fail(c, http.StatusBadRequest, "Cancellation date is before the start date")
			return
		}
		if err := db.WithContext(c.Request.Context()).Model(&domain.Subscription{}).Where("id = ?", sub.ID).
			Updates(map[string]any{"status": domain.SubscriptionCancelled, "cancelled_at": at}).Error; err != nil {
			internalError(c, err, "Failed to cancel subscription", logrus.Fields{"user_id": userID, "subscription_id": id})
			return
		}
		sub.Status = domain.SubscriptionCancelled
		sub.CancelledAt = &at
		invalidate(cache, userID)
		logMutation("cancel_subscription", userID, sub.ID)
		c.JSON(http.StatusOK, gin.H{"subscription": viewSubscription(sub, today())})
	}
}

// DeleteSubscriptionHandler deletes a subscription
func DeleteSubscriptionHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var sub domain.Subscription
		if !findOwned(c, db, userID, id, &sub, "Subscription not found") {
			return
		}
		if err := db.WithContext(c.Request.Context()).Delete(&sub).Error; err != nil {
			internalError(c, err, "Failed to delete subscription", logrus.Fields{"user_id": userID, "subscription_id": id})
			return
		}
		invalidate(cache, userID)
		logMutation("delete_subscription", userID, id)
		c.JSON(http.StatusOK, gin.H{"message": "Subscription deleted"})
	}
}

// SubscriptionScheduleHandler projects the billing dates of a subscription between from and to
func SubscriptionScheduleHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var sub domain.Subscription
		if !findOwned(c, db, userID, id, &sub, "Subscription not found") {
			return
		}
		from := today() // Default window is one year from today
		if raw := c.Query("from"); raw != "" {
			t, err := parseDate(raw)
			if err != nil {
				fail(c, http.StatusBadRequest, "from must be formatted "+DateLayout)
				return
			}
			from = t
		}
		to := from.AddDate(1, 0, -1)
		if raw := c.Query("to"); raw != "" {
			t, err := parseDate(raw)
			if err != nil {
				fail(c, http.StatusBadRequest, "to must be formatted "+DateLayout)
				return
			}
			to = t
		}
		if to.Before(from) {
			fail(c, http.StatusBadRequest, "to is before from")
			return
		}
		if to.After(from.AddDate(maxScheduleYears, 0, 0)) {
			fail(c, http.StatusBadRequest, "Window is limited to 5 years")
			return
		}
		sched := sub.Schedule()
		occurrences := sched.Occurrences(from, to)
		if occurrences == nil {
			occurrences = []time.Time{}
		}
		billed := sub.Amount.Mul(decimal.NewFromInt(int64(len(occurrences))))
		resp := gin.H{
			"subscription_id": sub.ID,                  // Subscription
			"from":            from.Format(DateLayout), // Window start
			"to":              to.Format(DateLayout),   // Window end
			"occurrences":     occurrences,             // Due dates in the window
			"total":           billed,                  // Billed in the window
			"monthly_amount":  sub.MonthlyAmount(),     // Amortized per month
			"contract_value":  nil,                     // Full term value, nil when open-ended
			"end_date":        nil,                     // Exclusive end, nil when open-ended
			"next":            nil,                     // Next due date on or after from
		}
		if value, ok := recurrence.ContractValue(sub.Amount, sched); ok {
			resp["contract_value"] = value
		}
		if end, ok := sched.End(); ok {
			resp["end_date"] = end.Format(DateLayout)
		}
		if next, ok := sched.Next(from); ok {
			resp["next"] = next.Format(DateLayout)
		}
		c.JSON(http.StatusOK, resp)
	}
}
