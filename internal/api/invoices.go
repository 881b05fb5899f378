package api

import (
	"errors"                      // Error inspection
	"fmt"                         // Invoice numbering
	"net/http"                    // HTTP status codes
	"project_hub/internal/domain" // Importing domain models
	"project_hub/internal/mail"   // Invoice emails
	"project_hub/internal/utils"  // Cache helpers
	"time"                        // Payment dates

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Association handling
)

var maxTaxRate = decimal.NewFromInt(100)

// InvoiceItemRequest is one line of an invoice
type InvoiceItemRequest struct {
	Description string          `json:"description" binding:"required,max=255"` // Line description
	Quantity    decimal.Decimal `json:"quantity"`                               // Units, must be positive
	UnitPrice   decimal.Decimal `json:"unit_price"`                             // Price per unit, not negative
}

// InvoiceRequest is the body of create and update calls
type InvoiceRequest struct {
	Number    string               `json:"number" binding:"max=40"`                           // Empty means next number
	ClientID  *uint                `json:"client_id"`                                         // Billed client
	ProjectID *uint                `json:"project_id"`                                        // Related project
	IssueDate string               `json:"issue_date" binding:"required,datetime=2006-01-02"` // Date of issue
	DueDate   string               `json:"due_date" binding:"required,datetime=2006-01-02"`   // Payment deadline
	TaxRate   decimal.Decimal      `json:"tax_rate"`                                          // Percent
	Notes     string               `json:"notes"`                                             // Printed notes
	Items     []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`               // Line items
}

// PayRequest is the optional body of a payment
type PayRequest struct {
	PaidAt string `json:"paid_at" binding:"omitempty,datetime=2006-01-02"` // Defaults to today
}

// InvoiceView adds the computed amounts to an invoice
type InvoiceView struct {
	domain.Invoice
	Subtotal decimal.Decimal `json:"subtotal"` // Sum of lines
	Tax      decimal.Decimal `json:"tax"`      // Tax amount
	Total    decimal.Decimal `json:"total"`    // Amount due
}

func viewInvoice(inv domain.Invoice) InvoiceView {
	return InvoiceView{Invoice: inv, Subtotal: inv.Subtotal(), Tax: inv.Tax(), Total: inv.Total()}
}

// toInvoice validates cross-field rules and copies the request onto inv
func (r InvoiceRequest) toInvoice(c *gin.Context, inv *domain.Invoice) bool {
	issue, _ := parseDate(r.IssueDate) // Format already validated
	due, _ := parseDate(r.DueDate)
	if due.Before(issue) {
		fail(c, http.StatusBadRequest, "Due date is before issue date")
		return false
	}
	if r.TaxRate.IsNegative() || r.TaxRate.GreaterThan(maxTaxRate) {
		fail(c, http.StatusBadRequest, "Tax rate must be between 0 and 100")
		return false
	}
	items := make([]domain.InvoiceItem, 0, len(r.Items))
	for _, it := range r.Items {
		if !it.Quantity.IsPositive() || it.UnitPrice.IsNegative() {
			fail(c, http.StatusBadRequest, "Item quantity must be positive and unit price not negative")
			return false
		}
		items = append(items, domain.InvoiceItem{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	inv.ClientID = r.ClientID
	inv.ProjectID = r.ProjectID
	inv.IssueDate = issue
	inv.DueDate = due
	inv.TaxRate = r.TaxRate
	inv.Notes = r.Notes
	inv.Items = items
	return true
}

// nextInvoiceNumber picks the first free INV-#### number of the user
func nextInvoiceNumber(tx *gorm.DB, userID uint) (string, error) {
	var count int64
	if err := tx.Model(&domain.Invoice{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return "", err
	}
	for n := count + 1; ; n++ {
		number := fmt.Sprintf("INV-%04d", n)
		var taken int64
		if err := tx.Model(&domain.Invoice{}).Where("user_id = ? AND number = ?", userID, number).Count(&taken).Error; err != nil {
			return "", err
		}
		if taken == 0 {
			return number, nil
		}
	}
}

// numberTaken reports whether another invoice of the user already uses number
func numberTaken(tx *gorm.DB, userID, exceptID uint, number string) (bool, error) {
	var count int64
	err := tx.Model(&domain.Invoice{}).Where("user_id = ? AND number = ? AND id <> ?", userID, number, exceptID).Count(&count).Error
	return count > 0, err
}

// loadInvoice loads an invoice of the user with its items
func loadInvoice(c *gin.Context, db *gorm.DB, userID, id uint) (*domain.Invoice, bool) {
	var inv domain.Invoice
	if !findOwned(c, db.Preload("Items"), userID, id, &inv, "Invoice not found") {
		return nil, false
	}
	return &inv, true
}

// ListInvoicesHandler lists invoices filtered by status or client
func ListInvoicesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		page, pageSize, offset := pagination(c)
		query := db.WithContext(c.Request.Context()).Model(&domain.Invoice{}).Scopes(owned(userID))
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status) // Filter by status
		}
		if clientID, ok := queryUint(c, "client_id"); ok {
			query = query.Where("client_id = ?", clientID) // Filter by client
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			internalError(c, err, "Failed to count invoices", logrus.Fields{"user_id": userID})
			return
		}
		var invoices []domain.Invoice
		if err := query.Preload("Items").Order("issue_date desc").Order("id desc").
			Offset(offset).Limit(pageSize).Find(&invoices).Error; err != nil {
			internalError(c, err, "Failed to fetch invoices", logrus.Fields{"user_id": userID})
			return
		}
		views := make([]InvoiceView, len(invoices))
		for i, inv := range invoices {
			views[i] = viewInvoice(inv)
		}
		c.JSON(http.StatusOK, pageResponse("invoices", views, page, pageSize, total))
	}
}

// CreateInvoiceHandler creates a draft invoice with its items
func CreateInvoiceHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req InvoiceRequest
		if !bindJSON(c, &req) {
			return
		}
		inv := domain.Invoice{UserID: userID, Status: domain.InvoiceDraft}
		if !req.toInvoice(c, &inv) ||
			!checkRef(c, db, &domain.Client{}, userID, req.ClientID, "client") ||
			!checkRef(c, db, &domain.Project{}, userID, req.ProjectID, "project") {
			return
		}
		errTaken := errors.New("number taken")
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			inv.Number = req.Number
			if inv.Number == "" {
				number, err := nextInvoiceNumber(tx, userID)
				if err != nil {
					return err
				}
				inv.Number = number
			} else if taken, err := numberTaken(tx, userID, 0, inv.Number); err != nil {
				return err
			} else if taken {
				return errTaken
			}
			return tx.Create(&inv).Error // Items are created with the invoice
		})
		if errors.Is(err, errTaken) || isDuplicate(err) {
			fail(c, http.StatusConflict, "Invoice number already used")
			return
		}
		if err != nil {
			internalError(c, err, "Failed to create invoice", logrus.Fields{"user_id": userID})
			return
		}
		invalidate(cache, userID)
		logMutation("create_invoice", userID, inv.ID)
		c.JSON(http.StatusCreated, gin.H{"invoice": viewInvoice(inv)})
	}
}

// GetInvoiceHandler returns one invoice with amounts
func GetInvoiceHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		inv, ok := loadInvoice(c, db, userID, id)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"invoice": viewInvoice(*inv)})
	}
}

// UpdateInvoiceHandler replaces an open invoice's fields and items
func UpdateInvoiceHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req InvoiceRequest
		if !bindJSON(c, &req) {
			return
		}
		inv, ok := loadInvoice(c, db, userID, id)
		if !ok {
			return
		}
		// Paid and cancelled invoices are final
		if inv.Status == domain.InvoicePaid || inv.Status == domain.InvoiceCancelled {
			fail(c, http.StatusConflict, "Invoice is "+inv.Status+" and can no longer be changed")
			return
		}
		if !req.toInvoice(c, inv) ||
			!checkRef(c, db, &domain.Client{}, userID, req.ClientID, "client") ||
			!checkRef(c, db, &domain.Project{}, userID, req.ProjectID, "project") {
			return
		}
		errTaken := errors.New("number taken")
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if req.Number != "" && req.Number != inv.Number {
				taken, err := numberTaken(tx, userID, inv.ID, req.Number)
				if err != nil {
					return err
				}
				if taken {
					return errTaken
				}
				inv.Number = req.Number
			}
			// Replace the items
			if err := tx.Where("invoice_id = ?", inv.ID).Delete(&domain.InvoiceItem{}).Error; err != nil {
				return err
			}
			for i := range inv.Items {
				inv.Items[i].InvoiceID = inv.ID
			}
			if err := tx.Create(&inv.Items).Error; err != nil {
				return err
			}
			return tx.Omit(clause.Associations).Save(inv).Error
		})
		if errors.Is(err, errTaken) || isDuplicate(err) {
			fail(c, http.StatusConflict, "Invoice number already used")
			return
		}
		if err != nil {
			internalError(c, err, "Failed to update invoice", logrus.Fields{"user_id": userID, "invoice_id": id})
			return
		}
		invalidate(cache, userID)
		logMutation("update_invoice", userID, inv.ID)
		c.JSON(http.StatusOK, gin.H{"invoice": viewInvoice(*inv)})
	}
}

// DeleteInvoiceHandler deletes an unpaid invoice with its items
func DeleteInvoiceHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		inv, ok := loadInvoice(c, db, userID, id)
		if !ok {
			return
		}
		// Paid invoices are part of the books
		if inv.Status == domain.InvoicePaid {
			fail(c, http.StatusConflict, "Paid invoices cannot be deleted")
			return
		}
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("invoice_id = ?", inv.ID).Delete(&domain.InvoiceItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&domain.Invoice{}, inv.ID).Error
		})
		if err != nil {
			internalError(c, err, "Failed to delete invoice", logrus.Fields{"user_id": userID, "invoice_id": id})
			return
		}
		invalidate(cache, userID)
		logMutation("delete_invoice", userID, id)
		c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted"})
	}
}

// PayInvoiceHandler marks an invoice paid
func PayInvoiceHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req PayRequest
		if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
			return
		}
		inv, ok := loadInvoice(c, db, userID, id)
		if !ok {
			return
		}
		if inv.Status == domain.InvoicePaid || inv.Status == domain.InvoiceCancelled {
			fail(c, http.StatusConflict, "Invoice is already "+inv.Status)
			return
		}
		paidAt := time.Now().UTC() // Default to now
		if req.PaidAt != "" {
			paidAt, _ = parseDate(req.PaidAt) // Format already validated
		}
		if err := db.WithContext(c.Request.Context()).Model(&domain.Invoice{}).Where("id = ?", inv.ID).
			Updates(map[string]any{"status": domain.InvoicePaid, "paid_at": paidAt}).Error; err != nil {
			internalError(c, err, "Failed to record payment", logrus.Fields{"user_id": userID, "invoice_id": id})
			return
		}
		inv.Status = domain.InvoicePaid
		inv.PaidAt = &paidAt
		invalidate(cache, userID)
		logrus.WithFields(logrus.Fields{
			"user_id":    userID,                    // User ID
			"invoice_id": inv.ID,                    // Invoice ID
			"amount":     inv.Total().String(),      // Amount received
			"paid_at":    paidAt.Format(DateLayout), // Payment date
		}).Info("Invoice paid")
		c.JSON(http.StatusOK, gin.H{"invoice": viewInvoice(*inv)})
	}
}

// CancelInvoiceHandler voids an unpaid invoice
func CancelInvoiceHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		inv, ok := loadInvoice(c, db, userID, id)
		if !ok {
			return
		}
		if inv.Status == domain.InvoicePaid || inv.Status == domain.InvoiceCancelled {
			fail(c, http.StatusConflict, "Invoice is already "+inv.Status)
			return
		}
		if err := db.WithContext(c.Request.Context()).Model(&domain.Invoice{}).Where("id = ?", inv.ID).Update("status", domain.InvoiceCancelled).Error; err != nil {
			internalError(c, err, "Failed to cancel invoice", logrus.Fields{"user_id": userID, "invoice_id": id})
			return
		}
		inv.Status = domain.InvoiceCancelled
		invalidate(cache, userID)
		logMutation("cancel_invoice", userID, inv.ID)
		c.JSON(http.StatusOK, gin.H{"invoice": viewInvoice(*inv)})
	}
}

// SendInvoiceHandler emails the invoice to its client and marks a draft as sent
func SendInvoiceHandler(db *gorm.DB, cache *utils.Cache, mailer mail.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		inv, ok := loadInvoice(c, db, userID, id)
		if !ok {
			return
		}
		if inv.Status == domain.InvoicePaid || inv.Status == domain.InvoiceCancelled {
			fail(c, http.StatusConflict, "Invoice is "+inv.Status)
			return
		}
		if inv.ClientID == nil {
			fail(c, http.StatusBadRequest, "Invoice has no client")
			return
		}
		var client domain.Client
		if err := db.WithContext(c.Request.Context()).Scopes(owned(userID)).First(&client, *inv.ClientID).Error; err != nil || client.Email == "" {
			fail(c, http.StatusBadRequest, "Client has no email address")
			return
		}
		var user domain.User // Sender name
		if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
			internalError(c, err, "Failed to load sender", logrus.Fields{"user_id": userID})
			return
		}
		msg, err := mail.InvoiceEmail(user.Name, inv, &client)
		if err != nil {
			internalError(c, err, "Failed to render invoice", logrus.Fields{"user_id": userID, "invoice_id": id})
			return
		}
		if err := mailer.Send(c.Request.Context(), msg); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":    userID,      // User ID
				"invoice_id": inv.ID,      // Invoice ID
				"error":      err.Error(), // Error message
			}).Error("Invoice email failed")
			fail(c, http.StatusBadGateway, "Failed to send invoice email")
			return
		}
		if inv.Status == domain.InvoiceDraft {
			if err := db.WithContext(c.Request.Context()).Model(&domain.Invoice{}).Where("id = ?", inv.ID).Update("status", domain.InvoiceSent).Error; err != nil {
				internalError(c, err, "Failed to mark invoice sent", logrus.Fields{"user_id": userID, "invoice_id": id})
				return
			}
			inv.Status = domain.InvoiceSent
			invalidate(cache, userID)
		}
		logMutation("send_invoice", userID, inv.ID)
		c.JSON(http.StatusOK, gin.H{"message": "Invoice sent", "invoice": viewInvoice(*inv)})
	}
}
