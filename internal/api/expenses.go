package api

import (
	"net/http"                    // HTTP status codes
	"project_hub/internal/domain" // Importing domain models
	"project_hub/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

// ExpenseRequest is the body of create and update calls
type ExpenseRequest struct {
	Category    string          `json:"category" binding:"required,max=80"`          // Bookkeeping category
	Vendor      string          `json:"vendor" binding:"max=160"`                    // Who was paid
	Description string          `json:"description" binding:"max=255"`               // What for
	Amount      decimal.Decimal `json:"amount"`                                      // Must be positive
	Date        string          `json:"date" binding:"required,datetime=2006-01-02"` // Date of expense
	ProjectID   *uint           `json:"project_id"`                                  // Related project
	Deductible  *bool           `json:"deductible"`                                  // Defaults to true
}

func (r ExpenseRequest) toExpense(c *gin.Context, e *domain.Expense) bool {
	if !r.Amount.IsPositive() {
		fail(c, http.StatusBadRequest, "Amount must be positive")
		return false
	}
	e.Category = r.Category
	e.Vendor = r.Vendor
	e.Description = r.Description
	e.Amount = r.Amount
	e.Date, _ = parseDate(r.Date) // Format already validated
	e.ProjectID = r.ProjectID
	e.Deductible = r.Deductible == nil || *r.Deductible
	return true
}

// ListExpensesHandler lists expenses by category, project or date range
func ListExpensesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		from, errFrom := parseOptionalDate(c.Query("from"))
		to, errTo := parseOptionalDate(c.Query("to"))
		if errFrom != nil || errTo != nil {
			fail(c, http.StatusBadRequest, "Dates must be formatted "+DateLayout)
			return
		}
		page, pageSize, offset := pagination(c)
		query := db.WithContext(c.Request.Context()).Model(&domain.Expense{}).Scopes(owned(userID))
		if category := c.Query("category"); category != "" {
			query = query.Where("category = ?", category) // Filter by category
		}
		if projectID, ok := queryUint(c, "project_id"); ok {
			query = query.Where("project_id = ?", projectID) // Filter by project
		}
		if from != nil {
			query = query.Where("date >= ?", *from) // Start date
		}
		if to != nil {
			query = query.Where("date <= ?", *to) // End date
		}
		query = query.Session(&gorm.Session{}) // Reused for count, sum and page
		var total int64
		if err := query.Count(&total).Error; err != nil {
			internalError(c, err, "Failed to count expenses", logrus.Fields{"user_id": userID})
			return
		}
		var all []domain.Expense // Matching rows for the sum
		if err := query.Select("amount").Find(&all).Error; err != nil {
			internalError(c, err, "Failed to sum expenses", logrus.Fields{"user_id": userID})
			return
		}
		sum := decimal.Zero
		for _, e := range all {
			sum = sum.Add(e.Amount)
		}
		expenses := []domain.Expense{}
		if err := query.Order("date desc").Order("id desc").
			Offset(offset).Limit(pageSize).Find(&expenses).Error; err != nil {
			internalError(c, err, "Failed to fetch expenses", logrus.Fields{"user_id": userID})
			return
		}
		resp := pageResponse("expenses", expenses, page, pageSize, total)
		resp["sum"] = sum // Total over all pages
		c.JSON(http.StatusOK, resp)
	}
}

// CreateExpenseHandler records an expense
func CreateExpenseHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req ExpenseRequest
		if !bindJSON(c, &req) {
			return
		}
		expense := domain.Expense{UserID: userID}
		if !req.toExpense(c, &expense) || !checkRef(c, db, &domain.Project{}, userID, req.ProjectID, "project") {
			return
		}
		if err := db.WithContext(c.Request.Context()).Create(&expense).Error; err != nil {
			internalError(c, err, "Failed to create expense", logrus.Fields{"user_id": userID})
			return
		}
		invalidate(cache, userID)
		logMutation("create_expense", userID, expense.ID)
		c.JSON(http.StatusCreated, gin.H{"expense": expense})
	}
}

// GetExpenseHandler returns one expense
func GetExpenseHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var expense domain.Expense
		if !findOwned(c, db, userID, id, &expense, "Expense not found") {
			return
		}
		c.JSON(http.StatusOK, gin.H{"expense": expense})
	}
}

// UpdateExpenseHandler replaces an expense's fields
func UpdateExpenseHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var req ExpenseRequest
		if !bindJSON(c, &req) {
			return
		}
		var expense domain.Expense
		if !findOwned(c, db, userID, id, &expense, "Expense not found") {
			return
		}
		if !req.toExpense(c, &expense) || !checkRef(c, db, &domain.Project{}, userID, req.ProjectID, "project") {
			return
		}
		if err := db.WithContext(c.Request.Context()).Save(&expense).Error; err != nil {
			internalError(c, err, "Failed to update expense", logrus.Fields{"user_id": userID, "expense_id": id})
			return
		}
		invalidate(cache, userID)
		logMutation("update_expense", userID, expense.ID)
		c.JSON(http.StatusOK, gin.H{"expense": expense})
	}
}

// DeleteExpenseHandler deletes an expense
func DeleteExpenseHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		var expense domain.Expense
		if !findOwned(c, db, userID, id, &expense, "Expense not found") {
			return
		}
		if err := db.WithContext(c.Request.Context()).Delete(&expense).Error; err != nil {
			internalError(c, err, "Failed to delete expense", logrus.Fields{"user_id": userID, "expense_id": id})
			return
		}
		invalidate(cache, userID)
		logMutation("delete_expense", userID, id)
		c.JSON(http.StatusOK, gin.H{"message": "Expense deleted"})
	}
}
