package api

import (
	"context"                         // Context for cache operations
	"errors"                          // Error inspection
	"net/http"                        // HTTP status codes
	"project_hub/internal/middleware" // Authenticated user lookup
	"project_hub/internal/utils"      // Cache helpers
	"strconv"                         // String conversion
	"strings"                         // Field name formatting
	"time"                            // Date parsing

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/go-playground/validator/v10" // Validation error details
	"github.com/sirupsen/logrus"             // Logging library
	"gorm.io/gorm"                           // GORM ORM library
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// FieldError describes one invalid request field
type FieldError struct {
	Field string `json:"field"` // JSON field name
	Error string `json:"error"` // What is wrong with it
}

// fail writes a JSON error body
func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// internalError logs the cause and hides it from the client
func internalError(c *gin.Context, err error, msg string, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["error"] = err.Error()                               // Error message
	fields["request_id"] = c.GetString(middleware.RequestIDKey) // Request correlation
	logrus.WithFields(fields).Error(msg)                        // Log failure
	fail(c, http.StatusInternalServerError, msg)                // Generic response
}

// requireUser returns the authenticated user id or writes 401
func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.CurrentUserID(c) // Get userID from context
	if !ok {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return 0, false
	}
	return userID, true
}

// bindJSON binds the request body and reports validation failures field by field
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: jsonName(fe), Error: describe(fe)})
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "fields": fields})
		return false
	}
	fail(c, http.StatusBadRequest, "Invalid request")
	return false
}

// jsonName converts a validator namespace like "InvoiceRequest.Items[0].UnitPrice" to "items[0].unit_price"
func jsonName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:] // Drop the struct name
	}
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && s[i-1] != '[' {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return strings.ReplaceAll(b.String(), "_i_d", "_id")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "datetime":
		return "must be a date formatted " + fe.Param()
	}
	return "is invalid"
}

// parseID reads the :id path parameter
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return uint(id), true
}

// queryUint reads an optional unsigned query parameter
func queryUint(c *gin.Context, key string) (uint, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}

// parseDate parses a YYYY-MM-DD date as UTC midnight
func parseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// parseOptionalDate parses an optional date; empty means nil
func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// pagination reads page and page_size (default 20, max 100)
func pagination(c *gin.Context) (page, pageSize, offset int) {
	page = 1      // Default page number
	pageSize = 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size
		}
	}
	return page, pageSize, (page - 1) * pageSize
}

// pageResponse shapes a paginated list response
func pageResponse(name string, items any, page, pageSize int, total int64) gin.H {
	return gin.H{
		name:          items,                                  // Page of items
		"page":        page,                                   // Current page
		"page_size":   pageSize,                               // Page size
		"total":       total,                                  // Total number of items
		"total_pages": (int(total) + pageSize - 1) / pageSize, // Total pages
	}
}

// owned scopes a query to the rows of one user
func owned(userID uint) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ?", userID)
	}
}

// findOwned loads a row of the user by id, writing 404 or 500 on failure
func findOwned(c *gin.Context, db *gorm.DB, userID, id uint, dest any, notFound string) bool {
	err := db.WithContext(c.Request.Context()).Scopes(owned(userID)).First(dest, id).Error
	if err == nil {
		return true
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusNotFound, notFound)
		return false
	}
	internalError(c, err, "Failed to load record", logrus.Fields{"user_id": userID, "id": id})
	return false
}

// checkRef verifies an optional reference points at a row of the same user
func checkRef(c *gin.Context, db *gorm.DB, model any, userID uint, id *uint, label string) bool {
	if id == nil {
		return true
	}
	var count int64
	if err := db.WithContext(c.Request.Context()).Model(model).Scopes(owned(userID)).Where("id = ?", *id).Count(&count).Error; err != nil {
		internalError(c, err, "Failed to check reference", logrus.Fields{"user_id": userID})
		return false
	}
	if count == 0 {
		fail(c, http.StatusBadRequest, "Unknown "+label)
		return false
	}
	return true
}

// isDuplicate reports whether err is a unique index violation
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "unique constraint failed")
}

// invalidate drops the user's cached dashboards after a mutation
func invalidate(cache *utils.Cache, userID uint) {
	if err := cache.Invalidate(context.Background(), userID); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Cache invalidation failed")
	}
}

// logMutation records a successful write
func logMutation(action string, userID, id uint) {
	logrus.WithFields(logrus.Fields{
		"user_id":   userID,                          // User ID
		"id":        id,                              // Affected row
		"type":      action,                          // Action performed
		"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
	}).Info("Record changed")
}
