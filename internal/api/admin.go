package api

import (
	"net/http"                    // HTTP status codes
	"project_hub/internal/domain" // Importing domain models
	"project_hub/internal/utils"  // Cache helpers
	"strconv"                     // Cache key formatting
	"time"                        // Session expiry

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID        uint      `json:"id"`         // User ID
	Email     string    `json:"email"`      // Login email
	Name      string    `json:"name"`       // Display name
	Role      string    `json:"role"`       // User role
	CreatedAt time.Time `json:"created_at"` // Registration time
	Projects  int64     `json:"projects"`   // Number of projects
	Sessions  int64     `json:"sessions"`   // Active sessions
}

// ListUsersHandler returns all users with their project and session counts
func ListUsersHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize, offset := pagination(c)
		// Create a cache key based on pagination parameters
		cacheKey := "admin:users:page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached struct {
			Users      []UserAdminResponse `json:"users"`       // List of users
			Page       int                 `json:"page"`        // Current page
			PageSize   int                 `json:"page_size"`   // Page size
			Total      int64               `json:"total"`       // Total number of users
			TotalPages int                 `json:"total_pages"` // Total pages
		}
		// If cached data found, return it
		found, err := cache.Get(ctx, cacheKey, &cached)
		if err == nil && found {
			resp := pageResponse("users", cached.Users, cached.Page, cached.PageSize, cached.Total)
			resp["cached"] = true // Indicate response is from cache
			c.JSON(http.StatusOK, resp)
			return
		}
		var total int64 // Total user count
		if err := db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
			internalError(c, err, "Failed to count users", nil)
			return
		}
		users := []UserAdminResponse{}
		now := time.Now().UTC()
		if err := db.WithContext(ctx).Model(&domain.User{}).
			Select("users.id, users.email, users.name, users.role, users.created_at, "+
				"(SELECT COUNT(*) FROM projects WHERE projects.user_id = users.id) AS projects, "+
				"(SELECT COUNT(*) FROM sessions WHERE sessions.user_id = users.id AND sessions.revoked_at IS NULL AND sessions.expires_at > ?) AS sessions", now).
			Order("users.id asc").Offset(offset).Limit(pageSize).Scan(&users).Error; err != nil {
			internalError(c, err, "Failed to fetch users", nil)
			return
		}
		resp := pageResponse("users", users, page, pageSize, total)
		// Cache the response for future requests
		if err := cache.Set(ctx, cacheKey, resp); err != nil {
			logrus.WithField("error", err.Error()).Warn("Cache unavailable")
		}
		resp["cached"] = false // Indicate response is not from cache
		c.JSON(http.StatusOK, resp)
	}
}

// StatsHandler returns row counts per table
func StatsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tables := map[string]any{
			"users":            &domain.User{},
			"sessions":         &domain.Session{},
			"clients":          &domain.Client{},
			"projects":         &domain.Project{},
			"tasks":            &domain.Task{},
			"invoices":         &domain.Invoice{},
			"expenses":         &domain.Expense{},
			"subscriptions":    &domain.Subscription{},
			"feature_requests": &domain.FeatureRequest{},
			"documents":        &domain.Document{},
		}
		counts := make(map[string]int64, len(tables))
		for name, model := range tables {
			var n int64
			if err := db.WithContext(c.Request.Context()).Model(model).Count(&n).Error; err != nil {
				internalError(c, err, "Failed to count rows", logrus.Fields{"table": name})
				return
			}
			counts[name] = n
		}
		c.JSON(http.StatusOK, gin.H{"counts": counts})
	}
}
