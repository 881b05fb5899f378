package middleware

import (
	"errors"                      // Error inspection
	"net/http"                    // HTTP status codes
	"project_hub/internal/domain" // Role constants and the user model

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// AdminOnlyMiddleware lets through users whose stored role is domain.RoleAdmin.
// The role is read on every request so a demotion takes effect before the token expires.
func AdminOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c) // Set by JWTAuthMiddleware
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User
		err := db.WithContext(c.Request.Context()).Select("id", "role").First(&user, userID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// The account was deleted after the session was issued
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		case err != nil:
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Role lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to check role"})
			return
		}
		if user.Role != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
