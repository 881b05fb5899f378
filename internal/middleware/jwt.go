package middleware

import (
	"net/http"                    // HTTP status codes
	"project_hub/internal/domain" // Session model
	"project_hub/internal/utils"  // JWT utility functions
	"strings"                     // String manipulation
	"time"                        // Session expiry checks

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// Context keys set by JWTAuthMiddleware
const (
	UserIDKey    = "userID"    // Authenticated user id (uint)
	SessionIDKey = "sessionID" // Session row id (uint)
)

// JWTAuthMiddleware validates JWT tokens and the database session they belong to
func JWTAuthMiddleware(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string and parse it
		claims, err := utils.ParseJWT(tokenStr, secret)       // Parse the JWT token
		if err != nil {
			// If parsing fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		var session domain.Session // Look up the session behind the token
		if err := db.WithContext(c.Request.Context()).Where("token_id = ?", claims.ID).First(&session).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session not found"})
			return
		}
		// Revoked, expired or foreign sessions cannot authenticate
		if session.UserID != claims.UserID || !session.Active(time.Now()) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			return
		}
		c.Set(UserIDKey, claims.UserID) // Store userID in context
		c.Set(SessionIDKey, session.ID) // Store session id in context
		c.Next()                        // Proceed to the next handler
	}
}

// CurrentUserID returns the authenticated user id
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(UserIDKey) // Get userID from context
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
