package api

import (
	"errors"                          // Error inspection
	"net/http"                        // HTTP status codes
	"project_hub/internal/domain"     // Importing domain models
	"project_hub/internal/middleware" // Session id lookup
	"project_hub/internal/utils"      // Utility functions
	"strings"                         // String manipulation
	"time"                            // Session timestamps

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Session token ids
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// Request struct for registration
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=191"`   // Login email
	Name     string `json:"name" binding:"required,max=120"`          // Display name
	Password string `json:"password" binding:"required,min=8,max=72"` // bcrypt accepts at most 72 bytes
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Token     string      `json:"token"`      // JWT token
	ExpiresAt time.Time   `json:"expires_at"` // Token expiry
	User      domain.User `json:"user"`       // Logged in user
}

// RegisterHandler creates a user account
func RegisterHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email)) // Emails are case-insensitive
		var count int64
		if err := db.WithContext(c.Request.Context()).Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			internalError(c, err, "Failed to register user", nil)
			return
		}
		if count > 0 {
			fail(c, http.StatusConflict, "Email already registered")
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			// If hashing fails, return internal server error
			internalError(c, err, "Failed to hash password", nil)
			return
		}
		user := domain.User{Email: email, Name: strings.TrimSpace(req.Name), Password: string(hash), Role: domain.RoleUser}
		// Attempt to create the user in the database
		if err := db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
			// A concurrent registration may have won the unique index
			if isDuplicate(err) {
				fail(c, http.StatusConflict, "Email already registered")
				return
			}
			internalError(c, err, "Failed to create user", logrus.Fields{"email": email})
			return
		}
		logMutation("register", user.ID, user.ID)
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
	}
}

// LoginHandler authenticates a user, opens a session and returns a JWT token
func LoginHandler(db *gorm.DB, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		var user domain.User // Fetch user from database
		if err := db.WithContext(c.Request.Context()).Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				internalError(c, err, "Failed to log in", nil)
				return
			}
			// If user not found, return unauthorized
			fail(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			fail(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		tokenID := uuid.NewString() // Session token id, embedded as jti
		// Generate JWT token
		token, expires, err := utils.GenerateJWT(user.ID, tokenID, jwtSecret, ttl)
		if err != nil {
			// If token generation fails, return internal server error
			internalError(c, err, "Failed to generate token", logrus.Fields{"user_id": user.ID})
			return
		}
		session := domain.Session{
			UserID:    user.ID,
			TokenID:   tokenID,
			UserAgent: truncate(c.Request.UserAgent(), 255),
			IP:        c.ClientIP(),
			ExpiresAt: expires.UTC(),
		}
		if err := db.WithContext(c.Request.Context()).Create(&session).Error; err != nil {
			internalError(c, err, "Failed to create session", logrus.Fields{"user_id": user.ID})
			return
		}
		logMutation("login", user.ID, session.ID)
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token, ExpiresAt: expires, User: user})
	}
}

// LogoutHandler revokes the session of the presented token
func LogoutHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		sessionID := c.GetUint(middleware.SessionIDKey) // Session behind the token
		now := time.Now().UTC()
		if err := db.WithContext(c.Request.Context()).Model(&domain.Session{}).
			Where("id = ? AND user_id = ?", sessionID, userID).
			Update("revoked_at", now).Error; err != nil {
			internalError(c, err, "Failed to log out", logrus.Fields{"user_id": userID})
			return
		}
		logMutation("logout", userID, sessionID)
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

// MeHandler returns the authenticated user
func MeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var user domain.User
		if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
			fail(c, http.StatusNotFound, "User not found")
			return
		}
		var sessions int64 // Active sessions of the user
		if err := db.WithContext(c.Request.Context()).Model(&domain.Session{}).
			Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, time.Now().UTC()).
			Count(&sessions).Error; err != nil {
			internalError(c, err, "Failed to count sessions", logrus.Fields{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user, "active_sessions": sessions})
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
