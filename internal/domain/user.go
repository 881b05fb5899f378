package domain

import "time"

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                       // Primary key
	Email     string    `gorm:"size:191;uniqueIndex;not null" json:"email"` // Unique login email
	Name      string    `gorm:"size:120;not null" json:"name"`              // Display name
	Password  string    `gorm:"not null" json:"-"`                          // Hashed password
	Role      string    `gorm:"size:16;default:user" json:"role"`           // Role: user or admin
	CreatedAt time.Time `json:"created_at"`                                 // Registration time
	Sessions  []Session `gorm:"constraint:OnDelete:CASCADE;" json:"-"`      // Login sessions
}

// Session Model, one row per issued token
type Session struct {
	ID        uint       `gorm:"primaryKey" json:"id"`                  // Primary key
	UserID    uint       `gorm:"index;not null" json:"user_id"`         // Owner
	TokenID   string     `gorm:"size:36;uniqueIndex;not null" json:"-"` // JWT "jti"
	UserAgent string     `gorm:"size:255" json:"user_agent"`            // Client user agent
	IP        string     `gorm:"size:64" json:"ip"`                     // Client IP
	ExpiresAt time.Time  `gorm:"index" json:"expires_at"`               // Hard expiry
	RevokedAt *time.Time `json:"revoked_at,omitempty"`                  // Set on logout
	CreatedAt time.Time  `json:"created_at"`                            // Login time
}

// Active reports whether the session can still authenticate requests
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
