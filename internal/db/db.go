package db

import (
	"errors" // Error inspection
	"time"   // Pool lifetimes

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing for the seeded admin
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM query logging

	"project_hub/internal/domain" // Importing domain models
)

// Open connects to MySQL and configures the connection pool
func Open(dsn string, isProd bool) (*gorm.DB, error) {
	level := logger.Warn // Log slow queries and errors
	if isProd {
		level = logger.Error // Only errors in production
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		NowFunc:        func() time.Time { return time.Now().UTC() }, // Store timestamps in UTC
		TranslateError: true,                                         // Unique violations become gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB() // Underlying pool
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)                  // Cap concurrent connections
	sqlDB.SetMaxIdleConns(5)                   // Keep a few warm
	sqlDB.SetConnMaxLifetime(30 * time.Minute) // Recycle connections
	return db, nil
}

// EnsureAdmin creates an admin account or promotes an existing one
func EnsureAdmin(db *gorm.DB, email, name, password string) error {
	var user domain.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		// Promote existing account
		if user.Role == domain.RoleAdmin {
			return nil
		}
		logrus.WithField("user_id", user.ID).Info("Promoting user to admin")
		return db.Model(&user).Update("role", domain.RoleAdmin).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user = domain.User{Email: email, Name: name, Password: string(hash), Role: domain.RoleAdmin}
	if err := db.Create(&user).Error; err != nil {
		return err
	}
	logrus.WithField("user_id", user.ID).Info("Admin user created")
	return nil
}
