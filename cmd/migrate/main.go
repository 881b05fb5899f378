package main

import (
	"project_hub/internal/config" // Custom import path (Config)
	"project_hub/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"github.com/spf13/pflag"     // Command line flags
)

// Main entry point for migration
func main() {
	adminEmail := pflag.String("admin-email", "", "create or promote this account to admin")
	adminName := pflag.String("admin-name", "Administrator", "display name of a newly created admin")
	adminPassword := pflag.String("admin-password", "", "password of a newly created admin")
	pflag.Parse()

	cfg := config.LoadConfig() // Load configuration

	gdb, err := db.Open(cfg.DSN(), cfg.IsProd)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	logrus.Info("Database migrated")

	if *adminEmail == "" {
		return
	}
	if len(*adminPassword) < 8 {
		logrus.Fatal("--admin-password must be at least 8 characters")
	}
	if err := db.EnsureAdmin(gdb, *adminEmail, *adminName, *adminPassword); err != nil {
		logrus.Fatalf("failed to ensure admin: %v", err)
	}
}
