package main

import (
	"context"                     // context package is needed for Redis operations
	"errors"                      // Error inspection
	"net/http"                    // HTTP server
	"os"                          // Signals
	"os/signal"                   // Graceful shutdown
	"project_hub/internal/api"    // Custom package for API handlers
	"project_hub/internal/config" // Custom package for configuration
	"project_hub/internal/db"     // Database connection
	"project_hub/internal/jobs"   // Scheduled jobs
	"project_hub/internal/mail"   // Outgoing email
	"project_hub/internal/utils"  // Cache helpers
	"syscall"                     // Signal numbers
	"time"                        // Timeouts

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{}) // Machine-readable logs in production
		gin.SetMode(gin.ReleaseMode)                 // Set Mode to Release if in production
	}

	// Connect to the database
	gdb, err := db.Open(cfg.DSN(), cfg.IsProd)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client; the cache is optional
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logrus.WithError(err).Warn("Redis unreachable, responses will not be cached")
		}
	}
	cache := utils.NewCache(redisClient, cfg.CacheTTL)
	mailer := mail.New(cfg.MailAPIKey, cfg.MailFrom)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.CronEnabled {
		scheduler, err = jobs.NewScheduler(gdb, cache, mailer, cfg.Location, cfg.DigestCron)
		if err != nil {
			logrus.Fatalf("failed to set up scheduler: %v", err)
		}
		scheduler.Start()
	}

	r := api.NewRouter(gdb, cache, mailer, cfg)
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for a shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
	if scheduler != nil {
		scheduler.Stop(ctx)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
