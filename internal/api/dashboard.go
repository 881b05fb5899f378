package api

import (
	"errors"                          // Error inspection
	"fmt"                             // Cache key formatting
	"net/http"                        // HTTP status codes
	"project_hub/internal/config"     // Tax rate and timezone
	"project_hub/internal/finance"    // Year-to-date rollup
	"project_hub/internal/operations" // Due-soon dashboard
	"project_hub/internal/reports"    // Row loading
	"project_hub/internal/utils"      // Cache helpers
	"strconv"                         // String conversion
	"time"                            // Dates

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// cacheWarn logs a cache failure; the request carries on uncached
func cacheWarn(err error, userID uint, op string) {
	logrus.WithFields(logrus.Fields{"user_id": userID, "op": op, "error": err.Error()}).Warn("Cache unavailable")
}

// FinanceSummaryHandler returns the year-to-date financial summary
func FinanceSummaryHandler(db *gorm.DB, cache *utils.Cache, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		asOf := time.Now().In(cfg.Location) // Today in the configured timezone
		year := asOf.Year()
		if raw := c.Query("year"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 1970 {
				fail(c, http.StatusBadRequest, "Invalid year")
				return
			}
			year = v
		}
		// Versioned per-user key; the as-of date matters for the current year
		cacheKey := cache.UserKey(ctx, userID, fmt.Sprintf("finance:%d:%s", year, asOf.Format(DateLayout)))
		var cached finance.Summary
		found, err := cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			cacheWarn(err, userID, "get")
		}
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"summary": cached, "cached": true})
			return
		}
		summary, err := reports.Finance(ctx, db, userID, year, asOf, cfg.TaxRate)
		if errors.Is(err, finance.ErrFutureYear) {
			fail(c, http.StatusBadRequest, "Year is in the future")
			return
		}
		if err != nil {
			internalError(c, err, "Failed to build financial summary", logrus.Fields{"user_id": userID, "year": year})
			return
		}
		if err := cache.Set(ctx, cacheKey, summary); err != nil {
			cacheWarn(err, userID, "set")
		}
		c.JSON(http.StatusOK, gin.H{"summary": summary, "cached": false})
	}
}

// OperationsHandler returns the operations dashboard for a day
func OperationsHandler(db *gorm.DB, cache *utils.Cache, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		day := operations.Civil(time.Now().In(cfg.Location)) // Today in the configured timezone
		if raw := c.Query("date"); raw != "" {
			t, err := parseDate(raw)
			if err != nil {
				fail(c, http.StatusBadRequest, "date must be formatted "+DateLayout)
				return
			}
			day = t
		}
		horizon := operations.DefaultHorizon
		if raw := c.Query("horizon"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v <= 0 {
				fail(c, http.StatusBadRequest, "horizon must be a positive number of days")
				return
			}
			horizon = operations.ClampHorizon(v)
		}
		cacheKey := cache.UserKey(ctx, userID, fmt.Sprintf("operations:%s:%d", day.Format(DateLayout), horizon))
		var cached operations.Dashboard
		found, err := cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			cacheWarn(err, userID, "get")
		}
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"dashboard": cached, "cached": true})
			return
		}
		dashboard, err := reports.Operations(ctx, db, userID, day, horizon)
		if err != nil {
			internalError(c, err, "Failed to build operations dashboard", logrus.Fields{"user_id": userID})
			return
		}
		if err := cache.Set(ctx, cacheKey, dashboard); err != nil {
			cacheWarn(err, userID, "set")
		}
		c.JSON(http.StatusOK, gin.H{"dashboard": dashboard, "cached": false})
	}
}
