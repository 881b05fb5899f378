package api

import (
	"net/http"                        // HTTP status codes
	"project_hub/internal/config"     // Application configuration
	"project_hub/internal/mail"       // Outgoing email
	"project_hub/internal/metrics"    // Prometheus metrics
	"project_hub/internal/middleware" // Auth, logging and request ids
	"project_hub/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// NewRouter wires every route of the service
func NewRouter(db *gorm.DB, cache *utils.Cache, mailer mail.Mailer, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(), metrics.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Auth routes
	r.POST("/auth/register", RegisterHandler(db))                          // Registration endpoint
	r.POST("/auth/login", LoginHandler(db, cfg.JWTSecret, cfg.SessionTTL)) // Login endpoint

	// Everything else requires a live session
	authed := r.Group("")
	authed.Use(middleware.JWTAuthMiddleware(db, cfg.JWTSecret))
	authed.POST("/auth/logout", LogoutHandler(db))
	authed.GET("/auth/me", MeHandler(db))

	authed.GET("/clients", ListClientsHandler(db))
	authed.POST("/clients", CreateClientHandler(db))
	authed.GET("/clients/:id", GetClientHandler(db))
	authed.PUT("/clients/:id", UpdateClientHandler(db))
	authed.DELETE("/clients/:id", DeleteClientHandler(db))

	authed.GET("/projects", ListProjectsHandler(db))
	authed.POST("/projects", CreateProjectHandler(db, cache))
	authed.GET("/projects/:id", GetProjectHandler(db))
	authed.PUT("/projects/:id", UpdateProjectHandler(db, cache))
	authed.DELETE("/projects/:id", DeleteProjectHandler(db, cache))
	authed.GET("/projects/:id/tasks", ListProjectTasksHandler(db))

	authed.GET("/tasks", ListTasksHandler(db))
	authed.POST("/tasks", CreateTaskHandler(db, cache))
	authed.GET("/tasks/:id", GetTaskHandler(db))
	authed.PUT("/tasks/:id", UpdateTaskHandler(db, cache))
	authed.PATCH("/tasks/:id/status", UpdateTaskStatusHandler(db, cache))
	authed.DELETE("/tasks/:id", DeleteTaskHandler(db, cache))

	authed.GET("/invoices", ListInvoicesHandler(db))
	authed.POST("/invoices", CreateInvoiceHandler(db, cache))
	authed.GET("/invoices/:id", GetInvoiceHandler(db))
	authed.PUT("/invoices/:id", UpdateInvoiceHandler(db, cache))
	authed.DELETE("/invoices/:id", DeleteInvoiceHandler(db, cache))
	authed.POST("/invoices/:id/pay", PayInvoiceHandler(db, cache))
	authed.POST("/invoices/:id/send", SendInvoiceHandler(db, cache, mailer))
	authed.POST("/invoices/:id/cancel", CancelInvoiceHandler(db, cache))

	authed.GET("/expenses", ListExpensesHandler(db))
	authed.POST("/expenses", CreateExpenseHandler(db, cache))
	authed.GET("/expenses/:id", GetExpenseHandler(db))
	authed.PUT("/expenses/:id", UpdateExpenseHandler(db, cache))
	authed.DELETE("/expenses/:id", DeleteExpenseHandler(db, cache))

	authed.GET("/subscriptions", ListSubscriptionsHandler(db))
	authed.POST("/subscriptions", CreateSubscriptionHandler(db, cache))
	authed.GET("/subscriptions/:id", GetSubscriptionHandler(db))
	authed.PUT("/subscriptions/:id", UpdateSubscriptionHandler(db, cache))
	authed.DELETE("/subscriptions/:id", DeleteSubscriptionHandler(db, cache))
	authed.GET("/subscriptions/:id/schedule", SubscriptionScheduleHandler(db))
	authed.POST("/subscriptions/:id/cancel", CancelSubscriptionHandler(db, cache))

	authed.GET("/features", ListFeaturesHandler(db))
	authed.POST("/features", CreateFeatureHandler(db))
	authed.GET("/features/:id", GetFeatureHandler(db))
	authed.PUT("/features/:id", UpdateFeatureHandler(db))
	authed.DELETE("/features/:id", DeleteFeatureHandler(db))
	authed.POST("/features/:id/vote", VoteFeatureHandler(db))

	authed.GET("/docs", ListDocumentsHandler(db))
	authed.POST("/docs", CreateDocumentHandler(db))
	authed.GET("/docs/:id", GetDocumentHandler(db))
	authed.PUT("/docs/:id", UpdateDocumentHandler(db))
	authed.DELETE("/docs/:id", DeleteDocumentHandler(db))
	authed.GET("/docs/:id/html", RenderDocumentHandler(db))

	authed.GET("/finance/summary", FinanceSummaryHandler(db, cache, cfg))
	authed.GET("/operations", OperationsHandler(db, cache, cfg))

	// Admin routes (protected, admin only)
	admin := r.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware(db, cfg.JWTSecret), middleware.AdminOnlyMiddleware(db))
	admin.GET("/users", ListUsersHandler(db, cache))
	admin.GET("/stats", StatsHandler(db))

	return r
}
