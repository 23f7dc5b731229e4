// Package router assembles the HTTP API from services.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "stockbank/internal/docs" // swagger docs
	"stockbank/internal/handlers"
	"stockbank/internal/metrics"
	"stockbank/internal/middleware"
	"stockbank/internal/services"
)

// Services is the set of services the API is built from.
type Services struct {
	User          services.UserServicer
	Account       services.AccountServicer
	Transaction   services.TransactionServicer
	Stock         services.StockServicer
	StockOrder    services.StockOrderServicer
	Security      services.SecurityServicer
	Notification  services.NotificationServicer
	PriceSnapshot services.PriceSnapshotServicer
	Setting       services.SettingServicer
	Audit         services.AuditServicer
}

// Options configures the router.
type Options struct {
	// AdminAPIKey guards /admin. Empty disables admin endpoints.
	AdminAPIKey string
	// OrderLimiter throttles order writes and primary purchases. Nil disables throttling.
	OrderLimiter *middleware.RateLimiter
}

// New builds the Gin engine with all routes mounted.
func New(svc Services, opts Options) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.User, svc.Audit)
	accountHandler := handlers.NewAccountHandler(svc.Account, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transaction, svc.Audit)
	stockHandler := handlers.NewStockHandler(svc.Stock, svc.PriceSnapshot, svc.Audit)
	orderHandler := handlers.NewStockOrderHandler(svc.StockOrder, svc.Audit)
	securityHandler := handlers.NewSecurityHandler(svc.Security, svc.Audit)
	notificationHandler := handlers.NewNotificationHandler(svc.Notification)
	adminHandler := handlers.NewAdminHandler(svc.Setting, svc.PriceSnapshot, svc.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	throttle := func(c *gin.Context) { c.Next() }
	if opts.OrderLimiter != nil {
		throttle = opts.OrderLimiter.Handler()
	}

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/portfolio", securityHandler.GetPortfolio)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.POST("/:id/deposits", transactionHandler.Deposit)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)

	protected.GET("/transactions/:id", transactionHandler.GetTransactionByID)

	stocks := protected.Group("/stocks")
	stocks.GET("", stockHandler.ListStocks)
	stocks.GET("/:id", stockHandler.GetStock)
	stocks.GET("/:id/prices", stockHandler.GetPriceHistory)

	orders := protected.Group("/stock-orders")
	orders.POST("", throttle, orderHandler.CreateStockOrder)
	orders.GET("", orderHandler.GetUserStockOrders)
	orders.GET("/:id", orderHandler.GetStockOrder)
	orders.DELETE("/:id", throttle, orderHandler.DeleteStockOrder)
	orders.GET("/:id/matches", orderHandler.MatchStockOrder)
	orders.POST("/:id/accept", throttle, orderHandler.AcceptStockOrder)

	securities := protected.Group("/securities")
	securities.POST("/purchase", throttle, securityHandler.PurchaseStock)
	securities.GET("", securityHandler.GetUserSecurities)
	securities.GET("/:id", securityHandler.GetSecurity)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.GetNotifications)
	notifications.POST("/:id/read", notificationHandler.MarkRead)

	// Admin routes (API key)
	admin := v1.Group("/admin")
	admin.Use(middleware.AdminAuthMiddleware(opts.AdminAPIKey))
	admin.GET("/stocks", stockHandler.AdminListStocks)
	admin.POST("/stocks", stockHandler.CreateStock)
	admin.POST("/stocks/:id/refill", stockHandler.RefillStock)
	admin.POST("/stocks/:id/disable", stockHandler.DisableStock)
	admin.POST("/stocks/:id/enable", stockHandler.EnableStock)
	admin.GET("/settings/fees", adminHandler.GetFeeSettings)
	admin.PUT("/settings/fees", adminHandler.UpdateFeeSettings)
	admin.POST("/snapshots", adminHandler.RecordSnapshots)

	return router
}
