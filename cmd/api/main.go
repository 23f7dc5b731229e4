package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"stockbank/internal/config"
	"stockbank/internal/database"
	"stockbank/internal/logger"
	"stockbank/internal/middleware"
	"stockbank/internal/router"
	"stockbank/internal/services"
	"stockbank/internal/validator"
)

// @title           Stockbank API
// @version         1.0
// @description     Stockbank runs a stock exchange between its users: primary sales of stock units, buy and sell orders, and atomic settlement against cash accounts.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

const visitorIdleTimeout = 10 * time.Minute

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.AdminAPIKey == "" {
		log.Warn("ADMIN_API_KEY is not set; admin endpoints are disabled")
	}

	// Create database manager
	dbConfig := database.NewConfig(appConfig)
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	accountService := services.NewAccountService(db)
	transactionService := services.NewTransactionService(db, accountService)
	settingService := services.NewSettingService(db, services.FeeSettings{
		PurchaseFeeBps:     appConfig.PurchaseFeeBps,
		PurchaseFeeFlat:    appConfig.PurchaseFeeFlat,
		TransactionFeeBps:  appConfig.TransactionFeeBps,
		TransactionFeeFlat: appConfig.TransactionFeeFlat,
	})
	notificationService := services.NewNotificationService(db)
	snapshotService := services.NewPriceSnapshotService(db)
	limiter := middleware.NewRateLimiter(appConfig.OrderRateLimit, appConfig.OrderRateBurst)

	engine := router.New(router.Services{
		User:          userService,
		Account:       accountService,
		Transaction:   transactionService,
		Stock:         services.NewStockService(db),
		StockOrder:    services.NewStockOrderService(db, transactionService, settingService, notificationService),
		Security:      services.NewSecurityService(db, transactionService, settingService, notificationService),
		Notification:  notificationService,
		PriceSnapshot: snapshotService,
		Setting:       settingService,
		Audit:         services.NewAuditService(db),
	}, router.Options{
		AdminAPIKey:  appConfig.AdminAPIKey,
		OrderLimiter: limiter,
	})

	// Background jobs
	jobs := cron.New()
	if _, err := jobs.AddFunc(appConfig.PriceSnapshotSchedule, func() {
		count, err := snapshotService.RecordSnapshots(time.Now().UTC().Truncate(time.Second))
		if err != nil {
			logger.Named("snapshots").Errorw("price snapshot job failed", "error", err)
			return
		}
		logger.Named("snapshots").Infow("price snapshots recorded", "stocks", count)
	}); err != nil {
		return fmt.Errorf("invalid PRICE_SNAPSHOT_SCHEDULE %q: %w", appConfig.PriceSnapshotSchedule, err)
	}
	if _, err := jobs.AddFunc("@every 5m", func() {
		if n := limiter.Cleanup(visitorIdleTimeout); n > 0 {
			logger.Named("ratelimit").Debugw("evicted idle visitors", "count", n)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule rate limiter cleanup: %w", err)
	}
	jobs.Start()

	server := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Infof("Starting Stockbank server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		<-jobs.Stop().Done()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Infof("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	// Wait for a running snapshot to finish before the pool closes.
	select {
	case <-jobs.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("timed out waiting for background jobs")
	}

	log.Info("Server exited gracefully")
	return nil
}
