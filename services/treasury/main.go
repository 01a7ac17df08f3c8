package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yoforex/pkg/cache"
	"yoforex/pkg/config"
	"yoforex/pkg/database"
	"yoforex/pkg/ledger"
	"yoforex/pkg/logger"
	"yoforex/pkg/middleware"
	"yoforex/pkg/treasury"
	"yoforex/services/treasury/handlers"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v", err)
		panic(err)
	}

	walletStore := ledger.NewWalletStore(db)
	ledgerStore := ledger.NewStore(db)
	purchaseStore := ledger.NewPurchaseStore(db, redisClient)
	orch := ledger.NewOrchestrator(ledgerStore, walletStore, log)
	rates := ledger.NewCommissionResolver(cfg)
	flow := ledger.NewPurchaseFlow(orch, walletStore, purchaseStore, rates, cfg.PlatformUserID, log)

	treasuryStore := treasury.NewStore(db)
	manager := treasury.NewManager(treasuryStore, log)
	refunds := treasury.NewRefundProcessor(treasuryStore, manager, orch, walletStore, cfg.BotBalanceCap, cfg.BotRefundHour, log)
	purchaser := treasury.NewBotPurchaser(manager, flow, refunds, orch, purchaseStore, log)

	treasuryHandler := handlers.NewTreasuryHandler(manager, purchaser, log)

	r := gin.Default()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.APIKeyMiddleware(cfg.BotWorkerAPIKeyHash))
	{
		api.POST("/treasury/spend", treasuryHandler.Spend)
		api.POST("/treasury/bot-purchase", treasuryHandler.BotPurchase)
		api.GET("/treasury/status", treasuryHandler.Status)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.TreasuryPort,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Treasury service starting on port %s", cfg.TreasuryPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down treasury service...")

	// The context is used to inform the server it has 5 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Close database connection
	sqlDB, err := db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error("Error closing database: %v", err)
		}
	}

	// Close Redis connection
	if err := redisClient.Close(); err != nil {
		log.Error("Error closing Redis: %v", err)
	}

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
		panic(err)
	}

	log.Info("Treasury service exited")
}
