package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yoforex/pkg/config"
	"yoforex/pkg/jwt"
	"yoforex/pkg/ledger"
	"yoforex/pkg/logger"
	"yoforex/pkg/middleware"
	"yoforex/pkg/queue"
	"yoforex/pkg/s3"
	ledgerHTTP "yoforex/services/ledger/internal/controller/http"
	"yoforex/services/ledger/internal/repo/persistent"
	"yoforex/services/ledger/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "yoforex/services/ledger/docs" // Swagger docs
)

func Run(cfg *config.Config, log *logger.Logger, db *gorm.DB, redisClient *redis.Client, queueClient *queue.Client, s3Client *s3.Client) {
	jwtService := jwt.NewService(cfg.JWTSecret)

	// Core ledger engine
	walletStore := ledger.NewWalletStore(db)
	ledgerStore := ledger.NewStore(db)
	purchaseStore := ledger.NewPurchaseStore(db, redisClient)
	orch := ledger.NewOrchestrator(ledgerStore, walletStore, log)
	rates := ledger.NewCommissionResolver(cfg)
	flow := ledger.NewPurchaseFlow(orch, walletStore, purchaseStore, rates, cfg.PlatformUserID, log)

	// Repositories
	walletRepo := persistent.NewWalletRepository(db)
	withdrawalRepo := persistent.NewWithdrawalRepository(db)
	financeRepo := persistent.NewFinanceRepository(db)

	// Usecases
	var events usecase.EventPublisher
	if queueClient != nil {
		events = queueClient
	}
	walletUseCase := usecase.NewWalletUseCase(walletRepo, log)
	rewardUseCase := usecase.NewRewardUseCase(orch, events, cfg, log)
	purchaseUseCase := usecase.NewPurchaseUseCase(flow, financeRepo, s3Client, events, log)
	withdrawalUseCase := usecase.NewWithdrawalUseCase(withdrawalRepo, orch, walletStore, log)
	financeUseCase := usecase.NewFinanceUseCase(financeRepo, withdrawalRepo, orch, walletStore, log)

	// HTTP handlers
	walletHandler := ledgerHTTP.NewWalletHandler(walletUseCase, log)
	rewardHandler := ledgerHTTP.NewRewardHandler(rewardUseCase, log)
	purchaseHandler := ledgerHTTP.NewPurchaseHandler(purchaseUseCase, log)
	withdrawalHandler := ledgerHTTP.NewWithdrawalHandler(withdrawalUseCase, log)
	financeHandler := ledgerHTTP.NewFinanceHandler(financeUseCase, log)

	// Setup router
	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtService))
	api.Use(middleware.RateLimitMiddleware(redisClient, 100, time.Minute))

	{
		api.GET("/wallet", walletHandler.GetWallet)
		api.GET("/wallet/transactions", walletHandler.GetTransactions)

		api.POST("/purchases", purchaseHandler.CreatePurchase)
		api.GET("/purchases", purchaseHandler.ListPurchases)
		api.GET("/purchases/:id/download", purchaseHandler.Download)

		api.POST("/withdrawals", withdrawalHandler.CreateWithdrawal)
		api.GET("/withdrawals", withdrawalHandler.ListWithdrawals)
	}

	// Forum and bot backends grant rewards with a service token.
	service := api.Group("")
	service.Use(middleware.RequireRole("service"))
	{
		service.POST("/rewards", rewardHandler.GrantReward)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireRole("admin"))
	{
		admin.GET("/withdrawals", withdrawalHandler.ListPending)
		admin.POST("/withdrawals/:id/approve", withdrawalHandler.Approve)
		admin.POST("/withdrawals/:id/reject", withdrawalHandler.Reject)
		admin.POST("/withdrawals/:id/paid", withdrawalHandler.MarkPaid)

		admin.GET("/finance/transactions", financeHandler.ListTransactions)
		admin.GET("/finance/transactions/:id", financeHandler.GetTransaction)
		admin.GET("/finance/reconciliation", financeHandler.ListReconciliationRuns)
		admin.POST("/finance/adjustments", financeHandler.CreateAdjustment)
		admin.POST("/finance/adjustments/:id/approve", financeHandler.ApproveAdjustment)
		admin.GET("/finance/adjustments", financeHandler.ListAdjustments)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.LedgerPort,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Ledger service starting on port %s", cfg.LedgerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down ledger service...")

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

	if queueClient != nil {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
		panic(err)
	}

	log.Info("Ledger service exited")
}
