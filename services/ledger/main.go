package main

import (
	"yoforex/pkg/cache"
	"yoforex/pkg/config"
	"yoforex/pkg/database"
	"yoforex/pkg/logger"
	"yoforex/pkg/queue"
	"yoforex/pkg/s3"
	internal "yoforex/services/ledger/internal/app"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// @title           YoForex Ledger Service API
// @version         1.0
// @description     Coin wallet, reward, purchase and withdrawal API for the YoForex platform

// @host      localhost:8010
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if cfg.JWTSecret == "your-secret-key-change-in-production" || cfg.JWTSecret == "" {
		panic("JWT_SECRET must be set in environment variables")
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

	// Purchase and reward events feed notification/analytics consumers. The
	// ledger keeps working without the broker.
	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Warn("RabbitMQ unavailable, ledger events disabled: %v", err)
		queueClient = nil
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to create S3 client: %v", err)
		panic(err)
	}

	internal.Run(cfg, log, db, redisClient, queueClient, s3Client)
}
