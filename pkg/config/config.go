package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	LedgerPort   string
	TreasuryPort string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// RabbitMQ
	RabbitMQHost     string
	RabbitMQPort     string
	RabbitMQUser     string
	RabbitMQPassword string

	// JWT
	JWTSecret string

	// AWS S3
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string
	S3UseSSL           string
	S3BucketName       string

	// Economy
	DefaultCommissionBps   int
	FileAssetCommissionBps int
	RewardThreadCoins      int64
	RewardReplyCoins       int64
	RewardLikeCoins        int64
	PlatformUserID         string

	// Bot treasury
	BotBalanceCap       int64
	BotRefundHour       int
	TreasuryDailyLimit  int64
	BotWorkerAPIKeyHash string
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	config := &Config{
		LedgerPort:   getEnv("LEDGER_PORT", "8080"),
		TreasuryPort: getEnv("TREASURY_PORT", "8081"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "yoforex"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,

		RabbitMQHost:     getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort:     getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:     getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", "guest"),

		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpoint:        getEnv("AWS_ENDPOINT", ""),
		S3UseSSL:           getEnv("S3_USE_SSL", "true"),
		S3BucketName:       getEnv("S3_BUCKET_NAME", "yoforex-ea-packages"),

		DefaultCommissionBps:   getEnvInt("COMMISSION_BPS_DEFAULT", 2000),
		FileAssetCommissionBps: getEnvInt("COMMISSION_BPS_FILE", 850),
		RewardThreadCoins:      getEnvInt64("REWARD_THREAD_COINS", 10),
		RewardReplyCoins:       getEnvInt64("REWARD_REPLY_COINS", 5),
		RewardLikeCoins:        getEnvInt64("REWARD_LIKE_COINS", 2),
		PlatformUserID:         getEnv("PLATFORM_USER_ID", "00000000-0000-0000-0000-000000000001"),

		BotBalanceCap:       getEnvInt64("BOT_BALANCE_CAP", 199),
		BotRefundHour:       getEnvInt("BOT_REFUND_HOUR", 3),
		TreasuryDailyLimit:  getEnvInt64("TREASURY_DAILY_LIMIT", 5000),
		BotWorkerAPIKeyHash: getEnv("BOT_WORKER_API_KEY_HASH", ""),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
