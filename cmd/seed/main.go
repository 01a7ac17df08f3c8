package main

import (
	"bytes"
	"flag"
	"fmt"
	"time"

	"yoforex/pkg/config"
	"yoforex/pkg/database"
	"yoforex/pkg/logger"
	"yoforex/pkg/models"
	"yoforex/pkg/s3"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	var botAPIKey string
	flag.StringVar(&botAPIKey, "bot-api-key", "", "Generate a bcrypt hash for this bot worker API key")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to create S3 client: %v", err)
		panic(err)
	}

	if botAPIKey != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(botAPIKey), bcrypt.DefaultCost)
		if err != nil {
			panic(fmt.Sprintf("Failed to hash API key: %v", err))
		}
		fmt.Printf("BOT_WORKER_API_KEY_HASH=%s\n", string(hash))
	}

	if err := seedDatabase(db, s3Client, cfg, log); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully!")
}

func seedDatabase(db *gorm.DB, s3Client *s3.Client, cfg *config.Config, log *logger.Logger) error {
	if err := ensureWallet(db, cfg.PlatformUserID, 0, log); err != nil {
		return fmt.Errorf("failed to seed platform wallet: %w", err)
	}

	if err := ensureTreasury(db, cfg, log); err != nil {
		return fmt.Errorf("failed to seed bot treasury: %w", err)
	}

	// Demo sellers and buyers with starting balances
	demoUsers := []struct {
		userID  string
		balance int64
	}{
		{"11111111-1111-1111-1111-111111111111", 1000},
		{"22222222-2222-2222-2222-222222222222", 500},
		{"33333333-3333-3333-3333-333333333333", 150},
	}

	for _, u := range demoUsers {
		if err := ensureWallet(db, u.userID, u.balance, log); err != nil {
			log.Error("Failed to create wallet for %s: %v", u.userID, err)
		}
	}

	sellerID := demoUsers[0].userID

	demoContent := []struct {
		title string
		ctype models.ContentType
		price int64
	}{
		{"Trend Breakout EA", models.ContentTypeEA, 500},
		{"Scalper Pro EA", models.ContentTypeEA, 200},
		{"London Session Indicator Pack", models.ContentTypeFile, 80},
	}

	for i, c := range demoContent {
		if err := ensureContent(db, s3Client, sellerID, c.title, c.ctype, c.price, i, log); err != nil {
			log.Error("Failed to create content %q: %v", c.title, err)
		}
	}

	return nil
}

func ensureWallet(db *gorm.DB, userID string, balance int64, log *logger.Logger) error {
	var existing models.Wallet
	if err := db.Where("user_id = ?", userID).First(&existing).Error; err == nil {
		log.Info("Wallet for user %s already exists, skipping", userID)
		return nil
	}

	wallet := &models.Wallet{
		UserID:           userID,
		Balance:          balance,
		AvailableBalance: balance,
		Status:           models.WalletStatusActive,
	}
	if err := wallet.BeforeCreate(nil); err != nil {
		return err
	}
	if err := db.Create(wallet).Error; err != nil {
		return err
	}

	log.Info("Created wallet for user %s with balance %d", userID, balance)
	return nil
}

func ensureTreasury(db *gorm.DB, cfg *config.Config, log *logger.Logger) error {
	var existing models.BotTreasury
	if err := db.First(&existing).Error; err == nil {
		log.Info("Bot treasury already exists, skipping")
		return nil
	}

	pool := &models.BotTreasury{
		ID:              uuid.New().String(),
		Balance:         cfg.TreasuryDailyLimit * 10,
		DailySpendLimit: cfg.TreasuryDailyLimit,
		LastResetAt:     time.Now().UTC(),
	}
	if err := db.Create(pool).Error; err != nil {
		return err
	}

	log.Info("Created bot treasury: balance %d, daily limit %d", pool.Balance, pool.DailySpendLimit)
	return nil
}

// seedFile adapts *bytes.Reader to the multipart.File interface UploadFile expects.
type seedFile struct{ *bytes.Reader }

func (seedFile) Close() error { return nil }

func ensureContent(db *gorm.DB, s3Client *s3.Client, sellerID, title string, ctype models.ContentType, price int64, index int, log *logger.Logger) error {
	var existing models.Content
	if err := db.Where("seller_id = ? AND title = ?", sellerID, title).First(&existing).Error; err == nil {
		log.Info("Content %q already exists, skipping", title)
		return nil
	}

	content := &models.Content{
		SellerID:   sellerID,
		Title:      title,
		Type:       ctype,
		PriceCoins: price,
		Status:     models.ContentStatusPublished,
	}
	if err := content.BeforeCreate(nil); err != nil {
		return err
	}

	// Every item gets a placeholder package so download grants work end to end.
	fileKey := fmt.Sprintf("content/%s/seed_%d.zip", content.ID, index)
	payload := seedFile{bytes.NewReader([]byte(fmt.Sprintf("placeholder package for %s", title)))}
	if _, err := s3Client.UploadFile(fileKey, payload, "application/zip"); err != nil {
		return fmt.Errorf("failed to upload package: %w", err)
	}
	content.FileKey = fileKey

	if err := db.Create(content).Error; err != nil {
		return err
	}

	log.Info("Created content: %s (%s, %d coins)", title, ctype, price)
	return nil
}
