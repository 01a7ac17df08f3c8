package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"yoforex/pkg/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) CreateTransaction(ctx context.Context, tx *models.LedgerTransaction) error {
	return s.db.WithContext(ctx).Create(tx).Error
}

func (s *gormStore) FindByExternalRef(ctx context.Context, externalRef string) (*models.LedgerTransaction, error) {
	var tx models.LedgerTransaction
	err := s.db.WithContext(ctx).
		Where("external_ref = ?", externalRef).
		Order("created_at DESC").
		First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *gormStore) SetTransactionStatus(ctx context.Context, id string, status models.LedgerTransactionStatus, closedAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if closedAt != nil {
		updates["closed_at"] = *closedAt
	}
	return s.db.WithContext(ctx).Model(&models.LedgerTransaction{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// AppendEntry writes the journal entry and its mirror row in one database
// transaction; the ledger and the legacy view share a single commit.
func (s *gormStore) AppendEntry(ctx context.Context, entry *models.JournalEntry, mirror *models.CoinTransaction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		return tx.Create(mirror).Error
	})
}

func (s *gormStore) EntriesByTransaction(ctx context.Context, transactionID string) ([]*models.JournalEntry, error) {
	var entries []*models.JournalEntry
	err := s.db.WithContext(ctx).
		Where("ledger_transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

const contentCacheTTL = 5 * time.Minute

type gormPurchaseStore struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewPurchaseStore returns a PurchaseStore with a redis read-through cache on
// content lookups; the catalog row is hot on every purchase of that content.
func NewPurchaseStore(db *gorm.DB, redisClient *redis.Client) PurchaseStore {
	return &gormPurchaseStore{db: db, redisClient: redisClient}
}

func (s *gormPurchaseStore) ContentByID(ctx context.Context, contentID string) (*models.Content, error) {
	key := "content:" + contentID

	if s.redisClient != nil {
		cached, err := s.redisClient.HGetAll(ctx, key).Result()
		if err == nil && len(cached) > 0 {
			price, perr := strconv.ParseInt(cached["price_coins"], 10, 64)
			if perr == nil && cached["seller_id"] != "" {
				return &models.Content{
					ID:         contentID,
					SellerID:   cached["seller_id"],
					Title:      cached["title"],
					Type:       models.ContentType(cached["content_type"]),
					PriceCoins: price,
					FileKey:    cached["file_key"],
					Status:     models.ContentStatus(cached["status"]),
				}, nil
			}
		}
	}

	var content models.Content
	err := s.db.WithContext(ctx).Where("id = ?", contentID).First(&content).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}

	if s.redisClient != nil {
		s.redisClient.HSet(ctx, key,
			"seller_id", content.SellerID,
			"title", content.Title,
			"content_type", string(content.Type),
			"price_coins", strconv.FormatInt(content.PriceCoins, 10),
			"file_key", content.FileKey,
			"status", string(content.Status),
		)
		s.redisClient.Expire(ctx, key, contentCacheTTL)
	}

	return &content, nil
}

func (s *gormPurchaseStore) HasPurchase(ctx context.Context, buyerID, contentID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("buyer_id = ? AND content_id = ?", buyerID, contentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormPurchaseStore) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	return s.db.WithContext(ctx).Create(purchase).Error
}

func (s *gormPurchaseStore) PurchaseByTransactionID(ctx context.Context, transactionID string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.WithContext(ctx).
		Where("ledger_transaction_id = ?", transactionID).
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}
