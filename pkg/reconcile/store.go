package reconcile

import (
	"context"

	"yoforex/pkg/models"

	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// WalletPage pages wallets by primary key so a long scan never holds a
// cursor open against the whole table.
func (s *gormStore) WalletPage(ctx context.Context, afterID string, limit int) ([]*models.Wallet, error) {
	var wallets []*models.Wallet
	q := s.db.WithContext(ctx).Order("id ASC").Limit(limit)
	if afterID != "" {
		q = q.Where("id > ?", afterID)
	}
	if err := q.Find(&wallets).Error; err != nil {
		return nil, err
	}
	return wallets, nil
}

func (s *gormStore) JournalBalance(ctx context.Context, walletID string) (int64, error) {
	var sum int64
	err := s.db.WithContext(ctx).Model(&models.JournalEntry{}).
		Select("COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount ELSE -amount END), 0)").
		Where("wallet_id = ?", walletID).
		Scan(&sum).Error
	return sum, err
}

func (s *gormStore) MirrorBalance(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := s.db.WithContext(ctx).Model(&models.CoinTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	return sum, err
}

func (s *gormStore) CreateRun(ctx context.Context, run *models.ReconciliationRun) error {
	return s.db.WithContext(ctx).Create(run).Error
}

func (s *gormStore) SaveRun(ctx context.Context, run *models.ReconciliationRun) error {
	return s.db.WithContext(ctx).Save(run).Error
}
