package treasury

import (
	"context"
	"errors"
	"time"

	"yoforex/pkg/models"

	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) GetTreasury(ctx context.Context) (*models.BotTreasury, error) {
	var t models.BotTreasury
	if err := s.db.WithContext(ctx).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTreasuryNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *gormStore) SaveTreasury(ctx context.Context, t *models.BotTreasury, expectedVersion int64) error {
	// Compare-and-swap on the version column, same pattern as the wallet
	// store. RowsAffected == 0 means a concurrent writer won.
	res := s.db.WithContext(ctx).Model(&models.BotTreasury{}).
		Where("id = ? AND version = ?", t.ID, expectedVersion).
		Updates(map[string]interface{}{
			"balance":        t.Balance,
			"today_spent":    t.TodaySpent,
			"last_reset_at":  t.LastResetAt,
			"total_spent":    t.TotalSpent,
			"total_refunded": t.TotalRefunded,
			"version":        expectedVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentTreasuryUpdate
	}
	t.Version = expectedVersion + 1
	return nil
}

func (s *gormStore) CreateRefund(ctx context.Context, r *models.BotRefund) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *gormStore) RefundByID(ctx context.Context, id string) (*models.BotRefund, error) {
	var r models.BotRefund
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *gormStore) DueRefunds(ctx context.Context, now time.Time, limit int) ([]*models.BotRefund, error) {
	var refunds []*models.BotRefund
	err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ?", models.BotRefundStatusPending, now).
		Order("scheduled_for ASC").
		Limit(limit).
		Find(&refunds).Error
	if err != nil {
		return nil, err
	}
	return refunds, nil
}

func (s *gormStore) SetRefundStatus(ctx context.Context, id string, status models.BotRefundStatus, processedAt *time.Time, failureReason string) error {
	return s.db.WithContext(ctx).Model(&models.BotRefund{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         status,
			"processed_at":   processedAt,
			"failure_reason": failureReason,
		}).Error
}
