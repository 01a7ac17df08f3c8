package ledger

import (
	"context"
	"errors"
	"fmt"

	"yoforex/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdjustResult reports a balance mutation exactly as applied, so journal
// entries can record balance_before/balance_after without recomputing them.
type AdjustResult struct {
	Wallet        *models.Wallet
	BalanceBefore int64
	BalanceAfter  int64
}

// WalletStore is the only component that writes wallet balances.
type WalletStore interface {
	GetOrCreate(ctx context.Context, userID string) (*models.Wallet, error)
	Get(ctx context.Context, walletID string) (*models.Wallet, error)
	GetByUserID(ctx context.Context, userID string) (*models.Wallet, error)

	// AdjustBalance applies a signed delta under optimistic concurrency.
	// The write succeeds only if the stored version still equals
	// expectedVersion; otherwise ErrConcurrentModification is returned and
	// the caller must re-read and retry. A negative delta that would drive
	// the balance below zero fails with ErrInsufficientFunds, no mutation.
	AdjustBalance(ctx context.Context, walletID string, delta int64, expectedVersion int64) (*AdjustResult, error)
}

type walletStore struct {
	db *gorm.DB
}

func NewWalletStore(db *gorm.DB) WalletStore {
	return &walletStore{db: db}
}

func (s *walletStore) GetOrCreate(ctx context.Context, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	wallet = models.Wallet{
		ID:     uuid.New().String(),
		UserID: userID,
		Status: models.WalletStatusActive,
	}
	if err := s.db.WithContext(ctx).Create(&wallet).Error; err != nil {
		// Lost a create race: another request inserted the row first.
		var existing models.Wallet
		if lookupErr := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; lookupErr == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return &wallet, nil
}

func (s *walletStore) Get(ctx context.Context, walletID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.db.WithContext(ctx).Where("id = ?", walletID).First(&wallet).Error; err != nil {
		return nil, fmt.Errorf("failed to load wallet %s: %w", walletID, err)
	}
	return &wallet, nil
}

func (s *walletStore) GetByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, fmt.Errorf("failed to load wallet for user %s: %w", userID, err)
	}
	return &wallet, nil
}

func (s *walletStore) AdjustBalance(ctx context.Context, walletID string, delta int64, expectedVersion int64) (*AdjustResult, error) {
	wallet, err := s.Get(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if wallet.Status != models.WalletStatusActive {
		return nil, ErrWalletNotActive
	}
	if wallet.Version != expectedVersion {
		return nil, ErrConcurrentModification
	}

	newBalance := wallet.Balance + delta
	newAvailable := wallet.AvailableBalance + delta
	if newBalance < 0 || newAvailable < 0 {
		return nil, ErrInsufficientFunds
	}

	// Compare-and-swap on the version column. RowsAffected == 0 means a
	// concurrent writer won; the caller re-reads and retries.
	res := s.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ? AND version = ?", walletID, expectedVersion).
		Updates(map[string]interface{}{
			"balance":           newBalance,
			"available_balance": newAvailable,
			"version":           expectedVersion + 1,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to adjust wallet %s: %w", walletID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrConcurrentModification
	}

	updated := *wallet
	updated.Balance = newBalance
	updated.AvailableBalance = newAvailable
	updated.Version = expectedVersion + 1

	return &AdjustResult{
		Wallet:        &updated,
		BalanceBefore: wallet.Balance,
		BalanceAfter:  newBalance,
	}, nil
}
