package persistent

import (
	"errors"

	"yoforex/pkg/models"
	"yoforex/services/ledger/internal/entity"

	"gorm.io/gorm"
)

type WalletRepository interface {
	GetWallet(userID string) (*entity.Wallet, error)
	GetTransactions(userID string, limit, offset int) ([]*entity.Transaction, error)
}

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) GetWallet(userID string) (*entity.Wallet, error) {
	var wallet models.Wallet
	err := r.db.Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// A user without ledger activity has an implicit empty wallet.
		return &entity.Wallet{UserID: userID, Status: string(models.WalletStatusActive)}, nil
	}
	if err != nil {
		return nil, err
	}
	return ToWalletEntity(&wallet), nil
}

func (r *walletRepository) GetTransactions(userID string, limit, offset int) ([]*entity.Transaction, error) {
	var transactions []*models.CoinTransaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	result := make([]*entity.Transaction, 0, len(transactions))
	for _, t := range transactions {
		result = append(result, ToTransactionEntity(t))
	}
	return result, nil
}
