package usecase

import (
	"fmt"

	"yoforex/pkg/logger"
	"yoforex/services/ledger/internal/entity"
	"yoforex/services/ledger/internal/repo/persistent"
)

type WalletUseCase interface {
	GetWallet(userID string) (*entity.Wallet, error)
	GetTransactions(userID string, limit, offset int) ([]*entity.Transaction, error)
}

type walletUseCase struct {
	walletRepo persistent.WalletRepository
	logger     *logger.Logger
}

func NewWalletUseCase(walletRepo persistent.WalletRepository, logger *logger.Logger) WalletUseCase {
	return &walletUseCase{
		walletRepo: walletRepo,
		logger:     logger,
	}
}

func (uc *walletUseCase) GetWallet(userID string) (*entity.Wallet, error) {
	wallet, err := uc.walletRepo.GetWallet(userID)
	if err != nil {
		uc.logger.Error("Failed to get wallet: %v", err)
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

func (uc *walletUseCase) GetTransactions(userID string, limit, offset int) ([]*entity.Transaction, error) {
	transactions, err := uc.walletRepo.GetTransactions(userID, limit, offset)
	if err != nil {
		uc.logger.Error("Failed to get transactions: %v", err)
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return transactions, nil
}
