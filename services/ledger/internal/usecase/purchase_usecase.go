package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yoforex/pkg/ledger"
	"yoforex/pkg/logger"
	"yoforex/pkg/queue"
	"yoforex/services/ledger/internal/entity"
	"yoforex/services/ledger/internal/repo/persistent"

	"gorm.io/gorm"
)

var (
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrNotPurchaseOwner = errors.New("purchase belongs to another user")
	ErrNoDownloadAsset  = errors.New("content has no downloadable asset")
)

const downloadGrantTTL = 15 * time.Minute

// DownloadGranter issues time-limited links to purchased assets.
type DownloadGranter interface {
	PresignedDownloadURL(key string, ttl time.Duration) (string, error)
}

type PurchaseUseCase interface {
	Purchase(ctx context.Context, buyerID, contentID, idempotencyKey string) (*entity.Purchase, error)
	ListPurchases(buyerID string, limit, offset int) ([]*entity.Purchase, error)
	DownloadGrant(buyerID, purchaseID string) (*entity.DownloadGrant, error)
}

type purchaseUseCase struct {
	flow    *ledger.PurchaseFlow
	finance persistent.FinanceRepository
	storage DownloadGranter
	events  EventPublisher
	logger  *logger.Logger
}

func NewPurchaseUseCase(flow *ledger.PurchaseFlow, finance persistent.FinanceRepository, storage DownloadGranter, events EventPublisher, logger *logger.Logger) PurchaseUseCase {
	return &purchaseUseCase{
		flow:    flow,
		finance: finance,
		storage: storage,
		events:  events,
		logger:  logger,
	}
}

func (uc *purchaseUseCase) Purchase(ctx context.Context, buyerID, contentID, idempotencyKey string) (*entity.Purchase, error) {
	result, err := uc.flow.Execute(ctx, ledger.PurchaseRequest{
		BuyerID:        buyerID,
		ContentID:      contentID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	if !result.Replayed && uc.events != nil {
		if err := uc.events.PublishLedgerEvent(queue.RoutingKeyPurchaseCompleted, queue.PurchaseCompletedEvent{
			PurchaseID:   result.Purchase.ID,
			BuyerID:      result.Purchase.BuyerID,
			SellerID:     result.Purchase.SellerID,
			ContentID:    result.Purchase.ContentID,
			PriceCoins:   result.Purchase.PriceCoins,
			SellerCredit: result.Purchase.SellerCredit,
			PlatformFee:  result.Purchase.PlatformFee,
			BotFunded:    result.Purchase.BotFunded,
		}); err != nil {
			uc.logger.Error("Failed to publish purchase event: %v", err)
		}
	}

	return persistent.ToPurchaseEntity(result.Purchase), nil
}

func (uc *purchaseUseCase) ListPurchases(buyerID string, limit, offset int) ([]*entity.Purchase, error) {
	purchases, err := uc.finance.ListPurchasesByBuyer(buyerID, limit, offset)
	if err != nil {
		uc.logger.Error("Failed to list purchases: %v", err)
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}

// DownloadGrant verifies ownership and issues a presigned URL for the asset.
func (uc *purchaseUseCase) DownloadGrant(buyerID, purchaseID string) (*entity.DownloadGrant, error) {
	purchase, err := uc.finance.GetPurchase(purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	if purchase.BuyerID != buyerID {
		return nil, ErrNotPurchaseOwner
	}

	content, err := uc.finance.GetContent(purchase.ContentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	if content.FileKey == "" {
		return nil, ErrNoDownloadAsset
	}

	url, err := uc.storage.PresignedDownloadURL(content.FileKey, downloadGrantTTL)
	if err != nil {
		uc.logger.Error("Failed to presign download for purchase %s: %v", purchaseID, err)
		return nil, fmt.Errorf("failed to issue download grant: %w", err)
	}

	return &entity.DownloadGrant{
		PurchaseID: purchaseID,
		URL:        url,
		ExpiresAt:  time.Now().Add(downloadGrantTTL),
	}, nil
}
