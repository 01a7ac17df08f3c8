package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"yoforex/pkg/logger"
	"yoforex/pkg/models"
)

// PurchaseStore persists purchase records and resolves catalog content.
type PurchaseStore interface {
	ContentByID(ctx context.Context, contentID string) (*models.Content, error)
	HasPurchase(ctx context.Context, buyerID, contentID string) (bool, error)
	CreatePurchase(ctx context.Context, purchase *models.Purchase) error
	PurchaseByTransactionID(ctx context.Context, transactionID string) (*models.Purchase, error)
}

type PurchaseRequest struct {
	BuyerID        string
	ContentID      string
	IdempotencyKey string
	BotFunded      bool
}

type PurchaseResult struct {
	Purchase          *models.Purchase
	Transaction       *models.LedgerTransaction
	SellerBalanceAfter int64
	Replayed          bool
}

// PurchaseFlow executes the commission-split purchase:
// Initiated -> FundsVerified -> EntriesPosted -> Mirrored -> Closed.
// The mirror rows are written by the orchestrator alongside each entry, so a
// flow that reaches Closed is mirrored by construction.
type PurchaseFlow struct {
	orch           *Orchestrator
	wallets        WalletStore
	store          PurchaseStore
	rates          *CommissionResolver
	platformUserID string
	log            *logger.Logger
}

func NewPurchaseFlow(orch *Orchestrator, wallets WalletStore, store PurchaseStore, rates *CommissionResolver, platformUserID string, log *logger.Logger) *PurchaseFlow {
	return &PurchaseFlow{
		orch:           orch,
		wallets:        wallets,
		store:          store,
		rates:          rates,
		platformUserID: platformUserID,
		log:            log,
	}
}

func (f *PurchaseFlow) Execute(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	content, err := f.store.ContentByID(ctx, req.ContentID)
	if err != nil {
		return nil, err
	}
	if content.Status != models.ContentStatusPublished {
		return nil, ErrContentUnavailable
	}
	if content.SellerID == req.BuyerID {
		return nil, ErrOwnContent
	}

	// An idempotent retry of an already-closed purchase returns the prior
	// result; this must run before the duplicate rejection below, which is
	// meant for genuinely new attempts on already-owned content.
	if prior, rerr := f.orch.Replay(ctx, req.IdempotencyKey); rerr != nil {
		return nil, rerr
	} else if prior != nil {
		priorPurchase, perr := f.store.PurchaseByTransactionID(ctx, prior.ID)
		if perr != nil {
			return nil, fmt.Errorf("idempotent replay lookup failed: %w", perr)
		}
		return &PurchaseResult{Purchase: priorPurchase, Transaction: prior, Replayed: true}, nil
	}

	// Duplicate purchases are rejected before any ledger write.
	exists, err := f.store.HasPurchase(ctx, req.BuyerID, req.ContentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check prior purchase: %w", err)
	}
	if exists {
		return nil, ErrDuplicatePurchase
	}

	// FundsVerified: cheap rejection before the transaction is opened. The
	// debit itself re-checks under the version guard, so a race here only
	// costs the buyer a failed transaction, never a negative balance.
	buyerWallet, err := f.wallets.GetOrCreate(ctx, req.BuyerID)
	if err != nil {
		return nil, err
	}
	if buyerWallet.AvailableBalance < content.PriceCoins {
		return nil, ErrInsufficientFunds
	}

	rateBps := f.rates.RateBps(content.Type)
	sellerCredit, platformFee := SplitPrice(content.PriceCoins, rateBps)

	txContext := &Context{Purchase: &PurchaseContext{
		BuyerID:      req.BuyerID,
		SellerID:     content.SellerID,
		ContentID:    content.ID,
		PriceCoins:   content.PriceCoins,
		SellerCredit: sellerCredit,
		PlatformFee:  platformFee,
		RateBps:      rateBps,
		BotFunded:    req.BotFunded,
	}}

	tx, existing, err := f.orch.Begin(ctx, models.LedgerTypePurchase, txContext, req.BuyerID, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing {
		prior, perr := f.store.PurchaseByTransactionID(ctx, tx.ID)
		if perr != nil {
			return nil, fmt.Errorf("idempotent replay lookup failed: %w", perr)
		}
		return &PurchaseResult{Purchase: prior, Transaction: tx, Replayed: true}, nil
	}

	// EntriesPosted, debit first: a crash mid-transaction leaves a
	// deterministic, compensable partial state.
	if _, err := f.orch.PostEntry(ctx, tx, req.BuyerID, models.DirectionDebit, content.PriceCoins,
		fmt.Sprintf("purchase of %s", content.ID), Mirror{
			Trigger:        models.TriggerContentPurchase,
			Channel:        models.ChannelMarketplace,
			Description:    fmt.Sprintf("Purchased %q", content.Title),
			ContentID:      content.ID,
			IdempotencyKey: legKey(req.IdempotencyKey, "buyer"),
		}); err != nil {
		_ = f.orch.Fail(ctx, tx, err)
		return nil, err
	}

	sellerEntry, err := f.orch.PostEntry(ctx, tx, content.SellerID, models.DirectionCredit, sellerCredit,
		fmt.Sprintf("sale of %s", content.ID), Mirror{
			Trigger:        models.TriggerContentSale,
			Channel:        models.ChannelMarketplace,
			Description:    fmt.Sprintf("Sold %q", content.Title),
			ContentID:      content.ID,
			IdempotencyKey: legKey(req.IdempotencyKey, "seller"),
		})
	if err != nil {
		_ = f.orch.Fail(ctx, tx, err)
		return nil, err
	}

	if _, err := f.orch.PostEntry(ctx, tx, f.platformUserID, models.DirectionCredit, platformFee,
		fmt.Sprintf("commission on %s", content.ID), Mirror{
			Trigger:        models.TriggerPlatformFee,
			Channel:        models.ChannelMarketplace,
			Description:    fmt.Sprintf("Commission on %q", content.Title),
			ContentID:      content.ID,
			IdempotencyKey: legKey(req.IdempotencyKey, "fee"),
		}); err != nil {
		_ = f.orch.Fail(ctx, tx, err)
		return nil, err
	}

	purchase := &models.Purchase{
		BuyerID:             req.BuyerID,
		SellerID:            content.SellerID,
		ContentID:           content.ID,
		PriceCoins:          content.PriceCoins,
		SellerCredit:        sellerCredit,
		PlatformFee:         platformFee,
		LedgerTransactionID: tx.ID,
		BotFunded:           req.BotFunded,
	}
	if err := f.store.CreatePurchase(ctx, purchase); err != nil {
		failErr := err
		if isUniqueViolation(err) {
			failErr = ErrDuplicatePurchase
		}
		_ = f.orch.Fail(ctx, tx, failErr)
		return nil, failErr
	}

	if err := f.orch.Close(ctx, tx); err != nil {
		_ = f.orch.Fail(ctx, tx, err)
		return nil, err
	}

	f.log.WithFields(map[string]interface{}{
		"transaction_id": tx.ID,
		"purchase_id":    purchase.ID,
		"buyer_id":       req.BuyerID,
		"seller_id":      content.SellerID,
		"price_coins":    content.PriceCoins,
		"seller_credit":  sellerCredit,
		"platform_fee":   platformFee,
	}).Info("purchase completed")

	return &PurchaseResult{
		Purchase:           purchase,
		Transaction:        tx,
		SellerBalanceAfter: sellerEntry.BalanceAfter,
	}, nil
}

func legKey(idempotencyKey, leg string) string {
	if idempotencyKey == "" {
		return ""
	}
	return idempotencyKey + ":" + leg
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicatePurchase) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "23505")
}
