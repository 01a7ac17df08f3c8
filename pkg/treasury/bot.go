package treasury

import (
	"context"
	"fmt"

	"yoforex/pkg/ledger"
	"yoforex/pkg/logger"
	"yoforex/pkg/models"
)

// BotPurchaser funds a bot account from the treasury and runs the purchase
// through the same flow real users take. The only differences are the funding
// leg before the purchase and the refund scheduling after it.
type BotPurchaser struct {
	manager *Manager
	flow    *ledger.PurchaseFlow
	refunds *RefundProcessor
	orch    *ledger.Orchestrator
	catalog ledger.PurchaseStore
	log     *logger.Logger
}

func NewBotPurchaser(manager *Manager, flow *ledger.PurchaseFlow, refunds *RefundProcessor, orch *ledger.Orchestrator, catalog ledger.PurchaseStore, log *logger.Logger) *BotPurchaser {
	return &BotPurchaser{
		manager: manager,
		flow:    flow,
		refunds: refunds,
		orch:    orch,
		catalog: catalog,
		log:     log,
	}
}

type BotPurchaseResult struct {
	Purchase *models.Purchase  `json:"purchase"`
	Refund   *models.BotRefund `json:"refund,omitempty"`
	Replayed bool              `json:"replayed"`
}

// Execute spends from the pool, credits the bot wallet with exactly the
// purchase price, then runs the standard purchase flow as the bot. If the
// purchase fails the funding is unwound and the coins go back to the pool.
func (b *BotPurchaser) Execute(ctx context.Context, botUserID, contentID, idempotencyKey string) (*BotPurchaseResult, error) {
	content, err := b.catalog.ContentByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	price := content.PriceCoins

	if _, err := b.manager.Spend(ctx, price); err != nil {
		return nil, err
	}

	if err := b.fundBotWallet(ctx, botUserID, contentID, price, idempotencyKey); err != nil {
		if _, rbErr := b.manager.RefundBack(ctx, price); rbErr != nil {
			b.log.Error("treasury refund after funding failure: %v", rbErr)
		}
		return nil, err
	}

	result, err := b.flow.Execute(ctx, ledger.PurchaseRequest{
		BuyerID:        botUserID,
		ContentID:      contentID,
		IdempotencyKey: idempotencyKey,
		BotFunded:      true,
	})
	if err != nil {
		b.unwindFunding(ctx, botUserID, contentID, price, idempotencyKey)
		return nil, err
	}
	if result.Replayed {
		// The purchase already happened on an earlier attempt; this funding
		// round must not stay in the bot wallet.
		b.unwindFunding(ctx, botUserID, contentID, price, idempotencyKey)
		return &BotPurchaseResult{Purchase: result.Purchase, Replayed: true}, nil
	}

	refund, err := b.refunds.ScheduleRefundIfCapped(ctx, result.Purchase, result.SellerBalanceAfter)
	if err != nil {
		// The purchase is committed; a missed schedule is an operational
		// problem, not a reason to fail the caller.
		b.log.Error("bot purchase %s: refund scheduling failed: %v", result.Purchase.ID, err)
	}

	return &BotPurchaseResult{Purchase: result.Purchase, Refund: refund}, nil
}

func (b *BotPurchaser) fundBotWallet(ctx context.Context, botUserID, contentID string, amount int64, idempotencyKey string) error {
	txContext := &ledger.Context{Adjustment: &ledger.AdjustmentContext{
		Reason: fmt.Sprintf("treasury funding for bot purchase of %s", contentID),
	}}
	tx, existing, err := b.orch.Begin(ctx, models.LedgerTypeAdjustment, txContext, botUserID, fundingRef(idempotencyKey))
	if err != nil {
		return err
	}
	if existing {
		return nil
	}
	if _, err := b.orch.PostEntry(ctx, tx, botUserID, models.DirectionCredit, amount,
		"treasury funding", ledger.Mirror{
			Trigger:        models.TriggerBotFunding,
			Channel:        models.ChannelBot,
			Description:    "Treasury funding",
			ContentID:      contentID,
			IdempotencyKey: fundingRef(idempotencyKey),
		}); err != nil {
		_ = b.orch.Fail(ctx, tx, err)
		return err
	}
	if err := b.orch.Close(ctx, tx); err != nil {
		_ = b.orch.Fail(ctx, tx, err)
		return err
	}
	return nil
}

// unwindFunding debits the funding back out of the bot wallet and returns the
// coins to the pool. Failures are logged for reconciliation to surface.
func (b *BotPurchaser) unwindFunding(ctx context.Context, botUserID, contentID string, amount int64, idempotencyKey string) {
	txContext := &ledger.Context{Adjustment: &ledger.AdjustmentContext{
		Reason: fmt.Sprintf("unwind treasury funding for %s", contentID),
	}}
	tx, existing, err := b.orch.Begin(ctx, models.LedgerTypeAdjustment, txContext, botUserID, unwindRef(idempotencyKey))
	if err != nil || existing {
		if err != nil {
			b.log.Error("bot funding unwind begin failed: %v", err)
		}
		return
	}
	if _, err := b.orch.PostEntry(ctx, tx, botUserID, models.DirectionDebit, amount,
		"treasury funding unwind", ledger.Mirror{
			Trigger:        models.TriggerBotFunding,
			Channel:        models.ChannelBot,
			Description:    "Treasury funding unwind",
			ContentID:      contentID,
			IdempotencyKey: unwindRef(idempotencyKey),
		}); err != nil {
		_ = b.orch.Fail(ctx, tx, err)
		b.log.Error("bot funding unwind failed, coins stranded in bot wallet: %v", err)
		return
	}
	if err := b.orch.Close(ctx, tx); err != nil {
		_ = b.orch.Fail(ctx, tx, err)
		return
	}
	if _, err := b.manager.RefundBack(ctx, amount); err != nil {
		b.log.Error("treasury refund after unwind failed: %v", err)
	}
}

func fundingRef(idempotencyKey string) string {
	if idempotencyKey == "" {
		return ""
	}
	return "bot-funding:" + idempotencyKey
}

func unwindRef(idempotencyKey string) string {
	if idempotencyKey == "" {
		return ""
	}
	return "bot-funding-unwind:" + idempotencyKey
}
