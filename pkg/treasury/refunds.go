package treasury

import (
	"context"
	"fmt"
	"time"

	"yoforex/pkg/ledger"
	"yoforex/pkg/logger"
	"yoforex/pkg/models"
)

// RefundProcessor schedules and executes the clawback of bot-funded seller
// credits that pushed a balance over the cap. Refunds are deferred to the
// configured hour so sellers see the credit before part of it is withdrawn.
type RefundProcessor struct {
	store      Store
	manager    *Manager
	orch       *ledger.Orchestrator
	wallets    ledger.WalletStore
	balanceCap int64
	refundHour int
	log        *logger.Logger
	now        func() time.Time
}

func NewRefundProcessor(store Store, manager *Manager, orch *ledger.Orchestrator, wallets ledger.WalletStore, balanceCap int64, refundHour int, log *logger.Logger) *RefundProcessor {
	return &RefundProcessor{
		store:      store,
		manager:    manager,
		orch:       orch,
		wallets:    wallets,
		balanceCap: balanceCap,
		refundHour: refundHour,
		log:        log,
		now:        time.Now,
	}
}

// ScheduleRefundIfCapped records a pending refund when a bot-funded purchase
// left the seller over the balance cap. The refund amount is the overflow
// above the cap, never more than what this purchase credited. Returns nil
// when no refund is due.
func (p *RefundProcessor) ScheduleRefundIfCapped(ctx context.Context, purchase *models.Purchase, sellerBalanceAfter int64) (*models.BotRefund, error) {
	if !purchase.BotFunded {
		return nil, nil
	}
	if sellerBalanceAfter <= p.balanceCap {
		return nil, nil
	}

	amount := sellerBalanceAfter - p.balanceCap
	if amount > purchase.SellerCredit {
		amount = purchase.SellerCredit
	}

	refund := &models.BotRefund{
		PurchaseID:     purchase.ID,
		SellerID:       purchase.SellerID,
		OriginalAmount: purchase.SellerCredit,
		RefundAmount:   amount,
		Status:         models.BotRefundStatusPending,
		ScheduledFor:   p.nextRefundTime(),
	}
	if err := p.store.CreateRefund(ctx, refund); err != nil {
		return nil, fmt.Errorf("failed to schedule bot refund: %w", err)
	}

	p.log.WithFields(map[string]interface{}{
		"refund_id":     refund.ID,
		"purchase_id":   purchase.ID,
		"seller_id":     purchase.SellerID,
		"refund_amount": amount,
		"scheduled_for": refund.ScheduledFor,
	}).Info("bot refund scheduled")
	return refund, nil
}

// ProcessDue executes pending refunds whose scheduled time has passed. Each
// refund is handled independently; one failure does not stop the batch. A
// refund that cannot be taken without driving the seller negative is marked
// failed for admin review, never retried into a negative balance.
func (p *RefundProcessor) ProcessDue(ctx context.Context, batchSize int) (processed, failed int, err error) {
	due, err := p.store.DueRefunds(ctx, p.now(), batchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load due refunds: %w", err)
	}

	for _, refund := range due {
		// Re-read under the loop: a concurrent worker may have taken it.
		current, rerr := p.store.RefundByID(ctx, refund.ID)
		if rerr != nil || current.Status != models.BotRefundStatusPending {
			continue
		}
		if perr := p.processOne(ctx, current); perr != nil {
			failed++
			p.markFailed(ctx, current.ID, perr)
		} else {
			processed++
		}
	}
	return processed, failed, nil
}

func (p *RefundProcessor) processOne(ctx context.Context, refund *models.BotRefund) error {
	wallet, err := p.wallets.GetByUserID(ctx, refund.SellerID)
	if err != nil {
		return fmt.Errorf("seller wallet unavailable: %w", err)
	}
	if wallet.Balance < refund.RefundAmount {
		return fmt.Errorf("seller balance %d below refund amount %d", wallet.Balance, refund.RefundAmount)
	}

	txContext := &ledger.Context{Refund: &ledger.RefundContext{
		BotRefundID: refund.ID,
		PurchaseID:  refund.PurchaseID,
	}}
	tx, existing, err := p.orch.Begin(ctx, models.LedgerTypeRefund, txContext, refund.SellerID, "bot-refund:"+refund.ID)
	if err != nil {
		return err
	}
	if !existing {
		if _, err := p.orch.PostEntry(ctx, tx, refund.SellerID, models.DirectionDebit, refund.RefundAmount,
			fmt.Sprintf("bot refund for purchase %s", refund.PurchaseID), ledger.Mirror{
				Trigger:        models.TriggerBotRefund,
				Channel:        models.ChannelBot,
				Description:    "Bot purchase refund",
				IdempotencyKey: "bot-refund:" + refund.ID,
			}); err != nil {
			_ = p.orch.Fail(ctx, tx, err)
			return err
		}
		if err := p.orch.Close(ctx, tx); err != nil {
			_ = p.orch.Fail(ctx, tx, err)
			return err
		}
	}

	if _, err := p.manager.RefundBack(ctx, refund.RefundAmount); err != nil {
		// The seller debit is committed; the pool credit must be reconciled
		// by hand if this write is lost.
		p.log.Error("refund %s: pool credit failed after seller debit: %v", refund.ID, err)
		return err
	}

	now := p.now()
	if err := p.store.SetRefundStatus(ctx, refund.ID, models.BotRefundStatusCompleted, &now, ""); err != nil {
		return err
	}

	p.log.WithFields(map[string]interface{}{
		"refund_id":     refund.ID,
		"seller_id":     refund.SellerID,
		"refund_amount": refund.RefundAmount,
	}).Info("bot refund completed")
	return nil
}

func (p *RefundProcessor) markFailed(ctx context.Context, refundID string, cause error) {
	now := p.now()
	reason := cause.Error()
	if len(reason) > 255 {
		reason = reason[:255]
	}
	if err := p.store.SetRefundStatus(ctx, refundID, models.BotRefundStatusFailed, &now, reason); err != nil {
		p.log.Error("failed to mark refund %s failed: %v", refundID, err)
	}
}

// nextRefundTime is the configured hour on the following calendar day, UTC.
func (p *RefundProcessor) nextRefundTime() time.Time {
	now := p.now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), p.refundHour, 0, 0, 0, time.UTC)
	return next.AddDate(0, 0, 1)
}
