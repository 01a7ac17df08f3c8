package usecase

import (
	"context"
	"errors"
	"fmt"

	"yoforex/pkg/ledger"
	"yoforex/pkg/logger"
	"yoforex/pkg/models"
	"yoforex/services/ledger/internal/entity"
	"yoforex/services/ledger/internal/repo/persistent"
)

var (
	ErrAdjustmentNotPending = errors.New("adjustment is not pending")
	ErrOwnAdjustment        = errors.New("cannot approve own adjustment request")
)

// FinanceUseCase is the admin read surface plus the dual-approval adjustment
// flow that remediates reconciliation drift.
type FinanceUseCase interface {
	ListTransactions(txType string, limit, offset int) ([]*entity.LedgerTransaction, error)
	GetTransaction(id string) (*entity.LedgerTransaction, error)
	ListReconciliationRuns(limit, offset int) ([]*entity.ReconciliationRun, error)

	RequestAdjustment(ctx context.Context, adminID, walletID, direction string, amount int64, reason string) (*entity.Adjustment, error)
	ApproveAdjustment(ctx context.Context, adminID, adjustmentID string) (*entity.Adjustment, error)
	ListAdjustments(limit, offset int) ([]*entity.Adjustment, error)
}

type financeUseCase struct {
	finance     persistent.FinanceRepository
	withdrawals persistent.WithdrawalRepository
	orch        *ledger.Orchestrator
	wallets     ledger.WalletStore
	logger      *logger.Logger
}

func NewFinanceUseCase(finance persistent.FinanceRepository, withdrawals persistent.WithdrawalRepository, orch *ledger.Orchestrator, wallets ledger.WalletStore, logger *logger.Logger) FinanceUseCase {
	return &financeUseCase{
		finance:     finance,
		withdrawals: withdrawals,
		orch:        orch,
		wallets:     wallets,
		logger:      logger,
	}
}

func (uc *financeUseCase) ListTransactions(txType string, limit, offset int) ([]*entity.LedgerTransaction, error) {
	transactions, err := uc.finance.ListTransactions(txType, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger transactions: %w", err)
	}
	return transactions, nil
}

func (uc *financeUseCase) GetTransaction(id string) (*entity.LedgerTransaction, error) {
	tx, err := uc.finance.GetTransaction(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger transaction: %w", err)
	}
	return tx, nil
}

func (uc *financeUseCase) ListReconciliationRuns(limit, offset int) ([]*entity.ReconciliationRun, error) {
	runs, err := uc.finance.ListReconciliationRuns(limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliation runs: %w", err)
	}
	return runs, nil
}

func (uc *financeUseCase) RequestAdjustment(ctx context.Context, adminID, walletID, direction string, amount int64, reason string) (*entity.Adjustment, error) {
	if amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	dir := models.EntryDirection(direction)
	if dir != models.DirectionDebit && dir != models.DirectionCredit {
		return nil, fmt.Errorf("invalid direction %q", direction)
	}
	if _, err := uc.wallets.Get(ctx, walletID); err != nil {
		return nil, fmt.Errorf("wallet not found: %w", err)
	}

	a := &models.TreasuryAdjustment{
		WalletID:    walletID,
		Direction:   dir,
		Amount:      amount,
		Reason:      reason,
		Status:      models.AdjustmentStatusPending,
		RequestedBy: adminID,
	}
	if err := uc.withdrawals.CreateAdjustment(a); err != nil {
		return nil, fmt.Errorf("failed to create adjustment: %w", err)
	}
	return persistent.ToAdjustmentEntity(a), nil
}

// ApproveAdjustment needs two admins distinct from the requester. The entry
// is posted on the second approval, through the same orchestrator every other
// balance mutation takes.
func (uc *financeUseCase) ApproveAdjustment(ctx context.Context, adminID, adjustmentID string) (*entity.Adjustment, error) {
	a, err := uc.withdrawals.GetAdjustment(adjustmentID)
	if err != nil {
		return nil, err
	}
	if a.Status != models.AdjustmentStatusPending {
		return nil, ErrAdjustmentNotPending
	}
	if a.RequestedBy == adminID {
		return nil, ErrOwnAdjustment
	}

	if a.FirstApprovedBy == "" {
		a.FirstApprovedBy = adminID
		if err := uc.withdrawals.UpdateAdjustment(a); err != nil {
			return nil, fmt.Errorf("failed to record first approval: %w", err)
		}
		return persistent.ToAdjustmentEntity(a), nil
	}
	if a.FirstApprovedBy == adminID {
		return nil, ErrSameApprover
	}

	wallet, err := uc.wallets.Get(ctx, a.WalletID)
	if err != nil {
		return nil, fmt.Errorf("wallet not found: %w", err)
	}

	txContext := &ledger.Context{Adjustment: &ledger.AdjustmentContext{
		AdjustmentID: a.ID,
		Reason:       a.Reason,
	}}
	tx, existing, err := uc.orch.Begin(ctx, models.LedgerTypeAdjustment, txContext, adminID, "adjustment:"+a.ID)
	if err != nil {
		return nil, err
	}
	if !existing {
		if _, err := uc.orch.PostEntry(ctx, tx, wallet.UserID, a.Direction, a.Amount,
			fmt.Sprintf("admin adjustment %s", a.ID), ledger.Mirror{
				Trigger:        models.TriggerAdminAdjustment,
				Channel:        models.ChannelAdmin,
				Description:    a.Reason,
				IdempotencyKey: "adjustment:" + a.ID,
			}); err != nil {
			_ = uc.orch.Fail(ctx, tx, err)
			return nil, err
		}
		if err := uc.orch.Close(ctx, tx); err != nil {
			_ = uc.orch.Fail(ctx, tx, err)
			return nil, err
		}
	}

	a.SecondApprovedBy = adminID
	a.Status = models.AdjustmentStatusApplied
	a.LedgerTransactionID = tx.ID
	if err := uc.withdrawals.UpdateAdjustment(a); err != nil {
		uc.logger.Error("Adjustment %s applied (tx %s) but status update failed: %v", a.ID, tx.ID, err)
		return nil, fmt.Errorf("failed to record approval: %w", err)
	}

	uc.logger.WithFields(map[string]interface{}{
		"adjustment_id":  a.ID,
		"wallet_id":      a.WalletID,
		"direction":      a.Direction,
		"amount":         a.Amount,
		"transaction_id": tx.ID,
	}).Info("treasury adjustment applied")
	return persistent.ToAdjustmentEntity(a), nil
}

func (uc *financeUseCase) ListAdjustments(limit, offset int) ([]*entity.Adjustment, error) {
	adjustments, err := uc.withdrawals.ListAdjustments(limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustments: %w", err)
	}
	out := make([]*entity.Adjustment, 0, len(adjustments))
	for _, a := range adjustments {
		out = append(out, persistent.ToAdjustmentEntity(a))
	}
	return out, nil
}
