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
	ErrWithdrawalNotPending  = errors.New("withdrawal is not pending")
	ErrWithdrawalNotApproved = errors.New("withdrawal is not approved")
	ErrSameApprover          = errors.New("second approval must come from a different admin")
	ErrSelfApproval          = errors.New("cannot approve own withdrawal")
)

type WithdrawalUseCase interface {
	Request(ctx context.Context, userID string, amount int64, payoutRef string) (*entity.Withdrawal, error)
	ListOwn(userID string, limit, offset int) ([]*entity.Withdrawal, error)
	ListPending(limit, offset int) ([]*entity.Withdrawal, error)
	Approve(ctx context.Context, adminID, withdrawalID string) (*entity.Withdrawal, error)
	Reject(ctx context.Context, adminID, withdrawalID, reason string) (*entity.Withdrawal, error)
	MarkPaid(ctx context.Context, adminID, withdrawalID, payoutRef string) (*entity.Withdrawal, error)
}

type withdrawalUseCase struct {
	repo    persistent.WithdrawalRepository
	orch    *ledger.Orchestrator
	wallets ledger.WalletStore
	logger  *logger.Logger
}

func NewWithdrawalUseCase(repo persistent.WithdrawalRepository, orch *ledger.Orchestrator, wallets ledger.WalletStore, logger *logger.Logger) WithdrawalUseCase {
	return &withdrawalUseCase{
		repo:    repo,
		orch:    orch,
		wallets: wallets,
		logger:  logger,
	}
}

func (uc *withdrawalUseCase) Request(ctx context.Context, userID string, amount int64, payoutRef string) (*entity.Withdrawal, error) {
	if amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	wallet, err := uc.wallets.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Early rejection only; the debit on second approval re-checks.
	if wallet.AvailableBalance < amount {
		return nil, ledger.ErrInsufficientFunds
	}

	w := &models.WithdrawalRequest{
		UserID:      userID,
		AmountCoins: amount,
		Status:      models.WithdrawalStatusPending,
		PayoutRef:   payoutRef,
	}
	if err := uc.repo.Create(w); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}
	return persistent.ToWithdrawalEntity(w), nil
}

func (uc *withdrawalUseCase) ListOwn(userID string, limit, offset int) ([]*entity.Withdrawal, error) {
	withdrawals, err := uc.repo.ListByUser(userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return mapWithdrawals(withdrawals), nil
}

func (uc *withdrawalUseCase) ListPending(limit, offset int) ([]*entity.Withdrawal, error) {
	withdrawals, err := uc.repo.ListByStatus(models.WithdrawalStatusPending, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending withdrawals: %w", err)
	}
	return mapWithdrawals(withdrawals), nil
}

// Approve applies one approval. The coin debit is posted only when the second
// distinct admin approves; a single approval holds no financial effect.
func (uc *withdrawalUseCase) Approve(ctx context.Context, adminID, withdrawalID string) (*entity.Withdrawal, error) {
	w, err := uc.repo.GetByID(withdrawalID)
	if err != nil {
		return nil, err
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil, ErrWithdrawalNotPending
	}
	if w.UserID == adminID {
		return nil, ErrSelfApproval
	}

	if w.FirstApprovedBy == "" {
		w.FirstApprovedBy = adminID
		if err := uc.repo.Update(w); err != nil {
			return nil, fmt.Errorf("failed to record first approval: %w", err)
		}
		return persistent.ToWithdrawalEntity(w), nil
	}

	if w.FirstApprovedBy == adminID {
		return nil, ErrSameApprover
	}

	tx, err := uc.debit(ctx, w, adminID)
	if err != nil {
		return nil, err
	}

	w.SecondApprovedBy = adminID
	w.Status = models.WithdrawalStatusApproved
	w.LedgerTransactionID = tx.ID
	if err := uc.repo.Update(w); err != nil {
		uc.logger.Error("Withdrawal %s debited (tx %s) but status update failed: %v", w.ID, tx.ID, err)
		return nil, fmt.Errorf("failed to record approval: %w", err)
	}

	uc.logger.WithFields(map[string]interface{}{
		"withdrawal_id":  w.ID,
		"user_id":        w.UserID,
		"amount_coins":   w.AmountCoins,
		"transaction_id": tx.ID,
	}).Info("withdrawal approved and debited")
	return persistent.ToWithdrawalEntity(w), nil
}

func (uc *withdrawalUseCase) debit(ctx context.Context, w *models.WithdrawalRequest, adminID string) (*models.LedgerTransaction, error) {
	txContext := &ledger.Context{Withdrawal: &ledger.WithdrawalContext{
		WithdrawalID: w.ID,
		ApprovedBy:   adminID,
	}}
	tx, existing, err := uc.orch.Begin(ctx, models.LedgerTypeWithdrawal, txContext, w.UserID, "withdrawal:"+w.ID)
	if err != nil {
		return nil, err
	}
	if existing {
		return tx, nil
	}
	if _, err := uc.orch.PostEntry(ctx, tx, w.UserID, models.DirectionDebit, w.AmountCoins,
		fmt.Sprintf("withdrawal %s", w.ID), ledger.Mirror{
			Trigger:        models.TriggerWithdrawal,
			Channel:        models.ChannelWallet,
			Description:    "Coin withdrawal",
			IdempotencyKey: "withdrawal:" + w.ID,
		}); err != nil {
		_ = uc.orch.Fail(ctx, tx, err)
		return nil, err
	}
	if err := uc.orch.Close(ctx, tx); err != nil {
		_ = uc.orch.Fail(ctx, tx, err)
		return nil, err
	}
	return tx, nil
}

func (uc *withdrawalUseCase) Reject(ctx context.Context, adminID, withdrawalID, reason string) (*entity.Withdrawal, error) {
	w, err := uc.repo.GetByID(withdrawalID)
	if err != nil {
		return nil, err
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil, ErrWithdrawalNotPending
	}

	w.Status = models.WithdrawalStatusRejected
	w.RejectedBy = adminID
	w.RejectReason = reason
	if err := uc.repo.Update(w); err != nil {
		return nil, fmt.Errorf("failed to reject withdrawal: %w", err)
	}
	return persistent.ToWithdrawalEntity(w), nil
}

func (uc *withdrawalUseCase) MarkPaid(ctx context.Context, adminID, withdrawalID, payoutRef string) (*entity.Withdrawal, error) {
	w, err := uc.repo.GetByID(withdrawalID)
	if err != nil {
		return nil, err
	}
	if w.Status != models.WithdrawalStatusApproved {
		return nil, ErrWithdrawalNotApproved
	}

	w.Status = models.WithdrawalStatusPaid
	if payoutRef != "" {
		w.PayoutRef = payoutRef
	}
	if err := uc.repo.Update(w); err != nil {
		return nil, fmt.Errorf("failed to mark withdrawal paid: %w", err)
	}

	uc.logger.WithFields(map[string]interface{}{
		"withdrawal_id": w.ID,
		"payout_ref":    w.PayoutRef,
		"marked_by":     adminID,
	}).Info("withdrawal marked paid")
	return persistent.ToWithdrawalEntity(w), nil
}

func mapWithdrawals(in []*models.WithdrawalRequest) []*entity.Withdrawal {
	out := make([]*entity.Withdrawal, 0, len(in))
	for _, w := range in {
		out = append(out, persistent.ToWithdrawalEntity(w))
	}
	return out
}
