package usecase

import (
	"context"
	"testing"

	"yoforex/pkg/ledger"
	"yoforex/pkg/logger"
	"yoforex/pkg/models"

	"github.com/stretchr/testify/assert"
)

type withdrawalHarness struct {
	uc      WithdrawalUseCase
	repo    *memWithdrawalRepo
	wallets *memWalletStore
	store   *memLedgerStore
}

func newWithdrawalHarness() *withdrawalHarness {
	log := logger.New()
	wallets := newMemWalletStore()
	store := newMemLedgerStore()
	repo := newMemWithdrawalRepo()
	orch := ledger.NewOrchestrator(store, wallets, log)
	return &withdrawalHarness{
		uc:      NewWithdrawalUseCase(repo, orch, wallets, log),
		repo:    repo,
		wallets: wallets,
		store:   store,
	}
}

func TestWithdrawalRequest_CreatesPendingRow(t *testing.T) {
	h := newWithdrawalHarness()
	h.wallets.seed("user-1", 1000)

	w, err := h.uc.Request(context.Background(), "user-1", 400, "paypal:alice")
	assert.NoError(t, err)
	assert.Equal(t, "pending", w.Status)
	assert.Equal(t, int64(400), w.AmountCoins)

	// No ledger activity until the second approval.
	assert.Empty(t, h.store.entries)
	wallet, _ := h.wallets.GetByUserID(context.Background(), "user-1")
	assert.Equal(t, int64(1000), wallet.Balance)
}

func TestWithdrawalRequest_InsufficientFunds(t *testing.T) {
	h := newWithdrawalHarness()
	h.wallets.seed("user-1", 100)

	_, err := h.uc.Request(context.Background(), "user-1", 400, "")
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.Empty(t, h.repo.withdrawals)
}

func TestWithdrawalApprove_FirstApprovalHasNoFinancialEffect(t *testing.T) {
	h := newWithdrawalHarness()
	h.wallets.seed("user-1", 1000)

	w, err := h.uc.Request(context.Background(), "user-1", 400, "")
	assert.NoError(t, err)

	approved, err := h.uc.Approve(context.Background(), "admin-1", w.ID)
	assert.NoError(t, err)
	assert.Equal(t, "admin-1", approved.FirstApprovedBy)
	assert.Equal(t, "pending", approved.Status)

	assert.Empty(t, h.store.entries)
	wallet, _ := h.wallets.GetByUserID(context.Background(), "user-1")
	assert.Equal(t, int64(1000), wallet.Balance)
}

func TestWithdrawalApprove_SecondApprovalDebits(t *testing.T) {
	h := newWithdrawalHarness()
	h.wallets.seed("user-1", 1000)

	w, _ := h.uc.Request(context.Background(), "user-1", 400, "")
	_, err := h.uc.Approve(context.Background(), "admin-1", w.ID)
	assert.NoError(t, err)

	approved, err := h.uc.Approve(context.Background(), "admin-2", w.ID)
	assert.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)
	assert.Equal(t, "admin-2", approved.SecondApprovedBy)

	wallet, _ := h.wallets.GetByUserID(context.Background(), "user-1")
	assert.Equal(t, int64(600), wallet.Balance)

	assert.Len(t, h.store.entries, 1)
	entry := h.store.entries[0]
	assert.Equal(t, models.DirectionDebit, entry.Direction)
	assert.Equal(t, int64(400), entry.Amount)
	assert.Equal(t, int64(1000), entry.BalanceBefore)
	assert.Equal(t, int64(600), entry.BalanceAfter)

	assert.Len(t, h.store.mirrors, 1)
	mirror := h.store.mirrors[0]
	assert.Equal(t, models.TriggerWithdrawal, mirror.Trigger)
	assert.Equal(t, int64(-400), mirror.Amount)

	// The ledger transaction is linked back to the request.
	stored, _ := h.repo.GetByID(w.ID)
	assert.Equal(t, entry.LedgerTransactionID, stored.LedgerTransactionID)
}

func TestWithdrawalApprove_SameAdminTwiceRejected(t *testing.T) {
	h := newWithdrawalHarness()
	h.wallets.seed("user-1", 1000)

	w, _ := h.uc.Request(context.Background(), "user-1", 400, "")
	_, err := h.uc.Approve(context.Background(), "admin-1", w.ID)
	assert.NoError(t, err)

	_, err = h.uc.Approve(context.Background(), "admin-1", w.ID)
	assert.ErrorIs(t, err, ErrSameApprover)

	assert.Empty(t, h.store.entries)
}

func TestWithdrawalApprove_SelfApprovalRejected(t *testing.T) {
	h := newWithdrawalHarness()
	h.wallets.seed("admin-1", 1000)

	w, _ := h.uc.Request(context.Background(), "admin-1", 400, "")
	_, err := h.uc.Approve(context.Background(), "admin-1", w.ID)
	assert.ErrorIs(t, err, ErrSelfApproval)
}

func TestWithdrawalApprove_InsufficientAtDebitTime(t *testing.T) {
	h := newWithdrawalHarness()
	wallet := h.wallets.seed("user-1", 1000)

	w, _ := h.uc.Request(context.Background(), "user-1", 400, "")
	_, err := h.uc.Approve(context.Background(), "admin-1", w.ID)
	assert.NoError(t, err)

	// Balance drained between request and second approval.
	_, err = h.wallets.AdjustBalance(context.Background(), wallet.ID, -900, 0)
	assert.NoError(t, err)

	_, err = h.uc.Approve(context.Background(), "admin-2", w.ID)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// Request stays pending with no debit recorded.
	stored, _ := h.repo.GetByID(w.ID)
	assert.Equal(t, models.WithdrawalStatusPending, stored.Status)
	current, _ := h.wallets.GetByUserID(context.Background(), "user-1")
	assert.Equal(t, int64(100), current.Balance)
}

func TestWithdrawalApprove_NotPending(t *testing.T) {
	h := newWithdrawalHarness()
	h.wallets.seed("user-1", 1000)

	w, _ := h.uc.Request(context.Background(), "user-1", 400, "")
	_, err := h.uc.Reject(context.Background(), "admin-1", w.ID, "fraud check")
	assert.NoError(t, err)

	_, err = h.uc.Approve(context.Background(), "admin-2", w.ID)
	assert.ErrorIs(t, err, ErrWithdrawalNotPending)
}

func TestWithdrawalMarkPaid_RequiresApproved(t *testing.T) {
	h := newWithdrawalHarness()
	h.wallets.seed("user-1", 1000)

	w, _ := h.uc.Request(context.Background(), "user-1", 400, "")

	_, err := h.uc.MarkPaid(context.Background(), "admin-1", w.ID, "wise:tx-1")
	assert.ErrorIs(t, err, ErrWithdrawalNotApproved)

	_, _ = h.uc.Approve(context.Background(), "admin-1", w.ID)
	_, _ = h.uc.Approve(context.Background(), "admin-2", w.ID)

	paid, err := h.uc.MarkPaid(context.Background(), "admin-1", w.ID, "wise:tx-1")
	assert.NoError(t, err)
	assert.Equal(t, "paid", paid.Status)
	assert.Equal(t, "wise:tx-1", paid.PayoutRef)
}
