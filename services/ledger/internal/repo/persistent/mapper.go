package persistent

import (
	"yoforex/pkg/models"
	"yoforex/services/ledger/internal/entity"
)

func ToWalletEntity(m *models.Wallet) *entity.Wallet {
	if m == nil {
		return nil
	}

	return &entity.Wallet{
		ID:               m.ID,
		UserID:           m.UserID,
		Balance:          m.Balance,
		AvailableBalance: m.AvailableBalance,
		Status:           string(m.Status),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func ToTransactionEntity(m *models.CoinTransaction) *entity.Transaction {
	if m == nil {
		return nil
	}

	return &entity.Transaction{
		ID:            m.ID,
		Type:          string(m.Type),
		Amount:        m.Amount,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		Trigger:       m.Trigger,
		Channel:       m.Channel,
		Description:   m.Description,
		ContentID:     m.ContentID,
		CreatedAt:     m.CreatedAt,
	}
}

func ToPurchaseEntity(m *models.Purchase) *entity.Purchase {
	if m == nil {
		return nil
	}

	return &entity.Purchase{
		ID:           m.ID,
		BuyerID:      m.BuyerID,
		SellerID:     m.SellerID,
		ContentID:    m.ContentID,
		PriceCoins:   m.PriceCoins,
		SellerCredit: m.SellerCredit,
		PlatformFee:  m.PlatformFee,
		BotFunded:    m.BotFunded,
		CreatedAt:    m.CreatedAt,
	}
}

func ToWithdrawalEntity(m *models.WithdrawalRequest) *entity.Withdrawal {
	if m == nil {
		return nil
	}

	return &entity.Withdrawal{
		ID:               m.ID,
		UserID:           m.UserID,
		AmountCoins:      m.AmountCoins,
		Status:           string(m.Status),
		FirstApprovedBy:  m.FirstApprovedBy,
		SecondApprovedBy: m.SecondApprovedBy,
		RejectedBy:       m.RejectedBy,
		RejectReason:     m.RejectReason,
		PayoutRef:        m.PayoutRef,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func ToAdjustmentEntity(m *models.TreasuryAdjustment) *entity.Adjustment {
	if m == nil {
		return nil
	}

	return &entity.Adjustment{
		ID:               m.ID,
		WalletID:         m.WalletID,
		Direction:        string(m.Direction),
		Amount:           m.Amount,
		Reason:           m.Reason,
		Status:           string(m.Status),
		RequestedBy:      m.RequestedBy,
		FirstApprovedBy:  m.FirstApprovedBy,
		SecondApprovedBy: m.SecondApprovedBy,
		CreatedAt:        m.CreatedAt,
	}
}

func ToLedgerTransactionEntity(m *models.LedgerTransaction, entries []*models.JournalEntry) *entity.LedgerTransaction {
	if m == nil {
		return nil
	}

	e := &entity.LedgerTransaction{
		ID:              m.ID,
		Type:            string(m.Type),
		Status:          string(m.Status),
		Context:         m.Context,
		ExternalRef:     m.ExternalRef,
		InitiatorUserID: m.InitiatorUserID,
		CreatedAt:       m.CreatedAt,
		ClosedAt:        m.ClosedAt,
	}
	for _, entry := range entries {
		e.Entries = append(e.Entries, ToJournalEntryEntity(entry))
	}
	return e
}

func ToJournalEntryEntity(m *models.JournalEntry) *entity.JournalEntry {
	if m == nil {
		return nil
	}

	return &entity.JournalEntry{
		ID:            m.ID,
		WalletID:      m.WalletID,
		Direction:     string(m.Direction),
		Amount:        m.Amount,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		Memo:          m.Memo,
		CreatedAt:     m.CreatedAt,
	}
}

func ToReconciliationRunEntity(m *models.ReconciliationRun) *entity.ReconciliationRun {
	if m == nil {
		return nil
	}

	return &entity.ReconciliationRun{
		ID:             m.ID,
		Status:         string(m.Status),
		WalletsChecked: m.WalletsChecked,
		DriftCount:     m.DriftCount,
		MaxDelta:       m.MaxDelta,
		Report:         m.Report,
		StartedAt:      m.StartedAt,
		CompletedAt:    m.CompletedAt,
	}
}
