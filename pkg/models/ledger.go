package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LedgerTransactionType string

const (
	LedgerTypePurchase   LedgerTransactionType = "purchase"
	LedgerTypeReward     LedgerTransactionType = "reward"
	LedgerTypeWithdrawal LedgerTransactionType = "withdrawal"
	LedgerTypeRefund     LedgerTransactionType = "refund"
	LedgerTypeAdjustment LedgerTransactionType = "adjustment"
)

type LedgerTransactionStatus string

const (
	LedgerStatusPending LedgerTransactionStatus = "pending"
	LedgerStatusClosed  LedgerTransactionStatus = "closed"
	LedgerStatusFailed  LedgerTransactionStatus = "failed"
)

type EntryDirection string

const (
	DirectionDebit  EntryDirection = "debit"
	DirectionCredit EntryDirection = "credit"
)

// LedgerTransaction groups the journal entries of one economic event.
// Never mutated after close except for status.
type LedgerTransaction struct {
	ID              string                  `gorm:"type:uuid;primary_key" json:"id"`
	Type            LedgerTransactionType   `gorm:"type:varchar(20);not null" json:"type"`
	Context         []byte                  `gorm:"type:jsonb" json:"context,omitempty"`
	ExternalRef     string                  `gorm:"type:varchar(128);index" json:"external_ref,omitempty"`
	InitiatorUserID string                  `gorm:"type:uuid" json:"initiator_user_id,omitempty"`
	Status          LedgerTransactionStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt       time.Time               `json:"created_at"`
	ClosedAt        *time.Time              `json:"closed_at,omitempty"`
}

// JournalEntry is a single immutable debit or credit against one wallet.
// Amount is strictly positive; sign is carried by Direction. BalanceBefore
// and BalanceAfter are recorded exactly as returned by the wallet mutation.
type JournalEntry struct {
	ID                  string         `gorm:"type:uuid;primary_key" json:"id"`
	LedgerTransactionID string         `gorm:"type:uuid;not null;index" json:"ledger_transaction_id"`
	WalletID            string         `gorm:"type:uuid;not null;index" json:"wallet_id"`
	Direction           EntryDirection `gorm:"type:varchar(6);not null" json:"direction"`
	Amount              int64          `gorm:"not null" json:"amount"`
	BalanceBefore       int64          `gorm:"not null" json:"balance_before"`
	BalanceAfter        int64          `gorm:"not null" json:"balance_after"`
	Memo                string         `gorm:"type:varchar(255)" json:"memo,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
}

func (t *LedgerTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

func (e *JournalEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// SignedAmount folds direction into the amount: credits positive, debits negative.
func (e *JournalEntry) SignedAmount() int64 {
	if e.Direction == DirectionDebit {
		return -e.Amount
	}
	return e.Amount
}
