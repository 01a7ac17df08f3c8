package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
	WithdrawalStatusPaid     WithdrawalStatus = "paid"
)

// WithdrawalRequest is the two-person approval workflow for paying out coins.
// The wallet debit is posted when the second approval lands; the payout itself
// is recorded off-ledger via PayoutRef.
type WithdrawalRequest struct {
	ID                  string           `gorm:"type:uuid;primary_key" json:"id"`
	UserID              string           `gorm:"type:uuid;not null;index" json:"user_id"`
	AmountCoins         int64            `gorm:"not null" json:"amount_coins"`
	Status              WithdrawalStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	FirstApprovedBy     string           `gorm:"type:uuid" json:"first_approved_by,omitempty"`
	SecondApprovedBy    string           `gorm:"type:uuid" json:"second_approved_by,omitempty"`
	RejectedBy          string           `gorm:"type:uuid" json:"rejected_by,omitempty"`
	RejectReason        string           `gorm:"type:varchar(255)" json:"reject_reason,omitempty"`
	PayoutRef           string           `gorm:"type:varchar(128)" json:"payout_ref,omitempty"`
	LedgerTransactionID string           `gorm:"type:uuid" json:"ledger_transaction_id,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

type AdjustmentStatus string

const (
	AdjustmentStatusPending  AdjustmentStatus = "pending"
	AdjustmentStatusApplied  AdjustmentStatus = "applied"
	AdjustmentStatusRejected AdjustmentStatus = "rejected"
)

// TreasuryAdjustment is the dual-approval remediation path for reconciliation
// drift. Drift is never auto-corrected; an admin requests an adjustment and a
// second admin approves it before the compensating entry is posted.
type TreasuryAdjustment struct {
	ID                  string           `gorm:"type:uuid;primary_key" json:"id"`
	WalletID            string           `gorm:"type:uuid;not null;index" json:"wallet_id"`
	Direction           EntryDirection   `gorm:"type:varchar(6);not null" json:"direction"`
	Amount              int64            `gorm:"not null" json:"amount"`
	Reason              string           `gorm:"type:varchar(255);not null" json:"reason"`
	Status              AdjustmentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	RequestedBy         string           `gorm:"type:uuid;not null" json:"requested_by"`
	FirstApprovedBy     string           `gorm:"type:uuid" json:"first_approved_by,omitempty"`
	SecondApprovedBy    string           `gorm:"type:uuid" json:"second_approved_by,omitempty"`
	LedgerTransactionID string           `gorm:"type:uuid" json:"ledger_transaction_id,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

func (w *WithdrawalRequest) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	return nil
}

func (a *TreasuryAdjustment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
