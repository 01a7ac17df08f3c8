package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WalletStatus string

const (
	WalletStatusActive WalletStatus = "active"
	WalletStatusFrozen WalletStatus = "frozen"
	WalletStatusClosed WalletStatus = "closed"
)

// Wallet is the per-user coin balance record. The balance column is mutated
// only through the ledger wallet store under optimistic concurrency: every
// write increments Version and is guarded by the previous value.
type Wallet struct {
	ID                    string       `gorm:"type:uuid;primary_key" json:"id"`
	UserID                string       `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Balance               int64        `gorm:"not null;default:0" json:"balance"`
	AvailableBalance      int64        `gorm:"not null;default:0" json:"available_balance"`
	Status                WalletStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Version               int64        `gorm:"not null;default:0" json:"version"`
	DailyTransactionLimit int64        `gorm:"not null;default:0" json:"daily_transaction_limit"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	return nil
}
