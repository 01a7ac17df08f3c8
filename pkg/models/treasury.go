package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BotTreasury is the singleton coin pool funding synthetic engagement.
// TodaySpent never exceeds DailySpendLimit within one day; it resets to
// zero at the daily boundary. Version serializes concurrent writers the
// same way the wallet version column does.
type BotTreasury struct {
	ID              string    `gorm:"type:uuid;primary_key" json:"id"`
	Balance         int64     `gorm:"not null;default:0" json:"balance"`
	DailySpendLimit int64     `gorm:"not null;default:0" json:"daily_spend_limit"`
	TodaySpent      int64     `gorm:"not null;default:0" json:"today_spent"`
	LastResetAt     time.Time `gorm:"not null" json:"last_reset_at"`
	TotalSpent      int64     `gorm:"not null;default:0" json:"total_spent"`
	TotalRefunded   int64     `gorm:"not null;default:0" json:"total_refunded"`
	Version         int64     `gorm:"not null;default:0" json:"version"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type BotRefundStatus string

const (
	BotRefundStatusPending   BotRefundStatus = "pending"
	BotRefundStatusCompleted BotRefundStatus = "completed"
	BotRefundStatusFailed    BotRefundStatus = "failed"
)

// BotRefund schedules the clawback of bot-funded coins that pushed a real
// user's balance over the cap. Processed after ScheduledFor; a failed refund
// is surfaced for admin review, never retried into a negative wallet.
type BotRefund struct {
	ID             string          `gorm:"type:uuid;primary_key" json:"id"`
	PurchaseID     string          `gorm:"type:uuid;not null;index" json:"purchase_id"`
	SellerID       string          `gorm:"type:uuid;not null;index" json:"seller_id"`
	OriginalAmount int64           `gorm:"not null" json:"original_amount"`
	RefundAmount   int64           `gorm:"not null" json:"refund_amount"`
	Status         BotRefundStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_bot_refunds_due" json:"status"`
	ScheduledFor   time.Time       `gorm:"not null;index:idx_bot_refunds_due" json:"scheduled_for"`
	ProcessedAt    *time.Time      `json:"processed_at,omitempty"`
	FailureReason  string          `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (t *BotTreasury) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

func (r *BotRefund) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
