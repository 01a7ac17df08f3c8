package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CoinTransactionType string

const (
	CoinTransactionSpend CoinTransactionType = "spend"
	CoinTransactionEarn  CoinTransactionType = "earn"
)

// Trigger/channel taxonomy for the legacy coin transaction log.
const (
	TriggerThreadCreated    = "forum.thread.created"
	TriggerReplyCreated     = "forum.reply.created"
	TriggerLikeReceived     = "forum.like.received"
	TriggerContentPurchase  = "marketplace.content.purchased"
	TriggerContentSale      = "marketplace.content.sold"
	TriggerPlatformFee      = "marketplace.platform.fee"
	TriggerWithdrawal       = "wallet.withdrawal"
	TriggerBotFunding       = "bot.funding"
	TriggerBotRefund        = "bot.refund"
	TriggerAdminAdjustment  = "admin.adjustment"
	TriggerCompensation     = "ledger.compensation"

	ChannelForum       = "forum"
	ChannelMarketplace = "marketplace"
	ChannelWallet      = "wallet"
	ChannelBot         = "bot"
	ChannelAdmin       = "admin"
)

// CoinTransaction is the denormalized, human-readable transaction log kept for
// display and analytics. Rows are derived from journal entries inside the same
// orchestration transaction; the two views must never diverge. Amount carries
// the sign: spend rows are negative, earn rows positive (CHECK-enforced).
type CoinTransaction struct {
	ID                  string              `gorm:"type:uuid;primary_key" json:"id"`
	UserID              string              `gorm:"type:uuid;not null;index" json:"user_id"`
	Type                CoinTransactionType `gorm:"type:varchar(10);not null" json:"type"`
	Amount              int64               `gorm:"not null" json:"amount"`
	BalanceBefore       int64               `gorm:"not null" json:"balance_before"`
	BalanceAfter        int64               `gorm:"not null" json:"balance_after"`
	Trigger             string              `gorm:"type:varchar(64);not null;index" json:"trigger"`
	Channel             string              `gorm:"type:varchar(32);not null" json:"channel"`
	Description         string              `gorm:"type:varchar(255)" json:"description,omitempty"`
	ContentID           string              `gorm:"type:uuid" json:"content_id,omitempty"`
	LedgerTransactionID string              `gorm:"type:uuid" json:"ledger_transaction_id,omitempty"`
	IdempotencyKey      string              `gorm:"type:varchar(160)" json:"idempotency_key,omitempty"`
	ReversalOf          string              `gorm:"type:uuid" json:"reversal_of,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
}

func (t *CoinTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
