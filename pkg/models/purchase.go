package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Purchase records a completed commission-split purchase. The unique
// (buyer_id, content_id) index is what rejects duplicate purchases before
// they can touch the ledger a second time.
type Purchase struct {
	ID                  string    `gorm:"type:uuid;primary_key" json:"id"`
	BuyerID             string    `gorm:"type:uuid;not null;uniqueIndex:idx_purchases_buyer_content" json:"buyer_id"`
	SellerID            string    `gorm:"type:uuid;not null;index" json:"seller_id"`
	ContentID           string    `gorm:"type:uuid;not null;uniqueIndex:idx_purchases_buyer_content" json:"content_id"`
	PriceCoins          int64     `gorm:"not null" json:"price_coins"`
	SellerCredit        int64     `gorm:"not null" json:"seller_credit"`
	PlatformFee         int64     `gorm:"not null" json:"platform_fee"`
	LedgerTransactionID string    `gorm:"type:uuid;not null" json:"ledger_transaction_id"`
	BotFunded           bool      `gorm:"not null;default:false" json:"bot_funded"`
	CreatedAt           time.Time `json:"created_at"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
