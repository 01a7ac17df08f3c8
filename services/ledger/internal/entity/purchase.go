package entity

import "time"

type Purchase struct {
	ID           string    `json:"id"`
	BuyerID      string    `json:"buyer_id"`
	SellerID     string    `json:"seller_id"`
	ContentID    string    `json:"content_id"`
	ContentTitle string    `json:"content_title,omitempty"`
	PriceCoins   int64     `json:"price_coins"`
	SellerCredit int64     `json:"seller_credit"`
	PlatformFee  int64     `json:"platform_fee"`
	BotFunded    bool      `json:"bot_funded"`
	CreatedAt    time.Time `json:"created_at"`
}

// DownloadGrant is a time-limited link to a purchased asset.
type DownloadGrant struct {
	PurchaseID string    `json:"purchase_id"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}
