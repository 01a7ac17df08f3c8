package ledger

import "encoding/json"

// Context is the structured payload attached to a ledger transaction for audit
// and display. Each transaction type has a closed payload shape; the free-form
// AdditionalMetadata map is an escape hatch for non-critical display data only
// and is never used in financial arithmetic.
type Context struct {
	Purchase   *PurchaseContext   `json:"purchase,omitempty"`
	Reward     *RewardContext     `json:"reward,omitempty"`
	Withdrawal *WithdrawalContext `json:"withdrawal,omitempty"`
	Refund     *RefundContext     `json:"refund,omitempty"`
	Adjustment *AdjustmentContext `json:"adjustment,omitempty"`

	AdditionalMetadata map[string]string `json:"additional_metadata,omitempty"`
}

type PurchaseContext struct {
	BuyerID      string `json:"buyer_id"`
	SellerID     string `json:"seller_id"`
	ContentID    string `json:"content_id"`
	PriceCoins   int64  `json:"price_coins"`
	SellerCredit int64  `json:"seller_credit"`
	PlatformFee  int64  `json:"platform_fee"`
	RateBps      int    `json:"rate_bps"`
	BotFunded    bool   `json:"bot_funded,omitempty"`
}

type RewardContext struct {
	Trigger  string `json:"trigger"`
	Channel  string `json:"channel"`
	SourceID string `json:"source_id,omitempty"`
}

type WithdrawalContext struct {
	WithdrawalID string `json:"withdrawal_id"`
	ApprovedBy   string `json:"approved_by"`
}

type RefundContext struct {
	BotRefundID string `json:"bot_refund_id"`
	PurchaseID  string `json:"purchase_id"`
}

type AdjustmentContext struct {
	AdjustmentID string `json:"adjustment_id"`
	Reason       string `json:"reason"`
}

func (c *Context) Marshal() []byte {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	return data
}
