package entity

import "time"

type Wallet struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Balance          int64     `json:"balance"`
	AvailableBalance int64     `json:"available_balance"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Transaction is the user-facing coin transaction view (the legacy mirror).
type Transaction struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	Trigger       string    `json:"trigger"`
	Channel       string    `json:"channel"`
	Description   string    `json:"description,omitempty"`
	ContentID     string    `json:"content_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
