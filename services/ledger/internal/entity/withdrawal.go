package entity

import "time"

type Withdrawal struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	AmountCoins      int64     `json:"amount_coins"`
	Status           string    `json:"status"`
	FirstApprovedBy  string    `json:"first_approved_by,omitempty"`
	SecondApprovedBy string    `json:"second_approved_by,omitempty"`
	RejectedBy       string    `json:"rejected_by,omitempty"`
	RejectReason     string    `json:"reject_reason,omitempty"`
	PayoutRef        string    `json:"payout_ref,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Adjustment struct {
	ID               string    `json:"id"`
	WalletID         string    `json:"wallet_id"`
	Direction        string    `json:"direction"`
	Amount           int64     `json:"amount"`
	Reason           string    `json:"reason"`
	Status           string    `json:"status"`
	RequestedBy      string    `json:"requested_by"`
	FirstApprovedBy  string    `json:"first_approved_by,omitempty"`
	SecondApprovedBy string    `json:"second_approved_by,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
