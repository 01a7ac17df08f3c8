package entity

import (
	"encoding/json"
	"time"
)

// Admin-facing financial views. Read-only projections of the ledger.

type LedgerTransaction struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	Context         json.RawMessage `json:"context,omitempty"`
	ExternalRef     string          `json:"external_ref,omitempty"`
	InitiatorUserID string          `json:"initiator_user_id,omitempty"`
	Entries         []*JournalEntry `json:"entries,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	ClosedAt        *time.Time      `json:"closed_at,omitempty"`
}

type JournalEntry struct {
	ID            string    `json:"id"`
	WalletID      string    `json:"wallet_id"`
	Direction     string    `json:"direction"`
	Amount        int64     `json:"amount"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	Memo          string    `json:"memo,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type ReconciliationRun struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	WalletsChecked int64           `json:"wallets_checked"`
	DriftCount     int64           `json:"drift_count"`
	MaxDelta       int64           `json:"max_delta"`
	Report         json.RawMessage `json:"report,omitempty"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}
