package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yoforex/pkg/logger"
	"yoforex/pkg/models"
)

// Store persists ledger headers, journal entries and the legacy coin
// transaction mirror. AppendEntry must write the entry and its mirror row in
// the same database transaction: the two views share one commit.
type Store interface {
	CreateTransaction(ctx context.Context, tx *models.LedgerTransaction) error
	FindByExternalRef(ctx context.Context, externalRef string) (*models.LedgerTransaction, error)
	SetTransactionStatus(ctx context.Context, id string, status models.LedgerTransactionStatus, closedAt *time.Time) error
	AppendEntry(ctx context.Context, entry *models.JournalEntry, mirror *models.CoinTransaction) error
	EntriesByTransaction(ctx context.Context, transactionID string) ([]*models.JournalEntry, error)
}

// Mirror carries the taxonomy for the legacy coin transaction row written
// alongside each journal entry.
type Mirror struct {
	Trigger        string
	Channel        string
	Description    string
	ContentID      string
	IdempotencyKey string
	ReversalOf     string
}

const (
	defaultMaxRetries = 3
	defaultRetryBase  = 10 * time.Millisecond
)

// Orchestrator executes one logical economic event as an atomic group of
// journal entries plus a transaction header. There is no cross-entry commit
// primitive at the storage layer; compensation is the recovery mechanism.
type Orchestrator struct {
	store      Store
	wallets    WalletStore
	log        *logger.Logger
	maxRetries int
	retryBase  time.Duration
}

func NewOrchestrator(store Store, wallets WalletStore, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		store:      store,
		wallets:    wallets,
		log:        log,
		maxRetries: defaultMaxRetries,
		retryBase:  defaultRetryBase,
	}
}

// Replay returns the prior closed transaction for an external ref, or nil if
// no closed transaction holds it. Callers use it to detect idempotent retries
// before running any of their own pre-flight rejections.
func (o *Orchestrator) Replay(ctx context.Context, externalRef string) (*models.LedgerTransaction, error) {
	if externalRef == "" {
		return nil, nil
	}
	prior, err := o.store.FindByExternalRef(ctx, externalRef)
	if err != nil {
		return nil, fmt.Errorf("failed to check external ref: %w", err)
	}
	if prior != nil && prior.Status == models.LedgerStatusClosed {
		return prior, nil
	}
	return nil, nil
}

// Begin opens a pending ledger transaction. When externalRef matches an
// already-closed transaction the prior transaction is returned with
// existing=true, giving retried requests idempotent results instead of
// duplicate financial effects.
func (o *Orchestrator) Begin(ctx context.Context, txType models.LedgerTransactionType, txContext *Context, initiatorUserID, externalRef string) (*models.LedgerTransaction, bool, error) {
	if externalRef != "" {
		prior, err := o.store.FindByExternalRef(ctx, externalRef)
		if err != nil {
			return nil, false, fmt.Errorf("failed to check external ref: %w", err)
		}
		if prior != nil {
			if prior.Status == models.LedgerStatusClosed {
				return prior, true, nil
			}
			if prior.Status == models.LedgerStatusPending {
				return nil, false, ErrTransactionInProgress
			}
			// A failed transaction releases its ref; the retry proceeds fresh.
		}
	}

	tx := &models.LedgerTransaction{
		Type:            txType,
		Context:         txContext.Marshal(),
		ExternalRef:     externalRef,
		InitiatorUserID: initiatorUserID,
		Status:          models.LedgerStatusPending,
	}
	if err := o.store.CreateTransaction(ctx, tx); err != nil {
		return nil, false, fmt.Errorf("failed to create ledger transaction: %w", err)
	}
	return tx, false, nil
}

// PostEntry validates, applies the balance mutation and appends the immutable
// journal entry plus its mirror row. Balance before/after are taken from the
// wallet mutation result, never recomputed independently.
func (o *Orchestrator) PostEntry(ctx context.Context, tx *models.LedgerTransaction, userID string, direction models.EntryDirection, amount int64, memo string, mirror Mirror) (*models.JournalEntry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if tx.Status != models.LedgerStatusPending {
		return nil, ErrTransactionClosed
	}

	wallet, err := o.wallets.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	delta := amount
	if direction == models.DirectionDebit {
		delta = -amount
	}

	result, err := o.adjustWithRetry(ctx, wallet, delta)
	if err != nil {
		o.log.WithFields(map[string]interface{}{
			"transaction_id": tx.ID,
			"wallet_id":      wallet.ID,
			"user_id":        userID,
			"direction":      direction,
			"amount":         amount,
		}).WithError(err).Error("ledger entry rejected")
		return nil, err
	}

	entry := &models.JournalEntry{
		LedgerTransactionID: tx.ID,
		WalletID:            wallet.ID,
		Direction:           direction,
		Amount:              amount,
		BalanceBefore:       result.BalanceBefore,
		BalanceAfter:        result.BalanceAfter,
		Memo:                memo,
	}

	mirrorType := models.CoinTransactionEarn
	if direction == models.DirectionDebit {
		mirrorType = models.CoinTransactionSpend
	}
	mirrorRow := &models.CoinTransaction{
		UserID:              userID,
		Type:                mirrorType,
		Amount:              delta,
		BalanceBefore:       result.BalanceBefore,
		BalanceAfter:        result.BalanceAfter,
		Trigger:             mirror.Trigger,
		Channel:             mirror.Channel,
		Description:         mirror.Description,
		ContentID:           mirror.ContentID,
		LedgerTransactionID: tx.ID,
		IdempotencyKey:      mirror.IdempotencyKey,
		ReversalOf:          mirror.ReversalOf,
	}

	if err := o.store.AppendEntry(ctx, entry, mirrorRow); err != nil {
		// The balance moved but the entry failed to persist. Roll the wallet
		// back immediately so stored state matches the journal.
		if _, rbErr := o.adjustWithRetry(ctx, result.Wallet, -delta); rbErr != nil {
			o.log.WithFields(map[string]interface{}{
				"transaction_id": tx.ID,
				"wallet_id":      wallet.ID,
				"delta":          delta,
			}).WithError(rbErr).Error("failed to roll back balance after entry persist failure")
		}
		return nil, fmt.Errorf("failed to append journal entry: %w", err)
	}

	return entry, nil
}

// Close marks the transaction closed once all entries are posted. A
// transaction with zero entries is invalid and must be failed, not closed.
func (o *Orchestrator) Close(ctx context.Context, tx *models.LedgerTransaction) error {
	if tx.Status != models.LedgerStatusPending {
		return ErrTransactionClosed
	}
	entries, err := o.store.EntriesByTransaction(ctx, tx.ID)
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}
	if len(entries) == 0 {
		return ErrEmptyTransaction
	}

	now := time.Now()
	if err := o.store.SetTransactionStatus(ctx, tx.ID, models.LedgerStatusClosed, &now); err != nil {
		return fmt.Errorf("failed to close transaction: %w", err)
	}
	tx.Status = models.LedgerStatusClosed
	tx.ClosedAt = &now
	return nil
}

// Fail compensates every entry already posted under tx with an inverse entry,
// most recent first, then marks the header failed. Partial failure inside a
// multi-entry transaction is fatal to the transaction, not retryable in place.
func (o *Orchestrator) Fail(ctx context.Context, tx *models.LedgerTransaction, cause error) error {
	entries, err := o.store.EntriesByTransaction(ctx, tx.ID)
	if err != nil {
		return fmt.Errorf("failed to load entries for compensation: %w", err)
	}

	for i := len(entries) - 1; i >= 0; i-- {
		original := entries[i]
		inverse := models.DirectionCredit
		if original.Direction == models.DirectionCredit {
			inverse = models.DirectionDebit
		}

		wallet, werr := o.wallets.Get(ctx, original.WalletID)
		if werr != nil {
			o.log.Error("compensation: wallet %s unavailable for transaction %s: %v", original.WalletID, tx.ID, werr)
			continue
		}

		delta := original.Amount
		if inverse == models.DirectionDebit {
			delta = -original.Amount
		}

		result, aerr := o.adjustWithRetry(ctx, wallet, delta)
		if aerr != nil {
			o.log.WithFields(map[string]interface{}{
				"transaction_id": tx.ID,
				"wallet_id":      original.WalletID,
				"entry_id":       original.ID,
				"amount":         original.Amount,
			}).WithError(aerr).Error("compensation entry failed")
			continue
		}

		entry := &models.JournalEntry{
			LedgerTransactionID: tx.ID,
			WalletID:            original.WalletID,
			Direction:           inverse,
			Amount:              original.Amount,
			BalanceBefore:       result.BalanceBefore,
			BalanceAfter:        result.BalanceAfter,
			Memo:                fmt.Sprintf("compensation of entry %s", original.ID),
		}
		mirrorType := models.CoinTransactionEarn
		if inverse == models.DirectionDebit {
			mirrorType = models.CoinTransactionSpend
		}
		mirrorRow := &models.CoinTransaction{
			UserID:              result.Wallet.UserID,
			Type:                mirrorType,
			Amount:              delta,
			BalanceBefore:       result.BalanceBefore,
			BalanceAfter:        result.BalanceAfter,
			Trigger:             models.TriggerCompensation,
			Channel:             models.ChannelWallet,
			Description:         "automatic compensation",
			LedgerTransactionID: tx.ID,
			ReversalOf:          original.ID,
		}
		if perr := o.store.AppendEntry(ctx, entry, mirrorRow); perr != nil {
			o.log.Error("failed to persist compensation entry for transaction %s: %v", tx.ID, perr)
		}
	}

	if err := o.store.SetTransactionStatus(ctx, tx.ID, models.LedgerStatusFailed, nil); err != nil {
		return fmt.Errorf("failed to mark transaction failed: %w", err)
	}
	tx.Status = models.LedgerStatusFailed

	o.log.WithFields(map[string]interface{}{
		"transaction_id": tx.ID,
		"type":           tx.Type,
	}).WithError(cause).Warn("ledger transaction failed and was compensated")
	return nil
}

// adjustWithRetry retries the optimistic balance mutation with exponential
// backoff, re-reading the wallet between attempts. Only version conflicts are
// retried; InsufficientFunds is final.
func (o *Orchestrator) adjustWithRetry(ctx context.Context, wallet *models.Wallet, delta int64) (*AdjustResult, error) {
	current := wallet
	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := o.retryBase << uint(attempt-1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			refreshed, err := o.wallets.Get(ctx, current.ID)
			if err != nil {
				return nil, err
			}
			current = refreshed
		}

		result, err := o.wallets.AdjustBalance(ctx, current.ID, delta, current.Version)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrConcurrentModification) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
