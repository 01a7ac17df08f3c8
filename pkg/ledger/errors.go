package ledger

import "errors"

var (
	// ErrInsufficientFunds is returned when a debit would drive a wallet
	// balance negative. Surfaced to the end user, never retried.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrConcurrentModification is returned when the optimistic version check
	// fails. Retried internally a bounded number of times before surfacing.
	ErrConcurrentModification = errors.New("concurrent wallet modification")

	ErrWalletNotActive = errors.New("wallet is not active")
	ErrInvalidAmount   = errors.New("amount must be positive")

	// ErrTransactionInProgress means the external ref is held by a pending
	// transaction, so the retry arrived while the original is still running.
	ErrTransactionInProgress = errors.New("transaction in progress")

	ErrEmptyTransaction   = errors.New("transaction has no entries")
	ErrTransactionClosed  = errors.New("transaction already closed")
	ErrDuplicatePurchase  = errors.New("content already purchased")
	ErrOwnContent         = errors.New("cannot purchase own content")
	ErrContentNotFound    = errors.New("content not found")
	ErrContentUnavailable = errors.New("content is not available for purchase")
)
