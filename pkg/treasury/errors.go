package treasury

import "errors"

var (
	// ErrDailyLimitExceeded is returned when a spend would push TodaySpent
	// past the daily limit. The spend is rejected outright, never queued.
	ErrDailyLimitExceeded = errors.New("treasury daily spend limit exceeded")

	ErrInsufficientTreasury = errors.New("treasury balance too low")
	ErrTreasuryNotFound     = errors.New("bot treasury is not provisioned")

	// ErrConcurrentTreasuryUpdate signals that another writer won the
	// version check; the caller re-reads and retries.
	ErrConcurrentTreasuryUpdate = errors.New("concurrent treasury modification")
)
