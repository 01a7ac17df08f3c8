package treasury

import (
	"context"
	"errors"
	"time"

	"yoforex/pkg/logger"
	"yoforex/pkg/models"
)

// Store persists the singleton treasury row and the refund queue.
// SaveTreasury writes only if the stored version still equals
// expectedVersion, returning ErrConcurrentTreasuryUpdate otherwise.
type Store interface {
	GetTreasury(ctx context.Context) (*models.BotTreasury, error)
	SaveTreasury(ctx context.Context, t *models.BotTreasury, expectedVersion int64) error
	CreateRefund(ctx context.Context, r *models.BotRefund) error
	RefundByID(ctx context.Context, id string) (*models.BotRefund, error)
	DueRefunds(ctx context.Context, now time.Time, limit int) ([]*models.BotRefund, error)
	SetRefundStatus(ctx context.Context, id string, status models.BotRefundStatus, processedAt *time.Time, failureReason string) error
}

// maxMutateRetries bounds re-reads after a lost version race. The treasury
// is a single low-traffic row; more than a couple of losses in a row means
// something is wrong.
const maxMutateRetries = 3

// Manager guards the bot coin pool. Every spend passes through the daily
// limit; the day counter resets lazily on the first touch after midnight UTC,
// so a quiet treasury does not depend on the cron job to stay correct.
type Manager struct {
	store Store
	log   *logger.Logger
	now   func() time.Time
}

func NewManager(store Store, log *logger.Logger) *Manager {
	return &Manager{store: store, log: log, now: time.Now}
}

// Spend withdraws amount from the pool, enforcing both the pool balance and
// the daily limit. The caller is expected to return the coins via RefundBack
// if the funded operation does not complete.
func (m *Manager) Spend(ctx context.Context, amount int64) (*models.BotTreasury, error) {
	return m.mutate(ctx, func(t *models.BotTreasury) error {
		if t.Balance < amount {
			return ErrInsufficientTreasury
		}
		if t.TodaySpent+amount > t.DailySpendLimit {
			m.log.WithFields(map[string]interface{}{
				"today_spent": t.TodaySpent,
				"amount":      amount,
				"daily_limit": t.DailySpendLimit,
			}).Warn("treasury spend rejected by daily limit")
			return ErrDailyLimitExceeded
		}
		t.Balance -= amount
		t.TodaySpent += amount
		t.TotalSpent += amount
		return nil
	})
}

// RefundBack returns coins to the pool. TodaySpent is left untouched: the
// limit meters gross outflow for the day, not net.
func (m *Manager) RefundBack(ctx context.Context, amount int64) (*models.BotTreasury, error) {
	return m.mutate(ctx, func(t *models.BotTreasury) error {
		t.Balance += amount
		t.TotalRefunded += amount
		return nil
	})
}

// Status returns the treasury after applying any pending daily reset.
func (m *Manager) Status(ctx context.Context) (*models.BotTreasury, error) {
	return m.load(ctx)
}

// DailyReset zeroes the day counter. Run from the scheduler at midnight; the
// lazy reset in load covers the window before the job fires.
func (m *Manager) DailyReset(ctx context.Context) error {
	_, err := m.mutate(ctx, func(t *models.BotTreasury) error {
		t.TodaySpent = 0
		t.LastResetAt = m.now()
		return nil
	})
	return err
}

// mutate runs apply against a fresh read of the treasury row and writes the
// result under the version guard, retrying a bounded number of times when a
// concurrent writer wins. Gate rejections from apply are final, not retried.
func (m *Manager) mutate(ctx context.Context, apply func(t *models.BotTreasury) error) (*models.BotTreasury, error) {
	var lastErr error
	for attempt := 0; attempt <= maxMutateRetries; attempt++ {
		t, err := m.load(ctx)
		if err != nil {
			return nil, err
		}
		expected := t.Version
		if err := apply(t); err != nil {
			return nil, err
		}
		if err := m.store.SaveTreasury(ctx, t, expected); err != nil {
			if errors.Is(err, ErrConcurrentTreasuryUpdate) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return t, nil
	}
	return nil, lastErr
}

func (m *Manager) load(ctx context.Context) (*models.BotTreasury, error) {
	t, err := m.store.GetTreasury(ctx)
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	last := t.LastResetAt.UTC()
	if now.Year() != last.Year() || now.YearDay() != last.YearDay() {
		expected := t.Version
		t.TodaySpent = 0
		t.LastResetAt = now
		if err := m.store.SaveTreasury(ctx, t, expected); err != nil {
			if errors.Is(err, ErrConcurrentTreasuryUpdate) {
				// Another writer reset or spent first; take its view. Every
				// committed write goes through load, so the row is current.
				return m.store.GetTreasury(ctx)
			}
			return nil, err
		}
	}
	return t, nil
}
