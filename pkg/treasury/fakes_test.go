package treasury

import (
	"context"
	"fmt"
	"sync"
	"time"

	"yoforex/pkg/ledger"
	"yoforex/pkg/models"

	"github.com/google/uuid"
)

type fakeTreasuryStore struct {
	mu             sync.Mutex
	treasury       *models.BotTreasury
	refunds        map[string]*models.BotRefund
	competingSpend int64
}

func newFakeTreasuryStore(t *models.BotTreasury) *fakeTreasuryStore {
	return &fakeTreasuryStore{treasury: t, refunds: make(map[string]*models.BotRefund)}
}

// injectCompetingSpend lands a competing spend right after the next read,
// bumping the stored version the way a concurrent request committing between
// a caller's read and its save would.
func (s *fakeTreasuryStore) injectCompetingSpend(amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.competingSpend = amount
}

func (s *fakeTreasuryStore) GetTreasury(ctx context.Context) (*models.BotTreasury, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.treasury == nil {
		return nil, ErrTreasuryNotFound
	}
	copy := *s.treasury
	if s.competingSpend > 0 {
		s.treasury.Balance -= s.competingSpend
		s.treasury.TodaySpent += s.competingSpend
		s.treasury.TotalSpent += s.competingSpend
		s.treasury.Version++
		s.competingSpend = 0
	}
	return &copy, nil
}

func (s *fakeTreasuryStore) SaveTreasury(ctx context.Context, t *models.BotTreasury, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.treasury == nil || s.treasury.Version != expectedVersion {
		return ErrConcurrentTreasuryUpdate
	}
	t.Version = expectedVersion + 1
	copy := *t
	s.treasury = &copy
	return nil
}

func (s *fakeTreasuryStore) CreateRefund(ctx context.Context, r *models.BotRefund) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	r.CreatedAt = time.Now()
	copy := *r
	s.refunds[r.ID] = &copy
	return nil
}

func (s *fakeTreasuryStore) RefundByID(ctx context.Context, id string) (*models.BotRefund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.refunds[id]
	if !ok {
		return nil, fmt.Errorf("refund %s not found", id)
	}
	copy := *r
	return &copy, nil
}

func (s *fakeTreasuryStore) DueRefunds(ctx context.Context, now time.Time, limit int) ([]*models.BotRefund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.BotRefund
	for _, r := range s.refunds {
		if r.Status == models.BotRefundStatusPending && !r.ScheduledFor.After(now) {
			copy := *r
			out = append(out, &copy)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeTreasuryStore) SetRefundStatus(ctx context.Context, id string, status models.BotRefundStatus, processedAt *time.Time, failureReason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.refunds[id]
	if !ok {
		return fmt.Errorf("refund %s not found", id)
	}
	r.Status = status
	r.ProcessedAt = processedAt
	r.FailureReason = failureReason
	return nil
}

// Minimal in-memory ledger backends for exercising the refund debit path.

type memWalletStore struct {
	mu      sync.Mutex
	wallets map[string]*models.Wallet
	byUser  map[string]string
}

func newMemWalletStore() *memWalletStore {
	return &memWalletStore{wallets: make(map[string]*models.Wallet), byUser: make(map[string]string)}
}

func (s *memWalletStore) seed(userID string, balance int64) *models.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := &models.Wallet{
		ID:               uuid.New().String(),
		UserID:           userID,
		Balance:          balance,
		AvailableBalance: balance,
		Status:           models.WalletStatusActive,
	}
	s.wallets[w.ID] = w
	s.byUser[userID] = w.ID
	return w
}

func (s *memWalletStore) GetOrCreate(ctx context.Context, userID string) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byUser[userID]; ok {
		copy := *s.wallets[id]
		return &copy, nil
	}
	w := &models.Wallet{ID: uuid.New().String(), UserID: userID, Status: models.WalletStatusActive}
	s.wallets[w.ID] = w
	s.byUser[userID] = w.ID
	copy := *w
	return &copy, nil
}

func (s *memWalletStore) Get(ctx context.Context, walletID string) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return nil, fmt.Errorf("wallet %s not found", walletID)
	}
	copy := *w
	return &copy, nil
}

func (s *memWalletStore) GetByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	s.mu.Lock()
	id, ok := s.byUser[userID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("wallet for user %s not found", userID)
	}
	return s.Get(ctx, id)
}

func (s *memWalletStore) AdjustBalance(ctx context.Context, walletID string, delta int64, expectedVersion int64) (*ledger.AdjustResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return nil, fmt.Errorf("wallet %s not found", walletID)
	}
	if w.Version != expectedVersion {
		return nil, ledger.ErrConcurrentModification
	}
	if w.Balance+delta < 0 {
		return nil, ledger.ErrInsufficientFunds
	}
	before := w.Balance
	w.Balance += delta
	w.AvailableBalance += delta
	w.Version++
	copy := *w
	return &ledger.AdjustResult{Wallet: &copy, BalanceBefore: before, BalanceAfter: w.Balance}, nil
}

type memLedgerStore struct {
	mu           sync.Mutex
	transactions map[string]*models.LedgerTransaction
	entries      []*models.JournalEntry
	mirrors      []*models.CoinTransaction
}

func newMemLedgerStore() *memLedgerStore {
	return &memLedgerStore{transactions: make(map[string]*models.LedgerTransaction)}
}

func (s *memLedgerStore) CreateTransaction(ctx context.Context, tx *models.LedgerTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	tx.CreatedAt = time.Now()
	copy := *tx
	s.transactions[tx.ID] = &copy
	return nil
}

func (s *memLedgerStore) FindByExternalRef(ctx context.Context, externalRef string) (*models.LedgerTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.LedgerTransaction
	for _, tx := range s.transactions {
		if tx.ExternalRef == externalRef {
			if latest == nil || tx.CreatedAt.After(latest.CreatedAt) {
				latest = tx
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	copy := *latest
	return &copy, nil
}

func (s *memLedgerStore) SetTransactionStatus(ctx context.Context, id string, status models.LedgerTransactionStatus, closedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return fmt.Errorf("transaction %s not found", id)
	}
	tx.Status = status
	tx.ClosedAt = closedAt
	return nil
}

func (s *memLedgerStore) AppendEntry(ctx context.Context, entry *models.JournalEntry, mirror *models.CoinTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if mirror.ID == "" {
		mirror.ID = uuid.New().String()
	}
	entryCopy := *entry
	mirrorCopy := *mirror
	s.entries = append(s.entries, &entryCopy)
	s.mirrors = append(s.mirrors, &mirrorCopy)
	return nil
}

func (s *memLedgerStore) EntriesByTransaction(ctx context.Context, transactionID string) ([]*models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.JournalEntry
	for _, e := range s.entries {
		if e.LedgerTransactionID == transactionID {
			copy := *e
			out = append(out, &copy)
		}
	}
	return out, nil
}

type memCatalog struct {
	mu        sync.Mutex
	contents  map[string]*models.Content
	purchases []*models.Purchase
}

func newMemCatalog() *memCatalog {
	return &memCatalog{contents: make(map[string]*models.Content)}
}

func (s *memCatalog) addContent(c *models.Content) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = models.ContentStatusPublished
	}
	s.contents[c.ID] = c
}

func (s *memCatalog) ContentByID(ctx context.Context, contentID string) (*models.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contents[contentID]
	if !ok {
		return nil, ledger.ErrContentNotFound
	}
	copy := *c
	return &copy, nil
}

func (s *memCatalog) HasPurchase(ctx context.Context, buyerID, contentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.purchases {
		if p.BuyerID == buyerID && p.ContentID == contentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memCatalog) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if purchase.ID == "" {
		purchase.ID = uuid.New().String()
	}
	copy := *purchase
	s.purchases = append(s.purchases, &copy)
	return nil
}

func (s *memCatalog) PurchaseByTransactionID(ctx context.Context, transactionID string) (*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.purchases {
		if p.LedgerTransactionID == transactionID {
			copy := *p
			return &copy, nil
		}
	}
	return nil, fmt.Errorf("purchase for transaction %s not found", transactionID)
}
