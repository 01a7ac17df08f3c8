package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"yoforex/pkg/models"

	"github.com/google/uuid"
)

// In-memory stores backing the orchestrator and purchase flow tests. They
// honor the same version/uniqueness semantics as the gorm implementations.

type fakeWalletStore struct {
	mu        sync.Mutex
	wallets   map[string]*models.Wallet
	byUser    map[string]string
	conflicts map[string]int
}

func newFakeWalletStore() *fakeWalletStore {
	return &fakeWalletStore{
		wallets:   make(map[string]*models.Wallet),
		byUser:    make(map[string]string),
		conflicts: make(map[string]int),
	}
}

func (s *fakeWalletStore) seed(userID string, balance int64) *models.Wallet {
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

// injectConflicts makes the next n AdjustBalance calls for the wallet fail
// with a version conflict, bumping the stored version each time the way a
// concurrent writer would.
func (s *fakeWalletStore) injectConflicts(walletID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts[walletID] = n
}

func (s *fakeWalletStore) GetOrCreate(ctx context.Context, userID string) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byUser[userID]; ok {
		copy := *s.wallets[id]
		return &copy, nil
	}
	w := &models.Wallet{
		ID:     uuid.New().String(),
		UserID: userID,
		Status: models.WalletStatusActive,
	}
	s.wallets[w.ID] = w
	s.byUser[userID] = w.ID
	copy := *w
	return &copy, nil
}

func (s *fakeWalletStore) Get(ctx context.Context, walletID string) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return nil, fmt.Errorf("wallet %s not found", walletID)
	}
	copy := *w
	return &copy, nil
}

func (s *fakeWalletStore) GetByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	s.mu.Lock()
	id, ok := s.byUser[userID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("wallet for user %s not found", userID)
	}
	return s.Get(ctx, id)
}

func (s *fakeWalletStore) AdjustBalance(ctx context.Context, walletID string, delta int64, expectedVersion int64) (*AdjustResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[walletID]
	if !ok {
		return nil, fmt.Errorf("wallet %s not found", walletID)
	}
	if w.Status != models.WalletStatusActive {
		return nil, ErrWalletNotActive
	}
	if n := s.conflicts[walletID]; n > 0 {
		s.conflicts[walletID] = n - 1
		w.Version++
		return nil, ErrConcurrentModification
	}
	if w.Version != expectedVersion {
		return nil, ErrConcurrentModification
	}
	if w.Balance+delta < 0 || w.AvailableBalance+delta < 0 {
		return nil, ErrInsufficientFunds
	}

	before := w.Balance
	w.Balance += delta
	w.AvailableBalance += delta
	w.Version++

	copy := *w
	return &AdjustResult{Wallet: &copy, BalanceBefore: before, BalanceAfter: w.Balance}, nil
}

type fakeStore struct {
	mu           sync.Mutex
	transactions map[string]*models.LedgerTransaction
	entries      []*models.JournalEntry
	mirrors      []*models.CoinTransaction
	appendFails  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{transactions: make(map[string]*models.LedgerTransaction)}
}

func (s *fakeStore) CreateTransaction(ctx context.Context, tx *models.LedgerTransaction) error {
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

func (s *fakeStore) FindByExternalRef(ctx context.Context, externalRef string) (*models.LedgerTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.LedgerTransaction
	for _, tx := range s.transactions {
		if tx.ExternalRef != externalRef {
			continue
		}
		if latest == nil || tx.CreatedAt.After(latest.CreatedAt) {
			latest = tx
		}
	}
	if latest == nil {
		return nil, nil
	}
	copy := *latest
	return &copy, nil
}

func (s *fakeStore) SetTransactionStatus(ctx context.Context, id string, status models.LedgerTransactionStatus, closedAt *time.Time) error {
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

func (s *fakeStore) AppendEntry(ctx context.Context, entry *models.JournalEntry, mirror *models.CoinTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendFails > 0 {
		s.appendFails--
		return fmt.Errorf("storage unavailable")
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if mirror.ID == "" {
		mirror.ID = uuid.New().String()
	}
	entry.CreatedAt = time.Now()
	mirror.CreatedAt = entry.CreatedAt
	entryCopy := *entry
	mirrorCopy := *mirror
	s.entries = append(s.entries, &entryCopy)
	s.mirrors = append(s.mirrors, &mirrorCopy)
	return nil
}

func (s *fakeStore) EntriesByTransaction(ctx context.Context, transactionID string) ([]*models.JournalEntry, error) {
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

type fakePurchaseStore struct {
	mu        sync.Mutex
	contents  map[string]*models.Content
	purchases []*models.Purchase
}

func newFakePurchaseStore() *fakePurchaseStore {
	return &fakePurchaseStore{contents: make(map[string]*models.Content)}
}

func (s *fakePurchaseStore) addContent(c *models.Content) {
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

func (s *fakePurchaseStore) ContentByID(ctx context.Context, contentID string) (*models.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contents[contentID]
	if !ok {
		return nil, ErrContentNotFound
	}
	copy := *c
	return &copy, nil
}

func (s *fakePurchaseStore) HasPurchase(ctx context.Context, buyerID, contentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.purchases {
		if p.BuyerID == buyerID && p.ContentID == contentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakePurchaseStore) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.purchases {
		if p.BuyerID == purchase.BuyerID && p.ContentID == purchase.ContentID {
			return fmt.Errorf("duplicate key value violates unique constraint (SQLSTATE 23505)")
		}
	}
	if purchase.ID == "" {
		purchase.ID = uuid.New().String()
	}
	copy := *purchase
	s.purchases = append(s.purchases, &copy)
	return nil
}

func (s *fakePurchaseStore) PurchaseByTransactionID(ctx context.Context, transactionID string) (*models.Purchase, error) {
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
