package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"yoforex/pkg/ledger"
	"yoforex/pkg/models"

	"github.com/google/uuid"
)

// In-memory stores backing the usecase tests. Same version and uniqueness
// semantics as the gorm implementations.

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

type memWithdrawalRepo struct {
	mu          sync.Mutex
	withdrawals map[string]*models.WithdrawalRequest
	adjustments map[string]*models.TreasuryAdjustment
}

func newMemWithdrawalRepo() *memWithdrawalRepo {
	return &memWithdrawalRepo{
		withdrawals: make(map[string]*models.WithdrawalRequest),
		adjustments: make(map[string]*models.TreasuryAdjustment),
	}
}

func (r *memWithdrawalRepo) Create(w *models.WithdrawalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	w.CreatedAt = time.Now()
	copy := *w
	r.withdrawals[w.ID] = &copy
	return nil
}

func (r *memWithdrawalRepo) GetByID(id string) (*models.WithdrawalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.withdrawals[id]
	if !ok {
		return nil, fmt.Errorf("withdrawal %s not found", id)
	}
	copy := *w
	return &copy, nil
}

func (r *memWithdrawalRepo) ListByUser(userID string, limit, offset int) ([]*models.WithdrawalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.WithdrawalRequest
	for _, w := range r.withdrawals {
		if w.UserID == userID {
			copy := *w
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *memWithdrawalRepo) ListByStatus(status models.WithdrawalStatus, limit, offset int) ([]*models.WithdrawalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.WithdrawalRequest
	for _, w := range r.withdrawals {
		if w.Status == status {
			copy := *w
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *memWithdrawalRepo) Update(w *models.WithdrawalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.withdrawals[w.ID]; !ok {
		return fmt.Errorf("withdrawal %s not found", w.ID)
	}
	copy := *w
	r.withdrawals[w.ID] = &copy
	return nil
}

func (r *memWithdrawalRepo) CreateAdjustment(a *models.TreasuryAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = time.Now()
	copy := *a
	r.adjustments[a.ID] = &copy
	return nil
}

func (r *memWithdrawalRepo) GetAdjustment(id string) (*models.TreasuryAdjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.adjustments[id]
	if !ok {
		return nil, fmt.Errorf("adjustment %s not found", id)
	}
	copy := *a
	return &copy, nil
}

func (r *memWithdrawalRepo) ListAdjustments(limit, offset int) ([]*models.TreasuryAdjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TreasuryAdjustment
	for _, a := range r.adjustments {
		copy := *a
		out = append(out, &copy)
	}
	return out, nil
}

func (r *memWithdrawalRepo) UpdateAdjustment(a *models.TreasuryAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.adjustments[a.ID]; !ok {
		return fmt.Errorf("adjustment %s not found", a.ID)
	}
	copy := *a
	r.adjustments[a.ID] = &copy
	return nil
}
