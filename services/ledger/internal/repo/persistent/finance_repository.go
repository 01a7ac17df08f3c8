package persistent

import (
	"yoforex/pkg/models"
	"yoforex/services/ledger/internal/entity"

	"gorm.io/gorm"
)

// FinanceRepository serves the admin read surface: raw ledger transactions
// with their entries, reconciliation runs, and the purchase index.
type FinanceRepository interface {
	ListTransactions(txType string, limit, offset int) ([]*entity.LedgerTransaction, error)
	GetTransaction(id string) (*entity.LedgerTransaction, error)
	ListReconciliationRuns(limit, offset int) ([]*entity.ReconciliationRun, error)

	ListPurchasesByBuyer(buyerID string, limit, offset int) ([]*entity.Purchase, error)
	GetPurchase(id string) (*models.Purchase, error)
	GetContent(id string) (*models.Content, error)
}

type financeRepository struct {
	db *gorm.DB
}

func NewFinanceRepository(db *gorm.DB) FinanceRepository {
	return &financeRepository{db: db}
}

func (r *financeRepository) ListTransactions(txType string, limit, offset int) ([]*entity.LedgerTransaction, error) {
	q := r.db.Order("created_at DESC").Limit(limit).Offset(offset)
	if txType != "" {
		q = q.Where("type = ?", txType)
	}
	var transactions []*models.LedgerTransaction
	if err := q.Find(&transactions).Error; err != nil {
		return nil, err
	}

	result := make([]*entity.LedgerTransaction, 0, len(transactions))
	for _, tx := range transactions {
		result = append(result, ToLedgerTransactionEntity(tx, nil))
	}
	return result, nil
}

func (r *financeRepository) GetTransaction(id string) (*entity.LedgerTransaction, error) {
	var tx models.LedgerTransaction
	if err := r.db.Where("id = ?", id).First(&tx).Error; err != nil {
		return nil, err
	}
	var entries []*models.JournalEntry
	if err := r.db.Where("ledger_transaction_id = ?", id).Order("created_at ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return ToLedgerTransactionEntity(&tx, entries), nil
}

func (r *financeRepository) ListReconciliationRuns(limit, offset int) ([]*entity.ReconciliationRun, error) {
	var runs []*models.ReconciliationRun
	err := r.db.Order("started_at DESC").Limit(limit).Offset(offset).Find(&runs).Error
	if err != nil {
		return nil, err
	}

	result := make([]*entity.ReconciliationRun, 0, len(runs))
	for _, run := range runs {
		result = append(result, ToReconciliationRunEntity(run))
	}
	return result, nil
}

func (r *financeRepository) ListPurchasesByBuyer(buyerID string, limit, offset int) ([]*entity.Purchase, error) {
	var purchases []*models.Purchase
	err := r.db.Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}

	result := make([]*entity.Purchase, 0, len(purchases))
	for _, p := range purchases {
		result = append(result, ToPurchaseEntity(p))
	}
	return result, nil
}

func (r *financeRepository) GetPurchase(id string) (*models.Purchase, error) {
	var p models.Purchase
	if err := r.db.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *financeRepository) GetContent(id string) (*models.Content, error) {
	var c models.Content
	if err := r.db.Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
