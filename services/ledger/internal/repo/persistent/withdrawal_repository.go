package persistent

import (
	"yoforex/pkg/models"

	"gorm.io/gorm"
)

type WithdrawalRepository interface {
	Create(w *models.WithdrawalRequest) error
	GetByID(id string) (*models.WithdrawalRequest, error)
	ListByUser(userID string, limit, offset int) ([]*models.WithdrawalRequest, error)
	ListByStatus(status models.WithdrawalStatus, limit, offset int) ([]*models.WithdrawalRequest, error)
	Update(w *models.WithdrawalRequest) error

	CreateAdjustment(a *models.TreasuryAdjustment) error
	GetAdjustment(id string) (*models.TreasuryAdjustment, error)
	ListAdjustments(limit, offset int) ([]*models.TreasuryAdjustment, error)
	UpdateAdjustment(a *models.TreasuryAdjustment) error
}

type withdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) WithdrawalRepository {
	return &withdrawalRepository{db: db}
}

func (r *withdrawalRepository) Create(w *models.WithdrawalRequest) error {
	return r.db.Create(w).Error
}

func (r *withdrawalRepository) GetByID(id string) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.db.Where("id = ?", id).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *withdrawalRepository) ListByUser(userID string, limit, offset int) ([]*models.WithdrawalRequest, error) {
	var out []*models.WithdrawalRequest
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *withdrawalRepository) ListByStatus(status models.WithdrawalStatus, limit, offset int) ([]*models.WithdrawalRequest, error) {
	var out []*models.WithdrawalRequest
	err := r.db.Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *withdrawalRepository) Update(w *models.WithdrawalRequest) error {
	return r.db.Save(w).Error
}

func (r *withdrawalRepository) CreateAdjustment(a *models.TreasuryAdjustment) error {
	return r.db.Create(a).Error
}

func (r *withdrawalRepository) GetAdjustment(id string) (*models.TreasuryAdjustment, error) {
	var a models.TreasuryAdjustment
	if err := r.db.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *withdrawalRepository) ListAdjustments(limit, offset int) ([]*models.TreasuryAdjustment, error) {
	var out []*models.TreasuryAdjustment
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *withdrawalRepository) UpdateAdjustment(a *models.TreasuryAdjustment) error {
	return r.db.Save(a).Error
}
