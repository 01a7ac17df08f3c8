package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReconciliationStatus string

const (
	ReconciliationStatusRunning   ReconciliationStatus = "running"
	ReconciliationStatusCompleted ReconciliationStatus = "completed"
	ReconciliationStatusFailed    ReconciliationStatus = "failed"
)

// ReconciliationRun is the audit record of one drift-detection pass.
// Immutable once completed. A nonzero DriftCount is an alert condition.
type ReconciliationRun struct {
	ID             string               `gorm:"type:uuid;primary_key" json:"id"`
	Status         ReconciliationStatus `gorm:"type:varchar(20);not null;default:'running'" json:"status"`
	WalletsChecked int64                `gorm:"not null;default:0" json:"wallets_checked"`
	DriftCount     int64                `gorm:"not null;default:0" json:"drift_count"`
	MaxDelta       int64                `gorm:"not null;default:0" json:"max_delta"`
	Report         []byte               `gorm:"type:jsonb" json:"report,omitempty"`
	StartedAt      time.Time            `json:"started_at"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
}

func (r *ReconciliationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
