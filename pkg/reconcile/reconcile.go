package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"yoforex/pkg/logger"
	"yoforex/pkg/models"
)

// Store provides the wallet scan and journal aggregation queries plus
// persistence for run audit records.
type Store interface {
	WalletPage(ctx context.Context, afterID string, limit int) ([]*models.Wallet, error)
	JournalBalance(ctx context.Context, walletID string) (int64, error)
	MirrorBalance(ctx context.Context, userID string) (int64, error)
	CreateRun(ctx context.Context, run *models.ReconciliationRun) error
	SaveRun(ctx context.Context, run *models.ReconciliationRun) error
}

// AlertPublisher notifies operators of a run that found drift.
type AlertPublisher interface {
	PublishDrift(ctx context.Context, run *models.ReconciliationRun, drifts []Drift) error
}

// Drift is one wallet whose stored balance disagrees with the journal, or
// whose legacy mirror disagrees with the journal.
type Drift struct {
	WalletID       string `json:"wallet_id"`
	UserID         string `json:"user_id"`
	StoredBalance  int64  `json:"stored_balance"`
	JournalBalance int64  `json:"journal_balance"`
	MirrorBalance  int64  `json:"mirror_balance"`
	Delta          int64  `json:"delta"`
	MirrorDelta    int64  `json:"mirror_delta"`
}

// Reconciler recomputes every wallet balance from the journal and records
// disagreement. It is strictly an observer: drift is reported, alerted on,
// and left for a human. No balance is ever corrected automatically.
type Reconciler struct {
	store     Store
	alerts    AlertPublisher
	log       *logger.Logger
	batchSize int
}

func NewReconciler(store Store, alerts AlertPublisher, log *logger.Logger, batchSize int) *Reconciler {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Reconciler{store: store, alerts: alerts, log: log, batchSize: batchSize}
}

// Run executes one full pass over all wallets and returns the audit record.
func (r *Reconciler) Run(ctx context.Context) (*models.ReconciliationRun, error) {
	run := &models.ReconciliationRun{
		Status:    models.ReconciliationStatusRunning,
		StartedAt: time.Now(),
	}
	if err := r.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create reconciliation run: %w", err)
	}

	drifts, checked, err := r.scan(ctx)
	if err != nil {
		run.Status = models.ReconciliationStatusFailed
		now := time.Now()
		run.CompletedAt = &now
		if saveErr := r.store.SaveRun(ctx, run); saveErr != nil {
			r.log.Error("failed to persist failed reconciliation run %s: %v", run.ID, saveErr)
		}
		return run, err
	}

	run.WalletsChecked = checked
	run.DriftCount = int64(len(drifts))
	for _, d := range drifts {
		if abs(d.Delta) > run.MaxDelta {
			run.MaxDelta = abs(d.Delta)
		}
		if abs(d.MirrorDelta) > run.MaxDelta {
			run.MaxDelta = abs(d.MirrorDelta)
		}
	}
	if len(drifts) > 0 {
		report, merr := json.Marshal(drifts)
		if merr == nil {
			run.Report = report
		}
	}
	run.Status = models.ReconciliationStatusCompleted
	now := time.Now()
	run.CompletedAt = &now
	if err := r.store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to persist reconciliation run: %w", err)
	}

	if len(drifts) > 0 {
		r.log.WithFields(map[string]interface{}{
			"run_id":          run.ID,
			"wallets_checked": checked,
			"drift_count":     len(drifts),
			"max_delta":       run.MaxDelta,
		}).Warn("reconciliation found balance drift")
		if r.alerts != nil {
			if err := r.alerts.PublishDrift(ctx, run, drifts); err != nil {
				r.log.Error("failed to publish drift alert for run %s: %v", run.ID, err)
			}
		}
	} else {
		r.log.WithFields(map[string]interface{}{
			"run_id":          run.ID,
			"wallets_checked": checked,
		}).Info("reconciliation clean")
	}

	return run, nil
}

func (r *Reconciler) scan(ctx context.Context) ([]Drift, int64, error) {
	var (
		drifts  []Drift
		checked int64
		afterID string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, checked, err
		}
		wallets, err := r.store.WalletPage(ctx, afterID, r.batchSize)
		if err != nil {
			return nil, checked, fmt.Errorf("failed to page wallets: %w", err)
		}
		if len(wallets) == 0 {
			return drifts, checked, nil
		}
		for _, w := range wallets {
			checked++
			journal, err := r.store.JournalBalance(ctx, w.ID)
			if err != nil {
				return nil, checked, fmt.Errorf("failed to sum journal for wallet %s: %w", w.ID, err)
			}
			mirror, err := r.store.MirrorBalance(ctx, w.UserID)
			if err != nil {
				return nil, checked, fmt.Errorf("failed to sum mirror for user %s: %w", w.UserID, err)
			}
			if journal != w.Balance || mirror != journal {
				drifts = append(drifts, Drift{
					WalletID:       w.ID,
					UserID:         w.UserID,
					StoredBalance:  w.Balance,
					JournalBalance: journal,
					MirrorBalance:  mirror,
					Delta:          w.Balance - journal,
					MirrorDelta:    mirror - journal,
				})
			}
		}
		afterID = wallets[len(wallets)-1].ID
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
