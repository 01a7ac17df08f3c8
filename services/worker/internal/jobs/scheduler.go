// Package jobs runs the ledger's background work on a cron schedule:
// hourly reconciliation sweeps, the nightly treasury counter reset and
// the periodic bot refund batch.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"yoforex/pkg/logger"
	"yoforex/pkg/reconcile"
	"yoforex/pkg/treasury"
)

const refundBatchSize = 100

type Scheduler struct {
	cron       *cron.Cron
	reconciler *reconcile.Reconciler
	manager    *treasury.Manager
	refunds    *treasury.RefundProcessor
	logger     *logger.Logger
}

func NewScheduler(reconciler *reconcile.Reconciler, manager *treasury.Manager, refunds *treasury.RefundProcessor, logger *logger.Logger) *Scheduler {
	// All ledger timestamps are UTC, so the schedule is too.
	c := cron.New(cron.WithLocation(time.UTC))
	return &Scheduler{
		cron:       c,
		reconciler: reconciler,
		manager:    manager,
		refunds:    refunds,
		logger:     logger,
	}
}

// Start registers all jobs and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) {
	// Hourly reconciliation sweep
	s.cron.AddFunc("0 * * * *", func() {
		s.logger.Info("[CRON] Starting reconciliation run")
		run, err := s.reconciler.Run(ctx)
		if err != nil {
			s.logger.Error("[CRON] Reconciliation run failed: %v", err)
			return
		}
		s.logger.Info("[CRON] Reconciliation run %s finished: %d wallets, %d drifts", run.ID, run.WalletsChecked, run.DriftCount)
	})

	// Daily treasury counter reset at midnight UTC
	s.cron.AddFunc("0 0 * * *", func() {
		s.logger.Info("[CRON] Resetting treasury daily counters")
		if err := s.manager.DailyReset(ctx); err != nil {
			s.logger.Error("[CRON] Treasury reset failed: %v", err)
		}
	})

	// Bot refund batch every 15 minutes; refunds only become due at
	// their scheduled hour, so most runs are no-ops.
	s.cron.AddFunc("*/15 * * * *", func() {
		processed, failed, err := s.refunds.ProcessDue(ctx, refundBatchSize)
		if err != nil {
			s.logger.Error("[CRON] Refund batch failed: %v", err)
			return
		}
		if processed > 0 || failed > 0 {
			s.logger.Info("[CRON] Refund batch done: %d processed, %d failed", processed, failed)
		}
	})

	s.cron.Start()
	s.logger.Info("Job scheduler started (UTC)")
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Job scheduler stopped")
}
