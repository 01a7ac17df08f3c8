package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"yoforex/pkg/config"
	"yoforex/pkg/database"
	"yoforex/pkg/ledger"
	"yoforex/pkg/logger"
	"yoforex/pkg/queue"
	"yoforex/pkg/reconcile"
	"yoforex/pkg/treasury"
	"yoforex/services/worker/internal/jobs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	// Drift alerts go to RabbitMQ when it is reachable; the jobs
	// themselves never depend on the broker.
	var alerts reconcile.AlertPublisher
	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Warn("RabbitMQ unavailable, drift alerts disabled: %v", err)
	} else {
		alerts = queueClient
	}

	walletStore := ledger.NewWalletStore(db)
	reconcileStore := reconcile.NewStore(db)
	reconciler := reconcile.NewReconciler(reconcileStore, alerts, log, 500)

	treasuryStore := treasury.NewStore(db)
	manager := treasury.NewManager(treasuryStore, log)
	orch := ledger.NewOrchestrator(ledger.NewStore(db), walletStore, log)
	refunds := treasury.NewRefundProcessor(treasuryStore, manager, orch, walletStore, cfg.BotBalanceCap, cfg.BotRefundHour, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := jobs.NewScheduler(reconciler, manager, refunds, log)
	scheduler.Start(ctx)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down worker...")

	cancel()
	scheduler.Stop()

	// Close database connection
	sqlDB, err := db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error("Error closing database: %v", err)
		}
	}

	// Close queue connection
	if queueClient != nil {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	log.Info("Worker exited")
}
