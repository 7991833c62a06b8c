// Package reconcileworker runs the identity reconciliation loop as its own process.
package reconcileworker

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/config"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/factory"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/logger"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/reconcile"
)

// Run starts the worker and blocks until shutdown or error.
func Run() error {
	log := logger.New("reconcile-worker")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("config")
		return err
	}
	logger.SetLevel(cfg.LogLevel)
	if cfg.DBDriver == "memory" {
		log.Warn().Msg("memory store is private to this process; the worker will find no pending accounts")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("store")
		return err
	}
	defer func() { _ = closeStore() }()

	idp, err := factory.NewProvisioner(cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("identity provider")
		return err
	}

	w := reconcile.NewWorker(st, idp, reconcile.Config{
		BatchSize:       cfg.ReconcileBatchSize,
		Interval:        time.Duration(cfg.ReconcileIntervalSeconds) * time.Second,
		CallTimeout:     cfg.CallTimeout(),
		DefaultPassword: cfg.DefaultPartyPassword,
	}, log)

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("reconcile worker exit")
		return err
	}
	return nil
}
