// Package reconcile retries identity-provider sign-up for accounts that order
// intake created but could not provision.
package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/identity"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/metrics"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
)

// Config controls batch size and polling cadence.
type Config struct {
	BatchSize       int           // accounts retried per cycle
	Interval        time.Duration // poll interval
	CallTimeout     time.Duration // bound on each provider and store call
	DefaultPassword string
}

// Worker polls pending accounts and signs them up. Several workers may run
// at once; a duplicate sign-up comes back as UsernameExists and is treated as
// success.
type Worker struct {
	store store.Store
	idp   identity.Provisioner
	cfg   Config
	log   zerolog.Logger
	now   func() time.Time
}

func NewWorker(s store.Store, idp identity.Provisioner, cfg Config, log zerolog.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	return &Worker{store: s, idp: idp, cfg: cfg, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Run starts the polling loop until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Int("batch", w.cfg.BatchSize).Dur("interval", w.cfg.Interval).Msg("reconcile worker starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("reconcile worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.processOnce(ctx); err != nil {
				// per-account backoff keeps this from hot-looping
				w.log.Error().Err(err).Msg("reconcile processOnce")
			}
		}
	}
}

// processOnce retries one batch of due accounts and returns how many were provisioned.
func (w *Worker) processOnce(ctx context.Context) (int, error) {
	lctx, cancel := context.WithTimeout(ctx, w.cfg.CallTimeout)
	due, err := w.store.Accounts().ListPendingIdentity(lctx, w.now(), w.cfg.BatchSize)
	cancel()
	if err != nil {
		return 0, model.StoreErr("list-pending-identity", err)
	}

	provisioned := 0
	for _, acc := range due {
		if ctx.Err() != nil {
			return provisioned, ctx.Err()
		}
		result := w.handle(ctx, acc)
		metrics.IdentityReconciled.WithLabelValues(result).Inc()
		if result == "provisioned" {
			provisioned++
		}
	}
	if len(due) > 0 {
		w.log.Info().Int("due", len(due)).Int("provisioned", provisioned).Msg("reconcile batch done")
	}
	return provisioned, nil
}

func (w *Worker) handle(ctx context.Context, acc *model.Account) string {
	cctx, cancel := context.WithTimeout(ctx, w.cfg.CallTimeout)
	err := w.idp.SignUp(cctx, identity.SignUpRequest{Email: acc.Email, Password: w.cfg.DefaultPassword})
	cancel()

	if err == nil || identity.IsCode(err, identity.UsernameExists) {
		cctx, cancel = context.WithTimeout(ctx, w.cfg.CallTimeout)
		defer cancel()
		if err := w.store.Accounts().MarkProvisioned(cctx, acc.Email); err != nil {
			w.log.Error().Err(err).Str("email", acc.Email).Msg("mark provisioned failed")
			return "store_error"
		}
		return "provisioned"
	}

	if identity.IsCode(err, identity.InvalidPassword) {
		w.log.Warn().Err(err).Str("email", acc.Email).Msg("identity sign-up rejected; account parked")
		cctx, cancel = context.WithTimeout(ctx, w.cfg.CallTimeout)
		defer cancel()
		if err := w.store.Accounts().MarkIdentityRejected(cctx, acc.Email); err != nil {
			w.log.Error().Err(err).Str("email", acc.Email).Msg("mark identity rejected failed")
			return "store_error"
		}
		return "rejected"
	}

	next := w.now().Add(identity.RetryDelay(acc.IdentityAttempts))
	w.log.Warn().Err(err).Str("email", acc.Email).Int("attempts", acc.IdentityAttempts+1).
		Time("next_attempt", next).Msg("identity sign-up retry failed")

	cctx, cancel = context.WithTimeout(ctx, w.cfg.CallTimeout)
	defer cancel()
	if err := w.store.Accounts().MarkIdentityFailed(cctx, acc.Email, next); err != nil {
		w.log.Error().Err(err).Str("email", acc.Email).Msg("mark identity failed failed")
		return "store_error"
	}
	return "failed"
}
