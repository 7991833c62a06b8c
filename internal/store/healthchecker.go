package store

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/model"
)

// StoreHealthChecker monitors store reachability with periodic probes.
type StoreHealthChecker struct {
	store        Store
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewStoreHealthChecker creates a checker that starts unhealthy until the first probe passes.
func NewStoreHealthChecker(store Store, log zerolog.Logger, probeTimeout time.Duration) *StoreHealthChecker {
	hc := &StoreHealthChecker{
		store:        store,
		log:          log,
		probeTimeout: probeTimeout,
	}
	hc.healthy.Store(0)
	return hc
}

func (hc *StoreHealthChecker) Name() string {
	return "store"
}

// IsHealthy returns the cached health status (non-blocking).
func (hc *StoreHealthChecker) IsHealthy() bool {
	return hc.healthy.Load() == 1
}

// Start probes immediately and then every interval until ctx is cancelled.
func (hc *StoreHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	hc.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hc.check(ctx)
		}
	}
}

func (hc *StoreHealthChecker) check(ctx context.Context) {
	to := hc.probeTimeout
	if to <= 0 {
		to = 2 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, to)
	defer cancel()

	if err := hc.probe(checkCtx); err != nil {
		hc.log.Error().Stack().
			Str("checker", hc.Name()).
			Err(err).
			Msg("store health check failed")
		hc.healthy.Store(0)
		return
	}
	hc.healthy.Store(1)
}

// pinger is implemented by drivers that can check their connection directly.
type pinger interface {
	Ping(ctx context.Context) error
}

// probe prefers a driver-level ping and otherwise issues a cheap lookup,
// where not-found still proves the store answered.
func (hc *StoreHealthChecker) probe(ctx context.Context) error {
	if p, ok := hc.store.(pinger); ok {
		return p.Ping(ctx)
	}
	_, err := hc.store.Regions().Get(ctx, model.RegionJurisdiction, "__health_check__")
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return err
	}
	return nil
}
