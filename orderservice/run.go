// Package orderservice assembles and runs the order intake HTTP server.
package orderservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/api"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/auth"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/config"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/deadline"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/factory"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/health"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/identity"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/logger"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/notify"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/services"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
)

// Run starts the order service HTTP server and blocks until shutdown or error.
// A non-empty buildTarget overrides BUILD_TARGET.
func Run(buildTarget string) error {
	log := logger.New("order-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	if buildTarget != "" {
		cfg.BuildTarget = buildTarget
		cfg.DBDriver, cfg.IdentityDriver, cfg.MailDriver = "auto", "auto", "auto"
		if err := cfg.ResolveDefaults(); err != nil {
			log.Error().Err(err).Msg("Invalid build-target override")
			return err
		}
	}
	logger.SetLevel(cfg.LogLevel)

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("identity_driver", cfg.IdentityDriver).
		Str("mail_driver", cfg.MailDriver).
		Int("http_port", cfg.HTTPPort).
		Int("fan_out_limit", cfg.FanOutLimit).
		Msg("Order service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	deps, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.closeStore(); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
	}()

	router, err := buildRouter(deps, cfg, log)
	if err != nil {
		return err
	}

	svcHealth := startHealthCheckers(ctx, cfg, log, deps)

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

type dependencies struct {
	store      store.Store
	closeStore func() error
	identity   identity.Provisioner
	mailer     notify.Mailer
}

// initDependencies constructs the adapters and fails fast on missing configuration.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*dependencies, error) {
	if cfg.JWTSecret == "" && !cfg.DevAuth {
		return nil, fmt.Errorf("%s_JWT_SECRET is required unless DEV_AUTH is enabled", config.EnvPrefix)
	}

	st, closeStore, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return nil, err
	}

	idp, err := factory.NewProvisioner(cfg, log)
	if err != nil {
		_ = closeStore()
		log.Error().Stack().Err(err).Msg("Identity provider unavailable")
		return nil, err
	}

	mailer, err := factory.NewMailer(cfg, log)
	if err != nil {
		_ = closeStore()
		log.Error().Stack().Err(err).Msg("Mailer unavailable")
		return nil, err
	}
	return &dependencies{store: st, closeStore: closeStore, identity: idp, mailer: mailer}, nil
}

// buildRouter wires services into the HTTP routes and mounts /metrics.
func buildRouter(deps *dependencies, cfg *config.Config, log zerolog.Logger) (*mux.Router, error) {
	loc, err := time.LoadLocation(cfg.DeadlineTimeZone)
	if err != nil {
		return nil, fmt.Errorf("deadline time zone: %w", err)
	}
	timeout := cfg.CallTimeout()

	parties := services.NewPartyNotifier(deps.store, deps.identity, notify.NewGateway(deps.mailer, deps.store),
		services.PartyNotifierConfig{
			DefaultPassword: cfg.DefaultPartyPassword,
			CallTimeout:     timeout,
		}, log)
	orders := services.NewOrderService(deps.store, services.NewEligibilityGate(deps.store, timeout), parties,
		deadline.New(loc), services.OrderServiceConfig{
			FanOutLimit: cfg.FanOutLimit,
			CallTimeout: timeout,
		}, log)
	users := services.NewUserService(deps.store, deps.identity, timeout, log)

	root := api.NewRouter(api.Handlers{
		Orders:        api.NewOrderHandler(orders, users),
		Users:         api.NewUserHandler(users),
		Notifications: api.NewNotificationHandler(services.NewNotificationService(deps.store)),
		Health:        api.NewHealthHandler(),
	}, auth.New(cfg.JWTSecret, cfg.DevAuth))
	root.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return root, nil
}

// startHealthCheckers starts component checkers and the service-level aggregator, then binds them to /api/health.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, deps *dependencies) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	storeChecker := store.NewStoreHealthChecker(deps.store, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	// identity and mail have no cheap probe; they are checked when used
	checkers := []health.HealthChecker{
		storeChecker,
		health.NewStaticChecker("identity:"+cfg.IdentityDriver, true),
		health.NewStaticChecker("mail:"+cfg.MailDriver, true),
	}

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	api.BindComponentHealth(svcHealth.Components)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// startupHealthTimeout is twice the health interval, at least 60 seconds.
func startupHealthTimeout(healthIntervalSeconds int) time.Duration {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		timeout = 60
	}
	return time.Duration(timeout) * time.Second
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeout := startupHealthTimeout(cfg.HealthIntervalSeconds)
	until := time.Now().Add(timeout)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(until) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %s", timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a context cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
