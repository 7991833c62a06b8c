// Package factory builds the configured adapters for the service binaries.
package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/azuresphere7/DWQ-Legal-Backend/internal/config"
	storepkg "github.com/azuresphere7/DWQ-Legal-Backend/internal/store"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store/memory"
	storepg "github.com/azuresphere7/DWQ-Legal-Backend/internal/store/postgres"
	"github.com/azuresphere7/DWQ-Legal-Backend/internal/store/sqlite"
)

// NewStore returns the store.Store selected by cfg.DBDriver with its schema
// applied, plus a function releasing the underlying connection.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, func() error, error) {
	bootstrapTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
	if bootstrapTimeout <= 0 {
		bootstrapTimeout = 5 * time.Second
	}
	noop := func() error { return nil }

	switch cfg.DBDriver {
	case "memory":
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return memory.New(), noop, nil

	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		bctx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
		defer cancel()
		st, db, err := sqlite.New(bctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("path", cfg.SQLitePath).Msg("sqlite store ready")
		return st, db.Close, nil

	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("%s_POSTGRES_DSN is required when DB_DRIVER=postgres", config.EnvPrefix)
		}
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		bctx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
		defer cancel()
		if err := storepg.EnsureSchema(bctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("postgres schema: %w", err)
		}
		log.Debug().Str("driver", cfg.DBDriver).Msg("store bootstrap completed")
		return storepg.NewWithDB(db), db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
}
