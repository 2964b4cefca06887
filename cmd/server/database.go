package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-srs/internal/config"
	"github.com/phrazzld/scry-srs/internal/platform/memory"
	"github.com/phrazzld/scry-srs/internal/platform/migrate"
	"github.com/phrazzld/scry-srs/internal/platform/postgres"
	"github.com/phrazzld/scry-srs/internal/platform/sqlite"
	"github.com/phrazzld/scry-srs/internal/store"
)

// openDatabase opens and pings the SQL database behind a postgres or sqlite driver.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.URL)
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("driver %q has no SQL database", cfg.Driver)
	}
}

func runMigrations(ctx context.Context, driver string, db *sql.DB, command string, logger *slog.Logger) error {
	switch driver {
	case config.DriverPostgres:
		return postgres.Migrate(ctx, db, command, logger)
	case config.DriverSQLite:
		return sqlite.Migrate(ctx, db, command, logger)
	default:
		return fmt.Errorf("driver %q has no migrations", driver)
	}
}

// openStore builds the review item store for the configured driver.
// The returned *sql.DB is nil for the memory driver.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (store.ReviewItemStore, *sql.DB, error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("using in-memory storage, data is lost on shutdown")
		return memory.NewReviewItemStore(logger), nil, nil
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := runMigrations(ctx, cfg.Driver, db, migrate.CommandUp, logger); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	logger.Info("database connection established", slog.String("driver", cfg.Driver))

	if cfg.Driver == config.DriverPostgres {
		return postgres.NewPostgresReviewItemStore(db, logger), db, nil
	}
	return sqlite.NewReviewItemStore(db, logger), db, nil
}
