// Package migrate applies embedded goose migrations to a SQL database.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
)

// Supported migration commands.
const (
	CommandUp     = "up"
	CommandDown   = "down"
	CommandStatus = "status"
)

// Commands lists every command accepted by Run.
var Commands = []string{CommandUp, CommandDown, CommandStatus}

// Run executes command against db using the migrations in fsys.
//
//   - up applies every pending migration
//   - down rolls back the most recent migration
//   - status logs the state of every known migration
func Run(ctx context.Context, db *sql.DB, dialect goose.Dialect, fsys fs.FS, command string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	// A correlation ID ties together every log line of one migration run
	log := logger.With(
		slog.String("component", "migrations"),
		slog.String("correlation_id", uuid.NewString()),
		slog.String("command", command),
		slog.String("dialect", string(dialect)),
	)

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	startTime := time.Now()
	log.Info("starting migration operation")

	switch command {
	case CommandUp:
		var results []*goose.MigrationResult
		results, err = provider.Up(ctx)
		for _, r := range results {
			logResult(log, r)
		}
	case CommandDown:
		var result *goose.MigrationResult
		result, err = provider.Down(ctx)
		if result != nil {
			logResult(log, result)
		}
	case CommandStatus:
		var statuses []*goose.MigrationStatus
		statuses, err = provider.Status(ctx)
		for _, s := range statuses {
			log.Info("migration status",
				slog.Int64("version", s.Source.Version),
				slog.String("path", s.Source.Path),
				slog.String("state", string(s.State)),
				slog.Time("applied_at", s.AppliedAt))
		}
	default:
		return fmt.Errorf("unknown migration command: %s (expected one of %v)", command, Commands)
	}

	if err != nil {
		log.Error("migration command failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(startTime)))
		return fmt.Errorf("migration command '%s' failed: %w", command, err)
	}

	version, verErr := provider.GetDBVersion(ctx)
	if verErr != nil {
		log.Warn("failed to retrieve current migration version", slog.String("error", verErr.Error()))
	}
	log.Info("migration command executed successfully",
		slog.Int64("version", version),
		slog.Duration("duration", time.Since(startTime)))
	return nil
}

func logResult(log *slog.Logger, r *goose.MigrationResult) {
	attrs := []any{
		slog.String("direction", r.Direction),
		slog.Duration("duration", r.Duration),
	}
	if r.Source != nil {
		attrs = append(attrs,
			slog.Int64("version", r.Source.Version),
			slog.String("path", r.Source.Path))
	}
	if r.Error != nil {
		log.Error("migration failed", append(attrs, slog.String("error", r.Error.Error()))...)
		return
	}
	log.Info("migration applied", attrs...)
}
