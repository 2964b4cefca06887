package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-srs/internal/config"
	"github.com/phrazzld/scry-srs/internal/domain/srs"
	"github.com/phrazzld/scry-srs/internal/events"
	"github.com/phrazzld/scry-srs/internal/service/auth"
	"github.com/phrazzld/scry-srs/internal/service/review"
	"github.com/phrazzld/scry-srs/internal/store"
)

// application holds the wired dependencies of the server.
type application struct {
	config        *config.Config
	logger        *slog.Logger
	db            *sql.DB
	itemStore     store.ReviewItemStore
	srsService    srs.Service
	eventEmitter  events.EventEmitter
	asyncEmitter  *events.AsyncEventEmitter
	reviewService review.Service
	jwtService    auth.JWTService
}

// newApplication wires every dependency from cfg. Call cleanup when done.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	params, err := schedulerParams(cfg.Scheduler)
	if err != nil {
		return nil, err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	itemStore, db, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	srsService := srs.NewServiceWithParams(params)

	handlers := events.NewInMemoryEventEmitter(logger)
	handlers.RegisterHandler(events.NewReviewLogHandler(logger), events.TypeReviewRecorded)

	var (
		emitter      events.EventEmitter = handlers
		asyncEmitter *events.AsyncEventEmitter
	)
	if cfg.Events.Workers > 0 {
		asyncEmitter = events.NewAsyncEventEmitter(handlers, events.AsyncConfig{
			WorkerCount: cfg.Events.Workers,
			QueueSize:   cfg.Events.QueueSize,
		}, logger)
		emitter = asyncEmitter
	}

	reviewService := review.NewReviewService(itemStore, srsService, emitter, reviewConfig(cfg), logger)

	return &application{
		config:        cfg,
		logger:        logger,
		db:            db,
		itemStore:     itemStore,
		srsService:    srsService,
		eventEmitter:  emitter,
		asyncEmitter:  asyncEmitter,
		reviewService: reviewService,
		jwtService:    jwtService,
	}, nil
}

// cleanup drains pending events, then releases the database.
func (app *application) cleanup() {
	if app.asyncEmitter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		if err := app.asyncEmitter.Close(ctx); err != nil {
			app.logger.Error("failed to drain event queue", "error", err)
		}
		cancel()
	}

	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection", "error", err)
		return
	}
	app.logger.Info("database connection closed")
}
