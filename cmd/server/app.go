package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/mnemohq/mnemo-api/internal/config"
	"github.com/mnemohq/mnemo-api/internal/domain/srs"
	"github.com/mnemohq/mnemo-api/internal/events"
	"github.com/mnemohq/mnemo-api/internal/platform/postgres"
	"github.com/mnemohq/mnemo-api/internal/service/auth"
	"github.com/mnemohq/mnemo-api/internal/service/study"
)

// application holds the wired dependency graph of the server.
type application struct {
	config       *config.Config
	logger       *slog.Logger
	db           *sql.DB
	jwtService   auth.JWTService
	studyService study.Service
}

// buildApplication connects the database and wires stores, services, and the
// event pipeline into a runnable application.
func buildApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupAppDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	deckStore := postgres.NewPostgresDeckStore(db, logger)
	stateStore := postgres.NewPostgresReviewStateStore(db, logger)
	sessionStore := postgres.NewPostgresSessionStore(db, logger)
	totalsStore := postgres.NewPostgresTotalsStore(db, logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(events.NewLoggingHandler(logger))

	studyService := study.NewService(study.Config{
		Decks:            deckStore,
		States:           stateStore,
		Sessions:         sessionStore,
		Totals:           totalsStore,
		Scheduler:        srs.NewDefaultService(),
		Emitter:          emitter,
		Logger:           logger,
		AutosaveInterval: time.Duration(cfg.Study.AutosaveSeconds) * time.Second,
		DefaultCardCount: cfg.Study.DefaultCardCount,
	})

	return &application{
		config:       cfg,
		logger:       logger,
		db:           db,
		jwtService:   jwtService,
		studyService: studyService,
	}, nil
}

// run starts the HTTP server and blocks until shutdown.
func (app *application) run() error {
	return app.startHTTPServer(context.Background(), app.setupRouter())
}

// cleanup flushes live sessions and releases resources during shutdown.
func (app *application) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app.studyService.Close(ctx)

	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection", "error", err)
	}
}
