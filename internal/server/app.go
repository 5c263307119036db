// Package server wires the memo service together: configuration, database,
// migrations, services, and the HTTP server, with graceful shutdown on
// SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maoji/memos-service/internal/logging"
	"github.com/maoji/memos-service/internal/server/auth"
	"github.com/maoji/memos-service/internal/server/config"
	"github.com/maoji/memos-service/internal/server/httpapi"
	"github.com/maoji/memos-service/internal/server/mail"
	"github.com/maoji/memos-service/internal/server/repositories/repomanager"
	"github.com/maoji/memos-service/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewDefault()

	db, err := repomanager.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	tokens := auth.NewTokenIssuer([]byte(cfg.SecretKey), cfg.TokenIssuer, cfg.TokenAudience, cfg.TokenValidity)
	sender := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	authz := services.NewAuthorizer(db, rm)

	userSvc := services.NewUserService(db, rm, authz, tokens, cfg, logger)
	memoSvc := services.NewMemoService(db, rm, authz, logger)
	analyticsSvc := services.NewAnalyticsService(db, rm, logger)
	recoverySvc := services.NewRecoveryService(db, rm, sender, cfg, logger)

	handler := httpapi.New(tokens, userSvc, memoSvc, analyticsSvc, recoverySvc, logger)

	return &App{config: cfg, logger: logger, db: db, handler: handler}, nil
}

// Run serves HTTP until ctx is cancelled or an OS signal arrives, then
// drains in-flight requests before returning.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()
	defer app.db.Close()

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.handler,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "server listening", "addr", app.config.EndpointAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
