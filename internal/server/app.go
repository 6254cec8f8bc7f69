// Package server wires the keystore: storage, service and HTTP transport,
// and runs it until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/coinkeeper/internal/logging"
	"github.com/dmitrijs2005/coinkeeper/internal/server/config"
	"github.com/dmitrijs2005/coinkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/coinkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/coinkeeper/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
}

// openPostgres is swapped in tests.
var openPostgres = repomanager.OpenPostgres

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var (
		db *sql.DB
		rm repomanager.RepositoryManager
	)

	switch cfg.Storage {
	case config.StorageMemory:
		rm = repomanager.NewMemoryRepositoryManager()
	default:
		var err error
		db, err = openPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		rm = repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
	}

	ks := services.NewKeystoreService(db, rm, cfg.SharedKeyBytes, logger)

	return &App{
		config:  cfg,
		logger:  logger.With("module", "app"),
		db:      db,
		handler: httpapi.NewRouter(ks, logger, cfg.RequestTimeout),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Serve handles requests on l until ctx is cancelled, then drains
// in-flight requests for up to ShutdownTimeout.
func (app *App) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           app.handler,
		ReadHeaderTimeout: app.config.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", l.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)
	defer app.Close()

	l, err := net.Listen("tcp", app.config.Addr)
	if err != nil {
		return err
	}

	return app.Serve(ctx, l)
}

func (app *App) Close() error {
	if app.db == nil {
		return nil
	}
	err := app.db.Close()
	app.db = nil
	return err
}
