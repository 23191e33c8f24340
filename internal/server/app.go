// Package server initializes and runs the account service: configuration,
// database and migrations, services, and the HTTP endpoint, with graceful
// shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nprofyr/bwg-auth/internal/logging"
	"github.com/nprofyr/bwg-auth/internal/server/config"
	"github.com/nprofyr/bwg-auth/internal/server/httpapi"
	"github.com/nprofyr/bwg-auth/internal/server/repositories/repomanager"
	"github.com/nprofyr/bwg-auth/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	userService *services.UserService
	httpServer  *httpapi.HTTPServer
	closeDB     func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	us := services.NewUserService(db, rm, cfg)
	hs := httpapi.NewHTTPServer(cfg, logger, us)

	return &App{
		config:      cfg,
		logger:      logger,
		userService: us,
		httpServer:  hs,
		closeDB:     db.Close,
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

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.closeDB(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
