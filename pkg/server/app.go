package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	drepo "ArbPilot/internal/domain/repository"
	"ArbPilot/internal/usecase"
	pkgch "ArbPilot/pkg/clickhouse"
	"ArbPilot/pkg/config"
	xhttp "ArbPilot/pkg/http"
	applogger "ArbPilot/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	supervisor *usecase.Supervisor
	handler    xhttp.Handler
	intents    drepo.IntentPublisher
	rdb        *redis.Client
	chClient   *pkgch.Client // nil when the journal is disabled
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	supervisor *usecase.Supervisor,
	handler xhttp.Handler,
	intents drepo.IntentPublisher,
	rdb *redis.Client,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		supervisor: supervisor,
		handler:    handler,
		intents:    intents,
		rdb:        rdb,
		chClient:   chClient,
	}
}

// Run starts the application and blocks until interrupted or until the
// supervisor exits.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.logger),
	)

	supDone := make(chan error, 1)
	go func() {
		supDone <- a.supervisor.Run(ctx)
	}()

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("arbpilot started",
		applogger.String("environment", a.cfg.Environment),
		applogger.Int("http_port", a.cfg.Server.Port),
		applogger.Strings("streams", a.cfg.Streams))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received", applogger.String("signal", sig.String()))
	case err := <-supDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("supervisor exited", applogger.Error(err))
		}
	}

	cancel()
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if err := a.intents.Close(); err != nil {
		a.logger.Warn("intent publisher close error", applogger.Error(err))
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Warn("redis close error", applogger.Error(err))
	}

	a.logger.Info("shutdown complete")
	return nil
}
