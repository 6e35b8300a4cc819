// Package server initializes and runs the vault server. It wires the
// configured storage backend, the breach oracle, and the vault service
// into the TCP endpoint, and handles graceful shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/panayot-marinov/password-vault/internal/logging"
	"github.com/panayot-marinov/password-vault/internal/server/breach"
	"github.com/panayot-marinov/password-vault/internal/server/config"
	"github.com/panayot-marinov/password-vault/internal/server/repomanager"
	"github.com/panayot-marinov/password-vault/internal/server/tcp"
	"github.com/panayot-marinov/password-vault/internal/server/vault"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   repomanager.RepositoryManager
	service *vault.Service
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	repos, err := newRepositoryManager(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	service := vault.NewService(repos.Accounts(), repos.Credentials(), newBreachOracle(cfg), logger)

	return &App{config: cfg, logger: logger, repos: repos, service: service}, nil
}

func newRepositoryManager(ctx context.Context, cfg *config.Config) (repomanager.RepositoryManager, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		return repomanager.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	case config.StorageMemory:
		return repomanager.NewInMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage)
	}
}

func newBreachOracle(cfg *config.Config) breach.Oracle {
	if !cfg.BreachCheckEnabled {
		return &breach.Static{}
	}
	return breach.NewHIBPClient(cfg.BreachCheckEndpoint, cfg.BreachCheckTimeout)
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

func (app *App) startTCPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := tcp.NewServer(app.config.EndpointAddr, app.service, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startTCPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
