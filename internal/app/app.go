package app

import (
	"context"
	"crash_backend/internal/config"
	"crash_backend/internal/config/env"
	"crash_backend/pkg/logger"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const shutdownTimeout = 15 * time.Second

type Options struct {
	// EnvPath - .env файл, отсутствие не ошибка
	EnvPath string
	// ConfigPath - yaml с параметрами игры
	ConfigPath string
}

type App struct {
	opts            Options
	ServiceProvider *ServiceProvider
}

func NewApp(opts Options) *App {
	return &App{opts: opts}
}

func (s *App) init() {
	err := config.Load(s.opts.EnvPath)
	if err != nil {
		logger.Warn("Error loading .env file", "path", s.opts.EnvPath, "err", err)
	}

	logCfg, _ := env.NewLogConfig()
	logger.Init(&logger.Options{Level: logCfg.Level(), TimeFormat: time.StampMilli})

	s.ServiceProvider = newServiceProvider(s.opts.ConfigPath)
}

// Run - сверка журнала, затем движок раундов и HTTP сервер до отмены ctx.
// Начатый раунд доводится до расчёта, потом сервер останавливается
func (s *App) Run(ctx context.Context) error {
	s.init()
	sp := s.ServiceProvider
	defer sp.Close()

	refunded, err := sp.Registry(ctx).Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile wager journal: %w", err)
	}
	if refunded > 0 {
		logger.Warn("Refunded wagers left from previous run", "count", refunded)
	}

	eng := sp.Engine(ctx)
	srv := &http.Server{
		Addr:              sp.HTTPCfg().Address(),
		Handler:           sp.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := eng.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("round engine: %w", err)
		}
	}()

	go func() {
		logger.Info("Starting server", "addr", srv.Addr, "storage", sp.StorageCfg().Backend())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
		logger.Error("Shutting down after failure", "err", err)
	}

	stop()
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if shutErr := srv.Shutdown(shutdownCtx); shutErr != nil {
		logger.Error("Server shutdown failed", "err", shutErr)
	}

	logger.Info("Server stopped")
	return err
}

// Reconcile - только возврат ставок из журнала, без запуска движка
func (s *App) Reconcile(ctx context.Context) (int, error) {
	s.init()
	defer s.ServiceProvider.Close()
	return s.ServiceProvider.Registry(ctx).Reconcile(ctx)
}
