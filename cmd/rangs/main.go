package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rangkeep/rangs/internal/api/handlers"
	"github.com/rangkeep/rangs/internal/audit"
	"github.com/rangkeep/rangs/internal/catalog"
	"github.com/rangkeep/rangs/internal/config"
	"github.com/rangkeep/rangs/internal/dbmanager"
	"github.com/rangkeep/rangs/internal/logger"
	"github.com/rangkeep/rangs/internal/model"
	"github.com/rangkeep/rangs/internal/repo"
	"github.com/rangkeep/rangs/internal/router"
	"github.com/rangkeep/rangs/internal/service"
	"github.com/rangkeep/rangs/internal/storage"
	"github.com/rangkeep/rangs/internal/storage/memory"
	"github.com/rangkeep/rangs/internal/tracker"
)

const shutdownTimeout = 5 * time.Second

func main() {
	_ = godotenv.Load()

	bootstrapLog := logger.New(slog.LevelInfo)
	cfg := config.NewBuilder(bootstrapLog).
		FromEnv().
		FromFlags().
		GetConfig()
	log := logger.New(logger.ParseLevel(cfg.LogLevel))
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.LogAttrs(context.Background(),
			slog.LevelError,
			"server stopped with error",
			slog.Any(model.KeyLoggerError, err),
		)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.Ledger
	var ping func(context.Context) error
	if cfg.DatabaseURI == "" {
		log.LogAttrs(ctx, slog.LevelWarn,
			"no DATABASE_URI set, using in-memory storage")
		store = memory.New()
	} else {
		db := dbmanager.New(cfg.DatabaseURI, log)
		db.Connect(ctx).Ping(ctx).ApplyMigrations(ctx)
		if err := db.Error(); err != nil {
			return err
		}
		defer db.Close()

		pool, err := db.GetPool(ctx)
		if err != nil {
			return err
		}
		store = repo.NewLedgerRepository(pool, log)
		ping = pool.Ping
	}

	sink := audit.NewSlogSink(log)
	awards := service.NewAwardService(store, sink, log)
	redemptions := service.NewRedemptionService(
		store, catalog.New(cfg.CatalogAddr), sink, log)
	balances := service.NewBalanceService(store, log)

	if cfg.TrackerAddr != "" {
		agent := tracker.New(
			tracker.NewClient(cfg.TrackerAddr), awards, cfg.PollInterval, log)
		go agent.Run(ctx)
	}

	cr := router.New(cfg, log)
	cr.SetRouter(handlers.New(awards, redemptions, balances, ping, log))

	srv := &http.Server{
		Addr:    cfg.RunAddr,
		Handler: cr.GetRouter(),
		BaseContext: func(_ net.Listener) context.Context {
			return logger.WithContext(context.Background(), log)
		},
	}

	errCh := make(chan error, 1)
	go func() {
		log.LogAttrs(ctx, slog.LevelInfo,
			"server started", slog.String("addr", cfg.RunAddr))
		if err := srv.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.LogAttrs(context.Background(), slog.LevelInfo, "server stopped")
	return nil
}
