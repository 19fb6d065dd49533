package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/steliosk/authpool/config"
	"github.com/steliosk/authpool/internal/api"
	"github.com/steliosk/authpool/internal/credential"
	"github.com/steliosk/authpool/internal/dispatcher"
	"github.com/steliosk/authpool/internal/failover"
	"github.com/steliosk/authpool/internal/httpserver"
	"github.com/steliosk/authpool/internal/metrics"
	"github.com/steliosk/authpool/internal/registry"
	"github.com/steliosk/authpool/internal/strategy"
	"github.com/steliosk/authpool/internal/watchdog"
	"github.com/steliosk/authpool/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := credential.NewStore(cfg.Credentials.RepositoryDir, cfg.Credentials.ActiveDir, log)
	reg := registry.New(log)

	bootstrapSlots(store, reg, log)

	if cfg.Credentials.Watch {
		if err := store.Watch(ctx); err != nil {
			log.Warn("credential watcher unavailable", slog.Any("err", err))
		}
	}

	strat := createStrategy(log, cfg.Strategy.Type)

	collector := metrics.NewCollector(256, log)
	collector.Start(ctx)

	controller := failover.NewController(log, reg, store, collector)
	disp := dispatcher.New(log, reg, strat, controller, collector)

	go startWatchdog(ctx, cfg, reg, log)

	surface := api.New(log, store, reg, disp, controller, collector, cfg.API.AuthToken)

	srv, err := httpserver.New(cfg.Server.Address, setupRouter(surface))
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	log.Info("authpool started",
		slog.String("address", cfg.Server.Address),
		slog.String("strategy", string(disp.StrategyKind())),
		slog.Int("slots", reg.Len()))

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting server", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

// bootstrapSlots discovers credentials and builds the registry. Zero
// credentials keeps the process up with an empty slot set; every lease then
// fails with no-eligible-slot until a rescan finds something.
func bootstrapSlots(store *credential.Store, reg *registry.Registry, log *slog.Logger) {
	records, err := store.Discover()
	if err != nil {
		if errors.Is(err, credential.ErrNoCredentials) {
			log.Warn("no credential files discovered, starting with zero slots",
				slog.String("repository_dir", store.RepositoryDir()),
				slog.String("active_dir", store.ActiveDir()))
		} else {
			log.Error("credential discovery failed", slog.Any("err", err))
		}
	}
	reg.Bootstrap(records)
}

func createStrategy(logger *slog.Logger, strategyType string) strategy.Strategy {
	kind, err := strategy.ParseKind(strategyType)
	if err != nil {
		logger.Warn("Unknown strategy, defaulting to round-robin",
			slog.String("requested", strategyType))
		kind = strategy.KindRoundRobin
	}

	strat, err := strategy.New(kind)
	if err != nil {
		return strategy.NewRoundRobinStrategy()
	}
	return strat
}

func startWatchdog(ctx context.Context, cfg *config.Config, reg *registry.Registry, log *slog.Logger) {
	interval, err := time.ParseDuration(cfg.Watchdog.Interval)
	if err != nil {
		log.Error("invalid watchdog interval", slog.Any("err", err))
		return
	}
	maxAge, err := time.ParseDuration(cfg.Watchdog.MaxLeaseAge)
	if err != nil {
		log.Error("invalid watchdog max lease age", slog.Any("err", err))
		return
	}

	watchdog.Watch(ctx, reg, interval, maxAge, log)
}
