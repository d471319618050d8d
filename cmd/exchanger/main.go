package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/SscSPs/exchanger/internal/adapters/providers"
	"github.com/SscSPs/exchanger/internal/adapters/queue/kafka"
	"github.com/SscSPs/exchanger/internal/core/ports/queue"
	portsrepo "github.com/SscSPs/exchanger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/exchanger/internal/core/ports/services"
	"github.com/SscSPs/exchanger/internal/core/services"
	"github.com/SscSPs/exchanger/internal/middleware"
	"github.com/SscSPs/exchanger/internal/platform/config"
	"github.com/SscSPs/exchanger/internal/platform/metrics"
	"github.com/SscSPs/exchanger/internal/repositories/database/boltdb"
	"github.com/SscSPs/exchanger/internal/repositories/database/pgsql"
	"github.com/SscSPs/exchanger/pkg/database"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// configActor is recorded on currencies and providers seeded from configuration.
const configActor = "config"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = middleware.WithLogger(ctx, logger)

	if err := run(ctx, cfg, logger, os.Args[1:]); err != nil {
		logger.Error("Exchanger stopped with error", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

// app is the wired process shared by every command.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	publisher *kafka.Publisher
	services  *portssvc.ServiceContainer
	closers   []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// bootstrap opens the store, wires the services and seeds the configured currencies and providers.
func bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	repos, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s rate store: %w", cfg.StoreDriver, err)
	}
	a.closers = append(a.closers, closeStore)

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	factory := providers.NewFactory(
		repos.ExchangeRateRepo,
		providers.WithBaseRates(cfg.MockBaseRates),
		providers.WithTimeout(cfg.ProviderTimeout),
	)

	// Left nil when no brokers are configured: async backfill is then disabled.
	var backfillQueue queue.BackfillQueue
	if len(cfg.KafkaBrokers) > 0 {
		a.publisher = kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaBackfillTopic)
		backfillQueue = a.publisher
		a.closers = append(a.closers, func() {
			if err := a.publisher.Close(); err != nil {
				logger.Error("Error closing backfill publisher", slog.String("error", err.Error()))
			}
		})
	}

	a.services = services.NewServiceContainer(cfg, repos, factory, backfillQueue, a.metrics)

	if err := seed(middleware.WithActor(ctx, configActor), cfg, a.services); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to seed configuration: %w", err)
	}
	return a, nil
}

// serve exposes /metrics and, when Kafka is configured, runs the backfill worker until ctx is done.
func serve(ctx context.Context, a *app) error {
	g, gctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:              ":" + a.cfg.MetricsPort,
		Handler:           metricsMux(a.registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		a.logger.Info("Metrics server starting", slog.String("port", a.cfg.MetricsPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if a.publisher != nil {
		handler := middleware.StructuredLoggingMiddleware(a.logger)(a.services.Backfill.ProcessBackfillJob)
		consumer := kafka.NewConsumer(a.cfg.KafkaBrokers, a.cfg.KafkaBackfillTopic, a.cfg.KafkaGroupID, handler,
			kafka.WithJobTimeout(a.cfg.BackfillJobTimeout),
			kafka.WithRetry(a.cfg.BackfillJobRetries, time.Second),
			kafka.WithLogger(a.logger),
			kafka.WithMetrics(a.metrics),
		)
		g.Go(func() error {
			defer func() {
				if err := consumer.Close(); err != nil {
					a.logger.Error("Error closing backfill consumer", slog.String("error", err.Error()))
				}
			}()
			a.logger.Info("Backfill worker starting",
				slog.String("topic", a.cfg.KafkaBackfillTopic),
				slog.String("group_id", a.cfg.KafkaGroupID))
			return consumer.Run(gctx)
		})
	}

	err := g.Wait()
	a.logger.Info("Exchanger stopped")
	return err
}

// openStore connects the configured backend and returns its repositories with a close func.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.StoreDriver == config.StoreDriverBolt {
		db, err := boltdb.Open(cfg.BoltPath)
		if err != nil {
			return portsrepo.RepositoryProvider{}, nil, err
		}
		logger.Info("Rate store opened", slog.String("driver", cfg.StoreDriver), slog.String("path", cfg.BoltPath))
		return boltdb.NewRepositoryProvider(db), func() {
			if err := db.Close(); err != nil {
				logger.Error("Error closing rate store", slog.String("error", err.Error()))
			}
		}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.ConnectRetries)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	logger.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		database.ClosePgxPool(dbPool)
		return portsrepo.RepositoryProvider{}, nil, err
	}
	return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool) }, nil
}

// seed writes the configured currencies and replaces the provider table.
func seed(ctx context.Context, cfg *config.Config, container *portssvc.ServiceContainer) error {
	for _, req := range cfg.Currencies {
		if _, err := container.Currency.CreateCurrency(ctx, req, configActor); err != nil {
			return err
		}
	}
	synced, err := container.Provider.SyncProviders(ctx, cfg.Providers, configActor)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(synced))
	for _, p := range synced {
		names = append(names, p.Name)
	}
	middleware.GetLoggerFromCtx(ctx).Info("Configuration seeded",
		slog.Int("currencies", len(cfg.Currencies)),
		slog.String("providers", strings.Join(names, ",")))
	return nil
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
