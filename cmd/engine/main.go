// filename: cmd/engine/main.go
// NovaSec Engine - Entry Point

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/novasec/engine/internal/adminapi/routes"
	"github.com/novasec/engine/internal/adminapi/server"
	"github.com/novasec/engine/internal/builder/helpers"
	"github.com/novasec/engine/internal/catalog"
	"github.com/novasec/engine/internal/common/ch"
	"github.com/novasec/engine/internal/common/config"
	"github.com/novasec/engine/internal/common/logging"
	"github.com/novasec/engine/internal/common/nats"
	"github.com/novasec/engine/internal/common/pg"
	"github.com/novasec/engine/internal/common/tls"
	"github.com/novasec/engine/internal/environment"
	"github.com/novasec/engine/internal/kvdb"
	"github.com/novasec/engine/internal/router"
)

func main() {
	configPath := flag.String("config", os.Getenv("NOVASEC_CONFIG"), "path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	// Initialize logger
	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}

	logger.Info("Starting NovaSec Engine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]routes.Check{}

	// KVDB для хелперов kvdb_*
	var store kvdb.Store = kvdb.NewMemoryStore()
	if cfg.KVDB.Backend == config.BackendRedis {
		redisStore, err := kvdb.NewRedisStore(kvdb.RedisConfig{
			Addr:      cfg.GetRedisAddr(),
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			Timeout:   cfg.Redis.Timeout,
			KeyPrefix: cfg.KVDB.KeyPrefix,
		}, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		store = redisStore
		checks["redis"] = redisStore.Ping
	}

	reg, err := helpers.NewRegistry(helpers.Deps{
		KVDB:        store,
		KVDBTimeout: cfg.KVDB.Timeout,
		Logger:      logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to register helpers")
	}

	// Каталог
	var assets catalog.Store
	switch cfg.Catalog.Backend {
	case config.BackendPostgres:
		pgClient, err := pg.NewClient(ctx, cfg.PostgreSQL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to PostgreSQL")
		}
		defer pgClient.Close()
		checks["postgresql"] = pgClient.Ping

		assets, err = catalog.NewPostgresStore(ctx, pgClient)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize PostgreSQL catalog")
		}
	default:
		assets, err = catalog.NewFileStore(cfg.Catalog.Path)
		if err != nil {
			logger.WithError(err).Fatal("Failed to open catalog directory")
		}
	}

	// Метрики
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := router.NewMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem, promRegistry)

	// Окружение
	rt := router.New(cfg.Catalog.Environment, assets, environment.NewBuilder(reg, logger), metrics, logger)
	if _, err := rt.Reload(ctx); err != nil {
		// сервис поднимается без окружения; его можно загрузить через API
		logger.WithError(err).Error("Initial environment build failed")
	}

	var wg sync.WaitGroup

	if cfg.Catalog.Backend == config.BackendFile && cfg.Catalog.Watch {
		watcher, err := catalog.NewWatcher(cfg.Catalog.Path, cfg.Catalog.Debounce, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to start catalog watcher")
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := watcher.Watch(ctx, func() error {
				_, err := rt.Reload(ctx)
				return err
			})
			if err != nil && ctx.Err() == nil {
				logger.WithError(err).Error("Catalog watcher stopped")
			}
		}()
	}

	// Выходы пула
	var outputs []router.Output
	var natsClient *nats.Client
	if cfg.NATS.Enabled {
		natsConfig := cfg.NATS.Config
		natsConfig.TLS, err = tls.ClientConfig(cfg.TLS, "")
		if err != nil {
			logger.WithError(err).Fatal("Invalid TLS configuration for NATS")
		}
		natsClient, err = nats.NewClient(natsConfig, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize NATS client")
		}
		defer natsClient.Close()
		checks["nats"] = func(context.Context) error {
			if !natsClient.IsConnected() {
				return errNATSDisconnected
			}
			return nil
		}
		if cfg.Router.OutputSubject != "" {
			outputs = append(outputs, router.NewNATSOutput(natsClient, cfg.Router.OutputSubject))
		}
	}

	if cfg.ClickHouse.Enabled {
		chClient, err := ch.NewClient(ctx, cfg.ClickHouse.Config)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to ClickHouse")
		}
		defer chClient.Close()
		checks["clickhouse"] = chClient.Ping

		if err := chClient.Exec(ctx, router.SinkSchema(cfg.ClickHouse.Table)); err != nil {
			logger.WithError(err).Fatal("Failed to create processed events table")
		}
		sink := router.NewClickHouseSink(chClient, router.SinkConfig{
			Table:         cfg.ClickHouse.Table,
			BatchSize:     cfg.ClickHouse.BatchSize,
			FlushInterval: cfg.ClickHouse.FlushInterval,
		}, logger)
		outputs = append(outputs, sink)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Run(ctx)
		}()
	}

	pool := router.NewPool(rt, router.PoolConfig{
		Workers:     cfg.Router.Workers,
		QueueSize:   cfg.Router.QueueSize,
		OnlyMatched: cfg.Router.OnlyMatched,
	}, metrics, logger, outputs...)
	pool.Start(ctx)

	var feed *router.Feed
	if natsClient != nil {
		feed = router.NewFeed(natsClient, pool, cfg.Router.InputSubject, cfg.Router.QueueGroup, logger)
		if err := feed.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to subscribe to input subject")
		}
	}

	// Admin API
	serverTLS, err := tls.ServerConfig(cfg.TLS)
	if err != nil {
		logger.WithError(err).Fatal("Invalid TLS configuration for admin API")
	}
	api := server.NewServer(&server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		LogLevel:     cfg.Logging.Level,
		APIKeyHash:   cfg.API.APIKeyHash,
		RateLimit: server.RateLimitConfig{
			RequestsPerMinute: cfg.Server.RateLimit,
			BlockDuration:     cfg.Server.RateLimitBlock,
		},
		TLS: serverTLS,
	}, server.Dependencies{
		Router:   rt,
		Store:    assets,
		Registry: reg,
		Gatherer: promRegistry,
		Checks:   checks,
	}, logger)

	go func() {
		if err := api.Start(); err != nil {
			logger.WithError(err).Error("Admin API server error")
			cancel()
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	logger.Info("Shutting down NovaSec Engine")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := api.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Admin API shutdown failed")
	}

	// порядок: источник, пул (дожидается выходов), затем финальный сброс синка
	if feed != nil {
		if err := feed.Stop(); err != nil {
			logger.WithError(err).Warn("Failed to unsubscribe from input subject")
		}
	}
	pool.Stop()
	cancel()
	wg.Wait()
}
