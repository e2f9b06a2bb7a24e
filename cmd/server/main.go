package main

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/spotsync/backend/api/handler"
	"github.com/spotsync/backend/internal/changedetect"
	"github.com/spotsync/backend/internal/config"
	"github.com/spotsync/backend/internal/eventlog"
	"github.com/spotsync/backend/internal/infrastructure/feeds"
	"github.com/spotsync/backend/internal/infrastructure/monitor"
	pgInfra "github.com/spotsync/backend/internal/infrastructure/postgres"
	redisInfra "github.com/spotsync/backend/internal/infrastructure/redis"
	"github.com/spotsync/backend/internal/infrastructure/searchindex"
	"github.com/spotsync/backend/internal/metrics"
	"github.com/spotsync/backend/internal/router"
	"github.com/spotsync/backend/internal/services"
	"github.com/spotsync/backend/internal/services/lifecycle"
	"github.com/spotsync/backend/internal/translator"
	"github.com/spotsync/backend/pkg/httpcontext"
	"github.com/spotsync/backend/pkg/logger"
	"github.com/spotsync/backend/repository/postgres"
	redisRepo "github.com/spotsync/backend/repository/redis"
	"github.com/spotsync/backend/usecase/ingest"
	"github.com/spotsync/backend/usecase/reconcile"
	searchUC "github.com/spotsync/backend/usecase/search"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	index, err := searchindex.Open(cfg.Index.Path)
	if err != nil {
		zapLogger.Fatal("failed to open search index", zap.Error(err))
	}
	manager.Register("search_index", func(ctx context.Context) error {
		return index.Close()
	})

	mon := monitor.New(pool, redisClient, index, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	appMetrics := metrics.New(registry)

	facilityRepo := postgres.NewFacilityRepository(pool)
	fingerprints := redisRepo.NewFingerprintStore(redisClient, redisRepo.FingerprintTTLs{
		Identity:     cfg.Detection.IdentityTTL,
		Operation:    cfg.Detection.OperationTTL,
		Availability: cfg.Detection.AvailabilityTTL,
	})
	queryCache := redisRepo.NewQueryCache(redisClient)

	publisher := eventlog.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, zapLogger)
	manager.Register("event_publisher", func(ctx context.Context) error {
		return publisher.Close()
	})

	detector := changedetect.New(fingerprints, zapLogger)
	trans := translator.New(zapLogger)

	var (
		cityFeed    ingest.CityParkingFeed
		tsFeed      ingest.TSParkingFeed
		chargerFeed ingest.ChargerFeed
	)
	if cfg.Feeds.CityParkingURL != "" {
		cityFeed = feeds.NewCityParkingClient(cfg.Feeds.CityParkingURL, cfg.Feeds.CityAPIKey, cfg.Feeds.RequestTimeout, zapLogger)
	}
	if cfg.Feeds.TSParkingURL != "" {
		tsFeed = feeds.NewTSParkingClient(cfg.Feeds.TSParkingURL, cfg.Feeds.TSAPIKey, cfg.Feeds.RequestTimeout, zapLogger)
	}
	if cfg.Feeds.ChargerURL != "" {
		chargerFeed = feeds.NewChargerClient(cfg.Feeds.ChargerURL, cfg.Feeds.ChargerAPIKey, cfg.Feeds.RequestTimeout, zapLogger)
	}

	collector := ingest.NewCollector(trans, detector, publisher,
		cityFeed, tsFeed, chargerFeed,
		cfg.Collector.PageSize, cfg.Collector.MaxPages, appMetrics, zapLogger)

	var runner apiHandler.CollectionRunner
	if cfg.Collector.Enabled {
		collectorService, err := services.NewCollectorService(collector, services.CollectorConfig{
			CityParking:     cfg.Collector.CityParkingSchedule,
			ParkingMeta:     cfg.Collector.ParkingMetaSchedule,
			ParkingRealtime: cfg.Collector.ParkingRealtimeSchedule,
			ChargerMeta:     cfg.Collector.ChargerMetaSchedule,
			ChargerStatus:   cfg.Collector.ChargerStatusSchedule,
		}, zapLogger)
		if err != nil {
			zapLogger.Fatal("collector setup failed", zap.Error(err))
		}
		collectorService.Start()
		manager.Register("collector", func(ctx context.Context) error {
			collectorService.Stop(ctx)
			return nil
		})
		runner = collectorService

		if cfg.Collector.InitialRun {
			go func() {
				if err := collectorService.RunAll(appCtx); err != nil {
					zapLogger.Warn("initial collection failed", zap.Error(err))
				}
			}()
		}
	}

	projector := reconcile.NewProjector(index, zapLogger)
	reconciler := reconcile.NewReconciler(facilityRepo, projector, fingerprints, appMetrics, zapLogger)

	consumer := eventlog.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID,
		cfg.Kafka.Workers, reconciler.Handle, zapLogger)
	consumer.Start(appCtx)
	manager.Register("event_consumer", func(ctx context.Context) error {
		return consumer.Stop(ctx)
	})

	var inner searchUC.Engine = searchUC.NewIndexEngine(index)
	if cfg.Search.Engine == "store" {
		inner = searchUC.NewStoreEngine(facilityRepo)
		zapLogger.Info("serving search from the canonical store")
	}
	engine := searchUC.NewCachedEngine(inner, queryCache,
		cfg.Cache.TTL, appMetrics, zapLogger)
	searchService := searchUC.NewService(engine, facilityRepo, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Facility: apiHandler.NewFacilityHandler(searchService, ctxAdapter, zapLogger),
		Admin:    apiHandler.NewAdminHandler(facilityRepo, projector, engine, collector, runner, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	var metricsRegistry *prometheus.Registry
	if cfg.HTTP.EnableMetrics {
		metricsRegistry = registry
	}
	r := router.New(handlers, metricsRegistry)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
