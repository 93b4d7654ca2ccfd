package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/handlers"
	"github.com/Ramsey-B/clover/pkg/activity"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/federation"
	"github.com/Ramsey-B/clover/pkg/health"
	"github.com/Ramsey-B/clover/pkg/httpclient"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/queue"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/registry"
	"github.com/Ramsey-B/clover/pkg/repositories"
	"github.com/Ramsey-B/clover/pkg/reviews"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/tenantclient"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
	"github.com/Ramsey-B/clover/pkg/trust"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setupTracing(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	var (
		db          database.DB
		redisClient *redis.Client
		producer    *kafka.Producer
		processor   *queue.Processor
		checker     *health.Checker
		e           *echo.Echo
	)

	manager := startup.NewManager(logger, cfg.StartupMaxAttempts)

	manager.Add(startup.Func{
		DependencyName: "database",
		StartFunc: func(ctx context.Context) error {
			var err error
			db, err = database.Connect(ctx, database.ConnectionConfig{
				Driver:          cfg.DatabaseDriver,
				Host:            cfg.DatabaseHost,
				Port:            cfg.DatabasePort,
				UserName:        cfg.DatabaseUserName,
				Password:        cfg.DatabasePassword,
				Name:            cfg.DatabaseName,
				SSLMode:         cfg.DatabaseSSLMode,
				MaxOpenConns:    cfg.DatabaseMaxOpenConns,
				MaxIdleConns:    cfg.DatabaseMaxIdleConns,
				ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
			}, logger)
			if err != nil {
				return err
			}
			return migrateDatabase(cfg, db, logger)
		},
		StopFunc: func(ctx context.Context) error {
			return db.Close()
		},
	})

	manager.Add(startup.Func{
		DependencyName: "redis",
		StartFunc: func(ctx context.Context) error {
			var err error
			redisClient, err = redis.NewClient(redis.Config{
				Host:     cfg.RedisHost,
				Port:     cfg.RedisPort,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			}, logger)
			return err
		},
		StopFunc: func(ctx context.Context) error {
			return redisClient.Close()
		},
	})

	manager.Add(startup.Func{
		DependencyName: "kafka",
		StartFunc: func(ctx context.Context) error {
			producer = kafka.NewProducer(kafka.ProducerConfig{
				Brokers:     strings.Split(cfg.KafkaBrokers, ","),
				Topic:       cfg.KafkaFederationTopic,
				Compression: cfg.KafkaCompression,
			}, logger)
			return nil
		},
		StopFunc: func(ctx context.Context) error {
			return producer.Close()
		},
	})

	manager.Add(startup.Func{
		DependencyName: "queue",
		Requires:       []string{"database", "redis", "kafka"},
		StartFunc: func(ctx context.Context) error {
			streams := redis.NewStreams(redisClient)
			if err := streams.CreateConsumerGroup(ctx, cfg.RedisStreamsJobQueue, cfg.RedisStreamsConsumerGroup); err != nil {
				return err
			}

			engine := newTrustEngine(cfg, db, redisClient, producer, logger)

			processorCfg := queue.DefaultProcessorConfig()
			processorCfg.Stream = cfg.RedisStreamsJobQueue
			processorCfg.ConsumerGroup = cfg.RedisStreamsConsumerGroup
			if cfg.RedisStreamsConsumerName != "" {
				processorCfg.ConsumerName = cfg.RedisStreamsConsumerName
			}
			processorCfg.WorkerCount = cfg.QueueWorkerCount

			processor = queue.NewProcessor(streams, engine, processorCfg, logger)
			return processor.Start(ctx)
		},
		StopFunc: func(ctx context.Context) error {
			return processor.Stop(ctx)
		},
	})

	manager.Add(startup.Func{
		DependencyName: "http-server",
		Requires:       []string{"database", "redis", "kafka"},
		StartFunc: func(ctx context.Context) error {
			e = buildServer(cfg, db, redisClient, producer, logger)
			checker = health.NewChecker(db, redisClient, version)
			checker.RegisterRoutes(e)

			go func() {
				addr := fmt.Sprintf(":%d", cfg.Port)
				if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
					logger.WithError(err).Error("HTTP server stopped unexpectedly")
					os.Exit(1)
				}
			}()

			checker.SetReady(true)
			return nil
		},
		StopFunc: func(ctx context.Context) error {
			checker.SetReady(false)
			return e.Shutdown(ctx)
		},
	})

	if err := manager.Start(ctx); err != nil {
		logger.WithError(err).Error("Startup failed")
		os.Exit(1)
	}

	logger.WithField("port", cfg.Port).Infof("%s listening on port %d", cfg.AppName, cfg.Port)

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := manager.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}

	logger.Info("Shutdown complete")
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapCfg zap.Config
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = level
	}

	zapLogger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func setupTracing(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(sdkresource.NewSchemaless(
			attribute.String("service.name", cfg.AppName),
			attribute.String("service.version", version),
		)),
	}

	var exporter sdktrace.SpanExporter = &exporters.ConsoleExporter{}
	if cfg.OTLPEnabled {
		otlp, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		exporter = otlp
	}
	opts = append(opts, sdktrace.WithBatcher(exporter))

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	return tp.Shutdown, nil
}

func migrateDatabase(cfg config.Config, db database.DB, logger ectologger.Logger) error {
	instance, ok := db.(*database.DatabaseInstance)
	if !ok {
		return fmt.Errorf("database instance does not expose a migration driver")
	}

	driver, err := migratepg.WithInstance(instance.DB.DB, &migratepg.Config{})
	if err != nil {
		return err
	}

	svc := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})

	return svc.Migrate(cfg.DatabaseName, driver)
}

func newTrustEngine(
	cfg config.Config,
	db database.DB,
	redisClient *redis.Client,
	producer *kafka.Producer,
	logger ectologger.Logger,
) *trust.Engine {
	emitter := events.NewEmitter(producer, logger)
	locker := redis.NewLocker(redisClient, "trust:")

	return trust.NewEngine(
		repositories.NewTrustScoreRepository(db, logger),
		repositories.NewReviewRepository(db, logger),
		repositories.NewTransactionRepository(db, logger),
		locker,
		emitter,
		trust.Config{
			Weights: trust.Weights{
				ReviewAverage:       cfg.TrustReviewAverageWeight,
				ReviewCount:         cfg.TrustReviewCountWeight,
				ReviewCountCap:      cfg.TrustReviewCountCap,
				TransactionCount:    cfg.TrustTransactionCountWeight,
				TransactionCountCap: cfg.TrustTransactionCountCap,
				CrossTenantBonus:    cfg.TrustCrossTenantBonus,
			},
			Staleness: cfg.TrustStaleness,
			LockTTL:   cfg.TrustLockTTL,
		},
		logger,
	)
}

func buildServer(
	cfg config.Config,
	db database.DB,
	redisClient *redis.Client,
	producer *kafka.Producer,
	logger ectologger.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	emitter := events.NewEmitter(producer, logger)
	streams := redis.NewStreams(redisClient)

	tenantRepo := repositories.NewTenantRepository(db, logger)
	partnershipRepo := repositories.NewPartnershipRepository(db, logger)
	settingsRepo := repositories.NewSettingsRepository(db, logger)
	activityRepo := repositories.NewActivityRepository(db, logger)
	transactionRepo := repositories.NewTransactionRepository(db, logger)
	reviewRepo := repositories.NewReviewRepository(db, logger)

	reg := registry.NewRegistry(tenantRepo, partnershipRepo, emitter, logger)

	partnerClient := tenantclient.NewHTTPClient(
		httpclient.NewClient(httpclient.Config{Timeout: cfg.TenantClientTimeout}, logger),
		logger,
	)

	router := federation.NewRouter(reg, partnerClient, federation.NewSupersedeTracker(), federation.RouterConfig{
		Concurrency:    cfg.SearchConcurrency,
		PartnerTimeout: cfg.SearchPartnerTimeout,
		GlobalTimeout:  cfg.SearchGlobalTimeout,
		DefaultLimit:   cfg.SearchDefaultLimit,
		MaxLimit:       cfg.SearchMaxLimit,
	}, logger)

	aggregator := activity.NewAggregator(activityRepo, transactionRepo, logger)
	reviewSubsystem := reviews.NewSubsystem(reviewRepo, transactionRepo, streams, cfg.RedisStreamsJobQueue, emitter, logger)
	trustEngine := newTrustEngine(cfg, db, redisClient, producer, logger)

	api := e.Group("/api/v1")
	if cfg.AuthEnabled {
		api.Use(middleware.Authentication(logger, cfg.AuthIssuerURL, cfg.AuthClientID))
	}

	handlers.NewSearchHandler(router, logger).Register(api.Group("/federation"))
	handlers.NewSettingsHandler(settingsRepo, logger).Register(api.Group("/federation/settings"))
	handlers.NewPartnershipHandler(reg, logger).Register(api.Group("/partnerships"))
	handlers.NewActivityHandler(aggregator, logger).Register(api.Group("/activity"))
	handlers.NewReviewHandler(reviewSubsystem, logger).Register(api.Group("/reviews"))
	handlers.NewMemberHandler(reviewSubsystem, trustEngine, logger).Register(api.Group("/members"))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
