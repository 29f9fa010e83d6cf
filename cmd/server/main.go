// Command server runs the CRM backend HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/estatecrm/backend/internal/application/crud"
	identityapp "github.com/estatecrm/backend/internal/application/identity"
	importapp "github.com/estatecrm/backend/internal/application/importing"
	notifapp "github.com/estatecrm/backend/internal/application/notification"
	"github.com/estatecrm/backend/internal/domain/registry"
	"github.com/estatecrm/backend/internal/infrastructure/auth"
	"github.com/estatecrm/backend/internal/infrastructure/cache"
	"github.com/estatecrm/backend/internal/infrastructure/config"
	csvimport "github.com/estatecrm/backend/internal/infrastructure/importing"
	"github.com/estatecrm/backend/internal/infrastructure/logger"
	"github.com/estatecrm/backend/internal/infrastructure/persistence"
	"github.com/estatecrm/backend/internal/infrastructure/storage"
	"github.com/estatecrm/backend/internal/infrastructure/telemetry"
	"github.com/estatecrm/backend/internal/interfaces/http/handler"
	"github.com/estatecrm/backend/internal/interfaces/http/router"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting CRM backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Telemetry providers. Each is a no-op when telemetry is disabled.
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdownTelemetry(tracerProvider.Shutdown, log, "tracer provider")

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer shutdownTelemetry(meterProvider.Shutdown, log, "meter provider")

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer shutdownTelemetry(loggerProvider.Shutdown, log, "logger provider")

	if loggerProvider.IsEnabled() {
		log = loggerProvider.BridgeLogger(log)
		log.Info("Log export to collector enabled")
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingEndpoint,
		ApplicationName: cfg.App.Name,
	}, log)
	if err != nil {
		log.Warn("Failed to start profiler, continuing without profiling", zap.Error(err))
	} else if profiler.IsEnabled() {
		defer func() {
			if err := profiler.Stop(); err != nil {
				log.Error("Error stopping profiler", zap.Error(err))
			}
		}()
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to link spans to profiles", zap.Error(err))
		}
	}

	metrics, err := telemetry.NewAppMetrics()
	if err != nil {
		log.Warn("Failed to initialize application metrics", zap.Error(err))
	}

	// Database.
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := db.DB.Use(otelgorm.NewPlugin()); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected")

	// Repositories.
	recordRepo := persistence.NewGormRecordRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	credentialRepo := persistence.NewGormCredentialRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	importHistoryRepo := persistence.NewGormImportHistoryRepository(db.DB)

	// Entity registry.
	reg := registry.New()
	log.Info("Entity registry built", zap.Int("entities", len(reg.List())))

	// Idempotency store for import replays.
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Import payload archiver.
	var archiver importapp.PayloadArchiver
	if cfg.Storage.Enabled {
		s3Archiver, err := storage.NewS3Archiver(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize payload archiver", zap.Error(err))
		}
		archiver = s3Archiver
		log.Info("Import payload archiving enabled", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		archiver = storage.NewNoopArchiver()
	}

	// Application services.
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, credentialRepo, jwtService,
		identityapp.WithMetrics(metrics),
		identityapp.WithLogger(log),
	)
	notificationService := notifapp.NewService(notificationRepo, log)
	crudService := crud.NewService(recordRepo,
		crud.WithNotifier(notificationService),
		crud.WithMetrics(metrics),
		crud.WithLogger(log),
	)

	importOpts := []importapp.Option{
		importapp.WithArchiver(archiver),
		importapp.WithIdempotencyStore(idempotencyStore, cfg.Import.IdempotencyTTL),
		importapp.WithMetrics(metrics),
		importapp.WithLogger(log),
		importapp.WithMaxRows(cfg.Import.MaxRows),
	}
	if cfg.Import.SheetBaseURL != "" {
		importOpts = append(importOpts, importapp.WithSheetFetcher(
			csvimport.NewHTTPSheetFetcher(cfg.Import.SheetBaseURL, cfg.Import.FetchTimeout)))
	}
	importService := importapp.NewService(reg, recordRepo, importHistoryRepo, importOpts...)

	if cfg.Auth.InsecureLocal {
		log.Warn("Authentication is DISABLED (auth.insecure_local). Development only.")
	}

	// HTTP layer.
	base := handler.NewBase(log, cfg.IsDevelopment())
	engine := router.New(router.Dependencies{
		Config:        cfg,
		Logger:        log,
		Registry:      reg,
		Validator:     authService,
		Auth:          handler.NewAuthHandler(base, authService),
		Crud:          handler.NewCrudHandler(base, reg, crudService),
		Command:       handler.NewCommandHandler(base, importService),
		Notifications: handler.NewNotificationHandler(base, notificationService),
		System:        handler.NewSystemHandler(base, db.DB, cfg.App.Name, version),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func shutdownTelemetry(shutdown func(context.Context) error, log *zap.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Error("Error shutting down "+name, zap.Error(err))
	}
}
