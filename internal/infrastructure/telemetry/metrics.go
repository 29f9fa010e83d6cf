package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
	config   Config
}

// NewMeterProvider creates and configures a MeterProvider.
// When telemetry is disabled it returns a no-op provider.
func NewMeterProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{
		logger: logger,
		config: cfg,
	}

	if !cfg.Enabled {
		logger.Info("Telemetry disabled, using no-op meter provider")
		return mp, nil
	}

	exporterOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(15*time.Second))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint))

	return mp, nil
}

// Shutdown flushes pending metrics and shuts the provider down.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return mp.provider.Shutdown(shutdownCtx)
}

// AppMetrics holds the application-level instruments.
type AppMetrics struct {
	crudOperations metric.Int64Counter
	importRows     metric.Int64Counter
	importDuration metric.Float64Histogram
	loginAttempts  metric.Int64Counter
}

// NewAppMetrics creates the application instruments on the global meter.
func NewAppMetrics() (*AppMetrics, error) {
	meter := otel.GetMeterProvider().Meter(TracerName)

	crudOps, err := meter.Int64Counter("crud.operations",
		metric.WithDescription("CRUD operations by entity, operation and outcome"))
	if err != nil {
		return nil, err
	}
	importRows, err := meter.Int64Counter("import.rows",
		metric.WithDescription("Rows ingested by import batches"))
	if err != nil {
		return nil, err
	}
	importDuration, err := meter.Float64Histogram("import.duration",
		metric.WithDescription("Import batch duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	loginAttempts, err := meter.Int64Counter("auth.login_attempts",
		metric.WithDescription("Login attempts by outcome"))
	if err != nil {
		return nil, err
	}

	return &AppMetrics{
		crudOperations: crudOps,
		importRows:     importRows,
		importDuration: importDuration,
		loginAttempts:  loginAttempts,
	}, nil
}

// RecordCRUDOperation counts one CRUD call.
func (m *AppMetrics) RecordCRUDOperation(ctx context.Context, entity, operation string, success bool) {
	if m == nil {
		return
	}
	m.crudOperations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	))
}

// RecordImport records the size and duration of one import batch.
func (m *AppMetrics) RecordImport(ctx context.Context, rows int, inserted int, d time.Duration) {
	if m == nil {
		return
	}
	m.importRows.Add(ctx, int64(inserted), metric.WithAttributes(
		attribute.Int("batch_rows", rows),
	))
	m.importDuration.Record(ctx, d.Seconds())
}

// RecordLoginAttempt counts one login attempt.
func (m *AppMetrics) RecordLoginAttempt(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.loginAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
	))
}
