package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	ruleValidations      metric.Int64Counter
	ruleViolations       metric.Int64Counter
	constraintChecks     metric.Int64Counter
	constraintViolations metric.Int64Counter
	artifactsSaved       metric.Int64Counter
	artifactFailures     metric.Int64Counter
	tempFilesSwept       metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http", "http/protobuf":
		return otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "keepsake"
	}
	meter := provider.Meter(name)

	ruleValidations, err := meter.Int64Counter("customization_rule_validations_total",
		metric.WithDescription("Customization selections validated against product rules"))
	if err != nil {
		return nil, err
	}
	ruleViolations, err := meter.Int64Counter("customization_rule_violations_total",
		metric.WithDescription("Rule violations by kind"))
	if err != nil {
		return nil, err
	}
	constraintChecks, err := meter.Int64Counter("cart_constraint_checks_total",
		metric.WithDescription("Carts validated against item constraints"))
	if err != nil {
		return nil, err
	}
	constraintViolations, err := meter.Int64Counter("cart_constraint_violations_total",
		metric.WithDescription("Cart constraint violations by type"))
	if err != nil {
		return nil, err
	}
	artifactsSaved, err := meter.Int64Counter("artwork_artifacts_saved_total",
		metric.WithDescription("Embedded artwork payloads materialized to files"))
	if err != nil {
		return nil, err
	}
	artifactFailures, err := meter.Int64Counter("artwork_artifact_failures_total",
		metric.WithDescription("Artwork nodes that failed to decode or persist"))
	if err != nil {
		return nil, err
	}
	tempFilesSwept, err := meter.Int64Counter("temp_files_swept_total",
		metric.WithDescription("Temp files removed or failed during TTL sweeps"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ruleValidations:      ruleValidations,
		ruleViolations:       ruleViolations,
		constraintChecks:     constraintChecks,
		constraintViolations: constraintViolations,
		artifactsSaved:       artifactsSaved,
		artifactFailures:     artifactFailures,
		tempFilesSwept:       tempFilesSwept,
	}, nil
}

func (m *Metrics) IncRuleValidation(ctx context.Context, valid bool) {
	if m == nil || m.ruleValidations == nil {
		return
	}
	m.ruleValidations.Add(ctx, 1, metric.WithAttributes(attribute.Bool("valid", valid)))
}

func (m *Metrics) IncRuleViolation(ctx context.Context, kind string) {
	if m == nil || m.ruleViolations == nil {
		return
	}
	m.ruleViolations.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) IncConstraintCheck(ctx context.Context, valid bool) {
	if m == nil || m.constraintChecks == nil {
		return
	}
	m.constraintChecks.Add(ctx, 1, metric.WithAttributes(attribute.Bool("valid", valid)))
}

func (m *Metrics) IncConstraintViolation(ctx context.Context, constraintType string) {
	if m == nil || m.constraintViolations == nil {
		return
	}
	m.constraintViolations.Add(ctx, 1, metric.WithAttributes(attribute.String("type", constraintType)))
}

func (m *Metrics) IncArtifactSaved(ctx context.Context) {
	if m == nil || m.artifactsSaved == nil {
		return
	}
	m.artifactsSaved.Add(ctx, 1)
}

func (m *Metrics) IncArtifactFailure(ctx context.Context, reason string) {
	if m == nil || m.artifactFailures == nil {
		return
	}
	m.artifactFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) AddSweptFiles(ctx context.Context, outcome string, n int64) {
	if m == nil || m.tempFilesSwept == nil || n <= 0 {
		return
	}
	m.tempFilesSwept.Add(ctx, n, metric.WithAttributes(attribute.String("outcome", outcome)))
}
