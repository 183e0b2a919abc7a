package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	standingsmetrics "github.com/Black-And-White-Club/judge-standings/app/observability/metrics/standings"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// Config selects the logging, metrics and tracing backends.
type Config struct {
	ServiceName  string
	Environment  string
	LogLevel     string
	OTLPEndpoint string
	OTLPInsecure bool
}

// Provider owns the process-wide backends.
type Provider struct {
	Logger         *slog.Logger
	Prometheus     *prometheus.Registry
	TracerProvider *TracerProvider
}

// Registry holds the per-domain instruments handed to modules.
type Registry struct {
	StandingsMetrics standingsmetrics.StandingsMetrics
	Tracer           trace.Tracer
	Logger           *slog.Logger
}

// Observability is what modules receive at construction.
type Observability struct {
	Provider *Provider
	Registry *Registry
}

// Init builds the logger, the Prometheus registry and the tracer provider.
func Init(ctx context.Context, w io.Writer, cfg Config) (Observability, error) {
	logger := NewLogger(w, cfg.Environment, cfg.LogLevel).With(slog.String("service", cfg.ServiceName))

	tp, err := NewTracerProvider(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.OTLPInsecure)
	if err != nil {
		return Observability{}, fmt.Errorf("failed to init tracing: %w", err)
	}

	registry := NewRegistry()
	return Observability{
		Provider: &Provider{
			Logger:         logger,
			Prometheus:     registry,
			TracerProvider: tp,
		},
		Registry: &Registry{
			StandingsMetrics: standingsmetrics.NewPrometheusMetrics(registry, "standings"),
			Tracer:           tp.Tracer("judge-standings"),
			Logger:           logger,
		},
	}, nil
}

// Shutdown flushes pending spans.
func (o Observability) Shutdown(ctx context.Context) error {
	if o.Provider == nil || o.Provider.TracerProvider == nil {
		return nil
	}
	return o.Provider.TracerProvider.Shutdown(ctx)
}
