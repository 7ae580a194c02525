package observability

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName is the instrumentation name used for tracers and metric namespaces.
const ServiceName = "caddie"

// Config controls logger and metrics setup.
type Config struct {
	Environment string
	LogLevel    string
}

// Observability bundles the logger, metrics and tracer shared by modules.
type Observability struct {
	Logger   *slog.Logger
	Metrics  Metrics
	Tracer   trace.Tracer
	Registry *prometheus.Registry
}

// New builds the process-wide observability stack. Tracing uses the global
// otel provider so an exporter can be installed without touching modules.
func New(cfg Config) Observability {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return Observability{
		Logger:   NewLogger(cfg.Environment, cfg.LogLevel),
		Metrics:  NewPrometheusMetrics(registry, ServiceName),
		Tracer:   otel.Tracer(ServiceName),
		Registry: registry,
	}
}

// MetricsHandler exposes the registry in the Prometheus text format.
func (o Observability) MetricsHandler() http.Handler {
	if o.Registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(o.Registry, promhttp.HandlerOpts{})
}
