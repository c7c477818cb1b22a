package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a dedicated Prometheus registry, the query and backend
// series recorded from observed operations, and the HTTP server exposing
// them.
type Metrics struct {
	Server   *http.Server
	Registry *prometheus.Registry

	registerer prometheus.Registerer
	namespace  string

	queriesTotal     *prometheus.CounterVec
	queryErrorsTotal *prometheus.CounterVec
	backendDuration  *prometheus.HistogramVec
	backendErrors    *prometheus.CounterVec
}

// NewMetrics builds the registry, wraps it with the service label,
// registers the built-in series (and the default collectors when enabled)
// and prepares, without starting, the HTTP server.
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()
	wrapped := prometheus.WrapRegistererWith(prometheus.Labels{"service": cfg.ServiceName}, registry)

	m := &Metrics{
		Registry:   registry,
		registerer: wrapped,
		namespace:  cfg.Namespace,
	}

	m.queriesTotal = createCounterVec(cfg.Namespace, "queries_total",
		"Queries answered, by entity and answering mode.", []string{"entity", "mode"})
	m.queryErrorsTotal = createCounterVec(cfg.Namespace, "query_errors_total",
		"Failed queries, by entity and error category.", []string{"entity", "category"})
	m.backendDuration = createHistogramVec(cfg.Namespace, "backend_operation_duration_seconds",
		"Duration of store, external and orchestration calls.", []string{"component", "operation"}, prometheus.DefBuckets)
	m.backendErrors = createCounterVec(cfg.Namespace, "backend_operation_errors_total",
		"Failed store, external and orchestration calls.", []string{"component", "operation"})

	wrapped.MustRegister(m.queriesTotal, m.queryErrorsTotal, m.backendDuration, m.backendErrors)

	if cfg.EnableDefaultCollectors {
		wrapped.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	addr := cfg.Address
	if addr == "" {
		addr = DefaultMetricsAddress
	}
	mux := http.NewServeMux()
	mux.Handle(DefaultPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	m.Server = &http.Server{Addr: addr, Handler: mux}
	return m
}
