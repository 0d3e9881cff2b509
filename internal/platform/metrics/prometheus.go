package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds the service's Prometheus metrics. A nil manager is
// valid and records nothing.
type MetricsManager struct {
	Registry             *prometheus.Registry
	SearchesTotal        prometheus.Counter
	ListingsCreatedTotal prometheus.Counter
	ListingsUpdatedTotal prometheus.Counter
	ListingsDeletedTotal prometheus.Counter
	PartialWritesTotal   *prometheus.CounterVec
	UploadsTotal         *prometheus.CounterVec
	OrphansPurgedTotal   prometheus.Counter
	APIErrorsTotal       *prometheus.CounterVec
	APILatency           *prometheus.HistogramVec
}

// NewMetricsManager registers the metrics on a private registry.
func NewMetricsManager(serviceName string) *MetricsManager {
	namespace := strings.ReplaceAll(serviceName, "-", "_")
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		SearchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_searches_total",
			Help:      "Total number of catalog searches served.",
		}),
		ListingsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_created_total",
			Help:      "Total number of listings created with all photos attached.",
		}),
		ListingsUpdatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_updated_total",
			Help:      "Total number of listing edits.",
		}),
		ListingsDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_deleted_total",
			Help:      "Total number of listings deleted.",
		}),
		PartialWritesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partial_writes_total",
			Help:      "Workflows that committed some steps but not all, by operation and failed step.",
		}, []string{"operation", "step"}),
		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_uploads_total",
			Help:      "Photo uploads to object storage by outcome.",
		}, []string{"outcome"}),
		OrphansPurgedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphans_purged_total",
			Help:      "Stored objects removed because no photo row referenced them.",
		}),
		APIErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Total number of API errors by route and status class.",
		}, []string{"method", "error_type"}),
		APILatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_latency_seconds",
			Help:      "Latency of API requests by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	registry.MustRegister(
		m.SearchesTotal,
		m.ListingsCreatedTotal,
		m.ListingsUpdatedTotal,
		m.ListingsDeletedTotal,
		m.PartialWritesTotal,
		m.UploadsTotal,
		m.OrphansPurgedTotal,
		m.APIErrorsTotal,
		m.APILatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *MetricsManager) IncSearch() {
	if m != nil {
		m.SearchesTotal.Inc()
	}
}

func (m *MetricsManager) IncCreated() {
	if m != nil {
		m.ListingsCreatedTotal.Inc()
	}
}

func (m *MetricsManager) IncUpdated() {
	if m != nil {
		m.ListingsUpdatedTotal.Inc()
	}
}

func (m *MetricsManager) IncDeleted() {
	if m != nil {
		m.ListingsDeletedTotal.Inc()
	}
}

func (m *MetricsManager) IncPartialWrite(operation, step string) {
	if m != nil {
		m.PartialWritesTotal.WithLabelValues(operation, step).Inc()
	}
}

// ObserveUpload counts one file by outcome ("stored" or "failed").
func (m *MetricsManager) ObserveUpload(outcome string) {
	if m != nil {
		m.UploadsTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *MetricsManager) AddOrphansPurged(n int) {
	if m != nil && n > 0 {
		m.OrphansPurgedTotal.Add(float64(n))
	}
}

// ObserveRequest records latency for route and counts 4xx/5xx responses.
func (m *MetricsManager) ObserveRequest(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.APILatency.WithLabelValues(route).Observe(elapsed.Seconds())
	switch {
	case status >= 500:
		m.APIErrorsTotal.WithLabelValues(route, "server").Inc()
	case status >= 400:
		m.APIErrorsTotal.WithLabelValues(route, "client").Inc()
	}
}

// NewMetricsServer builds the HTTP server exposing /metrics. It returns nil
// when port is empty.
func NewMetricsServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) *http.Server {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server configured", zap.String("port", port), zap.String("path", "/metrics"))
	return &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
