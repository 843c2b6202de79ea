package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the auth
// API. It owns its registry so tests can construct isolated instances
// without collector name collisions.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	authEvents      *prometheus.CounterVec
	blacklistHits   prometheus.Counter
	blacklistMisses prometheus.Counter
	purgedRows      *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	authEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_events_total",
		Help: "Session protocol operations by outcome",
	}, []string{"operation", "result"})

	blacklistHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "token_blacklist_cache_hits_total",
		Help: "Blacklist membership checks answered by the cache",
	})

	blacklistMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "token_blacklist_cache_misses_total",
		Help: "Blacklist membership checks that fell through to the database",
	})

	purgedRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "token_purge_rows_total",
		Help: "Expired token rows removed by the purge loop",
	}, []string{"table"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, authEvents, blacklistHits, blacklistMisses, purgedRows, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		authEvents:      authEvents,
		blacklistHits:   blacklistHits,
		blacklistMisses: blacklistMisses,
		purgedRows:      purgedRows,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request timing and volume.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// IncAuthEvent counts one protocol operation outcome, e.g.
// ("login", "invalid_credentials").
func (m *MetricsService) IncAuthEvent(operation, result string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(operation, result).Inc()
}

// RecordBlacklistLookup counts whether a membership check was served
// from the cache.
func (m *MetricsService) RecordBlacklistLookup(cacheHit bool) {
	if m == nil {
		return
	}
	if cacheHit {
		m.blacklistHits.Inc()
	} else {
		m.blacklistMisses.Inc()
	}
}

// AddPurgedRows counts rows removed by the maintenance loop.
func (m *MetricsService) AddPurgedRows(table string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.purgedRows.WithLabelValues(table).Add(float64(n))
}
