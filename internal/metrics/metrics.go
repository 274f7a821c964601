// Registers:
//
//	#cryptobridge_requests_total{exchange,status}
//	#cryptobridge_request_duration_seconds{exchange}
//	#cryptobridge_parse_errors_total{exchange,kind}
//	#cryptobridge_catalog_markets{exchange}
//	#go_* and process_* system metrics
//
// Exposes them on <addr>/metrics using the Prometheus HTTP handler
package metrics

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cryptobridge/logger"
)

var (
	once            sync.Once
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	parseErrors     *prometheus.CounterVec
	catalogMarkets  *prometheus.GaugeVec
)

func register() {
	registry = prometheus.NewRegistry()
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptobridge_requests_total",
			Help: "Exchange HTTP requests by outcome",
		},
		[]string{"exchange", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cryptobridge_request_duration_seconds",
			Help:    "Exchange HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"exchange"},
	)
	parseErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptobridge_parse_errors_total",
			Help: "Exchange responses that could not be normalized",
		},
		[]string{"exchange", "kind"},
	)
	catalogMarkets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cryptobridge_catalog_markets",
			Help: "Markets in the current catalog snapshot",
		},
		[]string{"exchange"},
	)

	registry.MustRegister(requestsTotal, requestDuration, parseErrors, catalogMarkets)
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Init registers the collectors once. When addr is not empty the /metrics
// endpoint is served on it in the background.
func Init(log *logger.Log, addr string) {
	once.Do(func() {
		register()
		if addr == "" {
			return
		}
		if log == nil {
			log = logger.GetLogger()
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", Handler())
		go func() {
			l := log.WithComponent("metrics").WithFields(logger.Fields{"addr": addr})
			l.Info("serving prometheus metrics")
			if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.WithError(err).Error("metrics server failed")
			}
		}()
	})
}

// Handler exposes the registry. It returns 404 before Init.
func Handler() http.Handler {
	if registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one request. status is "ok", "error" or an HTTP code.
func ObserveRequest(exchange, status string, duration time.Duration) {
	if requestsTotal == nil {
		return
	}
	requestsTotal.WithLabelValues(exchange, status).Inc()
	requestDuration.WithLabelValues(exchange).Observe(duration.Seconds())
}

// IncrementParseError counts a response that failed normalization.
func IncrementParseError(exchange, kind string) {
	if parseErrors != nil {
		parseErrors.WithLabelValues(exchange, kind).Inc()
	}
}

// SetCatalogMarkets records the size of a freshly loaded catalog.
func SetCatalogMarkets(exchange string, n int) {
	if catalogMarkets != nil {
		catalogMarkets.WithLabelValues(exchange).Set(float64(n))
	}
}
