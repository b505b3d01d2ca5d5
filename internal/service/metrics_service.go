package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	reportDuration  prometheus.Histogram
	reportFailures  prometheus.Counter
}

// NewMetricsService registers the core collectors.
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

	reportDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "report_generation_seconds",
		Help:    "Duration of period report generation",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	})

	reportFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "report_generation_failures_total",
		Help: "Total number of failed report generations",
	})

	registry.MustRegister(
		requestDuration,
		requestTotal,
		reportDuration,
		reportFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		reportDuration:  reportDuration,
		reportFailures:  reportFailures,
	}
}

// Handler serves the /metrics endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveRequest records one finished HTTP request.
func (s *MetricsService) ObserveRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveReport records one report generation attempt.
func (s *MetricsService) ObserveReport(duration time.Duration, failed bool) {
	s.reportDuration.Observe(duration.Seconds())
	if failed {
		s.reportFailures.Inc()
	}
}
