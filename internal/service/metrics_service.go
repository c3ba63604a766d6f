package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation. All methods are safe
// on a nil receiver so services can run without metrics.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	logins          *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	brochures       prometheus.Counter
	notifications   *prometheus.CounterVec
	queueDepth      prometheus.Gauge
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

	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "symbohub_logins_total",
		Help: "Login attempts by role and outcome",
	}, []string{"role", "outcome"})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "symbohub_college_transitions_total",
		Help: "College status transitions by target status",
	}, []string{"status"})

	brochures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "symbohub_brochures_uploaded_total",
		Help: "Brochures distributed",
	})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "symbohub_notifications_total",
		Help: "Notification emails by template and result",
	}, []string{"template", "result"})

	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "symbohub_notification_queue_depth",
		Help: "Buffered notification jobs",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, logins, transitions, brochures, notifications, queueDepth, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		logins:          logins,
		transitions:     transitions,
		brochures:       brochures,
		notifications:   notifications,
		queueDepth:      queueDepth,
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordLogin counts a login attempt.
func (m *MetricsService) RecordLogin(role, outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(role, outcome).Inc()
}

// RecordTransition counts a college status change.
func (m *MetricsService) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

// RecordBrochure counts a completed distribution.
func (m *MetricsService) RecordBrochure() {
	if m == nil {
		return
	}
	m.brochures.Inc()
}

// RecordNotification counts a notification result: queued, sent, failed or dropped.
func (m *MetricsService) RecordNotification(template, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(template, result).Inc()
}

// SetQueueDepth publishes the number of buffered notification jobs.
func (m *MetricsService) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}
