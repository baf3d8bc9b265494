package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	matchRequests   *prometheus.CounterVec
	matchProposals  prometheus.Histogram
	sweepDuration   prometheus.Histogram
	sweepFreed      prometheus.Counter
	sweepMalformed  prometheus.Counter
	mailSent        *prometheus.CounterVec
}

// NewMetricsService registers the service's Prometheus collectors.
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

	matchRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "match_requests_total",
		Help: "Total tutor-match requests by outcome",
	}, []string{"outcome"})

	matchProposals := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "match_proposals_per_request",
		Help:    "Number of slot proposals produced per match request",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})

	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "expiration_sweep_duration_seconds",
		Help:    "Duration of the daily expiration sweep",
		Buckets: prometheus.DefBuckets,
	})

	sweepFreed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "expiration_sweep_freed_slots_total",
		Help: "Slots reverted to available by the sweep",
	})

	sweepMalformed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "expiration_sweep_malformed_slots_total",
		Help: "Slots skipped by the sweep due to malformed expirations",
	})

	mailSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_sent_total",
		Help: "Outbound mail attempts by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, matchRequests, matchProposals, sweepDuration, sweepFreed, sweepMalformed, mailSent, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		matchRequests:   matchRequests,
		matchProposals:  matchProposals,
		sweepDuration:   sweepDuration,
		sweepFreed:      sweepFreed,
		sweepMalformed:  sweepMalformed,
		mailSent:        mailSent,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveMatch records the outcome of one match request.
func (m *MetricsService) ObserveMatch(proposals int) {
	if m == nil {
		return
	}
	outcome := "matched"
	if proposals == 0 {
		outcome = "empty"
	}
	m.matchRequests.WithLabelValues(outcome).Inc()
	m.matchProposals.Observe(float64(proposals))
}

// ObserveSweep records one pass of the expiration sweep.
func (m *MetricsService) ObserveSweep(duration time.Duration, freed, malformed int) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(duration.Seconds())
	m.sweepFreed.Add(float64(freed))
	m.sweepMalformed.Add(float64(malformed))
}

// ObserveMail records one outbound mail attempt.
func (m *MetricsService) ObserveMail(err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.mailSent.WithLabelValues(outcome).Inc()
}
