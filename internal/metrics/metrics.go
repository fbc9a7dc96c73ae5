package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the webhook pipeline and calls to the payment processor.
type Metrics interface {
	// RecordWebhookEvent records a webhook event; status is "success",
	// "duplicate", "ignored" or "error".
	RecordWebhookEvent(eventType, status string)
	RecordWebhookProcessingDuration(eventType string, duration time.Duration)
	// RecordWebhookError records a failure by text code
	// (e.g. "SIGNATURE_INVALID", "OFFER_NOT_FOUND").
	RecordWebhookError(errorType string)
	RecordAPICall(provider, endpoint, status string)
	RecordAPICallDuration(provider, endpoint string, duration time.Duration)
	RecordOrderCreated()
}

type NoopMetrics struct{}

func (n *NoopMetrics) RecordWebhookEvent(_, _ string)                            {}
func (n *NoopMetrics) RecordWebhookProcessingDuration(_ string, _ time.Duration) {}
func (n *NoopMetrics) RecordWebhookError(_ string)                               {}
func (n *NoopMetrics) RecordAPICall(_, _, _ string)                              {}
func (n *NoopMetrics) RecordAPICallDuration(_, _ string, _ time.Duration)        {}
func (n *NoopMetrics) RecordOrderCreated()                                       {}

type PrometheusMetrics struct {
	webhookEventsTotal        *prometheus.CounterVec
	webhookProcessingDuration *prometheus.HistogramVec
	webhookErrorsTotal        *prometheus.CounterVec
	apiCallsTotal             *prometheus.CounterVec
	apiCallDuration           *prometheus.HistogramVec
	ordersCreatedTotal        prometheus.Counter
}

func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		webhookEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Total number of payment webhook events handled.",
		}, []string{"event_type", "status"}),

		webhookProcessingDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_processing_duration_seconds",
			Help:      "Duration of webhook processing in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),

		webhookErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_errors_total",
			Help:      "Total number of webhook processing failures.",
		}, []string{"error_type"}),

		apiCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processor_api_calls_total",
			Help:      "Total number of calls to the payment processor.",
		}, []string{"provider", "endpoint", "status"}),

		apiCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processor_api_call_duration_seconds",
			Help:      "Duration of payment processor calls in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "endpoint"}),

		ordersCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Total number of orders materialized from completed payments.",
		}),
	}
}

func (m *PrometheusMetrics) RecordWebhookEvent(eventType, status string) {
	m.webhookEventsTotal.WithLabelValues(eventType, status).Inc()
}

func (m *PrometheusMetrics) RecordWebhookProcessingDuration(eventType string, duration time.Duration) {
	m.webhookProcessingDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordWebhookError(errorType string) {
	m.webhookErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *PrometheusMetrics) RecordAPICall(provider, endpoint, status string) {
	m.apiCallsTotal.WithLabelValues(provider, endpoint, status).Inc()
}

func (m *PrometheusMetrics) RecordAPICallDuration(provider, endpoint string, duration time.Duration) {
	m.apiCallDuration.WithLabelValues(provider, endpoint).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordOrderCreated() {
	m.ordersCreatedTotal.Inc()
}
