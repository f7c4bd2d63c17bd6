package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FulfillmentMetrics records the payment-to-report pipeline.
type FulfillmentMetrics struct {
	webhooks      *prometheus.CounterVec
	generations   *prometheus.CounterVec
	renderLatency prometheus.Histogram
	notifications *prometheus.CounterVec
}

// NewFulfillmentMetrics registers the fulfillment metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fortune_webhook_events_total",
		Help: "Payment webhook events by type and handling outcome.",
	}, []string{"type", "outcome"})
	generations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fortune_report_generations_total",
		Help: "Report content generations by text source.",
	}, []string{"source"})
	renderLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fortune_report_render_duration_seconds",
		Help:    "Time spent laying out one report PDF.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fortune_notifications_total",
		Help: "Receipt notifications by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(webhooks, generations, renderLatency, notifications)
	return &FulfillmentMetrics{
		webhooks:      webhooks,
		generations:   generations,
		renderLatency: renderLatency,
		notifications: notifications,
	}
}

// IncWebhook counts one webhook delivery.
func (m *FulfillmentMetrics) IncWebhook(eventType, outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// IncGeneration counts one content generation by source (ai or template).
func (m *FulfillmentMetrics) IncGeneration(source string) {
	if m == nil || m.generations == nil {
		return
	}
	m.generations.WithLabelValues(normalizeLabel(source)).Inc()
}

func (m *FulfillmentMetrics) ObserveRender(d time.Duration) {
	if m == nil || m.renderLatency == nil {
		return
	}
	m.renderLatency.Observe(d.Seconds())
}

func (m *FulfillmentMetrics) IncNotification(outcome string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
