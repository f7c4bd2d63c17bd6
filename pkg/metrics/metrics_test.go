package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestFulfillmentMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFulfillmentMetrics(reg)
	m.IncWebhook("payment.succeeded", "paid")
	m.IncWebhook("payment.succeeded", "paid")
	m.IncGeneration("template")
	m.IncNotification("")
	m.ObserveRender(250 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "fortune_webhook_events_total", "outcome", "paid"); err != nil {
		t.Fatalf("fetch webhooks: %v", err)
	} else if got != 2 {
		t.Fatalf("expected webhooks=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "fortune_report_generations_total", "source", "template"); err != nil {
		t.Fatalf("fetch generations: %v", err)
	} else if got != 1 {
		t.Fatalf("expected generations=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "fortune_notifications_total", "outcome", "unknown"); err != nil {
		t.Fatalf("fetch notifications: %v", err)
	} else if got != 1 {
		t.Fatalf("expected notifications=1, got %f", got)
	}

	mf := findMetricFamily(mfs, "fortune_report_render_duration_seconds")
	if mf == nil || mf.GetMetric()[0].GetHistogram().GetSampleSum() <= 0 {
		t.Fatalf("expected render histogram sum > 0")
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/v1/orders/{orderId}", 404, 10*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "fortune_http_requests_total", "status", "404"); err != nil {
		t.Fatalf("fetch requests: %v", err)
	} else if got != 1 {
		t.Fatalf("expected requests=1, got %f", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	var nilMetrics *FulfillmentMetrics
	nilMetrics.IncWebhook("x", "y")
	NewFulfillmentMetrics(nil).IncGeneration("ai")
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Millisecond)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
