package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuneatelier/fortune-backend/api/controllers"
	checkoutsvc "github.com/fortuneatelier/fortune-backend/internal/checkout"
	"github.com/fortuneatelier/fortune-backend/internal/fortune"
	"github.com/fortuneatelier/fortune-backend/internal/fulfillment"
	"github.com/fortuneatelier/fortune-backend/internal/notifications"
	"github.com/fortuneatelier/fortune-backend/internal/orders"
	"github.com/fortuneatelier/fortune-backend/internal/payments"
	"github.com/fortuneatelier/fortune-backend/internal/report"
	"github.com/fortuneatelier/fortune-backend/pkg/config"
	"github.com/fortuneatelier/fortune-backend/pkg/logger"
	"github.com/fortuneatelier/fortune-backend/pkg/mailer"
	"github.com/fortuneatelier/fortune-backend/pkg/metrics"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testServer struct {
	handler http.Handler
	svc     *fulfillment.Service
}

func newTestServer(t *testing.T, artifacts report.Artifacts, reportsDir string, readiness map[string]controllers.Pinger) *testServer {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{
			Env:         "test",
			BaseURL:     "http://localhost:8080",
			BrandName:   "Fortune Atelier",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Order: config.OrderConfig{Amount: 330, Currency: "jpy"},
	}
	logg := logger.Nop()
	reg := prometheus.NewRegistry()

	store := orders.NewMemoryStore()
	provider := payments.NewMockProvider()

	checkout, err := checkoutsvc.NewService(provider, store, cfg.Order, logg)
	require.NoError(t, err)
	orderSvc, err := orders.NewService(store)
	require.NoError(t, err)
	notifier, err := notifications.NewService(mailer.NewLogSender(logg), cfg.App)
	require.NoError(t, err)

	if artifacts == nil {
		artifacts = report.NewOnDemandArtifacts(cfg.App)
	}
	svc, err := fulfillment.NewService(fulfillment.ServiceParams{
		Store:     store,
		Generator: fortune.NewGenerator(nil, 0, logg),
		Renderer:  report.NewRenderer(report.Options{Logger: logg}),
		Artifacts: artifacts,
		Notifier:  notifier,
		Guard:     mustGuard(t),
		Metrics:   metrics.NewFulfillmentMetrics(reg),
		Logger:    logg,
		App:       cfg.App,
	})
	require.NoError(t, err)

	return &testServer{
		svc: svc,
		handler: NewRouter(Dependencies{
			Config:      cfg,
			Logger:      logg,
			Checkout:    checkout,
			Orders:      orderSvc,
			Fulfillment: svc,
			Provider:    provider,
			Readiness:   readiness,
			Gatherer:    reg,
			HTTPMetrics: metrics.NewHTTPMetrics(reg),
			ReportsDir:  reportsDir,
		}),
	}
}

func mustGuard(t *testing.T) *fulfillment.IdempotencyGuard {
	guard, err := fulfillment.NewIdempotencyGuard(fulfillment.NewMemoryIdempotencyStore(), time.Hour, "payment_webhook")
	require.NoError(t, err)
	return guard
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type checkoutEnvelope struct {
	Data struct {
		CheckoutURL string `json:"checkoutUrl"`
		OrderID     string `json:"orderId"`
	} `json:"data"`
}

type statusEnvelope struct {
	Data struct {
		OrderID          string  `json:"orderId"`
		Status           string  `json:"status"`
		ArtifactLocation *string `json:"artifactLocation"`
	} `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

const hanakoBody = `{"name":"Hanako","birthdate":"1990-05-01","email":"h@example.com","gender":"female"}`

func (s *testServer) checkout(t *testing.T) checkoutEnvelope {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/checkout", hanakoBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env checkoutEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func (s *testServer) status(t *testing.T, orderID string) statusEnvelope {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/api/v1/orders/"+orderID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env statusEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestEndToEndPaidOrderDownloadsPDF(t *testing.T) {
	s := newTestServer(t, nil, "", nil)

	created := s.checkout(t)
	orderID := created.Data.OrderID
	require.True(t, strings.HasPrefix(orderID, "ord_"))
	assert.True(t, strings.HasPrefix(created.Data.CheckoutURL, "/checkout/"+orderID+"?"))

	pending := s.status(t, orderID)
	assert.Equal(t, "pending", pending.Data.Status)
	assert.Nil(t, pending.Data.ArtifactLocation)

	rec := s.do(t, http.MethodGet, "/api/v1/reports/"+orderID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/webhooks/payment", `{"type":"payment.succeeded","orderId":"`+orderID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	s.svc.Wait()

	paid := s.status(t, orderID)
	assert.Equal(t, "paid", paid.Data.Status)
	require.NotNil(t, paid.Data.ArtifactLocation)
	assert.Equal(t, "http://localhost:8080/api/v1/reports/"+orderID, *paid.Data.ArtifactLocation)

	rec = s.do(t, http.MethodGet, "/api/v1/reports/"+orderID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="`+orderID+`.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	// A replayed delivery is acknowledged and changes nothing.
	rec = s.do(t, http.MethodPost, "/api/v1/webhooks/payment", `{"orderId":"`+orderID+`","ok":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "paid", s.status(t, orderID).Data.Status)
}

func TestEndToEndFailedPaymentBlocksDownload(t *testing.T) {
	s := newTestServer(t, nil, "", nil)
	orderID := s.checkout(t).Data.OrderID

	rec := s.do(t, http.MethodPost, "/api/v1/webhooks/payment", `{"type":"payment.failed","orderId":"`+orderID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	failed := s.status(t, orderID)
	assert.Equal(t, "failed", failed.Data.Status)
	assert.Nil(t, failed.Data.ArtifactLocation)

	rec = s.do(t, http.MethodGet, "/api/v1/reports/"+orderID, "")
	assert.GreaterOrEqual(t, rec.Code, 400)
}

func TestLocalArtifactsAreServedStatically(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, report.NewLocalArtifacts(dir), dir, nil)
	orderID := s.checkout(t).Data.OrderID

	rec := s.do(t, http.MethodPost, "/api/v1/webhooks/payment", `{"orderId":"`+orderID+`","ok":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	s.svc.Wait()

	paid := s.status(t, orderID)
	require.NotNil(t, paid.Data.ArtifactLocation)
	assert.Equal(t, "/reports/"+orderID+".pdf", *paid.Data.ArtifactLocation)

	rec = s.do(t, http.MethodGet, *paid.Data.ArtifactLocation, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	_, err := os.Stat(filepath.Join(dir, orderID+".pdf"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/reports/", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/reports/notes.txt", "").Code)
}

func TestOrderStatusLookups(t *testing.T) {
	s := newTestServer(t, nil, "", nil)
	orderID := s.checkout(t).Data.OrderID

	rec := s.do(t, http.MethodGet, "/api/v1/order?orderId="+orderID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env statusEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, orderID, env.Data.OrderID)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/orders/nonexistent", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/order", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/order?orderId=..%2Fetc", "").Code)
}

func TestDownloadErrors(t *testing.T) {
	s := newTestServer(t, nil, "", nil)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/reports/ord_missing", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/reports/bad!id", "").Code)
}

func TestCheckoutValidation(t *testing.T) {
	s := newTestServer(t, nil, "", nil)
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing name", body: `{"birthdate":"1990-05-01","email":"h@example.com","gender":"female"}`, field: "name"},
		{name: "bad email", body: `{"name":"H","birthdate":"1990-05-01","email":"nope","gender":"female"}`, field: "email"},
		{name: "bad date", body: `{"name":"H","birthdate":"1990/05/01","email":"h@example.com","gender":"female"}`, field: "birthdate"},
		{name: "future date", body: `{"name":"H","birthdate":"2999-01-01","email":"h@example.com","gender":"female"}`, field: "birthdate"},
		{name: "bad gender", body: `{"name":"H","birthdate":"1990-05-01","email":"h@example.com","gender":"robot"}`, field: "gender"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v1/checkout", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			var env errorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
			assert.Contains(t, env.Error.Details, tt.field)
		})
	}

	rec := s.do(t, http.MethodPost, "/api/v1/checkout", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsBadRequests(t *testing.T) {
	s := newTestServer(t, nil, "", nil)

	rec := s.do(t, http.MethodGet, "/api/v1/webhooks/payment", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))

	for _, body := range []string{`not json`, `{"type":"refund","orderId":"ord_1"}`, `{"orderId":""}`, `[]`} {
		rec = s.do(t, http.MethodPost, "/api/v1/webhooks/payment", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/webhooks/payment", `{"type":"payment.succeeded","orderId":"ord_unknown"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingFulfillmentReturnsServerError(t *testing.T) {
	logs := &bytes.Buffer{}
	handler := NewRouter(Dependencies{
		Config:   &config.Config{App: config.AppConfig{Env: "test"}},
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: logs}),
		Provider: payments.NewMockProvider(),
	})

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/v1/reports/ord_1", ""},
		{http.MethodPost, "/api/v1/webhooks/payment", `{"type":"payment.succeeded","orderId":"ord_1"}`},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, tc.path)
	}
	assert.NotContains(t, logs.String(), "panic", "handlers should report the missing service without panicking")
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil, "", map[string]controllers.Pinger{"db": stubPinger{}})
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", "").Code)

	s.checkout(t)
	rec := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")

	down := newTestServer(t, nil, "", map[string]controllers.Pinger{"redis": stubPinger{err: errors.New("refused")}})
	rec = down.do(t, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "refused")
}
