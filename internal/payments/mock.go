package payments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fortuneatelier/fortune-backend/internal/orders"
)

const (
	ProviderMock = "mock"

	maxWebhookBytes = 64 << 10
)

// MockProvider simulates a payment gateway. Checkout redirects to the local
// confirmation page and webhooks are accepted without verification.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Name() string {
	return ProviderMock
}

func (p *MockProvider) CreateCheckout(_ context.Context, payload CheckoutPayload) (*CheckoutResponse, error) {
	orderID := orders.NewID()
	qs := url.Values{}
	qs.Set("orderId", orderID)
	qs.Set("name", payload.Name)
	qs.Set("birthdate", payload.Birthdate)
	qs.Set("email", payload.Email)
	qs.Set("gender", payload.Gender.String())
	qs.Set("amount", strconv.FormatInt(payload.Amount, 10))

	return &CheckoutResponse{
		CheckoutURL: "/checkout/" + orderID + "?" + qs.Encode(),
		OrderID:     orderID,
	}, nil
}

// ParseWebhook accepts {type, orderId} and the older {orderId, ok} shape.
func (p *MockProvider) ParseWebhook(r *http.Request) *WebhookEvent {
	body, ok := readBounded(r)
	if !ok {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil
	}

	var orderID string
	if raw, found := fields["orderId"]; !found || json.Unmarshal(raw, &orderID) != nil || orderID == "" {
		return nil
	}

	var eventType string
	if raw, found := fields["type"]; found && json.Unmarshal(raw, &eventType) == nil {
		if t := EventType(eventType); t.IsValid() {
			return &WebhookEvent{Type: t, OrderID: orderID}
		}
	}

	var paid bool
	if raw, found := fields["ok"]; found && json.Unmarshal(raw, &paid) == nil {
		if paid {
			return &WebhookEvent{Type: EventPaymentSucceeded, OrderID: orderID}
		}
		return &WebhookEvent{Type: EventPaymentFailed, OrderID: orderID}
	}
	return nil
}

// readBounded reads the request body, refusing anything over maxWebhookBytes.
func readBounded(r *http.Request) ([]byte, bool) {
	if r == nil || r.Body == nil {
		return nil, false
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes+1))
	if err != nil || len(body) > maxWebhookBytes {
		return nil, false
	}
	return body, true
}
