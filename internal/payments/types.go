package payments

import (
	"context"
	"net/http"

	"github.com/fortuneatelier/fortune-backend/pkg/enums"
)

// EventType is the normalized payment outcome delivered by a provider.
type EventType string

const (
	EventPaymentSucceeded EventType = "payment.succeeded"
	EventPaymentFailed    EventType = "payment.failed"
)

func (t EventType) IsValid() bool {
	return t == EventPaymentSucceeded || t == EventPaymentFailed
}

// TargetStatus maps the event onto the order status it settles to.
func (t EventType) TargetStatus() enums.OrderStatus {
	if t == EventPaymentSucceeded {
		return enums.OrderStatusPaid
	}
	return enums.OrderStatusFailed
}

// CheckoutPayload carries the customer details handed to a provider.
type CheckoutPayload struct {
	Name      string
	Birthdate string
	Email     string
	Gender    enums.Gender
	Amount    int64
	Currency  string
}

type CheckoutResponse struct {
	CheckoutURL string
	OrderID     string
}

// WebhookEvent is a provider callback normalized to a payment outcome.
// EventID is the provider's delivery id when it has one.
type WebhookEvent struct {
	Type    EventType
	OrderID string
	EventID string
}

// Provider is the capability set every payment integration offers.
type Provider interface {
	Name() string
	// CreateCheckout mints a fresh order id and the redirect target for it.
	CreateCheckout(ctx context.Context, payload CheckoutPayload) (*CheckoutResponse, error)
	// ParseWebhook verifies and normalizes a callback. It returns nil for
	// anything it does not recognize and never panics.
	ParseWebhook(r *http.Request) *WebhookEvent
}
