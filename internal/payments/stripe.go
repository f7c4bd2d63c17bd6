package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/fortuneatelier/fortune-backend/internal/orders"
	pkgerrors "github.com/fortuneatelier/fortune-backend/pkg/errors"
	"github.com/fortuneatelier/fortune-backend/pkg/logger"
)

const (
	ProviderStripe = "stripe"

	stripeSignatureHeader = "Stripe-Signature"
	orderIDMetadataKey    = "order_id"
)

type stripeGateway interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
}

// StripeProvider sends customers to a hosted Checkout Session and reads the
// session lifecycle events back.
type StripeProvider struct {
	gateway     stripeGateway
	baseURL     string
	productName string
	logg        *logger.Logger
}

func NewStripeProvider(gateway stripeGateway, baseURL, productName string, logg *logger.Logger) *StripeProvider {
	return &StripeProvider{
		gateway:     gateway,
		baseURL:     strings.TrimRight(baseURL, "/"),
		productName: productName,
		logg:        logg,
	}
}

func (p *StripeProvider) Name() string {
	return ProviderStripe
}

func (p *StripeProvider) CreateCheckout(ctx context.Context, payload CheckoutPayload) (*CheckoutResponse, error) {
	orderID := orders.NewID()

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(orderID),
		CustomerEmail:     stripe.String(payload.Email),
		SuccessURL:        stripe.String(p.baseURL + "/thankyou?orderId=" + orderID),
		CancelURL:         stripe.String(p.baseURL + "/"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(payload.Currency)),
				UnitAmount: stripe.Int64(payload.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(p.productName),
				},
			},
		}},
	}
	params.AddMetadata(orderIDMetadataKey, orderID)

	sess, err := p.gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe checkout session")
	}
	if sess == nil || sess.URL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stripe checkout session has no url")
	}
	return &CheckoutResponse{CheckoutURL: sess.URL, OrderID: orderID}, nil
}

func (p *StripeProvider) ParseWebhook(r *http.Request) *WebhookEvent {
	body, ok := readBounded(r)
	if !ok {
		return nil
	}
	ctx := r.Context()

	event, err := p.gateway.ConstructEvent(body, r.Header.Get(stripeSignatureHeader))
	if err != nil {
		p.warn(ctx, "stripe signature verification failed", err)
		return nil
	}
	if event.Data == nil {
		return nil
	}

	var eventType EventType
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		eventType = EventPaymentSucceeded
	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed, stripe.EventTypeCheckoutSessionExpired:
		eventType = EventPaymentFailed
	default:
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		p.warn(ctx, "decode stripe checkout session", err)
		return nil
	}

	// A completed session for a delayed method is still unpaid; the
	// async_payment_* event settles it later.
	if event.Type == stripe.EventTypeCheckoutSessionCompleted && sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil
	}

	orderID := sess.ClientReferenceID
	if orderID == "" {
		orderID = sess.Metadata[orderIDMetadataKey]
	}
	if orderID == "" {
		return nil
	}

	return &WebhookEvent{Type: eventType, OrderID: orderID, EventID: event.ID}
}

func (p *StripeProvider) warn(ctx context.Context, msg string, err error) {
	if p.logg == nil {
		return
	}
	p.logg.Warn(p.logg.WithField(ctx, "error", fmt.Sprint(err)), msg)
}
