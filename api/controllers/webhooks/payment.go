package webhooks

import (
	"context"
	"net/http"

	"github.com/fortuneatelier/fortune-backend/api/responses"
	"github.com/fortuneatelier/fortune-backend/internal/payments"
	pkgerrors "github.com/fortuneatelier/fortune-backend/pkg/errors"
	"github.com/fortuneatelier/fortune-backend/pkg/logger"
)

type paymentEventHandler interface {
	HandleEvent(ctx context.Context, event *payments.WebhookEvent) error
}

// PaymentWebhook verifies a provider callback and hands the normalized event
// to fulfillment. Recognized events are acknowledged even when the order is unknown.
func PaymentWebhook(provider payments.Provider, svc paymentEventHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeMethod, "method not allowed"))
			return
		}
		if provider == nil || svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment webhook unavailable"))
			return
		}

		event := provider.ParseWebhook(r)
		if event == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid event"))
			return
		}

		ctx = logg.WithField(ctx, "provider", provider.Name())
		if err := svc.HandleEvent(ctx, event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		logg.Info(ctx, "webhook.processed")
		responses.WriteAck(w)
	}
}
