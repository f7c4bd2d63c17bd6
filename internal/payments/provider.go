package payments

import (
	"context"
	"strings"

	"github.com/fortuneatelier/fortune-backend/pkg/config"
	"github.com/fortuneatelier/fortune-backend/pkg/logger"
	pkgstripe "github.com/fortuneatelier/fortune-backend/pkg/stripe"
)

// NewProvider selects the payment integration from configuration. Unknown or
// empty provider names fall back to the simulator.
func NewProvider(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Payments.Provider)) {
	case ProviderStripe:
		client, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return nil, err
		}
		return NewStripeProvider(client, cfg.App.BaseURL, cfg.App.BrandName+" report", logg), nil
	default:
		return NewMockProvider(), nil
	}
}
