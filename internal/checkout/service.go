package checkout

import (
	"context"
	"strings"

	"github.com/fortuneatelier/fortune-backend/internal/orders"
	"github.com/fortuneatelier/fortune-backend/internal/payments"
	"github.com/fortuneatelier/fortune-backend/pkg/config"
	"github.com/fortuneatelier/fortune-backend/pkg/db/models"
	"github.com/fortuneatelier/fortune-backend/pkg/enums"
	pkgerrors "github.com/fortuneatelier/fortune-backend/pkg/errors"
	"github.com/fortuneatelier/fortune-backend/pkg/logger"
)

// Request is the validated customer submission.
type Request struct {
	Name      string
	Birthdate string
	Email     string
	Gender    enums.Gender
}

type Response struct {
	CheckoutURL string `json:"checkoutUrl"`
	OrderID     string `json:"orderId"`
}

// Service starts a paid report order.
type Service interface {
	Create(ctx context.Context, req Request) (*Response, error)
}

type service struct {
	provider payments.Provider
	store    orders.Store
	pricing  config.OrderConfig
	logg     *logger.Logger
}

// NewService builds the checkout service.
func NewService(provider payments.Provider, store orders.Store, pricing config.OrderConfig, logg *logger.Logger) (Service, error) {
	if provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment provider required")
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order store required")
	}
	if pricing.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order amount must be positive")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{provider: provider, store: store, pricing: pricing, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, req Request) (*Response, error) {
	if !req.Gender.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gender is invalid").WithDetails(map[string]string{"gender": "is invalid"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required").WithDetails(map[string]string{"name": "is required"})
	}
	payload := payments.CheckoutPayload{
		Name:      strings.TrimSpace(req.Name),
		Birthdate: strings.TrimSpace(req.Birthdate),
		Email:     strings.TrimSpace(req.Email),
		Gender:    req.Gender,
		Amount:    s.pricing.Amount,
		Currency:  strings.ToLower(s.pricing.Currency),
	}

	res, err := s.provider.CreateCheckout(ctx, payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout")
	}

	if _, err := s.store.Upsert(ctx, &models.Order{
		ID:        res.OrderID,
		Name:      payload.Name,
		Birthdate: payload.Birthdate,
		Email:     payload.Email,
		Gender:    payload.Gender,
		Amount:    payload.Amount,
		Currency:  payload.Currency,
		Status:    enums.OrderStatusPending,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record order")
	}

	s.logg.Info(s.logg.WithFields(s.logg.WithOrderID(ctx, res.OrderID), map[string]any{
		"provider": s.provider.Name(),
		"amount":   payload.Amount,
		"currency": payload.Currency,
	}), "checkout.created")

	return &Response{CheckoutURL: res.CheckoutURL, OrderID: res.OrderID}, nil
}
