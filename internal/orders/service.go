package orders

import (
	"context"

	pkgerrors "github.com/fortuneatelier/fortune-backend/pkg/errors"
)

// Service answers order status queries.
type Service interface {
	Status(ctx context.Context, orderID string) (*StatusView, error)
}

type service struct {
	store Store
}

func NewService(store Store) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order store required")
	}
	return &service{store: store}, nil
}

func (s *service) Status(ctx context.Context, orderID string) (*StatusView, error) {
	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	view := NewStatusView(order)
	return &view, nil
}
