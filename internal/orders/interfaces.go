package orders

import (
	"context"
	"errors"

	"github.com/fortuneatelier/fortune-backend/pkg/db/models"
	"github.com/fortuneatelier/fortune-backend/pkg/enums"
)

var (
	// ErrInvalidTransition is returned when a status change would leave the
	// pending -> paid|failed lifecycle.
	ErrInvalidTransition = errors.New("orders: invalid status transition")
	// ErrNotPaid is returned when an artifact is attached to an unpaid order.
	ErrNotPaid = errors.New("orders: artifact requires a paid order")
)

// Store persists orders. Lookups and mutations on unknown ids return a nil
// order and a nil error; callers must check.
type Store interface {
	Upsert(ctx context.Context, order *models.Order) (*models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	SetStatus(ctx context.Context, id string, status enums.OrderStatus) (*models.Order, error)
	// Transition atomically moves a pending order to next. changed is false
	// when the order already occupies next.
	Transition(ctx context.Context, id string, next enums.OrderStatus) (order *models.Order, changed bool, err error)
	SetArtifact(ctx context.Context, id string, location string) (*models.Order, error)
}
