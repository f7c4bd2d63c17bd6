package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fortuneatelier/fortune-backend/pkg/db/models"
	"github.com/fortuneatelier/fortune-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository builds a SQL-backed order store bound to the provided DB.
// Status changes are conditional UPDATEs, so concurrent writers cannot both
// move the same order out of pending.
func NewRepository(db *gorm.DB) Store {
	return &repository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *repository) Upsert(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order == nil || order.ID == "" {
		return nil, fmt.Errorf("orders: upsert requires an id")
	}
	rec := order.Clone()
	now := r.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.Status == "" {
		rec.Status = enums.OrderStatusPending
	}
	rec.UpdatedAt = now

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "birthdate", "email", "gender", "amount", "currency",
				"status", "artifact_location", "updated_at",
			}),
		}).
		Create(rec).Error
	if err != nil {
		return nil, fmt.Errorf("upsert order %s: %w", rec.ID, err)
	}
	return r.Get(ctx, rec.ID)
}

func (r *repository) Get(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return &order, nil
}

func (r *repository) SetStatus(ctx context.Context, id string, status enums.OrderStatus) (*models.Order, error) {
	order, _, err := r.Transition(ctx, id, status)
	return order, err
}

func (r *repository) Transition(ctx context.Context, id string, next enums.OrderStatus) (*models.Order, bool, error) {
	if !next.IsValid() {
		return nil, false, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}

	if next != enums.OrderStatusPending {
		res := r.db.WithContext(ctx).
			Model(&models.Order{}).
			Where("id = ? AND status = ?", id, enums.OrderStatusPending).
			Updates(map[string]any{"status": next, "updated_at": r.now()})
		if res.Error != nil {
			return nil, false, fmt.Errorf("transition order %s: %w", id, res.Error)
		}
		if res.RowsAffected == 1 {
			order, err := r.Get(ctx, id)
			return order, true, err
		}
	}

	order, err := r.Get(ctx, id)
	if err != nil || order == nil {
		return nil, false, err
	}
	if order.Status == next {
		return order, false, nil
	}
	return order, false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
}

func (r *repository) SetArtifact(ctx context.Context, id string, location string) (*models.Order, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusPaid).
		Updates(map[string]any{"artifact_location": location, "updated_at": r.now()})
	if res.Error != nil {
		return nil, fmt.Errorf("set artifact for order %s: %w", id, res.Error)
	}

	order, err := r.Get(ctx, id)
	if err != nil || order == nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return order, ErrNotPaid
	}
	return order, nil
}
