package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fortuneatelier/fortune-backend/pkg/db/models"
	"github.com/fortuneatelier/fortune-backend/pkg/enums"
)

// MemoryStore keeps orders in process memory. All access goes through one
// mutex, so every mutation is exclusive for the order it touches.
type MemoryStore struct {
	mu     sync.Mutex
	orders map[string]*models.Order
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]*models.Order),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Upsert(_ context.Context, order *models.Order) (*models.Order, error) {
	if order == nil || order.ID == "" {
		return nil, fmt.Errorf("orders: upsert requires an id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := order.Clone()
	now := s.now()
	if existing, ok := s.orders[rec.ID]; ok {
		rec.CreatedAt = existing.CreatedAt
	} else if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.Status == "" {
		rec.Status = enums.OrderStatusPending
	}
	rec.UpdatedAt = now
	s.orders[rec.ID] = rec
	return rec.Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id].Clone(), nil
}

func (s *MemoryStore) SetStatus(ctx context.Context, id string, status enums.OrderStatus) (*models.Order, error) {
	order, _, err := s.Transition(ctx, id, status)
	return order, err
}

func (s *MemoryStore) Transition(_ context.Context, id string, next enums.OrderStatus) (*models.Order, bool, error) {
	if !next.IsValid() {
		return nil, false, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orders[id]
	if !ok {
		return nil, false, nil
	}
	if rec.Status == next {
		return rec.Clone(), false, nil
	}
	if !rec.Status.CanTransitionTo(next) {
		return rec.Clone(), false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, rec.Status, next)
	}
	rec.Status = next
	rec.UpdatedAt = s.now()
	return rec.Clone(), true, nil
}

func (s *MemoryStore) SetArtifact(_ context.Context, id string, location string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	if rec.Status != enums.OrderStatusPaid {
		return rec.Clone(), ErrNotPaid
	}
	loc := location
	rec.ArtifactLocation = &loc
	rec.UpdatedAt = s.now()
	return rec.Clone(), nil
}
