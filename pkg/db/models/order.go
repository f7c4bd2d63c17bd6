package models

import (
	"time"

	"github.com/fortuneatelier/fortune-backend/pkg/enums"
)

// Order is a paid-report request and its payment lifecycle.
type Order struct {
	ID               string            `gorm:"column:id;primaryKey"`
	Name             string            `gorm:"column:name;not null"`
	Birthdate        string            `gorm:"column:birthdate;not null"`
	Email            string            `gorm:"column:email;not null"`
	Gender           enums.Gender      `gorm:"column:gender;not null"`
	Amount           int64             `gorm:"column:amount;not null"`
	Currency         string            `gorm:"column:currency;not null"`
	Status           enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	ArtifactLocation *string           `gorm:"column:artifact_location"`
	CreatedAt        time.Time         `gorm:"column:created_at"`
	UpdatedAt        time.Time         `gorm:"column:updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// Clone returns a deep copy safe to hand out from shared storage.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	if o.ArtifactLocation != nil {
		loc := *o.ArtifactLocation
		cp.ArtifactLocation = &loc
	}
	return &cp
}
