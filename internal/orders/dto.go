package orders

import "github.com/fortuneatelier/fortune-backend/pkg/db/models"

// StatusView is the public projection of an order's progress.
type StatusView struct {
	OrderID          string  `json:"orderId"`
	Status           string  `json:"status"`
	ArtifactLocation *string `json:"artifactLocation"`
}

func NewStatusView(order *models.Order) StatusView {
	return StatusView{
		OrderID:          order.ID,
		Status:           order.Status.String(),
		ArtifactLocation: order.ArtifactLocation,
	}
}
