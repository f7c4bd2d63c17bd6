package orders

import (
	"net/http"

	"github.com/fortuneatelier/fortune-backend/api/responses"
	"github.com/fortuneatelier/fortune-backend/api/validators"
	internalorders "github.com/fortuneatelier/fortune-backend/internal/orders"
	pkgerrors "github.com/fortuneatelier/fortune-backend/pkg/errors"
	"github.com/fortuneatelier/fortune-backend/pkg/logger"
)

// Status reports an order's payment status and artifact location. The id is
// read from the route or the orderId query parameter.
func Status(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.OrderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Status(logg.WithOrderID(r.Context(), orderID), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
