package controllers

import (
	"net/http"

	"github.com/fortuneatelier/fortune-backend/api/responses"
	"github.com/fortuneatelier/fortune-backend/api/validators"
	checkoutsvc "github.com/fortuneatelier/fortune-backend/internal/checkout"
	"github.com/fortuneatelier/fortune-backend/pkg/enums"
	pkgerrors "github.com/fortuneatelier/fortune-backend/pkg/errors"
	"github.com/fortuneatelier/fortune-backend/pkg/logger"
)

// Checkout records a pending order and returns the provider redirect.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gender, err := enums.ParseGender(payload.Gender)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "gender is invalid").WithDetails(map[string]string{"gender": "is invalid"}))
			return
		}

		res, err := svc.Create(r.Context(), checkoutsvc.Request{
			Name:      validators.SanitizeString(payload.Name, maxNameRunes),
			Birthdate: payload.Birthdate,
			Email:     payload.Email,
			Gender:    gender,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, res)
	}
}

const maxNameRunes = 100

type checkoutRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Birthdate string `json:"birthdate" validate:"required,birthdate"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Gender    string `json:"gender" validate:"required,oneof=female male non-binary transgender genderqueer prefer-not"`
}
