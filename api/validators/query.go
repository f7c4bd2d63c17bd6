package validators

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/fortuneatelier/fortune-backend/pkg/errors"
)

// Issued ids are ord_ + 32 hex chars; lookups accept any token that is
// safe to use as a file name so unknown ids still resolve to not found.
var orderIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// IsOrderID reports whether v is a syntactically acceptable order id.
func IsOrderID(v string) bool {
	return orderIDPattern.MatchString(v)
}

// OrderIDParam reads the order id from the route, falling back to the
// orderId query parameter. Malformed ids are rejected.
func OrderIDParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("orderId"))
	}
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "orderId is required").WithDetails(map[string]any{"field": "orderId"})
	}
	if !IsOrderID(id) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "orderId is malformed").WithDetails(map[string]any{"field": "orderId"})
	}
	return id, nil
}
