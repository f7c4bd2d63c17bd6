package controllers

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fortuneatelier/fortune-backend/api/responses"
	"github.com/fortuneatelier/fortune-backend/api/validators"
	pkgerrors "github.com/fortuneatelier/fortune-backend/pkg/errors"
	"github.com/fortuneatelier/fortune-backend/pkg/logger"
)

type reportService interface {
	Report(ctx context.Context, orderID string) ([]byte, error)
}

// ReportDownload streams the PDF for a paid order.
func ReportDownload(svc reportService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		orderID, err := validators.OrderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithOrderID(r.Context(), orderID)
		pdf, err := svc.Report(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WritePDF(w, orderID+".pdf", pdf)
	}
}

// StoredReport serves files written by local artifact storage. Only
// {orderId}.pdf names resolve; directory listings are never served.
func StoredReport(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "*")
		id, ok := strings.CutSuffix(name, ".pdf")
		if !ok || !validators.IsOrderID(id) {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, filepath.Join(dir, name))
	}
}
