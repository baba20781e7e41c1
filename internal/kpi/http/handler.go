package kpihttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kitchenboard/kitchenboard/internal/dates"
	"github.com/kitchenboard/kitchenboard/internal/kpi"
	"github.com/kitchenboard/kitchenboard/internal/platform/httpx"
	"github.com/kitchenboard/kitchenboard/internal/shared"
)

// SnapshotService defines the KPI contract used by the handler.
type SnapshotService interface {
	Get(ctx context.Context, date time.Time) (kpi.Snapshot, error)
}

// Handler serves the dashboard KPI snapshot.
type Handler struct {
	logger  *slog.Logger
	service SnapshotService
	cal     *dates.Calendar
}

// NewHandler constructs the KPI HTTP handler.
func NewHandler(logger *slog.Logger, service SnapshotService, cal *dates.Calendar) *Handler {
	return &Handler{logger: logger, service: service, cal: cal}
}

func (h *Handler) handleKPIs(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		httpx.RespondError(w, h.logger, shared.ValidationError{Field: "date", Reason: "is required"})
		return
	}
	date, err := h.cal.Parse(raw)
	if err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"})
		return
	}
	snap, err := h.service.Get(r.Context(), date)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httpx.JSON(w, http.StatusOK, snap)
}
