package inputs

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kitchenboard/kitchenboard/internal/platform/httpx"
	"github.com/kitchenboard/kitchenboard/internal/shared"
)

// InputService is the contract the handler depends on.
type InputService interface {
	Save(ctx context.Context, in DailyInput) (DailyInput, error)
	List(ctx context.Context) ([]DailyInput, error)
	ImportPOS(ctx context.Context, date string) (DailyInput, error)
	WriteWorkbook(ctx context.Context, w io.Writer) error
}

// Handler exposes daily inputs over HTTP.
type Handler struct {
	logger  *slog.Logger
	service InputService
}

// NewHandler builds the inputs handler.
func NewHandler(logger *slog.Logger, service InputService) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the daily input endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/inputs", h.list)
	r.Post("/inputs", h.save)
	r.Get("/inputs/export.xlsx", h.export)
	r.Post("/import/pos", h.importPOS)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var in DailyInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}
	row, err := h.service.Save(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handler) importPOS(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		httpx.RespondError(w, h.logger, shared.ValidationError{Field: "date", Reason: "is required"})
		return
	}
	row, err := h.service.ImportPOS(r.Context(), date)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.WriteWorkbook(r.Context(), &buf); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="daily-inputs.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
