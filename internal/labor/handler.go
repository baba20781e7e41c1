package labor

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"github.com/kitchenboard/kitchenboard/internal/dates"
	"github.com/kitchenboard/kitchenboard/internal/platform/httpx"
	"github.com/kitchenboard/kitchenboard/internal/shared"
)

const importsPerMinute = 10

type entryView struct {
	ID          int64     `json:"id"`
	Employee    string    `json:"employee"`
	Date        string    `json:"date"`
	Amount      float64   `json:"amount"`
	ImportBatch uuid.UUID `json:"importBatch"`
}

// Handler exposes labor imports, schedule and cost reports.
type Handler struct {
	logger   *slog.Logger
	importer *Importer
	costs    *CostCalculator
	store    Store
	cal      *dates.Calendar
}

// NewHandler builds the labor handler.
func NewHandler(logger *slog.Logger, importer *Importer, costs *CostCalculator, store Store, cal *dates.Calendar) *Handler {
	return &Handler{logger: logger, importer: importer, costs: costs, store: store, cal: cal}
}

// MountRoutes registers labor and schedule endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(importsPerMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Error(w, http.StatusTooManyRequests, "too many imports, try again shortly")
		}),
	)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/labor/import", h.importPayslips)
		gr.Post("/schedule/import", h.importSchedule)
	})
	r.Delete("/labor/import/{batch}", h.deleteBatch)
	r.Get("/labor/entries", h.entries)
	r.Get("/labor/{period}", h.cost)
	r.Get("/schedule", h.schedule)
}

func (h *Handler) importPayslips(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readHTML(w, r)
	if !ok {
		return
	}
	res, err := h.importer.ImportPayslips(r.Context(), bytes.NewReader(body))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) importSchedule(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readHTML(w, r)
	if !ok {
		return
	}
	res, err := h.importer.ImportSchedule(r.Context(), bytes.NewReader(body))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) deleteBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := uuid.Parse(chi.URLParam(r, "batch"))
	if err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationError{Field: "batch", Reason: "must be a UUID"})
		return
	}
	n, err := h.importer.DeleteBatch(r.Context(), batch)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if n == 0 {
		httpx.RespondError(w, h.logger, shared.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"batchId": batch, "entriesDeleted": n})
}

func (h *Handler) entries(w http.ResponseWriter, r *http.Request) {
	date, ok := h.queryDate(w, r, "date")
	if !ok {
		return
	}
	entries, err := h.store.EntriesOn(r.Context(), h.cal.Format(date))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{
			ID:          e.ID,
			Employee:    e.Employee,
			Date:        e.Date,
			Amount:      e.Amount.InexactFloat64(),
			ImportBatch: e.ImportBatch,
		})
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) cost(w http.ResponseWriter, r *http.Request) {
	date, ok := h.queryDate(w, r, "date")
	if !ok {
		return
	}
	report, err := h.costs.Report(r.Context(), chi.URLParam(r, "period"), date)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	from, ok := h.queryDate(w, r, "from")
	if !ok {
		return
	}
	to, ok := h.queryDate(w, r, "to")
	if !ok {
		return
	}
	shifts, err := h.store.ShiftsBetween(r.Context(), h.cal.Format(from), h.cal.Format(to))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if shifts == nil {
		shifts = []ScheduleShift{}
	}
	httpx.JSON(w, http.StatusOK, shifts)
}

func (h *Handler) readHTML(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := httpx.ReadBody(w, r)
	if httpx.IsTooLarge(err) {
		httpx.RespondError(w, h.logger, err)
		return nil, false
	}
	if err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationError{Field: "body", Reason: "unreadable"})
		return nil, false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		httpx.RespondError(w, h.logger, shared.ValidationError{Field: "body", Reason: "HTML export is empty"})
		return nil, false
	}
	return body, true
}

func (h *Handler) queryDate(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	d, err := h.cal.Parse(raw)
	if err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationError{Field: name, Reason: "must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return d, true
}
