// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kitchenboard/kitchenboard/internal/shared"
)

// RespondError maps domain errors to JSON error responses. Validation errors
// are the caller's fault and are not logged as server faults.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case IsTooLarge(err):
		Error(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, shared.ErrValidation):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrConfig):
		logError(logger, "configuration error", err)
		Error(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, shared.ErrUpstream):
		logError(logger, "upstream error", err)
		Error(w, http.StatusBadGateway, upstreamMessage(err))
	default:
		logError(logger, "internal error", err)
		Error(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func logError(logger *slog.Logger, msg string, err error) {
	if logger == nil {
		return
	}
	logger.Error(msg, slog.Any("error", err))
}

// upstreamMessage names the failing vendor without echoing its response body.
func upstreamMessage(err error) string {
	var upstream *shared.UpstreamError
	if errors.As(err, &upstream) && upstream.Vendor != "" {
		return upstream.Vendor + " vendor unavailable"
	}
	return "upstream vendor unavailable"
}
