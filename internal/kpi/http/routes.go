// Package kpihttp exposes the KPI snapshot over HTTP.
package kpihttp

import "github.com/go-chi/chi/v5"

// MountRoutes registers KPI endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/kpis", h.handleKPIs)
}
