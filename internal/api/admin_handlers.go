package api

import (
	"net/http"
	"strconv"

	"github.com/jnst/store-backoffice/internal/model"
)

// InventorySummary handles GET /reports/inventory-summary.
func (s *Server) InventorySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.services.Reports.InventorySummary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

// ListParkedEvents handles GET /admin/outbox/failed.
func (s *Server) ListParkedEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultParkedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	events, err := s.services.Outbox.ListParked(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if events == nil {
		events = []*model.OutboxEvent{}
	}

	s.writeJSON(w, http.StatusOK, events)
}

// RequeueEvent handles POST /admin/outbox/{id}/requeue.
func (s *Server) RequeueEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.services.Outbox.Requeue(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
