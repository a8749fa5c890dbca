package handlers

import (
	"net/http"

	"pockets/internal/models"
)

// ListAuditLog returns the caller's own audit trail, newest first.
func (h *Handler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	entries, err := h.audit.ListByActor(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load audit log")
		return
	}
	respondJSON(w, http.StatusOK, models.FromAuditEntries(entries))
}
