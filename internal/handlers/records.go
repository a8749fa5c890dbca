package handlers

import (
	"net/http"

	"pockets/internal/models"
	"pockets/internal/services"

	"github.com/go-chi/chi/v5"
)

type recordRequest struct {
	ownerFields
	CategoryID  *string `json:"category_id"`
	PocketID    *string `json:"pocket_id"`
	Amount      string  `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

// recordRoutes mounts the same CRUD surface for incomes and expenses.
func (h *Handler) recordRoutes(service RecordService) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.listRecords(service))
		r.Post("/", h.createRecord(service))
		r.Get("/{recordID}", h.getRecord(service))
		r.Put("/{recordID}", h.updateRecord(service))
		r.Delete("/{recordID}", h.deleteRecord(service))
	}
}

func (h *Handler) createRecord(service RecordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r)
		if !ok {
			return
		}
		var req recordRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		amount, err := parseAmountMinor(req.Amount)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_amount")
			return
		}
		day, err := parseDate(req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		record, err := service.Create(r.Context(), services.RecordRequest{
			ActorID:     userID,
			Owner:       req.owner(userID),
			CategoryID:  req.CategoryID,
			PocketID:    req.PocketID,
			Amount:      amount,
			OccurredOn:  day,
			Description: req.Description,
		})
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, models.FromRecord(record))
	}
}

func (h *Handler) listRecords(service RecordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r)
		if !ok {
			return
		}
		records, err := service.List(r.Context(), userID, r.URL.Query().Get("group_id"))
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, models.FromRecords(records))
	}
}

func (h *Handler) getRecord(service RecordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r)
		if !ok {
			return
		}
		record, err := service.Get(r.Context(), userID, chi.URLParam(r, "recordID"))
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, models.FromRecord(record))
	}
}

func (h *Handler) updateRecord(service RecordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r)
		if !ok {
			return
		}
		var req recordRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		amount, err := parseAmountMinor(req.Amount)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_amount")
			return
		}
		day, err := parseDate(req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		record, err := service.Update(r.Context(), services.UpdateRecordRequest{
			ActorID:     userID,
			RecordID:    chi.URLParam(r, "recordID"),
			CategoryID:  req.CategoryID,
			PocketID:    req.PocketID,
			Amount:      amount,
			OccurredOn:  day,
			Description: req.Description,
		})
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, models.FromRecord(record))
	}
}

func (h *Handler) deleteRecord(service RecordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actorID(w, r)
		if !ok {
			return
		}
		if err := service.Delete(r.Context(), userID, chi.URLParam(r, "recordID")); err != nil {
			respondServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
