package handlers

import (
	"net/http"

	"pockets/internal/models"
	"pockets/internal/services"

	"github.com/go-chi/chi/v5"
)

type contributeRequest struct {
	UserPocketID  string `json:"user_pocket_id"`
	GroupPocketID string `json:"group_pocket_id"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Description   string `json:"description"`
}

func (h *Handler) Contribute(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req contributeRequest
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
	result, err := h.contributions.Contribute(r.Context(), services.ContributeRequest{
		ActorID:       userID,
		GroupID:       chi.URLParam(r, "groupID"),
		UserPocketID:  req.UserPocketID,
		GroupPocketID: req.GroupPocketID,
		Amount:        amount,
		ContributedOn: day,
		Description:   req.Description,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"contribution": models.FromContribution(result.Contribution),
		"user_pocket":  models.FromPocket(result.UserPocket),
		"group_pocket": models.FromPocket(result.GroupPocket),
	})
}

func (h *Handler) ListContributions(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	contributions, err := h.contributions.ListContributions(r.Context(), userID, chi.URLParam(r, "groupID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.FromContributions(contributions))
}
