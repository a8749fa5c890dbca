package handlers

import (
	"net/http"
	"strings"

	"pockets/internal/models"
	"pockets/internal/services"

	"github.com/go-chi/chi/v5"
)

// ownerFields names the owner of a new pocket, category or record. With
// neither id set the caller owns it personally.
type ownerFields struct {
	UserID  *string `json:"user_id"`
	GroupID *string `json:"group_id"`
}

func (o ownerFields) owner(actorID string) services.Owner {
	if blank(o.UserID) && blank(o.GroupID) {
		return services.PersonalOwner(actorID)
	}
	return services.Owner{UserID: o.UserID, GroupID: o.GroupID}
}

func blank(value *string) bool {
	return value == nil || strings.TrimSpace(*value) == ""
}

type createPocketRequest struct {
	ownerFields
	Name    string `json:"name"`
	Color   string `json:"color"`
	Balance string `json:"balance"`
}

func (h *Handler) CreatePocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req createPocketRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	balance, err := parseBalanceMinor(req.Balance)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	pocket, err := h.pockets.CreatePocket(r.Context(), services.CreatePocketRequest{
		ActorID: userID,
		Owner:   req.owner(userID),
		Name:    req.Name,
		Color:   req.Color,
		Balance: balance,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, models.FromPocket(pocket))
}

// ListPockets lists a group's pockets with ?group_id=, otherwise the
// caller's personal pockets.
func (h *Handler) ListPockets(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	pockets, err := h.pockets.ListPockets(r.Context(), userID, r.URL.Query().Get("group_id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.FromPockets(pockets))
}

func (h *Handler) GetPocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	pocket, err := h.pockets.GetPocket(r.Context(), userID, chi.URLParam(r, "pocketID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.FromPocket(pocket))
}

func (h *Handler) GetGeneralPocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	pocket, err := h.pockets.GetGeneralPocket(r.Context(), userID, chi.URLParam(r, "groupID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.FromPocket(pocket))
}

type updatePocketRequest struct {
	Name    *string `json:"name"`
	Color   *string `json:"color"`
	Balance *string `json:"balance"`
}

func (h *Handler) UpdatePocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req updatePocketRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	update := services.UpdatePocketRequest{
		ActorID:  userID,
		PocketID: chi.URLParam(r, "pocketID"),
		Name:     req.Name,
		Color:    req.Color,
	}
	if req.Balance != nil {
		balance, err := parseBalanceMinor(*req.Balance)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_amount")
			return
		}
		update.Balance = &balance
	}
	pocket, err := h.pockets.UpdatePocket(r.Context(), update)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.FromPocket(pocket))
}

func (h *Handler) DeletePocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	if err := h.pockets.DeletePocket(r.Context(), userID, chi.URLParam(r, "pocketID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
