package handlers

import (
	"net/http"
	"strings"

	"pockets/internal/models"
	"pockets/internal/services"
)

type moveRequest struct {
	FromPocketID string `json:"from_pocket_id"`
	ToPocketID   string `json:"to_pocket_id"`
	Amount       string `json:"amount"`
	Description  string `json:"description"`
}

func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	result, err := h.transfers.Move(r.Context(), services.MoveRequest{
		ActorID:      userID,
		FromPocketID: req.FromPocketID,
		ToPocketID:   req.ToPocketID,
		Amount:       amount,
		Description:  req.Description,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]models.Pocket{
		"from_pocket": models.FromPocket(result.From),
		"to_pocket":   models.FromPocket(result.To),
	})
}

type transferRequest struct {
	FromPocketID string `json:"from_pocket_id"`
	ToPocketID   string `json:"to_pocket_id"`
	AmountFrom   string `json:"amount_from"`
	AmountTo     string `json:"amount_to"`
	Rate         string `json:"rate"`
	Description  string `json:"description"`
}

func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountFrom, err := parseAmountMinor(req.AmountFrom)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	transfer := services.TransferRequest{
		ActorID:      userID,
		FromPocketID: req.FromPocketID,
		ToPocketID:   req.ToPocketID,
		AmountFrom:   amountFrom,
		Description:  req.Description,
	}
	if strings.TrimSpace(req.AmountTo) != "" {
		if transfer.AmountTo, err = parseAmountMinor(req.AmountTo); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_amount")
			return
		}
	}
	if strings.TrimSpace(req.Rate) != "" {
		rate, err := parseRate(req.Rate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_rate")
			return
		}
		transfer.Rate = &rate
	}
	created, err := h.transfers.CreateTransfer(r.Context(), transfer)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, models.FromTransfer(created))
}

func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	transfers, err := h.transfers.ListTransfers(r.Context(), userID, limit, offset)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.FromTransfers(transfers))
}

func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	movements, err := h.transfers.ListMovements(r.Context(), userID, r.URL.Query().Get("group_id"), limit, offset)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.FromMovements(movements))
}
