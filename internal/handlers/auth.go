package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"pockets/internal/auth"
	"pockets/internal/models"
	"pockets/internal/services"
)

type registerRequest struct {
	Email             string `json:"email"`
	DisplayName       string `json:"display_name"`
	Password          string `json:"password"`
	PreferredCurrency string `json:"preferred_currency"`
}

type tokenResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	user, err := h.accounts.Register(r.Context(), services.RegisterRequest{
		Email:             req.Email,
		DisplayName:       req.DisplayName,
		Password:          req.Password,
		PreferredCurrency: req.PreferredCurrency,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	slog.InfoContext(r.Context(), "user registered", "user_id", user.ID)
	respondJSON(w, http.StatusCreated, tokenResponse{Token: token, User: models.FromUser(user)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	user, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{Token: token, User: models.FromUser(user)})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	user, err := h.accounts.Profile(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.FromUser(user))
}

func (h *Handler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	exists, err := h.accounts.EmailExists(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}
