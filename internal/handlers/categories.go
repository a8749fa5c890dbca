package handlers

import (
	"net/http"

	"pockets/internal/models"
	"pockets/internal/services"

	"github.com/go-chi/chi/v5"
)

type createCategoryRequest struct {
	ownerFields
	Name  string `json:"name"`
	Color string `json:"color"`
	Kind  string `json:"kind"`
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	category, err := h.categories.CreateCategory(r.Context(), services.CategoryRequest{
		ActorID: userID,
		Owner:   req.owner(userID),
		Name:    req.Name,
		Color:   req.Color,
		Kind:    req.Kind,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, models.FromCategory(category))
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	categories, err := h.categories.ListCategories(r.Context(), userID, query.Get("group_id"), query.Get("kind"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.FromCategories(categories))
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	category, err := h.categories.GetCategory(r.Context(), userID, chi.URLParam(r, "categoryID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.FromCategory(category))
}

type updateCategoryRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Kind  *string `json:"kind"`
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	category, err := h.categories.UpdateCategory(r.Context(), services.UpdateCategoryRequest{
		ActorID:    userID,
		CategoryID: chi.URLParam(r, "categoryID"),
		Name:       req.Name,
		Color:      req.Color,
		Kind:       req.Kind,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.FromCategory(category))
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	if err := h.categories.DeleteCategory(r.Context(), userID, chi.URLParam(r, "categoryID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
