package handlers

import (
	"net/http"

	"pockets/internal/models"
	"pockets/internal/services"
	"pockets/internal/store"

	"github.com/go-chi/chi/v5"
)

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	group, general, err := h.groups.CreateGroup(r.Context(), services.CreateGroupRequest{
		ActorID:     userID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"group":          models.FromGroup(group, store.RoleAdmin),
		"general_pocket": models.FromPocket(general),
	})
}

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	groups, err := h.groups.ListGroups(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.FromGroupSummaries(groups))
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	group, role, err := h.groups.GetGroup(r.Context(), userID, chi.URLParam(r, "groupID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.FromGroup(group, role))
}

func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	if err := h.groups.DeleteGroup(r.Context(), userID, chi.URLParam(r, "groupID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	members, err := h.groups.ListMembers(r.Context(), userID, chi.URLParam(r, "groupID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.FromMembers(members))
}

type addMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	membership, err := h.groups.AddMember(r.Context(), services.AddMemberRequest{
		ActorID: userID,
		GroupID: chi.URLParam(r, "groupID"),
		Email:   req.Email,
		Role:    req.Role,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, models.FromMembership(membership))
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req changeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Role == "" {
		respondError(w, http.StatusBadRequest, "role is required")
		return
	}
	err := h.groups.ChangeRole(r.Context(), services.ChangeRoleRequest{
		ActorID:      userID,
		GroupID:      chi.URLParam(r, "groupID"),
		TargetUserID: chi.URLParam(r, "userID"),
		Role:         req.Role,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	err := h.groups.RemoveMember(r.Context(), services.RemoveMemberRequest{
		ActorID:      userID,
		GroupID:      chi.URLParam(r, "groupID"),
		TargetUserID: chi.URLParam(r, "userID"),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
