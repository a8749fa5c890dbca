package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"pockets/internal/money"
	"pockets/internal/services"
)

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Available string `json:"available,omitempty"`
}

func statusForKind(kind services.Kind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindNotMember, services.KindNotAdmin:
		return http.StatusForbidden
	case services.KindCreatorProtected, services.KindLastAdminProtected, services.KindAlreadyMember,
		services.KindDuplicateName, services.KindRestrictedDeletion:
		return http.StatusConflict
	case services.KindInsufficientFunds, services.KindCrossContextTransfer, services.KindForbiddenDirectEdit,
		services.KindAmbiguousOwner, services.KindNoOwner, services.KindInvalidInput:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondServiceError writes a domain error with its kind, or a 500 for
// anything the domain does not name.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *services.Error
	if errors.As(err, &domainErr) {
		body := errorResponse{Error: string(domainErr.Kind), Message: domainErr.Message}
		if domainErr.Available != nil {
			body.Available = money.FormatMinor(*domainErr.Available)
		}
		respondJSON(w, statusForKind(domainErr.Kind), body)
		return
	}
	slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	respondError(w, http.StatusInternalServerError, "internal error")
}
