package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"pockets/internal/auth"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UnauthorizedCode is the error code of every 401 body this package writes.
const UnauthorizedCode = "unauthorized"

type authError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// BearerToken extracts the token of a "Bearer <token>" header value. The
// scheme is case-insensitive. Anything else yields "".
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RespondUnauthorized writes a JSON 401 shaped like the API's other errors.
func RespondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="pockets"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(authError{Error: UnauthorizedCode, Message: message})
}

// Auth rejects requests without a valid access token and stores the
// token's user id in the request context.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				RespondUnauthorized(w, "missing authorization header")
				return
			}
			token := BearerToken(header)
			if token == "" {
				RespondUnauthorized(w, "invalid authorization header")
				return
			}
			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				RespondUnauthorized(w, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
