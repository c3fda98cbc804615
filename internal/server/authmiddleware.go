package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/primetimelines/shonacoin/internal/auth"
)

type userIDKey struct{}

// AuthMiddleware validates the Bearer token and injects the authenticated
// user id into the request context. Requests without a valid token are
// rejected before reaching any handler.
func AuthMiddleware(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, "missing bearer token")
				return
			}

			userID, err := tokens.Validate(token)
			if err != nil {
				writeAuthError(w, "invalid or expired token")
				return
			}

			AddLogField(r.Context(), "user_id", userID)
			ctx := context.WithValue(r.Context(), userIDKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id from context, or "" when the
// request carried no identity.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"type": "unauthorized", "message": message},
	})
}
