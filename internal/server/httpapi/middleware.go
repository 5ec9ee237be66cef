package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/strongholdapp/docsync/internal/common"
	"github.com/strongholdapp/docsync/internal/server/auth"
)

type contextKey string

const userIDKey contextKey = "userID"

// authMiddleware validates the bearer access token and stores the user id in
// the request context. An expired token gets a distinct error code so clients
// know to refresh instead of re-authenticating.
func authMiddleware(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(common.AuthorizationHeader)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, common.ErrUnauthorized)
				return
			}
			userID, err := auth.GetUserIDFromToken(token, secretKey)
			if err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
		})
	}
}

// userID returns the authenticated user id placed by authMiddleware.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
