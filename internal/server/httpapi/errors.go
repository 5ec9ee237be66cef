package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/strongholdapp/docsync/internal/api"
	"github.com/strongholdapp/docsync/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto HTTP statuses and machine-readable
// codes. Anything unmapped becomes a generic 500 so internals do not leak.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeJSON(w, http.StatusNotFound, api.Error{Code: "not_found", Message: "not found"})
	case errors.Is(err, common.ErrVersionConflict):
		writeJSON(w, http.StatusConflict, api.Error{Code: "version_conflict", Message: "stored version is newer"})
	case errors.Is(err, common.ErrUserAlreadyExists):
		writeJSON(w, http.StatusConflict, api.Error{Code: "user_exists", Message: "username is taken"})
	case errors.Is(err, common.ErrTokenExpired):
		writeJSON(w, http.StatusUnauthorized, api.Error{Code: common.TokenExpiredCode, Message: "access token expired"})
	case errors.Is(err, common.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, api.Error{Code: "bad_request", Message: err.Error()})
	case errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, api.Error{Code: "unauthorized", Message: "unauthorized"})
	default:
		writeJSON(w, http.StatusInternalServerError, api.Error{Code: "internal", Message: "internal error"})
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, api.Error{Code: "bad_request", Message: msg})
}
