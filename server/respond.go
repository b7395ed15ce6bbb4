package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/assistantlabs/go-assistant-server/internal/errors"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses. Authentication
// failures tell the client to sign in again; a failed refresh is retryable.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.Is(err, apperrors.ErrNoRefreshToken),
		apperrors.Is(err, apperrors.ErrAuthExpired),
		apperrors.Is(err, apperrors.ErrUnauthorized),
		apperrors.Is(err, apperrors.ErrSessionNotFound):
		status = http.StatusUnauthorized
	case apperrors.Is(err, apperrors.ErrRefreshFailed), apperrors.Is(err, apperrors.ErrBadResponse):
		status = http.StatusBadGateway
	case apperrors.Is(err, apperrors.ErrNoFaceDetected):
		status = http.StatusUnprocessableEntity
	case apperrors.Is(err, apperrors.ErrNoEnrollment), apperrors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case apperrors.Is(err, apperrors.ErrInvalidRequest):
		status = http.StatusBadRequest
	}

	resp := errorResponse{Error: apperrors.Kind(err)}
	if status >= 500 || status == http.StatusBadRequest {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
