package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/repositories"
)

// apiResponse is the success envelope every endpoint returns.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// apiError is the failure envelope. Internals (store errors, stack traces)
// never reach the client; Errors carries field-level validation detail only.
type apiError struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func respondData(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeJSON(ctx, w, status, apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string, violations ...string) {
	if violations == nil {
		violations = []string{}
	}
	writeJSON(ctx, w, status, apiError{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     violations,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status)
	}
}

// respondAuthError maps session-lifecycle failures onto fixed status codes.
// Codec failure detail deliberately collapses into a generic unauthorized
// message.
func respondAuthError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		respondError(ctx, w, http.StatusBadRequest, "required fields are missing")
	case errors.Is(err, auth.ErrAccountNotFound):
		respondError(ctx, w, http.StatusNotFound, "account not found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenReused):
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
	case errors.Is(err, repositories.ErrConflict):
		respondError(ctx, w, http.StatusConflict, "username or email already in use")
	case errors.Is(err, repositories.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "account not found")
	default:
		logging.FromContext(ctx).Error("request failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "something went wrong")
	}
}
