package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// ProfileHandler serves the read-only channel and history projections. The
// handlers only hand an identifier to the reader; the projection shape is
// owned by the collaborator.
type ProfileHandler struct {
	Profiles ProfileReader
}

// Channel handles GET /api/v1/users/c/{username}. Authentication is
// optional; a known viewer additionally gets the isSubscribed flag.
func (h ProfileHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Profiles == nil {
		logging.FromContext(ctx).Error("profile reader unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "profile services unavailable")
		return
	}

	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is required")
		return
	}

	viewerID := ""
	if viewer, ok := CurrentAccount(ctx); ok {
		viewerID = viewer.ID
	}

	channel, err := h.Profiles.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel not found")
			return
		}
		logging.FromContext(ctx).Error("channel profile lookup failed", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load channel")
		return
	}

	respondData(ctx, w, http.StatusOK, channel, "channel fetched successfully")
}

// WatchHistory handles GET /api/v1/users/watchHistory.
func (h ProfileHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, ok := CurrentAccount(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	if h.Profiles == nil {
		logging.FromContext(ctx).Error("profile reader unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "profile services unavailable")
		return
	}

	entries, err := h.Profiles.WatchHistory(ctx, account.ID)
	if err != nil {
		logging.FromContext(ctx).Error("watch history lookup failed", "error", err, "accountId", account.ID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load watch history")
		return
	}
	if entries == nil {
		entries = []models.WatchEntry{}
	}

	respondData(ctx, w, http.StatusOK, entries, "watch history fetched successfully")
}
