package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type stubProfiles struct {
	profiles map[string]models.ChannelProfile
	history  map[string][]models.WatchEntry
	viewerID string
	err      error
}

func (s *stubProfiles) ChannelProfile(_ context.Context, username, viewerID string) (models.ChannelProfile, error) {
	if s.err != nil {
		return models.ChannelProfile{}, s.err
	}
	s.viewerID = viewerID
	profile, ok := s.profiles[username]
	if !ok {
		return models.ChannelProfile{}, repositories.ErrNotFound
	}
	return profile, nil
}

func (s *stubProfiles) WatchHistory(_ context.Context, accountID string) ([]models.WatchEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.history[accountID], nil
}

func channelRequest(username string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/c/"+username, nil)
	req.SetPathValue("username", username)
	return req
}

func TestProfileHandlerChannel(t *testing.T) {
	profiles := &stubProfiles{profiles: map[string]models.ChannelProfile{
		"alice": {ID: "id-alice", Username: "alice", SubscriberCount: 42, IsSubscribed: true},
	}}
	handler := ProfileHandler{Profiles: profiles}

	req := channelRequest("Alice")
	req = req.WithContext(withIdentity(req.Context(), models.AccountView{ID: "id-viewer"}))
	rec := httptest.NewRecorder()

	handler.Channel(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if profiles.viewerID != "id-viewer" {
		t.Fatalf("expected viewer id to reach the reader, got %q", profiles.viewerID)
	}

	var envelope struct {
		Data models.ChannelProfile `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SubscriberCount != 42 || !envelope.Data.IsSubscribed {
		t.Fatalf("unexpected profile payload: %+v", envelope.Data)
	}
}

func TestProfileHandlerChannelAnonymous(t *testing.T) {
	profiles := &stubProfiles{profiles: map[string]models.ChannelProfile{
		"bob": {ID: "id-bob", Username: "bob"},
	}}
	handler := ProfileHandler{Profiles: profiles}

	rec := httptest.NewRecorder()
	handler.Channel(rec, channelRequest("bob"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if profiles.viewerID != "" {
		t.Fatalf("expected empty viewer id for anonymous request, got %q", profiles.viewerID)
	}
}

func TestProfileHandlerChannelNotFound(t *testing.T) {
	handler := ProfileHandler{Profiles: &stubProfiles{profiles: map[string]models.ChannelProfile{}}}

	rec := httptest.NewRecorder()
	handler.Channel(rec, channelRequest("nobody"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestProfileHandlerChannelReaderFailure(t *testing.T) {
	handler := ProfileHandler{Profiles: &stubProfiles{err: errors.New("reader down")}}

	rec := httptest.NewRecorder()
	handler.Channel(rec, channelRequest("alice"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestProfileHandlerWatchHistory(t *testing.T) {
	watched := time.Now().UTC().Truncate(time.Second)
	profiles := &stubProfiles{history: map[string][]models.WatchEntry{
		"id-alice": {
			{VideoID: "vid-2", Title: "Newer", WatchedAt: watched},
			{VideoID: "vid-1", Title: "Older", WatchedAt: watched.Add(-time.Hour)},
		},
	}}
	handler := ProfileHandler{Profiles: profiles}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/watchHistory", nil)
	req = req.WithContext(withIdentity(req.Context(), models.AccountView{ID: "id-alice"}))
	rec := httptest.NewRecorder()

	handler.WatchHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data []models.WatchEntry `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 || envelope.Data[0].VideoID != "vid-2" {
		t.Fatalf("unexpected history payload: %+v", envelope.Data)
	}
}

func TestProfileHandlerWatchHistoryEmpty(t *testing.T) {
	handler := ProfileHandler{Profiles: &stubProfiles{}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/watchHistory", nil)
	req = req.WithContext(withIdentity(req.Context(), models.AccountView{ID: "id-empty"}))
	rec := httptest.NewRecorder()

	handler.WatchHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	// An empty history serializes as [], never null.
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if string(envelope.Data) != "[]" {
		t.Fatalf("expected empty array payload, got %s", envelope.Data)
	}
}

func TestProfileHandlerWatchHistoryRequiresIdentity(t *testing.T) {
	handler := ProfileHandler{Profiles: &stubProfiles{}}

	rec := httptest.NewRecorder()
	handler.WatchHistory(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/watchHistory", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}
