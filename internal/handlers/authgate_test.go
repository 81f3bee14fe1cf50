package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/token"
)

func issueTestToken(t *testing.T, codec *token.Codec, kind token.Kind, accountID string) string {
	t.Helper()
	signed, err := codec.Issue(kind, accountID)
	if err != nil {
		t.Fatalf("issue %s token: %v", kind, err)
	}
	return signed
}

func TestAuthGateRequire(t *testing.T) {
	store := newMemoryAccounts()
	account := seedTestAccount(t, store, "alice", "password123")
	codec := newTestCodec(t)
	gate := AuthGate{Codec: codec, Accounts: store}

	var seen models.AccountView
	handler := gate.Require(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = CurrentAccount(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	// Access token as cookie.
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: issueTestToken(t, codec, token.KindAccess, account.ID)})
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d got %d", http.StatusNoContent, rec.Code)
	}
	if seen.ID != account.ID {
		t.Fatalf("expected identity %s on context, got %+v", account.ID, seen)
	}

	// Access token as bearer header.
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, codec, token.KindAccess, account.ID))
	rec = httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d via bearer header, got %d", http.StatusNoContent, rec.Code)
	}
}

func TestAuthGateRequireRejections(t *testing.T) {
	store := newMemoryAccounts()
	account := seedTestAccount(t, store, "bob", "password123")
	codec := newTestCodec(t)
	gate := AuthGate{Codec: codec, Accounts: store}

	handler := gate.Require(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for rejected requests")
	})

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"knd": "access",
		"sub": account.ID,
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	expiredToken, err := expired.SignedString([]byte("access-secret"))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage token", "not-a-token"},
		{"refresh token in access slot", issueTestToken(t, codec, token.KindRefresh, account.ID)},
		{"expired token", expiredToken},
		{"unknown account", issueTestToken(t, codec, token.KindAccess, "id-ghost")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.token != "" {
				req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: tc.token})
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
			}
		})
	}
}

func TestAuthGateOptional(t *testing.T) {
	store := newMemoryAccounts()
	account := seedTestAccount(t, store, "carol", "password123")
	codec := newTestCodec(t)
	gate := AuthGate{Codec: codec, Accounts: store}

	var seen models.AccountView
	var sawIdentity bool
	handler := gate.Optional(func(w http.ResponseWriter, r *http.Request) {
		seen, sawIdentity = CurrentAccount(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	// Anonymous requests pass straight through.
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/channel", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d for anonymous request, got %d", http.StatusNoContent, rec.Code)
	}
	if sawIdentity {
		t.Fatal("expected no identity for anonymous request")
	}

	// Invalid tokens degrade to anonymous rather than rejecting.
	req := httptest.NewRequest(http.MethodGet, "/channel", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: "garbage"})
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusNoContent || sawIdentity {
		t.Fatalf("expected anonymous pass-through for bad token, got status %d identity %v", rec.Code, sawIdentity)
	}

	req = httptest.NewRequest(http.MethodGet, "/channel", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: issueTestToken(t, codec, token.KindAccess, account.ID)})
	rec = httptest.NewRecorder()
	handler(rec, req)
	if !sawIdentity || seen.ID != account.ID {
		t.Fatalf("expected identity %s, got %+v", account.ID, seen)
	}
}
