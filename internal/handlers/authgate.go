package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/token"
)

type ctxKey string

const identityKey ctxKey = "identity"

func withIdentity(ctx context.Context, account models.AccountView) context.Context {
	return context.WithValue(ctx, identityKey, account)
}

// CurrentAccount returns the sanitized account the auth gate attached to the
// request context, if any.
func CurrentAccount(ctx context.Context) (models.AccountView, bool) {
	account, ok := ctx.Value(identityKey).(models.AccountView)
	return account, ok
}

// AuthGate authenticates requests from an access-token cookie or bearer
// header. It verifies, loads the sanitized account, and attaches it to the
// request context. It never touches the refresh token and never re-issues
// anything.
type AuthGate struct {
	Codec    *token.Codec
	Accounts AccountStore
}

// Require rejects unauthenticated requests with a single generic 401; the
// caller never learns whether the token was absent, expired, malformed, or of
// the wrong kind.
func (g AuthGate) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := g.authenticate(r)
		if err != nil {
			respondError(r.Context(), w, http.StatusUnauthorized, "unauthorized request")
			return
		}
		next(w, r.WithContext(withIdentity(r.Context(), account)))
	}
}

// Optional attaches an identity when a valid access token is presented and
// otherwise lets the request through anonymously.
func (g AuthGate) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if account, err := g.authenticate(r); err == nil {
			r = r.WithContext(withIdentity(r.Context(), account))
		}
		next(w, r)
	}
}

func (g AuthGate) authenticate(r *http.Request) (models.AccountView, error) {
	if g.Codec == nil || g.Accounts == nil {
		return models.AccountView{}, auth.ErrUnauthorized
	}

	presented := accessTokenFromRequest(r)
	if presented == "" {
		return models.AccountView{}, auth.ErrUnauthorized
	}

	accountID, err := g.Codec.Verify(token.KindAccess, presented)
	if err != nil {
		return models.AccountView{}, auth.ErrUnauthorized
	}

	account, err := g.Accounts.FindByID(r.Context(), accountID)
	if err != nil {
		return models.AccountView{}, auth.ErrUnauthorized
	}

	return account.View(), nil
}

func accessTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return ""
}
