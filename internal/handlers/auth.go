package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/logging"
)

// AuthHandler implements the session-lifecycle endpoints.
type AuthHandler struct {
	Sessions     SessionManager
	Cookies      CookieConfig
	MaxBodyBytes int64
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         any    `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// Login handles POST /api/v1/users/login. Username AND email are both
// required; the tokens are returned in the body and as httpOnly cookies.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req loginRequest
	if !decodeJSON(w, r, h.MaxBodyBytes, &req) {
		return
	}

	pair, account, err := h.Sessions.Login(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		logger.Warn("login failed", "username", strings.ToLower(strings.TrimSpace(req.Username)), "error", err)
		respondAuthError(ctx, w, err)
		return
	}

	setAuthCookies(w, pair, h.Cookies)
	respondData(ctx, w, http.StatusOK, loginResponse{
		User:         account,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "logged in successfully")
}

// Logout handles POST /api/v1/users/logout. Requires the auth gate; revokes
// the stored refresh token and expires both cookies. The access token stays
// cryptographically valid until expiry, which is intended: access tokens are
// not server-revocable.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, ok := CurrentAccount(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	if err := h.Sessions.Logout(ctx, account.ID); err != nil {
		respondAuthError(ctx, w, err)
		return
	}

	clearAuthCookies(w, h.Cookies)
	respondData(ctx, w, http.StatusOK, struct{}{}, "logged out successfully")
}

// Refresh handles POST /api/v1/users/refresh-token. The refresh token can
// arrive as a cookie or in the body; a successful exchange rotates the stored
// value and re-issues both cookies.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	presented := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" && r.Body != nil && r.ContentLength != 0 {
		var req refreshRequest
		if !decodeJSON(w, r, h.MaxBodyBytes, &req) {
			return
		}
		presented = req.RefreshToken
	}

	pair, err := h.Sessions.Refresh(ctx, presented)
	if err != nil {
		logging.FromContext(ctx).Warn("refresh failed", "error", err)
		respondAuthError(ctx, w, err)
		return
	}

	setAuthCookies(w, pair, h.Cookies)
	respondData(ctx, w, http.StatusOK, pair, "session refreshed")
}

// ChangePassword handles POST /api/v1/users/changePassword.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, ok := CurrentAccount(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	var req changePasswordRequest
	if !decodeJSON(w, r, h.MaxBodyBytes, &req) {
		return
	}

	if err := h.Sessions.ChangePassword(ctx, account.ID, req.OldPassword, req.NewPassword); err != nil {
		respondAuthError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

// decodeJSON reads a size-limited JSON body, responding 400 on failure. It
// reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	ctx := r.Context()
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logging.FromContext(ctx).Warn("invalid request payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
