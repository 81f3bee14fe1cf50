package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// AccountHandler implements registration and account-maintenance endpoints.
type AccountHandler struct {
	Accounts       AccountStore
	Media          MediaStorage
	Uploads        []config.UploadField
	MaxUploadBytes int64
	MaxBodyBytes   int64
	Limiter        RateLimiter
	NowFunc        func() time.Time
}

type updateAccountRequest struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
}

// Register handles POST /api/v1/users/register: a multipart form carrying the
// account fields plus a mandatory avatar image and an optional cover image.
func (h AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Accounts == nil || h.Media == nil {
		logger.Error("registration dependencies unavailable", "hasAccounts", h.Accounts != nil, "hasMedia", h.Media != nil)
		respondError(ctx, w, http.StatusInternalServerError, "registration services unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "upload") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many upload requests")
		return
	}

	form, cleanup, ok := parseUploadForm(w, r, h.MaxUploadBytes)
	if !ok {
		return
	}
	defer cleanup()

	fullName := strings.TrimSpace(r.FormValue("fullname"))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	username := strings.ToLower(strings.TrimSpace(r.FormValue("username")))
	password := r.FormValue("password")

	var violations []string
	for name, value := range map[string]string{
		"fullname": fullName,
		"email":    email,
		"username": username,
		"password": strings.TrimSpace(password),
	} {
		if value == "" {
			violations = append(violations, name+" must not be empty")
		}
	}
	violations = append(violations, checkUploadFields(form, h.Uploads)...)
	if len(violations) > 0 {
		respondError(ctx, w, http.StatusBadRequest, "all fields are required", violations...)
		return
	}

	taken, err := h.Accounts.UsernameOrEmailTaken(ctx, username, email)
	if err != nil {
		logger.Error("uniqueness check failed", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify existing accounts")
		return
	}
	if taken {
		respondError(ctx, w, http.StatusConflict, "username or email already in use")
		return
	}

	avatarURL, err := saveUpload(ctx, h.Media, "avatars", form.File["avatar"][0])
	if err != nil {
		logger.Error("avatar upload failed", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store avatar")
		return
	}
	if avatarURL == "" {
		respondError(ctx, w, http.StatusBadRequest, "avatar file is required")
		return
	}

	coverURL := ""
	if covers := form.File["coverImage"]; len(covers) > 0 {
		coverURL, err = saveUpload(ctx, h.Media, "covers", covers[0])
		if err != nil {
			logger.Error("cover image upload failed", "error", err, "username", username)
			respondError(ctx, w, http.StatusInternalServerError, "failed to store cover image")
			return
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logger.Error("failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	account := models.Account{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		PasswordHash:  hash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "username or email already in use")
			return
		}
		logger.Error("failed to create account", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	respondData(ctx, w, http.StatusCreated, account.View(), "account registered successfully")
}

// CurrentUser handles GET /api/v1/users/current-user-info.
func (h AccountHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, ok := CurrentAccount(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	respondData(ctx, w, http.StatusOK, account, "current account fetched")
}

// UpdateAccount handles PATCH /api/v1/users/updateAccount.
func (h AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, ok := CurrentAccount(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	var req updateAccountRequest
	if !decodeJSON(w, r, h.MaxBodyBytes, &req) {
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if fullName == "" || email == "" {
		respondError(ctx, w, http.StatusBadRequest, "fullname and email are required")
		return
	}

	updated, err := h.Accounts.UpdateProfile(ctx, account.ID, fullName, email)
	if err != nil {
		respondAuthError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, updated.View(), "account updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/updateAvatar.
func (h AccountHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatars", h.Accounts.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/updateCoverImage.
func (h AccountHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "covers", h.Accounts.UpdateCoverImage)
}

func (h AccountHandler) updateImage(
	w http.ResponseWriter,
	r *http.Request,
	field, prefix string,
	update func(ctx context.Context, id, url string) (models.Account, error),
) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	account, ok := CurrentAccount(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "unauthorized request")
		return
	}

	if !allowRequest(h.Limiter, r, "upload") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many upload requests")
		return
	}

	form, cleanup, ok := parseUploadForm(w, r, h.MaxUploadBytes)
	if !ok {
		return
	}
	defer cleanup()

	files := form.File[field]
	if len(files) == 0 {
		respondError(ctx, w, http.StatusBadRequest, field+" file is required")
		return
	}
	if len(files) > 1 {
		respondError(ctx, w, http.StatusBadRequest, field+" accepts a single file")
		return
	}

	url, err := saveUpload(ctx, h.Media, prefix, files[0])
	if err != nil {
		logger.Error("image upload failed", "error", err, "field", field)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store image")
		return
	}

	updated, err := update(ctx, account.ID, url)
	if err != nil {
		respondAuthError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, updated.View(), field+" updated successfully")
}

func (h AccountHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
