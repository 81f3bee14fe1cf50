package handlers

import (
	"context"
	"io"

	"github.com/clipstream/backend/internal/models"
)

// AccountStore captures the persistence operations required by the account handlers.
type AccountStore interface {
	Create(ctx context.Context, account models.Account) error
	FindByID(ctx context.Context, id string) (models.Account, error)
	UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error)
	UpdateProfile(ctx context.Context, id, fullName, email string) (models.Account, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) (models.Account, error)
	UpdateCoverImage(ctx context.Context, id, coverImageURL string) (models.Account, error)
}

// SessionManager drives the credential and session lifecycle for accounts.
type SessionManager interface {
	Login(ctx context.Context, username, email, password string) (models.TokenPair, models.AccountView, error)
	Logout(ctx context.Context, accountID string) error
	Refresh(ctx context.Context, presented string) (models.TokenPair, error)
	ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error
}

// ProfileReader serves the aggregated channel-page and watch-history projections.
type ProfileReader interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, accountID string) ([]models.WatchEntry, error)
}

// MediaStorage uploads account media and returns a public reference URL.
type MediaStorage interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}
