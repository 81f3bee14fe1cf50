package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// AccountRepository defines the data access contract for accounts. It is the
// sole owner of persistent account state, including the refresh-token field.
type AccountRepository interface {
	Create(ctx context.Context, account models.Account) error
	FindByID(ctx context.Context, id string) (models.Account, error)
	FindByCredentials(ctx context.Context, username, email string) (models.Account, error)
	UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error)
	UpdateProfile(ctx context.Context, id, fullName, email string) (models.Account, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) (models.Account, error)
	UpdateCoverImage(ctx context.Context, id, coverImageURL string) (models.Account, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	SetRefreshToken(ctx context.Context, id, refreshToken string) error
	RotateRefreshToken(ctx context.Context, id, presented, next string) error
	ClearRefreshToken(ctx context.Context, id string) error
}

// ProfileReader is the read-only aggregation collaborator: channel pages and
// watch history. Callers only supply identifiers; the projection shape is
// fixed here.
type ProfileReader interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, accountID string) ([]models.WatchEntry, error)
}
