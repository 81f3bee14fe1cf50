package app

import (
	"context"
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/profile"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/storage"
	"github.com/clipstream/backend/internal/token"
)

// buildDependencies wires together the concrete implementations used by the
// HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	codec, err := token.NewCodec(token.Config{
		AccessSecret:  []byte(cfg.AccessTokenSecret),
		RefreshSecret: []byte(cfg.RefreshTokenSecret),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		return handlers.Dependencies{}, err
	}

	media, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	accounts := repositories.NewPostgresAccountRepository(pool)
	profiles := profile.NewCachingReader(repositories.NewPostgresProfileRepository(pool), cfg.ProfileCacheTTL)

	return handlers.Dependencies{
		Accounts: accounts,
		Sessions: auth.NewManager(codec, accounts),
		Profiles: profiles,
		Media:    media,
		Codec:    codec,
		Cookies: handlers.CookieConfig{
			Secure:        cfg.CookieSecure,
			AccessMaxAge:  cfg.AccessTokenTTL,
			RefreshMaxAge: cfg.RefreshTokenTTL,
		},
		Uploads:        cfg.UploadFields,
		MaxBodyBytes:   cfg.MaxJSONBodyBytes,
		MaxUploadBytes: cfg.MaxUploadBytes,
		UploadLimiter:  middleware.NewUploadLimiter(cfg.UploadRateRequests, cfg.UploadRateWindow, cfg.UploadRateBurst, 5*time.Minute),
	}, nil
}
