package handlers

import (
	"net/http"
	"time"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/token"
)

// Dependencies aggregates collaborators required by the HTTP handlers.
type Dependencies struct {
	Accounts       AccountStore
	Sessions       SessionManager
	Profiles       ProfileReader
	Media          MediaStorage
	Codec          *token.Codec
	Cookies        CookieConfig
	Uploads        []config.UploadField
	MaxBodyBytes   int64
	MaxUploadBytes int64
	UploadLimiter  RateLimiter
	NowFunc        func() time.Time
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	gate := AuthGate{Codec: deps.Codec, Accounts: deps.Accounts}
	auth := AuthHandler{
		Sessions:     deps.Sessions,
		Cookies:      deps.Cookies,
		MaxBodyBytes: deps.MaxBodyBytes,
	}
	account := AccountHandler{
		Accounts:       deps.Accounts,
		Media:          deps.Media,
		Uploads:        deps.Uploads,
		MaxUploadBytes: deps.MaxUploadBytes,
		MaxBodyBytes:   deps.MaxBodyBytes,
		Limiter:        deps.UploadLimiter,
		NowFunc:        deps.NowFunc,
	}
	profiles := ProfileHandler{Profiles: deps.Profiles}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/users/register", account.Register)
	mux.HandleFunc("POST /api/v1/users/login", auth.Login)
	mux.HandleFunc("POST /api/v1/users/logout", gate.Require(auth.Logout))
	mux.HandleFunc("POST /api/v1/users/refresh-token", auth.Refresh)
	mux.HandleFunc("POST /api/v1/users/changePassword", gate.Require(auth.ChangePassword))

	mux.HandleFunc("GET /api/v1/users/current-user-info", gate.Require(account.CurrentUser))
	mux.HandleFunc("PATCH /api/v1/users/updateAccount", gate.Require(account.UpdateAccount))
	mux.HandleFunc("PATCH /api/v1/users/updateAvatar", gate.Require(account.UpdateAvatar))
	mux.HandleFunc("PATCH /api/v1/users/updateCoverImage", gate.Require(account.UpdateCoverImage))

	mux.HandleFunc("GET /api/v1/users/c/{username}", gate.Optional(profiles.Channel))
	mux.HandleFunc("GET /api/v1/users/watchHistory", gate.Require(profiles.WatchHistory))
}
