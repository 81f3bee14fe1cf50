package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/token"
)

var (
	// ErrMissingFields indicates required login or password inputs were empty.
	ErrMissingFields = errors.New("required fields are missing")
	// ErrAccountNotFound indicates no account matches the supplied username and email.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials indicates the presented password does not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates no credential was presented at all.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidToken indicates the presented refresh token failed verification
	// or references an account that no longer exists.
	ErrInvalidToken = errors.New("invalid refresh token")
	// ErrTokenReused indicates a verifiable refresh token that is no longer the
	// account's current one: it was already rotated away or revoked by logout.
	ErrTokenReused = errors.New("refresh token is expired or already used")
)

// AccountStore is the persistence contract the session manager requires. The
// refresh-token field is owned exclusively by this write path; rotation must
// be a single conditional update so concurrent refreshes cannot both win.
type AccountStore interface {
	FindByID(ctx context.Context, id string) (models.Account, error)
	FindByCredentials(ctx context.Context, username, email string) (models.Account, error)
	SetRefreshToken(ctx context.Context, accountID, refreshToken string) error
	// RotateRefreshToken overwrites the stored refresh token only when the
	// presented one still matches, returning repositories.ErrStaleRefreshToken
	// otherwise.
	RotateRefreshToken(ctx context.Context, accountID, presented, next string) error
	ClearRefreshToken(ctx context.Context, accountID string) error
	UpdatePasswordHash(ctx context.Context, accountID, passwordHash string) error
}

// Manager orchestrates the credential and session lifecycle: login, logout,
// refresh-token rotation, and password changes. It holds no state of its own;
// all coordination happens through the store's atomic update semantics.
type Manager struct {
	codec    *token.Codec
	accounts AccountStore
}

// NewManager constructs a Manager from its two collaborators.
func NewManager(codec *token.Codec, accounts AccountStore) *Manager {
	if codec == nil {
		panic("auth: token codec must not be nil")
	}
	if accounts == nil {
		panic("auth: account store must not be nil")
	}
	return &Manager{codec: codec, accounts: accounts}
}

// Login verifies the supplied credentials and opens a session. Both username
// and email are required. The refresh-token write is awaited: the returned
// pair is only handed out once the store has committed it.
func (m *Manager) Login(ctx context.Context, username, email, password string) (models.TokenPair, models.AccountView, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return models.TokenPair{}, models.AccountView{}, ErrMissingFields
	}

	account, err := m.accounts.FindByCredentials(ctx, username, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.TokenPair{}, models.AccountView{}, ErrAccountNotFound
		}
		return models.TokenPair{}, models.AccountView{}, fmt.Errorf("look up account: %w", err)
	}

	if !VerifyPassword(account.PasswordHash, password) {
		return models.TokenPair{}, models.AccountView{}, ErrInvalidCredentials
	}

	pair, err := m.issuePair(account.ID)
	if err != nil {
		return models.TokenPair{}, models.AccountView{}, err
	}

	if err := m.accounts.SetRefreshToken(ctx, account.ID, pair.RefreshToken); err != nil {
		return models.TokenPair{}, models.AccountView{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return pair, account.View(), nil
}

// Logout revokes the account's refresh token. Clearing an already-cleared
// token is not an error.
func (m *Manager) Logout(ctx context.Context, accountID string) error {
	if accountID == "" {
		return ErrUnauthorized
	}
	if err := m.accounts.ClearRefreshToken(ctx, accountID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// Refresh exchanges a refresh token for a new pair, rotating the stored value.
// Exactly one of two concurrent calls presenting the same token succeeds; the
// loser's conditional write matches nothing and fails with ErrTokenReused.
func (m *Manager) Refresh(ctx context.Context, presented string) (models.TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return models.TokenPair{}, ErrUnauthorized
	}

	accountID, err := m.codec.Verify(token.KindRefresh, presented)
	if err != nil {
		return models.TokenPair{}, ErrInvalidToken
	}

	account, err := m.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.TokenPair{}, ErrInvalidToken
		}
		return models.TokenPair{}, fmt.Errorf("look up account: %w", err)
	}

	if account.RefreshToken != presented {
		return models.TokenPair{}, ErrTokenReused
	}

	pair, err := m.issuePair(account.ID)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := m.accounts.RotateRefreshToken(ctx, account.ID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, repositories.ErrStaleRefreshToken) || errors.Is(err, repositories.ErrNotFound) {
			return models.TokenPair{}, ErrTokenReused
		}
		return models.TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	return pair, nil
}

// ChangePassword replaces the stored hash after verifying the old password.
// Existing sessions stay valid; the refresh token is untouched.
func (m *Manager) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return ErrMissingFields
	}

	account, err := m.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("look up account: %w", err)
	}

	if !VerifyPassword(account.PasswordHash, oldPassword) {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := m.accounts.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return nil
}

func (m *Manager) issuePair(accountID string) (models.TokenPair, error) {
	access, err := m.codec.Issue(token.KindAccess, accountID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := m.codec.Issue(token.KindRefresh, accountID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// HashPassword derives a one-way bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether the password matches the stored hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
