package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrStaleRefreshToken indicates a conditional refresh-token rotation
	// matched no row: the presented token is no longer the account's current
	// one, either because it was already rotated or because the session was
	// revoked.
	ErrStaleRefreshToken = errors.New("stale refresh token")
)
