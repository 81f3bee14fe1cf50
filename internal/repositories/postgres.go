package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

const accountColumns = `id, username, email, full_name, avatar_url, cover_image_url, password_hash, COALESCE(refresh_token, ''), created_at, updated_at`

// PostgresAccountRepository provides PostgreSQL-backed persistence for accounts.
type PostgresAccountRepository struct {
	pool db.Pool
}

// NewPostgresAccountRepository constructs an account repository backed by PostgreSQL.
func NewPostgresAccountRepository(pool db.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// Create persists a new account record.
func (r *PostgresAccountRepository) Create(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO accounts (id, username, email, full_name, avatar_url, cover_image_url, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, account.ID, account.Username, account.Email, account.FullName, account.AvatarURL, account.CoverImageURL, account.PasswordHash, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// FindByID fetches an account by its identifier.
func (r *PostgresAccountRepository) FindByID(ctx context.Context, id string) (models.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// FindByCredentials fetches an account matching both username and email.
func (r *PostgresAccountRepository) FindByCredentials(ctx context.Context, username, email string) (models.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1 AND email = $2`, username, email)
}

// UsernameOrEmailTaken reports whether either identity field is already in use.
func (r *PostgresAccountRepository) UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var taken bool
	err = conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM accounts WHERE username = $1 OR email = $2
        )
    `, username, email).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check account uniqueness: %w", err)
	}

	return taken, nil
}

// UpdateProfile modifies the mutable display fields and returns the updated record.
func (r *PostgresAccountRepository) UpdateProfile(ctx context.Context, id, fullName, email string) (models.Account, error) {
	return r.findOne(ctx, `
        UPDATE accounts
        SET full_name = $2, email = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING `+accountColumns, id, fullName, email)
}

// UpdateAvatar replaces the avatar reference and returns the updated record.
func (r *PostgresAccountRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) (models.Account, error) {
	return r.findOne(ctx, `
        UPDATE accounts
        SET avatar_url = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING `+accountColumns, id, avatarURL)
}

// UpdateCoverImage replaces the cover image reference and returns the updated record.
func (r *PostgresAccountRepository) UpdateCoverImage(ctx context.Context, id, coverImageURL string) (models.Account, error) {
	return r.findOne(ctx, `
        UPDATE accounts
        SET cover_image_url = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING `+accountColumns, id, coverImageURL)
}

// UpdatePasswordHash replaces the stored password hash.
func (r *PostgresAccountRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `
        UPDATE accounts
        SET password_hash = $2, updated_at = NOW()
        WHERE id = $1
    `, id, passwordHash)
}

// SetRefreshToken overwrites the account's refresh token unconditionally.
// Used by login, where any prior session is displaced.
func (r *PostgresAccountRepository) SetRefreshToken(ctx context.Context, id, refreshToken string) error {
	return r.exec(ctx, `
        UPDATE accounts
        SET refresh_token = $2, updated_at = NOW()
        WHERE id = $1
    `, id, refreshToken)
}

// RotateRefreshToken is a compare-and-swap on the refresh-token column: the
// overwrite only lands when the presented token is still the current one.
// Concurrent rotations of the same token therefore admit a single winner.
func (r *PostgresAccountRepository) RotateRefreshToken(ctx context.Context, id, presented, next string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE accounts
        SET refresh_token = $3, updated_at = NOW()
        WHERE id = $1 AND refresh_token = $2
    `, id, presented, next)
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrStaleRefreshToken
	}

	return nil
}

// ClearRefreshToken revokes the account's session. Clearing an already-null
// token still matches the row, so the call is idempotent.
func (r *PostgresAccountRepository) ClearRefreshToken(ctx context.Context, id string) error {
	return r.exec(ctx, `
        UPDATE accounts
        SET refresh_token = NULL, updated_at = NOW()
        WHERE id = $1
    `, id)
}

func (r *PostgresAccountRepository) findOne(ctx context.Context, query string, args ...any) (models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var account models.Account
	err = conn.QueryRow(ctx, query, args...).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.FullName,
		&account.AvatarURL,
		&account.CoverImageURL,
		&account.PasswordHash,
		&account.RefreshToken,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.Account{}, ErrConflict
		}
		return models.Account{}, fmt.Errorf("select account: %w", err)
	}

	return account, nil
}

func (r *PostgresAccountRepository) exec(ctx context.Context, query string, args ...any) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update account: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresProfileRepository serves the aggregation queries behind channel
// pages and watch history. Reads only; account mutation never happens here.
type PostgresProfileRepository struct {
	pool db.Pool
}

// NewPostgresProfileRepository constructs a profile reader backed by PostgreSQL.
func NewPostgresProfileRepository(pool db.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

// ChannelProfile projects the channel page for a username. When viewerID is
// non-empty the subscription flag is computed relative to that viewer.
func (r *PostgresProfileRepository) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT
            a.id,
            a.username,
            a.full_name,
            a.avatar_url,
            a.cover_image_url,
            (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = a.id) AS subscriber_count,
            (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = a.id) AS subscribed_to_count,
            EXISTS (
                SELECT 1 FROM subscriptions s
                WHERE s.channel_id = a.id AND s.subscriber_id = $2
            ) AS is_subscribed
        FROM accounts a
        WHERE a.username = $1
    `, username, viewerID)

	var profile models.ChannelProfile
	if err := row.Scan(
		&profile.ID,
		&profile.Username,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.CoverImageURL,
		&profile.SubscriberCount,
		&profile.SubscribedToCount,
		&profile.IsSubscribed,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelProfile{}, ErrNotFound
		}
		return models.ChannelProfile{}, fmt.Errorf("select channel profile: %w", err)
	}

	return profile, nil
}

// WatchHistory returns the account's watched videos, most recent first, with
// a nested owner summary per entry.
func (r *PostgresProfileRepository) WatchHistory(ctx context.Context, accountID string) ([]models.WatchEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT
            v.id,
            v.title,
            v.thumbnail_url,
            v.duration,
            h.watched_at,
            o.id,
            o.username,
            o.full_name,
            o.avatar_url
        FROM watch_history h
        JOIN videos v ON v.id = h.video_id
        JOIN accounts o ON o.id = v.owner_id
        WHERE h.account_id = $1
        ORDER BY h.watched_at DESC
        LIMIT 100
    `, accountID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var entries []models.WatchEntry
	for rows.Next() {
		var entry models.WatchEntry
		if err := rows.Scan(
			&entry.VideoID,
			&entry.Title,
			&entry.ThumbnailURL,
			&entry.Duration,
			&entry.WatchedAt,
			&entry.Owner.ID,
			&entry.Owner.Username,
			&entry.Owner.FullName,
			&entry.Owner.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("scan watch history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return entries, nil
}

var _ AccountRepository = (*PostgresAccountRepository)(nil)
var _ ProfileReader = (*PostgresProfileRepository)(nil)
