package models

import "time"

// Account represents a registered ClipStream user channel.
type Account struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	AvatarURL     string
	CoverImageURL string
	PasswordHash  string
	// RefreshToken holds the single currently-valid refresh token for the
	// account. Empty means no active session.
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// View strips the credential fields from an account. Handlers only ever
// return views, never full accounts.
func (a Account) View() AccountView {
	return AccountView{
		ID:            a.ID,
		Username:      a.Username,
		Email:         a.Email,
		FullName:      a.FullName,
		AvatarURL:     a.AvatarURL,
		CoverImageURL: a.CoverImageURL,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// AccountView is an Account with the password hash and refresh token removed.
type AccountView struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullname"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TokenPair groups the signed credentials issued to authenticated users.
// Tokens are immutable once issued; rotation replaces the pair wholesale.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ChannelProfile is the projected channel page shape: public account fields
// plus subscription aggregates relative to an optional viewer.
type ChannelProfile struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	FullName          string `json:"fullname"`
	AvatarURL         string `json:"avatar"`
	CoverImageURL     string `json:"coverImage,omitempty"`
	SubscriberCount   int64  `json:"subscriberCount"`
	SubscribedToCount int64  `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}

// WatchEntry is one row of an account's watch history with a nested summary
// of the video owner.
type WatchEntry struct {
	VideoID      string       `json:"videoId"`
	Title        string       `json:"title"`
	ThumbnailURL string       `json:"thumbnail"`
	Duration     int64        `json:"duration"`
	WatchedAt    time.Time    `json:"watchedAt"`
	Owner        OwnerSummary `json:"owner"`
}

// OwnerSummary identifies the channel that published a watched video.
type OwnerSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullname"`
	AvatarURL string `json:"avatar"`
}
