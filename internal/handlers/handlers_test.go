package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
	"github.com/clipstream/backend/internal/token"
)

// memoryAccounts backs handler and session-manager tests with a single
// in-memory store so the same fixture can serve both interfaces.
type memoryAccounts struct {
	mu       sync.Mutex
	accounts map[string]models.Account
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{accounts: make(map[string]models.Account)}
}

func (s *memoryAccounts) Create(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Username == account.Username || existing.Email == account.Email {
			return repositories.ErrConflict
		}
	}
	s.accounts[account.ID] = account
	return nil
}

func (s *memoryAccounts) FindByID(_ context.Context, id string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return models.Account{}, repositories.ErrNotFound
	}
	return account, nil
}

func (s *memoryAccounts) FindByCredentials(_ context.Context, username, email string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.Username == username && account.Email == email {
			return account, nil
		}
	}
	return models.Account{}, repositories.ErrNotFound
}

func (s *memoryAccounts) UsernameOrEmailTaken(_ context.Context, username, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.Username == username || account.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryAccounts) UpdateProfile(_ context.Context, id, fullName, email string) (models.Account, error) {
	return s.update(id, func(a *models.Account) {
		a.FullName = fullName
		a.Email = email
	})
}

func (s *memoryAccounts) UpdateAvatar(_ context.Context, id, avatarURL string) (models.Account, error) {
	return s.update(id, func(a *models.Account) { a.AvatarURL = avatarURL })
}

func (s *memoryAccounts) UpdateCoverImage(_ context.Context, id, coverImageURL string) (models.Account, error) {
	return s.update(id, func(a *models.Account) { a.CoverImageURL = coverImageURL })
}

func (s *memoryAccounts) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	_, err := s.update(id, func(a *models.Account) { a.PasswordHash = passwordHash })
	return err
}

func (s *memoryAccounts) SetRefreshToken(_ context.Context, id, refreshToken string) error {
	_, err := s.update(id, func(a *models.Account) { a.RefreshToken = refreshToken })
	return err
}

func (s *memoryAccounts) RotateRefreshToken(_ context.Context, id, presented, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if account.RefreshToken != presented {
		return repositories.ErrStaleRefreshToken
	}
	account.RefreshToken = next
	s.accounts[id] = account
	return nil
}

func (s *memoryAccounts) ClearRefreshToken(_ context.Context, id string) error {
	_, err := s.update(id, func(a *models.Account) { a.RefreshToken = "" })
	return err
}

func (s *memoryAccounts) update(id string, mutate func(*models.Account)) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return models.Account{}, repositories.ErrNotFound
	}
	mutate(&account)
	account.UpdatedAt = time.Now().UTC()
	s.accounts[id] = account
	return account, nil
}

// fakeMedia records stored keys and serves deterministic URLs.
type fakeMedia struct {
	mu    sync.Mutex
	saved []string
	err   error
}

func (m *fakeMedia) Save(_ context.Context, key, _ string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, key)
	return "https://cdn.test/" + key, nil
}

// deniedLimiter rejects every request.
type deniedLimiter struct{}

func (deniedLimiter) Allow(string) bool { return false }

func newTestCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(token.Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("create codec: %v", err)
	}
	return codec
}

func seedTestAccount(t *testing.T, store *memoryAccounts, username, password string) models.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	account := models.Account{
		ID:           "id-" + username,
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Test " + username,
		AvatarURL:    "https://cdn.test/avatars/" + username + ".png",
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	store.mu.Lock()
	store.accounts[account.ID] = account
	store.mu.Unlock()
	return account
}

// multipartBody assembles a multipart form from value and file fields,
// returning the encoded body and its content type.
func multipartBody(t *testing.T, values map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for name, value := range values {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for name, contents := range files {
		part, err := writer.CreateFormFile(name, name+".png")
		if err != nil {
			t.Fatalf("create file part %s: %v", name, err)
		}
		if _, err := part.Write(contents); err != nil {
			t.Fatalf("write file part %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}
