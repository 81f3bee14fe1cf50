package profile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// ErrReaderUnavailable indicates the caching reader was constructed without a backend.
var ErrReaderUnavailable = errors.New("profile reader unavailable")

type cacheEntry struct {
	profile models.ChannelProfile
	expires time.Time
}

// CachingReader wraps a ProfileReader with a TTL-based in-memory cache for
// channel pages. Watch history is personal and always read through.
type CachingReader struct {
	base repositories.ProfileReader
	ttl  time.Duration

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingReader returns a ProfileReader that caches channel profiles for
// the provided TTL.
func NewCachingReader(base repositories.ProfileReader, ttl time.Duration) *CachingReader {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingReader{
		base:  base,
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

// ChannelProfile returns a cached projection when available, otherwise it
// delegates to the underlying reader and stores the result. The cache key
// includes the viewer because the subscription flag is viewer-relative.
func (c *CachingReader) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	if c == nil || c.base == nil {
		return models.ChannelProfile{}, ErrReaderUnavailable
	}

	key := username + "\x00" + viewerID
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.profile, nil
	}

	profile, err := c.base.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		return models.ChannelProfile{}, err
	}

	c.mu.Lock()
	c.items[key] = cacheEntry{profile: profile, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return profile, nil
}

// WatchHistory delegates directly to the underlying reader.
func (c *CachingReader) WatchHistory(ctx context.Context, accountID string) ([]models.WatchEntry, error) {
	if c == nil || c.base == nil {
		return nil, ErrReaderUnavailable
	}
	return c.base.WatchHistory(ctx, accountID)
}

var _ repositories.ProfileReader = (*CachingReader)(nil)
