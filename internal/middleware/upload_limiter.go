package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type uploader struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UploadLimiter throttles how often a single client may push media through
// the upload endpoints. Keys are scope-qualified client addresses.
type UploadLimiter interface {
	Allow(key string) bool
}

// uploadLimiter tracks a token bucket per client with idle expiration, so
// one hot uploader cannot starve the rest and idle entries do not leak.
type uploadLimiter struct {
	mu      sync.Mutex
	clients map[string]*uploader
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
}

// NewUploadLimiter allows up to `requests` uploads per `window` per client,
// with `burst` extra headroom. Idle clients are forgotten after ttl.
func NewUploadLimiter(requests int, window time.Duration, burst int, ttl time.Duration) UploadLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &uploadLimiter{
		clients: make(map[string]*uploader),
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (l *uploadLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	now := l.now()

	l.mu.Lock()
	client := l.clientLocked(key, now)
	l.gcLocked(now)
	l.mu.Unlock()

	return client.limiter.Allow()
}

func (l *uploadLimiter) clientLocked(key string, now time.Time) *uploader {
	if client, ok := l.clients[key]; ok {
		client.lastSeen = now
		return client
	}

	client := &uploader{limiter: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
	l.clients[key] = client
	return client
}

func (l *uploadLimiter) gcLocked(now time.Time) {
	for key, client := range l.clients {
		if now.Sub(client.lastSeen) > l.ttl {
			delete(l.clients, key)
		}
	}
}
