package middleware

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestUploadLimiterBurst(t *testing.T) {
	limiter := NewUploadLimiter(1, time.Hour, 2, time.Minute)

	for i := 0; i < 2; i++ {
		if !limiter.Allow("upload:10.0.0.1") {
			t.Fatalf("expected burst request %d to pass", i+1)
		}
	}
	if limiter.Allow("upload:10.0.0.1") {
		t.Fatal("expected request beyond burst to be rejected")
	}
}

func TestUploadLimiterIsolatesClients(t *testing.T) {
	limiter := NewUploadLimiter(1, time.Hour, 1, time.Minute)

	if !limiter.Allow("upload:10.0.0.1") {
		t.Fatal("expected first client to pass")
	}
	if limiter.Allow("upload:10.0.0.1") {
		t.Fatal("expected first client to be throttled")
	}
	if !limiter.Allow("upload:10.0.0.2") {
		t.Fatal("expected second client to have its own budget")
	}
}

func TestUploadLimiterExpiresIdleClients(t *testing.T) {
	current := time.Now()
	limiter := &uploadLimiter{
		clients: make(map[string]*uploader),
		limit:   rate.Every(time.Hour),
		burst:   1,
		ttl:     time.Minute,
		now:     func() time.Time { return current },
	}

	if !limiter.Allow("upload:10.0.0.1") {
		t.Fatal("expected first request to pass")
	}
	if limiter.Allow("upload:10.0.0.1") {
		t.Fatal("expected throttling within the window")
	}

	// Once idle past the ttl the client is forgotten and starts fresh.
	current = current.Add(2 * time.Minute)
	if !limiter.Allow("upload:10.0.0.2") {
		t.Fatal("expected unrelated request to pass")
	}
	if !limiter.Allow("upload:10.0.0.1") {
		t.Fatal("expected expired client to start with a fresh budget")
	}
}

func TestUploadLimiterDefaults(t *testing.T) {
	limiter := NewUploadLimiter(0, 0, 0, 0)

	if !limiter.Allow("") {
		t.Fatal("expected a defaulted limiter to admit the first request")
	}
	if limiter.Allow("") {
		t.Fatal("expected empty keys to share the fallback bucket")
	}
}
