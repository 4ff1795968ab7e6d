package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestTokenBucket_Take(t *testing.T) {
	bucket := newTokenBucket(10, 1.0)

	for i := 0; i < 10; i++ {
		if allowed, _, _ := bucket.take(); !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}

	allowed, remaining, reset := bucket.take()
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if remaining != 0 {
		t.Errorf("Expected 0 remaining, got %d", remaining)
	}
	if !reset.After(time.Now()) {
		t.Error("Reset time should be in the future")
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	bucket := newTokenBucket(2, 20.0) // one token every 50ms

	bucket.take()
	bucket.take()
	if allowed, _, _ := bucket.take(); allowed {
		t.Fatal("Expected bucket to be empty")
	}

	time.Sleep(70 * time.Millisecond)

	if allowed, _, _ := bucket.take(); !allowed {
		t.Error("Expected request to be allowed after refill")
	}
}

func TestLimiter_DefaultLimit(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/api/assistant/status", "GET")
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", info.Limit)
		}
	}

	allowed, info := limiter.Allow("127.0.0.1", "/api/assistant/status", "GET")
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if info.RetryAfter <= 0 {
		t.Error("Expected RetryAfter to be set when denied")
	}

	// Another client has its own bucket.
	if allowed, _ := limiter.Allow("127.0.0.2", "/api/assistant/status", "GET"); !allowed {
		t.Error("Expected other client to be allowed")
	}
}

func TestLimiter_ChatSubmissionsShareBucketAcrossSessions(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(6), // burst 1
	})
	defer limiter.Stop()

	if allowed, _ := limiter.Allow("10.0.0.1", "/api/chat/sessions/a/messages", "POST"); !allowed {
		t.Fatal("Expected first submission to be allowed")
	}
	if allowed, _ := limiter.Allow("10.0.0.1", "/api/chat/sessions/b/messages", "POST"); allowed {
		t.Error("Expected submission to a second session to share the exhausted bucket")
	}

	// Reading the transcript is not a submission.
	if allowed, _ := limiter.Allow("10.0.0.1", "/api/chat/sessions/a/messages", "GET"); !allowed {
		t.Error("Expected GET to use the default limit")
	}
}

func TestLimiter_Whitelist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		if allowed, _ := limiter.Allow("127.0.0.1", "/x", "GET"); !allowed {
			t.Errorf("Expected whitelisted request %d to be allowed", i+1)
		}
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})
	defer limiter.Stop()

	if allowed, _ := limiter.Allow("192.168.1.1", "/x", "GET"); allowed {
		t.Error("Expected blacklisted client to be denied")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/x", "GET")
		if !allowed {
			t.Fatalf("Expected request %d to be allowed when disabled", i+1)
		}
		if info.Limit != 0 {
			t.Errorf("Expected limit 0 when disabled, got %d", info.Limit)
		}
	}
}

func TestLimiter_HealthAndStreamUnlimited(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		if allowed, _ := limiter.Allow("127.0.0.1", "/health", "GET"); !allowed {
			t.Error("Expected health check to be unlimited")
		}
		if allowed, _ := limiter.Allow("127.0.0.1", "/api/assistant/status/stream", "GET"); !allowed {
			t.Error("Expected status stream to be unlimited")
		}
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Minute})
	defer limiter.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("127.0.0.1", "/test", "GET"); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowedCount != 100 {
		t.Errorf("Expected 100 allowed requests, got %d", allowedCount)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()

	limiter.Allow("127.0.0.1", "/a", "GET")
	limiter.Allow("127.0.0.2", "/a", "GET")
	if limiter.Len() != 2 {
		t.Fatalf("Expected 2 buckets, got %d", limiter.Len())
	}

	if removed := limiter.cleanup(time.Now().Add(-time.Hour)); removed != 0 {
		t.Errorf("Expected fresh buckets to survive, removed %d", removed)
	}
	if removed := limiter.cleanup(time.Now().Add(time.Second)); removed != 2 {
		t.Errorf("Expected 2 idle buckets removed, got %d", removed)
	}
	if limiter.Len() != 0 {
		t.Errorf("Expected no buckets left, got %d", limiter.Len())
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(nil)
	limiter.Stop()
	limiter.Stop()
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
	if !allowed {
		t.Error("Expected request to be allowed with default config")
	}
	if info.Limit != 600 {
		t.Errorf("Expected default limit 600, got %d", info.Limit)
	}
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs(30)

	tests := []struct {
		path, method string
		want         string
	}{
		{"/api/chat/sessions", "POST", ChatSessionsPath},
		{"/api/chat/sessions/abc/messages", "POST", ChatSessionPath},
		{"/api/tfjs-proxy/tfhub.dev/model.json", "GET", ProxyPath},
		{"/api/chat/sessions/abc/messages", "GET", ""},
		{"/api/knowledge/passage", "GET", ""},
	}
	for _, tt := range tests {
		got := MatchEndpoint(tt.path, tt.method, configs)
		if tt.want == "" {
			if got != nil {
				t.Errorf("%s %s: expected no match, got %q", tt.method, tt.path, got.Path)
			}
			continue
		}
		if got == nil || got.Path != tt.want {
			t.Errorf("%s %s: expected %q, got %+v", tt.method, tt.path, tt.want, got)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	env := map[string]string{
		"RATE_LIMIT_DEFAULT_LIMIT": "50",
		"RATE_LIMIT_WHITELIST":     "10.0.0.1, 10.0.0.2",
	}
	cfg := LoadConfig(func(k string) string { return env[k] }, 12)

	if !cfg.Enabled {
		t.Fatal("Expected rate limiting enabled by default")
	}
	if cfg.DefaultLimit != 50 {
		t.Errorf("Expected default limit 50, got %d", cfg.DefaultLimit)
	}
	if !cfg.Whitelist["10.0.0.2"] {
		t.Error("Expected whitelist to be parsed")
	}
	if cfg.EndpointConfigs[0].Limit != 12 || cfg.EndpointConfigs[0].Burst != 2 {
		t.Errorf("Expected chat limit 12 burst 2, got %+v", cfg.EndpointConfigs[0])
	}

	disabled := LoadConfig(func(k string) string {
		if k == "RATE_LIMIT_ENABLED" {
			return "false"
		}
		return ""
	}, 0)
	if disabled.Enabled {
		t.Error("Expected RATE_LIMIT_ENABLED=false to disable limiting")
	}
}
