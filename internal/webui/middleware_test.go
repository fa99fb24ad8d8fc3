package webui

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:52100"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("X-Real-IP", "198.51.100.2")

	direct := &Server{config: &ServerConfig{}}
	assert.Equal(t, "10.0.0.5", direct.clientIP(req), "forwarding headers are ignored by default")

	proxied := &Server{config: &ServerConfig{TrustProxyHeaders: true}}
	assert.Equal(t, "203.0.113.7", proxied.clientIP(req))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "198.51.100.2", proxied.clientIP(req))

	req.RemoteAddr = "unix-socket"
	assert.Equal(t, "unix-socket", direct.clientIP(req))
}

func TestClientLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := newClientLimiter(2)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.allow("a"))
	assert.True(t, limiter.allow("a"))
	assert.False(t, limiter.allow("a"), "burst exhausted")
	assert.True(t, limiter.allow("b"), "clients have independent buckets")

	now = now.Add(30 * time.Second)
	assert.True(t, limiter.allow("a"), "one token refills every 30s at 2/min")

	now = now.Add(limiterIdleTTL + time.Minute)
	limiter.allow("c")
	assert.Equal(t, 1, limiter.size(), "idle buckets are swept")
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"https://a", "https://b"}, splitOrigins(" https://a ,, https://b"))
	assert.Nil(t, splitOrigins(""))
}
