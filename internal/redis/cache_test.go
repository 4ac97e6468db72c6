package redis

import (
	"testing"
	"time"

	"bookline-inbox/internal/domain/message"

	"github.com/stretchr/testify/assert"
)

func TestJitteredTTLBounds(t *testing.T) {
	base := 20 * time.Second
	for i := 0; i < 1000; i++ {
		ttl := jitteredTTL(base, 0.2)
		assert.GreaterOrEqual(t, ttl, 16*time.Second)
		assert.LessOrEqual(t, ttl, 24*time.Second)
	}
}

func TestJitteredTTLEdgeCases(t *testing.T) {
	assert.Equal(t, time.Second, jitteredTTL(0, 0.2))
	assert.Equal(t, time.Second, jitteredTTL(-time.Minute, 0.2))
	assert.Equal(t, 20*time.Second, jitteredTTL(20*time.Second, 0))

	// full jitter still floors at one second
	for i := 0; i < 1000; i++ {
		assert.GreaterOrEqual(t, jitteredTTL(2*time.Second, 5), time.Second)
	}
}

func TestPreviewKey(t *testing.T) {
	assert.Equal(t, "inbox:preview:42:client:20", previewKey("preview", 42, message.RoleClient, 20))
	assert.NotEqual(t,
		previewKey("preview", 42, message.RoleClient, 20),
		previewKey("threads", 42, message.RoleClient, 20))
}

func TestDisabledCacheIsNilSafe(t *testing.T) {
	var c *PreviewCache
	assert.False(t, c.Enabled())

	c = NewPreviewCache(nil, CacheConfig{Enabled: true})
	assert.False(t, c.Enabled(), "no client means disabled")
}
