package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"bookline-inbox/internal/domain/message"
	apperrors "bookline-inbox/pkg/errors"

	goredis "github.com/redis/go-redis/v9"
)

// Cache key pattern:
// - inbox:preview:{viewer_id}:{role}:{limit} - short TTL, jittered

// CacheConfig contains configuration for the preview cache.
type CacheConfig struct {
	Enabled        bool
	TTL            time.Duration // base TTL (default 20s)
	JitterFraction float64       // ± fraction of TTL (default 0.2)
}

// DefaultCacheConfig returns sensible defaults
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:        true,
		TTL:            20 * time.Second,
		JitterFraction: 0.2,
	}
}

// CachedPreview is a serialized preview body bound to the change token
// it was composed under. Entries are immutable once written; concurrent
// writers to the same key race harmlessly.
type CachedPreview struct {
	Token string          `json:"token"`
	Body  json.RawMessage `json:"body"`
}

// PreviewCache is a short-TTL read-through cache for composed preview
// bodies. It is advisory only: every error path degrades to direct
// computation.
type PreviewCache struct {
	client *goredis.Client
	config CacheConfig
}

// NewPreviewCache creates a new preview cache
func NewPreviewCache(client *goredis.Client, config CacheConfig) *PreviewCache {
	return &PreviewCache{client: client, config: config}
}

func (c *PreviewCache) Enabled() bool {
	return c != nil && c.config.Enabled && c.client != nil
}

func previewKey(namespace string, viewerID int64, role message.Role, limit int) string {
	return fmt.Sprintf("inbox:%s:%d:%s:%d", namespace, viewerID, role, limit)
}

// GetPreview retrieves a cached preview. A miss returns (nil, nil).
func (c *PreviewCache) GetPreview(ctx context.Context, namespace string, viewerID int64, role message.Role, limit int) (*CachedPreview, error) {
	if !c.Enabled() {
		return nil, nil
	}
	data, err := c.client.Get(ctx, previewKey(namespace, viewerID, role, limit)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("preview cache get: %w", errors.Join(apperrors.ErrCacheUnavailable, err))
	}

	var cached CachedPreview
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		return nil, fmt.Errorf("preview cache decode: %w", errors.Join(apperrors.ErrCacheUnavailable, err))
	}
	return &cached, nil
}

// SetPreview stores a composed body under its token with a jittered TTL
// so a burst of compositions does not expire in lockstep.
func (c *PreviewCache) SetPreview(ctx context.Context, namespace string, viewerID int64, role message.Role, limit int, token string, body []byte) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(CachedPreview{Token: token, Body: body})
	if err != nil {
		return fmt.Errorf("preview cache encode: %w", errors.Join(apperrors.ErrCacheUnavailable, err))
	}
	err = c.client.Set(ctx, previewKey(namespace, viewerID, role, limit), data, jitteredTTL(c.config.TTL, c.config.JitterFraction)).Err()
	if err != nil {
		return fmt.Errorf("preview cache set: %w", errors.Join(apperrors.ErrCacheUnavailable, err))
	}
	return nil
}

// jitteredTTL spreads expiry within ±fraction of the base TTL.
func jitteredTTL(base time.Duration, fraction float64) time.Duration {
	if base <= 0 {
		return time.Second
	}
	if fraction <= 0 {
		return base
	}
	if fraction > 1 {
		fraction = 1
	}
	offset := (rand.Float64()*2 - 1) * fraction * float64(base)
	ttl := base + time.Duration(offset)
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

// Ping checks if Redis is available
func (c *PreviewCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
