package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/dietplan/internal/domain"
	"github.com/redis/go-redis/v9"
)

const viewCachePrefix = "dietplan:view:"

// ViewCache implements domain.ViewCache, caching resolved client views by access token
type ViewCache struct {
	client *Client
}

// NewViewCache creates a new client view cache
func NewViewCache(client *Client) *ViewCache {
	return &ViewCache{client: client}
}

// Get returns nil without error on a cache miss
func (c *ViewCache) Get(ctx context.Context, token string) (*domain.ClientView, error) {
	data, err := c.client.rdb.Get(ctx, viewCachePrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached view: %w", err)
	}

	var view domain.ClientView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached view: %w", err)
	}
	return &view, nil
}

func (c *ViewCache) Set(ctx context.Context, token string, view *domain.ClientView, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal view: %w", err)
	}
	return c.client.rdb.Set(ctx, viewCachePrefix+token, data, ttl).Err()
}

func (c *ViewCache) Invalidate(ctx context.Context, token string) error {
	return c.client.rdb.Del(ctx, viewCachePrefix+token).Err()
}
