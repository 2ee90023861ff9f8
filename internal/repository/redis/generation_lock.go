package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const generationLockPrefix = "dietplan:generation:"

// deletes the key only while it still holds our owner value
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// GenerationLock implements domain.GenerationLock with SET NX.
// The TTL frees the lock when a server dies mid-generation.
type GenerationLock struct {
	client *Client
	ttl    time.Duration
}

// NewGenerationLock creates a lock whose entries expire after ttl
func NewGenerationLock(client *Client, ttl time.Duration) *GenerationLock {
	return &GenerationLock{client: client, ttl: ttl}
}

func (l *GenerationLock) Acquire(ctx context.Context, clientID uuid.UUID) (string, error) {
	owner := uuid.NewString()
	ok, err := l.client.rdb.SetNX(ctx, generationLockPrefix+clientID.String(), owner, l.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to acquire generation lock: %w", err)
	}
	if !ok {
		return "", nil
	}
	return owner, nil
}

func (l *GenerationLock) Release(ctx context.Context, clientID uuid.UUID, owner string) error {
	if owner == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, l.client.rdb, []string{generationLockPrefix + clientID.String()}, owner).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release generation lock: %w", err)
	}
	return nil
}
