package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/infoevent/notification-service/internal/port"
)

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

const (
	keyPrefix = "notification:idempotency:"
	// pendingMarker holds a key while its call runs. Responses are JSON and
	// never start with a NUL byte.
	pendingMarker = "\x00pending"
	// PendingTTL bounds how long a reservation survives a crashed caller.
	PendingTTL = 5 * time.Minute
)

// IdempotencyStore keeps idempotent responses in redis for ttl.
type IdempotencyStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewIdempotencyStore(client redis.Cmdable, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

var _ port.IdempotencyStore = (*IdempotencyStore)(nil)

// Reserve claims key with SETNX of the pending marker.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (bool, []byte, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+key, pendingMarker, PendingTTL).Result()
	if err != nil {
		return false, nil, fmt.Errorf("redis reserve idempotency key: %w", err)
	}
	if ok {
		return true, nil, nil
	}

	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between the two commands; report it as still running.
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("redis get idempotency key: %w", err)
	}
	if string(data) == pendingMarker {
		return false, nil, nil
	}
	return false, data, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, keyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis release idempotency key: %w", err)
	}
	return nil
}
