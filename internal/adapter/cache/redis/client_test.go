package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements only the commands the store uses.
type fakeRedis struct {
	redis.Cmdable
	data   map[string]string
	ttls   map[string]time.Duration
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func asString(v interface{}) string {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	}
	panic("unexpected value type")
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	if f.setErr != nil {
		return redis.NewBoolResult(false, f.setErr)
	}
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = asString(value)
	f.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	f.data[key] = asString(value)
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	s := NewIdempotencyStore(fake, time.Hour)

	reserved, _, err := s.Reserve(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Equal(t, PendingTTL, fake.ttls[keyPrefix+"abc"])

	reserved, data, err := s.Reserve(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Nil(t, data)

	require.NoError(t, s.Save(ctx, "abc", []byte("first")))
	assert.Equal(t, time.Hour, fake.ttls[keyPrefix+"abc"])

	reserved, data, err = s.Reserve(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, []byte("first"), data)
}

func TestIdempotencyStoreRelease(t *testing.T) {
	ctx := context.Background()
	s := NewIdempotencyStore(newFakeRedis(), time.Hour)

	reserved, _, _ := s.Reserve(ctx, "abc")
	require.True(t, reserved)
	require.NoError(t, s.Release(ctx, "abc"))

	reserved, _, err := s.Reserve(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestIdempotencyStoreError(t *testing.T) {
	fake := newFakeRedis()
	fake.setErr = errors.New("connection reset")
	s := NewIdempotencyStore(fake, time.Hour)

	_, _, err := s.Reserve(context.Background(), "abc")
	assert.ErrorContains(t, err, "connection reset")
}
