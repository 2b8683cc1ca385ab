package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderhub-backend/pkg/config"
)

func TestFixedWindowAllowCountsWithinWindow(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	client := &Client{store: store}

	for i, want := range []bool{true, true, false} {
		allowed, count, err := client.FixedWindowAllow(ctx, "login:ip:10.0.0.1", 2, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, allowed, "hit %d", i+1)
		assert.EqualValues(t, i+1, count)
	}
	assert.Equal(t, []string{"oh:rate_limit:login:ip:10.0.0.1"}, store.expired, "expiry is set once per window")
}

func TestFixedWindowAllowRearmsCounterWithoutExpiry(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.counters["oh:rate_limit:orphan"] = 41
	client := &Client{store: store}

	_, count, err := client.FixedWindowAllow(ctx, "orphan", 100, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 42, count)
	assert.Equal(t, []string{"oh:rate_limit:orphan"}, store.expired)
}

func TestSetNXGetDel(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeStore()}
	key := client.LockKey("cron")

	won, err := client.SetNX(ctx, key, "owner-1", time.Minute)
	require.NoError(t, err)
	require.True(t, won)
	won, err = client.SetNX(ctx, key, "owner-2", time.Minute)
	require.NoError(t, err)
	require.False(t, won)

	owner, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", owner)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestZeroClient(t *testing.T) {
	client := &Client{}
	assert.ErrorIs(t, client.Ping(context.Background()), errNotConnected)
	_, _, err := client.FixedWindowAllow(context.Background(), "x", 1, time.Second)
	assert.ErrorIs(t, err, errNotConnected)
	assert.NoError(t, client.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:pw@cache:6380/2", PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, opts.DB)

	_, err = optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)
}

func TestKeyLayout(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "oh:idempotency:partner-update:abc", client.IdempotencyKey("partner-update", "abc"))
	assert.Equal(t, "oh:rate_limit:api:user:1", client.RateLimitKey("api:user:1"))
	assert.Equal(t, "oh:session:access:jti-1", client.AccessSessionKey("jti-1"))
	assert.Equal(t, "oh:lock", client.LockKey("  "))
}

type fakeStore struct {
	values   map[string]string
	counters map[string]int64
	ttls     map[string]time.Duration
	expired  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values:   map[string]string{},
		counters: map[string]int64{},
		ttls:     map[string]time.Duration{},
	}
}

func (f *fakeStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.values[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeStore) GetDel(ctx context.Context, key string) *redis.StringCmd {
	cmd := f.Get(ctx, key)
	delete(f.values, key)
	return cmd
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Incr(_ context.Context, key string) *redis.IntCmd {
	f.counters[key]++
	return redis.NewIntResult(f.counters[key], nil)
}

func (f *fakeStore) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expired = append(f.expired, key)
	f.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) TTL(_ context.Context, key string) *redis.DurationCmd {
	ttl, ok := f.ttls[key]
	if !ok {
		ttl = -1
	}
	return redis.NewDurationResult(ttl, nil)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.values, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestGetDelConsumesKey(t *testing.T) {
	store := newFakeStore()
	client := &Client{store: store}
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", "v", time.Minute))
	got, err := client.GetDel(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", got)

	_, err = client.GetDel(ctx, "k")
	require.ErrorIs(t, err, redis.Nil)
}
