package lock

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T, ttl time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLocker(client, ttl, zerolog.Nop()), server
}

func TestRedisLockerAcquireRelease(t *testing.T) {
	locker, server := newRedisLocker(t, time.Second)
	key := SubmissionKey(4, 5)

	release, err := locker.Acquire(context.Background(), key)
	require.NoError(t, err)
	require.True(t, server.Exists(key))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, key)
	require.ErrorIs(t, err, ErrNotAcquired)

	release()
	require.False(t, server.Exists(key))

	release, err = locker.Acquire(context.Background(), key)
	require.NoError(t, err)
	release()
}

func TestRedisLockerReleaseKeepsForeignToken(t *testing.T) {
	locker, server := newRedisLocker(t, time.Second)
	key := CertificateKey(1, 1, 1)

	release, err := locker.Acquire(context.Background(), key)
	require.NoError(t, err)

	// Simulate expiry followed by another holder taking the key.
	require.NoError(t, server.Set(key, "someone-else"))
	release()

	value, err := server.Get(key)
	require.NoError(t, err)
	require.Equal(t, "someone-else", value)
}

func TestRedisLockerWaitsForHolder(t *testing.T) {
	locker, _ := newRedisLocker(t, time.Second)
	key := SubmissionKey(8, 8)

	release, err := locker.Acquire(context.Background(), key)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	second, err := locker.Acquire(ctx, key)
	require.NoError(t, err)
	second()
}
