package redis

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock_SingleHolder(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	first := NewLock(client, "santa:lock:distribution", time.Minute)
	second := NewLock(client, "santa:lock:distribution", time.Minute)

	release, ok, err := first.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "lock is held")

	release()
	assert.False(t, mr.Exists("santa:lock:distribution"))

	release2, ok, err := second.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	release2()
}

func TestLock_ExpiresAfterTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	lock := NewLock(client, "k", time.Second)
	_, ok, err := lock.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	release, ok, err := lock.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	release()
}

func TestLock_ReleaseFailureIsLogged(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	var buf bytes.Buffer
	lock := NewLock(client, "santa:lock:distribution", time.Minute).WithLogger(zerolog.New(&buf))
	release, ok, err := lock.TryAcquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	mr.Close()
	release()

	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "Failed to release distribution lock")
	assert.Contains(t, buf.String(), `"key":"santa:lock:distribution"`)
}

func TestLock_ReleaseAfterExpiryIsLogged(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	var buf bytes.Buffer
	lock := NewLock(client, "k", time.Second).WithLogger(zerolog.New(&buf))
	release, ok, err := lock.TryAcquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	release()
	assert.Contains(t, buf.String(), "Distribution lock expired before release")
}

func TestOpen_RejectsEmptyAddr(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	require.Error(t, err)
}

func TestOpen_Healthy(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	logger := zerolog.Nop()
	c, err := Open(context.Background(), Options{Addr: addr, Logger: &logger})
	require.NoError(t, err)
	defer c.Close()
	assert.NoError(t, c.Healthy(context.Background()))

	mr.Close()
	err = c.Healthy(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
}

func TestOpen_UnreachableNode(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	logger := zerolog.Nop()
	_, err := Open(context.Background(), Options{Addr: addr, PingTimeout: time.Second, Logger: &logger})
	require.Error(t, err)
}

func TestClient_RunLock(t *testing.T) {
	mr := miniredis.RunT(t)
	logger := zerolog.Nop()
	c, err := Open(context.Background(), Options{Addr: mr.Addr(), Logger: &logger})
	require.NoError(t, err)
	defer c.Close()

	release, ok, err := c.RunLock("santa:lock:distribution", time.Minute).TryAcquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("santa:lock:distribution"))
	release()
	assert.False(t, mr.Exists("santa:lock:distribution"))
}
