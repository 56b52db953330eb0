package locker

import (
	"context"
	"testing"
	"time"

	"reading_eval_backend/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLocker(client), mr
}

func TestRedisLocker_Exclusive(t *testing.T) {
	l, mr := newTestLocker(t)
	ctx := context.Background()

	unlock, err := l.TryLock(ctx, "attempt:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("reading_eval:lock:attempt:1"))

	_, err = l.TryLock(ctx, "attempt:1", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	unlock()
	assert.False(t, mr.Exists("reading_eval:lock:attempt:1"))

	again, err := l.TryLock(ctx, "attempt:1", time.Minute)
	require.NoError(t, err)
	again()
}

func TestRedisLocker_UnlockKeepsForeignLock(t *testing.T) {
	l, mr := newTestLocker(t)
	ctx := context.Background()

	unlock, err := l.TryLock(ctx, "attempt:2", time.Second)
	require.NoError(t, err)

	// 锁过期后被另一持有者获取
	mr.FastForward(2 * time.Second)
	other, err := l.TryLock(ctx, "attempt:2", time.Minute)
	require.NoError(t, err)

	unlock()
	assert.True(t, mr.Exists("reading_eval:lock:attempt:2"))
	other()
	assert.False(t, mr.Exists("reading_eval:lock:attempt:2"))
}

func TestRedisLocker_ReleaseFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	previous := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = previous })

	l, mr := newTestLocker(t)
	unlock, err := l.TryLock(context.Background(), "attempt:3", time.Minute)
	require.NoError(t, err)

	mr.Close()
	unlock()

	entries := logs.FilterMessage("Failed to release lock").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "reading_eval:lock:attempt:3", entries[0].ContextMap()["key"])
}

func TestNoop(t *testing.T) {
	unlock, err := Noop{}.TryLock(context.Background(), "any", time.Second)
	require.NoError(t, err)
	unlock()
}
