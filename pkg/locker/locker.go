package locker

import (
	"context"
	"errors"
	"time"

	"reading_eval_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrLocked = errors.New("lock already held")

// Locker 短期互斥锁，用于串行化同一作答的并发提交
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// Noop 未启用 Redis 时使用，总是成功
type Noop struct{}

func (Noop) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	return func() {}, nil
}

// 只有持有者的 token 匹配时才删除，避免误删过期后被他人重新获取的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	Client *redis.Client
	Prefix string
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{Client: client, Prefix: "reading_eval:lock:"}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	fullKey := l.Prefix + key

	ok, err := l.Client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.Client, []string{fullKey}, token).Err(); err != nil {
			logger.Log.Warn("Failed to release lock", zap.String("key", fullKey), zap.Error(err))
		}
	}, nil
}
