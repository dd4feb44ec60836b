package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/YelzhanWeb/pickup/internal/config"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

const (
	keyPrefix     = "slot_lock:"
	retryInterval = 25 * time.Millisecond
)

// releaseScript deletes the lock only if it still carries our token, so an
// expired holder cannot release a lock someone else acquired since.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a SlotLocker shared by every API replica that talks to the same Redis.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

var _ interfaces.SlotLocker = (*Locker)(nil)

func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Locker{client: client, ttl: ttl}
}

// Lock polls SET NX until the key is acquired or ctx is done. The lock expires
// after ttl even if the holder dies.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := keyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire %s: %w", lockKey, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the request context may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, l.client, []string{lockKey}, token).Err()
		})
	}, nil
}
