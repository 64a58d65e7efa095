package game

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCooldownStore is the shared cooldown gate for multi-instance
// deployments. SET NX with a TTL makes the test-and-set atomic across
// processes.
type RedisCooldownStore struct {
	client *redis.Client
}

// NewRedisCooldownStore connects to redis and verifies the connection.
func NewRedisCooldownStore(url string) (*RedisCooldownStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCooldownStore{client: client}, nil
}

// NewRedisCooldownStoreWithClient wraps an existing client (tests).
func NewRedisCooldownStoreWithClient(client *redis.Client) *RedisCooldownStore {
	return &RedisCooldownStore{client: client}
}

// Allow implements CooldownStore. The key carries its own TTL, so expired
// cooldowns clean themselves up.
func (s *RedisCooldownStore) Allow(ctx context.Context, userID uint, action ActionType, cooldown time.Duration) (bool, error) {
	return s.client.SetNX(ctx, cooldownKey(userID, action), 1, cooldown).Result()
}

// Close releases the redis connection.
func (s *RedisCooldownStore) Close() error {
	return s.client.Close()
}

var _ CooldownStore = (*RedisCooldownStore)(nil)
var _ CooldownStore = (*MemoryCooldownStore)(nil)
