package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisAdapter keeps the cart as a JSON array under cart:<session>. No TTL:
// carts live until cleared.
type RedisAdapter struct {
	rdb *redis.Client
	key string
}

func NewRedisAdapter(rdb *redis.Client, sessionID string) *RedisAdapter {
	return &RedisAdapter{rdb: rdb, key: "cart:" + sessionID}
}

func (a *RedisAdapter) Load(ctx context.Context) ([]Item, error) {
	raw, err := a.rdb.Get(ctx, a.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", a.key, err)
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		// corrupted payload: treat as empty rather than failing every page
		return nil, nil
	}
	return items, nil
}

func (a *RedisAdapter) Save(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return a.rdb.Del(ctx, a.key).Err()
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return a.rdb.Set(ctx, a.key, raw, 0).Err()
}
