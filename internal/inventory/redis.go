package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLookup reads stock counters maintained by the booking system in
// Redis. A missing key means the item has unlimited availability.
type RedisLookup struct {
	rdb *redis.Client
}

// NewRedisLookup creates a Redis-backed stock lookup.
func NewRedisLookup(rdb *redis.Client) *RedisLookup {
	return &RedisLookup{rdb: rdb}
}

func (l *RedisLookup) RemainingStock(ctx context.Context, itemID string) (Stock, error) {
	n, err := l.rdb.Get(ctx, stockKey(itemID)).Int()
	if errors.Is(err, redis.Nil) {
		return Stock{Unlimited: true}, nil
	}
	if err != nil {
		return Stock{}, fmt.Errorf("read stock for %s: %w", itemID, err)
	}
	if n < 0 {
		// Oversold counters read as empty, not negative.
		n = 0
	}
	return Stock{Remaining: n}, nil
}

func stockKey(itemID string) string { return fmt.Sprintf("stock:%s", itemID) }
