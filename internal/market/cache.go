package market

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache guarda páginas de odds no Redis, chaveadas pela tupla de filtros.
type Cache struct{ R *redis.Client }

func NewCache(r *redis.Client) *Cache { return &Cache{R: r} }

func cacheKey(m Market, f Filters) string {
	return "odds:page:" + string(m) + ":" + f.Query().Encode()
}

func (c *Cache) Get(ctx context.Context, m Market, f Filters, dst any) (bool, error) {
	b, err := c.R.Get(ctx, cacheKey(m, f)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) Set(ctx context.Context, m Market, f Filters, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, cacheKey(m, f), b, ttl).Err()
}
