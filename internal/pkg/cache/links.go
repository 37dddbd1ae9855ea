package cache

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const linkKeyPrefix = "linkfox:url:"

// LinkCache stores short code to URL mappings for redirects.
// Cache failures are logged and treated as misses.
type LinkCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewLinkCache(client redis.Cmdable, ttl time.Duration) *LinkCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LinkCache{client: client, ttl: ttl}
}

func (c *LinkCache) Get(ctx context.Context, code string) (string, bool) {
	v, err := c.client.Get(ctx, linkKeyPrefix+code).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[Cache] get %s: %v", code, err)
		}
		return "", false
	}
	return v, true
}

func (c *LinkCache) Set(ctx context.Context, code, originalURL string) {
	if err := c.client.Set(ctx, linkKeyPrefix+code, originalURL, c.ttl).Err(); err != nil {
		log.Printf("[Cache] set %s: %v", code, err)
	}
}
