package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/LinkFox/internal/pkg/config"
)

// NewClient connects to the Redis compatible cache server and pings it once.
func NewClient(ctx context.Context, cfg config.Cache) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       0,
	})

	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	pong, err := client.Ping(pctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to cache %s: %w", client.Options().Addr, err)
	}
	log.Printf("[Cache] connected to %s: %s", client.Options().Addr, pong)
	return client, nil
}
