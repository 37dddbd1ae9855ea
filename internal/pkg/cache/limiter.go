package cache

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/LinkFox/internal/pkg/config"
)

// limiterDatabase keeps rate limit counters apart from the link cache in DB 0.
const limiterDatabase = 2

// NewLimiterStorage returns a Redis backed fiber.Storage for the API rate
// limiter, or nil when the cache is disabled so fiber keeps counters in memory.
func NewLimiterStorage(cfg config.Cache) fiber.Storage {
	if !cfg.Enabled {
		return nil
	}
	return redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		Database: limiterDatabase,
		Reset:    false,
	})
}
