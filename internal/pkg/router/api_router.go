package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/LinkFox/app/controllers"
	apiv1 "github.com/ManuelReschke/LinkFox/internal/api/v1"
	"github.com/ManuelReschke/LinkFox/internal/pkg/middleware"
)

// ApiRouter mounts the JSON API under /api.
type ApiRouter struct {
	API  *controllers.API
	Auth *middleware.Authenticator

	CORSOrigins string
	// LimiterStorage shares rate limit counters between instances. Nil keeps them in memory.
	LimiterStorage fiber.Storage
	RateLimit      int
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	limit := h.RateLimit
	if limit <= 0 {
		limit = 120
	}
	origins := h.CORSOrigins
	if origins == "" {
		origins = "*"
	}

	api := app.Group("/api",
		cors.New(cors.Config{
			AllowOrigins: origins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key",
		}),
		limiter.New(limiter.Config{
			Max:        limit,
			Expiration: time.Minute,
			Storage:    h.LimiterStorage,
			// gateway webhooks are exempt
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/api/payment-webhook"
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error":   "too_many_requests",
					"message": "Rate limit exceeded, slow down",
				})
			},
		}),
	)
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	apiv1.RegisterHandlers(api, h.API, middleware.RequireUser(h.Auth))
}

func NewApiRouter(api *controllers.API, auth *middleware.Authenticator) *ApiRouter {
	return &ApiRouter{API: api, Auth: auth}
}
