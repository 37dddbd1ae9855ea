package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/LinkFox/app/controllers"
	"github.com/ManuelReschke/LinkFox/app/repository"
	apiv1 "github.com/ManuelReschke/LinkFox/internal/api/v1"
	"github.com/ManuelReschke/LinkFox/internal/pkg/billing"
	"github.com/ManuelReschke/LinkFox/internal/pkg/cache"
	"github.com/ManuelReschke/LinkFox/internal/pkg/config"
	"github.com/ManuelReschke/LinkFox/internal/pkg/database"
	"github.com/ManuelReschke/LinkFox/internal/pkg/env"
	"github.com/ManuelReschke/LinkFox/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/LinkFox/internal/pkg/mail"
	"github.com/ManuelReschke/LinkFox/internal/pkg/membership"
	"github.com/ManuelReschke/LinkFox/internal/pkg/middleware"
	"github.com/ManuelReschke/LinkFox/internal/pkg/router"
	"github.com/ManuelReschke/LinkFox/internal/pkg/security"
)

func main() {
	env.SetupEnvFile()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Main] %v", err)
	}

	app, err := NewApplication(context.Background(), cfg)
	if err != nil {
		log.Fatalf("[Main] %v", err)
	}
	log.Fatal(app.Listen(cfg.ListenAddr()))
}

func NewApplication(ctx context.Context, cfg *config.Config) (*fiber.App, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	repos := repository.NewFactory(db).GetRepositories()

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/linkfox to project root
		"../../../", // Fallback
	}
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs/v1/openapi.yml"); err == nil {
			basePath = path
			break
		}
	}
	if basePath == "" {
		return nil, errors.New("could not find project root directory")
	}
	specPath := basePath + "public/docs/v1/openapi.yml"
	if _, err := apiv1.LoadSpec(ctx, specPath); err != nil {
		return nil, err
	}

	var opts []membership.Option
	if cfg.Cache.Enabled {
		client, err := cache.NewClient(ctx, cfg.Cache)
		if err != nil {
			return nil, err
		}
		opts = append(opts, membership.WithLinkCache(cache.NewLinkCache(client, cfg.Cache.LinkTTL)))
	}
	members := membership.NewService(repos, membership.Config{
		DefaultPlanID:   cfg.Membership.DefaultPlanID,
		DefaultPlanDays: cfg.Membership.DefaultPlanDays,
		CodeLength:      cfg.Membership.ShortCodeLength,
	}, opts...)

	gateway, verifier, err := billing.NewGatewayFromConfig(cfg.Payment)
	if err != nil {
		return nil, err
	}
	payments := billing.NewService(repos, members, gateway, verifier, billing.Options{
		Currency:      cfg.Payment.Currency,
		Timeout:       cfg.Payment.Timeout,
		WebhookSecret: cfg.Payment.WebhookSecret,
	})

	tokens, err := security.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	if err != nil {
		return nil, err
	}
	mailer, err := mail.NewFromConfig(cfg.Mail)
	if err != nil {
		return nil, err
	}

	api := controllers.NewAPI(repos, members, payments, tokens, hcaptcha.NewVerifier(cfg.HCaptcha), mailer, controllers.Settings{
		PublicDomain:       cfg.App.PublicDomain,
		AllowDirectUpgrade: cfg.Membership.AllowDirectUpgrade,
		ContactRecipient:   cfg.App.ContactTarget,
	})

	app := fiber.New(fiber.Config{
		AppName:           "LinkFox",
		BodyLimit:         1 << 20,
		ErrorHandler:      errorHandler,
		EnablePrintRoutes: cfg.IsDev(),
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: specPath,
		Path:     "v1",
	}))

	httpRouter := router.NewHttpRouter(api)
	httpRouter.MetricsUser = cfg.App.MetricsUser
	httpRouter.MetricsPass = cfg.App.MetricsPass

	apiRouter := router.NewApiRouter(api, middleware.NewAuthenticator(tokens, repos))
	apiRouter.CORSOrigins = cfg.App.CORSOrigins
	apiRouter.LimiterStorage = cache.NewLimiterStorage(cfg.Cache)

	// ROUTER
	router.InstallRouter(app, httpRouter, apiRouter)

	log.Printf("[Main] gateway=%s env=%s verify=%s cache=%t", gateway.Name(), cfg.Payment.GatewayEnv, cfg.Payment.VerifyMode, cfg.Cache.Enabled)
	return app, nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		log.Printf("[Main] unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   "http_error",
		"message": message,
	})
}
