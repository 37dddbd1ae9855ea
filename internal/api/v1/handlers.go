package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/LinkFox/app/controllers"
)

// Route is one documented endpoint of the public API.
type Route struct {
	Method string
	Path   string
	Auth   bool
}

// Routes lists every endpoint mounted under /api. The OpenAPI document is
// checked against this table in tests.
var Routes = []Route{
	{fiber.MethodGet, "/ping", false},
	{fiber.MethodPost, "/register", false},
	{fiber.MethodPost, "/login", false},
	{fiber.MethodGet, "/plans", false},
	{fiber.MethodGet, "/redirect/{code}", false},
	{fiber.MethodPost, "/payment-webhook", false},
	{fiber.MethodPost, "/contact", false},
	{fiber.MethodGet, "/me", true},
	{fiber.MethodPost, "/generate-api-key", true},
	{fiber.MethodPost, "/shorten-url", true},
	{fiber.MethodGet, "/urls", true},
	{fiber.MethodGet, "/membership-plan", true},
	{fiber.MethodPost, "/upgrade-plan", true},
	{fiber.MethodPost, "/create-order", true},
	{fiber.MethodPost, "/verify-payment", true},
	{fiber.MethodGet, "/payments", true},
}

// RegisterHandlers mounts the API handlers on r. requireUser guards the
// authenticated endpoints.
func RegisterHandlers(r fiber.Router, api *controllers.API, requireUser fiber.Handler) {
	r.Get("/ping", api.HandlePing)
	r.Post("/register", api.HandleRegister)
	r.Post("/login", api.HandleLogin)
	r.Get("/plans", api.HandleListPlans)
	r.Get("/redirect/:code", api.HandleResolve)
	r.Post("/payment-webhook", api.HandlePaymentWebhook)
	r.Post("/contact", api.HandleContact)

	r.Get("/me", requireUser, api.HandleMe)
	r.Post("/generate-api-key", requireUser, api.HandleGenerateAPIKey)
	r.Post("/shorten-url", requireUser, api.HandleShortenURL)
	r.Get("/urls", requireUser, api.HandleListURLs)
	r.Get("/membership-plan", requireUser, api.HandleMembershipPlan)
	r.Post("/upgrade-plan", requireUser, api.HandleUpgradePlan)
	r.Post("/create-order", requireUser, api.HandleCreateOrder)
	r.Post("/verify-payment", requireUser, api.HandleVerifyPayment)
	r.Get("/payments", requireUser, api.HandleListPayments)
}
