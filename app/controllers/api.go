package controllers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/LinkFox/app/repository"
	"github.com/ManuelReschke/LinkFox/internal/pkg/billing"
	"github.com/ManuelReschke/LinkFox/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/LinkFox/internal/pkg/mail"
	"github.com/ManuelReschke/LinkFox/internal/pkg/membership"
	"github.com/ManuelReschke/LinkFox/internal/pkg/security"
)

// Settings are the request-boundary options of the API.
type Settings struct {
	PublicDomain       string
	AllowDirectUpgrade bool
	ContactRecipient   string
}

// API holds the dependencies of the JSON handlers.
type API struct {
	Repos    *repository.Repositories
	Members  *membership.Service
	Billing  *billing.Service
	Tokens   *security.TokenIssuer
	Captcha  *hcaptcha.Verifier
	Mailer   mail.Mailer
	Settings Settings

	validate *validator.Validate
}

func NewAPI(repos *repository.Repositories, members *membership.Service, payments *billing.Service, tokens *security.TokenIssuer, captcha *hcaptcha.Verifier, mailer mail.Mailer, settings Settings) *API {
	settings.PublicDomain = strings.TrimRight(settings.PublicDomain, "/")
	return &API{
		Repos:    repos,
		Members:  members,
		Billing:  payments,
		Tokens:   tokens,
		Captcha:  captcha,
		Mailer:   mailer,
		Settings: settings,
		validate: validator.New(),
	}
}

// HandlePing answers liveness probes.
func (a *API) HandlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ping": "pong"})
}

// bind parses the JSON body into dst and runs struct validation.
func (a *API) bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return &membership.ValidationError{Reason: "request body must be valid JSON"}
	}
	if err := a.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &membership.ValidationError{
				Field:  jsonFieldName(verrs[0]),
				Reason: "failed " + verrs[0].Tag() + " check",
			}
		}
		return &membership.ValidationError{Reason: err.Error()}
	}
	return nil
}

func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return ""
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func errorJSON(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

// respondError maps domain errors to HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	var quota *membership.QuotaError
	var verr *membership.ValidationError
	var payErr *billing.VerificationError

	switch {
	case errors.As(err, &quota):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "quota_denied",
			"reason":  string(quota.Reason),
			"message": quota.Error(),
		})
	case errors.As(err, &verr):
		return errorJSON(c, fiber.StatusBadRequest, "validation_error", verr.Error())
	case errors.Is(err, membership.ErrInvalidDays):
		return errorJSON(c, fiber.StatusBadRequest, "validation_error", "days must be between 1 and 3650")
	case errors.Is(err, billing.ErrInvalidInput):
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", strings.TrimPrefix(err.Error(), "billing: invalid input: "))
	case errors.As(err, &payErr):
		return errorJSON(c, fiber.StatusBadRequest, "payment_not_verified", "Payment verification failed")
	case errors.Is(err, membership.ErrInvalidCredentials):
		return errorJSON(c, fiber.StatusUnauthorized, "unauthorized", "Invalid credentials")
	case errors.Is(err, billing.ErrInvalidSignature):
		return errorJSON(c, fiber.StatusUnauthorized, "unauthorized", "Invalid webhook signature")
	case errors.Is(err, billing.ErrForbidden):
		return errorJSON(c, fiber.StatusForbidden, "forbidden", "Order belongs to another user")
	case errors.Is(err, membership.ErrPlanNotFound):
		return errorJSON(c, fiber.StatusNotFound, "not_found", "Plan not found")
	case errors.Is(err, membership.ErrLinkNotFound):
		return errorJSON(c, fiber.StatusNotFound, "not_found", "URL not found")
	case errors.Is(err, membership.ErrNoWindow):
		return errorJSON(c, fiber.StatusNotFound, "not_found", "No membership plan found for the user")
	case errors.Is(err, billing.ErrPaymentNotFound):
		return errorJSON(c, fiber.StatusNotFound, "not_found", "Order not found")
	case errors.Is(err, membership.ErrConflict):
		return errorJSON(c, fiber.StatusConflict, "conflict", "Username or email already exists")
	case errors.Is(err, billing.ErrGatewayTimeout):
		return errorJSON(c, fiber.StatusGatewayTimeout, "gateway_timeout", "Payment gateway did not respond in time")
	case errors.Is(err, billing.ErrGatewayUnavailable):
		return errorJSON(c, fiber.StatusBadGateway, "gateway_unavailable", "Payment gateway is unavailable")
	}

	log.Printf("[API] %s %s failed: %v", c.Method(), c.Path(), err)
	return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Something went wrong, please retry")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
