package middleware

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/app/repository"
	"github.com/ManuelReschke/LinkFox/internal/pkg/security"
	"github.com/ManuelReschke/LinkFox/internal/pkg/usercontext"
)

// Authenticator resolves bearer tokens and API keys to users.
type Authenticator struct {
	Tokens  *security.TokenIssuer
	Users   repository.UserRepository
	APIKeys repository.APIKeyRepository
}

func NewAuthenticator(tokens *security.TokenIssuer, repos *repository.Repositories) *Authenticator {
	return &Authenticator{Tokens: tokens, Users: repos.User, APIKeys: repos.APIKey}
}

// RequireUser accepts "Authorization: Bearer <jwt>", "Authorization: Bearer lfx_..."
// or "X-API-Key: lfx_..." and answers 401 JSON otherwise.
func RequireUser(a *Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey, token := extractCredentials(c)
		if apiKey == "" && token == "" {
			return unauthorized(c, "Missing credentials")
		}

		var (
			user   *models.User
			method string
			err    error
		)
		if apiKey != "" {
			var key *models.APIKey
			user, key, err = a.userFromAPIKey(c, apiKey)
			if err == nil {
				touchAPIKey(a, c, key)
			}
			method = usercontext.AuthMethodAPIKey
		} else {
			user, err = a.userFromToken(c, token)
			method = usercontext.AuthMethodToken
		}
		if err != nil {
			if errors.Is(err, errBadCredentials) {
				return unauthorized(c, "Invalid or expired credentials")
			}
			log.Printf("[Auth] credential lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Credential verification failed"})
		}
		if !user.IsActive() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "User inactive"})
		}

		usercontext.Set(c, usercontext.UserContext{
			UserID:     user.ID,
			Username:   user.Name,
			Email:      user.Email,
			IsLoggedIn: true,
			IsAdmin:    user.IsAdmin(),
			AuthMethod: method,
		})
		return c.Next()
	}
}

// RequireAdmin must run after RequireUser.
func RequireAdmin(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return unauthorized(c, "login required")
	}
	if !usercontext.IsAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Admin access required"})
	}
	return c.Next()
}

var errBadCredentials = errors.New("bad credentials")

func (a *Authenticator) userFromToken(c *fiber.Ctx, token string) (*models.User, error) {
	if a.Tokens == nil {
		return nil, errBadCredentials
	}
	userID, err := a.Tokens.Validate(token)
	if err != nil {
		return nil, errBadCredentials
	}
	user, err := a.Users.GetByID(c.UserContext(), userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	return user, nil
}

func (a *Authenticator) userFromAPIKey(c *fiber.Ctx, raw string) (*models.User, *models.APIKey, error) {
	user, key, err := a.APIKeys.GetUserByKeyHash(c.UserContext(), models.HashAPIKey(raw))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, errBadCredentials
		}
		return nil, nil, err
	}
	return user, key, nil
}

func extractCredentials(c *fiber.Ctx) (apiKey, token string) {
	if key := strings.TrimSpace(c.Get("X-API-Key")); key != "" {
		return key, ""
	}
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return "", ""
	}
	cred := strings.TrimSpace(auth[7:])
	if models.IsAPIKeyFormat(cred) {
		return cred, ""
	}
	return "", cred
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": msg})
}

// touchAPIKey refreshes the last-used timestamp best-effort.
func touchAPIKey(a *Authenticator, c *fiber.Ctx, key *models.APIKey) {
	if err := a.APIKeys.TouchLastUsed(c.UserContext(), key.ID, time.Now().UTC()); err != nil {
		log.Printf("[Auth] failed to update api key usage timestamp for key %d: %v", key.ID, err)
	}
}
