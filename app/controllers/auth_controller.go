package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/app/repository"
	"github.com/ManuelReschke/LinkFox/internal/pkg/usercontext"
)

type registerRequest struct {
	Username     string `json:"username" validate:"required"`
	Email        string `json:"email" validate:"required"`
	Password     string `json:"password" validate:"required"`
	CaptchaToken string `json:"h-captcha-response"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates the user together with the default plan window.
func (a *API) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := a.bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := a.Captcha.Verify(c.UserContext(), req.CaptchaToken, c.IP()); err != nil {
		log.Printf("[API] register captcha rejected: %v", err)
		return errorJSON(c, fiber.StatusBadRequest, "captcha_failed", "Captcha verification failed")
	}

	user, window, err := a.Members.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":         "User registered and plan activated successfully",
		"id":              user.ID,
		"plan_id":         window.PlanID,
		"expiration_date": formatTime(window.ExpiresAt),
	})
}

// HandleLogin exchanges credentials for a bearer token.
func (a *API) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := a.bind(c, &req); err != nil {
		return respondError(c, err)
	}
	user, err := a.Members.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	token, exp, err := a.Tokens.Issue(user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": formatTime(exp),
	})
}

// HandleGenerateAPIKey revokes the caller's previous keys and returns a new one.
// The raw key is only shown in this response.
func (a *API) HandleGenerateAPIKey(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	ctx := c.UserContext()

	raw, key, err := models.NewAPIKey(userID)
	if err != nil {
		return respondError(c, err)
	}
	now := a.Members.Now()
	err = a.Repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.APIKey.RevokeAllForUser(ctx, userID, now); err != nil {
			return err
		}
		return tx.APIKey.Create(ctx, key)
	})
	if err != nil {
		return respondError(c, err)
	}
	log.Printf("[API] user %d generated api key %s", userID, key.Prefix)
	return c.JSON(fiber.Map{"apiKey": raw, "prefix": key.Prefix})
}

// HandleMe returns the authenticated account.
func (a *API) HandleMe(c *fiber.Ctx) error {
	user, err := a.Repos.User.GetByID(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		if repository.IsNotFound(err) {
			return errorJSON(c, fiber.StatusNotFound, "not_found", "User not found")
		}
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"id":            user.ID,
		"username":      user.Name,
		"email":         user.Email,
		"status":        user.Status,
		"is_admin":      user.IsAdmin(),
		"created_at":    formatTime(user.CreatedAt),
		"last_login_at": formatTimePtr(user.LastLoginAt),
	})
}
