package controllers

import (
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/LinkFox/internal/pkg/mail"
)

type contactRequest struct {
	Name         string `json:"name" validate:"required,max=150"`
	Email        string `json:"email" validate:"required,email,max=200"`
	Subject      string `json:"subject" validate:"required,max=200"`
	Message      string `json:"message" validate:"required,max=5000"`
	CaptchaToken string `json:"h-captcha-response"`
}

// HandleContact relays a contact form message to the operators.
func (a *API) HandleContact(c *fiber.Ctx) error {
	var req contactRequest
	if err := a.bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := a.Captcha.Verify(c.UserContext(), req.CaptchaToken, c.IP()); err != nil {
		log.Printf("[API] contact captcha rejected: %v", err)
		return errorJSON(c, fiber.StatusBadRequest, "captcha_failed", "Captcha verification failed")
	}
	if a.Settings.ContactRecipient == "" || a.Mailer == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "unavailable", "Contact form is not configured")
	}

	subject := strings.Join(strings.Fields(req.Subject), " ")
	body := fmt.Sprintf("<p><strong>%s</strong> &lt;%s&gt; wrote:</p><p>%s</p>",
		html.EscapeString(req.Name),
		html.EscapeString(req.Email),
		strings.ReplaceAll(html.EscapeString(req.Message), "\n", "<br>"),
	)
	err := a.Mailer.Send(c.UserContext(), mail.Message{
		To:      a.Settings.ContactRecipient,
		ReplyTo: req.Email,
		Subject: "[LinkFox contact] " + subject,
		HTML:    body,
		Tag:     "contact",
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "Message received"})
}
