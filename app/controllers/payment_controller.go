package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/LinkFox/internal/pkg/billing"
	"github.com/ManuelReschke/LinkFox/internal/pkg/usercontext"
)

type createOrderRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
	PlanID uint  `json:"planId"`
	Days   int   `json:"days"`
}

type verifyPaymentRequest struct {
	OrderID    string `json:"orderId" validate:"required"`
	PaymentID  string `json:"paymentId"`
	Signature  string `json:"signature"`
	PlanID     uint   `json:"planId"`
	Days       int    `json:"days"`
	DaysActive int    `json:"daysActive"`
}

// HandleCreateOrder opens a gateway order for the caller.
func (a *API) HandleCreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := a.bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ref, err := a.Billing.CreateOrder(c.UserContext(), billing.CreateOrderInput{
		UserID: usercontext.GetUserID(c),
		Amount: req.Amount,
		PlanID: req.PlanID,
		Days:   req.Days,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ref)
}

// HandleVerifyPayment confirms a paid order and grants its plan.
func (a *API) HandleVerifyPayment(c *fiber.Ctx) error {
	var req verifyPaymentRequest
	if err := a.bind(c, &req); err != nil {
		return respondError(c, err)
	}
	days := req.Days
	if days == 0 {
		days = req.DaysActive
	}
	res, err := a.Billing.VerifyAndActivate(c.UserContext(), billing.VerifyInput{
		UserID:    usercontext.GetUserID(c),
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		PlanID:    req.PlanID,
		Days:      days,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":        res.Message(),
		"orderId":        res.Payment.OrderID,
		"status":         res.Payment.Status,
		"plan":           planJSON(res.Plan),
		"expirationDate": formatTime(res.Window.ExpiresAt),
		"replayed":       res.Replayed,
	})
}

// HandlePaymentWebhook records gateway notifications. It never grants plans.
func (a *API) HandlePaymentWebhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)
	res, err := a.Billing.HandleWebhook(c.UserContext(), billing.WebhookInput{
		Payload:   payload,
		Signature: c.Get("X-Razorpay-Signature"),
		EventID:   c.Get("X-Razorpay-Event-Id"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"received":  true,
		"orderId":   res.OrderID,
		"status":    res.Status,
		"updated":   res.Updated,
		"duplicate": res.Duplicate,
	})
}

// HandleListPayments returns the caller's payment history, newest first.
func (a *API) HandleListPayments(c *fiber.Ctx) error {
	payments, err := a.Repos.Payment.ListByUser(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	items := make([]fiber.Map, 0, len(payments))
	for _, p := range payments {
		item := fiber.Map{
			"orderId":     p.OrderID,
			"paymentId":   p.PaymentID,
			"amount":      p.Amount,
			"currency":    p.Currency,
			"gateway":     p.Gateway,
			"status":      p.Status,
			"createdAt":   formatTime(p.CreatedAt),
			"activatedAt": formatTimePtr(p.ActivatedAt),
		}
		if p.PlanID != nil {
			item["planId"] = *p.PlanID
		}
		items = append(items, item)
	}
	return c.JSON(fiber.Map{"payments": items})
}
