package billing

import (
	"encoding/json"
	"fmt"
	"strings"
)

// WebhookNotification is the normalized content of a webhook delivery.
type WebhookNotification struct {
	EventID   string
	EventType string
	OrderID   string
	PaymentID string
	Status    string
}

type razorpayWebhook struct {
	ID      string `json:"id"`
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`

	// flat form: {"orderId": "...", "status": "..."}
	OrderID      string `json:"orderId"`
	OrderIDSnake string `json:"order_id"`
	Status       string `json:"status"`
}

// ParseWebhook accepts a Razorpay event envelope or the flat {orderId, status} form.
func ParseWebhook(payload []byte) (*WebhookNotification, error) {
	var raw razorpayWebhook
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: webhook body is not valid JSON", ErrInvalidInput)
	}

	n := &WebhookNotification{EventID: strings.TrimSpace(raw.ID)}
	if raw.Event != "" {
		n.EventType = strings.TrimSpace(raw.Event)
		n.PaymentID = raw.Payload.Payment.Entity.ID
		n.OrderID = firstNonEmpty(raw.Payload.Order.Entity.ID, raw.Payload.Payment.Entity.OrderID)
		// the event name carries the terminal state, e.g. order.paid or payment.failed
		n.Status = NormalizePaymentStatus(n.EventType)
	} else {
		n.EventType = "status"
		n.OrderID = firstNonEmpty(raw.OrderID, raw.OrderIDSnake)
		n.Status = NormalizePaymentStatus(raw.Status)
	}

	n.OrderID = strings.TrimSpace(n.OrderID)
	if n.OrderID == "" {
		return nil, fmt.Errorf("%w: webhook carries no order id", ErrInvalidInput)
	}
	return n, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
