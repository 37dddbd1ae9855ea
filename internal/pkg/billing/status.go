package billing

import (
	"strings"

	"github.com/ManuelReschke/LinkFox/app/models"
)

// Gateway order statuses as reported by Razorpay.
const (
	OrderStatusCreated   = "created"
	OrderStatusAttempted = "attempted"
	OrderStatusPaid      = "paid"
)

// NormalizePaymentStatus maps gateway order, payment and webhook statuses to
// the persisted payment status.
func NormalizePaymentStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "paid", "captured", "success", "order.paid", "payment.captured":
		return models.PaymentStatusSuccess
	case "failed", "payment.failed":
		return models.PaymentStatusFailed
	default:
		return models.PaymentStatusPending
	}
}

func isPaid(order *Order) bool {
	return order != nil && strings.EqualFold(strings.TrimSpace(order.Status), OrderStatusPaid)
}

func normalizeGateway(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
