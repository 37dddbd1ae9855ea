package billing

import (
	"errors"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/internal/pkg/membership"
)

var (
	ErrPaymentNotVerified = errors.New("billing: payment not verified")
	ErrPaymentNotFound    = errors.New("billing: payment order not found")
	ErrForbidden          = errors.New("billing: order belongs to another user")
	ErrInvalidInput       = errors.New("billing: invalid input")
	ErrInvalidSignature   = errors.New("billing: invalid webhook signature")
	ErrGatewayUnavailable = errors.New("billing: payment gateway unavailable")
	ErrGatewayTimeout     = errors.New("billing: payment gateway timed out")
)

// VerificationError explains why a payment could not be confirmed.
// It matches ErrPaymentNotVerified.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string {
	return "payment verification failed: " + e.Reason
}

func (e *VerificationError) Is(target error) bool {
	return target == ErrPaymentNotVerified
}

// OrderRequest is what the service asks the gateway to create.
// AmountMinor is in the smallest currency unit (paise for INR).
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order is the gateway's view of an order.
type Order struct {
	ID          string
	AmountMinor int64
	AmountPaid  int64
	Currency    string
	Receipt     string
	Status      string
}

// CreateOrderInput describes an order a user wants to pay.
// PlanID and Days are optional; when set they bind the order to that plan.
type CreateOrderInput struct {
	UserID uint
	Amount int64
	PlanID uint
	Days   int
}

// OrderRef is handed to the client to open the gateway checkout.
type OrderRef struct {
	OrderID     string `json:"order_id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Gateway     string `json:"gateway"`
	KeyID       string `json:"key_id,omitempty"`
}

// VerifyInput is the client's claim that an order was paid.
type VerifyInput struct {
	UserID    uint
	OrderID   string
	PaymentID string
	Signature string
	PlanID    uint
	Days      int
}

// VerificationRequest is passed to a Verifier.
type VerificationRequest struct {
	OrderID   string
	PaymentID string
	Signature string
}

// VerifyResult is the outcome of a successful verification.
// Replayed is set when the order had already activated its plan.
type VerifyResult struct {
	Payment  *models.Payment
	Window   *membership.Window
	Plan     *models.MembershipPlan
	Renewed  bool
	Replayed bool
}

// Message is the user-facing success text.
func (r *VerifyResult) Message() string {
	if r.Replayed {
		return "Payment already verified"
	}
	if r.Renewed {
		return "Payment verified and plan renewed successfully"
	}
	return "Payment verified and plan upgraded successfully"
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Gateway         string
	ProviderEventID string
	EventType       string
	OrderID         string
	Payload         []byte
	SignatureValid  bool
}

// WebhookInput is a raw webhook delivery.
type WebhookInput struct {
	Payload   []byte
	Signature string
	EventID   string
}

// WebhookResult reports what a webhook delivery changed.
type WebhookResult struct {
	OrderID   string
	Status    string
	Updated   bool
	Duplicate bool
}
