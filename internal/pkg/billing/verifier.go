package billing

import (
	"context"
	"strings"
)

// SignatureVerifier trusts the checkout signature over "orderId|paymentId".
type SignatureVerifier struct {
	KeySecret string
}

func (v *SignatureVerifier) Verify(_ context.Context, req VerificationRequest) (string, error) {
	paymentID := strings.TrimSpace(req.PaymentID)
	if paymentID == "" || strings.TrimSpace(req.Signature) == "" {
		return "", &VerificationError{Reason: "payment id and signature are required"}
	}
	if !VerifyPaymentSignature(req.OrderID, paymentID, req.Signature, v.KeySecret) {
		return "", &VerificationError{Reason: "signature mismatch"}
	}
	return paymentID, nil
}

// StatusVerifier asks the gateway for the order status and requires it to be paid.
type StatusVerifier struct {
	Gateway Gateway
}

func (v *StatusVerifier) Verify(ctx context.Context, req VerificationRequest) (string, error) {
	order, err := v.Gateway.FetchOrder(ctx, req.OrderID)
	if err != nil {
		return "", err
	}
	if !isPaid(order) {
		return "", &VerificationError{Reason: "order status is " + order.Status}
	}
	if id := strings.TrimSpace(req.PaymentID); id != "" {
		return id, nil
	}
	return order.ID, nil
}
