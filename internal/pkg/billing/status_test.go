package billing

import (
	"testing"

	"github.com/ManuelReschke/LinkFox/app/models"
)

func TestNormalizePaymentStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "paid", want: models.PaymentStatusSuccess},
		{in: "CAPTURED", want: models.PaymentStatusSuccess},
		{in: "success", want: models.PaymentStatusSuccess},
		{in: "order.paid", want: models.PaymentStatusSuccess},
		{in: "failed", want: models.PaymentStatusFailed},
		{in: "payment.failed", want: models.PaymentStatusFailed},
		{in: "created", want: models.PaymentStatusPending},
		{in: "attempted", want: models.PaymentStatusPending},
		{in: "", want: models.PaymentStatusPending},
	}

	for _, tt := range tests {
		if got := NormalizePaymentStatus(tt.in); got != tt.want {
			t.Fatalf("NormalizePaymentStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsPaid(t *testing.T) {
	if isPaid(nil) {
		t.Fatalf("nil order must not be paid")
	}
	for _, status := range []string{"paid", "PAID", " paid "} {
		if !isPaid(&Order{Status: status}) {
			t.Fatalf("expected status %q to be paid", status)
		}
	}
	for _, status := range []string{"created", "attempted", "captured", ""} {
		if isPaid(&Order{Status: status}) {
			t.Fatalf("expected status %q to not be paid", status)
		}
	}
}
