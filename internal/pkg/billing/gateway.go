package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/LinkFox/internal/pkg/config"
)

// Gateway is the external order-based payment service.
type Gateway interface {
	Name() string
	// KeyID is the public key the client needs to open checkout. May be empty.
	KeyID() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
}

// Verifier confirms a claimed payment and returns the gateway payment id.
type Verifier interface {
	Verify(ctx context.Context, req VerificationRequest) (string, error)
}

// NewGatewayFromConfig selects the gateway and verification model.
func NewGatewayFromConfig(cfg config.Payment) (Gateway, Verifier, error) {
	var gw Gateway
	switch normalizeGateway(cfg.Gateway) {
	case config.GatewayRazorpay:
		gw = NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayBaseURL, cfg.Timeout)
	case config.GatewaySandbox, "":
		if cfg.IsProduction() {
			return nil, nil, fmt.Errorf("%w: sandbox gateway in production environment", ErrInvalidInput)
		}
		gw = NewSandboxGateway()
	default:
		return nil, nil, fmt.Errorf("%w: unknown payment gateway %q", ErrInvalidInput, cfg.Gateway)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.VerifyMode)) {
	case config.VerifyPoll:
		return gw, &StatusVerifier{Gateway: gw}, nil
	case config.VerifySignature, "":
		return gw, &SignatureVerifier{KeySecret: cfg.RazorpayKeySecret}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown verify mode %q", ErrInvalidInput, cfg.VerifyMode)
	}
}

const defaultGatewayTimeout = 15 * time.Second
