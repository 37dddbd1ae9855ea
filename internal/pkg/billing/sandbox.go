package billing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const GatewayNameSandbox = "sandbox"

// SandboxGateway is an in-process gateway for development and tests.
// Orders are created paid unless AutoPay is disabled.
type SandboxGateway struct {
	mu      sync.Mutex
	orders  map[string]*Order
	AutoPay bool
	// Err, when set, is returned by every call.
	Err error
}

func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{orders: make(map[string]*Order), AutoPay: true}
}

func (g *SandboxGateway) Name() string  { return GatewayNameSandbox }
func (g *SandboxGateway) KeyID() string { return "" }

func (g *SandboxGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if err := g.fail(ctx); err != nil {
		return nil, err
	}
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	status := OrderStatusCreated
	paid := int64(0)
	g.mu.Lock()
	if g.AutoPay {
		status = OrderStatusPaid
		paid = req.AmountMinor
	}
	o := &Order{
		ID:          "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		AmountMinor: req.AmountMinor,
		AmountPaid:  paid,
		Currency:    req.Currency,
		Receipt:     req.Receipt,
		Status:      status,
	}
	g.orders[o.ID] = o
	g.mu.Unlock()

	cp := *o
	return &cp, nil
}

func (g *SandboxGateway) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	if err := g.fail(ctx); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok {
		return nil, &APIError{StatusCode: 400, Body: `{"error":{"code":"BAD_REQUEST_ERROR","description":"The id provided does not exist"}}`}
	}
	cp := *o
	return &cp, nil
}

// SetStatus changes the status of a known order.
func (g *SandboxGateway) SetStatus(orderID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if o, ok := g.orders[orderID]; ok {
		o.Status = status
		if status == OrderStatusPaid {
			o.AmountPaid = o.AmountMinor
		}
	}
}

func (g *SandboxGateway) SetAutoPay(v bool) {
	g.mu.Lock()
	g.AutoPay = v
	g.mu.Unlock()
}

func (g *SandboxGateway) SetError(err error) {
	g.mu.Lock()
	g.Err = err
	g.mu.Unlock()
}

func (g *SandboxGateway) fail(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Err
}
