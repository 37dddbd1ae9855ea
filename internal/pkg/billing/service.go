package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/app/repository"
	"github.com/ManuelReschke/LinkFox/internal/pkg/membership"
	"github.com/google/uuid"
)

const maxOrderAmount = 10_000_000

// Options configures the payment service.
type Options struct {
	Currency      string
	Timeout       time.Duration
	WebhookSecret string
}

// Service creates gateway orders and turns verified payments into plan windows.
type Service struct {
	repos         *repository.Repositories
	members       *membership.Service
	gateway       Gateway
	verifier      Verifier
	currency      string
	timeout       time.Duration
	webhookSecret string
}

// NewService creates a payment service from injected collaborators.
func NewService(repos *repository.Repositories, members *membership.Service, gw Gateway, verifier Verifier, opts Options) *Service {
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultGatewayTimeout
	}
	return &Service{
		repos:         repos,
		members:       members,
		gateway:       gw,
		verifier:      verifier,
		currency:      strings.ToUpper(opts.Currency),
		timeout:       opts.Timeout,
		webhookSecret: strings.TrimSpace(opts.WebhookSecret),
	}
}

func (s *Service) Gateway() Gateway { return s.gateway }

// CreateOrder asks the gateway for an order and records it as pending.
// A gateway failure leaves no payment row behind.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*OrderRef, error) {
	if in.UserID == 0 {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	if in.Amount <= 0 || in.Amount > maxOrderAmount {
		return nil, fmt.Errorf("%w: amount must be between 1 and %d", ErrInvalidInput, maxOrderAmount)
	}
	var planID *uint
	if in.PlanID != 0 {
		plan, err := s.members.Catalog().GetPlan(ctx, in.PlanID)
		if err != nil {
			return nil, err
		}
		if in.Days == 0 {
			in.Days = membership.DefaultPlanDays
		}
		if in.Days < 1 || in.Days > membership.MaxPlanDays {
			return nil, membership.ErrInvalidDays
		}
		if err := checkAmount(in.Amount, plan, in.Days); err != nil {
			return nil, err
		}
		id := in.PlanID
		planID = &id
	} else if in.Days != 0 {
		return nil, fmt.Errorf("%w: days require a plan", ErrInvalidInput)
	}

	receipt := "lfx_" + uuid.NewString()
	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	order, err := s.gateway.CreateOrder(gctx, OrderRequest{
		AmountMinor: in.Amount * 100,
		Currency:    s.currency,
		Receipt:     receipt,
		Notes:       map[string]string{"user_id": strconv.FormatUint(uint64(in.UserID), 10)},
	})
	if err != nil {
		return nil, s.gatewayError("create order", err)
	}

	payment := &models.Payment{
		OrderID:    order.ID,
		UserID:     in.UserID,
		Amount:     in.Amount,
		Currency:   s.currency,
		Gateway:    s.gateway.Name(),
		Status:     models.PaymentStatusPending,
		PlanID:     planID,
		DaysActive: in.Days,
	}
	if err := s.repos.Payment.Create(ctx, payment); err != nil {
		return nil, err
	}
	log.Printf("[Billing] order %s created for user %d amount=%d %s", order.ID, in.UserID, in.Amount, s.currency)

	currency := order.Currency
	if currency == "" {
		currency = s.currency
	}
	return &OrderRef{
		OrderID:     order.ID,
		AmountMinor: order.AmountMinor,
		Currency:    currency,
		Receipt:     receipt,
		Gateway:     s.gateway.Name(),
		KeyID:       s.gateway.KeyID(),
	}, nil
}

// VerifyAndActivate confirms the payment with the gateway and grants the plan.
// Verification happens before any write. Repeating it for an order that
// already granted its plan returns the current window with Replayed set.
func (s *Service) VerifyAndActivate(ctx context.Context, in VerifyInput) (*VerifyResult, error) {
	in.OrderID = strings.TrimSpace(in.OrderID)
	if in.OrderID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	payment, err := s.repos.Payment.GetByOrderID(ctx, in.OrderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if payment.UserID != in.UserID {
		return nil, ErrForbidden
	}

	planID, days, err := resolvePlanTerms(payment, in)
	if err != nil {
		return nil, err
	}
	if payment.IsActivated() {
		return s.replay(ctx, s.repos, payment)
	}
	plan, err := s.members.Catalog().GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := checkAmount(payment.Amount, plan, days); err != nil {
		log.Printf("[Billing] order %s for user %d rejected: %v", in.OrderID, in.UserID, err)
		return nil, err
	}

	vctx, cancel := context.WithTimeout(ctx, s.timeout)
	gatewayPaymentID, err := s.verifier.Verify(vctx, VerificationRequest{
		OrderID:   in.OrderID,
		PaymentID: in.PaymentID,
		Signature: in.Signature,
	})
	cancel()
	if err != nil {
		if errors.Is(err, ErrPaymentNotVerified) {
			log.Printf("[Billing] verification of order %s for user %d denied: %v", in.OrderID, in.UserID, err)
			return nil, err
		}
		return nil, s.gatewayError("verify order", err)
	}

	var result *VerifyResult
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		locked, err := tx.Payment.GetByOrderIDForUpdate(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if locked.IsActivated() {
			result, err = s.replay(ctx, tx, locked)
			return err
		}

		tracker := s.members.TrackerWithin(tx)
		renewed := true
		prior, err := tracker.CurrentWindow(ctx, in.UserID)
		switch {
		case err == nil:
			renewed = prior.State(s.members.Now()) != membership.StateActive
		case errors.Is(err, membership.ErrNoWindow):
		default:
			return err
		}

		window, err := tracker.Upgrade(ctx, in.UserID, planID, days)
		if err != nil {
			return err
		}
		if err := tx.Payment.MarkActivated(ctx, in.OrderID, gatewayPaymentID, s.members.Now()); err != nil {
			return err
		}
		locked, err = tx.Payment.GetByOrderID(ctx, in.OrderID)
		if err != nil {
			return err
		}
		result = &VerifyResult{Payment: locked, Window: window, Renewed: renewed}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Plan == nil {
		plan, err := s.members.Catalog().GetPlan(ctx, result.Window.PlanID)
		if err != nil {
			return nil, err
		}
		result.Plan = plan
	}
	if !result.Replayed {
		log.Printf("[Billing] order %s verified, user %d on plan %d until %s", in.OrderID, in.UserID, planID, result.Window.ExpiresAt.Format(time.RFC3339))
	}
	return result, nil
}

func (s *Service) replay(ctx context.Context, repos *repository.Repositories, payment *models.Payment) (*VerifyResult, error) {
	window, err := s.members.TrackerWithin(repos).CurrentWindow(ctx, payment.UserID)
	if err != nil {
		return nil, err
	}
	plan, err := s.members.Catalog().Within(repos.Plan).GetPlan(ctx, window.PlanID)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Payment: payment, Window: window, Plan: plan, Replayed: true}, nil
}

// resolvePlanTerms prefers the plan and days bound at order creation.
func resolvePlanTerms(p *models.Payment, in VerifyInput) (uint, int, error) {
	if p.PlanID != nil {
		if in.PlanID != 0 && in.PlanID != *p.PlanID {
			return 0, 0, fmt.Errorf("%w: order was created for plan %d", ErrInvalidInput, *p.PlanID)
		}
		if in.Days != 0 && in.Days != p.DaysActive {
			return 0, 0, fmt.Errorf("%w: order was created for %d days", ErrInvalidInput, p.DaysActive)
		}
		return *p.PlanID, p.DaysActive, nil
	}
	if in.PlanID == 0 {
		return 0, 0, fmt.Errorf("%w: plan id is required", ErrInvalidInput)
	}
	days := in.Days
	if days == 0 {
		days = membership.DefaultPlanDays
	}
	if days < 1 || days > membership.MaxPlanDays {
		return 0, 0, membership.ErrInvalidDays
	}
	return in.PlanID, days, nil
}

// PlanCharge is the price of a plan for the given days, prorated from the
// monthly price and rounded up to the next major unit.
func PlanCharge(plan *models.MembershipPlan, days int) int64 {
	return (plan.Price*int64(days) + int64(membership.DefaultPlanDays) - 1) / int64(membership.DefaultPlanDays)
}

func checkAmount(amount int64, plan *models.MembershipPlan, days int) error {
	if want := PlanCharge(plan, days); amount < want {
		return fmt.Errorf("%w: amount %d is below the %d due for plan %d over %d days", ErrInvalidInput, amount, want, plan.ID, days)
	}
	return nil
}

// HandleWebhook records a gateway notification and updates the payment status.
// It never grants a plan; only VerifyAndActivate does.
func (s *Service) HandleWebhook(ctx context.Context, in WebhookInput) (*WebhookResult, error) {
	signatureValid := false
	if s.webhookSecret != "" {
		if !VerifyWebhookSignature(in.Payload, in.Signature, s.webhookSecret) {
			return nil, ErrInvalidSignature
		}
		signatureValid = true
	}

	note, err := ParseWebhook(in.Payload)
	if err != nil {
		return nil, err
	}
	eventID := firstNonEmpty(strings.TrimSpace(in.EventID), note.EventID)

	created, event, err := s.RecordWebhookEvent(ctx, WebhookEventInput{
		Gateway:         s.gateway.Name(),
		ProviderEventID: eventID,
		EventType:       note.EventType,
		OrderID:         note.OrderID,
		Payload:         in.Payload,
		SignatureValid:  signatureValid,
	})
	if err != nil {
		return nil, err
	}
	result := &WebhookResult{OrderID: note.OrderID, Status: note.Status}
	if !created && event.ProcessedAt != nil {
		result.Duplicate = true
		return result, nil
	}

	var processingErr error
	if note.Status != models.PaymentStatusPending {
		result.Updated, processingErr = s.repos.Payment.UpdatePendingStatus(ctx, note.OrderID, note.Status, s.members.Now())
		if processingErr == nil && !result.Updated {
			payment, err := s.repos.Payment.GetByOrderID(ctx, note.OrderID)
			switch {
			case repository.IsNotFound(err):
				processingErr = fmt.Errorf("unknown order %s", note.OrderID)
			case err == nil && payment.IsSuccess() && note.Status != models.PaymentStatusSuccess:
				log.Printf("[Billing] webhook %s ignored: order %s already succeeded", eventID, note.OrderID)
			}
		}
	}
	if err := s.MarkWebhookProcessed(ctx, event.ID, processingErr); err != nil {
		return nil, err
	}
	if processingErr != nil {
		log.Printf("[Billing] webhook %s for order %s: %v", eventID, note.OrderID, processingErr)
	}
	return result, nil
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.PaymentWebhookEvent, error) {
	gateway := normalizeGateway(in.Gateway)
	if gateway == "" {
		return false, nil, fmt.Errorf("%w: gateway is required", ErrInvalidInput)
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256(in.Payload)
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.PaymentWebhookEvent{
		Gateway:         gateway,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		OrderID:         strings.TrimSpace(in.OrderID),
		Payload:         in.Payload,
		SignatureValid:  in.SignatureValid,
	}
	return s.repos.Payment.CreateWebhookEventIfNotExists(ctx, event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repos.Payment.MarkWebhookProcessed(ctx, webhookEventID, errMsg)
}

func (s *Service) gatewayError(op string, err error) error {
	log.Printf("[Billing] gateway %s %s failed: %v", s.gateway.Name(), op, err)
	if errors.Is(err, ErrInvalidInput) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrGatewayTimeout, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrGatewayUnavailable, op, err)
}
