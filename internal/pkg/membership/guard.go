package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/LinkFox/app/models"
)

// Decision is the outcome of a quota check.
type Decision struct {
	Admitted  bool
	Reason    DenyReason
	Expired   bool
	Window    *Window
	Plan      *models.MembershipPlan
	UsedToday int64
	UsedMonth int64
}

// Err returns nil for an admission and a *QuotaError otherwise.
func (d Decision) Err() error {
	if d.Admitted {
		return nil
	}
	return &QuotaError{Reason: d.Reason, Expired: d.Expired}
}

// Guard decides whether a user may mint another short code. It never writes.
type Guard struct {
	tracker *Tracker
	catalog *Catalog
	ledger  *Ledger
}

func NewGuard(tracker *Tracker, catalog *Catalog, ledger *Ledger) *Guard {
	return &Guard{tracker: tracker, catalog: catalog, ledger: ledger}
}

// Admit checks the window, then the daily limit, then the monthly limit.
func (g *Guard) Admit(ctx context.Context, userID uint, now time.Time) (Decision, error) {
	w, err := g.tracker.window(ctx, userID, false)
	if err != nil && !errors.Is(err, ErrNoWindow) {
		return Decision{}, err
	}
	return g.decide(ctx, userID, w, now)
}

// admitLocked locks the user's plan row before reading the clock.
func (g *Guard) admitLocked(ctx context.Context, userID uint, clock Clock) (Decision, time.Time, error) {
	w, err := g.tracker.window(ctx, userID, true)
	if err != nil && !errors.Is(err, ErrNoWindow) {
		return Decision{}, time.Time{}, err
	}
	now := clock()
	d, err := g.decide(ctx, userID, w, now)
	return d, now, err
}

func (g *Guard) decide(ctx context.Context, userID uint, w *Window, now time.Time) (Decision, error) {
	switch w.State(now) {
	case StateNone:
		return Decision{Reason: DenyNoActivePlan}, nil
	case StateExpired:
		return Decision{Reason: DenyNoActivePlan, Expired: true, Window: w}, nil
	}

	plan, err := g.catalog.GetPlan(ctx, w.PlanID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return Decision{}, fmt.Errorf("%w: user %d plan %d", ErrInconsistentPlan, userID, w.PlanID)
		}
		return Decision{}, err
	}

	today, err := g.ledger.CountToday(ctx, userID, now)
	if err != nil {
		return Decision{}, err
	}
	month, err := g.ledger.CountThisMonth(ctx, userID, now)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{Window: w, Plan: plan, UsedToday: today, UsedMonth: month}
	switch {
	case today >= plan.DailyURLLimit:
		d.Reason = DenyDailyLimit
	case month >= plan.URLLimit:
		d.Reason = DenyMonthlyLimit
	default:
		d.Admitted = true
	}
	return d, nil
}
