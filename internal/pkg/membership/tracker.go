package membership

import (
	"context"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/app/repository"
)

const (
	DefaultPlanDays = 30
	MaxPlanDays     = 3650
)

// Tracker owns the single plan slot per user.
// Transitions: NONE -> ActivateDefault -> ACTIVE, any state -> Upgrade -> ACTIVE,
// ACTIVE -> EXPIRED by the passing of time only.
type Tracker struct {
	plans   repository.ActivePlanRepository
	catalog *Catalog
	clock   Clock
}

func NewTracker(plans repository.ActivePlanRepository, catalog *Catalog, clock Clock) *Tracker {
	if clock == nil {
		clock = SystemClock
	}
	return &Tracker{plans: plans, catalog: catalog, clock: clock}
}

// ActivateDefault creates the first slot for a user. It never overwrites.
func (t *Tracker) ActivateDefault(ctx context.Context, userID, planID uint, days int) (*Window, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	if _, err := t.catalog.GetPlan(ctx, planID); err != nil {
		return nil, err
	}

	now := t.clock()
	ap := &models.ActivePlan{
		UserID:         userID,
		PlanID:         planID,
		ActivationDate: now,
		DaysActive:     days,
		ExpirationDate: now.AddDate(0, 0, days),
	}
	if err := t.plans.Create(ctx, ap); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return windowFromModel(ap), nil
}

// Upgrade replaces the slot with planID for days starting now, or inserts it.
// Remaining days of the previous window are discarded. Run it inside a transaction.
func (t *Tracker) Upgrade(ctx context.Context, userID, planID uint, days int) (*Window, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	if _, err := t.catalog.GetPlan(ctx, planID); err != nil {
		return nil, err
	}
	if _, err := t.plans.GetByUserIDForUpdate(ctx, userID); err != nil && !repository.IsNotFound(err) {
		return nil, err
	}

	now := t.clock()
	ap := &models.ActivePlan{
		UserID:         userID,
		PlanID:         planID,
		ActivationDate: now,
		DaysActive:     days,
		ExpirationDate: now.AddDate(0, 0, days),
		UpdatedAt:      now,
	}
	if err := t.plans.Upsert(ctx, ap); err != nil {
		return nil, err
	}
	return windowFromModel(ap), nil
}

// CurrentWindow returns the user's slot or ErrNoWindow.
func (t *Tracker) CurrentWindow(ctx context.Context, userID uint) (*Window, error) {
	return t.window(ctx, userID, false)
}

func (t *Tracker) window(ctx context.Context, userID uint, lock bool) (*Window, error) {
	var (
		ap  *models.ActivePlan
		err error
	)
	if lock {
		ap, err = t.plans.GetByUserIDForUpdate(ctx, userID)
	} else {
		ap, err = t.plans.GetByUserID(ctx, userID)
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNoWindow
		}
		return nil, err
	}
	return windowFromModel(ap), nil
}

func validateDays(days int) error {
	if days < 1 || days > MaxPlanDays {
		return ErrInvalidDays
	}
	return nil
}
