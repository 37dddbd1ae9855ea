package membership

import (
	"time"

	"github.com/ManuelReschke/LinkFox/app/models"
)

// State of a user's plan slot at a point in time.
type State int

const (
	StateNone State = iota
	StateActive
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	default:
		return "none"
	}
}

// Window is a read-only snapshot of a user's active plan row.
// The plan applies during [ActivatedAt, ExpiresAt).
type Window struct {
	UserID      uint
	PlanID      uint
	ActivatedAt time.Time
	ExpiresAt   time.Time
	Days        int
}

// State returns NONE for a nil window, ACTIVE while now < ExpiresAt, EXPIRED otherwise.
func (w *Window) State(now time.Time) State {
	if w == nil {
		return StateNone
	}
	if now.Before(w.ExpiresAt) {
		return StateActive
	}
	return StateExpired
}

// DaysRemaining returns the whole days left in the window, never negative.
func (w *Window) DaysRemaining(now time.Time) int {
	if w == nil || !now.Before(w.ExpiresAt) {
		return 0
	}
	return int(w.ExpiresAt.Sub(now) / (24 * time.Hour))
}

func windowFromModel(ap *models.ActivePlan) *Window {
	return &Window{
		UserID:      ap.UserID,
		PlanID:      ap.PlanID,
		ActivatedAt: ap.ActivationDate.UTC(),
		ExpiresAt:   ap.ExpirationDate.UTC(),
		Days:        ap.DaysActive,
	}
}
