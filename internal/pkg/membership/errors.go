package membership

import (
	"errors"
	"fmt"
)

var (
	ErrPlanNotFound       = errors.New("membership: plan not found")
	ErrNoWindow           = errors.New("membership: no active plan")
	ErrAlreadyExists      = errors.New("membership: active plan already exists")
	ErrInvalidDays        = fmt.Errorf("membership: days must be between 1 and %d", MaxPlanDays)
	ErrQuotaDenied        = errors.New("membership: quota denied")
	ErrConflict           = errors.New("membership: username or email already registered")
	ErrLinkNotFound       = errors.New("membership: short link not found")
	ErrCodeSpaceExhausted = errors.New("membership: could not allocate a unique short code")
	ErrInconsistentPlan   = errors.New("membership: active plan references an unknown plan")
	ErrInvalidCredentials = errors.New("membership: invalid credentials")
	ErrValidation         = errors.New("membership: invalid input")
)

// DenyReason is the caller-facing reason of a quota denial.
type DenyReason string

const (
	DenyNoActivePlan DenyReason = "no_active_plan"
	DenyDailyLimit   DenyReason = "daily_limit_reached"
	DenyMonthlyLimit DenyReason = "monthly_limit_reached"
)

// QuotaError is the error form of a denied shorten request.
// Expired separates an elapsed window from a missing one; both share DenyNoActivePlan.
type QuotaError struct {
	Reason  DenyReason
	Expired bool
}

func (e *QuotaError) Error() string {
	switch e.Reason {
	case DenyDailyLimit:
		return "Daily URL limit reached. Try again tomorrow."
	case DenyMonthlyLimit:
		return "Monthly URL limit reached. Upgrade your plan to shorten more URLs."
	default:
		if e.Expired {
			return "Your plan has expired. Please upgrade your plan."
		}
		return "You don't have an active plan. Please upgrade your plan."
	}
}

func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaDenied
}

// ValidationError reports malformed input for a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
