package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/internal/pkg/membership"
	"github.com/ManuelReschke/LinkFox/internal/pkg/usercontext"
)

type upgradeRequest struct {
	PlanID     uint `json:"planId" validate:"required"`
	Days       int  `json:"days"`
	DaysActive int  `json:"daysActive"`
}

// days accepts both spellings; zero means the default window length.
func (r upgradeRequest) days() int {
	if r.Days != 0 {
		return r.Days
	}
	if r.DaysActive != 0 {
		return r.DaysActive
	}
	return membership.DefaultPlanDays
}

func planJSON(p *models.MembershipPlan) fiber.Map {
	return fiber.Map{
		"plan_id":         p.ID,
		"name":            p.Name,
		"url_limit":       p.URLLimit,
		"daily_url_limit": p.DailyURLLimit,
		"price":           p.Price,
	}
}

// HandleListPlans returns the plan catalog.
func (a *API) HandleListPlans(c *fiber.Ctx) error {
	plans, err := a.Members.Catalog().ListPlans(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]fiber.Map, 0, len(plans))
	for i := range plans {
		out = append(out, planJSON(&plans[i]))
	}
	return c.JSON(out)
}

// HandleMembershipPlan returns the caller's window and remaining quota.
func (a *API) HandleMembershipPlan(c *fiber.Ctx) error {
	st, err := a.Members.Status(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	if st.State != membership.StateActive {
		return errorJSON(c, fiber.StatusForbidden, "plan_expired",
			"Your plan has expired or there is no active plan. Please upgrade your plan.")
	}
	return c.JSON(fiber.Map{
		"planId":             st.Plan.ID,
		"planName":           st.Plan.Name,
		"urlLimit":           st.Plan.URLLimit,
		"dailyUrlLimit":      st.Plan.DailyURLLimit,
		"urlsRemainingToday": st.URLsRemainingToday,
		"urlsRemainingMonth": st.URLsRemainingMonth,
		"activationDate":     formatTime(st.Window.ActivatedAt),
		"expirationDate":     formatTime(st.Window.ExpiresAt),
		"daysRemaining":      st.DaysRemaining,
		"state":              st.State.String(),
	})
}

// HandleUpgradePlan switches the caller's plan without payment.
// Only admins may use it unless direct upgrades are enabled.
func (a *API) HandleUpgradePlan(c *fiber.Ctx) error {
	if !a.Settings.AllowDirectUpgrade && !usercontext.IsAdmin(c) {
		return errorJSON(c, fiber.StatusForbidden, "forbidden", "Direct plan upgrades are disabled, use create-order")
	}
	var req upgradeRequest
	if err := a.bind(c, &req); err != nil {
		return respondError(c, err)
	}
	window, plan, err := a.Members.Upgrade(c.UserContext(), usercontext.GetUserID(c), req.PlanID, req.days())
	if err != nil {
		if errors.Is(err, membership.ErrPlanNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "not_found", "Plan not found")
		}
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":        "Plan upgraded to " + plan.Name,
		"plan":           planJSON(plan),
		"expirationDate": formatTime(window.ExpiresAt),
	})
}
