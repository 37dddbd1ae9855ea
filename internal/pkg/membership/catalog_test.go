package membership

import (
	"context"
	"testing"
	"time"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_GetPlan(t *testing.T) {
	f := newFixture(t, date(2026, time.May, 1, 9, 0, 0))
	ctx := context.Background()

	plan, err := f.svc.Catalog().GetPlan(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Free", plan.Name)
	assert.Equal(t, int64(5), plan.DailyURLLimit)
	assert.Equal(t, int64(50), plan.URLLimit)

	_, err = f.svc.Catalog().GetPlan(ctx, 404)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestCatalog_ListPlansOrderedAndCached(t *testing.T) {
	f := newFixture(t, date(2026, time.May, 1, 9, 0, 0))
	ctx := context.Background()

	plans, err := f.svc.Catalog().ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, []uint{1, 2, 3}, []uint{plans[0].ID, plans[1].ID, plans[2].ID})

	// Rows removed after the first read stay visible for the process lifetime.
	require.NoError(t, f.db.Where("plan_id = ?", 3).Delete(&models.MembershipPlan{}).Error)

	again, err := f.svc.Catalog().ListPlans(ctx)
	require.NoError(t, err)
	assert.Len(t, again, 3)

	pro, err := f.svc.Catalog().GetPlan(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Pro", pro.Name)
}

func TestCatalog_WithinSharesCache(t *testing.T) {
	f := newFixture(t, date(2026, time.May, 1, 9, 0, 0))
	ctx := context.Background()

	_, err := f.svc.Catalog().GetPlan(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, f.db.Where("plan_id = ?", 2).Delete(&models.MembershipPlan{}).Error)

	view := f.svc.Catalog().Within(f.repos.Plan)
	plan, err := view.GetPlan(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Basic", plan.Name)
}
