package membership

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func denyReason(t *testing.T, err error) (DenyReason, bool) {
	t.Helper()
	var qe *QuotaError
	require.True(t, errors.As(err, &qe), "expected QuotaError, got %v", err)
	assert.ErrorIs(t, err, ErrQuotaDenied)
	return qe.Reason, qe.Expired
}

func TestGuard_NoActivePlan(t *testing.T) {
	f := newFixture(t, date(2026, time.May, 1, 9, 0, 0))

	d, err := f.svc.Admit(context.Background(), 12345)
	require.NoError(t, err)
	assert.False(t, d.Admitted)
	assert.Equal(t, DenyNoActivePlan, d.Reason)
	assert.False(t, d.Expired)
	assert.Equal(t, "You don't have an active plan. Please upgrade your plan.", d.Err().Error())
}

func TestGuard_DailyLimitThenNextDay(t *testing.T) {
	f := newFixture(t, date(2026, time.May, 10, 8, 0, 0))
	user := f.register(t, "daily")

	for i := 0; i < 5; i++ {
		require.NoError(t, f.shorten(t, user.ID), "request %d", i+1)
		f.clock.Advance(time.Minute)
	}

	reason, _ := denyReason(t, f.shorten(t, user.ID))
	assert.Equal(t, DenyDailyLimit, reason)

	// Next UTC day resets the daily counter; monthly count 5 < 50.
	f.clock.Set(date(2026, time.May, 11, 0, 0, 0))
	require.NoError(t, f.shorten(t, user.ID))

	used, err := NewLedger(f.repos.Usage).CountThisMonth(context.Background(), user.ID, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(6), used)
}

func TestGuard_DeniedRequestWritesNothing(t *testing.T) {
	f := newFixture(t, date(2026, time.May, 10, 8, 0, 0))
	user := f.register(t, "nowrite")
	for i := 0; i < 5; i++ {
		require.NoError(t, f.shorten(t, user.ID))
	}
	require.Error(t, f.shorten(t, user.ID))

	links, err := f.repos.ShortLink.CountByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), links)

	var events int64
	require.NoError(t, f.db.Model(&models.UsageEvent{}).Where("user_id = ?", user.ID).Count(&events).Error)
	assert.Equal(t, int64(5), events)
}

func TestGuard_MonthlyLimitAndMonthBoundary(t *testing.T) {
	f := newFixture(t, date(2026, time.January, 31, 22, 0, 0))
	f.addPlan(t, 10, 5, 3)
	user := f.register(t, "monthly")
	_, _, err := f.svc.Upgrade(context.Background(), user.ID, 10, 60)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.shorten(t, user.ID))
	}
	reason, _ := denyReason(t, f.shorten(t, user.ID))
	assert.Equal(t, DenyMonthlyLimit, reason)

	// Events on the last day of January do not count toward February.
	f.clock.Set(date(2026, time.February, 1, 0, 0, 0))
	require.NoError(t, f.shorten(t, user.ID))
}

func TestGuard_DailyCheckedBeforeMonthly(t *testing.T) {
	f := newFixture(t, date(2026, time.March, 3, 12, 0, 0))
	f.addPlan(t, 11, 2, 2)
	user := f.register(t, "tiebreak")
	_, _, err := f.svc.Upgrade(context.Background(), user.ID, 11, 30)
	require.NoError(t, err)

	require.NoError(t, f.shorten(t, user.ID))
	require.NoError(t, f.shorten(t, user.ID))

	reason, _ := denyReason(t, f.shorten(t, user.ID))
	assert.Equal(t, DenyDailyLimit, reason)
}

func TestGuard_ExpirationIsExclusive(t *testing.T) {
	start := date(2026, time.June, 1, 12, 0, 0)
	f := newFixture(t, start)
	user := f.register(t, "expiry")
	expires := start.AddDate(0, 0, 30)

	f.clock.Set(expires)
	reason, expired := denyReason(t, f.shorten(t, user.ID))
	assert.Equal(t, DenyNoActivePlan, reason)
	assert.True(t, expired)

	f.clock.Set(expires.Add(-time.Second))
	require.NoError(t, f.shorten(t, user.ID))
}

func TestGuard_ExpiredOneSecondAgo(t *testing.T) {
	start := date(2026, time.June, 1, 12, 0, 0)
	f := newFixture(t, start)
	user := f.register(t, "lapsed")

	f.clock.Set(start.AddDate(0, 0, 30).Add(time.Second))
	err := f.shorten(t, user.ID)
	reason, _ := denyReason(t, err)
	assert.Equal(t, DenyNoActivePlan, reason)
	assert.Equal(t, "Your plan has expired. Please upgrade your plan.", err.Error())
}

func TestGuard_UnknownPlanIsNotADeny(t *testing.T) {
	f := newFixture(t, date(2026, time.June, 1, 12, 0, 0))
	user := f.register(t, "orphan")
	require.NoError(t, f.db.Model(&models.ActivePlan{}).Where("user_id = ?", user.ID).Update("plan_id", 999).Error)

	_, err := f.svc.Admit(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrInconsistentPlan)
	assert.NotErrorIs(t, err, ErrQuotaDenied)
}
