package membership

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/app/repository"
	"github.com/ManuelReschke/LinkFox/internal/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t.UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t.UTC()
	c.mu.Unlock()
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	db    *gorm.DB
	repos *repository.Repositories
	clock *testClock
	svc   *Service
}

func newFixture(t *testing.T, start time.Time, opts ...Option) *fixture {
	t.Helper()
	db := database.NewTestDB(t)
	repos := repository.NewRepositories(db)
	clock := newTestClock(start)
	all := append([]Option{WithClock(clock.Now)}, opts...)
	svc := NewService(repos, Config{}, all...)
	return &fixture{db: db, repos: repos, clock: clock, svc: svc}
}

func (f *fixture) register(t *testing.T, name string) *models.User {
	t.Helper()
	u, _, err := f.svc.Register(context.Background(), name, name+"@example.com", "secret123")
	require.NoError(t, err)
	return u
}

func (f *fixture) addPlan(t *testing.T, id uint, daily, monthly int64) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.MembershipPlan{
		ID:            id,
		Name:          fmt.Sprintf("test-plan-%d", id),
		DailyURLLimit: daily,
		URLLimit:      monthly,
	}).Error)
}

func (f *fixture) shorten(t *testing.T, userID uint) error {
	t.Helper()
	_, err := f.svc.Shorten(context.Background(), userID, "https://example.com/some/long/path")
	return err
}

func date(y int, m time.Month, d, h, min, s int) time.Time {
	return time.Date(y, m, d, h, min, s, 0, time.UTC)
}
