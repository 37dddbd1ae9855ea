package membership

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestService_RegisterCreatesDefaultWindow(t *testing.T) {
	start := date(2026, time.July, 4, 15, 30, 0)
	f := newFixture(t, start)

	user, w, err := f.svc.Register(context.Background(), "  alice ", "Alice@Example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "secret123", user.Password)
	assert.Equal(t, DefaultPlanID, w.PlanID)
	assert.Equal(t, DefaultPlanDays, w.Days)
	assert.Equal(t, start.AddDate(0, 0, 30), w.ExpiresAt)
}

func TestService_RegisterConflictAndValidation(t *testing.T) {
	f := newFixture(t, date(2026, time.July, 4, 15, 30, 0))
	ctx := context.Background()
	f.register(t, "bob")

	_, _, err := f.svc.Register(ctx, "bob", "other@example.com", "secret123")
	assert.ErrorIs(t, err, ErrConflict)
	_, _, err = f.svc.Register(ctx, "bobby", "bob@example.com", "secret123")
	assert.ErrorIs(t, err, ErrConflict)

	_, _, err = f.svc.Register(ctx, "carol", "not-an-email", "secret123")
	assert.ErrorIs(t, err, ErrValidation)
	_, _, err = f.svc.Register(ctx, "carol", "carol@example.com", "123")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_Authenticate(t *testing.T) {
	f := newFixture(t, date(2026, time.July, 4, 15, 30, 0))
	ctx := context.Background()
	user := f.register(t, "dave")

	got, err := f.svc.Authenticate(ctx, "DAVE@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = f.svc.Authenticate(ctx, "dave@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Authenticate(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_ShortenResolveRoundTrip(t *testing.T) {
	f := newFixture(t, date(2026, time.July, 4, 15, 30, 0))
	ctx := context.Background()
	user := f.register(t, "erin")

	urls := []string{
		"https://example.com/a?b=c#d",
		"http://example.org/very/long/path/with/segments",
	}
	for _, u := range urls {
		link, err := f.svc.Shorten(ctx, user.ID, u)
		require.NoError(t, err)
		assert.Len(t, link.ShortCode, 7)
		assert.Equal(t, user.ID, link.UserID)

		resolved, err := f.svc.Resolve(ctx, link.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, u, resolved)
	}

	links, err := f.svc.ListLinks(ctx, user.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	_, err = f.svc.Resolve(ctx, "zzzzzzz")
	assert.ErrorIs(t, err, ErrLinkNotFound)
	_, err = f.svc.Resolve(ctx, "../etc")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestService_ShortenRejectsBadURL(t *testing.T) {
	f := newFixture(t, date(2026, time.July, 4, 15, 30, 0))
	user := f.register(t, "frank")

	for _, u := range []string{"", "not a url", "ftp://example.com/file", "javascript:alert(1)"} {
		_, err := f.svc.Shorten(context.Background(), user.ID, u)
		assert.ErrorIs(t, err, ErrValidation, "url %q", u)
	}
}

func TestService_ShortenRetriesOnCollision(t *testing.T) {
	var (
		mu    sync.Mutex
		codes = []string{"AAAAAAA", "AAAAAAA", "BBBBBBB"}
		calls int
	)
	gen := func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		c := codes[calls%len(codes)]
		calls++
		return c, nil
	}
	f := newFixture(t, date(2026, time.July, 4, 15, 30, 0), WithCodeGenerator(gen))
	ctx := context.Background()
	user := f.register(t, "gina")

	first, err := f.svc.Shorten(ctx, user.ID, "https://example.com/1")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAAA", first.ShortCode)

	second, err := f.svc.Shorten(ctx, user.ID, "https://example.com/2")
	require.NoError(t, err)
	assert.Equal(t, "BBBBBBB", second.ShortCode)
	assert.Equal(t, 3, calls)

	used, err := NewLedger(f.repos.Usage).CountToday(ctx, user.ID, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), used, "a collided attempt must not leave a usage event")
}

func TestService_ShortenGivesUpAfterMaxAttempts(t *testing.T) {
	gen := func() (string, error) { return "CCCCCCC", nil }
	f := newFixture(t, date(2026, time.July, 4, 15, 30, 0), WithCodeGenerator(gen))
	ctx := context.Background()
	user := f.register(t, "hank")

	_, err := f.svc.Shorten(ctx, user.ID, "https://example.com/1")
	require.NoError(t, err)

	_, err = f.svc.Shorten(ctx, user.ID, "https://example.com/2")
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)

	used, err := NewLedger(f.repos.Usage).CountToday(ctx, user.ID, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), used)
}

func TestService_ShortenReadsClockAfterPlanLock(t *testing.T) {
	f := newFixture(t, date(2026, time.July, 4, 23, 30, 0))
	ctx := context.Background()
	user := f.register(t, "judy")
	for i := 0; i < 5; i++ {
		require.NoError(t, f.shorten(t, user.ID))
	}
	require.ErrorIs(t, f.shorten(t, user.ID), ErrQuotaDenied)

	// the plan row read stands in for waiting on the lock past midnight
	var waiting atomic.Bool
	waiting.Store(true)
	require.NoError(t, f.db.Callback().Query().After("gorm:query").Register("test:lock_wait", func(db *gorm.DB) {
		if db.Statement.Table == "active_plans" && waiting.CompareAndSwap(true, false) {
			f.clock.Advance(time.Hour)
		}
	}))

	link, err := f.svc.Shorten(ctx, user.ID, "https://example.com/after-midnight")
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.July, 5, 0, 30, 0), link.CreatedAt.UTC())

	used, err := NewLedger(f.repos.Usage).CountToday(ctx, user.ID, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), used)
}

func TestService_ConcurrentShortenNeverExceedsDailyLimit(t *testing.T) {
	f := newFixture(t, date(2026, time.August, 20, 10, 0, 0))
	user := f.register(t, "ivan")

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		denied  int
		unknown []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Shorten(context.Background(), user.ID, fmt.Sprintf("https://example.com/%d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrQuotaDenied):
				denied++
			default:
				unknown = append(unknown, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, unknown)
	assert.Equal(t, 5, ok)
	assert.Equal(t, 5, denied)
}

func TestService_Status(t *testing.T) {
	start := date(2026, time.September, 1, 6, 0, 0)
	f := newFixture(t, start)
	ctx := context.Background()
	user := f.register(t, "judy")

	for i := 0; i < 3; i++ {
		require.NoError(t, f.shorten(t, user.ID))
	}
	f.clock.Advance(36 * time.Hour)

	st, err := f.svc.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Free", st.Plan.Name)
	assert.Equal(t, StateActive, st.State)
	assert.Equal(t, 28, st.DaysRemaining)
	assert.Equal(t, int64(0), st.UsedToday)
	assert.Equal(t, int64(3), st.UsedThisMonth)
	assert.Equal(t, int64(5), st.URLsRemainingToday)
	assert.Equal(t, int64(47), st.URLsRemainingMonth)

	f.clock.Set(start.AddDate(0, 0, 31))
	st, err = f.svc.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, StateExpired, st.State)
	assert.Equal(t, 0, st.DaysRemaining)

	_, err = f.svc.Status(ctx, 424242)
	assert.ErrorIs(t, err, ErrNoWindow)
}

func TestService_UpgradeValidation(t *testing.T) {
	f := newFixture(t, date(2026, time.September, 1, 6, 0, 0))
	ctx := context.Background()
	user := f.register(t, "kim")

	_, _, err := f.svc.Upgrade(ctx, user.ID, 42, 30)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	_, _, err = f.svc.Upgrade(ctx, user.ID, 2, 0)
	assert.ErrorIs(t, err, ErrInvalidDays)

	w, plan, err := f.svc.Upgrade(ctx, user.ID, 3, 365)
	require.NoError(t, err)
	assert.Equal(t, "Pro", plan.Name)
	assert.Equal(t, uint(3), w.PlanID)
}

type memoryLinkCache struct {
	mu   sync.Mutex
	data map[string]string
	hits int
}

func (c *memoryLinkCache) Get(_ context.Context, code string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[code]
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *memoryLinkCache) Set(_ context.Context, code, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[code] = url
}

func TestService_ResolveUsesLinkCache(t *testing.T) {
	cache := &memoryLinkCache{data: map[string]string{}}
	f := newFixture(t, date(2026, time.September, 1, 6, 0, 0), WithLinkCache(cache))
	ctx := context.Background()
	user := f.register(t, "leo")

	link, err := f.svc.Shorten(ctx, user.ID, "https://example.com/cached")
	require.NoError(t, err)

	got, err := f.svc.Resolve(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/cached", got)
	assert.Equal(t, 1, cache.hits)
}
